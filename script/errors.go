package script

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a syntax error. Incomplete is set when the input ended
// before a construct was closed, which line editors use to ask for more input.
type ParseError struct {
	Pos        Position
	Msg        string
	Incomplete bool
	source     string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "parse error at %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
	if frame := formatCodeFrame(e.source, e.Pos); frame != "" {
		b.WriteString("\n")
		b.WriteString(frame)
	}
	return b.String()
}

// RuntimeError is an evaluation failure tied to a source position. Engine
// errors are kept as Err so errors.Is still matches the klass sentinels.
type RuntimeError struct {
	Pos    Position
	Msg    string
	Err    error
	source string
}

func (e *RuntimeError) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "runtime error at %d:%d: %s", e.Pos.Line, e.Pos.Column, msg)
	if frame := formatCodeFrame(e.source, e.Pos); frame != "" {
		b.WriteString("\n")
		b.WriteString(frame)
	}
	return b.String()
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// IsIncomplete reports whether err is a parse error caused by input that ended
// inside an open construct.
func IsIncomplete(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Incomplete
}

func formatCodeFrame(source string, pos Position) string {
	if source == "" || pos.Line <= 0 {
		return ""
	}

	lines := strings.Split(source, "\n")
	if pos.Line > len(lines) {
		return ""
	}

	lineText := lines[pos.Line-1]
	column := pos.Column
	if column <= 0 {
		column = 1
	}
	if n := len([]rune(lineText)); column > n+1 {
		column = n + 1
	}

	lineLabel := strconv.Itoa(pos.Line)
	return fmt.Sprintf(
		"  --> line %d, column %d\n %s | %s\n %s | %s^",
		pos.Line,
		column,
		lineLabel,
		lineText,
		strings.Repeat(" ", len(lineLabel)),
		strings.Repeat(" ", column-1),
	)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgomes/klass/klass"
	"github.com/mgomes/klass/script"
	"github.com/peterh/liner"
)

const (
	shellHistoryFile    = ".klass_history"
	shellPrompt         = "klass> "
	shellContinuePrompt = "  ...> "
)

type linePrompter interface {
	Prompt(prompt string) (string, error)
}

func runShell() error {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, shellHistoryFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	rt, err := klass.New(klass.Config{})
	if err != nil {
		return err
	}
	session := script.NewSession(rt, os.Stdout)
	ln.SetCompleter(func(line string) []string {
		idx := strings.LastIndexAny(line, " \t.(,[{")
		prefix, word := line[:idx+1], line[idx+1:]
		if word == "" {
			return nil
		}
		var out []string
		for _, candidate := range completionCandidates(session, word) {
			out = append(out, prefix+candidate)
		}
		return out
	})

	fmt.Printf("klass %s shell. Type :quit to exit.\n", klass.Version)
	return shellLoop(context.Background(), ln, session, os.Stdout, os.Stderr, ln.AppendHistory)
}

// shellLoop reads statements until end of input or :quit and evaluates them in
// session. Every evaluated statement is passed to remember as a single line.
func shellLoop(ctx context.Context, ln linePrompter, session *script.Session, out, errOut io.Writer, remember func(string)) error {
	for {
		src, ok := readStatement(ln, shellPrompt, shellContinuePrompt)
		if !ok {
			fmt.Fprintln(out)
			return nil
		}

		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch trimmed {
			case ":quit", ":q":
				return nil
			case ":reset", ":r":
				session.Reset()
				fmt.Fprintln(out, "session reset")
			case ":vars", ":v":
				for _, name := range session.Names() {
					val, _ := session.Lookup(name)
					fmt.Fprintf(out, "%s = %s\n", name, script.Inspect(val))
				}
			default:
				fmt.Fprintf(out, "unknown command %s. Type :quit to exit.\n", trimmed)
			}
			continue
		}

		remember(joinHistoryLines(src))
		val, err := session.Eval(ctx, src)
		if err != nil {
			fmt.Fprintln(errOut, err)
			continue
		}
		if !val.IsNil() {
			fmt.Fprintln(out, "=> "+script.Inspect(val))
		}
	}
}

// readStatement keeps prompting while the buffered input is an unterminated
// block. It reports false at end of input.
func readStatement(ln linePrompter, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, err := script.Parse(src); script.IsIncomplete(err) {
			continue
		}
		return src, true
	}
}

// joinHistoryLines folds a multi-line statement into one history entry.
// Semicolons separate statements just like newlines.
func joinHistoryLines(src string) string {
	lines := strings.Split(src, "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, "; ")
}

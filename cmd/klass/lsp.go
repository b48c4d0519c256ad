package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/mgomes/klass/klass"
	"github.com/mgomes/klass/script"
)

var lspKeywords = []string{
	"base",
	"class",
	"def",
	"end",
	"false",
	"nil",
	"print",
	"return",
	"self",
	"true",
}

type lspInboundMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type lspResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type lspOutboundMessage struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      *json.RawMessage  `json:"id,omitempty"`
	Method  string            `json:"method,omitempty"`
	Params  any               `json:"params,omitempty"`
	Result  any               `json:"result,omitempty"`
	Error   *lspResponseError `json:"error,omitempty"`
}

type lspDidOpenParams struct {
	TextDocument struct {
		URI  string `json:"uri"`
		Text string `json:"text"`
	} `json:"textDocument"`
}

type lspDidChangeParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	ContentChanges []struct {
		Text string `json:"text"`
	} `json:"contentChanges"`
}

type lspTextDocumentPositionParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	Position struct {
		Line      int `json:"line"`
		Character int `json:"character"`
	} `json:"position"`
}

type lspServer struct {
	reader *bufio.Reader
	writer *bufio.Writer
	root   *klass.Class
	docs   map[string]string
}

func newLSPServer(r io.Reader, w io.Writer) *lspServer {
	return &lspServer{
		reader: bufio.NewReader(r),
		writer: bufio.NewWriter(w),
		root:   klass.MustNew(klass.Config{}).Root(),
		docs:   make(map[string]string),
	}
}

func runLSP() error {
	return newLSPServer(os.Stdin, os.Stdout).serve()
}

func (s *lspServer) serve() error {
	for {
		payload, err := s.readPayload()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var incoming lspInboundMessage
		if err := json.Unmarshal(payload, &incoming); err != nil {
			continue
		}

		messages := s.handleMessage(incoming)
		for _, msg := range messages {
			if err := s.writePayload(msg); err != nil {
				return err
			}
		}

		if incoming.Method == "exit" {
			return nil
		}
	}
}

func (s *lspServer) handleMessage(incoming lspInboundMessage) []lspOutboundMessage {
	switch incoming.Method {
	case "initialize":
		return []lspOutboundMessage{
			{
				JSONRPC: "2.0",
				ID:      incoming.ID,
				Result: map[string]any{
					"capabilities": map[string]any{
						"textDocumentSync": 1,
						"hoverProvider":    true,
						"completionProvider": map[string]any{
							"resolveProvider":   false,
							"triggerCharacters": []string{"."},
						},
					},
				},
			},
		}
	case "initialized", "exit":
		return nil
	case "shutdown":
		if incoming.ID == nil {
			return nil
		}
		return []lspOutboundMessage{{JSONRPC: "2.0", ID: incoming.ID, Result: nil}}
	case "textDocument/didOpen":
		var params lspDidOpenParams
		if err := json.Unmarshal(incoming.Params, &params); err != nil {
			return nil
		}
		s.docs[params.TextDocument.URI] = params.TextDocument.Text
		return []lspOutboundMessage{
			s.publishDiagnostics(params.TextDocument.URI, params.TextDocument.Text),
		}
	case "textDocument/didChange":
		var params lspDidChangeParams
		if err := json.Unmarshal(incoming.Params, &params); err != nil {
			return nil
		}
		if len(params.ContentChanges) == 0 {
			return nil
		}
		latest := params.ContentChanges[len(params.ContentChanges)-1].Text
		s.docs[params.TextDocument.URI] = latest
		return []lspOutboundMessage{
			s.publishDiagnostics(params.TextDocument.URI, latest),
		}
	case "textDocument/completion":
		if incoming.ID == nil {
			return nil
		}
		var params lspTextDocumentPositionParams
		_ = json.Unmarshal(incoming.Params, &params)
		return []lspOutboundMessage{
			{
				JSONRPC: "2.0",
				ID:      incoming.ID,
				Result: map[string]any{
					"isIncomplete": false,
					"items":        s.completionItems(s.docs[params.TextDocument.URI]),
				},
			},
		}
	case "textDocument/hover":
		if incoming.ID == nil {
			return nil
		}
		var params lspTextDocumentPositionParams
		if err := json.Unmarshal(incoming.Params, &params); err != nil {
			return []lspOutboundMessage{
				{
					JSONRPC: "2.0",
					ID:      incoming.ID,
					Error:   &lspResponseError{Code: -32602, Message: "invalid hover params"},
				},
			}
		}
		source := s.docs[params.TextDocument.URI]
		word := wordAtPosition(source, params.Position.Line, params.Position.Character)
		if word == "" {
			return []lspOutboundMessage{
				{JSONRPC: "2.0", ID: incoming.ID, Result: nil},
			}
		}
		return []lspOutboundMessage{
			{
				JSONRPC: "2.0",
				ID:      incoming.ID,
				Result: map[string]any{
					"contents": map[string]any{
						"kind":  "markdown",
						"value": s.describeWord(source, word),
					},
				},
			},
		}
	default:
		if incoming.ID == nil {
			return nil
		}
		return []lspOutboundMessage{
			{
				JSONRPC: "2.0",
				ID:      incoming.ID,
				Error: &lspResponseError{
					Code:    -32601,
					Message: "method not found",
				},
			},
		}
	}
}

func (s *lspServer) publishDiagnostics(uri, source string) lspOutboundMessage {
	return lspOutboundMessage{
		JSONRPC: "2.0",
		Method:  "textDocument/publishDiagnostics",
		Params: map[string]any{
			"uri":         uri,
			"diagnostics": s.diagnosticsForSource(source),
		},
	}
}

// diagnosticsForSource reports the parse error of source, if any, followed by
// analyzer warnings as severity 2.
func (s *lspServer) diagnosticsForSource(source string) []map[string]any {
	program, err := script.Parse(source)
	if err != nil {
		var pe *script.ParseError
		if !errors.As(err, &pe) {
			return []map[string]any{newDiagnostic(0, 0, 1, err.Error())}
		}
		return []map[string]any{newDiagnostic(max(0, pe.Pos.Line-1), max(0, pe.Pos.Column-1), 1, pe.Msg)}
	}

	warnings := analyzeProgram(program, s.root)
	out := make([]map[string]any, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, newDiagnostic(max(0, warning.Pos.Line-1), max(0, warning.Pos.Column-1), 2, warning.Message))
	}
	return out
}

func newDiagnostic(line, character, severity int, message string) map[string]any {
	return map[string]any{
		"range": map[string]any{
			"start": map[string]any{
				"line":      line,
				"character": character,
			},
			"end": map[string]any{
				"line":      line,
				"character": character + 1,
			},
		},
		"severity": severity,
		"source":   "klass-lsp",
		"message":  message,
	}
}

// completionItems offers keywords, the root class statics and every class
// declared in source.
func (s *lspServer) completionItems(source string) []map[string]any {
	kinds := make(map[string]int)
	details := make(map[string]string)
	for _, keyword := range lspKeywords {
		kinds[keyword], details[keyword] = 14, "keyword"
	}
	for _, name := range append(s.root.StaticNames(), "new") {
		if _, ok := kinds[name]; !ok {
			kinds[name], details[name] = 2, "class method"
		}
	}
	for _, class := range declaredClasses(source) {
		kinds[class.Name], details[class.Name] = 7, "class"
	}
	kinds["Base"], details["Base"] = 7, "class"

	labels := make([]string, 0, len(kinds))
	for label := range kinds {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	items := make([]map[string]any, 0, len(labels))
	for _, label := range labels {
		items = append(items, map[string]any{
			"label":  label,
			"kind":   kinds[label],
			"detail": details[label],
		})
	}
	return items
}

// describeWord renders hover text. Classes declared in source are shown with
// their parent and methods; methods that call base are marked as overrides.
func (s *lspServer) describeWord(source, word string) string {
	for _, class := range declaredClasses(source) {
		if class.Name != word {
			continue
		}
		parent := "Base"
		if ident, ok := class.Parent.(*script.Identifier); ok {
			parent = ident.Name
		} else if class.Parent != nil {
			parent = "(expression)"
		}
		var b strings.Builder
		fmt.Fprintf(&b, "```\nclass %s < %s\n```", class.Name, parent)
		for _, method := range class.Methods {
			label := method.Name
			if method.Static {
				label = "self." + label
			}
			fmt.Fprintf(&b, "\n- `%s(%s)`", label, strings.Join(method.Params, ", "))
			if klass.MentionsBase(method.Source) {
				b.WriteString(" overrides")
			}
		}
		return b.String()
	}

	for _, keyword := range lspKeywords {
		if keyword == word {
			return fmt.Sprintf("`%s`\n\nkeyword", word)
		}
	}
	if word == "Base" {
		return "`Base`\n\nroot class, version " + klass.Version
	}
	if _, ok := s.root.Static(word); ok || word == "new" {
		return fmt.Sprintf("`%s`\n\nclass method", word)
	}
	return fmt.Sprintf("`%s`\n\nsymbol", word)
}

// declaredClasses returns the top-level classes of source. Sources that do not
// parse yield nothing.
func declaredClasses(source string) []*script.ClassStmt {
	program, err := script.Parse(source)
	if err != nil {
		return nil
	}
	var classes []*script.ClassStmt
	for _, stmt := range program.Statements {
		if class, ok := stmt.(*script.ClassStmt); ok {
			classes = append(classes, class)
		}
	}
	return classes
}

// wordAtPosition returns the identifier under an LSP position. character
// counts UTF-16 code units.
func wordAtPosition(source string, line, character int) string {
	lines := strings.Split(source, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}

	runes := []rune(lines[line])
	if len(runes) == 0 {
		return ""
	}

	cursor, units := 0, 0
	for cursor < len(runes) && units < character {
		units += utf16.RuneLen(runes[cursor])
		cursor++
	}
	if cursor == len(runes) {
		cursor--
	}
	if !isWordRune(runes[cursor]) {
		if cursor > 0 && isWordRune(runes[cursor-1]) {
			cursor--
		} else {
			return ""
		}
	}

	start := cursor
	for start > 0 && isWordRune(runes[start-1]) {
		start--
	}
	end := cursor
	for end < len(runes) && isWordRune(runes[end]) {
		end++
	}
	return string(runes[start:end])
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '?'
}

func (s *lspServer) readPayload() ([]byte, error) {
	contentLength := -1
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
			contentLength = n
		}
	}

	if contentLength < 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}
	payload := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *lspServer) writePayload(msg lspOutboundMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	return s.writer.Flush()
}

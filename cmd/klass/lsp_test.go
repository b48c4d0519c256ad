package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"testing"
)

func TestRunCLIStartsLSPAndExitsOnEOF(t *testing.T) {
	origStdin := os.Stdin
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close write pipe: %v", err)
	}
	os.Stdin = r
	defer func() {
		os.Stdin = origStdin
		_ = r.Close()
	}()

	if err := runCLI([]string{"klass", "lsp"}); err != nil {
		t.Fatalf("runCLI lsp failed: %v", err)
	}
}

func TestDiagnosticsForSourceWithoutErrors(t *testing.T) {
	server := newLSPServer(strings.NewReader(""), io.Discard)
	source := "class A\n  def m()\n    1\n  end\nend\n"
	if diags := server.diagnosticsForSource(source); len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

func TestDiagnosticsForSourceWithParseError(t *testing.T) {
	server := newLSPServer(strings.NewReader(""), io.Discard)
	diags := server.diagnosticsForSource("class A\n  def m(\nend\n")
	if len(diags) != 1 {
		t.Fatalf("expected one diagnostic, got %v", diags)
	}
	first := diags[0]
	if first["severity"] != 1 {
		t.Fatalf("expected severity 1, got %#v", first["severity"])
	}
	if first["source"] != "klass-lsp" {
		t.Fatalf("unexpected source %#v", first["source"])
	}
	message, ok := first["message"].(string)
	if !ok || message == "" || strings.Contains(message, "-->") {
		t.Fatalf("expected bare diagnostic message, got %#v", first["message"])
	}
}

func TestDiagnosticsForSourceIncludesWarnings(t *testing.T) {
	server := newLSPServer(strings.NewReader(""), io.Discard)
	diags := server.diagnosticsForSource("class A\n  def m()\n    base()\n  end\nend\n")
	if len(diags) != 1 {
		t.Fatalf("expected one diagnostic, got %v", diags)
	}
	if diags[0]["severity"] != 2 {
		t.Fatalf("expected warning severity, got %#v", diags[0]["severity"])
	}
	start := diags[0]["range"].(map[string]any)["start"].(map[string]any)
	if start["line"] != 2 || start["character"] != 4 {
		t.Fatalf("unexpected warning range start %#v", start)
	}
}

func TestCompletionItemsAreSortedAndCategorized(t *testing.T) {
	server := newLSPServer(strings.NewReader(""), io.Discard)
	items := server.completionItems("class Widget\nend\n")
	if len(items) == 0 {
		t.Fatalf("expected completion items")
	}

	labels := make([]string, 0, len(items))
	for _, item := range items {
		label, ok := item["label"].(string)
		if !ok {
			t.Fatalf("unexpected completion label: %#v", item["label"])
		}
		labels = append(labels, label)
	}
	if !slices.IsSorted(labels) {
		t.Fatalf("expected sorted completion labels, got %v", labels)
	}

	for _, tc := range []struct {
		label  string
		kind   int
		detail string
	}{
		{"class", 14, "keyword"},
		{"implement", 2, "class method"},
		{"new", 2, "class method"},
		{"Widget", 7, "class"},
		{"Base", 7, "class"},
	} {
		item := findCompletionItem(t, items, tc.label)
		if item["kind"] != tc.kind || item["detail"] != tc.detail {
			t.Fatalf("%s: unexpected item %#v", tc.label, item)
		}
	}
}

func TestHandleMessageDidOpenPublishesDiagnostics(t *testing.T) {
	server := newLSPServer(strings.NewReader(""), io.Discard)
	payload, err := json.Marshal(map[string]any{
		"textDocument": map[string]any{
			"uri":  "file:///tmp/test.kl",
			"text": "class A\n  def m(\nend\n",
		},
	})
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}

	messages := server.handleMessage(lspInboundMessage{
		JSONRPC: "2.0",
		Method:  "textDocument/didOpen",
		Params:  payload,
	})
	if len(messages) != 1 {
		t.Fatalf("expected one publishDiagnostics notification, got %d", len(messages))
	}
	if messages[0].Method != "textDocument/publishDiagnostics" {
		t.Fatalf("unexpected method: %q", messages[0].Method)
	}
	paramsMap, ok := messages[0].Params.(map[string]any)
	if !ok {
		t.Fatalf("unexpected params payload: %#v", messages[0].Params)
	}
	diags, ok := paramsMap["diagnostics"].([]map[string]any)
	if !ok || len(diags) == 0 {
		t.Fatalf("expected diagnostics for invalid source, got %#v", paramsMap["diagnostics"])
	}
	if server.docs["file:///tmp/test.kl"] == "" {
		t.Fatalf("document not stored")
	}
}

func TestHandleMessageHoverDescribesDeclaredClass(t *testing.T) {
	server := newLSPServer(strings.NewReader(""), io.Discard)
	server.docs["file:///tmp/test.kl"] = "class Dog < Animal\n  def speak()\n    base + \" woof\"\n  end\n  def self.create(name)\n    Dog.new()\n  end\nend\n"

	value := hoverValue(t, server, "file:///tmp/test.kl", 0, 7)
	for _, want := range []string{"class Dog < Animal", "`speak()` overrides", "`self.create(name)`"} {
		if !strings.Contains(value, want) {
			t.Fatalf("expected %q in hover value %q", want, value)
		}
	}
	if strings.Contains(value, "create(name)` overrides") {
		t.Fatalf("create should not be marked as an override: %q", value)
	}
}

func TestHandleMessageHoverClassifiesKeywordsAndStatics(t *testing.T) {
	server := newLSPServer(strings.NewReader(""), io.Discard)
	server.docs["file:///tmp/test.kl"] = "x = Base.implement\n"

	if value := hoverValue(t, server, "file:///tmp/test.kl", 0, 10); !strings.Contains(value, "class method") {
		t.Fatalf("expected class method classification, got %q", value)
	}
	if value := hoverValue(t, server, "file:///tmp/test.kl", 0, 5); !strings.Contains(value, "root class") {
		t.Fatalf("expected root class description, got %q", value)
	}
}

func TestServeAnswersRequestsUntilExit(t *testing.T) {
	var input bytes.Buffer
	writeFrame(t, &input, map[string]any{"jsonrpc": "2.0", "id": 1, "method": "initialize"})
	writeFrame(t, &input, map[string]any{"jsonrpc": "2.0", "id": 2, "method": "unknown/method"})
	writeFrame(t, &input, map[string]any{"jsonrpc": "2.0", "method": "exit"})
	writeFrame(t, &input, map[string]any{"jsonrpc": "2.0", "id": 3, "method": "shutdown"})

	var output bytes.Buffer
	if err := newLSPServer(&input, &output).serve(); err != nil {
		t.Fatalf("serve failed: %v", err)
	}

	reader := bufio.NewReader(&output)
	var responses []map[string]any
	for {
		msg, err := readFrame(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		responses = append(responses, msg)
	}
	if len(responses) != 2 {
		t.Fatalf("expected two responses before exit, got %d", len(responses))
	}
	if _, ok := responses[0]["result"].(map[string]any)["capabilities"]; !ok {
		t.Fatalf("initialize response missing capabilities: %#v", responses[0])
	}
	if code := responses[1]["error"].(map[string]any)["code"]; code != float64(-32601) {
		t.Fatalf("unexpected error code %#v", code)
	}
}

func TestWordAtPosition(t *testing.T) {
	source := "class A\n  def speak()\nend\n"
	if word := wordAtPosition(source, 1, 7); word != "speak" {
		t.Fatalf("expected speak, got %q", word)
	}
	if word := wordAtPosition(source, 1, 12); word != "" {
		t.Fatalf("expected no word past the line, got %q", word)
	}
}

func TestWordAtPositionUsesUTF16CharacterOffsets(t *testing.T) {
	source := "\"😀\" + Dog\n"
	if word := wordAtPosition(source, 0, 7); word != "Dog" {
		t.Fatalf("expected Dog, got %q", word)
	}
}

func hoverValue(t *testing.T, server *lspServer, uri string, line, character int) string {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     map[string]any{"line": line, "character": character},
	})
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	messages := server.handleMessage(lspInboundMessage{
		JSONRPC: "2.0",
		ID:      rawID("1"),
		Method:  "textDocument/hover",
		Params:  payload,
	})
	if len(messages) != 1 {
		t.Fatalf("expected one response, got %d", len(messages))
	}
	result, ok := messages[0].Result.(map[string]any)
	if !ok {
		t.Fatalf("unexpected hover result: %#v", messages[0].Result)
	}
	contents, ok := result["contents"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected hover contents: %#v", result["contents"])
	}
	value, ok := contents["value"].(string)
	if !ok {
		t.Fatalf("unexpected hover value: %#v", contents["value"])
	}
	return value
}

func findCompletionItem(t *testing.T, items []map[string]any, label string) map[string]any {
	t.Helper()
	for _, item := range items {
		if item["label"] == label {
			return item
		}
	}
	t.Fatalf("completion item %q not found", label)
	return nil
}

func writeFrame(t *testing.T, w io.Writer, msg map[string]any) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	fmt.Fprintf(w, "Content-Length: %d\r\n\r\n%s", len(data), data)
}

func readFrame(r *bufio.Reader) (map[string]any, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if value, ok := strings.CutPrefix(line, "Content-Length: "); ok {
			if length, err = strconv.Atoi(value); err != nil {
				return nil, err
			}
		}
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	var msg map[string]any
	err := json.Unmarshal(data, &msg)
	return msg, err
}

func rawID(value string) *json.RawMessage {
	raw := json.RawMessage(value)
	return &raw
}

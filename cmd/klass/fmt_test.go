package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatSourceIndentsBlocks(t *testing.T) {
	input := "class A < Base  \r\ndef self.init()\nprint \"ready\"\nend\ndef m(x)\nreturn [\n1,\n2\n]\nend\nend\n\n\n"
	want := `class A < Base
  def self.init()
    print "ready"
  end
  def m(x)
    return [
      1,
      2
    ]
  end
end
`
	if got := formatSource(input); got != want {
		t.Fatalf("unexpected format output:\n%s", got)
	}
}

func TestFormatSourceIgnoresKeywordsInStringsCommentsAndKeys(t *testing.T) {
	input := `class A
def m()
# end of the line
x = {class: "def", end: 1}
x.end
end
end`
	want := `class A
  def m()
    # end of the line
    x = {class: "def", end: 1}
    x.end
  end
end
`
	if got := formatSource(input); got != want {
		t.Fatalf("unexpected format output:\n%s", got)
	}
}

func TestFormatSourceIsIdempotent(t *testing.T) {
	input := "class A\n  def m()\n    1\n  end\nend\n"
	if got := formatSource(input); got != input {
		t.Fatalf("formatted source changed:\n%s", got)
	}
}

func TestFmtCommandCheckReportsFiles(t *testing.T) {
	dir := t.TempDir()
	clean := filepath.Join(dir, "clean.kl")
	dirty := filepath.Join(dir, "dirty.kl")
	ignored := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(clean, []byte("class A\nend\n"), 0o644); err != nil {
		t.Fatalf("write clean: %v", err)
	}
	if err := os.WriteFile(dirty, []byte("class A\ndef m()\n1\nend\nend"), 0o644); err != nil {
		t.Fatalf("write dirty: %v", err)
	}
	if err := os.WriteFile(ignored, []byte("class"), 0o644); err != nil {
		t.Fatalf("write ignored: %v", err)
	}

	err := fmtCommand([]string{"-check", dir})
	if err == nil {
		t.Fatalf("expected check failure")
	}
	if !strings.Contains(err.Error(), "1 file(s) need formatting") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFmtCommandWriteRewritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.kl")
	if err := os.WriteFile(path, []byte("class A\ndef m()\n1\nend\nend"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	if err := fmtCommand([]string{"-w", path}); err != nil {
		t.Fatalf("fmt -w failed: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	if string(got) != "class A\n  def m()\n    1\n  end\nend\n" {
		t.Fatalf("unexpected rewritten file: %q", got)
	}
}

func TestFmtCommandRequiresPath(t *testing.T) {
	err := fmtCommand(nil)
	if err == nil || !strings.Contains(err.Error(), "path required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

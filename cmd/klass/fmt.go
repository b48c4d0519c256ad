package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

const sourceExt = ".kl"

func fmtCommand(args []string) error {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	write := fs.Bool("w", false, "write result to source files instead of stdout")
	check := fs.Bool("check", false, "fail if any source file needs formatting")
	if err := fs.Parse(args); err != nil {
		return err
	}

	targets := fs.Args()
	if len(targets) == 0 {
		return errors.New("klass fmt: path required")
	}

	files, err := collectSourceFiles(targets)
	if err != nil {
		return err
	}

	changedCount := 0
	for _, path := range files {
		originalBytes, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		original := string(originalBytes)
		formatted := formatSource(original)
		changed := formatted != original
		if changed {
			changedCount++
		}

		switch {
		case *write && changed:
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if err := os.WriteFile(path, []byte(formatted), info.Mode().Perm()); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
		case !*write && !*check:
			fmt.Print(formatted)
		}
	}

	if *check && changedCount > 0 {
		return fmt.Errorf("klass fmt: %d file(s) need formatting", changedCount)
	}
	return nil
}

// collectSourceFiles expands directories into the .kl files below them.
// Explicit file arguments are kept whatever their extension.
func collectSourceFiles(targets []string) ([]string, error) {
	seen := make(map[string]struct{})
	files := make([]string, 0)
	addFile := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		files = append(files, abs)
	}

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", target, err)
		}
		if !info.IsDir() {
			addFile(target)
			continue
		}
		err = filepath.WalkDir(target, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() || filepath.Ext(path) != sourceExt {
				return nil
			}
			addFile(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", target, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// formatSource re-indents class and def blocks with two spaces, indents lines
// continuing an open bracket one level further, strips trailing whitespace and
// ends the file with exactly one newline.
func formatSource(source string) string {
	normalized := strings.ReplaceAll(source, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	depth, brackets := 0, 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			lines[i] = ""
			continue
		}

		words, opens, closes, leadingCloser := scanLine(trimmed)
		level := depth
		if startsWithWord(trimmed, "end") {
			level--
		}
		if brackets > 0 && !leadingCloser {
			level++
		}
		lines[i] = strings.Repeat("  ", max(level, 0)) + trimmed

		for _, word := range words {
			switch word {
			case "class", "def":
				depth++
			case "end":
				depth--
			}
		}
		brackets = max(brackets+opens-closes, 0)
	}

	joined := strings.Join(lines, "\n")
	joined = strings.TrimRight(joined, "\n")
	return joined + "\n"
}

// scanLine returns the block keywords of a line in order along with its
// bracket balance. Strings, comments and member names after a dot are
// skipped.
func scanLine(line string) (words []string, opens, closes int, leadingCloser bool) {
	runes := []rune(line)
	leadingCloser = strings.ContainsRune(")]}", runes[0])
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '#':
			return words, opens, closes, leadingCloser
		case r == '"':
			for i++; i < len(runes) && runes[i] != '"'; i++ {
				if runes[i] == '\\' {
					i++
				}
			}
		case r == '(' || r == '[' || r == '{':
			opens++
		case r == ')' || r == ']' || r == '}':
			closes++
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i+1 < len(runes) && (unicode.IsLetter(runes[i+1]) || unicode.IsDigit(runes[i+1]) || runes[i+1] == '_' || runes[i+1] == '?') {
				i++
			}
			if start > 0 && runes[start-1] == '.' || i+1 < len(runes) && runes[i+1] == ':' {
				continue
			}
			switch word := string(runes[start : i+1]); word {
			case "class", "def", "end":
				words = append(words, word)
			}
		}
	}
	return words, opens, closes, leadingCloser
}

func startsWithWord(line, word string) bool {
	if !strings.HasPrefix(line, word) {
		return false
	}
	rest := line[len(word):]
	return rest == "" || !(unicode.IsLetter(rune(rest[0])) || unicode.IsDigit(rune(rest[0])) || rest[0] == '_' || rest[0] == '?')
}

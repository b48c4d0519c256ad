package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mgomes/klass/klass"
	"github.com/mgomes/klass/script"
)

func main() {
	if err := runCLI(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCLI(args []string) error {
	if len(args) < 2 {
		return usageError()
	}
	switch args[1] {
	case "run":
		return runCommand(args[2:])
	case "check":
		return runCommand(append([]string{"-check"}, args[2:]...))
	case "repl":
		return runREPL()
	case "shell":
		return runShell()
	case "fmt":
		return fmtCommand(args[2:])
	case "analyze":
		return analyzeCommand(args[2:])
	case "lsp":
		return runLSP()
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return usageError()
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	checkOnly := fs.Bool("check", false, "only parse the script without executing")
	debug := fs.Bool("debug", false, "log engine events to stderr")
	limit := fs.Int("recursion-limit", 0, "maximum call depth (0 uses the default)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("klass run: script path required")
	}
	scriptPath, err := filepath.Abs(remaining[0])
	if err != nil {
		return fmt.Errorf("resolve script path: %w", err)
	}
	input, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	if *checkOnly {
		if _, err := script.Parse(string(input)); err != nil {
			return fmt.Errorf("check failed: %w", err)
		}
		return nil
	}

	if *debug {
		klass.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		defer klass.SetLogger(nil)
	}
	rt, err := klass.New(klass.Config{RecursionLimit: *limit})
	if err != nil {
		return err
	}
	session := script.NewSession(rt, os.Stdout)
	result, err := session.Eval(context.Background(), string(input))
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	if !result.IsNil() {
		fmt.Println(script.Inspect(result))
	}
	return nil
}

func usageError() error {
	printUsage()
	return errors.New("invalid command")
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags] [args...]\n", prog)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  run [flags] <script>   evaluate a script and print its last value")
	fmt.Fprintln(os.Stderr, "  check <script>         parse a script without executing it")
	fmt.Fprintln(os.Stderr, "  repl                   start the interactive terminal UI")
	fmt.Fprintln(os.Stderr, "  shell                  start a line-mode shell with history")
	fmt.Fprintln(os.Stderr, "  fmt [-w|-check] <path> normalize indentation and whitespace")
	fmt.Fprintln(os.Stderr, "  analyze <script>       report suspicious class definitions")
	fmt.Fprintln(os.Stderr, "  lsp                    serve the language server over stdio")
	fmt.Fprintln(os.Stderr, "Run flags:")
	fmt.Fprintln(os.Stderr, "  -check")
	fmt.Fprintln(os.Stderr, "    only parse the script without executing")
	fmt.Fprintln(os.Stderr, "  -debug")
	fmt.Fprintln(os.Stderr, "    log engine events to stderr")
	fmt.Fprintln(os.Stderr, "  -recursion-limit int")
	fmt.Fprintln(os.Stderr, "    maximum call depth (0 uses the default)")
}

type flagErrorSink struct{}

func (flagErrorSink) Write(p []byte) (int, error) {
	return len(p), nil
}

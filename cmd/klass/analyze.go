package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mgomes/klass/klass"
	"github.com/mgomes/klass/script"
)

type lintWarning struct {
	Method  string
	Pos     script.Position
	Message string
}

func analyzeCommand(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("klass analyze: script path required")
	}

	scriptPath, err := filepath.Abs(remaining[0])
	if err != nil {
		return fmt.Errorf("resolve script path: %w", err)
	}
	input, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	program, err := script.Parse(string(input))
	if err != nil {
		return fmt.Errorf("analysis parse failed: %w", err)
	}

	warnings := analyzeProgram(program, klass.MustNew(klass.Config{}).Root())
	if len(warnings) == 0 {
		fmt.Println("No issues found")
		return nil
	}

	for _, warning := range warnings {
		fmt.Printf("%s:%d:%d: %s (%s)\n", scriptPath, max(warning.Pos.Line, 1), max(warning.Pos.Column, 1), warning.Message, warning.Method)
	}

	return fmt.Errorf("analysis found %d issue(s)", len(warnings))
}

// analyzeProgram checks the top-level class declarations of a program. Parents
// are resolved against classes declared earlier in the same program, falling
// back to root for classes without a parent.
func analyzeProgram(program *script.Program, root *klass.Class) []lintWarning {
	declared := make(map[string]*script.ClassStmt)
	warnings := make([]lintWarning, 0)
	for _, stmt := range program.Statements {
		class, ok := stmt.(*script.ClassStmt)
		if !ok {
			continue
		}
		lintClass(class, declared, root, &warnings)
		declared[class.Name] = class
	}

	sort.SliceStable(warnings, func(i, j int) bool {
		if warnings[i].Pos.Line != warnings[j].Pos.Line {
			return warnings[i].Pos.Line < warnings[j].Pos.Line
		}
		if warnings[i].Pos.Column != warnings[j].Pos.Column {
			return warnings[i].Pos.Column < warnings[j].Pos.Column
		}
		return warnings[i].Method < warnings[j].Method
	})

	return warnings
}

func lintClass(class *script.ClassStmt, declared map[string]*script.ClassStmt, root *klass.Class, warnings *[]lintWarning) {
	seen := make(map[string]bool)
	for _, method := range class.Methods {
		label := methodLabel(class.Name, method)
		if seen[label] {
			*warnings = append(*warnings, lintWarning{
				Method:  label,
				Pos:     method.Pos(),
				Message: "method redefined; the last definition wins",
			})
		}
		seen[label] = true

		lintStatements(label, method.Body, warnings)

		if pos, ok := findBase(method.Body); ok && !ancestorDefines(class, method, declared, root) {
			*warnings = append(*warnings, lintWarning{
				Method:  label,
				Pos:     pos,
				Message: fmt.Sprintf("base has no ancestor %s to call", method.Name),
			})
		}
	}
}

func methodLabel(className string, method *script.MethodStmt) string {
	if method.Static {
		return className + "." + method.Name
	}
	return className + "#" + method.Name
}

func lintStatements(method string, statements []script.Statement, warnings *[]lintWarning) {
	terminated := false
	for _, stmt := range statements {
		if terminated {
			*warnings = append(*warnings, lintWarning{
				Method:  method,
				Pos:     stmt.Pos(),
				Message: "unreachable statement",
			})
			continue
		}
		if _, ok := stmt.(*script.ReturnStmt); ok {
			terminated = true
		}
	}
}

// ancestorDefines reports whether a parent of class declares method on the
// same side. Parents that cannot be resolved statically are assumed to.
func ancestorDefines(class *script.ClassStmt, method *script.MethodStmt, declared map[string]*script.ClassStmt, root *klass.Class) bool {
	parent := class.Parent
	for steps := 0; steps <= len(declared); steps++ {
		if parent == nil {
			return rootDefines(root, method)
		}
		ident, ok := parent.(*script.Identifier)
		if !ok {
			return true
		}
		decl, ok := declared[ident.Name]
		if !ok {
			return ident.Name != "Base" || rootDefines(root, method)
		}
		for _, candidate := range decl.Methods {
			if candidate.Name == method.Name && candidate.Static == method.Static {
				return true
			}
		}
		parent = decl.Parent
	}
	return true
}

func rootDefines(root *klass.Class, method *script.MethodStmt) bool {
	if method.Static {
		_, ok := root.Static(method.Name)
		return ok
	}
	_, ok := root.Prototype().Get(method.Name)
	return ok
}

// findBase returns the first base expression in statements. Nested class
// declarations are not searched since their methods have their own ancestors.
func findBase(statements []script.Statement) (script.Position, bool) {
	for _, stmt := range statements {
		var exprs []script.Expression
		switch stmt := stmt.(type) {
		case *script.ReturnStmt:
			exprs = append(exprs, stmt.Value)
		case *script.PrintStmt:
			exprs = append(exprs, stmt.Args...)
		case *script.AssignStmt:
			exprs = append(exprs, stmt.Target, stmt.Value)
		case *script.ExprStmt:
			exprs = append(exprs, stmt.Expr)
		}
		for _, expr := range exprs {
			if pos, ok := findBaseExpr(expr); ok {
				return pos, true
			}
		}
	}
	return script.Position{}, false
}

func findBaseExpr(expr script.Expression) (script.Position, bool) {
	var children []script.Expression
	switch expr := expr.(type) {
	case nil:
		return script.Position{}, false
	case *script.BaseExpr:
		return expr.Pos(), true
	case *script.ObjectLiteral:
		children = expr.Values
	case *script.ArrayLiteral:
		children = expr.Elements
	case *script.MemberExpr:
		children = []script.Expression{expr.Object}
	case *script.CallExpr:
		children = append([]script.Expression{expr.Callee}, expr.Args...)
	case *script.InfixExpr:
		children = []script.Expression{expr.Left, expr.Right}
	}
	for _, child := range children {
		if pos, ok := findBaseExpr(child); ok {
			return pos, true
		}
	}
	return script.Position{}, false
}

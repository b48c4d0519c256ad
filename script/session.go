package script

import (
	"context"
	"io"

	"github.com/mgomes/klass/klass"
)

// Session evaluates programs against one runtime. Top-level bindings persist
// between Eval calls, so a REPL can build a class hierarchy line by line.
type Session struct {
	rt      *klass.Runtime
	out     io.Writer
	globals *Env
}

// NewSession binds the root class as Base. print writes to out; a nil out
// discards output.
func NewSession(rt *klass.Runtime, out io.Writer) *Session {
	if out == nil {
		out = io.Discard
	}
	s := &Session{rt: rt, out: out}
	s.Reset()
	return s
}

func (s *Session) Runtime() *klass.Runtime { return s.rt }

// Reset drops every binding except Base.
func (s *Session) Reset() {
	s.globals = newEnv(nil)
	s.globals.Define("Base", klass.NewClass(s.rt.Root()))
}

// Eval parses and runs src, returning the value of the last statement.
func (s *Session) Eval(ctx context.Context, src string) (klass.Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	program, err := Parse(src)
	if err != nil {
		return klass.NewNil(), err
	}
	fr := &frame{ctx: ctx, env: s.globals, source: src}
	val, _, err := s.execStatements(fr, program.Statements)
	if err != nil {
		return klass.NewNil(), err
	}
	return val, nil
}

// Lookup returns a top-level binding.
func (s *Session) Lookup(name string) (klass.Value, bool) {
	return s.globals.Get(name)
}

// Names returns the top-level binding names, sorted.
func (s *Session) Names() []string {
	return s.globals.Names()
}

// Classes returns the classes bound at top level, sorted by binding name.
func (s *Session) Classes() []*klass.Class {
	var classes []*klass.Class
	for _, name := range s.globals.Names() {
		if v, _ := s.globals.Get(name); v.Kind() == klass.KindClass {
			classes = append(classes, v.Class())
		}
	}
	return classes
}

// frame is the evaluation state of one program or method body. call is nil at
// top level.
type frame struct {
	ctx    context.Context
	call   *klass.Call
	env    *Env
	source string
}

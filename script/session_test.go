package script

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mgomes/klass/klass"
)

func newTestSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	rt, err := klass.New(klass.Config{RecursionLimit: 64})
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	var out bytes.Buffer
	return NewSession(rt, &out), &out
}

func mustEval(t *testing.T, s *Session, src string) klass.Value {
	t.Helper()
	val, err := s.Eval(context.Background(), src)
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	return val
}

func TestBaseCallsReachTheAncestor(t *testing.T) {
	s, _ := newTestSession(t)
	val := mustEval(t, s, `
calls = 0
class A
  def method(x)
    calls = calls + 1
    x
  end
end
class B < A
  def method(x)
    calls = calls + 1
    base(x) + 1
  end
end
B.new().method(41)
`)
	if val.Int() != 42 {
		t.Fatalf("expected 42, got %v", val)
	}
	if calls, _ := s.Lookup("calls"); calls.Int() != 2 {
		t.Fatalf("expected 2 calls, got %v", calls)
	}
}

func TestMethodsMentioningBaseBecomeOverrides(t *testing.T) {
	s, _ := newTestSession(t)
	mustEval(t, s, `
class A
  def m
    "a"
  end
  def n
    "a"
  end
end
class B < A
  def m
    base
  end
  def n
    database = "b"
    database
  end
end
`)
	b, _ := s.Lookup("B")
	m, _ := b.Class().Prototype().Own("m")
	if !m.Function().IsOverride() {
		t.Fatalf("m should be wrapped")
	}
	n, _ := b.Class().Prototype().Own("n")
	if n.Function().IsOverride() {
		t.Fatalf("n should not be wrapped")
	}
	if got := mustEval(t, s, "B.new().m()"); got.String() != "a" {
		t.Fatalf("expected base result, got %v", got)
	}
	if got := mustEval(t, s, "B.new().n()"); got.String() != "b" {
		t.Fatalf("expected own result, got %v", got)
	}
}

func TestConstructorsChainThroughBase(t *testing.T) {
	s, out := newTestSession(t)
	mustEval(t, s, `
class Animal
  def constructor(name)
    self.name = name
  end
end
class Dog < Animal
  def constructor(name)
    base(name)
    self.sound = "woof"
  end
  def describe
    self.name + " says " + self.sound
  end
end
print Dog.new("rex").describe()
`)
	if got := out.String(); got != "rex says woof\n" {
		t.Fatalf("output mismatch: %q", got)
	}
}

func TestStaticsInitAndInheritance(t *testing.T) {
	s, _ := newTestSession(t)
	mustEval(t, s, `
seen = []
class Plugin
  def self.init
    seen = seen + [self.name]
  end
  def self.kind
    "plugin"
  end
end
class Markdown < Plugin
  def self.kind
    "markdown " + base()
  end
end
`)
	seen, _ := s.Lookup("seen")
	if display(seen) != `["Plugin", "Markdown"]` {
		t.Fatalf("init receivers mismatch: %s", display(seen))
	}
	if got := mustEval(t, s, "Markdown.kind()"); got.String() != "markdown plugin" {
		t.Fatalf("static override mismatch: %q", got.String())
	}
	if got := mustEval(t, s, "Markdown.ancestor == Plugin"); !got.Bool() {
		t.Fatalf("ancestor should be Plugin")
	}
}

func TestCallingAClassCastsObjects(t *testing.T) {
	s, _ := newTestSession(t)
	val := mustEval(t, s, `
class Greeter
  def greet
    "hi " + self.name
  end
end
bob = {name: "bob"}
Greeter(bob)
bob.greet()
`)
	if val.String() != "hi bob" {
		t.Fatalf("expected greeting, got %q", val.String())
	}
}

func TestImplementLayersMixinOverTarget(t *testing.T) {
	s, _ := newTestSession(t)
	val := mustEval(t, s, `
class Loud
  def speak
    base() + "!"
  end
end
class Dog
  def speak
    "woof"
  end
end
Dog.implement(Loud)
Dog.new().speak()
`)
	if val.String() != "woof!" {
		t.Fatalf("expected woof!, got %q", val.String())
	}
}

func TestPrintFormatsValues(t *testing.T) {
	s, out := newTestSession(t)
	mustEval(t, s, `
class A
end
print "a", 1, 2.5, nil, true, [1, "x"], A
print
print {k: 1}
`)
	want := "a 1 2.5 nil true [1, \"x\"] <Class A>\n\n{k: 1}\n"
	if out.String() != want {
		t.Fatalf("output mismatch:\n%q\nwant\n%q", out.String(), want)
	}
}

func TestBindingsPersistAcrossEval(t *testing.T) {
	s, _ := newTestSession(t)
	mustEval(t, s, "x = 1")
	if got := mustEval(t, s, "x + 1"); got.Int() != 2 {
		t.Fatalf("expected 2, got %v", got)
	}
	mustEval(t, s, "class A\nend")
	if names := strings.Join(s.Names(), ","); names != "A,Base,x" {
		t.Fatalf("names mismatch: %s", names)
	}
	if classes := s.Classes(); len(classes) != 2 || classes[0].Name() != "A" || classes[1] != s.Runtime().Root() {
		t.Fatalf("classes mismatch: %v", classes)
	}

	s.Reset()
	if _, err := s.Eval(context.Background(), "x"); err == nil {
		t.Fatalf("expected x to be gone after reset")
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		msg      string
		line     int
		sentinel error
	}{
		{name: "undefined variable", src: "y + 1", msg: "undefined variable y", line: 1},
		{name: "self at top level", src: "\nself", msg: "self used outside a method", line: 2},
		{name: "base at top level", src: "base()", msg: "base used outside a method", line: 1},
		{name: "bad superclass", src: "x = 1\nclass A < x\nend", msg: "superclass of A must be a class, got int", line: 2},
		{name: "bad operands", src: "1 - \"a\"", msg: "unsupported operands for -: int and string", line: 1},
		{name: "unknown member", src: "class A\nend\nA.new().missing()", line: 3, sentinel: klass.ErrUnknownMember},
		{name: "not callable", src: "o = {v: 1}\no.v()", line: 2, sentinel: klass.ErrNotCallable},
		{name: "bad cast target", src: "Base.cast(3)", line: 1, sentinel: klass.ErrInvalidCastTarget},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestSession(t)
			_, err := s.Eval(context.Background(), tc.src)
			var rtErr *RuntimeError
			if !errors.As(err, &rtErr) {
				t.Fatalf("expected RuntimeError, got %v", err)
			}
			if tc.msg != "" && rtErr.Msg != tc.msg {
				t.Fatalf("message mismatch: got %q want %q", rtErr.Msg, tc.msg)
			}
			if rtErr.Pos.Line != tc.line {
				t.Fatalf("line mismatch: got %d want %d", rtErr.Pos.Line, tc.line)
			}
			if tc.sentinel != nil && !errors.Is(err, tc.sentinel) {
				t.Fatalf("expected %v, got %v", tc.sentinel, err)
			}
		})
	}
}

func TestErrorsInsideMethodsKeepTheirPosition(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.Eval(context.Background(), `
class A
  def m
    nope
  end
end
A.new().m()
`)
	var rtErr *RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("expected RuntimeError, got %v", err)
	}
	if rtErr.Pos.Line != 4 || rtErr.Msg != "undefined variable nope" {
		t.Fatalf("expected error inside the method body, got %v", err)
	}
	if !strings.Contains(err.Error(), " 4 |     nope") {
		t.Fatalf("expected code frame, got %q", err.Error())
	}
}

func TestRecursionLimitSurfaces(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.Eval(context.Background(), `
class Loop
  def spin
    self.spin()
  end
end
Loop.new().spin()
`)
	if !errors.Is(err, klass.ErrRecursionLimit) {
		t.Fatalf("expected recursion limit, got %v", err)
	}
}

func TestRecursiveConstructionHitsTheLimit(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.Eval(context.Background(), `
class Egg
  def constructor
    Egg.new()
  end
end
Egg.new()
`)
	if !errors.Is(err, klass.ErrRecursionLimit) {
		t.Fatalf("expected recursion limit, got %v", err)
	}
}

func TestCancelledContextStopsEvaluation(t *testing.T) {
	s, _ := newTestSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Eval(ctx, "class A; end")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestReturnStopsMethodBody(t *testing.T) {
	s, _ := newTestSession(t)
	val := mustEval(t, s, `
class A
  def m
    return 1
    2
  end
end
A.new().m()
`)
	if val.Int() != 1 {
		t.Fatalf("expected early return, got %v", val)
	}
	if _, err := s.Eval(context.Background(), "return 1"); err == nil {
		t.Fatalf("expected error for top-level return")
	}
}

func TestClassMembersAndAssignments(t *testing.T) {
	s, _ := newTestSession(t)
	mustEval(t, s, `
class A
  def m
    1
  end
end
A.limit = 3
`)
	tests := []struct {
		src  string
		want string
	}{
		{"A.name", "A"},
		{"A.limit", "3"},
		{"A.version", klass.Version},
		{"A.ancestor.name", "Base"},
		{"Base.ancestor", "nil"},
		{"[1, 2].length", "2"},
		{`"héllo".length`, "5"},
		{"A.new().missing", "nil"},
		{`"n=" + 1`, "n=1"},
		{"1 + 2.5", "3.5"},
		{"[1] + [2]", "[1, 2]"},
		{"A.new().m == 1", "false"},
		{"A.prototype.m == A.new().m", "true"},
	}
	for _, tc := range tests {
		if got := display(mustEval(t, s, tc.src)); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.src, got, tc.want)
		}
	}
}

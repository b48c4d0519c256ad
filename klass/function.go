package klass

import (
	"fmt"
	"regexp"
)

// MethodFunc is the body of a method, constructor or static member. The call
// carries the receiver and the ancestor implementation reachable through Base.
type MethodFunc func(call *Call, args []Value) (Value, error)

// Function is a callable member value. An override wrapper is a Function that
// also records the method it wraps and the ancestor it shadows.
type Function struct {
	name      string
	fn        MethodFunc
	callsBase bool

	original *Function
	ancestor Value
}

var baseToken = regexp.MustCompile(`\bbase\b`)

// NewMethod returns a method that never calls base. Overriding an inherited
// member with it replaces the ancestor outright.
func NewMethod(name string, fn MethodFunc) *Function {
	return &Function{name: name, fn: fn}
}

// NewOverride returns a method that calls base. When it replaces an existing
// callable member the extender wraps it so that Call.Base reaches the member
// it shadows.
func NewOverride(name string, fn MethodFunc) *Function {
	return &Function{name: name, fn: fn, callsBase: true}
}

// NewSourceMethod decides whether the method calls base by scanning source for
// the word "base". Comments, string literals and unrelated identifiers count
// as well; callers that want exact control use NewMethod or NewOverride.
func NewSourceMethod(name, source string, fn MethodFunc) *Function {
	return &Function{name: name, fn: fn, callsBase: MentionsBase(source)}
}

// MentionsBase reports whether source contains "base" as a whole word.
func MentionsBase(source string) bool {
	return baseToken.MatchString(source)
}

func newOverrideWrapper(original *Function, ancestor Value) *Function {
	return &Function{
		name:      original.name,
		fn:        original.fn,
		callsBase: true,
		original:  original,
		ancestor:  ancestor,
	}
}

func (f *Function) Name() string { return f.name }

// CallsBase reports whether the function declared that it calls base.
func (f *Function) CallsBase() bool { return f.callsBase }

// IsOverride reports whether f is a wrapper produced by override detection.
func (f *Function) IsOverride() bool { return f.original != nil }

// Ancestor returns the shadowed member for an override wrapper and Nil
// otherwise.
func (f *Function) Ancestor() Value {
	if f.original == nil {
		return NewNil()
	}
	return f.ancestor
}

// ValueOf returns the underlying method: the wrapped original for override
// wrappers and f itself for anything else.
func (f *Function) ValueOf() *Function {
	if f.original != nil {
		return f.original
	}
	return f
}

func (f *Function) String() string {
	orig := f.ValueOf()
	if orig.name == "" {
		return "function()"
	}
	return fmt.Sprintf("function %s()", orig.name)
}

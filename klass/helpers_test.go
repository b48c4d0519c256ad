package klass

import (
	"context"
	"testing"
)

type spy struct {
	calls [][]Value
}

func (s *spy) record(args []Value) {
	s.calls = append(s.calls, append([]Value(nil), args...))
}

func (s *spy) count() int { return len(s.calls) }

func (s *spy) calledWith(args ...Value) bool {
	for _, call := range s.calls {
		if len(call) != len(args) {
			continue
		}
		match := true
		for i := range call {
			if !call[i].Equal(args[i]) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New(Config{})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	return rt
}

func mustDefine(t *testing.T, parent *Class, name string, instance, static Members) *Class {
	t.Helper()
	cl, err := parent.Extend(context.Background(), instance, static, WithName(name))
	if err != nil {
		t.Fatalf("define %s: %v", name, err)
	}
	return cl
}

func mustNew(t *testing.T, cl *Class, args ...Value) *Object {
	t.Helper()
	obj, err := cl.New(context.Background(), args...)
	if err != nil {
		t.Fatalf("new %s: %v", cl, err)
	}
	return obj
}

func mustInvoke(t *testing.T, obj *Object, name string, args ...Value) Value {
	t.Helper()
	result, err := obj.Invoke(context.Background(), name, args...)
	if err != nil {
		t.Fatalf("invoke %s: %v", name, err)
	}
	return result
}

func mustInvokeStatic(t *testing.T, cl *Class, name string, args ...Value) Value {
	t.Helper()
	result, err := cl.Invoke(context.Background(), name, args...)
	if err != nil {
		t.Fatalf("invoke %s.%s: %v", cl, name, err)
	}
	return result
}

func method(fn func(call *Call, args []Value) (Value, error)) Value {
	return NewFunction(NewMethod("", fn))
}

func override(fn func(call *Call, args []Value) (Value, error)) Value {
	return NewFunction(NewOverride("", fn))
}

func noopMethod() Value {
	return method(func(*Call, []Value) (Value, error) { return NewNil(), nil })
}

func requireCallable(t *testing.T, v Value, ok bool, label string) {
	t.Helper()
	if !ok {
		t.Fatalf("%s: member missing", label)
	}
	if v.Callable() == nil {
		t.Fatalf("%s: expected callable, got %s", label, v.Kind())
	}
}

func compareOrder(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("order mismatch: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v want %v", i, got, want)
		}
	}
}

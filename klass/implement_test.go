package klass

import (
	"context"
	"errors"
	"testing"
)

type implementFixture struct {
	spy1, spy2 *spy
	order      []string
	called     int
	A, B       *Class
}

func newImplementFixture(t *testing.T) *implementFixture {
	t.Helper()
	rt := newTestRuntime(t)
	f := &implementFixture{spy1: &spy{}, spy2: &spy{}}

	f.A = mustDefine(t, rt.Root(), "A", Members{
		"method": override(func(call *Call, args []Value) (Value, error) {
			f.order = append(f.order, "A")
			f.spy1.record(args)
			if len(args) > 0 {
				return call.Base(args[0])
			}
			return call.Base()
		}),
	}, Members{
		"staticMethod": override(func(call *Call, args []Value) (Value, error) {
			f.order = append(f.order, "A")
			f.called++
			return call.Base()
		}),
		"staticMethodOfA": noopMethod(),
	})

	f.B = mustDefine(t, rt.Root(), "B", Members{
		"method": method(func(call *Call, args []Value) (Value, error) {
			f.order = append(f.order, "B")
			f.spy2.record(args)
			return NewNil(), nil
		}),
	}, Members{
		"staticMethod": method(func(call *Call, args []Value) (Value, error) {
			f.order = append(f.order, "B")
			f.called++
			return NewNil(), nil
		}),
	})

	if err := f.B.Implement(context.Background(), f.A); err != nil {
		t.Fatalf("implement: %v", err)
	}
	return f
}

func TestImplementCallsBothMethods(t *testing.T) {
	f := newImplementFixture(t)
	mustInvoke(t, mustNew(t, f.B), "method")
	if f.spy1.count() != 1 || f.spy2.count() != 1 {
		t.Fatalf("call counts: spy1=%d spy2=%d", f.spy1.count(), f.spy2.count())
	}
}

func TestImplementPassesArguments(t *testing.T) {
	f := newImplementFixture(t)
	mustInvoke(t, mustNew(t, f.B), "method", NewInt(55))
	if f.spy1.count() != 1 || !f.spy1.calledWith(NewInt(55)) {
		t.Fatalf("mixin not called with 55: %v", f.spy1.calls)
	}
	if f.spy2.count() != 1 || !f.spy2.calledWith(NewInt(55)) {
		t.Fatalf("target not called with 55: %v", f.spy2.calls)
	}
}

func TestImplementOrderMixinThenTarget(t *testing.T) {
	f := newImplementFixture(t)
	mustInvoke(t, mustNew(t, f.B), "method", NewInt(55))
	compareOrder(t, f.order, []string{"A", "B"})
}

func TestImplementStaticOrder(t *testing.T) {
	f := newImplementFixture(t)
	mustInvokeStatic(t, f.B, "staticMethod")
	compareOrder(t, f.order, []string{"A", "B"})
	if f.called != 2 {
		t.Fatalf("static call count: got %d want 2", f.called)
	}
}

func TestImplementCopiesStatics(t *testing.T) {
	f := newImplementFixture(t)
	v, ok := f.B.Static("staticMethodOfA")
	requireCallable(t, v, ok, "B.staticMethodOfA")
	if f.B.Ancestor() != f.A {
		t.Fatalf("implement should record the mixin as ancestor")
	}
}

func TestImplementAppliesMixinsInOrder(t *testing.T) {
	rt := newTestRuntime(t)
	var order []string
	layer := func(label string) Value {
		return override(func(call *Call, args []Value) (Value, error) {
			order = append(order, label)
			return call.Base()
		})
	}
	target := mustDefine(t, rt.Root(), "Target", Members{
		"run": method(func(call *Call, args []Value) (Value, error) {
			order = append(order, "Target")
			return NewNil(), nil
		}),
	}, nil)
	first := mustDefine(t, rt.Root(), "First", Members{"run": layer("First")}, nil)
	second := mustDefine(t, rt.Root(), "Second", Members{"run": layer("Second")}, nil)

	if err := target.Implement(context.Background(), first, second); err != nil {
		t.Fatalf("implement: %v", err)
	}
	mustInvoke(t, mustNew(t, target), "run")
	compareOrder(t, order, []string{"Second", "First", "Target"})
	if target.Ancestor() != second {
		t.Fatalf("last mixin should be the recorded ancestor")
	}
}

func TestImplementRejectsNonClasses(t *testing.T) {
	rt := newTestRuntime(t)
	target := mustDefine(t, rt.Root(), "Target", nil, nil)
	_, err := target.Invoke(context.Background(), "implement", NewObject(rt.NewObject(nil)))
	if !errors.Is(err, ErrInvalidCastTarget) {
		t.Fatalf("expected ErrInvalidCastTarget, got %v", err)
	}
}

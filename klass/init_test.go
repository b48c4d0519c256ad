package klass

import (
	"context"
	"errors"
	"testing"
)

func TestInitFiresOnDefinition(t *testing.T) {
	rt := newTestRuntime(t)
	calls := &spy{}
	mustDefine(t, rt.Root(), "A", Members{}, Members{
		"init": method(func(call *Call, args []Value) (Value, error) {
			calls.record(args)
			return NewNil(), nil
		}),
	})
	if calls.count() != 1 {
		t.Fatalf("init count: got %d want 1", calls.count())
	}
	if len(calls.calls[0]) != 0 {
		t.Fatalf("init received arguments: %v", calls.calls[0])
	}
}

func TestInheritedInitFiresForEachSubclass(t *testing.T) {
	rt := newTestRuntime(t)
	calls := &spy{}
	a := mustDefine(t, rt.Root(), "A", Members{}, Members{
		"init": method(func(call *Call, args []Value) (Value, error) {
			calls.record(args)
			return NewNil(), nil
		}),
	})
	mustDefine(t, a, "B", Members{"method": noopMethod()}, nil)
	if calls.count() != 2 {
		t.Fatalf("init count: got %d want 2", calls.count())
	}
}

func TestInitOverrideCallsBase(t *testing.T) {
	rt := newTestRuntime(t)
	calls := &spy{}
	a := mustDefine(t, rt.Root(), "A", Members{}, Members{
		"init": method(func(call *Call, args []Value) (Value, error) {
			calls.record(args)
			return NewNil(), nil
		}),
	})
	mustDefine(t, a, "B", Members{"method": noopMethod()}, Members{
		"init": override(func(call *Call, args []Value) (Value, error) {
			calls.record(args)
			return call.Base()
		}),
	})
	if calls.count() != 3 {
		t.Fatalf("init count: got %d want 3", calls.count())
	}
}

func TestInitReceivesTheNewClass(t *testing.T) {
	rt := newTestRuntime(t)
	var receivers []*Class
	a := mustDefine(t, rt.Root(), "A", nil, Members{
		"init": method(func(call *Call, args []Value) (Value, error) {
			receivers = append(receivers, call.Self().Class())
			call.Self().Class().ExtendStatic("ready", NewBool(true))
			return NewNil(), nil
		}),
	})
	b := mustDefine(t, a, "B", nil, nil)

	if len(receivers) != 2 || receivers[0] != a || receivers[1] != b {
		t.Fatalf("init receivers mismatch: %v", receivers)
	}
	if ready, _ := b.Static("ready"); !ready.Bool() {
		t.Fatalf("init should be able to mutate the class it runs on")
	}
}

func TestInitErrorAbortsDefinition(t *testing.T) {
	rt := newTestRuntime(t)
	boom := errors.New("init failed")
	cl, err := rt.Root().Extend(context.Background(), nil, Members{
		"init": method(func(call *Call, args []Value) (Value, error) { return NewNil(), boom }),
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected init error, got %v", err)
	}
	if cl != nil {
		t.Fatalf("expected no class on init failure")
	}
}

func TestNonCallableInitIsIgnored(t *testing.T) {
	rt := newTestRuntime(t)
	cl := mustDefine(t, rt.Root(), "A", nil, Members{"init": NewInt(1)})
	if v, _ := cl.Static("init"); v.Int() != 1 {
		t.Fatalf("init value should be stored verbatim, got %v", v)
	}
}

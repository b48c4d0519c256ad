package klass

import (
	"context"
	"fmt"
)

// Call is the context handed to every method body. It carries the receiver and
// the ancestor implementation that Base invokes. A new Call is made for every
// invocation, so nested super-calls never share state.
type Call struct {
	ctx   context.Context
	rt    *Runtime
	self  Value
	fn    *Function
	base  Value
	depth int
}

// Self returns the receiver: an instance, a plain object or a class.
func (c *Call) Self() Value { return c.self }

// Context returns the context the outermost call was made with.
func (c *Call) Context() context.Context { return c.ctx }

// Runtime returns the runtime that owns the receiver.
func (c *Call) Runtime() *Runtime { return c.rt }

// Function returns the function being executed.
func (c *Call) Function() *Function { return c.fn }

// HasBase reports whether Base reaches a real ancestor rather than the no-op
// default.
func (c *Call) HasBase() bool {
	fn := c.base.Callable()
	return fn != nil && fn != c.rt.noop
}

// Base invokes the member shadowed by the running override with the same
// receiver. Without an ancestor it does nothing and returns Nil.
func (c *Call) Base(args ...Value) (Value, error) {
	fn := c.base.Callable()
	if fn == nil {
		return NewNil(), nil
	}
	return c.rt.invoke(c.ctx, c.depth, fn, c.self, args)
}

// Invoke calls the member name on receiver from inside a method body.
func (c *Call) Invoke(receiver Value, name string, args ...Value) (Value, error) {
	fn, err := c.rt.resolveCallable(receiver, name)
	if err != nil {
		return NewNil(), err
	}
	return c.rt.invoke(c.ctx, c.depth, fn, receiver, args)
}

// New constructs an instance of cl from inside a method body.
func (c *Call) New(cl *Class, args ...Value) (*Object, error) {
	return cl.instantiate(c.ctx, c.depth, args)
}

// Apply calls fn with the given receiver from inside a method body.
func (c *Call) Apply(fn Value, receiver Value, args ...Value) (Value, error) {
	callable := fn.Callable()
	if callable == nil {
		return NewNil(), fmt.Errorf("%w: %s", ErrNotCallable, fn.Kind())
	}
	return c.rt.invoke(c.ctx, c.depth, callable, receiver, args)
}

func (rt *Runtime) resolveCallable(receiver Value, name string) (*Function, error) {
	var (
		member Value
		ok     bool
	)
	switch receiver.Kind() {
	case KindObject:
		member, ok = receiver.Object().Get(name)
	case KindClass:
		member, ok = receiver.Class().Static(name)
	default:
		return nil, fmt.Errorf("%w %s on %s", ErrUnknownMember, name, receiver.Kind())
	}
	if !ok {
		return nil, fmt.Errorf("%w %s on %s", ErrUnknownMember, name, receiver)
	}
	fn := member.Callable()
	if fn == nil {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotCallable, name, member.Kind())
	}
	return fn, nil
}

// invoke runs fn with self as receiver. Errors returned by the body are passed
// through untouched.
func (rt *Runtime) invoke(ctx context.Context, depth int, fn *Function, self Value, args []Value) (Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return NewNil(), err
	}
	if depth >= rt.config.RecursionLimit {
		return NewNil(), fmt.Errorf("%w (%d)", ErrRecursionLimit, rt.config.RecursionLimit)
	}
	call := &Call{
		ctx:   ctx,
		rt:    rt,
		self:  self,
		fn:    fn,
		base:  NewFunction(rt.noop),
		depth: depth + 1,
	}
	if fn.original != nil {
		call.base = fn.ancestor
	}
	if fn.fn == nil {
		return NewNil(), nil
	}
	result, err := fn.fn(call, args)
	if err != nil {
		return NewNil(), err
	}
	return result, nil
}

// Apply calls fn with the given receiver from outside any method body.
func (rt *Runtime) Apply(ctx context.Context, fn Value, receiver Value, args ...Value) (Value, error) {
	callable := fn.Callable()
	if callable == nil {
		return NewNil(), fmt.Errorf("%w: %s", ErrNotCallable, fn.Kind())
	}
	return rt.invoke(ctx, 0, callable, receiver, args)
}

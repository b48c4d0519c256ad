package klass

import (
	"context"
	"fmt"
)

// Class is a class descriptor: a prototype holding the instance members, a
// table of static members, the captured constructor body and a link to the
// class it was extended from.
type Class struct {
	rt          *Runtime
	name        string
	prototype   *Object
	statics     *MemberTable
	ancestor    *Class
	constructor Value
	wrapper     *Function
}

// Name returns the debugging name given with WithName, if any.
func (c *Class) Name() string { return c.name }

func (c *Class) displayName() string {
	if c.name == "" {
		return "(anonymous)"
	}
	return c.name
}

// Prototype returns the object holding the instance members.
func (c *Class) Prototype() *Object { return c.prototype }

// Ancestor returns the recorded parent class, nil for the root class. Cast
// rewrites it, so it says nothing about where members came from.
func (c *Class) Ancestor() *Class { return c.ancestor }

// AncestorName names the recorded parent; the root class reports "Object".
func (c *Class) AncestorName() string {
	if c.ancestor == nil {
		return "Object"
	}
	return c.ancestor.displayName()
}

// IsSubclassOf walks the recorded ancestor links. Cast can make the links
// circular; the walk stops at the first class it has already seen.
func (c *Class) IsSubclassOf(other *Class) bool {
	seen := make(map[*Class]struct{})
	for cur := c; cur != nil; cur = cur.ancestor {
		if cur == other {
			return true
		}
		if _, ok := seen[cur]; ok {
			return false
		}
		seen[cur] = struct{}{}
	}
	return false
}

// Constructor returns the captured constructor body: a function or, when the
// class did not define one, the parent class.
func (c *Class) Constructor() Value { return c.constructor }

// Static returns a class-side member.
func (c *Class) Static(name string) (Value, bool) { return c.statics.Get(name) }

// StaticNames returns the class-side member names in definition order.
func (c *Class) StaticNames() []string { return c.statics.Names() }

// ValueOf is the identity accessor for the class: the underlying constructor
// function.
func (c *Class) ValueOf() *Function {
	switch c.constructor.Kind() {
	case KindFunction:
		return c.constructor.Function().ValueOf()
	case KindClass:
		return c.constructor.Class().ValueOf()
	default:
		return c.wrapper
	}
}

func (c *Class) String() string {
	return fmt.Sprintf("<Class %s>", c.displayName())
}

// Extend defines a subclass through the class's extend static.
func (c *Class) Extend(ctx context.Context, instance, static Members, opts ...ExtendOption) (*Class, error) {
	var o extendOptions
	for _, opt := range opts {
		opt(&o)
	}
	args := []Value{NewObject(c.rt.NewObject(instance)), NewObject(c.rt.NewObject(static))}
	if o.name != "" {
		args = append(args, NewString(o.name))
	}
	result, err := c.Invoke(ctx, "extend", args...)
	if err != nil {
		return nil, err
	}
	sub := result.Class()
	if sub == nil {
		return nil, &ConfigError{Op: "extend", Kind: result.Kind(), Reason: "extend did not return a class"}
	}
	return sub, nil
}

// New constructs an instance, running the constructor chain with args.
func (c *Class) New(ctx context.Context, args ...Value) (*Object, error) {
	return c.instantiate(ctx, 0, args)
}

func (c *Class) instantiate(ctx context.Context, depth int, args []Value) (*Object, error) {
	obj := c.rt.newBareObject(c.prototype, c)
	if _, err := c.rt.invoke(ctx, depth, c.wrapper, NewObject(obj), args); err != nil {
		return nil, err
	}
	return obj, nil
}

// Call invokes the class as a plain function. With arguments this casts the
// class onto each of them; without arguments it does nothing.
func (c *Class) Call(ctx context.Context, args ...Value) (Value, error) {
	return c.rt.invoke(ctx, 0, c.wrapper, NewNil(), args)
}

// Cast copies the class's members onto each target through the cast static.
func (c *Class) Cast(ctx context.Context, targets ...Value) error {
	_, err := c.Invoke(ctx, "cast", targets...)
	return err
}

// Implement folds each mixin's members into the class, in order, through the
// implement static.
func (c *Class) Implement(ctx context.Context, mixins ...*Class) error {
	args := make([]Value, len(mixins))
	for i, mixin := range mixins {
		args[i] = NewClass(mixin)
	}
	_, err := c.Invoke(ctx, "implement", args...)
	return err
}

// Invoke calls the static member name with the class as receiver.
func (c *Class) Invoke(ctx context.Context, name string, args ...Value) (Value, error) {
	fn, err := c.rt.resolveCallable(NewClass(c), name)
	if err != nil {
		return NewNil(), err
	}
	return c.rt.invoke(ctx, 0, fn, NewClass(c), args)
}

// SetStatic stores a class-side member verbatim, bypassing override
// detection.
func (c *Class) SetStatic(name string, value Value) *Class {
	c.statics.Set(name, value)
	return c
}

// ExtendStatic merges a single class-side member with override detection.
func (c *Class) ExtendStatic(name string, value Value) *Class {
	c.rt.extendOne(c, name, value)
	return c
}

// ExtendStatics merges every member of m into the class side.
func (c *Class) ExtendStatics(m Members) *Class {
	c.rt.extendMembers(extendContext{}, c, m)
	return c
}

// ForEach calls fn for every member visible on obj that the class prototype
// does not define.
func (c *Class) ForEach(obj *Object, fn func(name string, v Value) error) error {
	for _, name := range obj.memberNames() {
		if _, ok := c.prototype.Get(name); ok {
			continue
		}
		v, _ := obj.Get(name)
		if err := fn(name, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *Class) lookup(name string) (Value, bool) { return c.statics.Get(name) }

func (c *Class) assign(name string, v Value) { c.statics.Set(name, v) }

func (c *Class) member(name string) (Value, bool) { return c.statics.Get(name) }

func (c *Class) memberNames() []string { return c.statics.Names() }

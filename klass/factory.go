package klass

import (
	"context"
	"log/slog"
)

type extendOptions struct {
	name string
}

// ExtendOption configures a class definition.
type ExtendOption func(*extendOptions)

// WithName attaches a debugging name to the new class.
func WithName(name string) ExtendOption {
	return func(o *extendOptions) {
		o.name = name
	}
}

// extendClass builds a subclass of parent. A nil parent builds the root class
// on top of the host prototype.
func (rt *Runtime) extendClass(ctx context.Context, depth int, parent *Class, instance, static memberSource, opts extendOptions) (*Class, error) {
	protoParent := rt.hostProto
	if parent != nil {
		protoParent = parent.prototype
	}

	ec := extendContext{prototyping: true}
	proto := rt.newBareObject(protoParent, nil)
	if instance != nil {
		rt.extendMembers(ec, proto, instance)
	}
	proto.members.Set("base", NewFunction(rt.noop))
	ec.prototyping = false

	constructor, _ := proto.Get("constructor")
	cl := &Class{
		rt:          rt,
		name:        opts.name,
		prototype:   proto,
		statics:     newMemberTable(),
		constructor: constructor,
	}
	cl.wrapper = NewMethod(opts.name, cl.construct)
	proto.members.Set("constructor", NewClass(cl))

	if parent != nil {
		rt.extendMembers(ec, cl, parent)
	}
	cl.ancestor = parent
	if static != nil {
		rt.extendMembers(ec, cl, static)
	}

	Logger().Debug("class defined",
		slog.String("class", cl.displayName()),
		slog.String("ancestor", cl.AncestorName()),
		slog.Int("instance_members", proto.members.Len()),
		slog.Int("static_members", cl.statics.Len()))

	if init, ok := cl.statics.Get("init"); ok {
		if fn := init.Callable(); fn != nil {
			Logger().Debug("init fired", slog.String("class", cl.displayName()))
			if _, err := rt.invoke(ctx, depth, fn, NewClass(cl), nil); err != nil {
				return nil, err
			}
		}
	}
	return cl, nil
}

// construct is the body of the constructor wrapper. Called on an instance of
// the class, or on any instance whose construction is already under way, it
// runs the captured constructor. Called as a plain function with arguments it
// casts the class onto them.
func (c *Class) construct(call *Call, args []Value) (Value, error) {
	if obj := call.Self().Object(); obj != nil && (obj.constructing || c.isConstructorOf(obj)) {
		obj.constructing = true
		defer func() { obj.constructing = false }()
		fn := c.constructor.Callable()
		if fn == nil {
			return call.Self(), nil
		}
		if _, err := c.rt.invoke(call.ctx, call.depth, fn, call.Self(), args); err != nil {
			return NewNil(), err
		}
		return call.Self(), nil
	}
	if len(args) > 0 {
		if err := c.rt.cast(call.ctx, call.depth, c, args); err != nil {
			return NewNil(), err
		}
		return NewClass(c), nil
	}
	return NewNil(), nil
}

func (c *Class) isConstructorOf(obj *Object) bool {
	ctor, ok := obj.Get("constructor")
	return ok && ctor.Callable() == c.wrapper
}

// builtinSubclass is the extend static: extend(instance, static, name).
func (rt *Runtime) builtinSubclass(call *Call, args []Value) (Value, error) {
	parent := call.Self().Class()
	if parent == nil {
		return NewNil(), &ConfigError{Op: "extend", Kind: call.Self().Kind(), Reason: "receiver is not a class"}
	}
	var instance, static memberSource
	if len(args) > 0 {
		instance = sourceOf(args[0])
	}
	if len(args) > 1 {
		static = sourceOf(args[1])
	}
	var opts extendOptions
	if len(args) > 2 && args[2].Kind() == KindString {
		opts.name = args[2].String()
	}
	cl, err := rt.extendClass(call.ctx, call.depth, parent, instance, static, opts)
	if err != nil {
		return NewNil(), err
	}
	return NewClass(cl), nil
}

package klass

import (
	"context"
	"log/slog"
)

// cast copies source's members onto every target. Objects receive the
// prototype members. Classes receive the prototype members on their prototype
// and the statics on themselves, and their ancestor is redirected to source.
func (rt *Runtime) cast(ctx context.Context, depth int, source *Class, targets []Value) error {
	for _, target := range targets {
		switch target.Kind() {
		case KindObject:
			if err := rt.extendObject(ctx, depth, target.Object(), source.prototype); err != nil {
				return err
			}
			Logger().Debug("cast applied", slog.String("class", source.displayName()), slog.String("target", "object"))
		case KindClass:
			tc := target.Class()
			if err := rt.extendObject(ctx, depth, tc.prototype, source.prototype); err != nil {
				return err
			}
			rt.extendMembers(extendContext{}, tc, source)
			tc.ancestor = source
			Logger().Debug("cast applied", slog.String("class", source.displayName()), slog.String("target", tc.displayName()))
		default:
			return &ConfigError{
				Op:     "cast",
				Kind:   target.Kind(),
				Reason: "target must be an object or a class",
			}
		}
	}
	return nil
}

// builtinCast is the cast static: Source.cast(target1, target2, ...).
func (rt *Runtime) builtinCast(call *Call, args []Value) (Value, error) {
	source := call.Self().Class()
	if source == nil {
		return NewNil(), &ConfigError{Op: "cast", Kind: call.Self().Kind(), Reason: "receiver is not a class"}
	}
	if err := rt.cast(call.ctx, call.depth, source, args); err != nil {
		return NewNil(), err
	}
	return call.Self(), nil
}

// builtinImplement is the implement static: Target.implement(mixin1, ...). It
// runs the target's cast with each mixin as the source.
func (rt *Runtime) builtinImplement(call *Call, args []Value) (Value, error) {
	self := call.Self()
	if self.Class() == nil {
		return NewNil(), &ConfigError{Op: "implement", Kind: self.Kind(), Reason: "receiver is not a class"}
	}
	castMember, ok := self.Class().Static("cast")
	castFn := castMember.Callable()
	if !ok || castFn == nil {
		castFn = rt.castFn
	}
	for _, mixin := range args {
		if mixin.Class() == nil {
			return NewNil(), &ConfigError{Op: "implement", Kind: mixin.Kind(), Reason: "mixin must be a class"}
		}
		if _, err := rt.invoke(call.ctx, call.depth, castFn, mixin, []Value{self}); err != nil {
			return NewNil(), err
		}
	}
	return self, nil
}

// builtinForEach is the forEach static: Class.forEach(object, iterator, receiver).
func (rt *Runtime) builtinForEach(call *Call, args []Value) (Value, error) {
	cl := call.Self().Class()
	if cl == nil || len(args) < 2 {
		return call.Self(), nil
	}
	obj := args[0].Object()
	iterator := args[1].Callable()
	if obj == nil || iterator == nil {
		return call.Self(), nil
	}
	receiver := NewNil()
	if len(args) > 2 {
		receiver = args[2]
	}
	err := cl.ForEach(obj, func(name string, v Value) error {
		_, err := rt.invoke(call.ctx, call.depth, iterator, receiver, []Value{v, NewString(name), args[0]})
		return err
	})
	if err != nil {
		return NewNil(), err
	}
	return call.Self(), nil
}

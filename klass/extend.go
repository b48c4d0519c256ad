package klass

import (
	"context"
	"log/slog"
)

// hiddenMembers are merged before everything else and skipped by the regular
// pass. constructor is only honoured while a prototype is being built.
var hiddenMembers = []string{"constructor", "toString", "valueOf"}

func isHidden(name string) bool {
	for _, hidden := range hiddenMembers {
		if hidden == name {
			return true
		}
	}
	return false
}

// extendTarget is a member table the extender can merge into: an object, a
// prototype, or the static side of a class.
type extendTarget interface {
	lookup(name string) (Value, bool)
	assign(name string, v Value)
}

// extendContext replaces a global prototyping flag. It is created per class
// construction and never shared.
type extendContext struct {
	prototyping bool
}

// isDefault reports whether v is one of the placeholder values that must never
// be deposited on a real class or object.
func (rt *Runtime) isDefault(name string, v Value) bool {
	if name == "toSource" && v.IsNil() {
		return true
	}
	return v.Kind() == KindFunction && v.Function() == rt.noop
}

// extendOne stores value under name on t. A function that calls base and
// replaces a different callable member is wrapped so Call.Base reaches the
// replaced member.
func (rt *Runtime) extendOne(t extendTarget, name string, value Value) {
	if fn := value.Function(); fn != nil && fn.CallsBase() {
		ancestor, ok := t.lookup(name)
		if ok && ancestor.Callable() != nil && ancestor.identity() != value.identity() {
			value = NewFunction(newOverrideWrapper(fn.ValueOf(), ancestor))
			Logger().Debug("override wrapped", slog.String("member", name), slog.String("ancestor", ancestor.String()))
		}
	}
	t.assign(name, value)
}

// eachMember walks src in merge order: hidden members first, then the rest in
// enumeration order, skipping placeholder defaults.
func (rt *Runtime) eachMember(ec extendContext, src memberSource, fn func(name string, v Value) error) error {
	start := 1
	if ec.prototyping {
		start = 0
	}
	for _, name := range hiddenMembers[start:] {
		v, ok := src.member(name)
		if !ok || rt.isDefault(name, v) {
			continue
		}
		if err := fn(name, v); err != nil {
			return err
		}
	}
	for _, name := range src.memberNames() {
		if isHidden(name) {
			continue
		}
		v, _ := src.member(name)
		if rt.isDefault(name, v) {
			continue
		}
		if err := fn(name, v); err != nil {
			return err
		}
	}
	return nil
}

func (rt *Runtime) extendMembers(ec extendContext, t extendTarget, src memberSource) {
	_ = rt.eachMember(ec, src, func(name string, v Value) error {
		rt.extendOne(t, name, v)
		return nil
	})
}

// extendObject merges src into an object outside of prototyping. When the
// object resolves an extend member other than the built-in one, every pair is
// handed to that member instead.
func (rt *Runtime) extendObject(ctx context.Context, depth int, o *Object, src memberSource) error {
	custom := rt.customExtend(o)
	if custom == nil {
		rt.extendMembers(extendContext{}, o, src)
		return nil
	}
	self := NewObject(o)
	return rt.eachMember(extendContext{}, src, func(name string, v Value) error {
		_, err := rt.invoke(ctx, depth, custom, self, []Value{NewString(name), v})
		return err
	})
}

func (rt *Runtime) customExtend(o *Object) *Function {
	member, ok := o.Get("extend")
	if !ok {
		return nil
	}
	fn := member.Callable()
	if fn == nil || fn == rt.extendFn {
		return nil
	}
	return fn
}

// sourceOf returns the member set carried by v: an object's visible members or
// a class's statics.
func sourceOf(v Value) memberSource {
	switch v.Kind() {
	case KindObject:
		return v.Object()
	case KindClass:
		return v.Class()
	default:
		return nil
	}
}

// builtinExtend is the extend member every object inherits.
func (rt *Runtime) builtinExtend(call *Call, args []Value) (Value, error) {
	self := call.Self()
	var target extendTarget
	switch self.Kind() {
	case KindObject:
		target = self.Object()
	case KindClass:
		target = self.Class()
	default:
		return self, nil
	}
	if len(args) > 1 {
		rt.extendOne(target, args[0].String(), args[1])
		return self, nil
	}
	if len(args) == 0 {
		return self, nil
	}
	src := sourceOf(args[0])
	if src == nil {
		return self, nil
	}
	if obj := self.Object(); obj != nil {
		return self, rt.extendObject(call.ctx, call.depth, obj, src)
	}
	rt.extendMembers(extendContext{}, target, src)
	return self, nil
}

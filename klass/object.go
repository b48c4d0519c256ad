package klass

import (
	"context"
	"fmt"
	"strings"
)

// Object is an instance, a class prototype or a plain object. Lookups check the
// object's own members first and then delegate along the prototype chain.
type Object struct {
	rt      *Runtime
	members *MemberTable
	proto   *Object
	class   *Class

	constructing bool
}

func (rt *Runtime) newBareObject(proto *Object, class *Class) *Object {
	return &Object{rt: rt, members: newMemberTable(), proto: proto, class: class}
}

// NewObject returns a plain object holding m. Plain objects have no prototype
// and no class; casting a class onto them copies its prototype members in.
func (rt *Runtime) NewObject(m Members) *Object {
	obj := rt.newBareObject(nil, nil)
	for _, name := range m.memberNames() {
		obj.members.Set(name, m[name])
	}
	return obj
}

// Get resolves name on the object or its prototype chain.
func (o *Object) Get(name string) (Value, bool) {
	for cur := o; cur != nil; cur = cur.proto {
		if v, ok := cur.members.Get(name); ok {
			return v, true
		}
	}
	return NewNil(), false
}

// Own returns a member defined directly on the object.
func (o *Object) Own(name string) (Value, bool) {
	return o.members.Get(name)
}

// Set assigns an own member without override detection.
func (o *Object) Set(name string, v Value) {
	o.members.Set(name, v)
}

// Names returns the own member names in definition order.
func (o *Object) Names() []string {
	return o.members.Names()
}

// Class returns the class the object was constructed from, or nil for plain
// objects and prototypes.
func (o *Object) Class() *Class { return o.class }

// Prototype returns the object this one delegates to.
func (o *Object) Prototype() *Object { return o.proto }

// Extend merges a single member, wrapping value when it overrides an existing
// callable member and calls base.
func (o *Object) Extend(name string, value Value) *Object {
	o.rt.extendOne(o, name, value)
	return o
}

// ExtendMembers merges every member of m into the object. An object whose
// extend member was replaced receives each pair through that member instead.
func (o *Object) ExtendMembers(ctx context.Context, m Members) error {
	return o.rt.extendObject(ctx, 0, o, m)
}

// ExtendFrom merges every member visible on src, including the ones it
// inherits, into the object.
func (o *Object) ExtendFrom(ctx context.Context, src *Object) error {
	return o.rt.extendObject(ctx, 0, o, src)
}

// Invoke calls the member name with the object as receiver.
func (o *Object) Invoke(ctx context.Context, name string, args ...Value) (Value, error) {
	member, ok := o.Get(name)
	if !ok {
		return NewNil(), fmt.Errorf("%w %s on %s", ErrUnknownMember, name, o)
	}
	fn := member.Callable()
	if fn == nil {
		return NewNil(), fmt.Errorf("%w: %s is %s", ErrNotCallable, name, member.Kind())
	}
	return o.rt.invoke(ctx, 0, fn, NewObject(o), args)
}

func (o *Object) member(name string) (Value, bool) { return o.Get(name) }

// memberNames enumerates own members, then inherited members not shadowed by
// a nearer definition.
func (o *Object) memberNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for cur := o; cur != nil; cur = cur.proto {
		for _, name := range cur.members.names {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

func (o *Object) lookup(name string) (Value, bool) { return o.Get(name) }

func (o *Object) assign(name string, v Value) { o.members.Set(name, v) }

func (o *Object) String() string {
	if o.class != nil {
		return fmt.Sprintf("<%s instance>", o.class.displayName())
	}
	if o.members.Len() == 0 {
		return "{}"
	}
	parts := make([]string, 0, o.members.Len())
	for _, name := range o.members.names {
		v := o.members.values[name]
		rendered := v.String()
		if v.Kind() == KindObject {
			rendered = "{...}"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, rendered))
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
}

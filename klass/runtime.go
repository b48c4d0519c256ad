package klass

import (
	"context"
	"fmt"
)

// Version is reported by the version static of every class.
const Version = "1.1"

// Config controls runtime limits.
type Config struct {
	// RecursionLimit bounds the depth of nested method, constructor and base
	// invocations.
	RecursionLimit int
}

// Runtime owns a root class and the sentinel values shared by every class
// derived from it.
type Runtime struct {
	config    Config
	root      *Class
	noop      *Function
	extendFn  *Function
	castFn    *Function
	hostProto *Object
}

// New constructs a Runtime with sane defaults and bootstraps its root class.
func New(cfg Config) (*Runtime, error) {
	if cfg.RecursionLimit < 0 {
		return nil, fmt.Errorf("klass: recursion limit must not be negative (got %d)", cfg.RecursionLimit)
	}
	if cfg.RecursionLimit == 0 {
		cfg.RecursionLimit = 256
	}

	rt := &Runtime{config: cfg}
	rt.noop = NewMethod("base", func(*Call, []Value) (Value, error) {
		return NewNil(), nil
	})
	rt.extendFn = NewMethod("extend", rt.builtinExtend)
	rt.castFn = NewMethod("cast", rt.builtinCast)

	rt.hostProto = rt.newBareObject(nil, nil)
	rt.hostProto.Set("constructor", NewFunction(NewMethod("Object", func(call *Call, args []Value) (Value, error) {
		return call.Self(), nil
	})))
	rt.hostProto.Set("extend", NewFunction(rt.extendFn))

	root, err := rt.bootstrap()
	if err != nil {
		return nil, err
	}
	rt.root = root
	return rt, nil
}

// MustNew is like New but panics on error.
func MustNew(cfg Config) *Runtime {
	rt, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return rt
}

// bootstrap defines the root class with the same factory every other class
// goes through. Its constructor merges its first argument into the instance,
// which is what lets Root(object) behave as a cast.
func (rt *Runtime) bootstrap() (*Class, error) {
	instance := Members{
		"constructor": NewFunction(NewMethod("Base", func(call *Call, args []Value) (Value, error) {
			if len(args) == 0 {
				return call.Self(), nil
			}
			return call.Invoke(call.Self(), "extend", args[0])
		})),
	}
	static := Members{
		"base":      NewFunction(rt.noop),
		"version":   NewString(Version),
		"extend":    NewFunction(NewMethod("extend", rt.builtinSubclass)),
		"cast":      NewFunction(rt.castFn),
		"implement": NewFunction(NewMethod("implement", rt.builtinImplement)),
		"forEach":   NewFunction(NewMethod("forEach", rt.builtinForEach)),
		"toString": NewFunction(NewMethod("toString", func(call *Call, args []Value) (Value, error) {
			return NewString(call.Self().String()), nil
		})),
	}
	return rt.extendClass(context.Background(), 0, nil, instance, static, extendOptions{name: "Base"})
}

// Root returns the class every other class descends from.
func (rt *Runtime) Root() *Class { return rt.root }

// Config returns the effective configuration.
func (rt *Runtime) Config() Config { return rt.config }

// BaseDefault returns the no-op function Base falls back to when an override
// has no ancestor.
func (rt *Runtime) BaseDefault() *Function { return rt.noop }

// Define extends the root class.
func (rt *Runtime) Define(ctx context.Context, name string, instance, static Members) (*Class, error) {
	return rt.root.Extend(ctx, instance, static, WithName(name))
}

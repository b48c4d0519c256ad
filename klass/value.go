package klass

import (
	"fmt"
	"strings"
)

type ValueKind int

const (
	KindNil ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindFunction
	KindObject
	KindClass
)

// Value is the polymorphic member value stored in member tables.
type Value struct {
	kind ValueKind
	data any
}

// Members is a member-set literal handed to Extend, ExtendMembers and friends.
type Members map[string]Value

func NewNil() Value            { return Value{kind: KindNil} }
func NewBool(b bool) Value     { return Value{kind: KindBool, data: b} }
func NewInt(i int64) Value     { return Value{kind: KindInt, data: i} }
func NewFloat(f float64) Value { return Value{kind: KindFloat, data: f} }
func NewString(s string) Value { return Value{kind: KindString, data: s} }
func NewArray(a []Value) Value { return Value{kind: KindArray, data: a} }

func NewFunction(fn *Function) Value {
	if fn == nil {
		return NewNil()
	}
	return Value{kind: KindFunction, data: fn}
}

func NewObject(obj *Object) Value {
	if obj == nil {
		return NewNil()
	}
	return Value{kind: KindObject, data: obj}
}

func NewClass(cl *Class) Value {
	if cl == nil {
		return NewNil()
	}
	return Value{kind: KindClass, data: cl}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNil() bool { return v.kind == KindNil }

func (v Value) Bool() bool {
	if v.kind == KindBool {
		return v.data.(bool)
	}
	return false
}

func (v Value) Int() int64 {
	switch v.kind {
	case KindInt:
		return v.data.(int64)
	case KindFloat:
		return int64(v.data.(float64))
	default:
		return 0
	}
}

func (v Value) Float() float64 {
	switch v.kind {
	case KindFloat:
		return v.data.(float64)
	case KindInt:
		return float64(v.data.(int64))
	default:
		return 0
	}
}

func (v Value) Array() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.data.([]Value)
}

func (v Value) Function() *Function {
	if v.kind != KindFunction {
		return nil
	}
	return v.data.(*Function)
}

func (v Value) Object() *Object {
	if v.kind != KindObject {
		return nil
	}
	return v.data.(*Object)
}

func (v Value) Class() *Class {
	if v.kind != KindClass {
		return nil
	}
	return v.data.(*Class)
}

// Callable returns the function invoked when v is called: the function itself,
// or the constructor wrapper of a class. It returns nil for everything else.
func (v Value) Callable() *Function {
	switch v.kind {
	case KindFunction:
		return v.data.(*Function)
	case KindClass:
		return v.data.(*Class).wrapper
	default:
		return nil
	}
}

// identity is the value-identity accessor used by override detection: wrapped
// methods compare as their original, classes as their captured constructor.
func (v Value) identity() any {
	switch v.kind {
	case KindFunction:
		return v.data.(*Function).ValueOf()
	case KindClass:
		return v.data.(*Class).ValueOf()
	case KindObject:
		return v.data.(*Object)
	default:
		return nil
	}
}

func (k ValueKind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindFunction:
		return "function"
	case KindObject:
		return "object"
	case KindClass:
		return "class"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return ""
	case KindString:
		return v.data.(string)
	case KindBool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.data.(int64))
	case KindFloat:
		return fmt.Sprintf("%g", v.data.(float64))
	case KindArray:
		elems := v.data.([]Value)
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = e.String()
		}
		return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
	case KindFunction:
		return v.data.(*Function).String()
	case KindObject:
		return v.data.(*Object).String()
	case KindClass:
		return v.data.(*Class).String()
	default:
		return fmt.Sprintf("<%v>", v.kind)
	}
}

func (v Value) Truthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.Bool()
	case KindInt:
		return v.data.(int64) != 0
	case KindFloat:
		return v.data.(float64) != 0
	case KindString:
		return v.data.(string) != ""
	default:
		return true
	}
}

// Equal compares scalars by value and functions, objects and classes by
// reference.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		if (v.kind == KindInt || v.kind == KindFloat) && (other.kind == KindInt || other.kind == KindFloat) {
			return v.Float() == other.Float()
		}
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.Bool() == other.Bool()
	case KindInt:
		return v.Int() == other.Int()
	case KindFloat:
		return v.Float() == other.Float()
	case KindString:
		return v.data.(string) == other.data.(string)
	case KindArray:
		a, b := v.Array(), other.Array()
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	default:
		return v.data == other.data
	}
}

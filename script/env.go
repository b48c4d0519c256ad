package script

import (
	"sort"

	"github.com/mgomes/klass/klass"
)

type Env struct {
	parent *Env
	values map[string]klass.Value
}

func newEnv(parent *Env) *Env {
	return &Env{parent: parent, values: make(map[string]klass.Value)}
}

func (e *Env) Get(name string) (klass.Value, bool) {
	if val, ok := e.values[name]; ok {
		return val, true
	}
	if e.parent != nil {
		return e.parent.Get(name)
	}
	return klass.NewNil(), false
}

func (e *Env) Define(name string, val klass.Value) {
	e.values[name] = val
}

// Assign updates the nearest existing binding, or defines name in e.
func (e *Env) Assign(name string, val klass.Value) {
	for cur := e; cur != nil; cur = cur.parent {
		if _, ok := cur.values[name]; ok {
			cur.values[name] = val
			return
		}
	}
	e.values[name] = val
}

// Names returns the names bound directly in e, sorted.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

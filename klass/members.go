package klass

import "sort"

// MemberTable maps member names to values and remembers insertion order so
// enumeration matches the order members were first defined.
type MemberTable struct {
	names  []string
	values map[string]Value
}

func newMemberTable() *MemberTable {
	return &MemberTable{values: make(map[string]Value)}
}

func (t *MemberTable) Get(name string) (Value, bool) {
	v, ok := t.values[name]
	return v, ok
}

// Set stores v under name, replacing any previous value in place.
func (t *MemberTable) Set(name string, v Value) {
	if _, ok := t.values[name]; !ok {
		t.names = append(t.names, name)
	}
	t.values[name] = v
}

func (t *MemberTable) Has(name string) bool {
	_, ok := t.values[name]
	return ok
}

func (t *MemberTable) Len() int { return len(t.names) }

// Names returns the member names in definition order.
func (t *MemberTable) Names() []string {
	return append([]string(nil), t.names...)
}

// memberSource is anything the extender can merge from.
type memberSource interface {
	member(name string) (Value, bool)
	memberNames() []string
}

func (m Members) member(name string) (Value, bool) {
	v, ok := m[name]
	return v, ok
}

func (m Members) memberNames() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *MemberTable) member(name string) (Value, bool) { return t.Get(name) }

func (t *MemberTable) memberNames() []string { return t.Names() }

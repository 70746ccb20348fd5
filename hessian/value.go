package hessian

import "bytes"

// Value tree types produced by Builder. Back-references resolve to the same
// pointer, so self-referencing data forms real cycles.

// Entry is one map or fault entry in wire order.
type Entry struct {
	Key   any
	Value any
}

// Map is a decoded map.
type Map struct {
	ID      int
	Type    string
	Entries []Entry
}

// Get returns the value of the first entry whose key equals key.
func (m *Map) Get(key any) (any, bool) {
	return lookup(m.Entries, key)
}

// List is a decoded list. Length is the advisory length, or -1.
type List struct {
	ID     int
	Type   string
	Length int
	Items  []any
}

// Object is a decoded object instance.
type Object struct {
	ID     int
	Def    Definition
	Values []any
}

// Type returns the definition's type name.
func (o *Object) Type() string {
	return o.Def.Type
}

// Get returns the value of the named field.
func (o *Object) Get(field string) (any, bool) {
	for i, name := range o.Def.Fields {
		if name == field && i < len(o.Values) {
			return o.Values[i], true
		}
	}
	return nil, false
}

// Remote is a remote-object reference.
type Remote struct {
	Type  string
	Value any
}

// Fault is the fault body of a reply.
type Fault struct {
	ID      int
	Entries []Entry
}

// Get returns the value of the named entry, e.g. "code" or "message".
func (f *Fault) Get(key string) (any, bool) {
	return lookup(f.Entries, key)
}

// Header is one envelope header.
type Header struct {
	Name  string
	Value any
}

// Call is a decoded call envelope.
type Call struct {
	Version Version
	Headers []Header
	Method  string
	Args    []any
}

// Reply is a decoded reply envelope. Exactly one of Value and Fault is set
// (Value may legitimately be nil).
type Reply struct {
	Version Version
	Headers []Header
	Value   any
	Fault   *Fault
}

func lookup(entries []Entry, key any) (any, bool) {
	for _, e := range entries {
		if keyEqual(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

// keyEqual compares keys; []byte is the only uncomparable key type.
func keyEqual(a, b any) bool {
	ab, aok := a.([]byte)
	bb, bok := b.([]byte)
	if aok || bok {
		return aok && bok && bytes.Equal(ab, bb)
	}
	return a == b
}

package templating

import (
	"maps"
	"slices"
)

// Variables is the string-to-string environment a render reads from. It is
// shared by reference through every nested include and loop body, so a
// nested call observes (and may change) what its caller set. Variables is
// not safe for concurrent use; give each concurrent render its own Clone.
type Variables struct {
	m map[string]string
}

// NewVariables returns an empty environment.
func NewVariables() *Variables {
	return &Variables{m: make(map[string]string)}
}

// Get returns the value stored under key.
func (v *Variables) Get(key string) (string, bool) {
	val, ok := v.m[key]
	return val, ok
}

// Set stores value under key, replacing any previous value.
func (v *Variables) Set(key, value string) {
	v.m[key] = value
}

// Delete removes key.
func (v *Variables) Delete(key string) {
	delete(v.m, key)
}

// Len returns the number of keys.
func (v *Variables) Len() int {
	return len(v.m)
}

// Keys returns all keys in sorted order.
func (v *Variables) Keys() []string {
	return slices.Sorted(maps.Keys(v.m))
}

// Clone returns an independent copy.
func (v *Variables) Clone() *Variables {
	return &Variables{m: maps.Clone(v.m)}
}

// Scope opens an iteration scope for keys named "<prefix>.<field>". Every
// key written through the scope is restored to its previous state by Close.
func (v *Variables) Scope(prefix string) *Scope {
	return &Scope{vars: v, prefix: prefix, saved: make(map[string]savedValue)}
}

type savedValue struct {
	value   string
	existed bool
}

// Scope tracks the iteration keys installed by one loop.
type Scope struct {
	vars   *Variables
	prefix string
	saved  map[string]savedValue
	closed bool
}

// Set stores value under "<prefix>.<field>".
func (s *Scope) Set(field, value string) {
	key := s.prefix + "." + field
	if _, seen := s.saved[key]; !seen {
		prev, existed := s.vars.m[key]
		s.saved[key] = savedValue{value: prev, existed: existed}
	}
	s.vars.m[key] = value
}

// Close removes every key the scope installed, restoring values that
// existed before the scope opened. It is safe to call more than once.
func (s *Scope) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for key, prev := range s.saved {
		if prev.existed {
			s.vars.m[key] = prev.value
		} else {
			delete(s.vars.m, key)
		}
	}
}

package koan

import "github.com/roach88/koans/internal/value"

// Env is the learner-visible state of a case: names bound by let and
// assign, in first-binding order.
type Env struct {
	names []string
	vals  map[string]value.Value
}

// NewEnv creates an empty Env.
func NewEnv() *Env {
	return &Env{vals: make(map[string]value.Value)}
}

// Get returns the value bound to name.
func (e *Env) Get(name string) (value.Value, bool) {
	v, ok := e.vals[name]
	return v, ok
}

// Set binds name, keeping its original position if already bound.
func (e *Env) Set(name string, v value.Value) {
	if _, ok := e.vals[name]; !ok {
		e.names = append(e.names, name)
	}
	e.vals[name] = v
}

// Names returns bound names in first-binding order.
func (e *Env) Names() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

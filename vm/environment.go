package vm

import (
	"fmt"
	"sort"
)

// Environment is one lexical scope. Scopes point outward to the scope that
// created them; closures keep a reference, so a scope lives as long as any
// closure that captured it.
type Environment struct {
	values    map[string]Value
	enclosing *Environment
}

// NewEnvironment creates a scope nested in enclosing (nil for globals).
func NewEnvironment(enclosing *Environment) *Environment {
	return &Environment{
		values:    make(map[string]Value),
		enclosing: enclosing,
	}
}

// Enclosing returns the parent scope.
func (e *Environment) Enclosing() *Environment {
	return e.enclosing
}

// Define binds name in this scope only, replacing any previous binding.
func (e *Environment) Define(name string, value Value) {
	e.values[name] = value
}

// Get looks name up from this scope outward.
func (e *Environment) Get(name string) (Value, error) {
	for env := e; env != nil; env = env.enclosing {
		if v, ok := env.values[name]; ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w '%s'", ErrUndefinedVar, name)
}

// Assign updates the nearest scope that binds name. A name bound nowhere is
// defined in the outermost scope.
func (e *Environment) Assign(name string, value Value) {
	env := e
	for {
		if _, ok := env.values[name]; ok {
			env.values[name] = value
			return
		}
		if env.enclosing == nil {
			env.values[name] = value
			return
		}
		env = env.enclosing
	}
}

// ancestor walks distance scopes outward.
func (e *Environment) ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance && env != nil; i++ {
		env = env.enclosing
	}
	return env
}

// GetAt reads name from the scope distance steps out. It returns nil only
// when the distance does not match the chain, which a resolved program
// never produces.
func (e *Environment) GetAt(distance int, name string) Value {
	env := e.ancestor(distance)
	if env == nil {
		return nil
	}
	return env.values[name]
}

// AssignAt writes name in the scope distance steps out.
func (e *Environment) AssignAt(distance int, name string, value Value) {
	if env := e.ancestor(distance); env != nil {
		env.values[name] = value
	}
}

// Has reports whether name is bound in this scope only.
func (e *Environment) Has(name string) bool {
	_, ok := e.values[name]
	return ok
}

// Names returns the names bound in this scope, sorted.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package runtime

import "errors"

// ErrUndefined is returned by Set when no enclosing scope holds the name.
var ErrUndefined = errors.New("undefined variable")

// Environment represents a variable scope with a parent chain.
type Environment struct {
	values map[string]Value
	parent *Environment
}

// NewEnvironment creates a new environment with an optional parent scope.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		parent: parent,
	}
}

// Define declares a variable in this scope, replacing any existing binding of the same name here.
func (e *Environment) Define(name string, value Value) {
	e.values[name] = value
}

// Get looks up a variable by walking the scope chain.
func (e *Environment) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if val, exists := env.values[name]; exists {
			return val, true
		}
	}
	return nil, false
}

// Set assigns to the innermost existing binding of name.
func (e *Environment) Set(name string, value Value) error {
	for env := e; env != nil; env = env.parent {
		if _, exists := env.values[name]; exists {
			env.values[name] = value
			return nil
		}
	}
	return ErrUndefined
}

// Clone copies this scope's own bindings into a new scope with the same parent.
// Loops use it to give every iteration its own copy of the loop variables.
func (e *Environment) Clone() *Environment {
	c := &Environment{
		values: make(map[string]Value, len(e.values)),
		parent: e.parent,
	}
	for k, v := range e.values {
		c.values[k] = v
	}
	return c
}

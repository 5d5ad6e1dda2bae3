package runtime

import (
	"fmt"
	"sort"
)

// Environment represents a variable scope with a parent chain.
type Environment struct {
	values map[string]Value
	consts map[string]bool // names that can never be rebound
	parent *Environment
}

// NewEnvironment creates a new environment with an optional parent scope.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		consts: make(map[string]bool),
		parent: parent,
	}
}

// Define declares a new name in the current scope.
func (e *Environment) Define(name string, value Value, isConst bool) error {
	if _, exists := e.values[name]; exists {
		return fmt.Errorf("'%s' already declared in this scope", name)
	}
	e.values[name] = value
	if isConst {
		e.consts[name] = true
	}
	return nil
}

// Bind sets name in the current scope, shadowing any outer binding and
// overwriting a previous one. Constants cannot be rebound.
func (e *Environment) Bind(name string, value Value) error {
	if e.consts[name] {
		return fmt.Errorf("cannot redefine constant '%s'", name)
	}
	e.values[name] = value
	return nil
}

// Get looks up a name by walking the scope chain.
func (e *Environment) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if val, exists := env.values[name]; exists {
			return val, true
		}
	}
	return nil, false
}

// Names returns every name visible from e, sorted.
func (e *Environment) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for env := e; env != nil; env = env.parent {
		for name := range env.values {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

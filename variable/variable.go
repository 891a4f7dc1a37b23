//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

// Package variable provides conversation-scoped, policy-governed key/value
// state. Variables are distinct from the transient step working set: they are
// declared with a type, optionally a default, and persist across loop
// iterations of a flow.
package variable

import (
	"errors"
	"fmt"
)

// Type is the declared type of a variable.
type Type string

// Variable types.
const (
	TypeString Type = "string"
	TypeNumber Type = "number"
	TypeBool   Type = "bool"
	TypeList   Type = "list"
	TypeDict   Type = "dict"
	TypeAny    Type = "any"
)

// WritePolicy governs how a write combines with the current value.
type WritePolicy string

// Write policies.
const (
	// Overwrite replaces the current value.
	Overwrite WritePolicy = "overwrite"
	// Merge unions lists or dicts; on dict key collision the written value
	// wins.
	Merge WritePolicy = "merge"
	// Insert appends a single element to a list variable.
	Insert WritePolicy = "insert"
)

// Errors reported by the store.
var (
	ErrUndeclared = errors.New("variable not declared")
	ErrUnwritten  = errors.New("variable has no value and no default")
)

// Variable declares a named, typed slot with an optional default.
type Variable struct {
	Name    string `json:"name"`
	Type    Type   `json:"type"`
	Default any    `json:"default,omitempty"`
}

// Accepts reports whether a runtime value satisfies the type. A nil value
// is accepted by every type.
func (t Type) Accepts(v any) bool {
	if v == nil {
		return true
	}
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeBool:
		_, ok := v.(bool)
		return ok
	case TypeNumber:
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case TypeList:
		_, ok := v.([]any)
		return ok
	case TypeDict:
		_, ok := v.(map[string]any)
		return ok
	default:
		return true
	}
}

// Validate checks that the declared default satisfies the declared type.
// Insert and Merge writes assume []any and map[string]any defaults.
func (v Variable) Validate() error {
	if !v.Type.Accepts(v.Default) {
		return fmt.Errorf("default %T does not satisfy %s variable %s",
			v.Default, v.Type, v.Name)
	}
	return nil
}

// SupportsPolicy reports whether the variable's type admits the policy.
func (v Variable) SupportsPolicy(policy WritePolicy) bool {
	switch policy {
	case Overwrite:
		return true
	case Insert:
		return v.Type == TypeList
	case Merge:
		return v.Type == TypeList || v.Type == TypeDict
	default:
		return false
	}
}

// Store holds the values of a conversation's declared variables. A store is
// exclusively owned by one conversation and is not safe for concurrent use.
type Store struct {
	decls  map[string]Variable
	values map[string]any
}

// NewStore creates a store over the given declarations.
func NewStore(decls []Variable) *Store {
	s := &Store{
		decls:  make(map[string]Variable, len(decls)),
		values: make(map[string]any),
	}
	for _, d := range decls {
		s.decls[d.Name] = d
	}
	return s
}

// Declared reports whether name is a declared variable.
func (s *Store) Declared(name string) bool {
	_, ok := s.decls[name]
	return ok
}

// Declaration returns the declaration of name.
func (s *Store) Declaration(name string) (Variable, bool) {
	d, ok := s.decls[name]
	return d, ok
}

// Read returns the current value of name, falling back to the declared
// default. Reading an unwritten variable without a default is an error.
func (s *Store) Read(name string) (any, error) {
	decl, ok := s.decls[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndeclared, name)
	}
	if v, ok := s.values[name]; ok {
		return v, nil
	}
	if decl.Default != nil {
		return decl.Default, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnwritten, name)
}

// Write stores value under name according to policy.
func (s *Store) Write(name string, value any, policy WritePolicy) error {
	decl, ok := s.decls[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUndeclared, name)
	}
	if !decl.SupportsPolicy(policy) {
		return fmt.Errorf("policy %s not valid for %s variable %s", policy, decl.Type, name)
	}
	switch policy {
	case Overwrite:
		s.values[name] = value
	case Insert:
		current := s.currentOrDefault(decl)
		list, _ := current.([]any)
		s.values[name] = append(append([]any(nil), list...), value)
	case Merge:
		current := s.currentOrDefault(decl)
		merged, err := mergeValues(decl, current, value)
		if err != nil {
			return fmt.Errorf("merge variable %s: %w", name, err)
		}
		s.values[name] = merged
	}
	return nil
}

// Reset discards the written value of name, restoring the default.
func (s *Store) Reset(name string) {
	delete(s.values, name)
}

// Snapshot returns a copy of the written values, keyed by variable name.
func (s *Store) Snapshot() map[string]any {
	snap := make(map[string]any, len(s.values))
	for k, v := range s.values {
		snap[k] = v
	}
	return snap
}

// Restore replaces the written values with the given snapshot.
func (s *Store) Restore(values map[string]any) {
	s.values = make(map[string]any, len(values))
	for k, v := range values {
		s.values[k] = v
	}
}

func (s *Store) currentOrDefault(decl Variable) any {
	if v, ok := s.values[decl.Name]; ok {
		return v
	}
	return decl.Default
}

func mergeValues(decl Variable, current, update any) (any, error) {
	switch decl.Type {
	case TypeList:
		currentList, _ := current.([]any)
		updateList, ok := update.([]any)
		if !ok {
			return nil, fmt.Errorf("expected list value, got %T", update)
		}
		return append(append([]any(nil), currentList...), updateList...), nil
	case TypeDict:
		currentMap, _ := current.(map[string]any)
		updateMap, ok := update.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected dict value, got %T", update)
		}
		merged := make(map[string]any, len(currentMap)+len(updateMap))
		for k, v := range currentMap {
			merged[k] = v
		}
		for k, v := range updateMap {
			merged[k] = v
		}
		return merged, nil
	default:
		return nil, fmt.Errorf("merge not supported for %s variables", decl.Type)
	}
}

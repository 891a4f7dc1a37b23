//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package flow

import (
	"github.com/oracle/wayflow-sub000/variable"
)

// Descriptor declares one typed input or output of a step.
type Descriptor struct {
	// Name identifies the value within the step.
	Name string `json:"name"`
	// Type is the declared value type.
	Type variable.Type `json:"type"`
	// Default is used when no data-flow edge or static binding supplies a
	// value.
	Default any `json:"default,omitempty"`
	// Optional inputs may be absent without error.
	Optional bool `json:"optional,omitempty"`
}

// Input creates an input/output descriptor.
func Input(name string, t variable.Type) Descriptor {
	return Descriptor{Name: name, Type: t}
}

// OptionalInput creates an optional descriptor.
func OptionalInput(name string, t variable.Type) Descriptor {
	return Descriptor{Name: name, Type: t, Optional: true}
}

// DefaultInput creates a descriptor with a default value.
func DefaultInput(name string, t variable.Type, def any) Descriptor {
	return Descriptor{Name: name, Type: t, Default: def}
}

// typeAccepts reports whether a runtime value satisfies the declared type.
func typeAccepts(t variable.Type, v any) bool {
	return t.Accepts(v)
}

// typesCompatible reports whether a value of type src may feed an input of
// type dst.
func typesCompatible(src, dst variable.Type) bool {
	if src == variable.TypeAny || dst == variable.TypeAny {
		return true
	}
	return src == dst
}

//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package execution

import "errors"

// ErrSelfContainment reports a component that, directly or through nested
// sub-components, contains itself.
var ErrSelfContainment = errors.New("component contains itself")

// Nester is implemented by components and steps that embed nested
// components. Containment checks traverse it.
type Nester interface {
	Subcomponents() []Component
}

// CheckContainment walks the nested components of root and rejects any
// component that appears on its own ancestor path. Sharing a component by
// reference across sibling positions is allowed; a cycle is not. Components
// are compared by identity, so the check relies on components being
// immutable once constructed.
func CheckContainment(root Component) error {
	return walkComponents(root, map[Component]bool{})
}

func walkComponents(c Component, ancestors map[Component]bool) error {
	if ancestors[c] {
		return ErrSelfContainment
	}
	n, ok := c.(Nester)
	if !ok {
		return nil
	}
	ancestors[c] = true
	defer delete(ancestors, c)
	for _, sub := range n.Subcomponents() {
		if err := walkComponents(sub, ancestors); err != nil {
			return err
		}
	}
	return nil
}

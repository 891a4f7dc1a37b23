//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package flow

import (
	"context"
	"fmt"
	"sort"

	"github.com/oracle/wayflow-sub000/variable"
)

// BranchDefault is the branch a BranchStep takes when no case matches.
const BranchDefault = "default"

// BranchStep routes control flow by matching its "value" input against the
// configured cases. Unmatched values take the default branch.
type BranchStep struct {
	stepBase
	cases map[string]string
}

// BranchOption configures a BranchStep.
type BranchOption func(*BranchStep)

// WithCase routes the given input value to the given branch.
func WithCase(value, branch string) BranchOption {
	return func(s *BranchStep) { s.cases[value] = branch }
}

// NewBranchStep creates a value-dispatching step. Values are compared by
// their string form, so numeric and boolean inputs match their printed
// representation.
func NewBranchStep(name string, opts ...BranchOption) (*BranchStep, error) {
	s := &BranchStep{
		stepBase: stepBase{name: name, description: "routes control flow by value"},
		cases:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.cases) == 0 {
		return nil, configErrorf(name, "branch step declares no cases")
	}
	return s, nil
}

// Inputs declares the dispatch value.
func (s *BranchStep) Inputs() []Descriptor {
	return []Descriptor{Input("value", variable.TypeAny)}
}

// Outputs declares no outputs.
func (s *BranchStep) Outputs() []Descriptor { return nil }

// Branches lists the case branches plus the default, sorted for stable
// validation messages.
func (s *BranchStep) Branches() []string {
	seen := map[string]bool{BranchDefault: true}
	branches := []string{BranchDefault}
	for _, b := range s.cases {
		if !seen[b] {
			seen[b] = true
			branches = append(branches, b)
		}
	}
	sort.Strings(branches)
	return branches
}

// Invoke matches the value and takes the corresponding branch.
func (s *BranchStep) Invoke(_ context.Context, sc *StepContext) (*StepResult, error) {
	key := fmt.Sprintf("%v", sc.Inputs["value"])
	if branch, ok := s.cases[key]; ok {
		return &StepResult{Branch: branch}, nil
	}
	return &StepResult{Branch: BranchDefault}, nil
}

//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

// Package flow provides step graphs and their interpreter: named steps
// connected by control-flow edges (which step runs next, per branch) and
// data-flow edges (which output feeds which input), executed one step at a
// time until the flow finishes or suspends waiting for external input.
package flow

import (
	"context"

	"github.com/oracle/wayflow-sub000/execution"
	"github.com/oracle/wayflow-sub000/tool"
	"github.com/oracle/wayflow-sub000/variable"
)

// Branch names used by the built-in steps.
const (
	// BranchNext is the single branch of linear steps.
	BranchNext = "next"
)

// End is the terminal marker for control-flow edges: routing a branch to End
// finishes the path.
const End = "__end__"

// Step is a named unit of work. Implementations declare their typed inputs
// and outputs, the branches they can take, and whether invoking them might
// suspend execution. The might-yield flag is load-bearing for validation: a
// yielding step cannot be embedded where suspension is structurally
// disallowed, such as parallel fan-out.
type Step interface {
	// Name returns the step's unique name within its flow.
	Name() string
	// Description returns a human-readable description.
	Description() string
	// Inputs declares the step's typed inputs.
	Inputs() []Descriptor
	// Outputs declares the step's typed outputs.
	Outputs() []Descriptor
	// Branches lists the branch names the step can take.
	Branches() []string
	// MightYield reports whether invoking the step can suspend execution.
	MightYield() bool
	// Invoke runs the step. Suspension is signalled by returning an
	// *execution.Suspension error.
	Invoke(ctx context.Context, sc *StepContext) (*StepResult, error)
}

// StepResult is the outcome of a successful step invocation.
type StepResult struct {
	// Outputs are the named values the step produced.
	Outputs map[string]any
	// Branch is the control-flow branch the step took; empty means
	// BranchNext.
	Branch string
}

// StepContext carries everything a step needs during one invocation.
type StepContext struct {
	// Conversation is the conversation the step runs in.
	Conversation *execution.Conversation
	// State is the flow's execution state.
	State *execution.State
	// Inputs are the step's resolved, type-checked inputs.
	Inputs map[string]any
	// Variables is the flow's variable store.
	Variables *variable.Store
	// Resuming is true when the step is re-invoked after a suspension
	// with new external input available.
	Resuming bool
	// PendingRequests are the tool requests recorded at the suspension
	// point when resuming.
	PendingRequests []*tool.Request
}

// stepBase provides the common metadata plumbing of the built-in steps.
type stepBase struct {
	name        string
	description string
}

func (b stepBase) Name() string        { return b.name }
func (b stepBase) Description() string { return b.description }
func (b stepBase) Branches() []string  { return []string{BranchNext} }
func (b stepBase) MightYield() bool    { return false }

// nester is implemented by steps that embed nested components. The flow
// validator traverses it to reject self-containment at construction.
type nester interface {
	Subcomponents() []execution.Component
}

// variableUser is implemented by steps that read or write a flow variable.
// The flow validator checks the access against the declared variables.
type variableUser interface {
	VariableAccess() (name string, policy variable.WritePolicy, write bool)
}

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

	"github.com/oracle/wayflow-sub000/execution"
	"github.com/oracle/wayflow-sub000/variable"
)

// ComponentStep runs a nested component - a sub-flow or an agent - against a
// child state of the same conversation. A suspension inside the component
// propagates outward so every enclosing flow freezes its own position;
// resuming re-enters the innermost suspension point untouched.
type ComponentStep struct {
	stepBase
	component execution.Component
	inputs    []Descriptor
	outputs   []Descriptor
}

// ComponentOption configures a ComponentStep.
type ComponentOption func(*ComponentStep)

// WithComponentInput declares an input passed to the nested component as a
// conversation input.
func WithComponentInput(name string, t variable.Type) ComponentOption {
	return func(s *ComponentStep) {
		s.inputs = append(s.inputs, Input(name, t))
	}
}

// WithComponentOutput declares an output the nested component produces on
// completion.
func WithComponentOutput(name string, t variable.Type) ComponentOption {
	return func(s *ComponentStep) {
		s.outputs = append(s.outputs, Input(name, t))
	}
}

// NewSubflowStep creates a step that runs a sub-flow. The sub-flow's
// declared outputs become the step's outputs unless overridden with
// WithComponentOutput.
func NewSubflowStep(name string, sub *Flow, opts ...ComponentOption) (*ComponentStep, error) {
	if sub == nil {
		return nil, configErrorf(name, "subflow step requires a flow")
	}
	s := newComponentStep(name, sub, "runs sub-flow "+sub.Name(), opts...)
	if len(s.outputs) == 0 {
		for outName := range sub.outputs {
			s.outputs = append(s.outputs, Input(outName, variable.TypeAny))
		}
	}
	return s, nil
}

// NewAgentStep creates a step that hands the conversation to a nested
// component, typically an agent.
func NewAgentStep(name string, component execution.Component, opts ...ComponentOption) (*ComponentStep, error) {
	if component == nil {
		return nil, configErrorf(name, "agent step requires a component")
	}
	return newComponentStep(name, component, "runs "+component.Name(), opts...), nil
}

func newComponentStep(name string, component execution.Component, description string, opts ...ComponentOption) *ComponentStep {
	s := &ComponentStep{
		stepBase:  stepBase{name: name, description: description},
		component: component,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Inputs declares the component's conversation inputs.
func (s *ComponentStep) Inputs() []Descriptor { return s.inputs }

// Outputs declares the component's completion outputs.
func (s *ComponentStep) Outputs() []Descriptor { return s.outputs }

// MightYield reports whether the nested component can suspend.
func (s *ComponentStep) MightYield() bool { return s.component.MightYield() }

// Subcomponents exposes the nested component to the flow validator.
func (s *ComponentStep) Subcomponents() []execution.Component {
	return []execution.Component{s.component}
}

// Invoke runs the nested component against the child state owned by this
// step. The child state persists across suspensions and is dropped once the
// component finishes.
func (s *ComponentStep) Invoke(ctx context.Context, sc *StepContext) (*StepResult, error) {
	child := sc.Conversation.Child(s.name, s.component, sc.Inputs)
	status, err := s.component.Execute(ctx, child)
	if err != nil {
		return nil, err
	}
	switch st := status.(type) {
	case execution.Finished:
		sc.State.DropChild(s.name)
		return &StepResult{Outputs: st.Outputs}, nil
	case execution.AwaitingUserMessage:
		return nil, execution.SuspendForUserMessage(st.Message)
	case execution.AwaitingToolResult:
		return nil, execution.SuspendForToolResults(st.Requests...)
	case execution.AwaitingToolConfirmation:
		return nil, execution.SuspendForConfirmation(st.Requests...)
	default:
		return nil, fmt.Errorf("component %s returned unexpected status %T", s.component.Name(), status)
	}
}

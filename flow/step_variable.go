//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package flow

import (
	"context"

	"github.com/oracle/wayflow-sub000/variable"
)

// ReadVariableStep reads a flow variable and exposes it as the "value"
// output. Reading an unwritten variable yields its default; a variable with
// neither a write nor a default fails the step.
type ReadVariableStep struct {
	stepBase
	variable string
}

// NewReadVariableStep creates a step that reads the named variable.
func NewReadVariableStep(name, varName string) *ReadVariableStep {
	return &ReadVariableStep{
		stepBase: stepBase{name: name, description: "reads variable " + varName},
		variable: varName,
	}
}

// Inputs declares no inputs.
func (s *ReadVariableStep) Inputs() []Descriptor { return nil }

// Outputs declares the read value.
func (s *ReadVariableStep) Outputs() []Descriptor {
	return []Descriptor{Input(OutputValue, variable.TypeAny)}
}

// VariableAccess reports the read to the flow validator.
func (s *ReadVariableStep) VariableAccess() (string, variable.WritePolicy, bool) {
	return s.variable, "", false
}

// Invoke reads the variable.
func (s *ReadVariableStep) Invoke(_ context.Context, sc *StepContext) (*StepResult, error) {
	v, err := sc.Variables.Read(s.variable)
	if err != nil {
		return nil, err
	}
	return &StepResult{Outputs: map[string]any{OutputValue: v}}, nil
}

// WriteVariableStep writes its "value" input to a flow variable under the
// configured write policy.
type WriteVariableStep struct {
	stepBase
	variable string
	policy   variable.WritePolicy
}

// NewWriteVariableStep creates a step that writes the named variable.
func NewWriteVariableStep(name, varName string, policy variable.WritePolicy) *WriteVariableStep {
	return &WriteVariableStep{
		stepBase: stepBase{name: name, description: "writes variable " + varName},
		variable: varName,
		policy:   policy,
	}
}

// Inputs declares the value to write.
func (s *WriteVariableStep) Inputs() []Descriptor {
	return []Descriptor{Input("value", variable.TypeAny)}
}

// Outputs declares no outputs.
func (s *WriteVariableStep) Outputs() []Descriptor { return nil }

// VariableAccess reports the write to the flow validator.
func (s *WriteVariableStep) VariableAccess() (string, variable.WritePolicy, bool) {
	return s.variable, s.policy, true
}

// Invoke writes the variable.
func (s *WriteVariableStep) Invoke(_ context.Context, sc *StepContext) (*StepResult, error) {
	if err := sc.Variables.Write(s.variable, sc.Inputs["value"], s.policy); err != nil {
		return nil, err
	}
	return &StepResult{}, nil
}

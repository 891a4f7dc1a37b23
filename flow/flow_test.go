//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracle/wayflow-sub000/execution"
	"github.com/oracle/wayflow-sub000/variable"
)

// noopStep is a minimal step for graph-shape tests.
type noopStep struct {
	stepBase
}

func newNoopStep(name string) *noopStep {
	return &noopStep{stepBase: stepBase{name: name}}
}

func (s *noopStep) Inputs() []Descriptor  { return nil }
func (s *noopStep) Outputs() []Descriptor { return nil }

func (s *noopStep) Invoke(_ context.Context, _ *StepContext) (*StepResult, error) {
	return &StepResult{}, nil
}

// refStep nests a component assigned after construction, used to build the
// cyclic shapes the validator must reject.
type refStep struct {
	stepBase
	component execution.Component
}

func (s *refStep) Inputs() []Descriptor  { return nil }
func (s *refStep) Outputs() []Descriptor { return nil }

func (s *refStep) Subcomponents() []execution.Component {
	if s.component == nil {
		return nil
	}
	return []execution.Component{s.component}
}

func (s *refStep) Invoke(_ context.Context, _ *StepContext) (*StepResult, error) {
	return &StepResult{}, nil
}

func TestNewRequiresBegin(t *testing.T) {
	_, err := New("f", WithSteps(newNoopStep("a")), WithNext("a", End))
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "begin")
}

func TestNewUnknownBegin(t *testing.T) {
	_, err := New("f",
		WithSteps(newNoopStep("a")),
		WithBegin("missing"),
		WithNext("a", End),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestNewDuplicateStep(t *testing.T) {
	_, err := New("f",
		WithSteps(newNoopStep("a"), newNoopStep("a")),
		WithBegin("a"),
		WithNext("a", End),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate step a")
}

func TestNewBranchWithoutEdge(t *testing.T) {
	_, err := New("f",
		WithSteps(newNoopStep("a")),
		WithBegin("a"),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no outgoing edge")
}

func TestNewEdgeToUnknownStep(t *testing.T) {
	_, err := New("f",
		WithSteps(newNoopStep("a")),
		WithBegin("a"),
		WithNext("a", "ghost"),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestNewDuplicateEdge(t *testing.T) {
	_, err := New("f",
		WithSteps(newNoopStep("a")),
		WithBegin("a"),
		WithNext("a", End),
		WithNext("a", End),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one edge")
}

func TestNewEdgeForUndeclaredBranch(t *testing.T) {
	_, err := New("f",
		WithSteps(newNoopStep("a")),
		WithBegin("a"),
		WithNext("a", End),
		WithControlEdge("a", "sideways", End),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no branch sideways")
}

func TestNewDataEdgeUndeclaredInput(t *testing.T) {
	msg, err := NewOutputMessageStep("a", "hi")
	require.NoError(t, err)
	_, err = New("f",
		WithSteps(msg),
		WithBegin("a"),
		WithNext("a", End),
		WithDataEdge(execution.InputSpace, "x", "a", "nope"),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not declare input nope")
}

func TestNewDataEdgeUnknownSource(t *testing.T) {
	msg, err := NewOutputMessageStep("a", "{{.x}}", WithMessageInput("x", variable.TypeString))
	require.NoError(t, err)
	_, err = New("f",
		WithSteps(msg),
		WithBegin("a"),
		WithNext("a", End),
		WithDataEdge("ghost", "out", "a", "x"),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step ghost")
}

func TestNewDataEdgeTypeMismatch(t *testing.T) {
	src, err := NewOutputMessageStep("src", "hi")
	require.NoError(t, err)
	dst, err := NewPromptStep("dst", staticModel("ok"), "{{.n}}",
		WithPromptInput("n", variable.TypeNumber))
	require.NoError(t, err)
	_, err = New("f",
		WithSteps(src, dst),
		WithBegin("src"),
		WithNext("src", "dst"),
		WithNext("dst", End),
		WithDataEdge("src", OutputMessage, "dst", "n"),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not compatible")
}

func TestNewDataEdgeDuplicateInput(t *testing.T) {
	src, err := NewOutputMessageStep("src", "hi")
	require.NoError(t, err)
	dst, err := NewOutputMessageStep("dst", "{{.x}}", WithMessageInput("x", variable.TypeString))
	require.NoError(t, err)
	_, err = New("f",
		WithSteps(src, dst),
		WithBegin("src"),
		WithNext("src", "dst"),
		WithNext("dst", End),
		WithDataEdge("src", OutputMessage, "dst", "x"),
		WithDataEdge(execution.InputSpace, "x", "dst", "x"),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one data edge")
}

func TestNewUndeclaredVariable(t *testing.T) {
	w := NewWriteVariableStep("w", "ghost", variable.Overwrite)
	_, err := New("f",
		WithSteps(w),
		WithBegin("w"),
		WithNext("w", End),
		WithStaticInput("w", "value", 1),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared variable ghost")
}

func TestNewInvalidWritePolicy(t *testing.T) {
	w := NewWriteVariableStep("w", "x", variable.Insert)
	_, err := New("f",
		WithSteps(w),
		WithBegin("w"),
		WithNext("w", End),
		WithStaticInput("w", "value", 1),
		WithVariables(variable.Variable{Name: "x", Type: variable.TypeString}),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid policy")
}

func TestNewRejectsMistypedVariableDefault(t *testing.T) {
	w := NewWriteVariableStep("w", "notes", variable.Insert)
	_, err := New("f",
		WithSteps(w),
		WithBegin("w"),
		WithNext("w", End),
		WithStaticInput("w", "value", "c"),
		WithVariables(variable.Variable{
			Name:    "notes",
			Type:    variable.TypeList,
			Default: []string{"a", "b"},
		}),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default []string does not satisfy list variable notes")
}

func TestNewRejectsSelfContainment(t *testing.T) {
	ref := &refStep{stepBase: stepBase{name: "ref"}}
	inner, err := New("inner",
		WithSteps(ref),
		WithBegin("ref"),
		WithNext("ref", End),
	)
	require.NoError(t, err)

	// Close the cycle, then build a graph that embeds it.
	ref.component = inner

	sub, err := NewSubflowStep("sub", inner)
	require.NoError(t, err)
	_, err = New("outer",
		WithSteps(sub),
		WithBegin("sub"),
		WithNext("sub", End),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, execution.ErrSelfContainment)
	assert.True(t, IsConfigError(err))
}

func TestSharedSubflowReferenceAllowed(t *testing.T) {
	shared, err := New("shared",
		WithSteps(newNoopStep("a")),
		WithBegin("a"),
		WithNext("a", End),
	)
	require.NoError(t, err)

	s1, err := NewSubflowStep("first", shared)
	require.NoError(t, err)
	s2, err := NewSubflowStep("second", shared)
	require.NoError(t, err)

	f, err := New("outer",
		WithSteps(s1, s2),
		WithBegin("first"),
		WithNext("first", "second"),
		WithNext("second", End),
	)
	require.NoError(t, err)
	assert.False(t, f.MightYield())
}

func TestMightYieldPropagates(t *testing.T) {
	quiet, err := New("quiet",
		WithSteps(newNoopStep("a")),
		WithBegin("a"),
		WithNext("a", End),
	)
	require.NoError(t, err)
	assert.False(t, quiet.MightYield())

	loud, err := New("loud",
		WithSteps(NewInputMessageStep("await")),
		WithBegin("await"),
		WithNext("await", End),
	)
	require.NoError(t, err)
	assert.True(t, loud.MightYield())

	sub, err := NewSubflowStep("sub", loud)
	require.NoError(t, err)
	outer, err := New("outer",
		WithSteps(sub),
		WithBegin("sub"),
		WithNext("sub", End),
	)
	require.NoError(t, err)
	assert.True(t, outer.MightYield())
}

func TestNewMapStepRejectsYieldingSubflow(t *testing.T) {
	loud, err := New("loud",
		WithSteps(NewInputMessageStep("await")),
		WithBegin("await"),
		WithNext("await", End),
	)
	require.NoError(t, err)

	_, err = NewMapStep("map", loud)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrYieldingSubflow)
}

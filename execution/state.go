//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package execution

import (
	"github.com/oracle/wayflow-sub000/model"
	"github.com/oracle/wayflow-sub000/tool"
)

// Reserved working-set spaces.
const (
	// InputSpace holds the conversation-level inputs.
	InputSpace = "__input__"
	// ContextSpace holds context-provider values computed once per
	// conversation.
	ContextSpace = "__context__"
)

// State is the mutable record of one conversation's execution. It is owned
// exclusively by that conversation, mutated only by the interpreter or agent
// loop driving it, and never shared across conversations. The structure is
// acyclic and fully reachable from the root so it can be serialized and the
// conversation resumed across process restarts.
type State struct {
	// Current is the name of the step about to run, for flow components.
	Current string `json:"current,omitempty"`
	// Working is the step working set: outputs keyed by producing step
	// name, threaded between steps via data-flow edges.
	Working map[string]map[string]any `json:"working,omitempty"`
	// Variables holds the written variable values, keyed by name.
	Variables map[string]any `json:"variables,omitempty"`
	// Messages is the transcript of this component's conversation.
	Messages []model.Message `json:"messages,omitempty"`
	// History records executed steps in order.
	History []StepRecord `json:"history,omitempty"`
	// Loop counts completed iterations of a looping flow.
	Loop int `json:"loop,omitempty"`
	// Pending records the suspension the execution is frozen on, if any.
	Pending *Pending `json:"pending,omitempty"`
	// Children holds the states of nested components, keyed by the name of
	// the step that owns them.
	Children map[string]*State `json:"children,omitempty"`
	// Agent holds the agent-loop sub-state for agent components.
	Agent *AgentState `json:"agent,omitempty"`
	// Usage accumulates token consumption across generations.
	Usage model.Usage `json:"usage"`
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		Working: make(map[string]map[string]any),
	}
}

// StepRecord is one entry of the ordered step history.
type StepRecord struct {
	// Step is the executed step's name.
	Step string `json:"step"`
	// Branch is the branch the step took.
	Branch string `json:"branch"`
	// Iteration is the loop iteration the step ran in.
	Iteration int `json:"iteration"`
}

// Pending records a frozen suspension point.
type Pending struct {
	// Step is the step the execution is frozen at.
	Step string `json:"step"`
	// Kind says what external input is awaited.
	Kind SuspensionKind `json:"kind"`
	// Requests are the awaited tool requests, for tool suspensions.
	Requests []*tool.Request `json:"requests,omitempty"`
}

// AgentState is the agent-loop analogue of the flow interpreter's step
// bookkeeping.
type AgentState struct {
	// Queue holds tool calls parsed from model responses, dispatched in
	// order.
	Queue []*tool.Request `json:"queue,omitempty"`
	// Plan is the execution plan text when planning is enabled.
	Plan string `json:"plan,omitempty"`
	// PendingRequest is the request currently awaiting an external result
	// or confirmation.
	PendingRequest *tool.Request `json:"pendingRequest,omitempty"`
	// ExitRequested is set once the model asked to end the conversation.
	ExitRequested bool `json:"exitRequested,omitempty"`
	// ExitConfirmed records the caller's confirmation of the exit request.
	ExitConfirmed bool `json:"exitConfirmed,omitempty"`
	// Iterations counts generate/dispatch cycles within the current
	// Execute call; it resets on re-entry.
	Iterations int `json:"-"`
}

// Outputs returns the working-set outputs recorded for step, creating the
// space when absent.
func (s *State) Outputs(step string) map[string]any {
	if s.Working == nil {
		s.Working = make(map[string]map[string]any)
	}
	outputs, ok := s.Working[step]
	if !ok {
		outputs = make(map[string]any)
		s.Working[step] = outputs
	}
	return outputs
}

// Lookup reads a single value from the working set.
func (s *State) Lookup(step, output string) (any, bool) {
	outputs, ok := s.Working[step]
	if !ok {
		return nil, false
	}
	v, ok := outputs[output]
	return v, ok
}

// Child returns the nested state owned by the given step, creating it when
// absent.
func (s *State) Child(step string) *State {
	if s.Children == nil {
		s.Children = make(map[string]*State)
	}
	child, ok := s.Children[step]
	if !ok {
		child = NewState()
		s.Children[step] = child
	}
	return child
}

// DropChild discards the nested state owned by the given step.
func (s *State) DropChild(step string) {
	delete(s.Children, step)
}

// AgentSub returns the agent sub-state, creating it when absent.
func (s *State) AgentSub() *AgentState {
	if s.Agent == nil {
		s.Agent = &AgentState{}
	}
	return s.Agent
}

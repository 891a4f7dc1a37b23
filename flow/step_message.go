//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package flow

import (
	"bytes"
	"context"
	"text/template"

	"github.com/oracle/wayflow-sub000/execution"
	"github.com/oracle/wayflow-sub000/model"
	"github.com/oracle/wayflow-sub000/variable"
)

// Well-known output names of the built-in steps.
const (
	// OutputMessage is the rendered message of an OutputMessageStep.
	OutputMessage = "message"
	// OutputUserMessage is the received text of an InputMessageStep.
	OutputUserMessage = "user_message"
	// OutputResponse is the generated text of a PromptStep.
	OutputResponse = "response"
	// OutputResult is the result of a ToolStep.
	OutputResult = "result"
	// OutputError is the caught error of a ToolStep with error catching.
	OutputError = "error"
	// OutputValue is the value read by a ReadVariableStep.
	OutputValue = "value"
	// OutputResults is the ordered result list of a MapStep.
	OutputResults = "results"
)

// OutputMessageStep renders a template from its inputs, appends the result
// to the transcript as an assistant message and exposes it as the "message"
// output.
type OutputMessageStep struct {
	stepBase
	tmpl   *template.Template
	inputs []Descriptor
	role   string
}

// OutputMessageOption configures an OutputMessageStep.
type OutputMessageOption func(*OutputMessageStep)

// WithMessageInput declares a template input.
func WithMessageInput(name string, t variable.Type) OutputMessageOption {
	return func(s *OutputMessageStep) {
		s.inputs = append(s.inputs, Input(name, t))
	}
}

// WithMessageRole sets the transcript role of the rendered message. The
// default is assistant.
func WithMessageRole(role string) OutputMessageOption {
	return func(s *OutputMessageStep) { s.role = role }
}

// NewOutputMessageStep creates a step that emits a templated message. The
// template uses text/template syntax; inputs are addressed as {{.name}}.
func NewOutputMessageStep(name, text string, opts ...OutputMessageOption) (*OutputMessageStep, error) {
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, configErrorf(name, "invalid message template: %v", err)
	}
	s := &OutputMessageStep{
		stepBase: stepBase{name: name, description: "emits a templated message"},
		tmpl:     tmpl,
		role:     model.RoleAssistant,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Inputs declares the template inputs.
func (s *OutputMessageStep) Inputs() []Descriptor { return s.inputs }

// Outputs declares the rendered message.
func (s *OutputMessageStep) Outputs() []Descriptor {
	return []Descriptor{Input(OutputMessage, variable.TypeString)}
}

// Invoke renders the template and appends the message to the transcript.
func (s *OutputMessageStep) Invoke(_ context.Context, sc *StepContext) (*StepResult, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, sc.Inputs); err != nil {
		return nil, err
	}
	text := buf.String()
	msg := model.Message{Role: s.role, Content: text}
	sc.State.Messages = append(sc.State.Messages, msg)
	return &StepResult{Outputs: map[string]any{OutputMessage: text}}, nil
}

// InputMessageStep waits for a user message. When none is staged the step
// suspends; the conversation reports AwaitingUserMessage and the caller
// supplies one before executing again. The received text is appended to the
// transcript and exposed as the "user_message" output.
type InputMessageStep struct {
	stepBase
}

// NewInputMessageStep creates a step that waits for a user message.
func NewInputMessageStep(name string) *InputMessageStep {
	return &InputMessageStep{
		stepBase: stepBase{name: name, description: "waits for a user message"},
	}
}

// Inputs declares no inputs.
func (s *InputMessageStep) Inputs() []Descriptor { return nil }

// Outputs declares the received text.
func (s *InputMessageStep) Outputs() []Descriptor {
	return []Descriptor{Input(OutputUserMessage, variable.TypeString)}
}

// MightYield reports that the step can suspend.
func (s *InputMessageStep) MightYield() bool { return true }

// Invoke consumes the staged user message or suspends.
func (s *InputMessageStep) Invoke(_ context.Context, sc *StepContext) (*StepResult, error) {
	if msg := sc.Conversation.TakeUserMessage(); msg != nil {
		sc.State.Messages = append(sc.State.Messages, *msg)
		return &StepResult{Outputs: map[string]any{OutputUserMessage: msg.Content}}, nil
	}
	var last *model.Message
	if n := len(sc.State.Messages); n > 0 {
		last = &sc.State.Messages[n-1]
	}
	return nil, execution.SuspendForUserMessage(last)
}

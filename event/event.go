//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

// Package event provides the lifecycle event system of the conversation
// engine. Both the flow interpreter and the agent loop emit events at the
// boundaries of execution, loop iterations, steps, tool calls and model
// generations. Listeners are pure observers and must not mutate execution
// state.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/oracle/wayflow-sub000/model"
)

// Kind identifies a lifecycle boundary.
type Kind string

// Lifecycle event kinds.
const (
	KindExecutionStart  Kind = "execution.start"
	KindExecutionEnd    Kind = "execution.end"
	KindIterationStart  Kind = "iteration.start"
	KindIterationEnd    Kind = "iteration.end"
	KindStepStart       Kind = "step.start"
	KindStepEnd         Kind = "step.end"
	KindToolStart       Kind = "tool.start"
	KindToolEnd         Kind = "tool.end"
	KindGenerationStart Kind = "generation.start"
	KindGenerationEnd   Kind = "generation.end"
)

// Event is a single lifecycle notification.
type Event struct {
	// ID is the unique identifier of the event.
	ID string `json:"id"`
	// ConversationID identifies the conversation that produced the event.
	ConversationID string `json:"conversationId"`
	// Kind is the lifecycle boundary the event marks.
	Kind Kind `json:"kind"`
	// Author names the component the event refers to: a step, tool or
	// model name, or the conversation's root component.
	Author string `json:"author"`
	// Timestamp is when the event was created.
	Timestamp time.Time `json:"timestamp"`
	// Iteration is the loop iteration the event belongs to, when relevant.
	Iteration int `json:"iteration,omitempty"`
	// Usage carries token consumption on generation-end events.
	Usage *model.Usage `json:"usage,omitempty"`
	// Error carries the failure message on end events of failed operations.
	Error string `json:"error,omitempty"`
}

// Option configures an Event.
type Option func(*Event)

// WithIteration sets the loop iteration of the event.
func WithIteration(iteration int) Option {
	return func(e *Event) { e.Iteration = iteration }
}

// WithUsage attaches token usage to the event.
func WithUsage(usage *model.Usage) Option {
	return func(e *Event) { e.Usage = usage }
}

// WithError attaches a failure message to the event.
func WithError(err error) Option {
	return func(e *Event) {
		if err != nil {
			e.Error = err.Error()
		}
	}
}

// New creates an event with a generated ID and the current timestamp.
func New(conversationID string, kind Kind, author string, opts ...Option) *Event {
	e := &Event{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Kind:           kind,
		Author:         author,
		Timestamp:      time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Listener observes lifecycle events. Implementations must treat events as
// read-only.
type Listener interface {
	OnEvent(event *Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(event *Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(event *Event) { f(event) }

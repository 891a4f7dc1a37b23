//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package execution

import (
	"context"

	"github.com/google/uuid"

	"github.com/oracle/wayflow-sub000/event"
	"github.com/oracle/wayflow-sub000/log"
	"github.com/oracle/wayflow-sub000/model"
	"github.com/oracle/wayflow-sub000/tool"
)

// Conversation drives one component through repeated Execute calls. A
// conversation is driven synchronously by its caller: Execute never runs a
// conversation's steps concurrently with themselves, and all mutable state is
// owned by exactly one conversation.
//
// The resumption contract: each Execute call appends any externally supplied
// input first (user message, tool results, confirmations), re-enters the
// component at the frozen point and returns exactly one Status. The caller
// inspects the status, supplies whatever it is waiting for, and calls
// Execute again.
type Conversation struct {
	id        string
	component Component
	state     *State
	inputs    map[string]any
	finished  bool

	// shared is common to a conversation and all of its nested child
	// conversations: staged external input, listeners and interrupters.
	shared *shared
}

type shared struct {
	listeners    []event.Listener
	interrupters []Interrupter

	userMessage   *model.Message
	toolResults   map[string]*tool.Result
	confirmations map[string]bool
}

// Option configures a Conversation.
type Option func(*Conversation)

// WithID sets the conversation ID instead of generating one.
func WithID(id string) Option {
	return func(c *Conversation) { c.id = id }
}

// WithInputs sets the conversation-level inputs available to data-flow
// edges.
func WithInputs(inputs map[string]any) Option {
	return func(c *Conversation) { c.inputs = inputs }
}

// WithListeners registers lifecycle event listeners.
func WithListeners(listeners ...event.Listener) Option {
	return func(c *Conversation) {
		c.shared.listeners = append(c.shared.listeners, listeners...)
	}
}

// WithInterrupters registers interrupters evaluated on every lifecycle
// event, in registration order. Interrupters are per-conversation and are
// discarded when the conversation finishes.
func WithInterrupters(interrupters ...Interrupter) Option {
	return func(c *Conversation) {
		c.shared.interrupters = append(c.shared.interrupters, interrupters...)
	}
}

// NewConversation starts a conversation over the given component.
func NewConversation(component Component, opts ...Option) (*Conversation, error) {
	if component == nil {
		return nil, ErrNilComponent
	}
	c := &Conversation{
		id:        uuid.New().String(),
		component: component,
		state:     NewState(),
		shared: &shared{
			toolResults:   make(map[string]*tool.Result),
			confirmations: make(map[string]bool),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.inputs != nil {
		c.state.Working[InputSpace] = c.inputs
	}
	return c, nil
}

// ID returns the conversation identifier.
func (c *Conversation) ID() string { return c.id }

// Component returns the root component.
func (c *Conversation) Component() Component { return c.component }

// State returns the execution state. Callers must treat it as read-only.
func (c *Conversation) State() *State { return c.state }

// Messages returns the transcript of the root component.
func (c *Conversation) Messages() []model.Message { return c.state.Messages }

// Finished reports whether the conversation produced a Finished status.
func (c *Conversation) Finished() bool { return c.finished }

// Execute drives the component until it finishes, suspends or is
// interrupted. Calling Execute on a finished conversation returns
// ErrConversationFinished.
func (c *Conversation) Execute(ctx context.Context) (Status, error) {
	if c.finished {
		return nil, ErrConversationFinished
	}
	if err := c.Emit(event.New(c.id, event.KindExecutionStart, c.component.Name())); err != nil {
		return c.settle(nil, err)
	}
	status, err := c.component.Execute(ctx, c)
	return c.settle(status, err)
}

// settle converts suspension and interruption errors into statuses, emits the
// execution-end event and finalizes Finished conversations.
func (c *Conversation) settle(status Status, err error) (Status, error) {
	if err != nil {
		if intr, ok := AsInterruption(err); ok {
			return Interrupted{Interrupter: intr.Interrupter, Reason: intr.Reason}, nil
		}
		if susp, ok := AsSuspension(err); ok {
			status = susp.Status()
		} else {
			c.notify(event.New(c.id, event.KindExecutionEnd, c.component.Name(), event.WithError(err)))
			return nil, err
		}
	}
	c.notify(event.New(c.id, event.KindExecutionEnd, c.component.Name()))
	if _, ok := status.(Finished); ok {
		c.finished = true
		c.shared.interrupters = nil
		log.Debugf("conversation %s finished", c.id)
	}
	return status, nil
}

// AppendUserMessage stages a user message for the suspended execution point
// to consume on the next Execute call.
func (c *Conversation) AppendUserMessage(content string) {
	msg := model.NewUserMessage(content)
	c.shared.userMessage = &msg
}

// AddToolResult stages the result of a pending tool request.
func (c *Conversation) AddToolResult(requestID, name string, content any) {
	c.shared.toolResults[requestID] = &tool.Result{ID: requestID, Name: name, Content: content}
}

// Confirm approves a pending tool request.
func (c *Conversation) Confirm(requestID string) {
	c.shared.confirmations[requestID] = true
}

// Decline rejects a pending tool request.
func (c *Conversation) Decline(requestID string) {
	c.shared.confirmations[requestID] = false
}

// AddInterrupter registers an interrupter on a running conversation.
func (c *Conversation) AddInterrupter(i Interrupter) {
	c.shared.interrupters = append(c.shared.interrupters, i)
}

// RemoveInterrupter unregisters the interrupter with the given name.
func (c *Conversation) RemoveInterrupter(name string) {
	kept := c.shared.interrupters[:0]
	for _, i := range c.shared.interrupters {
		if i.Name() != name {
			kept = append(kept, i)
		}
	}
	c.shared.interrupters = kept
}

// Emit evaluates the registered interrupters against the event and, when none
// fires, notifies the listeners. It returns an *Interruption error when an
// interrupter fires; the caller must unwind without applying the event's
// effect so that re-entry happens at the same point.
func (c *Conversation) Emit(ev *event.Event) error {
	for _, i := range c.shared.interrupters {
		if reason, interrupted := i.Check(ev, c.state); interrupted {
			return &Interruption{Interrupter: i.Name(), Reason: reason}
		}
	}
	c.notify(ev)
	return nil
}

// notify delivers the event to the listeners without interrupt evaluation.
func (c *Conversation) notify(ev *event.Event) {
	for _, l := range c.shared.listeners {
		l.OnEvent(ev)
	}
}

// TakeUserMessage consumes the staged user message, if any.
func (c *Conversation) TakeUserMessage() *model.Message {
	msg := c.shared.userMessage
	c.shared.userMessage = nil
	return msg
}

// HasUserMessage reports whether a user message is staged.
func (c *Conversation) HasUserMessage() bool {
	return c.shared.userMessage != nil
}

// TakeToolResult consumes the staged result for a request.
func (c *Conversation) TakeToolResult(requestID string) (*tool.Result, bool) {
	res, ok := c.shared.toolResults[requestID]
	if ok {
		delete(c.shared.toolResults, requestID)
	}
	return res, ok
}

// HasToolResult reports whether a result is staged for the request.
func (c *Conversation) HasToolResult(requestID string) bool {
	_, ok := c.shared.toolResults[requestID]
	return ok
}

// TakeConfirmation consumes the staged confirmation decision for a request.
func (c *Conversation) TakeConfirmation(requestID string) (approved, ok bool) {
	approved, ok = c.shared.confirmations[requestID]
	if ok {
		delete(c.shared.confirmations, requestID)
	}
	return approved, ok
}

// HasConfirmation reports whether a decision is staged for the request.
func (c *Conversation) HasConfirmation(requestID string) bool {
	_, ok := c.shared.confirmations[requestID]
	return ok
}

// ValidatePending checks that the staged external input matches the given
// pending suspension. It returns an InputError on mismatch, leaving all state
// unchanged so the caller may retry.
func (c *Conversation) ValidatePending(pending *Pending) error {
	if pending == nil {
		return nil
	}
	switch pending.Kind {
	case SuspendUserMessage:
		if !c.HasUserMessage() {
			return NewInputError("step %s awaits a user message", pending.Step)
		}
	case SuspendToolResult:
		for _, req := range pending.Requests {
			if !c.HasToolResult(req.ID) {
				return NewInputError("step %s awaits a result for tool request %s (%s)",
					pending.Step, req.ID, req.Name)
			}
		}
	case SuspendToolConfirmation:
		for _, req := range pending.Requests {
			if !c.HasConfirmation(req.ID) {
				return NewInputError("step %s awaits confirmation of tool request %s (%s)",
					pending.Step, req.ID, req.Name)
			}
		}
	}
	return nil
}

// Child creates the conversation view for a nested component owned by the
// given step. The child shares the conversation's identity, staged input,
// listeners and interrupters, but runs against its own nested state.
func (c *Conversation) Child(step string, component Component, inputs map[string]any) *Conversation {
	child := &Conversation{
		id:        c.id,
		component: component,
		state:     c.state.Child(step),
		inputs:    inputs,
		shared:    c.shared,
	}
	if inputs != nil {
		child.state.Working[InputSpace] = inputs
	}
	return child
}

// Detached creates an isolated conversation for one parallel fan-out item:
// fresh state, no listeners, no interrupters, no staged input.
func Detached(component Component, inputs map[string]any) (*Conversation, error) {
	return NewConversation(component, WithInputs(inputs))
}

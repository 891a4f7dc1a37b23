//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package execution

import (
	"errors"
	"fmt"

	"github.com/oracle/wayflow-sub000/model"
	"github.com/oracle/wayflow-sub000/tool"
)

// SuspensionKind classifies what external input a suspension waits for.
type SuspensionKind string

// Suspension kinds.
const (
	SuspendUserMessage      SuspensionKind = "user_message"
	SuspendToolResult       SuspensionKind = "tool_result"
	SuspendToolConfirmation SuspensionKind = "tool_confirmation"
)

// Suspension signals that a step or agent cannot complete without external
// input. It travels the error path so that nested interpreters unwind
// naturally; the driving conversation freezes state and converts it into the
// matching Status.
type Suspension struct {
	// Kind says what input is awaited.
	Kind SuspensionKind
	// Message is the last produced message for user-message suspensions.
	Message *model.Message
	// Requests are the pending tool requests for tool suspensions.
	Requests []*tool.Request
}

// Error implements the error interface.
func (s *Suspension) Error() string {
	return fmt.Sprintf("execution suspended awaiting %s", s.Kind)
}

// Status maps the suspension to its Status variant.
func (s *Suspension) Status() Status {
	switch s.Kind {
	case SuspendToolResult:
		return AwaitingToolResult{Requests: s.Requests}
	case SuspendToolConfirmation:
		return AwaitingToolConfirmation{Requests: s.Requests}
	default:
		return AwaitingUserMessage{Message: s.Message}
	}
}

// SuspendForUserMessage creates a user-message suspension.
func SuspendForUserMessage(last *model.Message) *Suspension {
	return &Suspension{Kind: SuspendUserMessage, Message: last}
}

// SuspendForToolResults creates a tool-result suspension.
func SuspendForToolResults(requests ...*tool.Request) *Suspension {
	return &Suspension{Kind: SuspendToolResult, Requests: requests}
}

// SuspendForConfirmation creates a tool-confirmation suspension.
func SuspendForConfirmation(requests ...*tool.Request) *Suspension {
	return &Suspension{Kind: SuspendToolConfirmation, Requests: requests}
}

// AsSuspension extracts a Suspension from err.
func AsSuspension(err error) (*Suspension, bool) {
	var s *Suspension
	if errors.As(err, &s) {
		return s, true
	}
	return nil, false
}

// Interruption signals that an interrupter stopped execution. Like
// Suspension it travels the error path and is converted into the Interrupted
// status by the conversation; it is an outcome, not a failure.
type Interruption struct {
	// Interrupter names the interrupter that fired.
	Interrupter string
	// Reason explains why.
	Reason string
}

// Error implements the error interface.
func (i *Interruption) Error() string {
	return fmt.Sprintf("execution interrupted by %s: %s", i.Interrupter, i.Reason)
}

// AsInterruption extracts an Interruption from err.
func AsInterruption(err error) (*Interruption, bool) {
	var i *Interruption
	if errors.As(err, &i) {
		return i, true
	}
	return nil, false
}

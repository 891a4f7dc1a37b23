//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

// Package execution provides the conversation runtime shared by flows and
// agents: execution state, the suspend/resume protocol, the closed set of
// execution statuses and cooperative interrupts.
package execution

import (
	"github.com/oracle/wayflow-sub000/model"
	"github.com/oracle/wayflow-sub000/tool"
)

// Status is the closed set of outcomes a call to Conversation.Execute can
// produce. Exactly one status is returned per call; callers switch on the
// concrete type to decide what external input to supply before executing
// again.
type Status interface {
	isStatus()
}

// Finished reports that the conversation ran to completion.
type Finished struct {
	// Outputs holds the declared outputs of the root component.
	Outputs map[string]any
}

// AwaitingUserMessage reports that execution is suspended until the caller
// supplies a user message via Conversation.AppendUserMessage.
type AwaitingUserMessage struct {
	// Message is the last message the component produced, if any.
	Message *model.Message
}

// AwaitingToolResult reports that execution is suspended until the caller
// supplies results for every pending request via Conversation.AddToolResult.
type AwaitingToolResult struct {
	Requests []*tool.Request
}

// AwaitingToolConfirmation reports that execution is suspended until the
// caller confirms or declines every pending request via Conversation.Confirm
// or Conversation.Decline.
type AwaitingToolConfirmation struct {
	Requests []*tool.Request
}

// Interrupted reports that a registered interrupter stopped execution.
// The conversation remains resumable; execution state is exactly as it was
// before the event that triggered the interrupt.
type Interrupted struct {
	// Interrupter names the interrupter that fired.
	Interrupter string
	// Reason explains why.
	Reason string
}

func (Finished) isStatus()                 {}
func (AwaitingUserMessage) isStatus()      {}
func (AwaitingToolResult) isStatus()       {}
func (AwaitingToolConfirmation) isStatus() {}
func (Interrupted) isStatus()              {}

//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package model

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single entry in a conversation transcript.
type Message struct {
	// Role is one of the Role* constants.
	Role string `json:"role"`
	// Content is the textual content of the message.
	Content string `json:"content"`
	// ToolCalls holds tool invocations requested by an assistant message.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	// ToolID links a tool-role message to the tool call it answers.
	ToolID string `json:"toolId,omitempty"`
	// ToolName is the name of the tool that produced a tool-role message.
	ToolName string `json:"toolName,omitempty"`
}

// ToolCall is a tool invocation parsed from a model response.
type ToolCall struct {
	// ID is the provider-assigned identifier of the call.
	ID string `json:"id"`
	// Name is the name of the tool to invoke.
	Name string `json:"name"`
	// Arguments is the JSON-encoded argument object.
	Arguments []byte `json:"arguments,omitempty"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolMessage creates a tool-result message answering the given call ID.
func NewToolMessage(toolID, toolName, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolID: toolID, ToolName: toolName}
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	clone := m
	if m.ToolCalls != nil {
		clone.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			clone.ToolCalls[i] = tc
			clone.ToolCalls[i].Arguments = append([]byte(nil), tc.Arguments...)
		}
	}
	return clone
}

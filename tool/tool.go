//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

// Package tool provides tool interfaces and implementations for the
// conversation engine.
package tool

import "context"

// Tool is the minimal contract every tool satisfies.
type Tool interface {
	// Declaration returns the metadata describing the tool.
	Declaration() *Declaration
}

// CallableTool is a tool that executes inside the engine process.
// Tools that only carry a Declaration are client tools: the engine suspends
// the conversation and waits for the caller to supply their result.
type CallableTool interface {
	Tool

	// Call invokes the tool with JSON-encoded arguments and returns the
	// result of execution, or an error if the invocation fails.
	Call(ctx context.Context, jsonArgs []byte) (any, error)
}

// Declaration describes a tool: its name, purpose and argument schemas.
type Declaration struct {
	// Name is the unique identifier of the tool.
	Name string `json:"name"`
	// Description explains the tool's purpose to the model.
	Description string `json:"description"`
	// InputSchema defines the expected arguments in JSON schema form.
	InputSchema *Schema `json:"inputSchema,omitempty"`
	// OutputSchema defines the result shape in JSON schema form.
	OutputSchema *Schema `json:"outputSchema,omitempty"`
	// RequiresConfirmation marks tools whose invocation must be confirmed
	// by the caller before the engine dispatches them.
	RequiresConfirmation bool `json:"requiresConfirmation,omitempty"`
}

// Schema is the subset of JSON Schema used to describe tool arguments and
// results.
type Schema struct {
	// Type specifies the data type (object, array, string, number, ...).
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties maps object property names to their schemas.
	Properties map[string]*Schema `json:"properties,omitempty"`
	// Items is the element schema for array types.
	Items *Schema `json:"items,omitempty"`
	// AdditionalProperties controls undeclared object properties.
	AdditionalProperties any `json:"additionalProperties,omitempty"`
}

// Request is a pending tool invocation awaiting dispatch, confirmation or an
// externally supplied result.
type Request struct {
	// ID identifies the request within its conversation.
	ID string `json:"id"`
	// Name is the tool to invoke.
	Name string `json:"name"`
	// Arguments is the JSON-encoded argument object.
	Arguments []byte `json:"arguments,omitempty"`
}

// Result is the outcome of a tool invocation.
type Result struct {
	// ID echoes the Request ID the result answers.
	ID string `json:"id"`
	// Name echoes the tool name.
	Name string `json:"name"`
	// Content is the tool's output payload.
	Content any `json:"content"`
}

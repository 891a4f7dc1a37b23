//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package model

import "fmt"

// Object types reported on responses.
const (
	ObjectTypeCompletion = "completion"
	ObjectTypeChunk      = "completion.chunk"
	ObjectTypeError      = "error"
)

// Response is a single generation result or streaming chunk.
type Response struct {
	// ID is the provider-assigned response identifier.
	ID string `json:"id,omitempty"`
	// Object describes the payload kind (completion, chunk, error).
	Object string `json:"object,omitempty"`
	// Model names the model that produced the response.
	Model string `json:"model,omitempty"`
	// Done marks the final response of a generation.
	Done bool `json:"done"`
	// Choices holds the generated alternatives; index 0 is used by the engine.
	Choices []Choice `json:"choices,omitempty"`
	// Usage reports token consumption when the provider supplies it.
	Usage *Usage `json:"usage,omitempty"`
	// Error carries a provider-level error.
	Error *ResponseError `json:"error,omitempty"`
}

// Choice is one generated alternative.
type Choice struct {
	Index int `json:"index"`
	// Message holds the complete message for non-streaming responses.
	Message Message `json:"message"`
	// Delta holds the incremental content for streaming chunks.
	Delta Message `json:"delta,omitempty"`
}

// Usage reports token counts for a generation.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Add accumulates another usage record into u.
func (u *Usage) Add(other *Usage) {
	if other == nil {
		return
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// ResponseError is a typed provider-level generation error.
type ResponseError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("generation error (%s): %s", e.Type, e.Message)
}

// Clone returns a deep copy of the response.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	clone := *r
	if r.Choices != nil {
		clone.Choices = make([]Choice, len(r.Choices))
		for i, c := range r.Choices {
			clone.Choices[i] = Choice{Index: c.Index, Message: c.Message.Clone(), Delta: c.Delta.Clone()}
		}
	}
	if r.Usage != nil {
		usage := *r.Usage
		clone.Usage = &usage
	}
	if r.Error != nil {
		respErr := *r.Error
		clone.Error = &respErr
	}
	return &clone
}

//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package model

import "github.com/oracle/wayflow-sub000/tool"

// Request is a generation request sent to a Model.
type Request struct {
	// Messages is the prompt transcript, oldest first.
	Messages []Message `json:"messages"`
	// Tools lists the tools the model may call.
	Tools []*tool.Declaration `json:"tools,omitempty"`
	// GenerationConfig controls decoding.
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// GenerationConfig contains the decoding parameters for a generation.
type GenerationConfig struct {
	// Stream requests chunked streaming responses when true.
	Stream bool `json:"stream"`
	// MaxTokens bounds the completion length when positive.
	MaxTokens int `json:"maxTokens,omitempty"`
	// Temperature overrides the provider default when non-nil.
	Temperature *float64 `json:"temperature,omitempty"`
	// TopP overrides the provider default when non-nil.
	TopP *float64 `json:"topP,omitempty"`
}

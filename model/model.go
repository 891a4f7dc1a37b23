//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

// Package model provides interfaces for working with language models.
package model

import "context"

// Model is the interface for all language models.
//
// Two error layers exist:
//
//  1. Function-level errors returned from GenerateContent: system-level
//     failures that prevent communication (nil request, transport failure).
//  2. Response-level errors carried in Response.Error: the request reached
//     the provider and the provider answered with a structured error.
//
// The engine treats both as collaborator errors; retrying is the
// implementation's concern, never the engine's.
type Model interface {
	// GenerateContent generates content for the given request and returns a
	// channel of responses. Non-streaming implementations send a single
	// response and close the channel; streaming implementations send one
	// response per chunk with the final response marked Done.
	GenerateContent(ctx context.Context, request *Request) (<-chan *Response, error)

	// Info returns basic information about the model.
	Info() Info
}

// Info contains basic information about a Model.
type Info struct {
	Name string
}

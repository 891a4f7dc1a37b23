//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

// Package function wraps plain Go functions as callable tools.
package function

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/oracle/wayflow-sub000/internal/schema"
	"github.com/oracle/wayflow-sub000/tool"
)

// FunctionTool adapts a typed Go function to the tool.CallableTool interface.
// The input and output schemas are derived from the type parameters via
// reflection.
type FunctionTool[I, O any] struct {
	declaration *tool.Declaration
	fn          func(ctx context.Context, input I) (O, error)
}

// Option configures a FunctionTool.
type Option func(*options)

type options struct {
	name                 string
	description          string
	requiresConfirmation bool
}

// WithName sets the tool name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithDescription sets the tool description.
func WithDescription(description string) Option {
	return func(o *options) { o.description = description }
}

// WithRequireConfirmation marks the tool as requiring caller confirmation
// before each invocation.
func WithRequireConfirmation() Option {
	return func(o *options) { o.requiresConfirmation = true }
}

// New creates a FunctionTool from fn.
func New[I, O any](fn func(ctx context.Context, input I) (O, error), opts ...Option) *FunctionTool[I, O] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	var (
		emptyI I
		emptyO O
	)
	return &FunctionTool[I, O]{
		fn: fn,
		declaration: &tool.Declaration{
			Name:                 o.name,
			Description:          o.description,
			InputSchema:          schema.Generate(reflect.TypeOf(emptyI)),
			OutputSchema:         schema.Generate(reflect.TypeOf(emptyO)),
			RequiresConfirmation: o.requiresConfirmation,
		},
	}
}

// Declaration returns the tool metadata.
func (t *FunctionTool[I, O]) Declaration() *tool.Declaration {
	return t.declaration
}

// Call unmarshals jsonArgs into the input type and invokes the wrapped
// function.
func (t *FunctionTool[I, O]) Call(ctx context.Context, jsonArgs []byte) (any, error) {
	var input I
	if len(jsonArgs) > 0 {
		if err := json.Unmarshal(jsonArgs, &input); err != nil {
			return nil, fmt.Errorf("unmarshal arguments for tool %s: %w", t.declaration.Name, err)
		}
	}
	return t.fn(ctx, input)
}

//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package flow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/oracle/wayflow-sub000/event"
	"github.com/oracle/wayflow-sub000/execution"
	"github.com/oracle/wayflow-sub000/internal/telemetry"
	"github.com/oracle/wayflow-sub000/telemetry/trace"
	"github.com/oracle/wayflow-sub000/tool"
	"github.com/oracle/wayflow-sub000/variable"
)

// ToolStep invokes a tool with arguments assembled from its inputs. The
// step's declared inputs are derived from the tool's input schema.
//
// Three shapes of tool exist:
//   - callable tools run synchronously in-process;
//   - client tools carry only a declaration, so the step suspends with
//     AwaitingToolResult and the caller supplies the result;
//   - tools marked RequiresConfirmation suspend with
//     AwaitingToolConfirmation first, in either shape.
//
// Request identifiers are minted once and survive suspension, so results
// and confirmations always match the request the caller saw.
type ToolStep struct {
	stepBase
	tool        tool.Tool
	catchErrors bool
}

// ToolOption configures a ToolStep.
type ToolOption func(*ToolStep)

// WithCatchErrors makes tool failures flow into the "error" output instead
// of failing the conversation.
func WithCatchErrors() ToolOption {
	return func(s *ToolStep) { s.catchErrors = true }
}

// NewToolStep creates a step that invokes the given tool.
func NewToolStep(name string, t tool.Tool, opts ...ToolOption) (*ToolStep, error) {
	if t == nil {
		return nil, configErrorf(name, "tool step requires a tool")
	}
	if t.Declaration() == nil || t.Declaration().Name == "" {
		return nil, configErrorf(name, "tool has no declaration")
	}
	s := &ToolStep{
		stepBase: stepBase{name: name, description: "invokes tool " + t.Declaration().Name},
		tool:     t,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Inputs derives the step inputs from the tool's input schema.
func (s *ToolStep) Inputs() []Descriptor {
	schema := s.tool.Declaration().InputSchema
	if schema == nil {
		return nil
	}
	required := make(map[string]bool, len(schema.Required))
	for _, r := range schema.Required {
		required[r] = true
	}
	descs := make([]Descriptor, 0, len(schema.Properties))
	for name := range schema.Properties {
		d := Input(name, variable.TypeAny)
		d.Optional = !required[name]
		descs = append(descs, d)
	}
	return descs
}

// Outputs declares the tool result and, with error catching, the error text.
func (s *ToolStep) Outputs() []Descriptor {
	outputs := []Descriptor{Input(OutputResult, variable.TypeAny)}
	if s.catchErrors {
		outputs = append(outputs, OptionalInput(OutputError, variable.TypeString))
	}
	return outputs
}

// MightYield reports whether the step can suspend: client tools and tools
// requiring confirmation do.
func (s *ToolStep) MightYield() bool {
	if s.tool.Declaration().RequiresConfirmation {
		return true
	}
	_, callable := s.tool.(tool.CallableTool)
	return !callable
}

// Invoke dispatches the tool, suspending for confirmation or an external
// result when needed.
func (s *ToolStep) Invoke(ctx context.Context, sc *StepContext) (*StepResult, error) {
	decl := s.tool.Declaration()
	req, err := s.request(sc)
	if err != nil {
		return nil, err
	}
	conv := sc.Conversation

	if decl.RequiresConfirmation {
		approved, decided := conv.TakeConfirmation(req.ID)
		if !decided {
			return nil, execution.SuspendForConfirmation(req)
		}
		if !approved {
			return s.result(map[string]any{
				"status": "declined",
				"tool":   decl.Name,
			}), nil
		}
	}

	callable, ok := s.tool.(tool.CallableTool)
	if !ok {
		if res, staged := conv.TakeToolResult(req.ID); staged {
			return s.result(res.Content), nil
		}
		return nil, execution.SuspendForToolResults(req)
	}

	if err := conv.Emit(event.New(conv.ID(), event.KindToolStart, decl.Name,
		event.WithIteration(sc.State.Loop))); err != nil {
		return nil, err
	}
	content, callErr := s.call(ctx, callable, req)
	if callErr != nil {
		if !s.catchErrors {
			return nil, fmt.Errorf("tool %s: %w", decl.Name, callErr)
		}
		result := s.result(nil)
		result.Outputs[OutputError] = callErr.Error()
		if err := conv.Emit(event.New(conv.ID(), event.KindToolEnd, decl.Name,
			event.WithIteration(sc.State.Loop), event.WithError(callErr))); err != nil {
			return nil, err
		}
		return result, nil
	}
	if err := conv.Emit(event.New(conv.ID(), event.KindToolEnd, decl.Name,
		event.WithIteration(sc.State.Loop))); err != nil {
		return nil, err
	}
	return s.result(content), nil
}

// request builds the tool request, reusing the identifier minted before a
// suspension when resuming.
func (s *ToolStep) request(sc *StepContext) (*tool.Request, error) {
	if sc.Resuming && len(sc.PendingRequests) > 0 {
		return sc.PendingRequests[0], nil
	}
	args, err := json.Marshal(sc.Inputs)
	if err != nil {
		return nil, fmt.Errorf("tool %s: arguments not serializable: %w", s.tool.Declaration().Name, err)
	}
	return &tool.Request{
		ID:        uuid.New().String(),
		Name:      s.tool.Declaration().Name,
		Arguments: args,
	}, nil
}

func (s *ToolStep) call(ctx context.Context, callable tool.CallableTool, req *tool.Request) (any, error) {
	ctx, span := trace.Tracer.Start(ctx,
		telemetry.SpanNamePrefixExecuteTool+" "+req.Name)
	defer span.End()
	content, err := callable.Call(ctx, req.Arguments)
	if err != nil {
		return nil, err
	}
	telemetry.TraceToolCall(span, s.tool.Declaration(), req.Arguments, content)
	return content, nil
}

func (s *ToolStep) result(content any) *StepResult {
	return &StepResult{Outputs: map[string]any{OutputResult: content}}
}

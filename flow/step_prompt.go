//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package flow

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/oracle/wayflow-sub000/event"
	"github.com/oracle/wayflow-sub000/internal/telemetry"
	"github.com/oracle/wayflow-sub000/model"
	ametric "github.com/oracle/wayflow-sub000/telemetry/metric"
	"github.com/oracle/wayflow-sub000/telemetry/trace"
	"github.com/oracle/wayflow-sub000/variable"
)

// PromptStep renders a prompt template, sends it to a model and exposes the
// generated text as the "response" output. Token usage is accumulated on the
// conversation state.
type PromptStep struct {
	stepBase
	model      model.Model
	tmpl       *template.Template
	system     string
	inputs     []Descriptor
	genConfig  model.GenerationConfig
	transcript bool
}

// PromptOption configures a PromptStep.
type PromptOption func(*PromptStep)

// WithPromptInput declares a template input.
func WithPromptInput(name string, t variable.Type) PromptOption {
	return func(s *PromptStep) {
		s.inputs = append(s.inputs, Input(name, t))
	}
}

// WithSystemPrompt prepends a system message to the request.
func WithSystemPrompt(system string) PromptOption {
	return func(s *PromptStep) { s.system = system }
}

// WithGenerationConfig sets the decoding parameters.
func WithGenerationConfig(cfg model.GenerationConfig) PromptOption {
	return func(s *PromptStep) { s.genConfig = cfg }
}

// WithTranscript appends the rendered prompt and the response to the
// conversation transcript as user and assistant messages.
func WithTranscript() PromptOption {
	return func(s *PromptStep) { s.transcript = true }
}

// NewPromptStep creates a step that calls a model with a templated prompt.
func NewPromptStep(name string, m model.Model, prompt string, opts ...PromptOption) (*PromptStep, error) {
	if m == nil {
		return nil, configErrorf(name, "prompt step requires a model")
	}
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(prompt)
	if err != nil {
		return nil, configErrorf(name, "invalid prompt template: %v", err)
	}
	s := &PromptStep{
		stepBase: stepBase{name: name, description: "generates text with a model"},
		model:    m,
		tmpl:     tmpl,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Inputs declares the template inputs.
func (s *PromptStep) Inputs() []Descriptor { return s.inputs }

// Outputs declares the generated text.
func (s *PromptStep) Outputs() []Descriptor {
	return []Descriptor{Input(OutputResponse, variable.TypeString)}
}

// Invoke renders the prompt and runs one generation.
func (s *PromptStep) Invoke(ctx context.Context, sc *StepContext) (*StepResult, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, sc.Inputs); err != nil {
		return nil, err
	}
	prompt := buf.String()

	req := &model.Request{GenerationConfig: s.genConfig}
	if s.system != "" {
		req.Messages = append(req.Messages, model.NewSystemMessage(s.system))
	}
	req.Messages = append(req.Messages, model.NewUserMessage(prompt))

	conv := sc.Conversation
	if err := conv.Emit(event.New(conv.ID(), event.KindGenerationStart, s.name,
		event.WithIteration(sc.State.Loop))); err != nil {
		return nil, err
	}
	reply, usage, err := Generate(ctx, conv.ID(), s.model, req)
	if err != nil {
		return nil, err
	}
	// The end event fires before usage and outputs are applied: an
	// interrupt here leaves the state untouched and re-entry repeats the
	// generation.
	if err := conv.Emit(event.New(conv.ID(), event.KindGenerationEnd, s.name,
		event.WithIteration(sc.State.Loop), event.WithUsage(usage))); err != nil {
		return nil, err
	}
	sc.State.Usage.Add(usage)
	if s.transcript {
		sc.State.Messages = append(sc.State.Messages,
			model.NewUserMessage(prompt),
			model.NewAssistantMessage(reply.Content),
		)
	}
	return &StepResult{Outputs: map[string]any{OutputResponse: reply.Content}}, nil
}

// Generate runs one model call inside a trace span, draining the response
// channel and folding streamed chunks into a single assistant message. The
// agent loop shares this path with PromptStep.
func Generate(ctx context.Context, conversationID string, m model.Model, req *model.Request) (*model.Message, *model.Usage, error) {
	ctx, span := trace.Tracer.Start(ctx, telemetry.SpanNameCallLLM)
	defer span.End()

	ch, err := m.GenerateContent(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	var (
		buf   bytes.Buffer
		usage model.Usage
		last  *model.Response
		calls []model.ToolCall
	)
	for rsp := range ch {
		if rsp.Error != nil {
			return nil, nil, rsp.Error
		}
		if len(rsp.Choices) > 0 {
			choice := rsp.Choices[0]
			if choice.Delta.Content != "" {
				buf.WriteString(choice.Delta.Content)
			} else if choice.Message.Content != "" {
				buf.Reset()
				buf.WriteString(choice.Message.Content)
			}
			if len(choice.Message.ToolCalls) > 0 {
				calls = choice.Message.ToolCalls
			}
			if len(choice.Delta.ToolCalls) > 0 {
				calls = append(calls, choice.Delta.ToolCalls...)
			}
		}
		usage.Add(rsp.Usage)
		last = rsp
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if last == nil {
		return nil, nil, fmt.Errorf("model %s closed the stream without a response", m.Info().Name)
	}
	telemetry.TraceCallLLM(span, conversationID, req, last)
	recordTokenUsage(ctx, &usage)
	reply := model.NewAssistantMessage(buf.String())
	reply.ToolCalls = calls
	return &reply, &usage, nil
}

// recordTokenUsage feeds the generation's token counts into the global
// meter. The instrument is resolved per call so a meter installed by
// metric.Start after package init is picked up.
func recordTokenUsage(ctx context.Context, usage *model.Usage) {
	counter, err := ametric.Meter.Int64Counter(telemetry.MetricGenerationTokens,
		metric.WithDescription("Tokens consumed by model generations"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return
	}
	counter.Add(ctx, int64(usage.PromptTokens),
		metric.WithAttributes(attribute.String(telemetry.KeyTokenType, "input")))
	counter.Add(ctx, int64(usage.CompletionTokens),
		metric.WithAttributes(attribute.String(telemetry.KeyTokenType, "output")))
}

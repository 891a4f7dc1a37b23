//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

// Package agent provides the model-driven control loop: generate a response,
// dispatch the tool calls it requests, feed the results back and generate
// again, until the model answers with plain text or asks to end the
// conversation. Nested flows and agents are exposed to the model as ordinary
// callable tools.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/oracle/wayflow-sub000/event"
	"github.com/oracle/wayflow-sub000/execution"
	"github.com/oracle/wayflow-sub000/flow"
	"github.com/oracle/wayflow-sub000/internal/telemetry"
	"github.com/oracle/wayflow-sub000/log"
	"github.com/oracle/wayflow-sub000/model"
	"github.com/oracle/wayflow-sub000/telemetry/trace"
	"github.com/oracle/wayflow-sub000/tool"
)

// ExitToolName is the built-in tool the model calls to end the
// conversation. Every exit request requires one confirmation round-trip
// before the conversation finishes.
const ExitToolName = "exit_conversation"

// Recoverable limit errors. The conversation state is intact and the caller
// may execute again.
var (
	// ErrMaxIterations reports that one Execute call exceeded the
	// generate/dispatch cycle budget.
	ErrMaxIterations = errors.New("maximum agent iterations exceeded")
	// ErrQueueDepthExceeded reports that the model requested more tool
	// calls than the queue admits.
	ErrQueueDepthExceeded = errors.New("tool-call queue depth exceeded")
	// ErrNoModel reports an agent constructed without a model.
	ErrNoModel = errors.New("agent requires a model")
)

// Agent is a conversational component driven by a model.
type Agent struct {
	name          string
	description   string
	model         model.Model
	instruction   string
	tools         []tool.Tool
	components    []execution.Component
	maxIterations int
	maxQueueDepth int
	planning      bool
	genConfig     model.GenerationConfig

	toolsByName      map[string]tool.Tool
	componentsByName map[string]execution.Component
	declarations     []*tool.Declaration
}

// New builds and validates an agent.
func New(name string, opts ...Option) (*Agent, error) {
	a := &Agent{
		name:          name,
		maxIterations: defaultMaxIterations,
		maxQueueDepth: defaultMaxQueueDepth,
	}
	for _, opt := range opts {
		opt(a)
	}
	if name == "" {
		return nil, errors.New("agent name cannot be empty")
	}
	if a.model == nil {
		return nil, ErrNoModel
	}
	if err := a.index(); err != nil {
		return nil, err
	}
	if err := execution.CheckContainment(a); err != nil {
		return nil, fmt.Errorf("agent %s: %w", a.name, err)
	}
	return a, nil
}

// index builds the dispatch tables and the declaration list sent to the
// model.
func (a *Agent) index() error {
	a.toolsByName = make(map[string]tool.Tool, len(a.tools))
	a.componentsByName = make(map[string]execution.Component, len(a.components))
	seen := map[string]bool{ExitToolName: true}
	for _, t := range a.tools {
		decl := t.Declaration()
		if decl == nil || decl.Name == "" {
			return fmt.Errorf("agent %s: tool has no declaration", a.name)
		}
		if seen[decl.Name] {
			return fmt.Errorf("agent %s: duplicate tool %s", a.name, decl.Name)
		}
		seen[decl.Name] = true
		a.toolsByName[decl.Name] = t
		a.declarations = append(a.declarations, decl)
	}
	for _, c := range a.components {
		if seen[c.Name()] {
			return fmt.Errorf("agent %s: duplicate tool %s", a.name, c.Name())
		}
		seen[c.Name()] = true
		a.componentsByName[c.Name()] = c
		a.declarations = append(a.declarations, componentDeclaration(c))
	}
	a.declarations = append(a.declarations, &tool.Declaration{
		Name:                 ExitToolName,
		Description:          "Ends the conversation. The caller must confirm before the conversation finishes.",
		InputSchema:          &tool.Schema{Type: "object"},
		RequiresConfirmation: true,
	})
	return nil
}

// componentDeclaration exposes a nested component as a tool taking one
// free-form object of conversation inputs.
func componentDeclaration(c execution.Component) *tool.Declaration {
	return &tool.Declaration{
		Name:        c.Name(),
		Description: c.Description(),
		InputSchema: &tool.Schema{Type: "object", AdditionalProperties: true},
	}
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent description.
func (a *Agent) Description() string { return a.description }

// MightYield reports that agents always can suspend: every plain-text
// answer awaits the next user message.
func (a *Agent) MightYield() bool { return true }

// Subcomponents exposes the nested components to containment checks.
func (a *Agent) Subcomponents() []execution.Component { return a.components }

// Execute drives the loop: dispatch queued tool calls, then generate, then
// dispatch what the generation queued, until the model produces plain text
// or the conversation ends.
func (a *Agent) Execute(ctx context.Context, conv *execution.Conversation) (execution.Status, error) {
	st := conv.State()
	as := st.AgentSub()
	as.Iterations = 0

	if st.Pending == nil {
		// Fresh entry: consume the user message staged for the first turn.
		if msg := conv.TakeUserMessage(); msg != nil {
			st.Messages = append(st.Messages, *msg)
		}
	}
	if st.Pending != nil {
		if err := conv.ValidatePending(st.Pending); err != nil {
			return nil, err
		}
		pending := st.Pending
		st.Pending = nil
		if pending.Kind == execution.SuspendUserMessage && as.PendingRequest == nil {
			// The agent itself was awaiting the user. When a nested
			// component suspended, the message stays staged for it.
			if msg := conv.TakeUserMessage(); msg != nil {
				st.Messages = append(st.Messages, *msg)
			}
		}
		// Tool results and confirmations stay staged; dispatch consumes
		// them against the queued request that suspended.
	}

	for {
		as.Iterations++
		if as.Iterations > a.maxIterations {
			return nil, ErrMaxIterations
		}
		if err := conv.Emit(event.New(conv.ID(), event.KindIterationStart, a.name,
			event.WithIteration(as.Iterations))); err != nil {
			return nil, err
		}

		for len(as.Queue) > 0 {
			status, done, err := a.dispatch(ctx, conv, st, as, as.Queue[0])
			if err != nil || status != nil {
				return status, err
			}
			as.Queue = as.Queue[1:]
			as.PendingRequest = nil
			if done {
				return execution.Finished{}, nil
			}
		}

		status, err := a.generate(ctx, conv, st, as)
		if err != nil || status != nil {
			return status, err
		}

		if err := conv.Emit(event.New(conv.ID(), event.KindIterationEnd, a.name,
			event.WithIteration(as.Iterations))); err != nil {
			return nil, err
		}
	}
}

// dispatch handles the queue head. It returns a non-nil status when the
// request suspends the loop, done=true when the conversation finished, and
// (nil, false, nil) when the request completed and the loop continues.
func (a *Agent) dispatch(ctx context.Context, conv *execution.Conversation,
	st *execution.State, as *execution.AgentState, req *tool.Request) (execution.Status, bool, error) {
	if req.Name == ExitToolName {
		return a.dispatchExit(conv, st, as, req)
	}
	if component, ok := a.componentsByName[req.Name]; ok {
		return a.dispatchComponent(ctx, conv, st, as, req, component)
	}
	t, ok := a.toolsByName[req.Name]
	if !ok {
		appendToolMessage(st, req, map[string]any{"error": "unknown tool " + req.Name})
		log.Warnf("agent %s: model requested unknown tool %s", a.name, req.Name)
		return nil, false, nil
	}
	decl := t.Declaration()
	if decl.RequiresConfirmation {
		approved, decided := conv.TakeConfirmation(req.ID)
		if !decided {
			return a.suspend(st, as, req, execution.SuspendToolConfirmation), false, nil
		}
		if !approved {
			appendToolMessage(st, req, map[string]any{"status": "declined", "tool": decl.Name})
			return nil, false, nil
		}
	}
	callable, ok := t.(tool.CallableTool)
	if !ok {
		if res, staged := conv.TakeToolResult(req.ID); staged {
			appendToolMessage(st, req, res.Content)
			return nil, false, nil
		}
		return a.suspend(st, as, req, execution.SuspendToolResult), false, nil
	}
	if err := conv.Emit(event.New(conv.ID(), event.KindToolStart, decl.Name,
		event.WithIteration(as.Iterations))); err != nil {
		return nil, false, err
	}
	content, err := a.call(ctx, callable, req)
	if err != nil {
		return nil, false, execution.WrapStepError(req.Name, err)
	}
	if err := conv.Emit(event.New(conv.ID(), event.KindToolEnd, decl.Name,
		event.WithIteration(as.Iterations))); err != nil {
		return nil, false, err
	}
	appendToolMessage(st, req, content)
	return nil, false, nil
}

// dispatchExit runs the exit confirmation round-trip.
func (a *Agent) dispatchExit(conv *execution.Conversation, st *execution.State,
	as *execution.AgentState, req *tool.Request) (execution.Status, bool, error) {
	as.ExitRequested = true
	approved, decided := conv.TakeConfirmation(req.ID)
	if !decided {
		return a.suspend(st, as, req, execution.SuspendToolConfirmation), false, nil
	}
	if !approved {
		as.ExitRequested = false
		appendToolMessage(st, req, map[string]any{"status": "declined", "tool": ExitToolName})
		return nil, false, nil
	}
	as.ExitConfirmed = true
	appendToolMessage(st, req, map[string]any{"status": "confirmed"})
	log.Debugf("agent %s: conversation exit confirmed", a.name)
	return nil, true, nil
}

// dispatchComponent runs a nested flow or agent against its child state,
// with the request arguments as conversation inputs.
func (a *Agent) dispatchComponent(ctx context.Context, conv *execution.Conversation,
	st *execution.State, as *execution.AgentState, req *tool.Request,
	component execution.Component) (execution.Status, bool, error) {
	var inputs map[string]any
	if len(req.Arguments) > 0 {
		if err := json.Unmarshal(req.Arguments, &inputs); err != nil {
			return nil, false, execution.WrapStepError(req.Name,
				fmt.Errorf("invalid component arguments: %w", err))
		}
	}
	child := conv.Child(req.Name, component, inputs)
	status, err := component.Execute(ctx, child)
	if err != nil {
		if _, ok := execution.AsInterruption(err); ok {
			return nil, false, err
		}
		if execution.IsInputError(err) {
			return nil, false, err
		}
		return nil, false, execution.WrapStepError(req.Name, err)
	}
	switch s := status.(type) {
	case execution.Finished:
		st.DropChild(req.Name)
		appendToolMessage(st, req, s.Outputs)
		return nil, false, nil
	case execution.AwaitingUserMessage:
		return a.suspendWith(st, as, req, execution.SuspendUserMessage, nil), false, nil
	case execution.AwaitingToolResult:
		return a.suspendWith(st, as, req, execution.SuspendToolResult, s.Requests), false, nil
	case execution.AwaitingToolConfirmation:
		return a.suspendWith(st, as, req, execution.SuspendToolConfirmation, s.Requests), false, nil
	default:
		return nil, false, fmt.Errorf("component %s returned unexpected status %T", req.Name, status)
	}
}

// generate assembles the prompt, calls the model and routes the reply:
// tool calls are queued, plain text suspends awaiting the next user message.
func (a *Agent) generate(ctx context.Context, conv *execution.Conversation,
	st *execution.State, as *execution.AgentState) (execution.Status, error) {
	if a.planning && as.Plan == "" {
		if status, err := a.plan(ctx, conv, st, as); err != nil || status != nil {
			return status, err
		}
	}

	req := a.buildRequest(st, as)
	if err := conv.Emit(event.New(conv.ID(), event.KindGenerationStart, a.name,
		event.WithIteration(as.Iterations))); err != nil {
		return nil, err
	}
	reply, usage, err := flow.Generate(ctx, conv.ID(), a.model, req)
	if err != nil {
		return nil, execution.WrapStepError(a.name, err)
	}
	if err := conv.Emit(event.New(conv.ID(), event.KindGenerationEnd, a.name,
		event.WithIteration(as.Iterations), event.WithUsage(usage))); err != nil {
		return nil, err
	}
	st.Usage.Add(usage)

	if len(reply.ToolCalls) > 0 {
		if len(as.Queue)+len(reply.ToolCalls) > a.maxQueueDepth {
			return nil, ErrQueueDepthExceeded
		}
		st.Messages = append(st.Messages, *reply)
		for _, call := range reply.ToolCalls {
			id := call.ID
			if id == "" {
				id = uuid.New().String()
			}
			as.Queue = append(as.Queue, &tool.Request{
				ID:        id,
				Name:      call.Name,
				Arguments: call.Arguments,
			})
		}
		return nil, nil
	}

	st.Messages = append(st.Messages, *reply)
	msg := st.Messages[len(st.Messages)-1]
	st.Pending = &execution.Pending{Step: a.name, Kind: execution.SuspendUserMessage}
	return execution.AwaitingUserMessage{Message: &msg}, nil
}

// plan issues the planning generation and stores the plan in agent state.
func (a *Agent) plan(ctx context.Context, conv *execution.Conversation,
	st *execution.State, as *execution.AgentState) (execution.Status, error) {
	req := &model.Request{
		Messages: append(
			[]model.Message{model.NewSystemMessage(a.planningPrompt())},
			st.Messages...,
		),
		GenerationConfig: a.genConfig,
	}
	if err := conv.Emit(event.New(conv.ID(), event.KindGenerationStart, a.name,
		event.WithIteration(as.Iterations))); err != nil {
		return nil, err
	}
	reply, usage, err := flow.Generate(ctx, conv.ID(), a.model, req)
	if err != nil {
		return nil, execution.WrapStepError(a.name, err)
	}
	if err := conv.Emit(event.New(conv.ID(), event.KindGenerationEnd, a.name,
		event.WithIteration(as.Iterations), event.WithUsage(usage))); err != nil {
		return nil, err
	}
	st.Usage.Add(usage)
	as.Plan = reply.Content
	return nil, nil
}

func (a *Agent) planningPrompt() string {
	prompt := "Produce a short step-by-step plan for handling the user's request. " +
		"Respond with the plan only."
	if a.instruction != "" {
		prompt = a.instruction + "\n\n" + prompt
	}
	return prompt
}

// buildRequest assembles the generation request from the instruction, the
// stored plan and the transcript.
func (a *Agent) buildRequest(st *execution.State, as *execution.AgentState) *model.Request {
	system := a.instruction
	if as.Plan != "" {
		if system != "" {
			system += "\n\n"
		}
		system += "Plan:\n" + as.Plan
	}
	req := &model.Request{
		Tools:            a.declarations,
		GenerationConfig: a.genConfig,
	}
	if system != "" {
		req.Messages = append(req.Messages, model.NewSystemMessage(system))
	}
	req.Messages = append(req.Messages, st.Messages...)
	return req
}

// suspend freezes the loop on the queue-head request.
func (a *Agent) suspend(st *execution.State, as *execution.AgentState,
	req *tool.Request, kind execution.SuspensionKind) execution.Status {
	return a.suspendWith(st, as, req, kind, []*tool.Request{req})
}

// suspendWith freezes the loop with an explicit pending request set, used
// when a nested component suspended with its own requests.
func (a *Agent) suspendWith(st *execution.State, as *execution.AgentState,
	req *tool.Request, kind execution.SuspensionKind, requests []*tool.Request) execution.Status {
	as.PendingRequest = req
	st.Pending = &execution.Pending{Step: req.Name, Kind: kind, Requests: requests}
	susp := &execution.Suspension{Kind: kind, Requests: requests}
	return susp.Status()
}

// call invokes a callable tool inside a trace span.
func (a *Agent) call(ctx context.Context, callable tool.CallableTool, req *tool.Request) (any, error) {
	ctx, span := trace.Tracer.Start(ctx,
		telemetry.SpanNamePrefixExecuteTool+" "+req.Name)
	defer span.End()
	content, err := callable.Call(ctx, req.Arguments)
	if err != nil {
		return nil, err
	}
	telemetry.TraceToolCall(span, callable.Declaration(), req.Arguments, content)
	return content, nil
}

// appendToolMessage records a tool outcome on the transcript.
func appendToolMessage(st *execution.State, req *tool.Request, content any) {
	text := ""
	switch v := content.(type) {
	case string:
		text = v
	default:
		if data, err := json.Marshal(content); err == nil {
			text = string(data)
		} else {
			text = fmt.Sprintf("%v", content)
		}
	}
	st.Messages = append(st.Messages, model.NewToolMessage(req.ID, req.Name, text))
}

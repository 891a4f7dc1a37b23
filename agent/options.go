//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package agent

import (
	"github.com/oracle/wayflow-sub000/execution"
	"github.com/oracle/wayflow-sub000/model"
	"github.com/oracle/wayflow-sub000/tool"
)

// Defaults bounding the cost of a single Execute call.
const (
	defaultMaxIterations = 20
	defaultMaxQueueDepth = 16
)

// Option configures an Agent under construction.
type Option func(*Agent)

// WithDescription sets the agent description.
func WithDescription(description string) Option {
	return func(a *Agent) { a.description = description }
}

// WithModel sets the model driving the agent. Required.
func WithModel(m model.Model) Option {
	return func(a *Agent) { a.model = m }
}

// WithInstruction sets the system instruction.
func WithInstruction(instruction string) Option {
	return func(a *Agent) { a.instruction = instruction }
}

// WithTools adds tools the model may call.
func WithTools(tools ...tool.Tool) Option {
	return func(a *Agent) { a.tools = append(a.tools, tools...) }
}

// WithSubComponents adds nested flows or agents, exposed to the model as
// ordinary callable tools named after the component.
func WithSubComponents(components ...execution.Component) Option {
	return func(a *Agent) { a.components = append(a.components, components...) }
}

// WithMaxIterations bounds the generate/dispatch cycles per Execute call.
func WithMaxIterations(n int) Option {
	return func(a *Agent) { a.maxIterations = n }
}

// WithMaxQueueDepth bounds the tool-call queue length.
func WithMaxQueueDepth(n int) Option {
	return func(a *Agent) { a.maxQueueDepth = n }
}

// WithPlanning makes the agent produce an execution plan on its first turn
// and keep it in the system prompt thereafter.
func WithPlanning() Option {
	return func(a *Agent) { a.planning = true }
}

// WithGenerationConfig sets the decoding parameters for all generations.
func WithGenerationConfig(cfg model.GenerationConfig) Option {
	return func(a *Agent) { a.genConfig = cfg }
}

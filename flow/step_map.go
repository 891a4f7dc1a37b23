//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package flow

import (
	"context"
	"fmt"

	"github.com/oracle/wayflow-sub000/execution"
	"github.com/oracle/wayflow-sub000/parallel"
	"github.com/oracle/wayflow-sub000/variable"
)

// MapStep runs a sub-flow once per element of its "items" input, fanning the
// invocations out over the shared worker pool. Results come back in item
// order regardless of completion order.
//
// The sub-flow must not be able to suspend: there is no sensible way to
// freeze one of many concurrent branches, so construction rejects yielding
// sub-flows. Each invocation runs in a detached conversation with no
// listeners, interrupters or staged input of its own.
type MapStep struct {
	stepBase
	sub           *Flow
	itemInput     string
	unpack        bool
	collectErrors bool
}

// MapStepOption configures a MapStep.
type MapStepOption func(*MapStep)

// WithItemInput names the sub-flow input that receives each item. The
// default is "item".
func WithItemInput(name string) MapStepOption {
	return func(s *MapStep) { s.itemInput = name }
}

// WithUnpack spreads dictionary items over the sub-flow's inputs instead of
// passing each item as one value.
func WithUnpack() MapStepOption {
	return func(s *MapStep) { s.unpack = true }
}

// WithPartialResults makes the step run every item to completion and report
// failures per item, instead of cancelling the remaining items on the first
// failure.
func WithPartialResults() MapStepOption {
	return func(s *MapStep) { s.collectErrors = true }
}

// NewMapStep creates a step that maps a sub-flow over a list of items.
func NewMapStep(name string, sub *Flow, opts ...MapStepOption) (*MapStep, error) {
	if sub == nil {
		return nil, configErrorf(name, "map step requires a flow")
	}
	if sub.MightYield() {
		return nil, &ConfigError{Flow: sub.Name(), Err: ErrYieldingSubflow}
	}
	s := &MapStep{
		stepBase:  stepBase{name: name, description: "maps " + sub.Name() + " over items"},
		sub:       sub,
		itemInput: "item",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Inputs declares the item list.
func (s *MapStep) Inputs() []Descriptor {
	return []Descriptor{Input("items", variable.TypeList)}
}

// Outputs declares the ordered result list.
func (s *MapStep) Outputs() []Descriptor {
	return []Descriptor{Input(OutputResults, variable.TypeList)}
}

// Subcomponents exposes the sub-flow to the flow validator.
func (s *MapStep) Subcomponents() []execution.Component {
	return []execution.Component{s.sub}
}

// Invoke fans the items out and collects the ordered results.
func (s *MapStep) Invoke(ctx context.Context, sc *StepContext) (*StepResult, error) {
	items, ok := sc.Inputs["items"].([]any)
	if !ok {
		return nil, execution.NewInputError("step %s: items must be a list", s.name)
	}
	var opts []parallel.MapOption
	if s.collectErrors {
		opts = append(opts, parallel.WithCollectErrors())
	}
	results, err := parallel.Map(ctx, len(items), func(ctx context.Context, i int) (any, error) {
		inputs, err := s.itemInputs(items[i])
		if err != nil {
			return nil, err
		}
		conv, err := execution.Detached(s.sub, inputs)
		if err != nil {
			return nil, err
		}
		status, err := conv.Execute(ctx)
		if err != nil {
			return nil, err
		}
		finished, ok := status.(execution.Finished)
		if !ok {
			return nil, fmt.Errorf("sub-flow %s yielded under fan-out: %T", s.sub.Name(), status)
		}
		return s.itemResult(finished.Outputs), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &StepResult{Outputs: map[string]any{OutputResults: results}}, nil
}

// itemInputs maps one item onto the sub-flow's conversation inputs.
func (s *MapStep) itemInputs(item any) (map[string]any, error) {
	if !s.unpack {
		return map[string]any{s.itemInput: item}, nil
	}
	dict, ok := item.(map[string]any)
	if !ok {
		return nil, execution.NewInputError("step %s: unpacked items must be dictionaries, got %T", s.name, item)
	}
	inputs := make(map[string]any, len(dict))
	for k, v := range dict {
		inputs[k] = v
	}
	return inputs, nil
}

// itemResult unwraps single-output sub-flows so the result list holds the
// values directly rather than one-entry maps.
func (s *MapStep) itemResult(outputs map[string]any) any {
	if len(s.sub.outputs) == 1 {
		for _, v := range outputs {
			return v
		}
		return nil
	}
	return outputs
}

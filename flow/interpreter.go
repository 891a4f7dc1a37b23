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

	"go.opentelemetry.io/otel/attribute"

	"github.com/oracle/wayflow-sub000/event"
	"github.com/oracle/wayflow-sub000/execution"
	"github.com/oracle/wayflow-sub000/log"
	"github.com/oracle/wayflow-sub000/telemetry/trace"
	"github.com/oracle/wayflow-sub000/tool"
	"github.com/oracle/wayflow-sub000/variable"
)

// Execute interprets the flow against the conversation's state: resolve the
// current step's inputs, invoke it, record its outputs and follow the taken
// branch, until a path reaches End or a step suspends. Suspensions freeze
// the current position in the state so a later call continues exactly where
// this one stopped.
func (f *Flow) Execute(ctx context.Context, conv *execution.Conversation) (execution.Status, error) {
	st := conv.State()
	store := variable.NewStore(f.variables)
	store.Restore(st.Variables)

	if err := f.provideContext(ctx, st); err != nil {
		return nil, err
	}

	resuming := false
	var pendingRequests []*tool.Request
	if st.Pending != nil {
		if err := conv.ValidatePending(st.Pending); err != nil {
			return nil, err
		}
		resuming = true
		pendingRequests = st.Pending.Requests
		st.Current = st.Pending.Step
		st.Pending = nil
	}
	if st.Current == "" {
		st.Current = f.begin
	}

	for invoked := 0; ; invoked++ {
		if st.Current == End {
			return f.finish(st)
		}
		if invoked >= f.maxSteps {
			return nil, ErrMaxSteps
		}
		name := st.Current
		step, ok := f.steps[name]
		if !ok {
			return nil, fmt.Errorf("flow %s: state points at unknown step %s", f.name, name)
		}
		if err := conv.Emit(event.New(conv.ID(), event.KindStepStart, name,
			event.WithIteration(st.Loop))); err != nil {
			return nil, err
		}

		inputs, err := f.resolveInputs(st, step)
		if err != nil {
			return nil, err
		}
		sc := &StepContext{
			Conversation:    conv,
			State:           st,
			Inputs:          inputs,
			Variables:       store,
			Resuming:        resuming,
			PendingRequests: pendingRequests,
		}
		resuming = false
		pendingRequests = nil

		result, err := f.invoke(ctx, step, sc)
		st.Variables = store.Snapshot()
		if err != nil {
			if susp, ok := execution.AsSuspension(err); ok {
				st.Pending = &execution.Pending{Step: name, Kind: susp.Kind, Requests: susp.Requests}
				log.Debugf("flow %s suspended at step %s awaiting %s", f.name, name, susp.Kind)
				return susp.Status(), nil
			}
			if _, ok := execution.AsInterruption(err); ok {
				return nil, err
			}
			if execution.IsInputError(err) {
				return nil, err
			}
			return nil, execution.WrapStepError(name, err)
		}

		branch := result.Branch
		if branch == "" {
			branch = BranchNext
		}
		f.recordOutputs(st, name, result.Outputs)
		st.History = append(st.History, execution.StepRecord{Step: name, Branch: branch, Iteration: st.Loop})

		dest, ok := f.control[name][branch]
		if !ok {
			return nil, execution.WrapStepError(name,
				fmt.Errorf("step took undeclared branch %s", branch))
		}

		// Advance before emitting the boundary event so that an interrupt
		// fired here resumes at the next step, not by re-running this one.
		if dest == End && f.loop {
			st.Loop++
			st.Current = f.begin
			if err := conv.Emit(event.New(conv.ID(), event.KindStepEnd, name,
				event.WithIteration(st.Loop-1))); err != nil {
				return nil, err
			}
			if err := conv.Emit(event.New(conv.ID(), event.KindIterationEnd, f.name,
				event.WithIteration(st.Loop-1))); err != nil {
				return nil, err
			}
			if err := conv.Emit(event.New(conv.ID(), event.KindIterationStart, f.name,
				event.WithIteration(st.Loop))); err != nil {
				return nil, err
			}
			continue
		}
		st.Current = dest
		if err := conv.Emit(event.New(conv.ID(), event.KindStepEnd, name,
			event.WithIteration(st.Loop))); err != nil {
			return nil, err
		}
	}
}

// invoke runs one step inside a trace span.
func (f *Flow) invoke(ctx context.Context, step Step, sc *StepContext) (*StepResult, error) {
	ctx, span := trace.Tracer.Start(ctx, "invoke_step "+step.Name())
	defer span.End()
	span.SetAttributes(
		attribute.String("flow.name", f.name),
		attribute.String("step.name", step.Name()),
	)
	return step.Invoke(ctx, sc)
}

// provideContext computes the context-provider values once per conversation.
func (f *Flow) provideContext(ctx context.Context, st *execution.State) error {
	if len(f.providers) == 0 {
		return nil
	}
	if _, ok := st.Working[execution.ContextSpace]; ok {
		return nil
	}
	values := make(map[string]any, len(f.providers))
	for name, provide := range f.providers {
		v, err := provide(ctx)
		if err != nil {
			return fmt.Errorf("flow %s: context provider %s: %w", f.name, name, err)
		}
		values[name] = v
	}
	if st.Working == nil {
		st.Working = make(map[string]map[string]any)
	}
	st.Working[execution.ContextSpace] = values
	return nil
}

// resolveInputs assembles a step's inputs: static bindings first, then
// data-flow edges, then declared defaults. A required input with no value is
// a recoverable input error.
func (f *Flow) resolveInputs(st *execution.State, step Step) (map[string]any, error) {
	inputs := make(map[string]any, len(step.Inputs()))
	for _, d := range step.Inputs() {
		if v, ok := f.static[step.Name()][d.Name]; ok {
			if !typeAccepts(d.Type, v) {
				return nil, execution.NewInputError("step %s input %s: static value %v is not a %s",
					step.Name(), d.Name, v, d.Type)
			}
			inputs[d.Name] = v
			continue
		}
		if ref, ok := f.dataIn[step.Name()][d.Name]; ok {
			v, found := st.Lookup(ref.Step, ref.Output)
			if found {
				if !typeAccepts(d.Type, v) {
					return nil, execution.NewInputError("step %s input %s: value from %s.%s is not a %s",
						step.Name(), d.Name, ref.Step, ref.Output, d.Type)
				}
				inputs[d.Name] = v
				continue
			}
			// Fall through to the default when the producer ran on a
			// branch that was not taken, or the conversation input was
			// not supplied.
		}
		if d.Default != nil {
			inputs[d.Name] = d.Default
			continue
		}
		if d.Optional {
			continue
		}
		return nil, execution.NewInputError("step %s is missing required input %s", step.Name(), d.Name)
	}
	return inputs, nil
}

// recordOutputs writes a step's outputs into the working set, applying
// output renames.
func (f *Flow) recordOutputs(st *execution.State, step string, outputs map[string]any) {
	if len(outputs) == 0 {
		return
	}
	space := st.Outputs(step)
	for name, v := range outputs {
		if to, ok := f.renames[step][name]; ok {
			name = to
		}
		space[name] = v
	}
}

// finish assembles the declared flow outputs.
func (f *Flow) finish(st *execution.State) (execution.Status, error) {
	outputs := make(map[string]any, len(f.outputs))
	for name, ref := range f.outputs {
		if v, ok := st.Lookup(ref.Step, ref.Output); ok {
			outputs[name] = v
		}
	}
	log.Debugf("flow %s finished with %d outputs", f.name, len(outputs))
	return execution.Finished{Outputs: outputs}, nil
}

//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package flow

import (
	"context"

	"github.com/oracle/wayflow-sub000/execution"
	"github.com/oracle/wayflow-sub000/variable"
)

// SourceRef addresses one output in the working set: a step's output, a
// conversation input (execution.InputSpace) or a context-provider value
// (execution.ContextSpace).
type SourceRef struct {
	// Step is the producing step name or a reserved space.
	Step string `json:"step"`
	// Output is the output name within that space.
	Output string `json:"output"`
}

// DataFlowEdge routes one produced output into one declared input.
type DataFlowEdge struct {
	Source SourceRef `json:"source"`
	// Dest is the consuming step.
	Dest string `json:"dest"`
	// Input is the consuming step's declared input name.
	Input string `json:"input"`
}

// Provider computes a context value once per conversation.
type Provider func(ctx context.Context) (any, error)

// Flow is an immutable step graph: a begin step, named steps, exactly one
// control-flow edge per (step, branch) pair, data-flow edges, declared
// variables and optional context providers. Flows are validated entirely at
// construction; a *Flow that exists is runnable.
type Flow struct {
	name        string
	description string
	begin       string
	steps       map[string]Step
	control     map[string]map[string]string
	data        []DataFlowEdge
	dataIn      map[string]map[string]SourceRef
	static      map[string]map[string]any
	renames     map[string]map[string]string
	variables   []variable.Variable
	providers   map[string]Provider
	outputs     map[string]SourceRef
	loop        bool
	maxSteps    int
	mightYield  bool
}

// Option configures a flow under construction.
type Option func(*Flow)

// WithDescription sets the flow description.
func WithDescription(description string) Option {
	return func(f *Flow) { f.description = description }
}

// WithSteps adds steps to the flow.
func WithSteps(steps ...Step) Option {
	return func(f *Flow) {
		for _, s := range steps {
			if s == nil {
				continue
			}
			if _, exists := f.steps[s.Name()]; exists {
				// Recorded as a duplicate; validation rejects it.
				f.steps[duplicateMarker+s.Name()] = s
				continue
			}
			f.steps[s.Name()] = s
		}
	}
}

// WithBegin sets the begin step.
func WithBegin(step string) Option {
	return func(f *Flow) { f.begin = step }
}

// WithControlEdge routes a step's branch to a destination step, or to End.
func WithControlEdge(from, branch, to string) Option {
	return func(f *Flow) {
		edges, ok := f.control[from]
		if !ok {
			edges = make(map[string]string)
			f.control[from] = edges
		}
		if _, dup := edges[branch]; dup {
			edges[duplicateMarker+branch] = to
			return
		}
		edges[branch] = to
	}
}

// WithNext routes a step's default branch to a destination step, or to End.
func WithNext(from, to string) Option {
	return WithControlEdge(from, BranchNext, to)
}

// WithDataEdge feeds the named output of srcStep into the named input of
// destStep. srcStep may be execution.InputSpace or execution.ContextSpace.
func WithDataEdge(srcStep, srcOutput, destStep, destInput string) Option {
	return func(f *Flow) {
		f.data = append(f.data, DataFlowEdge{
			Source: SourceRef{Step: srcStep, Output: srcOutput},
			Dest:   destStep,
			Input:  destInput,
		})
	}
}

// WithStaticInput binds a step input to a fixed value, overriding data-flow
// edges.
func WithStaticInput(step, input string, value any) Option {
	return func(f *Flow) {
		bindings, ok := f.static[step]
		if !ok {
			bindings = make(map[string]any)
			f.static[step] = bindings
		}
		bindings[input] = value
	}
}

// WithOutputRename stores a step's output under a different working-set
// name.
func WithOutputRename(step, from, to string) Option {
	return func(f *Flow) {
		renames, ok := f.renames[step]
		if !ok {
			renames = make(map[string]string)
			f.renames[step] = renames
		}
		renames[from] = to
	}
}

// WithVariables declares the flow's variables.
func WithVariables(vars ...variable.Variable) Option {
	return func(f *Flow) { f.variables = append(f.variables, vars...) }
}

// WithContextProvider registers a value source computed once per
// conversation, readable through execution.ContextSpace.
func WithContextProvider(name string, p Provider) Option {
	return func(f *Flow) { f.providers[name] = p }
}

// WithOutput declares a flow output fed from a step's working-set output.
func WithOutput(name, step, output string) Option {
	return func(f *Flow) { f.outputs[name] = SourceRef{Step: step, Output: output} }
}

// WithLoop makes the flow wrap back to the begin step when a path reaches
// End, incrementing the loop counter, instead of finishing.
func WithLoop() Option {
	return func(f *Flow) { f.loop = true }
}

// WithMaxSteps bounds the number of step invocations per Execute call.
func WithMaxSteps(n int) Option {
	return func(f *Flow) { f.maxSteps = n }
}

const (
	duplicateMarker = "\x00dup:"
	defaultMaxSteps = 1000
)

// New builds and validates a flow. All configuration errors - dangling
// edges, branches without edges, undeclared inputs, type mismatches,
// variable policy violations and self-containment - are raised here and
// never reach a running conversation.
func New(name string, opts ...Option) (*Flow, error) {
	f := &Flow{
		name:      name,
		steps:     make(map[string]Step),
		control:   make(map[string]map[string]string),
		dataIn:    make(map[string]map[string]SourceRef),
		static:    make(map[string]map[string]any),
		renames:   make(map[string]map[string]string),
		providers: make(map[string]Provider),
		outputs:   make(map[string]SourceRef),
		maxSteps:  defaultMaxSteps,
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	for _, s := range f.steps {
		if s.MightYield() {
			f.mightYield = true
			break
		}
	}
	return f, nil
}

// Name returns the flow name.
func (f *Flow) Name() string { return f.name }

// Description returns the flow description.
func (f *Flow) Description() string { return f.description }

// MightYield reports whether any step of the flow can suspend.
func (f *Flow) MightYield() bool { return f.mightYield }

// Begin returns the begin step name.
func (f *Flow) Begin() string { return f.begin }

// Step returns a step by name.
func (f *Flow) Step(name string) (Step, bool) {
	s, ok := f.steps[name]
	return s, ok
}

// Variables returns the declared variables.
func (f *Flow) Variables() []variable.Variable { return f.variables }

func (f *Flow) validate() error {
	if f.name == "" {
		return configErrorf(f.name, "flow name cannot be empty")
	}
	for key := range f.steps {
		if len(key) > len(duplicateMarker) && key[:len(duplicateMarker)] == duplicateMarker {
			return configErrorf(f.name, "duplicate step %s", key[len(duplicateMarker):])
		}
	}
	if f.begin == "" {
		return configErrorf(f.name, "flow must declare a begin step")
	}
	if _, ok := f.steps[f.begin]; !ok {
		return configErrorf(f.name, "begin step %s does not exist", f.begin)
	}
	if err := f.validateControlEdges(); err != nil {
		return err
	}
	if err := f.validateDataEdges(); err != nil {
		return err
	}
	if err := f.validateVariables(); err != nil {
		return err
	}
	if err := f.validateOutputs(); err != nil {
		return err
	}
	return f.validateContainment()
}

func (f *Flow) validateControlEdges() error {
	for from, edges := range f.control {
		src, ok := f.steps[from]
		if !ok {
			return configErrorf(f.name, "control edge from unknown step %s", from)
		}
		declared := make(map[string]bool)
		for _, b := range src.Branches() {
			declared[b] = true
		}
		for branch, to := range edges {
			if len(branch) > len(duplicateMarker) && branch[:len(duplicateMarker)] == duplicateMarker {
				return configErrorf(f.name, "step %s has more than one edge for branch %s",
					from, branch[len(duplicateMarker):])
			}
			if !declared[branch] {
				return configErrorf(f.name, "step %s has no branch %s", from, branch)
			}
			if to != End {
				if _, ok := f.steps[to]; !ok {
					return configErrorf(f.name, "edge %s/%s points to unknown step %s", from, branch, to)
				}
			}
		}
	}
	// Every branch of every step needs exactly one outgoing edge.
	for name, s := range f.steps {
		for _, branch := range s.Branches() {
			if _, ok := f.control[name][branch]; !ok {
				return configErrorf(f.name, "step %s branch %s has no outgoing edge", name, branch)
			}
		}
	}
	return nil
}

func (f *Flow) validateDataEdges() error {
	for _, e := range f.data {
		dest, ok := f.steps[e.Dest]
		if !ok {
			return configErrorf(f.name, "data edge into unknown step %s", e.Dest)
		}
		destDesc, ok := findDescriptor(dest.Inputs(), e.Input)
		if !ok {
			return configErrorf(f.name, "step %s does not declare input %s", e.Dest, e.Input)
		}
		switch e.Source.Step {
		case execution.InputSpace:
			// Conversation inputs are untyped; checked at runtime.
		case execution.ContextSpace:
			if _, ok := f.providers[e.Source.Output]; !ok {
				return configErrorf(f.name, "data edge reads unknown context provider %s", e.Source.Output)
			}
		default:
			src, ok := f.steps[e.Source.Step]
			if !ok {
				return configErrorf(f.name, "data edge from unknown step %s", e.Source.Step)
			}
			srcDesc, ok := findDescriptor(src.Outputs(), e.Source.Output)
			if !ok {
				if _, renamed := f.renames[e.Source.Step][e.Source.Output]; !renamed {
					return configErrorf(f.name, "step %s does not declare output %s",
						e.Source.Step, e.Source.Output)
				}
			} else if !typesCompatible(srcDesc.Type, destDesc.Type) {
				return configErrorf(f.name, "data edge %s.%s (%s) is not compatible with %s.%s (%s)",
					e.Source.Step, e.Source.Output, srcDesc.Type, e.Dest, e.Input, destDesc.Type)
			}
		}
		if _, dup := f.dataIn[e.Dest][e.Input]; dup {
			return configErrorf(f.name, "input %s.%s is fed by more than one data edge", e.Dest, e.Input)
		}
		in, ok := f.dataIn[e.Dest]
		if !ok {
			in = make(map[string]SourceRef)
			f.dataIn[e.Dest] = in
		}
		in[e.Input] = e.Source
	}
	for step, bindings := range f.static {
		s, ok := f.steps[step]
		if !ok {
			return configErrorf(f.name, "static input for unknown step %s", step)
		}
		for input := range bindings {
			if _, ok := findDescriptor(s.Inputs(), input); !ok {
				return configErrorf(f.name, "step %s does not declare input %s", step, input)
			}
		}
	}
	return nil
}

func (f *Flow) validateVariables() error {
	declared := make(map[string]variable.Variable, len(f.variables))
	for _, v := range f.variables {
		if _, dup := declared[v.Name]; dup {
			return configErrorf(f.name, "duplicate variable %s", v.Name)
		}
		if err := v.Validate(); err != nil {
			return configErrorf(f.name, "%v", err)
		}
		declared[v.Name] = v
	}
	for name, s := range f.steps {
		user, ok := s.(variableUser)
		if !ok {
			continue
		}
		varName, policy, write := user.VariableAccess()
		decl, ok := declared[varName]
		if !ok {
			return configErrorf(f.name, "step %s uses undeclared variable %s", name, varName)
		}
		if write && !decl.SupportsPolicy(policy) {
			return configErrorf(f.name, "step %s writes %s variable %s with invalid policy %s",
				name, decl.Type, varName, policy)
		}
	}
	return nil
}

func (f *Flow) validateOutputs() error {
	for name, ref := range f.outputs {
		switch ref.Step {
		case execution.InputSpace, execution.ContextSpace:
			continue
		}
		src, ok := f.steps[ref.Step]
		if !ok {
			return configErrorf(f.name, "output %s reads unknown step %s", name, ref.Step)
		}
		if _, ok := findDescriptor(src.Outputs(), ref.Output); !ok {
			if _, renamed := f.renames[ref.Step][ref.Output]; !renamed {
				return configErrorf(f.name, "output %s reads undeclared output %s.%s",
					name, ref.Step, ref.Output)
			}
		}
	}
	return nil
}

// validateContainment rejects flows that reach themselves through nested
// components. Sharing a sub-flow by reference across several steps is
// allowed; what is rejected is a flow on its own ancestor path.
func (f *Flow) validateContainment() error {
	if err := execution.CheckContainment(f); err != nil {
		return &ConfigError{Flow: f.name, Err: err}
	}
	return nil
}

// Subcomponents returns the nested components of the flow's steps.
func (f *Flow) Subcomponents() []execution.Component {
	var subs []execution.Component
	for _, s := range f.steps {
		if n, ok := s.(nester); ok {
			subs = append(subs, n.Subcomponents()...)
		}
	}
	return subs
}

func findDescriptor(descs []Descriptor, name string) (Descriptor, bool) {
	for _, d := range descs {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracle/wayflow-sub000/event"
	"github.com/oracle/wayflow-sub000/tool"
)

// askOnce suspends for one user message and finishes with it as an output.
type askOnce struct {
	name string
}

func (c *askOnce) Name() string        { return c.name }
func (c *askOnce) Description() string { return "asks one question" }
func (c *askOnce) MightYield() bool    { return true }

func (c *askOnce) Execute(_ context.Context, conv *Conversation) (Status, error) {
	st := conv.State()
	if st.Pending != nil {
		if err := conv.ValidatePending(st.Pending); err != nil {
			return nil, err
		}
		st.Pending = nil
		msg := conv.TakeUserMessage()
		st.Messages = append(st.Messages, *msg)
		return Finished{Outputs: map[string]any{"answer": msg.Content}}, nil
	}
	st.Pending = &Pending{Step: c.name, Kind: SuspendUserMessage}
	return AwaitingUserMessage{}, nil
}

func TestNewConversationRequiresComponent(t *testing.T) {
	_, err := NewConversation(nil)
	assert.ErrorIs(t, err, ErrNilComponent)
}

func TestConversationSuspendFinish(t *testing.T) {
	conv, err := NewConversation(&askOnce{name: "ask"})
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID())

	status, err := conv.Execute(context.Background())
	require.NoError(t, err)
	_, ok := status.(AwaitingUserMessage)
	require.True(t, ok)
	assert.False(t, conv.Finished())

	conv.AppendUserMessage("blue")
	status, err = conv.Execute(context.Background())
	require.NoError(t, err)
	finished, ok := status.(Finished)
	require.True(t, ok)
	assert.Equal(t, "blue", finished.Outputs["answer"])
	assert.True(t, conv.Finished())
}

func TestValidatePendingKinds(t *testing.T) {
	conv, err := NewConversation(&askOnce{name: "ask"})
	require.NoError(t, err)

	err = conv.ValidatePending(&Pending{Step: "ask", Kind: SuspendUserMessage})
	require.Error(t, err)
	assert.True(t, IsInputError(err))

	conv.AppendUserMessage("hi")
	assert.NoError(t, conv.ValidatePending(&Pending{Step: "ask", Kind: SuspendUserMessage}))

	pending := &Pending{Step: "ask", Kind: SuspendToolResult,
		Requests: []*tool.Request{{ID: "r1", Name: "lookup"}}}
	err = conv.ValidatePending(pending)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "r1")

	conv.AddToolResult("r1", "lookup", "42")
	assert.NoError(t, conv.ValidatePending(pending))
}

func TestEmitEvaluatesInterruptersInOrder(t *testing.T) {
	first := &namedInterrupter{name: "first", fire: true}
	second := &namedInterrupter{name: "second", fire: true}
	conv, err := NewConversation(&askOnce{name: "ask"},
		WithInterrupters(first, second))
	require.NoError(t, err)

	status, err := conv.Execute(context.Background())
	require.NoError(t, err)
	interrupted, ok := status.(Interrupted)
	require.True(t, ok)
	assert.Equal(t, "first", interrupted.Interrupter)
	assert.False(t, second.checked)
}

func TestEmitSkipsListenersWhenInterrupted(t *testing.T) {
	var seen []event.Kind
	listener := event.ListenerFunc(func(ev *event.Event) {
		seen = append(seen, ev.Kind)
	})
	conv, err := NewConversation(&askOnce{name: "ask"},
		WithListeners(listener),
		WithInterrupters(&namedInterrupter{name: "stop", fire: true}))
	require.NoError(t, err)

	_, err = conv.Execute(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, seen, event.KindExecutionStart)
}

func TestListenersObserveLifecycle(t *testing.T) {
	var seen []event.Kind
	listener := event.ListenerFunc(func(ev *event.Event) {
		seen = append(seen, ev.Kind)
	})
	conv, err := NewConversation(&askOnce{name: "ask"},
		WithListeners(listener))
	require.NoError(t, err)

	_, err = conv.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []event.Kind{event.KindExecutionStart, event.KindExecutionEnd}, seen)
}

type namedInterrupter struct {
	name    string
	fire    bool
	checked bool
}

func (i *namedInterrupter) Name() string { return i.name }

func (i *namedInterrupter) Check(_ *event.Event, _ *State) (string, bool) {
	i.checked = true
	return "requested stop", i.fire
}

func TestWrapStepErrorPrependsPath(t *testing.T) {
	boom := errors.New("boom")
	err := WrapStepError("inner", boom)
	err = WrapStepError("outer", err)
	assert.Equal(t, "step outer/inner: boom", err.Error())
	assert.ErrorIs(t, err, boom)
}

func TestInputErrorDetection(t *testing.T) {
	err := NewInputError("missing %s", "thing")
	assert.True(t, IsInputError(err))
	assert.False(t, IsInputError(errors.New("other")))
}

func TestChildSharesStagedInput(t *testing.T) {
	conv, err := NewConversation(&askOnce{name: "outer"})
	require.NoError(t, err)
	conv.AppendUserMessage("shared")

	child := conv.Child("nested", &askOnce{name: "inner"}, map[string]any{"k": "v"})
	assert.Equal(t, conv.ID(), child.ID())
	assert.True(t, child.HasUserMessage())
	assert.Equal(t, map[string]any{"k": "v"}, child.State().Working[InputSpace])

	// Consuming through the child consumes for the parent too.
	child.TakeUserMessage()
	assert.False(t, conv.HasUserMessage())
}

// nester is a component whose children are set after construction.
type nester struct {
	name     string
	children []Component
}

func (n *nester) Name() string        { return n.name }
func (n *nester) Description() string { return "" }
func (n *nester) MightYield() bool    { return false }

func (n *nester) Execute(_ context.Context, _ *Conversation) (Status, error) {
	return Finished{}, nil
}

func (n *nester) Subcomponents() []Component { return n.children }

func TestCheckContainmentRejectsCycle(t *testing.T) {
	a := &nester{name: "a"}
	b := &nester{name: "b"}
	a.children = []Component{b}
	b.children = []Component{a}
	assert.ErrorIs(t, CheckContainment(a), ErrSelfContainment)
}

func TestCheckContainmentAllowsSharedSubtree(t *testing.T) {
	leaf := &nester{name: "leaf"}
	left := &nester{name: "left", children: []Component{leaf}}
	right := &nester{name: "right", children: []Component{leaf}}
	root := &nester{name: "root", children: []Component{left, right}}
	assert.NoError(t, CheckContainment(root))
}

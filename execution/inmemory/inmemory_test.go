//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracle/wayflow-sub000/execution"
)

// echoOnce suspends for a user message and finishes with it.
type echoOnce struct {
	name string
}

func (c *echoOnce) Name() string        { return c.name }
func (c *echoOnce) Description() string { return "" }
func (c *echoOnce) MightYield() bool    { return true }

func (c *echoOnce) Execute(_ context.Context, conv *execution.Conversation) (execution.Status, error) {
	st := conv.State()
	if st.Pending != nil {
		if err := conv.ValidatePending(st.Pending); err != nil {
			return nil, err
		}
		st.Pending = nil
		msg := conv.TakeUserMessage()
		return execution.Finished{Outputs: map[string]any{"echo": msg.Content}}, nil
	}
	st.Pending = &execution.Pending{Step: c.name, Kind: execution.SuspendUserMessage}
	return execution.AwaitingUserMessage{}, nil
}

func TestSaveLoadResumesSuspendedConversation(t *testing.T) {
	ctx := context.Background()
	component := &echoOnce{name: "echo"}
	conv, err := execution.NewConversation(component)
	require.NoError(t, err)

	_, err = conv.Execute(ctx)
	require.NoError(t, err)

	saver := NewSaver()
	require.NoError(t, saver.Save(ctx, conv))

	// A different process would rebuild the component and resume.
	restored, err := saver.Load(ctx, conv.ID(), component)
	require.NoError(t, err)
	assert.Equal(t, conv.ID(), restored.ID())
	require.NotNil(t, restored.State().Pending)
	assert.Equal(t, "echo", restored.State().Pending.Step)

	restored.AppendUserMessage("still here")
	status, err := restored.Execute(ctx)
	require.NoError(t, err)
	finished, ok := status.(execution.Finished)
	require.True(t, ok)
	assert.Equal(t, "still here", finished.Outputs["echo"])
}

func TestLoadUnknownConversation(t *testing.T) {
	saver := NewSaver()
	_, err := saver.Load(context.Background(), "missing", &echoOnce{name: "echo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadRejectsComponentMismatch(t *testing.T) {
	ctx := context.Background()
	conv, err := execution.NewConversation(&echoOnce{name: "echo"})
	require.NoError(t, err)

	saver := NewSaver()
	require.NoError(t, saver.Save(ctx, conv))

	_, err = saver.Load(ctx, conv.ID(), &echoOnce{name: "other"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "belongs to component")
}

func TestDeleteRemovesSnapshot(t *testing.T) {
	ctx := context.Background()
	component := &echoOnce{name: "echo"}
	conv, err := execution.NewConversation(component)
	require.NoError(t, err)

	saver := NewSaver()
	require.NoError(t, saver.Save(ctx, conv))
	require.NoError(t, saver.Delete(ctx, conv.ID()))

	_, err = saver.Load(ctx, conv.ID(), component)
	assert.Error(t, err)
}

func TestSaveOverwritesPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	component := &echoOnce{name: "echo"}
	conv, err := execution.NewConversation(component)
	require.NoError(t, err)

	saver := NewSaver()
	require.NoError(t, saver.Save(ctx, conv))

	_, err = conv.Execute(ctx)
	require.NoError(t, err)
	require.NoError(t, saver.Save(ctx, conv))

	restored, err := saver.Load(ctx, conv.ID(), component)
	require.NoError(t, err)
	assert.NotNil(t, restored.State().Pending)
}

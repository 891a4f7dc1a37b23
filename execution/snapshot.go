//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package execution

import (
	"context"
	"encoding/json"
	"fmt"
)

// snapshot is the serialized form of a conversation. State is acyclic and
// fully reachable from the root, so plain JSON suffices; components are
// code, not data, and are re-bound on restore.
type snapshot struct {
	ID        string         `json:"id"`
	Component string         `json:"component"`
	Inputs    map[string]any `json:"inputs,omitempty"`
	State     *State         `json:"state"`
	Finished  bool           `json:"finished"`
}

// Snapshot serializes the conversation so it can be persisted and resumed
// across process restarts. Staged external input and listeners are not part
// of the snapshot; callers re-supply them after Restore.
func (c *Conversation) Snapshot() ([]byte, error) {
	return json.Marshal(snapshot{
		ID:        c.id,
		Component: c.component.Name(),
		Inputs:    c.inputs,
		State:     c.state,
		Finished:  c.finished,
	})
}

// Restore reconstitutes a conversation from a snapshot, re-binding it to the
// given component. The component must be the one the snapshot was taken
// with; the names are compared as a guard.
func Restore(data []byte, component Component, opts ...Option) (*Conversation, error) {
	if component == nil {
		return nil, ErrNilComponent
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode conversation snapshot: %w", err)
	}
	if snap.Component != component.Name() {
		return nil, fmt.Errorf("snapshot belongs to component %q, not %q", snap.Component, component.Name())
	}
	c, err := NewConversation(component, opts...)
	if err != nil {
		return nil, err
	}
	c.id = snap.ID
	c.inputs = snap.Inputs
	c.finished = snap.Finished
	if snap.State != nil {
		c.state = snap.State
	}
	if c.state.Working == nil {
		c.state.Working = make(map[string]map[string]any)
	}
	return c, nil
}

// Saver persists conversation snapshots. Implementations are external
// collaborators; the engine only guarantees its state serializes cleanly.
type Saver interface {
	// Save persists the conversation's current snapshot.
	Save(ctx context.Context, conv *Conversation) error
	// Load restores the conversation with the given ID against component.
	Load(ctx context.Context, id string, component Component, opts ...Option) (*Conversation, error)
	// Delete removes the stored snapshot.
	Delete(ctx context.Context, id string) error
}

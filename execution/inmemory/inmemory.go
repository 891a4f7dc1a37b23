//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

// Package inmemory provides an in-memory conversation saver, mainly for
// tests and single-process deployments.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/oracle/wayflow-sub000/execution"
)

// Saver stores conversation snapshots in process memory.
type Saver struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewSaver creates an empty in-memory saver.
func NewSaver() *Saver {
	return &Saver{snapshots: make(map[string][]byte)}
}

// Save persists the conversation's snapshot.
func (s *Saver) Save(ctx context.Context, conv *execution.Conversation) error {
	data, err := conv.Snapshot()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[conv.ID()] = data
	return nil
}

// Load restores the conversation with the given ID.
func (s *Saver) Load(
	ctx context.Context,
	id string,
	component execution.Component,
	opts ...execution.Option,
) (*execution.Conversation, error) {
	s.mu.RLock()
	data, ok := s.snapshots[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("conversation %s not found", id)
	}
	return execution.Restore(data, component, opts...)
}

// Delete removes the stored snapshot.
func (s *Saver) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, id)
	return nil
}

var _ execution.Saver = (*Saver)(nil)

//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

// Package interrupt provides the built-in interrupters: a soft wall-clock
// timeout and a soft token limit. Both are cooperative: they are evaluated at
// lifecycle event boundaries and always leave the conversation resumable.
package interrupt

import (
	"fmt"
	"time"

	"github.com/oracle/wayflow-sub000/event"
	"github.com/oracle/wayflow-sub000/execution"
)

// SoftTimeout interrupts execution once the wall-clock budget since the
// first observed event is exhausted. A zero budget fires on the very first
// event.
type SoftTimeout struct {
	budget time.Duration
	start  time.Time
	now    func() time.Time
}

// NewSoftTimeout creates a timeout interrupter with the given budget.
func NewSoftTimeout(budget time.Duration) *SoftTimeout {
	return &SoftTimeout{budget: budget, now: time.Now}
}

// Name implements execution.Interrupter.
func (t *SoftTimeout) Name() string { return "soft_timeout" }

// Check implements execution.Interrupter.
func (t *SoftTimeout) Check(ev *event.Event, st *execution.State) (string, bool) {
	now := t.now()
	if t.start.IsZero() {
		t.start = now
	}
	if elapsed := now.Sub(t.start); elapsed >= t.budget {
		return fmt.Sprintf("wall-clock budget %s exhausted after %s", t.budget, elapsed), true
	}
	return "", false
}

// TokenLimit interrupts execution once aggregate token usage, tracked via
// generation events, reaches the limit.
type TokenLimit struct {
	limit int
}

// NewTokenLimit creates a token-limit interrupter.
func NewTokenLimit(limit int) *TokenLimit {
	return &TokenLimit{limit: limit}
}

// Name implements execution.Interrupter.
func (t *TokenLimit) Name() string { return "token_limit" }

// Check implements execution.Interrupter.
func (t *TokenLimit) Check(ev *event.Event, st *execution.State) (string, bool) {
	total := st.Usage.TotalTokens
	if ev.Kind == event.KindGenerationEnd && ev.Usage != nil {
		total += ev.Usage.TotalTokens
	}
	if total >= t.limit {
		return fmt.Sprintf("token budget %d exhausted (%d used)", t.limit, total), true
	}
	return "", false
}

var (
	_ execution.Interrupter = (*SoftTimeout)(nil)
	_ execution.Interrupter = (*TokenLimit)(nil)
)

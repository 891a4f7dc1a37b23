//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package interrupt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oracle/wayflow-sub000/event"
	"github.com/oracle/wayflow-sub000/execution"
	"github.com/oracle/wayflow-sub000/model"
)

func stepEvent() *event.Event {
	return event.New("conv", event.KindStepStart, "step")
}

func TestSoftTimeoutZeroBudgetFiresImmediately(t *testing.T) {
	i := NewSoftTimeout(0)
	reason, fired := i.Check(stepEvent(), &execution.State{})
	assert.True(t, fired)
	assert.Contains(t, reason, "wall-clock budget")
}

func TestSoftTimeoutStartsOnFirstEvent(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	i := NewSoftTimeout(time.Minute)
	i.now = func() time.Time { return clock }

	st := &execution.State{}
	_, fired := i.Check(stepEvent(), st)
	assert.False(t, fired)

	clock = clock.Add(30 * time.Second)
	_, fired = i.Check(stepEvent(), st)
	assert.False(t, fired)

	clock = clock.Add(31 * time.Second)
	reason, fired := i.Check(stepEvent(), st)
	assert.True(t, fired)
	assert.Contains(t, reason, "1m0s")
}

func TestTokenLimitCountsAccumulatedUsage(t *testing.T) {
	i := NewTokenLimit(100)
	st := &execution.State{}
	st.Usage.TotalTokens = 60

	_, fired := i.Check(stepEvent(), st)
	assert.False(t, fired)

	st.Usage.TotalTokens = 100
	reason, fired := i.Check(stepEvent(), st)
	assert.True(t, fired)
	assert.Contains(t, reason, "token budget 100")
}

func TestTokenLimitSeesGenerationEndUsage(t *testing.T) {
	// Generation-end events report fresh usage before it is folded into
	// state, so the interrupter counts both.
	i := NewTokenLimit(100)
	st := &execution.State{}
	st.Usage.TotalTokens = 60

	ev := event.New("conv", event.KindGenerationEnd, "gen",
		event.WithUsage(&model.Usage{TotalTokens: 40}))
	reason, fired := i.Check(ev, st)
	assert.True(t, fired)
	assert.Contains(t, reason, "100 used")
}

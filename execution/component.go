//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package execution

import (
	"context"

	"github.com/oracle/wayflow-sub000/event"
)

// Component is a conversational unit of work: a flow or an agent. Components
// are driven by a Conversation; nested components run against child states of
// the same conversation.
type Component interface {
	// Name returns the component's name.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// MightYield reports whether executing the component can suspend
	// waiting for external input. The flag is load-bearing for
	// validation: a component that might yield cannot be placed where
	// suspension is structurally disallowed, such as parallel fan-out.
	MightYield() bool

	// Execute drives the component against the conversation's state until
	// it finishes or suspends. Re-entrant: a second call after a
	// suspension continues from the frozen point.
	Execute(ctx context.Context, conv *Conversation) (Status, error)
}

// Interrupter is a predicate evaluated on every lifecycle event. Returning
// interrupted=true short-circuits the current Execute call with an
// Interrupted status, leaving execution state exactly as it was before the
// event. Interrupters must not mutate the state they observe.
type Interrupter interface {
	// Name identifies the interrupter in the Interrupted status.
	Name() string

	// Check inspects the event and the current state and reports whether
	// execution should stop, with a reason.
	Check(ev *event.Event, st *State) (reason string, interrupted bool)
}

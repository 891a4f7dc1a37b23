//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package execution

import (
	"errors"
	"fmt"
	"strings"
)

// Errors.
var (
	// ErrConversationFinished is returned when Execute is called on a
	// conversation that already produced a Finished status.
	ErrConversationFinished = errors.New("conversation already finished")
	// ErrNilComponent is returned when a conversation is created without a
	// component.
	ErrNilComponent = errors.New("component is nil")
)

// InputError reports that the external input supplied at resume time does not
// match what the frozen execution was waiting for, or that a required step
// input is missing or of the wrong type. It is recoverable: execution state
// is unchanged and the caller may retry with corrected input.
type InputError struct {
	Reason string
}

// Error implements the error interface.
func (e *InputError) Error() string {
	return "invalid input: " + e.Reason
}

// NewInputError creates an InputError.
func NewInputError(format string, args ...any) *InputError {
	return &InputError{Reason: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err is an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// StepError decorates a collaborator or execution error with the path of
// steps that produced it. Nested interpreters prepend their own step name so
// the error surfaces at the outermost Execute call exactly once, carrying the
// full path.
type StepError struct {
	// Path is the step path from the outermost flow to the failing step.
	Path []string
	// Err is the original error.
	Err error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", strings.Join(e.Path, "/"), e.Err)
}

// Unwrap returns the original error.
func (e *StepError) Unwrap() error { return e.Err }

// WrapStepError decorates err with the given step name. If err already is a
// StepError the step name is prepended to its path instead of wrapping again.
func WrapStepError(step string, err error) error {
	var se *StepError
	if errors.As(err, &se) {
		se.Path = append([]string{step}, se.Path...)
		return se
	}
	return &StepError{Path: []string{step}, Err: err}
}

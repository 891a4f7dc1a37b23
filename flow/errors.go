//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package flow

import (
	"errors"
	"fmt"
)

// Errors raised at flow construction.
var (
	// ErrYieldingSubflow reports a sub-flow that might suspend placed
	// where suspension is structurally disallowed.
	ErrYieldingSubflow = errors.New("sub-flow might suspend")
	// ErrMaxSteps reports that a single Execute call exceeded the step
	// budget. The conversation remains resumable.
	ErrMaxSteps = errors.New("maximum execution steps exceeded")
)

// ConfigError reports a malformed flow at construction time. Configuration
// errors are fatal and never reach a running conversation.
type ConfigError struct {
	// Flow is the flow under construction.
	Flow string
	// Err describes the defect.
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid flow %s: %v", e.Flow, e.Err)
}

// Unwrap returns the underlying defect.
func (e *ConfigError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func configErrorf(flow, format string, args ...any) *ConfigError {
	return &ConfigError{Flow: flow, Err: fmt.Errorf(format, args...)}
}

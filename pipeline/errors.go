//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of AgentToast.
//
// AgentToast is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// AgentToast is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with AgentToast. If not, see https://www.gnu.org/licenses/.

// errors.go - failure classification for stage work functions
package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// TransientError marks a failure as retryable (timeouts, rate limits,
// upstream hiccups). The executor retries transient failures up to the
// stage's retry budget.
type TransientError struct {
	Err error
}

// Error returns the error string for TransientError.
func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

// Unwrap returns the underlying error for TransientError.
func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError marks a failure as non-retryable. The executor classifies
// it immediately according to the stage's required flag.
type PermanentError struct {
	Err error
}

// Error returns the error string for PermanentError.
func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent: %v", e.Err)
}

// Unwrap returns the underlying error for PermanentError.
func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a retryable failure. A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Transientf formats a retryable failure.
func Transientf(format string, args ...interface{}) error {
	return &TransientError{Err: fmt.Errorf(format, args...)}
}

// Permanent wraps err as a non-retryable failure. A nil err returns nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Permanentf formats a non-retryable failure.
func Permanentf(format string, args ...interface{}) error {
	return &PermanentError{Err: fmt.Errorf(format, args...)}
}

// IsTransient reports whether err should be retried. Context deadline
// expiry counts as transient; an unclassified error does not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te *TransientError
	return errors.As(err, &te)
}

// ConfigError reports an invalid pipeline definition (cycles, missing or
// duplicate stages). It is returned at construction time, before any stage
// runs.
type ConfigError struct {
	Pipeline string // Pipeline name
	Err      error  // Underlying validation failure
}

// Error returns the error string for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("pipeline %s: invalid definition: %v", e.Pipeline, e.Err)
}

// Unwrap returns the underlying error for ConfigError.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

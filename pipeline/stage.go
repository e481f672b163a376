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

// stage.go - stage declarations and per-stage outcomes
package pipeline

import (
	"context"
	"fmt"
	"time"
)

// Package pipeline implements a partial-failure aggregating pipeline:
// an ordered set of named stages with declared dependencies, executed
// layer by layer with bounded retries, whose outcomes are merged into a
// single ordered report.
//
// A stage is a capability record, not a type hierarchy: its behavior lives
// entirely in the WorkFunc supplied at construction. The core stays generic
// over what the work actually does (LLM calls, HTTP fetches, rendering).

// Payload is an opaque stage output. The pipeline core never inspects it.
type Payload interface{}

// Inputs maps upstream stage names to their resolved payloads. A failed
// optional upstream appears as an Unavailable value rather than being
// silently dropped.
type Inputs map[string]Payload

// WorkFunc performs the external work of one stage. Errors should be
// classified with Transient or Permanent; an unclassified error is treated
// as permanent.
type WorkFunc func(ctx context.Context, inputs Inputs) (Payload, error)

// Unavailable substitutes the payload of an optional upstream stage that
// did not reach success. Downstream work functions may inspect it to
// degrade gracefully.
type Unavailable struct {
	Stage  string // Name of the failed upstream stage
	Reason string // Why its payload is missing
}

// String returns a marker suitable for direct inclusion in rendered output.
func (u Unavailable) String() string {
	return fmt.Sprintf("[%s unavailable: %s]", u.Stage, u.Reason)
}

// IsUnavailable reports whether a payload is the unavailable marker.
func IsUnavailable(p Payload) bool {
	_, ok := p.(Unavailable)
	return ok
}

// StageSpec declares one unit of work in the pipeline.
type StageSpec struct {
	Name       string        // Unique stage name
	Required   bool          // Whether failure aborts the whole run
	DependsOn  []string      // Upstream stage names
	Timeout    time.Duration // Per-attempt timeout (0 = none)
	MaxRetries int           // Retry budget for transient failures
	Work       WorkFunc      // The external work boundary
}

// StageOption is a functional option for configuring a stage.
type StageOption func(*StageSpec)

// Required marks the stage as abort-triggering on failure.
func Required() StageOption {
	return func(s *StageSpec) {
		s.Required = true
	}
}

// WithTimeout sets the per-attempt timeout for a stage.
func WithTimeout(timeout time.Duration) StageOption {
	return func(s *StageSpec) {
		s.Timeout = timeout
	}
}

// WithRetries sets the transient-failure retry budget for a stage.
func WithRetries(maxRetries int) StageOption {
	return func(s *StageSpec) {
		s.MaxRetries = maxRetries
	}
}

// StageStatus classifies how a stage resolved.
type StageStatus string

const (
	// StatusSuccess means the work function returned a payload.
	StatusSuccess StageStatus = "success"
	// StatusSoftFailure means an optional stage exhausted its budget;
	// the run continues with an unavailable marker downstream.
	StatusSoftFailure StageStatus = "soft_failure"
	// StatusHardFailure means a required stage exhausted its budget;
	// the run aborts and no further layers are dispatched.
	StatusHardFailure StageStatus = "hard_failure"
	// StatusSkipped means a required upstream dependency did not reach
	// success, so the work function was never invoked.
	StatusSkipped StageStatus = "skipped"
)

// Outcome records how a single stage resolved. Exactly one outcome exists
// per stage per run; failures are values here, never panics or thrown
// errors crossing stage boundaries.
type Outcome struct {
	Stage    string        // Stage name
	Status   StageStatus   // Resolution class
	Payload  Payload       // Set only on success
	Err      error         // Last error for soft/hard failures
	Reason   string        // Human-readable failure or skip reason
	Attempts int           // Number of work invocations (0 when skipped)
	Duration time.Duration // Wall time spent in the executor
}

// Success reports whether the stage produced a payload.
func (o Outcome) Success() bool {
	return o.Status == StatusSuccess
}

// Failed reports whether the stage resolved to a soft or hard failure.
func (o Outcome) Failed() bool {
	return o.Status == StatusSoftFailure || o.Status == StatusHardFailure
}

// FailureReason returns the recorded reason, falling back to the error text.
func (o Outcome) FailureReason() string {
	if o.Reason != "" {
		return o.Reason
	}
	if o.Err != nil {
		return o.Err.Error()
	}
	return string(o.Status)
}

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

// executor.go - single-stage execution with retries and timeouts
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Executor runs a single stage against its resolved inputs. It owns the
// retry loop, the per-attempt timeout, and the soft/hard classification of
// exhausted failures. It performs no I/O of its own; all side effects live
// in the stage's work function.
type Executor struct {
	backoff BackoffStrategy
	logger  *zap.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithBackoffStrategy sets a custom backoff strategy.
func WithBackoffStrategy(strategy BackoffStrategy) ExecutorOption {
	return func(e *Executor) {
		if strategy != nil {
			e.backoff = strategy
		}
	}
}

// WithExecutorLogger sets the executor's logger.
func WithExecutorLogger(logger *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor creates an executor with exponential backoff defaults.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		backoff: &ExponentialBackoff{
			BaseDelay: time.Second,
			MaxDelay:  time.Minute,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute resolves one stage to an Outcome. If any declared dependency is
// missing from inputs the stage is skipped without invoking the work
// function; the external collaborator is never called with incomplete
// inputs.
func (e *Executor) Execute(ctx context.Context, stage StageSpec, inputs Inputs) Outcome {
	start := time.Now()

	for _, dep := range stage.DependsOn {
		if _, ok := inputs[dep]; !ok {
			e.logger.Info("stage skipped",
				zap.String("stage", stage.Name),
				zap.String("missing_input", dep))
			return Outcome{
				Stage:    stage.Name,
				Status:   StatusSkipped,
				Reason:   fmt.Sprintf("upstream stage %s did not succeed", dep),
				Duration: time.Since(start),
			}
		}
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= stage.MaxRetries; attempt++ {
		attempts++
		payload, err := e.runAttempt(ctx, stage, inputs)
		if err == nil {
			e.logger.Debug("stage succeeded",
				zap.String("stage", stage.Name),
				zap.Int("attempts", attempts))
			return Outcome{
				Stage:    stage.Name,
				Status:   StatusSuccess,
				Payload:  payload,
				Attempts: attempts,
				Duration: time.Since(start),
			}
		}
		lastErr = err

		// A canceled parent context is not worth retrying against.
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		if !IsTransient(err) {
			break
		}
		if attempt < stage.MaxRetries {
			delay := e.backoff.Delay(attempt)
			e.logger.Warn("stage attempt failed, retrying",
				zap.String("stage", stage.Name),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(err))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = stage.MaxRetries // stop retrying
			}
		}
	}

	return e.classify(stage, lastErr, attempts, time.Since(start))
}

// runAttempt performs one invocation of the work function under the
// stage's timeout. Deadline expiry surfaces as a transient failure.
func (e *Executor) runAttempt(ctx context.Context, stage StageSpec, inputs Inputs) (Payload, error) {
	attemptCtx := ctx
	if stage.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, stage.Timeout)
		defer cancel()
	}

	payload, err := stage.Work(attemptCtx, inputs)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, Transientf("stage %s timed out after %v: %w", stage.Name, stage.Timeout, err)
		}
		return nil, err
	}
	return payload, nil
}

// classify maps an exhausted failure to soft or hard per the required flag.
// The outcome carries the stage name, last error, and attempt count so the
// aggregator can decide whether to abort.
func (e *Executor) classify(stage StageSpec, lastErr error, attempts int, elapsed time.Duration) Outcome {
	status := StatusSoftFailure
	if stage.Required {
		status = StatusHardFailure
	}

	reason := "unknown failure"
	if lastErr != nil {
		reason = lastErr.Error()
	}

	e.logger.Error("stage failed",
		zap.String("stage", stage.Name),
		zap.String("status", string(status)),
		zap.Int("attempts", attempts),
		zap.Error(lastErr))

	return Outcome{
		Stage:    stage.Name,
		Status:   status,
		Err:      lastErr,
		Reason:   reason,
		Attempts: attempts,
		Duration: elapsed,
	}
}

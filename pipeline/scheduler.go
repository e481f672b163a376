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

// scheduler.go - layered fan-out dispatch with a barrier between layers
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// Scheduler executes a pipeline layer by layer. Stages whose dependencies
// are all resolved form a layer and are dispatched concurrently; the
// scheduler waits for the whole layer before computing the next one. This
// matches the fetch / fan-out / fan-in shape of the news workflow.
type Scheduler struct {
	executor   *Executor
	maxWorkers int
	logger     *zap.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithMaxWorkers bounds the number of stages in flight within a layer.
func WithMaxWorkers(workers int) SchedulerOption {
	return func(s *Scheduler) {
		if workers > 0 {
			s.maxWorkers = workers
		}
	}
}

// WithExecutor sets the stage executor.
func WithExecutor(executor *Executor) SchedulerOption {
	return func(s *Scheduler) {
		if executor != nil {
			s.executor = executor
		}
	}
}

// WithLogger sets the scheduler's logger.
func WithLogger(logger *zap.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler creates a scheduler with options.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		maxWorkers: runtime.NumCPU(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.executor == nil {
		s.executor = NewExecutor(WithExecutorLogger(s.logger))
	}
	return s
}

// Run executes every stage of the pipeline and returns the finished Run.
// A required-stage hard failure aborts the run: in-flight siblings in the
// same layer finish naturally, every later stage is marked skipped, and no
// further external calls are issued.
func (s *Scheduler) Run(ctx context.Context, p *Pipeline) *Run {
	run := newRun(p)
	layers := p.layers()

	s.logger.Info("pipeline run started",
		zap.String("run_id", run.ID),
		zap.String("pipeline", p.Name()),
		zap.Int("stages", len(p.stages)),
		zap.Int("layers", len(layers)))

	for idx, layer := range layers {
		if aborted, _ := run.Aborted(); aborted || ctx.Err() != nil {
			s.skipLayer(run, layer, idx)
			continue
		}

		s.runLayer(ctx, p, run, layer)

		// Barrier: classify the finished layer before dispatching the next.
		for _, spec := range layer {
			o, ok := run.Outcome(spec.Name)
			if !ok {
				continue
			}
			if spec.Required && o.Status == StatusHardFailure {
				reason := fmt.Sprintf("required stage %s failed after %d attempts: %s",
					spec.Name, o.Attempts, o.FailureReason())
				run.abort(reason)
				s.logger.Error("pipeline run aborted",
					zap.String("run_id", run.ID),
					zap.String("stage", spec.Name),
					zap.String("reason", o.FailureReason()))
			}
		}

		s.logger.Debug("layer complete",
			zap.String("run_id", run.ID),
			zap.Int("layer", idx),
			zap.Int("stages", len(layer)))
	}

	if ctx.Err() != nil {
		run.abort(fmt.Sprintf("run canceled: %v", ctx.Err()))
	}
	run.finish()
	return run
}

// runLayer dispatches all stages of one layer through a bounded worker
// pool and waits for the full layer to resolve.
func (s *Scheduler) runLayer(ctx context.Context, p *Pipeline, run *Run, layer []StageSpec) {
	maxWorkers := s.maxWorkers
	if len(layer) < maxWorkers {
		maxWorkers = len(layer)
	}

	stageChan := make(chan StageSpec, len(layer))
	var wg sync.WaitGroup

	for i := 0; i < maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for spec := range stageChan {
				inputs := s.resolveInputs(p, run, spec)
				run.record(s.executor.Execute(ctx, spec, inputs))
			}
		}()
	}

	for _, spec := range layer {
		stageChan <- spec
	}
	close(stageChan)
	wg.Wait()
}

// resolveInputs gathers upstream payloads for a stage. Successful upstreams
// contribute their payload; failed or skipped optional upstreams contribute
// an explicit unavailable marker; a required upstream that did not succeed
// is left out entirely so the executor skips the stage.
func (s *Scheduler) resolveInputs(p *Pipeline, run *Run, spec StageSpec) Inputs {
	inputs := make(Inputs, len(spec.DependsOn))
	for _, dep := range spec.DependsOn {
		outcome, ok := run.Outcome(dep)
		if ok && outcome.Success() {
			inputs[dep] = outcome.Payload
			continue
		}

		depSpec, _ := p.Stage(dep)
		if depSpec.Required {
			continue // missing entry -> executor returns Skipped
		}

		reason := "did not run"
		if ok {
			reason = outcome.FailureReason()
		}
		inputs[dep] = Unavailable{Stage: dep, Reason: reason}
	}
	return inputs
}

// skipLayer records a skipped outcome for every stage in a layer that will
// never be dispatched. The outcome map stays complete even on abort.
func (s *Scheduler) skipLayer(run *Run, layer []StageSpec, idx int) {
	_, reason := run.Aborted()
	if reason == "" {
		reason = "run aborted"
	}
	for _, spec := range layer {
		run.record(Outcome{
			Stage:  spec.Name,
			Status: StatusSkipped,
			Reason: reason,
		})
	}
	s.logger.Debug("layer skipped", zap.String("run_id", run.ID), zap.Int("layer", idx))
}

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

package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run records the outcomes of one pipeline execution. It is created once
// per invocation, populated as stages resolve, and immutable once
// finished. A Run is owned by the invoking scheduler and never shared
// across concurrent executions.
type Run struct {
	ID         string
	Pipeline   string
	StartedAt  time.Time
	FinishedAt time.Time

	mu          sync.Mutex
	order       []string // declaration order of stage names
	outcomes    map[string]Outcome
	aborted     bool
	abortReason string
}

func newRun(p *Pipeline) *Run {
	order := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		order = append(order, s.Name)
	}
	return &Run{
		ID:        uuid.NewString(),
		Pipeline:  p.name,
		StartedAt: time.Now(),
		order:     order,
		outcomes:  make(map[string]Outcome, len(p.stages)),
	}
}

// record stores the single outcome for a stage. Each stage is written
// exactly once, by its own completion; no stage overwrites another's entry.
func (r *Run) record(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.outcomes[o.Stage]; exists {
		return
	}
	r.outcomes[o.Stage] = o
}

// abort marks the run aborted. The first abort reason wins.
func (r *Run) abort(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.aborted {
		return
	}
	r.aborted = true
	r.abortReason = reason
}

func (r *Run) finish() {
	r.FinishedAt = time.Now()
}

// Outcome returns the recorded outcome for a stage name.
func (r *Run) Outcome(stage string) (Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.outcomes[stage]
	return o, ok
}

// Outcomes returns a copy of the outcome map. Every stage that was
// attempted or skipped has an entry; no stage is silently omitted.
func (r *Run) Outcomes() map[string]Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Outcome, len(r.outcomes))
	for k, v := range r.outcomes {
		out[k] = v
	}
	return out
}

// StageOrder returns stage names in declaration order.
func (r *Run) StageOrder() []string {
	return append([]string(nil), r.order...)
}

// Aborted returns the abort flag and reason.
func (r *Run) Aborted() (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.aborted, r.abortReason
}

// Duration returns the wall time of the run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

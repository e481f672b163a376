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

// aggregate.go - merging run outcomes into a single ordered report
package pipeline

import (
	"time"
)

// ReportStatus is the top-level status of an aggregated report.
type ReportStatus string

const (
	// StatusComplete means every stage reached success.
	StatusComplete ReportStatus = "complete"
	// StatusPartial means at least one optional stage failed or was
	// skipped, but the run was not aborted.
	StatusPartial ReportStatus = "partial"
	// StatusAborted means a required stage hard-failed.
	StatusAborted ReportStatus = "aborted"
)

// Section is one stage's contribution to the report. Sections appear in
// stage declaration order, independent of completion order.
type Section struct {
	Stage     string        // Stage name
	Available bool          // Whether the stage produced a payload
	Payload   Payload       // The payload, when available
	Reason    string        // Failure or skip reason, when unavailable
	Attempts  int           // Work invocations for this stage
	Duration  time.Duration // Executor wall time for this stage
}

// Report is the read-only view derived from a finished run. Callers always
// receive a complete, bounded structure; the worst case is an aborted
// report with an explicit reason.
type Report struct {
	RunID       string
	Pipeline    string
	Status      ReportStatus
	Sections    []Section
	AbortReason string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Section returns the section for a stage name.
func (r Report) Section(stage string) (Section, bool) {
	for _, s := range r.Sections {
		if s.Stage == stage {
			return s, true
		}
	}
	return Section{}, false
}

// Aggregate merges all stage outcomes of a finished run into one report.
// It is a pure transformation: aggregating the same run twice yields
// identical reports, and no external I/O is performed.
//
// Policy: an aborted run reports only the stages that succeeded before the
// abort, plus the abort reason. Otherwise every non-success stage is
// rendered as an explicit unavailable section carrying its failure reason,
// never silently dropped.
func Aggregate(run *Run) Report {
	aborted, abortReason := run.Aborted()
	outcomes := run.Outcomes()

	report := Report{
		RunID:      run.ID,
		Pipeline:   run.Pipeline,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}

	allSuccess := true
	for _, name := range run.StageOrder() {
		o, ok := outcomes[name]
		if !ok {
			// Scheduler-produced runs have an entry per stage; a hand-built
			// run might not.
			o = Outcome{Stage: name, Status: StatusSkipped, Reason: "no outcome recorded"}
		}

		if o.Success() {
			report.Sections = append(report.Sections, Section{
				Stage:     name,
				Available: true,
				Payload:   o.Payload,
				Attempts:  o.Attempts,
				Duration:  o.Duration,
			})
			continue
		}

		allSuccess = false
		if aborted {
			continue
		}
		report.Sections = append(report.Sections, Section{
			Stage:    name,
			Reason:   o.FailureReason(),
			Attempts: o.Attempts,
			Duration: o.Duration,
		})
	}

	switch {
	case aborted:
		report.Status = StatusAborted
		report.AbortReason = abortReason
	case allSuccess:
		report.Status = StatusComplete
	default:
		report.Status = StatusPartial
	}
	return report
}

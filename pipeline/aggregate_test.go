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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 3: all stages succeed, sections in declaration order.
func TestAggregate_Complete(t *testing.T) {
	p, err := NewBuilder("digest").
		AddStage("fetch", constWork("articles"), nil, Required()).
		AddStage("analyze", constWork("insights"), []string{"fetch"}).
		AddStage("write", constWork("script"), []string{"fetch", "analyze"}, Required()).
		Build()
	require.NoError(t, err)

	run := testScheduler().Run(context.Background(), p)
	report := Aggregate(run)

	assert.Equal(t, StatusComplete, report.Status)
	require.Len(t, report.Sections, 3)
	assert.Equal(t, "fetch", report.Sections[0].Stage)
	assert.Equal(t, "analyze", report.Sections[1].Stage)
	assert.Equal(t, "write", report.Sections[2].Stage)
	for _, s := range report.Sections {
		assert.True(t, s.Available)
	}
	assert.Equal(t, run.ID, report.RunID)
}

// Scenario 1: fetch succeeds, analyze fails permanently, write succeeds
// using the unavailable marker. Status partial; analyze rendered as an
// explicit unavailable section, not dropped.
func TestAggregate_PartialKeepsUnavailableSections(t *testing.T) {
	p, err := NewBuilder("digest").
		AddStage("fetch", constWork("articles"), nil, Required()).
		AddStage("analyze", failWork(Permanentf("model refused")), []string{"fetch"}).
		AddStage("write", constWork("script"), []string{"fetch", "analyze"}, Required()).
		Build()
	require.NoError(t, err)

	run := testScheduler().Run(context.Background(), p)
	report := Aggregate(run)

	assert.Equal(t, StatusPartial, report.Status)
	require.Len(t, report.Sections, 3)

	fetch := report.Sections[0]
	assert.True(t, fetch.Available)
	assert.Equal(t, "articles", fetch.Payload)

	analyze := report.Sections[1]
	assert.False(t, analyze.Available)
	assert.Contains(t, analyze.Reason, "model refused")

	write := report.Sections[2]
	assert.True(t, write.Available)
	assert.Equal(t, "script", write.Payload)
}

// Scenario 2: fetch hard-fails after exhausting retries. Status aborted,
// dependents skipped, abort reason references fetch; only successful
// stages keep sections.
func TestAggregate_Aborted(t *testing.T) {
	p, err := NewBuilder("digest").
		AddStage("fetch", failWork(Transientf("newsapi down")), nil, Required(), WithRetries(3)).
		AddStage("analyze", constWork("insights"), []string{"fetch"}).
		AddStage("write", constWork("script"), []string{"fetch", "analyze"}, Required()).
		Build()
	require.NoError(t, err)

	run := testScheduler().Run(context.Background(), p)
	report := Aggregate(run)

	assert.Equal(t, StatusAborted, report.Status)
	assert.Contains(t, report.AbortReason, "fetch")
	assert.Empty(t, report.Sections)
}

func TestAggregate_AbortedKeepsEarlierSuccesses(t *testing.T) {
	p, err := NewBuilder("digest").
		AddStage("fetch", constWork("articles"), nil, Required()).
		AddStage("finance", failWork(Permanentf("quote api gone")), []string{"fetch"}, Required()).
		AddStage("write", constWork("script"), []string{"fetch", "finance"}, Required()).
		Build()
	require.NoError(t, err)

	run := testScheduler().Run(context.Background(), p)
	report := Aggregate(run)

	assert.Equal(t, StatusAborted, report.Status)
	require.Len(t, report.Sections, 1)
	assert.Equal(t, "fetch", report.Sections[0].Stage)
	assert.True(t, report.Sections[0].Available)
}

// Aggregation is a pure function: the same finished run aggregates to an
// identical report every time.
func TestAggregate_Idempotent(t *testing.T) {
	p, err := NewBuilder("digest").
		AddStage("fetch", constWork("articles"), nil, Required()).
		AddStage("analyze", failWork(Permanentf("nope")), []string{"fetch"}).
		AddStage("write", constWork("script"), []string{"fetch", "analyze"}, Required()).
		Build()
	require.NoError(t, err)

	run := testScheduler().Run(context.Background(), p)
	first := Aggregate(run)
	second := Aggregate(run)
	assert.Equal(t, first, second)
}

// Section order equals declaration order even when completion order is
// scrambled by stage latencies.
func TestAggregate_OrderIndependentOfCompletionOrder(t *testing.T) {
	slowThenFast := func(d time.Duration, payload Payload) WorkFunc {
		return func(ctx context.Context, inputs Inputs) (Payload, error) {
			time.Sleep(d)
			return payload, nil
		}
	}

	p, err := NewBuilder("digest").
		AddStage("fetch", constWork("articles"), nil, Required()).
		AddStage("analyze", slowThenFast(40*time.Millisecond, "a"), []string{"fetch"}).
		AddStage("factcheck", slowThenFast(5*time.Millisecond, "b"), []string{"fetch"}).
		AddStage("trend", slowThenFast(20*time.Millisecond, "c"), []string{"fetch"}).
		AddStage("write", constWork("script"), []string{"fetch", "analyze", "factcheck", "trend"}, Required()).
		Build()
	require.NoError(t, err)

	run := testScheduler().Run(context.Background(), p)
	report := Aggregate(run)

	names := make([]string, 0, len(report.Sections))
	for _, s := range report.Sections {
		names = append(names, s.Stage)
	}
	assert.Equal(t, []string{"fetch", "analyze", "factcheck", "trend", "write"}, names)
}

func TestReport_SectionLookup(t *testing.T) {
	report := Report{Sections: []Section{
		{Stage: "fetch", Available: true, Payload: "articles"},
		{Stage: "analyze", Reason: "failed"},
	}}

	s, ok := report.Section("analyze")
	require.True(t, ok)
	assert.False(t, s.Available)

	_, ok = report.Section("missing")
	assert.False(t, ok)
}

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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScheduler() *Scheduler {
	return NewScheduler(WithExecutor(testExecutor()))
}

func constWork(payload Payload) WorkFunc {
	return func(ctx context.Context, inputs Inputs) (Payload, error) {
		return payload, nil
	}
}

func failWork(err error) WorkFunc {
	return func(ctx context.Context, inputs Inputs) (Payload, error) {
		return nil, err
	}
}

// All stages succeed: status complete, one success outcome per stage.
func TestScheduler_AllSuccess(t *testing.T) {
	p, err := NewBuilder("digest").
		AddStage("fetch", constWork("articles"), nil, Required()).
		AddStage("analyze", constWork("insights"), []string{"fetch"}).
		AddStage("write", constWork("script"), []string{"fetch", "analyze"}, Required()).
		Build()
	require.NoError(t, err)

	run := testScheduler().Run(context.Background(), p)

	aborted, _ := run.Aborted()
	assert.False(t, aborted)
	assert.False(t, run.FinishedAt.IsZero())

	outcomes := run.Outcomes()
	require.Len(t, outcomes, 3)
	for name, o := range outcomes {
		assert.Equal(t, StatusSuccess, o.Status, name)
	}
}

// An optional stage fails permanently; downstream stages receive an
// explicit unavailable marker and the run is not aborted.
func TestScheduler_OptionalFailureDegradesDownstream(t *testing.T) {
	var writeInputs Inputs
	p, err := NewBuilder("digest").
		AddStage("fetch", constWork("articles"), nil, Required()).
		AddStage("analyze", failWork(Permanentf("model refused")), []string{"fetch"}).
		AddStage("write", func(ctx context.Context, inputs Inputs) (Payload, error) {
			writeInputs = inputs
			return "script", nil
		}, []string{"fetch", "analyze"}, Required()).
		Build()
	require.NoError(t, err)

	run := testScheduler().Run(context.Background(), p)

	aborted, _ := run.Aborted()
	assert.False(t, aborted)

	analyze, _ := run.Outcome("analyze")
	assert.Equal(t, StatusSoftFailure, analyze.Status)

	write, _ := run.Outcome("write")
	assert.Equal(t, StatusSuccess, write.Status)

	require.Contains(t, writeInputs, "analyze")
	marker, ok := writeInputs["analyze"].(Unavailable)
	require.True(t, ok)
	assert.Equal(t, "analyze", marker.Stage)
	assert.Contains(t, marker.Reason, "model refused")
	assert.Equal(t, "articles", writeInputs["fetch"])
}

// A required stage hard-fails: the run aborts, every transitively dependent
// stage is skipped, and no further external calls are issued.
func TestScheduler_RequiredFailureAborts(t *testing.T) {
	var downstreamCalls atomic.Int32
	counting := func(ctx context.Context, inputs Inputs) (Payload, error) {
		downstreamCalls.Add(1)
		return "never", nil
	}

	p, err := NewBuilder("digest").
		AddStage("fetch", failWork(Transientf("newsapi down")), nil, Required(), WithRetries(3)).
		AddStage("analyze", counting, []string{"fetch"}).
		AddStage("write", counting, []string{"fetch", "analyze"}, Required()).
		Build()
	require.NoError(t, err)

	run := testScheduler().Run(context.Background(), p)

	aborted, reason := run.Aborted()
	assert.True(t, aborted)
	assert.Contains(t, reason, "fetch")
	assert.Contains(t, reason, "4 attempts")

	fetch, _ := run.Outcome("fetch")
	assert.Equal(t, StatusHardFailure, fetch.Status)
	assert.Equal(t, 4, fetch.Attempts)

	for _, name := range []string{"analyze", "write"} {
		o, ok := run.Outcome(name)
		require.True(t, ok, name)
		assert.Equal(t, StatusSkipped, o.Status, name)
	}
	assert.EqualValues(t, 0, downstreamCalls.Load())
}

// In-flight siblings of a hard-failing required stage finish naturally;
// only later layers are cut off.
func TestScheduler_SiblingsFinishOnAbort(t *testing.T) {
	var siblingRan atomic.Bool
	p, err := NewBuilder("digest").
		AddStage("fetch", constWork("articles"), nil, Required()).
		AddStage("finance", failWork(Permanentf("quote api gone")), []string{"fetch"}, Required()).
		AddStage("trend", func(ctx context.Context, inputs Inputs) (Payload, error) {
			time.Sleep(20 * time.Millisecond)
			siblingRan.Store(true)
			return "trends", nil
		}, []string{"fetch"}).
		AddStage("write", constWork("script"), []string{"fetch", "finance", "trend"}, Required()).
		Build()
	require.NoError(t, err)

	run := testScheduler().Run(context.Background(), p)

	aborted, reason := run.Aborted()
	assert.True(t, aborted)
	assert.Contains(t, reason, "finance")
	assert.True(t, siblingRan.Load())

	trend, _ := run.Outcome("trend")
	assert.Equal(t, StatusSuccess, trend.Status)

	write, _ := run.Outcome("write")
	assert.Equal(t, StatusSkipped, write.Status)
}

// Every stage in a layer with satisfied dependencies runs concurrently.
func TestScheduler_LayerRunsConcurrently(t *testing.T) {
	const fanout = 4
	var mu sync.Mutex
	inFlight, peak := 0, 0

	tracking := func(ctx context.Context, inputs Inputs) (Payload, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(30 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return "done", nil
	}

	b := NewBuilder("fanout").AddStage("fetch", constWork("articles"), nil, Required())
	deps := []string{"analyze0", "analyze1", "analyze2", "analyze3"}
	for _, name := range deps {
		b.AddStage(name, tracking, []string{"fetch"})
	}
	b.AddStage("write", constWork("script"), append([]string{"fetch"}, deps...), Required())
	p, err := b.Build()
	require.NoError(t, err)

	sched := NewScheduler(WithExecutor(testExecutor()), WithMaxWorkers(fanout))
	run := sched.Run(context.Background(), p)

	aborted, _ := run.Aborted()
	assert.False(t, aborted)
	assert.Equal(t, fanout, peak)
}

// The recorded outcome map contains an entry for every declared stage,
// and stage order in the run matches declaration order.
func TestScheduler_NoStageSilentlyOmitted(t *testing.T) {
	p, err := NewBuilder("digest").
		AddStage("fetch", failWork(Permanentf("boom")), nil, Required()).
		AddStage("analyze", constWork("x"), []string{"fetch"}).
		AddStage("trend", constWork("x"), []string{"fetch"}).
		AddStage("write", constWork("x"), []string{"fetch"}, Required()).
		Build()
	require.NoError(t, err)

	run := testScheduler().Run(context.Background(), p)
	assert.Len(t, run.Outcomes(), 4)
	assert.Equal(t, []string{"fetch", "analyze", "trend", "write"}, run.StageOrder())
}

// A required stage downstream of a failed optional stage still runs, with
// the degraded input made explicit rather than aborting.
func TestScheduler_RequiredStageToleratesOptionalLoss(t *testing.T) {
	p, err := NewBuilder("digest").
		AddStage("fetch", constWork("articles"), nil, Required()).
		AddStage("analyze", failWork(Transientf("always failing")), []string{"fetch"}, WithRetries(1)).
		AddStage("write", func(ctx context.Context, inputs Inputs) (Payload, error) {
			if IsUnavailable(inputs["analyze"]) {
				return "script without analysis", nil
			}
			return "script", nil
		}, []string{"fetch", "analyze"}, Required()).
		Build()
	require.NoError(t, err)

	run := testScheduler().Run(context.Background(), p)

	aborted, _ := run.Aborted()
	assert.False(t, aborted)
	write, _ := run.Outcome("write")
	require.Equal(t, StatusSuccess, write.Status)
	assert.Equal(t, "script without analysis", write.Payload)
}

func TestScheduler_CanceledContextAbortsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, err := NewBuilder("digest").
		AddStage("fetch", constWork("articles"), nil, Required()).
		AddStage("write", constWork("script"), []string{"fetch"}, Required()).
		Build()
	require.NoError(t, err)

	run := testScheduler().Run(ctx, p)
	aborted, reason := run.Aborted()
	assert.True(t, aborted)
	assert.Contains(t, reason, "canceled")
	assert.Len(t, run.Outcomes(), 2)
}

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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopWork(ctx context.Context, inputs Inputs) (Payload, error) {
	return "ok", nil
}

func TestBuilder_ValidPipeline(t *testing.T) {
	p, err := NewBuilder("digest").
		AddStage("fetch", noopWork, nil, Required()).
		AddStage("analyze", noopWork, []string{"fetch"}).
		AddStage("write", noopWork, []string{"fetch", "analyze"}, Required()).
		Build()
	require.NoError(t, err)

	stages := p.Stages()
	require.Len(t, stages, 3)
	assert.Equal(t, []string{"fetch", "analyze", "write"},
		[]string{stages[0].Name, stages[1].Name, stages[2].Name})

	fetch, ok := p.Stage("fetch")
	require.True(t, ok)
	assert.True(t, fetch.Required)

	analyze, ok := p.Stage("analyze")
	require.True(t, ok)
	assert.False(t, analyze.Required)
}

func TestBuilder_RejectsCycle(t *testing.T) {
	_, err := NewBuilder("cyclic").
		AddStage("a", noopWork, []string{"c"}).
		AddStage("b", noopWork, []string{"a"}).
		AddStage("c", noopWork, []string{"b"}).
		Build()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Error(), "cycle")
}

func TestBuilder_RejectsSelfDependency(t *testing.T) {
	_, err := NewBuilder("selfdep").
		AddStage("a", noopWork, []string{"a"}).
		Build()
	require.Error(t, err)
}

func TestBuilder_RejectsMissingDependency(t *testing.T) {
	_, err := NewBuilder("dangling").
		AddStage("write", noopWork, []string{"fetch"}).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-existent")
}

func TestBuilder_RejectsDuplicateStage(t *testing.T) {
	_, err := NewBuilder("dup").
		AddStage("fetch", noopWork, nil).
		AddStage("fetch", noopWork, nil).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestBuilder_RejectsEmptyPipeline(t *testing.T) {
	_, err := NewBuilder("empty").Build()
	require.Error(t, err)
}

func TestBuilder_RejectsNilWork(t *testing.T) {
	_, err := NewBuilder("nowork").
		AddStage("fetch", nil, nil).
		Build()
	require.Error(t, err)
}

func TestPipeline_LayersGroupIndependentStages(t *testing.T) {
	p, err := NewBuilder("digest").
		AddStage("fetch", noopWork, nil, Required()).
		AddStage("analyze", noopWork, []string{"fetch"}).
		AddStage("factcheck", noopWork, []string{"fetch"}).
		AddStage("trend", noopWork, []string{"fetch"}).
		AddStage("write", noopWork, []string{"fetch", "analyze", "factcheck", "trend"}, Required()).
		Build()
	require.NoError(t, err)

	layers := p.layers()
	require.Len(t, layers, 3)
	assert.Len(t, layers[0], 1)
	assert.Equal(t, "fetch", layers[0][0].Name)
	assert.Len(t, layers[1], 3)
	assert.Len(t, layers[2], 1)
	assert.Equal(t, "write", layers[2][0].Name)
}

// Layer computation must terminate with every stage assigned, regardless
// of declaration order relative to dependency order.
func TestPipeline_LayersWithReversedDeclarationOrder(t *testing.T) {
	p, err := NewBuilder("reversed").
		AddStage("write", noopWork, []string{"analyze"}).
		AddStage("analyze", noopWork, []string{"fetch"}).
		AddStage("fetch", noopWork, nil).
		Build()
	require.NoError(t, err)

	layers := p.layers()
	require.Len(t, layers, 3)
	assert.Equal(t, "fetch", layers[0][0].Name)
	assert.Equal(t, "analyze", layers[1][0].Name)
	assert.Equal(t, "write", layers[2][0].Name)

	total := 0
	for _, l := range layers {
		total += len(l)
	}
	assert.Equal(t, 3, total)
}

func TestBuilder_StageOptions(t *testing.T) {
	p, err := NewBuilder("opts").
		AddStage("fetch", noopWork, nil, Required(), WithRetries(3), WithTimeout(5)).
		Build()
	require.NoError(t, err)

	fetch, _ := p.Stage("fetch")
	assert.Equal(t, 3, fetch.MaxRetries)
	assert.EqualValues(t, 5, fetch.Timeout)
}

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

package agents

import (
	"context"

	"github.com/aaronlmathis/agenttoast/news"
)

const analystInstructions = `You are a news analyst. Given a category, a set of articles,
and a summary, identify the non-obvious insights, underlying trends, and
likely implications. Respond with a JSON object:
{"insights": "...", "trends": ["...", "..."], "implications": "..."}
Match the requested depth: basic gives one insight per story, moderate
connects stories to each other, deep connects stories to longer arcs.`

// Analysis depths accepted by the analyst agent.
const (
	DepthBasic    = "basic"
	DepthModerate = "moderate"
	DepthDeep     = "deep"
)

// AnalystInput carries the upstream news digest into the analysis stage.
type AnalystInput struct {
	Category string         `json:"category"`
	Summary  string         `json:"summary"`
	Articles []news.Article `json:"articles"`
	Depth    string         `json:"depth"`
}

// Analysis is the analyze stage's payload.
type Analysis struct {
	Insights     string   `json:"insights"`
	Trends       []string `json:"trends,omitempty"`
	Implications string   `json:"implications,omitempty"`
}

// AnalystAgent extracts insights from the day's coverage.
type AnalystAgent struct {
	Agent
}

// NewAnalystAgent creates the analysis agent.
func NewAnalystAgent(model string, temperature float64) *AnalystAgent {
	return &AnalystAgent{Agent: newAgent("analyst", analystInstructions, model, temperature)}
}

// Analyze runs the analysis at the requested depth. An unknown depth
// falls back to moderate.
func (a *AnalystAgent) Analyze(ctx context.Context, c Completer, input AnalystInput) (*Analysis, error) {
	switch input.Depth {
	case DepthBasic, DepthModerate, DepthDeep:
	default:
		input.Depth = DepthModerate
	}

	raw, err := a.complete(ctx, c, mustJSON(input))
	if err != nil {
		return nil, err
	}

	var parsed Analysis
	if decodeErr := decodeJSON(raw, &parsed); decodeErr == nil && parsed.Insights != "" {
		return &parsed, nil
	}
	return &Analysis{Insights: raw}, nil
}

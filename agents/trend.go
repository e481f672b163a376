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

const trendInstructions = `You are a trend analyst. Given a category, a summary, and a
set of articles, identify the emerging trends across stories and any
meta-trends that tie them together. Respond with a JSON object:
{"trends": [{"name": "...", "description": "...", "supporting_stories": ["...", "..."]}],
 "meta_trends": ["...", "..."], "summary": "..."}`

// TrendInput carries the upstream digest into the trend stage.
type TrendInput struct {
	Category string         `json:"category"`
	Summary  string         `json:"summary"`
	Articles []news.Article `json:"articles"`
}

// Trend is one identified trend with the stories supporting it.
type Trend struct {
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	SupportingStories []string `json:"supporting_stories,omitempty"`
}

// TrendReport is the trend stage's payload.
type TrendReport struct {
	Trends     []Trend  `json:"trends,omitempty"`
	MetaTrends []string `json:"meta_trends,omitempty"`
	Summary    string   `json:"summary"`
}

// TrendAgent surfaces emerging trends across the day's stories.
type TrendAgent struct {
	Agent
}

// NewTrendAgent creates the trend analysis agent.
func NewTrendAgent(model string, temperature float64) *TrendAgent {
	return &TrendAgent{Agent: newAgent("trend", trendInstructions, model, temperature)}
}

// Identify extracts trends from the digest.
func (a *TrendAgent) Identify(ctx context.Context, c Completer, input TrendInput) (*TrendReport, error) {
	raw, err := a.complete(ctx, c, mustJSON(input))
	if err != nil {
		return nil, err
	}

	var parsed TrendReport
	if decodeErr := decodeJSON(raw, &parsed); decodeErr == nil && (parsed.Summary != "" || len(parsed.Trends) > 0) {
		return &parsed, nil
	}
	return &TrendReport{Summary: raw}, nil
}

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

const newsInstructions = `You are a news summarization assistant. Given a list of news
articles, produce a concise, factual summary of the day's coverage.
Respond with a JSON object:
{"summary": "...", "headlines": ["...", "..."]}
The summary should be 3-5 sentences, neutral in tone, and mention the
most significant stories first.`

// NewsSummary is the fetch stage's payload: the raw articles plus the
// model's digest of them.
type NewsSummary struct {
	Category     string         `json:"category"`
	ArticleCount int            `json:"article_count"`
	Summary      string         `json:"summary"`
	Headlines    []string       `json:"headlines,omitempty"`
	Articles     []news.Article `json:"articles"`
}

// NewsAgent summarizes fetched articles.
type NewsAgent struct {
	Agent
}

// NewNewsAgent creates the news summarization agent.
func NewNewsAgent(model string, temperature float64) *NewsAgent {
	return &NewsAgent{Agent: newAgent("news", newsInstructions, model, temperature)}
}

// Summarize digests the fetched articles for a category.
func (a *NewsAgent) Summarize(ctx context.Context, c Completer, category string, articles []news.Article) (*NewsSummary, error) {
	prompt := mustJSON(map[string]interface{}{
		"category": category,
		"articles": articles,
	})

	raw, err := a.complete(ctx, c, prompt)
	if err != nil {
		return nil, err
	}

	result := &NewsSummary{
		Category:     category,
		ArticleCount: len(articles),
		Articles:     articles,
	}
	var parsed struct {
		Summary   string   `json:"summary"`
		Headlines []string `json:"headlines"`
	}
	if decodeErr := decodeJSON(raw, &parsed); decodeErr == nil && parsed.Summary != "" {
		result.Summary = parsed.Summary
		result.Headlines = parsed.Headlines
	} else {
		// The model ignored the schema; its prose is still a usable summary.
		result.Summary = raw
	}
	return result, nil
}

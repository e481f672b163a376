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

	"github.com/aaronlmathis/agenttoast/finance"
)

const financeInstructions = `You are a market commentator. Given live quote data for a
set of symbols and a summary of the day's news, write a short commentary
connecting the market moves to the news where a connection exists.
Respond with a JSON object:
{"commentary": "...", "movers": [{"symbol": "...", "note": "..."}]}`

// FinanceInput carries the quote data and news context into the finance stage.
type FinanceInput struct {
	Quotes      []finance.StockInfo `json:"quotes"`
	NewsSummary string              `json:"news_summary,omitempty"`
}

// Mover is one symbol worth calling out.
type Mover struct {
	Symbol string `json:"symbol"`
	Note   string `json:"note"`
}

// FinanceCommentary is the finance stage's payload.
type FinanceCommentary struct {
	Commentary string              `json:"commentary"`
	Movers     []Mover             `json:"movers,omitempty"`
	Quotes     []finance.StockInfo `json:"quotes,omitempty"`
}

// FinanceAgent narrates market data alongside the news.
type FinanceAgent struct {
	Agent
}

// NewFinanceAgent creates the market commentary agent.
func NewFinanceAgent(model string, temperature float64) *FinanceAgent {
	return &FinanceAgent{Agent: newAgent("finance", financeInstructions, model, temperature)}
}

// Comment writes commentary over the quotes, keeping the raw quote data
// in the payload for the report.
func (a *FinanceAgent) Comment(ctx context.Context, c Completer, input FinanceInput) (*FinanceCommentary, error) {
	raw, err := a.complete(ctx, c, mustJSON(input))
	if err != nil {
		return nil, err
	}

	result := &FinanceCommentary{Quotes: input.Quotes}
	var parsed FinanceCommentary
	if decodeErr := decodeJSON(raw, &parsed); decodeErr == nil && parsed.Commentary != "" {
		result.Commentary = parsed.Commentary
		result.Movers = parsed.Movers
	} else {
		result.Commentary = raw
	}
	return result, nil
}

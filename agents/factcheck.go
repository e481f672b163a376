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

const factCheckerInstructions = `You are a fact-checking assistant. Extract the most
significant verifiable claims from the summary and articles, at most the
requested number, and assess each one against the article contents.
Respond with a JSON object:
{"verifications": [{"claim": "...", "verdict": "supported|unsupported|unclear", "explanation": "..."}], "summary": "..."}`

// DefaultMaxClaims bounds the number of claims checked per run.
const DefaultMaxClaims = 5

// FactCheckInput carries the upstream digest into the fact-check stage.
type FactCheckInput struct {
	Summary   string         `json:"summary"`
	Articles  []news.Article `json:"articles"`
	MaxClaims int            `json:"max_claims"`
}

// Verification is one checked claim.
type Verification struct {
	Claim       string `json:"claim"`
	Verdict     string `json:"verdict"`
	Explanation string `json:"explanation,omitempty"`
}

// FactCheck is the factcheck stage's payload.
type FactCheck struct {
	Verifications []Verification `json:"verifications,omitempty"`
	Summary       string         `json:"summary"`
}

// FactCheckerAgent verifies claims in the news digest.
type FactCheckerAgent struct {
	Agent
}

// NewFactCheckerAgent creates the fact-checking agent.
func NewFactCheckerAgent(model string, temperature float64) *FactCheckerAgent {
	return &FactCheckerAgent{Agent: newAgent("factchecker", factCheckerInstructions, model, temperature)}
}

// Check verifies up to input.MaxClaims claims.
func (a *FactCheckerAgent) Check(ctx context.Context, c Completer, input FactCheckInput) (*FactCheck, error) {
	if input.MaxClaims <= 0 {
		input.MaxClaims = DefaultMaxClaims
	}

	raw, err := a.complete(ctx, c, mustJSON(input))
	if err != nil {
		return nil, err
	}

	var parsed FactCheck
	if decodeErr := decodeJSON(raw, &parsed); decodeErr == nil && (parsed.Summary != "" || len(parsed.Verifications) > 0) {
		if len(parsed.Verifications) > input.MaxClaims {
			parsed.Verifications = parsed.Verifications[:input.MaxClaims]
		}
		return &parsed, nil
	}
	return &FactCheck{Summary: raw}, nil
}

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
	"strings"
)

const writerInstructions = `You are a script writer for a short audio news digest. Turn the
provided summary and any available analysis, fact-check, trend, and
market sections into a single spoken-word script. Sections marked as
unavailable must simply be left out; never mention that something is
missing. Respond with plain text only, no JSON, no markdown, ready to
be read aloud. Stay within the requested word budget.`

// Script styles accepted by the writer agent.
const (
	StyleConversational = "conversational"
	StyleFormal         = "formal"
	StyleCasual         = "casual"
)

// DefaultMaxWords bounds the script length when the caller does not.
const DefaultMaxWords = 400

// WriterInput carries every upstream section into the write stage. Optional
// sections that failed arrive as short "unavailable" notes rather than
// content; the prompt tells the model to drop them.
type WriterInput struct {
	Category  string `json:"category"`
	Summary   string `json:"summary"`
	Analysis  string `json:"analysis,omitempty"`
	FactCheck string `json:"fact_check,omitempty"`
	Trends    string `json:"trends,omitempty"`
	Finance   string `json:"finance,omitempty"`
	Style     string `json:"style"`
	MaxWords  int    `json:"max_words"`
}

// Script is the write stage's payload.
type Script struct {
	Text      string `json:"text"`
	Style     string `json:"style"`
	WordCount int    `json:"word_count"`
}

// WriterAgent composes the final spoken-word script.
type WriterAgent struct {
	Agent
}

// NewWriterAgent creates the script-writing agent.
func NewWriterAgent(model string, temperature float64) *WriterAgent {
	return &WriterAgent{Agent: newAgent("writer", writerInstructions, model, temperature)}
}

// Write composes the script from whatever sections survived upstream.
func (a *WriterAgent) Write(ctx context.Context, c Completer, input WriterInput) (*Script, error) {
	switch input.Style {
	case StyleConversational, StyleFormal, StyleCasual:
	default:
		input.Style = StyleConversational
	}
	if input.MaxWords <= 0 {
		input.MaxWords = DefaultMaxWords
	}

	raw, err := a.complete(ctx, c, mustJSON(input))
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(raw)
	return &Script{
		Text:      text,
		Style:     input.Style,
		WordCount: len(strings.Fields(text)),
	}, nil
}

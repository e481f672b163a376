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

// agent.go - shared agent record and the chat-completion boundary
package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"

	"github.com/aaronlmathis/agenttoast/pipeline"
)

// Package agents defines the LLM-backed stages of the news workflow.
//
// An agent is a capability record: a name, an instruction prompt, and model
// settings, executed through the Completer boundary. There is no agent
// class hierarchy; the per-agent behavior is its prompt plus a typed
// output parser with a plain-text fallback.

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o"

// DefaultTemperature is used when no temperature is configured.
const DefaultTemperature = 0.1

// Completer abstracts the chat-completion call so agents can be exercised
// against a fake in tests.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is one chat-completion invocation.
type CompletionRequest struct {
	Model        string
	Temperature  float64
	Instructions string // System prompt
	Input        string // User message
}

// Agent holds the settings shared by every LLM-backed stage.
type Agent struct {
	Name         string
	Instructions string
	Model        string
	Temperature  float64
}

func newAgent(name, instructions, model string, temperature float64) Agent {
	if model == "" {
		model = DefaultModel
	}
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return Agent{
		Name:         name,
		Instructions: instructions,
		Model:        model,
		Temperature:  temperature,
	}
}

// complete runs one completion with the agent's settings.
func (a Agent) complete(ctx context.Context, c Completer, input string) (string, error) {
	out, err := c.Complete(ctx, CompletionRequest{
		Model:        a.Model,
		Temperature:  a.Temperature,
		Instructions: a.Instructions,
		Input:        input,
	})
	if err != nil {
		return "", fmt.Errorf("agent %s: %w", a.Name, err)
	}
	return out, nil
}

// OpenAICompleter is the production Completer backed by the OpenAI chat
// completions API.
type OpenAICompleter struct {
	client openai.Client
}

// NewOpenAICompleter wraps an OpenAI client.
func NewOpenAICompleter(client openai.Client) *OpenAICompleter {
	return &OpenAICompleter{client: client}
}

// Complete performs the chat completion. Rate limits and server-side
// errors are transient; everything else is permanent.
func (c *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Temperature: openai.Float(req.Temperature),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.Instructions),
			openai.UserMessage(req.Input),
		},
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", pipeline.Permanentf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 || apiErr.StatusCode >= 500 {
			return pipeline.Transient(err)
		}
		return pipeline.Permanent(err)
	}
	// Network-level failures are retryable.
	return pipeline.Transient(err)
}

// decodeJSON parses a model response into v, tolerating markdown code
// fences and prose around the JSON object. It returns an error only when
// no JSON object can be extracted; callers fall back to plain text then.
func decodeJSON(raw string, v interface{}) error {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in response")
	}
	return json.Unmarshal([]byte(cleaned[start:end+1]), v)
}

// mustJSON marshals a prompt payload. Prompt payloads are plain structs
// and maps, which cannot fail to marshal.
func mustJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

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

// Package tts converts digest scripts to audio via the OpenAI speech API.
package tts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
)

// Voices supported by the speech API.
var Voices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

// DefaultVoice is used when the caller does not pick one.
const DefaultVoice = "alloy"

// SpeechError provides structured error information for speech synthesis.
type SpeechError struct {
	Op  string // Operation that failed (e.g., "synthesize", "save")
	Err error  // Underlying error
}

func (e *SpeechError) Error() string {
	return fmt.Sprintf("tts %s: %v", e.Op, e.Err)
}

func (e *SpeechError) Unwrap() error {
	return e.Err
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithOutputDir sets the directory audio files are written to. The default
// is output/YYYY-MM-DD under the working directory.
func WithOutputDir(dir string) SynthesizerOption {
	return func(s *Synthesizer) {
		s.outputDir = dir
	}
}

// WithModel overrides the speech model.
func WithModel(model string) SynthesizerOption {
	return func(s *Synthesizer) {
		s.model = model
	}
}

// Synthesizer turns text into mp3 files.
type Synthesizer struct {
	client    openai.Client
	model     string
	outputDir string
}

// NewSynthesizer creates a synthesizer around an OpenAI client.
func NewSynthesizer(client openai.Client, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		client: client,
		model:  string(openai.SpeechModelTTS1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidVoice reports whether voice is one of the supported voices.
func ValidVoice(voice string) bool {
	for _, v := range Voices {
		if v == voice {
			return true
		}
	}
	return false
}

// Speak synthesizes text with the given voice and writes the mp3 to disk,
// returning the file path.
func (s *Synthesizer) Speak(ctx context.Context, text, voice string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &SpeechError{Op: "synthesize", Err: fmt.Errorf("empty input text")}
	}
	if voice == "" {
		voice = DefaultVoice
	}
	if !ValidVoice(voice) {
		return "", &SpeechError{Op: "synthesize", Err: fmt.Errorf("unsupported voice %q", voice)}
	}

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(s.model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return "", &SpeechError{Op: "synthesize", Err: err}
	}
	defer resp.Body.Close()

	path := s.outputPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", &SpeechError{Op: "save", Err: err}
	}

	file, err := os.Create(path)
	if err != nil {
		return "", &SpeechError{Op: "save", Err: err}
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		os.Remove(path)
		return "", &SpeechError{Op: "save", Err: err}
	}
	return path, nil
}

// outputPath builds the dated default location used by the CLI:
// output/YYYY-MM-DD/news_summary_<unix-ts>.mp3.
func (s *Synthesizer) outputPath() string {
	dir := s.outputDir
	if dir == "" {
		dir = filepath.Join("output", time.Now().Format("2006-01-02"))
	}
	return filepath.Join(dir, fmt.Sprintf("news_summary_%d.mp3", time.Now().Unix()))
}

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

// Package agenttoast wires the news, analysis, and writing stages into a
// partial-failure aggregating pipeline and drives one digest run end to
// end: fetch, fan out, write, render, and optionally speak and persist.
package agenttoast

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aaronlmathis/agenttoast/agents"
	"github.com/aaronlmathis/agenttoast/config"
	"github.com/aaronlmathis/agenttoast/finance"
	"github.com/aaronlmathis/agenttoast/news"
	"github.com/aaronlmathis/agenttoast/pipeline"
	"github.com/aaronlmathis/agenttoast/report"
	"github.com/aaronlmathis/agenttoast/storage"
	"github.com/aaronlmathis/agenttoast/tts"
)

// Stage names. The report renderer keys its section titles off these.
const (
	StageFetch     = "fetch-news"
	StageAnalyze   = "analyze"
	StageFactCheck = "fact-check"
	StageTrends    = "trends"
	StageMarkets   = "market-data"
	StageWrite     = "write"
)

// cacheMaxAge is how long cached headlines stay fresh per category.
const cacheMaxAge = 30 * time.Minute

// RunRequest describes one digest run.
type RunRequest struct {
	Category  string   // News category ("all" fetches across categories)
	Count     int      // Articles to fetch, clamped to 1..10 by the client
	Country   string   // Two-letter country code
	Sources   string   // Comma-separated source ids; overrides country/category
	Query     string   // Optional keyword filter
	Voice     string   // TTS voice
	Style     string   // Script style (conversational, formal, casual)
	Depth     string   // Analysis depth (basic, moderate, deep)
	MaxWords  int      // Script word budget
	MaxClaims int      // Fact-check claim budget
	Symbols   []string // Ticker symbols for market commentary
}

// Result is what one run produced.
type Result struct {
	Report     pipeline.Report
	ReportPath string // Rendered Markdown location
	AudioPath  string // Synthesized mp3 location, empty when audio was skipped
	Script     string // Final script text, empty on abort
}

// Coordinator owns the agents, provider clients, and optional stores,
// and assembles the stage graph for each run.
type Coordinator struct {
	cfg       *config.Config
	completer agents.Completer
	newsAPI   *news.Client
	marketAPI *finance.Client
	speech    *tts.Synthesizer
	runStore  *storage.RunStore
	cache     *storage.ArticleCache
	archiver  *storage.Archiver
	scheduler *pipeline.Scheduler
	logger    *zap.Logger

	newsAgent   *agents.NewsAgent
	analyst     *agents.AnalystAgent
	factChecker *agents.FactCheckerAgent
	trendAgent  *agents.TrendAgent
	finAgent    *agents.FinanceAgent
	writer      *agents.WriterAgent
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCompleter sets the chat-completion backend.
func WithCompleter(c agents.Completer) CoordinatorOption {
	return func(co *Coordinator) {
		co.completer = c
	}
}

// WithNewsClient sets the headlines client.
func WithNewsClient(c *news.Client) CoordinatorOption {
	return func(co *Coordinator) {
		co.newsAPI = c
	}
}

// WithFinanceClient sets the market data client.
func WithFinanceClient(c *finance.Client) CoordinatorOption {
	return func(co *Coordinator) {
		co.marketAPI = c
	}
}

// WithSynthesizer sets the speech backend. Nil disables audio.
func WithSynthesizer(s *tts.Synthesizer) CoordinatorOption {
	return func(co *Coordinator) {
		co.speech = s
	}
}

// WithRunStore sets the run history store. Nil disables persistence.
func WithRunStore(s *storage.RunStore) CoordinatorOption {
	return func(co *Coordinator) {
		co.runStore = s
	}
}

// WithArticleCache sets the headline cache. Nil disables caching.
func WithArticleCache(c *storage.ArticleCache) CoordinatorOption {
	return func(co *Coordinator) {
		co.cache = c
	}
}

// WithArchiver sets the artifact archiver. Nil disables archiving.
func WithArchiver(a *storage.Archiver) CoordinatorOption {
	return func(co *Coordinator) {
		co.archiver = a
	}
}

// WithScheduler overrides the default scheduler.
func WithScheduler(s *pipeline.Scheduler) CoordinatorOption {
	return func(co *Coordinator) {
		co.scheduler = s
	}
}

// WithCoordinatorLogger sets the logger.
func WithCoordinatorLogger(l *zap.Logger) CoordinatorOption {
	return func(co *Coordinator) {
		if l != nil {
			co.logger = l
		}
	}
}

// NewCoordinator creates a coordinator. A Completer and a news client are
// required; everything else degrades to disabled when absent.
func NewCoordinator(cfg *config.Config, opts ...CoordinatorOption) (*Coordinator, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	co := &Coordinator{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(co)
	}
	if co.completer == nil {
		return nil, fmt.Errorf("coordinator: a completer is required")
	}
	if co.newsAPI == nil {
		return nil, fmt.Errorf("coordinator: a news client is required")
	}
	if co.scheduler == nil {
		co.scheduler = pipeline.NewScheduler(
			pipeline.WithMaxWorkers(cfg.MaxWorkers),
			pipeline.WithLogger(co.logger),
		)
	}

	co.newsAgent = agents.NewNewsAgent(cfg.Model, cfg.Temperature)
	co.analyst = agents.NewAnalystAgent(cfg.Model, cfg.Temperature)
	co.factChecker = agents.NewFactCheckerAgent(cfg.Model, cfg.Temperature)
	co.trendAgent = agents.NewTrendAgent(cfg.Model, cfg.Temperature)
	co.finAgent = agents.NewFinanceAgent(cfg.Model, cfg.Temperature)
	co.writer = agents.NewWriterAgent(cfg.Model, cfg.Temperature)
	return co, nil
}

// Run executes one digest run and renders its artifacts. The returned
// error covers assembly and rendering problems only; stage failures are
// reported inside the Result, never as an error.
func (co *Coordinator) Run(ctx context.Context, req RunRequest) (*Result, error) {
	p, err := co.buildPipeline(req)
	if err != nil {
		return nil, err
	}

	run := co.scheduler.Run(ctx, p)
	rep := pipeline.Aggregate(run)

	result := &Result{Report: rep}
	if sec, ok := rep.Section(StageWrite); ok && sec.Available {
		if script, ok := sec.Payload.(*agents.Script); ok {
			result.Script = script.Text
		}
	}

	path, err := report.Save(&rep, req.Category, co.cfg.OutputDir)
	if err != nil {
		return result, err
	}
	result.ReportPath = path

	if co.cfg.Features.Audio && co.speech != nil && result.Script != "" {
		audioPath, speakErr := co.speech.Speak(ctx, result.Script, req.Voice)
		if speakErr != nil {
			co.logger.Warn("audio synthesis failed", zap.Error(speakErr))
		} else {
			result.AudioPath = audioPath
		}
	}

	co.persist(ctx, result)
	return result, nil
}

// persist records the run and archives artifacts. Storage problems are
// logged, not returned; the digest already exists on disk at this point.
func (co *Coordinator) persist(ctx context.Context, result *Result) {
	if co.runStore != nil {
		if err := co.runStore.SaveRun(ctx, &result.Report); err != nil {
			co.logger.Warn("run history write failed", zap.Error(err))
		}
	}
	if co.archiver != nil {
		for _, p := range []string{result.ReportPath, result.AudioPath} {
			if p == "" {
				continue
			}
			if _, err := co.archiver.ArchiveFile(ctx, p); err != nil {
				co.logger.Warn("artifact archive failed", zap.String("path", p), zap.Error(err))
			}
		}
	}
}

// buildPipeline assembles the stage graph for one request: a required
// fetch, the enabled optional analyses fanned out behind it, and a
// required write joining whatever survived.
func (co *Coordinator) buildPipeline(req RunRequest) (*pipeline.Pipeline, error) {
	features := co.cfg.Features
	timeout := co.cfg.StageTimeout
	retries := co.cfg.MaxRetries

	b := pipeline.NewBuilder("news-digest")
	b.AddStage(StageFetch, co.fetchWork(req), nil,
		pipeline.Required(), pipeline.WithTimeout(timeout), pipeline.WithRetries(retries))

	writeDeps := []string{StageFetch}

	if features.Analysis {
		b.AddStage(StageAnalyze, co.analyzeWork(req), []string{StageFetch},
			pipeline.WithTimeout(timeout), pipeline.WithRetries(retries))
		writeDeps = append(writeDeps, StageAnalyze)
	}
	if features.FactCheck {
		b.AddStage(StageFactCheck, co.factCheckWork(req), []string{StageFetch},
			pipeline.WithTimeout(timeout), pipeline.WithRetries(retries))
		writeDeps = append(writeDeps, StageFactCheck)
	}
	if features.Trends {
		b.AddStage(StageTrends, co.trendWork(req), []string{StageFetch},
			pipeline.WithTimeout(timeout), pipeline.WithRetries(retries))
		writeDeps = append(writeDeps, StageTrends)
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols = features.Symbols
	}
	if features.Markets && co.marketAPI != nil && len(symbols) > 0 {
		b.AddStage(StageMarkets, co.marketWork(symbols), []string{StageFetch},
			pipeline.WithTimeout(timeout), pipeline.WithRetries(retries))
		writeDeps = append(writeDeps, StageMarkets)
	}

	b.AddStage(StageWrite, co.writeWork(req), writeDeps,
		pipeline.Required(), pipeline.WithTimeout(timeout), pipeline.WithRetries(retries))

	return b.Build()
}

// fetchWork pulls headlines (through the cache when configured) and
// summarizes them.
func (co *Coordinator) fetchWork(req RunRequest) pipeline.WorkFunc {
	return func(ctx context.Context, _ pipeline.Inputs) (pipeline.Payload, error) {
		articles, err := co.fetchArticles(ctx, req)
		if err != nil {
			return nil, err
		}
		return co.newsAgent.Summarize(ctx, co.completer, req.Category, articles)
	}
}

func (co *Coordinator) fetchArticles(ctx context.Context, req RunRequest) ([]news.Article, error) {
	if co.cache != nil {
		cached, hit, err := co.cache.Get(ctx, req.Category, cacheMaxAge)
		if err != nil {
			co.logger.Warn("headline cache read failed", zap.Error(err))
		} else if hit {
			co.logger.Debug("headline cache hit", zap.String("category", req.Category))
			return cached, nil
		}
	}

	articles, err := co.newsAPI.TopHeadlines(ctx, news.HeadlinesRequest{
		Category: req.Category,
		Count:    req.Count,
		Country:  req.Country,
		Sources:  req.Sources,
		Query:    req.Query,
	})
	if err != nil {
		return nil, err
	}

	if co.cache != nil {
		if err := co.cache.Put(ctx, req.Category, articles); err != nil {
			co.logger.Warn("headline cache write failed", zap.Error(err))
		}
	}
	return articles, nil
}

func (co *Coordinator) analyzeWork(req RunRequest) pipeline.WorkFunc {
	return func(ctx context.Context, inputs pipeline.Inputs) (pipeline.Payload, error) {
		summary, ok := inputs[StageFetch].(*agents.NewsSummary)
		if !ok {
			return nil, pipeline.Permanentf("fetch payload has unexpected type %T", inputs[StageFetch])
		}
		return co.analyst.Analyze(ctx, co.completer, agents.AnalystInput{
			Category: summary.Category,
			Summary:  summary.Summary,
			Articles: summary.Articles,
			Depth:    req.Depth,
		})
	}
}

func (co *Coordinator) factCheckWork(req RunRequest) pipeline.WorkFunc {
	return func(ctx context.Context, inputs pipeline.Inputs) (pipeline.Payload, error) {
		summary, ok := inputs[StageFetch].(*agents.NewsSummary)
		if !ok {
			return nil, pipeline.Permanentf("fetch payload has unexpected type %T", inputs[StageFetch])
		}
		return co.factChecker.Check(ctx, co.completer, agents.FactCheckInput{
			Summary:   summary.Summary,
			Articles:  summary.Articles,
			MaxClaims: req.MaxClaims,
		})
	}
}

func (co *Coordinator) trendWork(req RunRequest) pipeline.WorkFunc {
	return func(ctx context.Context, inputs pipeline.Inputs) (pipeline.Payload, error) {
		summary, ok := inputs[StageFetch].(*agents.NewsSummary)
		if !ok {
			return nil, pipeline.Permanentf("fetch payload has unexpected type %T", inputs[StageFetch])
		}
		return co.trendAgent.Identify(ctx, co.completer, agents.TrendInput{
			Category: summary.Category,
			Summary:  summary.Summary,
			Articles: summary.Articles,
		})
	}
}

func (co *Coordinator) marketWork(symbols []string) pipeline.WorkFunc {
	return func(ctx context.Context, inputs pipeline.Inputs) (pipeline.Payload, error) {
		quotes, err := co.marketAPI.Quotes(ctx, symbols)
		if err != nil {
			return nil, err
		}
		input := agents.FinanceInput{Quotes: quotes}
		if summary, ok := inputs[StageFetch].(*agents.NewsSummary); ok {
			input.NewsSummary = summary.Summary
		}
		return co.finAgent.Comment(ctx, co.completer, input)
	}
}

// writeWork joins whatever upstream sections survived. Failed optional
// upstreams arrive as unavailable markers and contribute nothing to the
// script.
func (co *Coordinator) writeWork(req RunRequest) pipeline.WorkFunc {
	return func(ctx context.Context, inputs pipeline.Inputs) (pipeline.Payload, error) {
		summary, ok := inputs[StageFetch].(*agents.NewsSummary)
		if !ok {
			return nil, pipeline.Permanentf("fetch payload has unexpected type %T", inputs[StageFetch])
		}

		input := agents.WriterInput{
			Category: summary.Category,
			Summary:  summary.Summary,
			Style:    req.Style,
			MaxWords: req.MaxWords,
		}
		if a, ok := inputs[StageAnalyze].(*agents.Analysis); ok {
			input.Analysis = a.Insights
		}
		if f, ok := inputs[StageFactCheck].(*agents.FactCheck); ok {
			input.FactCheck = f.Summary
		}
		if tr, ok := inputs[StageTrends].(*agents.TrendReport); ok {
			input.Trends = tr.Summary
		}
		if fin, ok := inputs[StageMarkets].(*agents.FinanceCommentary); ok {
			input.Finance = fin.Commentary
		}
		return co.writer.Write(ctx, co.completer, input)
	}
}

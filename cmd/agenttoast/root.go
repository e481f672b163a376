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

package main

import (
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aaronlmathis/agenttoast"
	"github.com/aaronlmathis/agenttoast/agents"
	"github.com/aaronlmathis/agenttoast/config"
	"github.com/aaronlmathis/agenttoast/finance"
	"github.com/aaronlmathis/agenttoast/news"
	"github.com/aaronlmathis/agenttoast/storage"
	"github.com/aaronlmathis/agenttoast/tts"
)

var version = "dev"

type runFlags struct {
	configPath string
	category   string
	count      int
	country    string
	sources    string
	query      string
	voice      string
	style      string
	depth      string
	maxWords   int
	maxClaims  int
	symbols    []string
	noAudio    bool
	noAnalysis bool
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "agenttoast",
		Short:         "Generate an AI news digest with audio",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand(), newHistoryCommand(), newVersionCommand())
	return root
}

func newHistoryCommand() *cobra.Command {
	var configPath string
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent digest runs from the run store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Storage.PostgresDSN == "" {
				return fmt.Errorf("no run store configured (storage.postgres_dsn)")
			}

			store, err := storage.NewRunStore(cmd.Context(),
				storage.WithRunStoreDSN(cfg.Storage.PostgresDSN))
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range runs {
				fmt.Fprintf(out, "%s  %-8s  %s  %s\n",
					r.StartedAt.Format("2006-01-02 15:04"), r.Status, r.ID, r.Pipeline)
				if r.AbortReason != "" {
					fmt.Fprintf(out, "    aborted: %s\n", r.AbortReason)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a config file")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func newRunCommand() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one digest: fetch, analyze, write, and speak",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDigest(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to a config file")
	cmd.Flags().StringVar(&flags.category, "category", "general", "news category (business, entertainment, general, health, science, sports, technology, all)")
	cmd.Flags().IntVar(&flags.count, "count", 5, "number of articles to fetch (1-10)")
	cmd.Flags().StringVar(&flags.country, "country", "us", "2-letter country code")
	cmd.Flags().StringVar(&flags.sources, "sources", "", "comma-separated source ids; overrides country and category")
	cmd.Flags().StringVar(&flags.query, "query", "", "keywords to filter headlines")
	cmd.Flags().StringVar(&flags.voice, "voice", tts.DefaultVoice, "TTS voice (alloy, echo, fable, onyx, nova, shimmer)")
	cmd.Flags().StringVar(&flags.style, "style", agents.StyleConversational, "script style (conversational, formal, casual)")
	cmd.Flags().StringVar(&flags.depth, "analysis-depth", agents.DepthModerate, "analysis depth (basic, moderate, deep)")
	cmd.Flags().IntVar(&flags.maxWords, "max-words", agents.DefaultMaxWords, "script word budget")
	cmd.Flags().IntVar(&flags.maxClaims, "max-claims", agents.DefaultMaxClaims, "fact-check claim budget")
	cmd.Flags().StringSliceVar(&flags.symbols, "symbols", nil, "ticker symbols for market commentary")
	cmd.Flags().BoolVar(&flags.noAudio, "no-audio", false, "skip speech synthesis")
	cmd.Flags().BoolVar(&flags.noAnalysis, "no-analysis", false, "skip the analysis, fact-check, and trend stages")
	return cmd
}

func runDigest(cmd *cobra.Command, flags *runFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.noAudio {
		cfg.Features.Audio = false
	}
	if flags.noAnalysis {
		cfg.Features.Analysis = false
		cfg.Features.FactCheck = false
		cfg.Features.Trends = false
	}
	if len(flags.symbols) > 0 {
		cfg.Features.Markets = true
	}
	if cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("OpenAI API key is not set (AGENTTOAST_OPENAI_API_KEY)")
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	openaiClient := openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))

	opts := []agenttoast.CoordinatorOption{
		agenttoast.WithCompleter(agents.NewOpenAICompleter(openaiClient)),
		agenttoast.WithNewsClient(news.NewClient(cfg.NewsAPIKey)),
		agenttoast.WithFinanceClient(finance.NewClient()),
		agenttoast.WithCoordinatorLogger(logger),
	}
	if cfg.Features.Audio {
		opts = append(opts, agenttoast.WithSynthesizer(tts.NewSynthesizer(openaiClient)))
	}

	storageOpts, closeStores, err := buildStorage(cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()
	opts = append(opts, storageOpts...)

	co, err := agenttoast.NewCoordinator(cfg, opts...)
	if err != nil {
		return err
	}

	result, err := co.Run(cmd.Context(), agenttoast.RunRequest{
		Category:  flags.category,
		Count:     flags.count,
		Country:   flags.country,
		Sources:   flags.sources,
		Query:     flags.query,
		Voice:     flags.voice,
		Style:     flags.style,
		Depth:     flags.depth,
		MaxWords:  flags.maxWords,
		MaxClaims: flags.maxClaims,
		Symbols:   flags.symbols,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s finished: %s\n", result.Report.RunID, result.Report.Status)
	fmt.Fprintf(out, "Report: %s\n", result.ReportPath)
	if result.AudioPath != "" {
		fmt.Fprintf(out, "Audio:  %s\n", result.AudioPath)
	}
	if result.Report.AbortReason != "" {
		fmt.Fprintf(out, "Aborted: %s\n", result.Report.AbortReason)
	}
	return nil
}

// buildStorage connects the optional stores named in the configuration.
// A store that fails to connect disables itself with a warning; the
// digest can still run without persistence.
func buildStorage(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger) ([]agenttoast.CoordinatorOption, func(), error) {
	var opts []agenttoast.CoordinatorOption
	var closers []func()
	ctx := cmd.Context()

	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		store, err := storage.NewRunStore(ctx,
			storage.WithRunStoreDSN(dsn),
			storage.WithCreateTables(cfg.Storage.CreateTables))
		if err != nil {
			logger.Warn("run history disabled", zap.Error(err))
		} else {
			opts = append(opts, agenttoast.WithRunStore(store))
			closers = append(closers, func() { store.Close() })
		}
	}

	if uri := cfg.Storage.MongoURI; uri != "" {
		cache, err := storage.NewArticleCache(ctx, storage.WithCacheURI(uri))
		if err != nil {
			logger.Warn("headline cache disabled", zap.Error(err))
		} else {
			opts = append(opts, agenttoast.WithArticleCache(cache))
			closers = append(closers, func() { cache.Close(ctx) })
		}
	}

	if bucket := cfg.Storage.S3Bucket; bucket != "" {
		archiver, err := storage.NewArchiver(ctx,
			storage.WithArchiveBucket(bucket),
			storage.WithArchiveRegion(cfg.Storage.S3Region),
			storage.WithArchiveEndpoint(cfg.Storage.S3Endpoint))
		if err != nil {
			logger.Warn("artifact archive disabled", zap.Error(err))
		} else {
			opts = append(opts, agenttoast.WithArchiver(archiver))
		}
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return opts, closeAll, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logCfg := zap.NewProductionConfig()
	logCfg.Level = zap.NewAtomicLevelAt(lvl)
	return logCfg.Build()
}

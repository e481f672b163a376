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

// Package config loads settings from an optional YAML file and the
// AGENTTOAST_* environment, with the environment winning.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// AGENTTOAST_OPENAI_API_KEY maps to openai_api_key.
const EnvPrefix = "AGENTTOAST"

// Config holds everything the coordinator and CLI need.
type Config struct {
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	NewsAPIKey   string `mapstructure:"news_api_key"`

	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`

	OutputDir string `mapstructure:"output_dir"`
	LogLevel  string `mapstructure:"log_level"`

	StageTimeout time.Duration `mapstructure:"stage_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	MaxWorkers   int           `mapstructure:"max_workers"`

	Features FeatureConfig `mapstructure:"features"`
	Storage  StorageConfig `mapstructure:"storage"`
}

// FeatureConfig toggles the optional pipeline stages.
type FeatureConfig struct {
	Analysis  bool     `mapstructure:"analysis"`
	FactCheck bool     `mapstructure:"fact_check"`
	Trends    bool     `mapstructure:"trends"`
	Markets   bool     `mapstructure:"markets"`
	Audio     bool     `mapstructure:"audio"`
	Symbols   []string `mapstructure:"symbols"`
}

// StorageConfig holds the optional persistence backends. Empty values
// disable the corresponding store.
type StorageConfig struct {
	PostgresDSN  string `mapstructure:"postgres_dsn"`
	MongoURI     string `mapstructure:"mongo_uri"`
	S3Bucket     string `mapstructure:"s3_bucket"`
	S3Region     string `mapstructure:"s3_region"`
	S3Endpoint   string `mapstructure:"s3_endpoint"`
	CreateTables bool   `mapstructure:"create_tables"`
}

// Load reads configuration from configPath (optional; the working
// directory and ~/.agenttoast are searched when empty) and the
// environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default registered; viper only applies
	// environment overrides during Unmarshal for keys it knows about.
	v.SetDefault("openai_api_key", "")
	v.SetDefault("news_api_key", "")
	v.SetDefault("model", "gpt-4o")
	v.SetDefault("temperature", 0.1)
	v.SetDefault("output_dir", "output")
	v.SetDefault("log_level", "info")
	v.SetDefault("stage_timeout", 2*time.Minute)
	v.SetDefault("max_retries", 2)
	v.SetDefault("max_workers", 4)
	v.SetDefault("features.analysis", true)
	v.SetDefault("features.fact_check", true)
	v.SetDefault("features.trends", true)
	v.SetDefault("features.markets", false)
	v.SetDefault("features.audio", true)
	v.SetDefault("features.symbols", []string{})
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.mongo_uri", "")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "")
	v.SetDefault("storage.s3_endpoint", "")
	v.SetDefault("storage.create_tables", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName("agenttoast")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.agenttoast")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

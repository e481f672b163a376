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

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aaronlmathis/agenttoast/pipeline"
)

// Save renders the report and writes it to a dated directory under
// baseDir, returning the file path. An empty baseDir means "output".
func Save(rep *pipeline.Report, category, baseDir string) (string, error) {
	if baseDir == "" {
		baseDir = "output"
	}
	dir := filepath.Join(baseDir, time.Now().Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report save: %w", err)
	}

	path := filepath.Join(dir, Filename(category))
	if err := os.WriteFile(path, []byte(Render(rep)), 0o644); err != nil {
		return "", fmt.Errorf("report save: %w", err)
	}
	return path, nil
}

// Filename builds the timestamped report name for a category.
func Filename(category string) string {
	if category == "" {
		category = "general"
	}
	category = strings.ToLower(strings.ReplaceAll(category, " ", "_"))
	return fmt.Sprintf("news_report_%s_%d.md", category, time.Now().Unix())
}

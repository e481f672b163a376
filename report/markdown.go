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

// Package report renders aggregated pipeline runs as Markdown documents.
package report

import (
	"fmt"
	"strings"

	"github.com/aaronlmathis/agenttoast/agents"
	"github.com/aaronlmathis/agenttoast/pipeline"
)

// Section titles keyed by stage name. Stages without an entry fall back
// to a capitalized stage name.
var sectionTitles = map[string]string{
	"fetch-news":  "News Summary",
	"analyze":     "Analysis",
	"fact-check":  "Fact Check",
	"trends":      "Trends",
	"market-data": "Markets",
	"write":       "Script",
}

// Render produces the Markdown document for an aggregated run. Sections
// appear in declaration order; unavailable sections render a short note
// with the failure reason instead of content.
func Render(rep *pipeline.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# News Report\n\n")
	fmt.Fprintf(&b, "- **Run:** %s\n", rep.RunID)
	fmt.Fprintf(&b, "- **Pipeline:** %s\n", rep.Pipeline)
	fmt.Fprintf(&b, "- **Status:** %s\n", rep.Status)
	fmt.Fprintf(&b, "- **Generated:** %s\n", rep.FinishedAt.Format("2006-01-02 15:04:05 MST"))

	if rep.Status == pipeline.StatusAborted {
		fmt.Fprintf(&b, "\n> **Run aborted:** %s\n", rep.AbortReason)
	}

	for _, sec := range rep.Sections {
		fmt.Fprintf(&b, "\n## %s\n\n", titleFor(sec.Stage))
		if !sec.Available {
			fmt.Fprintf(&b, "_Unavailable: %s_\n", sec.Reason)
			continue
		}
		b.WriteString(renderPayload(sec.Payload))
	}

	return b.String()
}

func titleFor(stage string) string {
	if t, ok := sectionTitles[stage]; ok {
		return t
	}
	words := strings.Split(strings.ReplaceAll(stage, "-", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// renderPayload formats the known agent payloads; anything else is
// printed with %v so hand-built pipelines still render.
func renderPayload(payload interface{}) string {
	var b strings.Builder

	switch p := payload.(type) {
	case *agents.NewsSummary:
		fmt.Fprintf(&b, "%s\n", p.Summary)
		if len(p.Headlines) > 0 {
			b.WriteString("\n**Headlines**\n\n")
			for _, h := range p.Headlines {
				fmt.Fprintf(&b, "- %s\n", h)
			}
		}
		if len(p.Articles) > 0 {
			fmt.Fprintf(&b, "\n**Sources** (%d articles)\n\n", len(p.Articles))
			for _, a := range p.Articles {
				fmt.Fprintf(&b, "- [%s](%s) (%s)\n", a.Title, a.URL, a.Source)
			}
		}

	case *agents.Analysis:
		fmt.Fprintf(&b, "%s\n", p.Insights)
		if len(p.Trends) > 0 {
			b.WriteString("\n**Trends**\n\n")
			for _, tr := range p.Trends {
				fmt.Fprintf(&b, "- %s\n", tr)
			}
		}
		if p.Implications != "" {
			fmt.Fprintf(&b, "\n**Implications**\n\n%s\n", p.Implications)
		}

	case *agents.FactCheck:
		fmt.Fprintf(&b, "%s\n", p.Summary)
		if len(p.Verifications) > 0 {
			b.WriteString("\n| Claim | Verdict |\n|---|---|\n")
			for _, v := range p.Verifications {
				fmt.Fprintf(&b, "| %s | %s |\n", v.Claim, v.Verdict)
			}
		}

	case *agents.TrendReport:
		fmt.Fprintf(&b, "%s\n", p.Summary)
		for _, tr := range p.Trends {
			fmt.Fprintf(&b, "\n**%s**: %s\n", tr.Name, tr.Description)
		}
		if len(p.MetaTrends) > 0 {
			b.WriteString("\n**Meta-trends**\n\n")
			for _, m := range p.MetaTrends {
				fmt.Fprintf(&b, "- %s\n", m)
			}
		}

	case *agents.FinanceCommentary:
		fmt.Fprintf(&b, "%s\n", p.Commentary)
		if len(p.Quotes) > 0 {
			b.WriteString("\n| Symbol | Price | Change vs. prev close |\n|---|---|---|\n")
			for _, q := range p.Quotes {
				fmt.Fprintf(&b, "| %s | %.2f | %.2f |\n", q.Symbol, q.CurrentPrice, q.CurrentPrice-q.PreviousClose)
			}
		}

	case *agents.Script:
		fmt.Fprintf(&b, "%s\n\n_%d words, %s style._\n", p.Text, p.WordCount, p.Style)

	default:
		fmt.Fprintf(&b, "%v\n", payload)
	}

	return b.String()
}

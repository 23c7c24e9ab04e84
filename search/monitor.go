// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import (
	"log/slog"

	"github.com/poiesic/marquee/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(requestID, query string)
	AfterParse(parsed *core.ParsedQuery)
	AfterRetrieval(candidates []*core.Candidate)
	AfterScoring(strategy string, candidates []*core.Candidate)
	AfterRerank(candidates []*core.Candidate)
	Finish(response *core.SearchResponse)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                          {}
func (n *noopMonitor) AfterParse(_ *core.ParsedQuery)             {}
func (n *noopMonitor) AfterRetrieval(_ []*core.Candidate)         {}
func (n *noopMonitor) AfterScoring(_ string, _ []*core.Candidate) {}
func (n *noopMonitor) AfterRerank(_ []*core.Candidate)            {}
func (n *noopMonitor) Finish(_ *core.SearchResponse)              {}

// LogMonitor reports each stage at debug level.
type LogMonitor struct {
	logger *slog.Logger
}

var _ SearchMonitor = (*LogMonitor)(nil)

// NewLogMonitor creates a LogMonitor. A nil logger uses slog.Default().
func NewLogMonitor(logger *slog.Logger) *LogMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMonitor{logger: logger.With("component", "search-monitor")}
}

func (m *LogMonitor) Start(requestID, query string) {
	m.logger = m.logger.With("request_id", requestID)
	m.logger.Debug("search started", "query", query)
}

func (m *LogMonitor) AfterParse(parsed *core.ParsedQuery) {
	m.logger.Debug("query parsed",
		"method", parsed.Method,
		"confidence", parsed.Confidence,
		"themes", parsed.Intent.Themes,
		"references", parsed.Intent.ReferenceTitles)
}

func (m *LogMonitor) AfterRetrieval(candidates []*core.Candidate) {
	m.logger.Debug("candidates retrieved", "count", len(candidates))
}

func (m *LogMonitor) AfterScoring(strategy string, candidates []*core.Candidate) {
	attrs := []any{"strategy", strategy, "count", len(candidates)}
	if len(candidates) > 0 {
		attrs = append(attrs, "top", candidates[0].Title, "topScore", candidates[0].FinalScore)
	}
	m.logger.Debug("candidates scored", attrs...)
}

func (m *LogMonitor) AfterRerank(candidates []*core.Candidate) {
	m.logger.Debug("candidates reranked", "count", len(candidates))
}

func (m *LogMonitor) Finish(response *core.SearchResponse) {
	m.logger.Debug("search finished", "results", response.Count)
}

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
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/metrics"
	"github.com/poiesic/marquee/retrieval"
	"github.com/poiesic/marquee/scoring"
)

const (
	MinQueryLength = 2
	MaxQueryLength = 500
)

// QueryParser turns a raw query into a ParsedQuery. *parser.Parser satisfies it.
type QueryParser interface {
	Parse(ctx context.Context, query string) (*core.ParsedQuery, error)
}

// Retriever fetches candidates for a parsed query. *retrieval.Engine satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, q *core.ParsedQuery, cfg retrieval.Config) ([]*core.Candidate, error)
}

// Reranker reorders scored candidates. *rerank.Reranker satisfies it.
type Reranker interface {
	Rerank(ctx context.Context, candidates []*core.Candidate, query string, parsed *core.ParsedQuery, topK, maxCandidates int) []*core.Candidate
}

// Config controls result sizes and stage selection.
type Config struct {
	DefaultLimit     int              `yaml:"default_limit" validate:"gte=0"`
	MaxLimit         int              `yaml:"max_limit" validate:"gte=0"`
	Rerank           bool             `yaml:"rerank"`
	RerankCandidates int              `yaml:"rerank_candidates" validate:"gte=0"`
	Retrieval        retrieval.Config `yaml:"retrieval"`
}

// DefaultConfig returns the settings used when none are supplied.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:     10,
		MaxLimit:         50,
		Rerank:           true,
		RerankCandidates: 30,
		Retrieval:        retrieval.DefaultConfig(),
	}
}

// Searcher runs the query pipeline.
type Searcher struct {
	parser    QueryParser
	retriever Retriever
	scorer    *scoring.Engine
	reranker  Reranker
	config    Config
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithReranker enables the re-ranking stage.
func WithReranker(r Reranker) Option {
	return func(s *Searcher) error {
		s.reranker = r
		return nil
	}
}

// WithScorer replaces the default scoring engine.
func WithScorer(e *scoring.Engine) Option {
	return func(s *Searcher) error {
		if e != nil {
			s.scorer = e
		}
		return nil
	}
}

// WithConfig replaces DefaultConfig. Non-positive sizes keep their defaults.
func WithConfig(cfg Config) Option {
	return func(s *Searcher) error {
		d := DefaultConfig()
		if cfg.DefaultLimit <= 0 {
			cfg.DefaultLimit = d.DefaultLimit
		}
		if cfg.MaxLimit <= 0 {
			cfg.MaxLimit = d.MaxLimit
		}
		if cfg.DefaultLimit > cfg.MaxLimit {
			return fmt.Errorf("default limit %d exceeds max limit %d", cfg.DefaultLimit, cfg.MaxLimit)
		}
		if cfg.RerankCandidates <= 0 {
			cfg.RerankCandidates = d.RerankCandidates
		}
		s.config = cfg
		return nil
	}
}

// WithClock overrides the clock used for weight selection.
func WithClock(now func() time.Time) Option {
	return func(s *Searcher) error {
		s.now = now
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(parser QueryParser, retriever Retriever, opts ...Option) (*Searcher, error) {
	if parser == nil {
		return nil, ErrParserRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}

	s := &Searcher{
		parser:    parser,
		retriever: retriever,
		config:    DefaultConfig(),
		now:       time.Now,
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "search")
	if s.scorer == nil {
		s.scorer = scoring.New(scoring.WithLogger(s.logger), scoring.WithClock(s.now))
	}

	return s, nil
}

// Search runs the pipeline for rawQuery and returns up to limit results.
// A non-positive limit selects the default; larger limits are capped.
// filters, when non-nil, override the constraints parsed from the query.
func (s *Searcher) Search(ctx context.Context, rawQuery string, limit int, filters *core.QueryConstraints) (*core.SearchResponse, error) {
	return s.SearchWithMonitor(ctx, rawQuery, limit, filters, nil)
}

// SearchWithMonitor is Search with stage callbacks.
func (s *Searcher) SearchWithMonitor(ctx context.Context, rawQuery string, limit int, filters *core.QueryConstraints, monitor SearchMonitor) (*core.SearchResponse, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	query := strings.TrimSpace(rawQuery)
	switch n := utf8.RuneCountInString(query); {
	case n < MinQueryLength:
		return nil, fmt.Errorf("%w: minimum is %d characters", ErrQueryTooShort, MinQueryLength)
	case n > MaxQueryLength:
		return nil, fmt.Errorf("%w: %d characters, maximum is %d", ErrQueryTooLong, n, MaxQueryLength)
	}
	limit = s.clampLimit(limit)

	start := time.Now()
	defer metrics.ObserveStage("search", start)

	requestID := uuid.NewString()
	logger := s.logger.With("request_id", requestID)
	monitor.Start(requestID, query)

	// 1. Parse
	stageStart := time.Now()
	parsed, err := s.parser.Parse(ctx, query)
	metrics.ObserveStage("parse", stageStart)
	if err != nil {
		logger.Error("error parsing query", "err", err)
		return nil, err
	}

	// 2. Overlay caller filters and validate
	q := *parsed
	q.Constraints = parsed.Constraints.Merge(filters)
	if err := core.ValidateConstraints(&q.Constraints); err != nil {
		logger.Warn("rejected constraints", "err", err)
		return nil, err
	}
	monitor.AfterParse(&q)

	// 3. Retrieve
	candidates, err := s.retriever.Retrieve(ctx, &q, s.config.Retrieval)
	if err != nil {
		logger.Error("error retrieving candidates", "err", err)
		return nil, err
	}
	monitor.AfterRetrieval(candidates)

	// 4. Score
	stageStart = time.Now()
	weights, strategy := scoring.SelectWeights(&q, s.now())
	scored := s.scorer.Score(candidates, &q, weights)
	metrics.ObserveStage("scoring", stageStart)
	monitor.AfterScoring(strategy, scored)

	// 5. Re-rank
	var ranked []*core.Candidate
	if s.reranker != nil && s.config.Rerank && len(scored) > 0 {
		ranked = s.reranker.Rerank(ctx, scored, query, &q, limit, s.config.RerankCandidates)
		monitor.AfterRerank(ranked)
	} else {
		ranked = scored
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	// 6. Build response
	results := make([]core.RankedCandidate, len(ranked))
	for i, c := range ranked {
		results[i] = core.NewRankedCandidate(c)
	}
	response := &core.SearchResponse{
		Results:          results,
		Count:            len(results),
		InterpretedQuery: &q,
		RequestID:        requestID,
	}
	monitor.Finish(response)

	logger.Info("search completed",
		"method", q.Method,
		"strategy", strategy,
		"candidates", len(candidates),
		"results", response.Count,
		"elapsed", time.Since(start))
	return response, nil
}

func (s *Searcher) clampLimit(limit int) int {
	if limit <= 0 {
		return s.config.DefaultLimit
	}
	return min(limit, s.config.MaxLimit)
}

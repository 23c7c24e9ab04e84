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


package rerank

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/cache"
	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/metrics"
)

const (
	DefaultTopK          = 10
	DefaultMaxCandidates = 30
	DefaultTemperature   = 0.3
	DefaultCacheTTL      = 6 * time.Hour

	maxTokens         = 2048
	defaultRelevance  = 0.5
	backfillRationale = "Additional match based on scoring signals"
)

// Reranker refines the scoring order with an LLM.
type Reranker struct {
	llm         ai.LLMClient
	cache       cache.Store
	cacheTTL    time.Duration
	temperature float64
	logger      *slog.Logger
}

type Option func(*Reranker)

// WithCache caches rankings in store for ttl. A ttl <= 0 uses DefaultCacheTTL.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(r *Reranker) {
		r.cache = store
		r.cacheTTL = ttl
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(r *Reranker) {
		r.temperature = t
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reranker) {
		r.logger = logger
	}
}

// New creates a Reranker. A nil llm makes every call fall back to the
// scoring order.
func New(llm ai.LLMClient, opts ...Option) *Reranker {
	r := &Reranker{
		llm:         llm,
		cacheTTL:    DefaultCacheTTL,
		temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cacheTTL <= 0 {
		r.cacheTTL = DefaultCacheTTL
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("component", "reranker")
	return r
}

// Rerank returns up to topK candidates in LLM order with explanations.
// Only the first maxCandidates inputs are shown to the LLM. Non-positive
// topK and maxCandidates select the defaults. The returned candidates are
// copies; the input slice is not modified.
func (r *Reranker) Rerank(ctx context.Context, candidates []*core.Candidate, query string, parsed *core.ParsedQuery, topK, maxCandidates int) []*core.Candidate {
	if len(candidates) == 0 {
		r.logger.Debug("no candidates to rerank")
		return []*core.Candidate{}
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}

	start := time.Now()
	defer metrics.ObserveStage("rerank", start)

	pool := candidates
	if len(pool) > maxCandidates {
		pool = pool[:maxCandidates]
	}

	key := cacheKey(query, pool, topK)
	if entries, ok := r.cached(ctx, key); ok {
		if out, ok := fromEntries(candidates, entries); ok {
			r.logger.Debug("using cached ranking", "count", len(out))
			metrics.RerankTotal.WithLabelValues(metrics.RerankCacheHit).Inc()
			return out
		}
	}

	if r.llm == nil {
		metrics.RerankTotal.WithLabelValues(metrics.RerankFallbackError).Inc()
		return scoringOrder(candidates, topK)
	}

	r.logger.Debug("reranking candidates", "count", len(pool), "topK", topK)
	prompt := buildPrompt(query, parsed, pool, topK)
	response, err := r.llm.CompleteJSON(ctx, systemPrompt, prompt, r.temperature, maxTokens)
	if err != nil {
		if errors.Is(err, ai.ErrRateLimited) {
			r.logger.Warn("rate limited, keeping scoring order")
			metrics.RerankTotal.WithLabelValues(metrics.RerankFallbackRateLimited).Inc()
		} else {
			r.logger.Error("llm reranking failed, keeping scoring order", "err", err)
			metrics.RerankTotal.WithLabelValues(metrics.RerankFallbackError).Inc()
		}
		return scoringOrder(candidates, topK)
	}

	items, _ := response["ranked_movies"].([]any)
	if len(items) == 0 {
		r.logger.Warn("llm returned no rankings, keeping scoring order")
		metrics.RerankTotal.WithLabelValues(metrics.RerankFallbackEmpty).Inc()
		return scoringOrder(candidates, topK)
	}

	ranked := r.selections(items, len(pool), topK)
	if len(ranked) == 0 {
		r.logger.Warn("llm rankings were all invalid, backfilling from scoring order")
		metrics.RerankTotal.WithLabelValues(metrics.RerankFallbackEmpty).Inc()
		return apply(candidates, nil, topK)
	}

	out := apply(candidates, ranked, topK)
	if len(ranked) < topK && len(out) > len(ranked) {
		r.logger.Warn("llm returned fewer results than requested, backfilling",
			"valid", len(ranked), "topK", topK)
	}
	metrics.RerankTotal.WithLabelValues(metrics.RerankLLM).Inc()
	r.store(ctx, key, toEntries(out))
	return out
}

// Clear drops every cached ranking and returns the number removed.
func (r *Reranker) Clear(ctx context.Context) (int, error) {
	if r.cache == nil {
		return 0, nil
	}
	n, err := r.cache.DeletePattern(ctx, cacheKeyPrefix+"*")
	if err != nil {
		return 0, err
	}
	r.logger.Debug("cleared rerank cache", "removed", n)
	return n, nil
}

// selection is one validated entry of the LLM reply.
type selection struct {
	index       int
	relevance   float64
	explanation string
}

// selections validates the ranked_movies entries. Entries beyond topK, with
// out-of-range or repeated indices, or that are not objects are dropped.
func (r *Reranker) selections(items []any, n, topK int) []selection {
	if len(items) > topK {
		items = items[:topK]
	}

	seen := make(map[int]bool, len(items))
	out := make([]selection, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			r.logger.Warn("skipping malformed ranking entry")
			continue
		}
		idx, ok := toIndex(obj["movie_index"])
		if !ok || idx < 0 || idx >= n {
			r.logger.Warn("skipping invalid movie index", "index", obj["movie_index"])
			continue
		}
		if seen[idx] {
			r.logger.Warn("skipping duplicate movie index", "index", idx)
			continue
		}
		seen[idx] = true

		relevance := defaultRelevance
		if v, ok := obj["relevance_score"].(float64); ok && !math.IsNaN(v) {
			relevance = min(max(v, 0), 1)
		}
		explanation, _ := obj["explanation"].(string)
		out = append(out, selection{index: idx, relevance: relevance, explanation: explanation})
	}
	return out
}

// apply builds the output from the selections and backfills from candidate
// order. Selection indices address the leading pool of candidates.
func apply(candidates []*core.Candidate, ranked []selection, topK int) []*core.Candidate {
	out := make([]*core.Candidate, 0, min(topK, len(candidates)))
	used := make(map[int]bool, len(ranked))
	for _, s := range ranked {
		c := candidates[s.index].Clone()
		c.MatchExplanation = s.explanation
		c.LLMRelevance = core.FloatPtr(s.relevance)
		out = append(out, c)
		used[s.index] = true
	}
	for i, c := range candidates {
		if len(out) >= topK {
			break
		}
		if used[i] {
			continue
		}
		c = c.Clone()
		c.MatchExplanation = backfillRationale
		c.LLMRelevance = nil
		out = append(out, c)
	}
	return out
}

// scoringOrder returns copies of the first topK candidates as they are.
func scoringOrder(candidates []*core.Candidate, topK int) []*core.Candidate {
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return core.CloneAll(candidates)
}

// toIndex accepts integral JSON numbers.
func toIndex(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

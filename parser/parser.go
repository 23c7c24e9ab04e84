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


package parser

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/cache"
	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/metrics"
)

const (
	// DefaultCacheTTL is how long LLM parses stay cached.
	DefaultCacheTTL = time.Hour

	cacheKeyPrefix = "parse:"
)

// Parser converts raw queries into ParsedQuery values.
type Parser struct {
	llm      ai.LLMClient
	fallback bool
	cache    cache.Store
	cacheTTL time.Duration
	logger   *slog.Logger
}

type Option func(*Parser)

// WithFallback enables or disables the rule-based fallback. Enabled by default.
func WithFallback(enabled bool) Option {
	return func(p *Parser) {
		p.fallback = enabled
	}
}

// WithCache caches successful LLM parses in store for ttl. A ttl <= 0 uses
// DefaultCacheTTL.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(p *Parser) {
		p.cache = store
		p.cacheTTL = ttl
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// New creates a Parser. A nil llm disables the LLM path, so every query is
// handled by the rule-based extractor (or fails when fallback is disabled).
func New(llm ai.LLMClient, opts ...Option) *Parser {
	p := &Parser{
		llm:      llm,
		fallback: true,
		cacheTTL: DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cacheTTL <= 0 {
		p.cacheTTL = DefaultCacheTTL
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("component", "query-parser")
	return p
}

// Parse extracts intent and constraints from query.
//
// Returns ErrEmptyQuery for blank input. When the LLM path fails and fallback
// is disabled, the error is a *ParseFailure.
func (p *Parser) Parse(ctx context.Context, query string) (*core.ParsedQuery, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	key := cacheKey(query)
	if parsed, ok := p.cached(ctx, key, query); ok {
		return parsed, nil
	}

	parsed, err := p.parseWithLLM(ctx, query)
	if err == nil {
		metrics.ParseTotal.WithLabelValues(string(core.ParseMethodLLM)).Inc()
		p.store(ctx, key, parsed)
		return parsed, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	var failure *ParseFailure
	errors.As(err, &failure)
	p.logger.Warn("llm parsing failed", "kind", failure.Kind, "err", failure.Err)
	if !p.fallback {
		return nil, err
	}

	p.logger.Debug("falling back to rule-based parsing")
	metrics.ParseTotal.WithLabelValues(string(core.ParseMethodRuleBased)).Inc()
	return parseWithRules(query), nil
}

// ParseRules runs only the rule-based extractor.
func (p *Parser) ParseRules(query string) (*core.ParsedQuery, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	return parseWithRules(query), nil
}

// Clear drops every cached parse and returns the number removed.
func (p *Parser) Clear(ctx context.Context) (int, error) {
	if p.cache == nil {
		return 0, nil
	}
	return p.cache.DeletePattern(ctx, cacheKeyPrefix+"*")
}

func (p *Parser) cached(ctx context.Context, key, query string) (*core.ParsedQuery, bool) {
	if p.cache == nil {
		return nil, false
	}
	parsed, ok, err := cache.GetJSON[core.ParsedQuery](ctx, p.cache, key)
	if err != nil {
		p.logger.Warn("parse cache read failed", "err", err)
	}
	metrics.CacheResult("parse", ok)
	if !ok {
		return nil, false
	}
	parsed.Intent.RawQuery = query
	return &parsed, true
}

func (p *Parser) store(ctx context.Context, key string, parsed *core.ParsedQuery) {
	if p.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, p.cache, key, parsed, p.cacheTTL); err != nil {
		p.logger.Warn("parse cache write failed", "err", err)
	}
}

// cacheKey normalizes case and whitespace so trivially different spellings
// of a query share an entry.
func cacheKey(query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return cacheKeyPrefix + core.ContentHash([]byte(normalized))
}

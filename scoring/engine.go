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


package scoring

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/metrics"
)

// Engine scores candidate batches.
type Engine struct {
	extractors []Extractor
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Engine)

// WithExtractors replaces the default extractor set.
func WithExtractors(extractors ...Extractor) Option {
	return func(e *Engine) {
		e.extractors = extractors
	}
}

// WithClock overrides the clock used for recency.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		extractors: DefaultExtractors(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "scoring")
	return e
}

// Score returns clones of candidates with FinalScore and Signals set,
// sorted by descending FinalScore. Ties keep input order. A candidate whose
// signals cannot be computed gets a zero score and an empty breakdown.
func (e *Engine) Score(candidates []*core.Candidate, query *core.ParsedQuery, weights Weights) []*core.Candidate {
	if len(candidates) == 0 {
		return []*core.Candidate{}
	}
	if query == nil {
		query = &core.ParsedQuery{}
	}

	weights = weights.Normalize()
	sc := NewContext(candidates, e.now().Year())

	scored := make([]*core.Candidate, len(candidates))
	failures := 0
	for i, c := range candidates {
		out := c.Clone()
		signals, total, err := e.scoreOne(out, query, weights, sc)
		if err != nil {
			failures++
			e.logger.Error("error scoring candidate", "id", c.Id, "title", c.Title, "err", err)
			out.FinalScore = 0
			out.Signals = map[string]float64{}
		} else {
			out.FinalScore = total
			out.Signals = signals
		}
		scored[i] = out
	}

	slices.SortStableFunc(scored, func(a, b *core.Candidate) int {
		switch {
		case a.FinalScore > b.FinalScore:
			return -1
		case a.FinalScore < b.FinalScore:
			return 1
		}
		return 0
	})

	if failures > 0 {
		metrics.ScoringFailuresTotal.Add(float64(failures))
	}
	e.logger.Debug("scoring complete",
		"count", len(scored),
		"failures", failures,
		"top", scored[0].FinalScore,
		"bottom", scored[len(scored)-1].FinalScore)
	return scored
}

func (e *Engine) scoreOne(c *core.Candidate, q *core.ParsedQuery, w Weights, sc *Context) (signals map[string]float64, total float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("signal extractor panicked: %v", r)
		}
	}()

	signals = make(map[string]float64, len(e.extractors))
	for _, ex := range e.extractors {
		v, err := ex.Extract(c, q, sc)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", ex.Name(), err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, 0, fmt.Errorf("%s: non-finite signal %v", ex.Name(), v)
		}
		v = clamp01(v)
		signals[ex.Name()] = v
		total += w.of(ex.Name()) * v
	}
	return signals, clamp01(total), nil
}

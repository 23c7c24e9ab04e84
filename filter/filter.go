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


package filter

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/marquee/core"
)

// Stage names reported in Statistics.
const (
	StageAdult      = "adult"
	StageLanguage   = "language"
	StageYear       = "year"
	StageRating     = "rating"
	StageRuntime    = "runtime"
	StageGenres     = "genres"
	StageProviders  = "providers"
	StagePopularity = "popularity"
)

// StageStats records how one filter changed the candidate count.
type StageStats struct {
	Stage  string
	Before int
	After  int
}

// Statistics summarizes a filter run.
type Statistics struct {
	Before int
	After  int
	Stages []StageStats
}

// Selectivity is the fraction of candidates retained.
func (s Statistics) Selectivity() float64 {
	if s.Before == 0 {
		return 0
	}
	return float64(s.After) / float64(s.Before)
}

// Removed returns the number of candidates dropped.
func (s Statistics) Removed() int {
	return s.Before - s.After
}

// Engine applies QueryConstraints. The zero value is not usable; use New.
type Engine struct {
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Engine)

// WithClock overrides the clock used for the default year upper bound.
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
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "filter")
	return e
}

// Apply returns the candidates that satisfy constraints. The input slice
// and its elements are not modified. A nil constraints value only applies
// the adult-content exclusion.
func (e *Engine) Apply(candidates []*core.Candidate, constraints *core.QueryConstraints) []*core.Candidate {
	out, _ := e.ApplyWithStats(candidates, constraints)
	return out
}

// ApplyWithStats is Apply plus per-stage counts.
func (e *Engine) ApplyWithStats(candidates []*core.Candidate, constraints *core.QueryConstraints) ([]*core.Candidate, Statistics) {
	stats := Statistics{Before: len(candidates)}
	if len(candidates) == 0 {
		return []*core.Candidate{}, stats
	}
	if constraints == nil {
		constraints = &core.QueryConstraints{}
	}

	current := slices.Clone(candidates)
	run := func(stage string, keep func(*core.Candidate) bool) {
		before := len(current)
		current = slices.DeleteFunc(current, func(c *core.Candidate) bool { return !keep(c) })
		stats.Stages = append(stats.Stages, StageStats{Stage: stage, Before: before, After: len(current)})
	}

	if !constraints.AdultContent {
		run(StageAdult, func(c *core.Candidate) bool { return !c.Adult })
	}

	if len(constraints.Languages) > 0 {
		languages := normalizeSet(constraints.Languages)
		run(StageLanguage, func(c *core.Candidate) bool { return languages[normalize(c.Language)] })
	}

	if constraints.YearMin != nil || constraints.YearMax != nil {
		minYear, maxYear := 0, e.now().Year()
		if constraints.YearMin != nil {
			minYear = *constraints.YearMin
		}
		if constraints.YearMax != nil {
			maxYear = *constraints.YearMax
		}
		run(StageYear, func(c *core.Candidate) bool {
			return c.ReleaseYear != 0 && c.ReleaseYear >= minYear && c.ReleaseYear <= maxYear
		})
	}

	if constraints.RatingMin != nil {
		minRating := *constraints.RatingMin
		run(StageRating, func(c *core.Candidate) bool { return c.Rating >= minRating })
	}

	if constraints.RuntimeMin != nil || constraints.RuntimeMax != nil {
		run(StageRuntime, func(c *core.Candidate) bool {
			if c.Runtime == 0 {
				return false
			}
			if constraints.RuntimeMin != nil && c.Runtime < *constraints.RuntimeMin {
				return false
			}
			if constraints.RuntimeMax != nil && c.Runtime > *constraints.RuntimeMax {
				return false
			}
			return true
		})
	}

	if len(constraints.Genres) > 0 || len(constraints.ExcludeGenres) > 0 {
		required := normalizeSet(constraints.Genres)
		excluded := normalizeSet(constraints.ExcludeGenres)
		run(StageGenres, func(c *core.Candidate) bool {
			have := normalizeSet(c.Genres)
			for g := range required {
				if !have[g] {
					return false
				}
			}
			for g := range excluded {
				if have[g] {
					return false
				}
			}
			return true
		})
	}

	if len(constraints.StreamingProviders) > 0 {
		wanted := normalizeSet(constraints.StreamingProviders)
		run(StageProviders, func(c *core.Candidate) bool {
			for _, p := range c.StreamingProviders {
				if wanted[normalize(p)] {
					return true
				}
			}
			return false
		})
	}

	// Equal flags are either both unset or contradictory; neither narrows.
	if constraints.PopularOnly != constraints.HiddenGems && len(current) > 0 {
		threshold := median(current)
		if constraints.PopularOnly {
			run(StagePopularity, func(c *core.Candidate) bool { return c.Popularity >= threshold })
		} else {
			run(StagePopularity, func(c *core.Candidate) bool { return c.Popularity < threshold })
		}
	}

	stats.After = len(current)
	e.logger.Debug("filters applied",
		"before", stats.Before,
		"after", stats.After,
		"selectivity", stats.Selectivity())
	return current, stats
}

// median returns the median popularity of candidates.
func median(candidates []*core.Candidate) float64 {
	values := make([]float64, len(candidates))
	for i, c := range candidates {
		values[i] = c.Popularity
	}
	slices.Sort(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if n := normalize(v); n != "" {
			set[n] = true
		}
	}
	return set
}

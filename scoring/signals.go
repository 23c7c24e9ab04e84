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
	"math"
	"strings"

	"github.com/poiesic/marquee/core"
)

// Signal names used as keys in Candidate.Signals.
const (
	SignalSemantic   = "semantic_similarity"
	SignalGenre      = "genre_keyword_match"
	SignalPopularity = "popularity"
	SignalRating     = "rating_quality"
	SignalRecency    = "recency"
)

const (
	genreMatchScore     = 0.3
	themeMatchScore     = 0.1
	neutralGenreScore   = 0.5
	maxThemeScore       = 0.5
	defaultMaxLogPop    = 7.0
	minRatingConfidence = 0.3
	voteScale           = 100.0
	recencyDecay        = 0.85
	minRecencyScore     = 0.1
	unknownRecencyScore = 0.5
)

// Context carries batch-level statistics shared by extractors.
type Context struct {
	CurrentYear      int
	MaxLogPopularity float64
}

// NewContext computes the context for a candidate batch.
func NewContext(candidates []*core.Candidate, currentYear int) *Context {
	sc := &Context{CurrentYear: currentYear, MaxLogPopularity: defaultMaxLogPop}
	var maxPop float64
	for _, c := range candidates {
		maxPop = max(maxPop, c.Popularity)
	}
	if maxPop > 0 {
		sc.MaxLogPopularity = math.Log(maxPop + 1)
	}
	return sc
}

// Extractor computes one normalized signal for a candidate.
type Extractor interface {
	Name() string
	Extract(c *core.Candidate, q *core.ParsedQuery, sc *Context) (float64, error)
}

// SemanticExtractor passes through vector similarity.
type SemanticExtractor struct{}

func (SemanticExtractor) Name() string { return SignalSemantic }

func (SemanticExtractor) Extract(c *core.Candidate, _ *core.ParsedQuery, _ *Context) (float64, error) {
	return clamp01(c.SimilarityScore), nil
}

// GenreExtractor scores required-genre overlap plus theme/keyword overlap.
type GenreExtractor struct{}

func (GenreExtractor) Name() string { return SignalGenre }

func (GenreExtractor) Extract(c *core.Candidate, q *core.ParsedQuery, _ *Context) (float64, error) {
	var score float64

	queryGenres := lowerSet(q.Constraints.Genres)
	if len(queryGenres) > 0 {
		matches := countIn(lowerSet(c.Genres), queryGenres)
		score += min(1.0, float64(matches)*genreMatchScore)
	} else {
		score += neutralGenreScore
	}

	themes := lowerSet(q.Intent.Themes)
	if len(themes) > 0 {
		matches := countIn(lowerSet(c.Keywords), themes)
		score += min(maxThemeScore, float64(matches)*themeMatchScore)
	}

	return min(1.0, score), nil
}

// PopularityExtractor scores log popularity relative to the batch maximum.
type PopularityExtractor struct{}

func (PopularityExtractor) Name() string { return SignalPopularity }

func (PopularityExtractor) Extract(c *core.Candidate, _ *core.ParsedQuery, sc *Context) (float64, error) {
	if c.Popularity <= 0 {
		return 0, nil
	}
	maxLog := sc.MaxLogPopularity
	if maxLog <= 0 {
		maxLog = defaultMaxLogPop
	}
	return min(1.0, math.Log(c.Popularity+1)/maxLog), nil
}

// RatingExtractor scores the rating, discounted when few people voted.
type RatingExtractor struct{}

func (RatingExtractor) Name() string { return SignalRating }

func (RatingExtractor) Extract(c *core.Candidate, _ *core.ParsedQuery, _ *Context) (float64, error) {
	if c.Rating <= 0 {
		return 0, nil
	}
	confidence := minRatingConfidence + (1-minRatingConfidence)*sigmoid(float64(c.VoteCount)/voteScale)
	return min(1.0, c.Rating/10*confidence), nil
}

// RecencyExtractor decays exponentially with age.
type RecencyExtractor struct{}

func (RecencyExtractor) Name() string { return SignalRecency }

func (RecencyExtractor) Extract(c *core.Candidate, _ *core.ParsedQuery, sc *Context) (float64, error) {
	if c.ReleaseYear == 0 {
		return unknownRecencyScore, nil
	}
	age := sc.CurrentYear - c.ReleaseYear
	if age < 0 {
		return 1.0, nil
	}
	return max(minRecencyScore, math.Pow(recencyDecay, float64(age))), nil
}

// DefaultExtractors returns one extractor per signal.
func DefaultExtractors() []Extractor {
	return []Extractor{
		SemanticExtractor{},
		GenreExtractor{},
		PopularityExtractor{},
		RatingExtractor{},
		RecencyExtractor{},
	}
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = true
		}
	}
	return set
}

func countIn(have, want map[string]bool) int {
	n := 0
	for k := range want {
		if have[k] {
			n++
		}
	}
	return n
}

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
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/marquee/core"
)

var (
	trendingKeywords = []string{"trending", "popular", "most watched"}
	recentKeywords   = []string{"new", "recent", "latest"}
	qualityKeywords  = []string{"best", "top rated", "critically acclaimed", "masterpiece"}
)

// Strategy names reported by SelectWeights.
const (
	StrategyPopularity = "popularity_focused"
	StrategyDiscovery  = "discovery_focused"
	StrategyQuality    = "quality_focused"
	StrategySemantic   = "semantic_focused"
	StrategyDefault    = "default"
)

// SelectWeights chooses a weight preset from the query wording. Rules are
// checked in priority order: trending, recent, quality, reference titles.
// Matching is by substring of the lowercased raw query.
func SelectWeights(q *core.ParsedQuery, now time.Time) (Weights, string) {
	if q == nil {
		return DefaultWeights(), StrategyDefault
	}
	text := strings.ToLower(q.Intent.RawQuery)

	recent := append([]string{}, recentKeywords...)
	recent = append(recent, strconv.Itoa(now.Year()), strconv.Itoa(now.Year()-1))

	switch {
	case containsAny(text, trendingKeywords):
		return PopularityFocused(), StrategyPopularity
	case containsAny(text, recent):
		return DiscoveryFocused(), StrategyDiscovery
	case containsAny(text, qualityKeywords):
		return QualityFocused(), StrategyQuality
	case len(q.Intent.ReferenceTitles) > 0:
		return SemanticFocused(), StrategySemantic
	}
	return DefaultWeights(), StrategyDefault
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

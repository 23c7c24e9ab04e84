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

// Weights are the relative importance of each signal. They are normalized
// to sum to 1.0 before use.
type Weights struct {
	Semantic   float64 `yaml:"semantic"`
	Genre      float64 `yaml:"genre"`
	Popularity float64 `yaml:"popularity"`
	Rating     float64 `yaml:"rating"`
	Recency    float64 `yaml:"recency"`
}

// DefaultWeights is the balanced preset.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.5, Genre: 0.2, Popularity: 0.1, Rating: 0.1, Recency: 0.1}
}

// SemanticFocused favors similarity, for "like X" queries.
func SemanticFocused() Weights {
	return Weights{Semantic: 0.7, Genre: 0.15, Popularity: 0.05, Rating: 0.05, Recency: 0.05}
}

// PopularityFocused favors what is widely watched.
func PopularityFocused() Weights {
	return Weights{Semantic: 0.3, Genre: 0.1, Popularity: 0.3, Rating: 0.2, Recency: 0.1}
}

// DiscoveryFocused favors recent releases.
func DiscoveryFocused() Weights {
	return Weights{Semantic: 0.3, Genre: 0.2, Popularity: 0.1, Rating: 0.15, Recency: 0.25}
}

// QualityFocused favors well rated titles.
func QualityFocused() Weights {
	return Weights{Semantic: 0.35, Genre: 0.15, Popularity: 0.1, Rating: 0.35, Recency: 0.05}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Semantic + w.Genre + w.Popularity + w.Rating + w.Recency
}

// Normalize returns weights scaled to sum to 1.0. Negative weights count as
// zero. A zero total falls back to DefaultWeights.
func (w Weights) Normalize() Weights {
	w = Weights{
		Semantic:   max(0, w.Semantic),
		Genre:      max(0, w.Genre),
		Popularity: max(0, w.Popularity),
		Rating:     max(0, w.Rating),
		Recency:    max(0, w.Recency),
	}
	total := w.Sum()
	if total == 0 {
		return DefaultWeights()
	}
	return Weights{
		Semantic:   w.Semantic / total,
		Genre:      w.Genre / total,
		Popularity: w.Popularity / total,
		Rating:     w.Rating / total,
		Recency:    w.Recency / total,
	}
}

// of returns the weight for a signal name.
func (w Weights) of(signal string) float64 {
	switch signal {
	case SignalSemantic:
		return w.Semantic
	case SignalGenre:
		return w.Genre
	case SignalPopularity:
		return w.Popularity
	case SignalRating:
		return w.Rating
	case SignalRecency:
		return w.Recency
	}
	return 0
}

// AsMap returns the weights keyed by signal name.
func (w Weights) AsMap() map[string]float64 {
	return map[string]float64{
		SignalSemantic:   w.Semantic,
		SignalGenre:      w.Genre,
		SignalPopularity: w.Popularity,
		SignalRating:     w.Rating,
		SignalRecency:    w.Recency,
	}
}

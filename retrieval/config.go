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


package retrieval

// Config controls a single retrieval.
type Config struct {
	// TopK is the number of nearest neighbours requested from the index.
	TopK int `yaml:"top_k" validate:"gte=0"`

	// MinSimilarity drops matches scoring below it.
	MinSimilarity float64 `yaml:"min_similarity" validate:"gte=-1,lte=1"`

	// ApplyFilters runs the constraint filters over the enriched candidates.
	ApplyFilters bool `yaml:"apply_filters"`

	// IncludeAdult keeps adult titles.
	IncludeAdult bool `yaml:"include_adult"`

	// MaxResults caps the returned candidates.
	MaxResults int `yaml:"max_results" validate:"gte=0"`
}

// DefaultConfig returns the settings used when none are supplied.
func DefaultConfig() Config {
	return Config{
		TopK:          100,
		MinSimilarity: 0,
		ApplyFilters:  true,
		IncludeAdult:  false,
		MaxResults:    50,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TopK <= 0 {
		c.TopK = d.TopK
	}
	if c.MaxResults <= 0 {
		c.MaxResults = d.MaxResults
	}
	return c
}

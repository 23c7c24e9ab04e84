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


package core

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateCandidate validates a Candidate according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//   - ReleaseYear, Runtime, VoteCount and Popularity must not be negative
//   - Rating must be within [0, 10]
//   - MediaType, when set, must be movie or tv_show
//
// NOT validated (request-scoped, populated by pipeline stages):
//   - SimilarityScore, FinalScore, Signals, MatchExplanation, LLMRelevance
func ValidateCandidate(c *Candidate) error {
	if c == nil {
		return fmt.Errorf("%w: candidate is nil", ErrInvalidCandidate)
	}

	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, ErrEmptyTitle)
	}

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, err)
	}

	if c.MediaType != "" && c.MediaType != MediaTypeMovie && c.MediaType != MediaTypeTVShow {
		return fmt.Errorf("%w: %w: %q", ErrInvalidCandidate, ErrInvalidMediaType, c.MediaType)
	}

	return nil
}

// ValidateConstraints validates QueryConstraints.
//
// Validation rules:
//   - Years must be within [1900, 2100]
//   - RatingMin must be within [0, 10]
//   - Runtimes must not be negative
//   - YearMin <= YearMax and RuntimeMin <= RuntimeMax when both are set
//   - PopularOnly and HiddenGems are mutually exclusive
func ValidateConstraints(c *QueryConstraints) error {
	if c == nil {
		return nil
	}

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConstraints, err)
	}

	if c.MediaType != "" {
		if _, ok := ParseMediaType(string(c.MediaType)); !ok {
			return fmt.Errorf("%w: %w: %q", ErrInvalidConstraints, ErrInvalidMediaType, c.MediaType)
		}
	}

	if c.YearMin != nil && c.YearMax != nil && *c.YearMin > *c.YearMax {
		return fmt.Errorf("%w: %w", ErrInvalidConstraints, ErrYearRange)
	}

	if c.RuntimeMin != nil && c.RuntimeMax != nil && *c.RuntimeMin > *c.RuntimeMax {
		return fmt.Errorf("%w: %w", ErrInvalidConstraints, ErrRuntimeRange)
	}

	if c.PopularOnly && c.HiddenGems {
		return fmt.Errorf("%w: %w", ErrInvalidConstraints, ErrConflictingPopularity)
	}

	return nil
}

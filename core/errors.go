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

import "errors"

// Domain validation errors
var (
	// ErrInvalidCandidate indicates a Candidate failed validation.
	ErrInvalidCandidate = errors.New("invalid candidate")

	// ErrInvalidConstraints indicates QueryConstraints failed validation.
	ErrInvalidConstraints = errors.New("invalid query constraints")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrYearRange indicates YearMin is greater than YearMax.
	ErrYearRange = errors.New("year_min must be less than or equal to year_max")

	// ErrRuntimeRange indicates RuntimeMin is greater than RuntimeMax.
	ErrRuntimeRange = errors.New("runtime_min must be less than or equal to runtime_max")

	// ErrConflictingPopularity indicates both popular_only and hidden_gems are set.
	ErrConflictingPopularity = errors.New("popular_only and hidden_gems are mutually exclusive")

	// ErrInvalidMediaType indicates an unknown MediaType value.
	ErrInvalidMediaType = errors.New("invalid media type")
)

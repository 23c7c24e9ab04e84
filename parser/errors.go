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
	"errors"
	"fmt"

	"github.com/poiesic/marquee/ai"
)

var (
	// ErrEmptyQuery indicates the query was empty after trimming.
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// FailureKind classifies why the LLM path failed.
type FailureKind int

const (
	FailureTransient FailureKind = iota
	FailureRateLimited
	FailureInvalidResponse
	FailureUnavailable
)

func (k FailureKind) String() string {
	switch k {
	case FailureRateLimited:
		return "rate_limited"
	case FailureInvalidResponse:
		return "invalid_response"
	case FailureUnavailable:
		return "unavailable"
	}
	return "transient"
}

// ParseFailure reports a failed LLM parse. It is returned to the caller only
// when fallback is disabled.
type ParseFailure struct {
	Kind FailureKind
	Err  error
}

func (f *ParseFailure) Error() string {
	return fmt.Sprintf("llm parse failed (%s): %v", f.Kind, f.Err)
}

func (f *ParseFailure) Unwrap() error {
	return f.Err
}

func newParseFailure(err error) *ParseFailure {
	kind := FailureTransient
	switch {
	case errors.Is(err, ai.ErrRateLimited):
		kind = FailureRateLimited
	case errors.Is(err, ai.ErrInvalidResponse):
		kind = FailureInvalidResponse
	case errors.Is(err, ai.ErrUnavailable):
		kind = FailureUnavailable
	}
	return &ParseFailure{Kind: kind, Err: err}
}

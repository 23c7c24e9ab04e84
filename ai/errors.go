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


package ai

import "errors"

var (
	// ErrRateLimited indicates the upstream model or the local request budget
	// refused the call. Never retried.
	ErrRateLimited = errors.New("llm rate limited")

	// ErrInvalidResponse indicates the model replied with content that could
	// not be decoded as the expected JSON. Never retried.
	ErrInvalidResponse = errors.New("llm returned invalid response")

	// ErrTransient indicates a timeout or network failure that may succeed
	// on retry.
	ErrTransient = errors.New("llm transient failure")

	// ErrUnavailable indicates no client is configured or the circuit
	// breaker is open.
	ErrUnavailable = errors.New("llm unavailable")

	// ErrInvalidMaxAttempts indicates maxAttempts parameter is invalid (must be > 0).
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)

// IsRetryable reports whether err belongs to the transient class.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

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


package mock

import (
	"context"
	"sync"
)

// MockLLMClient is a test double for ai.LLMClient.
// It is safe for concurrent use.
type MockLLMClient struct {
	// CompleteJSONFunc is called by CompleteJSON if set.
	// If nil, an empty JSON object is returned.
	CompleteJSONFunc func(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (map[string]any, error)

	mu             sync.Mutex
	callCount      int
	lastUserPrompt string
}

// NewMockLLMClient creates a mock LLM client with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockLLM().
func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{}
}

// CompleteJSON records the call and delegates to CompleteJSONFunc.
func (m *MockLLMClient) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (map[string]any, error) {
	m.mu.Lock()
	m.callCount++
	m.lastUserPrompt = userPrompt
	fn := m.CompleteJSONFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, systemPrompt, userPrompt, temperature, maxTokens)
	}
	return map[string]any{}, nil
}

// CallCount returns the number of times CompleteJSON was called.
func (m *MockLLMClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastUserPrompt returns the user prompt of the most recent call.
func (m *MockLLMClient) LastUserPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastUserPrompt
}

// Reset clears the call count and custom behavior.
func (m *MockLLMClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastUserPrompt = ""
	m.CompleteJSONFunc = nil
}

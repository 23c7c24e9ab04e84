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


// Package mock provides test doubles for the ai package interfaces.
//
// # Usage
//
//	provider := mock.NewMockProvider()
//	llm := provider.(*mock.MockProvider).GetMockLLM()
//	llm.CompleteJSONFunc = func(ctx context.Context, system, user string, temp float64, max int) (map[string]any, error) {
//	    return nil, fmt.Errorf("%w: 429", ai.ErrRateLimited)
//	}
//
//	// Check call counts
//	count := llm.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockLLMClient: Returns an empty JSON object
//   - MockProvider: Aggregates mock embedder and LLM client
package mock

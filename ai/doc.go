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


// Package ai provides abstractions for the model services used by the
// ranking pipeline.
//
// The pipeline depends on two services: an Embedder that turns text into
// vectors for semantic retrieval, and an LLMClient that answers prompts with
// JSON for query parsing and re-ranking. Both are grouped behind a Provider
// so that the composition root can construct them together.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithProvider(ai.ProviderOllama))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "slow burn space drama")
//	out, err := provider.LLM().CompleteJSON(ctx, system, prompt, 0.3, 1024)
//
//	// Testing usage with mocks
//	mockProvider := mock.NewMockProvider()
//	vec, err := mockProvider.Embedder().EmbedText(ctx, "test text")
//
// # Errors
//
// LLM failures are classified by wrapping one of the sentinel errors in this
// package. ErrTransient is the only class that RetryWithBackoff callers
// should retry; ErrRateLimited and ErrInvalidResponse are surfaced
// immediately so the caller can fall back.
package ai

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


// Package openai provides AI service implementations using OpenAI-compatible APIs.
//
// This package implements the ai.Provider interface using the langchaingo
// library. Both supported LLM backends, Ollama and Groq, expose the OpenAI
// chat completions API, so one client covers them.
//
// # Usage
//
//	config := ai.NewConfig(ai.WithGroq(os.Getenv("GROQ_API_KEY")))
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "sample text")
//	out, err := provider.LLM().CompleteJSON(ctx, system, user, 0.3, 1024)
//
// # Failure handling
//
// Each completion attempt is bounded by LLMTimeout, admitted by a local
// token bucket sized from RequestsPerMinute, and executed through a circuit
// breaker. Replies are stripped of markdown fences and repaired before
// decoding.
package openai

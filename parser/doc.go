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


// Package parser turns a free-text media query into a core.ParsedQuery.
//
// Parse tries an LLM first. The model is asked for a fixed JSON schema and
// its answer is read leniently: tone, emotion and media type values outside
// the closed vocabularies are dropped rather than rejected. When the model is
// unavailable, rate limited, or answers with something unusable, the parser
// falls back to a deterministic rule-based extractor built from regular
// expressions and keyword tables.
//
// LLM results carry confidence 0.9 and rule-based results 0.5. Only LLM
// results are cached.
package parser

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


// Package search runs the full query pipeline behind a single call.
//
// A Searcher parses the raw query, overlays caller filters onto the parsed
// constraints, retrieves candidates from the vector index, scores them with
// adaptively selected weights and optionally re-ranks the head of the list
// with an LLM. Every stage degrades rather than fails where it can: the
// parser falls back to rules, an empty index yields no results and the
// re-ranker falls back to the scoring order.
package search

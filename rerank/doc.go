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


// Package rerank reorders scored candidates with an LLM and attaches a short
// explanation to each result.
//
// The stage never fails a search. A rate-limited, failed or empty LLM reply
// returns the scoring order unchanged, and a reply with fewer usable entries
// than requested is backfilled from the scoring order. Successful rankings
// are cached by query and candidate set so repeated searches do not spend
// the provider's request budget.
package rerank

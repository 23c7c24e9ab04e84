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


// Package scoring ranks candidates by a weighted combination of signals.
//
// Each Extractor produces one signal in [0, 1] for a candidate: semantic
// similarity, genre/keyword match, popularity, rating quality and recency.
// The Engine combines them with normalized Weights into a final score and
// sorts candidates by it. SelectWeights picks a preset from the wording of
// the query.
package scoring

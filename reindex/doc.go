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


// Package reindex rebuilds the vector index from the catalog.
//
// A Rebuilder walks the catalog in batches, renders each item as a document,
// embeds the batches concurrently on a bounded worker pool and builds a new
// HNSW graph from the results. The new graph replaces the active one in a
// single swap and is then persisted through the index's snapshot store.
// Searches running during a rebuild keep using the previous graph.
package reindex

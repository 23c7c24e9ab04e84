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


// Package vectorindex provides an in-memory HNSW approximate nearest
// neighbor index over L2-normalized embeddings.
//
// The active graph is immutable and held behind an atomic pointer. Build
// constructs a complete new graph off to the side and swaps it in, so
// concurrent searches always observe either the previous graph or the new
// one. Snapshots are persisted as two blobs, the graph and the position to
// id mapping, through a SnapshotStore.
//
// # Usage
//
//	idx, err := vectorindex.New(vectorindex.WithDimension(384))
//	err = idx.Build(ctx, vectors, ids, 0, 0) // defaults: M=32, efConstruction=200
//	matches, err := idx.Search(query, 10, 0) // default efSearch=100
package vectorindex

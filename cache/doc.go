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


// Package cache provides the key/value cache used by the query parser and the
// re-ranking stage.
//
// Three Store implementations exist: MemoryStore for a single process,
// RedisStore for sharing entries across processes, and the Badger-backed
// CacheRepository in storage/badger for local persistence.
//
// Patterns passed to DeletePattern support a single trailing "*" wildcard.
// Any other pattern matches one key exactly.
package cache

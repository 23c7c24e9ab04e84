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


// Package storage provides the storage abstraction layer for marquee.
//
// This package defines repository interfaces that decouple the catalog store
// from the ranking pipeline. The retrieval engine, the importer and the index
// rebuild job only see CatalogRepository.
//
// # Constructor Return Type Pattern
//
// Public constructors in implementation packages return interfaces:
//
//	repo, err := badger.NewCatalogRepository(backend)  // returns storage.CatalogRepository
//
// Internal constructors (newCatalogRepository, etc.) return concrete types
// since they are only used within the implementation package.
//
// # Architecture
//
//   - Repository: transaction support and Close
//   - CatalogRepository: catalog items keyed by core.ID
//
// The Badger implementation also provides a vectorindex.SnapshotStore and a
// cache.Store over the same database.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	catalog, err := badger.NewCatalogRepository(backend)
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be safe for concurrent use.
//
// # Context Support
//
// All repository methods accept context.Context. Iteration checks for
// cancellation between records.
package storage

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


package badger

import (
	"github.com/poiesic/marquee/cache"
	"github.com/poiesic/marquee/storage"
	"github.com/poiesic/marquee/vectorindex"
)

// Repositories groups the repositories that share one Backend.
type Repositories struct {
	Backend   *Backend
	Catalog   storage.CatalogRepository
	Snapshots vectorindex.SnapshotStore
	Cache     cache.Store
}

// Close closes the catalog and then the backend.
func (r *Repositories) Close() error {
	if err := r.Catalog.Close(); err != nil {
		r.Backend.Close()
		return err
	}
	return r.Backend.Close()
}

// OpenRepositories opens a Backend and builds every repository over it.
// Caller must Close the result when done.
func OpenRepositories(filePath string, inMemory bool, opts ...BackendOption) (*Repositories, error) {
	backend, err := OpenBackend(filePath, inMemory, opts...)
	if err != nil {
		return nil, err
	}

	catalog, err := NewCatalogRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	snapshots, err := NewSnapshotRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	cacheRepo, err := NewCacheRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Repositories{
		Backend:   backend,
		Catalog:   catalog,
		Snapshots: snapshots,
		Cache:     cacheRepo,
	}, nil
}

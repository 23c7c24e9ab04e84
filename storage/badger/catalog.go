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
	"bytes"
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/storage"
)

const defaultPageSize = 256

// CatalogRepository implements storage.CatalogRepository for BadgerDB.
type CatalogRepository struct {
	backend  *Backend
	pageSize int
}

var _ storage.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(backend *Backend) (storage.CatalogRepository, error) {
	return newCatalogRepository(backend)
}

func newCatalogRepository(backend *Backend) (*CatalogRepository, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return &CatalogRepository{
		backend:  backend,
		pageSize: defaultPageSize,
	}, nil
}

// Close releases resources. The backend is owned by the caller.
func (r *CatalogRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *CatalogRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddCandidates inserts or replaces catalog items.
func (r *CatalogRepository) AddCandidates(ctx context.Context, candidates ...*core.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, c := range candidates {
			if err := tx.Set(makeCatalogKey(c.Id), storage.MarshalCandidate(c)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetCandidate retrieves a single catalog item.
func (r *CatalogRepository) GetCandidate(ctx context.Context, id core.ID) (*core.Candidate, error) {
	var result *core.Candidate
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readCandidate(tx, makeCatalogKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetCandidates retrieves the items that exist, in the order requested.
func (r *CatalogRepository) GetCandidates(ctx context.Context, ids ...core.ID) ([]*core.Candidate, error) {
	result := make([]*core.Candidate, 0, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			c, err := readCandidate(tx, makeCatalogKey(id))
			if err != nil {
				return err
			}
			if c != nil {
				result = append(result, c)
			}
		}
		return nil
	}, false)
	return result, err
}

// DeleteCandidates removes catalog items.
func (r *CatalogRepository) DeleteCandidates(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(makeCatalogKey(id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ForEach visits items in ID order. Items are read a page at a time so fn
// runs outside any transaction.
func (r *CatalogRepository) ForEach(ctx context.Context, fn func(*core.Candidate) error) error {
	prefix := []byte(catalogPrefix)
	seek := prefix
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, next, err := r.readPage(seek, prefix)
		if err != nil {
			return err
		}
		for _, c := range page {
			if err := fn(c); err != nil {
				return err
			}
		}
		if next == nil {
			return nil
		}
		seek = next
	}
}

// readPage returns up to pageSize items starting at seek, and the key to
// resume from or nil when the prefix is exhausted.
func (r *CatalogRepository) readPage(seek, prefix []byte) ([]*core.Candidate, []byte, error) {
	page := make([]*core.Candidate, 0, r.pageSize)
	var next []byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(seek); iter.Valid(); iter.Next() {
			item := iter.Item()
			if len(page) == r.pageSize {
				next = item.KeyCopy(nil)
				return nil
			}
			var c *core.Candidate
			if err := item.Value(func(val []byte) error {
				var err error
				c, err = storage.UnmarshalCandidate(val)
				return err
			}); err != nil {
				return err
			}
			page = append(page, c)
		}
		return nil
	}, false)
	if err != nil {
		return nil, nil, err
	}
	if next != nil && !bytes.HasPrefix(next, prefix) {
		next = nil
	}
	return page, next, nil
}

// Count returns the number of catalog items.
func (r *CatalogRepository) Count(ctx context.Context) (int, error) {
	return r.backend.countPrefix(ctx, []byte(catalogPrefix))
}

func readCandidate(tx *badger.Txn, key []byte) (*core.Candidate, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var c *core.Candidate
	err = item.Value(func(val []byte) error {
		var err error
		c, err = storage.UnmarshalCandidate(val)
		return err
	})
	return c, err
}

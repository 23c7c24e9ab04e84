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
	"github.com/poiesic/marquee/vectorindex"
)

// SnapshotRepository stores the vector index snapshot in Badger. Both blobs
// are written in one transaction so readers never see a mismatched pair.
type SnapshotRepository struct {
	backend *Backend
}

var _ vectorindex.SnapshotStore = (*SnapshotRepository)(nil)

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(backend *Backend) (vectorindex.SnapshotStore, error) {
	return newSnapshotRepository(backend)
}

func newSnapshotRepository(backend *Backend) (*SnapshotRepository, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return &SnapshotRepository{backend: backend}, nil
}

// SaveSnapshot replaces the stored snapshot.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, graphBlob, idBlob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(snapshotGraphKey), bytes.Clone(graphBlob)); err != nil {
			return err
		}
		if err := tx.Set([]byte(snapshotIDsKey), bytes.Clone(idBlob)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadSnapshot returns both blobs, or vectorindex.ErrSnapshotNotFound if
// either is missing.
func (r *SnapshotRepository) LoadSnapshot(ctx context.Context) ([]byte, []byte, error) {
	var graphBlob, idBlob []byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		if graphBlob, err = readBlob(tx, snapshotGraphKey); err != nil {
			return err
		}
		idBlob, err = readBlob(tx, snapshotIDsKey)
		return err
	}, false)
	if err != nil {
		return nil, nil, err
	}
	return graphBlob, idBlob, nil
}

func readBlob(tx *badger.Txn, key string) ([]byte, error) {
	item, err := tx.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, vectorindex.ErrSnapshotNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

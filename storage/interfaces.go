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


package storage

import (
	"context"

	"github.com/poiesic/marquee/core"
)

// Repository is the base interface for all storage implementations.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

// CatalogRepository stores catalog items.
type CatalogRepository interface {
	Repository

	// AddCandidates inserts or replaces catalog items by ID.
	// Request-scoped fields are not persisted.
	AddCandidates(ctx context.Context, candidates ...*core.Candidate) error

	// GetCandidate retrieves a single item.
	// Returns ErrNotFound if the item doesn't exist.
	GetCandidate(ctx context.Context, id core.ID) (*core.Candidate, error)

	// GetCandidates retrieves multiple items by ID.
	// Missing IDs are skipped. Order of the result is unspecified.
	GetCandidates(ctx context.Context, ids ...core.ID) ([]*core.Candidate, error)

	// DeleteCandidates removes items. Missing IDs are ignored.
	DeleteCandidates(ctx context.Context, ids ...core.ID) error

	// ForEach calls fn for every item in ID order. Iteration stops at the
	// first error returned by fn.
	ForEach(ctx context.Context, fn func(*core.Candidate) error) error

	// Count returns the number of stored items.
	Count(ctx context.Context) (int, error)
}

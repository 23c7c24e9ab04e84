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


package vectorindex

import "errors"

var (
	// ErrNotInitialized indicates no graph has been built or loaded.
	ErrNotInitialized = errors.New("vector index not initialized")

	// ErrDimensionMismatch indicates a vector width differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrLengthMismatch indicates the vector and id slices differ in length.
	ErrLengthMismatch = errors.New("vectors and ids length mismatch")

	// ErrValidation indicates a persisted snapshot failed validation.
	ErrValidation = errors.New("vector index snapshot invalid")

	// ErrSnapshotNotFound indicates no persisted snapshot exists.
	ErrSnapshotNotFound = errors.New("vector index snapshot not found")

	// ErrSnapshotStoreRequired indicates Save or Load was called without a store.
	ErrSnapshotStoreRequired = errors.New("snapshot store is required")

	// ErrInvalidDimension indicates a non-positive dimension option.
	ErrInvalidDimension = errors.New("dimension must be greater than 0")
)

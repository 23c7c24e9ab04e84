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

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	graphFileName = "index.graph"
	idMapFileName = "index.ids"
)

// FileStore keeps the snapshot as two files in a directory. Each file is
// written to a temporary sibling and renamed into place.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// SaveSnapshot writes the graph file first and the id map second.
func (s *FileStore) SaveSnapshot(ctx context.Context, graphBlob, idBlob []byte) error {
	if err := writeFileAtomic(filepath.Join(s.dir, graphFileName), graphBlob); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(s.dir, idMapFileName), idBlob)
}

// LoadSnapshot reads both files. If either is missing the snapshot is
// reported as not found.
func (s *FileStore) LoadSnapshot(ctx context.Context) ([]byte, []byte, error) {
	graphBlob, err := os.ReadFile(filepath.Join(s.dir, graphFileName))
	if err != nil {
		return nil, nil, mapNotExist(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	idBlob, err := os.ReadFile(filepath.Join(s.dir, idMapFileName))
	if err != nil {
		return nil, nil, mapNotExist(err)
	}
	return graphBlob, idBlob, nil
}

func mapNotExist(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrSnapshotNotFound, err)
	}
	return err
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

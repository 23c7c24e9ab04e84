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


package ingestion

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/metrics"
	"github.com/poiesic/marquee/storage"
)

// DefaultBatchSize is the number of items written per storage call.
const DefaultBatchSize = 100

// ImportStats summarizes an import.
type ImportStats struct {
	Read     int
	Imported int
	Invalid  int
	Batches  int
	Elapsed  time.Duration
}

// Importer writes catalog items to a repository.
type Importer struct {
	catalog   storage.CatalogRepository
	batchSize int
	logger    *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer) error

// WithBatchSize sets the number of items per write.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(im *Importer) error {
		if size < 1 {
			size = DefaultBatchSize
		}
		im.batchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) error {
		if logger == nil {
			logger = slog.Default()
		}
		im.logger = logger
		return nil
	}
}

// NewImporter creates an importer over catalog.
func NewImporter(catalog storage.CatalogRepository, opts ...Option) (*Importer, error) {
	if catalog == nil {
		return nil, ErrCatalogRequired
	}

	im := &Importer{
		catalog:   catalog,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(im); err != nil {
			return nil, err
		}
	}
	im.logger = im.logger.With("component", "importer")
	return im, nil
}

// Import reads a JSON array or JSON lines from r and upserts every valid
// item. Batches written before a failure stay written.
func (im *Importer) Import(ctx context.Context, r io.Reader) (ImportStats, error) {
	start := time.Now()
	defer metrics.ObserveStage("import", start)

	var stats ImportStats
	pending := make([]*core.Candidate, 0, im.batchSize)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := im.catalog.AddCandidates(ctx, pending...); err != nil {
			im.logger.Error("error writing catalog batch", "items", len(pending), "err", err)
			return err
		}
		stats.Imported += len(pending)
		stats.Batches++
		pending = pending[:0]
		return nil
	}

	err := decodeItems(r, func(item *catalogItem) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Read++
		c := item.toCandidate()
		if err := core.ValidateCandidate(c); err != nil {
			im.logger.Warn("skipping invalid item", "position", stats.Read, "title", c.Title, "err", err)
			stats.Invalid++
			return nil
		}
		pending = append(pending, c)
		if len(pending) >= im.batchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	stats.Elapsed = time.Since(start)
	if err != nil {
		return stats, err
	}

	im.logger.Info("import complete",
		"read", stats.Read,
		"imported", stats.Imported,
		"invalid", stats.Invalid,
		"elapsed", stats.Elapsed)
	return stats, nil
}

// decodeItems calls fn for each item in r. A leading '[' selects array mode;
// anything else is read as a sequence of JSON objects.
func decodeItems(r io.Reader, fn func(*catalogItem) error) error {
	br := bufio.NewReader(r)
	first, err := firstByte(br)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}

	dec := json.NewDecoder(br)
	if first != '[' {
		for n := 1; ; n++ {
			var item catalogItem
			err := dec.Decode(&item)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("%w: item %d: %w", ErrDecode, n, err)
			}
			if err := fn(&item); err != nil {
				return err
			}
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	for n := 1; dec.More(); n++ {
		var item catalogItem
		if err := dec.Decode(&item); err != nil {
			return fmt.Errorf("%w: item %d: %w", ErrDecode, n, err)
		}
		if err := fn(&item); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: unterminated array: %w", ErrDecode, err)
	}
	return nil
}

// firstByte returns the first non-whitespace byte without consuming it.
func firstByte(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

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


package reindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/core"
)

// batch is one embedding call's worth of catalog items.
type batch struct {
	seq   int
	ids   []core.ID
	texts []string
}

type batchResult struct {
	seq     int
	ids     []core.ID
	vectors [][]float32
}

// embedBatch embeds b with retry and returns unit-length vectors.
func (r *Rebuilder) embedBatch(ctx context.Context, b batch) ([][]float32, error) {
	var embeddings [][]float32
	err := ai.RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = r.embedder.EmbedTexts(ctx, b.texts)
		if err == nil && len(embeddings) != len(b.texts) {
			err = fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingMismatch, len(b.texts), len(embeddings))
		}
		return err
	}, r.config.MaxRetries, r.config.RetryDelay, retryableEmbedError)
	if err != nil {
		r.logger.Error("error embedding batch", "batch", b.seq, "items", len(b.ids), "err", err)
		return nil, fmt.Errorf("failed to embed batch %d after %d attempts: %w", b.seq, r.config.MaxRetries, err)
	}

	vectors := make([][]float32, len(embeddings))
	for i, e := range embeddings {
		vectors[i] = NormalizeVector(e)
	}
	return vectors, nil
}

// retryableEmbedError retries everything but a count mismatch. Cancellation
// of the rebuild itself is handled by RetryWithBackoff.
func retryableEmbedError(err error) bool {
	return !errors.Is(err, ErrEmbeddingMismatch)
}

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


package rerank

import (
	"context"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/poiesic/marquee/cache"
	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/metrics"
)

const cacheKeyPrefix = "rerank:"

// entry is the cached form of one ranked result. Entries refer to
// candidates by id so a hit can be replayed against a reordered pool.
type entry struct {
	ID          core.ID  `json:"id"`
	Relevance   *float64 `json:"relevance,omitempty"`
	Explanation string   `json:"explanation"`
}

// cacheKey hashes the lowercased query, the sorted candidate ids and topK.
func cacheKey(query string, pool []*core.Candidate, topK int) string {
	ids := make([]core.ID, len(pool))
	for i, c := range pool {
		ids[i] = c.Id
	}
	slices.Sort(ids)

	data, _ := json.Marshal(struct {
		CandidateIDs []core.ID `json:"candidate_ids"`
		Query        string    `json:"query"`
		TopK         int       `json:"top_k"`
	}{ids, strings.ToLower(strings.TrimSpace(query)), topK})
	return cacheKeyPrefix + core.ContentHash(data)
}

func (r *Reranker) cached(ctx context.Context, key string) ([]entry, bool) {
	if r.cache == nil {
		return nil, false
	}
	entries, ok, err := cache.GetJSON[[]entry](ctx, r.cache, key)
	if err != nil {
		r.logger.Warn("rerank cache read failed", "err", err)
	}
	ok = ok && len(entries) > 0
	metrics.CacheResult("rerank", ok)
	return entries, ok
}

func (r *Reranker) store(ctx context.Context, key string, entries []entry) {
	if r.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, r.cache, key, entries, r.cacheTTL); err != nil {
		r.logger.Warn("rerank cache write failed", "err", err)
	}
}

func toEntries(ranked []*core.Candidate) []entry {
	out := make([]entry, len(ranked))
	for i, c := range ranked {
		out[i] = entry{ID: c.Id, Explanation: c.MatchExplanation}
		if c.LLMRelevance != nil {
			out[i].Relevance = core.FloatPtr(*c.LLMRelevance)
		}
	}
	return out
}

// fromEntries replays cached entries against candidates. It reports false
// when an entry names a candidate that is no longer present.
func fromEntries(candidates []*core.Candidate, entries []entry) ([]*core.Candidate, bool) {
	byID := make(map[core.ID]*core.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.Id] = c
	}
	out := make([]*core.Candidate, 0, len(entries))
	for _, e := range entries {
		c, ok := byID[e.ID]
		if !ok {
			return nil, false
		}
		c = c.Clone()
		c.MatchExplanation = e.Explanation
		c.LLMRelevance = nil
		if e.Relevance != nil {
			c.LLMRelevance = core.FloatPtr(*e.Relevance)
		}
		out = append(out, c)
	}
	return out, true
}

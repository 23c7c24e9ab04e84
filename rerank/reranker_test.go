package rerank

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/ai/mock"
	"github.com/poiesic/marquee/cache"
	"github.com/poiesic/marquee/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoredCandidates(n int) []*core.Candidate {
	out := make([]*core.Candidate, n)
	for i := range out {
		out[i] = &core.Candidate{
			Id:          core.ID(100 + i),
			Title:       fmt.Sprintf("Film %d", i),
			ReleaseYear: 2000 + i,
			Genres:      []string{"Drama"},
			FinalScore:  1 - float64(i)/10,
		}
	}
	return out
}

func ranking(items ...map[string]any) map[string]any {
	list := make([]any, len(items))
	for i, item := range items {
		list[i] = item
	}
	return map[string]any{"ranked_movies": list, "reasoning": "test"}
}

func pick(index any, relevance float64, explanation string) map[string]any {
	return map[string]any{"movie_index": index, "relevance_score": relevance, "explanation": explanation}
}

func respondWith(resp map[string]any, err error) func(context.Context, string, string, float64, int) (map[string]any, error) {
	return func(context.Context, string, string, float64, int) (map[string]any, error) {
		return resp, err
	}
}

func ids(candidates []*core.Candidate) []core.ID {
	out := make([]core.ID, len(candidates))
	for i, c := range candidates {
		out[i] = c.Id
	}
	return out
}

func TestRerank_AppliesLLMOrder(t *testing.T) {
	llm := mock.NewMockLLMClient()
	var gotTemp float64
	var gotTokens int
	llm.CompleteJSONFunc = func(_ context.Context, _, _ string, temperature float64, maxTok int) (map[string]any, error) {
		gotTemp, gotTokens = temperature, maxTok
		return ranking(
			pick(float64(2), 0.95, "best fit"),
			pick(float64(0), 0.80, "close second"),
			pick(float64(1), 0.60, "decent"),
		), nil
	}
	r := New(llm)
	input := scoredCandidates(5)

	got := r.Rerank(context.Background(), input, "slow burn dramas", nil, 3, 0)

	require.Len(t, got, 3)
	assert.Equal(t, []core.ID{102, 100, 101}, ids(got))
	assert.Equal(t, "best fit", got[0].MatchExplanation)
	require.NotNil(t, got[0].LLMRelevance)
	assert.Equal(t, 0.95, *got[0].LLMRelevance)
	assert.Equal(t, 0.3, gotTemp)
	assert.Equal(t, 2048, gotTokens)

	assert.Empty(t, input[2].MatchExplanation, "input must not be modified")
	assert.Nil(t, input[2].LLMRelevance)
}

func TestRerank_Validation(t *testing.T) {
	tests := []struct {
		name    string
		reply   map[string]any
		wantIDs []core.ID
	}{
		{
			name:    "out of range indices dropped",
			reply:   ranking(pick(float64(7), 0.9, "bad"), pick(float64(-1), 0.9, "bad"), pick(float64(1), 0.9, "ok")),
			wantIDs: []core.ID{101, 100, 102},
		},
		{
			name:    "duplicate indices dropped",
			reply:   ranking(pick(float64(3), 0.9, "a"), pick(float64(3), 0.8, "b"), pick(float64(0), 0.7, "c")),
			wantIDs: []core.ID{103, 100, 101},
		},
		{
			name:    "non integral index dropped",
			reply:   ranking(pick(1.5, 0.9, "a"), pick("2", 0.9, "b"), pick(float64(4), 0.9, "c")),
			wantIDs: []core.ID{104, 100, 101},
		},
		{
			name:    "entries beyond topK ignored",
			reply:   ranking(pick(float64(4), 0.9, "a"), pick(float64(3), 0.9, "b"), pick(float64(2), 0.9, "c"), pick(float64(1), 0.9, "d")),
			wantIDs: []core.ID{104, 103, 102},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := mock.NewMockLLMClient()
			llm.CompleteJSONFunc = respondWith(tt.reply, nil)
			got := New(llm).Rerank(context.Background(), scoredCandidates(5), "q", nil, 3, 30)
			assert.Equal(t, tt.wantIDs, ids(got))
		})
	}
}

func TestRerank_Backfill(t *testing.T) {
	llm := mock.NewMockLLMClient()
	llm.CompleteJSONFunc = respondWith(ranking(pick(float64(3), 0.9, "great")), nil)

	got := New(llm).Rerank(context.Background(), scoredCandidates(5), "q", nil, 3, 30)

	require.Len(t, got, 3)
	assert.Equal(t, []core.ID{103, 100, 101}, ids(got))
	assert.Equal(t, "great", got[0].MatchExplanation)
	for _, c := range got[1:] {
		assert.Equal(t, "Additional match based on scoring signals", c.MatchExplanation)
		assert.Nil(t, c.LLMRelevance)
	}
}

func TestRerank_BackfillBeyondPool(t *testing.T) {
	llm := mock.NewMockLLMClient()
	llm.CompleteJSONFunc = respondWith(ranking(pick(float64(7), 0.9, "great")), nil)

	got := New(llm).Rerank(context.Background(), scoredCandidates(50), "q", nil, 40, 30)

	require.Len(t, got, 40)
	assert.Equal(t, core.ID(107), got[0].Id)
	seen := make(map[core.ID]bool, len(got))
	for _, c := range got {
		assert.False(t, seen[c.Id], "duplicate %d", c.Id)
		seen[c.Id] = true
	}
	// Backfill continues past the 30 shown to the LLM, in input order.
	assert.Equal(t, core.ID(130), got[30].Id)
	assert.Equal(t, core.ID(139), got[39].Id)
	assert.Equal(t, "Additional match based on scoring signals", got[39].MatchExplanation)

	t.Run("fewer candidates than topK", func(t *testing.T) {
		got := New(llm).Rerank(context.Background(), scoredCandidates(12), "q", nil, 40, 10)
		assert.Len(t, got, 12)
	})
}

func TestRerank_AllInvalidBackfills(t *testing.T) {
	llm := mock.NewMockLLMClient()
	llm.CompleteJSONFunc = respondWith(ranking(pick(float64(99), 0.9, "x"), pick("a", 0.9, "y")), nil)
	input := scoredCandidates(6)

	got := New(llm).Rerank(context.Background(), input, "q", nil, 3, 30)

	assert.Equal(t, []core.ID{100, 101, 102}, ids(got))
	for i, c := range got {
		assert.Equal(t, "Additional match based on scoring signals", c.MatchExplanation)
		assert.Nil(t, c.LLMRelevance)
		assert.NotSame(t, input[i], c)
	}
	assert.Empty(t, input[0].MatchExplanation)
}

func TestRerank_RelevanceDefaultsAndClamp(t *testing.T) {
	llm := mock.NewMockLLMClient()
	llm.CompleteJSONFunc = respondWith(ranking(
		map[string]any{"movie_index": float64(0), "explanation": "no score"},
		pick(float64(1), 3.5, "too high"),
	), nil)

	got := New(llm).Rerank(context.Background(), scoredCandidates(2), "q", nil, 2, 30)

	require.Len(t, got, 2)
	assert.Equal(t, 0.5, *got[0].LLMRelevance)
	assert.Equal(t, 1.0, *got[1].LLMRelevance)
}

func TestRerank_Fallbacks(t *testing.T) {
	tests := []struct {
		name  string
		reply map[string]any
		err   error
	}{
		{name: "rate limited", err: ai.ErrRateLimited},
		{name: "unavailable", err: ai.ErrUnavailable},
		{name: "invalid response", err: ai.ErrInvalidResponse},
		{name: "empty ranking", reply: ranking()},
		{name: "missing ranking", reply: map[string]any{"reasoning": "none"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := mock.NewMockLLMClient()
			llm.CompleteJSONFunc = respondWith(tt.reply, tt.err)
			input := scoredCandidates(6)

			got := New(llm).Rerank(context.Background(), input, "q", nil, 4, 30)

			assert.Equal(t, []core.ID{100, 101, 102, 103}, ids(got))
			for i, c := range got {
				assert.Empty(t, c.MatchExplanation)
				assert.NotSame(t, input[i], c)
			}
		})
	}

	t.Run("nil client", func(t *testing.T) {
		got := New(nil).Rerank(context.Background(), scoredCandidates(3), "q", nil, 2, 30)
		assert.Equal(t, []core.ID{100, 101}, ids(got))
	})

	t.Run("no candidates", func(t *testing.T) {
		llm := mock.NewMockLLMClient()
		got := New(llm).Rerank(context.Background(), nil, "q", nil, 5, 30)
		assert.NotNil(t, got)
		assert.Empty(t, got)
		assert.Equal(t, 0, llm.CallCount())
	})
}

func TestRerank_MaxCandidates(t *testing.T) {
	llm := mock.NewMockLLMClient()
	llm.CompleteJSONFunc = respondWith(ranking(pick(float64(5), 0.9, "beyond pool")), nil)

	got := New(llm).Rerank(context.Background(), scoredCandidates(10), "q", nil, 2, 3)

	// Index 5 is outside the 3-item pool, so everything is backfilled.
	assert.Equal(t, []core.ID{100, 101}, ids(got))
	assert.Equal(t, "Additional match based on scoring signals", got[0].MatchExplanation)
	assert.Contains(t, llm.LastUserPrompt(), "[2] Film 2")
	assert.NotContains(t, llm.LastUserPrompt(), "[3] Film 3")
}

func TestRerank_Cache(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	llm := mock.NewMockLLMClient()
	llm.CompleteJSONFunc = respondWith(ranking(pick(float64(1), 0.9, "cached pick"), pick(float64(0), 0.7, "")), nil)
	r := New(llm, WithCache(store, 0))

	first := r.Rerank(ctx, scoredCandidates(4), "Heist Movies ", nil, 2, 30)
	require.Equal(t, 1, llm.CallCount())

	// Same query modulo case and the same candidate set in another order.
	reordered := scoredCandidates(4)
	reordered[0], reordered[3] = reordered[3], reordered[0]
	second := r.Rerank(ctx, reordered, "heist movies", nil, 2, 30)

	assert.Equal(t, 1, llm.CallCount(), "second call should hit the cache")
	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, "cached pick", second[0].MatchExplanation)
	assert.Equal(t, 0.9, *second[0].LLMRelevance)

	_ = r.Rerank(ctx, scoredCandidates(4), "heist movies", nil, 3, 30)
	assert.Equal(t, 2, llm.CallCount(), "different topK is a different key")

	n, err := r.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_ = r.Rerank(ctx, scoredCandidates(4), "heist movies", nil, 2, 30)
	assert.Equal(t, 3, llm.CallCount())
}

func TestRerank_FallbackNotCached(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	llm := mock.NewMockLLMClient()
	llm.CompleteJSONFunc = respondWith(nil, ai.ErrRateLimited)
	r := New(llm, WithCache(store, 0))

	_ = r.Rerank(ctx, scoredCandidates(3), "q", nil, 2, 30)
	assert.Equal(t, 0, store.Len())
}

func TestClear_NoCache(t *testing.T) {
	n, err := New(nil).Clear(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCacheKey(t *testing.T) {
	a := scoredCandidates(3)
	b := []*core.Candidate{a[2], a[0], a[1]}

	assert.Equal(t, cacheKey(" Dark Comedy", a, 5), cacheKey("dark comedy ", b, 5))
	assert.NotEqual(t, cacheKey("dark comedy", a, 5), cacheKey("dark comedy", a, 6))
	assert.NotEqual(t, cacheKey("dark comedy", a, 5), cacheKey("dark comedy", a[:2], 5))
	assert.Regexp(t, `^rerank:[0-9a-f]{64}$`, cacheKey("q", a, 5))
}

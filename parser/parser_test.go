package parser

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/ai/mock"
	"github.com/poiesic/marquee/cache"
	"github.com/poiesic/marquee/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interstellarResponse() map[string]any {
	return map[string]any{
		"themes":              []any{"space exploration", "time dilation"},
		"tones":               []any{"dark", "serious"},
		"emotions":            []any{"awe", "dark_tone"},
		"reference_titles":    []any{"Interstellar"},
		"keywords":            []any{"space", "wormhole"},
		"undesired_themes":    []any{"romance"},
		"undesired_tones":     []any{},
		"is_comparison_query": true,
		"is_mood_query":       true,
		"media_type":          "movie",
		"genres":              []any{"Science Fiction"},
		"year_min":            float64(2000),
		"rating_min":          7.5,
		"search_text":         "dark science fiction space exploration",
	}
}

func respondWith(resp map[string]any, err error) func(context.Context, string, string, float64, int) (map[string]any, error) {
	return func(context.Context, string, string, float64, int) (map[string]any, error) {
		return resp, err
	}
}

func TestParse_EmptyQuery(t *testing.T) {
	p := New(mock.NewMockLLMClient())
	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := p.Parse(context.Background(), q)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}
}

func TestParse_LLM(t *testing.T) {
	llm := mock.NewMockLLMClient()
	var gotTemp float64
	var gotMax int
	llm.CompleteJSONFunc = func(_ context.Context, _, _ string, temperature float64, maxTokens int) (map[string]any, error) {
		gotTemp, gotMax = temperature, maxTokens
		return interstellarResponse(), nil
	}

	parsed, err := New(llm).Parse(context.Background(), "  dark sci-fi like Interstellar with less romance ")
	require.NoError(t, err)

	assert.Equal(t, 0.3, gotTemp)
	assert.Equal(t, 1024, gotMax)
	assert.Contains(t, llm.LastUserPrompt(), `"dark sci-fi like Interstellar with less romance"`)

	assert.Equal(t, core.ParseMethodLLM, parsed.Method)
	assert.Equal(t, 0.9, parsed.Confidence)
	assert.Equal(t, "dark sci-fi like Interstellar with less romance", parsed.Intent.RawQuery)
	assert.Equal(t, []core.Tone{core.ToneDark, core.ToneSerious}, parsed.Intent.Tones)
	assert.Equal(t, []core.Emotion{core.EmotionAwe, core.EmotionDarkTone}, parsed.Intent.Emotions)
	assert.Equal(t, []string{"Interstellar"}, parsed.Intent.ReferenceTitles)
	assert.Equal(t, []string{"romance"}, parsed.Intent.UndesiredThemes)
	assert.True(t, parsed.Intent.IsComparison)
	assert.Equal(t, core.MediaTypeMovie, parsed.Constraints.MediaType)
	assert.Equal(t, core.IntPtr(2000), parsed.Constraints.YearMin)
	assert.Nil(t, parsed.Constraints.YearMax)
	assert.Equal(t, core.FloatPtr(7.5), parsed.Constraints.RatingMin)
	assert.Equal(t, "dark science fiction space exploration", parsed.SearchText)
}

func TestParse_LLMLenientDecoding(t *testing.T) {
	tests := []struct {
		name  string
		resp  map[string]any
		check func(t *testing.T, parsed *core.ParsedQuery)
	}{
		{
			name: "unknown tones are dropped",
			resp: map[string]any{"tones": []any{"dark", "melancholic", "whimsical"}, "undesired_tones": []any{"gritty", "light"}},
			check: func(t *testing.T, parsed *core.ParsedQuery) {
				assert.Equal(t, []core.Tone{core.ToneDark}, parsed.Intent.Tones)
				assert.Equal(t, []core.Tone{core.ToneLight}, parsed.Intent.UndesiredTones)
			},
		},
		{
			name: "unknown emotions are dropped",
			resp: map[string]any{"emotions": []any{"nostalgia", "JOY"}},
			check: func(t *testing.T, parsed *core.ParsedQuery) {
				assert.Equal(t, []core.Emotion{core.EmotionJoy}, parsed.Intent.Emotions)
			},
		},
		{
			name: "all enums invalid",
			resp: map[string]any{"tones": []any{"x"}, "emotions": []any{"y"}, "media_type": "podcast"},
			check: func(t *testing.T, parsed *core.ParsedQuery) {
				assert.Empty(t, parsed.Intent.Tones)
				assert.Empty(t, parsed.Intent.Emotions)
				assert.Equal(t, core.MediaTypeBoth, parsed.Constraints.MediaType)
			},
		},
		{
			name: "empty object uses defaults",
			resp: map[string]any{},
			check: func(t *testing.T, parsed *core.ParsedQuery) {
				assert.Equal(t, core.MediaTypeBoth, parsed.Constraints.MediaType)
				assert.Equal(t, "quiet films", parsed.SearchText)
				assert.Equal(t, core.ParseMethodLLM, parsed.Method)
			},
		},
		{
			name: "mistyped fields",
			resp: map[string]any{
				"themes":       "heist",
				"genres":       []any{"Crime", 42, "  "},
				"year_min":     "1995",
				"runtime_max":  120.4,
				"popular_only": "true",
				"hidden_gems":  nil,
			},
			check: func(t *testing.T, parsed *core.ParsedQuery) {
				assert.Equal(t, []string{"heist"}, parsed.Intent.Themes)
				assert.Equal(t, []string{"Crime"}, parsed.Constraints.Genres)
				assert.Equal(t, core.IntPtr(1995), parsed.Constraints.YearMin)
				assert.Equal(t, core.IntPtr(120), parsed.Constraints.RuntimeMax)
				assert.True(t, parsed.Constraints.PopularOnly)
				assert.False(t, parsed.Constraints.HiddenGems)
			},
		},
		{
			name: "out of range integers dropped",
			resp: map[string]any{"year_min": 1e300, "year_max": float64(-1e12), "runtime_max": "9e18"},
			check: func(t *testing.T, parsed *core.ParsedQuery) {
				assert.Nil(t, parsed.Constraints.YearMin)
				assert.Nil(t, parsed.Constraints.YearMax)
				assert.Nil(t, parsed.Constraints.RuntimeMax)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := mock.NewMockLLMClient()
			llm.CompleteJSONFunc = respondWith(tt.resp, nil)

			parsed, err := New(llm, WithFallback(false)).Parse(context.Background(), "quiet films")
			require.NoError(t, err)
			tt.check(t, parsed)
		})
	}
}

func TestParse_Fallback(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind FailureKind
	}{
		{"rate limited", fmt.Errorf("%w: 429", ai.ErrRateLimited), FailureRateLimited},
		{"invalid response", fmt.Errorf("%w: bad json", ai.ErrInvalidResponse), FailureInvalidResponse},
		{"transient", fmt.Errorf("%w: timeout", ai.ErrTransient), FailureTransient},
		{"unavailable", ai.ErrUnavailable, FailureUnavailable},
		{"unclassified", errors.New("boom"), FailureTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := mock.NewMockLLMClient()
			llm.CompleteJSONFunc = respondWith(nil, tt.err)

			parsed, err := New(llm).Parse(context.Background(), "dark sci-fi like Interstellar")
			require.NoError(t, err)
			assert.Equal(t, core.ParseMethodRuleBased, parsed.Method)
			assert.Equal(t, 0.5, parsed.Confidence)
			assert.Equal(t, []string{"Interstellar"}, parsed.Intent.ReferenceTitles)

			_, err = New(llm, WithFallback(false)).Parse(context.Background(), "dark sci-fi like Interstellar")
			var failure *ParseFailure
			require.ErrorAs(t, err, &failure)
			assert.Equal(t, tt.kind, failure.Kind)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParse_InvalidConstraintsFromLLM(t *testing.T) {
	llm := mock.NewMockLLMClient()
	llm.CompleteJSONFunc = respondWith(map[string]any{
		"year_min": float64(2020),
		"year_max": float64(2010),
	}, nil)

	_, err := New(llm, WithFallback(false)).Parse(context.Background(), "movies")
	var failure *ParseFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, FailureInvalidResponse, failure.Kind)
	assert.ErrorIs(t, err, core.ErrInvalidConstraints)

	parsed, err := New(llm).Parse(context.Background(), "movies")
	require.NoError(t, err)
	assert.Equal(t, core.ParseMethodRuleBased, parsed.Method)
}

func TestParse_NilLLM(t *testing.T) {
	parsed, err := New(nil).Parse(context.Background(), "funny movies")
	require.NoError(t, err)
	assert.Equal(t, core.ParseMethodRuleBased, parsed.Method)

	_, err = New(nil, WithFallback(false)).Parse(context.Background(), "funny movies")
	assert.ErrorIs(t, err, ai.ErrUnavailable)
}

func TestParse_CancelledContext(t *testing.T) {
	llm := mock.NewMockLLMClient()
	llm.CompleteJSONFunc = func(ctx context.Context, _, _ string, _ float64, _ int) (map[string]any, error) {
		return nil, ctx.Err()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(llm).Parse(ctx, "funny movies")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParse_Cache(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	llm := mock.NewMockLLMClient()
	llm.CompleteJSONFunc = respondWith(interstellarResponse(), nil)
	p := New(llm, WithCache(store, time.Minute))

	first, err := p.Parse(ctx, "Dark sci-fi like Interstellar")
	require.NoError(t, err)

	second, err := p.Parse(ctx, "  dark   SCI-FI like interstellar ")
	require.NoError(t, err)
	assert.Equal(t, 1, llm.CallCount())
	assert.Equal(t, first.Intent.Tones, second.Intent.Tones)
	assert.Equal(t, "dark   SCI-FI like interstellar", second.Intent.RawQuery)

	t.Run("rule-based results are not cached", func(t *testing.T) {
		llm.CompleteJSONFunc = respondWith(nil, ai.ErrRateLimited)
		before := store.Len()

		_, err := p.Parse(ctx, "funny movies")
		require.NoError(t, err)
		_, err = p.Parse(ctx, "funny movies")
		require.NoError(t, err)

		assert.Equal(t, before, store.Len())
		assert.Equal(t, 3, llm.CallCount())
	})
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, cacheKey("Dark  Comedy"), cacheKey("dark comedy"))
	assert.NotEqual(t, cacheKey("dark comedy"), cacheKey("light comedy"))
	assert.Regexp(t, `^parse:[0-9a-f]{64}$`, cacheKey("dark comedy"))
}

func TestParseRules(t *testing.T) {
	p := New(nil)
	_, err := p.ParseRules(" ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	parsed, err := p.ParseRules("dark sci-fi like Interstellar")
	require.NoError(t, err)
	assert.Contains(t, parsed.Intent.Tones, core.ToneDark)
}

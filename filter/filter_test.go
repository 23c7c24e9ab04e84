package filter

import (
	"testing"
	"time"

	"github.com/poiesic/marquee/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC) }
}

func ids(candidates []*core.Candidate) []core.ID {
	out := make([]core.ID, len(candidates))
	for i, c := range candidates {
		out[i] = c.Id
	}
	return out
}

func catalog() []*core.Candidate {
	return []*core.Candidate{
		{Id: 1, Title: "Alien", ReleaseYear: 1979, Rating: 8.5, Runtime: 117, Language: "en", Popularity: 60, Genres: []string{"Horror", "Science Fiction"}, StreamingProviders: []string{"Hulu"}},
		{Id: 2, Title: "Amélie", ReleaseYear: 2001, Rating: 8.3, Runtime: 122, Language: "fr", Popularity: 40, Genres: []string{"Comedy", "Romance"}, StreamingProviders: []string{"Netflix"}},
		{Id: 3, Title: "Arrival", ReleaseYear: 2016, Rating: 7.9, Runtime: 116, Language: "en", Popularity: 80, Genres: []string{"Drama", "Science Fiction"}, StreamingProviders: []string{"Netflix", "Prime Video"}},
		{Id: 4, Title: "Unknown Year", ReleaseYear: 0, Rating: 6.0, Runtime: 0, Language: "en", Popularity: 5, Genres: []string{"Drama"}},
		{Id: 5, Title: "Adult Title", ReleaseYear: 2010, Rating: 5.0, Runtime: 90, Language: "en", Popularity: 20, Adult: true, Genres: []string{"Drama"}},
	}
}

func TestApply_EmptyInput(t *testing.T) {
	e := New()
	out := e.Apply(nil, &core.QueryConstraints{YearMin: core.IntPtr(2000)})
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestApply_Filters(t *testing.T) {
	tests := []struct {
		name        string
		constraints *core.QueryConstraints
		want        []core.ID
	}{
		{
			name:        "nil constraints only exclude adult",
			constraints: nil,
			want:        []core.ID{1, 2, 3, 4},
		},
		{
			name:        "adult content allowed",
			constraints: &core.QueryConstraints{AdultContent: true},
			want:        []core.ID{1, 2, 3, 4, 5},
		},
		{
			name:        "language allow list is normalized",
			constraints: &core.QueryConstraints{Languages: []string{" FR "}},
			want:        []core.ID{2},
		},
		{
			name:        "year range drops unknown years",
			constraints: &core.QueryConstraints{YearMin: core.IntPtr(1970), YearMax: core.IntPtr(2005)},
			want:        []core.ID{1, 2},
		},
		{
			name:        "year min defaults max to current year",
			constraints: &core.QueryConstraints{YearMin: core.IntPtr(2001)},
			want:        []core.ID{2},
		},
		{
			name:        "minimum rating",
			constraints: &core.QueryConstraints{RatingMin: core.FloatPtr(8.0)},
			want:        []core.ID{1, 2},
		},
		{
			name:        "runtime range drops unknown runtime",
			constraints: &core.QueryConstraints{RuntimeMax: core.IntPtr(120)},
			want:        []core.ID{1, 3},
		},
		{
			name:        "required genres use AND",
			constraints: &core.QueryConstraints{Genres: []string{"science fiction", "DRAMA"}},
			want:        []core.ID{3},
		},
		{
			name:        "excluded genres use NONE",
			constraints: &core.QueryConstraints{ExcludeGenres: []string{"Science Fiction"}},
			want:        []core.ID{2, 4},
		},
		{
			name:        "providers intersect",
			constraints: &core.QueryConstraints{StreamingProviders: []string{"netflix"}},
			want:        []core.ID{2, 3},
		},
		{
			name:        "both popularity flags is a no-op",
			constraints: &core.QueryConstraints{PopularOnly: true, HiddenGems: true},
			want:        []core.ID{1, 2, 3, 4},
		},
	}

	e := New(WithClock(fixedClock(2010)))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.Apply(catalog(), tt.constraints)
			assert.Equal(t, tt.want, ids(out))
		})
	}
}

func TestApply_YearScenario(t *testing.T) {
	candidates := []*core.Candidate{
		{Id: 1, ReleaseYear: 2014},
		{Id: 2, ReleaseYear: 2015},
		{Id: 3, ReleaseYear: 2016},
	}
	out := New().Apply(candidates, &core.QueryConstraints{YearMin: core.IntPtr(2015), YearMax: core.IntPtr(2015)})
	assert.Equal(t, []core.ID{2}, ids(out))
}

func TestApply_Popularity(t *testing.T) {
	candidates := func() []*core.Candidate {
		out := make([]*core.Candidate, 0, 5)
		for i, p := range []float64{10, 20, 30, 40, 50} {
			out = append(out, &core.Candidate{Id: core.ID(i + 1), Popularity: p})
		}
		return out
	}

	t.Run("popular only keeps median and above", func(t *testing.T) {
		out := New().Apply(candidates(), &core.QueryConstraints{PopularOnly: true})
		assert.Equal(t, []core.ID{3, 4, 5}, ids(out))
	})

	t.Run("hidden gems keeps strictly below median", func(t *testing.T) {
		out := New().Apply(candidates(), &core.QueryConstraints{HiddenGems: true})
		assert.Equal(t, []core.ID{1, 2}, ids(out))
	})

	t.Run("median is taken over the already filtered set", func(t *testing.T) {
		in := candidates()
		in[0].Language, in[1].Language = "de", "de"
		for _, c := range in[2:] {
			c.Language = "en"
		}
		// Remaining popularities 30, 40, 50 have median 40
		out := New().Apply(in, &core.QueryConstraints{Languages: []string{"en"}, PopularOnly: true})
		assert.Equal(t, []core.ID{4, 5}, ids(out))
	})
}

func TestApply_Idempotent(t *testing.T) {
	e := New(WithClock(fixedClock(2020)))
	constraints := []*core.QueryConstraints{
		{Genres: []string{"Drama"}},
		{YearMin: core.IntPtr(1990), RatingMin: core.FloatPtr(7)},
		{Languages: []string{"en"}, ExcludeGenres: []string{"horror"}, RuntimeMin: core.IntPtr(100)},
		{StreamingProviders: []string{"Netflix", "Hulu"}, AdultContent: true},
	}

	for _, c := range constraints {
		once := e.Apply(catalog(), c)
		twice := e.Apply(once, c)
		assert.Equal(t, ids(once), ids(twice))
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := catalog()
	before := ids(in)
	_ = New().Apply(in, &core.QueryConstraints{Genres: []string{"Drama"}})
	assert.Equal(t, before, ids(in))
	assert.Len(t, in, 5)
}

func TestApplyWithStats(t *testing.T) {
	e := New(WithClock(fixedClock(2020)))
	out, stats := e.ApplyWithStats(catalog(), &core.QueryConstraints{
		Languages: []string{"en"},
		RatingMin: core.FloatPtr(7),
	})

	require.Len(t, out, 2)
	assert.Equal(t, 5, stats.Before)
	assert.Equal(t, 2, stats.After)
	assert.Equal(t, 3, stats.Removed())
	assert.InDelta(t, 0.4, stats.Selectivity(), 1e-9)

	require.Len(t, stats.Stages, 3)
	assert.Equal(t, StageStats{Stage: StageAdult, Before: 5, After: 4}, stats.Stages[0])
	assert.Equal(t, StageStats{Stage: StageLanguage, Before: 4, After: 3}, stats.Stages[1])
	assert.Equal(t, StageStats{Stage: StageRating, Before: 3, After: 2}, stats.Stages[2])
}

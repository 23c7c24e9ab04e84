package rerank

import (
	"strings"
	"testing"

	"github.com/poiesic/marquee/core"
	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 300))

	long := strings.Repeat("é", 400)
	got := truncate(long, 300)
	assert.Equal(t, 300, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestBuildPrompt(t *testing.T) {
	parsed := &core.ParsedQuery{
		Intent: core.QueryIntent{
			RawQuery:        "like Heat",
			ReferenceTitles: []string{"Heat"},
			Tones:           []core.Tone{core.ToneDark},
			UndesiredThemes: []string{"romance"},
		},
		Constraints: core.QueryConstraints{
			YearMin:   core.IntPtr(1990),
			RatingMin: core.FloatPtr(7),
			Languages: []string{"en"},
		},
	}
	candidates := []*core.Candidate{
		{
			Id:          1,
			Title:       "Ronin",
			ReleaseYear: 1998,
			Overview:    strings.Repeat("x", 500),
			Genres:      []string{"Action", "Thriller"},
			Keywords:    []string{"k1", "k2", "k3", "k4", "k5", "k6"},
			Cast:        []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7"},
			Rating:      7.2,
		},
		{Id: 2, Title: "Untitled"},
	}

	prompt := buildPrompt("like Heat", parsed, candidates, 5)

	assert.Contains(t, prompt, "=== USER QUERY ===\n\"like Heat\"")
	assert.Contains(t, prompt, "Reference Movies: Heat")
	assert.Contains(t, prompt, "Desired Tones: dark")
	assert.Contains(t, prompt, "Avoid Themes: romance")
	assert.Contains(t, prompt, "Constraints: Years: 1990-any, Min Rating: 7/10, Languages: en")
	assert.Contains(t, prompt, "[0] Ronin (1998)")
	assert.Contains(t, prompt, "Keywords: k1, k2, k3, k4, k5\n")
	assert.Contains(t, prompt, "Cast: c1, c2, c3, c4, c5\n")
	assert.Contains(t, prompt, strings.Repeat("x", 297)+"...")
	assert.NotContains(t, prompt, strings.Repeat("x", 298))
	assert.Contains(t, prompt, "[1] Untitled (N/A)")
	assert.Contains(t, prompt, "Plot: No description available")
	assert.Contains(t, prompt, "Rank the top 5 most relevant movies")
}

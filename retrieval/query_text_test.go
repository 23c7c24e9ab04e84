package retrieval

import (
	"testing"

	"github.com/poiesic/marquee/core"
	"github.com/stretchr/testify/assert"
)

func TestBuildQueryText(t *testing.T) {
	t.Run("raw query only", func(t *testing.T) {
		q := &core.ParsedQuery{Intent: core.QueryIntent{RawQuery: "heist movies"}}
		assert.Equal(t, "heist movies", BuildQueryText(q))
	})

	t.Run("falls back to search text", func(t *testing.T) {
		q := &core.ParsedQuery{SearchText: "heist crew"}
		assert.Equal(t, "heist crew", BuildQueryText(q))
	})

	t.Run("all sections", func(t *testing.T) {
		q := &core.ParsedQuery{
			Intent: core.QueryIntent{
				RawQuery:        "like Inception but darker",
				ReferenceTitles: []string{"Inception", "Memento"},
				Themes:          []string{"dreams", "memory"},
				Tones:           []core.Tone{core.ToneDark, core.ToneSuspenseful},
				Emotions:        []core.Emotion{core.EmotionThrill},
				UndesiredThemes: []string{"romance"},
				UndesiredTones:  []core.Tone{core.ToneComedic},
			},
			Constraints: core.QueryConstraints{Genres: []string{"Thriller"}},
		}
		want := "like Inception but darker. " +
			"Similar to: Inception Memento. " +
			"Themes: dreams, memory. " +
			"Tone: dark, suspenseful. " +
			"Emotions: thrill. " +
			"Genres: Thriller. " +
			"Avoid: less romance and not comedic"
		assert.Equal(t, want, BuildQueryText(q))
	})

	t.Run("avoid tones only", func(t *testing.T) {
		q := &core.ParsedQuery{Intent: core.QueryIntent{
			RawQuery:       "space opera",
			UndesiredTones: []core.Tone{core.ToneDark},
		}}
		assert.Equal(t, "space opera. Avoid: not dark", BuildQueryText(q))
	})
}

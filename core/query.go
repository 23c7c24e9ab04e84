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


package core

import "strings"

// Tone is the emotional tone a user asks for.
type Tone string

const (
	ToneDark          Tone = "dark"
	ToneLight         Tone = "light"
	ToneSerious       Tone = "serious"
	ToneComedic       Tone = "comedic"
	ToneInspirational Tone = "inspirational"
	ToneIntense       Tone = "intense"
	ToneRelaxing      Tone = "relaxing"
	ToneSuspenseful   Tone = "suspenseful"
)

var tones = []Tone{
	ToneDark, ToneLight, ToneSerious, ToneComedic,
	ToneInspirational, ToneIntense, ToneRelaxing, ToneSuspenseful,
}

// ParseTone maps a token to a Tone. Unknown tokens report false.
func ParseTone(s string) (Tone, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range tones {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Emotion is the emotional response a user wants to feel.
type Emotion string

const (
	EmotionJoy      Emotion = "joy"
	EmotionFear     Emotion = "fear"
	EmotionSadness  Emotion = "sadness"
	EmotionAwe      Emotion = "awe"
	EmotionThrill   Emotion = "thrill"
	EmotionHope     Emotion = "hope"
	EmotionRomance  Emotion = "romance"
	EmotionDarkTone Emotion = "dark_tone"
)

var emotions = []Emotion{
	EmotionJoy, EmotionFear, EmotionSadness, EmotionAwe,
	EmotionThrill, EmotionHope, EmotionRomance, EmotionDarkTone,
}

// ParseEmotion maps a token to an Emotion. Unknown tokens report false.
func ParseEmotion(s string) (Emotion, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, e := range emotions {
		if string(e) == s {
			return e, true
		}
	}
	return "", false
}

// MediaType distinguishes movies from TV shows.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeTVShow MediaType = "tv_show"
	MediaTypeBoth   MediaType = "both"
)

// ParseMediaType maps a token to a MediaType. Unknown tokens report false.
func ParseMediaType(s string) (MediaType, bool) {
	switch MediaType(strings.ToLower(strings.TrimSpace(s))) {
	case MediaTypeMovie:
		return MediaTypeMovie, true
	case MediaTypeTVShow:
		return MediaTypeTVShow, true
	case MediaTypeBoth:
		return MediaTypeBoth, true
	}
	return "", false
}

// ParseMethod records which parser produced a ParsedQuery.
type ParseMethod string

const (
	ParseMethodLLM       ParseMethod = "llm"
	ParseMethodRuleBased ParseMethod = "rule_based"
)

// QueryIntent is the semantic intent extracted from a query.
type QueryIntent struct {
	RawQuery         string    `json:"raw_query"`
	Themes           []string  `json:"themes"`
	Tones            []Tone    `json:"tones"`
	Emotions         []Emotion `json:"emotions"`
	ReferenceTitles  []string  `json:"reference_titles"`
	Keywords         []string  `json:"keywords"`
	PlotElements     []string  `json:"plot_elements"`
	UndesiredThemes  []string  `json:"undesired_themes"`
	UndesiredTones   []Tone    `json:"undesired_tones"`
	IsComparison     bool      `json:"is_comparison_query"`
	IsMood           bool      `json:"is_mood_query"`
}

// QueryConstraints are optional hard filters. Nil bounds are unset.
type QueryConstraints struct {
	MediaType          MediaType `json:"media_type"`
	Genres             []string  `json:"genres"`
	ExcludeGenres      []string  `json:"exclude_genres"`
	Languages          []string  `json:"languages"`
	YearMin            *int      `json:"year_min" validate:"omitempty,gte=1900,lte=2100"`
	YearMax            *int      `json:"year_max" validate:"omitempty,gte=1900,lte=2100"`
	RatingMin          *float64  `json:"rating_min" validate:"omitempty,gte=0,lte=10"`
	RuntimeMin         *int      `json:"runtime_min" validate:"omitempty,gte=0"`
	RuntimeMax         *int      `json:"runtime_max" validate:"omitempty,gte=0"`
	StreamingProviders []string  `json:"streaming_providers"`
	AdultContent       bool      `json:"adult_content"`
	PopularOnly        bool      `json:"popular_only"`
	HiddenGems         bool      `json:"hidden_gems"`
}

// Merge overlays the non-zero fields of other onto a copy of c.
// A nil other returns a copy of c unchanged.
func (c QueryConstraints) Merge(other *QueryConstraints) QueryConstraints {
	out := c
	if other == nil {
		return out
	}
	if other.MediaType != "" {
		out.MediaType = other.MediaType
	}
	if len(other.Genres) > 0 {
		out.Genres = other.Genres
	}
	if len(other.ExcludeGenres) > 0 {
		out.ExcludeGenres = other.ExcludeGenres
	}
	if len(other.Languages) > 0 {
		out.Languages = other.Languages
	}
	if other.YearMin != nil {
		out.YearMin = other.YearMin
	}
	if other.YearMax != nil {
		out.YearMax = other.YearMax
	}
	if other.RatingMin != nil {
		out.RatingMin = other.RatingMin
	}
	if other.RuntimeMin != nil {
		out.RuntimeMin = other.RuntimeMin
	}
	if other.RuntimeMax != nil {
		out.RuntimeMax = other.RuntimeMax
	}
	if len(other.StreamingProviders) > 0 {
		out.StreamingProviders = other.StreamingProviders
	}
	if other.AdultContent {
		out.AdultContent = true
	}
	if other.PopularOnly {
		out.PopularOnly, out.HiddenGems = true, false
	}
	if other.HiddenGems {
		out.HiddenGems, out.PopularOnly = true, false
	}
	return out
}

// ParsedQuery is the structured form of a user's natural language query.
// It is produced once per request and not modified afterwards.
type ParsedQuery struct {
	Intent      QueryIntent      `json:"intent"`
	Constraints QueryConstraints `json:"constraints"`
	SearchText  string           `json:"search_text"`
	Confidence  float64          `json:"confidence"`
	Method      ParseMethod      `json:"parsing_method"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }

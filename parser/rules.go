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


package parser

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/marquee/core"
)

const (
	ruleConfidence  = 0.5
	maxRuleKeywords = 10
	maxRuleThemes   = 5
	minKeywordLen   = 3
	minYear         = 1900
	maxYear         = 2100
)

var (
	referencePattern = regexp.MustCompile(`(?i)(?:like|similar to|such as)\s+([A-Z][A-Za-z0-9\s:,and]+?)(?:\s+(?:but|with|without|from|in|on|that)\s|\s*$)`)
	titleSplit       = regexp.MustCompile(`(?i),\s*|\s+and\s+`)
	yearFromPattern  = regexp.MustCompile(`(?:from|since|after)\s+(\d{4})`)
	yearRangePattern = regexp.MustCompile(`(\d{4})\s*-\s*(\d{4})`)
	wordPattern      = regexp.MustCompile(`[\p{L}\p{N}_]+`)

	undesiredPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:with\s+)?(?:less|fewer)\s+([a-z\s]+?)(?:\s+(?:and|or|but|with|,)|$)`),
		regexp.MustCompile(`\b(?:without|avoid|minus)\s+(?:the\s+)?([a-z\s]+?)(?:\s+(?:and|or|but|with|,)|$)`),
		regexp.MustCompile(`\bno\s+([a-z\s]+?)(?:\s+(?:and|or|but|with|elements|scenes|,)|$)`),
	}
)

type keyword[T any] struct {
	word  string
	value T
}

var toneKeywords = []keyword[core.Tone]{
	{"dark", core.ToneDark},
	{"light", core.ToneLight},
	{"lighthearted", core.ToneLight},
	{"serious", core.ToneSerious},
	{"funny", core.ToneComedic},
	{"comedic", core.ToneComedic},
	{"comedy", core.ToneComedic},
	{"inspiring", core.ToneInspirational},
	{"uplifting", core.ToneInspirational},
	{"intense", core.ToneIntense},
	{"relaxing", core.ToneRelaxing},
	{"cozy", core.ToneRelaxing},
	{"suspenseful", core.ToneSuspenseful},
	{"thriller", core.ToneSuspenseful},
}

var emotionKeywords = []keyword[core.Emotion]{
	{"scary", core.EmotionFear},
	{"horror", core.EmotionFear},
	{"sad", core.EmotionSadness},
	{"heartbreaking", core.EmotionSadness},
	{"romantic", core.EmotionRomance},
	{"romance", core.EmotionRomance},
	{"thrilling", core.EmotionThrill},
	{"hopeful", core.EmotionHope},
	{"awe-inspiring", core.EmotionAwe},
	{"feel-good", core.EmotionJoy},
}

var genreKeywords = []keyword[string]{
	{"action", "Action"},
	{"adventure", "Adventure"},
	{"comedy", "Comedy"},
	{"drama", "Drama"},
	{"horror", "Horror"},
	{"sci-fi", "Science Fiction"},
	{"science fiction", "Science Fiction"},
	{"thriller", "Thriller"},
	{"romance", "Romance"},
	{"fantasy", "Fantasy"},
	{"mystery", "Mystery"},
	{"crime", "Crime"},
	{"animation", "Animation"},
	{"animated", "Animation"},
	{"documentary", "Documentary"},
	{"western", "Western"},
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "like": true, "without": true, "about": true, "or": true,
}

var articles = map[string]bool{"the": true, "a": true, "an": true}

// parseWithRules extracts what it can from the query text alone.
func parseWithRules(query string) *core.ParsedQuery {
	lower := strings.ToLower(query)

	titles := referenceTitles(query)
	tones := matchKeywords(lower, toneKeywords)
	emotions := matchKeywords(lower, emotionKeywords)
	keywords := extractKeywords(lower)

	yearMin, yearMax := extractYears(lower)

	intent := core.QueryIntent{
		RawQuery:        query,
		Themes:          slices.Clone(keywords[:min(len(keywords), maxRuleThemes)]),
		Tones:           tones,
		Emotions:        emotions,
		ReferenceTitles: titles,
		Keywords:        keywords,
		UndesiredThemes: undesiredThemes(lower),
		IsComparison:    len(titles) > 0,
		IsMood:          len(tones) > 0 || len(emotions) > 0,
	}

	constraints := core.QueryConstraints{
		MediaType: detectMediaType(lower),
		Genres:    matchKeywords(lower, genreKeywords),
		YearMin:   yearMin,
		YearMax:   yearMax,
	}

	searchText := strings.Join(keywords, " ")
	if searchText == "" {
		searchText = query
	}

	return &core.ParsedQuery{
		Intent:      intent,
		Constraints: constraints,
		SearchText:  searchText,
		Confidence:  ruleConfidence,
		Method:      core.ParseMethodRuleBased,
	}
}

func referenceTitles(query string) []string {
	var titles []string
	for _, match := range referencePattern.FindAllStringSubmatch(query, -1) {
		for _, title := range titleSplit.Split(match[1], -1) {
			title = strings.TrimSpace(title)
			if utf8.RuneCountInString(title) <= 1 || articles[strings.ToLower(title)] {
				continue
			}
			if !slices.Contains(titles, title) {
				titles = append(titles, title)
			}
		}
	}
	return titles
}

// matchKeywords returns the distinct values whose keyword occurs in text,
// in table order.
func matchKeywords[T comparable](text string, table []keyword[T]) []T {
	var out []T
	for _, k := range table {
		if strings.Contains(text, k.word) && !slices.Contains(out, k.value) {
			out = append(out, k.value)
		}
	}
	return out
}

func detectMediaType(lower string) core.MediaType {
	movie := strings.Contains(lower, "movie") || strings.Contains(lower, "film")
	show := strings.Contains(lower, "show") || strings.Contains(lower, "series")
	switch {
	case movie && !show:
		return core.MediaTypeMovie
	case show && !movie:
		return core.MediaTypeTVShow
	}
	return core.MediaTypeBoth
}

// extractYears applies the open-ended pattern first; an explicit range
// overrides it. Years outside [1900, 2100] are ignored and a reversed range
// is swapped.
func extractYears(lower string) (*int, *int) {
	var yearMin, yearMax *int
	if m := yearFromPattern.FindStringSubmatch(lower); m != nil {
		yearMin = plausibleYear(m[1])
	}
	if m := yearRangePattern.FindStringSubmatch(lower); m != nil {
		lo, hi := plausibleYear(m[1]), plausibleYear(m[2])
		if lo != nil && hi != nil {
			if *lo > *hi {
				lo, hi = hi, lo
			}
			yearMin, yearMax = lo, hi
		}
	}
	return yearMin, yearMax
}

func plausibleYear(s string) *int {
	y, err := strconv.Atoi(s)
	if err != nil || y < minYear || y > maxYear {
		return nil
	}
	return &y
}

func undesiredThemes(lower string) []string {
	var out []string
	for _, re := range undesiredPatterns {
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			theme := strings.TrimSpace(m[1])
			if theme != "" && !slices.Contains(out, theme) {
				out = append(out, theme)
			}
		}
	}
	return out
}

func extractKeywords(lower string) []string {
	keywords := []string{}
	for _, w := range wordPattern.FindAllString(lower, -1) {
		if stopWords[w] || utf8.RuneCountInString(w) < minKeywordLen {
			continue
		}
		keywords = append(keywords, w)
		if len(keywords) == maxRuleKeywords {
			break
		}
	}
	return keywords
}

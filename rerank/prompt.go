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
	"fmt"
	"strings"

	"github.com/poiesic/marquee/core"
)

const (
	maxPlotRunes   = 300
	maxKeywords    = 5
	maxCastMembers = 5
)

const systemPrompt = `You are an expert movie recommendation system. Your task is to analyze a user's query and rank movies based on how well they match the user's intent, considering themes, tone, emotions, and constraints.

You will be given:
1. The user's original query
2. Parsed query intent (themes, tones, emotions, reference titles, constraints)
3. A list of candidate movies with metadata (plot, genres, cast, keywords, ratings)

Your job:
1. Understand the user's true intent and preferences
2. Rank the candidates by relevance (best matches first)
3. For each movie, generate a concise explanation of why it matches
4. Be honest, and say so clearly when a movie is a poor match

Guidelines:
- Focus on thematic similarity, emotional tone, and style
- Consider both desired and undesired elements
- Respect hard constraints (language, year, rating)
- Value quality and ratings, but prioritize thematic fit
- Keep explanations concise (1-2 sentences)
- Be specific about what makes each movie relevant`

const instructionsTemplate = `Based on the query and candidates above, please:

1. Rank the top %[1]d most relevant movies
2. For each ranked movie, provide a concise explanation (1-2 sentences) of why it matches the query
3. Consider themes, tone, emotions, and all constraints from the query

Respond with ONLY a valid JSON object in this exact format:
{
  "ranked_movies": [
    {
      "movie_index": 0,
      "relevance_score": 0.95,
      "explanation": "Perfect match because..."
    }
  ],
  "reasoning": "Brief summary of ranking approach"
}

Important:
- movie_index: The index from the candidates list above (0-based)
- relevance_score: Your assessment of match quality (0-1 scale)
- explanation: Specific reason why this movie matches the query
- Include ONLY the top %[1]d most relevant movies
- Sort by relevance (best matches first)`

func buildPrompt(query string, parsed *core.ParsedQuery, candidates []*core.Candidate, topK int) string {
	return queryContext(query, parsed) + "\n\n" +
		candidateList(candidates) + "\n\n" +
		fmt.Sprintf(instructionsTemplate, topK)
}

func queryContext(query string, parsed *core.ParsedQuery) string {
	lines := []string{
		"=== USER QUERY ===",
		fmt.Sprintf("%q", query),
		"",
		"=== PARSED INTENT ===",
	}
	if parsed == nil {
		return strings.Join(lines, "\n")
	}

	intent, c := parsed.Intent, parsed.Constraints
	add := func(label string, values []string) {
		if len(values) > 0 {
			lines = append(lines, label+": "+strings.Join(values, ", "))
		}
	}
	add("Reference Movies", intent.ReferenceTitles)
	add("Genres", c.Genres)
	add("Themes", intent.Themes)
	add("Desired Tones", enumStrings(intent.Tones))
	add("Desired Emotions", enumStrings(intent.Emotions))
	add("Avoid Themes", intent.UndesiredThemes)
	add("Avoid Tones", enumStrings(intent.UndesiredTones))

	var constraints []string
	if c.YearMin != nil || c.YearMax != nil {
		constraints = append(constraints, fmt.Sprintf("Years: %s-%s", optInt(c.YearMin), optInt(c.YearMax)))
	}
	if c.RatingMin != nil {
		constraints = append(constraints, fmt.Sprintf("Min Rating: %g/10", *c.RatingMin))
	}
	if len(c.Languages) > 0 {
		constraints = append(constraints, "Languages: "+strings.Join(c.Languages, ", "))
	}
	add("Constraints", constraints)

	return strings.Join(lines, "\n")
}

func candidateList(candidates []*core.Candidate) string {
	var b strings.Builder
	b.WriteString("=== CANDIDATE MOVIES ===\n")
	for i, c := range candidates {
		year := "N/A"
		if c.ReleaseYear > 0 {
			year = fmt.Sprint(c.ReleaseYear)
		}
		plot := c.Overview
		if plot == "" {
			plot = "No description available"
		}

		fmt.Fprintf(&b, "\n[%d] %s (%s)\n", i, c.Title, year)
		fmt.Fprintf(&b, "    Plot: %s\n", truncate(plot, maxPlotRunes))
		if len(c.Genres) > 0 {
			fmt.Fprintf(&b, "    Genres: %s\n", strings.Join(c.Genres, ", "))
		}
		if len(c.Keywords) > 0 {
			fmt.Fprintf(&b, "    Keywords: %s\n", strings.Join(head(c.Keywords, maxKeywords), ", "))
		}
		if len(c.Cast) > 0 {
			fmt.Fprintf(&b, "    Cast: %s\n", strings.Join(head(c.Cast, maxCastMembers), ", "))
		}
		fmt.Fprintf(&b, "    Rating: %.1f/10, Popularity: %.1f\n", c.Rating, c.Popularity)
		fmt.Fprintf(&b, "    Scores: Similarity=%.3f, Final=%.3f\n", c.SimilarityScore, c.FinalScore)
	}
	return b.String()
}

// truncate shortens s to at most n runes, ending in "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func optInt(v *int) string {
	if v == nil {
		return "any"
	}
	return fmt.Sprint(*v)
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

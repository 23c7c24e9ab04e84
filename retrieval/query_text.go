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


package retrieval

import (
	"strings"

	"github.com/poiesic/marquee/core"
)

// BuildQueryText renders a parsed query as a single string for embedding.
// Reference titles and themes get their own labelled sections so they weigh
// more than the raw wording.
func BuildQueryText(q *core.ParsedQuery) string {
	var parts []string

	raw := q.Intent.RawQuery
	if raw == "" {
		raw = q.SearchText
	}
	if raw != "" {
		parts = append(parts, raw)
	}

	intent := q.Intent
	if len(intent.ReferenceTitles) > 0 {
		parts = append(parts, "Similar to: "+strings.Join(intent.ReferenceTitles, " "))
	}
	if len(intent.Themes) > 0 {
		parts = append(parts, "Themes: "+strings.Join(intent.Themes, ", "))
	}
	if len(intent.Tones) > 0 {
		parts = append(parts, "Tone: "+joinEnum(intent.Tones))
	}
	if len(intent.Emotions) > 0 {
		parts = append(parts, "Emotions: "+joinEnum(intent.Emotions))
	}
	if len(q.Constraints.Genres) > 0 {
		parts = append(parts, "Genres: "+strings.Join(q.Constraints.Genres, ", "))
	}

	var avoid []string
	if len(intent.UndesiredThemes) > 0 {
		avoid = append(avoid, "less "+strings.Join(intent.UndesiredThemes, ", "))
	}
	if len(intent.UndesiredTones) > 0 {
		avoid = append(avoid, "not "+joinEnum(intent.UndesiredTones))
	}
	if len(avoid) > 0 {
		parts = append(parts, "Avoid: "+strings.Join(avoid, " and "))
	}

	return strings.Join(parts, ". ")
}

func joinEnum[T ~string](values []T) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = string(v)
	}
	return strings.Join(s, ", ")
}

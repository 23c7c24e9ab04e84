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


package reindex

import (
	"strings"
	"unicode"

	"github.com/poiesic/marquee/core"
)

const (
	maxDocumentKeywords = 10
	maxDocumentCast     = 5
	minDocumentLength   = 10
)

// DocumentText renders a catalog item as the text that is embedded for it.
// One labelled line per populated field; whitespace is collapsed.
func DocumentText(c *core.Candidate) string {
	var lines []string
	add := func(label, value string) {
		value = strings.Join(strings.Fields(value), " ")
		if value != "" {
			lines = append(lines, label+": "+value)
		}
	}

	add("Title", c.Title)
	add("Plot", c.Overview)
	add("Genres", strings.Join(c.Genres, ", "))
	add("Keywords", strings.Join(head(c.Keywords, maxDocumentKeywords), ", "))
	add("Cast", strings.Join(head(c.Cast, maxDocumentCast), ", "))

	return strings.Join(lines, "\n")
}

// embeddable reports whether text carries enough content to embed.
func embeddable(text string) bool {
	if len(strings.TrimSpace(text)) < minDocumentLength {
		return false
	}
	return strings.IndexFunc(text, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

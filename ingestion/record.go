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


package ingestion

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/marquee/core"
)

// catalogItem is the import wire format. The aliases accept TMDB-style
// exports without a conversion step.
type catalogItem struct {
	ID                 uint64   `json:"id"`
	Title              string   `json:"title"`
	Name               string   `json:"name"`
	Overview           string   `json:"overview"`
	MediaType          string   `json:"media_type"`
	ReleaseYear        int      `json:"release_year"`
	ReleaseDate        string   `json:"release_date"`
	FirstAirDate       string   `json:"first_air_date"`
	Runtime            int      `json:"runtime"`
	Rating             *float64 `json:"rating"`
	VoteAverage        float64  `json:"vote_average"`
	VoteCount          int      `json:"vote_count"`
	Popularity         float64  `json:"popularity"`
	Language           string   `json:"language"`
	OriginalLanguage   string   `json:"original_language"`
	Adult              bool     `json:"adult"`
	Genres             []string `json:"genres"`
	Keywords           []string `json:"keywords"`
	Cast               []string `json:"cast"`
	StreamingProviders []string `json:"streaming_providers"`
}

// toCandidate maps the wire format onto a catalog record.
func (it *catalogItem) toCandidate() *core.Candidate {
	c := &core.Candidate{
		Id:                 core.ID(it.ID),
		Title:              strings.TrimSpace(firstNonEmpty(it.Title, it.Name)),
		Overview:           strings.TrimSpace(it.Overview),
		MediaType:          mediaType(it.MediaType, it.FirstAirDate != ""),
		ReleaseYear:        it.ReleaseYear,
		Runtime:            it.Runtime,
		Rating:             it.VoteAverage,
		VoteCount:          it.VoteCount,
		Popularity:         it.Popularity,
		Language:           strings.ToLower(firstNonEmpty(it.Language, it.OriginalLanguage)),
		Adult:              it.Adult,
		Genres:             it.Genres,
		Keywords:           it.Keywords,
		Cast:               it.Cast,
		StreamingProviders: it.StreamingProviders,
	}
	if it.Rating != nil {
		c.Rating = *it.Rating
	}
	if c.ReleaseYear == 0 {
		c.ReleaseYear = yearOf(firstNonEmpty(it.ReleaseDate, it.FirstAirDate))
	}
	if c.Id == 0 {
		c.Id = core.IDFromContent(fmt.Sprintf("%s|%d", c.Title, c.ReleaseYear))
	}
	return c
}

// mediaType defaults to movie unless the item looks like a series.
func mediaType(s string, series bool) core.MediaType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tv", "tv_show", "series", "show":
		return core.MediaTypeTVShow
	case "movie", "film":
		return core.MediaTypeMovie
	case "":
		if series {
			return core.MediaTypeTVShow
		}
		return core.MediaTypeMovie
	}
	// Left as-is so validation rejects it.
	return core.MediaType(s)
}

// yearOf extracts the year from a YYYY-MM-DD date. Anything else is 0.
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

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

import (
	"encoding/binary"
	"encoding/hex"
	"maps"
	"slices"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for catalog items.
// It is either assigned by the upstream catalog or derived from content.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ContentHash returns the hex-encoded 256-bit BLAKE2b digest of data.
// Used to build fixed-length cache keys.
func ContentHash(data []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Candidate is a denormalized projection of a catalog item used throughout
// the ranking pipeline. The first block of fields comes from the catalog;
// the second block is request-scoped and populated by pipeline stages.
type Candidate struct {
	Id                 ID
	Title              string    `json:"title" validate:"required"`
	Overview           string    `json:"overview"`
	MediaType          MediaType `json:"media_type"`
	ReleaseYear        int       `json:"release_year" validate:"gte=0,lte=2100"` // 0 when unknown
	Runtime            int       `json:"runtime" validate:"gte=0"`               // minutes, 0 when unknown
	Rating             float64   `json:"rating" validate:"gte=0,lte=10"`
	VoteCount          int       `json:"vote_count" validate:"gte=0"`
	Popularity         float64   `json:"popularity" validate:"gte=0"`
	Language           string    `json:"language"`
	Adult              bool      `json:"adult"`
	Genres             []string  `json:"genres"`
	Keywords           []string  `json:"keywords"`
	Cast               []string  `json:"cast"`
	StreamingProviders []string  `json:"streaming_providers"`

	SimilarityScore  float64            `json:"-"`
	FinalScore       float64            `json:"-"`
	Signals          map[string]float64 `json:"-"`
	MatchExplanation string             `json:"-"`
	LLMRelevance     *float64           `json:"-"`
}

// Clone returns a deep copy so stages can annotate candidates without
// affecting the caller's slice.
func (c *Candidate) Clone() *Candidate {
	if c == nil {
		return nil
	}
	out := *c
	out.Genres = slices.Clone(c.Genres)
	out.Keywords = slices.Clone(c.Keywords)
	out.Cast = slices.Clone(c.Cast)
	out.StreamingProviders = slices.Clone(c.StreamingProviders)
	out.Signals = maps.Clone(c.Signals)
	if c.LLMRelevance != nil {
		v := *c.LLMRelevance
		out.LLMRelevance = &v
	}
	return &out
}

// CloneAll clones every candidate in the slice.
func CloneAll(in []*Candidate) []*Candidate {
	out := make([]*Candidate, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

// SimilarityMatch is one hit from vector search.
type SimilarityMatch struct {
	Id    ID
	Score float32
}

// RankedCandidate is a single entry in a search response.
type RankedCandidate struct {
	Id               ID        `json:"id"`
	Title            string    `json:"title"`
	Overview         string    `json:"overview"`
	MediaType        MediaType `json:"media_type"`
	ReleaseYear      int       `json:"release_year,omitempty"`
	Rating           float64   `json:"rating"`
	Genres           []string  `json:"genres"`
	SimilarityScore  float64   `json:"similarity_score"`
	RelevanceScore   float64   `json:"relevance_score"`
	MatchExplanation string    `json:"match_explanation,omitempty"`
}

// NewRankedCandidate projects a scored candidate into a response entry.
// The LLM relevance is preferred over the composite score when present.
func NewRankedCandidate(c *Candidate) RankedCandidate {
	relevance := c.FinalScore
	if c.LLMRelevance != nil {
		relevance = *c.LLMRelevance
	}
	return RankedCandidate{
		Id:               c.Id,
		Title:            c.Title,
		Overview:         c.Overview,
		MediaType:        c.MediaType,
		ReleaseYear:      c.ReleaseYear,
		Rating:           c.Rating,
		Genres:           slices.Clone(c.Genres),
		SimilarityScore:  c.SimilarityScore,
		RelevanceScore:   relevance,
		MatchExplanation: c.MatchExplanation,
	}
}

// SearchResponse is the result of a single search request.
type SearchResponse struct {
	Results          []RankedCandidate `json:"results"`
	Count            int               `json:"count"`
	InterpretedQuery *ParsedQuery      `json:"interpreted_query"`
	RequestID        string            `json:"request_id"`
}

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


package storage

import (
	"fmt"

	"github.com/poiesic/marquee/codec"
	"github.com/poiesic/marquee/core"
)

const candidateVersion = 1

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	w := codec.NewWriter(10)
	w.Uint64(uint64(id))
	return w.Bytes()
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	r := codec.NewReader(data)
	id := r.Uint64()
	if err := r.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(id), nil
}

// MarshalCandidate serializes the catalog fields of a Candidate.
func MarshalCandidate(c *core.Candidate) []byte {
	w := codec.NewWriter(256 + len(c.Overview))
	w.Int(candidateVersion)
	w.Uint64(uint64(c.Id))
	w.String(c.Title)
	w.String(c.Overview)
	w.String(string(c.MediaType))
	w.Int(c.ReleaseYear)
	w.Int(c.Runtime)
	w.Float64(c.Rating)
	w.Int(c.VoteCount)
	w.Float64(c.Popularity)
	w.String(c.Language)
	w.Bool(c.Adult)
	w.Strings(c.Genres)
	w.Strings(c.Keywords)
	w.Strings(c.Cast)
	w.Strings(c.StreamingProviders)
	return w.Bytes()
}

// UnmarshalCandidate deserializes a Candidate written by MarshalCandidate.
func UnmarshalCandidate(data []byte) (*core.Candidate, error) {
	r := codec.NewReader(data)
	version := r.Int()
	if r.Err() == nil && version != candidateVersion {
		return nil, fmt.Errorf("%w: %w: %d", ErrSerializationFailed, ErrUnsupportedVersion, version)
	}

	c := &core.Candidate{
		Id:          core.ID(r.Uint64()),
		Title:       r.String(),
		Overview:    r.String(),
		MediaType:   core.MediaType(r.String()),
		ReleaseYear: r.Int(),
		Runtime:     r.Int(),
		Rating:      r.Float64(),
		VoteCount:   r.Int(),
		Popularity:  r.Float64(),
		Language:    r.String(),
		Adult:       r.Bool(),
	}
	c.Genres = r.Strings()
	c.Keywords = r.Strings()
	c.Cast = r.Strings()
	c.StreamingProviders = r.Strings()

	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %w: %d trailing bytes", ErrSerializationFailed, ErrTruncatedData, r.Remaining())
	}
	return c, nil
}

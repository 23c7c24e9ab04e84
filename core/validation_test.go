package core

import (
	"errors"
	"testing"
)

func TestValidateCandidate(t *testing.T) {
	tests := []struct {
		name      string
		candidate *Candidate
		wantErr   error
	}{
		{
			name:      "valid candidate",
			candidate: &Candidate{Id: 1, Title: "Arrival", ReleaseYear: 2016, Rating: 7.9, MediaType: MediaTypeMovie},
			wantErr:   nil,
		},
		{
			name:      "unknown year and runtime are valid",
			candidate: &Candidate{Id: 2, Title: "Untitled"},
			wantErr:   nil,
		},
		{
			name:      "nil candidate",
			candidate: nil,
			wantErr:   ErrInvalidCandidate,
		},
		{
			name:      "empty title",
			candidate: &Candidate{Id: 3, Title: "   "},
			wantErr:   ErrEmptyTitle,
		},
		{
			name:      "rating out of range",
			candidate: &Candidate{Id: 4, Title: "Broken", Rating: 11},
			wantErr:   ErrInvalidCandidate,
		},
		{
			name:      "negative popularity",
			candidate: &Candidate{Id: 5, Title: "Broken", Popularity: -1},
			wantErr:   ErrInvalidCandidate,
		},
		{
			name:      "both is not a catalog media type",
			candidate: &Candidate{Id: 6, Title: "Broken", MediaType: MediaTypeBoth},
			wantErr:   ErrInvalidMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCandidate(tt.candidate)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCandidate() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCandidate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConstraints(t *testing.T) {
	tests := []struct {
		name        string
		constraints *QueryConstraints
		wantErr     error
	}{
		{
			name:        "nil constraints",
			constraints: nil,
			wantErr:     nil,
		},
		{
			name:        "empty constraints",
			constraints: &QueryConstraints{},
			wantErr:     nil,
		},
		{
			name:        "valid year range",
			constraints: &QueryConstraints{YearMin: IntPtr(1990), YearMax: IntPtr(1999)},
			wantErr:     nil,
		},
		{
			name:        "inverted year range",
			constraints: &QueryConstraints{YearMin: IntPtr(2000), YearMax: IntPtr(1990)},
			wantErr:     ErrYearRange,
		},
		{
			name:        "year before 1900",
			constraints: &QueryConstraints{YearMin: IntPtr(1850)},
			wantErr:     ErrInvalidConstraints,
		},
		{
			name:        "rating above 10",
			constraints: &QueryConstraints{RatingMin: FloatPtr(10.5)},
			wantErr:     ErrInvalidConstraints,
		},
		{
			name:        "inverted runtime range",
			constraints: &QueryConstraints{RuntimeMin: IntPtr(120), RuntimeMax: IntPtr(90)},
			wantErr:     ErrRuntimeRange,
		},
		{
			name:        "negative runtime",
			constraints: &QueryConstraints{RuntimeMin: IntPtr(-5)},
			wantErr:     ErrInvalidConstraints,
		},
		{
			name:        "popular and hidden gems",
			constraints: &QueryConstraints{PopularOnly: true, HiddenGems: true},
			wantErr:     ErrConflictingPopularity,
		},
		{
			name:        "unknown media type",
			constraints: &QueryConstraints{MediaType: "podcast"},
			wantErr:     ErrInvalidMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConstraints(tt.constraints)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateConstraints() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateConstraints() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidConstraints) {
				t.Errorf("ValidateConstraints() error = %v, should wrap ErrInvalidConstraints", err)
			}
		})
	}
}

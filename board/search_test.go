// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nearwork/nearwork/spatial"
)

// Postings around Lagos used across the search tests. Distances from the
// Lagos center (6.5244, 3.3792): Mushin ~3.6 km, Yaba ~1.9 km, Victoria
// Island ~11.7 km, Ibadan ~128 km.
func searchFixture() []*JobPosting {
	return []*JobPosting{
		{
			ID:          1,
			Title:       "Experienced Auto Mechanic",
			Description: "Diagnose and repair passenger vehicles.",
			Status:      StatusActive,
			Point:       spatial.Point{Lat: 6.5276, Lng: 3.3465}, // Mushin
		},
		{
			ID:          2,
			Title:       "Sous Chef",
			Description: "<p>Run the kitchen line. <b>Continental</b> menu.</p>",
			Status:      StatusActive,
			Point:       spatial.Point{Lat: 6.4281, Lng: 3.4219}, // Victoria Island
		},
		{
			ID:          3,
			Title:       "Kitchen Assistant",
			Description: "Prep work and cleaning.",
			Status:      StatusPaused,
			Point:       spatial.Point{Lat: 6.5095, Lng: 3.3711}, // Yaba
		},
		{
			ID:          4,
			Title:       "Truck Driver",
			Description: "Long-haul routes to the north.",
			Status:      StatusActive,
			Point:       spatial.Point{Lat: 7.3775, Lng: 3.947}, // Ibadan
		},
		{
			ID:          5,
			Title:       "Delivery Rider",
			Description: "Deliver spare parts to workshops.",
			Status:      StatusActive,
			Point:       spatial.Point{Lat: 6.5095, Lng: 3.3711}, // Yaba
		},
	}
}

func hitIDs(hits []SearchHit) []int {
	ids := make([]int, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.Posting.ID)
	}

	return ids
}

func TestRankByDistanceOrdering(t *testing.T) {
	hits, err := RankByDistance(SearchQuery{
		Origin:   spatial.Point{Lat: 6.5244, Lng: 3.3792},
		RadiusKm: 25,
	}, searchFixture())
	if err != nil {
		t.Fatalf("RankByDistance() error = %v", err)
	}

	// Yaba (5) is closest, then Mushin (1), then Victoria Island (2).
	// Paused (3) and out-of-radius (4) postings never appear.
	if diff := cmp.Diff([]int{5, 1, 2}, hitIDs(hits)); diff != "" {
		t.Errorf("hit order mismatch (-want +got):\n%s", diff)
	}

	for i := 1; i < len(hits); i++ {
		if hits[i].DistanceKm < hits[i-1].DistanceKm {
			t.Errorf("hits not ordered by distance: %f before %f",
				hits[i-1].DistanceKm, hits[i].DistanceKm)
		}
	}
}

func TestRankByDistanceRadiusFilter(t *testing.T) {
	// A 140 km radius reaches Ibadan too
	hits, err := RankByDistance(SearchQuery{
		Origin:   spatial.Point{Lat: 6.5244, Lng: 3.3792},
		RadiusKm: 140,
	}, searchFixture())
	if err != nil {
		t.Fatalf("RankByDistance() error = %v", err)
	}

	if diff := cmp.Diff([]int{5, 1, 2, 4}, hitIDs(hits)); diff != "" {
		t.Errorf("hit order mismatch (-want +got):\n%s", diff)
	}

	// A 1 km radius matches nothing
	hits, err = RankByDistance(SearchQuery{
		Origin:   spatial.Point{Lat: 6.5244, Lng: 3.3792},
		RadiusKm: 1,
	}, searchFixture())
	if err != nil {
		t.Fatalf("RankByDistance() error = %v", err)
	}

	if len(hits) != 0 {
		t.Errorf("expected no hits within 1 km, got %v", hitIDs(hits))
	}
}

func TestRankByDistanceKeyword(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
		wantIDs []int
	}{
		{
			name:    "title match is case-insensitive",
			keyword: "chef",
			wantIDs: []int{2},
		},
		{
			name:    "description match",
			keyword: "spare parts",
			wantIDs: []int{5},
		},
		{
			name:    "markup in descriptions does not match",
			keyword: "kitchen",
			wantIDs: []int{2},
		},
		{
			name:    "html tag names never match",
			keyword: "<b>",
			wantIDs: []int{},
		},
		{
			name:    "no match",
			keyword: "plumber",
			wantIDs: []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := RankByDistance(SearchQuery{
				Keyword:  tt.keyword,
				Origin:   spatial.Point{Lat: 6.5244, Lng: 3.3792},
				RadiusKm: 25,
			}, searchFixture())
			if err != nil {
				t.Fatalf("RankByDistance() error = %v", err)
			}

			if diff := cmp.Diff(tt.wantIDs, hitIDs(hits)); diff != "" {
				t.Errorf("hit ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRankByDistanceKeywordFolding(t *testing.T) {
	postings := []*JobPosting{
		{
			ID:          1,
			Title:       "Niñera / Nanny",
			Description: "Cuidado de niños por la tarde.",
			Status:      StatusActive,
			Point:       spatial.Point{Lat: 6.5095, Lng: 3.3711},
		},
	}

	hits, err := RankByDistance(SearchQuery{
		Keyword:  "ninera",
		Origin:   spatial.Point{Lat: 6.5244, Lng: 3.3792},
		RadiusKm: 25,
	}, postings)
	if err != nil {
		t.Fatalf("RankByDistance() error = %v", err)
	}

	if len(hits) != 1 {
		t.Fatalf("expected accent-folded match, got %d hits", len(hits))
	}
}

func TestRankByDistanceTieBreak(t *testing.T) {
	p := spatial.Point{Lat: 6.5095, Lng: 3.3711}
	postings := []*JobPosting{
		{ID: 9, Title: "B", Description: "b", Status: StatusActive, Point: p},
		{ID: 2, Title: "A", Description: "a", Status: StatusActive, Point: p},
	}

	hits, err := RankByDistance(SearchQuery{
		Origin:   spatial.Point{Lat: 6.5244, Lng: 3.3792},
		RadiusKm: 25,
	}, postings)
	if err != nil {
		t.Fatalf("RankByDistance() error = %v", err)
	}

	if diff := cmp.Diff([]int{2, 9}, hitIDs(hits)); diff != "" {
		t.Errorf("equidistant hits not ordered by id (-want +got):\n%s", diff)
	}
}

func TestRankByDistanceBadInput(t *testing.T) {
	origin := spatial.Point{Lat: 6.5244, Lng: 3.3792}

	_, err := RankByDistance(SearchQuery{Origin: origin, RadiusKm: 0}, nil)
	if !errors.Is(err, ErrNonPositiveRadius) {
		t.Errorf("zero radius error = %v, want ErrNonPositiveRadius", err)
	}

	_, err = RankByDistance(SearchQuery{Origin: origin, RadiusKm: -5}, nil)
	if !errors.Is(err, ErrNonPositiveRadius) {
		t.Errorf("negative radius error = %v, want ErrNonPositiveRadius", err)
	}

	_, err = RankByDistance(SearchQuery{
		Origin:   spatial.Point{Lat: 100, Lng: 3.3792},
		RadiusKm: 10,
	}, nil)
	if !errors.Is(err, spatial.ErrInvalidCoordinate) {
		t.Errorf("invalid origin error = %v, want ErrInvalidCoordinate", err)
	}
}

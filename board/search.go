// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"errors"
	"sort"
	"strings"

	"github.com/nearwork/nearwork/spatial"
	"github.com/nearwork/nearwork/utils/textutils"
)

// SearchQuery is a transient, per-request proximity search request.
type SearchQuery struct {
	Keyword  string        `json:"keyword,omitempty"`
	Origin   spatial.Point `json:"origin"`
	RadiusKm float64       `json:"radius_km"`
}

// SearchHit pairs a posting with its distance from the query origin.
type SearchHit struct {
	Posting    *JobPosting `json:"posting"`
	DistanceKm float64     `json:"distance_km"`
}

// ErrNonPositiveRadius rejects radii that cannot match anything meaningful.
var ErrNonPositiveRadius = errors.New("board: search radius must be positive")

// RankByDistance filters the candidate postings by status, radius and
// keyword, and returns them ordered ascending by distance from the origin.
// Ties are broken by posting id ascending so results are deterministic.
//
// Only active postings are considered; paused and archived postings are
// excluded regardless of distance or keyword. The function is pure with
// respect to its inputs.
func RankByDistance(query SearchQuery, postings []*JobPosting) ([]SearchHit, error) {
	if query.RadiusKm <= 0 {
		return nil, ErrNonPositiveRadius
	}

	if err := query.Origin.Validate(); err != nil {
		return nil, err
	}

	keyword := textutils.LowerASCIIFolding(query.Keyword)

	hits := make([]SearchHit, 0, len(postings))

	for _, p := range postings {
		if p.Status != StatusActive {
			continue
		}

		d, err := query.Origin.DistanceKm(p.Point)
		if err != nil {
			return nil, err
		}

		if d > query.RadiusKm {
			continue
		}

		if keyword != "" && !matchesKeyword(p, keyword) {
			continue
		}

		hits = append(hits, SearchHit{Posting: p, DistanceKm: d})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DistanceKm != hits[j].DistanceKm {
			return hits[i].DistanceKm < hits[j].DistanceKm
		}

		return hits[i].Posting.ID < hits[j].Posting.ID
	})

	return hits, nil
}

// matchesKeyword performs a case-insensitive substring match over the folded
// title and description. Markup in descriptions is stripped first so tag
// names never match.
func matchesKeyword(p *JobPosting, foldedKeyword string) bool {
	if strings.Contains(textutils.LowerASCIIFolding(p.Title), foldedKeyword) {
		return true
	}

	return strings.Contains(
		textutils.LowerASCIIFolding(textutils.HTMLToText(p.Description)),
		foldedKeyword,
	)
}

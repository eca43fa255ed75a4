// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"fmt"

	"github.com/nearwork/nearwork/spatial"
)

// Core wires the geocoder, the service-area validator and the posting store
// into the two operations the rest of the system calls: ValidateAndGeocode
// and Search. It holds no mutable state of its own; every request is
// independent.
type Core struct {
	geocoder Geocoder
	area     *ServiceArea
	jobs     JobRepository
}

// NewCore builds a Core from explicitly constructed collaborators.
func NewCore(geocoder Geocoder, area *ServiceArea, jobs JobRepository) *Core {
	return &Core{
		geocoder: geocoder,
		area:     area,
		jobs:     jobs,
	}
}

// ServiceArea exposes the configured service area.
func (c *Core) ServiceArea() *ServiceArea {
	return c.area
}

// ValidateAndGeocode resolves a free-text address to a coordinate and checks
// it against the service area. Geocoding failures and service-area
// rejections surface unchanged to the caller; nothing is retried and nothing
// is persisted here.
func (c *Core) ValidateAndGeocode(address, city string) (spatial.Point, *GeocodingResult, error) {
	address = sanitizeAddress(address)
	if address == "" {
		return spatial.Point{}, nil, fmt.Errorf("address can't be empty")
	}

	result, err := c.geocoder.Geocode(address, city)
	if err != nil {
		return spatial.Point{}, nil, err
	}

	p := spatial.Point{Lat: result.Latitude, Lng: result.Longitude}

	if err := c.area.Validate(p); err != nil {
		return spatial.Point{}, nil, err
	}

	return p, result, nil
}

// Search loads the current snapshot of active postings and ranks them by
// distance from the query origin. See RankByDistance for the filtering and
// ordering contract.
func (c *Core) Search(query SearchQuery) ([]SearchHit, error) {
	postings, err := c.jobs.ListActivePostings()
	if err != nil {
		return nil, fmt.Errorf("listing active postings: %w", err)
	}

	return RankByDistance(query, postings)
}

// CreatePosting validates, geocodes and persists a new posting. The posting
// arrives without a coordinate; its street address and city are resolved via
// the geocoder and must fall inside the service area, otherwise nothing is
// persisted.
func (c *Core) CreatePosting(p *JobPosting) (int, error) {
	p.StreetAddress = sanitizeAddress(p.StreetAddress)

	point, _, err := c.ValidateAndGeocode(p.StreetAddress, p.City)
	if err != nil {
		return 0, err
	}

	p.Point = point

	if err := validatePosting(p); err != nil {
		return 0, err
	}

	return c.jobs.CreatePosting(p)
}

// ClusterActivePostings groups active postings that sit within thresholdKm of
// each other, for map display of co-located jobs. Groups of one are omitted.
func (c *Core) ClusterActivePostings(thresholdKm float64) ([]*PostingCluster, error) {
	postings, err := c.jobs.ListActivePostings()
	if err != nil {
		return nil, fmt.Errorf("listing active postings: %w", err)
	}

	return clusterPostings(postings, thresholdKm)
}

// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

// GeocodingResult represents a geocoding result from any provider.
type GeocodingResult struct {
	Latitude    float64
	Longitude   float64
	Confidence  string // high, medium, low
	Provider    string
	DisplayName string
}

// Geocoder interface for different geocoding providers.
type Geocoder interface {
	Geocode(address string, city string) (*GeocodingResult, error)
}

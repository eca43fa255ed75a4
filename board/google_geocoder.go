// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// GoogleMapsGeocoder uses the Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	apiKey     string
	country    string // appended to queries, e.g. "Nigeria"
	regionBias string // ccTLD bias, e.g. "ng"
	baseURL    string
	httpClient *http.Client
}

// GoogleMapsOption customizes a GoogleMapsGeocoder.
type GoogleMapsOption func(*GoogleMapsGeocoder)

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(baseURL string) GoogleMapsOption {
	return func(g *GoogleMapsGeocoder) {
		if baseURL != "" {
			g.baseURL = baseURL
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) GoogleMapsOption {
	return func(g *GoogleMapsGeocoder) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder. An empty apiKey is
// allowed at construction time; Geocode then fails with an invalid-token
// error instead of crashing.
func NewGoogleMapsGeocoder(apiKey, country, regionBias string, opts ...GoogleMapsOption) *GoogleMapsGeocoder {
	g := &GoogleMapsGeocoder{
		apiKey:     apiKey,
		country:    country,
		regionBias: regionBias,
		baseURL:    "https://maps.googleapis.com/maps/api/geocode/json",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status string `json:"status"` // OK, ZERO_RESULTS, REQUEST_DENIED, ...
}

func (g *GoogleMapsGeocoder) Geocode(address string, city string) (*GeocodingResult, error) {
	if g.apiKey == "" {
		return nil, &GeocodingError{
			Type:    ErrorTypeInvalidToken,
			Message: "no geocoding API key configured",
		}
	}

	// Build the search query with city context when available
	var searchQuery string
	if city == "" {
		searchQuery = fmt.Sprintf("%s, %s", address, g.country)
	} else {
		searchQuery = fmt.Sprintf("%s, %s, %s", address, city, g.country)
	}

	params := url.Values{}
	params.Set("address", searchQuery)
	params.Set("key", g.apiKey)
	params.Set("region", g.regionBias)

	resp, err := g.httpClient.Get(g.baseURL + "?" + params.Encode())
	if err != nil {
		return nil, &GeocodingError{
			Type:    ErrorTypeProviderUnavailable,
			Message: "geocoding request failed",
			Err:     err,
		}
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, "")
	}

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return nil, &GeocodingError{
			Type:    ErrorTypeProviderUnavailable,
			Message: "decoding response",
			Err:     err,
		}
	}

	switch gmResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, &GeocodingError{
			Type:    ErrorTypeNoMatch,
			Message: fmt.Sprintf("no results found for address: %s", address),
		}
	case "REQUEST_DENIED", "INVALID_REQUEST":
		return nil, &GeocodingError{
			Type:    ErrorTypeInvalidToken,
			Message: fmt.Sprintf("google maps status: %s", gmResp.Status),
		}
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		return nil, &GeocodingError{
			Type:    ErrorTypeRateLimit,
			Message: fmt.Sprintf("google maps status: %s", gmResp.Status),
		}
	default:
		return nil, &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("google maps status: %s", gmResp.Status),
		}
	}

	if len(gmResp.Results) == 0 {
		return nil, &GeocodingError{
			Type:    ErrorTypeNoMatch,
			Message: fmt.Sprintf("no results found for address: %s", address),
		}
	}

	result := gmResp.Results[0]

	// Confidence derives from location_type
	confidence := "low"

	switch result.Geometry.LocationType {
	case "ROOFTOP":
		confidence = "high"
	case "RANGE_INTERPOLATED":
		confidence = "high"
	case "GEOMETRIC_CENTER":
		confidence = "medium"
	case "APPROXIMATE":
		confidence = "low"
	}

	return &GeocodingResult{
		Latitude:    result.Geometry.Location.Lat,
		Longitude:   result.Geometry.Location.Lng,
		Confidence:  confidence,
		Provider:    "google_maps",
		DisplayName: result.FormattedAddress,
	}, nil
}

// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GeocodingError represents geocoding-specific failures.
type GeocodingError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType defines the kinds of geocoding failures.
type ErrorType int

const (
	// ErrorTypeUnknown is an unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeProviderUnavailable means the provider could not be reached
	// or answered with a server-side error.
	ErrorTypeProviderUnavailable
	// ErrorTypeNoMatch means the provider found no coordinate for the address.
	ErrorTypeNoMatch
	// ErrorTypeInvalidToken means the provider rejected (or we lack) the API token.
	ErrorTypeInvalidToken
	// ErrorTypeRateLimit means the provider throttled the request.
	ErrorTypeRateLimit
)

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

// IsNoMatch reports whether the error means no coordinate was found.
func IsNoMatch(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeNoMatch
	}

	return false
}

// IsInvalidToken reports whether the error is a missing or rejected API token.
func IsInvalidToken(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeInvalidToken
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "request_denied") ||
		strings.Contains(errStr, "invalid key")
}

// IsProviderUnavailable reports whether the error is a provider-side outage.
func IsProviderUnavailable(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeProviderUnavailable
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "unavailable") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused")
}

// IsRateLimitError reports whether the error is due to throttling.
func IsRateLimitError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// ClassifyHTTPError maps an HTTP status code to a geocoding failure kind.
func ClassifyHTTPError(statusCode int, _ string) *GeocodingError {
	switch statusCode {
	case http.StatusTooManyRequests: // 429
		return &GeocodingError{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit reached",
		}
	case http.StatusUnauthorized, http.StatusForbidden: // 401, 403
		return &GeocodingError{
			Type:    ErrorTypeInvalidToken,
			Message: "token rejected or quota exceeded",
		}
	case http.StatusNotFound: // 404
		return &GeocodingError{
			Type:    ErrorTypeNoMatch,
			Message: "location not found",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &GeocodingError{
			Type:    ErrorTypeProviderUnavailable,
			Message: fmt.Sprintf("provider unavailable (status %d)", statusCode),
		}
	default:
		return &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("HTTP error %d", statusCode),
		}
	}
}

// ValidationError reports a coordinate outside the configured service area.
type ValidationError struct {
	Point      string
	DistanceKm float64
	RadiusKm   float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("board: %s is %.1f km from the service-area center (allowed radius %.1f km)",
		e.Point, e.DistanceKm, e.RadiusKm)
}

// IsOutsideServiceArea reports whether the error is a service-area rejection.
func IsOutsideServiceArea(err error) bool {
	var vErr *ValidationError

	return errors.As(err, &vErr)
}

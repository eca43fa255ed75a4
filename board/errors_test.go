// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

type errorCheckTestCase struct {
	name string
	err  error
	want bool
}

func runErrorCheckTest(t *testing.T, tests []errorCheckTestCase, checkFunc func(error) bool) {
	t.Helper()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkFunc(tt.err); got != tt.want {
				t.Errorf("checkFunc() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRateLimitError(t *testing.T) {
	tests := []errorCheckTestCase{
		{
			name: "rate limit error type",
			err: &GeocodingError{
				Type:    ErrorTypeRateLimit,
				Message: "rate limit exceeded",
			},
			want: true,
		},
		{
			name: "error message contains rate limit",
			err:  errors.New("rate limit exceeded"),
			want: true,
		},
		{
			name: "error message contains too many requests",
			err:  errors.New("too many requests"),
			want: true,
		},
		{
			name: "error message contains 429",
			err:  errors.New("provider returned status 429"),
			want: true,
		},
		{
			name: "other error type",
			err: &GeocodingError{
				Type:    ErrorTypeNoMatch,
				Message: "not found",
			},
			want: false,
		},
		{
			name: "unrelated error",
			err:  errors.New("some other error"),
			want: false,
		},
	}

	runErrorCheckTest(t, tests, IsRateLimitError)
}

func TestIsInvalidToken(t *testing.T) {
	tests := []errorCheckTestCase{
		{
			name: "invalid token error type",
			err: &GeocodingError{
				Type:    ErrorTypeInvalidToken,
				Message: "no geocoding API key configured",
			},
			want: true,
		},
		{
			name: "error message contains request_denied",
			err:  errors.New("google maps status: REQUEST_DENIED"),
			want: true,
		},
		{
			name: "error message contains invalid key",
			err:  errors.New("invalid key supplied"),
			want: true,
		},
		{
			name: "other error type",
			err: &GeocodingError{
				Type:    ErrorTypeRateLimit,
				Message: "slow down",
			},
			want: false,
		},
		{
			name: "unrelated error",
			err:  errors.New("some other error"),
			want: false,
		},
	}

	runErrorCheckTest(t, tests, IsInvalidToken)
}

func TestIsProviderUnavailable(t *testing.T) {
	tests := []errorCheckTestCase{
		{
			name: "provider unavailable error type",
			err: &GeocodingError{
				Type:    ErrorTypeProviderUnavailable,
				Message: "provider down",
			},
			want: true,
		},
		{
			name: "error message contains timeout",
			err:  errors.New("request timeout"),
			want: true,
		},
		{
			name: "error message contains connection refused",
			err:  errors.New("dial tcp: connection refused"),
			want: true,
		},
		{
			name: "other error type",
			err: &GeocodingError{
				Type:    ErrorTypeNoMatch,
				Message: "nope",
			},
			want: false,
		},
	}

	runErrorCheckTest(t, tests, IsProviderUnavailable)
}

func TestIsNoMatch(t *testing.T) {
	tests := []errorCheckTestCase{
		{
			name: "no match error type",
			err: &GeocodingError{
				Type:    ErrorTypeNoMatch,
				Message: "no results found",
			},
			want: true,
		},
		{
			name: "wrapped no match",
			err: fmt.Errorf("geocoding: %w", &GeocodingError{
				Type:    ErrorTypeNoMatch,
				Message: "no results found",
			}),
			want: true,
		},
		{
			name: "other error type",
			err: &GeocodingError{
				Type:    ErrorTypeInvalidToken,
				Message: "bad key",
			},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("no results found"),
			want: false,
		},
	}

	runErrorCheckTest(t, tests, IsNoMatch)
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusUnauthorized, ErrorTypeInvalidToken},
		{http.StatusForbidden, ErrorTypeInvalidToken},
		{http.StatusNotFound, ErrorTypeNoMatch},
		{http.StatusServiceUnavailable, ErrorTypeProviderUnavailable},
		{http.StatusBadGateway, ErrorTypeProviderUnavailable},
		{http.StatusGatewayTimeout, ErrorTypeProviderUnavailable},
		{http.StatusTeapot, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			got := ClassifyHTTPError(tt.status, "")
			if got.Type != tt.want {
				t.Errorf("ClassifyHTTPError(%d).Type = %v, want %v", tt.status, got.Type, tt.want)
			}
		})
	}
}

func TestIsOutsideServiceArea(t *testing.T) {
	vErr := &ValidationError{Point: "POINT(3.3792 6.5244)", DistanceKm: 75.3, RadiusKm: 50}

	if !IsOutsideServiceArea(vErr) {
		t.Error("IsOutsideServiceArea() = false for a ValidationError")
	}

	if !IsOutsideServiceArea(fmt.Errorf("creating posting: %w", vErr)) {
		t.Error("IsOutsideServiceArea() = false for a wrapped ValidationError")
	}

	if IsOutsideServiceArea(errors.New("outside")) {
		t.Error("IsOutsideServiceArea() = true for an unrelated error")
	}
}

func TestGeocodingErrorUnwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := &GeocodingError{
		Type:    ErrorTypeProviderUnavailable,
		Message: "geocoding request failed",
		Err:     cause,
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is() did not find the wrapped cause")
	}

	want := "geocoding request failed: socket closed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"fmt"
	"os"
	"strconv"

	"github.com/nearwork/nearwork/spatial"
)

// Config holds all runtime configuration for the job board. It is built once
// at startup and treated as immutable for the process lifetime.
type Config struct {
	Addr      string
	DBPath    string
	UploadDir string

	// Geocoding provider
	GoogleMapsAPIKey string
	GeocodeCountry   string // appended to free-text queries
	GeocodeRegion    string // ccTLD region bias

	// Service area: the disk within which postings are permitted
	ServiceAreaCenter   spatial.Point
	ServiceAreaRadiusKm float64
}

// LoadConfig reads environment variables and returns a validated Config.
// Defaults target the Lagos metropolitan area.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Addr:             envOr("NEARWORK_ADDR", "localhost:8080"),
		DBPath:           envOr("NEARWORK_DB_PATH", "data"),
		UploadDir:        envOr("NEARWORK_UPLOAD_DIR", "data/uploads/resumes"),
		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		GeocodeCountry:   envOr("GEOCODE_COUNTRY", "Nigeria"),
		GeocodeRegion:    envOr("GEOCODE_REGION_BIAS", "ng"),
		ServiceAreaCenter: spatial.Point{
			Lat: 6.5244,
			Lng: 3.3792,
		},
		ServiceAreaRadiusKm: 50,
	}

	var err error

	if cfg.ServiceAreaCenter.Lat, err = envFloat("SERVICE_AREA_CENTER_LAT", cfg.ServiceAreaCenter.Lat); err != nil {
		return nil, err
	}

	if cfg.ServiceAreaCenter.Lng, err = envFloat("SERVICE_AREA_CENTER_LNG", cfg.ServiceAreaCenter.Lng); err != nil {
		return nil, err
	}

	if cfg.ServiceAreaRadiusKm, err = envFloat("SERVICE_AREA_RADIUS_KM", cfg.ServiceAreaRadiusKm); err != nil {
		return nil, err
	}

	if err := cfg.ServiceAreaCenter.Validate(); err != nil {
		return nil, fmt.Errorf("service-area center: %w", err)
	}

	if cfg.ServiceAreaRadiusKm < 0 {
		return nil, fmt.Errorf("SERVICE_AREA_RADIUS_KM must be >= 0, got %f", cfg.ServiceAreaRadiusKm)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, s)
	}

	return v, nil
}

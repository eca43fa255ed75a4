// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/nearwork/nearwork/board"
	"github.com/nearwork/nearwork/spatial"
	"github.com/spf13/cobra"
)

var geocodeCity string

var geocodeCmd = &cobra.Command{
	Use:   "geocode <address>",
	Short: "Geocode a single address and check it against the service area",
	Long: `Resolves a free-text address through the configured geocoder and reports
the coordinate, the match confidence and whether it falls inside the service
area. Useful for debugging rejected postings.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := board.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		geocoder := buildGeocoder(cfg)

		result, err := geocoder.Geocode(strings.Join(args, " "), geocodeCity)
		if err != nil {
			return fmt.Errorf("geocoding: %w", err)
		}

		point := spatial.Point{Lat: result.Latitude, Lng: result.Longitude}
		area := board.NewServiceArea(cfg.ServiceAreaCenter, cfg.ServiceAreaRadiusKm)

		distance, err := cfg.ServiceAreaCenter.DistanceKm(point)
		if err != nil {
			return fmt.Errorf("computing distance: %w", err)
		}

		out := map[string]any{
			"point":             point,
			"confidence":        result.Confidence,
			"provider":          result.Provider,
			"display_name":      result.DisplayName,
			"distance_km":       distance,
			"in_service_area":   area.Validate(point) == nil,
			"service_radius_km": area.RadiusKm,
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	},
}

func init() {
	geocodeCmd.Flags().StringVar(&geocodeCity, "city", "", "city to bias the lookup")
	rootCmd.AddCommand(geocodeCmd)
}

// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/nearwork/nearwork/board"
	"github.com/nearwork/nearwork/utils/httputils"
	"github.com/spf13/cobra"
)

const seedFile = "postings.json"

func openDatabase(cfg *board.Config) (*sql.DB, error) {
	if err := os.MkdirAll(cfg.DBPath, 0o750); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	dbpath := filepath.Join(cfg.DBPath, "nearwork.duckdb")

	db, err := sql.Open("duckdb", dbpath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return db, nil
}

// buildGeocoder assembles the Google Maps geocoder from configuration. When
// no key is configured it falls back to Application Default Credentials;
// when that also fails the geocoder is still returned and reports the
// missing key on first use.
func buildGeocoder(cfg *board.Config) board.Geocoder {
	apiKey := cfg.GoogleMapsAPIKey
	if apiKey == "" {
		key, err := board.APIKeyFromADC(context.Background())
		if err != nil {
			log.Printf("⚠️  No geocoding key available (GOOGLE_MAPS_API_KEY unset, ADC lookup failed: %v)", err)
		} else {
			apiKey = key
		}
	}

	var opts []board.GoogleMapsOption

	if verbose {
		opts = append(opts, board.WithHTTPClient(&http.Client{
			Transport: &httputils.LoggingRoundTripper{
				Transport: http.DefaultTransport,
				Writer:    os.Stderr,
				DumpBody:  true,
			},
		}))
	}

	return board.NewGoogleMapsGeocoder(apiKey, cfg.GeocodeCountry, cfg.GeocodeRegion, opts...)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the job board API server",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := board.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		jobs := board.NewJobRepository(db)
		if err := jobs.CreateSchema(); err != nil {
			return fmt.Errorf("creating job schema: %w", err)
		}

		accounts := board.NewAccountRepository(db)
		if err := accounts.CreateSchema(); err != nil {
			return fmt.Errorf("creating account schema: %w", err)
		}

		apps := board.NewApplicationRepository(db)
		if err := apps.CreateSchema(); err != nil {
			return fmt.Errorf("creating application schema: %w", err)
		}

		saved := board.NewSavedJobRepository(db)
		if err := saved.CreateSchema(); err != nil {
			return fmt.Errorf("creating saved-jobs schema: %w", err)
		}

		seeded, count, err := board.SeedIfEmpty(jobs, seedFile)
		if err != nil {
			return fmt.Errorf("seeding postings: %w", err)
		}

		if seeded {
			log.Printf("✅ Seeded %d postings from %s", count, seedFile)
		}

		area := board.NewServiceArea(cfg.ServiceAreaCenter, cfg.ServiceAreaRadiusKm)
		core := board.NewCore(buildGeocoder(cfg), area, jobs)
		server := board.NewServer(cfg, core, jobs, accounts, apps, saved)

		fmt.Printf("💼 Job board server starting on %s\n", cfg.Addr)
		fmt.Printf("📍 Service area: %.1f km around %s\n", area.RadiusKm, area.Center.String())

		return server.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

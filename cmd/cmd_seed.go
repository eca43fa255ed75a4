// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/nearwork/nearwork/board"
	"github.com/nearwork/nearwork/spatial"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// seedFileData is the on-disk format of cmd/testdata/seed.json. Postings
// reference their employer by email so the file does not depend on generated
// ids.
type seedFileData struct {
	Accounts []*board.Account `json:"accounts"`
	Postings []*seedPosting   `json:"postings"`
}

type seedPosting struct {
	board.JobPosting

	EmployerEmail string `json:"employer_email"`
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seeds the database with data from cmd/testdata/seed.json",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := board.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			dbpath := filepath.Join(cfg.DBPath, "nearwork.duckdb")
			// remove old db if it exists
			_ = os.Remove(dbpath)
			_ = os.Remove(dbpath + ".wal")

			return seedDatabase(cfg)
		},
	}
}

func init() {
	rootCmd.AddCommand(newSeedCmd())
}

func seedDatabase(cfg *board.Config) error {
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

	data, err := os.ReadFile("cmd/testdata/seed.json")
	if err != nil {
		return fmt.Errorf("reading seed.json: %w", err)
	}

	var seed seedFileData
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("unmarshaling seed.json: %w", err)
	}

	employerIDs := make(map[string]int)

	for _, account := range seed.Accounts {
		id, err := accounts.CreateAccount(account)
		if err != nil {
			return fmt.Errorf("creating account %s: %w", account.Email, err)
		}

		employerIDs[account.Email] = id
	}

	geocoder := buildGeocoder(cfg)
	area := board.NewServiceArea(cfg.ServiceAreaCenter, cfg.ServiceAreaRadiusKm)

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(seed.Postings),
			progressbar.OptionSetDescription("Seeding postings"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	postings := make([]*board.JobPosting, 0, len(seed.Postings))

	for _, entry := range seed.Postings {
		posting := entry.JobPosting

		employerID, ok := employerIDs[entry.EmployerEmail]
		if !ok {
			return fmt.Errorf("seed posting %q references unknown employer %s", posting.Title, entry.EmployerEmail)
		}

		posting.EmployerID = employerID

		// Seed entries may carry a coordinate already; the rest go through
		// the geocoder like any regular posting
		if posting.Point == (spatial.Point{}) {
			result, err := geocoder.Geocode(posting.StreetAddress, posting.City)
			if err != nil {
				return fmt.Errorf("geocoding %q: %w", posting.StreetAddress, err)
			}

			posting.Point = spatial.Point{Lat: result.Latitude, Lng: result.Longitude}
		}

		if err := area.Validate(posting.Point); err != nil {
			return fmt.Errorf("seed posting %q: %w", posting.Title, err)
		}

		postings = append(postings, &posting)

		if bar == nil {
			log.Printf("Seeding %s", posting.Title)
		} else if err := bar.Add(1); err != nil {
			return fmt.Errorf("updating progress bar: %w", err)
		}
	}

	if err := jobs.BulkInsertPostings(postings); err != nil {
		return fmt.Errorf("inserting postings: %w", err)
	}

	fmt.Println("Database seeded successfully.")

	return nil
}

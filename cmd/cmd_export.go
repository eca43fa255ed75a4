// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/nearwork/nearwork/board"
	"github.com/nearwork/nearwork/utils/textutils"
	"github.com/spf13/cobra"
)

var postingsCmd = &cobra.Command{
	Use:   "postings",
	Short: "Move postings between the database and a JSON file",
}

var postingsStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Export active postings to a file",
	Long:  `Exports all active postings from the database to a local JSON file, suitable for seeding another instance.`,
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
		if err := board.ExportToJSON(jobs, seedFile); err != nil {
			return fmt.Errorf("exporting postings: %w", err)
		}

		fmt.Printf("✅ Exported active postings to %s\n", seedFile)

		return nil
	},
}

var postingsLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Import postings from a file into an empty database",
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

		seeded, count, err := board.SeedIfEmpty(jobs, seedFile)
		if err != nil {
			return fmt.Errorf("importing postings: %w", err)
		}

		if !seeded {
			fmt.Printf("Database already has %s postings. Skipping import.\n",
				textutils.FormatInt(int64(count)))

			return nil
		}

		fmt.Printf("✅ Imported %s postings from %s\n",
			textutils.FormatInt(int64(count)), seedFile)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(postingsCmd)
	postingsCmd.AddCommand(postingsStoreCmd)
	postingsCmd.AddCommand(postingsLoadCmd)
}

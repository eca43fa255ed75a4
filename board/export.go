// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// SeedData represents the JSON seed file format.
type SeedData struct {
	Version     string        `json:"version"`
	LastUpdated time.Time     `json:"last_updated"`
	Postings    []*JobPosting `json:"postings"`
}

// ExportToJSON exports all active postings to a JSON file.
func ExportToJSON(repo JobRepository, filepath string) error {
	postings, err := repo.ListActivePostings()
	if err != nil {
		return fmt.Errorf("listing active postings: %w", err)
	}

	seed := &SeedData{
		Version:     "1.0",
		LastUpdated: time.Now(),
		Postings:    postings,
	}

	data, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}

	err = os.WriteFile(filepath, data, 0o600)
	if err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}

// ImportFromJSON imports postings from a JSON file.
func ImportFromJSON(repo JobRepository, filepath string) (int, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by admin
	if err != nil {
		return 0, fmt.Errorf("reading file: %w", err)
	}

	var seed SeedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parsing JSON: %w", err)
	}

	for _, posting := range seed.Postings {
		if err := validatePosting(posting); err != nil {
			return 0, fmt.Errorf("invalid posting %q: %w", posting.Title, err)
		}
	}

	if err := repo.BulkInsertPostings(seed.Postings); err != nil {
		return 0, fmt.Errorf("inserting postings: %w", err)
	}

	return len(seed.Postings), nil
}

// SeedIfEmpty seeds the database from a JSON file if no postings exist.
func SeedIfEmpty(repo JobRepository, filepath string) (bool, int, error) {
	counts, err := repo.CountByStatus()
	if err != nil {
		return false, 0, fmt.Errorf("counting postings: %w", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	if total > 0 {
		return false, total, nil
	}
	// Database is empty, try to seed
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		// No seed file exists, that's okay
		return false, 0, nil
	}

	imported, err := ImportFromJSON(repo, filepath)
	if err != nil {
		return false, 0, err
	}

	return true, imported, nil
}

// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"database/sql"
	"fmt"
	"time"
)

// SavedJobRepository handles seekers' bookmarked postings.
type SavedJobRepository interface {
	// CreateSchema creates the saved_jobs table
	CreateSchema() error

	// Save bookmarks the posting for the account; saving twice is a no-op
	Save(accountID, jobID int) error

	// Unsave removes the bookmark
	Unsave(accountID, jobID int) error

	// IsSaved reports whether the posting is bookmarked by the account
	IsSaved(accountID, jobID int) (bool, error)

	// ListPostings returns the bookmarked postings, most recently saved first
	ListPostings(accountID int) ([]*JobPosting, error)
}

type sqlSavedJobRepository struct {
	db   *sql.DB
	jobs *sqlJobRepository
}

// NewSavedJobRepository creates a DuckDB-backed saved-jobs repository.
func NewSavedJobRepository(db *sql.DB) SavedJobRepository {
	return &sqlSavedJobRepository{db: db, jobs: &sqlJobRepository{db: db}}
}

func (r *sqlSavedJobRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS saved_jobs_seq START 1;

		CREATE TABLE IF NOT EXISTS saved_jobs (
			id INTEGER PRIMARY KEY DEFAULT nextval('saved_jobs_seq'),
			account_id INTEGER NOT NULL,
			job_id INTEGER NOT NULL,
			saved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(account_id, job_id)
		);
	`)

	return err
}

func (r *sqlSavedJobRepository) Save(accountID, jobID int) error {
	saved, err := r.IsSaved(accountID, jobID)
	if err != nil {
		return err
	}

	if saved {
		return nil
	}

	_, err = r.db.Exec(`
		INSERT INTO saved_jobs(account_id, job_id, saved_at)
		VALUES (?, ?, ?)
	`, accountID, jobID, time.Now())
	if err != nil {
		return fmt.Errorf("saving job: %w", err)
	}

	return nil
}

func (r *sqlSavedJobRepository) Unsave(accountID, jobID int) error {
	res, err := r.db.Exec(
		"DELETE FROM saved_jobs WHERE account_id = ? AND job_id = ?",
		accountID, jobID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *sqlSavedJobRepository) IsSaved(accountID, jobID int) (bool, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM saved_jobs WHERE account_id = ? AND job_id = ?",
		accountID, jobID,
	).Scan(&count)

	return count > 0, err
}

func (r *sqlSavedJobRepository) ListPostings(accountID int) ([]*JobPosting, error) {
	return r.jobs.list(`
		SELECT p.id, p.employer_id, p.title, p.description, p.category, p.employment_type,
		       p.salary_min, p.salary_max, p.street_address, p.city, p.zip_code,
		       p.point, p.status, p.created_at, p.updated_at,
		       p.h3_res4, p.h3_res5, p.h3_res6, p.h3_res7, p.h3_res8
		FROM job_postings p
		INNER JOIN saved_jobs s ON s.job_id = p.id
		WHERE s.account_id = ?
		ORDER BY s.saved_at DESC
	`, []any{accountID})
}

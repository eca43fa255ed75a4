// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ApplicationRepository handles persistence of job applications and resume
// metadata.
type ApplicationRepository interface {
	// CreateSchema creates the applications and resumes tables
	CreateSchema() error

	// CreateApplication inserts an application and returns its id
	CreateApplication(app *Application) (int, error)

	// HasApplied reports whether the seeker already applied to the posting
	HasApplied(jobID, applicantID int) (bool, error)

	// ListByApplicant returns the seeker's applications, newest first
	ListByApplicant(applicantID int) ([]*Application, error)

	// ListForEmployer returns applications to any of the employer's postings
	ListForEmployer(employerID int) ([]*Application, error)

	// CreateResume inserts resume metadata and returns its id
	CreateResume(res *Resume) (int, error)

	// GetResume returns resume metadata by id
	GetResume(id int) (*Resume, error)

	// ListResumes returns the account's resumes, newest first
	ListResumes(accountID int) ([]*Resume, error)
}

type sqlApplicationRepository struct {
	db *sql.DB
}

// NewApplicationRepository creates a DuckDB-backed application repository.
func NewApplicationRepository(db *sql.DB) ApplicationRepository {
	return &sqlApplicationRepository{db: db}
}

func (r *sqlApplicationRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS applications_seq START 1;
		CREATE SEQUENCE IF NOT EXISTS resumes_seq START 1;

		CREATE TABLE IF NOT EXISTS applications (
			id INTEGER PRIMARY KEY DEFAULT nextval('applications_seq'),
			job_id INTEGER NOT NULL,
			applicant_id INTEGER NOT NULL,
			resume_id INTEGER,
			cover_letter TEXT,
			status VARCHAR NOT NULL DEFAULT 'applied',
			submitted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(job_id, applicant_id)
		);

		CREATE TABLE IF NOT EXISTS resumes (
			id INTEGER PRIMARY KEY DEFAULT nextval('resumes_seq'),
			account_id INTEGER NOT NULL,
			filename VARCHAR NOT NULL,
			original_filename VARCHAR NOT NULL,
			uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)

	return err
}

func (r *sqlApplicationRepository) CreateApplication(app *Application) (int, error) {
	now := time.Now()
	app.SubmittedAt = now
	app.UpdatedAt = now

	if app.Status == "" {
		app.Status = "applied"
	}

	row := r.db.QueryRow(`
		INSERT INTO applications(job_id, applicant_id, resume_id, cover_letter, status, submitted_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		app.JobID,
		app.ApplicantID,
		app.ResumeID,
		nullIfEmpty(app.CoverLetter),
		app.Status,
		app.SubmittedAt,
		app.UpdatedAt,
	)

	if err := row.Scan(&app.ID); err != nil {
		return 0, fmt.Errorf("inserting application: %w", err)
	}

	return app.ID, nil
}

func (r *sqlApplicationRepository) HasApplied(jobID, applicantID int) (bool, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM applications WHERE job_id = ? AND applicant_id = ?",
		jobID, applicantID,
	).Scan(&count)

	return count > 0, err
}

var baseApplicationSelect = `
	SELECT a.id, a.job_id, a.applicant_id, a.resume_id, a.cover_letter,
	       a.status, a.submitted_at, a.updated_at
	FROM applications a
`

func (r *sqlApplicationRepository) listApplications(query string, args []any) ([]*Application, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []*Application

	for rows.Next() {
		app := &Application{}

		var resumeID sql.NullInt64

		var coverLetter sql.NullString

		err := rows.Scan(
			&app.ID,
			&app.JobID,
			&app.ApplicantID,
			&resumeID,
			&coverLetter,
			&app.Status,
			&app.SubmittedAt,
			&app.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if resumeID.Valid {
			id := int(resumeID.Int64)
			app.ResumeID = &id
		}

		app.CoverLetter = coverLetter.String

		apps = append(apps, app)
	}

	return apps, rows.Err()
}

func (r *sqlApplicationRepository) ListByApplicant(applicantID int) ([]*Application, error) {
	return r.listApplications(
		baseApplicationSelect+" WHERE a.applicant_id = ? ORDER BY a.submitted_at DESC",
		[]any{applicantID},
	)
}

func (r *sqlApplicationRepository) ListForEmployer(employerID int) ([]*Application, error) {
	return r.listApplications(baseApplicationSelect+`
		INNER JOIN job_postings p ON p.id = a.job_id
		WHERE p.employer_id = ?
		ORDER BY a.submitted_at DESC
	`, []any{employerID})
}

func (r *sqlApplicationRepository) CreateResume(res *Resume) (int, error) {
	res.UploadedAt = time.Now()

	row := r.db.QueryRow(`
		INSERT INTO resumes(account_id, filename, original_filename, uploaded_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`,
		res.AccountID,
		res.Filename,
		res.OriginalFilename,
		res.UploadedAt,
	)

	if err := row.Scan(&res.ID); err != nil {
		return 0, fmt.Errorf("inserting resume: %w", err)
	}

	return res.ID, nil
}

func (r *sqlApplicationRepository) GetResume(id int) (*Resume, error) {
	res := &Resume{}

	err := r.db.QueryRow(`
		SELECT id, account_id, filename, original_filename, uploaded_at
		FROM resumes
		WHERE id = ?
	`, id).Scan(&res.ID, &res.AccountID, &res.Filename, &res.OriginalFilename, &res.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	return res, err
}

func (r *sqlApplicationRepository) ListResumes(accountID int) ([]*Resume, error) {
	rows, err := r.db.Query(`
		SELECT id, account_id, filename, original_filename, uploaded_at
		FROM resumes
		WHERE account_id = ?
		ORDER BY uploaded_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resumes []*Resume

	for rows.Next() {
		res := &Resume{}
		if err := rows.Scan(&res.ID, &res.AccountID, &res.Filename, &res.OriginalFilename, &res.UploadedAt); err != nil {
			return nil, err
		}

		resumes = append(resumes, res)
	}

	return resumes, rows.Err()
}

// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("board: not found")

// JobRepository handles persistence of job postings.
type JobRepository interface {
	// CreateSchema creates the job_postings table
	CreateSchema() error

	// CreatePosting inserts a posting and returns its id
	CreatePosting(p *JobPosting) (int, error)

	// GetPosting returns a posting by id
	GetPosting(id int) (*JobPosting, error)

	// ListActivePostings returns all postings with status = active
	ListActivePostings() ([]*JobPosting, error)

	// ListByEmployer returns all postings owned by the employer
	ListByEmployer(employerID int) ([]*JobPosting, error)

	// UpdateStatus sets the posting status; any status is reachable from any status
	UpdateStatus(id int, status Status) error

	// BulkInsertPostings inserts a slice of postings in one transaction
	BulkInsertPostings(postings []*JobPosting) error

	// CountByStatus returns posting counts grouped by status
	CountByStatus() (map[string]int, error)

	// CountByCategory returns active posting counts grouped by category
	CountByCategory() (map[string]int, error)

	// ActiveCountByH3 returns active posting counts grouped by H3 cell at the
	// given resolution (4..8)
	ActiveCountByH3(res int) (map[int64]int, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlJobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a DuckDB-backed job posting repository.
func NewJobRepository(db *sql.DB) JobRepository {
	return &sqlJobRepository{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (r *sqlJobRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlJobRepository) CreateSchema() error {
	// DuckDB needs to load the spatial extension
	_, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS job_postings_seq START 1;

		CREATE TABLE IF NOT EXISTS job_postings (
			id INTEGER PRIMARY KEY DEFAULT nextval('job_postings_seq'),
			employer_id INTEGER NOT NULL,
			title VARCHAR NOT NULL,
			description TEXT NOT NULL,
			category VARCHAR NOT NULL,
			employment_type VARCHAR,
			salary_min DOUBLE,
			salary_max DOUBLE,
			street_address VARCHAR NOT NULL,
			city VARCHAR NOT NULL,
			zip_code VARCHAR,
			point POINT_2D NOT NULL,
			status VARCHAR NOT NULL DEFAULT 'active',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			h3_res4 UBIGINT,
			h3_res5 UBIGINT,
			h3_res6 UBIGINT,
			h3_res7 UBIGINT,
			h3_res8 UBIGINT
		);
	`)

	return err
}

func (r *sqlJobRepository) CreatePosting(p *JobPosting) (int, error) {
	if err := p.computeH3(); err != nil {
		return 0, err
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if p.Status == "" {
		p.Status = StatusActive
	}

	row := r.db.QueryRow(`
		INSERT INTO job_postings(
			employer_id, title, description, category, employment_type,
			salary_min, salary_max, street_address, city, zip_code,
			point, status, created_at, updated_at,
			h3_res4, h3_res5, h3_res6, h3_res7, h3_res8
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		p.EmployerID,
		p.Title,
		p.Description,
		p.Category,
		nullIfEmpty(p.EmploymentType),
		p.SalaryMin,
		p.SalaryMax,
		p.StreetAddress,
		p.City,
		nullIfEmpty(p.ZipCode),
		p.Point.Lng,
		p.Point.Lat,
		string(p.Status),
		p.CreatedAt,
		p.UpdatedAt,
		p.H3Res4,
		p.H3Res5,
		p.H3Res6,
		p.H3Res7,
		p.H3Res8,
	)

	if err := row.Scan(&p.ID); err != nil {
		return 0, fmt.Errorf("inserting posting: %w", err)
	}

	return p.ID, nil
}

func (r *sqlJobRepository) BulkInsertPostings(postings []*JobPosting) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO job_postings(
			employer_id, title, description, category, employment_type,
			salary_min, salary_max, street_address, city, zip_code,
			point, status, created_at, updated_at,
			h3_res4, h3_res5, h3_res6, h3_res7, h3_res8
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer stmt.Close()

	now := time.Now()

	for _, p := range postings {
		if err = p.computeH3(); err != nil {
			return err
		}

		if p.Status == "" {
			p.Status = StatusActive
		}

		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}

		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = p.CreatedAt
		}

		_, err := stmt.Exec(
			p.EmployerID,
			p.Title,
			p.Description,
			p.Category,
			nullIfEmpty(p.EmploymentType),
			p.SalaryMin,
			p.SalaryMax,
			p.StreetAddress,
			p.City,
			nullIfEmpty(p.ZipCode),
			p.Point.Lng,
			p.Point.Lat,
			string(p.Status),
			p.CreatedAt,
			p.UpdatedAt,
			p.H3Res4,
			p.H3Res5,
			p.H3Res6,
			p.H3Res7,
			p.H3Res8,
		)
		if err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return err
		}
	}

	return tx.Commit()
}

var basePostingSelect = `
	SELECT id, employer_id, title, description, category, employment_type,
	       salary_min, salary_max, street_address, city, zip_code,
	       point, status, created_at, updated_at,
	       h3_res4, h3_res5, h3_res6, h3_res7, h3_res8
	FROM job_postings
`

func (r *sqlJobRepository) scanPosting(scan func(dest ...any) error) (*JobPosting, error) {
	p := &JobPosting{}

	var (
		employmentType sql.NullString
		zipCode        sql.NullString
		salaryMin      sql.NullFloat64
		salaryMax      sql.NullFloat64
		status         string
		h3Cols         [5]sql.NullInt64
	)

	err := scan(
		&p.ID,
		&p.EmployerID,
		&p.Title,
		&p.Description,
		&p.Category,
		&employmentType,
		&salaryMin,
		&salaryMax,
		&p.StreetAddress,
		&p.City,
		&zipCode,
		&p.Point,
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
		&h3Cols[0],
		&h3Cols[1],
		&h3Cols[2],
		&h3Cols[3],
		&h3Cols[4],
	)
	if err != nil {
		return nil, err
	}

	p.EmploymentType = employmentType.String
	p.ZipCode = zipCode.String
	p.SalaryMin = salaryMin.Float64
	p.SalaryMax = salaryMax.Float64
	p.Status = Status(status)
	p.H3Res4 = h3Cols[0].Int64
	p.H3Res5 = h3Cols[1].Int64
	p.H3Res6 = h3Cols[2].Int64
	p.H3Res7 = h3Cols[3].Int64
	p.H3Res8 = h3Cols[4].Int64

	return p, nil
}

func (r *sqlJobRepository) list(query string, args []any) ([]*JobPosting, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var postings []*JobPosting

	for rows.Next() {
		p, err := r.scanPosting(rows.Scan)
		if err != nil {
			return nil, err
		}

		postings = append(postings, p)
	}

	return postings, rows.Err()
}

func (r *sqlJobRepository) GetPosting(id int) (*JobPosting, error) {
	row := r.db.QueryRow(basePostingSelect+" WHERE id = ?", id)

	p, err := r.scanPosting(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	return p, err
}

func (r *sqlJobRepository) ListActivePostings() ([]*JobPosting, error) {
	return r.list(basePostingSelect+" WHERE status = ? ORDER BY id", []any{string(StatusActive)})
}

func (r *sqlJobRepository) ListByEmployer(employerID int) ([]*JobPosting, error) {
	return r.list(basePostingSelect+" WHERE employer_id = ? ORDER BY updated_at DESC", []any{employerID})
}

func (r *sqlJobRepository) UpdateStatus(id int, status Status) error {
	res, err := r.db.Exec(`
		UPDATE job_postings
		SET status = ?, updated_at = ?
		WHERE id = ?
	`, string(status), time.Now(), id)
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

func (r *sqlJobRepository) CountByStatus() (map[string]int, error) {
	return r.countGrouped(`SELECT status, COUNT(*) FROM job_postings GROUP BY status`)
}

func (r *sqlJobRepository) CountByCategory() (map[string]int, error) {
	return r.countGrouped(`
		SELECT category, COUNT(*)
		FROM job_postings
		WHERE status = 'active'
		GROUP BY category
	`)
}

func (r *sqlJobRepository) countGrouped(query string) (map[string]int, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)

	for rows.Next() {
		var key string

		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}

		counts[key] = count
	}

	return counts, rows.Err()
}

func (r *sqlJobRepository) ActiveCountByH3(res int) (map[int64]int, error) {
	if res < 4 || res > 8 {
		return nil, fmt.Errorf("h3 resolution must be between 4 and 8, got %d", res)
	}

	query := fmt.Sprintf(`
		SELECT h3_res%d, COUNT(*)
		FROM job_postings
		WHERE status = 'active'
		GROUP BY h3_res%d
	`, res, res)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int)

	for rows.Next() {
		var cell sql.NullInt64

		var count int
		if err := rows.Scan(&cell, &count); err != nil {
			return nil, err
		}

		if cell.Valid {
			counts[cell.Int64] = count
		}
	}

	return counts, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

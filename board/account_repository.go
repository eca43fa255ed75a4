// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nearwork/nearwork/spatial"
)

// ErrDuplicateEmail is returned when registering an email already in use.
var ErrDuplicateEmail = errors.New("board: email already registered")

// AccountRepository handles persistence of employer and seeker accounts.
type AccountRepository interface {
	// CreateSchema creates the accounts table
	CreateSchema() error

	// CreateAccount inserts an account and returns its id
	CreateAccount(a *Account) (int, error)

	// GetAccount returns an account by id
	GetAccount(id int) (*Account, error)

	// GetByEmail returns an account by email
	GetByEmail(email string) (*Account, error)
}

type sqlAccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a DuckDB-backed account repository.
func NewAccountRepository(db *sql.DB) AccountRepository {
	return &sqlAccountRepository{db: db}
}

func (r *sqlAccountRepository) CreateSchema() error {
	_, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS accounts_seq START 1;

		CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY DEFAULT nextval('accounts_seq'),
			email VARCHAR NOT NULL UNIQUE,
			role VARCHAR NOT NULL,
			full_name VARCHAR NOT NULL,
			phone VARCHAR,
			address VARCHAR,
			city VARCHAR,
			zip_code VARCHAR,
			point POINT_2D,
			company_name VARCHAR,
			company_description TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)

	return err
}

func (r *sqlAccountRepository) CreateAccount(a *Account) (int, error) {
	a.CreatedAt = time.Now()

	var lng, lat any
	if a.Point != nil {
		lng, lat = a.Point.Lng, a.Point.Lat
	}

	row := r.db.QueryRow(`
		INSERT INTO accounts(
			email, role, full_name, phone, address, city, zip_code,
			point, company_name, company_description, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ST_Point(?, ?), ?, ?, ?)
		RETURNING id
	`,
		strings.ToLower(strings.TrimSpace(a.Email)),
		string(a.Role),
		a.FullName,
		nullIfEmpty(a.Phone),
		nullIfEmpty(a.Address),
		nullIfEmpty(a.City),
		nullIfEmpty(a.ZipCode),
		lng,
		lat,
		nullIfEmpty(a.CompanyName),
		nullIfEmpty(a.CompanyDescription),
		a.CreatedAt,
	)

	if err := row.Scan(&a.ID); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") ||
			strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			return 0, ErrDuplicateEmail
		}

		return 0, fmt.Errorf("inserting account: %w", err)
	}

	return a.ID, nil
}

var baseAccountSelect = `
	SELECT id, email, role, full_name, phone, address, city, zip_code,
	       point, company_name, company_description, created_at
	FROM accounts
`

func (r *sqlAccountRepository) scanAccount(scan func(dest ...any) error) (*Account, error) {
	a := &Account{}

	var (
		role    string
		phone   sql.NullString
		address sql.NullString
		city    sql.NullString
		zipCode sql.NullString
		point   spatial.Point
		company sql.NullString
		descr   sql.NullString
	)

	err := scan(
		&a.ID,
		&a.Email,
		&role,
		&a.FullName,
		&phone,
		&address,
		&city,
		&zipCode,
		&point,
		&company,
		&descr,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Role = Role(role)
	a.Phone = phone.String
	a.Address = address.String
	a.City = city.String
	a.ZipCode = zipCode.String
	a.CompanyName = company.String
	a.CompanyDescription = descr.String

	// ST_Point(NULL, NULL) stores a point at the origin for accounts that
	// registered without an address; treat it as no coordinate.
	if point.Lat != 0 || point.Lng != 0 {
		a.Point = &point
	}

	return a, nil
}

func (r *sqlAccountRepository) GetAccount(id int) (*Account, error) {
	row := r.db.QueryRow(baseAccountSelect+" WHERE id = ?", id)

	a, err := r.scanAccount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	return a, err
}

func (r *sqlAccountRepository) GetByEmail(email string) (*Account, error) {
	row := r.db.QueryRow(baseAccountSelect+" WHERE email = ?", strings.ToLower(strings.TrimSpace(email)))

	a, err := r.scanAccount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	return a, err
}

// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"fmt"
	"time"

	"github.com/nearwork/nearwork/spatial"
	"github.com/uber/h3-go/v4"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleEmployer  Role = "employer"
	RoleJobSeeker Role = "job_seeker"
)

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	return r == RoleEmployer || r == RoleJobSeeker
}

// Account represents an employer or a job seeker.
type Account struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`

	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`

	Point *spatial.Point `json:"point,omitempty"`

	// Employer-only fields
	CompanyName        string `json:"company_name,omitempty"`
	CompanyDescription string `json:"company_description,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Status is the job posting lifecycle state. It is a flat enum: the owning
// employer may set any status from any status.
type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusArchived Status = "archived"
)

// Valid reports whether the status is one of the known variants.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusPaused || s == StatusArchived
}

// JobPosting is a geocoded job advertisement.
type JobPosting struct {
	ID         int `json:"id"`
	EmployerID int `json:"employer_id"`

	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	EmploymentType string  `json:"employment_type,omitempty"`
	SalaryMin      float64 `json:"salary_min,omitempty"`
	SalaryMax      float64 `json:"salary_max,omitempty"`

	StreetAddress string        `json:"street_address"`
	City          string        `json:"city"`
	ZipCode       string        `json:"zip_code,omitempty"`
	Point         spatial.Point `json:"point"`

	Status Status `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	H3Res4 int64 `json:"-"`
	H3Res5 int64 `json:"-"`
	H3Res6 int64 `json:"-"`
	H3Res7 int64 `json:"-"`
	H3Res8 int64 `json:"-"`
}

// computeH3 derives the H3 cells for the posting coordinate at resolutions
// 4 through 8. Cells are persisted alongside the point for density queries.
func (p *JobPosting) computeH3() error {
	latLng := h3.NewLatLng(p.Point.Lat, p.Point.Lng)
	for res := 4; res <= 8; res++ {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
		}

		switch res {
		case 4:
			p.H3Res4 = int64(cell)
		case 5:
			p.H3Res5 = int64(cell)
		case 6:
			p.H3Res6 = int64(cell)
		case 7:
			p.H3Res7 = int64(cell)
		case 8:
			p.H3Res8 = int64(cell)
		}
	}

	return nil
}

// Application is a seeker's application to a posting.
type Application struct {
	ID          int    `json:"id"`
	JobID       int    `json:"job_id"`
	ApplicantID int    `json:"applicant_id"`
	ResumeID    *int   `json:"resume_id,omitempty"`
	CoverLetter string `json:"cover_letter,omitempty"`
	Status      string `json:"status"`

	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Resume is the stored metadata for an uploaded resume file.
type Resume struct {
	ID               int       `json:"id"`
	AccountID        int       `json:"account_id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// SavedJob links a seeker to a posting they bookmarked.
type SavedJob struct {
	ID        int       `json:"id"`
	AccountID int       `json:"account_id"`
	JobID     int       `json:"job_id"`
	SavedAt   time.Time `json:"saved_at"`
}

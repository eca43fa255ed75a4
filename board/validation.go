// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"errors"
	"fmt"
	"strings"
)

// validCategories are the posting categories the board accepts.
var validCategories = map[string]bool{
	"construction":   true,
	"delivery":       true,
	"domestic":       true,
	"driver":         true,
	"hospitality":    true,
	"office":         true,
	"retail":         true,
	"security":       true,
	"skilled_trades": true,
	"other":          true,
}

// validEmploymentTypes are the accepted employment arrangements.
var validEmploymentTypes = map[string]bool{
	"full_time": true,
	"part_time": true,
	"contract":  true,
	"temporary": true,
}

// validatePosting checks that a posting carries acceptable data before it is
// geocoded or persisted. Service-area membership is checked separately.
func validatePosting(p *JobPosting) error {
	if p == nil {
		return errors.New("posting can't be nil")
	}

	if strings.TrimSpace(p.Title) == "" {
		return errors.New("title can't be empty")
	}

	if len(p.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}

	if strings.TrimSpace(p.Description) == "" {
		return errors.New("description can't be empty")
	}

	if len(p.Description) > 10000 {
		return errors.New("description too long (max 10000 characters)")
	}

	if !validCategories[p.Category] {
		return fmt.Errorf("invalid category: %s", p.Category)
	}

	if p.EmploymentType != "" && !validEmploymentTypes[p.EmploymentType] {
		return fmt.Errorf("invalid employment type: %s", p.EmploymentType)
	}

	if p.SalaryMin < 0 || p.SalaryMax < 0 {
		return errors.New("salary can't be negative")
	}

	if p.SalaryMax > 0 && p.SalaryMin > p.SalaryMax {
		return errors.New("salary_min can't exceed salary_max")
	}

	if strings.TrimSpace(p.StreetAddress) == "" {
		return errors.New("street address can't be empty")
	}

	if strings.TrimSpace(p.City) == "" {
		return errors.New("city can't be empty")
	}

	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("invalid status: %s", p.Status)
	}

	if err := p.Point.Validate(); err != nil {
		return err
	}

	return nil
}

// validateAccount checks registration data.
func validateAccount(a *Account) error {
	if a == nil {
		return errors.New("account can't be nil")
	}

	email := strings.TrimSpace(a.Email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email: %q", a.Email)
	}

	if !a.Role.Valid() {
		return fmt.Errorf("invalid role: %s", a.Role)
	}

	if strings.TrimSpace(a.FullName) == "" {
		return errors.New("full name can't be empty")
	}

	if a.Role == RoleEmployer && strings.TrimSpace(a.CompanyName) == "" {
		return errors.New("employers must provide a company name")
	}

	if a.Point != nil {
		if err := a.Point.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// sanitizeAddress trims and bounds a free-text address before geocoding.
func sanitizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)

	if len(addr) > 500 {
		addr = addr[:500]
	}

	return addr
}

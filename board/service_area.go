// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"github.com/nearwork/nearwork/spatial"
)

// ServiceArea is the geographic disk (center + radius) within which job
// postings and account addresses are permitted.
type ServiceArea struct {
	Center   spatial.Point
	RadiusKm float64
}

// NewServiceArea builds a validator from explicit configuration.
func NewServiceArea(center spatial.Point, radiusKm float64) *ServiceArea {
	return &ServiceArea{Center: center, RadiusKm: radiusKm}
}

// Validate accepts the point iff its distance to the center is within the
// radius. Rejections come back as a *ValidationError so that callers refuse
// to persist the coordinate.
func (a *ServiceArea) Validate(p spatial.Point) error {
	d, err := a.Center.DistanceKm(p)
	if err != nil {
		return err
	}

	if d > a.RadiusKm {
		return &ValidationError{
			Point:      p.String(),
			DistanceKm: d,
			RadiusKm:   a.RadiusKm,
		}
	}

	return nil
}

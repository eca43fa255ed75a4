// Copyright 2025 The Nearwork Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// ErrInvalidCoordinate reports a latitude or longitude outside the valid range.
var ErrInvalidCoordinate = errors.New("spatial: invalid coordinate")

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks that the point lies within the valid latitude/longitude range.
func (p Point) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90 (got %f)", ErrInvalidCoordinate, p.Lat)
	}

	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180 (got %f)", ErrInvalidCoordinate, p.Lng)
	}

	return nil
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Value implements the driver.Valuer interface for database serialization.
func (p Point) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (p *Point) Scan(value interface{}) error {
	if value == nil {
		p.Lat, p.Lng = 0, 0

		return nil
	}

	switch v := value.(type) {
	case []byte:
		// The format from DuckDB is "POINT (lng lat)"
		_, err := fmt.Sscanf(string(v), "POINT (%f %f)", &p.Lng, &p.Lat)

		return err
	case map[string]interface{}:
		x, okX := v["x"].(float64)
		y, okY := v["y"].(float64)

		if !okX || !okY {
			return fmt.Errorf("spatial: invalid map for point: expected 'x' and 'y' float64 fields, got %+v", v)
		}

		p.Lng = x
		p.Lat = y

		return nil
	default:
		return fmt.Errorf("spatial: unsupported type for Point scan: %T", value)
	}
}

// DistanceKm calculates the great-circle distance between two points in
// kilometers using the haversine formula. Both points must hold valid
// coordinates; out-of-range values return ErrInvalidCoordinate rather than a
// silently wrong distance.
func (p Point) DistanceKm(other Point) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	if err := other.Validate(); err != nil {
		return 0, err
	}

	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

package xv11

import "fmt"

// AnomalyType represents different types of packet anomalies
type AnomalyType int

const (
	AnomalySpeedRange AnomalyType = iota
	AnomalyZeroQuality
	AnomalyLongRange
)

// Plausibility bounds for a healthy sensor. The XV-11 spins at roughly
// 300 RPM in steady state and is rated to about 5 m.
const (
	MinPlausibleRPM    = 60.0
	MaxPlausibleRPM    = 600.0
	MaxPlausibleRangeM = 6000 // millimeters
)

// ValidationError represents a packet validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidatePacket checks a decoded packet for anomalous values. The packet
// already passed its checksum; these are sanity checks on the physics, not
// integrity checks. Returns a slice of validation errors (empty if the
// packet is plausible).
func ValidatePacket(p *Packet) []ValidationError {
	errors := []ValidationError{}

	if p.Speed() < MinPlausibleRPM || p.Speed() > MaxPlausibleRPM {
		errors = append(errors, ValidationError{
			Type:    AnomalySpeedRange,
			Message: fmt.Sprintf("Spin speed out of range (%.2f RPM, plausible: %.0f-%.0f)", p.Speed(), MinPlausibleRPM, MaxPlausibleRPM),
			Details: map[string]interface{}{"speed": p.Speed(), "min": MinPlausibleRPM, "max": MaxPlausibleRPM},
		})
	}

	for _, r := range p.Readings() {
		if r.Error != nil {
			// Flagged readings carry their own diagnosis.
			continue
		}

		if r.Quality == 0 {
			errors = append(errors, ValidationError{
				Type:    AnomalyZeroQuality,
				Message: fmt.Sprintf("Clean reading at index %d has zero quality", r.Index),
				Details: map[string]interface{}{"index": r.Index, "distance": r.Distance},
			})
		}

		if r.Distance > MaxPlausibleRangeM {
			errors = append(errors, ValidationError{
				Type:    AnomalyLongRange,
				Message: fmt.Sprintf("Distance beyond sensor range at index %d (%d mm, max %d)", r.Index, r.Distance, MaxPlausibleRangeM),
				Details: map[string]interface{}{"index": r.Index, "distance": r.Distance, "max": MaxPlausibleRangeM},
			})
		}
	}

	return errors
}

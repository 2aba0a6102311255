// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSample wraps every rejection reason below.
	ErrInvalidSample = errors.New("gps: invalid sample")

	ErrZeroLatitude    = errors.New("latitude is 0")
	ErrZeroLongitude   = errors.New("longitude is 0")
	ErrUnknownAltitude = errors.New("altitude unknown")
)

// Validate rejects samples that carry "no reading" values: latitude or
// longitude exactly 0, or an unknown altitude.
//
// A real fix on the equator or the prime meridian is rejected too. That
// matches the logs this system has always produced and is kept on purpose.
func Validate(s Sample) error {
	var reason error
	switch {
	case s.Latitude == 0:
		reason = ErrZeroLatitude
	case s.Longitude == 0:
		reason = ErrZeroLongitude
	case s.Altitude == nil || *s.Altitude == AltitudeUnknown:
		reason = ErrUnknownAltitude
	default:
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSample, reason)
}

// Valid is Validate as a predicate.
func Valid(s Sample) bool {
	return Validate(s) == nil
}

// Filter returns the samples that pass Validate, in order.
func Filter(in []Sample) []Sample {
	out := make([]Sample, 0, len(in))
	for _, s := range in {
		if Valid(s) {
			out = append(out, s)
		}
	}
	return out
}

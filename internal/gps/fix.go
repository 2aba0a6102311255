// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import "time"

// Sentinels used by the persisted record schema for fields the receiver
// did not report. Inside the pipeline those fields are nil pointers.
const (
	AltitudeUnknown   = -999.0
	SatellitesUnknown = 0
	HDOPUnknown       = 99.9
	SpeedUnknown      = 0.0
	CourseUnknown     = -1.0
)

// KnotsToKmh is the exact knot to km/h conversion factor.
const KnotsToKmh = 1.852

// Validity is the RMC status flag.
type Validity string

const (
	Active Validity = "A"
	Void   Validity = "V"
)

// PositionFix is what a GGA sentence tells us.
type PositionFix struct {
	Latitude   float64  // decimal degrees, signed
	Longitude  float64  // decimal degrees, signed
	Altitude   *float64 // meters MSL, nil if not reported
	Satellites *int     // satellites in use, nil if not reported
	HDOP       *float64 // nil if not reported
	FixQuality int      // 0 = invalid
}

// VelocityFix is what an RMC sentence tells us.
type VelocityFix struct {
	SpeedKnots *float64 // speed over ground, nil if not reported
	Course     *float64 // true course in degrees, nil if not reported
	Validity   Validity
}

// Sample is one fused telemetry point. Samples are values: once built
// they are never modified.
type Sample struct {
	Timestamp  time.Time `json:"timestamp"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Altitude   *float64  `json:"altitude"`
	SpeedKnots *float64  `json:"speed_knots"`
	SpeedKmh   float64   `json:"speed_kmh"`
	Course     *float64  `json:"course"`
	Satellites *int      `json:"satellites"`
	HDOP       *float64  `json:"hdop"`
	FixQuality int       `json:"fix_quality"`
}

// NewSample combines a position and a velocity reading captured at ts.
func NewSample(ts time.Time, pos PositionFix, vel VelocityFix) Sample {
	s := Sample{
		Timestamp:  ts,
		Latitude:   pos.Latitude,
		Longitude:  pos.Longitude,
		Altitude:   copyFloat(pos.Altitude),
		SpeedKnots: copyFloat(vel.SpeedKnots),
		Course:     copyFloat(vel.Course),
		Satellites: copyInt(pos.Satellites),
		HDOP:       copyFloat(pos.HDOP),
		FixQuality: pos.FixQuality,
	}
	if s.SpeedKnots != nil {
		s.SpeedKmh = *s.SpeedKnots * KnotsToKmh
	}
	return s
}

// AltitudeOr returns the altitude or def when it is unknown.
func (s Sample) AltitudeOr(def float64) float64 {
	if s.Altitude == nil {
		return def
	}
	return *s.Altitude
}

// Float and Int return pointers to v. They keep literal construction of
// optional fields short.
func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

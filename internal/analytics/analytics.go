// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package analytics derives trip metrics from a track snapshot.
package analytics

import (
	"math"
	"time"

	"github.com/relabs-tech/gps_logger/internal/gps"
	"github.com/relabs-tech/gps_logger/internal/track"
)

// EarthRadiusM is the mean Earth radius used by Haversine.
const EarthRadiusM = 6371000.0

// TripAnalytics summarises a track. nil fields mean "no data"; DistanceM
// is always meaningful (0 for fewer than two points).
type TripAnalytics struct {
	DistanceM    float64       `json:"distance_m"`
	AvgSpeedKmh  *float64      `json:"avg_speed_kmh"`
	MinSpeedKmh  *float64      `json:"min_speed_kmh"`
	MaxSpeedKmh  *float64      `json:"max_speed_kmh"`
	MinAltitudeM *float64      `json:"min_altitude_m"`
	MaxAltitudeM *float64      `json:"max_altitude_m"`
	PointCount   int           `json:"point_count"`
	Current      *gps.Sample   `json:"current"`
	First        *gps.Sample   `json:"first"`
	Duration     time.Duration `json:"duration_ns"`
}

// Empty reports whether the analytics were computed over no samples.
func (a TripAnalytics) Empty() bool {
	return a.PointCount == 0
}

// Haversine returns the great-circle distance in meters between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dlat := lat2Rad - lat1Rad
	dlon := lon2Rad - lon1Rad

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// Distance sums the segment lengths between consecutive samples.
func Distance(snap track.Snapshot) float64 {
	total := 0.0
	for i := 1; i < snap.Len(); i++ {
		total += segment(snap.At(i-1), snap.At(i))
	}
	return total
}

func segment(a, b gps.Sample) float64 {
	return Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// Compute recomputes every metric over snap.
func Compute(snap track.Snapshot) TripAnalytics {
	var acc Accumulator
	for i := 0; i < snap.Len(); i++ {
		acc.Add(snap.At(i))
	}
	return acc.Result()
}

// Accumulator keeps running sums so a live view can update its metrics
// per sample instead of rescanning the track. Feeding it the samples of a
// snapshot in order gives the same result as Compute.
type Accumulator struct {
	count    int
	distance float64
	speedSum float64
	minSpeed float64
	maxSpeed float64

	haveAlt bool
	minAlt  float64
	maxAlt  float64

	first gps.Sample
	last  gps.Sample
}

// Add folds the next sample in track order.
func (a *Accumulator) Add(s gps.Sample) {
	if a.count == 0 {
		a.first = s
		a.minSpeed = s.SpeedKmh
		a.maxSpeed = s.SpeedKmh
	} else {
		a.distance += segment(a.last, s)
		a.minSpeed = math.Min(a.minSpeed, s.SpeedKmh)
		a.maxSpeed = math.Max(a.maxSpeed, s.SpeedKmh)
	}
	a.speedSum += s.SpeedKmh

	if s.Altitude != nil {
		alt := *s.Altitude
		if !a.haveAlt {
			a.minAlt, a.maxAlt = alt, alt
			a.haveAlt = true
		} else {
			a.minAlt = math.Min(a.minAlt, alt)
			a.maxAlt = math.Max(a.maxAlt, alt)
		}
	}

	a.last = s
	a.count++
}

// Result returns the metrics for everything added so far.
func (a *Accumulator) Result() TripAnalytics {
	out := TripAnalytics{
		DistanceM:  a.distance,
		PointCount: a.count,
	}
	if a.count == 0 {
		return out
	}

	out.AvgSpeedKmh = gps.Float(a.speedSum / float64(a.count))
	out.MinSpeedKmh = gps.Float(a.minSpeed)
	out.MaxSpeedKmh = gps.Float(a.maxSpeed)
	if a.haveAlt {
		out.MinAltitudeM = gps.Float(a.minAlt)
		out.MaxAltitudeM = gps.Float(a.maxAlt)
	}

	first, last := a.first, a.last
	out.First = &first
	out.Current = &last
	out.Duration = last.Timestamp.Sub(first.Timestamp)
	return out
}

// Reset clears the accumulator.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}

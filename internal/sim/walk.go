// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sim

import (
	"math"
	"math/rand"
	"time"
)

// kmPerDegreeLat is the rough conversion the walk moves by.
const kmPerDegreeLat = 111.0

// Point is one simulated receiver state.
type Point struct {
	Time       time.Time
	Latitude   float64
	Longitude  float64
	Altitude   float64
	SpeedKmh   float64
	Course     float64
	Satellites int
	HDOP       float64
}

// SpeedKnots converts SpeedKmh for the RMC sentence.
func (p Point) SpeedKnots() float64 {
	return p.SpeedKmh / 1.852
}

// Walker produces a random walk. Same scenario and seed, same walk.
type Walker struct {
	sc  Scenario
	rng *rand.Rand

	lat, lon, alt float64
	course, speed float64

	n        int
	nextTurn int
}

func NewWalker(sc Scenario) *Walker {
	rng := rand.New(rand.NewSource(sc.Seed))
	w := &Walker{
		sc:     sc,
		rng:    rng,
		lat:    sc.Start.Latitude,
		lon:    sc.Start.Longitude,
		alt:    sc.Start.Altitude,
		course: rng.Float64() * 360,
		speed:  sc.SpeedKmh.clamp(sc.InitialSpeedKmh),
	}
	w.nextTurn = w.turnGap()
	return w
}

// major turns come every 15 to 30 steps
func (w *Walker) turnGap() int {
	return 15 + w.rng.Intn(16)
}

func (w *Walker) uniform(lo, hi float64) float64 {
	return lo + w.rng.Float64()*(hi-lo)
}

// Next advances one interval and returns the state stamped t.
func (w *Walker) Next(t time.Time) Point {
	switch {
	case w.n > 0 && w.n == w.nextTurn:
		w.course = w.uniform(0, 360)
		w.nextTurn = w.n + w.turnGap()
	case w.rng.Float64() < 0.15:
		w.course = math.Mod(w.course+w.uniform(-45, 45)+360, 360)
	default:
		w.course = math.Mod(w.course+w.uniform(-10, 10)+360, 360)
	}
	w.n++

	w.speed = w.sc.SpeedKmh.clamp(w.speed + w.uniform(-20, 20))

	deg := w.speed / 3600 / kmPerDegreeLat * w.sc.Interval.Seconds()
	rad := w.course * math.Pi / 180
	w.lat += deg * math.Cos(rad)
	w.lon += deg * math.Sin(rad) / math.Cos(w.lat*math.Pi/180)

	w.alt = w.sc.AltitudeM.clamp(w.alt + w.uniform(-2, 2))

	p := Point{
		Time:      t,
		Latitude:  w.lat,
		Longitude: w.lon,
		Altitude:  w.alt,
		SpeedKmh:  w.speed,
		Course:    w.course,
	}
	if w.rng.Float64() < w.sc.DegradedChance {
		p.Satellites = 6 + w.rng.Intn(3)
	} else {
		p.Satellites = 10 + w.rng.Intn(3)
	}
	if p.Satellites < 8 {
		p.HDOP = w.uniform(2.0, 3.5)
	} else {
		p.HDOP = w.uniform(0.8, 1.5)
	}
	return p
}

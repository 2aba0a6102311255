// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sim generates a plausible GPS receiver stream: a random walk
// encoded as GGA and RMC sentences.
package sim

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Range is an inclusive [Min, Max] bound.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (r Range) clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Start is where the walk begins.
type Start struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Altitude  float64 `yaml:"altitude"`
}

// Scenario tunes the walk. Fields missing from a YAML file keep their
// DefaultScenario value.
//
//	seed: 42
//	interval: 1s
//	talker: GP
//	start:
//	  latitude: 43.0731
//	  longitude: -89.4012
//	  altitude: 260
//	initial_speed_kmh: 40
//	speed_kmh: {min: 5, max: 100}
//	altitude_m: {min: 250, max: 300}
//	degraded_chance: 0.05
type Scenario struct {
	Seed            int64         `yaml:"seed"`
	Interval        time.Duration `yaml:"interval"`
	Talker          string        `yaml:"talker"`
	Start           Start         `yaml:"start"`
	InitialSpeedKmh float64       `yaml:"initial_speed_kmh"`
	SpeedKmh        Range         `yaml:"speed_kmh"`
	AltitudeM       Range         `yaml:"altitude_m"`
	DegradedChance  float64       `yaml:"degraded_chance"`
}

// DefaultScenario drives around Madison, WI once per second.
func DefaultScenario() Scenario {
	return Scenario{
		Seed:            time.Now().UnixNano(),
		Interval:        time.Second,
		Talker:          "GP",
		Start:           Start{Latitude: 43.0731, Longitude: -89.4012, Altitude: 260},
		InitialSpeedKmh: 40,
		SpeedKmh:        Range{Min: 5, Max: 100},
		AltitudeM:       Range{Min: 250, Max: 300},
		DegradedChance:  0.05,
	}
}

// LoadScenario reads a YAML scenario from path.
func LoadScenario(path string) (Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(b)
}

// ParseScenario overlays YAML onto DefaultScenario and validates it.
func ParseScenario(b []byte) (Scenario, error) {
	sc := DefaultScenario()
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

func (sc Scenario) Validate() error {
	if sc.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", sc.Interval)
	}
	if len(sc.Talker) != 2 {
		return fmt.Errorf("talker must be two characters, got %q", sc.Talker)
	}
	if sc.Start.Latitude < -90 || sc.Start.Latitude > 90 {
		return fmt.Errorf("start.latitude out of range: %v", sc.Start.Latitude)
	}
	if sc.Start.Longitude < -180 || sc.Start.Longitude > 180 {
		return fmt.Errorf("start.longitude out of range: %v", sc.Start.Longitude)
	}
	if sc.SpeedKmh.Min < 0 || sc.SpeedKmh.Min > sc.SpeedKmh.Max {
		return fmt.Errorf("speed_kmh range invalid: %+v", sc.SpeedKmh)
	}
	if sc.AltitudeM.Min > sc.AltitudeM.Max {
		return fmt.Errorf("altitude_m range invalid: %+v", sc.AltitudeM)
	}
	if sc.DegradedChance < 0 || sc.DegradedChance > 1 {
		return fmt.Errorf("degraded_chance must be 0-1, got %v", sc.DegradedChance)
	}
	return nil
}

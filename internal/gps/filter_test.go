// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	good := NewSample(fusionNow, madisonFix(), activeVelocity(10, 10))

	withLat := func(v float64) Sample { s := good; s.Latitude = v; return s }
	withLon := func(v float64) Sample { s := good; s.Longitude = v; return s }
	withAlt := func(v *float64) Sample { s := good; s.Altitude = v; return s }

	tests := []struct {
		name   string
		sample Sample
		reason error
	}{
		{"good", good, nil},
		{"zero latitude", withLat(0), ErrZeroLatitude},
		{"zero longitude", withLon(0), ErrZeroLongitude},
		{"zero lat and lon", func() Sample { s := withLat(0); s.Longitude = 0; return s }(), ErrZeroLatitude},
		{"altitude missing", withAlt(nil), ErrUnknownAltitude},
		{"altitude sentinel", withAlt(Float(AltitudeUnknown)), ErrUnknownAltitude},
		{"sea level is fine", withAlt(Float(0)), nil},
		{"negative altitude is fine", withAlt(Float(-12.5)), nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.sample)
			if tc.reason == nil {
				assert.NoError(t, err)
				assert.True(t, Valid(tc.sample))
				return
			}
			assert.ErrorIs(t, err, ErrInvalidSample)
			assert.ErrorIs(t, err, tc.reason)
			assert.False(t, Valid(tc.sample))
		})
	}
}

func TestFilter_KeepsOrder(t *testing.T) {
	a := NewSample(fusionNow, madisonFix(), activeVelocity(1, 0))
	b := a
	b.Latitude = 0
	c := a
	c.Latitude = 43.0741

	out := Filter([]Sample{a, b, c})
	assert.Equal(t, []Sample{a, c}, out)
}

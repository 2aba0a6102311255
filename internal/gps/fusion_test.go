// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fusionNow = time.Date(2026, 10, 19, 12, 35, 19, 0, time.UTC)

func madisonFix() PositionFix {
	return PositionFix{
		Latitude:   43.0731,
		Longitude:  -89.4012,
		Altitude:   Float(260.0),
		Satellites: Int(10),
		HDOP:       Float(1.0),
		FixQuality: 1,
	}
}

func activeVelocity(knots, course float64) VelocityFix {
	return VelocityFix{SpeedKnots: Float(knots), Course: Float(course), Validity: Active}
}

func TestFusion_PositionThenActiveVelocityEmitsOneSample(t *testing.T) {
	var f Fusion

	_, emitted := f.Apply(fusionNow, PositionSentence{Fix: madisonFix()})
	assert.False(t, emitted)
	assert.Equal(t, EventPositionStored, f.LastEvent())

	s, emitted := f.Apply(fusionNow, VelocitySentence{Fix: activeVelocity(21.6, 90.0)})
	require.True(t, emitted)
	assert.Equal(t, EventSampleEmitted, f.LastEvent())

	assert.Equal(t, fusionNow, s.Timestamp)
	assert.Equal(t, 43.0731, s.Latitude)
	assert.Equal(t, -89.4012, s.Longitude)
	assert.Equal(t, 260.0, *s.Altitude)
	assert.Equal(t, 10, *s.Satellites)
	assert.Equal(t, 1.0, *s.HDOP)
	assert.Equal(t, 1, s.FixQuality)
	assert.Equal(t, 21.6, *s.SpeedKnots)
	assert.Equal(t, 90.0, *s.Course)
	assert.InDelta(t, 21.6*1.852, s.SpeedKmh, 1e-9)
	assert.InDelta(t, 40.0, s.SpeedKmh, 0.01)
}

func TestFusion_SpeedKmhIsExactConversion(t *testing.T) {
	var f Fusion
	f.Apply(fusionNow, PositionSentence{Fix: madisonFix()})

	for _, knots := range []float64{0, 0.1, 1, 5.5, 21.6, 53.9957, 120.25} {
		s, ok := f.Apply(fusionNow, VelocitySentence{Fix: activeVelocity(knots, 0)})
		require.True(t, ok)
		assert.InDelta(t, knots*KnotsToKmh, s.SpeedKmh, 1e-9, "knots=%v", knots)
	}
}

func TestFusion_VoidVelocityNeverEmits(t *testing.T) {
	var f Fusion
	void := VelocityFix{SpeedKnots: Float(10), Course: Float(45), Validity: Void}

	_, ok := f.Apply(fusionNow, VelocitySentence{Fix: void})
	assert.False(t, ok)
	assert.Equal(t, EventVelocityVoid, f.LastEvent())

	f.Apply(fusionNow, PositionSentence{Fix: madisonFix()})
	_, ok = f.Apply(fusionNow, VelocitySentence{Fix: void})
	assert.False(t, ok)
	assert.Equal(t, EventVelocityVoid, f.LastEvent())
}

func TestFusion_VelocityBeforePositionNeverEmits(t *testing.T) {
	var f Fusion
	_, ok := f.Apply(fusionNow, VelocitySentence{Fix: activeVelocity(21.6, 90)})
	assert.False(t, ok)
	assert.Equal(t, EventVelocityStale, f.LastEvent())

	_, have := f.Latest()
	assert.False(t, have)
}

func TestFusion_NoFixPositionDoesNotReplaceStored(t *testing.T) {
	var f Fusion
	f.Apply(fusionNow, PositionSentence{Fix: madisonFix()})

	noFix := PositionFix{Latitude: 1, Longitude: 2, FixQuality: 0}
	_, ok := f.Apply(fusionNow, PositionSentence{Fix: noFix})
	assert.False(t, ok)
	assert.Equal(t, EventPositionNoFix, f.LastEvent())

	s, ok := f.Apply(fusionNow, VelocitySentence{Fix: activeVelocity(1, 1)})
	require.True(t, ok)
	assert.Equal(t, 43.0731, s.Latitude)
}

func TestFusion_NoFixPositionAloneIsNotEnough(t *testing.T) {
	var f Fusion
	f.Apply(fusionNow, PositionSentence{Fix: PositionFix{Latitude: 1, Longitude: 2, FixQuality: 0}})
	_, ok := f.Apply(fusionNow, VelocitySentence{Fix: activeVelocity(1, 1)})
	assert.False(t, ok)
}

func TestFusion_LatestPositionWins(t *testing.T) {
	var f Fusion
	f.Apply(fusionNow, PositionSentence{Fix: madisonFix()})

	next := madisonFix()
	next.Latitude = 43.0741
	f.Apply(fusionNow, PositionSentence{Fix: next})

	s, ok := f.Apply(fusionNow, VelocitySentence{Fix: activeVelocity(1, 1)})
	require.True(t, ok)
	assert.Equal(t, 43.0741, s.Latitude)
}

func TestFusion_StoredPositionIsReusedByEveryVelocity(t *testing.T) {
	var f Fusion
	f.Apply(fusionNow, PositionSentence{Fix: madisonFix()})

	for i := 0; i < 3; i++ {
		_, ok := f.Apply(fusionNow.Add(time.Duration(i)*time.Second), VelocitySentence{Fix: activeVelocity(1, 1)})
		assert.True(t, ok)
	}
}

func TestFusion_OtherSentenceIgnored(t *testing.T) {
	var f Fusion
	f.Apply(fusionNow, PositionSentence{Fix: madisonFix()})
	_, ok := f.Apply(fusionNow, OtherSentence{Type: "GSV"})
	assert.False(t, ok)
	assert.Equal(t, EventIgnored, f.LastEvent())

	_, have := f.Latest()
	assert.True(t, have)
}

func TestFusion_SampleDoesNotAliasState(t *testing.T) {
	var f Fusion
	fix := madisonFix()
	f.Apply(fusionNow, PositionSentence{Fix: fix})
	s, ok := f.Apply(fusionNow, VelocitySentence{Fix: activeVelocity(1, 1)})
	require.True(t, ok)

	*fix.Altitude = 9999
	assert.Equal(t, 260.0, *s.Altitude)
}

func TestFusion_Reset(t *testing.T) {
	var f Fusion
	f.Apply(fusionNow, PositionSentence{Fix: madisonFix()})
	f.Reset()

	_, ok := f.Apply(fusionNow, VelocitySentence{Fix: activeVelocity(1, 1)})
	assert.False(t, ok)
}

func TestFusion_DecodedStream(t *testing.T) {
	var f Fusion
	var samples []Sample

	lines := []string{
		nmeaLine(madisonRMC), // before any position
		nmeaLine(madisonGGA),
		"$GPGSV,3,1,11,03,03,111,00,04,15,270,00,06,01,010,00,13,06,292,00*74",
		nmeaLine(madisonVoid),
		nmeaLine(madisonRMC),
	}
	for _, line := range lines {
		sent, err := Decode(line)
		require.NoError(t, err)
		if s, ok := f.Apply(fusionNow, sent); ok {
			samples = append(samples, s)
		}
	}

	require.Len(t, samples, 1)
	assert.InDelta(t, 40.0, samples[0].SpeedKmh, 0.01)
}

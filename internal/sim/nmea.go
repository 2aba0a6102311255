// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sim

import (
	"fmt"
	"math"
)

// Sentence wraps payload as "$payload*CS" with its XOR checksum.
func Sentence(payload string) string {
	var ck byte
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X", payload, ck)
}

// EncodeGGA renders p as a GGA sentence with fix quality 1.
func EncodeGGA(talker string, p Point) string {
	lat, ns := latitude(p.Latitude)
	lon, ew := longitude(p.Longitude)
	return Sentence(fmt.Sprintf("%sGGA,%s,%s,%s,%s,%s,1,%02d,%.1f,%.1f,M,0.0,M,,",
		talker, p.Time.UTC().Format("150405.00"), lat, ns, lon, ew,
		p.Satellites, p.HDOP, p.Altitude))
}

// EncodeRMC renders p as an active RMC sentence.
func EncodeRMC(talker string, p Point) string {
	lat, ns := latitude(p.Latitude)
	lon, ew := longitude(p.Longitude)
	utc := p.Time.UTC()
	return Sentence(fmt.Sprintf("%sRMC,%s,A,%s,%s,%s,%s,%.2f,%.1f,%s,0.0,E",
		talker, utc.Format("150405.00"), lat, ns, lon, ew,
		p.SpeedKnots(), p.Course, utc.Format("020106")))
}

func latitude(v float64) (string, string) {
	hemi := "N"
	if v < 0 {
		hemi = "S"
	}
	d, m := degMin(math.Abs(v))
	return fmt.Sprintf("%02d%07.4f", d, m), hemi
}

func longitude(v float64) (string, string) {
	hemi := "E"
	if v < 0 {
		hemi = "W"
	}
	d, m := degMin(math.Abs(v))
	return fmt.Sprintf("%03d%07.4f", d, m), hemi
}

// degMin splits decimal degrees into whole degrees and minutes rounded to
// the 4 decimals written on the wire.
func degMin(v float64) (int, float64) {
	d := int(v)
	m := math.Round((v-float64(d))*60*10000) / 10000
	if m >= 60 {
		d++
		m -= 60
	}
	return d, m
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package logstore persists samples using the fixed log record schema
// and reads them back.
package logstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/relabs-tech/gps_logger/internal/gps"
	"github.com/relabs-tech/gps_logger/internal/track"
)

// Header is the column order of every persisted log.
var Header = []string{
	"timestamp",
	"latitude",
	"longitude",
	"altitude",
	"speed_knots",
	"speed_kmh",
	"course",
	"satellites",
	"hdop",
	"fix_quality",
}

// timestampLayout is used when writing. Older logs without a zone are
// still accepted on read.
const timestampLayout = time.RFC3339Nano

var legacyTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Record is one persisted row. Missing readings are stored as the
// schema's sentinel values.
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Altitude   float64   `json:"altitude"`
	SpeedKnots float64   `json:"speed_knots"`
	SpeedKmh   float64   `json:"speed_kmh"`
	Course     float64   `json:"course"`
	Satellites int       `json:"satellites"`
	HDOP       float64   `json:"hdop"`
	FixQuality int       `json:"fix_quality"`
}

// RecordFromSample materialises sentinels for absent fields.
func RecordFromSample(s gps.Sample) Record {
	r := Record{
		Timestamp:  s.Timestamp,
		Latitude:   s.Latitude,
		Longitude:  s.Longitude,
		Altitude:   gps.AltitudeUnknown,
		SpeedKnots: gps.SpeedUnknown,
		SpeedKmh:   s.SpeedKmh,
		Course:     gps.CourseUnknown,
		Satellites: gps.SatellitesUnknown,
		HDOP:       gps.HDOPUnknown,
		FixQuality: s.FixQuality,
	}
	if s.Altitude != nil {
		r.Altitude = *s.Altitude
	}
	if s.SpeedKnots != nil {
		r.SpeedKnots = *s.SpeedKnots
	}
	if s.Course != nil {
		r.Course = *s.Course
	}
	if s.Satellites != nil {
		r.Satellites = *s.Satellites
	}
	if s.HDOP != nil {
		r.HDOP = *s.HDOP
	}
	return r
}

// Sample turns sentinel values back into absent fields.
func (r Record) Sample() gps.Sample {
	s := gps.Sample{
		Timestamp:  r.Timestamp,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		SpeedKmh:   r.SpeedKmh,
		FixQuality: r.FixQuality,
	}
	if r.Altitude != gps.AltitudeUnknown {
		s.Altitude = gps.Float(r.Altitude)
	}
	if r.SpeedKnots != gps.SpeedUnknown {
		s.SpeedKnots = gps.Float(r.SpeedKnots)
	}
	if r.Course != gps.CourseUnknown {
		s.Course = gps.Float(r.Course)
	}
	if r.Satellites != gps.SatellitesUnknown {
		s.Satellites = gps.Int(r.Satellites)
	}
	if r.HDOP != gps.HDOPUnknown {
		s.HDOP = gps.Float(r.HDOP)
	}
	return s
}

// Row formats r in Header order.
func (r Record) Row() []string {
	return []string{
		r.Timestamp.Format(timestampLayout),
		formatFloat(r.Latitude),
		formatFloat(r.Longitude),
		formatFloat(r.Altitude),
		formatFloat(r.SpeedKnots),
		formatFloat(r.SpeedKmh),
		formatFloat(r.Course),
		strconv.Itoa(r.Satellites),
		formatFloat(r.HDOP),
		strconv.Itoa(r.FixQuality),
	}
}

// ParseRow is the inverse of Row.
func ParseRow(row []string) (Record, error) {
	if len(row) != len(Header) {
		return Record{}, fmt.Errorf("expected %d fields, got %d", len(Header), len(row))
	}

	var r Record
	var err error
	if r.Timestamp, err = parseTimestamp(row[0]); err != nil {
		return Record{}, err
	}

	floats := []struct {
		dst  *float64
		col  int
		name string
	}{
		{&r.Latitude, 1, "latitude"},
		{&r.Longitude, 2, "longitude"},
		{&r.Altitude, 3, "altitude"},
		{&r.SpeedKnots, 4, "speed_knots"},
		{&r.SpeedKmh, 5, "speed_kmh"},
		{&r.Course, 6, "course"},
		{&r.HDOP, 8, "hdop"},
	}
	for _, f := range floats {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[f.col]), 64)
		if err != nil {
			return Record{}, fmt.Errorf("invalid %s %q: %w", f.name, row[f.col], err)
		}
		*f.dst = v
	}

	if r.Satellites, err = parseInt(row[7]); err != nil {
		return Record{}, fmt.Errorf("invalid satellites %q: %w", row[7], err)
	}
	if r.FixQuality, err = parseInt(row[9]); err != nil {
		return Record{}, fmt.Errorf("invalid fix_quality %q: %w", row[9], err)
	}
	return r, nil
}

// TrackFromRecords converts rows to samples and keeps only the ones that
// pass gps.Validate, so the track's first point is a real reading.
func TrackFromRecords(records []Record) *track.Track {
	samples := make([]gps.Sample, 0, len(records))
	for _, r := range records {
		samples = append(samples, r.Sample())
	}
	return track.FromSamples(gps.Filter(samples))
}

// Records converts a snapshot for persistence or export.
func Records(snap track.Snapshot) []Record {
	out := make([]Record, 0, snap.Len())
	for i := 0; i < snap.Len(); i++ {
		out = append(out, RecordFromSample(snap.At(i)))
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseInt accepts "10" and "10.0"; some tools write integer columns as floats.
func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(timestampLayout, s); err == nil {
		return ts, nil
	}
	for _, layout := range legacyTimestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

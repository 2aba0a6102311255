// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package logstore

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/relabs-tech/gps_logger/internal/analytics"
	"github.com/relabs-tech/gps_logger/internal/track"
)

const (
	TrackSheet   = "Track"
	SummarySheet = "Summary"
)

// WriteXLSX writes a workbook with the track rows and its trip summary.
func WriteXLSX(w io.Writer, snap track.Snapshot, trip analytics.TripAnalytics) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TrackSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(TrackSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range Records(snap) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.Timestamp.Format(timestampLayout),
			r.Latitude,
			r.Longitude,
			r.Altitude,
			r.SpeedKnots,
			r.SpeedKmh,
			r.Course,
			r.Satellites,
			r.HDOP,
			r.FixQuality,
		}
		if err := f.SetSheetRow(TrackSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	for i, kv := range summaryRows(trip) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := []interface{}{kv.label, kv.value}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

type summaryRow struct {
	label string
	value interface{}
}

const noData = "no data"

func summaryRows(a analytics.TripAnalytics) []summaryRow {
	opt := func(p *float64) interface{} {
		if p == nil {
			return noData
		}
		return *p
	}
	rows := []summaryRow{
		{"point_count", a.PointCount},
		{"distance_m", a.DistanceM},
		{"avg_speed_kmh", opt(a.AvgSpeedKmh)},
		{"min_speed_kmh", opt(a.MinSpeedKmh)},
		{"max_speed_kmh", opt(a.MaxSpeedKmh)},
		{"min_altitude_m", opt(a.MinAltitudeM)},
		{"max_altitude_m", opt(a.MaxAltitudeM)},
		{"duration_s", a.Duration.Seconds()},
	}
	if a.Current != nil {
		rows = append(rows, summaryRow{"current", a.Current.Timestamp.Format(timestampLayout)})
	} else {
		rows = append(rows, summaryRow{"current", noData})
	}
	return rows
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/relabs-tech/gps_logger/internal/analytics"
	"github.com/relabs-tech/gps_logger/internal/config"
	"github.com/relabs-tech/gps_logger/internal/logstore"
	"github.com/relabs-tech/gps_logger/internal/track"
)

// RunExport writes the latest SQLite session, or a CSV log when csvPath
// is set, to an XLSX workbook at outPath. An empty outPath gets a
// timestamped name in the working directory. It returns the path written.
func RunExport(csvPath, outPath string) (string, error) {
	var snap track.Snapshot
	if csvPath != "" {
		records, err := logstore.ReadCSVFile(csvPath)
		if err != nil {
			return "", err
		}
		snap = logstore.TrackFromRecords(records).Snapshot()
		log.Printf("export: %d of %d rows from %s are valid", snap.Len(), len(records), csvPath)
	} else {
		cfg := config.Get()
		db, err := logstore.Open(cfg.DBPath)
		if err != nil {
			return "", err
		}
		defer db.Close()

		t, info, err := db.LatestTrack()
		if errors.Is(err, logstore.ErrNoSession) {
			return "", fmt.Errorf("nothing to export: %s has no sessions", cfg.DBPath)
		}
		if err != nil {
			return "", err
		}
		snap = t.Snapshot()
		log.Printf("export: session %s started %s, %d samples",
			info.ID, info.StartedAt.Local().Format(time.DateTime), snap.Len())
	}

	if outPath == "" {
		outPath = ExportFileName(time.Now())
	}
	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	if err := logstore.WriteXLSX(f, snap, analytics.Compute(snap)); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}
	return outPath, nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gps_logger/internal/config"
	"github.com/relabs-tech/gps_logger/internal/logstore"
	"github.com/relabs-tech/gps_logger/internal/sim"
)

// The config singleton can be initialised once per test binary, so the
// whole file-source pipeline is covered by this single test.
func TestRunGPSLogger_FileSource(t *testing.T) {
	dir := t.TempDir()

	sc := sim.DefaultScenario()
	sc.Seed = 2026
	lines := sim.Lines(sc, 20, time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC))
	capture := append([]string{"garbage", "$GPGSV,1,1,00*79"}, lines...)
	nmeaPath := filepath.Join(dir, "drive.nmea")
	require.NoError(t, os.WriteFile(nmeaPath, []byte(strings.Join(capture, "\r\n")+"\r\n"), 0644))

	logDir := filepath.Join(dir, "logs")
	dbPath := filepath.Join(dir, "data", "gps.db")
	cfgPath := filepath.Join(dir, config.DefaultPath)
	cfgText := fmt.Sprintf("GPS_SOURCE=file\nNMEA_INPUT_FILE=%s\nLOG_DIR=%s\nDB_PATH=%s\n", nmeaPath, logDir, dbPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgText), 0644))

	require.NoError(t, config.InitGlobal(cfgPath))
	require.NoError(t, RunGPSLogger(context.Background()))

	db, err := logstore.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	tr, info, err := db.LatestTrack()
	require.NoError(t, err)
	assert.Equal(t, config.SourceFile, info.Source)
	assert.Equal(t, 20, info.Samples)
	assert.Equal(t, 20, tr.Len())

	csvs, err := filepath.Glob(filepath.Join(logDir, "gps_log_*.csv"))
	require.NoError(t, err)
	require.Len(t, csvs, 1)
	records, err := logstore.ReadCSVFile(csvs[0])
	require.NoError(t, err)
	assert.Len(t, records, 20)

	out := filepath.Join(dir, "export.xlsx")
	path, err := RunExport("", out)
	require.NoError(t, err)
	assert.Equal(t, out, path)
	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestRunExport_FromCSV(t *testing.T) {
	dir := t.TempDir()
	csvLog, err := logstore.CreateCSV(dir, webStart)
	require.NoError(t, err)
	for _, s := range drive(4) {
		require.NoError(t, csvLog.Write(s))
	}
	require.NoError(t, csvLog.Close())

	out := filepath.Join(dir, "out.xlsx")
	_, err = RunExport(csvLog.Path(), out)
	require.NoError(t, err)
	_, err = os.Stat(out)
	assert.NoError(t, err)
}

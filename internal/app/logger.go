// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/relabs-tech/gps_logger/internal/analytics"
	"github.com/relabs-tech/gps_logger/internal/config"
	"github.com/relabs-tech/gps_logger/internal/gps"
	"github.com/relabs-tech/gps_logger/internal/ingest"
	"github.com/relabs-tech/gps_logger/internal/logstore"
	"github.com/relabs-tech/gps_logger/internal/sim"
)

// RunGPSLogger reads NMEA from the configured source, fuses GGA and RMC
// into samples and persists every valid one to SQLite, the CSV log and
// optionally MQTT. It returns nil when ctx is cancelled or a file source
// ends.
func RunGPSLogger(ctx context.Context) error {
	cfg := config.Get()
	started := time.Now()

	// ---- 1) Open the sentence source ----
	src, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer src.Close()
	// Closing the source unblocks a pending serial read on shutdown.
	stop := context.AfterFunc(ctx, func() { src.Close() })
	defer stop()

	// ---- 2) Open the sinks ----
	db, err := logstore.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	session, err := db.BeginSession(cfg.GPSSource, started)
	if err != nil {
		return err
	}
	defer session.Close()
	log.Printf("gps_logger: session %s in %s", session.Info().ID, cfg.DBPath)

	sinks := []ingest.Sink{session}
	csvPath := ""
	if cfg.CSVEnable {
		csvLog, err := logstore.CreateCSV(cfg.LogDir, started)
		if err != nil {
			return err
		}
		defer func() {
			if err := csvLog.Close(); err != nil {
				log.Printf("gps_logger: CSV close error: %v", err)
			}
		}()
		csvPath = csvLog.Path()
		sinks = append(sinks, csvLog)
		log.Printf("gps_logger: writing CSV log to %s", csvPath)
	}

	if cfg.MQTTEnable {
		client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDLogger)
		if err != nil {
			return err
		}
		pub := NewPublisher(client, cfg.TopicSample)
		defer pub.Close()
		sinks = append(sinks, pub)
		log.Printf("gps_logger: publishing samples to %s on %s", cfg.TopicSample, cfg.MQTTBroker)
	}

	driver := ingest.New(nil, append(sinks, &progressLog{})...)

	// ---- 3) Ingest until the source ends or we are stopped ----
	log.Printf("gps_logger: logging from %s source", cfg.GPSSource)
	runErr := driver.Run(ctx, src)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	var readErr *ingest.SourceReadError
	if ctx.Err() != nil && errors.As(runErr, &readErr) {
		// the read failed because we closed the source
		runErr = nil
	}

	logSummary(driver, session.Info(), csvPath, time.Since(started))
	return runErr
}

func openSource(ctx context.Context, cfg *config.Config) (io.ReadCloser, error) {
	switch cfg.GPSSource {
	case config.SourceSerial:
		port, err := ingest.OpenSerial(cfg.GPSSerialPort, cfg.GPSBaudRate)
		if err != nil {
			return nil, err
		}
		log.Printf("gps_logger: serial port opened on %s at %d baud", cfg.GPSSerialPort, cfg.GPSBaudRate)
		return port, nil

	case config.SourceFile:
		f, err := ingest.OpenFile(cfg.NMEAInputFile)
		if err != nil {
			return nil, err
		}
		log.Printf("gps_logger: reading NMEA from %s", cfg.NMEAInputFile)
		return f, nil

	case config.SourceSim:
		sc, err := loadScenario(cfg)
		if err != nil {
			return nil, err
		}
		log.Printf("gps_logger: simulating from %.4f,%.4f every %s (seed %d)",
			sc.Start.Latitude, sc.Start.Longitude, sc.Interval, sc.Seed)
		return sim.Stream(ctx, sc), nil
	}
	return nil, fmt.Errorf("unknown GPS source %q", cfg.GPSSource)
}

func loadScenario(cfg *config.Config) (sim.Scenario, error) {
	sc := sim.DefaultScenario()
	if cfg.SimScenario != "" {
		var err error
		if sc, err = sim.LoadScenario(cfg.SimScenario); err != nil {
			return sim.Scenario{}, err
		}
	}
	if cfg.SimInterval > 0 {
		sc.Interval = time.Duration(cfg.SimInterval) * time.Millisecond
	}
	return sc, nil
}

// progressLog prints each accepted sample; it runs after the persistent
// sinks so only stored samples are reported.
type progressLog struct {
	n int
}

func (p *progressLog) Write(s gps.Sample) error {
	p.n++
	sats := 0
	if s.Satellites != nil {
		sats = *s.Satellites
	}
	log.Printf("gps_logger: #%d lat=%.6f lon=%.6f alt=%.1fm speed=%.1fkm/h sats=%d",
		p.n, s.Latitude, s.Longitude, s.AltitudeOr(gps.AltitudeUnknown), s.SpeedKmh, sats)
	return nil
}

func logSummary(d *ingest.Driver, session logstore.SessionInfo, csvPath string, elapsed time.Duration) {
	st := d.Stats()
	trip := analytics.Compute(d.Track().Snapshot())

	log.Println("gps_logger: ---- run summary ----")
	log.Printf("gps_logger: duration %s, %d lines read", elapsed.Round(time.Second), st.Lines)
	log.Printf("gps_logger: %d points logged, %d rejected (lat=0: %d, lon=0: %d, no altitude: %d)",
		st.Accepted, st.Rejected(), st.RejectedZeroLatitude, st.RejectedZeroLongitude, st.RejectedNoAltitude)
	log.Printf("gps_logger: %d parse errors, %d non-NMEA lines, %d velocity before first fix",
		st.ParseErrors, st.NotSentence, st.StaleVelocity)
	log.Printf("gps_logger: distance %.1fm", trip.DistanceM)
	if trip.AvgSpeedKmh != nil && trip.MaxSpeedKmh != nil {
		log.Printf("gps_logger: speed avg %.1fkm/h max %.1fkm/h", *trip.AvgSpeedKmh, *trip.MaxSpeedKmh)
	}
	log.Printf("gps_logger: session %s (%d rows)", session.ID, session.Samples)
	if csvPath != "" {
		log.Printf("gps_logger: CSV log %s", csvPath)
	}
}

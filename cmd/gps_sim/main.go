// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/relabs-tech/gps_logger/internal/sim"
)

// gps_sim writes a simulated NMEA capture, e.g. for GPS_SOURCE=file.
func main() {
	scenario := flag.String("scenario", "", "YAML scenario file")
	points := flag.Int("n", 300, "number of GGA+RMC pairs")
	out := flag.String("o", "data/output.nmea", "output file, - for stdout")
	flag.Parse()

	sc := sim.DefaultScenario()
	if *scenario != "" {
		var err error
		if sc, err = sim.LoadScenario(*scenario); err != nil {
			log.Fatalf("fatal: %v", err)
		}
	}

	text := strings.Join(sim.Lines(sc, *points, time.Now()), "\r\n") + "\r\n"
	if *out == "-" {
		if _, err := os.Stdout.WriteString(text); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		return
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := os.WriteFile(*out, []byte(text), 0644); err != nil {
		log.Fatalf("fatal: %v", err)
	}
	log.Printf("gps_sim: wrote %d sentences to %s (seed %d)", 2*(*points), *out, sc.Seed)
}

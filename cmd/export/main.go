// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gps_logger/internal/app"
	"github.com/relabs-tech/gps_logger/internal/config"
)

func main() {
	csvPath := flag.String("csv", "", "export this CSV log instead of the latest SQLite session")
	out := flag.String("o", "", "output .xlsx path (default gps_track_<time>.xlsx)")
	flag.Parse()

	if *csvPath == "" {
		if err := config.InitGlobal(config.DefaultPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	path, err := app.RunExport(*csvPath, *out)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	log.Printf("export: wrote %s", path)
}

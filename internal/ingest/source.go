// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ingest

import (
	"fmt"
	"io"
	"os"

	serial "github.com/jacobsa/go-serial/serial"
)

// OpenSerial opens a GPS receiver on a serial port, 8N1.
// Typical names: /dev/serial0, /dev/ttyAMA0, /dev/ttyUSB0.
func OpenSerial(portName string, baud int) (io.ReadCloser, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	return port, nil
}

// OpenFile opens a recorded NMEA capture.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open NMEA file: %w", err)
	}
	return f, nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// ErrNotSentence is returned for empty lines and lines that do not start
// with '$'. Callers skip them silently.
var ErrNotSentence = errors.New("gps: not an NMEA sentence")

// ParseError reports a line that looked like a sentence but could not be
// decoded. It is never fatal to a stream.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("gps: parse %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Sentence is the decoded form of one line: PositionSentence,
// VelocitySentence or OtherSentence.
type Sentence interface {
	sentence()
}

// PositionSentence carries a GGA fix.
type PositionSentence struct {
	Fix PositionFix
}

// VelocitySentence carries an RMC fix.
type VelocitySentence struct {
	Fix VelocityFix
}

// OtherSentence is any well-addressed sentence we do not use (GSV, GSA, VTG, ...).
type OtherSentence struct {
	Type string
}

func (PositionSentence) sentence() {}
func (VelocitySentence) sentence() {}
func (OtherSentence) sentence()    {}

// Decode parses one raw line.
//
// GGA and RMC go through go-nmea, which also verifies the checksum. Other
// sentence types are reported as OtherSentence without being parsed.
func Decode(line string) (Sentence, error) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "$") {
		return nil, ErrNotSentence
	}

	typ, err := sentenceType(line)
	if err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}
	if typ != nmea.TypeGGA && typ != nmea.TypeRMC {
		return OtherSentence{Type: typ}, nil
	}

	s, err := nmea.Parse(line)
	if err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}

	switch m := s.(type) {
	case nmea.GGA:
		return PositionSentence{Fix: positionFromGGA(m)}, nil
	case nmea.RMC:
		return VelocitySentence{Fix: velocityFromRMC(m)}, nil
	default:
		return OtherSentence{Type: s.DataType()}, nil
	}
}

// sentenceType returns the sentence formatter from the address field,
// e.g. "GGA" for "$GNGGA,...".
func sentenceType(line string) (string, error) {
	addr := line[1:]
	if i := strings.IndexAny(addr, ",*"); i != -1 {
		addr = addr[:i]
	}
	if len(addr) < 3 {
		return "", fmt.Errorf("short address field %q", addr)
	}
	return strings.ToUpper(addr[len(addr)-3:]), nil
}

// GGA raw field indexes (after the address field).
const (
	ggaFixQuality = 5
	ggaSatellites = 6
	ggaHDOP       = 7
	ggaAltitude   = 8
)

// RMC raw field indexes (after the address field).
const (
	rmcSpeed  = 6
	rmcCourse = 7
)

func positionFromGGA(m nmea.GGA) PositionFix {
	fix := PositionFix{
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
	}
	if present(m.Fields, ggaFixQuality) {
		if q, err := strconv.Atoi(strings.TrimSpace(m.FixQuality)); err == nil {
			fix.FixQuality = q
		}
	}
	if present(m.Fields, ggaSatellites) && m.NumSatellites >= 0 {
		fix.Satellites = Int(int(m.NumSatellites))
	}
	if present(m.Fields, ggaHDOP) {
		fix.HDOP = Float(m.HDOP)
	}
	if present(m.Fields, ggaAltitude) {
		fix.Altitude = Float(m.Altitude)
	}
	return fix
}

func velocityFromRMC(m nmea.RMC) VelocityFix {
	fix := VelocityFix{Validity: Void}
	if m.Validity == nmea.ValidRMC {
		fix.Validity = Active
	}
	if present(m.Fields, rmcSpeed) {
		fix.SpeedKnots = Float(m.Speed)
	}
	if present(m.Fields, rmcCourse) {
		fix.Course = Float(m.Course)
	}
	return fix
}

func present(fields []string, i int) bool {
	return i < len(fields) && strings.TrimSpace(fields[i]) != ""
}

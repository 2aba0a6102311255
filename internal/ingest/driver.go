// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ingest drives NMEA text through decoding, fusion and validation
// into a track and its persistence sinks.
package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/relabs-tech/gps_logger/internal/gps"
	"github.com/relabs-tech/gps_logger/internal/track"
)

// Sink persists accepted samples. CSV logs, SQLite sessions and the MQTT
// publisher implement it.
type Sink interface {
	Write(gps.Sample) error
}

// SourceReadError means the sentence source failed. Samples accepted
// before the failure stay in the track and in every sink.
type SourceReadError struct {
	Err error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("ingest: source read failed: %v", e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// PersistError means a sink rejected a sample. The sample was not
// appended to the track, but sinks listed before the failing one have
// already stored it.
type PersistError struct {
	Sample gps.Sample
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("ingest: persist sample at %s: %v",
		e.Sample.Timestamp.Format(time.RFC3339Nano), e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Stats counts what happened to every line fed to a Driver.
type Stats struct {
	Lines          int `json:"lines"`
	NotSentence    int `json:"not_sentence"`
	ParseErrors    int `json:"parse_errors"`
	Positions      int `json:"positions"`
	PositionsNoFix int `json:"positions_no_fix"`
	Velocities     int `json:"velocities"`
	VelocitiesVoid int `json:"velocities_void"`
	StaleVelocity  int `json:"stale_velocity"`
	Others         int `json:"others"`
	Emitted        int `json:"emitted"`

	RejectedZeroLatitude  int `json:"rejected_zero_latitude"`
	RejectedZeroLongitude int `json:"rejected_zero_longitude"`
	RejectedNoAltitude    int `json:"rejected_no_altitude"`

	Accepted int `json:"accepted"`
}

// Rejected is the number of emitted samples the validator dropped.
func (s Stats) Rejected() int {
	return s.RejectedZeroLatitude + s.RejectedZeroLongitude + s.RejectedNoAltitude
}

// Driver owns one fusion state and one track. It is not safe for
// concurrent use; readers take track snapshots instead.
type Driver struct {
	fusion gps.Fusion
	track  *track.Track
	sinks  []Sink
	clock  func() time.Time
	stats  Stats
}

// New returns a driver appending to t. A nil t gets a fresh track.
func New(t *track.Track, sinks ...Sink) *Driver {
	if t == nil {
		t = track.New()
	}
	return &Driver{
		track: t,
		sinks: sinks,
		clock: time.Now,
	}
}

// SetClock replaces the capture clock stamped on emitted samples.
func (d *Driver) SetClock(clock func() time.Time) {
	d.clock = clock
}

// Track returns the track the driver appends to.
func (d *Driver) Track() *track.Track { return d.track }

// Stats returns a copy of the counters.
func (d *Driver) Stats() Stats { return d.stats }

// Step processes one line. It returns the accepted sample and true when
// the line completed a valid sample that was persisted and appended.
// The only error is *PersistError; every other outcome is counted.
func (d *Driver) Step(line string) (gps.Sample, bool, error) {
	d.stats.Lines++

	sentence, err := gps.Decode(line)
	if err != nil {
		if errors.Is(err, gps.ErrNotSentence) {
			d.stats.NotSentence++
		} else {
			d.stats.ParseErrors++
		}
		return gps.Sample{}, false, nil
	}

	sample, ok := d.fusion.Apply(d.clock(), sentence)
	d.count(d.fusion.LastEvent())
	if !ok {
		return gps.Sample{}, false, nil
	}

	if err := gps.Validate(sample); err != nil {
		d.reject(err)
		return gps.Sample{}, false, nil
	}

	for _, sink := range d.sinks {
		if err := sink.Write(sample); err != nil {
			return gps.Sample{}, false, &PersistError{Sample: sample, Err: err}
		}
	}
	d.track.Append(sample)
	d.stats.Accepted++
	return sample, true, nil
}

func (d *Driver) count(ev gps.Event) {
	switch ev {
	case gps.EventPositionStored:
		d.stats.Positions++
	case gps.EventPositionNoFix:
		d.stats.Positions++
		d.stats.PositionsNoFix++
	case gps.EventVelocityVoid:
		d.stats.Velocities++
		d.stats.VelocitiesVoid++
	case gps.EventVelocityStale:
		d.stats.Velocities++
		d.stats.StaleVelocity++
	case gps.EventSampleEmitted:
		d.stats.Velocities++
		d.stats.Emitted++
	case gps.EventIgnored:
		d.stats.Others++
	}
}

func (d *Driver) reject(err error) {
	switch {
	case errors.Is(err, gps.ErrZeroLatitude):
		d.stats.RejectedZeroLatitude++
	case errors.Is(err, gps.ErrZeroLongitude):
		d.stats.RejectedZeroLongitude++
	case errors.Is(err, gps.ErrUnknownAltitude):
		d.stats.RejectedNoAltitude++
	}
}

// MaxLineLength bounds one line read by Run. NMEA 0183 sentences are at
// most 82 characters; anything longer is noise and is dropped whole.
const MaxLineLength = 4096

type rawLine struct {
	text    string
	tooLong bool
}

// Run feeds every line of r to Step until EOF, a fatal error or ctx is
// done. EOF returns nil. Cancellation returns ctx.Err(); the caller closes
// r to release a read that is still blocked. Lines longer than
// MaxLineLength are counted as parse errors and skipped.
func (d *Driver) Run(ctx context.Context, r io.Reader) error {
	lines := make(chan rawLine)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(lines)
		readErr <- readLines(r, lines, done)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return &SourceReadError{Err: err}
				}
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if line.tooLong {
				d.stats.Lines++
				d.stats.ParseErrors++
				continue
			}
			if _, _, err := d.Step(line.text); err != nil {
				return err
			}
		}
	}
}

// readLines splits r on '\n' and sends each line to out. It returns nil
// at EOF or when done is closed.
func readLines(r io.Reader, out chan<- rawLine, done <-chan struct{}) error {
	br := bufio.NewReaderSize(r, MaxLineLength)
	for {
		chunk, err := br.ReadSlice('\n')
		line := rawLine{text: strings.TrimRight(string(chunk), "\r\n")}
		for err == bufio.ErrBufferFull {
			line = rawLine{tooLong: true}
			_, err = br.ReadSlice('\n')
		}
		if line.tooLong || len(chunk) > 0 {
			select {
			case out <- line:
			case <-done:
				return nil
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

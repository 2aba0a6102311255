// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package logstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/relabs-tech/gps_logger/internal/gps"
)

// CSVFileName returns the log file name for a run started at t.
func CSVFileName(t time.Time) string {
	return fmt.Sprintf("gps_log_%s.csv", t.Format("20060102_150405"))
}

// CSVWriter appends records to a CSV log, one flushed row per sample.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
	path   string
	rows   int
}

// CreateCSV creates dir if needed and opens a new log file in it.
func CreateCSV(dir string, started time.Time) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(dir, CSVFileName(started))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV log: %w", err)
	}
	cw, err := NewCSVWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	cw.closer = f
	cw.path = path
	return cw, nil
}

// NewCSVWriter writes the header row to w.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	cw := &CSVWriter{w: csv.NewWriter(w)}
	if err := cw.writeRow(Header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	return cw, nil
}

// Write persists one sample.
func (c *CSVWriter) Write(s gps.Sample) error {
	if err := c.writeRow(RecordFromSample(s).Row()); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	c.rows++
	return nil
}

func (c *CSVWriter) writeRow(row []string) error {
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

// Path is empty for writers created with NewCSVWriter.
func (c *CSVWriter) Path() string { return c.path }

// Rows returns the number of sample rows written.
func (c *CSVWriter) Rows() int { return c.rows }

func (c *CSVWriter) Close() error {
	c.w.Flush()
	err := c.w.Error()
	if c.closer != nil {
		err = errors.Join(err, c.closer.Close())
	}
	return err
}

// ReadCSV reads a log written by CSVWriter. The first row must be Header.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	cr.ReuseRecord = true

	head, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV log is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, name := range Header {
		if head[i] != name {
			return nil, fmt.Errorf("unexpected CSV column %d: got %q, want %q", i+1, head[i], name)
		}
	}

	var out []Record
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rec, err := ParseRow(row)
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		out = append(out, rec)
	}
}

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV log: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

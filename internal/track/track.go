// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package track holds the ordered, append-only history of validated
// samples for one logging session.
package track

import (
	"sync"

	"github.com/relabs-tech/gps_logger/internal/gps"
)

// Track is append-only. One writer appends; any number of readers take
// snapshots concurrently.
type Track struct {
	mu      sync.RWMutex
	samples []gps.Sample
}

// New returns an empty track.
func New() *Track {
	return &Track{}
}

// FromSamples builds a track from already validated samples, e.g. rows
// read back from the log store.
func FromSamples(samples []gps.Sample) *Track {
	t := &Track{samples: make([]gps.Sample, len(samples))}
	copy(t.samples, samples)
	return t
}

// Append adds s at the end. Readers either see the whole sample or not
// at all.
func (t *Track) Append(s gps.Sample) {
	t.mu.Lock()
	t.samples = append(t.samples, s)
	t.mu.Unlock()
}

// Snapshot returns a view of the samples appended so far. Later appends
// are not visible through it.
func (t *Track) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := len(t.samples)
	// Capping capacity makes any append through the view reallocate.
	return Snapshot{samples: t.samples[:n:n]}
}

// First returns the origin sample. It never changes once set.
func (t *Track) First() (gps.Sample, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.samples) == 0 {
		return gps.Sample{}, false
	}
	return t.samples[0], true
}

// Len returns the number of samples.
func (t *Track) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.samples)
}

// Snapshot is an immutable view of a Track at one instant.
type Snapshot struct {
	samples []gps.Sample
}

// NewSnapshot wraps samples without copying; callers must not modify them.
func NewSnapshot(samples []gps.Sample) Snapshot {
	return Snapshot{samples: samples[:len(samples):len(samples)]}
}

func (s Snapshot) Len() int { return len(s.samples) }

// At returns the i-th sample in arrival order.
func (s Snapshot) At(i int) gps.Sample { return s.samples[i] }

func (s Snapshot) First() (gps.Sample, bool) {
	if len(s.samples) == 0 {
		return gps.Sample{}, false
	}
	return s.samples[0], true
}

func (s Snapshot) Last() (gps.Sample, bool) {
	if len(s.samples) == 0 {
		return gps.Sample{}, false
	}
	return s.samples[len(s.samples)-1], true
}

// Samples returns a copy of the samples.
func (s Snapshot) Samples() []gps.Sample {
	out := make([]gps.Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Reversed returns a snapshot with the samples in reverse order.
func (s Snapshot) Reversed() Snapshot {
	out := make([]gps.Sample, len(s.samples))
	for i, j := 0, len(s.samples)-1; j >= 0; i, j = i+1, j-1 {
		out[i] = s.samples[j]
	}
	return Snapshot{samples: out}
}

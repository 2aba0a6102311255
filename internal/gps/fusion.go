// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import "time"

// Fusion pairs the latest valid GGA position with each active RMC.
//
// A position sentence only updates state. An active velocity sentence is
// the trigger: it emits one Sample built from the stored position and its
// own speed/course. There is no max-age on the stored position.
//
// The zero value is ready to use. A Fusion is owned by one goroutine.
type Fusion struct {
	latest    PositionFix
	haveFix   bool
	lastEvent Event
}

// Event describes what the last Apply call did with its sentence.
type Event int

const (
	EventNone          Event = iota
	EventPositionStored       // GGA with fix quality > 0
	EventPositionNoFix        // GGA with fix quality <= 0, discarded
	EventVelocityVoid         // RMC with status V
	EventVelocityStale        // active RMC before any valid GGA
	EventSampleEmitted        // active RMC fused with the stored GGA
	EventIgnored              // any other sentence
)

func (e Event) String() string {
	switch e {
	case EventPositionStored:
		return "position_stored"
	case EventPositionNoFix:
		return "position_no_fix"
	case EventVelocityVoid:
		return "velocity_void"
	case EventVelocityStale:
		return "velocity_stale"
	case EventSampleEmitted:
		return "sample_emitted"
	case EventIgnored:
		return "ignored"
	default:
		return "none"
	}
}

// Apply feeds one decoded sentence. It returns a Sample and true only
// when an active velocity arrives while a position is stored; now is the
// capture instant stamped on that sample.
func (f *Fusion) Apply(now time.Time, s Sentence) (Sample, bool) {
	switch m := s.(type) {
	case PositionSentence:
		if m.Fix.FixQuality <= 0 {
			f.lastEvent = EventPositionNoFix
			return Sample{}, false
		}
		f.latest = m.Fix
		f.haveFix = true
		f.lastEvent = EventPositionStored
		return Sample{}, false

	case VelocitySentence:
		if m.Fix.Validity != Active {
			f.lastEvent = EventVelocityVoid
			return Sample{}, false
		}
		if !f.haveFix {
			f.lastEvent = EventVelocityStale
			return Sample{}, false
		}
		f.lastEvent = EventSampleEmitted
		return NewSample(now, f.latest, m.Fix), true

	default:
		f.lastEvent = EventIgnored
		return Sample{}, false
	}
}

// LastEvent reports the outcome of the most recent Apply.
func (f *Fusion) LastEvent() Event {
	return f.lastEvent
}

// Latest returns the stored position, if any.
func (f *Fusion) Latest() (PositionFix, bool) {
	return f.latest, f.haveFix
}

// Reset forgets the stored position.
func (f *Fusion) Reset() {
	*f = Fusion{}
}

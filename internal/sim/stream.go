// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sim

import (
	"context"
	"io"
	"time"
)

// Lines generates n ticks without waiting, one GGA then one RMC per tick,
// starting at start and spaced by the scenario interval.
func Lines(sc Scenario, n int, start time.Time) []string {
	w := NewWalker(sc)
	out := make([]string, 0, 2*n)
	for i := 0; i < n; i++ {
		p := w.Next(start.Add(time.Duration(i) * sc.Interval))
		out = append(out, EncodeGGA(sc.Talker, p), EncodeRMC(sc.Talker, p))
	}
	return out
}

// Stream emits a tick every scenario interval as CRLF terminated NMEA
// text, like a receiver on a serial line. The stream ends with EOF when
// ctx is done; closing the reader stops the generator.
func Stream(ctx context.Context, sc Scenario) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		w := NewWalker(sc)
		ticker := time.NewTicker(sc.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				pw.Close()
				return
			case t := <-ticker.C:
				p := w.Next(t)
				text := EncodeGGA(sc.Talker, p) + "\r\n" + EncodeRMC(sc.Talker, p) + "\r\n"
				if _, err := io.WriteString(pw, text); err != nil {
					// reader closed
					return
				}
			}
		}
	}()
	return pr
}

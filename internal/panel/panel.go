// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package panel renders trip analytics as a 128x64 monochrome status
// panel, the size of the small OLED boards loggers are usually built with.
package panel

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/gps_logger/internal/analytics"
)

const (
	Width  = 128
	Height = 64

	lineHeight = 13
)

// Lines returns the text rows drawn on the panel.
func Lines(a analytics.TripAnalytics) []string {
	if a.Current == nil {
		return []string{"GPS Logger", "Waiting..."}
	}
	c := a.Current

	latDir := "N"
	lat := c.Latitude
	if lat < 0 {
		latDir = "S"
		lat = -lat
	}
	lonDir := "E"
	lon := c.Longitude
	if lon < 0 {
		lonDir = "W"
		lon = -lon
	}

	dist := fmt.Sprintf("Dist %.0fm", a.DistanceM)
	if a.DistanceM >= 1000 {
		dist = fmt.Sprintf("Dist %.2fkm", a.DistanceM/1000)
	}

	alt := "Alt ---"
	if c.Altitude != nil {
		alt = fmt.Sprintf("Alt %.0fm", *c.Altitude)
	}

	return []string{
		fmt.Sprintf("%.4f%s %.4f%s", lat, latDir, lon, lonDir),
		fmt.Sprintf("%.1f km/h", c.SpeedKmh),
		dist,
		fmt.Sprintf("%s N=%d", alt, a.PointCount),
	}
}

// Render draws the panel, white text on black.
func Render(a analytics.TripAnalytics) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, Width, Height))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}

	lines := Lines(a)
	top := lineHeight
	if len(lines) == 2 {
		top = 2 * lineHeight
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, top+i*lineHeight)
		drawer.DrawString(line)
	}
	return img
}

// WritePNG renders a and encodes it as PNG.
func WritePNG(w io.Writer, a analytics.TripAnalytics) error {
	if err := png.Encode(w, Render(a)); err != nil {
		return fmt.Errorf("failed to encode panel: %w", err)
	}
	return nil
}

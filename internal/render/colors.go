// Package render produces the visual outputs of a run: a static SVG
// choropleth, PNG charts, and self-contained interactive Leaflet maps.
package render

import (
	"fmt"
	"image/color"
	"sort"
)

// undefinedColor marks tracts without a defined rate on choropleths.
var undefinedColor = color.RGBA{R: 0xd9, G: 0xd9, B: 0xd9, A: 0xff}

// ylOrRd is the 9-class YlOrRd ramp used for complaint intensity.
var ylOrRd = []color.RGBA{
	{0xff, 0xff, 0xcc, 0xff},
	{0xff, 0xed, 0xa0, 0xff},
	{0xfe, 0xd9, 0x76, 0xff},
	{0xfe, 0xb2, 0x4c, 0xff},
	{0xfd, 0x8d, 0x3c, 0xff},
	{0xfc, 0x4e, 0x2a, 0xff},
	{0xe3, 0x1a, 0x1c, 0xff},
	{0xbd, 0x00, 0x26, 0xff},
	{0x80, 0x00, 0x26, 0xff},
}

// viridis is a coarse viridis ramp, selectable via render.color_scheme.
var viridis = []color.RGBA{
	{0x44, 0x01, 0x54, 0xff},
	{0x46, 0x30, 0x7e, 0xff},
	{0x3b, 0x52, 0x8b, 0xff},
	{0x2c, 0x71, 0x8e, 0xff},
	{0x21, 0x91, 0x8c, 0xff},
	{0x27, 0xad, 0x81, 0xff},
	{0x5c, 0xc8, 0x63, 0xff},
	{0xaa, 0xdc, 0x32, 0xff},
	{0xfd, 0xe7, 0x25, 0xff},
}

// Ramp returns the configured color ramp, defaulting to YlOrRd.
func Ramp(scheme string) []color.RGBA {
	if scheme == "viridis" {
		return viridis
	}
	return ylOrRd
}

// Scale maps values onto a ramp using quantile breaks, so skewed rate
// distributions still use the full ramp.
type Scale struct {
	ramp   []color.RGBA
	breaks []float64
}

// NewScale computes quantile breaks from the defined values. With fewer
// distinct values than ramp classes the scale degrades to fewer classes.
func NewScale(ramp []color.RGBA, values []float64) *Scale {
	s := &Scale{ramp: ramp}
	if len(values) == 0 {
		return s
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	n := len(ramp)
	s.breaks = make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		idx := i * len(sorted) / n
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		s.breaks = append(s.breaks, sorted[idx])
	}
	return s
}

// Breaks returns the upper quantile break of each ramp class except the
// last, in ascending order.
func (s *Scale) Breaks() []float64 { return s.breaks }

// Color returns the ramp color for a value.
func (s *Scale) Color(v float64) color.RGBA {
	if len(s.ramp) == 0 {
		return undefinedColor
	}
	for i, b := range s.breaks {
		if v < b {
			return s.ramp[i]
		}
	}
	return s.ramp[len(s.ramp)-1]
}

// hexColor formats a color as #rrggbb for SVG and Leaflet styles.
func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

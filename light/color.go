package light

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a perceptual HSLuv color. H is in degrees [0,360); S and L are
// in [0,1]. One Color is assigned per bounding box each tick; the zero
// value means "off".
type Color struct {
	H float64
	S float64
	L float64
}

// NewColor clamps the components into range and returns the color.
func NewColor(h, s, l float64) Color {
	for h < 0 {
		h += 360
	}
	for h >= 360 {
		h -= 360
	}
	return Color{H: h, S: clamp01(s), L: clamp01(l)}
}

// IsOff reports whether the color carries no light at all.
func (c Color) IsOff() bool {
	return c.L <= 0
}

// RGB255 converts to 8-bit sRGB.
func (c Color) RGB255() (r, g, b uint8) {
	return colorful.HSLuv(c.H, c.S, c.L).Clamped().RGB255()
}

// Xy converts to a CIE xy chromaticity pair plus a brightness in [0,100],
// the representation bridge-style backends speak.
func (c Color) Xy() (x, y, brightness float64) {
	cc := colorful.HSLuv(c.H, c.S, c.L).Clamped()
	x, y, _ = cc.Xyy()
	return x, y, c.L * 100
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

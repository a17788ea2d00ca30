// Package render draws the choropleth maps, charts, and table figures.
package render

import "image/color"

// High-contrast palette. The map layers use saturated red/blue so the
// two policy classes survive grayscale printing, and green/orange for
// the agreement layer so it cannot be confused with the policy panels.
var (
	RedVivid  = color.RGBA{R: 0xc4, G: 0x12, B: 0x30, A: 0xff}
	BlueVivid = color.RGBA{R: 0x00, G: 0x47, B: 0xab, A: 0xff}

	GreenMatch     = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
	OrangeMismatch = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}

	BlueLight = color.RGBA{R: 0xde, G: 0xeb, B: 0xf7, A: 0xff}
	BlueDark  = color.RGBA{R: 0x08, G: 0x45, B: 0x94, A: 0xff}

	ChartBlue    = color.RGBA{R: 0x2e, G: 0x86, B: 0xab, A: 0xff}
	ChartMagenta = color.RGBA{R: 0xa2, G: 0x3b, B: 0x72, A: 0xff}

	BorderGray = color.RGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xff}
	FillGray   = color.RGBA{R: 0xd9, G: 0xd9, B: 0xd9, A: 0xff}
)

// TierBlues is the sequential five-class blue ramp for the strictness
// gradient map, lightest for the strictest tier.
var TierBlues = [5]color.RGBA{
	{R: 0xee, G: 0xf3, B: 0xfb, A: 0xff},
	{R: 0xbd, G: 0xd7, B: 0xe7, A: 0xff},
	{R: 0x6b, G: 0xae, B: 0xd6, A: 0xff},
	{R: 0x31, G: 0x82, B: 0xbd, A: 0xff},
	{R: 0x08, G: 0x45, B: 0x94, A: 0xff},
}

// Lerp linearly interpolates between two colors; t is clamped to [0, 1].
func Lerp(a, b color.RGBA, t float64) color.RGBA {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + t*(float64(y)-float64(x)))
	}
	return color.RGBA{
		R: mix(a.R, b.R),
		G: mix(a.G, b.G),
		B: mix(a.B, b.B),
		A: 0xff,
	}
}

// DemShareColor maps a Democratic two-party share (0-100) onto a
// red-white-blue diverging ramp centered at 50.
func DemShareColor(share float64) color.RGBA {
	white := color.RGBA{R: 0xf7, G: 0xf7, B: 0xf7, A: 0xff}
	if share >= 50 {
		return Lerp(white, BlueVivid, (share-50)/25)
	}
	return Lerp(white, RedVivid, (50-share)/25)
}

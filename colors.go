package termio

import "image/color"

// AnsiPalette holds the 16 standard colors: 8 normal (SGR 30-37/40-47) and
// 8 bright (SGR 90-97/100-107). Values follow the common xterm defaults.
var AnsiPalette = [16]color.RGBA{
	// Standard colors (0-7)
	{0, 0, 0, 255},       // Black
	{205, 49, 49, 255},   // Red
	{13, 188, 121, 255},  // Green
	{229, 229, 16, 255},  // Yellow
	{36, 114, 200, 255},  // Blue
	{188, 63, 188, 255},  // Magenta
	{17, 168, 205, 255},  // Cyan
	{229, 229, 229, 255}, // White

	// Bright colors (8-15)
	{102, 102, 102, 255}, // Bright Black
	{241, 76, 76, 255},   // Bright Red
	{35, 209, 139, 255},  // Bright Green
	{245, 245, 67, 255},  // Bright Yellow
	{59, 142, 234, 255},  // Bright Blue
	{214, 112, 214, 255}, // Bright Magenta
	{41, 184, 219, 255},  // Bright Cyan
	{255, 255, 255, 255}, // Bright White
}

// Color256 resolves an 8-bit palette index to RGB.
//
// Indices 0-15 map to the standard/bright palette. Indices 16-231 map to a
// 6x6x6 color cube where each channel value v in 0..5 contributes 0 when
// v == 0 and 55+40*v otherwise. Indices 232-255 map to a 24-step grayscale
// ramp: gray = (index-232)*10 + 8. Out-of-range indices are clamped.
func Color256(index int) color.RGBA {
	switch {
	case index < 0:
		return AnsiPalette[0]
	case index < 16:
		return AnsiPalette[index]
	case index < 232:
		n := index - 16
		return color.RGBA{
			R: cubeChannel(n / 36),
			G: cubeChannel(n / 6 % 6),
			B: cubeChannel(n % 6),
			A: 255,
		}
	case index < 256:
		gray := uint8((index-232)*10 + 8)
		return color.RGBA{gray, gray, gray, 255}
	default:
		return AnsiPalette[15]
	}
}

// cubeChannel converts a 0..5 cube coordinate to its channel intensity.
func cubeChannel(v int) uint8 {
	if v == 0 {
		return 0
	}
	return uint8(55 + 40*v)
}

// rgb is a shorthand constructor for opaque RGB colors.
func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// splitRGB extracts 8-bit channels from a stored cell color.
// The parser only ever stores color.RGBA values, but arbitrary color.Color
// implementations set by UI composition are handled too.
func splitRGB(c color.Color) (r, g, b uint8) {
	if v, ok := c.(color.RGBA); ok {
		return v.R, v.G, v.B
	}
	r32, g32, b32, _ := c.RGBA()
	return uint8(r32 >> 8), uint8(g32 >> 8), uint8(b32 >> 8)
}

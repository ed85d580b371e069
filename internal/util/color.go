package util

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RgbToHsb converts 8-bit RGB to the 16-bit hue, saturation and brightness
// used by LIFX bulbs. Brightness is the max of RGB.
func RgbToHsb(r, g, b uint8) (uint16, uint16, uint16) {
	h, s, v := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}.Hsv()

	return toUint16(h / 360), toUint16(s), toUint16(v)
}

func toUint16(f float64) uint16 {
	return uint16(math.Round(math.Min(1, math.Max(0, f)) * 0xFFFF))
}

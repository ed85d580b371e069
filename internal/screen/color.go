package screen

import (
	"image"

	"github.com/scheerer/screen-ledstrip/lights"
)

const (
	// ZoneHeight is the number of rows sampled along the bottom edge.
	ZoneHeight = 10
	// ZoneWidthDivisor sizes each zone at 1/10th of the frame width.
	ZoneWidthDivisor = 10
)

// LeftZone is the bottom-left strip of a frame with the given bounds.
func LeftZone(bounds image.Rectangle) image.Rectangle {
	w := bounds.Dx() / ZoneWidthDivisor
	x := bounds.Min.X
	y := bounds.Max.Y - ZoneHeight
	return image.Rect(x, y, x+w, y+ZoneHeight)
}

// RightZone mirrors LeftZone onto the right edge.
func RightZone(bounds image.Rectangle) image.Rectangle {
	w := bounds.Dx() / ZoneWidthDivisor
	x := bounds.Max.X - w
	y := bounds.Max.Y - ZoneHeight
	return image.Rect(x, y, x+w, y+ZoneHeight)
}

// EdgeColors reduces a frame to its left and right edge colors.
func EdgeColors(img *image.RGBA) lights.Message {
	if img == nil || img.Rect.Empty() {
		return lights.Off
	}
	return lights.Message{
		BrightestColor(img, LeftZone(img.Rect)),
		BrightestColor(img, RightZone(img.Rect)),
	}
}

// BrightestColor scans zone column by column, left to right and top to bottom
// within a column, and returns the first pixel with the
// highest brightness. Black is returned when nothing beats zero brightness or
// when the zone does not start inside the image.
func BrightestColor(img *image.RGBA, zone image.Rectangle) lights.Color {
	var brightest lights.Color
	if img == nil || zone.Empty() || !zone.Min.In(img.Rect) {
		return brightest
	}
	zone = zone.Intersect(img.Rect)

	maxBrightness := 0.0
	for x := zone.Min.X; x < zone.Max.X; x++ {
		off := img.PixOffset(x, zone.Min.Y)
		for y := zone.Min.Y; y < zone.Max.Y; y++ {
			c := lights.Color{
				Red:   img.Pix[off],
				Green: img.Pix[off+1],
				Blue:  img.Pix[off+2],
			}
			off += img.Stride

			if b := c.Brightness(); b > maxBrightness {
				brightest = c
				maxBrightness = b
			}
		}
	}
	return brightest
}

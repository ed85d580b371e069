package lights

import (
	"context"

	"github.com/lucasb-eyer/go-colorful"
)

type Color struct {
	Red   uint8
	Green uint8
	Blue  uint8
}

// Brightness is the HSL lightness of the color in [0, 1].
func (c Color) Brightness() float64 {
	_, _, l := colorful.Color{
		R: float64(c.Red) / 255.0,
		G: float64(c.Green) / 255.0,
		B: float64(c.Blue) / 255.0,
	}.Hsl()
	return l
}

// Message holds the left and right edge colors, in that order.
type Message [2]Color

// Off blanks the strip.
var Off = Message{}

func (m Message) Left() Color {
	return m[0]
}

func (m Message) Right() Color {
	return m[1]
}

type Sink interface {
	// Ready reports whether the sink currently has a device to write to.
	Ready() bool
	Send(ctx context.Context, msg Message) error
	Close() error
}

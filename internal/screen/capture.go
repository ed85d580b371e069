package screen

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

type Source interface {
	Capture() (*image.RGBA, error)
}

// Display captures a whole display at its native resolution.
type Display struct {
	Number int
}

var _ Source = Display{}

func (d Display) Capture() (*image.RGBA, error) {
	if n := screenshot.NumActiveDisplays(); d.Number >= n {
		return nil, fmt.Errorf("display %d not active (%d active)", d.Number, n)
	}
	img, err := screenshot.CaptureDisplay(d.Number)
	if err != nil {
		return nil, fmt.Errorf("capturing display %d: %w", d.Number, err)
	}
	return img, nil
}

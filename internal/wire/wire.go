// Package wire encodes color messages into the line format the strip firmware
// reads from the serial port:
//
//	{"pixels":[{"r":0,"g":0,"b":0},{"r":0,"g":0,"b":0}]}
//
// Index 0 is the left zone and index 1 the right zone.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/scheerer/screen-ledstrip/lights"
)

const Terminator = '\n'

// Off is the encoded off-command.
var Off = Encode(lights.Off)

type pixel struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

type frame struct {
	Pixels []pixel `json:"pixels"`
}

// Payload returns the message without the line terminator.
func Payload(msg lights.Message) []byte {
	f := frame{Pixels: make([]pixel, 0, len(msg))}
	for _, c := range msg {
		f.Pixels = append(f.Pixels, pixel{R: c.Red, G: c.Green, B: c.Blue})
	}
	// only fixed-size integer fields, Marshal cannot fail
	b, _ := json.Marshal(f)
	return b
}

// Encode returns the message as one complete line.
func Encode(msg lights.Message) []byte {
	return append(Payload(msg), Terminator)
}

// Decode parses a single line back into a message.
func Decode(line []byte) (lights.Message, error) {
	var msg lights.Message
	var f frame
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(line)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return msg, fmt.Errorf("decoding color message: %w", err)
	}
	if len(f.Pixels) != len(msg) {
		return msg, fmt.Errorf("color message has %d pixels, want %d", len(f.Pixels), len(msg))
	}
	for i, p := range f.Pixels {
		msg[i] = lights.Color{Red: p.R, Green: p.G, Blue: p.B}
	}
	return msg, nil
}

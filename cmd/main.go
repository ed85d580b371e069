// Command main sends a single color message to the LED strip and exits.
// Useful for checking the wiring and firmware without a running session.
//
//	SERIAL_PORT=/dev/ttyUSB0 LEFT_COLOR=255,0,0 RIGHT_COLOR=0,0,255 go run ./cmd
//	SERIAL_PORT=/dev/ttyUSB0 OFF=true go run ./cmd
//	MESSAGE='{"pixels":[{"r":9,"g":9,"b":9},{"r":0,"g":0,"b":0}]}' go run ./cmd
package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scheerer/screen-ledstrip/internal/lights/serial"
	"github.com/scheerer/screen-ledstrip/internal/logging"
	"github.com/scheerer/screen-ledstrip/internal/util"
	"github.com/scheerer/screen-ledstrip/internal/wire"
	"github.com/scheerer/screen-ledstrip/lights"
)

var logger = logging.New("main")

func main() {
	defer logger.Sync()

	serialPort := util.Getenv("SERIAL_PORT", "/dev/ttyUSB0")
	baudRate := util.Getenv("BAUD_RATE", 9600)
	readTimeout := util.Getenv("READ_TIMEOUT", 5*time.Second)
	leftColor := util.Getenv("LEFT_COLOR", []int{255, 255, 255})
	rightColor := util.Getenv("RIGHT_COLOR", []int{255, 255, 255})
	off := util.Getenv("OFF", false)
	raw := util.Getenv("MESSAGE", "")

	msg := lights.Off
	switch {
	case off:
	case raw != "":
		var err error
		if msg, err = wire.Decode([]byte(raw)); err != nil {
			logger.With(zap.Error(err)).Fatal("Invalid MESSAGE")
		}
	default:
		var err error
		if msg[0], err = parseColor(leftColor); err != nil {
			logger.With(zap.Error(err)).Fatal("Invalid LEFT_COLOR")
		}
		if msg[1], err = parseColor(rightColor); err != nil {
			logger.With(zap.Error(err)).Fatal("Invalid RIGHT_COLOR")
		}
	}

	strip, err := serial.Open(serial.Config{
		Port:        serialPort,
		Baud:        baudRate,
		ReadTimeout: readTimeout,
	})
	if err != nil {
		logger.With(zap.Error(err)).Fatal("Failed to open LED strip")
	}
	defer strip.Close()

	logger.With(
		zap.String("SERIAL_PORT", serialPort),
		zap.Int("BAUD_RATE", baudRate),
		zap.ByteString("json", wire.Payload(msg))).
		Info("Sending color message")

	if err := strip.Send(context.Background(), msg); err != nil {
		logger.With(zap.Error(err)).Error("Failed to send color message")
	}
}

func parseColor(rgb []int) (lights.Color, error) {
	if len(rgb) != 3 {
		return lights.Color{}, fmt.Errorf("want r,g,b, got %d values", len(rgb))
	}
	for _, v := range rgb {
		if v < 0 || v > 255 {
			return lights.Color{}, fmt.Errorf("channel value %d out of range 0-255", v)
		}
	}
	return lights.Color{Red: uint8(rgb[0]), Green: uint8(rgb[1]), Blue: uint8(rgb[2])}, nil
}

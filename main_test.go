package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scheerer/screen-ledstrip/internal/lights/serial"
)

type nopPort struct {
	bytes.Buffer
}

func (nopPort) Close() error {
	return nil
}

func TestOpenSinkUnknownLightType(t *testing.T) {
	sink, opts, err := openSink(context.Background(), LedStripConfig{LightType: "HUE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HUE")
	assert.Nil(t, sink)
	assert.Nil(t, opts)
}

func TestOpenSinkSerialPortMissing(t *testing.T) {
	sink, _, err := openSink(context.Background(), LedStripConfig{
		LightType:  "SERIAL",
		SerialPort: "/nonexistent/ttyLED",
		BaudRate:   9600,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/ttyLED")
	assert.Nil(t, sink)
}

func TestOpenSinkReopenOnResume(t *testing.T) {
	var opened []serial.Config
	openSerial = func(config serial.Config) (*serial.Strip, error) {
		opened = append(opened, config)
		return serial.New(&nopPort{}), nil
	}
	t.Cleanup(func() { openSerial = serial.Open })

	config := LedStripConfig{LightType: "SERIAL", SerialPort: "/dev/ttyLED", BaudRate: 9600}

	sink, opts, err := openSink(context.Background(), config)
	require.NoError(t, err)
	assert.NotNil(t, sink)
	assert.Empty(t, opts)

	config.ReopenOnResume = true
	sink, opts, err = openSink(context.Background(), config)
	require.NoError(t, err)
	assert.NotNil(t, sink)
	assert.Len(t, opts, 1)

	require.Len(t, opened, 2)
	assert.Equal(t, serial.Config{Port: "/dev/ttyLED", Baud: 9600}, opened[0])
}

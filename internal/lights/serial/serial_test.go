package serial

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scheerer/screen-ledstrip/internal/wire"
	"github.com/scheerer/screen-ledstrip/lights"
)

type fakePort struct {
	bytes.Buffer
	writes  int
	closed  bool
	failing error
	short   bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.writes++
	if p.failing != nil {
		return 0, p.failing
	}
	if p.short {
		return p.Buffer.Write(b[:len(b)/2])
	}
	return p.Buffer.Write(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestSendWritesOneLine(t *testing.T) {
	port := &fakePort{}
	strip := New(port)

	msg := lights.Message{{Red: 10, Green: 20, Blue: 30}, {Red: 200, Green: 100, Blue: 5}}
	require.NoError(t, strip.Send(context.Background(), msg))
	require.NoError(t, strip.Send(context.Background(), lights.Off))

	assert.Equal(t, 2, port.writes)
	assert.Equal(t,
		`{"pixels":[{"r":10,"g":20,"b":30},{"r":200,"g":100,"b":5}]}`+"\n"+string(wire.Off),
		port.String())
	assert.True(t, strip.Ready())
}

func TestSendErrors(t *testing.T) {
	port := &fakePort{failing: errors.New("device disconnected")}
	strip := New(port)
	assert.ErrorContains(t, strip.Send(context.Background(), lights.Off), "device disconnected")

	port = &fakePort{short: true}
	strip = New(port)
	assert.ErrorContains(t, strip.Send(context.Background(), lights.Off), "short write")
}

func TestClose(t *testing.T) {
	port := &fakePort{}
	strip := New(port)

	require.NoError(t, strip.Close())
	assert.True(t, port.closed)
	require.NoError(t, strip.Close())

	assert.Error(t, strip.Send(context.Background(), lights.Off))
	assert.Equal(t, 0, port.writes)
}

func TestReopenWithoutConfigIsNoop(t *testing.T) {
	port := &fakePort{}
	strip := New(port)

	require.NoError(t, strip.Reopen(context.Background()))
	assert.False(t, port.closed)
}

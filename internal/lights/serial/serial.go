package serial

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	tarm "github.com/tarm/serial"
	"go.uber.org/zap"

	"github.com/scheerer/screen-ledstrip/internal/logging"
	"github.com/scheerer/screen-ledstrip/internal/wire"
	"github.com/scheerer/screen-ledstrip/lights"
)

var logger = logging.New("serial")

type Config struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration
}

// Strip is an LED strip controller listening for color lines on a serial port.
type Strip struct {
	config Config

	portMu sync.Mutex
	port   io.WriteCloser
}

var _ lights.Sink = (*Strip)(nil)

func Open(config Config) (*Strip, error) {
	port, err := openPort(config)
	if err != nil {
		return nil, err
	}
	logger.With(zap.String("port", config.Port), zap.Int("baud", config.Baud)).Info("Connected to LED strip")
	return &Strip{config: config, port: port}, nil
}

// New wraps an already open transport.
func New(w io.WriteCloser) *Strip {
	return &Strip{port: w}
}

func openPort(config Config) (*tarm.Port, error) {
	port, err := tarm.OpenPort(&tarm.Config{
		Name:        config.Port,
		Baud:        config.Baud,
		ReadTimeout: config.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", config.Port, err)
	}
	return port, nil
}

func (s *Strip) Ready() bool {
	return true
}

// Send writes the encoded message with a single Write call.
func (s *Strip) Send(_ context.Context, msg lights.Message) error {
	line := wire.Encode(msg)

	s.portMu.Lock()
	defer s.portMu.Unlock()

	if s.port == nil {
		return fmt.Errorf("serial port %s is closed", s.config.Port)
	}

	logger.With(zap.ByteString("json", line[:len(line)-1])).Debug("Sending color message")
	n, err := s.port.Write(line)
	if err != nil {
		return fmt.Errorf("writing color message: %w", err)
	}
	if n != len(line) {
		return fmt.Errorf("short write to serial port: %d of %d bytes", n, len(line))
	}
	return nil
}

// Reopen closes the port and opens it again with the original configuration.
// USB serial adapters are often re-enumerated after a suspend.
func (s *Strip) Reopen(_ context.Context) error {
	if s.config.Port == "" {
		return nil
	}

	s.portMu.Lock()
	defer s.portMu.Unlock()

	if s.port != nil {
		if err := s.port.Close(); err != nil {
			logger.With(zap.Error(err)).Warn("Failed to close serial port before reopening")
		}
		s.port = nil
	}

	port, err := openPort(s.config)
	if err != nil {
		return err
	}
	s.port = port
	logger.With(zap.String("port", s.config.Port)).Info("Reopened serial port")
	return nil
}

func (s *Strip) Close() error {
	s.portMu.Lock()
	defer s.portMu.Unlock()

	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

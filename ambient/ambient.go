package ambient

import (
	"context"
	"errors"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/scheerer/screen-ledstrip/internal/control"
	"github.com/scheerer/screen-ledstrip/internal/logging"
	"github.com/scheerer/screen-ledstrip/internal/screen"
	"github.com/scheerer/screen-ledstrip/lights"
)

var logger = logging.New("ambient")

const DefaultCaptureInterval = 600 * time.Millisecond

type Config struct {
	CaptureInterval time.Duration
}

// Publisher accepts the colors computed on each cycle.
type Publisher interface {
	Streaming() bool
	Publish(ctx context.Context, msg lights.Message) error
}

type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Result is the outcome of a single cycle.
type Result int

const (
	Sent Result = iota
	Paused
	CaptureFailed
	EmptyFrame
	PublishFailed
	Suppressed
)

type Scheduler struct {
	config    Config
	source    screen.Source
	publisher Publisher
	clock     Clock

	lastWarning time.Time
}

type Option func(*Scheduler)

func WithClock(clock Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

func New(config Config, source screen.Source, publisher Publisher, opts ...Option) *Scheduler {
	if config.CaptureInterval <= 0 {
		config.CaptureInterval = DefaultCaptureInterval
	}
	s := &Scheduler{
		config:    config,
		source:    source,
		publisher: publisher,
		clock:     realClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run captures, samples and publishes every CaptureInterval until ctx is done.
// The delay between cycles is fixed and is not cut short by power events.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			s.Tick(ctx)
			s.clock.Sleep(s.config.CaptureInterval)
		}
	}
}

// Tick runs one capture, sample and publish cycle. Failures are logged and
// never retried; the next cycle captures a fresh frame.
func (s *Scheduler) Tick(ctx context.Context) Result {
	if !s.publisher.Streaming() {
		return Paused
	}

	startTime := s.clock.Now()
	img, err := s.source.Capture()
	captureScreenDuration := s.clock.Now().Sub(startTime)
	if err != nil {
		logger.With(zap.Error(err)).Error("Failed to capture screen")
		return CaptureFailed
	}
	if !valid(img) {
		logger.Warn("Captured an empty frame")
		return EmptyFrame
	}

	colorCalculationStart := s.clock.Now()
	msg := screen.EdgeColors(img)
	colorCalculationDuration := s.clock.Now().Sub(colorCalculationStart)

	if ctx.Err() != nil {
		// shutting down, the session-ending off-command has the last word
		return Suppressed
	}

	logger.With(zap.Any("left", msg.Left()), zap.Any("right", msg.Right())).Debug("Publishing colors")

	publishStart := s.clock.Now()
	err = s.publisher.Publish(ctx, msg)
	publishDuration := s.clock.Now().Sub(publishStart)

	result := Sent
	switch {
	case err == nil:
	case errors.Is(err, control.ErrSuppressed):
		result = Suppressed
	default:
		logger.With(zap.Error(err)).Error("Failed to send colors to LED strip")
		result = PublishFailed
	}

	totalDuration := s.clock.Now().Sub(startTime)
	if totalDuration > s.config.CaptureInterval && s.clock.Now().Sub(s.lastWarning) > 10*time.Second {
		logger.With(
			zap.Duration("captureScreenDuration", captureScreenDuration),
			zap.Duration("colorCalculationDuration", colorCalculationDuration),
			zap.Duration("publishDuration", publishDuration),
			zap.Duration("totalDuration", totalDuration)).
			Warn("Cannot keep up with CAPTURE_INTERVAL. Consider increasing CAPTURE_INTERVAL.")
		s.lastWarning = s.clock.Now()
	}

	return result
}

func valid(img *image.RGBA) bool {
	return img != nil && !img.Rect.Empty() && len(img.Pix) >= (img.Rect.Dy()-1)*img.Stride+img.Rect.Dx()*4
}

// Package control decides what may be written to the strip.
//
// The capture loop and power/session notifications both write to the same
// sink. Every write, and every state change, happens under one mutex, so a
// steady-state color message and an off-command never interleave. While the
// system is suspended or the session is ending, the capture loop's writes are
// suppressed.
package control

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/scheerer/screen-ledstrip/internal/logging"
	"github.com/scheerer/screen-ledstrip/lights"
)

var logger = logging.New("control")

// ErrSuppressed is returned by Publish when streaming is paused.
var ErrSuppressed = errors.New("streaming suppressed")

type State int

const (
	Active State = iota
	Suspending
	Suspended
	Resuming
	// Ended is entered when the session ends. Nothing leaves it.
	Ended
)

func (s State) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case Suspending:
		return "SUSPENDING"
	case Suspended:
		return "SUSPENDED"
	case Resuming:
		return "RESUMING"
	case Ended:
		return "ENDED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Event int

const (
	SessionEnding Event = iota
	PowerSuspending
	PowerResuming
)

func (e Event) String() string {
	switch e {
	case SessionEnding:
		return "session-ending"
	case PowerSuspending:
		return "power-suspending"
	case PowerResuming:
		return "power-resuming"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Reinitializer runs when the system resumes, before streaming restarts.
type Reinitializer func(ctx context.Context) error

type Controller struct {
	sink   lights.Sink
	reinit Reinitializer

	mu    sync.Mutex
	state State
}

type Option func(*Controller)

func WithReinitializer(r Reinitializer) Option {
	return func(c *Controller) {
		c.reinit = r
	}
}

func New(sink lights.Sink, opts ...Option) *Controller {
	c := &Controller{
		sink:   sink,
		reinit: func(context.Context) error { return nil },
		state:  Active,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Streaming reports whether a capture is worth taking right now.
func (c *Controller) Streaming() bool {
	return c.State() == Active && c.sink.Ready()
}

// Publish writes a steady-state message unless streaming is paused.
func (c *Controller) Publish(ctx context.Context, msg lights.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Active {
		return ErrSuppressed
	}
	return c.sink.Send(ctx, msg)
}

// Handle applies a power or session notification. It is safe to call from any
// goroutine and returns once any resulting write has completed.
func (c *Controller) Handle(ctx context.Context, event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := logger.With(zap.Stringer("event", event), zap.Stringer("state", c.state))

	switch {
	case event == SessionEnding && (c.state == Active || c.state == Suspended):
		log.Info("Session is ending, turning off the LED strip")
		c.turnOff(ctx)
		c.state = Ended

	case event == PowerSuspending && c.state == Active:
		log.Info("System is suspending, turning off the LED strip")
		c.state = Suspending
		c.turnOff(ctx)
		c.state = Suspended

	case event == PowerResuming && c.state == Suspended:
		log.Info("System is resuming, reinitializing the LED strip")
		c.state = Resuming
		if err := c.reinit(ctx); err != nil {
			log.With(zap.Error(err)).Error("Failed to reinitialize LED strip")
		}
		c.state = Active

	default:
		log.Debug("Ignoring event")
	}
}

// turnOff must be called with mu held.
func (c *Controller) turnOff(ctx context.Context) {
	if err := c.sink.Send(ctx, lights.Off); err != nil {
		logger.With(zap.Error(err)).Error("Failed to turn off LED strip")
	}
}

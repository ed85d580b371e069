package power

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"

	"github.com/scheerer/screen-ledstrip/internal/control"
	"github.com/scheerer/screen-ledstrip/internal/logging"
)

var logger = logging.New("power")

// logind D-Bus constants
const (
	logindService   = "org.freedesktop.login1"
	logindPath      = "/org/freedesktop/login1"
	managerIface    = "org.freedesktop.login1.Manager"
	prepareSleep    = managerIface + ".PrepareForSleep"
	prepareShutdown = managerIface + ".PrepareForShutdown"
)

type Handler interface {
	Handle(ctx context.Context, event control.Event)
}

// inhibitor is a lock that holds off sleep and shutdown while taken.
type inhibitor interface {
	Acquire()
	Release()
}

// Logind watches systemd-logind for sleep and shutdown notifications.
//
// While running it holds a delay inhibitor lock, so logind waits for the
// handler to turn the strip off before the machine actually sleeps.
type Logind struct {
	conn    *dbus.Conn
	handler Handler
	lock    inhibitor
}

func NewLogind(handler Handler) (*Logind, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	err = conn.AddMatchSignal(
		dbus.WithMatchObjectPath(logindPath),
		dbus.WithMatchInterface(managerIface),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to logind signals: %w", err)
	}

	return &Logind{
		conn:    conn,
		handler: handler,
		lock:    &delayLock{conn: conn},
	}, nil
}

// Run delivers notifications to the handler until ctx is done.
func (l *Logind) Run(ctx context.Context) {
	signals := make(chan *dbus.Signal, 10)
	l.conn.Signal(signals)
	defer l.conn.RemoveSignal(signals)

	l.serve(ctx, signals)
}

// serve holds the inhibitor except between a suspend or shutdown that the
// handler has finished with and the following resume.
func (l *Logind) serve(ctx context.Context, signals <-chan *dbus.Signal) {
	l.lock.Acquire()
	defer l.lock.Release()

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				logger.Warn("D-Bus signal channel closed")
				return
			}
			event, ok := eventFromSignal(sig)
			if !ok {
				continue
			}
			logger.With(zap.String("signal", sig.Name), zap.Stringer("event", event)).Debug("Received logind signal")

			l.handler.Handle(ctx, event)

			switch event {
			case control.PowerSuspending, control.SessionEnding:
				// strip is dark, let logind proceed
				l.lock.Release()
			case control.PowerResuming:
				l.lock.Acquire()
			}
		}
	}
}

func (l *Logind) Close() error {
	l.lock.Release()
	return l.conn.Close()
}

func eventFromSignal(sig *dbus.Signal) (control.Event, bool) {
	if sig == nil || len(sig.Body) < 1 {
		return 0, false
	}
	start, ok := sig.Body[0].(bool)
	if !ok {
		return 0, false
	}

	switch sig.Name {
	case prepareSleep:
		if start {
			return control.PowerSuspending, true
		}
		return control.PowerResuming, true
	case prepareShutdown:
		if start {
			return control.SessionEnding, true
		}
	}
	return 0, false
}

// delayLock is a logind "delay" inhibitor for sleep and shutdown. logind
// holds the lock for as long as the returned file descriptor stays open.
type delayLock struct {
	conn *dbus.Conn

	mu   sync.Mutex
	file *os.File
}

func (d *delayLock) Acquire() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file != nil {
		return
	}

	var fd dbus.UnixFD
	err := d.conn.Object(logindService, logindPath).Call(
		managerIface+".Inhibit", 0,
		"sleep:shutdown",
		"screen-ledstrip",
		"Turning off the LED strip",
		"delay",
	).Store(&fd)
	if err != nil {
		logger.With(zap.Error(err)).Warn("Failed to take logind inhibitor lock, the strip may stay lit during suspend")
		return
	}
	d.file = os.NewFile(uintptr(fd), "logind-inhibitor")
}

func (d *delayLock) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return
	}
	if err := d.file.Close(); err != nil {
		logger.With(zap.Error(err)).Warn("Failed to release logind inhibitor lock")
	}
	d.file = nil
}

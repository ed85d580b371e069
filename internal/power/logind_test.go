package power

import (
	"context"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scheerer/screen-ledstrip/internal/control"
)

func TestEventFromSignal(t *testing.T) {
	tests := []struct {
		name   string
		signal *dbus.Signal
		event  control.Event
		ok     bool
	}{
		{"sleep", &dbus.Signal{Name: prepareSleep, Body: []interface{}{true}}, control.PowerSuspending, true},
		{"wake", &dbus.Signal{Name: prepareSleep, Body: []interface{}{false}}, control.PowerResuming, true},
		{"shutdown", &dbus.Signal{Name: prepareShutdown, Body: []interface{}{true}}, control.SessionEnding, true},
		{"shutdown cancelled", &dbus.Signal{Name: prepareShutdown, Body: []interface{}{false}}, 0, false},
		{"other member", &dbus.Signal{Name: managerIface + ".SessionNew", Body: []interface{}{"c1", dbus.ObjectPath("/x")}}, 0, false},
		{"empty body", &dbus.Signal{Name: prepareSleep}, 0, false},
		{"wrong type", &dbus.Signal{Name: prepareSleep, Body: []interface{}{"yes"}}, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, ok := eventFromSignal(tt.signal)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.event, event)
			}
		})
	}
}

// callLog records inhibitor and handler calls in the order serve makes them.
type callLog struct {
	calls []string
	held  bool
}

type fakeLock struct {
	log *callLog
}

func (f fakeLock) Acquire() {
	f.log.calls = append(f.log.calls, "acquire")
	f.log.held = true
}

func (f fakeLock) Release() {
	f.log.calls = append(f.log.calls, "release")
	f.log.held = false
}

type fakeHandler struct {
	log *callLog
	// heldDuring records whether the lock was held while each event was handled.
	heldDuring []bool
}

func (f *fakeHandler) Handle(_ context.Context, event control.Event) {
	f.log.calls = append(f.log.calls, "handle "+event.String())
	f.heldDuring = append(f.heldDuring, f.log.held)
}

func serveSignals(t *testing.T, signals ...*dbus.Signal) (*callLog, *fakeHandler) {
	t.Helper()
	log := &callLog{}
	handler := &fakeHandler{log: log}
	l := &Logind{handler: handler, lock: fakeLock{log: log}}

	ch := make(chan *dbus.Signal, len(signals))
	for _, sig := range signals {
		ch <- sig
	}
	close(ch)

	done := make(chan struct{})
	go func() {
		l.serve(context.Background(), ch)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "serve did not return after the signal channel closed")
	}
	return log, handler
}

func TestServeReleasesInhibitorAfterSuspendHandled(t *testing.T) {
	log, handler := serveSignals(t,
		&dbus.Signal{Name: prepareSleep, Body: []interface{}{true}},
		&dbus.Signal{Name: prepareSleep, Body: []interface{}{false}},
	)

	assert.Equal(t, []string{
		"acquire",
		"handle power-suspending",
		"release",
		"handle power-resuming",
		"acquire",
		"release",
	}, log.calls)
	assert.Equal(t, []bool{true, false}, handler.heldDuring)
}

func TestServeReleasesInhibitorAfterShutdownHandled(t *testing.T) {
	log, handler := serveSignals(t,
		&dbus.Signal{Name: managerIface + ".SessionNew", Body: []interface{}{"c1", dbus.ObjectPath("/x")}},
		&dbus.Signal{Name: prepareShutdown, Body: []interface{}{true}},
	)

	assert.Equal(t, []string{
		"acquire",
		"handle session-ending",
		"release",
		"release",
	}, log.calls)
	assert.Equal(t, []bool{true}, handler.heldDuring)
}

func TestServeStopsOnCancel(t *testing.T) {
	log := &callLog{}
	l := &Logind{handler: &fakeHandler{log: log}, lock: fakeLock{log: log}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l.serve(ctx, make(chan *dbus.Signal))

	assert.Equal(t, []string{"acquire", "release"}, log.calls)
}

package lifx

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pdf/golifx"
	"github.com/pdf/golifx/common"
	"github.com/pdf/golifx/protocol"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/scheerer/screen-ledstrip/internal/logging"
	"github.com/scheerer/screen-ledstrip/internal/util"
	"github.com/scheerer/screen-ledstrip/lights"
)

var logger = logging.New("lifx")

// TransitionDuration is how long a bulb fades between two color messages.
const TransitionDuration = 50 * time.Millisecond

// LifxLights mirrors the strip onto a LIFX group: the first half of the
// group, ordered by device ID, shows the left color and the rest the right.
type LifxLights struct {
	config Config
	client *golifx.Client

	lightsMu sync.RWMutex
	group    common.Group
}

var _ lights.Sink = (*LifxLights)(nil)

type Config struct {
	GroupName     string
	MaxBrightness float64
	MinBrightness float64
}

func NewLifx(ctx context.Context, config Config) (*LifxLights, error) {
	client, err := golifx.NewClient(&protocol.V2{})
	if err != nil {
		return nil, err
	}

	l := &LifxLights{
		config: config,
		client: client,
	}
	go l.Start(ctx)
	return l, nil
}

func (l *LifxLights) Start(ctx context.Context) {
	discoveryInterval := 15 * time.Second
	ticker := time.NewTicker(discoveryInterval)
	defer ticker.Stop()

	l.client.SetDiscoveryInterval(discoveryInterval)

	timeout := 5 * time.Second
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	l.discover(ctxWithTimeout)
	cancel()

	for {
		select {
		case <-ticker.C:
			ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
			l.discover(ctxWithTimeout)
			cancel()
		case <-ctx.Done():
			return
		}
	}
}

func (l *LifxLights) discover(ctx context.Context) {
	logger.With(zap.String("group", l.config.GroupName)).Debug("LIFX discovery starting...")

	type found struct {
		group common.Group
		err   error
	}
	completed := make(chan found, 1)
	go func() {
		g, err := l.client.GetGroupByLabel(l.config.GroupName)
		completed <- found{g, err}
	}()

	select {
	case <-ctx.Done():
		logger.With(zap.Error(ctx.Err())).Warn("LIFX discovery timed out")
	case f := <-completed:
		if f.err != nil || f.group == nil {
			logger.With(zap.Error(f.err)).Warn("Couldn't discover LIFX group")
			return
		}
		l.lightsMu.Lock()
		l.group = f.group
		l.lightsMu.Unlock()
		logger.With(zap.String("group", f.group.GetLabel())).Debug("LIFX group found")
	}
}

func (l *LifxLights) LightCount() int {
	l.lightsMu.RLock()
	defer l.lightsMu.RUnlock()

	if l.group == nil {
		return 0
	}
	return len(l.group.Lights())
}

func (l *LifxLights) Ready() bool {
	return l.LightCount() > 0
}

func (l *LifxLights) Send(_ context.Context, msg lights.Message) error {
	l.lightsMu.RLock()
	group := l.group
	l.lightsMu.RUnlock()
	if group == nil {
		return errors.New("LIFX group not discovered yet")
	}

	left, right := split(group.Lights())
	leftColor := adjustColor(newLifxColor(msg.Left()), l.config)
	rightColor := adjustColor(newLifxColor(msg.Right()), l.config)
	if len(right) == 0 {
		// a single bulb shows whichever side is brighter
		if msg.Right().Brightness() > msg.Left().Brightness() {
			leftColor = rightColor
		}
	}

	logger.With(zap.Any("message", msg),
		zap.Any("leftColor", leftColor),
		zap.Any("rightColor", rightColor)).
		Debug("Setting LIFX device colors")

	var err error
	for _, light := range left {
		err = multierr.Append(err, light.SetColor(leftColor, TransitionDuration))
	}
	for _, light := range right {
		err = multierr.Append(err, light.SetColor(rightColor, TransitionDuration))
	}
	return err
}

func (l *LifxLights) Close() error {
	return l.client.Close()
}

// split orders lights by ID and returns the left and right halves. An odd
// light out goes to the left.
func split(all []common.Light) (left, right []common.Light) {
	sorted := append([]common.Light(nil), all...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID() < sorted[j].ID() })
	mid := (len(sorted) + 1) / 2
	return sorted[:mid], sorted[mid:]
}

func newLifxColor(color lights.Color) common.Color {
	// Convert RGB to HSB using uint16
	hue, saturation, brightness := util.RgbToHsb(color.Red, color.Green, color.Blue)

	return common.Color{
		Hue:        hue,
		Saturation: saturation,
		Brightness: brightness,
		Kelvin:     3500,
	}
}

func adjustColor(color common.Color, config Config) common.Color {
	blackThreshold := 0.015 * 0xFFFF
	if color.Brightness <= uint16(blackThreshold) && color.Saturation <= uint16(blackThreshold) {
		// blackish color - turn off the light
		return common.Color{
			Hue:        0,
			Saturation: 0,
			Brightness: 0,
			Kelvin:     3500,
		}
	}

	color.Brightness = uint16(math.Min(config.MaxBrightness*0xFFFF, math.Max(config.MinBrightness*0xFFFF, float64(color.Brightness))))

	return color
}

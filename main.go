package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/caarlos0/env"
	"github.com/scheerer/screen-ledstrip/ambient"
	"github.com/scheerer/screen-ledstrip/internal/control"
	"github.com/scheerer/screen-ledstrip/internal/lights/lifx"
	"github.com/scheerer/screen-ledstrip/internal/lights/serial"
	"github.com/scheerer/screen-ledstrip/internal/logging"
	"github.com/scheerer/screen-ledstrip/internal/power"
	"github.com/scheerer/screen-ledstrip/internal/screen"
	"github.com/scheerer/screen-ledstrip/lights"
)

var (
	logger = logging.New("main")
	config = LedStripConfig{}
)

type LedStripConfig struct {
	CaptureInterval time.Duration `env:"CAPTURE_INTERVAL" envDefault:"600ms"`
	LightType       string        `env:"LIGHT_TYPE" envDefault:"SERIAL"`
	SerialPort      string        `env:"SERIAL_PORT" envDefault:"/dev/ttyUSB0"`
	BaudRate        int           `env:"BAUD_RATE" envDefault:"9600"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	ScreenNumber    int           `env:"SCREEN_NUMBER" envDefault:"0"`
	PowerEvents     bool          `env:"POWER_EVENTS" envDefault:"true"`
	ReopenOnResume  bool          `env:"REOPEN_ON_RESUME" envDefault:"false"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LightGroupName  string        `env:"LIGHT_GROUP_NAME" envDefault:"ARCADE"`
	MaxBrightness   float64       `env:"MAX_BRIGHTNESS" envDefault:"0.65"`
	MinBrightness   float64       `env:"MIN_BRIGHTNESS" envDefault:"0"`
}

func main() {
	defer logger.Sync()

	err := env.Parse(&config)
	if err != nil {
		logger.With(zap.Error(err)).Fatal("Failed to parse environment variables")
	}
	if err := logging.GetLeveler().Apply(config.LogLevel); err != nil {
		logger.With(zap.Error(err)).Warn("Ignoring invalid LOG_LEVEL entries")
	}

	logger.With(zap.Any("config", config)).Info("Starting LED strip")

	logger.Info("Adjust CAPTURE_INTERVAL to change how often the screen is captured.")
	logger.Info("Adjust LIGHT_TYPE to choose the output. Valid values are: [SERIAL, LIFX]")
	logger.Info("Adjust SERIAL_PORT and BAUD_RATE to match the LED strip controller.")
	logger.Info("Adjust SCREEN_NUMBER to target a different screen. 0 is the primary screen.")
	logger.Info("Set POWER_EVENTS=false to ignore suspend and shutdown notifications.")
	logger.Info("Set REOPEN_ON_RESUME=true to reopen the serial port after a suspend.")
	logger.Info("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(context.Background())

	sink, opts, err := openSink(ctx, config)
	if err != nil {
		logger.With(zap.Error(err)).Fatal("Failed to open LED strip")
	}

	controller := control.New(sink, opts...)

	var monitor *power.Logind
	if config.PowerEvents {
		monitor, err = power.NewLogind(controller)
		if err != nil {
			logger.With(zap.Error(err)).Warn("Power events unavailable, the strip will not turn off on suspend")
		} else {
			go monitor.Run(ctx)
		}
	}

	scheduler := ambient.New(
		ambient.Config{CaptureInterval: config.CaptureInterval},
		screen.Display{Number: config.ScreenNumber},
		controller,
	)
	go scheduler.Run(ctx)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown
	logger.Info("Shutting down")
	controller.Handle(ctx, control.SessionEnding)
	cancel()

	err = sink.Close()
	if monitor != nil {
		err = multierr.Append(err, monitor.Close())
	}
	if err != nil {
		logger.With(zap.Error(err)).Warn("Failed to release devices")
	}
}

var openSerial = serial.Open

// openSink opens the output selected by LIGHT_TYPE along with the controller
// options it needs.
func openSink(ctx context.Context, config LedStripConfig) (lights.Sink, []control.Option, error) {
	switch config.LightType {
	case "SERIAL":
		strip, err := openSerial(serial.Config{
			Port:        config.SerialPort,
			Baud:        config.BaudRate,
			ReadTimeout: config.ReadTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		var opts []control.Option
		if config.ReopenOnResume {
			opts = append(opts, control.WithReinitializer(strip.Reopen))
		}
		return strip, opts, nil
	case "LIFX":
		sink, err := lifx.NewLifx(ctx, lifx.Config{
			GroupName:     config.LightGroupName,
			MinBrightness: config.MinBrightness,
			MaxBrightness: config.MaxBrightness,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("creating LIFX light service: %w", err)
		}
		return sink, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown light type: %v", config.LightType)
	}
}

package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var leveler = &levelSetter{
	fallback: zap.InfoLevel,
	levels:   make(map[string]zap.AtomicLevel),
}

func config(level zap.AtomicLevel) zap.Config {
	encoder := zap.NewProductionEncoderConfig()
	encoder.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encoder.EncodeDuration = zapcore.StringDurationEncoder

	return zap.Config{
		Level:            level,
		Encoding:         "console",
		EncoderConfig:    encoder,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

type Leveler interface {
	SetLevel(name string, level zapcore.Level)
	// SetAll changes the level of every logger, including ones created later.
	SetAll(level zapcore.Level)
	// Apply reads a LOG_LEVEL value such as "warn" or "info,power=debug".
	Apply(spec string) error
}

type levelSetter struct {
	mu       sync.Mutex
	fallback zapcore.Level
	levels   map[string]zap.AtomicLevel
}

var _ Leveler = (*levelSetter)(nil)

func GetLeveler() Leveler {
	return leveler
}

func (ls *levelSetter) SetLevel(name string, level zapcore.Level) {
	ls.level(name).SetLevel(level)
}

func (ls *levelSetter) SetAll(level zapcore.Level) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.fallback = level
	for _, l := range ls.levels {
		l.SetLevel(level)
	}
}

// Apply sets the bare level first so that per-logger entries win regardless
// of their position. Unparsable entries are reported and skipped.
func (ls *levelSetter) Apply(spec string) error {
	var err error
	named := make(map[string]zapcore.Level)
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, text, ok := strings.Cut(entry, "=")
		if !ok {
			name, text = "", entry
		}
		level, parseErr := zapcore.ParseLevel(strings.TrimSpace(text))
		if parseErr != nil {
			err = multierr.Append(err, fmt.Errorf("log level %q: %w", entry, parseErr))
			continue
		}
		if name == "" {
			ls.SetAll(level)
			continue
		}
		named[strings.TrimSpace(name)] = level
	}
	for name, level := range named {
		ls.SetLevel(name, level)
	}
	return err
}

// level returns the shared atomic level for name, registering it at the
// fallback level on first use.
func (ls *levelSetter) level(name string) zap.AtomicLevel {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	l, ok := ls.levels[name]
	if !ok {
		l = zap.NewAtomicLevelAt(ls.fallback)
		ls.levels[name] = l
	}
	return l
}

func New(name string) *zap.SugaredLogger {
	c := config(leveler.level(name))
	return zap.Must(c.Build(zap.AddStacktrace(zapcore.PanicLevel))).Named(name).Sugar()
}

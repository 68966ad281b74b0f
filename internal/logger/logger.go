package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. format is "console" or "json".
func New(level, format string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch strings.ToLower(format) {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("log format %q: want console or json", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Gocron adapts a zap logger to gocron's Logger interface.
type Gocron struct {
	L *zap.SugaredLogger
}

func (g Gocron) Debug(msg string, args ...any) { g.L.Debugw(msg, args...) }
func (g Gocron) Info(msg string, args ...any)  { g.L.Infow(msg, args...) }
func (g Gocron) Warn(msg string, args ...any)  { g.L.Warnw(msg, args...) }
func (g Gocron) Error(msg string, args ...any) { g.L.Errorw(msg, args...) }

package logging

import (
	"errors"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapTraceLevel sits one step below debug; zap has no trace level of its own.
const zapTraceLevel = zapcore.DebugLevel - 1

// Compile-time interface check.
var _ Log = (*zapLog)(nil)

type zapLog struct {
	logger *zap.Logger
}

// NewZap adapts a *zap.Logger, naming it name.
func NewZap(logger *zap.Logger, name string) Log {
	return &zapLog{
		logger: logger.Named(name).With(zap.String("component", "sqlscope")),
	}
}

// ZapAdapter returns an Implementation backed by base.
// It fails to initialize when base is nil.
func ZapAdapter(base *zap.Logger) Implementation {
	return Implementation{
		Name: "zap",
		New: func(name string) (Log, error) {
			if base == nil {
				return nil, errors.New("zap logger is nil")
			}
			return NewZap(base, name), nil
		},
	}
}

// zapConfigAdapter builds the zap logger lazily so that a bad output path
// surfaces as an initialization failure. build runs at most once; every
// named logger shares the resulting sinks.
func zapConfigAdapter(build func() (*zap.Logger, error)) Implementation {
	base := sync.OnceValues(build)
	return Implementation{
		Name: "zap",
		New: func(name string) (Log, error) {
			logger, err := base()
			if err != nil {
				return nil, err
			}
			return NewZap(logger, name), nil
		},
	}
}

func (l *zapLog) IsDebugEnabled() bool {
	return l.logger.Core().Enabled(zapcore.DebugLevel)
}

func (l *zapLog) IsTraceEnabled() bool {
	return l.logger.Core().Enabled(zapTraceLevel)
}

func (l *zapLog) Debug(msg string) {
	l.logger.Debug(msg)
}

func (l *zapLog) Trace(msg string) {
	if ce := l.logger.Check(zapTraceLevel, msg); ce != nil {
		ce.Write()
	}
}

func (l *zapLog) Warn(msg string) {
	l.logger.Warn(msg)
}

func (l *zapLog) Error(msg string, err error) {
	if err != nil {
		l.logger.Error(msg, zap.Error(err))
		return
	}
	l.logger.Error(msg)
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case LevelTrace:
		return zapTraceLevel
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.FatalLevel + 1
	}
}

package logging

import (
	"github.com/rs/zerolog"
)

// Compile-time interface check.
var _ Log = (*zerologLog)(nil)

type zerologLog struct {
	logger zerolog.Logger
}

// NewZerolog adapts a zerolog.Logger. Every entry carries the logger name
// in the "logger" field.
func NewZerolog(logger zerolog.Logger, name string) Log {
	return &zerologLog{
		logger: logger.With().
			Str("component", "sqlscope").
			Str("logger", name).
			Logger(),
	}
}

// ZerologAdapter returns an Implementation backed by base.
func ZerologAdapter(base zerolog.Logger) Implementation {
	return Implementation{
		Name: "zerolog",
		New: func(name string) (Log, error) {
			return NewZerolog(base, name), nil
		},
	}
}

func (l *zerologLog) enabled(level zerolog.Level) bool {
	return l.logger.GetLevel() <= level && zerolog.GlobalLevel() <= level
}

func (l *zerologLog) IsDebugEnabled() bool {
	return l.enabled(zerolog.DebugLevel)
}

func (l *zerologLog) IsTraceEnabled() bool {
	return l.enabled(zerolog.TraceLevel)
}

func (l *zerologLog) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

func (l *zerologLog) Trace(msg string) {
	l.logger.Trace().Msg(msg)
}

func (l *zerologLog) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

func (l *zerologLog) Error(msg string, err error) {
	l.logger.Error().Err(err).Msg(msg)
}

func zerologLevel(level Level) zerolog.Level {
	switch level {
	case LevelTrace:
		return zerolog.TraceLevel
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}

// Package logging is the sink that sqlscope writes its statement traces to.
//
// The rest of the module only sees the Log interface. Which backend sits
// behind it is decided once, by a Factory, from an ordered list of
// candidate implementations: the first one that initializes wins.
//
//	factory := logging.NewFactory(
//	    logging.ZerologAdapter(zerolog.New(os.Stdout).Level(zerolog.TraceLevel)),
//	    logging.ZapAdapter(zapLogger),
//	)
//	log, err := factory.GetLog("users")
package logging

import (
	"fmt"
	"strings"
)

// Log is the minimal logging capability consumed by sqlscope.
type Log interface {
	IsDebugEnabled() bool
	IsTraceEnabled() bool
	Debug(msg string)
	Trace(msg string)
	Warn(msg string)
	// Error logs msg at error level; err may be nil.
	Error(msg string, err error)
}

// Level is a logging threshold shared by every backend.
type Level int8

const (
	LevelTrace Level = iota - 1
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelDisabled
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("level(%d)", int8(l))
	}
}

// ParseLevel converts a level name into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "disabled", "off":
		return LevelDisabled, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"go.uber.org/zap"
)

// Backend names accepted in Config.Backend.
const (
	BackendAuto    = ""
	BackendZerolog = "zerolog"
	BackendZap     = "zap"
	BackendNop     = "nop"
)

// Config selects and configures the logging backend.
//
// Example:
//
//	{"backend": "zap", "level": "trace", "output": "stderr", "format": "console"}
type Config struct {
	// Backend is one of "zerolog", "zap" or "nop".
	// When empty, zerolog is tried first and zap second.
	Backend string `json:"backend"`

	// Level is the minimum level written. Statement lines are debug,
	// row lines are trace.
	Level Level `json:"level"`

	// Output is "stdout", "stderr" or, for zap, a file path.
	Output string `json:"output"`

	// Format is "json" or "console".
	Format string `json:"format"`
}

// DefaultConfig returns info-level JSON logging to stdout with automatic
// backend selection.
func DefaultConfig() Config {
	return Config{
		Backend: BackendAuto,
		Level:   LevelInfo,
		Output:  "stdout",
		Format:  "json",
	}
}

// LoadConfig decodes a JSON document on top of DefaultConfig.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode logging config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendZerolog, BackendZap, BackendNop:
	default:
		return fmt.Errorf("unknown logging backend %q", c.Backend)
	}

	switch c.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown logging format %q", c.Format)
	}

	return nil
}

// Implementations returns the candidate backends in preference order,
// ready to be passed to NewFactory.
func (c Config) Implementations() ([]Implementation, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	switch c.Backend {
	case BackendZerolog:
		return []Implementation{c.zerologImplementation()}, nil
	case BackendZap:
		return []Implementation{c.zapImplementation()}, nil
	case BackendNop:
		return []Implementation{NopAdapter()}, nil
	default:
		return []Implementation{c.zerologImplementation(), c.zapImplementation()}, nil
	}
}

func (c Config) zerologImplementation() Implementation {
	return Implementation{
		Name: "zerolog",
		New: func(name string) (Log, error) {
			var w io.Writer
			switch strings.ToLower(c.Output) {
			case "", "stdout":
				w = os.Stdout
			case "stderr":
				w = os.Stderr
			default:
				return nil, fmt.Errorf("zerolog output %q is not supported", c.Output)
			}
			if c.Format == "console" {
				w = zerolog.ConsoleWriter{Out: w}
			}

			base := zerolog.New(w).
				Level(zerologLevel(c.Level)).
				With().
				Timestamp().
				Logger()
			return NewZerolog(base, name), nil
		},
	}
}

func (c Config) zapImplementation() Implementation {
	zc := zap.NewProductionConfig()
	if c.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(zapLevel(c.Level))
	zc.Sampling = nil

	output := c.Output
	if output == "" {
		output = "stdout"
	}
	zc.OutputPaths = []string{output}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zapConfigAdapter(func() (*zap.Logger, error) { return zc.Build() })
}

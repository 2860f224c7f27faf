package logging

import (
	"sync"

	"github.com/kroma-labs/sqlscope/sqlerr"
)

// factoryLogName is the logger the factory announces itself on.
const factoryLogName = "github.com/kroma-labs/sqlscope/logging"

// Implementation is a named logging backend constructor.
type Implementation struct {
	Name string
	New  func(name string) (Log, error)
}

// Factory hands out loggers from a single selected Implementation.
type Factory struct {
	mu   sync.Mutex
	impl Implementation
}

// NewFactory selects the first candidate whose constructor succeeds.
// Failing candidates are skipped silently. When none succeeds the factory
// falls back to the no-op implementation.
func NewFactory(candidates ...Implementation) *Factory {
	f := &Factory{}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range candidates {
		if err := f.setLocked(c); err == nil {
			return f
		}
	}
	f.impl = NopAdapter()
	return f
}

// Use installs impl explicitly, replacing the current selection.
// The previous selection is kept if impl fails to initialize.
func (f *Factory) Use(impl Implementation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setLocked(impl)
}

func (f *Factory) setLocked(impl Implementation) error {
	if impl.New == nil {
		return sqlerr.New(sqlerr.KindLog, "Error setting Log implementation.  Cause: nil constructor")
	}

	probe, err := impl.New(factoryLogName)
	if err != nil {
		return sqlerr.Wrapf(sqlerr.KindLog, err, "Error setting Log implementation.")
	}
	if probe.IsDebugEnabled() {
		probe.Debug("Logging initialized using '" + impl.Name + "' adapter.")
	}
	f.impl = impl
	return nil
}

// Name returns the name of the selected implementation.
func (f *Factory) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.impl.Name
}

// GetLog returns a logger called name from the selected implementation.
func (f *Factory) GetLog(name string) (Log, error) {
	f.mu.Lock()
	impl := f.impl
	f.mu.Unlock()

	if impl.New == nil {
		impl = NopAdapter()
	}

	log, err := impl.New(name)
	if err != nil {
		return nil, sqlerr.Wrapf(sqlerr.KindLog, err, "Error creating logger for logger %s.", name)
	}
	return log, nil
}

var (
	defaultMu      sync.Mutex
	defaultFactory *Factory
)

// Default returns the process-wide factory, building it from
// DefaultConfig on first use.
func Default() *Factory {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultFactory == nil {
		impls, err := DefaultConfig().Implementations()
		if err != nil {
			impls = nil
		}
		defaultFactory = NewFactory(impls...)
	}
	return defaultFactory
}

// SetDefault replaces the process-wide factory.
func SetDefault(f *Factory) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultFactory = f
}

package logging

import (
	"sync"
)

// Compile-time interface check.
var _ Log = (*Recorder)(nil)

// Entry is one line captured by a Recorder.
type Entry struct {
	Level   Level
	Message string
	Err     error
}

// Recorder is an in-memory Log. Entries below its level are dropped, the
// same way a real backend would drop them.
//
// It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	level   Level
	entries []Entry
}

// NewRecorder returns a Recorder that keeps entries at level and above.
func NewRecorder(level Level) *Recorder {
	return &Recorder{level: level}
}

// Adapter returns an Implementation whose loggers all write to r.
func (r *Recorder) Adapter() Implementation {
	return Implementation{
		Name: "recorder",
		New: func(string) (Log, error) {
			return r, nil
		},
	}
}

func (r *Recorder) IsDebugEnabled() bool { return r.enabled(LevelDebug) }
func (r *Recorder) IsTraceEnabled() bool { return r.enabled(LevelTrace) }

func (r *Recorder) Debug(msg string)            { r.add(LevelDebug, msg, nil) }
func (r *Recorder) Trace(msg string)            { r.add(LevelTrace, msg, nil) }
func (r *Recorder) Warn(msg string)             { r.add(LevelWarn, msg, nil) }
func (r *Recorder) Error(msg string, err error) { r.add(LevelError, msg, err) }

func (r *Recorder) enabled(level Level) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.level <= level
}

func (r *Recorder) add(level Level, msg string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.level > level {
		return
	}
	r.entries = append(r.entries, Entry{Level: level, Message: msg, Err: err})
}

// SetLevel changes the threshold for subsequent entries.
func (r *Recorder) SetLevel(level Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.level = level
}

// Entries returns a copy of everything captured so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Messages returns the captured messages, optionally filtered to levels.
func (r *Recorder) Messages(levels ...Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		if len(levels) > 0 && !containsLevel(levels, e.Level) {
			continue
		}
		out = append(out, e.Message)
	}
	return out
}

// Reset drops every captured entry.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

func containsLevel(levels []Level, l Level) bool {
	for _, lv := range levels {
		if lv == l {
			return true
		}
	}
	return false
}

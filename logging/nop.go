package logging

var _ Log = nopLog{}

type nopLog struct{}

// Nop returns a Log with every level disabled.
func Nop() Log { return nopLog{} }

// NopAdapter returns the Implementation used when nothing else initializes.
func NopAdapter() Implementation {
	return Implementation{
		Name: "nop",
		New: func(string) (Log, error) {
			return nopLog{}, nil
		},
	}
}

func (nopLog) IsDebugEnabled() bool { return false }
func (nopLog) IsTraceEnabled() bool { return false }
func (nopLog) Debug(string)         {}
func (nopLog) Trace(string)         {}
func (nopLog) Warn(string)          {}
func (nopLog) Error(string, error)  {}

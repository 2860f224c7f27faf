// Package sqlerr defines the persistence error taxonomy surfaced by sqlscope
// and the helper that folds an errctx trail into the reported message.
package sqlerr

import (
	"context"
	"errors"
	"fmt"

	"github.com/kroma-labs/sqlscope/errctx"
)

// Kind classifies a persistence failure by the layer that raised it.
type Kind int

const (
	KindPersistence Kind = iota
	KindTooManyResults
	KindExecutor
	KindBinding
	KindBuilder
	KindCache
	KindDataSource
	KindLog
	KindParsing
	KindPlugin
	KindReflection
	KindScripting
	KindSession
	KindTransaction
	KindType
)

var kindNames = [...]string{
	KindPersistence:    "persistence",
	KindTooManyResults: "too_many_results",
	KindExecutor:       "executor",
	KindBinding:        "binding",
	KindBuilder:        "builder",
	KindCache:          "cache",
	KindDataSource:     "datasource",
	KindLog:            "log",
	KindParsing:        "parsing",
	KindPlugin:         "plugin",
	KindReflection:     "reflection",
	KindScripting:      "scripting",
	KindSession:        "session",
	KindTransaction:    "transaction",
	KindType:           "type",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrPersistence    = &Error{Kind: KindPersistence}
	ErrTooManyResults = &Error{Kind: KindTooManyResults}
	ErrExecutor       = &Error{Kind: KindExecutor}
	ErrBinding        = &Error{Kind: KindBinding}
	ErrBuilder        = &Error{Kind: KindBuilder}
	ErrCache          = &Error{Kind: KindCache}
	ErrDataSource     = &Error{Kind: KindDataSource}
	ErrLog            = &Error{Kind: KindLog}
	ErrParsing        = &Error{Kind: KindParsing}
	ErrPlugin         = &Error{Kind: KindPlugin}
	ErrReflection     = &Error{Kind: KindReflection}
	ErrScripting      = &Error{Kind: KindScripting}
	ErrSession        = &Error{Kind: KindSession}
	ErrTransaction    = &Error{Kind: KindTransaction}
	ErrType           = &Error{Kind: KindType}
)

// Error is a classified persistence failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String() + " error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind that carries no message,
// which is how the package sentinels are built.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// New returns an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrapf returns an error of the given kind wrapping err, formatted as
// "<msg>  Cause: <err>".
func Wrapf(kind Kind, err error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg += "  Cause: " + err.Error()
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Wrap records message and err on the error context attached to ctx and
// returns a persistence error whose text is the rendered context.
// A nil err yields nil.
func Wrap(ctx context.Context, message string, err error) error {
	if err == nil {
		return nil
	}
	return WrapContext(errctx.FromContext(ctx), message, err)
}

// WrapContext is Wrap for an explicit error context.
func WrapContext(ec *errctx.ErrorContext, message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind: KindPersistence,
		Msg:  ec.Message(message).Cause(err).String(),
		Err:  err,
	}
}

// IsKind reports whether err or anything it wraps is an *Error of kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// Package errctx accumulates human-readable breadcrumbs about the database
// work in flight so that a failure report can say where it happened.
//
// The context is scoped to a unit of work rather than a goroutine: attach a
// slot with NewContext at the start of the unit and reach the current
// ErrorContext from anywhere below it with FromContext.
//
//	ctx = errctx.NewContext(ctx)
//	ec := errctx.FromContext(ctx).Store().Activity("loading user").SQL(query)
//	defer ec.Recall()
//
// Rendered output is consumed by sqlerr and by anything that scans for the
// "### " markers, so its layout is stable.
package errctx

import (
	"context"
	"strings"
)

const (
	lineSeparator = "\n"
	marker        = "### "
)

// ErrorContext holds the diagnostic fields of the current unit of work.
//
// An ErrorContext is confined to one logical caller and is not safe for
// concurrent use.
type ErrorContext struct {
	slot   *slot
	stored *ErrorContext

	resource string
	activity string
	object   string
	message  string
	sql      string
	cause    error
}

// slot is the per-unit cell holding the current ErrorContext.
type slot struct {
	current *ErrorContext
}

type slotKey struct{}

// NewContext returns a copy of ctx carrying a fresh, empty slot.
// Contexts derived from the result share the slot; a parent context and
// its siblings do not see it.
func NewContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, slotKey{}, &slot{})
}

// HasSlot reports whether ctx carries a slot attached by NewContext.
func HasSlot(ctx context.Context) bool {
	_, ok := ctx.Value(slotKey{}).(*slot)
	return ok
}

// FromContext returns the current ErrorContext of the slot attached to ctx,
// creating it on first access.
//
// Without a slot a detached ErrorContext is returned: it behaves normally
// but is not visible to later callers.
func FromContext(ctx context.Context) *ErrorContext {
	if ctx != nil {
		if s, ok := ctx.Value(slotKey{}).(*slot); ok {
			return s.get()
		}
	}
	return &ErrorContext{}
}

func (s *slot) get() *ErrorContext {
	if s.current == nil {
		s.current = &ErrorContext{slot: s}
	}
	return s.current
}

// Store saves the receiver and installs a fresh context as current.
// The returned context starts empty; Recall on it brings the receiver back.
func (e *ErrorContext) Store() *ErrorContext {
	next := &ErrorContext{slot: e.slot, stored: e}
	if e.slot != nil {
		e.slot.current = next
	}
	return next
}

// Recall restores the context saved by the matching Store and returns it.
// Without a saved context it returns the current one unchanged.
func (e *ErrorContext) Recall() *ErrorContext {
	if e.stored == nil {
		if e.slot != nil {
			return e.slot.get()
		}
		return e
	}

	prev := e.stored
	e.stored = nil
	if e.slot != nil {
		e.slot.current = prev
		return e.slot.current
	}
	return prev
}

// Reset clears every field and detaches the context from its slot, so the
// next FromContext on the same unit starts from scratch.
func (e *ErrorContext) Reset() *ErrorContext {
	e.resource = ""
	e.activity = ""
	e.object = ""
	e.message = ""
	e.sql = ""
	e.cause = nil
	if e.slot != nil && e.slot.current == e {
		e.slot.current = nil
	}
	return e
}

// Resource names the mapper file, table or service the failing work belongs to.
func (e *ErrorContext) Resource(resource string) *ErrorContext {
	e.resource = resource
	return e
}

// Activity describes what was being done, e.g. "setting parameters".
func (e *ErrorContext) Activity(activity string) *ErrorContext {
	e.activity = activity
	return e
}

// Object names the statement or entity involved.
func (e *ErrorContext) Object(object string) *ErrorContext {
	e.object = object
	return e
}

// Message sets the headline of the report.
func (e *ErrorContext) Message(message string) *ErrorContext {
	e.message = message
	return e
}

// SQL records the statement text being run.
func (e *ErrorContext) SQL(sql string) *ErrorContext {
	e.sql = sql
	return e
}

// Cause records the underlying error.
func (e *ErrorContext) Cause(cause error) *ErrorContext {
	e.cause = cause
	return e
}

// Fields returns a snapshot of the populated fields keyed by label.
// It is meant for structured loggers; String is the canonical form.
func (e *ErrorContext) Fields() map[string]string {
	fields := make(map[string]string, 6)
	put := func(k, v string) {
		if v != "" {
			fields[k] = v
		}
	}
	put("message", e.message)
	put("resource", e.resource)
	put("object", e.object)
	put("activity", e.activity)
	put("sql", cleanSQL(e.sql))
	if e.cause != nil {
		fields["cause"] = e.cause.Error()
	}
	return fields
}

// String renders the populated fields, one "### " line each, in the order
// message, resource, object, activity, sql, cause.
func (e *ErrorContext) String() string {
	var sb strings.Builder

	if e.message != "" {
		sb.WriteString(lineSeparator)
		sb.WriteString(marker)
		sb.WriteString(e.message)
	}

	if e.resource != "" {
		sb.WriteString(lineSeparator)
		sb.WriteString(marker)
		sb.WriteString("The error may exist in ")
		sb.WriteString(e.resource)
	}

	if e.object != "" {
		sb.WriteString(lineSeparator)
		sb.WriteString(marker)
		sb.WriteString("The error may involve ")
		sb.WriteString(e.object)
	}

	if e.activity != "" {
		sb.WriteString(lineSeparator)
		sb.WriteString(marker)
		sb.WriteString("The error occurred while ")
		sb.WriteString(e.activity)
	}

	if e.sql != "" {
		sb.WriteString(lineSeparator)
		sb.WriteString(marker)
		sb.WriteString("SQL: ")
		sb.WriteString(cleanSQL(e.sql))
	}

	if e.cause != nil {
		sb.WriteString(lineSeparator)
		sb.WriteString(marker)
		sb.WriteString("Cause: ")
		sb.WriteString(e.cause.Error())
	}

	return sb.String()
}

var sqlReplacer = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")

func cleanSQL(sql string) string {
	return strings.TrimSpace(sqlReplacer.Replace(sql))
}

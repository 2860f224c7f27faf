package sqllog

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/lib/pq"
)

// describe renders a bound value. SQL arrays print as "[e1, e2]" with
// nested arrays expanded; everything else uses its own string form.
func describe(v any) string {
	if ga, ok := v.(pq.GenericArray); ok {
		return describeGenericArray(ga)
	}
	if ga, ok := v.(*pq.GenericArray); ok && ga != nil {
		return describeGenericArray(*ga)
	}

	rv := reflect.ValueOf(v)
	if isArray(rv) {
		return describeArray(rv)
	}
	return fmt.Sprint(v)
}

// describeGenericArray falls back to the plain form when the wrapped
// value is not something that can be walked as an array.
func describeGenericArray(ga pq.GenericArray) string {
	rv := reflect.ValueOf(ga.A)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return fmt.Sprint(ga)
		}
		rv = rv.Elem()
	}
	if !isArray(rv) {
		return fmt.Sprint(ga)
	}
	return describeArray(rv)
}

func isArray(rv reflect.Value) bool {
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Slice:
		return rv.Type().Elem().Kind() != reflect.Uint8
	case reflect.Array:
		return true
	default:
		return false
	}
}

func describeArray(rv reflect.Value) string {
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return "null"
	}

	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = describeElement(rv.Index(i))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func describeElement(ev reflect.Value) string {
	for ev.Kind() == reflect.Interface || ev.Kind() == reflect.Pointer {
		if ev.IsNil() {
			return "null"
		}
		ev = ev.Elem()
	}
	if isArray(ev) {
		return describeArray(ev)
	}
	return fmt.Sprint(ev.Interface())
}

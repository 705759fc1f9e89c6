// Package internal holds small helpers shared across the module's packages.
package internal

import "reflect"

// IsTypedNil reports whether v is nil, or is a non-nil interface value
// wrapping a nil pointer/map/slice/chan/func — the case a plain `b == nil`
// comparison misses once a concrete nil has been boxed into an interface.
func IsTypedNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

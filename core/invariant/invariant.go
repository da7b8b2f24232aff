// Package invariant provides small panic-based contract assertions used at
// the boundaries of the evaluator and host packages. These are bugs-as-panics
// checks for conditions the caller controls (nil arguments, internal
// postconditions) -- never for data the script author controls, which must
// always surface as a RuntimeError instead.
package invariant

import (
	"fmt"
	"reflect"
)

// NotNil panics if v is nil. v is typically an interface or pointer
// argument that the rest of the function dereferences unconditionally.
func NotNil(v any, name string) {
	if v == nil {
		panic(fmt.Sprintf("invariant: %s must not be nil", name))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if rv.IsNil() {
			panic(fmt.Sprintf("invariant: %s must not be nil", name))
		}
	}
}

// Precondition panics with a formatted message if cond is false.
func Precondition(cond bool, format string, args ...any) {
	if !cond {
		panic("precondition failed: " + fmt.Sprintf(format, args...))
	}
}

// Postcondition panics with a formatted message if cond is false.
func Postcondition(cond bool, format string, args ...any) {
	if !cond {
		panic("postcondition failed: " + fmt.Sprintf(format, args...))
	}
}

// Invariant panics with a formatted message if cond is false. Used for
// "this branch should be unreachable" style checks.
func Invariant(cond bool, format string, args ...any) {
	if !cond {
		panic("invariant violated: " + fmt.Sprintf(format, args...))
	}
}

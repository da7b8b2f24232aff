// Package value implements the WFL runtime value universe (spec §3.1)
// together with the lexically-scoped Environment (spec §3.2) that
// Function values hold a weak back-reference to. The two live in one
// package because a Function's closure environment and an Environment
// binding's Value are mutually referential; Go has no forward
// declarations across packages, so (as in most tree-walking Go
// interpreters) object model and scope chain share a package.
package value

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Value is the tagged sum described in spec §3.1. Every concrete type
// below implements it; the set is closed (no external implementations
// are expected), matching the Rust enum it mirrors.
type Value interface {
	TypeName() string
	Display() string
	Truthy() bool
	valueMarker()
}

// ---- Number ----

type Number float64

func (Number) TypeName() string   { return "number" }
func (n Number) Display() string  { return formatNumber(float64(n)) }
func (n Number) Truthy() bool     { return float64(n) != 0 }
func (Number) valueMarker()       {}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// ---- Text ----

type Text string

func (Text) TypeName() string  { return "text" }
func (t Text) Display() string { return string(t) }
func (t Text) Truthy() bool    { return len(t) != 0 }
func (Text) valueMarker()      {}

// ---- Bool ----

type Bool bool

func (Bool) TypeName() string  { return "boolean" }
func (b Bool) Display() string { return fmt.Sprintf("%t", bool(b)) }
func (b Bool) Truthy() bool    { return bool(b) }
func (Bool) valueMarker()      {}

// ---- Null / Nothing (single unit value; spec §3.1) ----

type nullType struct{}

func (nullType) TypeName() string { return "nothing" }
func (nullType) Display() string  { return "nothing" }
func (nullType) Truthy() bool     { return false }
func (nullType) valueMarker()     {}

// Null is the single shared instance of the unit value.
var Null Value = nullType{}

// IsNull reports whether v is the Null/Nothing value.
func IsNull(v Value) bool {
	_, ok := v.(nullType)
	return ok
}

// ---- List — shared-mutable ordered sequence (reference semantics) ----

type List struct {
	Elements []Value
}

func NewList(elems ...Value) *List { return &List{Elements: elems} }

func (*List) TypeName() string { return "list" }
func (l *List) Display() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.Display()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (l *List) Truthy() bool { return len(l.Elements) != 0 }
func (*List) valueMarker()   {}

// ---- Object — shared-mutable Text-keyed map (reference semantics) ----

type Object struct {
	Entries map[string]Value
	// order preserves insertion order for `keys`/`values`/Display even
	// though spec §3.1 says "insertion order not significant" for the
	// map itself -- deterministic iteration (component table, §2) still
	// requires *some* fixed order, so we track insertion order.
	order []string
}

func NewObject() *Object {
	return &Object{Entries: make(map[string]Value)}
}

func (o *Object) Set(key string, v Value) {
	if _, exists := o.Entries[key]; !exists {
		o.order = append(o.order, key)
	}
	o.Entries[key] = v
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.Entries[key]
	return v, ok
}

func (o *Object) Delete(key string) {
	if _, exists := o.Entries[key]; exists {
		delete(o.Entries, key)
		for i, k := range o.order {
			if k == key {
				o.order = append(o.order[:i], o.order[i+1:]...)
				break
			}
		}
	}
}

// Keys returns keys in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

func (*Object) TypeName() string { return "object" }
func (o *Object) Display() string {
	keys := o.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, o.Entries[k].Display())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (o *Object) Truthy() bool { return len(o.Entries) != 0 }
func (*Object) valueMarker()   {}

// SortedKeys is a convenience used by shallow directory listings
// (spec §4.4.8: "Filenames in shallow listings are sorted
// lexicographically") and anywhere else deterministic key order matters.
func SortedKeys(o *Object) []string {
	keys := o.Keys()
	sort.Strings(keys)
	return keys
}

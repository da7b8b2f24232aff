package value

import "math"

// Equal implements spec §4.3 equality: numbers compare within
// f64::EPSILON, texts by content, bools by value, Null==Null,
// otherwise not equal.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		return ok && math.Abs(float64(av)-float64(bv)) < epsilon
	case Text:
		bv, ok := b.(Text)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case nullType:
		return IsNull(b)
	default:
		return false
	}
}

// epsilon mirrors Rust's f64::EPSILON (2.220446049250313e-16).
const epsilon = 2.220446049250313e-16

// Less implements the `<`/`>`/`<=`/`>=` ordering over Numbers and Texts
// (spec §4.3, lexicographic for Text).
func Less(a, b Value) (bool, bool) {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		if !ok {
			return false, false
		}
		return av < bv, true
	case Text:
		bv, ok := b.(Text)
		if !ok {
			return false, false
		}
		return av < bv, true
	default:
		return false, false
	}
}

// Contains implements spec §4.3: List contains Value (element-equal),
// Object contains Text key, Text contains Text substring.
func Contains(container, needle Value) (bool, bool) {
	switch c := container.(type) {
	case *List:
		for _, e := range c.Elements {
			if Equal(e, needle) {
				return true, true
			}
		}
		return false, true
	case *Object:
		key, ok := needle.(Text)
		if !ok {
			return false, false
		}
		_, exists := c.Entries[string(key)]
		return exists, true
	case Text:
		sub, ok := needle.(Text)
		if !ok {
			return false, false
		}
		return containsSubstring(string(c), string(sub)), true
	default:
		return false, false
	}
}

func containsSubstring(s, sub string) bool {
	if len(sub) == 0 {
		return true
	}
	return indexOf(s, sub) >= 0
}

func indexOf(s, sub string) int {
	n, m := len(s), len(sub)
	if m > n {
		return -1
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == sub {
			return i
		}
	}
	return -1
}

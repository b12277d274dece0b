package value

import "fmt"

// Equal reports value equality.
//
//   - Arrays are equal when lengths match and every element is Equal
//   - Integers and floats compare numerically across kinds
//   - Strings and symbols never equal each other
//   - Classes and instances compare by identity
//   - Blank equals nothing
func Equal(a, b Value) bool {
	if a == nil {
		a = Nil{}
	}
	if b == nil {
		b = Nil{}
	}

	switch x := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		switch y := b.(type) {
		case Int:
			return x == y
		case Float:
			return float64(x) == float64(y)
		}
		return false
	case Float:
		switch y := b.(type) {
		case Float:
			return x == y
		case Int:
			return float64(x) == float64(y)
		}
		return false
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Symbol:
		y, ok := b.(Symbol)
		return ok && x == y
	case Array:
		y, ok := b.(Array)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Class:
		y, ok := b.(*Class)
		return ok && x == y
	case *Instance:
		y, ok := b.(*Instance)
		return ok && x == y
	default:
		return false
	}
}

// Identical reports object identity (equal?). Nil, booleans, numbers and
// symbols are immediates: identical when they have the same kind and value,
// so 1 is not identical to 1.0. Classes and instances are identical only to
// themselves. Strings and arrays have value semantics, so equal? is false
// for them even when both sides read the same variable.
func Identical(a, b Value) bool {
	if a == nil {
		a = Nil{}
	}
	if b == nil {
		b = Nil{}
	}

	switch x := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		y, ok := b.(Int)
		return ok && x == y
	case Float:
		y, ok := b.(Float)
		return ok && x == y
	case Symbol:
		y, ok := b.(Symbol)
		return ok && x == y
	case *Class:
		y, ok := b.(*Class)
		return ok && x == y
	case *Instance:
		y, ok := b.(*Instance)
		return ok && x == y
	default:
		return false
	}
}

// Explain describes why expected and actual differ, or returns "" when
// there is nothing more specific to say than the two descriptions.
// For arrays it names a length difference first, then the first
// differing element.
func Explain(expected, actual Value) string {
	ea, ok1 := expected.(Array)
	aa, ok2 := actual.(Array)
	if ok1 && ok2 {
		if len(ea) != len(aa) {
			return fmt.Sprintf("expected %d elements, got %d", len(ea), len(aa))
		}
		for i := range ea {
			if !Equal(ea[i], aa[i]) {
				return fmt.Sprintf("element [%d] differs: expected %s, got %s",
					i, Describe(ea[i]), Describe(aa[i]))
			}
		}
		return ""
	}

	ek, ak := KindName(expected), KindName(actual)
	if ek != ak && !(isNumeric(expected) && isNumeric(actual)) {
		return fmt.Sprintf("kind differs: expected %s, got %s", ek, ak)
	}
	return ""
}

func isNumeric(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	}
	return false
}

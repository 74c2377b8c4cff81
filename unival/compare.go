package unival

import (
	"cmp"
	"strings"
)

// Compare returns -1, 0 or +1 when a sorts before, equal to or after b.
//
// Values of different kinds compare by kind. Within a kind the payloads
// compare naturally; vectors and composites compare element by element and
// then by length. NaN sorts below every other float and equals NaN.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		return cmp.Compare(a.kind, b.kind)
	}

	switch a.kind {
	case KindEmpty, KindError:
		return 0
	case KindBoolean:
		switch {
		case a.boolVal == b.boolVal:
			return 0
		case !a.boolVal:
			return -1
		default:
			return 1
		}
	case KindInteger:
		return cmp.Compare(a.intVal, b.intVal)
	case KindFloat:
		return cmp.Compare(a.floatVal, b.floatVal)
	case KindString:
		return strings.Compare(a.strVal, b.strVal)
	case KindBytes:
		return compareBytes(a.bytesVal, b.bytesVal)
	case KindVector:
		return compareVectors(a.vecVal, b.vecVal)
	case KindComposite:
		return comparePairs(a.compVal, b.compVal)
	default:
		return 0
	}
}

// Equal reports whether a and b are the same value.
func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}

// Less reports whether a sorts before b.
func Less(a, b Value) bool {
	return Compare(a, b) < 0
}

// Equal reports whether v and o are the same value.
func (v Value) Equal(o Value) bool {
	return Compare(v, o) == 0
}

func compareBytes(a, b []int8) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if c := cmp.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func compareVectors(a, b []Value) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func comparePairs(a, b []Pair) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if c := Compare(a[i].Key, b[i].Key); c != 0 {
			return c
		}
		if c := Compare(a[i].Value, b[i].Value); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

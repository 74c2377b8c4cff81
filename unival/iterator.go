package unival

import (
	"iter"
)

// Iterator is a forward, restartable position over a vector's elements or
// a composite's keys. Other kinds have no positions.
type Iterator struct {
	origin Value
	pos    int
}

// Iter returns an iterator at pos. A negative pos is the end position.
func (v Value) Iter(pos int) Iterator {
	if pos < 0 {
		pos = v.Len()
	}
	return Iterator{origin: v, pos: pos}
}

// Begin returns an iterator at the first position.
func (v Value) Begin() Iterator {
	return v.Iter(0)
}

// End returns an iterator one past the last position.
func (v Value) End() Iterator {
	return v.Iter(-1)
}

// Value returns the element (vector) or key (composite) at the iterator's
// position. At or beyond the end it returns Error.
func (it Iterator) Value() Value {
	if it.pos >= it.origin.Len() {
		return Error()
	}
	switch it.origin.kind {
	case KindVector:
		return it.origin.vecVal[it.pos]
	case KindComposite:
		return it.origin.compVal[it.pos].Key
	default:
		return Error()
	}
}

// Next returns the iterator advanced by one position.
func (it Iterator) Next() Iterator {
	it.pos++
	return it
}

// Pos returns the iterator position.
func (it Iterator) Pos() int {
	return it.pos
}

// Done reports whether the iterator is at or past the end.
func (it Iterator) Done() bool {
	return it.pos >= it.origin.Len()
}

// Equal compares positions only. Iterators over different values with the
// same position are equal; use SameOrigin to tell them apart.
func (it Iterator) Equal(o Iterator) bool {
	return it.pos == o.pos
}

// SameOrigin reports whether both iterators walk the same container.
func (it Iterator) SameOrigin(o Iterator) bool {
	a, b := it.origin, o.origin
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindVector:
		return len(a.vecVal) == len(b.vecVal) &&
			(len(a.vecVal) == 0 || &a.vecVal[0] == &b.vecVal[0])
	case KindComposite:
		return len(a.compVal) == len(b.compVal) &&
			(len(a.compVal) == 0 || &a.compVal[0] == &b.compVal[0])
	default:
		return true
	}
}

// All yields the vector elements or composite keys in order.
func (v Value) All() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for it := v.Begin(); !it.Done(); it = it.Next() {
			if !yield(it.Value()) {
				return
			}
		}
	}
}

// Pairs yields the key and value of each composite pair, or the index and
// element of each vector element.
func (v Value) Pairs() iter.Seq2[Value, Value] {
	return func(yield func(Value, Value) bool) {
		switch v.kind {
		case KindVector:
			for i, e := range v.vecVal {
				if !yield(Int(int64(i)), e) {
					return
				}
			}
		case KindComposite:
			for _, p := range v.compVal {
				if !yield(p.Key, p.Value) {
					return
				}
			}
		}
	}
}

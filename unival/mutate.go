package unival

import (
	"slices"
	"sort"
)

// ============================================================
// Composite Helpers
// ============================================================

// normalizePairs returns a sorted copy of pairs with unique keys.
// The stable sort keeps argument order among equal keys, so the first
// occurrence of a key is the one that survives.
func normalizePairs(pairs []Pair) []Pair {
	out := make([]Pair, len(pairs))
	copy(out, pairs)
	sort.SliceStable(out, func(i, j int) bool {
		return Less(out[i].Key, out[j].Key)
	})
	w := 0
	for r := range out {
		if w > 0 && Equal(out[w-1].Key, out[r].Key) {
			continue
		}
		out[w] = out[r]
		w++
	}
	return out[:w]
}

// find returns the position of key in a composite, or the insertion point
// and false when the key is absent.
func (v Value) find(key Value) (int, bool) {
	i := sort.Search(len(v.compVal), func(i int) bool {
		return Compare(v.compVal[i].Key, key) >= 0
	})
	return i, i < len(v.compVal) && Equal(v.compVal[i].Key, key)
}

// ============================================================
// Mutators
// ============================================================
//
// The exported mutators never touch the receiver's storage: they run the
// in-place variant on a shallow copy whose top-level slice is detached.

// SetIndex replaces the i-th element of a vector. It never grows the vector.
func (v Value) SetIndex(i int, x Value) Value {
	v.detach()
	if !v.setIndex(i, x) {
		return Error()
	}
	return v
}

// Set inserts or overwrites key in a composite. An Empty receiver becomes
// a single-pair composite.
func (v Value) Set(key, x Value) Value {
	v.detach()
	if !v.setKey(key, x) {
		return Error()
	}
	return v
}

// SetString is Set with a string key.
func (v Value) SetString(key string, x Value) Value {
	return v.Set(String(key), x)
}

// Resize grows or truncates a vector to n elements, filling with def.
// An Empty receiver becomes a vector of n copies of def.
func (v Value) Resize(n int, def Value) Value {
	v.detach()
	if !v.resize(n, def) {
		return Error()
	}
	return v
}

// Append adds elements to the end of a vector or Empty.
func (v Value) Append(xs ...Value) Value {
	if v.kind != KindVector && v.kind != KindEmpty {
		return Error()
	}
	vec := make([]Value, 0, len(v.vecVal)+len(xs))
	vec = append(vec, v.vecVal...)
	vec = append(vec, xs...)
	return Value{kind: KindVector, vecVal: vec}
}

// RemoveIndex removes the i-th element of a vector, shifting the rest.
func (v Value) RemoveIndex(i int) Value {
	v.detach()
	if !v.removeIndex(i) {
		return Error()
	}
	return v
}

// Remove erases key from a composite.
func (v Value) Remove(key Value) Value {
	v.detach()
	if !v.removeKey(key) {
		return Error()
	}
	return v
}

// ============================================================
// In-place Mutators
// ============================================================

// detach gives v its own copy of the top-level container slice so in-place
// mutation cannot be observed through other copies of v. Nested values are
// still shared; they are detached when a chain descends into them.
func (v *Value) detach() {
	switch v.kind {
	case KindVector:
		v.vecVal = slices.Clone(v.vecVal)
	case KindComposite:
		v.compVal = slices.Clone(v.compVal)
	}
}

func (v *Value) setIndex(i int, x Value) bool {
	if v.kind != KindVector || i < 0 || i >= len(v.vecVal) {
		return false
	}
	v.vecVal[i] = x
	return true
}

func (v *Value) setKey(key, x Value) bool {
	switch v.kind {
	case KindEmpty:
		*v = Value{kind: KindComposite, compVal: []Pair{{Key: key, Value: x}}}
		return true
	case KindComposite:
		i, ok := v.find(key)
		if ok {
			v.compVal[i].Value = x
			return true
		}
		v.compVal = slices.Insert(v.compVal, i, Pair{Key: key, Value: x})
		return true
	default:
		return false
	}
}

func (v *Value) resize(n int, def Value) bool {
	if n < 0 {
		return false
	}
	switch v.kind {
	case KindEmpty:
		*v = Value{kind: KindVector, vecVal: make([]Value, 0, n)}
	case KindVector:
	default:
		return false
	}
	if n <= len(v.vecVal) {
		v.vecVal = v.vecVal[:n:n]
		return true
	}
	for len(v.vecVal) < n {
		v.vecVal = append(v.vecVal, def)
	}
	return true
}

func (v *Value) removeIndex(i int) bool {
	if v.kind != KindVector || i < 0 || i >= len(v.vecVal) {
		return false
	}
	v.vecVal = slices.Delete(v.vecVal, i, i+1)
	return true
}

func (v *Value) removeKey(key Value) bool {
	if v.kind != KindComposite {
		return false
	}
	i, ok := v.find(key)
	if !ok {
		return false
	}
	v.compVal = slices.Delete(v.compVal, i, i+1)
	return true
}

// child returns a pointer to the element addressed by seg, detaching the
// container first so the caller may mutate through it.
func (v *Value) child(seg Segment) (*Value, bool) {
	switch seg.kind {
	case segIndex:
		if v.kind != KindVector || seg.index < 0 || seg.index >= len(v.vecVal) {
			return nil, false
		}
		v.detach()
		return &v.vecVal[seg.index], true
	case segKey:
		if v.kind != KindComposite {
			return nil, false
		}
		i, ok := v.find(seg.key)
		if !ok {
			return nil, false
		}
		v.detach()
		return &v.compVal[i].Value, true
	default:
		return nil, false
	}
}

package unival

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIterator_NoPositions(t *testing.T) {
	for _, v := range []Value{Empty(), Int(42), String("abc"), Error()} {
		assert.True(t, v.Begin().Equal(v.End()), "%s", v.Kind())
		assert.True(t, v.Begin().Done())
		assert.True(t, v.End().Value().IsError())
		for range v.All() {
			t.Fatalf("%s yielded an element", v.Kind())
		}
	}
}

func TestIterator_Vector(t *testing.T) {
	v := Vector(Int(1), Int(2), Int(3))
	assert.True(t, v.End().Value().IsError())

	var i int64
	for it := v.Begin(); !it.Equal(v.End()); it = it.Next() {
		i++
		assert.True(t, it.Value().Equal(Int(i)))
	}
	assert.Equal(t, int64(3), i)
}

func TestIterator_CompositeKeys(t *testing.T) {
	v := Composite(Int(3), Int(4), Int(1), Int(2))
	assert.True(t, v.End().Value().IsError())

	var keys []Value
	for k := range v.All() {
		keys = append(keys, k)
	}
	assert.Equal(t, []Value{Int(1), Int(3)}, keys)

	var vals []Value
	for _, x := range v.Pairs() {
		vals = append(vals, x)
	}
	assert.Equal(t, []Value{Int(2), Int(4)}, vals)
}

func TestIterator_OutOfBounds(t *testing.T) {
	v := Vector(Int(1), Int(2))
	i := v.Iter(2)
	j := v.Iter(100)
	assert.True(t, i.Value().IsError())
	assert.True(t, j.Value().IsError())
	assert.True(t, j.Done())
	assert.True(t, v.Iter(-1).Equal(v.End()))
}

func TestIterator_Restartable(t *testing.T) {
	v := Vector(String("a"), String("b"))
	it := v.Begin()
	first := it.Next()
	second := it.Next()
	assert.True(t, first.Equal(second))
	assert.True(t, first.Value().Equal(String("b")))
	assert.True(t, it.Value().Equal(String("a")))
	assert.Equal(t, 1, first.Pos())
}

func TestIterator_SameOrigin(t *testing.T) {
	a := Vector(Int(1), Int(2))
	b := Vector(Int(1), Int(2))
	assert.True(t, a.Begin().Equal(b.Begin()), "equality is positional")
	assert.True(t, a.Begin().SameOrigin(a.End()))
	assert.False(t, a.Begin().SameOrigin(b.Begin()))
	assert.False(t, a.Begin().SameOrigin(Composite(Int(1), Int(2)).Begin()))
}

func TestIterator_PairsVector(t *testing.T) {
	v := Vector(String("x"), String("y"))
	var idx []Value
	for i, e := range v.Pairs() {
		idx = append(idx, i)
		assert.True(t, e.Equal(v.Index(int(mustInt(t, i)))))
	}
	assert.Equal(t, []Value{Int(0), Int(1)}, idx)
}

func TestIterator_EarlyBreak(t *testing.T) {
	v := Vector(Int(1), Int(2), Int(3))
	n := 0
	for range v.All() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func mustInt(t *testing.T, v Value) int64 {
	t.Helper()
	n, err := v.AsInt()
	if err != nil {
		t.Fatalf("AsInt: %v", err)
	}
	return n
}

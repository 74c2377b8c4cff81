package unival

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These are fuzz style checks over generated values; the generator is
// seeded so a failure always reproduces.

const propertyRounds = 500

func TestProperty_OrderingTotal(t *testing.T) {
	rng := newRNG()
	for i := 0; i < propertyRounds; i++ {
		a, b, c := randValue(rng, 2), randValue(rng, 2), randValue(rng, 2)

		ab, ba := Compare(a, b), Compare(b, a)
		require.Equal(t, -ab, ba, "antisymmetry of %v and %v", a, b)
		require.Equal(t, 0, Compare(a, a), "reflexive %v", a)
		if a.Kind() != b.Kind() {
			require.Equal(t, a.Kind() < b.Kind(), ab < 0, "kind dominance")
		}
		if ab <= 0 && Compare(b, c) <= 0 {
			require.LessOrEqual(t, Compare(a, c), 0, "transitivity of %v, %v, %v", a, b, c)
		}
	}
}

func TestProperty_CompositeInvariants(t *testing.T) {
	rng := newRNG()
	for i := 0; i < propertyRounds; i++ {
		n := rng.Intn(12)
		pairs := make([]Pair, n)
		for j := range pairs {
			// Small key space so duplicates are common.
			pairs[j] = P(Int(int64(rng.Intn(6))), randValue(rng, 1))
		}
		v := MakeComposite(pairs...)

		distinct := map[int64]Value{}
		for _, p := range pairs {
			k, _ := p.Key.AsInt()
			if _, seen := distinct[k]; !seen {
				distinct[k] = p.Value
			}
		}
		require.Equal(t, len(distinct), v.Len())

		var prev Value
		first := true
		for k := range v.All() {
			if !first {
				require.Equal(t, -1, Compare(prev, k), "keys strictly increasing")
			}
			prev, first = k, false

			n, _ := k.AsInt()
			require.True(t, v.Get(k).Equal(distinct[n]), "first occurrence wins")
		}
	}
}

func TestProperty_RoundTrip(t *testing.T) {
	rng := newRNG()
	for i := 0; i < propertyRounds; i++ {
		v := randValue(rng, 4)
		for _, mode := range []Mode{Compact, Pretty} {
			text, ok := ToString(v, mode)
			require.True(t, ok, "print %#v", v)
			back := Parse(text)
			require.True(t, back.Equal(v), "%s mode\ntext: %s\ngot:  %v", mode, text, back)
		}
	}
}

func TestProperty_JSONParses(t *testing.T) {
	rng := newRNG()
	for i := 0; i < propertyRounds; i++ {
		v := randValue(rng, 3)
		if !validUTF8(v) {
			continue
		}
		for _, mode := range []Mode{JSONCompact, JSONPretty} {
			text, ok := ToString(v, mode)
			require.True(t, ok)
			_, err := FromJSON([]byte(text))
			require.NoError(t, err, "%s", text)
		}
	}
}

func TestProperty_NoOpCommit(t *testing.T) {
	rng := newRNG()
	for i := 0; i < propertyRounds; i++ {
		v := randValue(rng, 3)
		require.True(t, v.Edit().Commit().Equal(v))
	}
	assert.True(t, Error().Edit().Commit().IsError())
}

func TestProperty_Atomicity(t *testing.T) {
	rng := newRNG()
	for i := 0; i < propertyRounds; i++ {
		v := randValue(rng, 3).Append(randValue(rng, 2), randValue(rng, 2))
		if v.IsError() {
			v = Vector(randValue(rng, 2), randValue(rng, 2))
		}
		before := v.String()

		got := v.Edit().
			On(0).Set(Int(1)).
			On(1).Set(Int(2)).
			Resize(v.Len()+1, Empty()).
			On(v.Len() + 5).Set(Int(3)).
			Commit()
		require.True(t, got.IsError())
		require.Equal(t, before, v.String())
	}
}

func TestProperty_Bounds(t *testing.T) {
	rng := newRNG()
	for i := 0; i < propertyRounds; i++ {
		v := randValue(rng, 2)
		if !v.IsVector() && !v.IsComposite() {
			continue
		}
		n := v.Len()
		for _, idx := range []int{-1, -100, n, n + 1} {
			require.True(t, v.Index(idx).IsError())
			require.True(t, v.SetIndex(idx, Int(0)).IsError())
		}
		for idx := 0; idx < n && v.IsVector(); idx++ {
			require.Equal(t, n, v.SetIndex(idx, Int(0)).Len())
		}
	}
}

// An empty composite has no text of its own: it prints like Empty and
// parses back as Empty, which is why randValue never generates one.
func TestProperty_EmptyCompositeReadsAsEmpty(t *testing.T) {
	for _, v := range []Value{Composite(), MakeComposite(), comp(1, 2).Remove(Int(1))} {
		require.True(t, v.IsComposite())
		require.Equal(t, 0, v.Len())
		for _, mode := range []Mode{Compact, Pretty} {
			text := mustString(t, v, mode)
			assert.Equal(t, mustString(t, Empty(), mode), text, "%s mode", mode)
			back := Parse(text)
			assert.True(t, back.IsEmpty(), "%s mode parses %q as %s", mode, text, back.Kind())
			assert.False(t, back.Equal(v))
		}
	}

	nested := Vector(Composite())
	back := Parse(mustString(t, nested, Compact))
	assert.True(t, back.Index(0).IsEmpty())
}

package unival

import (
	"crypto/sha256"
	"math"

	"lukechampine.com/frand"
)

var seed = sha256.Sum256([]byte("unival round trip corpus"))

// newRNG returns a deterministic generator so failures reproduce.
func newRNG() *frand.RNG {
	return frand.NewCustom(seed[:], 32, 12)
}

var specialFloats = []float64{
	0, 1, -1, 0.5, 42, 42e10, 42e20, 4e20, 1e-5, 1e-4, 123.456,
	math.MaxFloat64, math.SmallestNonzeroFloat64, -2.5e-300, 1e16, 1e17,
}

var specialStrings = []string{
	"", "a", "foo", "_1FooBar", "null", "true", "false", "with space",
	"\"quoted\"", `back\slash`, "\x01a", "\x7f0", "tab\there", "ünïcode",
	"123", "-x", "e10",
}

func randFloat(rng *frand.RNG) float64 {
	if rng.Intn(3) == 0 {
		return specialFloats[rng.Intn(len(specialFloats))]
	}
	mant := float64(int64(rng.Uint64n(1<<53)) - 1<<52)
	return math.Ldexp(mant, rng.Intn(200)-100)
}

func randString(rng *frand.RNG) string {
	if rng.Intn(2) == 0 {
		return specialStrings[rng.Intn(len(specialStrings))]
	}
	return string(rng.Bytes(rng.Intn(12)))
}

// randValue returns a random value without Error, non-finite floats or
// empty composites, so it survives a print/parse round trip.
func randValue(rng *frand.RNG, depth int) Value {
	kinds := 9
	if depth <= 0 {
		kinds = 7
	}
	switch rng.Intn(kinds) {
	case 0:
		return Empty()
	case 1:
		return Bool(rng.Intn(2) == 1)
	case 2:
		return Int(int64(rng.Uint64n(math.MaxUint64)))
	case 3:
		return Int(int64(rng.Intn(2000) - 1000))
	case 4:
		return Float(randFloat(rng))
	case 5:
		return String(randString(rng))
	case 6:
		return ByteSlice(rng.Bytes(rng.Intn(40)))
	case 7:
		n := rng.Intn(5)
		items := make([]Value, n)
		for i := range items {
			items[i] = randValue(rng, depth-1)
		}
		return Vector(items...)
	default:
		n := rng.Intn(4) + 1
		pairs := make([]Pair, n)
		for i := range pairs {
			pairs[i] = P(randValue(rng, depth-1), randValue(rng, depth-1))
		}
		return MakeComposite(pairs...)
	}
}

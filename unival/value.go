package unival

import (
	"github.com/pkg/errors"
)

// Kind represents unival value kinds. The declaration order is the order
// in which values of different kinds compare.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindError
	KindBoolean
	KindInteger
	KindFloat
	KindString
	KindBytes
	KindVector
	KindComposite
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindError:
		return "error"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindVector:
		return "vector"
	case KindComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// ErrKind is wrapped by the As* accessors when the value holds another kind.
var ErrKind = errors.New("unival: wrong kind")

// Value is a unival value. The zero Value is Empty.
type Value struct {
	kind Kind

	// Scalar payloads (only one valid based on kind)
	boolVal  bool
	intVal   int64
	floatVal float64
	strVal   string
	bytesVal []int8

	// Container payloads
	vecVal  []Value
	compVal []Pair
}

// Pair is a key/value entry of a Composite.
type Pair struct {
	Key   Value
	Value Value
}

// P is shorthand for building a Pair.
func P(key, value Value) Pair {
	return Pair{Key: key, Value: value}
}

// ============================================================
// Constructors
// ============================================================

// Empty returns the empty value.
func Empty() Value {
	return Value{}
}

// Error returns the error sentinel.
func Error() Value {
	return Value{kind: KindError}
}

// Bool creates a boolean value.
func Bool(v bool) Value {
	return Value{kind: KindBoolean, boolVal: v}
}

// Int creates an integer value.
func Int(v int64) Value {
	return Value{kind: KindInteger, intVal: v}
}

// Uint creates an integer value holding the bits of v.
// Values above math.MaxInt64 come back unchanged through AsUint only.
func Uint(v uint64) Value {
	return Value{kind: KindInteger, intVal: int64(v)}
}

// Float creates a float value.
func Float(v float64) Value {
	return Value{kind: KindFloat, floatVal: v}
}

// String creates a string value.
func String(v string) Value {
	return Value{kind: KindString, strVal: v}
}

// Bytes creates a byte array value. The slice is copied.
func Bytes(v []int8) Value {
	b := make([]int8, len(v))
	copy(b, v)
	return Value{kind: KindBytes, bytesVal: b}
}

// ByteSlice creates a byte array value from unsigned bytes.
func ByteSlice(v []byte) Value {
	b := make([]int8, len(v))
	for i, c := range v {
		b[i] = int8(c)
	}
	return Value{kind: KindBytes, bytesVal: b}
}

// Vector creates a vector value. The slice is copied.
func Vector(values ...Value) Value {
	vec := make([]Value, len(values))
	copy(vec, values)
	return Value{kind: KindVector, vecVal: vec}
}

// MakeComposite creates a composite value from pairs. Pairs are sorted by
// key; when a key repeats, the first pair in argument order wins.
func MakeComposite(pairs ...Pair) Value {
	return Value{kind: KindComposite, compVal: normalizePairs(pairs)}
}

// Composite creates a composite value from alternating keys and values.
// An odd number of arguments yields Error.
func Composite(kv ...Value) Value {
	if len(kv)%2 != 0 {
		return Error()
	}
	pairs := make([]Pair, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		pairs = append(pairs, Pair{Key: kv[i], Value: kv[i+1]})
	}
	return Value{kind: KindComposite, compVal: normalizePairs(pairs)}
}

// ============================================================
// Predicates
// ============================================================

// Kind returns the value kind.
func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsEmpty() bool     { return v.kind == KindEmpty }
func (v Value) IsError() bool     { return v.kind == KindError }
func (v Value) IsBool() bool      { return v.kind == KindBoolean }
func (v Value) IsInt() bool       { return v.kind == KindInteger }
func (v Value) IsFloat() bool     { return v.kind == KindFloat }
func (v Value) IsString() bool    { return v.kind == KindString }
func (v Value) IsBytes() bool     { return v.kind == KindBytes }
func (v Value) IsVector() bool    { return v.kind == KindVector }
func (v Value) IsComposite() bool { return v.kind == KindComposite }

// ContainsError reports whether v or anything nested in it is Error.
func (v Value) ContainsError() bool {
	switch v.kind {
	case KindError:
		return true
	case KindVector:
		for _, e := range v.vecVal {
			if e.ContainsError() {
				return true
			}
		}
	case KindComposite:
		for _, p := range v.compVal {
			if p.Key.ContainsError() || p.Value.ContainsError() {
				return true
			}
		}
	}
	return false
}

// ============================================================
// Accessors
// ============================================================

func kindError(want, got Kind) error {
	return errors.Wrapf(ErrKind, "expected %s, got %s", want, got)
}

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBoolean {
		return false, kindError(KindBoolean, v.kind)
	}
	return v.boolVal, nil
}

// AsInt returns the integer payload.
func (v Value) AsInt() (int64, error) {
	if v.kind != KindInteger {
		return 0, kindError(KindInteger, v.kind)
	}
	return v.intVal, nil
}

// AsUint returns the integer payload reinterpreted as unsigned.
func (v Value) AsUint() (uint64, error) {
	if v.kind != KindInteger {
		return 0, kindError(KindInteger, v.kind)
	}
	return uint64(v.intVal), nil
}

// AsFloat returns the float payload.
func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, kindError(KindFloat, v.kind)
	}
	return v.floatVal, nil
}

// AsString returns the string payload.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", kindError(KindString, v.kind)
	}
	return v.strVal, nil
}

// AsBytes returns a copy of the byte array payload.
func (v Value) AsBytes() ([]int8, error) {
	if v.kind != KindBytes {
		return nil, kindError(KindBytes, v.kind)
	}
	b := make([]int8, len(v.bytesVal))
	copy(b, v.bytesVal)
	return b, nil
}

// AsByteSlice returns the byte array payload as unsigned bytes.
func (v Value) AsByteSlice() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, kindError(KindBytes, v.kind)
	}
	b := make([]byte, len(v.bytesVal))
	for i, c := range v.bytesVal {
		b[i] = byte(c)
	}
	return b, nil
}

// AsVector returns a copy of the vector elements.
func (v Value) AsVector() ([]Value, error) {
	if v.kind != KindVector {
		return nil, kindError(KindVector, v.kind)
	}
	out := make([]Value, len(v.vecVal))
	copy(out, v.vecVal)
	return out, nil
}

// AsPairs returns a copy of the composite pairs in key order.
func (v Value) AsPairs() ([]Pair, error) {
	if v.kind != KindComposite {
		return nil, kindError(KindComposite, v.kind)
	}
	out := make([]Pair, len(v.compVal))
	copy(out, v.compVal)
	return out, nil
}

// Len returns the element count of a vector or composite, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindVector:
		return len(v.vecVal)
	case KindComposite:
		return len(v.compVal)
	default:
		return 0
	}
}

// Index returns the i-th element of a vector.
func (v Value) Index(i int) Value {
	if v.kind != KindVector || i < 0 || i >= len(v.vecVal) {
		return Error()
	}
	return v.vecVal[i]
}

// Get returns the value stored under key in a composite.
func (v Value) Get(key Value) Value {
	if v.kind != KindComposite {
		return Error()
	}
	i, ok := v.find(key)
	if !ok {
		return Error()
	}
	return v.compVal[i].Value
}

// GetString is Get with a string key.
func (v Value) GetString(key string) Value {
	return v.Get(String(key))
}

// Has reports whether a composite holds key.
func (v Value) Has(key Value) bool {
	if v.kind != KindComposite {
		return false
	}
	_, ok := v.find(key)
	return ok
}

// String returns the compact text form, or "<error>" when v cannot be printed.
func (v Value) String() string {
	s, ok := ToString(v, Compact)
	if !ok {
		return "<error>"
	}
	return s
}

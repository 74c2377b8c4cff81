package unival

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"

	"github.com/pkg/errors"
)

// ============================================================
// Go and JSON Bridge
// ============================================================
//
// FromGo/ToGo convert between Values and plain Go data (the shapes
// encoding/json produces and consumes). JSON text goes through
// encoding/json on the way in and through the JSON print modes on the
// way out, so both directions agree on key quoting and escaping.

// FromGo converts plain Go data to a Value.
//
//	nil               -> Empty
//	bool              -> Boolean
//	signed/unsigned   -> Integer (uint64 above MaxInt64 is an error)
//	float32/float64   -> Float
//	json.Number       -> Integer if it has no fraction, else Float
//	string            -> String
//	[]byte, []int8    -> Bytes
//	slices, arrays    -> Vector
//	maps              -> Composite
func FromGo(x any) (Value, error) {
	switch val := x.(type) {
	case nil:
		return Empty(), nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(int64(val)), nil
	case int8:
		return Int(int64(val)), nil
	case int16:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint:
		return fromUint(uint64(val))
	case uint8:
		return Int(int64(val)), nil
	case uint16:
		return Int(int64(val)), nil
	case uint32:
		return Int(int64(val)), nil
	case uint64:
		return fromUint(val)
	case float32:
		return Float(float64(val)), nil
	case float64:
		return Float(val), nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return Int(n), nil
		}
		f, err := val.Float64()
		if err != nil {
			return Error(), errors.Wrapf(err, "number %q", val.String())
		}
		return Float(f), nil
	case string:
		return String(val), nil
	case []byte:
		return ByteSlice(val), nil
	case []int8:
		return Bytes(val), nil
	case []any:
		items := make([]Value, 0, len(val))
		for i, elem := range val {
			v, err := FromGo(elem)
			if err != nil {
				return Error(), errors.Wrapf(err, "array[%d]", i)
			}
			items = append(items, v)
		}
		return Value{kind: KindVector, vecVal: items}, nil
	case map[string]any:
		pairs := make([]Pair, 0, len(val))
		for k, elem := range val {
			v, err := FromGo(elem)
			if err != nil {
				return Error(), errors.Wrapf(err, "object[%q]", k)
			}
			pairs = append(pairs, Pair{Key: String(k), Value: v})
		}
		return MakeComposite(pairs...), nil
	default:
		return fromReflect(reflect.ValueOf(x))
	}
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Error(), errors.Errorf("unsigned %d overflows int64", u)
	}
	return Int(int64(u)), nil
}

// fromReflect handles typed slices, arrays and maps.
func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			v, err := FromGo(rv.Index(i).Interface())
			if err != nil {
				return Error(), errors.Wrapf(err, "array[%d]", i)
			}
			items = append(items, v)
		}
		return Value{kind: KindVector, vecVal: items}, nil
	case reflect.Map:
		pairs := make([]Pair, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := FromGo(iter.Key().Interface())
			if err != nil {
				return Error(), errors.Wrap(err, "map key")
			}
			v, err := FromGo(iter.Value().Interface())
			if err != nil {
				return Error(), errors.Wrapf(err, "map[%v]", iter.Key().Interface())
			}
			pairs = append(pairs, Pair{Key: k, Value: v})
		}
		return MakeComposite(pairs...), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Empty(), nil
		}
		return FromGo(rv.Elem().Interface())
	default:
		return Error(), errors.Errorf("unsupported Go type: %s", rv.Type())
	}
}

// ToGo converts a Value to plain Go data. Composites become
// map[string]any; keys that are not strings are keyed by their compact
// JSON text, the same way the JSON print modes quote them.
func ToGo(v Value) (any, error) {
	switch v.kind {
	case KindEmpty:
		return nil, nil
	case KindError:
		return nil, errors.New("unival: cannot convert error value")
	case KindBoolean:
		return v.boolVal, nil
	case KindInteger:
		return v.intVal, nil
	case KindFloat:
		return v.floatVal, nil
	case KindString:
		return v.strVal, nil
	case KindBytes:
		return v.AsByteSlice()
	case KindVector:
		out := make([]any, len(v.vecVal))
		for i, e := range v.vecVal {
			x, err := ToGo(e)
			if err != nil {
				return nil, errors.Wrapf(err, "index %d", i)
			}
			out[i] = x
		}
		return out, nil
	case KindComposite:
		out := make(map[string]any, len(v.compVal))
		for _, p := range v.compVal {
			key, err := jsonKeyText(p.Key)
			if err != nil {
				return nil, err
			}
			x, err := ToGo(p.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "key %s", key)
			}
			out[key] = x
		}
		return out, nil
	default:
		return nil, errors.Errorf("unival: unknown kind %d", v.kind)
	}
}

func jsonKeyText(key Value) (string, error) {
	if s, err := key.AsString(); err == nil {
		return s, nil
	}
	text, ok := ToString(key, JSONCompact)
	if !ok {
		return "", errors.Errorf("unival: key %s cannot be printed", key.kind)
	}
	return text, nil
}

// FromJSON parses JSON text into a Value. Integral numbers become
// Integers, everything else with a fraction or exponent becomes Float.
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return Error(), errors.Wrap(err, "JSON parse error")
	}
	if dec.More() {
		return Error(), errors.New("JSON parse error: trailing data")
	}
	return FromGo(x)
}

// ToJSON returns the compact JSON text of v.
func ToJSON(v Value) ([]byte, error) {
	out, ok := AppendText(nil, v, JSONCompact)
	if !ok {
		return nil, errors.New("unival: value cannot be printed as JSON")
	}
	return out, nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return ToJSON(v)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler with the compact form.
func (v Value) MarshalText() ([]byte, error) {
	out, ok := AppendText(nil, v, Compact)
	if !ok {
		return nil, errors.New("unival: value cannot be printed")
	}
	return out, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Value) UnmarshalText(data []byte) error {
	parsed := ParseBytes(data)
	if parsed.IsError() {
		return errors.New("unival: invalid text")
	}
	*v = parsed
	return nil
}

package unival

import (
	"encoding/json"
	"math"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// ============================================================
// Go and JSON
// ============================================================

func TestFromGo(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Empty()},
		{"bool", true, Bool(true)},
		{"int", 7, Int(7)},
		{"uint8", uint8(200), Int(200)},
		{"float32", float32(0.5), Float(0.5)},
		{"string", "s", String("s")},
		{"bytes", []byte{1, 2}, ByteSlice([]byte{1, 2})},
		{"any slice", []any{1, "a"}, Vector(Int(1), String("a"))},
		{"typed slice", []int{1, 2}, vec(1, 2)},
		{"string map", map[string]any{"b": 2, "a": 1}, Composite(String("a"), Int(1), String("b"), Int(2))},
		{"int map", map[int]string{2: "x"}, Composite(Int(2), String("x"))},
		{"json int", json.Number("12"), Int(12)},
		{"json float", json.Number("1.0"), Float(1)},
		{"value", vec(1), vec(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}

	_, err := FromGo(uint64(math.MaxUint64))
	assert.Error(t, err)
	_, err = FromGo(struct{}{})
	assert.Error(t, err)
	_, err = FromGo([]any{make(chan int)})
	assert.Error(t, err)
}

func TestToGo(t *testing.T) {
	v := MakeComposite(
		P(String("name"), String("x")),
		P(Int(1), vec(1, 2)),
		P(String("raw"), ByteSlice([]byte{9})),
		P(String("nil"), Empty()),
	)
	got, err := ToGo(v)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name": "x",
		"1":    []any{int64(1), int64(2)},
		"raw":  []byte{9},
		"nil":  nil,
	}, got)

	_, err = ToGo(Vector(Error()))
	assert.Error(t, err)
}

func TestFromJSON(t *testing.T) {
	v, err := FromJSON([]byte(`{"a": [1, 2.5, "x", true, null], "b": {"c": -3}}`))
	require.NoError(t, err)
	want := MakeComposite(
		P(String("a"), Vector(Int(1), Float(2.5), String("x"), Bool(true), Empty())),
		P(String("b"), Composite(String("c"), Int(-3))),
	)
	assert.True(t, v.Equal(want), "got %v", v)

	_, err = FromJSON([]byte(`{"a":`))
	assert.Error(t, err)
	_, err = FromJSON([]byte(`1 2`))
	assert.Error(t, err)
}

func TestJSON_RoundTrip(t *testing.T) {
	in := `{"a":[1,2.5,"x\n",true,null],"b":{"c":-3}}`
	v, err := FromJSON([]byte(in))
	require.NoError(t, err)
	out, err := ToJSON(v)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestValue_JSONMarshaler(t *testing.T) {
	type doc struct {
		Payload Value `json:"payload"`
	}
	data, err := json.Marshal(doc{Payload: comp(1, 2)})
	require.NoError(t, err)
	assert.Equal(t, `{"payload":{"1":2}}`, string(data))

	var back doc
	require.NoError(t, json.Unmarshal([]byte(`{"payload":[1,"a"]}`), &back))
	assert.True(t, back.Payload.Equal(Vector(Int(1), String("a"))))

	_, err = json.Marshal(doc{Payload: Error()})
	assert.Error(t, err)
}

func TestValue_TextMarshaler(t *testing.T) {
	text, err := comp(1, 2).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "{1:2}", string(text))

	var v Value
	require.NoError(t, v.UnmarshalText([]byte("[a, b]")))
	assert.Equal(t, 2, v.Len())
	assert.Error(t, v.UnmarshalText([]byte("[a")))
}

// ============================================================
// YAML
// ============================================================

func TestFromYAML(t *testing.T) {
	src := `
name: unival
count: 0x10
ratio: 0.25
enabled: true
none: ~
tags: [a, b]
raw: !!binary AQID
anchor: &x {k: 1}
alias: *x
? [1, 2]
: complex key
`
	v, err := FromYAML([]byte(src))
	require.NoError(t, err)

	assert.True(t, v.GetString("name").Equal(String("unival")))
	assert.True(t, v.GetString("count").Equal(Int(16)))
	assert.True(t, v.GetString("ratio").Equal(Float(0.25)))
	assert.True(t, v.GetString("enabled").Equal(Bool(true)))
	assert.True(t, v.GetString("none").IsEmpty())
	assert.True(t, v.GetString("tags").Equal(Vector(String("a"), String("b"))))
	assert.True(t, v.GetString("raw").Equal(ByteSlice([]byte{1, 2, 3})))
	assert.True(t, v.GetString("alias").Equal(Composite(String("k"), Int(1))))
	assert.True(t, v.Get(vec(1, 2)).Equal(String("complex key")))

	_, err = FromYAML([]byte("a: [1"))
	assert.Error(t, err)
}

func TestYAML_RoundTrip(t *testing.T) {
	rng := newRNG()
	for i := 0; i < 200; i++ {
		v := randValue(rng, 3)
		if !validUTF8(v) {
			_, err := ToYAML(v)
			assert.Error(t, err)
			continue
		}
		out, err := ToYAML(v)
		require.NoError(t, err, "value %v", v)
		back, err := FromYAML(out)
		require.NoError(t, err, "yaml:\n%s", out)
		assert.True(t, back.Equal(v), "got %v, want %v\nyaml:\n%s", back, v, out)
	}
}

func validUTF8(v Value) bool {
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		return utf8.ValidString(s)
	case KindVector, KindComposite:
		for k, x := range v.Pairs() {
			if !validUTF8(k) || !validUTF8(x) {
				return false
			}
		}
	}
	return true
}

func TestValue_YAMLMarshaler(t *testing.T) {
	type doc struct {
		Payload Value `yaml:"payload"`
	}
	data, err := yaml.Marshal(doc{Payload: Composite(String("true"), Int(1))})
	require.NoError(t, err)

	var back doc
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.True(t, back.Payload.GetString("true").Equal(Int(1)), "yaml:\n%s", data)

	_, err = ToYAML(Float(math.NaN()))
	assert.Error(t, err)
	_, err = ToYAML(Vector(Error()))
	assert.Error(t, err)
}

package unival

import (
	"encoding/base64"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ============================================================
// YAML Bridge
// ============================================================
//
// YAML goes through yaml.Node rather than interface{} so that mapping
// keys of any kind survive, sequences and mappings keep their shape and
// !!binary scalars come back as Bytes.

const (
	tagNull   = "!!null"
	tagBool   = "!!bool"
	tagInt    = "!!int"
	tagFloat  = "!!float"
	tagStr    = "!!str"
	tagBinary = "!!binary"
)

// FromYAML parses a YAML document into a Value.
func FromYAML(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Error(), errors.Wrap(err, "YAML parse error")
	}
	return fromNode(&doc, 0)
}

func fromNode(n *yaml.Node, depth int) (Value, error) {
	if depth > maxDepth {
		return Error(), errors.New("YAML nesting too deep")
	}
	switch n.Kind {
	case 0:
		return Empty(), nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Empty(), nil
		}
		return fromNode(n.Content[0], depth)
	case yaml.AliasNode:
		return fromNode(n.Alias, depth+1)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for i, c := range n.Content {
			v, err := fromNode(c, depth+1)
			if err != nil {
				return Error(), errors.Wrapf(err, "line %d: item %d", n.Line, i)
			}
			items = append(items, v)
		}
		return Value{kind: KindVector, vecVal: items}, nil
	case yaml.MappingNode:
		if len(n.Content)%2 != 0 {
			return Error(), errors.Errorf("line %d: odd mapping content", n.Line)
		}
		pairs := make([]Pair, 0, len(n.Content)/2)
		for i := 0; i < len(n.Content); i += 2 {
			k, err := fromNode(n.Content[i], depth+1)
			if err != nil {
				return Error(), err
			}
			v, err := fromNode(n.Content[i+1], depth+1)
			if err != nil {
				return Error(), errors.Wrapf(err, "line %d: key %s", n.Content[i].Line, k)
			}
			pairs = append(pairs, Pair{Key: k, Value: v})
		}
		return MakeComposite(pairs...), nil
	case yaml.ScalarNode:
		return fromScalar(n)
	default:
		return Error(), errors.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}

func fromScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case tagNull:
		return Empty(), nil
	case tagBool:
		var b bool
		if err := n.Decode(&b); err != nil {
			return Error(), errors.Wrapf(err, "line %d", n.Line)
		}
		return Bool(b), nil
	case tagInt:
		var i int64
		if err := n.Decode(&i); err != nil {
			return Error(), errors.Wrapf(err, "line %d", n.Line)
		}
		return Int(i), nil
	case tagFloat:
		var f float64
		if err := n.Decode(&f); err != nil {
			return Error(), errors.Wrapf(err, "line %d", n.Line)
		}
		return Float(f), nil
	case tagBinary:
		raw, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return Error(), errors.Wrapf(err, "line %d: binary", n.Line)
		}
		return ByteSlice(raw), nil
	default:
		return String(n.Value), nil
	}
}

// ToYAML returns a YAML document for v. Values containing Error,
// non-finite floats or strings that are not UTF-8 cannot be converted.
func ToYAML(v Value) ([]byte, error) {
	n, err := toNode(v)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(n)
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (any, error) {
	return toNode(v)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	parsed, err := fromNode(n, 0)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func toNode(v Value) (*yaml.Node, error) {
	switch v.kind {
	case KindEmpty:
		return scalar(tagNull, "null"), nil
	case KindError:
		return nil, errors.New("unival: cannot convert error value to YAML")
	case KindBoolean:
		return scalar(tagBool, strconv.FormatBool(v.boolVal)), nil
	case KindInteger:
		return scalar(tagInt, strconv.FormatInt(v.intVal, 10)), nil
	case KindFloat:
		if math.IsNaN(v.floatVal) || math.IsInf(v.floatVal, 0) {
			return nil, errors.Errorf("unival: float %v cannot be converted", v.floatVal)
		}
		s, _ := formatFloat(v.floatVal)
		return scalar(tagFloat, s), nil
	case KindString:
		if !utf8.ValidString(v.strVal) {
			return nil, errors.New("unival: YAML strings must be valid UTF-8")
		}
		return scalar(tagStr, v.strVal), nil
	case KindBytes:
		raw, _ := v.AsByteSlice()
		return scalar(tagBinary, base64.StdEncoding.EncodeToString(raw)), nil
	case KindVector:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, e := range v.vecVal {
			c, err := toNode(e)
			if err != nil {
				return nil, errors.Wrapf(err, "index %d", i)
			}
			seq.Content = append(seq.Content, c)
		}
		return seq, nil
	case KindComposite:
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, p := range v.compVal {
			k, err := toNode(p.Key)
			if err != nil {
				return nil, err
			}
			c, err := toNode(p.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "key %s", p.Key)
			}
			m.Content = append(m.Content, k, c)
		}
		return m, nil
	default:
		return nil, errors.Errorf("unival: unknown kind %d", v.kind)
	}
}

package unival

import (
	"strconv"

	"github.com/pkg/errors"
)

// ErrPath is wrapped by ParsePath for malformed path text.
var ErrPath = errors.New("unival: invalid path")

// ParsePath parses path text into segments. A path is a sequence of
//
//	[N]       vector index
//	.name     string key that is an identifier
//	{value}   any other key, written as unival text
//
// The dot of a leading .name may be omitted, so "a.b[0]" and ".a.b[0]"
// are the same path. The empty string is the root path.
func ParsePath(text string) ([]Segment, error) {
	c := NewSource(FromString(text))
	var segs []Segment
	for !c.EOF() {
		b, _ := c.peek()
		switch {
		case b == '[':
			var digits []byte
			c = c.Read(1)
			for {
				d, ok := c.peek()
				if !ok || !isDigit(d) {
					break
				}
				digits = append(digits, d)
				c = c.Read(1)
			}
			if d, ok := c.peek(); !ok || d != ']' || len(digits) == 0 {
				return nil, errors.Wrapf(ErrPath, "bad index at offset %d", c.Offset())
			}
			c = c.Read(1)
			n, err := strconv.Atoi(string(digits))
			if err != nil {
				return nil, errors.Wrapf(ErrPath, "index %s", digits)
			}
			segs = append(segs, IndexSeg(n))

		case b == '.' || (len(segs) == 0 && isIdentStart(b)):
			if b == '.' {
				c = c.Read(1)
			}
			if d, ok := c.peek(); !ok || !isIdentStart(d) {
				return nil, errors.Wrapf(ErrPath, "expected name at offset %d", c.Offset())
			}
			var name []byte
			for {
				d, ok := c.peek()
				if !ok || !isIdentChar(d) {
					break
				}
				name = append(name, d)
				c = c.Read(1)
			}
			segs = append(segs, KeySeg(String(string(name))))

		case b == '{':
			key, next, ok := parseValue(c.Read(1), 0)
			if !ok {
				return nil, errors.Wrapf(ErrPath, "bad key at offset %d", c.Offset())
			}
			if next, ok = expect(next, '}'); !ok {
				return nil, errors.Wrapf(ErrPath, "unterminated key at offset %d", c.Offset())
			}
			c = next
			segs = append(segs, KeySeg(key))

		default:
			return nil, errors.Wrapf(ErrPath, "unexpected %q at offset %d", b, c.Offset())
		}
	}
	return segs, nil
}

// At follows path from v and returns the value found there, or Error if
// some step does not exist.
func (v Value) At(path ...Segment) Value {
	for _, seg := range path {
		if seg.kind == segIndex {
			v = v.Index(seg.index)
		} else {
			v = v.Get(seg.key)
		}
		if v.IsError() {
			return v
		}
	}
	return v
}

// Lookup parses path text and follows it from v.
func (v Value) Lookup(path string) Value {
	segs, err := ParsePath(path)
	if err != nil {
		return Error()
	}
	return v.At(segs...)
}

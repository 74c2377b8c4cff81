package unival

// ============================================================
// Input Source
// ============================================================
//
// A Cursor is a position in a byte stream that is pulled lazily from a
// PullFunc. All cursors derived from one NewSource call share one arena
// that only ever grows, so any cursor can be read again after another has
// moved on. This is what lets the parser try one production, fail, and try
// the next from the same place.

// PullFunc returns up to n more bytes of input. A short or empty result is
// allowed; an empty result at the current end of input means end of file.
type PullFunc func(n int) []byte

// arena is the growable buffer shared by every cursor of one source.
type arena struct {
	pull PullFunc
	data []byte
}

// fill makes sure data holds at least end bytes, pulling as needed.
func (a *arena) fill(end int) {
	for len(a.data) < end {
		chunk := a.pull(end - len(a.data))
		if len(chunk) == 0 {
			return
		}
		a.data = append(a.data, chunk...)
	}
}

// Cursor is a value-typed position in a pulled byte stream. The span
// [start, off) holds the bytes covered by the Read that produced it.
type Cursor struct {
	a     *arena
	start int
	off   int
}

// NewSource creates a cursor at the beginning of the stream produced by pull.
func NewSource(pull PullFunc) Cursor {
	if pull == nil {
		pull = func(int) []byte { return nil }
	}
	return Cursor{a: &arena{pull: pull}}
}

// FromString returns a PullFunc over s.
func FromString(s string) PullFunc {
	return FromBytes([]byte(s))
}

// FromBytes returns a PullFunc over b.
func FromBytes(b []byte) PullFunc {
	i := 0
	return func(n int) []byte {
		n = min(n, len(b)-i)
		if n <= 0 {
			return nil
		}
		chunk := b[i : i+n]
		i += n
		return chunk
	}
}

// Read returns a cursor n bytes further on, or at the end of input if fewer
// than n bytes remain. Buffered bytes are never discarded.
func (c Cursor) Read(n int) Cursor {
	if c.a == nil || n <= 0 {
		return Cursor{a: c.a, start: c.off, off: c.off}
	}
	c.a.fill(c.off + n)
	end := min(c.off+n, len(c.a.data))
	return Cursor{a: c.a, start: c.off, off: end}
}

// Bytes returns the bytes covered by the Read that produced c.
func (c Cursor) Bytes() []byte {
	if c.a == nil {
		return nil
	}
	return c.a.data[c.start:c.off:c.off]
}

// String returns the bytes covered by the Read that produced c.
func (c Cursor) String() string {
	return string(c.Bytes())
}

// Empty reports whether the Read that produced c covered no bytes.
func (c Cursor) Empty() bool {
	return c.start == c.off
}

// Offset returns the absolute position of c in the stream.
func (c Cursor) Offset() int {
	return c.off
}

// EOF reports whether no byte follows c. It pulls from the source only if
// the arena has nothing buffered past c.
func (c Cursor) EOF() bool {
	if c.a == nil {
		return true
	}
	if c.off < len(c.a.data) {
		return false
	}
	c.a.fill(c.off + 1)
	return c.off >= len(c.a.data)
}

// peek returns the byte after c without moving, and false at end of input.
func (c Cursor) peek() (byte, bool) {
	if c.EOF() {
		return 0, false
	}
	return c.a.data[c.off], true
}

// hasPrefix reports whether the next bytes after c are s.
func (c Cursor) hasPrefix(s string) bool {
	return c.Read(len(s)).String() == s
}

package unival

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursor_EOF(t *testing.T) {
	assert.True(t, NewSource(FromString("")).Read(1).EOF())
	assert.True(t, NewSource(FromString("")).Read(1).Empty())
	assert.True(t, NewSource(FromString("")).EOF())
	assert.True(t, NewSource(nil).EOF())
	assert.False(t, NewSource(FromString("foo")).Read(3).Empty())
}

func TestCursor_Read(t *testing.T) {
	assert.Equal(t, "a", NewSource(FromString("a")).Read(1).String())

	buf := NewSource(FromString("foobar")).Read(3)
	assert.Equal(t, "foo", buf.String())
	assert.Equal(t, "bar", buf.Read(3).String())
	assert.Equal(t, 6, buf.Read(3).Offset())
}

func TestCursor_ReadTwice(t *testing.T) {
	buf := NewSource(FromString("foo"))
	assert.Equal(t, "foo", buf.Read(3).String())
	assert.Equal(t, "foo", buf.Read(3).String())
	assert.False(t, buf.EOF())
	assert.True(t, buf.Read(3).EOF())
}

func TestCursor_ShortRead(t *testing.T) {
	c := NewSource(FromString("ab")).Read(5)
	assert.Equal(t, "ab", c.String())
	assert.True(t, c.EOF())
	assert.True(t, c.Read(1).Empty())
}

func TestCursor_PullsLazily(t *testing.T) {
	data := []byte("0123456789")
	var requested []int
	pos := 0
	pull := func(n int) []byte {
		requested = append(requested, n)
		// Hand out at most two bytes per call.
		n = min(n, 2, len(data)-pos)
		chunk := data[pos : pos+n]
		pos += n
		return chunk
	}

	c := NewSource(pull)
	assert.Empty(t, requested)

	first := c.Read(3)
	assert.Equal(t, "012", first.String())
	assert.Equal(t, 3, pos)
	assert.Equal(t, []int{3, 1}, requested, "short pulls are retried for the rest")

	// Reading again from the start is served from the arena.
	calls := len(requested)
	assert.Equal(t, "01", c.Read(2).String())
	assert.Len(t, requested, calls)

	rest := first.Read(100)
	assert.Equal(t, "3456789", rest.String())
	assert.True(t, rest.EOF())
}

func TestCursor_BytesAreStable(t *testing.T) {
	c := NewSource(FromString("hello world"))
	head := c.Read(5)
	b := head.Bytes()
	tail := head.Read(6)
	assert.Equal(t, " world", tail.String())
	assert.Equal(t, "hello", string(b))
	assert.Equal(t, "hello", head.String())
}

package stream

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/unival/unival"
)

func TestPull(t *testing.T) {
	text := `{ name: "unival"; list: [1, 2.5, <01 02>] }`
	p := Pull(iotest.OneByteReader(strings.NewReader(text)))
	v := unival.ParseFrom(p.Func())
	require.NoError(t, p.Err())
	assert.Equal(t, `{list:[1,2.5,<01 02>];name:unival}`, v.String())
}

func TestPull_Error(t *testing.T) {
	r := io.MultiReader(strings.NewReader("[1,"), iotest.ErrReader(io.ErrClosedPipe))
	p := Pull(r)
	v := unival.ParseFrom(p.Func())
	assert.True(t, v.IsError())
	assert.ErrorIs(t, p.Err(), io.ErrClosedPipe)

	_, err := ReadValue(io.MultiReader(strings.NewReader("[1]"), iotest.ErrReader(io.ErrClosedPipe)))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestReadValue(t *testing.T) {
	v, err := ReadValue(strings.NewReader("[a, b]"))
	require.NoError(t, err)
	assert.Equal(t, 2, v.Len())

	_, err = ReadValue(strings.NewReader("[a, b"))
	assert.Error(t, err)
}

type limitWriter struct {
	buf   bytes.Buffer
	limit int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	if w.buf.Len()+len(p) > w.limit {
		return 0, io.ErrShortWrite
	}
	return w.buf.Write(p)
}

func TestPush(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteValue(&buf, unival.Parse("{b:1;a:[x]}"), unival.JSONCompact))
	assert.Equal(t, `{"a":["x"],"b":1}`, buf.String())

	w := &limitWriter{limit: 4}
	err := WriteValue(w, unival.Parse("[1,2,3,4,5]"), unival.Compact)
	assert.ErrorIs(t, err, io.ErrShortWrite)

	err = WriteValue(&buf, unival.Error(), unival.Compact)
	require.Error(t, err)
	assert.False(t, errors.Is(err, io.ErrShortWrite))
}

func TestCompression(t *testing.T) {
	text := strings.Repeat("[1, 2, 3]\n", 50)
	for _, name := range []string{"none", "gzip", "zstd"} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			w, err := Compress(&buf, name)
			require.NoError(t, err)
			_, err = io.WriteString(w, text)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			if name != "none" {
				assert.NotEqual(t, text, buf.String())
			}

			r, err := Decompress(&buf)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, text, string(got))
		})
	}

	_, err := Compress(io.Discard, "lz4")
	assert.Error(t, err)
}

func TestDecompress_Short(t *testing.T) {
	r, err := Decompress(strings.NewReader("1"))
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "1", string(got))

	_, err = Decompress(bytes.NewReader([]byte{0x1f, 0x8b, 0x00}))
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "v.uv.zst")
	f, err := os.Create(name)
	require.NoError(t, err)
	w, err := Compress(f, "zstd")
	require.NoError(t, err)
	require.NoError(t, WriteValue(w, unival.Parse("{k:[1,2]}"), unival.Pretty))
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	r, err := Open(name)
	require.NoError(t, err)
	v, err := ReadValue(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "{k:[1,2]}", v.String())

	_, err = Open(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

package stream

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/Neumenon/unival/unival"
)

// ============================================================
// Pull and Push Adapters
// ============================================================

// Pull adapts r to a unival.PullFunc. Read errors other than io.EOF end
// the input early; Err on the returned Puller reports them.
func Pull(r io.Reader) *Puller {
	return &Puller{r: r}
}

// Puller feeds a parser from an io.Reader.
type Puller struct {
	r   io.Reader
	buf []byte
	err error
}

// Func returns the pull function.
func (p *Puller) Func() unival.PullFunc {
	return func(n int) []byte {
		if p.err != nil || n <= 0 {
			return nil
		}
		if cap(p.buf) < n {
			p.buf = make([]byte, n)
		}
		for {
			got, err := p.r.Read(p.buf[:n])
			if err != nil {
				if err != io.EOF {
					p.err = err
				} else if got == 0 {
					p.err = io.EOF
				}
			}
			if got > 0 || p.err != nil {
				return p.buf[:got]
			}
		}
	}
}

// Err returns the first read error other than io.EOF.
func (p *Puller) Err() error {
	if p.err == io.EOF {
		return nil
	}
	return p.err
}

// Pusher drains printer output into an io.Writer.
type Pusher struct {
	w   io.Writer
	err error
}

// Push adapts w to a unival.WriteFunc.
func Push(w io.Writer) *Pusher {
	return &Pusher{w: w}
}

// Func returns the write function. After a write error it takes nothing,
// which aborts printing.
func (p *Pusher) Func() unival.WriteFunc {
	return func(chunk []byte) int {
		if p.err != nil {
			return 0
		}
		n, err := p.w.Write(chunk)
		if err != nil {
			p.err = err
		}
		return n
	}
}

// Err returns the write error that aborted printing, if any.
func (p *Pusher) Err() error {
	return p.err
}

// ReadValue parses the whole of r as one value.
func ReadValue(r io.Reader) (unival.Value, error) {
	p := Pull(r)
	v := unival.ParseFrom(p.Func())
	if err := p.Err(); err != nil {
		return unival.Error(), errors.Wrap(err, "read")
	}
	if v.IsError() {
		return v, errors.New("input is not valid unival text")
	}
	return v, nil
}

// WriteValue prints v to w in mode.
func WriteValue(w io.Writer, v unival.Value, mode unival.Mode) error {
	p := Push(w)
	if !unival.Print(v, p.Func(), mode) {
		if err := p.Err(); err != nil {
			return errors.Wrap(err, "write")
		}
		return errors.New("value cannot be printed")
	}
	return nil
}

// ============================================================
// Compression
// ============================================================

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

type readCloser struct {
	io.Reader
	close func() error
}

func (rc readCloser) Close() error { return rc.close() }

// Decompress returns a reader of the decompressed content of r when r
// starts with a gzip or zstd header, and of r itself otherwise.
func Decompress(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "gzip")
		}
		return zr, nil
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "zstd")
		}
		return zr.IOReadCloser(), nil
	default:
		return readCloser{Reader: br, close: func() error { return nil }}, nil
	}
}

// Open opens a file for reading, decompressing it if needed. The name "-"
// is standard input.
func Open(name string) (io.ReadCloser, error) {
	if name == "-" {
		return Decompress(os.Stdin)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	rc, err := Decompress(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, name)
	}
	return readCloser{Reader: rc, close: func() error {
		err := rc.Close()
		if ferr := f.Close(); err == nil {
			err = ferr
		}
		return err
	}}, nil
}

// Compress wraps w in the named compressor: "none", "gzip" or "zstd".
// Closing the result flushes the compressor but leaves w open.
func Compress(w io.Writer, name string) (io.WriteCloser, error) {
	switch name {
	case "", "none":
		return nopWriteCloser{w}, nil
	case "gzip":
		return gzip.NewWriter(w), nil
	case "zstd":
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, errors.Wrap(err, "zstd")
		}
		return zw, nil
	default:
		return nil, errors.Errorf("unknown compression %q", name)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

package stream

import (
	"bufio"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/Neumenon/unival/log"
	"github.com/Neumenon/unival/unival"
)

// Reader reads text frames from an io.Reader.
type Reader struct {
	r          *bufio.Reader
	maxPayload int
	verifyCRC  bool
	skipBad    bool
	offset     int64
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxPayload sets the maximum payload size (default: 64 MiB).
func WithMaxPayload(max int) ReaderOption {
	return func(r *Reader) {
		r.maxPayload = max
	}
}

// WithCRCVerification turns CRC verification on or off. It is on by
// default.
func WithCRCVerification(on bool) ReaderOption {
	return func(r *Reader) {
		r.verifyCRC = on
	}
}

// WithSkipCorrupt makes the reader log and skip frames with a bad header,
// an oversized payload or a CRC mismatch, resuming at the next header line.
func WithSkipCorrupt() ReaderOption {
	return func(r *Reader) {
		r.skipBad = true
	}
}

// NewReader creates a new frame reader.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	reader := &Reader{
		r:          bufio.NewReader(r),
		maxPayload: MaxPayloadSize,
		verifyCRC:  true,
	}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Next reads and returns the next frame.
// Returns io.EOF when no more frames are available.
func (r *Reader) Next() (*Frame, error) {
	for {
		frame, err := r.next()
		if err == nil || err == io.EOF || !r.skipBad || !skippable(err) {
			return frame, err
		}
		log.W.F("skipping frame: %v", err)
	}
}

func skippable(err error) bool {
	return errors.Is(err, ErrFrame) || errors.Is(err, ErrCRC)
}

func (r *Reader) next() (*Frame, error) {
	start := r.offset
	line, err := r.r.ReadString('\n')
	r.offset += int64(len(line))
	for err == nil && strings.TrimSpace(line) == "" {
		start = r.offset
		line, err = r.r.ReadString('\n')
		r.offset += int64(len(line))
	}
	if err != nil {
		if err != io.EOF {
			return nil, errors.Wrap(err, "read header")
		}
		if strings.TrimSpace(line) == "" {
			return nil, io.EOF
		}
		return nil, frameError(start, "truncated header")
	}

	frame, payloadLen, err := parseHeader(line, start)
	if err != nil {
		return nil, err
	}
	if payloadLen > r.maxPayload {
		return nil, frameError(start, "payload too large: %d > %d", payloadLen, r.maxPayload)
	}

	if payloadLen > 0 {
		frame.Payload = make([]byte, payloadLen)
		n, err := io.ReadFull(r.r, frame.Payload)
		r.offset += int64(n)
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, frameError(start, "truncated payload: %d of %d bytes", n, payloadLen)
			}
			return nil, errors.Wrap(err, "read payload")
		}
	}

	// The newline after the payload is optional at EOF.
	if b, err := r.r.ReadByte(); err == nil {
		if b == '\n' {
			r.offset++
		} else {
			_ = r.r.UnreadByte()
		}
	}

	if r.verifyCRC && frame.CRC != nil {
		if computed := ComputeCRC(frame.Payload); computed != *frame.CRC {
			return nil, &CRCMismatchError{SID: frame.SID, Seq: frame.Seq, Expected: *frame.CRC, Got: computed}
		}
	}
	log.T.F("frame sid=%d seq=%d kind=%s len=%d", frame.SID, frame.Seq, frame.Kind, payloadLen)
	return frame, nil
}

// parseHeader parses the @frame{...} header line and returns the frame
// without its payload, plus the payload length.
func parseHeader(line string, offset int64) (*Frame, int, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "@frame{") {
		return nil, 0, frameError(offset, "expected @frame{")
	}
	if !strings.HasSuffix(line, "}") {
		return nil, 0, frameError(offset, "missing closing }")
	}
	content := line[len("@frame{") : len(line)-1]

	frame := &Frame{Version: Version}
	payloadLen := -1

	for _, pair := range tokenize(content) {
		key, val, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		switch key {
		case "v":
			v, err := strconv.ParseUint(val, 10, 8)
			if err != nil || uint8(v) != Version {
				return nil, 0, frameError(offset, "unsupported version %q", val)
			}
			frame.Version = uint8(v)

		case "sid":
			sid, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, 0, frameError(offset, "invalid sid %q", val)
			}
			frame.SID = sid

		case "seq":
			seq, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, 0, frameError(offset, "invalid seq %q", val)
			}
			frame.Seq = seq

		case "kind":
			kind, ok := ParseKind(val)
			if !ok {
				return nil, 0, frameError(offset, "invalid kind %q", val)
			}
			frame.Kind = kind

		case "len":
			l, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, 0, frameError(offset, "invalid len %q", val)
			}
			payloadLen = int(l)

		case "crc":
			crc, ok := parseCRC(val)
			if !ok {
				return nil, 0, frameError(offset, "invalid crc %q", val)
			}
			frame.CRC = &crc

		case "base":
			base, ok := HexToHash(strings.TrimPrefix(val, "sha256:"))
			if !ok {
				return nil, 0, frameError(offset, "invalid base %q", val)
			}
			frame.Base = &base

		case "final":
			frame.Final = val == "true" || val == "1"
		}
	}
	if payloadLen < 0 {
		return nil, 0, frameError(offset, "missing len")
	}
	return frame, payloadLen, nil
}

// tokenize splits the header content into key=value fields. Values are
// never quoted, so spaces, tabs and commas always separate fields.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
}

// parseCRC parses eight hex digits, optionally prefixed by "crc32:".
func parseCRC(val string) (uint32, bool) {
	val = strings.TrimPrefix(val, "crc32:")
	crc, err := strconv.ParseUint(val, 16, 32)
	return uint32(crc), err == nil && len(val) == 8
}

// ReadAll collects the remaining frames. It stops at the first error and
// returns the frames read before it.
func (r *Reader) ReadAll() (frames []*Frame, err error) {
	for f, err := range r.All() {
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// All iterates over the remaining frames. Iteration stops after the first
// error, which is yielded with a nil frame.
func (r *Reader) All() iter.Seq2[*Frame, error] {
	return func(yield func(*Frame, error) bool) {
		for {
			frame, err := r.Next()
			if err == io.EOF {
				return
			}
			if !yield(frame, err) || err != nil {
				return
			}
		}
	}
}

// Value parses the payload of a doc frame.
func (f *Frame) Value() (unival.Value, error) {
	v := unival.ParseBytes(f.Payload)
	if v.IsError() {
		return v, frameError(-1, "sid %d seq %d: payload is not unival text", f.SID, f.Seq)
	}
	return v, nil
}

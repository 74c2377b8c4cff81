package stream

import (
	"encoding/binary"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/templexxx/xhex"

	"github.com/Neumenon/unival/unival"
)

// Writer writes text frames to an io.Writer.
type Writer struct {
	w       io.Writer
	withCRC bool
	buf     []byte
}

// NewWriter creates a frame writer without CRCs.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// NewWriterWithCRC creates a writer that computes CRC for each frame.
func NewWriterWithCRC(w io.Writer) *Writer {
	return &Writer{w: w, withCRC: true}
}

// WriteFrame writes a single frame. A frame without CRC gets one when the
// writer was created with NewWriterWithCRC and the payload is not empty.
func (w *Writer) WriteFrame(f *Frame) error {
	b := append(w.buf[:0], "@frame{v="...)
	if f.Version == 0 {
		b = append(b, '1')
	} else {
		b = strconv.AppendUint(b, uint64(f.Version), 10)
	}
	b = append(b, " sid="...)
	b = strconv.AppendUint(b, f.SID, 10)
	b = append(b, " seq="...)
	b = strconv.AppendUint(b, f.Seq, 10)
	b = append(b, " kind="...)
	b = append(b, f.Kind.String()...)
	b = append(b, " len="...)
	b = strconv.AppendInt(b, int64(len(f.Payload)), 10)

	crc := f.CRC
	if crc == nil && w.withCRC && len(f.Payload) > 0 {
		computed := ComputeCRC(f.Payload)
		crc = &computed
	}
	if crc != nil {
		b = append(b, " crc="...)
		b = appendHex32(b, *crc)
	}
	if f.Base != nil {
		b = append(b, " base=sha256:"...)
		b = append(b, HashToHex(*f.Base)...)
	}
	if f.Final {
		b = append(b, " final=true"...)
	}
	b = append(b, "}\n"...)
	b = append(b, f.Payload...)
	b = append(b, '\n')
	w.buf = b

	if _, err := w.w.Write(b); err != nil {
		return errors.Wrapf(err, "write frame sid=%d seq=%d", f.SID, f.Seq)
	}
	return nil
}

func appendHex32(b []byte, v uint32) []byte {
	var raw [4]byte
	var hex [8]byte
	binary.BigEndian.PutUint32(raw[:], v)
	xhex.Encode(hex[:], raw[:])
	return append(b, hex[:]...)
}

// compact renders the payload text of v.
func compact(v unival.Value) ([]byte, error) {
	text, ok := unival.AppendText(nil, v, unival.Compact)
	if !ok {
		return nil, errors.Errorf("stream: value cannot be printed")
	}
	return text, nil
}

// WriteDoc writes a doc frame with the given payload.
func (w *Writer) WriteDoc(sid, seq uint64, payload []byte) error {
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    KindDoc,
		Payload: payload,
	})
}

// WriteValue writes v as a doc frame.
func (w *Writer) WriteValue(sid, seq uint64, v unival.Value) error {
	payload, err := compact(v)
	if err != nil {
		return err
	}
	return w.WriteDoc(sid, seq, payload)
}

// WriteEdits writes an edit frame. base, if not nil, is the fingerprint of
// the value the edits apply to.
func (w *Writer) WriteEdits(sid, seq uint64, edits []Edit, base *[32]byte) error {
	encoded, err := EncodeEdits(edits)
	if err != nil {
		return err
	}
	payload, err := compact(encoded)
	if err != nil {
		return err
	}
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    KindEdit,
		Payload: payload,
		Base:    base,
	})
}

// WriteAck writes an acknowledgement frame.
func (w *Writer) WriteAck(sid, seq uint64) error {
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    KindAck,
	})
}

// WriteErr writes an error frame.
func (w *Writer) WriteErr(sid, seq uint64, ev ErrorEvent) error {
	payload, err := compact(ev.Value())
	if err != nil {
		return err
	}
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    KindErr,
		Payload: payload,
	})
}

// WriteFinal writes the last frame of a stream.
func (w *Writer) WriteFinal(sid, seq uint64, kind FrameKind, payload []byte) error {
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    kind,
		Payload: payload,
		Final:   true,
	})
}

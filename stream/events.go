package stream

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/Neumenon/unival/unival"
)

// ============================================================
// Error Events
// ============================================================

// Codes carried by error events.
const (
	CodeFrame        = "FRAME"
	CodeCRC          = "CRC_MISMATCH"
	CodeBaseMismatch = "BASE_MISMATCH"
	CodeSeq          = "SEQ"
	CodeEdit         = "EDIT"
	CodeInternal     = "INTERNAL"
)

// ErrorEvent is the payload of an err frame, sent by a receiver that
// rejected frame Seq of stream SID. A BASE_MISMATCH asks the sender for a
// fresh doc frame.
//
// Payload: {code:BASE_MISMATCH;msg:"...";sid:1;seq:42}
type ErrorEvent struct {
	Code string
	Msg  string
	SID  uint64
	Seq  uint64
}

// ErrorEventFor describes err, as returned by Reader.Next or Tracker.Apply
// for frame seq of stream sid.
func ErrorEventFor(sid, seq uint64, err error) ErrorEvent {
	code := CodeInternal
	switch {
	case errors.Is(err, ErrCRC):
		code = CodeCRC
	case errors.Is(err, ErrBase):
		code = CodeBaseMismatch
	case errors.Is(err, ErrSeq):
		code = CodeSeq
	case errors.Is(err, ErrEdit):
		code = CodeEdit
	case errors.Is(err, ErrFrame):
		code = CodeFrame
	}
	return ErrorEvent{Code: code, Msg: err.Error(), SID: sid, Seq: seq}
}

// Value returns the payload value of e.
func (e ErrorEvent) Value() unival.Value {
	return unival.Composite(
		unival.String("code"), unival.String(e.Code),
		unival.String("msg"), unival.String(e.Msg),
		unival.String("sid"), unival.Uint(e.SID),
		unival.String("seq"), unival.Uint(e.Seq),
	)
}

func (e ErrorEvent) String() string {
	return fmt.Sprintf("%s (sid %d seq %d): %s", e.Code, e.SID, e.Seq, e.Msg)
}

// ParseErrorEvent reads an error event payload. Only code is required.
func ParseErrorEvent(v unival.Value) (e ErrorEvent, err error) {
	if !v.IsComposite() {
		return e, frameError(-1, "error event must be a composite, got %s", v.Kind())
	}
	if e.Code, err = v.GetString("code").AsString(); err != nil {
		return e, frameError(-1, "error event without code")
	}
	if m := v.GetString("msg"); !m.IsError() {
		if e.Msg, err = m.AsString(); err != nil {
			return e, frameError(-1, "error event msg: %v", err)
		}
	}
	if n := v.GetString("sid"); !n.IsError() {
		if e.SID, err = n.AsUint(); err != nil {
			return e, frameError(-1, "error event sid: %v", err)
		}
	}
	if n := v.GetString("seq"); !n.IsError() {
		if e.Seq, err = n.AsUint(); err != nil {
			return e, frameError(-1, "error event seq: %v", err)
		}
	}
	return e, nil
}

// Package stream carries unival values over byte streams.
//
// A frame stream is a sequence of text frames, each a header line followed
// by a payload of compact unival text:
//
//	@frame{v=1 sid=N seq=N kind=K len=N [crc=X] [base=sha256:X] [final=true]}\n
//	<payload bytes>\n
//
// Frames are multiplexed by stream ID (sid) and ordered by a per-SID
// sequence number (seq). A doc frame carries a whole value; an edit frame
// carries a batch of edits against the value its base hash names. The
// optional CRC-32 covers the payload bytes only.
//
// The package also adapts io.Reader and io.Writer to the pull and push
// functions the unival parser and printer use, with transparent gzip and
// zstd decompression.
package stream

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// Version is the frame format version.
const Version uint8 = 1

// FrameKind indicates what a frame's payload holds.
type FrameKind uint8

const (
	KindDoc  FrameKind = 0 // Whole value
	KindEdit FrameKind = 1 // Edit batch, see EncodeEdits
	KindAck  FrameKind = 2 // Acknowledgement, no payload
	KindErr  FrameKind = 3 // ErrorEvent
)

var kindNames = [...]string{"doc", "edit", "ack", "err"}

// String returns the kind name.
func (k FrameKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("unknown(%d)", k)
}

// ParseKind parses a kind name or its number.
func ParseKind(s string) (FrameKind, bool) {
	for i, name := range kindNames {
		if s == name {
			return FrameKind(i), true
		}
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || n >= uint64(len(kindNames)) {
		return 0, false
	}
	return FrameKind(n), true
}

// Frame is a single frame.
type Frame struct {
	Version uint8
	SID     uint64
	Seq     uint64
	Kind    FrameKind
	Payload []byte

	CRC   *uint32   // nil if absent
	Base  *[32]byte // fingerprint the edits apply to, nil if absent
	Final bool      // last frame of this SID
}

// HasCRC returns true if CRC is present.
func (f *Frame) HasCRC() bool {
	return f.CRC != nil
}

// HasBase returns true if base hash is present.
func (f *Frame) HasBase() bool {
	return f.Base != nil
}

// MaxPayloadSize is the default maximum payload size (64 MiB).
const MaxPayloadSize = 64 * 1024 * 1024

var (
	// ErrFrame marks a malformed frame header or payload.
	ErrFrame = errors.New("stream: malformed frame")
	// ErrCRC marks a payload whose CRC-32 does not match its header.
	ErrCRC = errors.New("stream: CRC mismatch")
	// ErrBase marks an edit frame whose base is not the current state.
	ErrBase = errors.New("stream: base mismatch")
	// ErrSeq marks a frame out of sequence for its SID.
	ErrSeq = errors.New("stream: sequence error")
	// ErrEdit marks an edit batch that does not decode or apply.
	ErrEdit = errors.New("stream: invalid edit")
)

// frameError wraps ErrFrame with a reason and, when known, a byte offset.
func frameError(offset int64, format string, args ...any) error {
	reason := fmt.Sprintf(format, args...)
	if offset >= 0 {
		return errors.Wrapf(ErrFrame, "%s at offset %d", reason, offset)
	}
	return errors.Wrap(ErrFrame, reason)
}

// CRCMismatchError is returned when CRC verification fails.
type CRCMismatchError struct {
	SID, Seq uint64
	Expected uint32
	Got      uint32
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("stream: sid %d seq %d: CRC mismatch: expected %08x, got %08x",
		e.SID, e.Seq, e.Expected, e.Got)
}

// Is reports whether target is ErrCRC.
func (e *CRCMismatchError) Is(target error) bool { return target == ErrCRC }

// BaseMismatchError is returned when an edit frame names another state.
type BaseMismatchError struct {
	SID      uint64
	Expected [32]byte
	Got      [32]byte
}

func (e *BaseMismatchError) Error() string {
	return fmt.Sprintf("stream: sid %d: base mismatch: frame wants %s, state is %s",
		e.SID, HashToHex(e.Expected)[:12], HashToHex(e.Got)[:12])
}

// Is reports whether target is ErrBase.
func (e *BaseMismatchError) Is(target error) bool { return target == ErrBase }

package stream

import (
	"slices"
	"sync"

	"github.com/pkg/errors"

	"github.com/Neumenon/unival/log"
	"github.com/Neumenon/unival/unival"
)

// Tracker follows the frames of many streams and keeps the current value
// of each one.
type Tracker struct {
	mu     sync.RWMutex
	states map[uint64]*State
}

// State holds state for a single stream ID.
type State struct {
	SID       uint64
	LastSeq   uint64       // Last sequence number applied
	LastAcked uint64       // Highest sequence number acknowledged
	Acked     bool         // Whether LastAcked is set
	Seen      bool         // Whether any frame was applied
	Value     unival.Value // Current value
	Hash      [32]byte     // Fingerprint of Value
	HasValue  bool         // Whether Value came from a doc frame
	LastErr   *ErrorEvent  // Last err frame received
	Final     bool         // Whether the stream has ended
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		states: make(map[uint64]*State),
	}
}

// Get returns a copy of the state of sid, or nil if it is unknown.
func (t *Tracker) Get(sid uint64) *State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.states[sid]
	if !ok {
		return nil
	}
	c := *s
	return &c
}

// Delete forgets sid.
func (t *Tracker) Delete(sid uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, sid)
}

// SIDs returns the tracked stream IDs in ascending order.
func (t *Tracker) SIDs() []uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sids := make([]uint64, 0, len(t.states))
	for sid := range t.states {
		sids = append(sids, sid)
	}
	slices.Sort(sids)
	return sids
}

// Apply checks a frame against the state of its stream and applies it.
// Ack frames name the sequence number they acknowledge and stand outside
// the sequence. Any other frame fails if:
//   - the stream has already ended
//   - the sequence number is not the successor of the last one
//   - an edit frame arrives before any doc frame, or names another base
//   - the payload does not decode, or the edits do not apply
//
// A failed frame leaves the state unchanged.
func (t *Tracker) Apply(f *Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.states[f.SID]
	if !ok {
		s = &State{SID: f.SID}
	}

	if f.Kind == KindAck {
		s.ack(f.Seq)
		s.Final = s.Final || f.Final
		t.states[f.SID] = s
		return nil
	}
	if s.Final {
		return errors.Wrapf(ErrSeq, "sid %d: frame seq %d after final", f.SID, f.Seq)
	}
	if s.Seen && f.Seq != s.LastSeq+1 {
		return errors.Wrapf(ErrSeq, "sid %d: expected seq %d, got %d", f.SID, s.LastSeq+1, f.Seq)
	}

	switch f.Kind {
	case KindDoc:
		v, err := f.Value()
		if err != nil {
			return err
		}
		h, ok := Fingerprint(v)
		if !ok {
			return frameError(-1, "sid %d seq %d: value has no fingerprint", f.SID, f.Seq)
		}
		s.Value, s.Hash, s.HasValue = v, h, true

	case KindEdit:
		if !s.HasValue {
			return errors.Wrapf(ErrBase, "sid %d: edit before any doc frame", f.SID)
		}
		if f.Base != nil && *f.Base != s.Hash {
			return &BaseMismatchError{SID: f.SID, Expected: *f.Base, Got: s.Hash}
		}
		payload, err := f.Value()
		if err != nil {
			return err
		}
		edits, err := DecodeEdits(payload)
		if err != nil {
			return errors.Wrapf(err, "sid %d seq %d", f.SID, f.Seq)
		}
		v, err := ApplyEdits(s.Value, edits)
		if err != nil {
			return errors.Wrapf(err, "sid %d seq %d", f.SID, f.Seq)
		}
		h, ok := Fingerprint(v)
		if !ok {
			return frameError(-1, "sid %d seq %d: value has no fingerprint", f.SID, f.Seq)
		}
		s.Value, s.Hash = v, h

	case KindErr:
		payload, err := f.Value()
		if err != nil {
			return err
		}
		ev, err := ParseErrorEvent(payload)
		if err != nil {
			return err
		}
		log.W.F("sid %d seq %d: peer error %s", f.SID, f.Seq, ev)
		s.LastErr = &ev

	default:
		return frameError(-1, "sid %d seq %d: unknown kind %s", f.SID, f.Seq, f.Kind)
	}

	s.LastSeq, s.Seen = f.Seq, true
	if f.Final {
		s.Final = true
	}
	t.states[f.SID] = s
	return nil
}

func (s *State) ack(seq uint64) {
	if !s.Acked || seq > s.LastAcked {
		s.LastAcked, s.Acked = seq, true
	}
}

// Ack marks a sequence as acknowledged.
func (t *Tracker) Ack(sid, seq uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.states[sid]; ok {
		s.ack(seq)
	}
}

// PendingAcks returns sequences that have been applied but not acked.
func (t *Tracker) PendingAcks(sid uint64) []uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.states[sid]
	if !ok || !s.Seen {
		return nil
	}
	var first uint64
	if s.Acked {
		first = s.LastAcked + 1
	}
	if s.LastSeq < first {
		return nil
	}
	pending := make([]uint64, 0, s.LastSeq-first+1)
	for seq := first; seq <= s.LastSeq; seq++ {
		pending = append(pending, seq)
	}
	return pending
}

// NeedsResync reports whether sid has no value to apply edits to.
func (t *Tracker) NeedsResync(sid uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.states[sid]
	return !ok || !s.HasValue
}

// ============================================================
// Sender
// ============================================================

// Sender writes the successive values of one stream, sending the first as
// a doc frame and later ones as edit frames against the previous value.
type Sender struct {
	w    *Writer
	sid  uint64
	seq  uint64
	last unival.Value
	hash [32]byte
	sent bool
}

// NewSender creates a sender for stream sid.
func NewSender(w *Writer, sid uint64) *Sender {
	return &Sender{w: w, sid: sid}
}

// Send writes v. Unchanged values produce an empty edit batch. The sender
// keeps the value the receiver rebuilds from the edits, so the base of the
// next batch is the receiver's fingerprint.
func (s *Sender) Send(v unival.Value) (err error) {
	var edits []Edit
	if s.sent {
		edits = Diff(s.last, v)
		if v, err = ApplyEdits(s.last, edits); err != nil {
			return errors.Wrapf(err, "stream: sid %d", s.sid)
		}
	}
	h, ok := Fingerprint(v)
	if !ok {
		return errors.Errorf("stream: sid %d: value cannot be printed", s.sid)
	}
	if s.sent {
		base := s.hash
		err = s.w.WriteEdits(s.sid, s.seq, edits, &base)
	} else {
		err = s.w.WriteValue(s.sid, s.seq, v)
	}
	if err != nil {
		return err
	}
	s.last, s.hash, s.sent = v, h, true
	s.seq++
	return nil
}

// Close ends the stream with a final ack of the last value sent.
func (s *Sender) Close() error {
	var last uint64
	if s.seq > 0 {
		last = s.seq - 1
	}
	return s.w.WriteFrame(&Frame{Version: Version, SID: s.sid, Seq: last, Kind: KindAck, Final: true})
}

// Seq returns the sequence number of the next frame.
func (s *Sender) Seq() uint64 {
	return s.seq
}

package stream

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/unival/unival"
)

func docFrame(sid, seq uint64, text string) *Frame {
	return &Frame{Version: Version, SID: sid, Seq: seq, Kind: KindDoc, Payload: []byte(text)}
}

func editFrame(t *testing.T, sid, seq uint64, base *[32]byte, edits ...Edit) *Frame {
	t.Helper()
	v, err := EncodeEdits(edits)
	require.NoError(t, err)
	return &Frame{Version: Version, SID: sid, Seq: seq, Kind: KindEdit, Payload: []byte(v.String()), Base: base}
}

func TestTracker_Basic(t *testing.T) {
	tr := NewTracker()
	assert.Nil(t, tr.Get(1))
	assert.True(t, tr.NeedsResync(1))

	require.NoError(t, tr.Apply(docFrame(2, 0, "{x:1}")))
	require.NoError(t, tr.Apply(docFrame(1, 0, "[]")))
	assert.Equal(t, []uint64{1, 2}, tr.SIDs())

	s := tr.Get(2)
	require.NotNil(t, s)
	assert.True(t, s.HasValue)
	assert.Equal(t, "{x:1}", s.Value.String())
	want, _ := Fingerprint(unival.Parse("{x:1}"))
	assert.Equal(t, want, s.Hash)
	assert.False(t, tr.NeedsResync(2))

	s.Value = unival.Int(9)
	assert.Equal(t, "{x:1}", tr.Get(2).Value.String(), "Get returns a copy")

	tr.Delete(2)
	assert.Equal(t, []uint64{1}, tr.SIDs())
}

func TestTracker_Sequence(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Apply(docFrame(1, 5, "1")))
	require.NoError(t, tr.Apply(docFrame(1, 6, "2")))

	assert.ErrorIs(t, tr.Apply(docFrame(1, 6, "3")), ErrSeq, "duplicate")
	assert.ErrorIs(t, tr.Apply(docFrame(1, 8, "3")), ErrSeq, "gap")
	assert.Equal(t, "2", tr.Get(1).Value.String())

	require.NoError(t, tr.Apply(docFrame(1, 7, "3")))
	assert.Equal(t, uint64(7), tr.Get(1).LastSeq)
}

func TestTracker_Edits(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Apply(docFrame(1, 0, "{x:1}")))

	base := tr.Get(1).Hash
	require.NoError(t, tr.Apply(editFrame(t, 1, 1, &base, SetAt(path(t, "x"), unival.Int(2)))))
	assert.Equal(t, "{x:2}", tr.Get(1).Value.String())

	// No base means no check.
	require.NoError(t, tr.Apply(editFrame(t, 1, 2, nil, SetAt(path(t, "y"), unival.Int(3)))))
	assert.Equal(t, "{x:2;y:3}", tr.Get(1).Value.String())

	wrong := [32]byte{0xde, 0xad, 0xbe, 0xef}
	err := tr.Apply(editFrame(t, 1, 3, &wrong, SetAt(path(t, "x"), unival.Int(3))))
	require.ErrorIs(t, err, ErrBase)
	var mismatch *BaseMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, tr.Get(1).Hash, mismatch.Got)

	err = tr.Apply(editFrame(t, 1, 3, nil, RemoveAt(path(t, "missing"))))
	assert.ErrorIs(t, err, ErrEdit)
	assert.Equal(t, "{x:2;y:3}", tr.Get(1).Value.String())
	assert.Equal(t, uint64(2), tr.Get(1).LastSeq)
}

func TestTracker_EditBeforeDoc(t *testing.T) {
	tr := NewTracker()
	err := tr.Apply(editFrame(t, 4, 0, nil, SetAt(nil, unival.Int(1))))
	assert.ErrorIs(t, err, ErrBase)
	assert.True(t, tr.NeedsResync(4))
	assert.Nil(t, tr.Get(4), "rejected first frame leaves no state")
	assert.Empty(t, tr.SIDs())

	assert.ErrorIs(t, tr.Apply(docFrame(5, 0, "[1,")), ErrFrame)
	assert.Nil(t, tr.Get(5))
	assert.Empty(t, tr.PendingAcks(5))

	require.NoError(t, tr.Apply(docFrame(4, 0, "1")))
	assert.Equal(t, []uint64{4}, tr.SIDs())
}

func TestTracker_BadPayload(t *testing.T) {
	tr := NewTracker()
	assert.ErrorIs(t, tr.Apply(docFrame(1, 0, "[1,")), ErrFrame)
	assert.ErrorIs(t, tr.Apply(&Frame{SID: 1, Kind: FrameKind(9)}), ErrFrame)
	require.NoError(t, tr.Apply(docFrame(1, 0, "[]")))
	assert.ErrorIs(t, tr.Apply(&Frame{SID: 1, Seq: 1, Kind: KindEdit, Payload: []byte("[1]")}), ErrEdit)
}

func TestTracker_Ack(t *testing.T) {
	tr := NewTracker()
	assert.Nil(t, tr.PendingAcks(1))

	for seq := uint64(0); seq < 5; seq++ {
		require.NoError(t, tr.Apply(docFrame(1, seq, "{}")))
	}
	assert.Equal(t, []uint64{0, 1, 2, 3, 4}, tr.PendingAcks(1))

	tr.Ack(1, 2)
	assert.Equal(t, []uint64{3, 4}, tr.PendingAcks(1))

	require.NoError(t, tr.Apply(&Frame{SID: 1, Seq: 4, Kind: KindAck}))
	assert.Empty(t, tr.PendingAcks(1))

	tr.Ack(1, 1)
	assert.Equal(t, uint64(4), tr.Get(1).LastAcked, "acks never move back")
}

func TestTracker_Final(t *testing.T) {
	tr := NewTracker()
	f := docFrame(1, 0, "done")
	f.Final = true
	require.NoError(t, tr.Apply(f))
	assert.True(t, tr.Get(1).Final)
	assert.ErrorIs(t, tr.Apply(docFrame(1, 1, "more")), ErrSeq)
}

func TestTracker_ErrFrame(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	ev := ErrorEvent{Code: CodeBaseMismatch, Msg: "stale", SID: 1, Seq: 42}
	require.NoError(t, w.WriteErr(1, 0, ev))

	f, err := NewReader(&buf).Next()
	require.NoError(t, err)
	tr := NewTracker()
	require.NoError(t, tr.Apply(f))
	require.NotNil(t, tr.Get(1).LastErr)
	assert.Equal(t, ev, *tr.Get(1).LastErr)
}

func TestErrorEvent(t *testing.T) {
	ev := ErrorEvent{Code: CodeEdit, Msg: "no such key", SID: 3, Seq: 1 << 63}
	back, err := ParseErrorEvent(unival.Parse(ev.Value().String()))
	require.NoError(t, err)
	assert.Equal(t, ev, back)
	assert.Equal(t, "EDIT (sid 3 seq 9223372036854775808): no such key", ev.String())

	back, err = ParseErrorEvent(unival.Parse("{code:X}"))
	require.NoError(t, err)
	assert.Equal(t, ErrorEvent{Code: "X"}, back)

	for _, text := range []string{"[]", "{msg:x}", "{code:1}", "{code:X;seq:a}"} {
		_, err := ParseErrorEvent(unival.Parse(text))
		assert.ErrorIs(t, err, ErrFrame, text)
	}
}

func TestErrorEventFor(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Apply(docFrame(1, 0, "1")))
	err := tr.Apply(docFrame(1, 5, "2"))

	ev := ErrorEventFor(1, 5, err)
	assert.Equal(t, CodeSeq, ev.Code)
	assert.Equal(t, err.Error(), ev.Msg)

	assert.Equal(t, CodeCRC, ErrorEventFor(0, 0, &CRCMismatchError{}).Code)
	assert.Equal(t, CodeInternal, ErrorEventFor(0, 0, io.ErrUnexpectedEOF).Code)
}

func TestSender_RoundTrip(t *testing.T) {
	values := []string{
		`{count:1;items:[a]}`,
		`{count:2;items:[a,b]}`,
		`{count:2;items:[a,b]}`,
		`{items:[b];done:true}`,
		`[replaced]`,
	}
	var buf bytes.Buffer
	s := NewSender(NewWriterWithCRC(&buf), 7)
	for _, text := range values {
		require.NoError(t, s.Send(unival.Parse(text)))
	}
	require.NoError(t, s.Close())
	assert.Equal(t, uint64(len(values)), s.Seq())

	frames, err := NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, frames, len(values)+1)
	assert.Equal(t, KindDoc, frames[0].Kind)

	tr := NewTracker()
	for i, f := range frames[:len(values)] {
		if i > 0 {
			assert.Equal(t, KindEdit, f.Kind)
			assert.True(t, f.HasBase())
		}
		require.NoError(t, tr.Apply(f))
		assert.True(t, tr.Get(7).Value.Equal(unival.Parse(values[i])), "after frame %d", i)
	}
	require.NoError(t, tr.Apply(frames[len(values)]))
	state := tr.Get(7)
	assert.True(t, state.Final)
	assert.Empty(t, tr.PendingAcks(7))
}

func TestSender_SignedZero(t *testing.T) {
	values := []string{`[0.0]`, `[-0.0]`, `[1.0]`, `{z:-0.0}`, `{z:0.0}`}
	var buf bytes.Buffer
	s := NewSender(NewWriter(&buf), 1)
	for _, text := range values {
		require.NoError(t, s.Send(unival.Parse(text)))
	}

	frames, err := NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, frames, len(values))

	tr := NewTracker()
	for i, f := range frames {
		require.NoError(t, tr.Apply(f), "frame %d", i)
		assert.Equal(t, values[i], tr.Get(1).Value.String(), "frame %d", i)
	}
}

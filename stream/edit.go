package stream

import (
	"math"

	"github.com/pkg/errors"

	"github.com/Neumenon/unival/unival"
)

// ============================================================
// Edit Batches
// ============================================================
//
// The payload of an edit frame is a vector of composites, one per edit:
//
//	[{op:set;path:"users[0].name";value:ann},{op:resize;path:tags;size:2;value:{}}]
//
// Paths use the text accepted by unival.ParsePath. The batch applies
// through a single chain, so it applies completely or not at all.

// Op is an edit operation.
type Op uint8

const (
	OpSet Op = iota
	OpResize
	OpRemove
)

var opNames = [...]string{"set", "resize", "remove"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "unknown"
}

// ParseOp parses an operation name.
func ParseOp(s string) (Op, bool) {
	for i, name := range opNames {
		if s == name {
			return Op(i), true
		}
	}
	return 0, false
}

// Edit is one structural edit at Path. Value is the new value for OpSet
// and the fill value for OpResize; Size is only used by OpResize.
type Edit struct {
	Op    Op
	Path  []unival.Segment
	Value unival.Value
	Size  int
}

// SetAt returns an edit replacing or inserting the value at path.
func SetAt(path []unival.Segment, v unival.Value) Edit {
	return Edit{Op: OpSet, Path: path, Value: v}
}

// ResizeAt returns an edit resizing the vector at path.
func ResizeAt(path []unival.Segment, n int, fill unival.Value) Edit {
	return Edit{Op: OpResize, Path: path, Value: fill, Size: n}
}

// RemoveAt returns an edit removing the element at path.
func RemoveAt(path []unival.Segment) Edit {
	return Edit{Op: OpRemove, Path: path}
}

var (
	keyOp    = unival.String("op")
	keyPath  = unival.String("path")
	keyValue = unival.String("value")
	keySize  = unival.String("size")
)

// EncodeEdits converts edits to their payload value.
func EncodeEdits(edits []Edit) (unival.Value, error) {
	out := make([]unival.Value, 0, len(edits))
	for i, e := range edits {
		pairs := []unival.Pair{
			unival.P(keyOp, unival.String(e.Op.String())),
			unival.P(keyPath, unival.String(unival.FormatPath(e.Path))),
		}
		switch e.Op {
		case OpSet:
			pairs = append(pairs, unival.P(keyValue, e.Value))
		case OpResize:
			if e.Size < 0 {
				return unival.Error(), errors.Wrapf(ErrEdit, "edit %d: negative size %d", i, e.Size)
			}
			pairs = append(pairs, unival.P(keyValue, e.Value), unival.P(keySize, unival.Int(int64(e.Size))))
		case OpRemove:
			if len(e.Path) == 0 {
				return unival.Error(), errors.Wrapf(ErrEdit, "edit %d: remove needs a path", i)
			}
		default:
			return unival.Error(), errors.Wrapf(ErrEdit, "edit %d: unknown op %d", i, e.Op)
		}
		if e.Value.ContainsError() {
			return unival.Error(), errors.Wrapf(ErrEdit, "edit %d: value contains an error", i)
		}
		out = append(out, unival.MakeComposite(pairs...))
	}
	return unival.Vector(out...), nil
}

// DecodeEdits converts an edit payload value back to edits.
func DecodeEdits(v unival.Value) ([]Edit, error) {
	items, err := v.AsVector()
	if err != nil {
		return nil, errors.Wrap(ErrEdit, "edit batch is not a vector")
	}
	edits := make([]Edit, 0, len(items))
	for i, item := range items {
		e, err := decodeEdit(item)
		if err != nil {
			return nil, errors.Wrapf(err, "edit %d", i)
		}
		edits = append(edits, e)
	}
	return edits, nil
}

func decodeEdit(item unival.Value) (e Edit, err error) {
	if !item.IsComposite() {
		return e, errors.Wrap(ErrEdit, "not a composite")
	}
	name, err := item.Get(keyOp).AsString()
	if err != nil {
		return e, errors.Wrap(ErrEdit, "missing op")
	}
	var ok bool
	if e.Op, ok = ParseOp(name); !ok {
		return e, errors.Wrapf(ErrEdit, "unknown op %q", name)
	}
	text, err := item.Get(keyPath).AsString()
	if err != nil {
		return e, errors.Wrap(ErrEdit, "missing path")
	}
	if e.Path, err = unival.ParsePath(text); err != nil {
		return e, errors.Wrap(ErrEdit, err.Error())
	}
	switch e.Op {
	case OpSet:
		if !item.Has(keyValue) {
			return e, errors.Wrap(ErrEdit, "set without value")
		}
		e.Value = item.Get(keyValue)
	case OpResize:
		size, err := item.Get(keySize).AsInt()
		if err != nil || size < 0 {
			return e, errors.Wrap(ErrEdit, "resize without a valid size")
		}
		e.Size = int(size)
		if item.Has(keyValue) {
			e.Value = item.Get(keyValue)
		}
	case OpRemove:
		if len(e.Path) == 0 {
			return e, errors.Wrap(ErrEdit, "remove needs a path")
		}
	}
	return e, nil
}

// ApplyEdits applies edits to base in order. If any edit fails, base is
// returned unchanged along with an error.
func ApplyEdits(base unival.Value, edits []Edit) (unival.Value, error) {
	c := base.Edit()
	for _, e := range edits {
		c = c.OnPath(e.Path...)
		switch e.Op {
		case OpSet:
			c = c.Set(e.Value)
		case OpResize:
			c = c.Resize(e.Size, e.Value)
		case OpRemove:
			c = c.Remove()
		default:
			return base, errors.Wrapf(ErrEdit, "unknown op %d", e.Op)
		}
	}
	out := c.Commit()
	if out.IsError() {
		return base, errors.Wrapf(ErrEdit, "batch of %d edits does not apply", len(edits))
	}
	return out, nil
}

// Diff returns edits that turn a into b. Containers of the same kind are
// edited element-wise; anything else is replaced whole.
func Diff(a, b unival.Value) []Edit {
	return diff(nil, nil, a, b)
}

func diff(edits []Edit, path []unival.Segment, a, b unival.Value) []Edit {
	switch {
	case a.IsVector() && b.IsVector():
		av, _ := a.AsVector()
		bv, _ := b.AsVector()
		if len(av) != len(bv) {
			edits = append(edits, ResizeAt(clonePath(path), len(bv), unival.Empty()))
			if len(av) > len(bv) {
				av = av[:len(bv)]
			}
		}
		for i, x := range bv {
			old := unival.Empty()
			if i < len(av) {
				old = av[i]
			}
			edits = diff(edits, append(path, unival.IndexSeg(i)), old, x)
		}
		return edits

	case a.IsComposite() && b.IsComposite():
		for k := range a.All() {
			if !b.Has(k) {
				edits = append(edits, RemoveAt(appendPath(path, unival.KeySeg(k))))
			}
		}
		for k, x := range b.Pairs() {
			if !a.Has(k) {
				edits = append(edits, SetAt(appendPath(path, unival.KeySeg(k)), x))
				continue
			}
			edits = diff(edits, append(path, unival.KeySeg(k)), a.Get(k), x)
		}
		return edits

	default:
		if sameLeaf(a, b) {
			return edits
		}
		return append(edits, SetAt(clonePath(path), b))
	}
}

// sameLeaf is Equal, except that floats must match bit for bit: 0.0 and
// -0.0 compare equal but print differently.
func sameLeaf(a, b unival.Value) bool {
	if a.IsFloat() && b.IsFloat() {
		x, _ := a.AsFloat()
		y, _ := b.AsFloat()
		return math.Float64bits(x) == math.Float64bits(y)
	}
	return a.Equal(b)
}

func clonePath(path []unival.Segment) []unival.Segment {
	return append([]unival.Segment(nil), path...)
}

func appendPath(path []unival.Segment, seg unival.Segment) []unival.Segment {
	return append(clonePath(path), seg)
}

package unival

import (
	"slices"
	"strconv"
	"strings"
)

// ============================================================
// Chain - Batched Path-addressed Editor
// ============================================================
//
// A chain records edits against a snapshot and applies them on Commit:
//
//   v.Edit().On(0).OnString("k").Set(x).Resize(3, y).Commit()
//
// On* calls extend the cursor; Set, Resize and Remove close the cursor
// into an operation and reset it to the root. Commit replays the
// operations in order on a working copy and returns Error if any of them
// fails, so a caller never sees a partially applied edit.

// segKind indicates the type of path segment.
type segKind uint8

const (
	segIndex segKind = iota // Vector index
	segKey                  // Composite key
)

// Segment is one step of a chain path.
type Segment struct {
	kind  segKind
	index int
	key   Value
}

// IndexSeg creates a vector index segment.
func IndexSeg(i int) Segment {
	return Segment{kind: segIndex, index: i}
}

// KeySeg creates a composite key segment.
func KeySeg(key Value) Segment {
	return Segment{kind: segKey, key: key}
}

// IsIndex reports whether the segment addresses a vector element.
func (s Segment) IsIndex() bool {
	return s.kind == segIndex
}

// Index returns the vector index of an index segment.
func (s Segment) Index() int {
	return s.index
}

// Key returns the composite key of a key segment.
func (s Segment) Key() Value {
	return s.key
}

// String returns the path text of the segment: [N] for indices, .name for
// identifier keys, {key} for any other key.
func (s Segment) String() string {
	if s.kind == segIndex {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	if name, err := s.key.AsString(); err == nil && isIdentifier(name) && !isKeyword(name) {
		return "." + name
	}
	return "{" + s.key.String() + "}"
}

// actionKind is the type of a chain operation.
type actionKind uint8

const (
	actSet actionKind = iota
	actResize
	actRemove
)

// String returns the action name.
func (k actionKind) String() string {
	switch k {
	case actSet:
		return "set"
	case actResize:
		return "resize"
	case actRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// op is a recorded chain operation.
type op struct {
	path   []Segment
	action actionKind
	value  Value // Set value or Resize default
	size   int   // Resize size
}

// Chain is a persistent builder of batched edits. Every method returns a new
// Chain; the receiver and the base value are never modified.
type Chain struct {
	base   Value
	cursor []Segment
	ops    []op
}

// Edit starts a chain over v.
func (v Value) Edit() Chain {
	return Chain{base: v}
}

// Base returns the snapshot the chain edits.
func (c Chain) Base() Value {
	return c.base
}

// Path returns a copy of the pending cursor.
func (c Chain) Path() []Segment {
	return slices.Clone(c.cursor)
}

// Len returns the number of recorded operations.
func (c Chain) Len() int {
	return len(c.ops)
}

// On moves the cursor to the vector element at index i.
func (c Chain) On(i int) Chain {
	return c.on(IndexSeg(i))
}

// OnKey moves the cursor to the composite element under key.
func (c Chain) OnKey(key Value) Chain {
	return c.on(KeySeg(key))
}

// OnString moves the cursor to the composite element under a string key.
func (c Chain) OnString(key string) Chain {
	return c.on(KeySeg(String(key)))
}

// OnIntKey moves the cursor to the composite element under an integer key.
func (c Chain) OnIntKey(key int64) Chain {
	return c.on(KeySeg(Int(key)))
}

// OnPath moves the cursor along several segments.
func (c Chain) OnPath(path ...Segment) Chain {
	c.cursor = append(slices.Clip(c.cursor), path...)
	return c
}

// Set replaces the value at the cursor and resets the cursor.
func (c Chain) Set(x Value) Chain {
	return c.record(op{action: actSet, value: x})
}

// Resize resizes the vector at the cursor and resets the cursor.
func (c Chain) Resize(n int, def Value) Chain {
	return c.record(op{action: actResize, size: n, value: def})
}

// Remove removes the element at the cursor and resets the cursor.
func (c Chain) Remove() Chain {
	return c.record(op{action: actRemove})
}

// slices.Clip forces the next append to allocate, so chains branched from
// the same prefix never write into each other's storage.
func (c Chain) on(seg Segment) Chain {
	c.cursor = append(slices.Clip(c.cursor), seg)
	return c
}

func (c Chain) record(o op) Chain {
	o.path = c.cursor
	c.cursor = nil
	c.ops = append(slices.Clip(c.ops), o)
	return c
}

// Commit applies the recorded operations in order and returns the result.
// If any operation fails the whole commit returns Error.
func (c Chain) Commit() Value {
	work := c.base
	for _, o := range c.ops {
		if !applyOp(&work, o) {
			return Error()
		}
	}
	return work
}

// applyOp descends o.path from root and applies the action at its end.
func applyOp(root *Value, o op) bool {
	if len(o.path) == 0 {
		switch o.action {
		case actSet:
			*root = o.value
			return true
		case actResize:
			root.detach()
			return root.resize(o.size, o.value)
		default:
			return false
		}
	}

	node := root
	for _, seg := range o.path[:len(o.path)-1] {
		next, ok := node.child(seg)
		if !ok {
			return false
		}
		node = next
	}

	last := o.path[len(o.path)-1]
	switch o.action {
	case actSet:
		node.detach()
		if last.kind == segIndex {
			return node.setIndex(last.index, o.value)
		}
		return node.setKey(last.key, o.value)

	case actResize:
		target, ok := node.child(last)
		if !ok {
			return false
		}
		target.detach()
		return target.resize(o.size, o.value)

	case actRemove:
		node.detach()
		if last.kind == segIndex {
			return node.removeIndex(last.index)
		}
		return node.removeKey(last.key)

	default:
		return false
	}
}

// FormatPath returns the path text of segs, as accepted by ParsePath. A
// leading name is written without its dot.
func FormatPath(segs []Segment) string {
	var sb strings.Builder
	for i, s := range segs {
		text := s.String()
		if i == 0 && text[0] == '.' {
			text = text[1:]
		}
		sb.WriteString(text)
	}
	return sb.String()
}

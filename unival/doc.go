// Package unival implements a self-describing, dynamically-typed value
// together with its text format, a batched structural editor and an
// iteration protocol.
//
// # Data Model
//
// A Value is exactly one of, in this order:
//
//	Empty      the zero Value; can still become a Vector or a Composite
//	Error      failure sentinel, distinct from Empty
//	Boolean    bool
//	Integer    int64
//	Float      float64
//	String     UTF-8 text
//	Bytes      []int8
//	Vector     ordered []Value
//	Composite  sorted (key, value) pairs with unique keys
//
// The order of the kinds is the ordering relation: every Empty sorts
// before every Error, every Boolean before every Integer and so on,
// whatever the payload.
//
// # Totality
//
// No operation panics. Anything that cannot be done yields the Error
// value, and operations on an Error value yield Error again:
//
//	v := unival.Vector(unival.Int(1), unival.Int(2))
//	v.Index(5)           // Error
//	v.Index(5).Index(0)  // Error
//
// Values are immutable from the outside. Mutators return a new Value.
//
// # Chain
//
// Nested edits are batched with a Chain and applied atomically:
//
//	v = v.Edit().
//		On(0).Set(unival.Int(42)).
//		OnString("name").Set(unival.String("x")).
//		Commit()
//
// If any step fails Commit returns Error and nothing is applied.
//
// # Text Syntax
//
//	Empty:      {}
//	Null:       null             (parses to Empty)
//	Bool:       true / false
//	Integer:    42  -0x1A  0b101  0o17
//	Float:      1.5  .5  1.  2e10
//	String:     "text\x0a" "more"   or a bare identifier
//	Bytes:      <01 02 ff>
//	Vector:     [1, 2; 3]
//	Composite:  { a: 1; b: 2 }
//
// Comments (// to end of line and /* ... */) may appear wherever whitespace
// is allowed.
package unival

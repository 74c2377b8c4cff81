package unival

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/templexxx/xhex"
)

// Mode selects the printed text form. Pretty and JSON can be combined.
type Mode uint8

const (
	modePretty Mode = 1 << iota
	modeJSON
)

const (
	Compact     Mode = 0
	Pretty           = modePretty
	JSONCompact      = modeJSON
	JSONPretty       = modePretty | modeJSON
)

// IsPretty reports whether the mode indents.
func (m Mode) IsPretty() bool { return m&modePretty != 0 }

// IsJSON reports whether the mode prints JSON.
func (m Mode) IsJSON() bool { return m&modeJSON != 0 }

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Compact:
		return "compact"
	case Pretty:
		return "pretty"
	case JSONCompact:
		return "json_compact"
	case JSONPretty:
		return "json_pretty"
	default:
		return "unknown"
	}
}

// ParseMode returns the mode with the given name.
func ParseMode(name string) (Mode, bool) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "_")) {
	case "compact", "":
		return Compact, true
	case "pretty":
		return Pretty, true
	case "json", "json_compact":
		return JSONCompact, true
	case "json_pretty":
		return JSONPretty, true
	default:
		return Compact, false
	}
}

// WriteFunc accepts a chunk of output and returns how many bytes it took.
// Taking fewer than offered aborts printing.
type WriteFunc func(chunk []byte) int

// Print writes v to write in the given mode. It returns false if the sink
// rejects a write, or if v is or contains Error or a non-finite float.
func Print(v Value, write WriteFunc, mode Mode) bool {
	if write == nil || v.ContainsError() {
		return false
	}
	p := &printer{write: write, mode: mode, ok: true}
	p.value(v, 0)
	return p.ok
}

// ToString returns the text of v in the given mode.
func ToString(v Value, mode Mode) (string, bool) {
	var sb strings.Builder
	ok := Print(v, func(chunk []byte) int {
		n, _ := sb.Write(chunk)
		return n
	}, mode)
	if !ok {
		return "", false
	}
	return sb.String(), true
}

// AppendText appends the text of v to dst.
func AppendText(dst []byte, v Value, mode Mode) ([]byte, bool) {
	ok := Print(v, func(chunk []byte) int {
		dst = append(dst, chunk...)
		return len(chunk)
	}, mode)
	return dst, ok
}

// ============================================================
// Printer
// ============================================================

type printer struct {
	write WriteFunc
	mode  Mode
	ok    bool
}

func (p *printer) raw(b []byte) {
	if !p.ok || len(b) == 0 {
		return
	}
	if p.write(b) < len(b) {
		p.ok = false
	}
}

func (p *printer) str(s string) {
	p.raw([]byte(s))
}

func (p *printer) indent(n int) {
	if n > 0 {
		p.str(strings.Repeat(" ", n))
	}
}

func (p *printer) value(v Value, indent int) {
	if !p.ok {
		return
	}
	switch v.kind {
	case KindEmpty:
		switch {
		case p.mode.IsJSON():
			p.str("null")
		case p.mode.IsPretty():
			p.str("{ }")
		default:
			p.str("{}")
		}

	case KindBoolean:
		p.str(strconv.FormatBool(v.boolVal))

	case KindInteger:
		p.str(strconv.FormatInt(v.intVal, 10))

	case KindFloat:
		s, ok := formatFloat(v.floatVal)
		if !ok {
			p.ok = false
			return
		}
		p.str(s)

	case KindString:
		switch {
		case p.mode.IsJSON():
			p.raw(appendJSONString(nil, v.strVal))
		case isBareString(v.strVal):
			p.str(v.strVal)
		default:
			p.raw(appendQuoted(nil, v.strVal, p.mode.IsPretty()))
		}

	case KindBytes:
		p.bytes(v.bytesVal, indent)

	case KindVector:
		p.vector(v.vecVal, indent)

	case KindComposite:
		p.composite(v.compVal, indent)

	default:
		p.ok = false
	}
}

// bytesPerLine is the pretty mode wrap width of byte arrays.
const bytesPerLine = 16

func (p *printer) bytes(data []int8, indent int) {
	raw := make([]byte, len(data))
	for i, b := range data {
		raw[i] = byte(b)
	}
	hex := make([]byte, len(raw)*2)
	if len(raw) > 0 {
		xhex.Encode(hex, raw)
	}

	if p.mode.IsJSON() {
		p.str(`"`)
		p.raw(hex)
		p.str(`"`)
		return
	}

	if len(data) == 0 {
		if p.mode.IsPretty() {
			p.str("< >")
		} else {
			p.str("<>")
		}
		return
	}

	p.str("<")
	for i := range raw {
		k := i
		if p.mode.IsPretty() {
			k = i % bytesPerLine
		}
		if k == 0 && p.mode.IsPretty() {
			p.str("\n")
			p.indent(indent + 2)
		}
		if k > 0 {
			p.str(" ")
		}
		p.raw(hex[i*2 : i*2+2])
	}
	if p.mode.IsPretty() {
		p.str("\n")
		p.indent(indent)
	}
	p.str(">")
}

func (p *printer) vector(elems []Value, indent int) {
	pretty := p.mode.IsPretty()
	if len(elems) == 0 {
		if pretty {
			p.str("[ ]")
		} else {
			p.str("[]")
		}
		return
	}

	p.str("[")
	if pretty {
		p.str("\n")
	}
	for i, e := range elems {
		if pretty {
			p.indent(indent + 2)
		}
		p.value(e, indent+2)
		if i+1 < len(elems) {
			p.str(",")
		}
		if pretty {
			p.str("\n")
		}
	}
	if pretty {
		p.indent(indent)
	}
	p.str("]")
}

func (p *printer) composite(pairs []Pair, indent int) {
	pretty, json := p.mode.IsPretty(), p.mode.IsJSON()
	if len(pairs) == 0 {
		if pretty {
			p.str("{ }")
		} else {
			p.str("{}")
		}
		return
	}

	p.str("{")
	if pretty {
		p.str("\n")
	}
	for i, pair := range pairs {
		if pretty {
			p.indent(indent + 2)
		}
		if json {
			p.jsonKey(pair.Key)
		} else {
			p.value(pair.Key, indent+2)
		}
		p.str(":")
		if pretty {
			p.str(" ")
		}
		p.value(pair.Value, indent+2)

		switch {
		case i+1 < len(pairs) && json:
			p.str(",")
		case i+1 < len(pairs):
			p.str(";")
		case pretty && !json:
			p.str(";")
		}
		if pretty {
			p.str("\n")
		}
	}
	if pretty {
		p.indent(indent)
	}
	p.str("}")
}

// jsonKey writes a composite key as a JSON string. Keys that are not
// strings are printed as compact JSON first.
func (p *printer) jsonKey(key Value) {
	if s, err := key.AsString(); err == nil {
		p.raw(appendJSONString(nil, s))
		return
	}
	text, ok := ToString(key, JSONCompact)
	if !ok {
		p.ok = false
		return
	}
	p.raw(appendJSONString(nil, text))
}

// ============================================================
// Scalars
// ============================================================

// fixedExpLimit is the decimal exponent from which floats print in
// scientific notation, matching 17 significant digit %g output.
const fixedExpLimit = 17

// formatFloat returns the shortest text that parses back to f as a float.
// The text always has a '.' or an exponent.
func formatFloat(f float64) (string, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(s[strings.IndexByte(s, 'e')+1:])
	if exp >= -4 && exp < fixedExpLimit {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s, true
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentChar(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

// isIdentifier checks [A-Za-z_][A-Za-z0-9_]*.
func isIdentifier(s string) bool {
	if len(s) == 0 || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}

// isKeyword reports words that parse as something other than a string.
func isKeyword(s string) bool {
	switch s {
	case "null", "true", "false":
		return true
	}
	return false
}

// isBareString reports whether s can be printed without quotes.
func isBareString(s string) bool {
	return isIdentifier(s) && !isKeyword(s)
}

const hexDigits = "0123456789abcdef"

func isHexDigit(b byte) bool {
	return isDigitOf(b, 16)
}

// appendQuoted appends s as a quoted unival string. Bytes outside printable
// ASCII become \xHH. A hex digit right after such an escape is moved into a
// new adjacent literal ("" or " " in pretty mode) so it cannot be read as
// part of the escape.
func appendQuoted(dst []byte, s string, pretty bool) []byte {
	dst = append(dst, '"')
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c >= 0x7f {
			dst = append(dst, '\\', 'x', hexDigits[c>>4], hexDigits[c&0x0f])
			escaped = true
			continue
		}
		switch {
		case c == '"' || c == '\\':
			dst = append(dst, '\\')
		case escaped && isHexDigit(c):
			if pretty {
				dst = append(dst, '"', ' ', '"')
			} else {
				dst = append(dst, '"', '"')
			}
		}
		dst = append(dst, c)
		escaped = false
	}
	return append(dst, '"')
}

// appendJSONString appends s as a JSON string literal (RFC 8259). Bytes that
// are not valid UTF-8 are written as \u00XX.
func appendJSONString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '"':
			dst = append(dst, '\\', '"')
		case c == '\\':
			dst = append(dst, '\\', '\\')
		case c == '\b':
			dst = append(dst, '\\', 'b')
		case c == '\t':
			dst = append(dst, '\\', 't')
		case c == '\n':
			dst = append(dst, '\\', 'n')
		case c == '\f':
			dst = append(dst, '\\', 'f')
		case c == '\r':
			dst = append(dst, '\\', 'r')
		case c < 0x20:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0x0f])
		case c < utf8.RuneSelf:
			dst = append(dst, c)
		default:
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size == 1 {
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0x0f])
			} else {
				dst = append(dst, s[i:i+size]...)
			}
			i += size
			continue
		}
		i++
	}
	return append(dst, '"')
}

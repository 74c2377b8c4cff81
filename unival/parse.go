package unival

import (
	"math"
	"strconv"
	"strings"
)

// maxDepth bounds container nesting so hostile input cannot exhaust the stack.
const maxDepth = 4096

// Parse parses unival text. The whole input must be one value, optionally
// surrounded by whitespace and comments; anything else yields Error.
func Parse(text string) Value {
	return ParseFrom(FromString(text))
}

// ParseBytes parses unival text from a byte slice.
func ParseBytes(data []byte) Value {
	return ParseFrom(FromBytes(data))
}

// ParseFrom parses unival text pulled lazily from pull.
func ParseFrom(pull PullFunc) Value {
	v, c, ok := parseValue(NewSource(pull), 0)
	if !ok {
		return Error()
	}
	c, ok = skipSpace(c)
	if !ok || !c.EOF() {
		return Error()
	}
	return v
}

// ============================================================
// Whitespace and Comments
// ============================================================

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// skipSpace skips whitespace and comments. It fails only on an unterminated
// block comment.
func skipSpace(c Cursor) (Cursor, bool) {
	for {
		b, ok := c.peek()
		if !ok {
			return c, true
		}
		switch {
		case isSpace(b):
			c = c.Read(1)
		case c.hasPrefix("//"):
			c = c.Read(2)
			for {
				b, ok := c.peek()
				if !ok {
					break
				}
				c = c.Read(1)
				if b == '\n' {
					break
				}
			}
		case c.hasPrefix("/*"):
			c = c.Read(2)
			for !c.hasPrefix("*/") {
				if c.EOF() {
					return c, false
				}
				c = c.Read(1)
			}
			c = c.Read(2)
		default:
			return c, true
		}
	}
}

// expect consumes the byte ch after optional whitespace.
func expect(c Cursor, ch byte) (Cursor, bool) {
	c, ok := skipSpace(c)
	if !ok {
		return c, false
	}
	if b, ok := c.peek(); !ok || b != ch {
		return c, false
	}
	return c.Read(1), true
}

// ============================================================
// Values
// ============================================================

// parseValue parses any value after optional whitespace.
func parseValue(c Cursor, depth int) (Value, Cursor, bool) {
	if depth > maxDepth {
		return Error(), c, false
	}
	c, ok := skipSpace(c)
	if !ok {
		return Error(), c, false
	}
	b, ok := c.peek()
	if !ok {
		return Error(), c, false
	}

	switch {
	case b == '{':
		if next, ok := parseEmpty(c); ok {
			return Empty(), next, true
		}
		return parseComposite(c, depth)
	case b == '[':
		return parseVector(c, depth)
	case b == '<':
		return parseBytes(c)
	case b == '"':
		return parseStrings(c)
	case isIdentStart(b):
		return parseWord(c)
	case b == '+' || b == '-' || b == '.' || isDigit(b):
		if v, next, ok := parseFloat(c); ok {
			return v, next, true
		}
		return parseInteger(c)
	default:
		return Error(), c, false
	}
}

func parseEmpty(c Cursor) (Cursor, bool) {
	c, ok := expect(c, '{')
	if !ok {
		return c, false
	}
	return expect(c, '}')
}

// parseWord parses null, true, false or a bare identifier string.
func parseWord(c Cursor) (Value, Cursor, bool) {
	var sb strings.Builder
	for {
		b, ok := c.peek()
		if !ok || !isIdentChar(b) {
			break
		}
		sb.WriteByte(b)
		c = c.Read(1)
	}
	switch word := sb.String(); word {
	case "null":
		return Empty(), c, true
	case "true":
		return Bool(true), c, true
	case "false":
		return Bool(false), c, true
	default:
		return String(word), c, true
	}
}

// ============================================================
// Numbers
// ============================================================

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func digitValue(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	default:
		return -1
	}
}

func isDigitOf(b byte, base int) bool {
	d := digitValue(b)
	return d >= 0 && d < base
}

// readDigits appends the run of base digits after c to sb.
func readDigits(c Cursor, base int, sb *strings.Builder) (Cursor, int) {
	n := 0
	for {
		b, ok := c.peek()
		if !ok || !isDigitOf(b, base) {
			return c, n
		}
		sb.WriteByte(b)
		c = c.Read(1)
		n++
	}
}

// readSign consumes an optional sign and writes it to sb.
func readSign(c Cursor, sb *strings.Builder) (Cursor, bool) {
	b, ok := c.peek()
	if ok && (b == '+' || b == '-') {
		sb.WriteByte(b)
		return c.Read(1), b == '-'
	}
	return c, false
}

// parseFloat parses a decimal float. A dot or an exponent is required.
func parseFloat(c Cursor) (Value, Cursor, bool) {
	var sb strings.Builder
	c, _ = readSign(c, &sb)
	c, intDigits := readDigits(c, 10, &sb)

	fracDigits, hasDot := 0, false
	if b, ok := c.peek(); ok && b == '.' {
		hasDot = true
		sb.WriteByte('.')
		c, fracDigits = readDigits(c.Read(1), 10, &sb)
	}
	if intDigits == 0 && fracDigits == 0 {
		return Error(), c, false
	}

	hasExp := false
	if b, ok := c.peek(); ok && (b == 'e' || b == 'E') {
		sb.WriteByte('e')
		next, _ := readSign(c.Read(1), &sb)
		next, expDigits := readDigits(next, 10, &sb)
		if expDigits == 0 {
			return Error(), c, false
		}
		c, hasExp = next, true
	}
	if !hasDot && !hasExp {
		return Error(), c, false
	}

	f, err := strconv.ParseFloat(sb.String(), 64)
	if err != nil {
		return Error(), c, false
	}
	return Float(f), c, true
}

// parseInteger parses a signed integer in base 2, 8, 10 or 16.
func parseInteger(c Cursor) (Value, Cursor, bool) {
	var sign strings.Builder
	c, negative := readSign(c, &sign)

	base := 10
	switch p := strings.ToLower(c.Read(2).String()); p {
	case "0b":
		base = 2
	case "0o":
		base = 8
	case "0x":
		base = 16
	}

	var digits strings.Builder
	next, n := c, 0
	if base != 10 {
		next, n = readDigits(c.Read(2), base, &digits)
		if n == 0 {
			base = 10
		}
	}
	if base == 10 {
		digits.Reset()
		next, n = readDigits(c, 10, &digits)
	}
	if n == 0 {
		return Error(), c, false
	}

	mag, err := strconv.ParseUint(digits.String(), base, 64)
	if err != nil {
		return Error(), c, false
	}
	if negative {
		if mag > uint64(math.MaxInt64)+1 {
			return Error(), c, false
		}
		return Int(int64(-mag)), next, true
	}
	if mag > math.MaxInt64 {
		return Error(), c, false
	}
	return Int(int64(mag)), next, true
}

// ============================================================
// Strings
// ============================================================

// parseStrings parses one or more adjacent quoted strings and joins them.
func parseStrings(c Cursor) (Value, Cursor, bool) {
	var sb strings.Builder
	c, ok := parseQuoted(c, &sb)
	if !ok {
		return Error(), c, false
	}
	for {
		next, ok := skipSpace(c)
		if !ok {
			break
		}
		if b, ok := next.peek(); !ok || b != '"' {
			break
		}
		next, ok = parseQuoted(next, &sb)
		if !ok {
			return Error(), c, false
		}
		c = next
	}
	return String(sb.String()), c, true
}

// parseQuoted parses a single quoted string into sb.
func parseQuoted(c Cursor, sb *strings.Builder) (Cursor, bool) {
	c, ok := expect(c, '"')
	if !ok {
		return c, false
	}
	for {
		b, ok := c.peek()
		if !ok {
			return c, false
		}
		c = c.Read(1)
		switch b {
		case '"':
			return c, true
		case '\\':
			if c, ok = parseEscape(c, sb); !ok {
				return c, false
			}
		default:
			sb.WriteByte(b)
		}
	}
}

// parseEscape parses the escape sequence after a backslash.
func parseEscape(c Cursor, sb *strings.Builder) (Cursor, bool) {
	b, ok := c.peek()
	if !ok {
		return c, false
	}
	switch {
	case b == 'x' || b == 'X':
		hex := c.Read(1).Read(2)
		s := hex.String()
		if len(s) != 2 || !isDigitOf(s[0], 16) || !isDigitOf(s[1], 16) {
			return c, false
		}
		sb.WriteByte(byte(digitValue(s[0])<<4 | digitValue(s[1])))
		return hex, true
	case isDigitOf(b, 8):
		n := 0
		for i := 0; i < 3; i++ {
			d, ok := c.peek()
			if !ok || !isDigitOf(d, 8) {
				break
			}
			n = n*8 + digitValue(d)
			c = c.Read(1)
		}
		if n > 0xff {
			return c, false
		}
		sb.WriteByte(byte(n))
		return c, true
	case isDigit(b):
		return c, false
	default:
		sb.WriteByte(b)
		return c.Read(1), true
	}
}

// ============================================================
// Byte Arrays
// ============================================================

// parseBytes parses <hh hh ...>.
func parseBytes(c Cursor) (Value, Cursor, bool) {
	c, ok := expect(c, '<')
	if !ok {
		return Error(), c, false
	}
	var data []int8
	for {
		if c, ok = skipSpace(c); !ok {
			return Error(), c, false
		}
		b, ok := c.peek()
		if !ok {
			return Error(), c, false
		}
		if b == '>' {
			return Value{kind: KindBytes, bytesVal: data}, c.Read(1), true
		}
		pair := c.Read(2)
		s := pair.String()
		if len(s) != 2 || !isDigitOf(s[0], 16) || !isDigitOf(s[1], 16) {
			return Error(), c, false
		}
		data = append(data, int8(digitValue(s[0])<<4|digitValue(s[1])))
		c = pair
	}
}

// ============================================================
// Containers
// ============================================================

func isSeparator(b byte) bool {
	return b == ',' || b == ';'
}

// parseVector parses [v (sep v)* sep?].
func parseVector(c Cursor, depth int) (Value, Cursor, bool) {
	c, ok := expect(c, '[')
	if !ok {
		return Error(), c, false
	}
	elems := []Value{}
	for {
		if c, ok = skipSpace(c); !ok {
			return Error(), c, false
		}
		if b, ok := c.peek(); ok && b == ']' {
			return Value{kind: KindVector, vecVal: elems}, c.Read(1), true
		}

		var elem Value
		if elem, c, ok = parseValue(c, depth+1); !ok {
			return Error(), c, false
		}
		elems = append(elems, elem)

		if c, ok = skipSpace(c); !ok {
			return Error(), c, false
		}
		b, ok := c.peek()
		switch {
		case ok && isSeparator(b):
			c = c.Read(1)
		case ok && b == ']':
		default:
			return Error(), c, false
		}
	}
}

// parseComposite parses {k: v (sep)? ...}. Separators between pairs are
// optional.
func parseComposite(c Cursor, depth int) (Value, Cursor, bool) {
	c, ok := expect(c, '{')
	if !ok {
		return Error(), c, false
	}
	var pairs []Pair
	for {
		if c, ok = skipSpace(c); !ok {
			return Error(), c, false
		}
		if b, ok := c.peek(); ok && b == '}' {
			return MakeComposite(pairs...), c.Read(1), true
		}

		var key, val Value
		if key, c, ok = parseValue(c, depth+1); !ok {
			return Error(), c, false
		}
		if c, ok = expect(c, ':'); !ok {
			return Error(), c, false
		}
		if val, c, ok = parseValue(c, depth+1); !ok {
			return Error(), c, false
		}
		pairs = append(pairs, Pair{Key: key, Value: val})

		if c, ok = skipSpace(c); !ok {
			return Error(), c, false
		}
		if b, ok := c.peek(); ok && isSeparator(b) {
			c = c.Read(1)
		}
	}
}

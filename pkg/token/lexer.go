package token

import "strings"

// Next skips spaces and tabs and returns the next token, advancing c past it.
// It never fails: exhausted input yields EOF and anything unrecognized yields
// Unknown with its first byte consumed.
func Next(c *Cursor) Token {
	c.skipSpace()
	if c.AtEOF() {
		return Token{Kind: EOF, Start: c.pos, End: c.pos}
	}

	start := c.pos
	ch := c.buf[c.pos]
	c.pos++
	next, _ := c.peekByte()

	switch {
	case ch == '{' && next == '{':
		c.pos++
		return Token{Kind: ExprStart, Start: start, End: c.pos}
	case ch == '}' && next == '}':
		c.pos++
		return Token{Kind: ExprEnd, Start: start, End: c.pos}
	case ch == '=':
		return Token{Kind: Assign, Start: start, End: c.pos}
	case ch == '\n':
		return Token{Kind: EOL, Start: start, End: c.pos}
	case ch == '\r' && next == '\n':
		c.pos++
		return Token{Kind: EOL, Start: start, End: c.pos}
	case ch == '"':
		return scanPath(c, start)
	case isIdentStart(ch):
		for c.pos < c.end && isIdentPart(c.buf[c.pos]) {
			c.pos++
		}
		tok := Token{Kind: Identifier, Start: start, End: c.pos}
		if kind, ok := keywords[strings.ToLower(string(c.buf[start:c.pos]))]; ok {
			tok.Kind = kind
		}
		return tok
	}
	return Token{Kind: Unknown, Start: start, End: c.pos}
}

// Peek returns the token Next would return without moving c.
func Peek(c *Cursor) Token {
	snapshot := *c
	return Next(&snapshot)
}

// scanPath consumes a double-quoted string whose opening quote sits at
// start. A backslash escapes the byte after it. Reaching the end of input
// before the closing quote yields Unknown.
func scanPath(c *Cursor, start int) Token {
	for c.pos < c.end {
		switch c.buf[c.pos] {
		case '\\':
			c.pos += 2
			if c.pos > c.end {
				c.pos = c.end
			}
		case '"':
			tok := Token{Kind: Path, Start: start + 1, End: c.pos}
			c.pos++
			return tok
		default:
			c.pos++
		}
	}
	return Token{Kind: Unknown, Start: start, End: c.pos}
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return isLetter(ch) || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_' || ch == '-' || ch == '.'
}

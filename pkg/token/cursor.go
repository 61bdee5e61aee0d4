package token

// Cursor is a scan position over one immutable buffer. Copying a Cursor
// yields an independent scan state over the same bytes.
type Cursor struct {
	buf []byte
	end int
	pos int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) Cursor {
	return Cursor{buf: buf, end: len(buf)}
}

// NewRangeCursor returns a cursor over buf[start:end]. Offsets reported by
// the cursor stay relative to buf. Out-of-range bounds are clamped.
func NewRangeCursor(buf []byte, start, end int) Cursor {
	if end > len(buf) || end < 0 {
		end = len(buf)
	}
	if start < 0 {
		start = 0
	}
	if start > end {
		start = end
	}
	return Cursor{buf: buf, end: end, pos: start}
}

// Pos returns the current byte offset.
func (c *Cursor) Pos() int { return c.pos }

// End returns the offset one past the last scannable byte.
func (c *Cursor) End() int { return c.end }

// Buffer returns the underlying buffer. Callers must not modify it.
func (c *Cursor) Buffer() []byte { return c.buf }

// Seek moves the cursor to pos, clamped to the scannable range.
func (c *Cursor) Seek(pos int) {
	switch {
	case pos < 0:
		pos = 0
	case pos > c.end:
		pos = c.end
	}
	c.pos = pos
}

// AtEOF reports whether the cursor has no bytes left.
func (c *Cursor) AtEOF() bool {
	return c.pos >= c.end
}

// Text returns the bytes of tok as a string. A token whose span does not fit
// the buffer yields "".
func (c *Cursor) Text(tok Token) string {
	if tok.Start < 0 || tok.End > len(c.buf) || tok.Start > tok.End {
		return ""
	}
	return string(c.buf[tok.Start:tok.End])
}

// HasPrefix reports whether the unscanned input starts with s.
func (c *Cursor) HasPrefix(s string) bool {
	if c.end-c.pos < len(s) {
		return false
	}
	return string(c.buf[c.pos:c.pos+len(s)]) == s
}

func (c *Cursor) peekByte() (byte, bool) {
	if c.pos >= c.end {
		return 0, false
	}
	return c.buf[c.pos], true
}

func (c *Cursor) skipSpace() {
	for c.pos < c.end && (c.buf[c.pos] == ' ' || c.buf[c.pos] == '\t') {
		c.pos++
	}
}

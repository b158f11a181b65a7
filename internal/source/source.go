// Package source provides a character cursor over an immutable source string
// with position tracking and bounded lookahead.
package source

import (
	"unicode/utf8"

	"github.com/reticulated/retic/internal/token"
)

// EOFChar is the sentinel rune returned by Advance and Peek past the end of
// the input.
const EOFChar rune = 0

// MaxLookahead is the number of characters the cursor can peek ahead.
const MaxLookahead = 2

// Cursor walks a source string one character at a time, tracking the current
// line, column and byte offset, with a small ring of lookahead characters.
type Cursor struct {
	source    string
	pos       token.Position
	readPos   int // byte offset of the first character not yet in lookahead
	lookahead [MaxLookahead]rune
}

// NewCursor creates a cursor positioned at the start of source.
func NewCursor(source string) *Cursor {
	c := &Cursor{source: source}
	for i := 0; i < MaxLookahead; i++ {
		c.lookahead[i] = c.decodeNext()
	}
	return c
}

func (c *Cursor) decodeNext() rune {
	if c.readPos >= len(c.source) {
		return EOFChar
	}
	r, size := utf8.DecodeRuneInString(c.source[c.readPos:])
	c.readPos += size
	return r
}

// Pos returns the position of the next character to be consumed.
func (c *Cursor) Pos() token.Position {
	return c.pos
}

// Advance consumes and returns the next character, updating the position.
// At end of input it returns EOFChar and the position no longer moves lines.
func (c *Cursor) Advance() rune {
	ch := c.lookahead[0]
	copy(c.lookahead[:], c.lookahead[1:])
	c.lookahead[MaxLookahead-1] = c.decodeNext()

	if ch == EOFChar {
		return EOFChar
	}

	c.pos.Offset += utf8.RuneLen(ch)
	if ch == '\n' {
		c.pos.Line++
		c.pos.Column = 0
	} else {
		c.pos.Column++
	}
	return ch
}

// Peek returns the character n positions ahead without consuming it.
// Peek(0) is the next character Advance would return. n must be below
// MaxLookahead.
func (c *Cursor) Peek(n int) rune {
	if n < 0 || n >= MaxLookahead {
		return EOFChar
	}
	return c.lookahead[n]
}

// AtEOF reports whether the cursor has consumed the entire input.
func (c *Cursor) AtEOF() bool {
	return c.lookahead[0] == EOFChar
}

// Range returns the source text between two positions (by byte offset).
func (c *Cursor) Range(start, end token.Position) string {
	return c.source[start.Offset:end.Offset]
}

// Source returns the full source text the cursor iterates over.
func (c *Cursor) Source() string {
	return c.source
}

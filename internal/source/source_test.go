package source

import (
	"testing"

	"github.com/reticulated/retic/internal/token"
)

func TestCursorAdvance(t *testing.T) {
	c := NewCursor("ab\ncd")

	tests := []struct {
		ch     rune
		line   int
		column int
		offset int
	}{
		{'a', 0, 1, 1},
		{'b', 0, 2, 2},
		{'\n', 1, 0, 3},
		{'c', 1, 1, 4},
		{'d', 1, 2, 5},
	}

	for i, tt := range tests {
		ch := c.Advance()
		if ch != tt.ch {
			t.Fatalf("tests[%d] - wrong char. expected=%q, got=%q", i, tt.ch, ch)
		}
		pos := c.Pos()
		if pos.Line != tt.line || pos.Column != tt.column || pos.Offset != tt.offset {
			t.Fatalf("tests[%d] - wrong position. expected=%d:%d@%d, got=%d:%d@%d",
				i, tt.line, tt.column, tt.offset, pos.Line, pos.Column, pos.Offset)
		}
	}
}

func TestCursorAdvanceAtEOF(t *testing.T) {
	c := NewCursor("x")
	c.Advance()

	if !c.AtEOF() {
		t.Fatalf("expected cursor to be at EOF")
	}

	// The cursor yields the sentinel indefinitely and stops moving.
	pos := c.Pos()
	for i := 0; i < 3; i++ {
		if ch := c.Advance(); ch != EOFChar {
			t.Fatalf("expected EOF sentinel, got %q", ch)
		}
	}
	if c.Pos() != pos {
		t.Fatalf("position moved past EOF: %v -> %v", pos, c.Pos())
	}
}

func TestCursorPeek(t *testing.T) {
	c := NewCursor("xyz")

	if ch := c.Peek(0); ch != 'x' {
		t.Errorf("Peek(0) = %q, want 'x'", ch)
	}
	if ch := c.Peek(1); ch != 'y' {
		t.Errorf("Peek(1) = %q, want 'y'", ch)
	}

	c.Advance()
	if ch := c.Peek(0); ch != 'y' {
		t.Errorf("Peek(0) after advance = %q, want 'y'", ch)
	}
	if ch := c.Peek(1); ch != 'z' {
		t.Errorf("Peek(1) after advance = %q, want 'z'", ch)
	}

	c.Advance()
	c.Advance()
	if ch := c.Peek(0); ch != EOFChar {
		t.Errorf("Peek(0) at EOF = %q, want sentinel", ch)
	}
}

func TestCursorPeekDoesNotConsume(t *testing.T) {
	c := NewCursor("ab")
	before := c.Pos()
	c.Peek(0)
	c.Peek(1)
	if c.Pos() != before {
		t.Fatalf("peek moved the cursor")
	}
}

func TestCursorRange(t *testing.T) {
	c := NewCursor("hello world")

	start := c.Pos()
	for i := 0; i < 5; i++ {
		c.Advance()
	}
	end := c.Pos()

	if got := c.Range(start, end); got != "hello" {
		t.Fatalf("Range = %q, want %q", got, "hello")
	}
}

func TestCursorRangeMultibyte(t *testing.T) {
	c := NewCursor("héllo")

	start := c.Pos()
	c.Advance() // h
	c.Advance() // é
	end := c.Pos()

	if got := c.Range(start, end); got != "hé" {
		t.Fatalf("Range = %q, want %q", got, "hé")
	}
	if end.Offset != 3 {
		t.Fatalf("offset should count bytes, got %d", end.Offset)
	}
	if end.Column != 2 {
		t.Fatalf("column should count characters, got %d", end.Column)
	}
}

func TestPositionString(t *testing.T) {
	pos := token.Position{Line: 2, Column: 4, Offset: 20}
	if got := pos.String(); got != "3:5" {
		t.Fatalf("positions should render one-based, got %q", got)
	}
}

package parser

import (
	"fmt"

	"github.com/reticulated/retic/internal/lexer"
	"github.com/reticulated/retic/internal/token"
)

// MaxLookahead is the number of tokens the reader can peek ahead.
const MaxLookahead = 2

// TokenReader is a bounded-lookahead adapter over the lexer's token stream.
// The lexer keeps yielding EOF once exhausted, so the lookahead window is
// always full.
type TokenReader struct {
	lexer     *lexer.Lexer
	lookahead [MaxLookahead]token.Token
}

// NewTokenReader creates a reader positioned at the first token.
func NewTokenReader(l *lexer.Lexer) *TokenReader {
	r := &TokenReader{lexer: l}
	for i := 0; i < MaxLookahead; i++ {
		r.lookahead[i] = l.NextToken()
	}
	return r
}

// Advance consumes and returns the next token.
func (r *TokenReader) Advance() token.Token {
	tok := r.lookahead[0]
	copy(r.lookahead[:], r.lookahead[1:])
	r.lookahead[MaxLookahead-1] = r.lexer.NextToken()
	return tok
}

// Peek returns the token n positions ahead without consuming it. Peek(0) is
// the token Advance would return next.
func (r *TokenReader) Peek(n int) token.Token {
	if n < 0 || n >= MaxLookahead {
		return token.Token{Type: token.EOF}
	}
	return r.lookahead[n]
}

// Check reports whether the next token is of the given type.
func (r *TokenReader) Check(typ token.Type) bool {
	return r.lookahead[0].Type == typ
}

// AtEOF reports whether the next token is EOF.
func (r *TokenReader) AtEOF() bool {
	return r.Check(token.EOF)
}

// Expect consumes the next token if it is of the given type, and returns an
// error naming the received token and its position otherwise.
func (r *TokenReader) Expect(typ token.Type) (token.Token, error) {
	next := r.Advance()
	if next.Type != typ {
		return next, fmt.Errorf("unexpected token `%s` at %s, expected %s",
			next.Type, next.Pos(), typ)
	}
	return next, nil
}

// ExpectIdentifier consumes the next token and returns it, with an error
// if it is not an identifier.
func (r *TokenReader) ExpectIdentifier() (token.Token, error) {
	next := r.Advance()
	if next.Type != token.IDENT {
		return next, fmt.Errorf("expected identifier at %s, found `%s`",
			next.Pos(), next.Type)
	}
	return next, nil
}

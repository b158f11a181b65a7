package lexer

import (
	"testing"

	"github.com/reticulated/retic/internal/token"
)

func TestNextTokenBasic(t *testing.T) {
	input := `x: int = 5
def add(a: int, b: int) -> int {
	return a + b
}`

	tests := []struct {
		expectedType    token.Type
		expectedLiteral string
	}{
		{token.IDENT, "x"},
		{token.COLON, ":"},
		{token.IDENT, "int"},
		{token.ASSIGN, "="},
		{token.INT, "5"},
		{token.DEF, "def"},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.COLON, ":"},
		{token.IDENT, "int"},
		{token.COMMA, ","},
		{token.IDENT, "b"},
		{token.COLON, ":"},
		{token.IDENT, "int"},
		{token.RPAREN, ")"},
		{token.ARROW, "->"},
		{token.IDENT, "int"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.IDENT, "a"},
		{token.PLUS, "+"},
		{token.IDENT, "b"},
		{token.RBRACE, "}"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - wrong type. expected=%v, got=%v (%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - wrong literal. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}

	if len(l.Errors()) != 0 {
		t.Fatalf("unexpected lexer errors: %v", l.Errors())
	}
}

// TestOperatorDisambiguation covers the single-character-lookahead table.
func TestOperatorDisambiguation(t *testing.T) {
	tests := []struct {
		input    string
		expected []token.Type
	}{
		{"- -> -=", []token.Type{token.MINUS, token.ARROW, token.MINUS_ASSIGN}},
		{"* ** *=", []token.Type{token.ASTERISK, token.POWER, token.TIMES_ASSIGN}},
		{"= ==", []token.Type{token.ASSIGN, token.EQ}},
		{"! !=", []token.Type{token.NOT, token.NOT_EQ}},
		{"< <=", []token.Type{token.LESS, token.LESS_EQ}},
		{"> >=", []token.Type{token.GREATER, token.GREATER_EQ}},
		{"+ +=", []token.Type{token.PLUS, token.PLUS_ASSIGN}},
		{"/ /=", []token.Type{token.SLASH, token.DIVIDE_ASSIGN}},
		{"% %=", []token.Type{token.PERCENT, token.PERCENT_ASSIGN}},
		{"&& ||", []token.Type{token.AND, token.OR}},
		{"@", []token.Type{token.AT}},

		// Adjacent forms resolve greedily.
		{"a-=b", []token.Type{token.IDENT, token.MINUS_ASSIGN, token.IDENT}},
		{"a->b", []token.Type{token.IDENT, token.ARROW, token.IDENT}},
		{"2**3", []token.Type{token.INT, token.POWER, token.INT}},
		{"a==b", []token.Type{token.IDENT, token.EQ, token.IDENT}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := New(tt.input)
			for i, expected := range tt.expected {
				tok := l.NextToken()
				if tok.Type != expected {
					t.Fatalf("token[%d] of %q - expected=%v, got=%v",
						i, tt.input, expected, tok.Type)
				}
			}
			if tok := l.NextToken(); tok.Type != token.EOF {
				t.Fatalf("expected EOF after %q, got %v", tt.input, tok.Type)
			}
		})
	}
}

func TestKeywordsAreNeverIdentifiers(t *testing.T) {
	keywords := map[string]token.Type{
		"if": token.IF, "else": token.ELSE, "def": token.DEF,
		"extern": token.EXTERN, "for": token.FOR, "while": token.WHILE,
		"return": token.RETURN, "struct": token.STRUCT, "self": token.SELF,
		"True": token.TRUE, "False": token.FALSE,
		"and": token.AND, "or": token.OR, "not": token.NOT,
	}

	for spelling, expected := range keywords {
		l := New(spelling)
		tok := l.NextToken()
		if tok.Type != expected {
			t.Errorf("%q lexed as %v, want %v", spelling, tok.Type, expected)
		}
		if tok.Type == token.IDENT {
			t.Errorf("keyword %q returned as identifier", spelling)
		}
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input    string
		typ      token.Type
		literal  string
	}{
		{"0", token.INT, "0"},
		{"1234", token.INT, "1234"},
		{"1.5", token.FLOAT, "1.5"},
		{"123.456", token.FLOAT, "123.456"},
	}

	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != tt.typ || tok.Literal != tt.literal {
			t.Errorf("%q lexed as (%v, %q), want (%v, %q)",
				tt.input, tok.Type, tok.Literal, tt.typ, tt.literal)
		}
	}
}

// A dot not followed by a digit terminates the integer; the dot becomes its
// own token (field access on a literal).
func TestIntegerThenDot(t *testing.T) {
	l := New("5.foo")
	expected := []token.Type{token.INT, token.DOT, token.IDENT, token.EOF}
	for i, typ := range expected {
		tok := l.NextToken()
		if tok.Type != typ {
			t.Fatalf("token[%d] = %v, want %v", i, tok.Type, typ)
		}
	}
}

func TestStringLiterals(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"hello"`, "hello"},
		{`""`, ""},
		{`"with spaces and 123"`, "with spaces and 123"},
		// The character after a backslash is kept verbatim and does not
		// terminate the literal.
		{`"a\"b"`, `a\"b`},
		{`"tab\\here"`, `tab\\here`},
	}

	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != token.STRING {
			t.Fatalf("%q lexed as %v, want STRING", tt.input, tok.Type)
		}
		if tok.Literal != tt.expected {
			t.Errorf("%q value = %q, want %q", tt.input, tok.Literal, tt.expected)
		}
		if len(l.Errors()) != 0 {
			t.Errorf("%q produced unexpected errors: %v", tt.input, l.Errors())
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"never closed`)
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("unterminated string lexed as %v, want ILLEGAL", tok.Type)
	}
	errs := l.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if errs[0].Message != "unterminated string literal" {
		t.Errorf("unexpected message: %q", errs[0].Message)
	}
}

func TestEOFIsLastAndSticky(t *testing.T) {
	l := New("x")
	if tok := l.NextToken(); tok.Type != token.IDENT {
		t.Fatalf("expected IDENT, got %v", tok.Type)
	}
	for i := 0; i < 3; i++ {
		if tok := l.NextToken(); tok.Type != token.EOF {
			t.Fatalf("call %d after end: expected EOF, got %v", i, tok.Type)
		}
	}
}

func TestTokenize(t *testing.T) {
	tokens := New("x = 1").Tokenize()
	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(tokens))
	}
	if tokens[len(tokens)-1].Type != token.EOF {
		t.Fatalf("last token should be EOF, got %v", tokens[len(tokens)-1].Type)
	}
}

func TestSpansCoverSource(t *testing.T) {
	input := "abc  = 12"
	l := New(input)

	var covered int
	for _, tok := range l.Tokenize() {
		covered += tok.Span.End.Offset - tok.Span.Start.Offset
	}

	// Everything except the three spaces is covered by some token's span.
	if covered != len(input)-3 {
		t.Fatalf("spans cover %d bytes, want %d", covered, len(input)-3)
	}
}

func TestPositions(t *testing.T) {
	input := "a\n bb"
	l := New(input)

	a := l.NextToken()
	if a.Pos().Line != 0 || a.Pos().Column != 0 {
		t.Fatalf("a at %d:%d, want 0:0", a.Pos().Line, a.Pos().Column)
	}

	bb := l.NextToken()
	if bb.Pos().Line != 1 || bb.Pos().Column != 1 {
		t.Fatalf("bb at %d:%d, want 1:1", bb.Pos().Line, bb.Pos().Column)
	}
	if bb.Span.End.Column != 3 {
		t.Fatalf("bb ends at column %d, want 3", bb.Span.End.Column)
	}
}

func TestIllegalCharacter(t *testing.T) {
	l := New("x # y")
	expected := []token.Type{token.IDENT, token.ILLEGAL, token.IDENT, token.EOF}
	for i, typ := range expected {
		tok := l.NextToken()
		if tok.Type != typ {
			t.Fatalf("token[%d] = %v, want %v", i, tok.Type, typ)
		}
	}
	if len(l.Errors()) != 1 {
		t.Fatalf("expected 1 error, got %d", len(l.Errors()))
	}
}

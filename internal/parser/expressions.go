package parser

import (
	"fmt"
	"strconv"

	"github.com/reticulated/retic/internal/ast"
	"github.com/reticulated/retic/internal/token"
)

// Expression grammar, lowest to highest precedence. All binary levels are
// left-associative; exponentiation and matrix multiplication sit in the
// factor group.
//
//	logical    -> equality ( ("and" | "or") equality )*
//	equality   -> comparison ( ("==" | "!=") comparison )*
//	comparison -> term ( ("<" | "<=" | ">" | ">=") term )*
//	term       -> factor ( ("+" | "-") factor )*
//	factor     -> unary ( ("*" | "/" | "%" | "**" | "@") unary )*
//	unary      -> ("not" | "-") unary | invoke
//	invoke     -> access ( "(" arguments ")" ( "." IDENT )* )*
//	access     -> primary ( "." IDENT )*
//	primary    -> IDENT | LITERAL | "(" expression ")"

func (p *Parser) expression() (ast.Expression, error) {
	return p.logical()
}

func (p *Parser) logical() (ast.Expression, error) {
	expr, err := p.equality()
	if err != nil {
		return nil, err
	}
	for {
		opTok, op, ok := p.matchLogicalOp()
		if !ok {
			return expr, nil
		}
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		expr = &ast.LogicalExpression{Token: opTok, Left: expr, Op: op, Right: right}
	}
}

func (p *Parser) equality() (ast.Expression, error) {
	expr, err := p.comparison()
	if err != nil {
		return nil, err
	}
	for {
		opTok, op, ok := p.matchEqualityOp()
		if !ok {
			return expr, nil
		}
		right, err := p.comparison()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinaryExpression{Token: opTok, Left: expr, Op: op, Right: right}
	}
}

func (p *Parser) comparison() (ast.Expression, error) {
	expr, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		opTok, op, ok := p.matchComparisonOp()
		if !ok {
			return expr, nil
		}
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinaryExpression{Token: opTok, Left: expr, Op: op, Right: right}
	}
}

func (p *Parser) term() (ast.Expression, error) {
	expr, err := p.factor()
	if err != nil {
		return nil, err
	}
	for {
		opTok, op, ok := p.matchTermOp()
		if !ok {
			return expr, nil
		}
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinaryExpression{Token: opTok, Left: expr, Op: op, Right: right}
	}
}

func (p *Parser) factor() (ast.Expression, error) {
	expr, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		opTok, op, ok := p.matchFactorOp()
		if !ok {
			return expr, nil
		}
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinaryExpression{Token: opTok, Left: expr, Op: op, Right: right}
	}
}

func (p *Parser) unary() (ast.Expression, error) {
	switch p.tokens.Peek(0).Type {
	case token.MINUS:
		opTok := p.tokens.Advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Token: opTok, Op: ast.UnaryNeg, Operand: operand}, nil
	case token.NOT:
		opTok := p.tokens.Advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Token: opTok, Op: ast.UnaryNot, Operand: operand}, nil
	}
	return p.invoke()
}

// invoke parses call expressions; multiple invocations in a row are allowed.
func (p *Parser) invoke() (ast.Expression, error) {
	expr, err := p.access()
	if err != nil {
		return nil, err
	}

	for p.tokens.Check(token.LPAREN) {
		parenTok := p.tokens.Advance()

		var args []ast.Expression
		first := true
		for !p.tokens.Check(token.RPAREN) {
			if !first {
				if _, err := p.tokens.Expect(token.COMMA); err != nil {
					return nil, err
				}
			}
			first = false

			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		if _, err := p.tokens.Expect(token.RPAREN); err != nil {
			return nil, err
		}

		expr = &ast.CallExpression{Token: parenTok, Callee: expr, Arguments: args}

		// Field accesses may follow a call result, e.g. f(x).member.
		expr, err = p.accessChain(expr)
		if err != nil {
			return nil, err
		}
	}

	return expr, nil
}

// access parses a primary expression followed by a field-access chain.
func (p *Parser) access() (ast.Expression, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}
	return p.accessChain(expr)
}

func (p *Parser) accessChain(expr ast.Expression) (ast.Expression, error) {
	for p.tokens.Check(token.DOT) {
		dotTok := p.tokens.Advance()
		memberTok, err := p.tokens.ExpectIdentifier()
		if err != nil {
			return nil, err
		}
		expr = &ast.AccessExpression{Token: dotTok, Object: expr, Member: memberTok.Literal}
	}
	return expr, nil
}

func (p *Parser) primary() (ast.Expression, error) {
	next := p.tokens.Advance()

	switch next.Type {
	case token.SELF:
		return &ast.Identifier{Token: next, Value: "self"}, nil

	case token.IDENT:
		if next.Literal == "None" {
			return &ast.NoneLiteral{Token: next}, nil
		}
		return &ast.Identifier{Token: next, Value: next.Literal}, nil

	case token.INT:
		value, err := strconv.ParseInt(next.Literal, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("could not parse %q as integer at %s", next.Literal, next.Pos())
		}
		return &ast.IntegerLiteral{Token: next, Value: value}, nil

	case token.FLOAT:
		value, err := strconv.ParseFloat(next.Literal, 64)
		if err != nil {
			return nil, fmt.Errorf("could not parse %q as float at %s", next.Literal, next.Pos())
		}
		return &ast.FloatLiteral{Token: next, Value: value}, nil

	case token.STRING:
		return &ast.StringLiteral{Token: next, Value: next.Literal}, nil

	case token.TRUE:
		return &ast.BooleanLiteral{Token: next, Value: true}, nil
	case token.FALSE:
		return &ast.BooleanLiteral{Token: next, Value: false}, nil

	case token.LPAREN:
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.tokens.Expect(token.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil

	case token.EOF:
		return nil, fmt.Errorf("unexpectedly reached end of input")

	default:
		return nil, fmt.Errorf("expected primary expression at %s, found `%s`",
			next.Pos(), next.Type)
	}
}

func (p *Parser) matchLogicalOp() (token.Token, ast.LogicalOp, bool) {
	switch p.tokens.Peek(0).Type {
	case token.AND:
		return p.tokens.Advance(), ast.LogicalAnd, true
	case token.OR:
		return p.tokens.Advance(), ast.LogicalOr, true
	}
	return token.Token{}, 0, false
}

func (p *Parser) matchEqualityOp() (token.Token, ast.BinaryOp, bool) {
	switch p.tokens.Peek(0).Type {
	case token.EQ:
		return p.tokens.Advance(), ast.OpEq, true
	case token.NOT_EQ:
		return p.tokens.Advance(), ast.OpNe, true
	}
	return token.Token{}, 0, false
}

func (p *Parser) matchComparisonOp() (token.Token, ast.BinaryOp, bool) {
	switch p.tokens.Peek(0).Type {
	case token.LESS:
		return p.tokens.Advance(), ast.OpLt, true
	case token.LESS_EQ:
		return p.tokens.Advance(), ast.OpLe, true
	case token.GREATER:
		return p.tokens.Advance(), ast.OpGt, true
	case token.GREATER_EQ:
		return p.tokens.Advance(), ast.OpGe, true
	}
	return token.Token{}, 0, false
}

func (p *Parser) matchTermOp() (token.Token, ast.BinaryOp, bool) {
	switch p.tokens.Peek(0).Type {
	case token.PLUS:
		return p.tokens.Advance(), ast.OpAdd, true
	case token.MINUS:
		return p.tokens.Advance(), ast.OpSub, true
	}
	return token.Token{}, 0, false
}

func (p *Parser) matchFactorOp() (token.Token, ast.BinaryOp, bool) {
	switch p.tokens.Peek(0).Type {
	case token.ASTERISK:
		return p.tokens.Advance(), ast.OpMul, true
	case token.SLASH:
		return p.tokens.Advance(), ast.OpDiv, true
	case token.PERCENT:
		return p.tokens.Advance(), ast.OpMod, true
	case token.POWER:
		return p.tokens.Advance(), ast.OpPow, true
	case token.AT:
		return p.tokens.Advance(), ast.OpMatMul, true
	}
	return token.Token{}, 0, false
}

// Package parser implements the recursive-descent parser for retic.
//
// Statement dispatch is by next-token kind with one token of lookahead to
// disambiguate identifier-led statements (`x:` declaration, `x =` assignment,
// anything else an expression statement). Parse errors are contextualized at
// the originating position and propagated; partial trees are not returned.
package parser

import (
	"fmt"

	"github.com/reticulated/retic/internal/ast"
	"github.com/reticulated/retic/internal/lexer"
	"github.com/reticulated/retic/internal/token"
)

// Parser turns a token stream into an AST. It has no side effects besides
// consuming tokens.
type Parser struct {
	tokens *TokenReader
}

// New creates a Parser reading from the given lexer.
func New(l *lexer.Lexer) *Parser {
	return &Parser{tokens: NewTokenReader(l)}
}

// parsingCtx wraps an error with the rule being parsed and its position.
func parsingCtx(err error, rule string, pos token.Position) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to parse %s at %s: %w", rule, pos, err)
}

// ParseProgram parses statements until EOF and returns the program.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{}
	for !p.tokens.AtEOF() {
		// Statement separators are optional; stray semicolons are skipped.
		if p.tokens.Check(token.SEMICOLON) {
			p.tokens.Advance()
			continue
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		program.Statements = append(program.Statements, stmt)
	}
	return program, nil
}

// statement parses a single statement, dispatching on the next token kind.
func (p *Parser) statement() (ast.Statement, error) {
	next := p.tokens.Peek(0)
	pos := next.Pos()

	switch next.Type {
	case token.IDENT:
		switch {
		case p.tokens.Peek(1).Type == token.COLON:
			stmt, err := p.declaration()
			return stmt, parsingCtx(err, "declaration", pos)
		case p.tokens.Peek(1).IsAssignOp():
			stmt, err := p.assignment()
			return stmt, parsingCtx(err, "assignment", pos)
		default:
			stmt, err := p.expressionStatement()
			return stmt, parsingCtx(err, "expression", pos)
		}
	case token.DEF:
		stmt, err := p.functionDecl()
		return stmt, parsingCtx(err, "function declaration", pos)
	case token.EXTERN:
		stmt, err := p.externFunctionDecl()
		return stmt, parsingCtx(err, "function declaration", pos)
	case token.IF:
		stmt, err := p.ifStatement()
		return stmt, parsingCtx(err, "if statement", pos)
	case token.WHILE:
		stmt, err := p.whileStatement()
		return stmt, parsingCtx(err, "while loop", pos)
	case token.RETURN:
		stmt, err := p.returnStatement()
		return stmt, parsingCtx(err, "return statement", pos)
	case token.STRUCT:
		stmt, err := p.structStatement()
		return stmt, parsingCtx(err, "struct", pos)
	default:
		stmt, err := p.expressionStatement()
		return stmt, parsingCtx(err, "expression", pos)
	}
}

// declaration parses `IDENT ":" IDENT "=" expression`.
func (p *Parser) declaration() (ast.Statement, error) {
	nameTok, err := p.tokens.ExpectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.tokens.Expect(token.COLON); err != nil {
		return nil, err
	}
	typeTok, err := p.tokens.ExpectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.tokens.Expect(token.ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ast.DeclarationStatement{
		Token:    nameTok,
		Name:     nameTok.Literal,
		TypeName: typeTok.Literal,
		Value:    value,
	}, nil
}

// assignment parses `IDENT ASSIGN_OP expression`.
func (p *Parser) assignment() (ast.Statement, error) {
	nameTok, err := p.tokens.ExpectIdentifier()
	if err != nil {
		return nil, err
	}
	opTok, op, ok := p.matchAssignOp()
	if !ok {
		return nil, fmt.Errorf("expected assignment operator at %s, found `%s`",
			p.tokens.Peek(0).Pos(), p.tokens.Peek(0).Type)
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ast.AssignStatement{
		Token:  opTok,
		Target: &ast.Identifier{Token: nameTok, Value: nameTok.Literal},
		Op:     op,
		Value:  value,
	}, nil
}

// expressionStatement parses an expression, rewriting it into an assignment
// when the top-level expression is a field access followed by an assignment
// operator. Assigning through any other expression form is an error citing
// the operator's position.
func (p *Parser) expressionStatement() (ast.Statement, error) {
	first := p.tokens.Peek(0)
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}

	if opTok, op, ok := p.matchAssignOp(); ok {
		access, isAccess := expr.(*ast.AccessExpression)
		if !isAccess {
			return nil, fmt.Errorf("expected identifier or field access at %s, found expression (%s) instead",
				opTok.Span, expr.String())
		}
		value, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &ast.AssignStatement{
			Token:  opTok,
			Target: access,
			Op:     op,
			Value:  value,
		}, nil
	}

	return &ast.ExpressionStatement{Token: first, Expression: expr}, nil
}

// matchAssignOp consumes `=` or a compound assignment operator if present.
func (p *Parser) matchAssignOp() (token.Token, ast.AssignOp, bool) {
	var op ast.AssignOp
	switch p.tokens.Peek(0).Type {
	case token.ASSIGN:
		op = ast.AssignSet
	case token.PLUS_ASSIGN:
		op = ast.AssignAdd
	case token.MINUS_ASSIGN:
		op = ast.AssignSub
	case token.TIMES_ASSIGN:
		op = ast.AssignMul
	case token.DIVIDE_ASSIGN:
		op = ast.AssignDiv
	case token.PERCENT_ASSIGN:
		op = ast.AssignMod
	default:
		return token.Token{}, 0, false
	}
	return p.tokens.Advance(), op, true
}

// functionDecl parses `def IDENT "(" parameters ")" "->" IDENT block`.
func (p *Parser) functionDecl() (*ast.FunctionDecl, error) {
	defTok, err := p.tokens.Expect(token.DEF)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.tokens.ExpectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.tokens.Expect(token.LPAREN); err != nil {
		return nil, err
	}
	takesSelf, params, err := p.parameters()
	if err != nil {
		return nil, err
	}
	if _, err := p.tokens.Expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.tokens.Expect(token.ARROW); err != nil {
		return nil, err
	}
	retTok, err := p.tokens.ExpectIdentifier()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDecl{
		Token:      defTok,
		Name:       nameTok.Literal,
		TakesSelf:  takesSelf,
		Parameters: params,
		ReturnType: retTok.Literal,
		Body:       body,
	}, nil
}

// externFunctionDecl parses `extern def IDENT "(" parameters ")" "->" IDENT`.
// Extern functions cannot take self and have no body.
func (p *Parser) externFunctionDecl() (ast.Statement, error) {
	externTok, err := p.tokens.Expect(token.EXTERN)
	if err != nil {
		return nil, err
	}
	if _, err := p.tokens.Expect(token.DEF); err != nil {
		return nil, err
	}
	nameTok, err := p.tokens.ExpectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.tokens.Expect(token.LPAREN); err != nil {
		return nil, err
	}
	takesSelf, params, err := p.parameters()
	if err != nil {
		return nil, err
	}
	if takesSelf {
		return nil, fmt.Errorf("extern functions cannot have 'self' as a parameter")
	}
	if _, err := p.tokens.Expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.tokens.Expect(token.ARROW); err != nil {
		return nil, err
	}
	retTok, err := p.tokens.ExpectIdentifier()
	if err != nil {
		return nil, err
	}
	return &ast.ExternFunction{
		Token:      externTok,
		Name:       nameTok.Literal,
		Parameters: params,
		ReturnType: retTok.Literal,
	}, nil
}

// parameters parses `(("self" | parameter) ("," parameter)*)?`, where
// parameter is `"*"? IDENT ":" IDENT`, up to the closing parenthesis, which
// is left unconsumed.
func (p *Parser) parameters() (bool, []ast.Parameter, error) {
	var params []ast.Parameter
	isFirst := true
	takesSelf := false

	if p.tokens.Check(token.SELF) {
		p.tokens.Advance()
		takesSelf = true
		isFirst = false
	}

	for !p.tokens.Check(token.RPAREN) {
		if !isFirst {
			if _, err := p.tokens.Expect(token.COMMA); err != nil {
				return false, nil, err
			}
		}
		isFirst = false

		varArgs := false
		if p.tokens.Check(token.ASTERISK) {
			p.tokens.Advance()
			varArgs = true
		}

		nameTok, err := p.tokens.ExpectIdentifier()
		if err != nil {
			return false, nil, err
		}
		if _, err := p.tokens.Expect(token.COLON); err != nil {
			return false, nil, err
		}
		typeTok, err := p.tokens.ExpectIdentifier()
		if err != nil {
			return false, nil, err
		}
		params = append(params, ast.Parameter{
			Name:     nameTok.Literal,
			TypeName: typeTok.Literal,
			VarArgs:  varArgs,
		})
	}

	return takesSelf, params, nil
}

// ifStatement parses `if expr block ("else" "if" expr block)* ("else" block)?`.
func (p *Parser) ifStatement() (ast.Statement, error) {
	ifTok, err := p.tokens.Expect(token.IF)
	if err != nil {
		return nil, err
	}
	condition, err := p.expression()
	if err != nil {
		return nil, err
	}
	then, err := p.block()
	if err != nil {
		return nil, err
	}

	stmt := &ast.IfStatement{
		Token:     ifTok,
		Condition: condition,
		Then:      then,
	}

	for p.tokens.Check(token.ELSE) {
		p.tokens.Advance()

		switch p.tokens.Peek(0).Type {
		case token.IF:
			p.tokens.Advance()
			cond, err := p.expression()
			if err != nil {
				return nil, err
			}
			body, err := p.block()
			if err != nil {
				return nil, err
			}
			stmt.ElseIfs = append(stmt.ElseIfs, ast.ElseIfBranch{Condition: cond, Body: body})
		case token.LBRACE:
			body, err := p.block()
			if err != nil {
				return nil, err
			}
			stmt.Else = body
		default:
			return nil, fmt.Errorf("expected 'if' or '{' after 'else' at %s, found `%s`",
				p.tokens.Peek(0).Pos(), p.tokens.Peek(0).Type)
		}
	}

	return stmt, nil
}

// whileStatement parses `while expr block`.
func (p *Parser) whileStatement() (ast.Statement, error) {
	whileTok, err := p.tokens.Expect(token.WHILE)
	if err != nil {
		return nil, err
	}
	condition, err := p.expression()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStatement{Token: whileTok, Condition: condition, Body: body}, nil
}

// returnStatement parses `return expression`.
func (p *Parser) returnStatement() (ast.Statement, error) {
	returnTok, err := p.tokens.Expect(token.RETURN)
	if err != nil {
		return nil, err
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStatement{Token: returnTok, Value: value}, nil
}

// structStatement parses a struct definition: fields (each followed by a
// comma) and methods (full function declarations whose first formal is
// self), in any order, between braces.
func (p *Parser) structStatement() (ast.Statement, error) {
	structTok, err := p.tokens.Expect(token.STRUCT)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.tokens.ExpectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.tokens.Expect(token.LBRACE); err != nil {
		return nil, err
	}

	stmt := &ast.StructStatement{Token: structTok, Name: nameTok.Literal}

	for !p.tokens.Check(token.RBRACE) {
		next := p.tokens.Peek(0)
		switch next.Type {
		case token.DEF:
			method, err := p.functionDecl()
			if err != nil {
				return nil, parsingCtx(err, "function declaration", next.Pos())
			}
			if !method.TakesSelf {
				return nil, fmt.Errorf("struct methods must take 'self' as the first parameter")
			}
			stmt.Methods = append(stmt.Methods, method)
		case token.IDENT:
			fieldTok, err := p.tokens.ExpectIdentifier()
			if err != nil {
				return nil, err
			}
			if _, err := p.tokens.Expect(token.COLON); err != nil {
				return nil, err
			}
			typeTok, err := p.tokens.ExpectIdentifier()
			if err != nil {
				return nil, err
			}
			if _, err := p.tokens.Expect(token.COMMA); err != nil {
				return nil, err
			}
			stmt.Fields = append(stmt.Fields, ast.StructField{
				Name:     fieldTok.Literal,
				TypeName: typeTok.Literal,
			})
		default:
			return nil, fmt.Errorf("expected field or function declaration at %s, found `%s`",
				next.Pos(), next.Type)
		}
	}

	if _, err := p.tokens.Expect(token.RBRACE); err != nil {
		return nil, err
	}
	return stmt, nil
}

// block parses `{ statement* }`.
func (p *Parser) block() (*ast.BlockStatement, error) {
	braceTok, err := p.tokens.Expect(token.LBRACE)
	if err != nil {
		return nil, err
	}

	block := &ast.BlockStatement{Token: braceTok}
	for !p.tokens.Check(token.RBRACE) {
		if p.tokens.Check(token.SEMICOLON) {
			p.tokens.Advance()
			continue
		}
		if p.tokens.AtEOF() {
			return nil, fmt.Errorf("unexpected end of input, unclosed block at %s", braceTok.Pos())
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
	}
	p.tokens.Advance() // eat the closing brace

	return block, nil
}

// Package ast defines the Abstract Syntax Tree node types for retic.
package ast

import (
	"bytes"

	"github.com/reticulated/retic/internal/token"
)

// Node is the base interface for all AST nodes. Every node can report the
// literal of the token it is associated with, its position for error
// reporting, and a string representation for debugging and testing.
type Node interface {
	// TokenLiteral returns the literal value of the token this node is
	// associated with.
	TokenLiteral() string

	// String returns a string representation of the node.
	String() string

	// Pos returns the position of the node in the source code.
	Pos() token.Position
}

// Expression represents any node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement represents a node that performs an action but does not produce
// a value.
type Statement interface {
	Node
	statementNode()
}

// Program is the root node of the AST: the ordered sequence of top-level
// statements.
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, stmt := range p.Statements {
		out.WriteString(stmt.String())
		out.WriteString("\n")
	}
	return out.String()
}

func (p *Program) Pos() token.Position {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	return token.Position{}
}

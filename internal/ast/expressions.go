package ast

import (
	"bytes"
	"strings"

	"github.com/reticulated/retic/internal/token"
)

// Identifier represents a variable, function or type name.
type Identifier struct {
	Token token.Token // the IDENT token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }
func (i *Identifier) Pos() token.Position  { return i.Token.Pos() }

// IntegerLiteral represents an integer literal value.
type IntegerLiteral struct {
	Token token.Token // the INT token
	Value int64
}

func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntegerLiteral) String() string       { return il.Token.Literal }
func (il *IntegerLiteral) Pos() token.Position  { return il.Token.Pos() }

// FloatLiteral represents a floating-point literal value.
type FloatLiteral struct {
	Token token.Token // the FLOAT token
	Value float64
}

func (fl *FloatLiteral) expressionNode()      {}
func (fl *FloatLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FloatLiteral) String() string       { return fl.Token.Literal }
func (fl *FloatLiteral) Pos() token.Position  { return fl.Token.Pos() }

// StringLiteral represents a string literal value. Value is the raw body
// between the quotes; backslash escapes are preserved as written.
type StringLiteral struct {
	Token token.Token // the STRING token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string       { return "\"" + sl.Value + "\"" }
func (sl *StringLiteral) Pos() token.Position  { return sl.Token.Pos() }

// BooleanLiteral represents True or False.
type BooleanLiteral struct {
	Token token.Token // the TRUE or FALSE token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()      {}
func (bl *BooleanLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BooleanLiteral) String() string       { return bl.Token.Literal }
func (bl *BooleanLiteral) Pos() token.Position  { return bl.Token.Pos() }

// NoneLiteral represents the `None` primary expression. It parses but has no
// lowering; codegen rejects it.
type NoneLiteral struct {
	Token token.Token
}

func (nl *NoneLiteral) expressionNode()      {}
func (nl *NoneLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NoneLiteral) String() string       { return "None" }
func (nl *NoneLiteral) Pos() token.Position  { return nl.Token.Pos() }

// LogicalExpression is a short-circuiting `and`/`or` expression.
type LogicalExpression struct {
	Token token.Token // the operator token
	Left  Expression
	Op    LogicalOp
	Right Expression
}

func (le *LogicalExpression) expressionNode()      {}
func (le *LogicalExpression) TokenLiteral() string { return le.Token.Literal }
func (le *LogicalExpression) Pos() token.Position  { return le.Token.Pos() }

func (le *LogicalExpression) String() string {
	return "(" + le.Left.String() + " " + le.Op.String() + " " + le.Right.String() + ")"
}

// BinaryExpression is a binary operation that lowers to a method call on the
// left operand's type (e.g. a + b, x < y).
type BinaryExpression struct {
	Token token.Token // the operator token
	Left  Expression
	Op    BinaryOp
	Right Expression
}

func (be *BinaryExpression) expressionNode()      {}
func (be *BinaryExpression) TokenLiteral() string { return be.Token.Literal }
func (be *BinaryExpression) Pos() token.Position  { return be.Token.Pos() }

func (be *BinaryExpression) String() string {
	return "(" + be.Left.String() + " " + be.Op.String() + " " + be.Right.String() + ")"
}

// UnaryExpression is `not x` or numeric negation `-x`.
type UnaryExpression struct {
	Token   token.Token // the operator token
	Op      UnaryOp
	Operand Expression
}

func (ue *UnaryExpression) expressionNode()      {}
func (ue *UnaryExpression) TokenLiteral() string { return ue.Token.Literal }
func (ue *UnaryExpression) Pos() token.Position  { return ue.Token.Pos() }

func (ue *UnaryExpression) String() string {
	if ue.Op == UnaryNot {
		return "(not " + ue.Operand.String() + ")"
	}
	return "(-" + ue.Operand.String() + ")"
}

// CallExpression is an invocation `callee(args, ...)`. Invocations may
// chain, but codegen only supports identifier and field-access callees.
type CallExpression struct {
	Token     token.Token // the ( token
	Callee    Expression
	Arguments []Expression
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) Pos() token.Position  { return ce.Callee.Pos() }

func (ce *CallExpression) String() string {
	var out bytes.Buffer
	args := make([]string, 0, len(ce.Arguments))
	for _, arg := range ce.Arguments {
		args = append(args, arg.String())
	}
	out.WriteString(ce.Callee.String())
	out.WriteString("(")
	out.WriteString(strings.Join(args, ", "))
	out.WriteString(")")
	return out.String()
}

// AccessExpression is a field access `expr.member`. Accesses may chain.
type AccessExpression struct {
	Token  token.Token // the . token
	Object Expression
	Member string
}

func (ae *AccessExpression) expressionNode()      {}
func (ae *AccessExpression) TokenLiteral() string { return ae.Token.Literal }
func (ae *AccessExpression) Pos() token.Position  { return ae.Object.Pos() }

func (ae *AccessExpression) String() string {
	return ae.Object.String() + "." + ae.Member
}

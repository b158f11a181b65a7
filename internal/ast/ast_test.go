package ast

import (
	"testing"

	"github.com/reticulated/retic/internal/token"
)

func ident(name string) *Identifier {
	return &Identifier{
		Token: token.Token{Type: token.IDENT, Literal: name},
		Value: name,
	}
}

func TestBinaryExpressionString(t *testing.T) {
	expr := &BinaryExpression{
		Left:  ident("a"),
		Op:    OpAdd,
		Right: &BinaryExpression{Left: ident("b"), Op: OpMul, Right: ident("c")},
	}
	if got := expr.String(); got != "(a + (b * c))" {
		t.Errorf("String() = %q", got)
	}
}

func TestUnaryExpressionString(t *testing.T) {
	notExpr := &UnaryExpression{Op: UnaryNot, Operand: ident("a")}
	if got := notExpr.String(); got != "(not a)" {
		t.Errorf("String() = %q", got)
	}
	negExpr := &UnaryExpression{Op: UnaryNeg, Operand: ident("x")}
	if got := negExpr.String(); got != "(-x)" {
		t.Errorf("String() = %q", got)
	}
}

func TestCallAndAccessString(t *testing.T) {
	call := &CallExpression{
		Callee:    &AccessExpression{Object: ident("p"), Member: "sum"},
		Arguments: []Expression{ident("a"), ident("b")},
	}
	if got := call.String(); got != "p.sum(a, b)" {
		t.Errorf("String() = %q", got)
	}
}

func TestStatementStrings(t *testing.T) {
	decl := &DeclarationStatement{
		Name:     "x",
		TypeName: "int",
		Value:    &IntegerLiteral{Token: token.Token{Literal: "5"}, Value: 5},
	}
	if got := decl.String(); got != "x: int = 5" {
		t.Errorf("declaration String() = %q", got)
	}

	assign := &AssignStatement{
		Target: &AccessExpression{Object: ident("p"), Member: "x"},
		Op:     AssignAdd,
		Value:  &IntegerLiteral{Token: token.Token{Literal: "1"}, Value: 1},
	}
	if got := assign.String(); got != "p.x += 1" {
		t.Errorf("assignment String() = %q", got)
	}

	ret := &ReturnStatement{Value: ident("x")}
	if got := ret.String(); got != "return x" {
		t.Errorf("return String() = %q", got)
	}
}

func TestOperatorMethodNames(t *testing.T) {
	tests := []struct {
		op       BinaryOp
		expected string
	}{
		{OpAdd, "__add__"},
		{OpSub, "__sub__"},
		{OpMul, "__mul__"},
		{OpDiv, "__truediv__"},
		{OpMod, "__mod__"},
		{OpPow, "__pow__"},
		{OpMatMul, "__matmul__"},
		{OpEq, "__eq__"},
		{OpNe, "__ne__"},
		{OpLt, "__lt__"},
		{OpLe, "__le__"},
		{OpGt, "__gt__"},
		{OpGe, "__ge__"},
	}
	for _, tt := range tests {
		if got := tt.op.MethodName(); got != tt.expected {
			t.Errorf("%v.MethodName() = %q, want %q", tt.op, got, tt.expected)
		}
	}

	if UnaryNeg.MethodName() != "__neg__" || UnaryNot.MethodName() != "__not__" {
		t.Errorf("unary method names wrong: %q, %q",
			UnaryNeg.MethodName(), UnaryNot.MethodName())
	}
}

func TestAssignOpDesugaring(t *testing.T) {
	if _, ok := AssignSet.BinaryOp(); ok {
		t.Errorf("plain assignment should not desugar")
	}

	tests := []struct {
		op       AssignOp
		expected BinaryOp
	}{
		{AssignAdd, OpAdd},
		{AssignSub, OpSub},
		{AssignMul, OpMul},
		{AssignDiv, OpDiv},
		{AssignMod, OpMod},
	}
	for _, tt := range tests {
		got, ok := tt.op.BinaryOp()
		if !ok || got != tt.expected {
			t.Errorf("%v.BinaryOp() = (%v, %v), want (%v, true)", tt.op, got, ok, tt.expected)
		}
	}
}

func TestProgramString(t *testing.T) {
	program := &Program{Statements: []Statement{
		&ReturnStatement{Value: &IntegerLiteral{Token: token.Token{Literal: "0"}, Value: 0}},
	}}
	if got := program.String(); got != "return 0\n" {
		t.Errorf("Program.String() = %q", got)
	}
}

package parser

import (
	"strings"
	"testing"

	"github.com/reticulated/retic/internal/ast"
	"github.com/reticulated/retic/internal/lexer"
)

// testParse parses input and fails the test on error.
func testParse(t *testing.T, input string) *ast.Program {
	t.Helper()
	program, err := New(lexer.New(input)).ParseProgram()
	if err != nil {
		t.Fatalf("parse error for %q: %v", input, err)
	}
	return program
}

// testParseError parses input and requires an error mentioning want.
func testParseError(t *testing.T, input, want string) {
	t.Helper()
	_, err := New(lexer.New(input)).ParseProgram()
	if err == nil {
		t.Fatalf("expected parse error for %q", input)
	}
	if !strings.Contains(err.Error(), want) {
		t.Fatalf("error %q does not mention %q", err.Error(), want)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a + b * c", "(a + (b * c))"},
		{"a * b + c", "((a * b) + c)"},
		// Exponentiation sits in the factor group and is left-associative.
		{"a ** b ** c", "((a ** b) ** c)"},
		{"not a and b or c", "(((not a) and b) or c)"},
		{"-x * y", "((-x) * y)"},
		{"a == b != c", "((a == b) != c)"},
		{"a < b == c > d", "((a < b) == (c > d))"},
		{"a + b < c * d", "((a + b) < (c * d))"},
		{"a @ b * c", "((a @ b) * c)"},
		{"a % b % c", "((a % b) % c)"},
		{"(a + b) * c", "((a + b) * c)"},
		{"not (a or b)", "(not (a or b))"},
		{"--x", "(-(-x))"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := testParse(t, tt.input)
			if len(program.Statements) != 1 {
				t.Fatalf("expected 1 statement, got %d", len(program.Statements))
			}
			stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
			if !ok {
				t.Fatalf("expected expression statement, got %T", program.Statements[0])
			}
			if got := stmt.Expression.String(); got != tt.expected {
				t.Errorf("parsed %q as %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseRepresentationIsStable(t *testing.T) {
	inputs := []string{"a + b * c", "a ** b ** c", "not a and b or c", "-x * y"}
	for _, input := range inputs {
		first := testParse(t, input).String()
		second := testParse(t, input).String()
		if first != second {
			t.Errorf("repr of %q is not stable: %q vs %q", input, first, second)
		}
	}
}

func TestDeclaration(t *testing.T) {
	program := testParse(t, "x: int = 1 + 2")
	stmt, ok := program.Statements[0].(*ast.DeclarationStatement)
	if !ok {
		t.Fatalf("expected declaration, got %T", program.Statements[0])
	}
	if stmt.Name != "x" || stmt.TypeName != "int" {
		t.Errorf("declaration = (%q, %q), want (x, int)", stmt.Name, stmt.TypeName)
	}
	if got := stmt.Value.String(); got != "(1 + 2)" {
		t.Errorf("initializer = %q, want (1 + 2)", got)
	}
}

func TestAssignment(t *testing.T) {
	tests := []struct {
		input string
		op    ast.AssignOp
	}{
		{"x = 1", ast.AssignSet},
		{"x += 1", ast.AssignAdd},
		{"x -= 1", ast.AssignSub},
		{"x *= 1", ast.AssignMul},
		{"x /= 1", ast.AssignDiv},
		{"x %= 1", ast.AssignMod},
	}

	for _, tt := range tests {
		program := testParse(t, tt.input)
		stmt, ok := program.Statements[0].(*ast.AssignStatement)
		if !ok {
			t.Fatalf("%q: expected assignment, got %T", tt.input, program.Statements[0])
		}
		if stmt.Op != tt.op {
			t.Errorf("%q: op = %v, want %v", tt.input, stmt.Op, tt.op)
		}
		if _, ok := stmt.Target.(*ast.Identifier); !ok {
			t.Errorf("%q: target should be an identifier, got %T", tt.input, stmt.Target)
		}
	}
}

func TestAccessAssignment(t *testing.T) {
	program := testParse(t, "p.x = 1")
	stmt, ok := program.Statements[0].(*ast.AssignStatement)
	if !ok {
		t.Fatalf("expected assignment, got %T", program.Statements[0])
	}
	access, ok := stmt.Target.(*ast.AccessExpression)
	if !ok {
		t.Fatalf("expected access target, got %T", stmt.Target)
	}
	if access.Member != "x" {
		t.Errorf("member = %q, want x", access.Member)
	}
	if obj := access.Object.String(); obj != "p" {
		t.Errorf("object = %q, want p", obj)
	}
	if stmt.Op != ast.AssignSet {
		t.Errorf("op = %v, want =", stmt.Op)
	}
}

func TestChainedAccessAssignment(t *testing.T) {
	program := testParse(t, "a.b.c += 2")
	stmt := program.Statements[0].(*ast.AssignStatement)
	access := stmt.Target.(*ast.AccessExpression)
	if access.String() != "a.b.c" {
		t.Errorf("target = %q, want a.b.c", access.String())
	}
	if stmt.Op != ast.AssignAdd {
		t.Errorf("op = %v, want +=", stmt.Op)
	}
}

func TestAssignToNonLValue(t *testing.T) {
	testParseError(t, "a + b = 1", "expected identifier or field access")
}

func TestFunctionDeclaration(t *testing.T) {
	program := testParse(t, `def add(a: int, b: int) -> int {
	return a + b
}`)
	fn, ok := program.Statements[0].(*ast.FunctionDecl)
	if !ok {
		t.Fatalf("expected function declaration, got %T", program.Statements[0])
	}
	if fn.Name != "add" || fn.TakesSelf || fn.ReturnType != "int" {
		t.Errorf("unexpected signature: name=%q takesSelf=%v ret=%q", fn.Name, fn.TakesSelf, fn.ReturnType)
	}
	if len(fn.Parameters) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(fn.Parameters))
	}
	if fn.Parameters[0].Name != "a" || fn.Parameters[1].TypeName != "int" {
		t.Errorf("unexpected parameters: %v", fn.Parameters)
	}
	if len(fn.Body.Statements) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(fn.Body.Statements))
	}
}

func TestVarArgsParameter(t *testing.T) {
	program := testParse(t, "extern def printf(fmt: str, *rest: int) -> int")
	ext := program.Statements[0].(*ast.ExternFunction)
	if len(ext.Parameters) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(ext.Parameters))
	}
	if ext.Parameters[0].VarArgs || !ext.Parameters[1].VarArgs {
		t.Errorf("var-args flags wrong: %v", ext.Parameters)
	}
}

func TestExternWithSelfIsRejected(t *testing.T) {
	testParseError(t, "extern def f(self, a: int) -> int",
		"extern functions cannot have 'self'")
}

func TestIfElseIfElse(t *testing.T) {
	program := testParse(t, `if a < b {
	x = 1
} else if a == b {
	x = 2
} else {
	x = 3
}`)
	stmt, ok := program.Statements[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected if statement, got %T", program.Statements[0])
	}
	if got := stmt.Condition.String(); got != "(a < b)" {
		t.Errorf("condition = %q", got)
	}
	if len(stmt.ElseIfs) != 1 {
		t.Fatalf("expected 1 else-if branch, got %d", len(stmt.ElseIfs))
	}
	if stmt.Else == nil {
		t.Fatalf("expected else branch")
	}
}

func TestElseRequiresIfOrBlock(t *testing.T) {
	testParseError(t, "if a { } else return 1", "expected 'if' or '{' after 'else'")
}

func TestWhile(t *testing.T) {
	program := testParse(t, "while i < 10 { i = i + 1 }")
	stmt, ok := program.Statements[0].(*ast.WhileStatement)
	if !ok {
		t.Fatalf("expected while statement, got %T", program.Statements[0])
	}
	if got := stmt.Condition.String(); got != "(i < 10)" {
		t.Errorf("condition = %q", got)
	}
	if len(stmt.Body.Statements) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(stmt.Body.Statements))
	}
}

func TestStructDefinition(t *testing.T) {
	program := testParse(t, `struct Point {
	x: int,
	y: int,
	def sum(self) -> int {
		return self.x + self.y
	}
}`)
	stmt, ok := program.Statements[0].(*ast.StructStatement)
	if !ok {
		t.Fatalf("expected struct, got %T", program.Statements[0])
	}
	if stmt.Name != "Point" {
		t.Errorf("name = %q", stmt.Name)
	}
	if len(stmt.Fields) != 2 || len(stmt.Methods) != 1 {
		t.Fatalf("expected 2 fields and 1 method, got %d and %d",
			len(stmt.Fields), len(stmt.Methods))
	}
	method := stmt.Methods[0]
	if !method.TakesSelf {
		t.Errorf("method should take self")
	}
	if got := method.Body.Statements[0].String(); got != "return (self.x + self.y)" {
		t.Errorf("method body = %q", got)
	}
}

func TestStructMethodWithoutSelfIsRejected(t *testing.T) {
	testParseError(t, `struct Point {
	x: int,
	def sum() -> int { return 1 }
}`, "must take 'self'")
}

func TestCallExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"f()", "f()"},
		{"f(1, 2)", "f(1, 2)"},
		{"f(a + b)", "f((a + b))"},
		{"f(1)(2)", "f(1)(2)"},
		{"p.sum()", "p.sum()"},
		{"int(x)", "int(x)"},
		{`print("hi")`, `print("hi")`},
	}

	for _, tt := range tests {
		program := testParse(t, tt.input)
		stmt := program.Statements[0].(*ast.ExpressionStatement)
		if got := stmt.Expression.String(); got != tt.expected {
			t.Errorf("parsed %q as %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSemicolonsAreOptionalSeparators(t *testing.T) {
	program := testParse(t, "x: int = 1; return x")
	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(program.Statements))
	}
}

func TestReturnStatement(t *testing.T) {
	program := testParse(t, "return 2 ** 10")
	stmt, ok := program.Statements[0].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("expected return, got %T", program.Statements[0])
	}
	if got := stmt.Value.String(); got != "(2 ** 10)" {
		t.Errorf("value = %q", got)
	}
}

func TestUnclosedBlock(t *testing.T) {
	testParseError(t, "while x { y = 1", "unclosed block")
}

func TestErrorsCarryPositionAndContext(t *testing.T) {
	_, err := New(lexer.New("x: int 5")).ParseProgram()
	if err == nil {
		t.Fatalf("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "declaration") {
		t.Errorf("error should name the rule: %q", msg)
	}
	if !strings.Contains(msg, "1:") {
		t.Errorf("error should carry a position: %q", msg)
	}
}

// Package retic exposes the compiler's embedding API: source text in,
// LLVM IR module out.
package retic

import (
	"fmt"

	"github.com/llir/llvm/ir"

	"github.com/reticulated/retic/internal/ast"
	"github.com/reticulated/retic/internal/codegen"
	"github.com/reticulated/retic/internal/lexer"
	"github.com/reticulated/retic/internal/parser"
)

// Parse tokenizes and parses source text into a program AST.
func Parse(source string) (*ast.Program, error) {
	l := lexer.New(source)
	p := parser.New(l)
	program, err := p.ParseProgram()

	// A malformed token usually derails the parser too; the scanner's
	// diagnosis is the more useful one, so it wins.
	if lexErrs := l.Errors(); len(lexErrs) > 0 {
		first := lexErrs[0]
		return nil, fmt.Errorf("lex error at %s: %s", first.Pos, first.Message)
	}
	if err != nil {
		return nil, err
	}
	return program, nil
}

// Compile compiles retic source text into an LLVM IR module.
func Compile(source string) (*ir.Module, error) {
	program, err := Parse(source)
	if err != nil {
		return nil, err
	}
	gen := codegen.New()
	return gen.Compile(program)
}

// Render returns the textual IR form of a compiled module.
func Render(module *ir.Module) string {
	return module.String()
}

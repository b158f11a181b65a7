package ast

import (
	"bytes"

	"github.com/reticulated/retic/internal/token"
)

// Parameter is one formal parameter of a function declaration. At most one
// parameter may be variadic, and it must be last.
type Parameter struct {
	Name     string
	TypeName string
	VarArgs  bool
}

func (p Parameter) String() string {
	prefix := ""
	if p.VarArgs {
		prefix = "*"
	}
	return prefix + p.Name + ": " + p.TypeName
}

// FunctionDecl is `def name(params) -> type block`. TakesSelf marks struct
// methods, whose first formal is the implicit receiver.
type FunctionDecl struct {
	Token      token.Token // the def token
	Name       string
	TakesSelf  bool
	Parameters []Parameter
	ReturnType string
	Body       *BlockStatement
}

func (fd *FunctionDecl) statementNode()       {}
func (fd *FunctionDecl) TokenLiteral() string { return fd.Token.Literal }
func (fd *FunctionDecl) Pos() token.Position  { return fd.Token.Pos() }

func (fd *FunctionDecl) String() string {
	var out bytes.Buffer
	out.WriteString("def ")
	out.WriteString(fd.Name)
	out.WriteString("(")
	if fd.TakesSelf {
		out.WriteString("self")
		if len(fd.Parameters) > 0 {
			out.WriteString(", ")
		}
	}
	for i, param := range fd.Parameters {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(param.String())
	}
	out.WriteString(") -> ")
	out.WriteString(fd.ReturnType)
	out.WriteString(" ")
	out.WriteString(fd.Body.String())
	return out.String()
}

// ExternFunction declares a function implemented outside the module:
// `extern def name(params) -> type`. Extern functions never take self.
type ExternFunction struct {
	Token      token.Token // the extern token
	Name       string
	Parameters []Parameter
	ReturnType string
}

func (ef *ExternFunction) statementNode()       {}
func (ef *ExternFunction) TokenLiteral() string { return ef.Token.Literal }
func (ef *ExternFunction) Pos() token.Position  { return ef.Token.Pos() }

func (ef *ExternFunction) String() string {
	var out bytes.Buffer
	out.WriteString("extern def ")
	out.WriteString(ef.Name)
	out.WriteString("(")
	for i, param := range ef.Parameters {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(param.String())
	}
	out.WriteString(") -> ")
	out.WriteString(ef.ReturnType)
	return out.String()
}

package codegen

import (
	"github.com/reticulated/retic/internal/ast"
)

// fnParamTypes resolves the declared parameter type list of a function,
// prepending the owner type for methods. At most one parameter may be
// variadic and it must be last.
func (g *Generator) fnParamTypes(decl *ast.FunctionDecl, owner TypeID) ([]TypeID, bool, error) {
	var paramTypes []TypeID
	if owner != NoOwner {
		paramTypes = append(paramTypes, owner)
	}

	isVarArgs := false
	for _, param := range decl.Parameters {
		if isVarArgs {
			return nil, false, newError(ErrInvalidFunctionDefinition,
				"the var-args parameter of %q must be last", decl.Name)
		}
		if param.VarArgs {
			isVarArgs = true
			continue
		}
		typ, err := g.env.FindType(param.TypeName)
		if err != nil {
			return nil, false, err
		}
		paramTypes = append(paramTypes, typ)
	}
	return paramTypes, isVarArgs, nil
}

// preprocessFn declares a function (or method, when owner is given) so
// forward references resolve before any body is compiled.
func (g *Generator) preprocessFn(decl *ast.FunctionDecl, owner TypeID) error {
	paramTypes, isVarArgs, err := g.fnParamTypes(decl, owner)
	if err != nil {
		return err
	}
	ret, err := g.env.FindType(decl.ReturnType)
	if err != nil {
		return err
	}
	_, _, err = g.env.CreateFunc(owner, decl.Name, paramTypes, ret, isVarArgs)
	return err
}

// compileFn emits the body of a previously declared function or method.
func (g *Generator) compileFn(decl *ast.FunctionDecl, owner TypeID) error {
	paramTypes, isVarArgs, err := g.fnParamTypes(decl, owner)
	if err != nil {
		return err
	}
	if isVarArgs {
		return newError(ErrInvalidFunctionDefinition,
			"var-args parameters are only supported on extern declarations")
	}

	fnID, err := g.env.FindFunc(decl.Name, owner, paramTypes)
	if err != nil {
		return err
	}
	def := g.env.GetFunc(fnID)

	prevFn, prevBlock := g.curFn, g.cur
	g.curFn = def.Func
	g.cur = def.Func.NewBlock("entry")

	prevEnv := g.env.SetFuncEnv(NewFuncEnvironment(fnID, false))
	g.env.PushScope()

	names := make([]string, 0, len(paramTypes))
	if owner != NoOwner {
		names = append(names, "self")
	}
	for _, param := range decl.Parameters {
		names = append(names, param.Name)
	}
	for i, typ := range def.Params {
		slot := g.cur.NewAlloca(g.env.GetType(typ).Ptr())
		slot.SetName(g.name(names[i] + "_var"))
		g.cur.NewStore(def.Func.Params[i], slot)
		g.env.InsertVar(names[i], slot, typ)
	}

	if err := g.compileBlock(decl.Body); err != nil {
		g.env.PopScope()
		g.env.SetFuncEnv(prevEnv)
		return err
	}

	scope := g.env.PopScope()
	if g.cur.Term == nil {
		// Falling off the end of a function that must produce a value.
		if err := g.freeScopeVars(scope); err != nil {
			return err
		}
		g.cur.NewUnreachable()
	}

	g.env.SetFuncEnv(prevEnv)
	g.curFn, g.cur = prevFn, prevBlock
	return nil
}

// declareExternFn registers an extern function: a true external declaration
// under the extern's plain symbol name, with no owner and no body.
func (g *Generator) declareExternFn(decl *ast.ExternFunction) error {
	var paramTypes []TypeID
	isVarArgs := false
	for _, param := range decl.Parameters {
		if isVarArgs {
			return newError(ErrInvalidFunctionDefinition,
				"the var-args parameter of %q must be last", decl.Name)
		}
		if param.VarArgs {
			isVarArgs = true
			continue
		}
		typ, err := g.env.FindType(param.TypeName)
		if err != nil {
			return err
		}
		paramTypes = append(paramTypes, typ)
	}

	ret, err := g.env.FindType(decl.ReturnType)
	if err != nil {
		return err
	}
	_, _, err = g.env.CreateExternFunc(decl.Name, paramTypes, ret, isVarArgs)
	return err
}

package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir/value"

	"github.com/reticulated/retic/internal/ast"
)

// compileStatement lowers one statement at the builder's current position.
func (g *Generator) compileStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.DeclarationStatement:
		return g.compileDeclaration(s)
	case *ast.AssignStatement:
		return g.compileAssign(s)
	case *ast.ExpressionStatement:
		return g.compileExpressionStatement(s)
	case *ast.IfStatement:
		return g.compileIf(s)
	case *ast.WhileStatement:
		return g.compileWhile(s)
	case *ast.ReturnStatement:
		return g.compileReturn(s)
	case *ast.FunctionDecl, *ast.ExternFunction, *ast.StructStatement:
		return newError(ErrInvalidFunctionDefinition,
			"declarations are only allowed at the top level")
	default:
		return newError(ErrInvalidType, "cannot compile statement %q", stmt.String())
	}
}

// compileBlock opens a scope, compiles the block's statements, and closes
// the scope. On normal fall-through every live binding is freed; when a
// return has already emitted the unwind, cleanup is suppressed.
func (g *Generator) compileBlock(block *ast.BlockStatement) error {
	g.env.PushScope()
	for _, stmt := range block.Statements {
		if err := g.compileStatement(stmt); err != nil {
			g.env.PopScope()
			return err
		}
		if g.env.CurrentScope().HasReturned() {
			break
		}
	}
	scope := g.env.PopScope()
	if g.cur.Term == nil {
		return g.freeScopeVars(scope)
	}
	return nil
}

// compileDeclaration creates a stack slot for the new variable and stores
// the initializer's record pointer into it.
func (g *Generator) compileDeclaration(stmt *ast.DeclarationStatement) error {
	varTyp, err := g.env.FindType(stmt.TypeName)
	if err != nil {
		return fmt.Errorf("in declaration of %q: %w", stmt.Name, err)
	}

	val, valTyp, err := g.compileExpression(stmt.Value)
	if err != nil {
		return err
	}
	if valTyp != varTyp {
		return newError(ErrInvalidType,
			"cannot initialize %q of type %q with a value of type %q",
			stmt.Name, g.env.TypeIdent(varTyp), g.env.TypeIdent(valTyp))
	}

	slot := g.cur.NewAlloca(g.env.GetType(varTyp).Ptr())
	slot.SetName(g.name(stmt.Name + "_var"))
	g.cur.NewStore(val, slot)
	g.env.InsertVar(stmt.Name, slot, varTyp)
	return nil
}

// compileAssign stores a new record pointer through an lvalue, freeing the
// pointer it replaces. Compound operators are desugared here into the
// corresponding binary method applied to (current value, rhs).
func (g *Generator) compileAssign(stmt *ast.AssignStatement) error {
	switch target := stmt.Target.(type) {
	case *ast.Identifier:
		slot, varTyp, err := g.env.GetVar(target.Value)
		if err != nil {
			return err
		}
		return g.assignThroughSlot(stmt, slot, varTyp, target.Value)

	case *ast.AccessExpression:
		objPtr, objTyp, err := g.compileExpression(target.Object)
		if err != nil {
			return err
		}
		objDef := g.env.GetType(objTyp)
		field, ok := objDef.FieldByName(target.Member)
		if !ok {
			return newError(ErrFieldNotFound, "type %q has no field %q", objDef.Ident(), target.Member)
		}

		slotPtr := g.gepField(objDef, objPtr, field.Index)
		if err := g.assignThroughSlot(stmt, slotPtr, field.Type, target.String()); err != nil {
			return err
		}
		return g.freePointer(objPtr, objTyp)

	default:
		return newError(ErrInvalidType, "cannot assign to %q", stmt.Target.String())
	}
}

// assignThroughSlot computes the assignment's new value, checks its type,
// frees the old value in the slot and stores the new pointer.
func (g *Generator) assignThroughSlot(stmt *ast.AssignStatement, slot value.Value, slotTyp TypeID, name string) error {
	newVal, newTyp, err := g.assignmentValue(stmt, slot, slotTyp)
	if err != nil {
		return err
	}
	if newTyp != slotTyp {
		return newError(ErrInvalidType,
			"cannot assign a value of type %q to %q of type %q",
			g.env.TypeIdent(newTyp), name, g.env.TypeIdent(slotTyp))
	}

	def := g.env.GetType(slotTyp)
	old := g.cur.NewLoad(def.Ptr(), slot)
	if err := g.freePointer(old, slotTyp); err != nil {
		return err
	}
	g.cur.NewStore(newVal, slot)
	return nil
}

// assignmentValue produces the right-hand record pointer. For a compound
// operator the current value is copied out of the slot and combined with
// the rhs through the operator's method, which consumes both.
func (g *Generator) assignmentValue(stmt *ast.AssignStatement, slot value.Value, slotTyp TypeID) (value.Value, TypeID, error) {
	binOp, compound := stmt.Op.BinaryOp()
	if !compound {
		return g.compileExpression(stmt.Value)
	}

	def := g.env.GetType(slotTyp)
	current := g.cur.NewLoad(def.Ptr(), slot)
	currentOwned, err := g.copyPointer(current, slotTyp)
	if err != nil {
		return nil, 0, err
	}

	rhs, rhsTyp, err := g.compileExpression(stmt.Value)
	if err != nil {
		return nil, 0, err
	}

	fnID, err := g.env.FindFunc(binOp.MethodName(), slotTyp, []TypeID{slotTyp, rhsTyp})
	if err != nil {
		return nil, 0, err
	}
	ret, retTyp := g.callFunc(fnID, []value.Value{currentOwned, rhs})
	return ret, retTyp, nil
}

// compileExpressionStatement evaluates an expression and frees its unused
// result.
func (g *Generator) compileExpressionStatement(stmt *ast.ExpressionStatement) error {
	ptr, typ, err := g.compileExpression(stmt.Expression)
	if err != nil {
		return err
	}
	return g.freePointer(ptr, typ)
}

// compileReturn type-checks the value against the current function's return
// type, frees every scope from innermost to outermost, and emits the
// terminator. The scope's has-returned flag suppresses later cleanup.
func (g *Generator) compileReturn(stmt *ast.ReturnStatement) error {
	val, typ, err := g.compileExpression(stmt.Value)
	if err != nil {
		return err
	}

	fnDef := g.env.GetFunc(g.env.FuncEnv().FnID)
	if fnDef.Ret != typ {
		return newError(ErrInvalidType,
			"cannot return a value of type %q from a function returning %q",
			g.env.TypeIdent(typ), g.env.TypeIdent(fnDef.Ret))
	}

	g.env.CurrentScope().SetReturned()
	if err := g.freeAllScopes(); err != nil {
		return err
	}
	g.cur.NewRet(val)
	return nil
}

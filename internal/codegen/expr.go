package codegen

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/reticulated/retic/internal/ast"
)

// compileExpression lowers an expression to a (pointer, TypeID) pair. The
// pointer targets a heap record with refcount >= 1 that the caller owns.
//
// Ownership discipline:
//   - A literal or constructor call allocates a fresh record with refcount 1.
//   - Reading a variable copies the stored pointer (refcount += 1).
//   - Arguments passed to any call are consumed by the callee: builtin
//     operator methods free them on their return path, user functions free
//     them at scope exit.
//   - Whoever produces a value and does not consume it frees it: expression
//     statements free their result, conditions are freed once the i1 is
//     extracted.
func (g *Generator) compileExpression(expr ast.Expression) (value.Value, TypeID, error) {
	switch e := expr.(type) {
	case *ast.LogicalExpression:
		return g.compileLogical(e)
	case *ast.BinaryExpression:
		return g.compileBinary(e)
	case *ast.UnaryExpression:
		return g.compileUnary(e)
	case *ast.CallExpression:
		return g.compileInvoke(e)
	case *ast.AccessExpression:
		return g.compileAccess(e)
	case *ast.Identifier:
		return g.compileIdentifier(e)
	case *ast.IntegerLiteral:
		def := g.env.GetType(IntID)
		return g.buildRecord(def, constI64(e.Value)), IntID, nil
	case *ast.FloatLiteral:
		def := g.env.GetType(FloatID)
		return g.buildRecord(def, constant.NewFloat(types.Double, e.Value)), FloatID, nil
	case *ast.BooleanLiteral:
		def := g.env.GetType(BoolID)
		bit := int64(0)
		if e.Value {
			bit = 1
		}
		return g.buildRecord(def, constant.NewInt(types.I1, bit)), BoolID, nil
	case *ast.StringLiteral:
		return g.buildStrConst(e.Value), StrID, nil
	case *ast.NoneLiteral:
		return nil, 0, newError(ErrInvalidType, "None has no value representation")
	default:
		return nil, 0, newError(ErrInvalidType, "cannot compile expression %q", expr.String())
	}
}

// compileIdentifier loads a variable's record pointer out of its slot and
// copies it, so the returned pointer is owned by the caller.
func (g *Generator) compileIdentifier(ident *ast.Identifier) (value.Value, TypeID, error) {
	slot, typ, err := g.env.GetVar(ident.Value)
	if err != nil {
		return nil, 0, err
	}
	ptr := g.cur.NewLoad(g.env.GetType(typ).Ptr(), slot)
	copied, err := g.copyPointer(ptr, typ)
	if err != nil {
		return nil, 0, err
	}
	return copied, typ, nil
}

// compileBinary lowers a method-dispatched binary operator: the method is
// resolved on the left operand's type and consumes both operands.
func (g *Generator) compileBinary(expr *ast.BinaryExpression) (value.Value, TypeID, error) {
	left, leftTyp, err := g.compileExpression(expr.Left)
	if err != nil {
		return nil, 0, err
	}
	right, rightTyp, err := g.compileExpression(expr.Right)
	if err != nil {
		return nil, 0, err
	}

	fnID, err := g.env.FindFunc(expr.Op.MethodName(), leftTyp, []TypeID{leftTyp, rightTyp})
	if err != nil {
		return nil, 0, err
	}
	ret, retTyp := g.callFunc(fnID, []value.Value{left, right})
	return ret, retTyp, nil
}

// compileUnary lowers `not` and negation to the operand type's method.
func (g *Generator) compileUnary(expr *ast.UnaryExpression) (value.Value, TypeID, error) {
	operand, typ, err := g.compileExpression(expr.Operand)
	if err != nil {
		return nil, 0, err
	}

	fnID, err := g.env.FindFunc(expr.Op.MethodName(), typ, []TypeID{typ})
	if err != nil {
		return nil, 0, err
	}
	ret, retTyp := g.callFunc(fnID, []value.Value{operand})
	return ret, retTyp, nil
}

// compileInvoke lowers a call. Identifier callees name free functions, or
// conversions when the identifier is a primitive type name; field-access
// callees dispatch a method on the receiver's type. First-class functions
// are not supported.
func (g *Generator) compileInvoke(expr *ast.CallExpression) (value.Value, TypeID, error) {
	switch callee := expr.Callee.(type) {
	case *ast.Identifier:
		args, argTypes, err := g.compileArguments(expr.Arguments)
		if err != nil {
			return nil, 0, err
		}

		if target, isConverter := converterTargets[callee.Value]; isConverter {
			if len(args) != 1 {
				return nil, 0, newError(ErrFunctionNotFound,
					"conversion %q takes exactly one argument", callee.Value)
			}
			fnID, err := g.env.FindFunc(target, argTypes[0], []TypeID{argTypes[0]})
			if err != nil {
				return nil, 0, err
			}
			ret, retTyp := g.callFunc(fnID, args)
			return ret, retTyp, nil
		}

		fnID, err := g.env.FindFunc(callee.Value, NoOwner, argTypes)
		if err != nil {
			return nil, 0, err
		}
		ret, retTyp := g.callFunc(fnID, args)
		return ret, retTyp, nil

	case *ast.AccessExpression:
		receiver, receiverTyp, err := g.compileExpression(callee.Object)
		if err != nil {
			return nil, 0, err
		}
		args, argTypes, err := g.compileArguments(expr.Arguments)
		if err != nil {
			return nil, 0, err
		}

		paramTypes := append([]TypeID{receiverTyp}, argTypes...)
		fnID, err := g.env.FindFunc(callee.Member, receiverTyp, paramTypes)
		if err != nil {
			return nil, 0, err
		}
		ret, retTyp := g.callFunc(fnID, append([]value.Value{receiver}, args...))
		return ret, retTyp, nil

	default:
		return nil, 0, newError(ErrFunctionNotFound,
			"only named functions and methods can be called, not %q", expr.Callee.String())
	}
}

// compileArguments evaluates call arguments left to right.
func (g *Generator) compileArguments(args []ast.Expression) ([]value.Value, []TypeID, error) {
	values := make([]value.Value, 0, len(args))
	typs := make([]TypeID, 0, len(args))
	for _, arg := range args {
		v, typ, err := g.compileExpression(arg)
		if err != nil {
			return nil, nil, err
		}
		values = append(values, v)
		typs = append(typs, typ)
	}
	return values, typs, nil
}

// compileAccess lowers a field read: a GEP to the field slot by name, a load
// of the stored field pointer, and a copy so the result is caller-owned. The
// receiver's own hold on the field survives because the copy happens before
// the receiver is released.
func (g *Generator) compileAccess(expr *ast.AccessExpression) (value.Value, TypeID, error) {
	objPtr, objTyp, err := g.compileExpression(expr.Object)
	if err != nil {
		return nil, 0, err
	}
	objDef := g.env.GetType(objTyp)

	field, ok := objDef.FieldByName(expr.Member)
	if !ok {
		return nil, 0, newError(ErrFieldNotFound, "type %q has no field %q", objDef.Ident(), expr.Member)
	}

	slotPtr := g.gepField(objDef, objPtr, field.Index)
	fieldPtr := g.cur.NewLoad(g.env.GetType(field.Type).Ptr(), slotPtr)
	copied, err := g.copyPointer(fieldPtr, field.Type)
	if err != nil {
		return nil, 0, err
	}

	if err := g.freePointer(objPtr, objTyp); err != nil {
		return nil, 0, err
	}
	return copied, field.Type, nil
}

package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/reticulated/retic/internal/ast"
)

const boolName = "bool"

// declareBoolPrimitive registers bool as a record of one i1.
func (g *Generator) declareBoolPrimitive() error {
	return g.declarePrimitive(boolName, BoolID, types.I1)
}

// setupBoolPrimitive emits the per-type functions of bool.
func (g *Generator) setupBoolPrimitive() error {
	if err := g.buildFreePtrFn(BoolID, primitiveUnalloc); err != nil {
		return err
	}
	if err := g.buildCopyPtrFn(BoolID); err != nil {
		return err
	}

	cmps := []struct {
		ident string
		pred  enum.IPred
	}{
		{ast.OpEq.MethodName(), enum.IPredEQ},
		{ast.OpNe.MethodName(), enum.IPredNE},
	}
	for _, fn := range cmps {
		pred := fn.pred
		err := g.createPrimitiveBinaryFn(fn.ident, BoolID, BoolID, BoolID,
			func(l, r value.Value) value.Value { return g.cur.NewICmp(pred, l, r) })
		if err != nil {
			return err
		}
	}

	err := g.createPrimitiveUnaryFn(ast.UnaryNot.MethodName(), BoolID, BoolID,
		func(v value.Value) value.Value {
			return g.cur.NewXor(v, constant.NewInt(types.I1, 1))
		})
	if err != nil {
		return err
	}

	return g.setupBoolToStr()
}

// setupBoolToStr emits __str__ for bool: branch on the value and build
// either "True" or "False".
func (g *Generator) setupBoolToStr() error {
	boolDef := g.env.GetType(BoolID)

	return g.createUnaryFn(toStrFn, BoolID, StrID, true,
		func(fn *ir.Func, param value.Value) (value.Value, error) {
			prim := g.extractPrimitive(param, boolDef)

			trueBlock := fn.NewBlock("true_branch")
			falseBlock := fn.NewBlock("false_branch")
			merge := fn.NewBlock("merge")
			g.cur.NewCondBr(prim, trueBlock, falseBlock)

			g.cur = trueBlock
			trueStr := g.buildStrConst("True")
			trueEnd := g.cur
			g.cur.NewBr(merge)

			g.cur = falseBlock
			falseStr := g.buildStrConst("False")
			falseEnd := g.cur
			g.cur.NewBr(merge)

			g.cur = merge
			result := merge.NewPhi(ir.NewIncoming(trueStr, trueEnd), ir.NewIncoming(falseStr, falseEnd))
			return result, nil
		})
}

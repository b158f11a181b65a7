package codegen

import (
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/reticulated/retic/internal/ast"
)

const floatName = "float"

// declareFloatPrimitive registers float as a record of one IEEE double.
func (g *Generator) declareFloatPrimitive() error {
	return g.declarePrimitive(floatName, FloatID, types.Double)
}

// setupFloatPrimitive emits the per-type functions of float.
func (g *Generator) setupFloatPrimitive() error {
	if err := g.buildFreePtrFn(FloatID, primitiveUnalloc); err != nil {
		return err
	}
	if err := g.buildCopyPtrFn(FloatID); err != nil {
		return err
	}

	arith := []struct {
		ident string
		op    func(left, right value.Value) value.Value
	}{
		{ast.OpAdd.MethodName(), func(l, r value.Value) value.Value { return g.cur.NewFAdd(l, r) }},
		{ast.OpSub.MethodName(), func(l, r value.Value) value.Value { return g.cur.NewFSub(l, r) }},
		{ast.OpMul.MethodName(), func(l, r value.Value) value.Value { return g.cur.NewFMul(l, r) }},
		{ast.OpDiv.MethodName(), func(l, r value.Value) value.Value { return g.cur.NewFDiv(l, r) }},
		{ast.OpMod.MethodName(), func(l, r value.Value) value.Value { return g.cur.NewFRem(l, r) }},
	}
	for _, fn := range arith {
		if err := g.createPrimitiveBinaryFn(fn.ident, FloatID, FloatID, FloatID, fn.op); err != nil {
			return err
		}
	}

	// Ordered comparisons.
	cmps := []struct {
		ident string
		pred  enum.FPred
	}{
		{ast.OpEq.MethodName(), enum.FPredOEQ},
		{ast.OpNe.MethodName(), enum.FPredONE},
		{ast.OpLt.MethodName(), enum.FPredOLT},
		{ast.OpLe.MethodName(), enum.FPredOLE},
		{ast.OpGt.MethodName(), enum.FPredOGT},
		{ast.OpGe.MethodName(), enum.FPredOGE},
	}
	for _, fn := range cmps {
		pred := fn.pred
		err := g.createPrimitiveBinaryFn(fn.ident, FloatID, FloatID, BoolID,
			func(l, r value.Value) value.Value { return g.cur.NewFCmp(pred, l, r) })
		if err != nil {
			return err
		}
	}

	err := g.createPrimitiveUnaryFn("__neg__", FloatID, FloatID,
		func(v value.Value) value.Value { return g.cur.NewFNeg(v) })
	if err != nil {
		return err
	}

	if err := g.createPrimitiveToStrFn(FloatID, "%lf"); err != nil {
		return err
	}

	return g.createPrimitiveUnaryFn(toIntFn, FloatID, IntID,
		func(v value.Value) value.Value { return g.cur.NewFPToSI(v, types.I64) })
}

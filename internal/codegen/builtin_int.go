package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/reticulated/retic/internal/ast"
)

const intName = "int"

// declareIntPrimitive registers int as a record of one 64-bit signed value.
func (g *Generator) declareIntPrimitive() error {
	return g.declarePrimitive(intName, IntID, types.I64)
}

// setupIntPrimitive emits the per-type functions of int.
func (g *Generator) setupIntPrimitive() error {
	if err := g.buildFreePtrFn(IntID, primitiveUnalloc); err != nil {
		return err
	}
	if err := g.buildCopyPtrFn(IntID); err != nil {
		return err
	}

	arith := []struct {
		ident string
		op    func(left, right value.Value) value.Value
	}{
		{ast.OpAdd.MethodName(), func(l, r value.Value) value.Value { return g.cur.NewAdd(l, r) }},
		{ast.OpSub.MethodName(), func(l, r value.Value) value.Value { return g.cur.NewSub(l, r) }},
		{ast.OpMul.MethodName(), func(l, r value.Value) value.Value { return g.cur.NewMul(l, r) }},
		{ast.OpDiv.MethodName(), func(l, r value.Value) value.Value { return g.cur.NewSDiv(l, r) }},
		{ast.OpMod.MethodName(), func(l, r value.Value) value.Value { return g.cur.NewSRem(l, r) }},
	}
	for _, fn := range arith {
		if err := g.createPrimitiveBinaryFn(fn.ident, IntID, IntID, IntID, fn.op); err != nil {
			return err
		}
	}

	cmps := []struct {
		ident string
		pred  enum.IPred
	}{
		{ast.OpEq.MethodName(), enum.IPredEQ},
		{ast.OpNe.MethodName(), enum.IPredNE},
		{ast.OpLt.MethodName(), enum.IPredSLT},
		{ast.OpLe.MethodName(), enum.IPredSLE},
		{ast.OpGt.MethodName(), enum.IPredSGT},
		{ast.OpGe.MethodName(), enum.IPredSGE},
	}
	for _, fn := range cmps {
		pred := fn.pred
		err := g.createPrimitiveBinaryFn(fn.ident, IntID, IntID, BoolID,
			func(l, r value.Value) value.Value { return g.cur.NewICmp(pred, l, r) })
		if err != nil {
			return err
		}
	}

	if err := g.setupIntPow(); err != nil {
		return err
	}

	err := g.createPrimitiveUnaryFn("__neg__", IntID, IntID,
		func(v value.Value) value.Value { return g.cur.NewSub(constI64(0), v) })
	if err != nil {
		return err
	}

	if err := g.createPrimitiveToStrFn(IntID, "%ld"); err != nil {
		return err
	}

	err = g.createPrimitiveUnaryFn(toFloatFn, IntID, FloatID,
		func(v value.Value) value.Value { return g.cur.NewSIToFP(v, types.Double) })
	if err != nil {
		return err
	}

	return g.createPrimitiveUnaryFn(toBoolFn, IntID, BoolID,
		func(v value.Value) value.Value { return g.cur.NewICmp(enum.IPredNE, v, constI64(0)) })
}

// setupIntPow emits __pow__ as an iterative square-and-multiply loop over a
// non-negative exponent. A zero or negative exponent yields 1.
func (g *Generator) setupIntPow() error {
	intDef := g.env.GetType(IntID)

	return g.createBinaryFn(ast.OpPow.MethodName(), IntID, IntID, IntID, true,
		func(left, right value.Value) (value.Value, error) {
			base := g.extractPrimitive(left, intDef)
			exp := g.extractPrimitive(right, intDef)

			entry := g.cur
			loop := g.curFn.NewBlock("loop")
			step := g.curFn.NewBlock("step")
			done := g.curFn.NewBlock("done")

			entry.NewBr(loop)

			resultPhi := loop.NewPhi(ir.NewIncoming(constI64(1), entry))
			basePhi := loop.NewPhi(ir.NewIncoming(base, entry))
			expPhi := loop.NewPhi(ir.NewIncoming(exp, entry))
			exhausted := loop.NewICmp(enum.IPredSLE, expPhi, constI64(0))
			loop.NewCondBr(exhausted, done, step)

			oddBit := step.NewAnd(expPhi, constI64(1))
			isOdd := step.NewICmp(enum.IPredNE, oddBit, constI64(0))
			multiplied := step.NewMul(resultPhi, basePhi)
			nextResult := step.NewSelect(isOdd, multiplied, resultPhi)
			nextBase := step.NewMul(basePhi, basePhi)
			nextExp := step.NewLShr(expPhi, constI64(1))
			step.NewBr(loop)

			resultPhi.Incs = append(resultPhi.Incs, ir.NewIncoming(nextResult, step))
			basePhi.Incs = append(basePhi.Incs, ir.NewIncoming(nextBase, step))
			expPhi.Incs = append(expPhi.Incs, ir.NewIncoming(nextExp, step))

			g.cur = done
			return g.buildRecord(intDef, resultPhi), nil
		})
}

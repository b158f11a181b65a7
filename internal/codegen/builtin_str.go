package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/reticulated/retic/internal/ast"
)

const strName = "str"

// declareStrPrimitive registers str as a record of { data pointer, length }.
func (g *Generator) declareStrPrimitive() error {
	return g.declarePrimitive(strName, StrID, types.I8Ptr, types.I64)
}

// strUnalloc frees the character buffer before the record itself goes away.
func strUnalloc(g *Generator, recordPtr value.Value, typ TypeID) error {
	def := g.env.GetType(typ)
	dataPtr := g.cur.NewLoad(types.I8Ptr, g.gepField(def, recordPtr, 0))
	g.cur.NewCall(g.res.free, dataPtr)
	return nil
}

// setupStrPrimitive emits the per-type functions of str.
func (g *Generator) setupStrPrimitive() error {
	if err := g.buildFreePtrFn(StrID, strUnalloc); err != nil {
		return err
	}
	if err := g.buildCopyPtrFn(StrID); err != nil {
		return err
	}

	if err := g.setupStrEq(); err != nil {
		return err
	}
	if err := g.setupStrAdd(); err != nil {
		return err
	}

	if err := g.setupStrToInt(); err != nil {
		return err
	}
	if err := g.setupStrToFloat(); err != nil {
		return err
	}
	if err := g.setupStrToBool(); err != nil {
		return err
	}

	// str(x) on a str passes ownership straight through.
	return g.createUnaryFn(toStrFn, StrID, StrID, false,
		func(_ *ir.Func, param value.Value) (value.Value, error) {
			return param, nil
		})
}

// setupStrEq emits __eq__: equal lengths, then a byte-wise compare loop.
func (g *Generator) setupStrEq() error {
	boolDef := g.env.GetType(BoolID)

	return g.createBinaryFn(ast.OpEq.MethodName(), StrID, StrID, BoolID, true,
		func(left, right value.Value) (value.Value, error) {
			leftData, leftLen := g.extractString(left)
			rightData, rightLen := g.extractString(right)

			entry := g.cur
			checkEnd := g.curFn.NewBlock("check_end")
			compare := g.curFn.NewBlock("compare_str")
			merge := g.curFn.NewBlock("merge")

			lenEq := entry.NewICmp(enum.IPredEQ, leftLen, rightLen)
			entry.NewCondBr(lenEq, checkEnd, merge)

			indexPhi := checkEnd.NewPhi(ir.NewIncoming(constI64(0), entry))
			atEnd := checkEnd.NewICmp(enum.IPredEQ, indexPhi, leftLen)
			checkEnd.NewCondBr(atEnd, merge, compare)

			leftChar := compare.NewLoad(types.I8,
				compare.NewGetElementPtr(types.I8, leftData, indexPhi))
			rightChar := compare.NewLoad(types.I8,
				compare.NewGetElementPtr(types.I8, rightData, indexPhi))
			charEq := compare.NewICmp(enum.IPredEQ, leftChar, rightChar)
			nextIndex := compare.NewAdd(indexPhi, constI64(1))
			indexPhi.Incs = append(indexPhi.Incs, ir.NewIncoming(nextIndex, compare))
			compare.NewCondBr(charEq, checkEnd, merge)

			g.cur = merge
			result := merge.NewPhi(
				ir.NewIncoming(constant.NewInt(types.I1, 0), entry),
				ir.NewIncoming(constant.NewInt(types.I1, 1), checkEnd),
				ir.NewIncoming(constant.NewInt(types.I1, 0), compare),
			)
			return g.buildRecord(boolDef, result), nil
		})
}

// setupStrAdd emits __add__: concatenation via malloc and two memcpys.
func (g *Generator) setupStrAdd() error {
	return g.createBinaryFn(ast.OpAdd.MethodName(), StrID, StrID, StrID, true,
		func(left, right value.Value) (value.Value, error) {
			leftData, leftLen := g.extractString(left)
			rightData, rightLen := g.extractString(right)

			newLen := g.cur.NewAdd(leftLen, rightLen)
			newData := g.cur.NewCall(g.res.malloc, newLen)

			g.cur.NewCall(g.res.memcpy, newData, leftData, leftLen)
			rightDst := g.cur.NewGetElementPtr(types.I8, newData, leftLen)
			g.cur.NewCall(g.res.memcpy, rightDst, rightData, rightLen)

			return g.buildStrRecord(newData, newLen), nil
		})
}

// setupStrToInt emits __int__: sscanf %ld against a fresh int record.
func (g *Generator) setupStrToInt() error {
	intDef := g.env.GetType(IntID)
	fmtPtr := g.globalCString("str_to_int_format_specifier", "%ld")

	return g.createUnaryFn(toIntFn, StrID, IntID, true,
		func(_ *ir.Func, param value.Value) (value.Value, error) {
			strData, _ := g.extractString(param)

			record := g.buildRecord(intDef, constI64(0))
			dataPtr := g.gepField(intDef, record, 0)
			g.cur.NewCall(g.res.sscanf, strData, fmtPtr, dataPtr)

			return record, nil
		})
}

// setupStrToFloat emits __float__: sscanf %lf against a fresh float record.
func (g *Generator) setupStrToFloat() error {
	floatDef := g.env.GetType(FloatID)
	fmtPtr := g.globalCString("str_to_float_format_specifier", "%lf")

	return g.createUnaryFn(toFloatFn, StrID, FloatID, true,
		func(_ *ir.Func, param value.Value) (value.Value, error) {
			strData, _ := g.extractString(param)

			record := g.buildRecord(floatDef, constant.NewFloat(types.Double, 0))
			dataPtr := g.gepField(floatDef, record, 0)
			g.cur.NewCall(g.res.sscanf, strData, fmtPtr, dataPtr)

			return record, nil
		})
}

// setupStrToBool emits __bool__ as equality with "True". The __eq__ call
// consumes both of its arguments, so the parameter is not freed here.
func (g *Generator) setupStrToBool() error {
	return g.createUnaryFn(toBoolFn, StrID, BoolID, false,
		func(_ *ir.Func, param value.Value) (value.Value, error) {
			eqID, err := g.env.FindFunc(ast.OpEq.MethodName(), StrID, []TypeID{StrID, StrID})
			if err != nil {
				return nil, err
			}
			trueStr := g.buildStrConst("True")
			result, _ := g.callFunc(eqID, []value.Value{param, trueStr})
			return result, nil
		})
}

// extractString loads the data pointer and length out of a str record.
func (g *Generator) extractString(recordPtr value.Value) (value.Value, value.Value) {
	def := g.env.GetType(StrID)
	data := g.cur.NewLoad(types.I8Ptr, g.gepField(def, recordPtr, 0))
	length := g.cur.NewLoad(types.I64, g.gepField(def, recordPtr, 1))
	return data, length
}

// buildStrConst heap-allocates a string record holding the given constant
// text. The buffer is not NUL-terminated; the record carries the length.
func (g *Generator) buildStrConst(s string) value.Value {
	data := g.cur.NewCall(g.res.malloc, constI64(int64(len(s))))
	if len(s) > 0 {
		arr := constant.NewCharArrayFromString(s)
		buf := g.cur.NewBitCast(data, types.NewPointer(arr.Typ))
		g.cur.NewStore(arr, buf)
	}
	return g.buildStrRecord(data, constI64(int64(len(s))))
}

// buildStrRecord wraps an owned character buffer and its length in a str
// record.
func (g *Generator) buildStrRecord(data, length value.Value) value.Value {
	return g.buildRecord(g.env.GetType(StrID), data, length)
}

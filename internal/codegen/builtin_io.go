package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
)

// inputChunkSize is how many characters input reads per scanf call. The
// scan format requests one less than the stack buffer so there is room for
// the terminator scanf writes.
const inputChunkSize = 127

// setupFunctions emits the built-in free functions print and input.
func (g *Generator) setupFunctions() error {
	if err := g.setupPrint(); err != nil {
		return err
	}
	return g.setupInput()
}

// setupPrint emits print(str) -> None: the string bytes plus a trailing
// newline via printf("%.*s\n", len, ptr).
func (g *Generator) setupPrint() error {
	fn, _, err := g.env.CreateFunc(NoOwner, "print", []TypeID{StrID}, NoneID, false)
	if err != nil {
		return err
	}

	g.curFn = fn
	g.cur = fn.NewBlock("entry")

	param := fn.Params[0]
	data, length := g.extractString(param)
	len32 := g.cur.NewTrunc(length, types.I32)
	g.cur.NewCall(g.res.printf, g.res.printFmt, len32, data)

	if err := g.freePointer(param, StrID); err != nil {
		return err
	}
	g.cur.NewRet(g.buildNone())
	return nil
}

// setupInput emits input(str) -> str: print the prompt, then repeatedly
// scan up to 127 characters into a stack chunk, growing the output buffer
// with realloc and memcpy. Scanning stops when a chunk comes back short.
func (g *Generator) setupInput() error {
	fn, _, err := g.env.CreateFunc(NoOwner, "input", []TypeID{StrID}, StrID, false)
	if err != nil {
		return err
	}

	g.curFn = fn
	entry := fn.NewBlock("entry")
	g.cur = entry

	param := fn.Params[0]
	promptData, promptLen := g.extractString(param)
	promptLen32 := g.cur.NewTrunc(promptLen, types.I32)
	g.cur.NewCall(g.res.printf, g.res.promptFmt, promptLen32, promptData)
	if err := g.freePointer(param, StrID); err != nil {
		return err
	}

	chunkType := types.NewArray(inputChunkSize+1, types.I8)
	chunk := entry.NewAlloca(chunkType)
	nSlot := entry.NewAlloca(types.I32)
	chunkPtr := entry.NewGetElementPtr(chunkType, chunk, constI32(0), constI32(0))

	loop := fn.NewBlock("read_chunk")
	done := fn.NewBlock("done")
	entry.NewBr(loop)

	totalPhi := loop.NewPhi(ir.NewIncoming(constI64(0), entry))
	bufPhi := loop.NewPhi(ir.NewIncoming(constant.NewNull(types.I8Ptr), entry))

	// %n is only written on a successful match; clear it so an empty line
	// reads as a zero-length chunk.
	loop.NewStore(constI32(0), nSlot)
	loop.NewCall(g.res.scanf, g.res.chunkFmt, chunkPtr, nSlot)
	n32 := loop.NewLoad(types.I32, nSlot)
	n := loop.NewSExt(n32, types.I64)

	newTotal := loop.NewAdd(totalPhi, n)
	newBuf := loop.NewCall(g.res.realloc, bufPhi, newTotal)
	dst := loop.NewGetElementPtr(types.I8, newBuf, totalPhi)
	loop.NewCall(g.res.memcpy, dst, chunkPtr, n)

	filled := loop.NewICmp(enum.IPredEQ, n, constI64(inputChunkSize))
	loop.NewCondBr(filled, loop, done)

	totalPhi.Incs = append(totalPhi.Incs, ir.NewIncoming(newTotal, loop))
	bufPhi.Incs = append(bufPhi.Incs, ir.NewIncoming(newBuf, loop))

	g.cur = done
	record := g.buildStrRecord(newBuf, newTotal)
	g.cur.NewRet(record)
	return nil
}

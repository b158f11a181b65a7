package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Conversion method names. Calls of int(x), float(x), str(x) and bool(x)
// are rewritten at lookup to these methods on the argument's owner type.
const (
	toStrFn   = "__str__"
	toBoolFn  = "__bool__"
	toIntFn   = "__int__"
	toFloatFn = "__float__"
)

// converterTargets maps a primitive-named callee to the conversion method it
// resolves to on the argument's type.
var converterTargets = map[string]string{
	"int":   toIntFn,
	"float": toFloatFn,
	"str":   toStrFn,
	"bool":  toBoolFn,
}

// resources holds the C functions and format-string globals the generated
// code leans on. They are declared once, before any builtin bodies.
type resources struct {
	printf   *ir.Func
	snprintf *ir.Func
	sscanf   *ir.Func
	scanf    *ir.Func
	malloc   *ir.Func
	free     *ir.Func
	realloc  *ir.Func
	memcpy   *ir.Func

	printFmt  constant.Constant // "%.*s\n", print adds the trailing newline
	promptFmt constant.Constant // "%.*s", input echoes the prompt verbatim
	chunkFmt  constant.Constant // "%127[^\n]%n", input's chunked scan
}

// setupResources declares the external C functions and the shared format
// strings.
func (g *Generator) setupResources() *resources {
	i8ptr := types.I8Ptr

	printf := g.module.NewFunc("printf", types.I32, ir.NewParam("", i8ptr))
	printf.Sig.Variadic = true

	snprintf := g.module.NewFunc("snprintf", types.I32,
		ir.NewParam("", i8ptr), ir.NewParam("", types.I64), ir.NewParam("", i8ptr))
	snprintf.Sig.Variadic = true

	sscanf := g.module.NewFunc("sscanf", types.I32,
		ir.NewParam("", i8ptr), ir.NewParam("", i8ptr))
	sscanf.Sig.Variadic = true

	scanf := g.module.NewFunc("scanf", types.I32, ir.NewParam("", i8ptr))
	scanf.Sig.Variadic = true

	malloc := g.module.NewFunc("malloc", i8ptr, ir.NewParam("", types.I64))
	free := g.module.NewFunc("free", types.Void, ir.NewParam("", i8ptr))
	realloc := g.module.NewFunc("realloc", i8ptr,
		ir.NewParam("", i8ptr), ir.NewParam("", types.I64))
	memcpy := g.module.NewFunc("memcpy", i8ptr,
		ir.NewParam("", i8ptr), ir.NewParam("", i8ptr), ir.NewParam("", types.I64))

	return &resources{
		printf:   printf,
		snprintf: snprintf,
		sscanf:   sscanf,
		scanf:    scanf,
		malloc:   malloc,
		free:     free,
		realloc:  realloc,
		memcpy:   memcpy,

		printFmt:  g.globalCString("print_string_format", "%.*s\n"),
		promptFmt: g.globalCString("prompt_string_format", "%.*s"),
		chunkFmt:  g.globalCString("input_chunk_format", "%127[^\n]%n"),
	}
}

// globalCString defines a NUL-terminated global string and returns a
// constant i8* to its first character.
func (g *Generator) globalCString(name, s string) constant.Constant {
	arr := constant.NewCharArrayFromString(s + "\x00")
	global := g.module.NewGlobalDef(name, arr)
	zero := constant.NewInt(types.I32, 0)
	return constant.NewGetElementPtr(arr.Typ, global, zero, zero)
}

// setupBuiltins declares the primitive types and emits their per-type
// functions. Declaration and setup are split into two passes so the setup
// bodies can reference every primitive type.
func (g *Generator) setupBuiltins() error {
	g.res = g.setupResources()

	if err := g.declareIntPrimitive(); err != nil {
		return err
	}
	if err := g.declareFloatPrimitive(); err != nil {
		return err
	}
	if err := g.declareBoolPrimitive(); err != nil {
		return err
	}
	if err := g.declareNonePrimitive(); err != nil {
		return err
	}
	if err := g.declareStrPrimitive(); err != nil {
		return err
	}

	if err := g.setupIntPrimitive(); err != nil {
		return err
	}
	if err := g.setupFloatPrimitive(); err != nil {
		return err
	}
	if err := g.setupBoolPrimitive(); err != nil {
		return err
	}
	if err := g.setupNonePrimitive(); err != nil {
		return err
	}
	if err := g.setupStrPrimitive(); err != nil {
		return err
	}

	return g.setupFunctions()
}

// declarePrimitive registers a primitive record type: the given value
// fields plus the trailing i64 reference counter, under a reserved id.
func (g *Generator) declarePrimitive(ident string, id TypeID, valueFields ...types.Type) error {
	st := g.newRecordStruct(ident, valueFields)
	if err := g.env.ReserveTypeID(id, true); err != nil {
		return err
	}
	return g.env.RegisterType(ident, id, NewPrimTypeDef(ident, st))
}

// newRecordStruct creates a named struct type whose fields are the value
// fields plus the unnamed trailing i64 reference counter.
func (g *Generator) newRecordStruct(ident string, valueFields []types.Type) *types.StructType {
	fields := make([]types.Type, 0, len(valueFields)+1)
	fields = append(fields, valueFields...)
	fields = append(fields, types.I64)
	st := types.NewStruct(fields...)
	g.module.NewTypeDef(ident, st)
	return st
}

// --- shared method builders ---

// createBinaryFn registers and emits a binary method on leftT. The body
// callback receives the two record pointers and returns the result record
// pointer. With shouldFree the emitted method frees both arguments on its
// return path; ownership of arguments always transfers to the callee.
func (g *Generator) createBinaryFn(ident string, leftT, rightT, retT TypeID, shouldFree bool,
	body func(left, right value.Value) (value.Value, error)) error {

	fn, _, err := g.env.CreateFunc(leftT, ident, []TypeID{leftT, rightT}, retT, false)
	if err != nil {
		return err
	}

	g.curFn = fn
	g.cur = fn.NewBlock("entry")

	left, right := fn.Params[0], fn.Params[1]
	result, err := body(left, right)
	if err != nil {
		return err
	}

	if shouldFree {
		if err := g.freePointer(left, leftT); err != nil {
			return err
		}
		if err := g.freePointer(right, rightT); err != nil {
			return err
		}
	}

	g.cur.NewRet(result)
	return nil
}

// createPrimitiveBinaryFn emits a binary method that extracts both primitive
// values, applies op, and wraps the result in a fresh record.
func (g *Generator) createPrimitiveBinaryFn(ident string, leftT, rightT, retT TypeID,
	op func(left, right value.Value) value.Value) error {

	leftDef := g.env.GetType(leftT)
	rightDef := g.env.GetType(rightT)
	retDef := g.env.GetType(retT)

	return g.createBinaryFn(ident, leftT, rightT, retT, true,
		func(left, right value.Value) (value.Value, error) {
			leftPrim := g.extractPrimitive(left, leftDef)
			rightPrim := g.extractPrimitive(right, rightDef)
			return g.buildRecord(retDef, op(leftPrim, rightPrim)), nil
		})
}

// createUnaryFn registers and emits a unary method on paramT.
func (g *Generator) createUnaryFn(ident string, paramT, retT TypeID, shouldFree bool,
	body func(fn *ir.Func, param value.Value) (value.Value, error)) error {

	fn, _, err := g.env.CreateFunc(paramT, ident, []TypeID{paramT}, retT, false)
	if err != nil {
		return err
	}

	g.curFn = fn
	g.cur = fn.NewBlock("entry")

	param := fn.Params[0]
	result, err := body(fn, param)
	if err != nil {
		return err
	}

	if shouldFree {
		if err := g.freePointer(param, paramT); err != nil {
			return err
		}
	}

	g.cur.NewRet(result)
	return nil
}

// createPrimitiveUnaryFn emits a unary method over the extracted primitive.
func (g *Generator) createPrimitiveUnaryFn(ident string, paramT, retT TypeID,
	op func(v value.Value) value.Value) error {

	paramDef := g.env.GetType(paramT)
	retDef := g.env.GetType(retT)

	return g.createUnaryFn(ident, paramT, retT, true,
		func(_ *ir.Func, param value.Value) (value.Value, error) {
			prim := g.extractPrimitive(param, paramDef)
			return g.buildRecord(retDef, op(prim)), nil
		})
}

// createPrimitiveToStrFn emits a __str__ conversion that formats the
// primitive with snprintf: a sizing call against a null buffer, a malloc of
// size+1, and the formatting call proper.
func (g *Generator) createPrimitiveToStrFn(typ TypeID, formatSpec string) error {
	def := g.env.GetType(typ)
	fmtPtr := g.globalCString(def.Ident()+"_format_specifier", formatSpec)

	return g.createUnaryFn(toStrFn, typ, StrID, true,
		func(_ *ir.Func, param value.Value) (value.Value, error) {
			prim := g.extractPrimitive(param, def)

			strSize := g.buildGetStringSize(fmtPtr, prim)
			cstrSize := g.cur.NewAdd(strSize, constI64(1))
			data := g.cur.NewCall(g.res.malloc, cstrSize)
			g.cur.NewCall(g.res.snprintf, data, cstrSize, fmtPtr, prim)

			return g.buildStrRecord(data, strSize), nil
		})
}

// buildGetStringSize asks snprintf for the formatted length of a primitive
// without writing anywhere.
func (g *Generator) buildGetStringSize(formatSpec constant.Constant, prim value.Value) value.Value {
	size32 := g.cur.NewCall(g.res.snprintf,
		constant.NewNull(types.I8Ptr), constI64(0), formatSpec, prim)
	return g.cur.NewSExt(size32, types.I64)
}

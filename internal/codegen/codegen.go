// Package codegen lowers the retic AST into an LLVM IR module.
//
// Every expression lowers to a (pointer, TypeID) pair; the pointer targets a
// heap record whose last field is an i64 reference count. The ownership
// discipline is documented on Generator.compileExpression.
package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/reticulated/retic/internal/ast"
)

// Names of the synthesized per-type reference counting routines.
const (
	freePtrIdent = "$freeptr"
	copyPtrIdent = "$copyptr"
)

// scriptFuncIdent is the synthetic function wrapping top-level statements.
const scriptFuncIdent = "$script"

// Generator owns all state of one compilation: the module, the environment,
// the C-function resources and the builder cursor. The cursor (cur) is the
// single point through which instructions are emitted; every helper
// positions it before emitting.
type Generator struct {
	module *ir.Module
	env    *Environment
	res    *resources

	curFn  *ir.Func  // function currently receiving blocks
	cur    *ir.Block // builder cursor
	nameID int       // uniquifier for block and slot names
}

// New creates a Generator with a fresh module.
func New() *Generator {
	module := ir.NewModule()
	return &Generator{
		module: module,
		env:    NewEnvironment(module),
	}
}

// Module returns the module under construction.
func (g *Generator) Module() *ir.Module {
	return g.module
}

// Compile lowers a program into the module and returns it.
//
// Compilation is two-phase: a pre-process pass declares every struct and
// function in the unit so forward references resolve, then the main pass
// emits bodies. Top-level statements are wrapped in the synthetic $script
// function; the generated main calls it, extracts the returned primitive
// int, frees the record, and returns the value as the process exit code.
func (g *Generator) Compile(program *ast.Program) (*ir.Module, error) {
	if err := g.setupBuiltins(); err != nil {
		return nil, fmt.Errorf("failed to set up builtins: %w", err)
	}

	if err := g.preprocess(program.Statements); err != nil {
		return nil, err
	}

	if err := g.compileScript(program.Statements); err != nil {
		return nil, err
	}

	if err := g.compileBodies(program.Statements); err != nil {
		return nil, err
	}

	g.compileMain()

	return g.module, nil
}

// preprocess declares every struct type, struct member and function in the
// unit. Struct types are declared before their field lists are resolved so
// structs may reference each other regardless of order.
func (g *Generator) preprocess(stmts []ast.Statement) error {
	for _, stmt := range stmts {
		if s, ok := stmt.(*ast.StructStatement); ok {
			if err := g.declareStructType(s); err != nil {
				return fmt.Errorf("failed to declare struct %q: %w", s.Name, err)
			}
		}
	}
	for _, stmt := range stmts {
		if s, ok := stmt.(*ast.StructStatement); ok {
			if err := g.defineStructFields(s); err != nil {
				return fmt.Errorf("failed to lay out struct %q: %w", s.Name, err)
			}
		}
	}
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.StructStatement:
			if err := g.declareStructFuncs(s); err != nil {
				return fmt.Errorf("failed to declare members of struct %q: %w", s.Name, err)
			}
		case *ast.FunctionDecl:
			if err := g.preprocessFn(s, NoOwner); err != nil {
				return fmt.Errorf("failed to declare function %q: %w", s.Name, err)
			}
		case *ast.ExternFunction:
			if err := g.declareExternFn(s); err != nil {
				return fmt.Errorf("failed to declare extern function %q: %w", s.Name, err)
			}
		}
	}
	return nil
}

// compileBodies emits the bodies declared by preprocess.
func (g *Generator) compileBodies(stmts []ast.Statement) error {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.StructStatement:
			if err := g.compileStructFuncs(s); err != nil {
				return fmt.Errorf("failed to compile members of struct %q: %w", s.Name, err)
			}
		case *ast.FunctionDecl:
			if err := g.compileFn(s, NoOwner); err != nil {
				return fmt.Errorf("failed to compile function %q: %w", s.Name, err)
			}
		}
	}
	return nil
}

// compileScript wraps the top-level statements in the $script function,
// which returns an int record. Falling off the end returns int 0.
func (g *Generator) compileScript(stmts []ast.Statement) error {
	fn, fnID, err := g.env.CreateFunc(NoOwner, scriptFuncIdent, nil, IntID, false)
	if err != nil {
		return err
	}

	g.curFn = fn
	g.cur = fn.NewBlock("entry")

	prevEnv := g.env.SetFuncEnv(NewFuncEnvironment(fnID, true))
	g.env.PushScope()

	for _, stmt := range stmts {
		switch stmt.(type) {
		case *ast.FunctionDecl, *ast.ExternFunction, *ast.StructStatement:
			// Declarations are handled by the preprocess and body passes.
			continue
		}
		if err := g.compileStatement(stmt); err != nil {
			g.env.PopScope()
			g.env.SetFuncEnv(prevEnv)
			return err
		}
		if g.env.CurrentScope().HasReturned() {
			break
		}
	}

	scope := g.env.PopScope()
	if g.cur.Term == nil {
		if err := g.freeScopeVars(scope); err != nil {
			g.env.SetFuncEnv(prevEnv)
			return err
		}
		zero := g.buildRecord(g.env.GetType(IntID), constI64(0))
		g.cur.NewRet(zero)
	}

	g.env.SetFuncEnv(prevEnv)
	return nil
}

// compileMain emits the compiler-provided entry point: it calls $script,
// extracts the returned primitive int, frees the record, and returns the
// extracted value as the program exit code.
func (g *Generator) compileMain() {
	main := g.module.NewFunc("main", types.I64)
	g.curFn = main
	g.cur = main.NewBlock("entry")

	scriptID, err := g.env.FindFunc(scriptFuncIdent, NoOwner, nil)
	if err != nil {
		// $script is created by compileScript before main is emitted.
		panic("codegen: script function missing")
	}
	ret, retType := g.callFunc(scriptID, nil)

	exitCode := g.extractPrimitive(ret, g.env.GetType(retType))
	if err := g.freePointer(ret, retType); err != nil {
		panic("codegen: int $freeptr missing")
	}
	g.cur.NewRet(exitCode)
}

// --- naming helpers ---

// name returns a module-unique name with the given prefix; emitted IR is
// deterministic because the counter only depends on compilation order.
func (g *Generator) name(prefix string) string {
	g.nameID++
	return fmt.Sprintf("%s.%d", prefix, g.nameID)
}

// newBlock appends a uniquely named block to the current function.
func (g *Generator) newBlock(prefix string) *ir.Block {
	return g.curFn.NewBlock(g.name(prefix))
}

// --- record construction and access ---

func constI64(v int64) constant.Constant { return constant.NewInt(types.I64, v) }
func constI32(v int64) constant.Constant { return constant.NewInt(types.I32, v) }

// sizeOf returns the byte size of a type as an i64 constant expression,
// computed with the usual gep-from-null idiom so no target data is needed.
func sizeOf(t types.Type) constant.Constant {
	null := constant.NewNull(types.NewPointer(t))
	end := constant.NewGetElementPtr(t, null, constant.NewInt(types.I32, 1))
	return constant.NewPtrToInt(end, types.I64)
}

// mallocRecord heap-allocates an uninitialized record of the given type.
func (g *Generator) mallocRecord(t *TypeDef) value.Value {
	raw := g.cur.NewCall(g.res.malloc, sizeOf(t.Struct()))
	return g.cur.NewBitCast(raw, t.Ptr())
}

// gepField returns a pointer to the idx'th struct field of a record.
func (g *Generator) gepField(t *TypeDef, recordPtr value.Value, idx int) value.Value {
	return g.cur.NewGetElementPtr(t.Struct(), recordPtr, constI32(0), constI32(int64(idx)))
}

// buildRecord allocates a record, stores the given value fields in order,
// and initializes the trailing reference count to 1.
func (g *Generator) buildRecord(t *TypeDef, values ...value.Value) value.Value {
	recordPtr := g.mallocRecord(t)
	for i, v := range values {
		g.cur.NewStore(v, g.gepField(t, recordPtr, i))
	}
	g.cur.NewStore(constI64(1), g.gepField(t, recordPtr, t.RefCountIndex()))
	return recordPtr
}

// extractPrimitive loads the first (value) field of a primitive record.
func (g *Generator) extractPrimitive(recordPtr value.Value, t *TypeDef) value.Value {
	fieldPtr := g.gepField(t, recordPtr, 0)
	return g.cur.NewLoad(t.Struct().Fields[0], fieldPtr)
}

// --- calls and reference counting ---

// callFunc emits a call to a registered function and returns the result
// pointer tagged with the function's return type.
func (g *Generator) callFunc(id FunctionID, args []value.Value) (value.Value, TypeID) {
	def := g.env.GetFunc(id)
	ret := g.cur.NewCall(def.Func, args...)
	return ret, def.Ret
}

// copyPointer calls the $copyptr routine of the pointee's type, which
// increments the reference count and returns the same pointer.
func (g *Generator) copyPointer(ptr value.Value, typ TypeID) (value.Value, error) {
	id, err := g.env.FindFunc(copyPtrIdent, typ, []TypeID{typ})
	if err != nil {
		return nil, err
	}
	ret, _ := g.callFunc(id, []value.Value{ptr})
	return ret, nil
}

// freePointer calls the $freeptr routine of the pointee's type, which
// decrements the reference count and deallocates on zero.
func (g *Generator) freePointer(ptr value.Value, typ TypeID) error {
	id, err := g.env.FindFunc(freePtrIdent, typ, []TypeID{typ})
	if err != nil {
		return err
	}
	g.callFunc(id, []value.Value{ptr})
	return nil
}

// freeScopeVars loads each binding's current pointer and frees it, in
// insertion order.
func (g *Generator) freeScopeVars(scope *Scope) error {
	for _, b := range scope.bindings {
		def := g.env.GetType(b.typ)
		ptr := g.cur.NewLoad(def.Ptr(), b.slot)
		if err := g.freePointer(ptr, b.typ); err != nil {
			return err
		}
	}
	return nil
}

// freeAllScopes walks the scope stack innermost to outermost, freeing every
// live binding. Used on return, before the terminator.
func (g *Generator) freeAllScopes() error {
	scopes := g.env.FuncEnv().Scopes
	for i := len(scopes) - 1; i >= 0; i-- {
		if err := g.freeScopeVars(scopes[i]); err != nil {
			return err
		}
	}
	return nil
}

// unallocFn is the type-specific deallocation subroutine run by $freeptr
// when the reference count reaches zero, before the record itself is freed.
type unallocFn func(g *Generator, recordPtr value.Value, typ TypeID) error

// primitiveUnalloc is the no-op subroutine used by scalar primitives.
func primitiveUnalloc(*Generator, value.Value, TypeID) error { return nil }

// declareFreePtrFn registers the $freeptr declaration for a type without
// emitting its body yet. Struct types declare all their refcount routines
// before any body is emitted so recursive field frees resolve.
func (g *Generator) declareFreePtrFn(typ TypeID) error {
	_, _, err := g.env.CreateFunc(typ, freePtrIdent, []TypeID{typ}, NoneID, false)
	return err
}

// declareCopyPtrFn registers the $copyptr declaration for a type.
func (g *Generator) declareCopyPtrFn(typ TypeID) error {
	_, _, err := g.env.CreateFunc(typ, copyPtrIdent, []TypeID{typ}, typ, false)
	return err
}

// buildFreePtrFn declares and emits the per-type $freeptr routine.
func (g *Generator) buildFreePtrFn(typ TypeID, unalloc unallocFn) error {
	if err := g.declareFreePtrFn(typ); err != nil {
		return err
	}
	return g.emitFreePtrBody(typ, unalloc)
}

// emitFreePtrBody emits the body of a declared $freeptr routine: decrement
// the refcount and, when it transitions to zero, run the type-specific
// unalloc subroutine and free the record.
func (g *Generator) emitFreePtrBody(typ TypeID, unalloc unallocFn) error {
	id, err := g.env.FindFunc(freePtrIdent, typ, []TypeID{typ})
	if err != nil {
		return err
	}
	fn := g.env.GetFunc(id).Func
	def := g.env.GetType(typ)
	noneNull := constant.NewNull(g.env.GetType(NoneID).Ptr())

	g.curFn = fn
	g.cur = fn.NewBlock("entry")
	ptr := fn.Params[0]

	rcPtr := g.gepField(def, ptr, def.RefCountIndex())
	rc := g.cur.NewLoad(types.I64, rcPtr)
	newRC := g.cur.NewSub(rc, constI64(1))
	g.cur.NewStore(newRC, rcPtr)
	isZero := g.cur.NewICmp(enum.IPredEQ, newRC, constI64(0))

	unallocBlock := fn.NewBlock("unalloc")
	contBlock := fn.NewBlock("continue")
	g.cur.NewCondBr(isZero, unallocBlock, contBlock)

	g.cur = unallocBlock
	if err := unalloc(g, ptr, typ); err != nil {
		return err
	}
	raw := g.cur.NewBitCast(ptr, types.I8Ptr)
	g.cur.NewCall(g.res.free, raw)
	g.cur.NewBr(contBlock)

	g.cur = contBlock
	g.cur.NewRet(noneNull)
	return nil
}

// buildCopyPtrFn declares and emits the per-type $copyptr routine.
func (g *Generator) buildCopyPtrFn(typ TypeID) error {
	if err := g.declareCopyPtrFn(typ); err != nil {
		return err
	}
	return g.emitCopyPtrBody(typ)
}

// emitCopyPtrBody emits the body of a declared $copyptr routine: increment
// the refcount of the pointee and return the same pointer.
func (g *Generator) emitCopyPtrBody(typ TypeID) error {
	id, err := g.env.FindFunc(copyPtrIdent, typ, []TypeID{typ})
	if err != nil {
		return err
	}
	fn := g.env.GetFunc(id).Func
	def := g.env.GetType(typ)

	g.curFn = fn
	g.cur = fn.NewBlock("entry")
	ptr := fn.Params[0]

	rcPtr := g.gepField(def, ptr, def.RefCountIndex())
	rc := g.cur.NewLoad(types.I64, rcPtr)
	g.cur.NewStore(g.cur.NewAdd(rc, constI64(1)), rcPtr)
	g.cur.NewRet(ptr)
	return nil
}

// buildNoopFreePtrFn synthesizes a $freeptr that does nothing; used by the
// none type, whose value is a null pointer.
func (g *Generator) buildNoopFreePtrFn(typ TypeID) error {
	fn, _, err := g.env.CreateFunc(typ, freePtrIdent, []TypeID{typ}, NoneID, false)
	if err != nil {
		return err
	}
	g.curFn = fn
	g.cur = fn.NewBlock("entry")
	g.cur.NewRet(constant.NewNull(g.env.GetType(NoneID).Ptr()))
	return nil
}

// buildNoopCopyPtrFn synthesizes a $copyptr that returns its argument
// untouched; used by the none type.
func (g *Generator) buildNoopCopyPtrFn(typ TypeID) error {
	fn, _, err := g.env.CreateFunc(typ, copyPtrIdent, []TypeID{typ}, typ, false)
	if err != nil {
		return err
	}
	g.curFn = fn
	g.cur = fn.NewBlock("entry")
	g.cur.NewRet(fn.Params[0])
	return nil
}

// buildNone produces the synthetic none value: a null pointer to the none
// record type.
func (g *Generator) buildNone() value.Value {
	return constant.NewNull(g.env.GetType(NoneID).Ptr())
}

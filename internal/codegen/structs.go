package codegen

import (
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/reticulated/retic/internal/ast"
)

// declareStructType registers a user type under a fresh id with an empty
// named struct, so structs can reference each other regardless of
// definition order. Field layout happens in defineStructFields.
func (g *Generator) declareStructType(s *ast.StructStatement) error {
	st := types.NewStruct()
	g.module.NewTypeDef(s.Name, st)

	id := g.env.GenTypeID()
	return g.env.RegisterType(s.Name, id, NewTypeDef(s.Name, st, nil))
}

// defineStructFields resolves the field types and lays the record out:
// one pointer slot per field, plus the trailing i64 reference counter.
func (g *Generator) defineStructFields(s *ast.StructStatement) error {
	id, err := g.env.FindType(s.Name)
	if err != nil {
		return err
	}
	def := g.env.GetType(id)

	fields := make([]Field, 0, len(s.Fields))
	llvmFields := make([]types.Type, 0, len(s.Fields)+1)
	for i, field := range s.Fields {
		fieldTyp, err := g.env.FindType(field.TypeName)
		if err != nil {
			return err
		}
		fields = append(fields, Field{Index: i, Name: field.Name, Type: fieldTyp})
		llvmFields = append(llvmFields, g.env.GetType(fieldTyp).Ptr())
	}
	llvmFields = append(llvmFields, types.I64)

	def.llvm.Fields = llvmFields
	def.fields = fields
	return nil
}

// declareStructFuncs declares the struct's reference counting routines, its
// constructor and its methods. The constructor is a free function named
// after the struct whose parameter list is the field types in order.
func (g *Generator) declareStructFuncs(s *ast.StructStatement) error {
	id, err := g.env.FindType(s.Name)
	if err != nil {
		return err
	}

	if err := g.declareFreePtrFn(id); err != nil {
		return err
	}
	if err := g.declareCopyPtrFn(id); err != nil {
		return err
	}

	fieldTypes := make([]TypeID, len(g.env.GetType(id).Fields()))
	for i, field := range g.env.GetType(id).Fields() {
		fieldTypes[i] = field.Type
	}
	if _, _, err := g.env.CreateFunc(NoOwner, s.Name, fieldTypes, id, false); err != nil {
		return err
	}

	for _, method := range s.Methods {
		if !method.TakesSelf {
			return newError(ErrInvalidFunctionDefinition,
				"method %q of struct %q must take 'self' as the first parameter", method.Name, s.Name)
		}
		if err := g.preprocessFn(method, id); err != nil {
			return err
		}
	}
	return nil
}

// compileStructFuncs emits the struct's reference counting bodies, its
// constructor and its method bodies.
func (g *Generator) compileStructFuncs(s *ast.StructStatement) error {
	id, err := g.env.FindType(s.Name)
	if err != nil {
		return err
	}

	if err := g.emitFreePtrBody(id, structUnalloc); err != nil {
		return err
	}
	if err := g.emitCopyPtrBody(id); err != nil {
		return err
	}
	if err := g.compileConstructor(s, id); err != nil {
		return err
	}

	for _, method := range s.Methods {
		if err := g.compileFn(method, id); err != nil {
			return err
		}
	}
	return nil
}

// compileConstructor emits the synthesized constructor: it builds a record
// whose field slots take ownership of the argument pointers.
func (g *Generator) compileConstructor(s *ast.StructStatement, id TypeID) error {
	def := g.env.GetType(id)
	fieldTypes := make([]TypeID, len(def.Fields()))
	for i, field := range def.Fields() {
		fieldTypes[i] = field.Type
	}

	fnID, err := g.env.FindFunc(s.Name, NoOwner, fieldTypes)
	if err != nil {
		return err
	}
	fn := g.env.GetFunc(fnID).Func

	g.curFn = fn
	g.cur = fn.NewBlock("entry")

	args := make([]value.Value, len(fn.Params))
	for i, param := range fn.Params {
		args[i] = param
	}
	record := g.buildRecord(def, args...)
	g.cur.NewRet(record)
	return nil
}

// structUnalloc recursively releases every field pointer before the record
// itself is freed.
func structUnalloc(g *Generator, recordPtr value.Value, typ TypeID) error {
	def := g.env.GetType(typ)
	for _, field := range def.Fields() {
		slotPtr := g.gepField(def, recordPtr, field.Index)
		fieldPtr := g.cur.NewLoad(g.env.GetType(field.Type).Ptr(), slotPtr)
		if err := g.freePointer(fieldPtr, field.Type); err != nil {
			return err
		}
	}
	return nil
}

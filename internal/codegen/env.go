package codegen

import (
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// TypeID is an opaque, totally ordered, interned handle for a registered
// type. IDs are never reused.
type TypeID uint64

// Reserved ids for the primitive types.
const (
	NoneID  TypeID = 0
	IntID   TypeID = 1
	FloatID TypeID = 2
	BoolID  TypeID = 3
	StrID   TypeID = 4
)

// NoOwner marks a free function lookup or registration, as opposed to a
// method owned by a type.
const NoOwner TypeID = ^TypeID(0)

// FunctionID is an opaque handle for a registered function.
type FunctionID uint64

// Field is one named slot of a user-defined record.
type Field struct {
	Index int
	Name  string
	Type  TypeID
}

// TypeDef describes a registered type: its identifier, its LLVM struct
// (value fields plus the trailing i64 reference counter) and its ordered
// named fields. Primitive types have no named fields.
type TypeDef struct {
	ident  string
	llvm   *types.StructType
	fields []Field
}

// NewTypeDef creates a type definition with named fields.
func NewTypeDef(ident string, llvm *types.StructType, fields []Field) *TypeDef {
	return &TypeDef{ident: ident, llvm: llvm, fields: fields}
}

// NewPrimTypeDef creates a type definition without named fields.
func NewPrimTypeDef(ident string, llvm *types.StructType) *TypeDef {
	return &TypeDef{ident: ident, llvm: llvm}
}

// Ident returns the type's source-language identifier.
func (t *TypeDef) Ident() string { return t.ident }

// Struct returns the LLVM struct type of the record.
func (t *TypeDef) Struct() *types.StructType { return t.llvm }

// Ptr returns the pointer-to-record type.
func (t *TypeDef) Ptr() *types.PointerType { return types.NewPointer(t.llvm) }

// Fields returns the ordered named fields.
func (t *TypeDef) Fields() []Field { return t.fields }

// FieldByName looks up a named field.
func (t *TypeDef) FieldByName(name string) (Field, bool) {
	for _, f := range t.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RefCountIndex returns the struct index of the trailing reference counter,
// which is always the last struct field.
func (t *TypeDef) RefCountIndex() int {
	return len(t.llvm.Fields) - 1
}

// FuncDef describes a registered function: its mangled name, its LLVM
// function, its parameter types and its return type.
type FuncDef struct {
	Mangled string
	Func    *ir.Func
	Params  []TypeID
	Ret     TypeID
}

// binding is one variable in a scope: a stack slot holding a record pointer
// plus the record's type.
type binding struct {
	name string
	slot value.Value
	typ  TypeID
}

// Scope is a compile-time record of the variables in flight in a lexical
// block. Bindings keep insertion order so scope-exit cleanup is emitted
// deterministically. The hasReturned flag suppresses cleanup once a
// terminator has been emitted for this scope.
type Scope struct {
	bindings    []binding
	index       map[string]int
	hasReturned bool
}

func newScope() *Scope {
	return &Scope{index: make(map[string]int)}
}

// SetReturned marks the scope as having executed a return.
func (s *Scope) SetReturned() { s.hasReturned = true }

// HasReturned reports whether a return has been emitted in this scope.
func (s *Scope) HasReturned() bool { return s.hasReturned }

// FuncEnvironment tracks the function currently being compiled: its id,
// whether it is the synthesized script function, and its stack of scopes.
type FuncEnvironment struct {
	FnID     FunctionID
	IsScript bool
	Scopes   []*Scope
}

// NewFuncEnvironment creates an empty function environment.
func NewFuncEnvironment(fnID FunctionID, isScript bool) *FuncEnvironment {
	return &FuncEnvironment{FnID: fnID, IsScript: isScript}
}

// Environment is the compile-time symbol table: the LLVM module, the current
// function environment, the interning maps for type and function ids, and
// the definition storage they point into.
type Environment struct {
	module *ir.Module
	fn     *FuncEnvironment

	nextTypeID TypeID
	typeIDs    map[string]TypeID
	typeDefs   map[TypeID]*TypeDef

	nextFnID FunctionID
	fnIDs    map[string]FunctionID
	fnDefs   map[FunctionID]*FuncDef
}

// NewEnvironment creates an empty environment owning the given module.
func NewEnvironment(module *ir.Module) *Environment {
	return &Environment{
		module:     module,
		nextTypeID: 1,
		typeIDs:    make(map[string]TypeID),
		typeDefs:   make(map[TypeID]*TypeDef),
		nextFnID:   1,
		fnIDs:      make(map[string]FunctionID),
		fnDefs:     make(map[FunctionID]*FuncDef),
	}
}

// Module returns the LLVM module under construction.
func (e *Environment) Module() *ir.Module { return e.module }

// --- type registry ---

// GenTypeID mints the next fresh type id.
func (e *Environment) GenTypeID() TypeID {
	id := e.nextTypeID
	e.nextTypeID++
	return id
}

// ReserveTypeID installs a specific reserved id (used for primitives). With
// force false the call fails if the id has already been passed.
func (e *Environment) ReserveTypeID(id TypeID, force bool) error {
	if !force && e.nextTypeID > id {
		return newError(ErrIdentConflict, "type id %d already allocated", id)
	}
	e.nextTypeID = id + 1
	return nil
}

// RegisterType binds an identifier to a type id and stores its definition.
// Every registered type has exactly one TypeDef and one unique ident.
func (e *Environment) RegisterType(ident string, id TypeID, def *TypeDef) error {
	if _, exists := e.typeIDs[ident]; exists {
		return newError(ErrIdentConflict, "type %q is already defined", ident)
	}
	e.typeIDs[ident] = id
	e.typeDefs[id] = def
	return nil
}

// FindType resolves a type identifier to its id.
func (e *Environment) FindType(ident string) (TypeID, error) {
	id, ok := e.typeIDs[ident]
	if !ok {
		return 0, newError(ErrTypeNotFound, "unknown type %q", ident)
	}
	return id, nil
}

// GetType returns the definition of a registered type id.
func (e *Environment) GetType(id TypeID) *TypeDef {
	return e.typeDefs[id]
}

// TypeIdent returns the identifier of a registered type id.
func (e *Environment) TypeIdent(id TypeID) string {
	return e.typeDefs[id].ident
}

// --- function registry ---

// MangleName builds the collision-free registry key
// `[Owner.]Name-(Param1.Param2).` for a function.
func (e *Environment) MangleName(ident string, owner TypeID, params []TypeID) string {
	var sb strings.Builder
	if owner != NoOwner {
		sb.WriteString(e.TypeIdent(owner))
		sb.WriteString(".")
	}
	sb.WriteString(ident)
	sb.WriteString("-(")
	for i, p := range params {
		if i > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(e.TypeIdent(p))
	}
	sb.WriteString(").")
	return sb.String()
}

// CreateFunc registers a new function: it mangles the name, adds the LLVM
// declaration to the module and records the metadata. An owner-bearing
// method must declare its owning type as the first parameter.
func (e *Environment) CreateFunc(owner TypeID, ident string, params []TypeID, ret TypeID, variadic bool) (*ir.Func, FunctionID, error) {
	if owner != NoOwner {
		if len(params) == 0 || params[0] != owner {
			return nil, 0, newError(ErrInvalidFunctionDefinition,
				"method %q must take its owner type %q as the first parameter", ident, e.TypeIdent(owner))
		}
	}

	mangled := e.MangleName(ident, owner, params)
	if _, exists := e.fnIDs[mangled]; exists {
		return nil, 0, newError(ErrIdentConflict, "function %q is already defined", mangled)
	}

	irParams := make([]*ir.Param, len(params))
	for i, p := range params {
		irParams[i] = ir.NewParam("", e.GetType(p).Ptr())
	}
	fn := e.module.NewFunc(mangled, e.GetType(ret).Ptr(), irParams...)
	fn.Sig.Variadic = variadic

	id := e.nextFnID
	e.nextFnID++
	e.fnIDs[mangled] = id
	e.fnDefs[id] = &FuncDef{Mangled: mangled, Func: fn, Params: params, Ret: ret}

	return fn, id, nil
}

// CreateExternFunc registers a function implemented outside the module. The
// registry key is mangled like any other function, but the LLVM symbol keeps
// the plain identifier so the external definition links against it. Extern
// functions have no owner and no body.
func (e *Environment) CreateExternFunc(ident string, params []TypeID, ret TypeID, variadic bool) (*ir.Func, FunctionID, error) {
	mangled := e.MangleName(ident, NoOwner, params)
	if _, exists := e.fnIDs[mangled]; exists {
		return nil, 0, newError(ErrIdentConflict, "function %q is already defined", mangled)
	}

	irParams := make([]*ir.Param, len(params))
	for i, p := range params {
		irParams[i] = ir.NewParam("", e.GetType(p).Ptr())
	}
	fn := e.module.NewFunc(ident, e.GetType(ret).Ptr(), irParams...)
	fn.Sig.Variadic = variadic

	id := e.nextFnID
	e.nextFnID++
	e.fnIDs[mangled] = id
	e.fnDefs[id] = &FuncDef{Mangled: mangled, Func: fn, Params: params, Ret: ret}

	return fn, id, nil
}

// FindFunc resolves a function by owner, name and parameter types.
func (e *Environment) FindFunc(ident string, owner TypeID, params []TypeID) (FunctionID, error) {
	mangled := e.MangleName(ident, owner, params)
	id, ok := e.fnIDs[mangled]
	if !ok {
		return 0, newError(ErrFunctionNotFound, "no function matching %q", mangled)
	}
	return id, nil
}

// GetFunc returns the definition of a registered function id.
func (e *Environment) GetFunc(id FunctionID) *FuncDef {
	return e.fnDefs[id]
}

// --- function environment and variable scopes ---

// FuncEnv returns the environment of the function currently being compiled.
func (e *Environment) FuncEnv() *FuncEnvironment { return e.fn }

// SetFuncEnv replaces the current function environment and returns the
// previous one, so nested compilations can restore it.
func (e *Environment) SetFuncEnv(fn *FuncEnvironment) *FuncEnvironment {
	prev := e.fn
	e.fn = fn
	return prev
}

// PushScope opens a new innermost variable scope.
func (e *Environment) PushScope() {
	e.fn.Scopes = append(e.fn.Scopes, newScope())
}

// PopScope closes and returns the innermost scope.
func (e *Environment) PopScope() *Scope {
	last := len(e.fn.Scopes) - 1
	scope := e.fn.Scopes[last]
	e.fn.Scopes = e.fn.Scopes[:last]
	return scope
}

// CurrentScope returns the innermost scope.
func (e *Environment) CurrentScope() *Scope {
	return e.fn.Scopes[len(e.fn.Scopes)-1]
}

// InsertVar binds a new name in the innermost scope. Within one scope,
// name to slot is unique; rebinding replaces the slot.
func (e *Environment) InsertVar(name string, slot value.Value, typ TypeID) {
	scope := e.CurrentScope()
	if i, exists := scope.index[name]; exists {
		scope.bindings[i] = binding{name: name, slot: slot, typ: typ}
		return
	}
	scope.index[name] = len(scope.bindings)
	scope.bindings = append(scope.bindings, binding{name: name, slot: slot, typ: typ})
}

// GetVar looks a name up, walking scopes innermost to outermost.
func (e *Environment) GetVar(name string) (value.Value, TypeID, error) {
	for i := len(e.fn.Scopes) - 1; i >= 0; i-- {
		scope := e.fn.Scopes[i]
		if idx, ok := scope.index[name]; ok {
			b := scope.bindings[idx]
			return b.slot, b.typ, nil
		}
	}
	return nil, 0, newError(ErrVariableNotFound, "variable %q not found", name)
}

package codegen

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

func testEnv(t *testing.T) *Environment {
	t.Helper()
	module := ir.NewModule()
	env := NewEnvironment(module)

	prims := []struct {
		ident string
		id    TypeID
	}{
		{"None", NoneID},
		{"int", IntID},
		{"float", FloatID},
		{"bool", BoolID},
		{"str", StrID},
	}
	for _, p := range prims {
		st := types.NewStruct(types.I64)
		if err := env.ReserveTypeID(p.id, true); err != nil {
			t.Fatalf("reserve %s: %v", p.ident, err)
		}
		if err := env.RegisterType(p.ident, p.id, NewPrimTypeDef(p.ident, st)); err != nil {
			t.Fatalf("register %s: %v", p.ident, err)
		}
	}
	return env
}

func TestMangleName(t *testing.T) {
	env := testEnv(t)

	tests := []struct {
		ident    string
		owner    TypeID
		params   []TypeID
		expected string
	}{
		{"__add__", IntID, []TypeID{IntID, IntID}, "int.__add__-(int.int)."},
		{"$freeptr", StrID, []TypeID{StrID}, "str.$freeptr-(str)."},
		{"print", NoOwner, []TypeID{StrID}, "print-(str)."},
		{"$script", NoOwner, nil, "$script-()."},
	}

	for _, tt := range tests {
		if got := env.MangleName(tt.ident, tt.owner, tt.params); got != tt.expected {
			t.Errorf("MangleName(%q) = %q, want %q", tt.ident, got, tt.expected)
		}
	}
}

func TestTypeIDInterning(t *testing.T) {
	env := testEnv(t)

	id, err := env.FindType("int")
	if err != nil || id != IntID {
		t.Fatalf("FindType(int) = (%v, %v), want (%v, nil)", id, err, IntID)
	}

	if _, err := env.FindType("missing"); err == nil {
		t.Fatalf("expected TypeNotFound for unknown type")
	} else if kind, ok := KindOf(err); !ok || kind != ErrTypeNotFound {
		t.Fatalf("wrong error kind: %v", err)
	}

	// Fresh ids are minted past the reserved primitives and never reused.
	first := env.GenTypeID()
	second := env.GenTypeID()
	if first <= StrID || second != first+1 {
		t.Fatalf("fresh ids wrong: %d then %d", first, second)
	}

	// Duplicate registration is a conflict.
	err = env.RegisterType("int", env.GenTypeID(), NewPrimTypeDef("int", types.NewStruct(types.I64)))
	if kind, ok := KindOf(err); !ok || kind != ErrIdentConflict {
		t.Fatalf("expected IdentConflict, got %v", err)
	}
}

func TestCreateAndFindFunc(t *testing.T) {
	env := testEnv(t)

	fn, id, err := env.CreateFunc(IntID, "__add__", []TypeID{IntID, IntID}, IntID, false)
	if err != nil {
		t.Fatalf("CreateFunc: %v", err)
	}
	if fn == nil {
		t.Fatalf("CreateFunc returned nil function")
	}

	found, err := env.FindFunc("__add__", IntID, []TypeID{IntID, IntID})
	if err != nil || found != id {
		t.Fatalf("FindFunc = (%v, %v), want (%v, nil)", found, err, id)
	}

	def := env.GetFunc(id)
	if def.Mangled != "int.__add__-(int.int)." || def.Ret != IntID || len(def.Params) != 2 {
		t.Fatalf("unexpected FuncDef: %+v", def)
	}

	// Same name with different parameter types is a distinct function.
	if _, err := env.FindFunc("__add__", IntID, []TypeID{IntID, FloatID}); err == nil {
		t.Fatalf("lookup with different params should miss")
	}
}

func TestMethodMustTakeOwnerFirst(t *testing.T) {
	env := testEnv(t)

	_, _, err := env.CreateFunc(IntID, "broken", []TypeID{FloatID}, IntID, false)
	if kind, ok := KindOf(err); !ok || kind != ErrInvalidFunctionDefinition {
		t.Fatalf("expected InvalidFunctionDefinition, got %v", err)
	}

	_, _, err = env.CreateFunc(IntID, "broken", nil, IntID, false)
	if kind, ok := KindOf(err); !ok || kind != ErrInvalidFunctionDefinition {
		t.Fatalf("expected InvalidFunctionDefinition for empty params, got %v", err)
	}
}

func TestScopes(t *testing.T) {
	env := testEnv(t)
	env.SetFuncEnv(NewFuncEnvironment(0, true))

	slotOuter := ir.NewParam("outer", types.I8Ptr)
	slotInner := ir.NewParam("inner", types.I8Ptr)

	env.PushScope()
	env.InsertVar("x", slotOuter, IntID)

	env.PushScope()
	if _, typ, err := env.GetVar("x"); err != nil || typ != IntID {
		t.Fatalf("inner lookup of outer binding failed: %v", err)
	}

	// Shadowing binds in the innermost scope only.
	env.InsertVar("x", slotInner, StrID)
	if slot, typ, _ := env.GetVar("x"); slot != slotInner || typ != StrID {
		t.Fatalf("shadowed lookup returned outer binding")
	}

	scope := env.PopScope()
	if len(scope.bindings) != 1 {
		t.Fatalf("popped scope has %d bindings, want 1", len(scope.bindings))
	}
	if slot, typ, _ := env.GetVar("x"); slot != slotOuter || typ != IntID {
		t.Fatalf("outer binding lost after pop")
	}

	if _, _, err := env.GetVar("missing"); err == nil {
		t.Fatalf("expected VariableNotFound")
	} else if kind, ok := KindOf(err); !ok || kind != ErrVariableNotFound {
		t.Fatalf("wrong error kind: %v", err)
	}
}

func TestScopeBindingOrderIsStable(t *testing.T) {
	env := testEnv(t)
	env.SetFuncEnv(NewFuncEnvironment(0, true))
	env.PushScope()

	names := []string{"d", "a", "c", "b"}
	for _, name := range names {
		env.InsertVar(name, ir.NewParam(name, types.I8Ptr), IntID)
	}

	scope := env.PopScope()
	for i, b := range scope.bindings {
		if b.name != names[i] {
			t.Fatalf("binding[%d] = %q, want %q (insertion order must be kept)", i, b.name, names[i])
		}
	}
}

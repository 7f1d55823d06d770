package compiler

import (
	"testing"
)

func TestSymbolTableScopes(t *testing.T) {
	tab := NewSymbolTable()

	outer, ok := tab.Define("x", SymVariable, TyLong, Span{})
	if !ok {
		t.Fatal("fresh name reported duplicate")
	}

	proc := tab.EnterScope()
	inner, ok := tab.Define("x", SymVariable, TyString, Span{})
	if !ok {
		t.Fatal("shadowing in a nested scope reported duplicate")
	}

	// Inner scope sees the inner symbol.
	id, found := tab.Lookup("x")
	if !found || id != inner {
		t.Errorf("inner lookup got %v", id)
	}

	tab.ExitScope()
	id, found = tab.Lookup("x")
	if !found || id != outer {
		t.Errorf("outer lookup got %v", id)
	}

	// Explicit scope lookup still reaches the inner chain.
	id, found = tab.LookupIn(proc, "x")
	if !found || id != inner {
		t.Errorf("LookupIn got %v", id)
	}
}

func TestSymbolTableCaseInsensitive(t *testing.T) {
	tab := NewSymbolTable()
	want, _ := tab.Define("Counter", SymVariable, TyLong, Span{})
	id, found := tab.Lookup("COUNTER")
	if !found || id != want {
		t.Error("case-insensitive lookup failed")
	}
	if _, ok := tab.Define("counter", SymVariable, TyLong, Span{}); ok {
		t.Error("case-variant redefinition not reported")
	}
}

func TestSymbolTableDuplicateKeepsFirst(t *testing.T) {
	tab := NewSymbolTable()
	first, _ := tab.Define("n", SymVariable, TyInteger, Span{})
	second, ok := tab.Define("n", SymVariable, TyString, Span{})
	if ok {
		t.Fatal("duplicate not reported")
	}
	if second != first {
		t.Errorf("duplicate returned %v, want the surviving %v", second, first)
	}
	id, _ := tab.Lookup("n")
	if tab.Sym(id).Type.Kind != KindInteger {
		t.Error("first declaration did not win")
	}
}

func TestSymbolTableChainedLookup(t *testing.T) {
	tab := NewSymbolTable()
	tab.Define("g", SymVariable, TyLong, Span{})
	tab.EnterScope()
	tab.EnterScope()
	if _, found := tab.Lookup("g"); !found {
		t.Error("module symbol invisible from a doubly nested scope")
	}
	if _, found := tab.Lookup("absent"); found {
		t.Error("phantom lookup")
	}
}

func TestModuleSymbols(t *testing.T) {
	tab := NewSymbolTable()
	tab.Define("a", SymVariable, TyLong, Span{})
	tab.Define("B", SymProcedure, nil, Span{})
	tab.EnterScope()
	tab.Define("local", SymVariable, TyLong, Span{})
	tab.ExitScope()

	ids := tab.ModuleSymbols()
	if len(ids) != 2 {
		t.Fatalf("got %d module symbols, want 2", len(ids))
	}
	for _, id := range ids {
		if tab.Sym(id).Name == "local" {
			t.Error("nested symbol leaked into the module list")
		}
	}
}

func TestSymNilSafety(t *testing.T) {
	tab := NewSymbolTable()
	if tab.Sym(NoSym) != nil {
		t.Error("NoSym should resolve to nil")
	}
	if tab.Sym(SymID(999)) != nil {
		t.Error("out-of-range id should resolve to nil")
	}
}

package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// SymID indexes into the symbol arena. Identifier nodes hold a SymID rather
// than a pointer, so annotated trees stay index-based and trivially copyable.
type SymID int

// NoSym marks an unresolved identifier reference.
const NoSym SymID = -1

// ScopeID indexes into the scope arena.
type ScopeID int

// SymbolKind classifies symbol table entries.
type SymbolKind int

const (
	SymVariable SymbolKind = iota
	SymConstant
	SymType
	SymProcedure
)

func (k SymbolKind) String() string {
	switch k {
	case SymVariable:
		return "variable"
	case SymConstant:
		return "constant"
	case SymType:
		return "type"
	default:
		return "procedure"
	}
}

// Symbol is one entry in the arena.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Type  *Type
	Scope ScopeID
	Decl  Span // declaration site

	// Procedure metadata, used by the declaration-validation pass.
	Proc   *ProcDecl
	Extern *ExternDecl
	Class  *ClassDecl

	// ConstValue holds a folded literal for constants (int64, float64,
	// string, or bool), enabling the dead-code pass to spot constant-false
	// branches.
	ConstValue any

	// Refs counts reachable references, filled by the dead-code pass.
	Refs int
}

// scope is one lookup context. Scopes nest module → procedure → block and
// form a chain searched innermost-first.
type scope struct {
	parent ScopeID // -1 for the module scope
	names  map[string]SymID
}

// SymbolTable is an arena-allocated store of scopes and symbols. Lookups are
// index chases rather than pointer chains. Names are case-insensitively
// unique within one scope.
type SymbolTable struct {
	scopes  []scope
	symbols []Symbol
	current ScopeID
}

// NewSymbolTable creates a table holding only the module scope.
func NewSymbolTable() *SymbolTable {
	t := &SymbolTable{}
	t.scopes = append(t.scopes, scope{parent: -1, names: map[string]SymID{}})
	t.current = 0
	return t
}

// EnterScope pushes a nested scope and makes it current.
func (t *SymbolTable) EnterScope() ScopeID {
	id := ScopeID(len(t.scopes))
	t.scopes = append(t.scopes, scope{parent: t.current, names: map[string]SymID{}})
	t.current = id
	return id
}

// ExitScope pops back to the parent scope. The scope itself stays in the
// arena so annotations remain valid.
func (t *SymbolTable) ExitScope() {
	if t.current != 0 {
		t.current = t.scopes[t.current].parent
	}
}

// Current returns the current scope id.
func (t *SymbolTable) Current() ScopeID { return t.current }

// Define registers a symbol in the current scope. If the name already exists
// there (case-insensitively) the FIRST binding stays authoritative and the
// existing id is returned with ok == false; the caller reports the duplicate.
func (t *SymbolTable) Define(name string, kind SymbolKind, typ *Type, decl Span) (SymID, bool) {
	key := strings.ToLower(name)
	sc := &t.scopes[t.current]
	if existing, dup := sc.names[key]; dup {
		return existing, false
	}
	id := SymID(len(t.symbols))
	t.symbols = append(t.symbols, Symbol{
		Name:  name,
		Kind:  kind,
		Type:  typ,
		Scope: t.current,
		Decl:  decl,
	})
	sc.names[key] = id
	return id, true
}

// Lookup walks the scope chain innermost-to-outermost.
func (t *SymbolTable) Lookup(name string) (SymID, bool) {
	key := strings.ToLower(name)
	for sc := t.current; sc >= 0; sc = t.scopes[sc].parent {
		if id, ok := t.scopes[sc].names[key]; ok {
			return id, true
		}
	}
	return NoSym, false
}

// LookupIn walks the chain starting from an explicit scope.
func (t *SymbolTable) LookupIn(from ScopeID, name string) (SymID, bool) {
	key := strings.ToLower(name)
	for sc := from; sc >= 0; sc = t.scopes[sc].parent {
		if id, ok := t.scopes[sc].names[key]; ok {
			return id, true
		}
	}
	return NoSym, false
}

// Sym returns the arena entry for id. The pointer is valid for the table's
// lifetime; the arena only grows.
func (t *SymbolTable) Sym(id SymID) *Symbol {
	if id < 0 || int(id) >= len(t.symbols) {
		return nil
	}
	return &t.symbols[id]
}

// ModuleSymbols returns the ids defined in the module scope, name-sorted for
// deterministic iteration.
func (t *SymbolTable) ModuleSymbols() []SymID {
	var ids []SymID
	for _, id := range t.scopes[0].names {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return t.symbols[ids[i]].Name < t.symbols[ids[j]].Name
	})
	return ids
}

// String returns a deterministically ordered dump of the module scope,
// useful in tests and the CLI's verbose mode.
func (t *SymbolTable) String() string {
	var sb strings.Builder
	sb.WriteString("Module scope:\n")
	for _, id := range t.ModuleSymbols() {
		sym := t.symbols[id]
		fmt.Fprintf(&sb, "  %-20s %-10s %s (declared %s)\n", sym.Name, sym.Kind, sym.Type, sym.Decl)
	}
	return sb.String()
}

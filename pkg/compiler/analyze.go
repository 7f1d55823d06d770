package compiler

import (
	"math"
	"strconv"
	"strings"
)

// Analyze runs the six semantic passes over mod, annotating the tree in
// place, and returns the populated symbol table plus all diagnostics. Each
// pass walks the whole tree before the next begins; no pass aborts on a bad
// node, it records a diagnostic and substitutes a safe default so later
// passes still see a well-formed tree.
func Analyze(mod *Module) (*SymbolTable, []Diagnostic) {
	a := &analyzer{
		mod:       mod,
		table:     NewSymbolTable(),
		procScope: map[*ProcDecl]ScopeID{},
		classOf:   map[*ProcDecl]*ClassDecl{},
	}
	a.collectSymbols()
	a.resolveAndBind()
	a.checkTypes()
	a.analyzeFlow()
	a.detectDeadCode()
	a.validateDecls()
	SortDiagnostics(a.diag.list)
	return a.table, a.diag.list
}

type analyzer struct {
	mod   *Module
	table *SymbolTable
	diag  diagBag

	procScope map[*ProcDecl]ScopeID
	classOf   map[*ProcDecl]*ClassDecl

	// withTypes is the receiver-type stack maintained while binding the
	// bodies of nested With blocks.
	withTypes []*Type
}

// defineIn registers a symbol in an explicit scope, leaving the table's
// current scope untouched.
func (a *analyzer) defineIn(sc ScopeID, name string, kind SymbolKind, typ *Type, decl Span) (SymID, bool) {
	saved := a.table.current
	a.table.current = sc
	id, ok := a.table.Define(name, kind, typ, decl)
	a.table.current = saved
	return id, ok
}

//  Pass 1: symbol table construction

func (a *analyzer) collectSymbols() {
	t := a.table

	for _, d := range a.mod.Decls {
		switch d := d.(type) {
		case *VarDecl:
			a.defineVar(0, d)
		case *ConstDecl:
			a.defineConst(0, d)
		case *TypeDecl:
			shell := &Type{Kind: KindRecord, Name: d.Name}
			d.Sym = a.defineUnique(0, d.Name, SymType, shell, d.Loc)
		case *EnumDecl:
			shell := &Type{Kind: KindEnum, Name: d.Name}
			d.Sym = a.defineUnique(0, d.Name, SymType, shell, d.Loc)
			for i := range d.Members {
				m := &d.Members[i]
				m.Sym = a.defineUnique(0, m.Name, SymConstant, shell, m.Loc)
			}
		case *ExternDecl:
			d.Sym = a.defineUnique(0, d.Name, SymProcedure, nil, d.Loc)
			if sym := t.Sym(d.Sym); sym != nil && sym.Extern == nil {
				sym.Extern = d
			}
		case *ClassDecl:
			a.collectClass(d)
		case *ProcDecl:
			a.collectProc(0, d)
		}
	}
	for _, p := range a.mod.Procs {
		a.collectProc(0, p)
	}
	// Script-style module statements may carry declarations in nested
	// blocks; hoist them into the module scope.
	a.hoistLocals(0, a.mod.Stmts)
}

func (a *analyzer) defineVar(sc ScopeID, d *VarDecl) {
	d.Sym = a.defineUnique(sc, d.Name, SymVariable, nil, d.Loc)
}

func (a *analyzer) defineConst(sc ScopeID, d *ConstDecl) {
	d.Sym = a.defineUnique(sc, d.Name, SymConstant, nil, d.Loc)
}

// defineUnique registers name, reporting W001 on a duplicate. The first
// binding stays authoritative either way.
func (a *analyzer) defineUnique(sc ScopeID, name string, kind SymbolKind, typ *Type, loc Span) SymID {
	id, ok := a.defineIn(sc, name, kind, typ, loc)
	if !ok {
		a.diag.warnf(CodeDuplicateDecl, loc,
			"%q is already declared in this scope; the first declaration wins", name)
	}
	return id
}

func (a *analyzer) collectClass(d *ClassDecl) {
	shell := &Type{Kind: KindClass, Name: d.Name}
	d.Sym = a.defineUnique(0, d.Name, SymType, shell, d.Loc)
	if sym := a.table.Sym(d.Sym); sym != nil && sym.Class == nil {
		sym.Class = d
	}

	saved := a.table.current
	a.table.current = 0
	classScope := a.table.EnterScope()
	a.table.current = saved

	// Me resolves to the instance inside every method body.
	a.defineIn(classScope, "Me", SymVariable, shell, d.Loc)
	for _, v := range d.Vars {
		a.defineVar(classScope, v)
	}
	for _, p := range d.Procs {
		a.classOf[p] = d
		a.collectProc(classScope, p)
	}
}

func (a *analyzer) collectProc(sc ScopeID, d *ProcDecl) {
	id, ok := a.defineIn(sc, d.Name, SymProcedure, nil, d.Loc)
	if !ok {
		// A Property Get / Property Let pair legally shares one name.
		existing := a.table.Sym(id)
		pair := existing != nil && existing.Kind == SymProcedure && existing.Proc != nil &&
			isPropertyKind(existing.Proc.Kind) && isPropertyKind(d.Kind) &&
			existing.Proc.Kind != d.Kind
		if !pair {
			a.diag.warnf(CodeDuplicateDecl, d.Loc,
				"%q is already declared in this scope; the first declaration wins", d.Name)
		}
	}
	d.Sym = id
	if sym := a.table.Sym(id); sym != nil && sym.Proc == nil {
		sym.Proc = d
	}

	saved := a.table.current
	a.table.current = sc
	procScope := a.table.EnterScope()
	a.table.current = saved
	a.procScope[d] = procScope

	// Functions and Property Gets assign their own name as the return
	// slot; bind it as a local variable that remembers its procedure.
	if d.Kind == ProcFunction || d.Kind == ProcPropertyGet {
		retID, _ := a.defineIn(procScope, d.Name, SymVariable, nil, d.Loc)
		if sym := a.table.Sym(retID); sym != nil {
			sym.Proc = d
		}
	}
	for i := range d.Params {
		p := &d.Params[i]
		p.Sym = a.defineUnique(procScope, p.Name, SymVariable, nil, p.Loc)
	}
	a.hoistLocals(procScope, d.Body)
}

func isPropertyKind(k ProcKind) bool {
	return k == ProcPropertyGet || k == ProcPropertyLet
}

// hoistLocals registers every Dim and Const nested anywhere in body into sc.
// Declarations hoist to procedure scope regardless of block depth, matching
// legacy scoping.
func (a *analyzer) hoistLocals(sc ScopeID, body []Stmt) {
	for _, s := range body {
		switch s := s.(type) {
		case *VarDecl:
			a.defineVar(sc, s)
		case *ConstDecl:
			a.defineConst(sc, s)
		case *declRun:
			a.hoistLocals(sc, s.Decls)
		case *IfStmt:
			a.hoistLocals(sc, s.Then)
			for _, ei := range s.ElseIfs {
				a.hoistLocals(sc, ei.Body)
			}
			a.hoistLocals(sc, s.Else)
		case *ForStmt:
			a.hoistLocals(sc, s.Body)
		case *ForEachStmt:
			a.hoistLocals(sc, s.Body)
		case *DoLoopStmt:
			a.hoistLocals(sc, s.Body)
		case *WhileStmt:
			a.hoistLocals(sc, s.Body)
		case *SelectStmt:
			for _, c := range s.Cases {
				a.hoistLocals(sc, c.Body)
			}
			a.hoistLocals(sc, s.Else)
		case *WithStmt:
			a.hoistLocals(sc, s.Body)
		}
	}
}

//  Pass 2: type resolution and identifier binding

// builtinTypeNames maps lowercased source type names to their descriptors.
var builtinTypeNames = map[string]*Type{
	"boolean":  TyBoolean,
	"byte":     TyByte,
	"integer":  TyInteger,
	"long":     TyLong,
	"single":   TySingle,
	"double":   TyDouble,
	"currency": TyCurrency,
	"string":   TyString,
	"date":     TyDate,
	"variant":  TyVariant,
	"object":   TyVariant,
}

// resolveRef resolves a source type annotation to a descriptor. Unresolved
// names are diagnosed once and default to Variant.
func (a *analyzer) resolveRef(sc ScopeID, ref *TypeRef) *Type {
	if ref.Resolved != nil {
		return ref.Resolved
	}
	ref.Resolved = a.lookupTypeName(sc, ref.Name, ref.Loc)
	return ref.Resolved
}

func (a *analyzer) lookupTypeName(sc ScopeID, name string, loc Span) *Type {
	if name == "" {
		return TyVariant
	}
	lower := strings.ToLower(name)
	if t, ok := builtinTypeNames[lower]; ok {
		return t
	}
	if rest, ok := strings.CutPrefix(lower, "string*"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			a.diag.errorf(CodeUnknownType, loc, "invalid fixed-length string size %q", rest)
			return TyString
		}
		return &Type{Kind: KindStringN, StrLen: n}
	}
	if id, ok := a.table.LookupIn(sc, name); ok {
		if sym := a.table.Sym(id); sym.Kind == SymType {
			return sym.Type
		}
	}
	a.diag.errorf(CodeUnknownType, loc, "unknown type name %q", name)
	return TyVariant
}

// declaredType computes a variable's full type from its annotation and any
// array bounds.
func (a *analyzer) declaredType(sc ScopeID, ref *TypeRef, bounds []int, dynamic bool, loc Span) *Type {
	base := a.resolveRef(sc, ref)
	if len(bounds) > 0 || dynamic {
		return &Type{Kind: KindArray, Elem: base, Bounds: bounds}
	}
	return base
}

func (a *analyzer) resolveAndBind() {
	// Fill the record, enum, and class shells first so forward references
	// between user types resolve.
	for _, d := range a.mod.Decls {
		switch d := d.(type) {
		case *TypeDecl:
			a.fillRecord(d)
		case *EnumDecl:
			a.fillEnum(d)
		case *ClassDecl:
			a.fillClass(d)
		}
	}

	// Then variable, constant, and procedure signatures.
	for _, d := range a.mod.Decls {
		switch d := d.(type) {
		case *VarDecl:
			a.resolveVar(0, d)
		case *ConstDecl:
			a.resolveConst(0, d)
		case *ExternDecl:
			a.resolveExtern(d)
		case *ClassDecl:
			for _, p := range d.Procs {
				a.resolveSignature(p)
			}
		case *ProcDecl:
			a.resolveSignature(d)
		}
	}
	for _, p := range a.mod.Procs {
		a.resolveSignature(p)
	}

	// Finally bind every body.
	a.bindStmts(0, a.mod.Stmts)
	for _, d := range a.mod.Decls {
		if c, ok := d.(*ClassDecl); ok {
			for _, p := range c.Procs {
				a.bindStmts(a.procScope[p], p.Body)
			}
		}
		if p, ok := d.(*ProcDecl); ok {
			a.bindStmts(a.procScope[p], p.Body)
		}
	}
	for _, p := range a.mod.Procs {
		a.bindStmts(a.procScope[p], p.Body)
	}
}

func (a *analyzer) fillRecord(d *TypeDecl) {
	sym := a.table.Sym(d.Sym)
	if sym == nil || sym.Type == nil || sym.Type.Kind != KindRecord {
		return
	}
	for i := range d.Fields {
		f := &d.Fields[i]
		ft := a.declaredType(0, &f.Type, f.Bounds, false, f.Loc)
		sym.Type.Fields = append(sym.Type.Fields, RecordField{Name: f.Name, Type: ft})
	}
}

func (a *analyzer) fillEnum(d *EnumDecl) {
	next := int64(0)
	for i := range d.Members {
		m := &d.Members[i]
		if m.Value != nil {
			if v, ok := a.foldConst(0, m.Value); ok {
				if n, ok := asInt(v); ok {
					next = n
				} else {
					a.diag.errorf(CodeTypeMismatch, m.Value.Span(),
						"enum member %q requires an integer constant", m.Name)
				}
			}
		}
		if sym := a.table.Sym(m.Sym); sym != nil && sym.ConstValue == nil {
			sym.ConstValue = next
		}
		next++
	}
}

func (a *analyzer) fillClass(d *ClassDecl) {
	sym := a.table.Sym(d.Sym)
	if sym == nil || sym.Type == nil || sym.Type.Kind != KindClass {
		return
	}
	classScope := a.procScopeParent(d)
	for _, v := range d.Vars {
		vt := a.declaredType(classScope, &v.Type, v.Bounds, v.Dynamic, v.Loc)
		if vsym := a.table.Sym(v.Sym); vsym != nil && vsym.Type == nil {
			vsym.Type = vt
		}
		sym.Type.Fields = append(sym.Type.Fields, RecordField{Name: v.Name, Type: vt})
	}
}

// procScopeParent recovers the class scope created in pass 1 from any of the
// class's procedures; a class with no procedures resolves member types
// against the module scope, which is equivalent.
func (a *analyzer) procScopeParent(d *ClassDecl) ScopeID {
	for _, p := range d.Procs {
		if sc, ok := a.procScope[p]; ok {
			return a.table.scopes[sc].parent
		}
	}
	if len(d.Vars) > 0 && d.Vars[0].Sym != NoSym {
		if vsym := a.table.Sym(d.Vars[0].Sym); vsym != nil {
			return vsym.Scope
		}
	}
	return 0
}

func (a *analyzer) resolveVar(sc ScopeID, d *VarDecl) {
	t := a.declaredType(sc, &d.Type, d.Bounds, d.Dynamic, d.Loc)
	if sym := a.table.Sym(d.Sym); sym != nil && sym.Type == nil {
		sym.Type = t
	}
}

func (a *analyzer) resolveConst(sc ScopeID, d *ConstDecl) {
	t := a.resolveRef(sc, &d.Type)
	sym := a.table.Sym(d.Sym)
	if sym == nil {
		return
	}
	if sym.Type == nil {
		sym.Type = t
	}
	if v, ok := a.foldConst(sc, d.Value); ok && sym.ConstValue == nil {
		sym.ConstValue = v
		if d.Type.Name == "" {
			sym.Type = constValueType(v)
		}
	}
}

func (a *analyzer) resolveExtern(d *ExternDecl) {
	for i := range d.Params {
		p := &d.Params[i]
		a.resolveRef(0, &p.Type)
	}
	ret := TyVoid
	if d.IsFunction {
		ret = a.resolveRef(0, &d.RetType)
	}
	if sym := a.table.Sym(d.Sym); sym != nil && sym.Type == nil {
		sym.Type = ret
	}
}

func (a *analyzer) resolveSignature(d *ProcDecl) {
	sc := a.procScope[d]
	for i := range d.Params {
		p := &d.Params[i]
		pt := a.resolveRef(sc, &p.Type)
		if sym := a.table.Sym(p.Sym); sym != nil && sym.Type == nil {
			sym.Type = pt
		}
	}
	ret := TyVoid
	if d.Kind == ProcFunction || d.Kind == ProcPropertyGet {
		ret = a.resolveRef(sc, &d.RetType)
		// The return slot shares the return type.
		if id, ok := a.table.LookupIn(sc, d.Name); ok {
			if sym := a.table.Sym(id); sym != nil && sym.Kind == SymVariable && sym.Type == nil {
				sym.Type = ret
			}
		}
	}
	if sym := a.table.Sym(d.Sym); sym != nil && sym.Type == nil {
		sym.Type = ret
	}
	a.resolveLocalDecls(sc, d.Body)
}

// resolveLocalDecls resolves the types of hoisted body declarations.
func (a *analyzer) resolveLocalDecls(sc ScopeID, body []Stmt) {
	for _, s := range body {
		switch s := s.(type) {
		case *VarDecl:
			a.resolveVar(sc, s)
		case *ConstDecl:
			a.resolveConst(sc, s)
		case *declRun:
			a.resolveLocalDecls(sc, s.Decls)
		case *IfStmt:
			a.resolveLocalDecls(sc, s.Then)
			for _, ei := range s.ElseIfs {
				a.resolveLocalDecls(sc, ei.Body)
			}
			a.resolveLocalDecls(sc, s.Else)
		case *ForStmt:
			a.resolveLocalDecls(sc, s.Body)
		case *ForEachStmt:
			a.resolveLocalDecls(sc, s.Body)
		case *DoLoopStmt:
			a.resolveLocalDecls(sc, s.Body)
		case *WhileStmt:
			a.resolveLocalDecls(sc, s.Body)
		case *SelectStmt:
			for _, c := range s.Cases {
				a.resolveLocalDecls(sc, c.Body)
			}
			a.resolveLocalDecls(sc, s.Else)
		case *WithStmt:
			a.resolveLocalDecls(sc, s.Body)
		}
	}
}

func (a *analyzer) bindStmts(sc ScopeID, body []Stmt) {
	for _, s := range body {
		a.bindStmt(sc, s)
	}
}

func (a *analyzer) bindStmt(sc ScopeID, s Stmt) {
	switch s := s.(type) {
	case *VarDecl, *ConstDecl, *LabelStmt, *ExitStmt, *OnErrorStmt,
		*ResumeStmt, *GotoStmt, *ReturnStmt, *StopStmt, *ErrorStmt:
		// No embedded expressions to bind (const values fold in pass 2).
	case *declRun:
		a.bindStmts(sc, s.Decls)
	case *AssignStmt:
		a.bindExpr(sc, s.Left)
		a.bindExpr(sc, s.Value)
	case *CallStmt:
		a.bindExpr(sc, s.Call)
	case *PrintStmt:
		for _, e := range s.Args {
			a.bindExpr(sc, e)
		}
	case *IfStmt:
		a.bindExpr(sc, s.Cond)
		a.bindStmts(sc, s.Then)
		for i := range s.ElseIfs {
			a.bindExpr(sc, s.ElseIfs[i].Cond)
			a.bindStmts(sc, s.ElseIfs[i].Body)
		}
		a.bindStmts(sc, s.Else)
	case *ForStmt:
		a.bindExpr(sc, s.Var)
		a.bindExpr(sc, s.From)
		a.bindExpr(sc, s.To)
		if s.Step != nil {
			a.bindExpr(sc, s.Step)
		}
		a.bindStmts(sc, s.Body)
	case *ForEachStmt:
		a.bindExpr(sc, s.Var)
		a.bindExpr(sc, s.Coll)
		a.bindStmts(sc, s.Body)
	case *DoLoopStmt:
		if s.Cond != nil {
			a.bindExpr(sc, s.Cond)
		}
		a.bindStmts(sc, s.Body)
	case *WhileStmt:
		a.bindExpr(sc, s.Cond)
		a.bindStmts(sc, s.Body)
	case *SelectStmt:
		a.bindExpr(sc, s.Subject)
		for i := range s.Cases {
			c := &s.Cases[i]
			for j := range c.Items {
				a.bindExpr(sc, c.Items[j].Value)
				if c.Items[j].To != nil {
					a.bindExpr(sc, c.Items[j].To)
				}
			}
			a.bindStmts(sc, c.Body)
		}
		a.bindStmts(sc, s.Else)
	case *WithStmt:
		a.bindExpr(sc, s.Receiver)
		a.withTypes = append(a.withTypes, exprType(s.Receiver))
		a.bindStmts(sc, s.Body)
		a.withTypes = a.withTypes[:len(a.withTypes)-1]
	case *ReDimStmt:
		a.bindExpr(sc, s.Target)
		for _, b := range s.Bounds {
			a.bindExpr(sc, b)
		}
	case *EraseStmt:
		a.bindExpr(sc, s.Target)
	}
}

func (a *analyzer) bindExpr(sc ScopeID, e Expr) {
	switch e := e.(type) {
	case *NumberLit, *StringLit, *DateLit, *BoolLit, *NothingLit:
	case *Ident:
		a.bindIdent(sc, e)
	case *UnaryExpr:
		a.bindExpr(sc, e.X)
	case *BinaryExpr:
		a.bindExpr(sc, e.X)
		a.bindExpr(sc, e.Y)
	case *CallOrIndex:
		a.bindExpr(sc, e.Target)
		for _, arg := range e.Args {
			a.bindExpr(sc, arg)
		}
		a.classifyCallOrIndex(e)
	case *MemberExpr:
		if e.X == nil {
			if len(a.withTypes) == 0 {
				a.diag.errorf(CodeUndeclaredIdent, e.Span(),
					"member reference .%s outside a With block", e.Name)
				e.Typ = TyVariant
				return
			}
			e.Typ = memberType(a.withTypes[len(a.withTypes)-1], e.Name)
			return
		}
		a.bindExpr(sc, e.X)
		e.Typ = memberType(exprType(e.X), e.Name)
	case *NewExpr:
		e.Typ = a.lookupTypeName(sc, e.TypeName, e.Span())
		if e.Typ.Kind != KindClass && e.Typ.Kind != KindVariant {
			a.diag.errorf(CodeTypeMismatch, e.Span(), "New requires a class type, %s is not one", e.TypeName)
		}
	}
}

// bindIdent resolves an identifier to its symbol. Under Option Explicit an
// unknown name is an error; without it the name is implicitly declared as a
// Variant variable, matching legacy semantics. Either way the reference is
// annotated and analysis continues.
func (a *analyzer) bindIdent(sc ScopeID, e *Ident) {
	if id, ok := a.table.LookupIn(sc, e.Name); ok {
		sym := a.table.Sym(id)
		e.Sym = id
		e.Typ = sym.Type
		if e.Typ == nil {
			e.Typ = TyVariant
		}
		return
	}
	if a.mod.OptionExplicit {
		a.diag.errorf(CodeUndeclaredIdent, e.Span(), "%q is used but never declared", e.Name)
	}
	id, _ := a.defineIn(sc, e.Name, SymVariable, TyVariant, e.Span())
	e.Sym = id
	e.Typ = TyVariant
}

// classifyCallOrIndex decides whether target(args) is a procedure call or an
// array/string index, now that the target symbol is known.
func (a *analyzer) classifyCallOrIndex(e *CallOrIndex) {
	switch t := e.Target.(type) {
	case *Ident:
		if t.Sym != NoSym {
			sym := a.table.Sym(t.Sym)
			if sym.Kind == SymProcedure || sym.Proc != nil || sym.Extern != nil {
				e.IsIndex = false
				e.Typ = callResultType(sym)
				return
			}
		}
		e.IsIndex = true
		e.Typ = indexResultType(t.Typ)
	case *MemberExpr:
		// p.Move(...) or arr.field(...): a method call when the member is
		// not a data field of a known record/class, an index otherwise.
		if t.Typ != nil && t.Typ.Kind != KindVariant && t.Typ.Kind != KindArray {
			e.IsIndex = false
			e.Typ = TyVariant
			return
		}
		e.IsIndex = t.Typ != nil && t.Typ.Kind == KindArray
		e.Typ = indexResultType(t.Typ)
	default:
		e.IsIndex = true
		e.Typ = indexResultType(exprType(e.Target))
	}
}

func callResultType(sym *Symbol) *Type {
	if sym.Type != nil {
		return sym.Type
	}
	return TyVariant
}

func indexResultType(t *Type) *Type {
	if t == nil {
		return TyVariant
	}
	switch t.Kind {
	case KindArray:
		return t.Elem
	case KindString, KindStringN:
		return TyString
	default:
		return TyVariant
	}
}

func memberType(recv *Type, name string) *Type {
	if recv == nil {
		return TyVariant
	}
	if recv.Kind == KindRecord || recv.Kind == KindClass {
		if f, ok := recv.FieldNamed(name); ok {
			return f.Type
		}
	}
	return TyVariant
}

// exprType reads the annotation attached during binding and checking.
func exprType(e Expr) *Type {
	switch e := e.(type) {
	case *NumberLit:
		return literalType(e.NumKind)
	case *StringLit:
		return TyString
	case *DateLit:
		return TyDate
	case *BoolLit:
		return TyBoolean
	case *NothingLit:
		return TyVariant
	case *Ident:
		if e.Typ != nil {
			return e.Typ
		}
	case *UnaryExpr:
		if e.Typ != nil {
			return e.Typ
		}
	case *BinaryExpr:
		if e.Typ != nil {
			return e.Typ
		}
	case *CallOrIndex:
		if e.Typ != nil {
			return e.Typ
		}
	case *MemberExpr:
		if e.Typ != nil {
			return e.Typ
		}
	case *NewExpr:
		if e.Typ != nil {
			return e.Typ
		}
	}
	return TyVariant
}

//  Constant folding over the annotated tree

// foldConst evaluates e to a compile-time constant (int64, float64, string,
// or bool) when possible. Identifier references resolve through the symbol
// table's constant values, so Const chains and enum members fold.
func (a *analyzer) foldConst(sc ScopeID, e Expr) (any, bool) {
	switch e := e.(type) {
	case *NumberLit:
		if e.IsInt {
			return int64(e.Value), true
		}
		return e.Value, true
	case *StringLit:
		return e.Value, true
	case *BoolLit:
		return e.Value, true
	case *Ident:
		id := e.Sym
		if id == NoSym {
			var ok bool
			id, ok = a.table.LookupIn(sc, e.Name)
			if !ok {
				return nil, false
			}
		}
		sym := a.table.Sym(id)
		if sym != nil && sym.Kind == SymConstant && sym.ConstValue != nil {
			return sym.ConstValue, true
		}
		return nil, false
	case *UnaryExpr:
		v, ok := a.foldConst(sc, e.X)
		if !ok {
			return nil, false
		}
		return foldUnary(e.Op, v)
	case *BinaryExpr:
		x, ok := a.foldConst(sc, e.X)
		if !ok {
			return nil, false
		}
		y, ok := a.foldConst(sc, e.Y)
		if !ok {
			return nil, false
		}
		return foldBinary(e.Op, x, y)
	}
	return nil, false
}

func asInt(v any) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case bool:
		if v {
			return -1, true
		}
		return 0, true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func constValueType(v any) *Type {
	switch v.(type) {
	case int64:
		return TyLong
	case float64:
		return TyDouble
	case string:
		return TyString
	case bool:
		return TyBoolean
	}
	return TyVariant
}

func foldUnary(op TokenKind, v any) (any, bool) {
	switch op {
	case MINUS:
		if n, ok := v.(int64); ok {
			return -n, true
		}
		if f, ok := v.(float64); ok {
			return -f, true
		}
	case PLUS:
		switch v.(type) {
		case int64, float64:
			return v, true
		}
	case KwNot:
		if b, ok := v.(bool); ok {
			return !b, true
		}
		if n, ok := v.(int64); ok {
			return ^n, true
		}
	}
	return nil, false
}

func foldBinary(op TokenKind, x, y any) (any, bool) {
	// String operands: concatenation and comparison only.
	if xs, ok := x.(string); ok {
		ys, ok := y.(string)
		if !ok {
			return nil, false
		}
		switch op {
		case AMP, PLUS:
			return xs + ys, true
		case EQ:
			return strings.EqualFold(xs, ys), true
		case NEQ:
			return !strings.EqualFold(xs, ys), true
		}
		return nil, false
	}

	if op == KwAnd || op == KwOr || op == KwXor {
		if xb, ok := x.(bool); ok {
			if yb, ok := y.(bool); ok {
				switch op {
				case KwAnd:
					return xb && yb, true
				case KwOr:
					return xb || yb, true
				default:
					return xb != yb, true
				}
			}
		}
		xi, ok1 := asInt(x)
		yi, ok2 := asInt(y)
		if !ok1 || !ok2 {
			return nil, false
		}
		switch op {
		case KwAnd:
			return xi & yi, true
		case KwOr:
			return xi | yi, true
		default:
			return xi ^ yi, true
		}
	}

	// Pure integer arithmetic stays integral.
	if xi, ok := x.(int64); ok {
		if yi, ok := y.(int64); ok {
			switch op {
			case PLUS:
				return xi + yi, true
			case MINUS:
				return xi - yi, true
			case STAR:
				return xi * yi, true
			case BACKSLASH, KwMod:
				if yi == 0 {
					return nil, false
				}
				if op == KwMod {
					return xi % yi, true
				}
				return xi / yi, true
			}
		}
	}

	xf, ok1 := asFloat(x)
	yf, ok2 := asFloat(y)
	if !ok1 || !ok2 {
		return nil, false
	}
	switch op {
	case PLUS:
		return xf + yf, true
	case MINUS:
		return xf - yf, true
	case STAR:
		return xf * yf, true
	case SLASH:
		if yf == 0 {
			return nil, false
		}
		return xf / yf, true
	case CARET:
		return math.Pow(xf, yf), true
	case EQ:
		return xf == yf, true
	case NEQ:
		return xf != yf, true
	case LT:
		return xf < yf, true
	case GT:
		return xf > yf, true
	case LE:
		return xf <= yf, true
	case GE:
		return xf >= yf, true
	}
	return nil, false
}

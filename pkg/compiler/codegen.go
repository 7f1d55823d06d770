package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Generate lowers the annotated module to Starlark source. The lowering is
// structural, node by node, with no optimization; every declared variable is
// initialized to its type's zero value at the point of declaration. It
// proceeds even when non-fatal diagnostics exist and returns an error only
// for an internal invariant violation.
func Generate(mod *Module, table *SymbolTable) (string, SourceMap, []Diagnostic, error) {
	if mod == nil || table == nil {
		return "", SourceMap{}, nil, internalErr("codegen", "nil module or symbol table")
	}
	g := &generator{mod: mod, table: table, classes: map[string]*ClassDecl{}}
	for _, d := range mod.Decls {
		if c, ok := d.(*ClassDecl); ok {
			g.classes[strings.ToLower(c.Name)] = c
		}
	}
	g.run()
	SortDiagnostics(g.diag.list)
	return strings.Join(g.lines, "\n") + "\n", g.smap, g.diag.list, nil
}

type generator struct {
	mod     *Module
	table   *SymbolTable
	diag    diagBag
	classes map[string]*ClassDecl

	lines  []string
	indent int
	smap   SourceMap
	tmpN   int

	// withStack holds the receiver temp names of enclosing With blocks.
	withStack []string
	// classScope is the scope of the class whose methods are being
	// emitted; member references inside it lower through "self".
	classScope ScopeID
	inClass    bool
	// currentProc is the procedure whose body is being emitted.
	currentProc *ProcDecl
}

// starlarkReserved lists target keywords a lowered identifier must not
// collide with.
var starlarkReserved = map[string]bool{
	"and": true, "break": true, "continue": true, "def": true, "elif": true,
	"else": true, "for": true, "if": true, "in": true, "lambda": true,
	"load": true, "not": true, "or": true, "pass": true, "return": true,
	"while": true, "None": true, "True": true, "False": true, "self": true,
}

func sanitize(name string) string {
	if starlarkReserved[name] || starlarkReserved[strings.ToLower(name)] {
		return name + "_"
	}
	return name
}

func (g *generator) emit(src Span, format string, args ...any) {
	line := strings.Repeat("    ", g.indent) + fmt.Sprintf(format, args...)
	g.lines = append(g.lines, line)
	if src != (Span{}) {
		g.smap.add(len(g.lines), src)
	}
}

func (g *generator) blank() {
	g.lines = append(g.lines, "")
}

func (g *generator) temp(prefix string) string {
	g.tmpN++
	return fmt.Sprintf("_%s%d", prefix, g.tmpN)
}

func (g *generator) run() {
	g.emit(Span{}, "# module %s", g.mod.Name)

	// Constants and enum members become plain globals; they are never
	// reassigned.
	for _, d := range g.mod.Decls {
		switch d := d.(type) {
		case *ConstDecl:
			g.emitConst(d)
		case *EnumDecl:
			for i := range d.Members {
				m := &d.Members[i]
				v := int64(i)
				if sym := g.table.Sym(m.Sym); sym != nil {
					if n, ok := sym.ConstValue.(int64); ok {
						v = n
					}
				}
				g.emit(m.Loc, "%s = %d", sanitize(m.Name), v)
			}
		case *ExternDecl:
			g.emit(d.Loc, "%s = basic_extern(%q, %q)", sanitize(d.Name), d.Lib, externName(d))
		}
	}

	// Record constructors.
	for _, d := range g.mod.Decls {
		if t, ok := d.(*TypeDecl); ok {
			g.emitRecord(t)
		}
	}

	// Class constructors with their methods.
	for _, d := range g.mod.Decls {
		if c, ok := d.(*ClassDecl); ok {
			g.emitClass(c)
		}
	}

	// Module variables live in a dict so procedure bodies can reassign
	// them; the target forbids rebinding globals from inside a function.
	g.emit(Span{}, "_g = {}")
	for _, d := range g.mod.Decls {
		if v, ok := d.(*VarDecl); ok {
			g.emit(v.Loc, "_g[%q] = %s", v.Name, g.zeroValue(varType(g.table, v.Sym)))
		}
	}

	// Procedures.
	for _, d := range g.mod.Decls {
		if p, ok := d.(*ProcDecl); ok {
			g.emitProc(p)
		}
	}
	for _, p := range g.mod.Procs {
		g.emitProc(p)
	}

	// Script-style module statements run at top level; the host enables
	// top-level control flow and global reassignment.
	for _, s := range g.mod.Stmts {
		g.genStmt(s)
	}
}

func externName(d *ExternDecl) string {
	if d.Alias != "" {
		return d.Alias
	}
	return d.Name
}

func varType(table *SymbolTable, id SymID) *Type {
	if sym := table.Sym(id); sym != nil && sym.Type != nil {
		return sym.Type
	}
	return TyVariant
}

func (g *generator) emitConst(d *ConstDecl) {
	if sym := g.table.Sym(d.Sym); sym != nil && sym.ConstValue != nil {
		g.emit(d.Loc, "%s = %s", sanitize(d.Name), constLiteral(sym.ConstValue))
		return
	}
	g.emit(d.Loc, "%s = %s", sanitize(d.Name), g.genExpr(d.Value))
}

func constLiteral(v any) string {
	switch v := v.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return fmtFloat(v)
	case string:
		return strconv.Quote(v)
	case bool:
		if v {
			return "True"
		}
		return "False"
	}
	return "None"
}

func fmtFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func (g *generator) emitRecord(d *TypeDecl) {
	g.blank()
	g.emit(d.Loc, "def %s_New():", sanitize(d.Name))
	g.indent++
	if len(d.Fields) == 0 {
		g.emit(d.Loc, "return {}")
		g.indent--
		return
	}
	var parts []string
	sym := g.table.Sym(d.Sym)
	for i := range d.Fields {
		f := &d.Fields[i]
		ft := TyVariant
		if sym != nil && sym.Type != nil {
			if rf, ok := sym.Type.FieldNamed(f.Name); ok {
				ft = rf.Type
			}
		}
		parts = append(parts, fmt.Sprintf("%q: %s", f.Name, g.zeroValue(ft)))
	}
	g.emit(d.Loc, "return {%s}", strings.Join(parts, ", "))
	g.indent--
}

func (g *generator) emitClass(d *ClassDecl) {
	g.blank()
	g.emit(d.Loc, "def %s_New():", sanitize(d.Name))
	g.indent++
	g.emit(d.Loc, "self = {}")
	for _, v := range d.Vars {
		g.emit(v.Loc, "self[%q] = %s", v.Name, g.zeroValue(varType(g.table, v.Sym)))
	}

	savedScope, savedIn := g.classScope, g.inClass
	g.inClass = true
	g.classScope = 0
	if len(d.Procs) > 0 {
		if sym := g.table.Sym(d.Procs[0].Sym); sym != nil {
			g.classScope = sym.Scope
		}
	}
	for _, p := range d.Procs {
		g.emitMethod(p)
	}
	g.classScope, g.inClass = savedScope, savedIn

	g.emit(d.Loc, "return self")
	g.indent--
}

func (g *generator) emitMethod(p *ProcDecl) {
	name := procDefName(p)
	g.emit(p.Loc, "def %s(%s):", name, g.paramList(p))
	g.indent++
	g.emitProcBody(p)
	g.indent--
	g.emit(p.Loc, "self[%q] = %s", name, name)
}

func procDefName(p *ProcDecl) string {
	if p.Kind == ProcPropertyLet {
		return sanitize(p.Name) + "_Let"
	}
	return sanitize(p.Name)
}

func (g *generator) paramList(p *ProcDecl) string {
	var parts []string
	for i := range p.Params {
		prm := &p.Params[i]
		s := sanitize(prm.Name)
		if prm.Optional {
			s += "=None"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

func (g *generator) emitProc(p *ProcDecl) {
	g.blank()
	g.emit(p.Loc, "def %s(%s):", procDefName(p), g.paramList(p))
	g.indent++
	g.emitProcBody(p)
	g.indent--
}

// emitProcBody lowers a procedure body, initializing the return slot for
// value-returning forms and emitting the trailing return.
func (g *generator) emitProcBody(p *ProcDecl) {
	saved := g.currentProc
	g.currentProc = p
	defer func() { g.currentProc = saved }()
	returns := p.Kind == ProcFunction || p.Kind == ProcPropertyGet
	if returns {
		g.emit(p.Loc, "%s = %s", retSlotName(p), g.zeroValue(retType(g.table, p)))
	}
	if len(p.Body) == 0 && !returns {
		g.emit(p.Loc, "pass")
		return
	}
	for _, s := range p.Body {
		g.genStmt(s)
	}
	if returns {
		g.emit(p.Loc, "return %s", retSlotName(p))
	}
}

func retSlotName(p *ProcDecl) string {
	return sanitize(p.Name) + "_ret"
}

func retType(table *SymbolTable, p *ProcDecl) *Type {
	if p.RetType.Resolved != nil {
		return p.RetType.Resolved
	}
	return TyVariant
}

// zeroValue renders the legacy default-initialization value for a type.
func (g *generator) zeroValue(t *Type) string {
	if t == nil {
		return "None"
	}
	switch t.Kind {
	case KindBoolean:
		return "False"
	case KindByte, KindInteger, KindLong, KindEnum:
		return "0"
	case KindSingle, KindDouble, KindCurrency, KindDate:
		return "0.0"
	case KindString, KindStringN:
		return `""`
	case KindArray:
		if len(t.Bounds) == 0 {
			return "basic_array([], None)"
		}
		// Declared bounds are inclusive upper bounds of zero-based dims.
		var dims []string
		for _, b := range t.Bounds {
			dims = append(dims, strconv.Itoa(b+1))
		}
		return fmt.Sprintf("basic_array([%s], %s)", strings.Join(dims, ", "), g.zeroValue(t.Elem))
	case KindRecord:
		return sanitize(t.Name) + "_New()"
	case KindClass:
		return "None"
	default:
		return "None"
	}
}

//  Statements

func (g *generator) genStmt(s Stmt) {
	switch s := s.(type) {
	case *VarDecl:
		g.emit(s.Loc, "%s = %s", g.varRef(s.Sym, s.Name), g.zeroValue(varType(g.table, s.Sym)))
	case *ConstDecl:
		if sym := g.table.Sym(s.Sym); sym != nil && sym.ConstValue != nil {
			g.emit(s.Loc, "%s = %s", sanitize(s.Name), constLiteral(sym.ConstValue))
		} else {
			g.emit(s.Loc, "%s = %s", sanitize(s.Name), g.genExpr(s.Value))
		}
	case *declRun:
		for _, d := range s.Decls {
			g.genStmt(d)
		}
	case *AssignStmt:
		g.genAssign(s)
	case *CallStmt:
		g.emit(s.Loc, "%s", g.genCallExpr(s.Call))
	case *PrintStmt:
		var args []string
		for _, e := range s.Args {
			args = append(args, g.genExpr(e))
		}
		g.emit(s.Loc, "basic_print(%s)", strings.Join(args, ", "))
	case *IfStmt:
		g.genIf(s)
	case *ForStmt:
		g.genFor(s)
	case *ForEachStmt:
		g.genForEach(s)
	case *DoLoopStmt:
		g.genDoLoop(s)
	case *WhileStmt:
		g.emit(s.Loc, "while %s:", g.genExpr(s.Cond))
		g.genBlock(s.Body, s.Loc)
	case *SelectStmt:
		g.genSelect(s)
	case *WithStmt:
		tmp := g.temp("with")
		g.emit(s.Loc, "%s = %s", tmp, g.genExpr(s.Receiver))
		g.withStack = append(g.withStack, tmp)
		g.genBlock(s.Body, s.Loc)
		g.withStack = g.withStack[:len(g.withStack)-1]
	case *ExitStmt:
		g.genExit(s)
	case *OnErrorStmt:
		g.genOnError(s)
	case *ResumeStmt:
		g.diag.warnf(CodeUnsupportedLower, s.Loc,
			"Resume has no target equivalent and is lowered as a no-op")
		g.emit(s.Loc, "pass")
	case *GotoStmt:
		g.diag.warnf(CodeUnsupportedLower, s.Loc,
			"Goto has no target equivalent and is lowered as a no-op")
		g.emit(s.Loc, "pass")
	case *LabelStmt:
		// Labels carry no behavior once jumps are lowered away.
	case *ReturnStmt:
		g.diag.warnf(CodeUnsupportedLower, s.Loc,
			"Return has no target equivalent and is lowered as a no-op")
		g.emit(s.Loc, "pass")
	case *ReDimStmt:
		target := g.genExpr(s.Target)
		var bounds []string
		for _, b := range s.Bounds {
			bounds = append(bounds, g.genExpr(b))
		}
		preserve := "False"
		if s.Preserve {
			preserve = "True"
		}
		g.emit(s.Loc, "%s = basic_redim(%s, [%s], %s)", target, target, strings.Join(bounds, ", "), preserve)
	case *EraseStmt:
		target := g.genExpr(s.Target)
		g.emit(s.Loc, "%s = basic_erase(%s)", target, target)
	case *StopStmt:
		g.emit(s.Loc, "basic_stop()")
	case *ErrorStmt:
		g.emit(s.Loc, "pass")
	default:
		g.emit(s.Span(), "pass")
	}
}

// genBlock lowers a statement list one indent deeper, guaranteeing at least
// one statement so the target block is never empty.
func (g *generator) genBlock(body []Stmt, loc Span) {
	g.indent++
	before := len(g.lines)
	for _, s := range body {
		g.genStmt(s)
	}
	if len(g.lines) == before {
		g.emit(loc, "pass")
	}
	g.indent--
}

func (g *generator) genAssign(s *AssignStmt) {
	rhs := g.genExpr(s.Value)
	switch lv := s.Left.(type) {
	case *Ident:
		if sym := g.table.Sym(lv.Sym); sym != nil && sym.Kind == SymProcedure &&
			sym.Proc != nil && isPropertyKind(sym.Proc.Kind) {
			// Prop = v routes through the Let half.
			g.emit(s.Loc, "%s_Let(%s)", sanitize(sym.Proc.Name), rhs)
			return
		}
		g.emit(s.Loc, "%s = %s", g.genExpr(lv), rhs)
	case *MemberExpr:
		recv, name := g.memberParts(lv)
		if cls := g.classFor(lv); cls != nil {
			if let := findProc(cls.Procs, name, ProcPropertyLet); let != nil {
				g.emit(s.Loc, "%s[%q](%s)", recv, sanitize(name)+"_Let", rhs)
				return
			}
		}
		g.emit(s.Loc, "%s[%q] = %s", recv, name, rhs)
	default:
		g.emit(s.Loc, "%s = %s", g.genExpr(s.Left), rhs)
	}
}

func (g *generator) genIf(s *IfStmt) {
	g.emit(s.Loc, "if %s:", g.genExpr(s.Cond))
	g.genBlock(s.Then, s.Loc)
	for i := range s.ElseIfs {
		ei := &s.ElseIfs[i]
		g.emit(ei.Loc, "elif %s:", g.genExpr(ei.Cond))
		g.genBlock(ei.Body, ei.Loc)
	}
	if len(s.Else) > 0 {
		g.emit(s.Loc, "else:")
		g.genBlock(s.Else, s.Loc)
	}
}

func (g *generator) genFor(s *ForStmt) {
	step := "1"
	if s.Step != nil {
		step = g.genExpr(s.Step)
	}
	rangeExpr := fmt.Sprintf("basic_range(%s, %s, %s)", g.genExpr(s.From), g.genExpr(s.To), step)
	counter := g.genExpr(s.Var)
	if isPlainName(counter) {
		g.emit(s.Loc, "for %s in %s:", counter, rangeExpr)
		g.genBlock(s.Body, s.Loc)
		return
	}
	// The counter is a dict slot; iterate a temp and copy it in.
	tmp := g.temp("i")
	g.emit(s.Loc, "for %s in %s:", tmp, rangeExpr)
	g.indent++
	g.emit(s.Loc, "%s = %s", counter, tmp)
	for _, b := range s.Body {
		g.genStmt(b)
	}
	g.indent--
}

func (g *generator) genForEach(s *ForEachStmt) {
	counter := g.genExpr(s.Var)
	coll := g.genExpr(s.Coll)
	if isPlainName(counter) {
		g.emit(s.Loc, "for %s in %s:", counter, coll)
		g.genBlock(s.Body, s.Loc)
		return
	}
	tmp := g.temp("e")
	g.emit(s.Loc, "for %s in %s:", tmp, coll)
	g.indent++
	g.emit(s.Loc, "%s = %s", counter, tmp)
	for _, b := range s.Body {
		g.genStmt(b)
	}
	g.indent--
}

func isPlainName(s string) bool {
	return !strings.ContainsAny(s, "[(.")
}

func (g *generator) genDoLoop(s *DoLoopStmt) {
	switch {
	case s.Cond == nil:
		g.emit(s.Loc, "while True:")
		g.genBlock(s.Body, s.Loc)
	case !s.PostTest && !s.Until:
		g.emit(s.Loc, "while %s:", g.genExpr(s.Cond))
		g.genBlock(s.Body, s.Loc)
	case !s.PostTest && s.Until:
		g.emit(s.Loc, "while not (%s):", g.genExpr(s.Cond))
		g.genBlock(s.Body, s.Loc)
	default:
		// Post-test: the body always runs once, then the condition decides.
		g.emit(s.Loc, "while True:")
		g.indent++
		for _, b := range s.Body {
			g.genStmt(b)
		}
		if s.Until {
			g.emit(s.Loc, "if %s:", g.genExpr(s.Cond))
		} else {
			g.emit(s.Loc, "if not (%s):", g.genExpr(s.Cond))
		}
		g.indent++
		g.emit(s.Loc, "break")
		g.indent--
		g.indent--
	}
}

func (g *generator) genSelect(s *SelectStmt) {
	tmp := g.temp("sel")
	g.emit(s.Loc, "%s = %s", tmp, g.genExpr(s.Subject))
	first := true
	for i := range s.Cases {
		c := &s.Cases[i]
		var tests []string
		for j := range c.Items {
			tests = append(tests, g.caseTest(tmp, &c.Items[j]))
		}
		cond := strings.Join(tests, " or ")
		if first {
			g.emit(c.Loc, "if %s:", cond)
			first = false
		} else {
			g.emit(c.Loc, "elif %s:", cond)
		}
		g.genBlock(c.Body, c.Loc)
	}
	if len(s.Else) > 0 {
		if first {
			// Only a Case Else: it always runs.
			for _, b := range s.Else {
				g.genStmt(b)
			}
			return
		}
		g.emit(s.Loc, "else:")
		g.genBlock(s.Else, s.Loc)
	}
}

func (g *generator) caseTest(subj string, item *CaseItem) string {
	if item.To != nil {
		return fmt.Sprintf("(%s >= %s and %s <= %s)",
			subj, g.genExpr(item.Value), subj, g.genExpr(item.To))
	}
	if item.IsOp != 0 {
		return fmt.Sprintf("(%s %s %s)", subj, cmpOp(item.IsOp), g.genExpr(item.Value))
	}
	return fmt.Sprintf("%s == %s", subj, g.genExpr(item.Value))
}

func cmpOp(k TokenKind) string {
	switch k {
	case EQ:
		return "=="
	case NEQ:
		return "!="
	case LT:
		return "<"
	case GT:
		return ">"
	case LE:
		return "<="
	default:
		return ">="
	}
}

func (g *generator) genExit(s *ExitStmt) {
	switch s.What {
	case KwFor, KwDo:
		g.emit(s.Loc, "break")
	case KwSub:
		g.emit(s.Loc, "return")
	default:
		// Exit Function / Exit Property return the slot's current value.
		p := g.currentProc
		if p != nil && (p.Kind == ProcFunction || p.Kind == ProcPropertyGet) {
			g.emit(s.Loc, "return %s", retSlotName(p))
			return
		}
		g.emit(s.Loc, "return")
	}
}

func (g *generator) genOnError(s *OnErrorStmt) {
	switch {
	case s.ResumeNext:
		g.emit(s.Loc, "basic_error_mode(1)")
	case s.Label == "":
		g.emit(s.Loc, "basic_error_mode(0)")
	default:
		g.diag.warnf(CodeUnsupportedLower, s.Loc,
			"On Error Goto %s has no target equivalent; lowered as On Error Resume Next", s.Label)
		g.emit(s.Loc, "basic_error_mode(1)")
	}
}

//  Expressions

func (g *generator) genExpr(e Expr) string {
	switch e := e.(type) {
	case *NumberLit:
		if e.IsInt {
			return strconv.FormatInt(int64(e.Value), 10)
		}
		return fmtFloat(e.Value)
	case *StringLit:
		return strconv.Quote(e.Value)
	case *DateLit:
		return fmt.Sprintf("basic_date(%q)", e.Text)
	case *BoolLit:
		if e.Value {
			return "True"
		}
		return "False"
	case *NothingLit:
		return "None"
	case *Ident:
		return g.genIdent(e)
	case *UnaryExpr:
		return g.genUnary(e)
	case *BinaryExpr:
		return g.genBinary(e)
	case *CallOrIndex:
		return g.genCallOrIndex(e)
	case *MemberExpr:
		return g.genMember(e)
	case *NewExpr:
		return sanitize(e.TypeName) + "_New()"
	}
	return "None"
}

// genCallExpr lowers an expression used as a statement. A bare procedure
// or method reference becomes a call.
func (g *generator) genCallExpr(e Expr) string {
	switch e := e.(type) {
	case *Ident:
		return g.genIdent(e) // genIdent appends () for procedures
	case *MemberExpr:
		recv, name := g.memberParts(e)
		return fmt.Sprintf("%s[%q]()", recv, name)
	}
	return g.genExpr(e)
}

// varRef lowers a variable reference by symbol: module-scope variables live
// in the _g dict, class members in self, everything else is a local name.
func (g *generator) varRef(id SymID, name string) string {
	sym := g.table.Sym(id)
	if sym == nil {
		return sanitize(name)
	}
	if sym.Kind == SymVariable && sym.Scope == 0 {
		return fmt.Sprintf("_g[%q]", sym.Name)
	}
	if g.inClass && sym.Scope == g.classScope {
		if strings.EqualFold(sym.Name, "Me") {
			return "self"
		}
		return fmt.Sprintf("self[%q]", sym.Name)
	}
	if sym.Kind == SymVariable && sym.Proc != nil {
		return retSlotName(sym.Proc)
	}
	return sanitize(sym.Name)
}

func (g *generator) genIdent(e *Ident) string {
	sym := g.table.Sym(e.Sym)
	if sym == nil {
		return sanitize(e.Name)
	}
	if sym.Kind == SymProcedure {
		name := sanitize(sym.Name)
		if sym.Proc != nil {
			name = procDefName(sym.Proc)
		}
		// A value-position reference to a Function or Property Get is an
		// implicit zero-argument call.
		if sym.Proc != nil && (sym.Proc.Kind == ProcFunction || sym.Proc.Kind == ProcPropertyGet) {
			return name + "()"
		}
		if sym.Extern != nil {
			return name + "()"
		}
		return name + "()"
	}
	if sym.Kind == SymConstant {
		// Propagating the folded value keeps constant conditions visible to
		// the optimizer's branch elimination.
		if sym.ConstValue != nil {
			return constLiteral(sym.ConstValue)
		}
		return sanitize(sym.Name)
	}
	return g.varRef(e.Sym, e.Name)
}

func (g *generator) genUnary(e *UnaryExpr) string {
	x := g.genExpr(e.X)
	switch e.Op {
	case MINUS:
		return "(-" + x + ")"
	case PLUS:
		return x
	case KwNot:
		if t := exprType(e.X); t != nil && t.Kind != KindBoolean && t.Kind != KindVariant && t.IsNumeric() {
			return "(~" + x + ")"
		}
		return "(not " + x + ")"
	}
	return x
}

func (g *generator) genBinary(e *BinaryExpr) string {
	x := g.genExpr(e.X)
	y := g.genExpr(e.Y)
	switch e.Op {
	case PLUS:
		return "(" + x + " + " + y + ")"
	case MINUS:
		return "(" + x + " - " + y + ")"
	case STAR:
		return "(" + x + " * " + y + ")"
	case SLASH:
		return "(" + x + " / " + y + ")"
	case BACKSLASH:
		return "(" + x + " // " + y + ")"
	case KwMod:
		return "(" + x + " % " + y + ")"
	case CARET:
		return "basic_pow(" + x + ", " + y + ")"
	case AMP:
		return "basic_concat(" + x + ", " + y + ")"
	case EQ, KwIs:
		return "(" + x + " == " + y + ")"
	case NEQ:
		return "(" + x + " != " + y + ")"
	case LT:
		return "(" + x + " < " + y + ")"
	case GT:
		return "(" + x + " > " + y + ")"
	case LE:
		return "(" + x + " <= " + y + ")"
	case GE:
		return "(" + x + " >= " + y + ")"
	case KwLike:
		return "basic_like(" + x + ", " + y + ")"
	case KwAnd, KwOr, KwXor:
		boolOp := e.Typ != nil && e.Typ.Kind == KindBoolean
		switch e.Op {
		case KwAnd:
			if boolOp {
				return "(" + x + " and " + y + ")"
			}
			return "(" + x + " & " + y + ")"
		case KwOr:
			if boolOp {
				return "(" + x + " or " + y + ")"
			}
			return "(" + x + " | " + y + ")"
		default:
			if boolOp {
				return "(" + x + " != " + y + ")"
			}
			return "(" + x + " ^ " + y + ")"
		}
	}
	return "(" + x + " + " + y + ")"
}

func (g *generator) genCallOrIndex(e *CallOrIndex) string {
	if e.IsIndex {
		out := g.genExpr(e.Target)
		for _, arg := range e.Args {
			out += "[" + g.genExpr(arg) + "]"
		}
		return out
	}
	var args []string
	for _, arg := range e.Args {
		args = append(args, g.genExpr(arg))
	}
	target := g.callTarget(e.Target)
	return target + "(" + strings.Join(args, ", ") + ")"
}

// callTarget lowers the callee of a call without the implicit-call suffix
// genIdent would add.
func (g *generator) callTarget(e Expr) string {
	switch e := e.(type) {
	case *Ident:
		sym := g.table.Sym(e.Sym)
		if sym != nil && sym.Kind == SymProcedure {
			if sym.Proc != nil {
				name := procDefName(sym.Proc)
				if g.inClass && g.methodOfCurrentClass(sym.Proc) {
					return fmt.Sprintf("self[%q]", name)
				}
				return name
			}
			return sanitize(sym.Name)
		}
		return g.varRef(e.Sym, e.Name)
	case *MemberExpr:
		recv, name := g.memberParts(e)
		return fmt.Sprintf("%s[%q]", recv, name)
	default:
		return g.genExpr(e)
	}
}

func (g *generator) methodOfCurrentClass(p *ProcDecl) bool {
	if sym := g.table.Sym(p.Sym); sym != nil {
		return sym.Scope == g.classScope
	}
	return false
}

func (g *generator) genMember(e *MemberExpr) string {
	recv, name := g.memberParts(e)
	if cls := g.classFor(e); cls != nil {
		if get := findProc(cls.Procs, name, ProcPropertyGet); get != nil {
			return fmt.Sprintf("%s[%q]()", recv, sanitize(name))
		}
	}
	return fmt.Sprintf("%s[%q]", recv, name)
}

// memberParts splits a member access into its lowered receiver text and the
// member name. A nil receiver resolves to the innermost With temp.
func (g *generator) memberParts(e *MemberExpr) (string, string) {
	if e.X == nil {
		if len(g.withStack) == 0 {
			return "_g", e.Name
		}
		return g.withStack[len(g.withStack)-1], e.Name
	}
	return g.genExpr(e.X), e.Name
}

// classFor returns the class declaration of the member's receiver type, if
// the receiver is a known class instance.
func (g *generator) classFor(e *MemberExpr) *ClassDecl {
	var recvType *Type
	if e.X == nil {
		return nil
	}
	recvType = exprType(e.X)
	if recvType == nil || recvType.Kind != KindClass {
		return nil
	}
	return g.classes[strings.ToLower(recvType.Name)]
}

func findProc(procs []*ProcDecl, name string, kind ProcKind) *ProcDecl {
	for _, p := range procs {
		if p.Kind == kind && strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

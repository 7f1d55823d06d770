package compiler

import "fmt"

// Node is implemented by every AST node. Each node carries a source span
// used for diagnostics and source mapping. Nodes form a tree: no node is
// shared, and the only back-references are the symbol/type annotations the
// semantic analyzer attaches in place.
type Node interface {
	Span() Span
}

// Expr is implemented by every node that produces a value.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is implemented by module-level declarations.
type Decl interface {
	Node
	declNode()
}

// Module is the grammar entry point: an optional Option Explicit marker, a
// sequence of declarations, and a sequence of procedures.
type Module struct {
	Name           string
	OptionExplicit bool
	Decls          []Decl
	Procs          []*ProcDecl
	Stmts          []Stmt // module-level executable statements (script style)
	Loc            Span
}

func (m *Module) Span() Span { return m.Loc }

// TypeRef is a source-level type annotation, resolved to a *Type descriptor
// during semantic analysis. An empty Name means no annotation (Variant).
type TypeRef struct {
	Name     string
	Loc      Span
	Resolved *Type // annotated by the type-resolution pass
}

// Param is one procedure parameter.
type Param struct {
	Name     string
	ByVal    bool
	Optional bool
	Type     TypeRef
	Loc      Span
	Sym      SymID
}

//  Declarations

// VarDecl declares one variable. Comma lists in the source expand to one
// VarDecl per name.
type VarDecl struct {
	Name    string
	Type    TypeRef
	Bounds  []int // static array bounds; nil for scalars
	Dynamic bool  // declared with empty parens: Dim a()
	Private bool
	Loc     Span
	Sym     SymID
}

func (d *VarDecl) declNode()  {}
func (d *VarDecl) stmtNode()  {} // Dim is also legal inside procedure bodies
func (d *VarDecl) Span() Span { return d.Loc }

// ConstDecl declares a named compile-time constant.
type ConstDecl struct {
	Name    string
	Type    TypeRef
	Value   Expr
	Private bool
	Loc     Span
	Sym     SymID
}

func (d *ConstDecl) declNode()  {}
func (d *ConstDecl) stmtNode()  {}
func (d *ConstDecl) Span() Span { return d.Loc }

// FieldDef is one field of a user-defined record type.
type FieldDef struct {
	Name   string
	Type   TypeRef
	Bounds []int
	Loc    Span
}

// TypeDecl is a user-defined record: Type Name ... End Type.
type TypeDecl struct {
	Name   string
	Fields []FieldDef
	Loc    Span
	Sym    SymID
}

func (d *TypeDecl) declNode()  {}
func (d *TypeDecl) Span() Span { return d.Loc }

// EnumMember is one member of an enumeration, with an optional explicit value.
type EnumMember struct {
	Name  string
	Value Expr // nil: previous member + 1
	Loc   Span
	Sym   SymID
}

// EnumDecl is an enumeration: Enum Name ... End Enum.
type EnumDecl struct {
	Name    string
	Members []EnumMember
	Loc     Span
	Sym     SymID
}

func (d *EnumDecl) declNode()  {}
func (d *EnumDecl) Span() Span { return d.Loc }

// ExternDecl is a foreign-library binding:
// Declare Function Name Lib "lib" [Alias "alias"] (params) As Type.
type ExternDecl struct {
	Name       string
	Lib        string
	Alias      string
	IsFunction bool
	Params     []Param
	RetType    TypeRef
	Loc        Span
	Sym        SymID
}

func (d *ExternDecl) declNode()  {}
func (d *ExternDecl) Span() Span { return d.Loc }

// ClassDecl groups member variables and procedures: Class Name ... End Class.
type ClassDecl struct {
	Name  string
	Vars  []*VarDecl
	Procs []*ProcDecl
	Loc   Span
	Sym   SymID
}

func (d *ClassDecl) declNode()  {}
func (d *ClassDecl) Span() Span { return d.Loc }

// ProcKind distinguishes the procedure forms.
type ProcKind int

const (
	ProcSub ProcKind = iota
	ProcFunction
	ProcPropertyGet
	ProcPropertyLet
)

func (k ProcKind) String() string {
	switch k {
	case ProcSub:
		return "Sub"
	case ProcFunction:
		return "Function"
	case ProcPropertyGet:
		return "Property Get"
	default:
		return "Property Let"
	}
}

// ProcDecl is a Sub, Function, or Property with parameter list and optional
// return type.
type ProcDecl struct {
	Kind    ProcKind
	Name    string
	Params  []Param
	RetType TypeRef // Functions and Property Gets only
	Body    []Stmt
	Private bool
	Loc     Span
	Sym     SymID

	// Unused is set by the dead-code pass when no reachable call site
	// references the procedure. The optimizer consumes it as a hint.
	Unused bool
}

func (d *ProcDecl) declNode()  {}
func (d *ProcDecl) Span() Span { return d.Loc }

//  Statements

// AssignStmt is  left = value  (optionally prefixed with Let or Set).
type AssignStmt struct {
	Left  Expr
	Value Expr
	IsSet bool // Set obj = ...
	Loc   Span
}

func (s *AssignStmt) stmtNode()  {}
func (s *AssignStmt) Span() Span { return s.Loc }

// CallStmt is a bare call or expression statement.
type CallStmt struct {
	Call Expr
	Loc  Span
}

func (s *CallStmt) stmtNode()  {}
func (s *CallStmt) Span() Span { return s.Loc }

// PrintStmt is the Print output intrinsic.
type PrintStmt struct {
	Args []Expr
	Loc  Span
}

func (s *PrintStmt) stmtNode()  {}
func (s *PrintStmt) Span() Span { return s.Loc }

// ElseIfClause is one ElseIf arm of a block If.
type ElseIfClause struct {
	Cond Expr
	Body []Stmt
	Loc  Span
}

// IfStmt covers both the block and the single-line form.
type IfStmt struct {
	Cond    Expr
	Then    []Stmt
	ElseIfs []ElseIfClause
	Else    []Stmt
	Loc     Span

	// ConstFalse is set by the dead-code pass when Cond is a compile-time
	// constant false; the optimizer consumes it as an elimination hint.
	ConstFalse bool
}

func (s *IfStmt) stmtNode()  {}
func (s *IfStmt) Span() Span { return s.Loc }

// ForStmt is the counted loop: For v = from To to [Step step] ... Next.
type ForStmt struct {
	Var  *Ident
	From Expr
	To   Expr
	Step Expr // nil: step 1
	Body []Stmt
	Loc  Span
}

func (s *ForStmt) stmtNode()  {}
func (s *ForStmt) Span() Span { return s.Loc }

// ForEachStmt is the collection loop: For Each v In coll ... Next.
type ForEachStmt struct {
	Var  *Ident
	Coll Expr
	Body []Stmt
	Loc  Span
}

func (s *ForEachStmt) stmtNode()  {}
func (s *ForEachStmt) Span() Span { return s.Loc }

// DoLoopStmt is Do [While|Until cond] ... Loop [While|Until cond].
// Cond is nil for an unconditional Do ... Loop.
type DoLoopStmt struct {
	Cond     Expr
	Until    bool // condition is an Until (negated) test
	PostTest bool // condition sits on the Loop line
	Body     []Stmt
	Loc      Span
}

func (s *DoLoopStmt) stmtNode()  {}
func (s *DoLoopStmt) Span() Span { return s.Loc }

// WhileStmt is the legacy While ... Wend form.
type WhileStmt struct {
	Cond Expr
	Body []Stmt
	Loc  Span
}

func (s *WhileStmt) stmtNode()  {}
func (s *WhileStmt) Span() Span { return s.Loc }

// CaseItem is one entry of a Case value list: a plain value, a "lo To hi"
// range, or an "Is <op> value" comparison.
type CaseItem struct {
	Value Expr
	To    Expr      // non-nil for ranges
	IsOp  TokenKind // EQ/NEQ/LT/GT/LE/GE for "Is" forms; zero otherwise
	Loc   Span
}

// CaseClause is one Case arm with its value list and body.
type CaseClause struct {
	Items []CaseItem // nil for Case Else
	Body  []Stmt
	Loc   Span
}

// SelectStmt is Select Case subject ... End Select.
type SelectStmt struct {
	Subject Expr
	Cases   []CaseClause
	Else    []Stmt
	Loc     Span
}

func (s *SelectStmt) stmtNode()  {}
func (s *SelectStmt) Span() Span { return s.Loc }

// WithStmt establishes an implicit receiver for bare member references in
// its body.
type WithStmt struct {
	Receiver Expr
	Body     []Stmt
	Loc      Span
}

func (s *WithStmt) stmtNode()  {}
func (s *WithStmt) Span() Span { return s.Loc }

// ExitStmt is Exit Sub / Function / Property / For / Do.
type ExitStmt struct {
	What TokenKind // KwSub, KwFunction, KwProperty, KwFor, KwDo
	Loc  Span
}

func (s *ExitStmt) stmtNode()  {}
func (s *ExitStmt) Span() Span { return s.Loc }

// OnErrorStmt is On Error Resume Next / On Error Goto label / On Error Goto 0.
type OnErrorStmt struct {
	ResumeNext bool
	Label      string // empty for Goto 0
	Loc        Span
}

func (s *OnErrorStmt) stmtNode()  {}
func (s *OnErrorStmt) Span() Span { return s.Loc }

// ResumeStmt is Resume / Resume Next / Resume label.
type ResumeStmt struct {
	Next  bool
	Label string
	Loc   Span
}

func (s *ResumeStmt) stmtNode()  {}
func (s *ResumeStmt) Span() Span { return s.Loc }

// GotoStmt is an unconditional jump to a label (GoSub parses to the same
// node with IsGoSub set).
type GotoStmt struct {
	Label   string
	IsGoSub bool
	Loc     Span
}

func (s *GotoStmt) stmtNode()  {}
func (s *GotoStmt) Span() Span { return s.Loc }

// LabelStmt is a line label: an identifier followed by a colon.
type LabelStmt struct {
	Name string
	Loc  Span
}

func (s *LabelStmt) stmtNode()  {}
func (s *LabelStmt) Span() Span { return s.Loc }

// ReturnStmt is the GoSub return.
type ReturnStmt struct {
	Loc Span
}

func (s *ReturnStmt) stmtNode()  {}
func (s *ReturnStmt) Span() Span { return s.Loc }

// ReDimStmt resizes a dynamic array.
type ReDimStmt struct {
	Preserve bool
	Target   *Ident
	Bounds   []Expr
	Loc      Span
}

func (s *ReDimStmt) stmtNode()  {}
func (s *ReDimStmt) Span() Span { return s.Loc }

// EraseStmt clears an array back to its zero state.
type EraseStmt struct {
	Target *Ident
	Loc    Span
}

func (s *EraseStmt) stmtNode()  {}
func (s *EraseStmt) Span() Span { return s.Loc }

// StopStmt halts execution in the host.
type StopStmt struct {
	Loc Span
}

func (s *StopStmt) stmtNode()  {}
func (s *StopStmt) Span() Span { return s.Loc }

// ErrorStmt is the placeholder the parser produces for a statement it could
// not parse. It preserves tree shape for downstream passes; its span is the
// span of the reported diagnostic.
type ErrorStmt struct {
	Loc Span
}

func (s *ErrorStmt) stmtNode()  {}
func (s *ErrorStmt) Span() Span { return s.Loc }

//  Expressions

// NumberLit is a numeric literal tagged with its inferred narrowest type.
type NumberLit struct {
	Text    string
	Value   float64
	IsInt   bool
	NumKind NumericSubtype
	Loc     Span
}

func (e *NumberLit) exprNode()  {}
func (e *NumberLit) Span() Span { return e.Loc }

// StringLit is a string constant with escapes already resolved.
type StringLit struct {
	Value string
	Loc   Span
}

func (e *StringLit) exprNode()  {}
func (e *StringLit) Span() Span { return e.Loc }

// DateLit retains the text between the hashes verbatim.
type DateLit struct {
	Text string
	Loc  Span
}

func (e *DateLit) exprNode()  {}
func (e *DateLit) Span() Span { return e.Loc }

// BoolLit is True or False.
type BoolLit struct {
	Value bool
	Loc   Span
}

func (e *BoolLit) exprNode()  {}
func (e *BoolLit) Span() Span { return e.Loc }

// NothingLit covers Nothing, Null, and Empty.
type NothingLit struct {
	Which TokenKind
	Loc   Span
}

func (e *NothingLit) exprNode()  {}
func (e *NothingLit) Span() Span { return e.Loc }

// Ident is a reference to a named entity. Sym and Typ are annotations
// attached by the semantic analyzer; Sym is a non-owning back-reference
// into the symbol arena, never an ownership edge.
type Ident struct {
	Name string
	Loc  Span
	Sym  SymID // NoSym until resolved
	Typ  *Type
}

func (e *Ident) exprNode()  {}
func (e *Ident) Span() Span { return e.Loc }
func (e *Ident) String() string {
	return fmt.Sprintf("Ident(%s)", e.Name)
}

// UnaryExpr is Not x, -x, or +x.
type UnaryExpr struct {
	Op  TokenKind
	X   Expr
	Loc Span
	Typ *Type
}

func (e *UnaryExpr) exprNode()  {}
func (e *UnaryExpr) Span() Span { return e.Loc }

// BinaryExpr is x Op y for every binary operator including And/Or/Xor,
// Mod, integer division, and string concatenation.
type BinaryExpr struct {
	Op  TokenKind
	X   Expr
	Y   Expr
	Loc Span
	Typ *Type
}

func (e *BinaryExpr) exprNode()  {}
func (e *BinaryExpr) Span() Span { return e.Loc }

// CallOrIndex is target(args). The source syntax does not distinguish a
// procedure call from an array index; the semantic analyzer sets IsIndex
// once the target symbol is known.
type CallOrIndex struct {
	Target  Expr
	Args    []Expr
	IsIndex bool
	Loc     Span
	Typ     *Type
}

func (e *CallOrIndex) exprNode()  {}
func (e *CallOrIndex) Span() Span { return e.Loc }

// MemberExpr is x.Name, or .Name inside a With block (X == nil).
type MemberExpr struct {
	X    Expr
	Name string
	Loc  Span
	Typ  *Type
}

func (e *MemberExpr) exprNode()  {}
func (e *MemberExpr) Span() Span { return e.Loc }

// NewExpr instantiates a class: New ClassName.
type NewExpr struct {
	TypeName string
	Loc      Span
	Typ      *Type
}

func (e *NewExpr) exprNode()  {}
func (e *NewExpr) Span() Span { return e.Loc }

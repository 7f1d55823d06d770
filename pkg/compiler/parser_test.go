package compiler

import (
	"testing"
)

// parseSource is the test entry: lex then parse, failing on lex errors.
func parseSource(t *testing.T, src string) (*Module, []Diagnostic) {
	t.Helper()
	tokens, lexDiags := Lex(src)
	if HasErrors(lexDiags) {
		t.Fatalf("lex errors: %v", lexDiags)
	}
	return Parse(tokens, "test")
}

// mustParse fails the test on any parse diagnostic.
func mustParse(t *testing.T, src string) *Module {
	t.Helper()
	mod, diags := parseSource(t, src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	return mod
}

func TestParseDim(t *testing.T) {
	mod := mustParse(t, "Dim count As Integer\nDim name As String, age As Long\nPrivate hidden As Double")
	if len(mod.Decls) != 4 {
		t.Fatalf("got %d decls, want 4", len(mod.Decls))
	}
	v0 := mod.Decls[0].(*VarDecl)
	if v0.Name != "count" || v0.Type.Name != "Integer" {
		t.Errorf("decl 0: %q As %q", v0.Name, v0.Type.Name)
	}
	v2 := mod.Decls[2].(*VarDecl)
	if v2.Name != "age" || v2.Type.Name != "Long" {
		t.Errorf("decl 2: %q As %q", v2.Name, v2.Type.Name)
	}
	if !mod.Decls[3].(*VarDecl).Private {
		t.Error("decl 3 should be private")
	}
}

func TestParseArrayDim(t *testing.T) {
	mod := mustParse(t, "Dim grid(10, 20) As Integer\nDim open_ended() As String")
	g := mod.Decls[0].(*VarDecl)
	if len(g.Bounds) != 2 || g.Bounds[0] != 10 || g.Bounds[1] != 20 {
		t.Errorf("bounds %v", g.Bounds)
	}
	d := mod.Decls[1].(*VarDecl)
	if !d.Dynamic {
		t.Error("empty parens should mark the array dynamic")
	}
}

func TestParseConst(t *testing.T) {
	mod := mustParse(t, "Const Max As Integer = 100\nConst Greeting = \"hi\"")
	c := mod.Decls[0].(*ConstDecl)
	if c.Name != "Max" {
		t.Errorf("name %q", c.Name)
	}
	if _, ok := c.Value.(*NumberLit); !ok {
		t.Errorf("value %T, want NumberLit", c.Value)
	}
}

func TestParseOptionExplicit(t *testing.T) {
	mod := mustParse(t, "Option Explicit\nDim a")
	if !mod.OptionExplicit {
		t.Error("OptionExplicit not set")
	}
}

func TestParseTypeDecl(t *testing.T) {
	src := `
Type Point
    X As Double
    Y As Double
    Tag As String
End Type
`
	mod := mustParse(t, src)
	td := mod.Decls[0].(*TypeDecl)
	if td.Name != "Point" || len(td.Fields) != 3 {
		t.Fatalf("got %s with %d fields", td.Name, len(td.Fields))
	}
	if td.Fields[1].Name != "Y" || td.Fields[1].Type.Name != "Double" {
		t.Errorf("field 1: %+v", td.Fields[1])
	}
}

func TestParseEnumDecl(t *testing.T) {
	src := `
Enum Color
    Red
    Green = 5
    Blue
End Enum
`
	mod := mustParse(t, src)
	ed := mod.Decls[0].(*EnumDecl)
	if len(ed.Members) != 3 {
		t.Fatalf("got %d members", len(ed.Members))
	}
	if ed.Members[0].Value != nil {
		t.Error("Red should have an implicit value")
	}
	if ed.Members[1].Value == nil {
		t.Error("Green should carry an explicit value")
	}
}

func TestParseDeclare(t *testing.T) {
	src := `Declare Function GetTick Lib "kernel32" Alias "GetTickCount" () As Long
Declare Sub Beep Lib "kernel32" (ByVal freq As Long, ByVal ms As Long)`
	mod := mustParse(t, src)
	f := mod.Decls[0].(*ExternDecl)
	if !f.IsFunction || f.Lib != "kernel32" || f.Alias != "GetTickCount" {
		t.Errorf("extern 0: %+v", f)
	}
	s := mod.Decls[1].(*ExternDecl)
	if s.IsFunction || len(s.Params) != 2 || !s.Params[0].ByVal {
		t.Errorf("extern 1: %+v", s)
	}
}

func TestParseProcs(t *testing.T) {
	src := `
Sub Greet(name As String)
    Print "hello", name
End Sub

Function Add(a As Integer, b As Integer) As Integer
    Add = a + b
End Function

Private Function Hidden() As Long
    Hidden = 1
End Function
`
	mod := mustParse(t, src)
	if len(mod.Procs) != 3 {
		t.Fatalf("got %d procs", len(mod.Procs))
	}
	if mod.Procs[0].Kind != ProcSub || len(mod.Procs[0].Params) != 1 {
		t.Errorf("proc 0: %+v", mod.Procs[0])
	}
	add := mod.Procs[1]
	if add.Kind != ProcFunction || add.RetType.Name != "Integer" {
		t.Errorf("proc 1: kind %v ret %q", add.Kind, add.RetType.Name)
	}
	if len(add.Body) != 1 {
		t.Fatalf("Add body: %d stmts", len(add.Body))
	}
	if _, ok := add.Body[0].(*AssignStmt); !ok {
		t.Errorf("Add body[0]: %T", add.Body[0])
	}
	if !mod.Procs[2].Private {
		t.Error("proc 2 should be private")
	}
}

func TestParseProperty(t *testing.T) {
	src := `
Class Counter
    Private n As Long

    Property Get Value() As Long
        Value = n
    End Property

    Property Let Value(v As Long)
        n = v
    End Property
End Class
`
	mod := mustParse(t, src)
	cd := mod.Decls[0].(*ClassDecl)
	if len(cd.Vars) != 1 || len(cd.Procs) != 2 {
		t.Fatalf("class: %d vars %d procs", len(cd.Vars), len(cd.Procs))
	}
	if cd.Procs[0].Kind != ProcPropertyGet || cd.Procs[1].Kind != ProcPropertyLet {
		t.Errorf("kinds %v %v", cd.Procs[0].Kind, cd.Procs[1].Kind)
	}
}

func TestParseIfForms(t *testing.T) {
	src := `
Sub Demo(x As Integer)
    If x > 0 Then Print "pos"
    If x > 0 Then
        Print "pos"
    ElseIf x < 0 Then
        Print "neg"
    Else
        Print "zero"
    End If
End Sub
`
	mod := mustParse(t, src)
	body := mod.Procs[0].Body
	if len(body) != 2 {
		t.Fatalf("body: %d stmts", len(body))
	}
	oneLine := body[0].(*IfStmt)
	if len(oneLine.Then) != 1 || oneLine.Else != nil {
		t.Errorf("single-line if: %+v", oneLine)
	}
	block := body[1].(*IfStmt)
	if len(block.ElseIfs) != 1 || len(block.Else) != 1 {
		t.Errorf("block if: %d elseifs, %d else", len(block.ElseIfs), len(block.Else))
	}
}

func TestParseLoops(t *testing.T) {
	src := `
Sub Demo()
    Dim i As Integer
    For i = 1 To 10 Step 2
        Print i
    Next
    Do While i > 0
        i = i - 1
    Loop
    Do
        i = i + 1
    Loop Until i > 5
    While i > 0
        i = i - 1
    Wend
End Sub
`
	mod := mustParse(t, src)
	body := mod.Procs[0].Body
	if len(body) != 5 {
		t.Fatalf("body: %d stmts", len(body))
	}
	f := body[1].(*ForStmt)
	if f.Var.Name != "i" || f.Step == nil {
		t.Errorf("for: %+v", f)
	}
	pre := body[2].(*DoLoopStmt)
	if pre.PostTest || pre.Until {
		t.Errorf("pre-test do: %+v", pre)
	}
	post := body[3].(*DoLoopStmt)
	if !post.PostTest || !post.Until {
		t.Errorf("post-test do: %+v", post)
	}
	if _, ok := body[4].(*WhileStmt); !ok {
		t.Errorf("body[4]: %T", body[4])
	}
}

func TestParseSelectCase(t *testing.T) {
	src := `
Sub Demo(x As Integer)
    Select Case x
    Case 1, 2, 3
        Print "small"
    Case 4 To 10
        Print "medium"
    Case Is > 10
        Print "large"
    Case Else
        Print "other"
    End Select
End Sub
`
	mod := mustParse(t, src)
	sel := mod.Procs[0].Body[0].(*SelectStmt)
	if len(sel.Cases) != 3 || sel.Else == nil {
		t.Fatalf("select: %d cases, else %v", len(sel.Cases), sel.Else != nil)
	}
	if len(sel.Cases[0].Items) != 3 {
		t.Errorf("case 0: %d items", len(sel.Cases[0].Items))
	}
	if sel.Cases[1].Items[0].To == nil {
		t.Error("case 1 should be a range")
	}
	if sel.Cases[2].Items[0].IsOp != GT {
		t.Errorf("case 2 op %v", sel.Cases[2].Items[0].IsOp)
	}
}

func TestParseWith(t *testing.T) {
	src := `
Sub Demo()
    Dim p As Point
    With p
        .X = 1
        .Y = 2
    End With
End Sub
`
	mod := mustParse(t, src)
	w := mod.Procs[0].Body[1].(*WithStmt)
	if len(w.Body) != 2 {
		t.Fatalf("with body: %d", len(w.Body))
	}
	assign := w.Body[0].(*AssignStmt)
	m := assign.Left.(*MemberExpr)
	if m.X != nil || m.Name != "X" {
		t.Errorf("bare member: %+v", m)
	}
}

func TestParseErrorHandling(t *testing.T) {
	src := `
Sub Demo()
    On Error Resume Next
    On Error Goto handler
    On Error Goto 0
handler:
    Resume Next
End Sub
`
	mod := mustParse(t, src)
	body := mod.Procs[0].Body
	if !body[0].(*OnErrorStmt).ResumeNext {
		t.Error("stmt 0 should be Resume Next form")
	}
	if body[1].(*OnErrorStmt).Label != "handler" {
		t.Errorf("stmt 1 label %q", body[1].(*OnErrorStmt).Label)
	}
	if body[2].(*OnErrorStmt).Label != "" {
		t.Error("Goto 0 should clear the label")
	}
	if _, ok := body[3].(*LabelStmt); !ok {
		t.Errorf("stmt 3: %T", body[3])
	}
}

func TestParsePrecedence(t *testing.T) {
	mod := mustParse(t, "x = 1 + 2 * 3")
	assign := mod.Stmts[0].(*AssignStmt)
	add := assign.Value.(*BinaryExpr)
	if add.Op != PLUS {
		t.Fatalf("root op %v, want PLUS", add.Op)
	}
	mul, ok := add.Y.(*BinaryExpr)
	if !ok || mul.Op != STAR {
		t.Errorf("right operand %T, want STAR BinaryExpr", add.Y)
	}
}

func TestParseExponentRightAssoc(t *testing.T) {
	mod := mustParse(t, "x = 2 ^ 3 ^ 2")
	assign := mod.Stmts[0].(*AssignStmt)
	outer := assign.Value.(*BinaryExpr)
	if outer.Op != CARET {
		t.Fatalf("root op %v", outer.Op)
	}
	if inner, ok := outer.Y.(*BinaryExpr); !ok || inner.Op != CARET {
		t.Errorf("^ should associate right, got %T on the right", outer.Y)
	}
}

func TestParseCallForms(t *testing.T) {
	src := `
Sub Demo()
    Call Helper(1, 2)
    Helper 1, 2
    Helper
End Sub
`
	mod := mustParse(t, src)
	body := mod.Procs[0].Body
	for i, stmt := range body {
		if _, ok := stmt.(*CallStmt); !ok {
			t.Errorf("stmt %d: %T, want CallStmt", i, stmt)
		}
	}
	withArgs := body[1].(*CallStmt).Call.(*CallOrIndex)
	if len(withArgs.Args) != 2 {
		t.Errorf("paren-less call args: %d", len(withArgs.Args))
	}
}

func TestParseNewAndMember(t *testing.T) {
	src := "Set obj = New Widget\nobj.Move 3, 4"
	mod := mustParse(t, src)
	set := mod.Stmts[0].(*AssignStmt)
	if !set.IsSet {
		t.Error("Set flag missing")
	}
	if _, ok := set.Value.(*NewExpr); !ok {
		t.Errorf("value %T", set.Value)
	}
	call := mod.Stmts[1].(*CallStmt).Call.(*CallOrIndex)
	m := call.Target.(*MemberExpr)
	if m.Name != "Move" {
		t.Errorf("member %q", m.Name)
	}
}

func TestParseRecovery(t *testing.T) {
	// The bad line produces one diagnostic; both good lines still parse.
	src := "Dim a As Integer\nDim = broken\nDim b As Integer"
	mod, diags := parseSource(t, src)
	if !HasErrors(diags) {
		t.Fatal("expected a syntax diagnostic")
	}
	if diags[0].Code != CodeUnexpectedToken {
		t.Errorf("code %s", diags[0].Code)
	}
	var names []string
	for _, d := range mod.Decls {
		if v, ok := d.(*VarDecl); ok {
			names = append(names, v.Name)
		}
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("recovered decls: %v", names)
	}
}

func TestParseDepthBound(t *testing.T) {
	var sb []byte
	sb = append(sb, []byte("x = ")...)
	for i := 0; i < 300; i++ {
		sb = append(sb, '(')
	}
	sb = append(sb, '1')
	for i := 0; i < 300; i++ {
		sb = append(sb, ')')
	}
	_, diags := parseSource(t, string(sb))
	found := false
	for _, d := range diags {
		if d.Code == CodeExprTooComplex {
			found = true
		}
	}
	if !found {
		t.Error("expected the nesting-depth diagnostic")
	}
}

func TestParseScriptStatements(t *testing.T) {
	src := "Print \"start\"\nx = 1\nPrint x"
	mod := mustParse(t, src)
	if len(mod.Stmts) != 3 {
		t.Fatalf("got %d script statements", len(mod.Stmts))
	}
	if _, ok := mod.Stmts[0].(*PrintStmt); !ok {
		t.Errorf("stmt 0: %T", mod.Stmts[0])
	}
}

package compiler

import (
	"strings"
	"testing"
)

// generateSource lowers src with no optimization and fails on any error
// diagnostic along the way.
func generateSource(t *testing.T, src string) (string, SourceMap) {
	t.Helper()
	mod, table, diags := analyzeSource(t, src)
	if HasErrors(diags) {
		t.Fatalf("semantic errors: %v", diags)
	}
	code, smap, genDiags, err := Generate(mod, table)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if HasErrors(genDiags) {
		t.Fatalf("codegen errors: %v", genDiags)
	}
	return code, smap
}

func wantContains(t *testing.T, code string, snippets ...string) {
	t.Helper()
	for _, snip := range snippets {
		if !strings.Contains(code, snip) {
			t.Errorf("generated code missing %q\n%s", snip, code)
		}
	}
}

func TestGenModuleVars(t *testing.T) {
	src := `
Dim total As Long
Dim name As String

Sub Bump()
    total = total + 1
End Sub

Bump
Print total
`
	code, _ := generateSource(t, src)
	wantContains(t, code,
		`_g["total"] = 0`,
		`_g["name"] = ""`,
		`_g["total"] = (_g["total"] + 1)`,
		"def Bump():",
	)
}

func TestGenFunctionReturnSlot(t *testing.T) {
	src := `
Function Add(a As Long, b As Long) As Long
    Add = a + b
End Function
Print Add(1, 2)
`
	code, _ := generateSource(t, src)
	wantContains(t, code,
		"def Add(a, b):",
		"Add_ret = 0",
		"Add_ret = (a + b)",
		"return Add_ret",
		"basic_print(Add(1, 2))",
	)
}

func TestGenRecursionCallsFunction(t *testing.T) {
	src := `
Function Fact(n As Long) As Long
    If n <= 1 Then
        Fact = 1
    Else
        Fact = n * Fact(n - 1)
    End If
End Function
Print Fact(5)
`
	code, _ := generateSource(t, src)
	// The recursive reference must call the def, not read the slot.
	wantContains(t, code, "Fact_ret = (n * Fact((n - 1)))")
}

func TestGenOperators(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`x = 7 \ 2`, "(7 // 2)"},
		{"x = 7 Mod 2", "(7 % 2)"},
		{"x = 2 ^ 8", "basic_pow(2, 8)"},
		{`s = "a" & "b"`, `basic_concat("a", "b")`},
		{"x = 1 <> 2", "(1 != 2)"},
		{`s = "a*" : b = "abc" Like s`, `basic_like("abc",`},
	}
	for _, tt := range tests {
		code, _ := generateSource(t, tt.src)
		if !strings.Contains(code, tt.want) {
			t.Errorf("%s: missing %q\n%s", tt.src, tt.want, code)
		}
	}
}

func TestGenLogicalVsBitwise(t *testing.T) {
	src := `
Dim p As Boolean
Dim q As Boolean
Dim r As Boolean
r = p And q
Dim m As Long
m = 6 And 3
`
	code, _ := generateSource(t, src)
	wantContains(t, code,
		`(_g["p"] and _g["q"])`,
		"(6 & 3)",
	)
}

func TestGenCountedFor(t *testing.T) {
	src := `
Sub Demo()
    Dim i As Integer
    For i = 1 To 10 Step 2
        Print i
    Next
End Sub
Demo
`
	code, _ := generateSource(t, src)
	wantContains(t, code, "for i in basic_range(1, 10, 2):")
}

func TestGenForWithModuleCounter(t *testing.T) {
	// The counter lives in _g, which cannot be a for target; a temp
	// carries each iteration value into the slot.
	src := `
Dim i As Integer
For i = 1 To 3
    Print i
Next
`
	code, _ := generateSource(t, src)
	if !strings.Contains(code, "for _i1 in basic_range(1, 3, 1):") {
		t.Fatalf("missing temp loop:\n%s", code)
	}
	wantContains(t, code, `_g["i"] = _i1`)
}

func TestGenDoLoopForms(t *testing.T) {
	src := `
Sub Demo()
    Dim n As Long
    n = 10
    Do While n > 0
        n = n - 1
    Loop
    Do
        n = n + 1
    Loop Until n > 5
End Sub
Demo
`
	code, _ := generateSource(t, src)
	wantContains(t, code,
		"while (n > 0):",
		"while True:",
		"if (n > 5):",
		"break",
	)
}

func TestGenSelectCase(t *testing.T) {
	src := `
Sub Demo(x As Integer)
    Select Case x
    Case 1, 2
        Print "low"
    Case 3 To 9
        Print "mid"
    Case Is >= 10
        Print "high"
    Case Else
        Print "other"
    End Select
End Sub
Demo 4
`
	code, _ := generateSource(t, src)
	wantContains(t, code,
		"_sel1 = x",
		"if _sel1 == 1 or _sel1 == 2:",
		"elif (_sel1 >= 3 and _sel1 <= 9):",
		"elif (_sel1 >= 10):",
		"else:",
	)
}

func TestGenWith(t *testing.T) {
	src := `
Type Point
    X As Double
    Y As Double
End Type
Dim p As Point
With p
    .X = 1.5
    .Y = 2.5
End With
Print p.X
`
	code, _ := generateSource(t, src)
	wantContains(t, code,
		`_with1 = _g["p"]`,
		`_with1["X"] = 1.5`,
		`_with1["Y"] = 2.5`,
	)
}

func TestGenRecord(t *testing.T) {
	src := `
Type Point
    X As Double
    Y As Double
End Type
Dim p As Point
p.X = 3.0
Print p.X
`
	code, _ := generateSource(t, src)
	wantContains(t, code,
		"def Point_New():",
		`return {"X": 0.0, "Y": 0.0}`,
		`_g["p"] = Point_New()`,
		`_g["p"]["X"] = 3.0`,
	)
}

func TestGenClass(t *testing.T) {
	src := `
Class Counter
    Private n As Long

    Sub Bump()
        n = n + 1
    End Sub

    Property Get Value() As Long
        Value = n
    End Property

    Property Let Value(v As Long)
        n = v
    End Property
End Class

Dim c As Counter
Set c = New Counter
c.Value = 5
c.Bump
Print c.Value
`
	code, _ := generateSource(t, src)
	wantContains(t, code,
		"def Counter_New():",
		"self = {}",
		`self["n"] = 0`,
		"def Bump():",
		`self["n"] = (self["n"] + 1)`,
		`self["Bump"] = Bump`,
		"def Value_Let(v):",
		"return self",
		`_g["c"] = Counter_New()`,
		`_g["c"]["Value_Let"](5)`,
		`_g["c"]["Bump"]()`,
		`basic_print(_g["c"]["Value"]())`,
	)
}

func TestGenArrays(t *testing.T) {
	src := `
Dim grid(3, 4) As Long
Dim open_list() As String
grid(1, 2) = 9
ReDim Preserve open_list(10)
Erase grid
Print grid(1, 2)
`
	code, _ := generateSource(t, src)
	wantContains(t, code,
		`_g["grid"] = basic_array([4, 5], 0)`,
		`_g["open_list"] = basic_array([], None)`,
		`_g["grid"][1][2] = 9`,
		`_g["open_list"] = basic_redim(_g["open_list"], [10], True)`,
		`_g["grid"] = basic_erase(_g["grid"])`,
	)
}

func TestGenOnError(t *testing.T) {
	src := `
Sub Demo()
    On Error Resume Next
    On Error Goto 0
End Sub
Demo
`
	code, _ := generateSource(t, src)
	wantContains(t, code,
		"basic_error_mode(1)",
		"basic_error_mode(0)",
	)
}

func TestGenGotoWarns(t *testing.T) {
	src := `
Sub Demo()
    Goto skip
    Print "a"
skip:
    Print "b"
End Sub
Demo
`
	mod, table, diags := analyzeSource(t, src)
	if HasErrors(diags) {
		t.Fatalf("semantic errors: %v", diags)
	}
	_, _, genDiags, err := Generate(mod, table)
	if err != nil {
		t.Fatal(err)
	}
	if !hasCode(genDiags, CodeUnsupportedLower) {
		t.Errorf("expected W006, got %v", codesOf(genDiags))
	}
}

func TestGenExitForms(t *testing.T) {
	src := `
Function Find(limit As Long) As Long
    Dim i As Long
    For i = 1 To limit
        If i = 3 Then
            Find = i
            Exit Function
        End If
        If i > 10 Then
            Exit For
        End If
    Next
End Function
Print Find(5)
`
	code, _ := generateSource(t, src)
	wantContains(t, code,
		"return Find_ret",
		"break",
	)
}

func TestGenReservedNameSanitized(t *testing.T) {
	src := `
Sub Demo(lambda As Long)
    Print lambda
End Sub
Demo 1
`
	code, _ := generateSource(t, src)
	wantContains(t, code, "def Demo(lambda_):")
}

func TestGenDateLiteral(t *testing.T) {
	code, _ := generateSource(t, "d = #1/2/2003#\nPrint d")
	wantContains(t, code, `basic_date("1/2/2003")`)
}

func TestSourceMap(t *testing.T) {
	src := `Dim a As Long
a = 41
Print a + 1
`
	code, smap := generateSource(t, src)
	lines := strings.Split(code, "\n")
	// Find the generated line for the assignment and check it maps back to
	// source line 2.
	genLine := 0
	for i, line := range lines {
		if strings.Contains(line, `_g["a"] = 41`) {
			genLine = i + 1
		}
	}
	if genLine == 0 {
		t.Fatalf("assignment not found:\n%s", code)
	}
	span, ok := smap.Lookup(genLine)
	if !ok {
		t.Fatalf("no mapping for line %d\n%s", genLine, smap.String())
	}
	if span.StartLine != 2 {
		t.Errorf("mapped to source line %d, want 2", span.StartLine)
	}
}

func TestSourceMapMonotonic(t *testing.T) {
	src := `
Sub Demo()
    Print "a"
    Print "b"
End Sub
Demo
`
	_, smap := generateSource(t, src)
	for i := 1; i < len(smap.Mappings); i++ {
		if smap.Mappings[i].GenLine < smap.Mappings[i-1].GenLine {
			t.Fatalf("mappings not ordered: %v", smap.Mappings)
		}
	}
}

func TestGenerateNilInputs(t *testing.T) {
	if _, _, _, err := Generate(nil, NewSymbolTable()); err == nil {
		t.Error("nil module should be an internal error")
	}
}

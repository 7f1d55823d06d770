package compiler

import (
	"strings"
	"testing"
)

func TestCompileClean(t *testing.T) {
	src := `
Option Explicit
Dim total As Long

Function Square(n As Long) As Long
    Square = n * n
End Function

Sub Main()
    Dim i As Integer
    For i = 1 To 5
        total = total + Square(i)
    Next
    Print total
End Sub

Main
`
	res, err := Compile(src, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("diagnostics: %v", res.Diagnostics)
	}
	if res.GeneratedCode == "" {
		t.Fatal("no code generated")
	}
	if res.Module == nil || res.Symbols == nil {
		t.Error("annotated tree or table missing from the result")
	}
}

func TestCompileAccumulatesAllStages(t *testing.T) {
	// One lex problem, one parse problem, one semantic problem.
	src := "Option Explicit\nDim s As String\ns = \"open\nDim = bad\nunknown = 1"
	res, err := Compile(src, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !hasCode(res.Diagnostics, CodeUnterminatedStr) {
		t.Errorf("lex diagnostic missing: %v", codesOf(res.Diagnostics))
	}
	if !hasCode(res.Diagnostics, CodeUnexpectedToken) {
		t.Errorf("parse diagnostic missing: %v", codesOf(res.Diagnostics))
	}
	if !hasCode(res.Diagnostics, CodeUndeclaredIdent) {
		t.Errorf("semantic diagnostic missing: %v", codesOf(res.Diagnostics))
	}
}

func TestCompileGenerateOnErrors(t *testing.T) {
	src := "Option Explicit\nx = 1"

	// Default: best-effort output even with errors.
	res, err := Compile(src, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !HasErrors(res.Diagnostics) {
		t.Fatal("expected error diagnostics")
	}
	if res.GeneratedCode == "" {
		t.Error("best-effort generation skipped")
	}

	// Turning it off suppresses output.
	cfg := DefaultConfig()
	cfg.GenerateOnErrors = false
	res, err = Compile(src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.GeneratedCode != "" {
		t.Error("generation should be suppressed on errors")
	}
}

func TestCompileHaltOnFatalOnly(t *testing.T) {
	src := "Option Explicit\nx = 1"
	cfg := DefaultConfig()
	cfg.HaltOnFatalOnly = false
	res, err := Compile(src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.GeneratedCode != "" {
		t.Error("strict mode should stop before generation")
	}
	if !HasErrors(res.Diagnostics) {
		t.Error("diagnostics should still be reported")
	}
}

func TestCompileModuleName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModuleName = "billing"
	res, err := Compile("Print 1", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.GeneratedCode, "# module billing") {
		t.Errorf("module header missing:\n%s", res.GeneratedCode)
	}
	if res.Module.Name != "billing" {
		t.Errorf("module name %q", res.Module.Name)
	}
}

func TestCompileEmptyModuleName(t *testing.T) {
	res, err := Compile("Print 1", Config{GenerateOnErrors: true, HaltOnFatalOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Module.Name != "main" {
		t.Errorf("default module name %q, want main", res.Module.Name)
	}
}

func TestCompileOptimizationLevels(t *testing.T) {
	src := `
Const Debugging = False

Sub Trace()
    Print "trace"
End Sub

If Debugging Then
    Trace
End If
Print "done"
`
	cfg := DefaultConfig()
	res0, err := Compile(src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	cfg.OptimizationLevel = 1
	res1, err := Compile(src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	// Unoptimized output keeps the constant-false branch; level 1 removes it
	// and the now-unreachable procedure.
	if !strings.Contains(res0.GeneratedCode, "def Trace") {
		t.Errorf("level 0 dropped code:\n%s", res0.GeneratedCode)
	}
	if strings.Contains(res1.GeneratedCode, "def Trace") {
		t.Errorf("level 1 kept the dead procedure:\n%s", res1.GeneratedCode)
	}
	if !strings.Contains(res1.GeneratedCode, `"done"`) {
		t.Errorf("live code dropped:\n%s", res1.GeneratedCode)
	}
}

func TestCompileDiagnosticsSorted(t *testing.T) {
	src := "Option Explicit\nz = 1\ny = 2\nDim = bad\nx = 3"
	res, err := Compile(src, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(res.Diagnostics); i++ {
		prev, cur := res.Diagnostics[i-1].Span, res.Diagnostics[i].Span
		if cur.StartLine < prev.StartLine {
			t.Fatalf("diagnostics unsorted: %v", res.Diagnostics)
		}
	}
}

func TestCompileDeterministic(t *testing.T) {
	src := `
Dim a As Long
Dim b As Long
Sub Main()
    a = 1
    b = 2
    Print a + b
End Sub
Main
`
	cfg := DefaultConfig()
	cfg.OptimizationLevel = 3
	first, err := Compile(src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		res, err := Compile(src, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if res.GeneratedCode != first.GeneratedCode {
			t.Fatalf("run %d differs", i)
		}
	}
}

func TestCompileNeverPanicsOnJunk(t *testing.T) {
	inputs := []string{
		"",
		"\n\n\n",
		"End Sub",
		"Next",
		"Loop",
		"Else",
		"((((((((",
		"Sub\nEnd Sub",
		"Class\nEnd Class",
		"\"unterminated",
		"Dim a As\nDim b As Integer",
	}
	for _, src := range inputs {
		res, err := Compile(src, DefaultConfig())
		if err != nil {
			t.Errorf("%q: internal error: %v", src, err)
		}
		_ = res
	}
}

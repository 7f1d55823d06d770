package compiler

import (
	"context"
	"testing"
)

func TestCompileProject(t *testing.T) {
	units := []Unit{
		{Name: "mathlib", Source: `
Function Square(n As Long) As Long
    Square = n * n
End Function
Print Square(3)
`},
		{Name: "strlib", Source: `
Function Shout(s As String) As String
    Shout = s & "!"
End Function
Print Shout("hey")
`},
	}
	index := NewProjectIndex()
	results, err := CompileProject(context.Background(), units, DefaultConfig(), index)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	for name, res := range results {
		if res.GeneratedCode == "" {
			t.Errorf("unit %s produced no code", name)
		}
	}
	if index.Units() != 2 {
		t.Errorf("index holds %d units", index.Units())
	}
}

func TestProjectIndexLookup(t *testing.T) {
	index := NewProjectIndex()
	units := []Unit{
		{Name: "a", Source: "Function Helper() As Long\n    Helper = 1\nEnd Function\nPrint Helper()"},
		{Name: "b", Source: "Function Helper() As Long\n    Helper = 2\nEnd Function\nPrint Helper()"},
	}
	if _, err := CompileProject(context.Background(), units, DefaultConfig(), index); err != nil {
		t.Fatal(err)
	}

	// The defining unit's own export wins.
	hit, ok := index.Lookup("a", "Helper")
	if !ok {
		t.Fatal("Helper not found")
	}
	if hit.Unit != "a" {
		t.Errorf("lookup from a resolved to unit %s", hit.Unit)
	}
	hit, ok = index.Lookup("b", "helper") // case-insensitive
	if !ok || hit.Unit != "b" {
		t.Errorf("lookup from b: %+v ok=%v", hit, ok)
	}

	if _, ok := index.Lookup("a", "Missing"); ok {
		t.Error("unknown name resolved")
	}
}

func TestProjectIndexDoublePublish(t *testing.T) {
	index := NewProjectIndex()
	table := NewSymbolTable()
	if err := index.Publish("u", table); err != nil {
		t.Fatal(err)
	}
	if err := index.Publish("u", table); err == nil {
		t.Error("second publish should fail")
	}
}

func TestCompileProjectNilIndex(t *testing.T) {
	units := []Unit{{Name: "solo", Source: "Print 1"}}
	results, err := CompileProject(context.Background(), units, DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if results["solo"].GeneratedCode == "" {
		t.Error("no output for solo unit")
	}
}

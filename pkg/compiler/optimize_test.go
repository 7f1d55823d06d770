package compiler

import (
	"strings"
	"testing"
)

func optimizeOrDie(t *testing.T, code string, level int) string {
	t.Helper()
	out, err := Optimize(code, level)
	if err != nil {
		t.Fatalf("Optimize level %d: %v", level, err)
	}
	return out
}

func TestOptimizeLevelZeroIsIdentity(t *testing.T) {
	code := "x = 1\ny = (x + 2)\nbasic_print(y)\n"
	out := optimizeOrDie(t, code, 0)
	if out != code {
		t.Errorf("level 0 changed the text:\n%s", out)
	}
}

func TestOptimizeBadInput(t *testing.T) {
	if _, err := Optimize("def broken(:\n", 1); err == nil {
		t.Error("unparsable input should be an internal error")
	}
}

func TestDeadCodeAfterReturn(t *testing.T) {
	code := `def f():
    return 1
    basic_print("never")

basic_print(f())
`
	out := optimizeOrDie(t, code, 1)
	if strings.Contains(out, "never") {
		t.Errorf("statement after return survived:\n%s", out)
	}
}

func TestDeadCodeConstBranches(t *testing.T) {
	code := `if True:
    basic_print("kept")
if False:
    basic_print("gone")
else:
    basic_print("also kept")
while False:
    basic_print("loop gone")
`
	out := optimizeOrDie(t, code, 1)
	if !strings.Contains(out, `"kept"`) || !strings.Contains(out, `"also kept"`) {
		t.Fatalf("live branches dropped:\n%s", out)
	}
	if strings.Contains(out, `"gone"`) || strings.Contains(out, "loop gone") {
		t.Errorf("dead branches survived:\n%s", out)
	}
	if strings.Contains(out, "if True") || strings.Contains(out, "if False") {
		t.Errorf("constant conditions survived:\n%s", out)
	}
}

func TestDeadCodeUnusedDefs(t *testing.T) {
	code := `def used():
    return 1

def helper():
    return used()

def orphan():
    return 99

basic_print(helper())
`
	out := optimizeOrDie(t, code, 1)
	if strings.Contains(out, "orphan") {
		t.Errorf("unreferenced def survived:\n%s", out)
	}
	if !strings.Contains(out, "def used") || !strings.Contains(out, "def helper") {
		t.Errorf("transitively used def dropped:\n%s", out)
	}
}

func TestConstantFolding(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
		not  string
	}{
		{"Arithmetic", "x = (2 + (3 * 4))\nbasic_print(x)\n", "14", "3 * 4"},
		{"IntDivision", "x = (7 // 2)\nbasic_print(x)\n", "3", "//"},
		{"FloorMod", "x = (-7 % 3)\nbasic_print(x)\n", "2", "%"},
		{"Strings", `s = ("ab" + "cd")` + "\nbasic_print(s)\n", `"abcd"`, "+"},
		{"Comparison", "b = (3 < 5)\nbasic_print(b)\n", "True", "<"},
		{"ShortCircuit", "b = (False and unknown)\nbasic_print(b)\n", "False", "and"},
		{"Concat", `s = basic_concat("a", "b")` + "\nbasic_print(s)\n", `"ab"`, "basic_concat"},
		{"Pow", "x = basic_pow(2, 10)\nbasic_print(x)\n", "1024", "basic_pow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := optimizeOrDie(t, tt.code, 2)
			if !strings.Contains(out, tt.want) {
				t.Errorf("missing %q:\n%s", tt.want, out)
			}
			if tt.not != "" && strings.Contains(out, tt.not) {
				t.Errorf("unfolded %q remains:\n%s", tt.not, out)
			}
		})
	}
}

func TestConstantFoldingGatedAtLevelTwo(t *testing.T) {
	code := "x = (2 + 3)\nbasic_print(x)\n"
	out := optimizeOrDie(t, code, 1)
	if strings.Contains(out, "x = 5") {
		t.Errorf("folding ran at level 1:\n%s", out)
	}
}

func TestVariableInlining(t *testing.T) {
	code := `def f():
    n = 3
    return (n + n)

basic_print(f())
`
	out := optimizeOrDie(t, code, 2)
	if strings.Contains(out, "n = 3") {
		t.Errorf("single-assignment constant not inlined:\n%s", out)
	}
	// Folding ran before inlining, so the substituted literals stay unfolded
	// until the next run.
	if !strings.Contains(out, "return (3 + 3)") {
		t.Errorf("substituted body missing:\n%s", out)
	}
}

func TestVariableInliningSkipsReassigned(t *testing.T) {
	code := `def f():
    n = 3
    n = (n + 1)
    return n

basic_print(f())
`
	out := optimizeOrDie(t, code, 2)
	if !strings.Contains(out, "n = 3") {
		t.Errorf("reassigned variable was inlined:\n%s", out)
	}
}

func TestFunctionInlining(t *testing.T) {
	code := `def double(n):
    return (n * 2)

basic_print(double(21))
`
	out := optimizeOrDie(t, code, 3)
	if strings.Contains(out, "def double") {
		t.Errorf("small function not inlined:\n%s", out)
	}
	if !strings.Contains(out, "(21 * 2)") {
		t.Errorf("call not substituted:\n%s", out)
	}
}

func TestFunctionInliningSkipsRecursive(t *testing.T) {
	code := `def fact(n):
    return (1 if (n <= 1) else (n * fact((n - 1))))

basic_print(fact(5))
`
	out := optimizeOrDie(t, code, 3)
	if !strings.Contains(out, "def fact") {
		t.Errorf("recursive function was inlined:\n%s", out)
	}
}

func TestFunctionInliningGatedAtLevelThree(t *testing.T) {
	code := `def double(n):
    return (n * 2)

basic_print(double(21))
`
	out := optimizeOrDie(t, code, 2)
	if !strings.Contains(out, "def double") {
		t.Errorf("function inlining ran at level 2:\n%s", out)
	}
}

func TestLoopUnrolling(t *testing.T) {
	code := `def f():
    total = 0
    for i in basic_range(1, 3, 1):
        total = (total + i)
    return total

basic_print(f())
`
	out := optimizeOrDie(t, code, 3)
	if strings.Contains(out, "basic_range") {
		t.Errorf("small constant loop not unrolled:\n%s", out)
	}
	wantAssigns := []string{"i = 1", "i = 2", "i = 3"}
	for _, w := range wantAssigns {
		if !strings.Contains(out, w) {
			t.Errorf("missing unrolled iteration %q:\n%s", w, out)
		}
	}
}

func TestLoopUnrollingRespectsBound(t *testing.T) {
	code := `def f():
    total = 0
    for i in basic_range(1, 100, 1):
        total = (total + i)
    return total

basic_print(f())
`
	out := optimizeOrDie(t, code, 3)
	if !strings.Contains(out, "basic_range") {
		t.Errorf("loop above the iteration bound was unrolled:\n%s", out)
	}
}

func TestLoopUnrollingSkipsBreak(t *testing.T) {
	code := `def f():
    for i in basic_range(1, 3, 1):
        if (i == 2):
            break
    return i

basic_print(f())
`
	out := optimizeOrDie(t, code, 3)
	if !strings.Contains(out, "basic_range") {
		t.Errorf("loop containing break was unrolled:\n%s", out)
	}
}

func TestOptimizeIdempotent(t *testing.T) {
	code := `def double(n):
    return (n * 2)

def orphan():
    return 1

x = (2 + 3)
if False:
    basic_print("gone")
for i in basic_range(1, 3, 1):
    basic_print(double(i))
`
	for level := 1; level <= 3; level++ {
		once := optimizeOrDie(t, code, level)
		twice := optimizeOrDie(t, once, level)
		if once != twice {
			t.Errorf("level %d not idempotent\nonce:\n%s\ntwice:\n%s", level, once, twice)
		}
	}
}

func TestOptimizeDeterministic(t *testing.T) {
	code := `a = 1
b = 2
c = (a + b)
basic_print(c)
`
	first := optimizeOrDie(t, code, 3)
	for i := 0; i < 5; i++ {
		if out := optimizeOrDie(t, code, 3); out != first {
			t.Fatalf("run %d differs:\n%s\nvs:\n%s", i, out, first)
		}
	}
}

func TestOptimizeLevelClamped(t *testing.T) {
	code := "x = (2 + 3)\nbasic_print(x)\n"
	high := optimizeOrDie(t, code, 9)
	three := optimizeOrDie(t, code, 3)
	if high != three {
		t.Errorf("level 9 differs from level 3:\n%s\nvs:\n%s", high, three)
	}
}

func TestOptimizePreservesDicts(t *testing.T) {
	code := `_g = {}
_g["n"] = 0
_g["n"] = (_g["n"] + 1)
basic_print(_g["n"])
`
	out := optimizeOrDie(t, code, 3)
	if !strings.Contains(out, `_g["n"]`) {
		t.Errorf("dict slots mangled:\n%s", out)
	}
}

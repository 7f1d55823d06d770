package stdlib

import (
	"strings"
	"testing"

	"go.starlark.net/starlark"
)

func call(t *testing.T, thread *starlark.Thread, name string, args ...starlark.Value) (starlark.Value, error) {
	t.Helper()
	fn, ok := Builtins()[name]
	if !ok {
		t.Fatalf("builtin %s not registered", name)
	}
	return starlark.Call(thread, fn, starlark.Tuple(args), nil)
}

func mustCall(t *testing.T, name string, args ...starlark.Value) starlark.Value {
	t.Helper()
	v, err := call(t, &starlark.Thread{Name: "test"}, name, args...)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return v
}

func TestPrintCapture(t *testing.T) {
	out := &Output{}
	thread := &starlark.Thread{Name: "test"}
	thread.SetLocal(OutputKey, out)

	_, err := call(t, thread, "basic_print",
		starlark.String("total"), starlark.MakeInt(42), starlark.Bool(true))
	if err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "total 42 True\n" {
		t.Errorf("got %q", got)
	}
}

func TestConcat(t *testing.T) {
	tests := []struct {
		x, y starlark.Value
		want string
	}{
		{starlark.String("ab"), starlark.String("cd"), "abcd"},
		{starlark.String("n="), starlark.MakeInt(7), "n=7"},
		{starlark.MakeInt(1), starlark.MakeInt(2), "12"},
		{starlark.Bool(true), starlark.String("!"), "True!"},
	}
	for _, tt := range tests {
		got := mustCall(t, "basic_concat", tt.x, tt.y)
		if string(got.(starlark.String)) != tt.want {
			t.Errorf("concat(%v, %v) = %v, want %q", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestPow(t *testing.T) {
	got := mustCall(t, "basic_pow", starlark.MakeInt(2), starlark.MakeInt(10))
	if float64(got.(starlark.Float)) != 1024 {
		t.Errorf("2^10 = %v", got)
	}
}

func TestRangeInclusive(t *testing.T) {
	tests := []struct {
		from, to, step int
		want           []int
	}{
		{1, 5, 1, []int{1, 2, 3, 4, 5}},
		{1, 10, 3, []int{1, 4, 7, 10}},
		{5, 1, -2, []int{5, 3, 1}},
		{3, 1, 1, nil},
	}
	for _, tt := range tests {
		v := mustCall(t, "basic_range",
			starlark.MakeInt(tt.from), starlark.MakeInt(tt.to), starlark.MakeInt(tt.step))
		list := v.(*starlark.List)
		if list.Len() != len(tt.want) {
			t.Errorf("range(%d,%d,%d) has %d elements, want %d",
				tt.from, tt.to, tt.step, list.Len(), len(tt.want))
			continue
		}
		for i, w := range tt.want {
			n, _ := list.Index(i).(starlark.Int).Int64()
			if n != int64(w) {
				t.Errorf("range(%d,%d,%d)[%d] = %d, want %d", tt.from, tt.to, tt.step, i, n, w)
			}
		}
	}
}

func TestArrayShape(t *testing.T) {
	dims := starlark.NewList([]starlark.Value{starlark.MakeInt(2), starlark.MakeInt(3)})
	v := mustCall(t, "basic_array", dims, starlark.MakeInt(0))
	outer := v.(*starlark.List)
	if outer.Len() != 2 {
		t.Fatalf("outer len %d", outer.Len())
	}
	inner := outer.Index(0).(*starlark.List)
	if inner.Len() != 3 {
		t.Fatalf("inner len %d", inner.Len())
	}
	if inner.Index(2) != starlark.MakeInt(0) {
		t.Errorf("zero fill: %v", inner.Index(2))
	}
}

func TestReDimPreserve(t *testing.T) {
	arr := starlark.NewList([]starlark.Value{
		starlark.MakeInt(10), starlark.MakeInt(20),
	})
	bounds := starlark.NewList([]starlark.Value{starlark.MakeInt(4)})

	grown := mustCall(t, "basic_redim", arr, bounds, starlark.Bool(true)).(*starlark.List)
	if grown.Len() != 5 {
		t.Fatalf("grown len %d, want 5", grown.Len())
	}
	if grown.Index(0) != starlark.MakeInt(10) || grown.Index(1) != starlark.MakeInt(20) {
		t.Error("preserved prefix lost")
	}
	if grown.Index(4) != starlark.MakeInt(0) {
		t.Error("new slots not zeroed")
	}

	reset := mustCall(t, "basic_redim", arr, bounds, starlark.Bool(false)).(*starlark.List)
	if reset.Index(0) != starlark.MakeInt(0) {
		t.Error("without preserve the content should reset")
	}
}

func TestErase(t *testing.T) {
	arr := starlark.NewList([]starlark.Value{
		starlark.String("x"), starlark.String("y"),
	})
	v := mustCall(t, "basic_erase", arr).(*starlark.List)
	if v.Index(0) != starlark.String("") {
		t.Errorf("string slot not reset: %v", v.Index(0))
	}
}

func TestStringBuiltins(t *testing.T) {
	tests := []struct {
		name string
		args []starlark.Value
		want starlark.Value
	}{
		{"basic_mid", []starlark.Value{starlark.String("hello"), starlark.MakeInt(2), starlark.MakeInt(3)}, starlark.String("ell")},
		{"basic_mid", []starlark.Value{starlark.String("hello"), starlark.MakeInt(9)}, starlark.String("")},
		{"basic_left", []starlark.Value{starlark.String("hello"), starlark.MakeInt(2)}, starlark.String("he")},
		{"basic_right", []starlark.Value{starlark.String("hello"), starlark.MakeInt(2)}, starlark.String("lo")},
		{"basic_instr", []starlark.Value{starlark.String("hello"), starlark.String("ll")}, starlark.MakeInt(3)},
		{"basic_instr", []starlark.Value{starlark.String("hello"), starlark.String("zz")}, starlark.MakeInt(0)},
		{"basic_len", []starlark.Value{starlark.String("hello")}, starlark.MakeInt(5)},
		{"basic_asc", []starlark.Value{starlark.String("A")}, starlark.MakeInt(65)},
		{"basic_ucase", []starlark.Value{starlark.String("mixed")}, starlark.String("MIXED")},
		{"basic_lcase", []starlark.Value{starlark.String("MiXeD")}, starlark.String("mixed")},
		{"basic_trim", []starlark.Value{starlark.String("  pad  ")}, starlark.String("pad")},
		{"basic_chr", []starlark.Value{starlark.MakeInt(66)}, starlark.String("B")},
		{"basic_space", []starlark.Value{starlark.MakeInt(3)}, starlark.String("   ")},
	}
	for _, tt := range tests {
		got := mustCall(t, tt.name, tt.args...)
		if got != tt.want {
			t.Errorf("%s(%v) = %v, want %v", tt.name, tt.args, got, tt.want)
		}
	}
}

func TestConversions(t *testing.T) {
	if got := mustCall(t, "basic_cstr", starlark.MakeInt(42)); got != starlark.String("42") {
		t.Errorf("cstr: %v", got)
	}
	if got := mustCall(t, "basic_cint", starlark.String(" 41 ")); got != starlark.MakeInt(41) {
		t.Errorf("cint: %v", got)
	}
	// Banker's rounding: halves go to the even neighbor.
	if got := mustCall(t, "basic_cint", starlark.Float(2.5)); got != starlark.MakeInt(2) {
		t.Errorf("cint(2.5): %v", got)
	}
	if got := mustCall(t, "basic_cint", starlark.Float(3.5)); got != starlark.MakeInt(4) {
		t.Errorf("cint(3.5): %v", got)
	}
	if got := mustCall(t, "basic_cdbl", starlark.String("2.5")); float64(got.(starlark.Float)) != 2.5 {
		t.Errorf("cdbl: %v", got)
	}
}

func TestLikePatterns(t *testing.T) {
	tests := []struct {
		s, pat string
		want   bool
	}{
		{"hello", "h*o", true},
		{"hello", "h?llo", true},
		{"hello", "h?o", false},
		{"x9", "x#", true},
		{"xa", "x#", false},
		{"cat", "[a-c]at", true},
		{"fat", "[a-c]at", false},
		{"fat", "[!a-c]at", true},
		{"", "*", true},
		{"abc", "abc", true},
	}
	for _, tt := range tests {
		got := mustCall(t, "basic_like", starlark.String(tt.s), starlark.String(tt.pat))
		if bool(got.(starlark.Bool)) != tt.want {
			t.Errorf("Like(%q, %q) = %v, want %v", tt.s, tt.pat, got, tt.want)
		}
	}
}

func TestDateSerial(t *testing.T) {
	// December 31, 1899 is day 1 of the serial scheme.
	v := mustCall(t, "basic_date", starlark.String("12/31/1899"))
	if float64(v.(starlark.Float)) != 1.0 {
		t.Errorf("serial for 12/31/1899 = %v, want 1", v)
	}
	if v := mustCall(t, "basic_date", starlark.String("")); float64(v.(starlark.Float)) != 0 {
		t.Errorf("empty date: %v", v)
	}
	// Noon is half a day.
	v = mustCall(t, "basic_date", starlark.String("12:00:00"))
	if float64(v.(starlark.Float)) != 0.5 {
		t.Errorf("time-only serial: %v", v)
	}
}

func TestErrorModeResume(t *testing.T) {
	thread := &starlark.Thread{Name: "test"}

	// Halting mode: empty Asc is an error.
	if _, err := call(t, thread, "basic_asc", starlark.String("")); err == nil {
		t.Fatal("expected an error in halting mode")
	}

	// Resume mode substitutes the zero value.
	if _, err := call(t, thread, "basic_error_mode", starlark.MakeInt(1)); err != nil {
		t.Fatal(err)
	}
	v, err := call(t, thread, "basic_asc", starlark.String(""))
	if err != nil {
		t.Fatalf("resume mode surfaced the error: %v", err)
	}
	if v != starlark.MakeInt(0) {
		t.Errorf("zero substitute: %v", v)
	}
}

func TestExternUnavailable(t *testing.T) {
	thread := &starlark.Thread{Name: "test"}
	fn, err := call(t, thread, "basic_extern", starlark.String("kernel32"), starlark.String("GetTickCount"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = starlark.Call(thread, fn, nil, nil)
	if err == nil {
		t.Fatal("calling an external binding should fail")
	}
	if !strings.Contains(err.Error(), "kernel32!GetTickCount") {
		t.Errorf("error does not name the binding: %v", err)
	}
}

func TestStopHalts(t *testing.T) {
	thread := &starlark.Thread{Name: "test"}
	if _, err := call(t, thread, "basic_stop"); err == nil {
		t.Error("Stop should surface as an error")
	}
}

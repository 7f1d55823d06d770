// Package stdlib is the runtime-support library for generated code: the
// legacy built-in functions the code generator routes through rather than
// inlining their behavior ad hoc. Every function is exposed to the
// interpreter under a basic_* name.
package stdlib

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/reusee/starlarkutil"
	"go.starlark.net/starlark"
)

// OutputKey is the thread-local under which the host installs the writer
// that receives print output.
const OutputKey = "basic_output"

// errorModeKey holds the thread-local error mode: 0 halts on runtime
// errors, 1 resumes past them with zero values.
const errorModeKey = "basic_error_mode"

// Output collects print output for one thread.
type Output struct {
	sb strings.Builder
}

func (o *Output) Write(s string) { o.sb.WriteString(s) }
func (o *Output) String() string { return o.sb.String() }

// Builtins returns the predeclared environment for generated code. The
// returned dict is fresh per call; threads never share builtin state.
func Builtins() starlark.StringDict {
	d := starlark.StringDict{
		"basic_print":      starlark.NewBuiltin("basic_print", basicPrint),
		"basic_concat":     starlark.NewBuiltin("basic_concat", basicConcat),
		"basic_pow":        starlark.NewBuiltin("basic_pow", basicPow),
		"basic_range":      starlark.NewBuiltin("basic_range", basicRange),
		"basic_array":      starlark.NewBuiltin("basic_array", basicArray),
		"basic_redim":      starlark.NewBuiltin("basic_redim", basicReDim),
		"basic_erase":      starlark.NewBuiltin("basic_erase", basicErase),
		"basic_mid":        starlark.NewBuiltin("basic_mid", basicMid),
		"basic_left":       starlark.NewBuiltin("basic_left", basicLeft),
		"basic_right":      starlark.NewBuiltin("basic_right", basicRight),
		"basic_instr":      starlark.NewBuiltin("basic_instr", basicInStr),
		"basic_len":        starlark.NewBuiltin("basic_len", basicLen),
		"basic_asc":        starlark.NewBuiltin("basic_asc", basicAsc),
		"basic_cstr":       starlark.NewBuiltin("basic_cstr", basicCStr),
		"basic_cint":       starlark.NewBuiltin("basic_cint", basicCInt),
		"basic_cdbl":       starlark.NewBuiltin("basic_cdbl", basicCDbl),
		"basic_like":       starlark.NewBuiltin("basic_like", basicLike),
		"basic_date":       starlark.NewBuiltin("basic_date", basicDate),
		"basic_error_mode": starlark.NewBuiltin("basic_error_mode", basicErrorMode),
		"basic_stop":       starlark.NewBuiltin("basic_stop", basicStop),
		"basic_extern":     starlark.NewBuiltin("basic_extern", basicExtern),
	}
	// Pure string helpers go through the reflective wrapper.
	d["basic_trim"] = starlarkutil.MakeFunc("basic_trim", strings.TrimSpace)
	d["basic_ltrim"] = starlarkutil.MakeFunc("basic_ltrim", func(s string) string {
		return strings.TrimLeft(s, " \t")
	})
	d["basic_rtrim"] = starlarkutil.MakeFunc("basic_rtrim", func(s string) string {
		return strings.TrimRight(s, " \t")
	})
	d["basic_ucase"] = starlarkutil.MakeFunc("basic_ucase", strings.ToUpper)
	d["basic_lcase"] = starlarkutil.MakeFunc("basic_lcase", strings.ToLower)
	d["basic_space"] = starlarkutil.MakeFunc("basic_space", func(n int) string {
		if n < 0 {
			return ""
		}
		return strings.Repeat(" ", n)
	})
	d["basic_chr"] = starlarkutil.MakeFunc("basic_chr", func(n int) string {
		return string(rune(n))
	})
	return d
}

// errorMode reads the thread's current error mode.
func errorMode(thread *starlark.Thread) int {
	if v, ok := thread.Local(errorModeKey).(int); ok {
		return v
	}
	return 0
}

// recoverable wraps a builtin failure: under Resume Next mode the zero
// value substitutes for the error.
func recoverable(thread *starlark.Thread, zero starlark.Value, err error) (starlark.Value, error) {
	if errorMode(thread) == 1 {
		return zero, nil
	}
	return nil, err
}

//  Output

// FormatValue renders a value the way the legacy Print statement would:
// strings bare, booleans as True/False, None as an empty field.
func FormatValue(v starlark.Value) string {
	switch v := v.(type) {
	case starlark.String:
		return string(v)
	case starlark.Bool:
		if bool(v) {
			return "True"
		}
		return "False"
	case starlark.Float:
		s := strconv.FormatFloat(float64(v), 'g', -1, 64)
		return s
	case starlark.NoneType:
		return ""
	default:
		return v.String()
	}
}

func basicPrint(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var parts []string
	for _, a := range args {
		parts = append(parts, FormatValue(a))
	}
	line := strings.Join(parts, " ") + "\n"
	if out, ok := thread.Local(OutputKey).(*Output); ok && out != nil {
		out.Write(line)
	} else {
		fmt.Print(line)
	}
	return starlark.None, nil
}

//  Operators

func basicConcat(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x, y starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &x, &y); err != nil {
		return nil, err
	}
	return starlark.String(FormatValue(x) + FormatValue(y)), nil
}

func basicPow(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x, y starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &x, &y); err != nil {
		return nil, err
	}
	xf, ok := starlark.AsFloat(x)
	if !ok {
		return recoverable(thread, starlark.Float(0), fmt.Errorf("%s: base is not a number: %s", b.Name(), x.Type()))
	}
	yf, ok := starlark.AsFloat(y)
	if !ok {
		return recoverable(thread, starlark.Float(0), fmt.Errorf("%s: exponent is not a number: %s", b.Name(), y.Type()))
	}
	return starlark.Float(math.Pow(xf, yf)), nil
}

// basicRange builds the inclusive counted-loop sequence: both endpoints
// included, signed step.
func basicRange(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var from, to, step starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 3, &from, &to, &step); err != nil {
		return nil, err
	}
	f, err1 := asInt64(from)
	t, err2 := asInt64(to)
	s, err3 := asInt64(step)
	if err1 != nil || err2 != nil || err3 != nil || s == 0 {
		return recoverable(thread, starlark.NewList(nil), fmt.Errorf("%s: bounds and step must be nonzero integers", b.Name()))
	}
	var elems []starlark.Value
	if s > 0 {
		for i := f; i <= t; i += s {
			elems = append(elems, starlark.MakeInt64(i))
		}
	} else {
		for i := f; i >= t; i += s {
			elems = append(elems, starlark.MakeInt64(i))
		}
	}
	return starlark.NewList(elems), nil
}

func asInt64(v starlark.Value) (int64, error) {
	switch v := v.(type) {
	case starlark.Int:
		n, ok := v.Int64()
		if !ok {
			return 0, fmt.Errorf("integer too large")
		}
		return n, nil
	case starlark.Float:
		return int64(v), nil
	case starlark.Bool:
		if bool(v) {
			return -1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("not a number: %s", v.Type())
}

//  Arrays

// basicArray allocates a possibly multi-dimensional array filled with the
// element zero value. Empty dims produce an empty dynamic array.
func basicArray(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var dims *starlark.List
	var zero starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &dims, &zero); err != nil {
		return nil, err
	}
	sizes := make([]int64, 0, dims.Len())
	for i := 0; i < dims.Len(); i++ {
		n, err := asInt64(dims.Index(i))
		if err != nil || n < 0 {
			return recoverable(thread, starlark.NewList(nil), fmt.Errorf("%s: bad dimension", b.Name()))
		}
		sizes = append(sizes, n)
	}
	return makeArray(sizes, zero), nil
}

func makeArray(sizes []int64, zero starlark.Value) starlark.Value {
	if len(sizes) == 0 {
		return starlark.NewList(nil)
	}
	elems := make([]starlark.Value, sizes[0])
	for i := range elems {
		if len(sizes) > 1 {
			elems[i] = makeArray(sizes[1:], zero)
		} else {
			elems[i] = zero
		}
	}
	return starlark.NewList(elems)
}

// basicReDim resizes a dynamic array. Bounds are inclusive upper bounds of
// zero-based dimensions. With preserve, existing leading elements carry
// over; without it the array resets to zeros inferred from the old content.
func basicReDim(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var old starlark.Value
	var bounds *starlark.List
	var preserve bool
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 3, &old, &bounds, &preserve); err != nil {
		return nil, err
	}
	sizes := make([]int64, 0, bounds.Len())
	for i := 0; i < bounds.Len(); i++ {
		n, err := asInt64(bounds.Index(i))
		if err != nil || n < 0 {
			return recoverable(thread, starlark.NewList(nil), fmt.Errorf("%s: bad bound", b.Name()))
		}
		sizes = append(sizes, n+1)
	}
	zero := zeroOf(old)
	fresh := makeArray(sizes, zero)
	if !preserve {
		return fresh, nil
	}
	oldList, ok := old.(*starlark.List)
	newList, ok2 := fresh.(*starlark.List)
	if !ok || !ok2 {
		return fresh, nil
	}
	n := oldList.Len()
	if newList.Len() < n {
		n = newList.Len()
	}
	for i := 0; i < n; i++ {
		if err := newList.SetIndex(i, oldList.Index(i)); err != nil {
			return nil, err
		}
	}
	return fresh, nil
}

// zeroOf infers an element zero value from an existing array's content.
func zeroOf(v starlark.Value) starlark.Value {
	list, ok := v.(*starlark.List)
	if !ok || list.Len() == 0 {
		return starlark.MakeInt(0)
	}
	switch first := list.Index(0).(type) {
	case starlark.String:
		return starlark.String("")
	case starlark.Float:
		return starlark.Float(0)
	case starlark.Bool:
		return starlark.Bool(false)
	case *starlark.List:
		_ = first
		return starlark.MakeInt(0)
	default:
		return starlark.MakeInt(0)
	}
}

// basicErase returns an array of the same shape with every element reset
// to its zero value.
func basicErase(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var arr starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &arr); err != nil {
		return nil, err
	}
	return eraseValue(arr), nil
}

func eraseValue(v starlark.Value) starlark.Value {
	switch v := v.(type) {
	case *starlark.List:
		elems := make([]starlark.Value, v.Len())
		for i := range elems {
			elems[i] = eraseValue(v.Index(i))
		}
		return starlark.NewList(elems)
	case starlark.String:
		return starlark.String("")
	case starlark.Float:
		return starlark.Float(0)
	case starlark.Bool:
		return starlark.Bool(false)
	default:
		return starlark.MakeInt(0)
	}
}

//  Strings

// basicMid is the 1-based substring: Mid(s, start[, length]).
func basicMid(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var s string
	var start int
	length := -1
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &s, &start, &length); err != nil {
		return nil, err
	}
	if start < 1 {
		return recoverable(thread, starlark.String(""), fmt.Errorf("%s: start must be >= 1", b.Name()))
	}
	runes := []rune(s)
	if start > len(runes) {
		return starlark.String(""), nil
	}
	out := runes[start-1:]
	if length >= 0 && length < len(out) {
		out = out[:length]
	}
	return starlark.String(string(out)), nil
}

func basicLeft(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var s string
	var n int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &s, &n); err != nil {
		return nil, err
	}
	runes := []rune(s)
	if n < 0 {
		n = 0
	}
	if n > len(runes) {
		n = len(runes)
	}
	return starlark.String(string(runes[:n])), nil
}

func basicRight(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var s string
	var n int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &s, &n); err != nil {
		return nil, err
	}
	runes := []rune(s)
	if n < 0 {
		n = 0
	}
	if n > len(runes) {
		n = len(runes)
	}
	return starlark.String(string(runes[len(runes)-n:])), nil
}

// basicInStr is the 1-based substring search; 0 means not found.
func basicInStr(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var s, sub string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &s, &sub); err != nil {
		return nil, err
	}
	idx := strings.Index(s, sub)
	if idx < 0 {
		return starlark.MakeInt(0), nil
	}
	return starlark.MakeInt(len([]rune(s[:idx])) + 1), nil
}

func basicLen(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case starlark.String:
		return starlark.MakeInt(len([]rune(string(v)))), nil
	case *starlark.List:
		return starlark.MakeInt(v.Len()), nil
	}
	return recoverable(thread, starlark.MakeInt(0), fmt.Errorf("%s: no length for %s", b.Name(), v.Type()))
}

func basicAsc(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var s string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &s); err != nil {
		return nil, err
	}
	if s == "" {
		return recoverable(thread, starlark.MakeInt(0), fmt.Errorf("%s: empty string", b.Name()))
	}
	return starlark.MakeInt(int([]rune(s)[0])), nil
}

//  Conversions

func basicCStr(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	return starlark.String(FormatValue(v)), nil
}

func basicCInt(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	if s, ok := starlark.AsString(v); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return recoverable(thread, starlark.MakeInt(0), fmt.Errorf("%s: %q is not numeric", b.Name(), s))
		}
		return starlark.MakeInt64(int64(math.RoundToEven(f))), nil
	}
	f, ok := starlark.AsFloat(v)
	if !ok {
		return recoverable(thread, starlark.MakeInt(0), fmt.Errorf("%s: cannot convert %s", b.Name(), v.Type()))
	}
	// Legacy rounding is banker's rounding.
	return starlark.MakeInt64(int64(math.RoundToEven(f))), nil
}

func basicCDbl(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	if s, ok := starlark.AsString(v); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return recoverable(thread, starlark.Float(0), fmt.Errorf("%s: %q is not numeric", b.Name(), s))
		}
		return starlark.Float(f), nil
	}
	f, ok := starlark.AsFloat(v)
	if !ok {
		return recoverable(thread, starlark.Float(0), fmt.Errorf("%s: cannot convert %s", b.Name(), v.Type()))
	}
	return starlark.Float(f), nil
}

//  Pattern matching

// basicLike implements the legacy Like operator: ? matches one character,
// * any run, # one digit, [list] a character set with ranges and !
// negation. Matching is case-sensitive, anchored at both ends.
func basicLike(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var s, pattern string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &s, &pattern); err != nil {
		return nil, err
	}
	ok, err := likeMatch([]rune(s), []rune(pattern))
	if err != nil {
		return recoverable(thread, starlark.Bool(false), fmt.Errorf("%s: %v", b.Name(), err))
	}
	return starlark.Bool(ok), nil
}

func likeMatch(s, p []rune) (bool, error) {
	if len(p) == 0 {
		return len(s) == 0, nil
	}
	switch p[0] {
	case '*':
		for i := 0; i <= len(s); i++ {
			ok, err := likeMatch(s[i:], p[1:])
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	case '?':
		if len(s) == 0 {
			return false, nil
		}
		return likeMatch(s[1:], p[1:])
	case '#':
		if len(s) == 0 || s[0] < '0' || s[0] > '9' {
			return false, nil
		}
		return likeMatch(s[1:], p[1:])
	case '[':
		end := -1
		for i := 1; i < len(p); i++ {
			if p[i] == ']' {
				end = i
				break
			}
		}
		if end < 0 {
			return false, fmt.Errorf("unterminated character list in pattern")
		}
		if len(s) == 0 {
			return false, nil
		}
		set := p[1:end]
		negate := false
		if len(set) > 0 && set[0] == '!' {
			negate = true
			set = set[1:]
		}
		matched := false
		for i := 0; i < len(set); i++ {
			if i+2 < len(set) && set[i+1] == '-' {
				if s[0] >= set[i] && s[0] <= set[i+2] {
					matched = true
				}
				i += 2
				continue
			}
			if s[0] == set[i] {
				matched = true
			}
		}
		if matched == negate {
			return false, nil
		}
		return likeMatch(s[1:], p[end+1:])
	default:
		if len(s) == 0 || s[0] != p[0] {
			return false, nil
		}
		return likeMatch(s[1:], p[1:])
	}
}

//  Dates

// vbEpoch is day zero of the legacy date serial: December 30, 1899.
var vbEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"3:04:05 PM",
	"15:04:05",
}

// basicDate parses a date-literal body into the serial representation:
// days since the epoch, time of day as the fraction.
func basicDate(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &text); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return starlark.Float(0), nil
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, text)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			// Time-only literal: fraction of a day.
			secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
			return starlark.Float(float64(secs) / 86400.0), nil
		}
		return starlark.Float(t.Sub(vbEpoch).Hours() / 24.0), nil
	}
	return recoverable(thread, starlark.Float(0), fmt.Errorf("%s: unrecognized date %q", b.Name(), text))
}

//  Control

func basicErrorMode(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var mode int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &mode); err != nil {
		return nil, err
	}
	thread.SetLocal(errorModeKey, mode)
	return starlark.None, nil
}

func basicStop(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return nil, fmt.Errorf("Stop")
}

// basicExtern binds a foreign-library declaration. The returned callable
// fails when invoked, unless the thread is in resume mode; the compiler
// validates signatures, the runtime has no loader for native libraries.
func basicExtern(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var lib, name string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &lib, &name); err != nil {
		return nil, err
	}
	full := lib + "!" + name
	return starlark.NewBuiltin(full, func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		return recoverable(thread, starlark.None, fmt.Errorf("external procedure %s is not available in this host", full))
	}), nil
}

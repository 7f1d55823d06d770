package compiler

import (
	"fmt"
	"sort"
)

// Severity partitions diagnostics into hard errors and advisory warnings.
type Severity int

const (
	SevError Severity = iota
	SevWarning
)

func (s Severity) String() string {
	if s == SevError {
		return "error"
	}
	return "warning"
}

// Span is a half-open source region in 1-based line/column coordinates.
// Every AST node and diagnostic carries one.
type Span struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.StartLine, s.StartCol)
}

// Extend returns the smallest span covering both s and other.
func (s Span) Extend(other Span) Span {
	out := s
	if other.StartLine < out.StartLine ||
		(other.StartLine == out.StartLine && other.StartCol < out.StartCol) {
		out.StartLine, out.StartCol = other.StartLine, other.StartCol
	}
	if other.EndLine > out.EndLine ||
		(other.EndLine == out.EndLine && other.EndCol > out.EndCol) {
		out.EndLine, out.EndCol = other.EndLine, other.EndCol
	}
	return out
}

// Diagnostic codes. The <letter><3 digits> scheme is stable so downstream
// tooling can filter or suppress by code.
const (
	CodeBadChar           = "L001" // unrecognized character
	CodeUnterminatedStr   = "L002" // string literal not closed before end of line
	CodeUnterminatedDate  = "L003" // date literal not closed before end of line
	CodeBadNumber         = "L004" // malformed numeric literal
	CodeUnexpectedToken   = "S001" // parser: unexpected token
	CodeExprTooComplex    = "S002" // parser: expression nesting exceeds the depth bound
	CodeUndeclaredIdent   = "E001" // identifier used but never declared
	CodeTypeMismatch      = "E002" // incompatible assignment or operand
	CodeUnknownType       = "E003" // type name does not resolve
	CodeDeclareArity      = "E004" // Declare call-site argument count mismatch
	CodeDeclareArgType    = "E005" // Declare call-site argument type mismatch
	CodePropertyNoGet     = "E006" // Property Let defined without a matching Get
	CodeDuplicateDecl     = "W001" // name already declared in this scope
	CodeUnreachable       = "W002" // statement can never execute
	CodeUnusedProcedure   = "W003" // procedure never referenced
	CodeMissingReturn     = "W004" // Function with no return-value assignment on some path
	CodeConstFalseBranch  = "W005" // branch condition is a compile-time constant false
	CodeUnsupportedLower  = "W006" // construct has no target equivalent; lowered loosely
	CodeInternalInvariant = "F001" // compiler defect: AST violates a structural precondition
)

// Diagnostic is the sole channel for reporting problems back to the caller.
// Diagnostics accumulate across all stages and are never discarded.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	Span     Span
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %s: %s", d.Span, d.Severity, d.Code, d.Message)
}

// diagBag collects diagnostics for one stage.
type diagBag struct {
	list []Diagnostic
}

func (b *diagBag) errorf(code string, span Span, format string, args ...any) {
	b.list = append(b.list, Diagnostic{
		Severity: SevError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	})
}

func (b *diagBag) warnf(code string, span Span, format string, args ...any) {
	b.list = append(b.list, Diagnostic{
		Severity: SevWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	})
}

func (b *diagBag) hasErrors() bool {
	for _, d := range b.list {
		if d.Severity == SevError {
			return true
		}
	}
	return false
}

// SortDiagnostics orders diagnostics by source position, preserving the
// insertion order of diagnostics at the same position. Callers rely on this
// for editor-style "jump to error" navigation.
func SortDiagnostics(list []Diagnostic) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].Span, list[j].Span
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		return a.StartCol < b.StartCol
	})
}

// HasErrors reports whether any diagnostic in list is an error.
func HasErrors(list []Diagnostic) bool {
	for _, d := range list {
		if d.Severity == SevError {
			return true
		}
	}
	return false
}

// InternalError is the only error class that aborts a pipeline run. It marks
// a defect in the compiler itself, never a property of user input.
type InternalError struct {
	Stage   string
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: internal invariant violated: %s", e.Stage, e.Message)
}

func internalErr(stage, format string, args ...any) *InternalError {
	return &InternalError{Stage: stage, Message: fmt.Sprintf(format, args...)}
}

package compiler

import (
	"strings"

	"go.starlark.net/syntax"
)

// optimizeFileOptions matches the dialect the host executes: top-level
// control flow, while loops, global reassignment, and recursion.
var optimizeFileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Optimize rewrites generated code according to a level-gated pass pipeline.
// Level 0 returns the input unchanged. Each pass runs exactly once, in a
// fixed order, and each is idempotent at its own level; the pipeline is not
// a fixpoint iteration, so a transformation enabled by a later pass is not
// retroactively exploited by an earlier one.
//
//	level >= 1: dead-code elimination
//	level >= 2: constant folding, then variable inlining
//	level >= 3: function inlining, then loop unrolling
func Optimize(code string, level int) (string, error) {
	if level <= 0 {
		return code, nil
	}
	if level > 3 {
		level = 3
	}
	f, err := optimizeFileOptions.Parse("generated.star", code, 0)
	if err != nil {
		return "", internalErr("optimize", "generated code does not parse: %v", err)
	}

	f.Stmts = eliminateDeadCode(f.Stmts)
	if level >= 2 {
		f.Stmts = foldConstants(f.Stmts)
		f.Stmts = inlineVariables(f.Stmts)
	}
	if level >= 3 {
		f.Stmts = inlineFunctions(f.Stmts)
		f.Stmts = unrollLoops(f.Stmts)
	}
	return renderFile(f)
}

//  Dead-code elimination (level >= 1)

// eliminateDeadCode removes statements that can never execute and top-level
// functions nothing reachable references. Function reachability is a
// worklist walk seeded from the non-def statements, the same shape as the
// analyzer's dead-procedure pass.
func eliminateDeadCode(stmts []syntax.Stmt) []syntax.Stmt {
	stmts = pruneBlock(stmts)
	return dropUnusedDefs(stmts)
}

// pruneBlock removes statements after a terminal statement and resolves
// branches with a constant condition, recursively.
func pruneBlock(body []syntax.Stmt) []syntax.Stmt {
	var out []syntax.Stmt
	for _, s := range body {
		s, inline := pruneStmt(s)
		if inline != nil {
			out = append(out, inline...)
			continue
		}
		if s != nil {
			out = append(out, s)
		}
		if isTerminalStarlark(s) {
			break
		}
	}
	return out
}

// pruneStmt rewrites one statement. It returns either a (possibly nil)
// replacement statement or a list of statements to splice in its place.
func pruneStmt(s syntax.Stmt) (syntax.Stmt, []syntax.Stmt) {
	switch s := s.(type) {
	case *syntax.IfStmt:
		if b, ok := boolConst(s.Cond); ok {
			if b {
				return nil, spliced(pruneBlock(s.True))
			}
			return nil, spliced(pruneBlock(s.False))
		}
		s.True = pruneBlock(s.True)
		s.False = pruneBlock(s.False)
		return s, nil
	case *syntax.ForStmt:
		s.Body = pruneBlock(s.Body)
		return s, nil
	case *syntax.WhileStmt:
		if b, ok := boolConst(s.Cond); ok && !b {
			return nil, spliced(nil)
		}
		s.Body = pruneBlock(s.Body)
		return s, nil
	case *syntax.DefStmt:
		s.Body = pruneBlock(s.Body)
		return s, nil
	}
	return s, nil
}

// spliced guarantees a non-nil slice so pruneBlock can tell "replace with
// these statements" apart from "keep the rewritten statement".
func spliced(stmts []syntax.Stmt) []syntax.Stmt {
	if stmts == nil {
		return []syntax.Stmt{}
	}
	return stmts
}

func isTerminalStarlark(s syntax.Stmt) bool {
	switch s := s.(type) {
	case *syntax.ReturnStmt:
		return true
	case *syntax.BranchStmt:
		return s.Token == syntax.BREAK || s.Token == syntax.CONTINUE
	}
	return false
}

// boolConst reports whether e is a True or False constant.
func boolConst(e syntax.Expr) (value, ok bool) {
	switch e := e.(type) {
	case *syntax.ParenExpr:
		return boolConst(e.X)
	case *syntax.Ident:
		switch e.Name {
		case "True":
			return true, true
		case "False":
			return false, true
		}
	}
	return false, false
}

func dropUnusedDefs(stmts []syntax.Stmt) []syntax.Stmt {
	defs := map[string]*syntax.DefStmt{}
	for _, s := range stmts {
		if d, ok := s.(*syntax.DefStmt); ok {
			defs[d.Name.Name] = d
		}
	}
	if len(defs) == 0 {
		return stmts
	}

	reachable := map[string]bool{}
	var work []*syntax.DefStmt
	mark := func(name string) {
		if d, ok := defs[name]; ok && !reachable[name] {
			reachable[name] = true
			work = append(work, d)
		}
	}
	for _, s := range stmts {
		if _, ok := s.(*syntax.DefStmt); ok {
			continue
		}
		scanStmtIdents(s, mark)
	}
	for len(work) > 0 {
		d := work[len(work)-1]
		work = work[:len(work)-1]
		for _, s := range d.Body {
			scanStmtIdents(s, mark)
		}
	}

	var out []syntax.Stmt
	for _, s := range stmts {
		if d, ok := s.(*syntax.DefStmt); ok && !reachable[d.Name.Name] {
			continue
		}
		out = append(out, s)
	}
	return out
}

// scanStmtIdents calls fn for every identifier referenced in s, including
// nested blocks and defs.
func scanStmtIdents(s syntax.Stmt, fn func(string)) {
	switch s := s.(type) {
	case *syntax.AssignStmt:
		scanExprIdents(s.LHS, fn)
		scanExprIdents(s.RHS, fn)
	case *syntax.ExprStmt:
		scanExprIdents(s.X, fn)
	case *syntax.ReturnStmt:
		if s.Result != nil {
			scanExprIdents(s.Result, fn)
		}
	case *syntax.IfStmt:
		scanExprIdents(s.Cond, fn)
		for _, t := range s.True {
			scanStmtIdents(t, fn)
		}
		for _, t := range s.False {
			scanStmtIdents(t, fn)
		}
	case *syntax.ForStmt:
		scanExprIdents(s.X, fn)
		for _, t := range s.Body {
			scanStmtIdents(t, fn)
		}
	case *syntax.WhileStmt:
		scanExprIdents(s.Cond, fn)
		for _, t := range s.Body {
			scanStmtIdents(t, fn)
		}
	case *syntax.DefStmt:
		for _, p := range s.Params {
			scanExprIdents(p, fn)
		}
		for _, t := range s.Body {
			scanStmtIdents(t, fn)
		}
	}
}

func scanExprIdents(e syntax.Expr, fn func(string)) {
	switch e := e.(type) {
	case *syntax.Ident:
		fn(e.Name)
	case *syntax.ParenExpr:
		scanExprIdents(e.X, fn)
	case *syntax.UnaryExpr:
		if e.X != nil {
			scanExprIdents(e.X, fn)
		}
	case *syntax.BinaryExpr:
		scanExprIdents(e.X, fn)
		scanExprIdents(e.Y, fn)
	case *syntax.CondExpr:
		scanExprIdents(e.Cond, fn)
		scanExprIdents(e.True, fn)
		scanExprIdents(e.False, fn)
	case *syntax.CallExpr:
		scanExprIdents(e.Fn, fn)
		for _, a := range e.Args {
			scanExprIdents(a, fn)
		}
	case *syntax.IndexExpr:
		scanExprIdents(e.X, fn)
		scanExprIdents(e.Y, fn)
	case *syntax.DotExpr:
		scanExprIdents(e.X, fn)
	case *syntax.SliceExpr:
		scanExprIdents(e.X, fn)
		if e.Lo != nil {
			scanExprIdents(e.Lo, fn)
		}
		if e.Hi != nil {
			scanExprIdents(e.Hi, fn)
		}
		if e.Step != nil {
			scanExprIdents(e.Step, fn)
		}
	case *syntax.ListExpr:
		for _, el := range e.List {
			scanExprIdents(el, fn)
		}
	case *syntax.TupleExpr:
		for _, el := range e.List {
			scanExprIdents(el, fn)
		}
	case *syntax.DictExpr:
		for _, el := range e.List {
			if entry, ok := el.(*syntax.DictEntry); ok {
				scanExprIdents(entry.Key, fn)
				scanExprIdents(entry.Value, fn)
			}
		}
	}
}

// stringConst reports whether e is a string literal.
func stringConst(e syntax.Expr) (string, bool) {
	if l, ok := unparen(e).(*syntax.Literal); ok && l.Token == syntax.STRING {
		return l.Value.(string), true
	}
	return "", false
}

func unparen(e syntax.Expr) syntax.Expr {
	for {
		p, ok := e.(*syntax.ParenExpr)
		if !ok {
			return e
		}
		e = p.X
	}
}

// exprText renders one expression for size thresholds and comparisons.
func exprText(e syntax.Expr) string {
	r := &renderer{}
	out := r.expr(e)
	if r.err != nil {
		return strings.Repeat("?", 999)
	}
	return out
}

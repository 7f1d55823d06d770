package compiler

import (
	"go.starlark.net/syntax"
)

//  Function inlining (level >= 3)

const (
	inlineMaxCallSites  = 2  // call-count threshold, not a cost model
	inlineMaxBodyLen    = 40 // textual length bound for the callee expression
	unrollMaxIterations = 8
)

// inlineFunctions substitutes calls to small single-expression functions
// with the callee's body. A function qualifies when its body reduces to one
// result expression, the expression is short, the function is called no
// more than a small fixed number of times, and every parameter is used at
// most once (so argument expressions never duplicate). The now-unreferenced
// definition is removed in the same run to keep the pass idempotent.
func inlineFunctions(stmts []syntax.Stmt) []syntax.Stmt {
	calls := map[string]int{}
	other := map[string]int{}
	for _, s := range stmts {
		countCalls(s, calls, other)
	}

	candidates := map[string]*inlineCandidate{}
	for _, s := range stmts {
		d, ok := s.(*syntax.DefStmt)
		if !ok {
			continue
		}
		name := d.Name.Name
		if calls[name] == 0 || calls[name] > inlineMaxCallSites || other[name] > 0 {
			continue
		}
		c := candidateOf(d)
		if c != nil {
			candidates[name] = c
		}
	}
	if len(candidates) == 0 {
		return stmts
	}

	replaced := map[string]bool{}
	for _, s := range stmts {
		inlineCallsInStmt(s, candidates, replaced)
	}

	var out []syntax.Stmt
	for _, s := range stmts {
		if d, ok := s.(*syntax.DefStmt); ok && replaced[d.Name.Name] {
			continue
		}
		out = append(out, s)
	}
	return out
}

type inlineCandidate struct {
	params []string
	result syntax.Expr
}

// candidateOf reduces a def body to a single result expression if its shape
// allows: a run of assignments to the return slot followed by returning it.
func candidateOf(d *syntax.DefStmt) *inlineCandidate {
	var params []string
	for _, p := range d.Params {
		id, ok := p.(*syntax.Ident)
		if !ok {
			return nil // default or variadic parameters stay out
		}
		params = append(params, id.Name)
	}
	if len(d.Body) == 0 {
		return nil
	}

	ret, ok := d.Body[len(d.Body)-1].(*syntax.ReturnStmt)
	if !ok || ret.Result == nil {
		return nil
	}
	var result syntax.Expr
	retName := ""
	if id, ok := unparen(ret.Result).(*syntax.Ident); ok {
		retName = id.Name
	} else if len(d.Body) == 1 {
		result = ret.Result
	} else {
		return nil
	}

	if result == nil {
		// Every preceding statement must assign the slot; the last
		// assignment's value is the result.
		for _, s := range d.Body[:len(d.Body)-1] {
			as, ok := s.(*syntax.AssignStmt)
			if !ok || as.Op != syntax.EQ {
				return nil
			}
			lhs, ok := unparen(as.LHS).(*syntax.Ident)
			if !ok || lhs.Name != retName {
				return nil
			}
			result = as.RHS
		}
		if result == nil {
			return nil
		}
		// The slot must not feed its own replacement value.
		selfRef := false
		scanExprIdents(result, func(n string) {
			if n == retName || n == d.Name.Name {
				selfRef = true
			}
		})
		if selfRef {
			return nil
		}
	}

	if len(exprText(result)) > inlineMaxBodyLen {
		return nil
	}
	// Each parameter may appear at most once so arguments are evaluated
	// once at the call site.
	uses := map[string]int{}
	scanExprIdents(result, func(n string) { uses[n]++ })
	for _, p := range params {
		if uses[p] > 1 {
			return nil
		}
	}
	return &inlineCandidate{params: params, result: result}
}

// countCalls tallies name references: direct call positions versus any
// other mention (which disqualifies inlining, since the function escapes).
func countCalls(s syntax.Stmt, calls, other map[string]int) {
	scanStmtCalls(s, func(e syntax.Expr, inCall bool) {
		id, ok := e.(*syntax.Ident)
		if !ok {
			return
		}
		if inCall {
			calls[id.Name]++
		} else {
			other[id.Name]++
		}
	})
}

// scanStmtCalls visits every identifier, reporting whether it appears as a
// call target.
func scanStmtCalls(s syntax.Stmt, fn func(e syntax.Expr, inCall bool)) {
	var expr func(e syntax.Expr)
	expr = func(e syntax.Expr) {
		switch e := e.(type) {
		case *syntax.Ident:
			fn(e, false)
		case *syntax.ParenExpr:
			expr(e.X)
		case *syntax.UnaryExpr:
			if e.X != nil {
				expr(e.X)
			}
		case *syntax.BinaryExpr:
			expr(e.X)
			expr(e.Y)
		case *syntax.CondExpr:
			expr(e.Cond)
			expr(e.True)
			expr(e.False)
		case *syntax.CallExpr:
			if id, ok := unparen(e.Fn).(*syntax.Ident); ok {
				fn(id, true)
			} else {
				expr(e.Fn)
			}
			for _, a := range e.Args {
				expr(a)
			}
		case *syntax.IndexExpr:
			expr(e.X)
			expr(e.Y)
		case *syntax.DotExpr:
			expr(e.X)
		case *syntax.SliceExpr:
			expr(e.X)
			if e.Lo != nil {
				expr(e.Lo)
			}
			if e.Hi != nil {
				expr(e.Hi)
			}
			if e.Step != nil {
				expr(e.Step)
			}
		case *syntax.ListExpr:
			for _, el := range e.List {
				expr(el)
			}
		case *syntax.TupleExpr:
			for _, el := range e.List {
				expr(el)
			}
		case *syntax.DictExpr:
			for _, el := range e.List {
				if entry, ok := el.(*syntax.DictEntry); ok {
					expr(entry.Key)
					expr(entry.Value)
				}
			}
		}
	}
	switch s := s.(type) {
	case *syntax.AssignStmt:
		expr(s.LHS)
		expr(s.RHS)
	case *syntax.ExprStmt:
		expr(s.X)
	case *syntax.ReturnStmt:
		if s.Result != nil {
			expr(s.Result)
		}
	case *syntax.IfStmt:
		expr(s.Cond)
		for _, t := range s.True {
			scanStmtCalls(t, fn)
		}
		for _, t := range s.False {
			scanStmtCalls(t, fn)
		}
	case *syntax.ForStmt:
		expr(s.X)
		for _, t := range s.Body {
			scanStmtCalls(t, fn)
		}
	case *syntax.WhileStmt:
		expr(s.Cond)
		for _, t := range s.Body {
			scanStmtCalls(t, fn)
		}
	case *syntax.DefStmt:
		for _, t := range s.Body {
			scanStmtCalls(t, fn)
		}
	}
}

func inlineCallsInStmt(s syntax.Stmt, candidates map[string]*inlineCandidate, replaced map[string]bool) {
	rewrite := func(e syntax.Expr) syntax.Expr {
		return inlineCallsInExpr(e, candidates, replaced)
	}
	switch s := s.(type) {
	case *syntax.AssignStmt:
		s.LHS = rewrite(s.LHS)
		s.RHS = rewrite(s.RHS)
	case *syntax.ExprStmt:
		s.X = rewrite(s.X)
	case *syntax.ReturnStmt:
		if s.Result != nil {
			s.Result = rewrite(s.Result)
		}
	case *syntax.IfStmt:
		s.Cond = rewrite(s.Cond)
		for _, t := range s.True {
			inlineCallsInStmt(t, candidates, replaced)
		}
		for _, t := range s.False {
			inlineCallsInStmt(t, candidates, replaced)
		}
	case *syntax.ForStmt:
		s.X = rewrite(s.X)
		for _, t := range s.Body {
			inlineCallsInStmt(t, candidates, replaced)
		}
	case *syntax.WhileStmt:
		s.Cond = rewrite(s.Cond)
		for _, t := range s.Body {
			inlineCallsInStmt(t, candidates, replaced)
		}
	case *syntax.DefStmt:
		for _, t := range s.Body {
			inlineCallsInStmt(t, candidates, replaced)
		}
	}
}

func inlineCallsInExpr(e syntax.Expr, candidates map[string]*inlineCandidate, replaced map[string]bool) syntax.Expr {
	rewrite := func(x syntax.Expr) syntax.Expr {
		return inlineCallsInExpr(x, candidates, replaced)
	}
	switch e := e.(type) {
	case *syntax.CallExpr:
		e.Fn = rewrite(e.Fn)
		for i := range e.Args {
			e.Args[i] = rewrite(e.Args[i])
		}
		id, ok := unparen(e.Fn).(*syntax.Ident)
		if !ok {
			return e
		}
		c, ok := candidates[id.Name]
		if !ok || len(e.Args) != len(c.params) {
			return e
		}
		subst := map[string]syntax.Expr{}
		for i, p := range c.params {
			subst[p] = e.Args[i]
		}
		replaced[id.Name] = true
		return &syntax.ParenExpr{X: cloneExpr(c.result, subst)}
	case *syntax.ParenExpr:
		e.X = rewrite(e.X)
		return e
	case *syntax.UnaryExpr:
		if e.X != nil {
			e.X = rewrite(e.X)
		}
		return e
	case *syntax.BinaryExpr:
		e.X = rewrite(e.X)
		e.Y = rewrite(e.Y)
		return e
	case *syntax.CondExpr:
		e.Cond = rewrite(e.Cond)
		e.True = rewrite(e.True)
		e.False = rewrite(e.False)
		return e
	case *syntax.IndexExpr:
		e.X = rewrite(e.X)
		e.Y = rewrite(e.Y)
		return e
	case *syntax.DotExpr:
		e.X = rewrite(e.X)
		return e
	case *syntax.SliceExpr:
		e.X = rewrite(e.X)
		if e.Lo != nil {
			e.Lo = rewrite(e.Lo)
		}
		if e.Hi != nil {
			e.Hi = rewrite(e.Hi)
		}
		if e.Step != nil {
			e.Step = rewrite(e.Step)
		}
		return e
	case *syntax.ListExpr:
		for i := range e.List {
			e.List[i] = rewrite(e.List[i])
		}
		return e
	case *syntax.TupleExpr:
		for i := range e.List {
			e.List[i] = rewrite(e.List[i])
		}
		return e
	case *syntax.DictExpr:
		for _, el := range e.List {
			if entry, ok := el.(*syntax.DictEntry); ok {
				entry.Key = rewrite(entry.Key)
				entry.Value = rewrite(entry.Value)
			}
		}
		return e
	}
	return e
}

//  Loop unrolling (level >= 3)

// unrollLoops expands counted loops with a statically known, small
// iteration count into straight-line repeated bodies. Loops exceeding the
// bound, or containing loop-control branches, are left intact. Unrolled
// output contains no qualifying loops, so a second run changes nothing.
func unrollLoops(stmts []syntax.Stmt) []syntax.Stmt {
	var out []syntax.Stmt
	for _, s := range stmts {
		switch s := s.(type) {
		case *syntax.ForStmt:
			s.Body = unrollLoops(s.Body)
			if expansion, ok := unrollOne(s); ok {
				out = append(out, expansion...)
				continue
			}
		case *syntax.WhileStmt:
			s.Body = unrollLoops(s.Body)
		case *syntax.IfStmt:
			s.True = unrollLoops(s.True)
			s.False = unrollLoops(s.False)
		case *syntax.DefStmt:
			s.Body = unrollLoops(s.Body)
		}
		out = append(out, s)
	}
	return out
}

func unrollOne(s *syntax.ForStmt) ([]syntax.Stmt, bool) {
	counter, ok := unparen(s.Vars).(*syntax.Ident)
	if !ok {
		return nil, false
	}
	call, ok := unparen(s.X).(*syntax.CallExpr)
	if !ok {
		return nil, false
	}
	fn, ok := unparen(call.Fn).(*syntax.Ident)
	if !ok || fn.Name != "basic_range" || len(call.Args) != 3 {
		return nil, false
	}
	from, ok := intConst(call.Args[0])
	if !ok {
		return nil, false
	}
	to, ok := intConst(call.Args[1])
	if !ok {
		return nil, false
	}
	step, ok := intConst(call.Args[2])
	if !ok || step == 0 {
		return nil, false
	}

	var count int64
	if step > 0 {
		if from > to {
			count = 0
		} else {
			count = (to-from)/step + 1
		}
	} else {
		if from < to {
			count = 0
		} else {
			count = (to-from)/step + 1
		}
	}
	if count > unrollMaxIterations {
		return nil, false
	}
	if bodyHasLoopControl(s.Body) {
		return nil, false
	}

	var out []syntax.Stmt
	for k := int64(0); k < count; k++ {
		out = append(out, &syntax.AssignStmt{
			Op:  syntax.EQ,
			LHS: &syntax.Ident{Name: counter.Name},
			RHS: &syntax.Literal{Token: syntax.INT, Value: from + k*step},
		})
		for _, b := range s.Body {
			out = append(out, cloneStmt(b))
		}
	}
	return spliced(out), true
}

func intConst(e syntax.Expr) (int64, bool) {
	switch e := unparen(e).(type) {
	case *syntax.Literal:
		if e.Token == syntax.INT {
			if v, ok := e.Value.(int64); ok {
				return v, true
			}
		}
	case *syntax.UnaryExpr:
		if e.Op == syntax.MINUS && e.X != nil {
			if v, ok := intConst(e.X); ok {
				return -v, true
			}
		}
	}
	return 0, false
}

// bodyHasLoopControl reports whether a break or continue in body would bind
// to the loop being unrolled (branches inside nested loops bind there).
func bodyHasLoopControl(body []syntax.Stmt) bool {
	for _, s := range body {
		switch s := s.(type) {
		case *syntax.BranchStmt:
			if s.Token == syntax.BREAK || s.Token == syntax.CONTINUE {
				return true
			}
		case *syntax.IfStmt:
			if bodyHasLoopControl(s.True) || bodyHasLoopControl(s.False) {
				return true
			}
		}
	}
	return false
}

// cloneStmt deep-copies a statement for body repetition.
func cloneStmt(s syntax.Stmt) syntax.Stmt {
	switch s := s.(type) {
	case *syntax.AssignStmt:
		return &syntax.AssignStmt{Op: s.Op, LHS: cloneExpr(s.LHS, nil), RHS: cloneExpr(s.RHS, nil)}
	case *syntax.ExprStmt:
		return &syntax.ExprStmt{X: cloneExpr(s.X, nil)}
	case *syntax.ReturnStmt:
		cp := &syntax.ReturnStmt{}
		if s.Result != nil {
			cp.Result = cloneExpr(s.Result, nil)
		}
		return cp
	case *syntax.BranchStmt:
		return &syntax.BranchStmt{Token: s.Token}
	case *syntax.IfStmt:
		cp := &syntax.IfStmt{Cond: cloneExpr(s.Cond, nil)}
		for _, t := range s.True {
			cp.True = append(cp.True, cloneStmt(t))
		}
		for _, t := range s.False {
			cp.False = append(cp.False, cloneStmt(t))
		}
		return cp
	case *syntax.ForStmt:
		cp := &syntax.ForStmt{Vars: cloneExpr(s.Vars, nil), X: cloneExpr(s.X, nil)}
		for _, t := range s.Body {
			cp.Body = append(cp.Body, cloneStmt(t))
		}
		return cp
	case *syntax.WhileStmt:
		cp := &syntax.WhileStmt{Cond: cloneExpr(s.Cond, nil)}
		for _, t := range s.Body {
			cp.Body = append(cp.Body, cloneStmt(t))
		}
		return cp
	case *syntax.DefStmt:
		cp := &syntax.DefStmt{Name: &syntax.Ident{Name: s.Name.Name}}
		for _, p := range s.Params {
			cp.Params = append(cp.Params, cloneExpr(p, nil))
		}
		for _, t := range s.Body {
			cp.Body = append(cp.Body, cloneStmt(t))
		}
		return cp
	}
	return s
}

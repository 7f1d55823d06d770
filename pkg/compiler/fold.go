package compiler

import (
	"math"

	"go.starlark.net/syntax"
)

//  Constant folding (level >= 2)

// foldConstants evaluates operations over literal operands throughout the
// tree. Folding works bottom-up, so nested literal arithmetic collapses in
// one run and a second run finds nothing left to fold.
func foldConstants(stmts []syntax.Stmt) []syntax.Stmt {
	for _, s := range stmts {
		foldStmt(s)
	}
	return stmts
}

func foldStmt(s syntax.Stmt) {
	switch s := s.(type) {
	case *syntax.AssignStmt:
		s.LHS = foldExpr(s.LHS)
		s.RHS = foldExpr(s.RHS)
	case *syntax.ExprStmt:
		s.X = foldExpr(s.X)
	case *syntax.ReturnStmt:
		if s.Result != nil {
			s.Result = foldExpr(s.Result)
		}
	case *syntax.IfStmt:
		s.Cond = foldExpr(s.Cond)
		foldConstants(s.True)
		foldConstants(s.False)
	case *syntax.ForStmt:
		s.X = foldExpr(s.X)
		foldConstants(s.Body)
	case *syntax.WhileStmt:
		s.Cond = foldExpr(s.Cond)
		foldConstants(s.Body)
	case *syntax.DefStmt:
		foldConstants(s.Body)
	}
}

func foldExpr(e syntax.Expr) syntax.Expr {
	switch e := e.(type) {
	case *syntax.ParenExpr:
		return foldExpr(e.X)
	case *syntax.UnaryExpr:
		if e.X != nil {
			e.X = foldExpr(e.X)
		}
		return foldUnaryExpr(e)
	case *syntax.BinaryExpr:
		e.X = foldExpr(e.X)
		e.Y = foldExpr(e.Y)
		return foldBinaryExpr(e)
	case *syntax.CondExpr:
		e.Cond = foldExpr(e.Cond)
		e.True = foldExpr(e.True)
		e.False = foldExpr(e.False)
		if b, ok := boolConst(e.Cond); ok {
			if b {
				return e.True
			}
			return e.False
		}
		return e
	case *syntax.CallExpr:
		e.Fn = foldExpr(e.Fn)
		for i := range e.Args {
			e.Args[i] = foldExpr(e.Args[i])
		}
		return foldCall(e)
	case *syntax.IndexExpr:
		e.X = foldExpr(e.X)
		e.Y = foldExpr(e.Y)
		return e
	case *syntax.DotExpr:
		e.X = foldExpr(e.X)
		return e
	case *syntax.ListExpr:
		for i := range e.List {
			e.List[i] = foldExpr(e.List[i])
		}
		return e
	case *syntax.TupleExpr:
		for i := range e.List {
			e.List[i] = foldExpr(e.List[i])
		}
		return e
	case *syntax.DictExpr:
		for _, el := range e.List {
			if entry, ok := el.(*syntax.DictEntry); ok {
				entry.Key = foldExpr(entry.Key)
				entry.Value = foldExpr(entry.Value)
			}
		}
		return e
	case *syntax.SliceExpr:
		e.X = foldExpr(e.X)
		if e.Lo != nil {
			e.Lo = foldExpr(e.Lo)
		}
		if e.Hi != nil {
			e.Hi = foldExpr(e.Hi)
		}
		if e.Step != nil {
			e.Step = foldExpr(e.Step)
		}
		return e
	}
	return e
}

// constOf extracts a Go value from a constant expression: int64, float64,
// string, or bool.
func constOf(e syntax.Expr) (any, bool) {
	switch e := unparen(e).(type) {
	case *syntax.Literal:
		switch e.Token {
		case syntax.INT:
			if v, ok := e.Value.(int64); ok {
				return v, true
			}
		case syntax.FLOAT:
			return e.Value.(float64), true
		case syntax.STRING:
			return e.Value.(string), true
		}
	case *syntax.Ident:
		switch e.Name {
		case "True":
			return true, true
		case "False":
			return false, true
		}
	}
	return nil, false
}

func constToExpr(v any) syntax.Expr {
	switch v := v.(type) {
	case int64:
		return &syntax.Literal{Token: syntax.INT, Value: v}
	case float64:
		return &syntax.Literal{Token: syntax.FLOAT, Value: v}
	case string:
		return &syntax.Literal{Token: syntax.STRING, Value: v}
	case bool:
		if v {
			return &syntax.Ident{Name: "True"}
		}
		return &syntax.Ident{Name: "False"}
	}
	return &syntax.Ident{Name: "None"}
}

func foldUnaryExpr(e *syntax.UnaryExpr) syntax.Expr {
	if e.X == nil {
		return e
	}
	v, ok := constOf(e.X)
	if !ok {
		return e
	}
	switch e.Op {
	case syntax.MINUS:
		switch v := v.(type) {
		case int64:
			return constToExpr(-v)
		case float64:
			return constToExpr(-v)
		}
	case syntax.PLUS:
		switch v.(type) {
		case int64, float64:
			return constToExpr(v)
		}
	case syntax.NOT:
		if b, ok := v.(bool); ok {
			return constToExpr(!b)
		}
	case syntax.TILDE:
		if n, ok := v.(int64); ok {
			return constToExpr(^n)
		}
	}
	return e
}

func foldBinaryExpr(e *syntax.BinaryExpr) syntax.Expr {
	// Short-circuit forms fold on a constant left side alone.
	if e.Op == syntax.AND || e.Op == syntax.OR {
		if b, ok := boolConst(e.X); ok {
			if (e.Op == syntax.AND) == b {
				return e.Y
			}
			return e.X
		}
		return e
	}

	x, ok := constOf(e.X)
	if !ok {
		return e
	}
	y, ok := constOf(e.Y)
	if !ok {
		return e
	}

	if xs, ok := x.(string); ok {
		ys, ok := y.(string)
		if !ok {
			return e
		}
		switch e.Op {
		case syntax.PLUS:
			return constToExpr(xs + ys)
		case syntax.EQL:
			return constToExpr(xs == ys)
		case syntax.NEQ:
			return constToExpr(xs != ys)
		case syntax.LT:
			return constToExpr(xs < ys)
		case syntax.GT:
			return constToExpr(xs > ys)
		case syntax.LE:
			return constToExpr(xs <= ys)
		case syntax.GE:
			return constToExpr(xs >= ys)
		}
		return e
	}

	if xi, ok := x.(int64); ok {
		if yi, ok := y.(int64); ok {
			return foldIntOp(e, xi, yi)
		}
	}

	xf, ok1 := numConst(x)
	yf, ok2 := numConst(y)
	if !ok1 || !ok2 {
		return e
	}
	switch e.Op {
	case syntax.PLUS:
		return constToExpr(xf + yf)
	case syntax.MINUS:
		return constToExpr(xf - yf)
	case syntax.STAR:
		return constToExpr(xf * yf)
	case syntax.SLASH:
		if yf == 0 {
			return e
		}
		return constToExpr(xf / yf)
	case syntax.EQL:
		return constToExpr(xf == yf)
	case syntax.NEQ:
		return constToExpr(xf != yf)
	case syntax.LT:
		return constToExpr(xf < yf)
	case syntax.GT:
		return constToExpr(xf > yf)
	case syntax.LE:
		return constToExpr(xf <= yf)
	case syntax.GE:
		return constToExpr(xf >= yf)
	}
	return e
}

func numConst(v any) (float64, bool) {
	switch v := v.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func foldIntOp(e *syntax.BinaryExpr, x, y int64) syntax.Expr {
	switch e.Op {
	case syntax.PLUS:
		return constToExpr(x + y)
	case syntax.MINUS:
		return constToExpr(x - y)
	case syntax.STAR:
		return constToExpr(x * y)
	case syntax.SLASH:
		if y == 0 {
			return e
		}
		return constToExpr(float64(x) / float64(y))
	case syntax.SLASHSLASH:
		if y == 0 {
			return e
		}
		return constToExpr(floorDiv(x, y))
	case syntax.PERCENT:
		if y == 0 {
			return e
		}
		return constToExpr(x - floorDiv(x, y)*y)
	case syntax.AMP:
		return constToExpr(x & y)
	case syntax.PIPE:
		return constToExpr(x | y)
	case syntax.CIRCUMFLEX:
		return constToExpr(x ^ y)
	case syntax.EQL:
		return constToExpr(x == y)
	case syntax.NEQ:
		return constToExpr(x != y)
	case syntax.LT:
		return constToExpr(x < y)
	case syntax.GT:
		return constToExpr(x > y)
	case syntax.LE:
		return constToExpr(x <= y)
	case syntax.GE:
		return constToExpr(x >= y)
	}
	return e
}

// floorDiv matches the target's floored integer division.
func floorDiv(x, y int64) int64 {
	q := x / y
	if (x%y != 0) && ((x < 0) != (y < 0)) {
		q--
	}
	return q
}

// foldCall folds the pure runtime-support helpers whose operands are
// literal: concatenation and power.
func foldCall(e *syntax.CallExpr) syntax.Expr {
	fn, ok := unparen(e.Fn).(*syntax.Ident)
	if !ok || len(e.Args) != 2 {
		return e
	}
	x, okX := constOf(e.Args[0])
	y, okY := constOf(e.Args[1])
	if !okX || !okY {
		return e
	}
	switch fn.Name {
	case "basic_concat":
		if xs, ok := x.(string); ok {
			if ys, ok := y.(string); ok {
				return constToExpr(xs + ys)
			}
		}
	case "basic_pow":
		xf, ok1 := numConst(x)
		yf, ok2 := numConst(y)
		if ok1 && ok2 {
			return constToExpr(math.Pow(xf, yf))
		}
	}
	return e
}

//  Variable inlining (level >= 2)

const (
	inlineMaxReads    = 3  // usage-count threshold, not a cost model
	inlineMaxValueLen = 20 // textual length bound for the inlined value
)

// inlineVariables substitutes a variable's single static value at its use
// sites when the value is short and the variable is read no more than a
// small fixed number of times. The assignment itself is removed in the same
// run, so re-running the pass finds nothing to do.
func inlineVariables(stmts []syntax.Stmt) []syntax.Stmt {
	stmts = inlineVarsInScope(stmts)
	for _, s := range stmts {
		if d, ok := s.(*syntax.DefStmt); ok {
			d.Body = inlineVarsInScope(d.Body)
		}
	}
	return stmts
}

func inlineVarsInScope(stmts []syntax.Stmt) []syntax.Stmt {
	writes := map[string]int{}
	reads := map[string]int{}

	countWrite := func(e syntax.Expr) {
		if id, ok := unparen(e).(*syntax.Ident); ok {
			writes[id.Name]++
		} else {
			// A compound target still reads its base.
			scanExprIdents(e, func(n string) { reads[n]++ })
		}
	}

	var scan func(body []syntax.Stmt)
	scan = func(body []syntax.Stmt) {
		for _, s := range body {
			switch s := s.(type) {
			case *syntax.AssignStmt:
				countWrite(s.LHS)
				if s.Op != syntax.EQ {
					// Augmented assignment also reads the target.
					scanExprIdents(s.LHS, func(n string) { reads[n]++ })
				}
				scanExprIdents(s.RHS, func(n string) { reads[n]++ })
			case *syntax.ExprStmt:
				scanExprIdents(s.X, func(n string) { reads[n]++ })
			case *syntax.ReturnStmt:
				if s.Result != nil {
					scanExprIdents(s.Result, func(n string) { reads[n]++ })
				}
			case *syntax.IfStmt:
				scanExprIdents(s.Cond, func(n string) { reads[n]++ })
				scan(s.True)
				scan(s.False)
			case *syntax.ForStmt:
				countWrite(s.Vars)
				scanExprIdents(s.X, func(n string) { reads[n]++ })
				scan(s.Body)
			case *syntax.WhileStmt:
				scanExprIdents(s.Cond, func(n string) { reads[n]++ })
				scan(s.Body)
			case *syntax.DefStmt:
				writes[s.Name.Name]++
				// The nested scope may capture our locals.
				for _, t := range s.Body {
					scanStmtIdents(t, func(n string) { reads[n]++ })
				}
			}
		}
	}
	scan(stmts)

	// Candidates: written exactly once, at this level, with a short
	// constant-shaped value, read at most the threshold.
	subst := map[string]syntax.Expr{}
	var out []syntax.Stmt
	for _, s := range stmts {
		if as, ok := s.(*syntax.AssignStmt); ok && as.Op == syntax.EQ {
			if id, ok := unparen(as.LHS).(*syntax.Ident); ok {
				if writes[id.Name] == 1 &&
					reads[id.Name] <= inlineMaxReads &&
					inlinableValue(as.RHS) &&
					len(exprText(as.RHS)) <= inlineMaxValueLen {
					subst[id.Name] = unparen(as.RHS)
					continue // drop the assignment
				}
			}
		}
		out = append(out, s)
	}
	if len(subst) == 0 {
		return stmts
	}
	for _, s := range out {
		substStmt(s, subst)
	}
	return out
}

// inlinableValue limits inlined values to side-effect-free constants.
func inlinableValue(e syntax.Expr) bool {
	switch e := unparen(e).(type) {
	case *syntax.Literal:
		return true
	case *syntax.Ident:
		return e.Name == "True" || e.Name == "False" || e.Name == "None"
	case *syntax.UnaryExpr:
		if e.Op == syntax.MINUS && e.X != nil {
			_, ok := unparen(e.X).(*syntax.Literal)
			return ok
		}
	}
	return false
}

func substStmt(s syntax.Stmt, subst map[string]syntax.Expr) {
	switch s := s.(type) {
	case *syntax.AssignStmt:
		// Only the read side substitutes; a write target keeps its name.
		if _, isIdent := unparen(s.LHS).(*syntax.Ident); !isIdent {
			s.LHS = substExpr(s.LHS, subst)
		}
		s.RHS = substExpr(s.RHS, subst)
	case *syntax.ExprStmt:
		s.X = substExpr(s.X, subst)
	case *syntax.ReturnStmt:
		if s.Result != nil {
			s.Result = substExpr(s.Result, subst)
		}
	case *syntax.IfStmt:
		s.Cond = substExpr(s.Cond, subst)
		for _, t := range s.True {
			substStmt(t, subst)
		}
		for _, t := range s.False {
			substStmt(t, subst)
		}
	case *syntax.ForStmt:
		s.X = substExpr(s.X, subst)
		for _, t := range s.Body {
			substStmt(t, subst)
		}
	case *syntax.WhileStmt:
		s.Cond = substExpr(s.Cond, subst)
		for _, t := range s.Body {
			substStmt(t, subst)
		}
	case *syntax.DefStmt:
		for _, t := range s.Body {
			substStmt(t, subst)
		}
	}
}

func substExpr(e syntax.Expr, subst map[string]syntax.Expr) syntax.Expr {
	switch e := e.(type) {
	case *syntax.Ident:
		if repl, ok := subst[e.Name]; ok {
			return cloneExpr(repl, nil)
		}
		return e
	case *syntax.ParenExpr:
		e.X = substExpr(e.X, subst)
		return e
	case *syntax.UnaryExpr:
		if e.X != nil {
			e.X = substExpr(e.X, subst)
		}
		return e
	case *syntax.BinaryExpr:
		e.X = substExpr(e.X, subst)
		e.Y = substExpr(e.Y, subst)
		return e
	case *syntax.CondExpr:
		e.Cond = substExpr(e.Cond, subst)
		e.True = substExpr(e.True, subst)
		e.False = substExpr(e.False, subst)
		return e
	case *syntax.CallExpr:
		e.Fn = substExpr(e.Fn, subst)
		for i := range e.Args {
			e.Args[i] = substExpr(e.Args[i], subst)
		}
		return e
	case *syntax.IndexExpr:
		e.X = substExpr(e.X, subst)
		e.Y = substExpr(e.Y, subst)
		return e
	case *syntax.DotExpr:
		e.X = substExpr(e.X, subst)
		return e
	case *syntax.SliceExpr:
		e.X = substExpr(e.X, subst)
		if e.Lo != nil {
			e.Lo = substExpr(e.Lo, subst)
		}
		if e.Hi != nil {
			e.Hi = substExpr(e.Hi, subst)
		}
		if e.Step != nil {
			e.Step = substExpr(e.Step, subst)
		}
		return e
	case *syntax.ListExpr:
		for i := range e.List {
			e.List[i] = substExpr(e.List[i], subst)
		}
		return e
	case *syntax.TupleExpr:
		for i := range e.List {
			e.List[i] = substExpr(e.List[i], subst)
		}
		return e
	case *syntax.DictExpr:
		for _, el := range e.List {
			if entry, ok := el.(*syntax.DictEntry); ok {
				entry.Key = substExpr(entry.Key, subst)
				entry.Value = substExpr(entry.Value, subst)
			}
		}
		return e
	}
	return e
}

// cloneExpr deep-copies an expression, substituting identifiers from subst
// along the way. A nil subst map copies verbatim.
func cloneExpr(e syntax.Expr, subst map[string]syntax.Expr) syntax.Expr {
	switch e := e.(type) {
	case *syntax.Ident:
		if subst != nil {
			if repl, ok := subst[e.Name]; ok {
				return cloneExpr(repl, nil)
			}
		}
		return &syntax.Ident{Name: e.Name}
	case *syntax.Literal:
		return &syntax.Literal{Token: e.Token, Raw: e.Raw, Value: e.Value}
	case *syntax.ParenExpr:
		return &syntax.ParenExpr{X: cloneExpr(e.X, subst)}
	case *syntax.UnaryExpr:
		cp := &syntax.UnaryExpr{Op: e.Op}
		if e.X != nil {
			cp.X = cloneExpr(e.X, subst)
		}
		return cp
	case *syntax.BinaryExpr:
		return &syntax.BinaryExpr{Op: e.Op, X: cloneExpr(e.X, subst), Y: cloneExpr(e.Y, subst)}
	case *syntax.CondExpr:
		return &syntax.CondExpr{
			Cond:  cloneExpr(e.Cond, subst),
			True:  cloneExpr(e.True, subst),
			False: cloneExpr(e.False, subst),
		}
	case *syntax.CallExpr:
		cp := &syntax.CallExpr{Fn: cloneExpr(e.Fn, subst)}
		for _, a := range e.Args {
			cp.Args = append(cp.Args, cloneExpr(a, subst))
		}
		return cp
	case *syntax.IndexExpr:
		return &syntax.IndexExpr{X: cloneExpr(e.X, subst), Y: cloneExpr(e.Y, subst)}
	case *syntax.DotExpr:
		return &syntax.DotExpr{X: cloneExpr(e.X, subst), Name: &syntax.Ident{Name: e.Name.Name}}
	case *syntax.ListExpr:
		cp := &syntax.ListExpr{}
		for _, el := range e.List {
			cp.List = append(cp.List, cloneExpr(el, subst))
		}
		return cp
	case *syntax.TupleExpr:
		cp := &syntax.TupleExpr{}
		for _, el := range e.List {
			cp.List = append(cp.List, cloneExpr(el, subst))
		}
		return cp
	case *syntax.DictExpr:
		cp := &syntax.DictExpr{}
		for _, el := range e.List {
			if entry, ok := el.(*syntax.DictEntry); ok {
				cp.List = append(cp.List, &syntax.DictEntry{
					Key:   cloneExpr(entry.Key, subst),
					Value: cloneExpr(entry.Value, subst),
				})
			}
		}
		return cp
	}
	return e
}

package compiler

import "strings"

//  Pass 6: declaration and interface validation

func (a *analyzer) validateDecls() {
	// Every call site of a Declare binding must match its signature.
	a.checkExternCalls(a.mod.Stmts)
	for _, p := range a.allProcs() {
		a.checkExternCalls(p.Body)
	}

	// A Property Let is write-only noise without its Get half.
	procs := a.allProcs()
	for _, p := range procs {
		if p.Kind != ProcPropertyLet {
			continue
		}
		found := false
		for _, q := range procs {
			if q.Kind == ProcPropertyGet && strings.EqualFold(q.Name, p.Name) {
				found = true
				break
			}
		}
		if !found {
			a.diag.errorf(CodePropertyNoGet, p.Loc,
				"Property Let %s has no matching Property Get", p.Name)
		}
	}
}

func (a *analyzer) checkExternCalls(body []Stmt) {
	walkStmts(body, func(s Stmt) {
		switch s := s.(type) {
		case *AssignStmt:
			walkExpr(s.Left, a.checkExternCall)
			walkExpr(s.Value, a.checkExternCall)
		case *CallStmt:
			walkExpr(s.Call, a.checkExternCall)
		case *PrintStmt:
			for _, e := range s.Args {
				walkExpr(e, a.checkExternCall)
			}
		case *IfStmt:
			walkExpr(s.Cond, a.checkExternCall)
			for i := range s.ElseIfs {
				walkExpr(s.ElseIfs[i].Cond, a.checkExternCall)
			}
		case *ForStmt:
			walkExpr(s.From, a.checkExternCall)
			walkExpr(s.To, a.checkExternCall)
			if s.Step != nil {
				walkExpr(s.Step, a.checkExternCall)
			}
		case *ForEachStmt:
			walkExpr(s.Coll, a.checkExternCall)
		case *DoLoopStmt:
			if s.Cond != nil {
				walkExpr(s.Cond, a.checkExternCall)
			}
		case *WhileStmt:
			walkExpr(s.Cond, a.checkExternCall)
		case *SelectStmt:
			walkExpr(s.Subject, a.checkExternCall)
			for i := range s.Cases {
				for j := range s.Cases[i].Items {
					walkExpr(s.Cases[i].Items[j].Value, a.checkExternCall)
					if to := s.Cases[i].Items[j].To; to != nil {
						walkExpr(to, a.checkExternCall)
					}
				}
			}
		case *WithStmt:
			walkExpr(s.Receiver, a.checkExternCall)
		case *ReDimStmt:
			for _, b := range s.Bounds {
				walkExpr(b, a.checkExternCall)
			}
		}
	})
}

// checkExternCall validates one call site against a Declare signature.
func (a *analyzer) checkExternCall(e Expr) {
	call, ok := e.(*CallOrIndex)
	if !ok || call.IsIndex {
		return
	}
	target, ok := call.Target.(*Ident)
	if !ok || target.Sym == NoSym {
		return
	}
	sym := a.table.Sym(target.Sym)
	if sym == nil || sym.Extern == nil {
		return
	}
	ext := sym.Extern
	if len(call.Args) != len(ext.Params) {
		a.diag.errorf(CodeDeclareArity, call.Span(),
			"%s declares %d parameter(s) but is called with %d argument(s)",
			ext.Name, len(ext.Params), len(call.Args))
		return
	}
	for i, arg := range call.Args {
		want := ext.Params[i].Type.Resolved
		if want == nil {
			continue
		}
		got := exprType(arg)
		if !got.AssignableTo(want) {
			a.diag.errorf(CodeDeclareArgType, arg.Span(),
				"argument %d of %s: cannot pass %s as %s",
				i+1, ext.Name, got, want)
		}
	}
}

// walkStmts applies fn to every statement in body, recursing into nested
// blocks. declRun groups flatten transparently.
func walkStmts(body []Stmt, fn func(Stmt)) {
	for _, s := range body {
		if run, ok := s.(*declRun); ok {
			walkStmts(run.Decls, fn)
			continue
		}
		fn(s)
		switch s := s.(type) {
		case *IfStmt:
			walkStmts(s.Then, fn)
			for i := range s.ElseIfs {
				walkStmts(s.ElseIfs[i].Body, fn)
			}
			walkStmts(s.Else, fn)
		case *ForStmt:
			walkStmts(s.Body, fn)
		case *ForEachStmt:
			walkStmts(s.Body, fn)
		case *DoLoopStmt:
			walkStmts(s.Body, fn)
		case *WhileStmt:
			walkStmts(s.Body, fn)
		case *SelectStmt:
			for i := range s.Cases {
				walkStmts(s.Cases[i].Body, fn)
			}
			walkStmts(s.Else, fn)
		case *WithStmt:
			walkStmts(s.Body, fn)
		}
	}
}

// walkExpr applies fn to e and every subexpression.
func walkExpr(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch e := e.(type) {
	case *UnaryExpr:
		walkExpr(e.X, fn)
	case *BinaryExpr:
		walkExpr(e.X, fn)
		walkExpr(e.Y, fn)
	case *CallOrIndex:
		walkExpr(e.Target, fn)
		for _, arg := range e.Args {
			walkExpr(arg, fn)
		}
	case *MemberExpr:
		walkExpr(e.X, fn)
	}
}

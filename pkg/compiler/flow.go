package compiler

import "strings"

//  Pass 4: control-flow analysis

func (a *analyzer) analyzeFlow() {
	a.markUnreachable(a.mod.Stmts, flowProc)
	for _, p := range a.allProcs() {
		a.flowProc(p)
	}
}

// allProcs returns every procedure in the module, including class methods,
// in declaration order.
func (a *analyzer) allProcs() []*ProcDecl {
	var procs []*ProcDecl
	for _, d := range a.mod.Decls {
		switch d := d.(type) {
		case *ClassDecl:
			procs = append(procs, d.Procs...)
		case *ProcDecl:
			procs = append(procs, d)
		}
	}
	procs = append(procs, a.mod.Procs...)
	return procs
}

func (a *analyzer) flowProc(p *ProcDecl) {
	a.markUnreachable(p.Body, flowProc)
	if p.Kind != ProcFunction {
		return
	}
	assigned, leaky := assignsOnAllPaths(p.Body, p.Name)
	if !assigned || leaky {
		a.diag.warnf(CodeMissingReturn, p.Loc,
			"Function %s has a path that never assigns its return value", p.Name)
	}
}

// flowContext tells terminality which Exit forms end the enclosing
// construct.
type flowContext int

const (
	flowProc flowContext = iota
	flowLoop
)

// markUnreachable reports the first statement after a terminal statement in
// each block. A label re-establishes reachability: it is a jump target.
func (a *analyzer) markUnreachable(body []Stmt, ctx flowContext) {
	terminal := false
	for _, s := range body {
		if _, isLabel := s.(*LabelStmt); isLabel {
			terminal = false
		}
		if terminal {
			if _, isErr := s.(*ErrorStmt); !isErr {
				a.diag.warnf(CodeUnreachable, s.Span(), "statement can never execute")
			}
			terminal = false // one report per run
		}
		a.markUnreachableNested(s)
		if a.isTerminal(s, ctx) {
			terminal = true
		}
	}
}

func (a *analyzer) markUnreachableNested(s Stmt) {
	switch s := s.(type) {
	case *IfStmt:
		a.markUnreachable(s.Then, flowProc)
		for i := range s.ElseIfs {
			a.markUnreachable(s.ElseIfs[i].Body, flowProc)
		}
		a.markUnreachable(s.Else, flowProc)
	case *ForStmt:
		a.markUnreachable(s.Body, flowLoop)
	case *ForEachStmt:
		a.markUnreachable(s.Body, flowLoop)
	case *DoLoopStmt:
		a.markUnreachable(s.Body, flowLoop)
	case *WhileStmt:
		a.markUnreachable(s.Body, flowLoop)
	case *SelectStmt:
		for i := range s.Cases {
			a.markUnreachable(s.Cases[i].Body, flowProc)
		}
		a.markUnreachable(s.Else, flowProc)
	case *WithStmt:
		a.markUnreachable(s.Body, flowProc)
	}
}

// isTerminal reports whether control cannot flow past s within its block.
func (a *analyzer) isTerminal(s Stmt, ctx flowContext) bool {
	switch s := s.(type) {
	case *ExitStmt:
		switch s.What {
		case KwFor, KwDo:
			return ctx == flowLoop
		default:
			return true
		}
	case *GotoStmt:
		return !s.IsGoSub
	case *ReturnStmt, *StopStmt:
		return true
	case *IfStmt:
		if len(s.Else) == 0 {
			return false
		}
		if !blockTerminal(a, s.Then, ctx) || !blockTerminal(a, s.Else, ctx) {
			return false
		}
		for i := range s.ElseIfs {
			if !blockTerminal(a, s.ElseIfs[i].Body, ctx) {
				return false
			}
		}
		return true
	case *SelectStmt:
		if len(s.Else) == 0 {
			return false
		}
		for i := range s.Cases {
			if !blockTerminal(a, s.Cases[i].Body, ctx) {
				return false
			}
		}
		return blockTerminal(a, s.Else, ctx)
	}
	return false
}

func blockTerminal(a *analyzer, body []Stmt, ctx flowContext) bool {
	for _, s := range body {
		if a.isTerminal(s, ctx) {
			return true
		}
	}
	return false
}

// assignsOnAllPaths reports whether every path through body assigns the
// named return slot before leaving. leaky is set when an Exit Function is
// reached with no assignment yet.
func assignsOnAllPaths(body []Stmt, name string) (assigned, leaky bool) {
	for _, s := range body {
		if assigned {
			return true, leaky
		}
		switch s := s.(type) {
		case *AssignStmt:
			if lv, ok := s.Left.(*Ident); ok && strings.EqualFold(lv.Name, name) {
				assigned = true
			}
		case *ExitStmt:
			if s.What == KwFunction && !assigned {
				leaky = true
			}
		case *IfStmt:
			all := len(s.Else) > 0
			thenA, thenL := assignsOnAllPaths(s.Then, name)
			leaky = leaky || thenL
			all = all && thenA
			for i := range s.ElseIfs {
				bA, bL := assignsOnAllPaths(s.ElseIfs[i].Body, name)
				leaky = leaky || bL
				all = all && bA
			}
			if len(s.Else) > 0 {
				eA, eL := assignsOnAllPaths(s.Else, name)
				leaky = leaky || eL
				all = all && eA
			}
			if all {
				assigned = true
			}
		case *ForStmt:
			_, l := assignsOnAllPaths(s.Body, name)
			leaky = leaky || l
		case *ForEachStmt:
			_, l := assignsOnAllPaths(s.Body, name)
			leaky = leaky || l
		case *DoLoopStmt:
			// A post-test loop body always runs at least once.
			bA, bL := assignsOnAllPaths(s.Body, name)
			leaky = leaky || bL
			if s.PostTest && bA {
				assigned = true
			}
		case *WhileStmt:
			_, l := assignsOnAllPaths(s.Body, name)
			leaky = leaky || l
		case *SelectStmt:
			all := len(s.Else) > 0
			for i := range s.Cases {
				cA, cL := assignsOnAllPaths(s.Cases[i].Body, name)
				leaky = leaky || cL
				all = all && cA
			}
			if len(s.Else) > 0 {
				eA, eL := assignsOnAllPaths(s.Else, name)
				leaky = leaky || eL
				all = all && eA
			}
			if all {
				assigned = true
			}
		case *WithStmt:
			wA, wL := assignsOnAllPaths(s.Body, name)
			leaky = leaky || wL
			if wA {
				assigned = true
			}
		}
	}
	return assigned, leaky
}

//  Pass 5: dead-code detection

// detectDeadCode flags procedures no reachable call site references and
// branches whose condition folds to constant false. Reachability is a
// worklist walk seeded from the module's executable statements; a module
// with no script-style statements is a library, so its public procedures
// seed the walk instead.
func (a *analyzer) detectDeadCode() {
	reachable := map[*ProcDecl]bool{}
	var work []*ProcDecl

	enqueue := func(p *ProcDecl) {
		if p != nil && !reachable[p] {
			reachable[p] = true
			work = append(work, p)
		}
	}

	a.scanForHints(a.mod.Stmts, enqueue)
	if len(a.mod.Stmts) == 0 {
		for _, p := range a.allProcs() {
			if !p.Private {
				enqueue(p)
			}
		}
	}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]
		a.scanForHints(p.Body, enqueue)
	}

	for _, p := range a.allProcs() {
		if !reachable[p] {
			p.Unused = true
			a.diag.warnf(CodeUnusedProcedure, p.Loc, "%s %s is never referenced", p.Kind, p.Name)
		}
	}
}

// scanForHints walks reachable statements, marking referenced procedures
// and constant-false branches in one pass.
func (a *analyzer) scanForHints(body []Stmt, enqueue func(*ProcDecl)) {
	for _, s := range body {
		switch s := s.(type) {
		case *declRun:
			a.scanForHints(s.Decls, enqueue)
		case *AssignStmt:
			a.scanExprRefs(s.Left, enqueue)
			a.scanExprRefs(s.Value, enqueue)
		case *CallStmt:
			a.scanExprRefs(s.Call, enqueue)
		case *PrintStmt:
			for _, e := range s.Args {
				a.scanExprRefs(e, enqueue)
			}
		case *IfStmt:
			a.scanExprRefs(s.Cond, enqueue)
			if v, ok := a.foldConst(0, s.Cond); ok && isConstFalse(v) {
				s.ConstFalse = true
				a.diag.warnf(CodeConstFalseBranch, s.Cond.Span(),
					"branch condition is always false")
			}
			a.scanForHints(s.Then, enqueue)
			for i := range s.ElseIfs {
				a.scanExprRefs(s.ElseIfs[i].Cond, enqueue)
				a.scanForHints(s.ElseIfs[i].Body, enqueue)
			}
			a.scanForHints(s.Else, enqueue)
		case *ForStmt:
			a.scanExprRefs(s.From, enqueue)
			a.scanExprRefs(s.To, enqueue)
			if s.Step != nil {
				a.scanExprRefs(s.Step, enqueue)
			}
			a.scanForHints(s.Body, enqueue)
		case *ForEachStmt:
			a.scanExprRefs(s.Coll, enqueue)
			a.scanForHints(s.Body, enqueue)
		case *DoLoopStmt:
			if s.Cond != nil {
				a.scanExprRefs(s.Cond, enqueue)
			}
			a.scanForHints(s.Body, enqueue)
		case *WhileStmt:
			a.scanExprRefs(s.Cond, enqueue)
			a.scanForHints(s.Body, enqueue)
		case *SelectStmt:
			a.scanExprRefs(s.Subject, enqueue)
			for i := range s.Cases {
				for j := range s.Cases[i].Items {
					a.scanExprRefs(s.Cases[i].Items[j].Value, enqueue)
					if to := s.Cases[i].Items[j].To; to != nil {
						a.scanExprRefs(to, enqueue)
					}
				}
				a.scanForHints(s.Cases[i].Body, enqueue)
			}
			a.scanForHints(s.Else, enqueue)
		case *WithStmt:
			a.scanExprRefs(s.Receiver, enqueue)
			a.scanForHints(s.Body, enqueue)
		case *ReDimStmt:
			for _, b := range s.Bounds {
				a.scanExprRefs(b, enqueue)
			}
		}
	}
}

func (a *analyzer) scanExprRefs(e Expr, enqueue func(*ProcDecl)) {
	switch e := e.(type) {
	case *Ident:
		if e.Sym == NoSym {
			return
		}
		sym := a.table.Sym(e.Sym)
		if sym == nil {
			return
		}
		sym.Refs++
		if sym.Proc != nil {
			enqueue(sym.Proc)
			// A property reference reaches both halves of the pair.
			if isPropertyKind(sym.Proc.Kind) {
				for _, p := range a.allProcs() {
					if strings.EqualFold(p.Name, sym.Proc.Name) {
						enqueue(p)
					}
				}
			}
		}
	case *UnaryExpr:
		a.scanExprRefs(e.X, enqueue)
	case *BinaryExpr:
		a.scanExprRefs(e.X, enqueue)
		a.scanExprRefs(e.Y, enqueue)
	case *CallOrIndex:
		a.scanExprRefs(e.Target, enqueue)
		for _, arg := range e.Args {
			a.scanExprRefs(arg, enqueue)
		}
	case *MemberExpr:
		if e.X != nil {
			a.scanExprRefs(e.X, enqueue)
		}
		// A method call through an instance reaches the class method.
		for _, d := range a.mod.Decls {
			if c, ok := d.(*ClassDecl); ok {
				for _, p := range c.Procs {
					if strings.EqualFold(p.Name, e.Name) {
						enqueue(p)
					}
				}
			}
		}
	case *NewExpr:
		// Instantiating a class reaches all of its methods.
		for _, d := range a.mod.Decls {
			if c, ok := d.(*ClassDecl); ok && strings.EqualFold(c.Name, e.TypeName) {
				for _, p := range c.Procs {
					enqueue(p)
				}
			}
		}
	}
}

func isConstFalse(v any) bool {
	switch v := v.(type) {
	case bool:
		return !v
	case int64:
		return v == 0
	case float64:
		return v == 0
	}
	return false
}

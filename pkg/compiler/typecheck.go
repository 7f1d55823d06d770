package compiler

//  Pass 3: type checking
//
// Operand and assignment compatibility follow the coercion lattice in
// types.go. Narrowing assignments stay silent; only genuinely incompatible
// combinations (string into Long, record into Integer) produce E002. A
// mismatch annotates the node Variant so later passes keep working.

func (a *analyzer) checkTypes() {
	a.checkStmts(a.mod.Stmts)
	for _, d := range a.mod.Decls {
		switch d := d.(type) {
		case *ClassDecl:
			for _, p := range d.Procs {
				a.checkStmts(p.Body)
			}
		case *ProcDecl:
			a.checkStmts(d.Body)
		}
	}
	for _, p := range a.mod.Procs {
		a.checkStmts(p.Body)
	}
}

func (a *analyzer) checkStmts(body []Stmt) {
	for _, s := range body {
		a.checkStmt(s)
	}
}

func (a *analyzer) checkStmt(s Stmt) {
	switch s := s.(type) {
	case *declRun:
		a.checkStmts(s.Decls)
	case *AssignStmt:
		a.checkExpr(s.Left)
		a.checkExpr(s.Value)
		dst := exprType(s.Left)
		src := exprType(s.Value)
		if !src.AssignableTo(dst) {
			a.diag.errorf(CodeTypeMismatch, s.Span(),
				"cannot assign %s to %s", src, dst)
		}
	case *CallStmt:
		a.checkExpr(s.Call)
	case *PrintStmt:
		for _, e := range s.Args {
			a.checkExpr(e)
		}
	case *IfStmt:
		a.checkCond(s.Cond)
		a.checkStmts(s.Then)
		for i := range s.ElseIfs {
			a.checkCond(s.ElseIfs[i].Cond)
			a.checkStmts(s.ElseIfs[i].Body)
		}
		a.checkStmts(s.Else)
	case *ForStmt:
		a.checkExpr(s.Var)
		a.checkNumeric(s.From)
		a.checkNumeric(s.To)
		if s.Step != nil {
			a.checkNumeric(s.Step)
		}
		if !exprType(s.Var).IsNumeric() {
			a.diag.errorf(CodeTypeMismatch, s.Var.Span(),
				"For counter %s must be numeric, not %s", s.Var.Name, exprType(s.Var))
		}
		a.checkStmts(s.Body)
	case *ForEachStmt:
		a.checkExpr(s.Coll)
		a.checkStmts(s.Body)
	case *DoLoopStmt:
		if s.Cond != nil {
			a.checkCond(s.Cond)
		}
		a.checkStmts(s.Body)
	case *WhileStmt:
		a.checkCond(s.Cond)
		a.checkStmts(s.Body)
	case *SelectStmt:
		a.checkExpr(s.Subject)
		subj := exprType(s.Subject)
		for i := range s.Cases {
			c := &s.Cases[i]
			for j := range c.Items {
				item := &c.Items[j]
				a.checkExpr(item.Value)
				if !exprType(item.Value).AssignableTo(subj) {
					a.diag.errorf(CodeTypeMismatch, item.Value.Span(),
						"Case value type %s does not match Select subject type %s",
						exprType(item.Value), subj)
				}
				if item.To != nil {
					a.checkExpr(item.To)
					if !exprType(item.To).AssignableTo(subj) {
						a.diag.errorf(CodeTypeMismatch, item.To.Span(),
							"Case range bound type %s does not match Select subject type %s",
							exprType(item.To), subj)
					}
				}
			}
			a.checkStmts(c.Body)
		}
		a.checkStmts(s.Else)
	case *WithStmt:
		a.checkExpr(s.Receiver)
		a.checkStmts(s.Body)
	case *ReDimStmt:
		for _, b := range s.Bounds {
			a.checkNumeric(b)
		}
	}
}

// checkCond validates a branch or loop condition. Numeric conditions are
// legal (nonzero is true) so only text and composite types are rejected.
func (a *analyzer) checkCond(e Expr) {
	a.checkExpr(e)
	t := exprType(e)
	if t.IsNumeric() || t.Kind == KindVariant {
		return
	}
	a.diag.errorf(CodeTypeMismatch, e.Span(), "condition must be Boolean or numeric, not %s", t)
}

func (a *analyzer) checkNumeric(e Expr) {
	a.checkExpr(e)
	if t := exprType(e); !t.IsNumeric() {
		a.diag.errorf(CodeTypeMismatch, e.Span(), "expected a numeric value, got %s", t)
	}
}

// checkExpr computes and annotates the type of every subexpression,
// reporting operand incompatibilities along the way.
func (a *analyzer) checkExpr(e Expr) {
	switch e := e.(type) {
	case *UnaryExpr:
		a.checkExpr(e.X)
		t := exprType(e.X)
		switch e.Op {
		case MINUS, PLUS:
			if !t.IsNumeric() {
				a.diag.errorf(CodeTypeMismatch, e.Span(), "unary %s requires a numeric operand, got %s", e.Op, t)
				e.Typ = TyVariant
				return
			}
			e.Typ = t
		case KwNot:
			if !t.IsNumeric() && t.Kind != KindVariant {
				a.diag.errorf(CodeTypeMismatch, e.Span(), "Not requires a Boolean or numeric operand, got %s", t)
				e.Typ = TyVariant
				return
			}
			e.Typ = TyBoolean
		default:
			e.Typ = TyVariant
		}
	case *BinaryExpr:
		a.checkExpr(e.X)
		a.checkExpr(e.Y)
		e.Typ = a.binaryType(e)
	case *CallOrIndex:
		a.checkExpr(e.Target)
		for _, arg := range e.Args {
			a.checkExpr(arg)
		}
		if e.IsIndex {
			for _, arg := range e.Args {
				if t := exprType(arg); !t.IsNumeric() {
					a.diag.errorf(CodeTypeMismatch, arg.Span(), "array index must be numeric, got %s", t)
				}
			}
		}
	case *MemberExpr:
		if e.X != nil {
			a.checkExpr(e.X)
		}
	}
}

func (a *analyzer) binaryType(e *BinaryExpr) *Type {
	x := exprType(e.X)
	y := exprType(e.Y)

	switch e.Op {
	case AMP:
		// Concatenation accepts anything with a textual rendering.
		if !x.IsStringy() && !x.IsNumeric() {
			a.diag.errorf(CodeTypeMismatch, e.X.Span(), "cannot concatenate %s", x)
		}
		if !y.IsStringy() && !y.IsNumeric() {
			a.diag.errorf(CodeTypeMismatch, e.Y.Span(), "cannot concatenate %s", y)
		}
		return TyString

	case EQ, NEQ, LT, GT, LE, GE, KwIs, KwLike:
		if e.Op == KwLike {
			if !x.IsStringy() || !y.IsStringy() {
				a.diag.errorf(CodeTypeMismatch, e.Span(), "Like requires string operands, got %s and %s", x, y)
			}
			return TyBoolean
		}
		if !x.AssignableTo(y) && !y.AssignableTo(x) {
			a.diag.errorf(CodeTypeMismatch, e.Span(), "cannot compare %s with %s", x, y)
		}
		return TyBoolean

	case KwAnd, KwOr, KwXor:
		// Logical over Booleans, bitwise over integers; both ride the
		// numeric lattice.
		if !x.IsNumeric() {
			a.diag.errorf(CodeTypeMismatch, e.X.Span(), "%s requires Boolean or numeric operands, got %s", e.Op, x)
		}
		if !y.IsNumeric() {
			a.diag.errorf(CodeTypeMismatch, e.Y.Span(), "%s requires Boolean or numeric operands, got %s", e.Op, y)
		}
		if x.Kind == KindBoolean && y.Kind == KindBoolean {
			return TyBoolean
		}
		return widen(x, y)

	case PLUS:
		// Legacy + concatenates when both sides are strings.
		if x.IsStringy() && y.IsStringy() && x.Kind != KindVariant {
			return TyString
		}
		fallthrough
	case MINUS, STAR, KwMod, BACKSLASH:
		if !x.IsNumeric() {
			a.diag.errorf(CodeTypeMismatch, e.X.Span(), "operator %s requires numeric operands, got %s", e.Op, x)
			return TyVariant
		}
		if !y.IsNumeric() {
			a.diag.errorf(CodeTypeMismatch, e.Y.Span(), "operator %s requires numeric operands, got %s", e.Op, y)
			return TyVariant
		}
		if e.Op == BACKSLASH || e.Op == KwMod {
			return TyLong
		}
		return widen(x, y)

	case SLASH, CARET:
		if !x.IsNumeric() {
			a.diag.errorf(CodeTypeMismatch, e.X.Span(), "operator %s requires numeric operands, got %s", e.Op, x)
			return TyVariant
		}
		if !y.IsNumeric() {
			a.diag.errorf(CodeTypeMismatch, e.Y.Span(), "operator %s requires numeric operands, got %s", e.Op, y)
			return TyVariant
		}
		return TyDouble
	}
	return TyVariant
}

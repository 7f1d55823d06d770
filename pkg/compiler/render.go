package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"go.starlark.net/syntax"
)

// renderFile prints a Starlark syntax tree back to source text. The printer
// is deterministic: the same tree always renders to the same bytes, with
// four-space indentation and fully parenthesized binary expressions, so
// optimizer passes that change nothing leave the text unchanged.
func renderFile(f *syntax.File) (string, error) {
	r := &renderer{}
	for _, s := range f.Stmts {
		r.stmt(s)
	}
	if r.err != nil {
		return "", r.err
	}
	return r.sb.String(), nil
}

type renderer struct {
	sb     strings.Builder
	indent int
	err    error
}

func (r *renderer) line(format string, args ...any) {
	r.sb.WriteString(strings.Repeat("    ", r.indent))
	fmt.Fprintf(&r.sb, format, args...)
	r.sb.WriteByte('\n')
}

func (r *renderer) fail(node any) {
	if r.err == nil {
		r.err = internalErr("optimize", "cannot render %T", node)
	}
}

func (r *renderer) block(body []syntax.Stmt) {
	r.indent++
	if len(body) == 0 {
		r.line("pass")
	}
	for _, s := range body {
		r.stmt(s)
	}
	r.indent--
}

func (r *renderer) stmt(s syntax.Stmt) {
	switch s := s.(type) {
	case *syntax.AssignStmt:
		r.line("%s %s %s", r.expr(s.LHS), s.Op, r.expr(s.RHS))
	case *syntax.BranchStmt:
		r.line("%s", s.Token)
	case *syntax.DefStmt:
		var params []string
		for _, p := range s.Params {
			params = append(params, r.expr(p))
		}
		r.line("def %s(%s):", s.Name.Name, strings.Join(params, ", "))
		r.block(s.Body)
	case *syntax.ExprStmt:
		r.line("%s", r.expr(s.X))
	case *syntax.ForStmt:
		r.line("for %s in %s:", r.expr(s.Vars), r.expr(s.X))
		r.block(s.Body)
	case *syntax.IfStmt:
		r.ifStmt(s, "if")
	case *syntax.ReturnStmt:
		if s.Result == nil {
			r.line("return")
		} else {
			r.line("return %s", r.expr(s.Result))
		}
	case *syntax.WhileStmt:
		r.line("while %s:", r.expr(s.Cond))
		r.block(s.Body)
	default:
		r.fail(s)
	}
}

// ifStmt renders an if chain, folding an else block holding a single nested
// if back into elif form.
func (r *renderer) ifStmt(s *syntax.IfStmt, kw string) {
	r.line("%s %s:", kw, r.expr(s.Cond))
	r.block(s.True)
	if len(s.False) == 0 {
		return
	}
	if len(s.False) == 1 {
		if nested, ok := s.False[0].(*syntax.IfStmt); ok {
			r.ifStmt(nested, "elif")
			return
		}
	}
	r.line("else:")
	r.block(s.False)
}

func (r *renderer) expr(e syntax.Expr) string {
	switch e := e.(type) {
	case *syntax.Ident:
		return e.Name
	case *syntax.Literal:
		return renderLiteral(e)
	case *syntax.ParenExpr:
		// Parens normalize away; binaries reintroduce their own.
		return r.expr(e.X)
	case *syntax.UnaryExpr:
		if e.Op == syntax.NOT {
			return "(not " + r.expr(e.X) + ")"
		}
		return "(" + e.Op.String() + r.expr(e.X) + ")"
	case *syntax.BinaryExpr:
		if e.Op == syntax.EQ {
			// A default parameter value: name=expr, no spaces.
			return r.expr(e.X) + "=" + r.expr(e.Y)
		}
		return "(" + r.expr(e.X) + " " + e.Op.String() + " " + r.expr(e.Y) + ")"
	case *syntax.CondExpr:
		return "(" + r.expr(e.True) + " if " + r.expr(e.Cond) + " else " + r.expr(e.False) + ")"
	case *syntax.CallExpr:
		var args []string
		for _, a := range e.Args {
			args = append(args, r.expr(a))
		}
		return r.expr(e.Fn) + "(" + strings.Join(args, ", ") + ")"
	case *syntax.IndexExpr:
		return r.expr(e.X) + "[" + r.expr(e.Y) + "]"
	case *syntax.DotExpr:
		return r.expr(e.X) + "." + e.Name.Name
	case *syntax.SliceExpr:
		out := r.expr(e.X) + "["
		if e.Lo != nil {
			out += r.expr(e.Lo)
		}
		out += ":"
		if e.Hi != nil {
			out += r.expr(e.Hi)
		}
		if e.Step != nil {
			out += ":" + r.expr(e.Step)
		}
		return out + "]"
	case *syntax.ListExpr:
		var elems []string
		for _, el := range e.List {
			elems = append(elems, r.expr(el))
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case *syntax.TupleExpr:
		var elems []string
		for _, el := range e.List {
			elems = append(elems, r.expr(el))
		}
		return "(" + strings.Join(elems, ", ") + ")"
	case *syntax.DictExpr:
		var entries []string
		for _, el := range e.List {
			entry, ok := el.(*syntax.DictEntry)
			if !ok {
				r.fail(el)
				continue
			}
			entries = append(entries, r.expr(entry.Key)+": "+r.expr(entry.Value))
		}
		return "{" + strings.Join(entries, ", ") + "}"
	default:
		r.fail(e)
		return "None"
	}
}

func renderLiteral(l *syntax.Literal) string {
	switch l.Token {
	case syntax.STRING:
		return strconv.Quote(l.Value.(string))
	case syntax.INT:
		return fmt.Sprint(l.Value)
	case syntax.FLOAT:
		return fmtFloat(l.Value.(float64))
	default:
		return l.Raw
	}
}

package compiler

import (
	"errors"
	"strconv"
	"strings"
)

// maxExprDepth bounds expression recursion so pathological nesting produces
// a diagnostic instead of a stack overflow.
const maxExprDepth = 64

// errParse signals that a diagnostic has already been recorded and the
// caller should resynchronize. It never escapes Parse.
var errParse = errors.New("parse error")

// syncSet is the fixed set of statement-boundary and block-terminator kinds
// the parser scans forward to after a syntax error.
var syncSet = map[TokenKind]bool{
	EOL: true, COLON: true, EOF: true,
	KwEnd: true, KwElse: true, KwElseIf: true,
	KwNext: true, KwLoop: true, KwWend: true, KwCase: true,
	KwSub: true, KwFunction: true, KwProperty: true,
}

// Parser consumes the flat token slice produced by the Lexer and builds an
// AST. It pulls tokens by index; the lexer never runs concurrently with it.
type Parser struct {
	tokens      []Token
	pos         int
	diag        diagBag
	depth       int
	atLineStart bool
}

// Parse builds a Module from tokens. A single syntax error never blocks
// discovery of others: the parser records a diagnostic, skips to the next
// statement boundary, and continues with an ErrorStmt placeholder.
func Parse(tokens []Token, moduleName string) (*Module, []Diagnostic) {
	p := &Parser{tokens: tokens, atLineStart: true}
	mod := &Module{Name: moduleName, Loc: Span{StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 1}}
	if len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		mod.Loc = mod.Loc.Extend(last.Pos())
	}

	p.skipSeparators()
	if p.at(KwOption) && p.peekAt(1).Kind == KwExplicit {
		p.advance()
		p.advance()
		mod.OptionExplicit = true
		p.endOfStatement()
	}

	for !p.at(EOF) {
		p.skipSeparators()
		if p.at(EOF) {
			break
		}
		tok := p.peek()
		switch {
		case p.atProcHeader():
			proc, err := p.parseProc()
			if err != nil {
				p.sync()
				mod.Stmts = append(mod.Stmts, &ErrorStmt{Loc: tok.Pos()})
				continue
			}
			mod.Procs = append(mod.Procs, proc)
		case tok.Kind == KwClass:
			cls, err := p.parseClass()
			if err != nil {
				p.sync()
				mod.Stmts = append(mod.Stmts, &ErrorStmt{Loc: tok.Pos()})
				continue
			}
			mod.Decls = append(mod.Decls, cls)
		case tok.Kind == KwType:
			d, err := p.parseTypeDecl()
			if err != nil {
				p.sync()
				continue
			}
			mod.Decls = append(mod.Decls, d)
		case tok.Kind == KwEnum:
			d, err := p.parseEnumDecl()
			if err != nil {
				p.sync()
				continue
			}
			mod.Decls = append(mod.Decls, d)
		case tok.Kind == KwDeclare || (p.isVisibility(tok.Kind) && p.peekAt(1).Kind == KwDeclare):
			d, err := p.parseExternDecl()
			if err != nil {
				p.sync()
				continue
			}
			mod.Decls = append(mod.Decls, d)
		case tok.Kind == KwDim || tok.Kind == KwConst || p.isVisibility(tok.Kind):
			decls, err := p.parseVarOrConst()
			if err != nil {
				p.sync()
				continue
			}
			mod.Decls = append(mod.Decls, decls...)
		default:
			stmt, err := p.parseStatement()
			if err != nil {
				p.sync()
				mod.Stmts = append(mod.Stmts, &ErrorStmt{Loc: tok.Pos()})
				continue
			}
			if stmt != nil {
				mod.Stmts = append(mod.Stmts, stmt)
			}
		}
	}

	SortDiagnostics(p.diag.list)
	return mod, p.diag.list
}

//  Token plumbing

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Kind: EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		return Token{Kind: EOF}
	}
	return p.tokens[p.pos+offset]
}

func (p *Parser) at(kind TokenKind) bool { return p.peek().Kind == kind }

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	p.atLineStart = tok.Kind == EOL || tok.Kind == COLON
	return tok
}

// expect consumes the current token if it matches, otherwise records a
// diagnostic and returns errParse.
func (p *Parser) expect(kind TokenKind) (Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		p.diag.errorf(CodeUnexpectedToken, tok.Pos(), "expected %s, got %s (%q)", kind, tok.Kind, tok.Lexeme)
		return tok, errParse
	}
	return p.advance(), nil
}

// name consumes an identifier, permitting keywords that double as member
// names in legacy code (e.g. a field called "Error").
func (p *Parser) name() (Token, error) {
	tok := p.peek()
	if tok.Kind == IDENT || tok.Kind.IsKeyword() {
		return p.advance(), nil
	}
	p.diag.errorf(CodeUnexpectedToken, tok.Pos(), "expected name, got %s (%q)", tok.Kind, tok.Lexeme)
	return tok, errParse
}

// skipSeparators consumes any run of EOL and ':' tokens.
func (p *Parser) skipSeparators() {
	for p.at(EOL) || p.at(COLON) {
		p.advance()
	}
}

// endOfStatement consumes the statement terminator (EOL, ':', or EOF).
func (p *Parser) endOfStatement() error {
	switch p.peek().Kind {
	case EOL, COLON:
		p.advance()
		return nil
	case EOF:
		return nil
	default:
		tok := p.peek()
		p.diag.errorf(CodeUnexpectedToken, tok.Pos(), "expected end of statement, got %s (%q)", tok.Kind, tok.Lexeme)
		return errParse
	}
}

// sync skips tokens up to the next member of the synchronization set, then
// past any statement separators, so parsing resumes at a known-good boundary.
func (p *Parser) sync() {
	for !syncSet[p.peek().Kind] {
		p.advance()
	}
	p.skipSeparators()
}

func (p *Parser) isVisibility(kind TokenKind) bool {
	return kind == KwPublic || kind == KwPrivate
}

// atProcHeader reports whether the current position starts a procedure
// declaration, with or without a visibility prefix.
func (p *Parser) atProcHeader() bool {
	i := 0
	if p.isVisibility(p.peek().Kind) || p.at(KwStatic) {
		i = 1
	}
	k := p.peekAt(i).Kind
	return k == KwSub || k == KwFunction || k == KwProperty
}

//  Declarations

// parseTypeRef parses an optional "As TypeName" annotation.
func (p *Parser) parseTypeRef() (TypeRef, error) {
	if !p.at(KwAs) {
		return TypeRef{}, nil
	}
	p.advance()
	tok := p.peek()
	if tok.Kind == KwNew {
		// Dim x As New ClassName: auto-instantiated object
		p.advance()
		tok = p.peek()
	}
	if _, builtin := builtinTypeKinds[tok.Kind]; builtin || tok.Kind == IDENT {
		p.advance()
		ref := TypeRef{Name: tok.Lexeme, Loc: tok.Pos()}
		// Fixed-length string: String * 20
		if tok.Kind == KwString && p.at(STAR) {
			p.advance()
			n, err := p.expect(NUMBER)
			if err != nil {
				return ref, err
			}
			ref.Name = "String*" + n.Lexeme
		}
		return ref, nil
	}
	p.diag.errorf(CodeUnexpectedToken, tok.Pos(), "expected type name, got %s (%q)", tok.Kind, tok.Lexeme)
	return TypeRef{}, errParse
}

// parseArrayBounds parses "(n [, m]...)" or "()" after a variable name.
// Legacy bounds are upper bounds of zero-based arrays, so n means n+1 slots.
func (p *Parser) parseArrayBounds() (bounds []int, dynamic bool, isArray bool, err error) {
	if !p.at(LPAREN) {
		return nil, false, false, nil
	}
	p.advance()
	if p.at(RPAREN) {
		p.advance()
		return nil, true, true, nil
	}
	for {
		tok, e := p.expect(NUMBER)
		if e != nil {
			return nil, false, true, e
		}
		n, _ := strconv.Atoi(tok.Lexeme)
		// "1 To 10" explicit lower bound form
		if p.at(KwTo) {
			p.advance()
			hi, e := p.expect(NUMBER)
			if e != nil {
				return nil, false, true, e
			}
			h, _ := strconv.Atoi(hi.Lexeme)
			n = h - n
		}
		bounds = append(bounds, n+1)
		if !p.at(COMMA) {
			break
		}
		p.advance()
	}
	if _, e := p.expect(RPAREN); e != nil {
		return nil, false, true, e
	}
	return bounds, false, true, nil
}

// parseVarOrConst handles Dim/Public/Private/Const lines, expanding comma
// lists into one declaration per name.
func (p *Parser) parseVarOrConst() ([]Decl, error) {
	private := false
	if p.isVisibility(p.peek().Kind) {
		private = p.advance().Kind == KwPrivate
	}
	isConst := false
	switch p.peek().Kind {
	case KwDim, KwStatic:
		p.advance()
	case KwConst:
		p.advance()
		isConst = true
	default:
		// Public x As Integer — visibility alone introduces a variable
	}

	var decls []Decl
	for {
		nameTok, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		if isConst {
			ref, err := p.parseTypeRef()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(EQ); err != nil {
				return nil, err
			}
			val, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			decls = append(decls, &ConstDecl{
				Name: nameTok.Lexeme, Type: ref, Value: val,
				Private: private, Loc: nameTok.Pos(), Sym: NoSym,
			})
		} else {
			bounds, dynamic, _, err := p.parseArrayBounds()
			if err != nil {
				return nil, err
			}
			ref, err := p.parseTypeRef()
			if err != nil {
				return nil, err
			}
			decls = append(decls, &VarDecl{
				Name: nameTok.Lexeme, Type: ref, Bounds: bounds, Dynamic: dynamic,
				Private: private, Loc: nameTok.Pos(), Sym: NoSym,
			})
		}
		if !p.at(COMMA) {
			break
		}
		p.advance()
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	return decls, nil
}

// parseTypeDecl parses Type Name ... End Type.
func (p *Parser) parseTypeDecl() (Decl, error) {
	start, _ := p.expect(KwType)
	nameTok, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	decl := &TypeDecl{Name: nameTok.Lexeme, Loc: start.Pos(), Sym: NoSym}
	for {
		p.skipSeparators()
		if p.at(KwEnd) && p.peekAt(1).Kind == KwType {
			p.advance()
			endTok := p.advance()
			decl.Loc = decl.Loc.Extend(endTok.Pos())
			break
		}
		if p.at(EOF) {
			p.diag.errorf(CodeUnexpectedToken, p.peek().Pos(), "Type %s not closed with End Type", decl.Name)
			return decl, nil
		}
		fieldTok, err := p.name()
		if err != nil {
			return nil, err
		}
		bounds, _, _, err := p.parseArrayBounds()
		if err != nil {
			return nil, err
		}
		ref, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		decl.Fields = append(decl.Fields, FieldDef{
			Name: fieldTok.Lexeme, Type: ref, Bounds: bounds, Loc: fieldTok.Pos(),
		})
		if err := p.endOfStatement(); err != nil {
			return nil, err
		}
	}
	return decl, p.endOfStatement()
}

// parseEnumDecl parses Enum Name ... End Enum.
func (p *Parser) parseEnumDecl() (Decl, error) {
	start, _ := p.expect(KwEnum)
	nameTok, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	decl := &EnumDecl{Name: nameTok.Lexeme, Loc: start.Pos(), Sym: NoSym}
	for {
		p.skipSeparators()
		if p.at(KwEnd) && p.peekAt(1).Kind == KwEnum {
			p.advance()
			p.advance()
			break
		}
		if p.at(EOF) {
			p.diag.errorf(CodeUnexpectedToken, p.peek().Pos(), "Enum %s not closed with End Enum", decl.Name)
			return decl, nil
		}
		memberTok, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		member := EnumMember{Name: memberTok.Lexeme, Loc: memberTok.Pos(), Sym: NoSym}
		if p.at(EQ) {
			p.advance()
			val, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			member.Value = val
		}
		decl.Members = append(decl.Members, member)
		if err := p.endOfStatement(); err != nil {
			return nil, err
		}
	}
	return decl, p.endOfStatement()
}

// parseExternDecl parses a Declare foreign-library binding.
func (p *Parser) parseExternDecl() (Decl, error) {
	if p.isVisibility(p.peek().Kind) {
		p.advance()
	}
	start, _ := p.expect(KwDeclare)
	isFunc := false
	switch p.peek().Kind {
	case KwFunction:
		isFunc = true
		p.advance()
	case KwSub:
		p.advance()
	default:
		tok := p.peek()
		p.diag.errorf(CodeUnexpectedToken, tok.Pos(), "expected Sub or Function after Declare, got %q", tok.Lexeme)
		return nil, errParse
	}
	nameTok, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KwLib); err != nil {
		return nil, err
	}
	libTok, err := p.expect(STRING_LIT)
	if err != nil {
		return nil, err
	}
	alias := ""
	if p.at(KwAlias) {
		p.advance()
		aliasTok, err := p.expect(STRING_LIT)
		if err != nil {
			return nil, err
		}
		alias = aliasTok.Lexeme
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	ret := TypeRef{}
	if isFunc {
		ret, err = p.parseTypeRef()
		if err != nil {
			return nil, err
		}
	}
	decl := &ExternDecl{
		Name: nameTok.Lexeme, Lib: libTok.Lexeme, Alias: alias,
		IsFunction: isFunc, Params: params, RetType: ret,
		Loc: start.Pos().Extend(nameTok.Pos()), Sym: NoSym,
	}
	return decl, p.endOfStatement()
}

// parseParamList parses "(param, param, ...)" including ByVal/ByRef/Optional
// markers. An absent list is allowed (legacy Subs without parens).
func (p *Parser) parseParamList() ([]Param, error) {
	if !p.at(LPAREN) {
		return nil, nil
	}
	p.advance()
	var params []Param
	for !p.at(RPAREN) {
		var param Param
		param.ByVal = false
		if p.at(KwOptional) {
			p.advance()
			param.Optional = true
		}
		switch p.peek().Kind {
		case KwByVal:
			p.advance()
			param.ByVal = true
		case KwByRef:
			p.advance()
		}
		nameTok, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		param.Name = nameTok.Lexeme
		param.Loc = nameTok.Pos()
		param.Sym = NoSym
		if p.at(LPAREN) && p.peekAt(1).Kind == RPAREN {
			// array parameter: name()
			p.advance()
			p.advance()
		}
		ref, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		param.Type = ref
		params = append(params, param)
		if !p.at(COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return params, nil
}

// parseProc parses a Sub, Function, or Property declaration through its
// matching End line.
func (p *Parser) parseProc() (*ProcDecl, error) {
	private := false
	if p.isVisibility(p.peek().Kind) {
		private = p.advance().Kind == KwPrivate
	}
	if p.at(KwStatic) {
		p.advance()
	}
	start := p.peek()
	var kind ProcKind
	var endKind TokenKind
	switch start.Kind {
	case KwSub:
		p.advance()
		kind = ProcSub
		endKind = KwSub
	case KwFunction:
		p.advance()
		kind = ProcFunction
		endKind = KwFunction
	case KwProperty:
		p.advance()
		endKind = KwProperty
		switch p.peek().Kind {
		case KwGet:
			p.advance()
			kind = ProcPropertyGet
		case KwLet, KwSet:
			p.advance()
			kind = ProcPropertyLet
		default:
			tok := p.peek()
			p.diag.errorf(CodeUnexpectedToken, tok.Pos(), "expected Get, Let, or Set after Property, got %q", tok.Lexeme)
			return nil, errParse
		}
	default:
		p.diag.errorf(CodeUnexpectedToken, start.Pos(), "expected procedure declaration, got %q", start.Lexeme)
		return nil, errParse
	}

	nameTok, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	ret := TypeRef{}
	if kind == ProcFunction || kind == ProcPropertyGet {
		ret, err = p.parseTypeRef()
		if err != nil {
			return nil, err
		}
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}

	proc := &ProcDecl{
		Kind: kind, Name: nameTok.Lexeme, Params: params, RetType: ret,
		Private: private, Loc: start.Pos().Extend(nameTok.Pos()), Sym: NoSym,
	}
	proc.Body = p.parseBody(func() bool {
		return p.at(KwEnd) && p.peekAt(1).Kind == endKind
	})
	if p.at(KwEnd) {
		p.advance()
		endTok := p.advance()
		proc.Loc = proc.Loc.Extend(endTok.Pos())
		return proc, p.endOfStatement()
	}
	p.diag.errorf(CodeUnexpectedToken, p.peek().Pos(), "%s %s not closed with End %s", kind, proc.Name, endKind)
	return proc, nil
}

// parseClass parses Class Name ... End Class with member variables and
// procedures.
func (p *Parser) parseClass() (*ClassDecl, error) {
	start, _ := p.expect(KwClass)
	nameTok, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	cls := &ClassDecl{Name: nameTok.Lexeme, Loc: start.Pos().Extend(nameTok.Pos()), Sym: NoSym}
	for {
		p.skipSeparators()
		if p.at(KwEnd) && p.peekAt(1).Kind == KwClass {
			p.advance()
			p.advance()
			break
		}
		if p.at(EOF) {
			p.diag.errorf(CodeUnexpectedToken, p.peek().Pos(), "Class %s not closed with End Class", cls.Name)
			return cls, nil
		}
		if p.atProcHeader() {
			proc, err := p.parseProc()
			if err != nil {
				p.sync()
				continue
			}
			cls.Procs = append(cls.Procs, proc)
			continue
		}
		decls, err := p.parseVarOrConst()
		if err != nil {
			p.sync()
			continue
		}
		for _, d := range decls {
			if v, ok := d.(*VarDecl); ok {
				cls.Vars = append(cls.Vars, v)
			}
		}
	}
	return cls, p.endOfStatement()
}

//  Statements

// parseBody parses statements until stop() matches or EOF, recovering from
// errors at statement boundaries.
func (p *Parser) parseBody(stop func() bool) []Stmt {
	var stmts []Stmt
	for {
		p.skipSeparators()
		if stop() || p.at(EOF) {
			return stmts
		}
		tok := p.peek()
		stmt, err := p.parseStatement()
		if err != nil {
			p.sync()
			stmts = append(stmts, &ErrorStmt{Loc: tok.Pos()})
			continue
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
}

// parseStatement dispatches on the leading token. The terminating EOL or ':'
// is consumed.
func (p *Parser) parseStatement() (Stmt, error) {
	tok := p.peek()
	switch tok.Kind {
	case KwDim, KwConst, KwStatic:
		decls, err := p.parseVarOrConst()
		if err != nil {
			return nil, err
		}
		if len(decls) == 1 {
			return decls[0].(Stmt), nil
		}
		// A comma list inside a body becomes a flat run of declarations.
		block := make([]Stmt, 0, len(decls))
		for _, d := range decls {
			block = append(block, d.(Stmt))
		}
		return &declRun{Decls: block, Loc: tok.Pos()}, nil

	case KwIf:
		return p.parseIf()
	case KwFor:
		return p.parseFor()
	case KwDo:
		return p.parseDoLoop()
	case KwWhile:
		return p.parseWhileWend()
	case KwSelect:
		return p.parseSelect()
	case KwWith:
		return p.parseWith()
	case KwExit:
		return p.parseExit()
	case KwOn:
		return p.parseOnError()
	case KwResume:
		return p.parseResume()
	case KwGoto, KwGoSub:
		p.advance()
		label, err := p.name()
		if err != nil {
			return nil, err
		}
		return &GotoStmt{Label: label.Lexeme, IsGoSub: tok.Kind == KwGoSub, Loc: tok.Pos()}, p.endOfStatement()
	case KwReturn:
		p.advance()
		return &ReturnStmt{Loc: tok.Pos()}, p.endOfStatement()
	case KwStop:
		p.advance()
		return &StopStmt{Loc: tok.Pos()}, p.endOfStatement()
	case KwReDim:
		return p.parseReDim()
	case KwErase:
		p.advance()
		target, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		return &EraseStmt{
			Target: &Ident{Name: target.Lexeme, Loc: target.Pos(), Sym: NoSym},
			Loc:    tok.Pos(),
		}, p.endOfStatement()
	case KwPrint:
		return p.parsePrint()
	case KwCall:
		p.advance()
		call, err := p.parsePostfixChain()
		if err != nil {
			return nil, err
		}
		return &CallStmt{Call: call, Loc: tok.Pos()}, p.endOfStatement()
	case KwLet, KwSet:
		p.advance()
		return p.parseAssignOrCall(tok.Kind == KwSet)
	case IDENT:
		// A line-leading identifier followed by ':' is a label.
		if p.atLineStart && p.peekAt(1).Kind == COLON {
			p.advance()
			p.advance()
			return &LabelStmt{Name: tok.Lexeme, Loc: tok.Pos()}, nil
		}
		return p.parseAssignOrCall(false)
	case DOT, KwMe:
		return p.parseAssignOrCall(false)
	default:
		p.diag.errorf(CodeUnexpectedToken, tok.Pos(), "unexpected token %s (%q)", tok.Kind, tok.Lexeme)
		return nil, errParse
	}
}

// declRun groups the declarations expanded from one comma list so a body
// slot stays one statement.
type declRun struct {
	Decls []Stmt
	Loc   Span
}

func (s *declRun) stmtNode()  {}
func (s *declRun) Span() Span { return s.Loc }

// parseAssignOrCall parses statements that begin with an lvalue-shaped
// expression: assignment when '=' follows, otherwise a call (optionally with
// legacy paren-less arguments).
func (p *Parser) parseAssignOrCall(isSet bool) (Stmt, error) {
	start := p.peek()
	left, err := p.parsePostfixChain()
	if err != nil {
		return nil, err
	}
	if p.at(EQ) {
		p.advance()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &AssignStmt{Left: left, Value: value, IsSet: isSet, Loc: start.Pos()}, p.endOfStatement()
	}
	// Legacy bare call with paren-less arguments: Foo 1, 2
	if p.startsExpression() {
		var args []Expr
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.at(COMMA) {
				break
			}
			p.advance()
		}
		left = &CallOrIndex{Target: left, Args: args, Loc: start.Pos()}
	}
	return &CallStmt{Call: left, Loc: start.Pos()}, p.endOfStatement()
}

// startsExpression reports whether the current token can begin an expression
// argument (used only for paren-less call arguments).
func (p *Parser) startsExpression() bool {
	switch p.peek().Kind {
	case NUMBER, STRING_LIT, DATE_LIT, IDENT, MINUS, PLUS, LPAREN,
		KwTrue, KwFalse, KwNothing, KwNull, KwEmpty, KwNot, KwNew, KwMe:
		return true
	}
	return false
}

func (p *Parser) parsePrint() (Stmt, error) {
	start := p.advance() // Print
	stmt := &PrintStmt{Loc: start.Pos()}
	for p.startsExpression() {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Args = append(stmt.Args, arg)
		if p.at(SEMI) || p.at(COMMA) {
			p.advance()
			continue
		}
		break
	}
	return stmt, p.endOfStatement()
}

func (p *Parser) parseIf() (Stmt, error) {
	start := p.advance() // If
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KwThen); err != nil {
		return nil, err
	}
	stmt := &IfStmt{Cond: cond, Loc: start.Pos()}

	// Single-line form: statements follow Then on the same logical line.
	if !p.at(EOL) && !p.at(EOF) && !p.at(COLON) {
		then, err := p.parseInlineStmts()
		if err != nil {
			return nil, err
		}
		stmt.Then = then
		if p.at(KwElse) {
			p.advance()
			els, err := p.parseInlineStmts()
			if err != nil {
				return nil, err
			}
			stmt.Else = els
		}
		return stmt, p.endOfStatement()
	}

	p.advance() // EOL
	stmt.Then = p.parseBody(func() bool {
		return p.at(KwElseIf) || p.at(KwElse) ||
			(p.at(KwEnd) && p.peekAt(1).Kind == KwIf)
	})
	for p.at(KwElseIf) {
		arm := ElseIfClause{Loc: p.peek().Pos()}
		p.advance()
		arm.Cond, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(KwThen); err != nil {
			return nil, err
		}
		if err := p.endOfStatement(); err != nil {
			return nil, err
		}
		arm.Body = p.parseBody(func() bool {
			return p.at(KwElseIf) || p.at(KwElse) ||
				(p.at(KwEnd) && p.peekAt(1).Kind == KwIf)
		})
		stmt.ElseIfs = append(stmt.ElseIfs, arm)
	}
	if p.at(KwElse) {
		p.advance()
		if err := p.endOfStatement(); err != nil {
			return nil, err
		}
		stmt.Else = p.parseBody(func() bool {
			return p.at(KwEnd) && p.peekAt(1).Kind == KwIf
		})
	}
	if p.at(KwEnd) && p.peekAt(1).Kind == KwIf {
		p.advance()
		p.advance()
		return stmt, p.endOfStatement()
	}
	p.diag.errorf(CodeUnexpectedToken, p.peek().Pos(), "If not closed with End If")
	return stmt, errParse
}

// parseInlineStmts parses ':'-separated statements on a single-line If arm.
func (p *Parser) parseInlineStmts() ([]Stmt, error) {
	var stmts []Stmt
	for {
		stmt, err := p.parseInlineStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if p.at(COLON) && p.peekAt(1).Kind != EOL {
			p.advance()
			if p.at(KwElse) || p.at(EOL) || p.at(EOF) {
				break
			}
			continue
		}
		break
	}
	return stmts, nil
}

// parseInlineStmt parses one statement of a single-line If without consuming
// the statement terminator.
func (p *Parser) parseInlineStmt() (Stmt, error) {
	tok := p.peek()
	switch tok.Kind {
	case KwExit:
		return p.parseExitNoTerm()
	case KwPrint:
		start := p.advance()
		stmt := &PrintStmt{Loc: start.Pos()}
		for p.startsExpression() {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			stmt.Args = append(stmt.Args, arg)
			if p.at(SEMI) {
				p.advance()
				continue
			}
			break
		}
		return stmt, nil
	case KwGoto:
		p.advance()
		label, err := p.name()
		if err != nil {
			return nil, err
		}
		return &GotoStmt{Label: label.Lexeme, Loc: tok.Pos()}, nil
	case KwCall:
		p.advance()
		call, err := p.parsePostfixChain()
		if err != nil {
			return nil, err
		}
		return &CallStmt{Call: call, Loc: tok.Pos()}, nil
	default:
		left, err := p.parsePostfixChain()
		if err != nil {
			return nil, err
		}
		if p.at(EQ) {
			p.advance()
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return &AssignStmt{Left: left, Value: value, Loc: tok.Pos()}, nil
		}
		return &CallStmt{Call: left, Loc: tok.Pos()}, nil
	}
}

func (p *Parser) parseFor() (Stmt, error) {
	start := p.advance() // For
	if p.at(KwEach) {
		p.advance()
		varTok, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(KwIn); err != nil {
			return nil, err
		}
		coll, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.endOfStatement(); err != nil {
			return nil, err
		}
		stmt := &ForEachStmt{
			Var:  &Ident{Name: varTok.Lexeme, Loc: varTok.Pos(), Sym: NoSym},
			Coll: coll,
			Loc:  start.Pos(),
		}
		stmt.Body = p.parseBody(func() bool { return p.at(KwNext) })
		return stmt, p.finishNext(stmt.Var.Name)
	}

	varTok, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(EQ); err != nil {
		return nil, err
	}
	from, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KwTo); err != nil {
		return nil, err
	}
	to, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	var step Expr
	if p.at(KwStep) {
		p.advance()
		step, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	stmt := &ForStmt{
		Var:  &Ident{Name: varTok.Lexeme, Loc: varTok.Pos(), Sym: NoSym},
		From: from, To: to, Step: step,
		Loc: start.Pos(),
	}
	stmt.Body = p.parseBody(func() bool { return p.at(KwNext) })
	return stmt, p.finishNext(stmt.Var.Name)
}

// finishNext consumes "Next [counter]".
func (p *Parser) finishNext(counter string) error {
	if !p.at(KwNext) {
		p.diag.errorf(CodeUnexpectedToken, p.peek().Pos(), "For not closed with Next")
		return errParse
	}
	p.advance()
	if p.at(IDENT) {
		tok := p.advance()
		if !strings.EqualFold(tok.Lexeme, counter) {
			p.diag.errorf(CodeUnexpectedToken, tok.Pos(), "Next %s does not match For %s", tok.Lexeme, counter)
		}
	}
	return p.endOfStatement()
}

func (p *Parser) parseDoLoop() (Stmt, error) {
	start := p.advance() // Do
	stmt := &DoLoopStmt{Loc: start.Pos()}
	if p.at(KwWhile) || p.at(KwUntil) {
		stmt.Until = p.advance().Kind == KwUntil
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Cond = cond
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	stmt.Body = p.parseBody(func() bool { return p.at(KwLoop) })
	if !p.at(KwLoop) {
		p.diag.errorf(CodeUnexpectedToken, p.peek().Pos(), "Do not closed with Loop")
		return nil, errParse
	}
	p.advance()
	if p.at(KwWhile) || p.at(KwUntil) {
		if stmt.Cond != nil {
			p.diag.errorf(CodeUnexpectedToken, p.peek().Pos(), "Do and Loop cannot both carry a condition")
			return nil, errParse
		}
		stmt.PostTest = true
		stmt.Until = p.advance().Kind == KwUntil
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Cond = cond
	}
	return stmt, p.endOfStatement()
}

func (p *Parser) parseWhileWend() (Stmt, error) {
	start := p.advance() // While
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	stmt := &WhileStmt{Cond: cond, Loc: start.Pos()}
	stmt.Body = p.parseBody(func() bool { return p.at(KwWend) })
	if !p.at(KwWend) {
		p.diag.errorf(CodeUnexpectedToken, p.peek().Pos(), "While not closed with Wend")
		return nil, errParse
	}
	p.advance()
	return stmt, p.endOfStatement()
}

func (p *Parser) parseSelect() (Stmt, error) {
	start := p.advance() // Select
	if _, err := p.expect(KwCase); err != nil {
		return nil, err
	}
	subject, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	stmt := &SelectStmt{Subject: subject, Loc: start.Pos()}
	for {
		p.skipSeparators()
		if p.at(KwEnd) && p.peekAt(1).Kind == KwSelect {
			p.advance()
			p.advance()
			return stmt, p.endOfStatement()
		}
		if p.at(EOF) {
			p.diag.errorf(CodeUnexpectedToken, p.peek().Pos(), "Select Case not closed with End Select")
			return stmt, nil
		}
		caseTok, err := p.expect(KwCase)
		if err != nil {
			return nil, err
		}
		clause := CaseClause{Loc: caseTok.Pos()}
		if p.at(KwElse) {
			p.advance()
			if err := p.endOfStatement(); err != nil {
				return nil, err
			}
			stmt.Else = p.parseBody(func() bool {
				return p.at(KwCase) || (p.at(KwEnd) && p.peekAt(1).Kind == KwSelect)
			})
			continue
		}
		for {
			item, err := p.parseCaseItem()
			if err != nil {
				return nil, err
			}
			clause.Items = append(clause.Items, item)
			if !p.at(COMMA) {
				break
			}
			p.advance()
		}
		if err := p.endOfStatement(); err != nil {
			return nil, err
		}
		clause.Body = p.parseBody(func() bool {
			return p.at(KwCase) || (p.at(KwEnd) && p.peekAt(1).Kind == KwSelect)
		})
		stmt.Cases = append(stmt.Cases, clause)
	}
}

// parseCaseItem parses one entry of a Case value list: value, "lo To hi",
// or "Is <op> value".
func (p *Parser) parseCaseItem() (CaseItem, error) {
	tok := p.peek()
	if tok.Kind == KwIs {
		p.advance()
		opTok := p.peek()
		switch opTok.Kind {
		case EQ, NEQ, LT, GT, LE, GE:
			p.advance()
		default:
			p.diag.errorf(CodeUnexpectedToken, opTok.Pos(), "expected comparison operator after Is, got %q", opTok.Lexeme)
			return CaseItem{}, errParse
		}
		val, err := p.parseExpression()
		if err != nil {
			return CaseItem{}, err
		}
		return CaseItem{Value: val, IsOp: opTok.Kind, Loc: tok.Pos()}, nil
	}
	val, err := p.parseExpression()
	if err != nil {
		return CaseItem{}, err
	}
	item := CaseItem{Value: val, Loc: tok.Pos()}
	if p.at(KwTo) {
		p.advance()
		hi, err := p.parseExpression()
		if err != nil {
			return CaseItem{}, err
		}
		item.To = hi
	}
	return item, nil
}

func (p *Parser) parseWith() (Stmt, error) {
	start := p.advance() // With
	recv, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	stmt := &WithStmt{Receiver: recv, Loc: start.Pos()}
	stmt.Body = p.parseBody(func() bool {
		return p.at(KwEnd) && p.peekAt(1).Kind == KwWith
	})
	if p.at(KwEnd) && p.peekAt(1).Kind == KwWith {
		p.advance()
		p.advance()
		return stmt, p.endOfStatement()
	}
	p.diag.errorf(CodeUnexpectedToken, p.peek().Pos(), "With not closed with End With")
	return stmt, errParse
}

func (p *Parser) parseExit() (Stmt, error) {
	stmt, err := p.parseExitNoTerm()
	if err != nil {
		return nil, err
	}
	return stmt, p.endOfStatement()
}

func (p *Parser) parseExitNoTerm() (Stmt, error) {
	start := p.advance() // Exit
	tok := p.peek()
	switch tok.Kind {
	case KwSub, KwFunction, KwProperty, KwFor, KwDo:
		p.advance()
		return &ExitStmt{What: tok.Kind, Loc: start.Pos().Extend(tok.Pos())}, nil
	default:
		p.diag.errorf(CodeUnexpectedToken, tok.Pos(), "expected Sub, Function, Property, For, or Do after Exit, got %q", tok.Lexeme)
		return nil, errParse
	}
}

func (p *Parser) parseOnError() (Stmt, error) {
	start := p.advance() // On
	if _, err := p.expect(KwError); err != nil {
		return nil, err
	}
	switch p.peek().Kind {
	case KwResume:
		p.advance()
		if _, err := p.expect(KwNext); err != nil {
			return nil, err
		}
		return &OnErrorStmt{ResumeNext: true, Loc: start.Pos()}, p.endOfStatement()
	case KwGoto:
		p.advance()
		tok := p.peek()
		if tok.Kind == NUMBER && tok.Lexeme == "0" {
			p.advance()
			return &OnErrorStmt{Loc: start.Pos()}, p.endOfStatement()
		}
		label, err := p.name()
		if err != nil {
			return nil, err
		}
		return &OnErrorStmt{Label: label.Lexeme, Loc: start.Pos()}, p.endOfStatement()
	default:
		tok := p.peek()
		p.diag.errorf(CodeUnexpectedToken, tok.Pos(), "expected Resume Next or Goto after On Error, got %q", tok.Lexeme)
		return nil, errParse
	}
}

func (p *Parser) parseResume() (Stmt, error) {
	start := p.advance() // Resume
	stmt := &ResumeStmt{Loc: start.Pos()}
	switch p.peek().Kind {
	case KwNext:
		p.advance()
		stmt.Next = true
	case IDENT:
		stmt.Label = p.advance().Lexeme
	}
	return stmt, p.endOfStatement()
}

func (p *Parser) parseReDim() (Stmt, error) {
	start := p.advance() // ReDim
	stmt := &ReDimStmt{Loc: start.Pos()}
	if p.at(KwPreserve) {
		p.advance()
		stmt.Preserve = true
	}
	nameTok, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	stmt.Target = &Ident{Name: nameTok.Lexeme, Loc: nameTok.Pos(), Sym: NoSym}
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	for {
		bound, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Bounds = append(stmt.Bounds, bound)
		if !p.at(COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return stmt, p.endOfStatement()
}

//  Expressions
//
// Precedence, loosest to tightest, left-associative except ^:
//   Or → And → Not → comparison → & → + - → Mod → \ → * / → unary sign → ^

func (p *Parser) parseExpression() (Expr, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxExprDepth {
		tok := p.peek()
		p.diag.errorf(CodeExprTooComplex, tok.Pos(), "expression too complex (nesting exceeds %d levels)", maxExprDepth)
		return nil, errParse
	}
	return p.parseOr()
}

func (p *Parser) parseOr() (Expr, error) {
	expr, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(KwOr) || p.at(KwXor) {
		op := p.advance().Kind
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: op, X: expr, Y: right, Loc: expr.Span().Extend(right.Span())}
	}
	return expr, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	expr, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.at(KwAnd) {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: KwAnd, X: expr, Y: right, Loc: expr.Span().Extend(right.Span())}
	}
	return expr, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.at(KwNot) {
		tok := p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: KwNot, X: x, Loc: tok.Pos().Extend(x.Span())}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Expr, error) {
	expr, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	for {
		kind := p.peek().Kind
		if kind != EQ && kind != NEQ && kind != LT && kind != GT &&
			kind != LE && kind != GE && kind != KwIs && kind != KwLike {
			return expr, nil
		}
		p.advance()
		right, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: kind, X: expr, Y: right, Loc: expr.Span().Extend(right.Span())}
	}
}

func (p *Parser) parseConcat() (Expr, error) {
	expr, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.at(AMP) {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: AMP, X: expr, Y: right, Loc: expr.Span().Extend(right.Span())}
	}
	return expr, nil
}

func (p *Parser) parseAdditive() (Expr, error) {
	expr, err := p.parseMod()
	if err != nil {
		return nil, err
	}
	for p.at(PLUS) || p.at(MINUS) {
		op := p.advance().Kind
		right, err := p.parseMod()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: op, X: expr, Y: right, Loc: expr.Span().Extend(right.Span())}
	}
	return expr, nil
}

func (p *Parser) parseMod() (Expr, error) {
	expr, err := p.parseIntDiv()
	if err != nil {
		return nil, err
	}
	for p.at(KwMod) {
		p.advance()
		right, err := p.parseIntDiv()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: KwMod, X: expr, Y: right, Loc: expr.Span().Extend(right.Span())}
	}
	return expr, nil
}

func (p *Parser) parseIntDiv() (Expr, error) {
	expr, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.at(BACKSLASH) {
		p.advance()
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: BACKSLASH, X: expr, Y: right, Loc: expr.Span().Extend(right.Span())}
	}
	return expr, nil
}

func (p *Parser) parseMul() (Expr, error) {
	expr, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(STAR) || p.at(SLASH) {
		op := p.advance().Kind
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: op, X: expr, Y: right, Loc: expr.Span().Extend(right.Span())}
	}
	return expr, nil
}

// parseUnary handles sign operators. They bind tighter than * but looser
// than ^, so -2^2 is -(2^2).
func (p *Parser) parseUnary() (Expr, error) {
	if p.at(MINUS) || p.at(PLUS) {
		p.depth++
		defer func() { p.depth-- }()
		if p.depth > maxExprDepth {
			tok := p.peek()
			p.diag.errorf(CodeExprTooComplex, tok.Pos(), "expression too complex (nesting exceeds %d levels)", maxExprDepth)
			return nil, errParse
		}
		tok := p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: tok.Kind, X: x, Loc: tok.Pos().Extend(x.Span())}, nil
	}
	return p.parsePower()
}

// parsePower handles ^, which is right-associative.
func (p *Parser) parsePower() (Expr, error) {
	base, err := p.parsePostfixChain()
	if err != nil {
		return nil, err
	}
	if p.at(CARET) {
		p.advance()
		right, err := p.parseUnary() // right operand may carry its own sign
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: CARET, X: base, Y: right, Loc: base.Span().Extend(right.Span())}, nil
	}
	return base, nil
}

// parsePostfixChain parses a primary followed by call/index parens and
// member accesses.
func (p *Parser) parsePostfixChain() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Kind {
		case LPAREN:
			p.advance()
			var args []Expr
			for !p.at(RPAREN) {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.at(COMMA) {
					break
				}
				p.advance()
			}
			rp, err := p.expect(RPAREN)
			if err != nil {
				return nil, err
			}
			expr = &CallOrIndex{Target: expr, Args: args, Loc: expr.Span().Extend(rp.Pos())}
		case DOT:
			p.advance()
			memberTok, err := p.name()
			if err != nil {
				return nil, err
			}
			expr = &MemberExpr{X: expr, Name: memberTok.Lexeme, Loc: expr.Span().Extend(memberTok.Pos())}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.Kind {
	case NUMBER:
		p.advance()
		return numberLitFromToken(tok, p)
	case STRING_LIT:
		p.advance()
		return &StringLit{Value: tok.Lexeme, Loc: tok.Pos()}, nil
	case DATE_LIT:
		p.advance()
		return &DateLit{Text: tok.Lexeme, Loc: tok.Pos()}, nil
	case KwTrue, KwFalse:
		p.advance()
		return &BoolLit{Value: tok.Kind == KwTrue, Loc: tok.Pos()}, nil
	case KwNothing, KwNull, KwEmpty:
		p.advance()
		return &NothingLit{Which: tok.Kind, Loc: tok.Pos()}, nil
	case IDENT:
		p.advance()
		return &Ident{Name: tok.Lexeme, Loc: tok.Pos(), Sym: NoSym}, nil
	case KwMe:
		p.advance()
		return &Ident{Name: "Me", Loc: tok.Pos(), Sym: NoSym}, nil
	case KwNew:
		p.advance()
		nameTok, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		return &NewExpr{TypeName: nameTok.Lexeme, Loc: tok.Pos().Extend(nameTok.Pos())}, nil
	case DOT:
		// Bare .member inside a With block.
		p.advance()
		memberTok, err := p.name()
		if err != nil {
			return nil, err
		}
		return &MemberExpr{X: nil, Name: memberTok.Lexeme, Loc: tok.Pos().Extend(memberTok.Pos())}, nil
	case LPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	default:
		p.diag.errorf(CodeUnexpectedToken, tok.Pos(), "expected expression, got %s (%q)", tok.Kind, tok.Lexeme)
		return nil, errParse
	}
}

// numberLitFromToken converts a NUMBER token into a literal node, decoding
// the &H/&O radix prefixes.
func numberLitFromToken(tok Token, p *Parser) (Expr, error) {
	text := tok.Lexeme
	lit := &NumberLit{Text: text, NumKind: tok.Num, Loc: tok.Pos()}
	lower := strings.ToLower(text)
	switch {
	case strings.HasPrefix(lower, "&h"):
		v, err := strconv.ParseInt(text[2:], 16, 64)
		if err != nil {
			p.diag.errorf(CodeBadNumber, tok.Pos(), "hex literal %q out of range", text)
			return lit, nil
		}
		lit.Value = float64(v)
		lit.IsInt = true
	case strings.HasPrefix(lower, "&o"):
		v, err := strconv.ParseInt(text[2:], 8, 64)
		if err != nil {
			p.diag.errorf(CodeBadNumber, tok.Pos(), "octal literal %q out of range", text)
			return lit, nil
		}
		lit.Value = float64(v)
		lit.IsInt = true
	default:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			p.diag.errorf(CodeBadNumber, tok.Pos(), "numeric literal %q out of range", text)
			return lit, nil
		}
		lit.Value = v
		lit.IsInt = tok.Num != NumDouble && v == float64(int64(v))
	}
	return lit, nil
}

package compiler

import (
	"strconv"
	"strings"
	"unicode"
)

// Lexer holds all mutable state for a single scanning pass over src.
// It never aborts: unrecognized input is reported as a diagnostic and
// skipped one character at a time.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
	col  int // current 1-based source column
	diag diagBag
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, col: 1}
}

// Lex tokenizes src and returns all tokens including the final EOF token,
// plus any diagnostics. It always terminates, even on malformed input.
func Lex(src string) ([]Token, []Diagnostic) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, ok := l.next()
		if !ok {
			continue // recovered from an illegal character
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			break
		}
	}
	SortDiagnostics(l.diag.list)
	return tokens, l.diag.list
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) here() Span {
	return Span{StartLine: l.line, StartCol: l.col, EndLine: l.line, EndCol: l.col + 1}
}

// skipBlanks consumes spaces and tabs (never newlines: EOL is a token).
func (l *Lexer) skipBlanks() {
	for {
		r := l.peek()
		if r == ' ' || r == '\t' || r == '\r' {
			l.advance()
			continue
		}
		// Line continuation: " _" followed by end of line merges the next
		// physical line into the current logical line.
		if r == '_' && l.isLineContinuation() {
			l.advance() // _
			for l.peek() == ' ' || l.peek() == '\t' || l.peek() == '\r' {
				l.advance()
			}
			if l.peek() == '\n' {
				l.advance()
			}
			continue
		}
		return
	}
}

// isLineContinuation reports whether the '_' at the current position is a
// continuation marker: it must be followed only by whitespace to end of line
// and must not start an identifier.
func (l *Lexer) isLineContinuation() bool {
	i := l.pos + 1
	for i < len(l.src) {
		switch l.src[i] {
		case ' ', '\t', '\r':
			i++
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

// skipLineComment discards everything to end of physical line. The lead-in
// marker ("'" or Rem) has already been consumed.
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) scanIdent() Token {
	line, col := l.line, l.col
	start := l.pos
	for l.pos < len(l.src) {
		r := l.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	kind := IDENT
	if kw, ok := LookupKeyword(lexeme); ok {
		kind = kw
	}
	return Token{Kind: kind, Lexeme: lexeme, Line: line, Column: col}
}

// scanNumber collects a decimal integer or real literal and tags it with the
// narrowest-fitting numeric subtype.
func (l *Lexer) scanNumber() Token {
	line, col := l.line, l.col
	start := l.pos
	for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
		l.advance()
	}
	isReal := false
	if l.peek() == '.' && unicode.IsDigit(l.peek2()) {
		isReal = true
		l.advance() // .
		for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		next := l.peek2()
		if unicode.IsDigit(next) || next == '+' || next == '-' {
			isReal = true
			l.advance() // e
			if l.peek() == '+' || l.peek() == '-' {
				l.advance()
			}
			for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
				l.advance()
			}
		}
	}
	lexeme := string(l.src[start:l.pos])
	tok := Token{Kind: NUMBER, Lexeme: lexeme, Line: line, Column: col}
	if isReal {
		tok.Num = NumDouble
		return tok
	}
	tok.Num = classifyInt(lexeme, 10)
	return tok
}

// scanRadixNumber collects an &H (hex) or &O (octal) literal.
// The leading '&' is still at l.peek().
func (l *Lexer) scanRadixNumber() Token {
	line, col := l.line, l.col
	start := l.pos
	l.advance() // &
	marker := l.advance()
	base := 16
	digits := "0123456789abcdefABCDEF"
	if marker == 'o' || marker == 'O' {
		base = 8
		digits = "01234567"
	}
	digitStart := l.pos
	for l.pos < len(l.src) && strings.ContainsRune(digits, l.peek()) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tok := Token{Kind: NUMBER, Lexeme: lexeme, Line: line, Column: col}
	if l.pos == digitStart {
		l.diag.errorf(CodeBadNumber, tok.Pos(), "malformed numeric literal %q", lexeme)
		tok.Num = NumInteger
		return tok
	}
	tok.Num = classifyInt(string(l.src[digitStart:l.pos]), base)
	return tok
}

func classifyInt(digits string, base int) NumericSubtype {
	v, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		return NumDouble
	}
	if v >= -32768 && v <= 32767 {
		return NumInteger
	}
	if v >= -2147483648 && v <= 2147483647 {
		return NumLong
	}
	return NumDouble
}

// scanString collects a double-quoted string literal. A doubled quote is the
// escape for a literal quote. An unterminated string is diagnosed and the
// token is closed at the line boundary.
func (l *Lexer) scanString() Token {
	line, col := l.line, l.col
	l.advance() // opening "
	var val []rune
	for l.pos < len(l.src) {
		r := l.peek()
		if r == '\n' {
			break
		}
		if r == '"' {
			if l.peek2() == '"' {
				l.advance()
				l.advance()
				val = append(val, '"')
				continue
			}
			l.advance() // closing "
			return Token{Kind: STRING_LIT, Lexeme: string(val), Line: line, Column: col}
		}
		val = append(val, r)
		l.advance()
	}
	tok := Token{Kind: STRING_LIT, Lexeme: string(val), Line: line, Column: col}
	l.diag.errorf(CodeUnterminatedStr, tok.Pos(), "string literal not terminated before end of line")
	return tok
}

// scanDate collects a #-delimited date literal. The content between the
// hashes is retained verbatim for the analyzer to interpret.
func (l *Lexer) scanDate() Token {
	line, col := l.line, l.col
	l.advance() // opening #
	start := l.pos
	for l.pos < len(l.src) && l.peek() != '#' && l.peek() != '\n' {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tok := Token{Kind: DATE_LIT, Lexeme: lexeme, Line: line, Column: col}
	if l.peek() != '#' {
		l.diag.errorf(CodeUnterminatedDate, tok.Pos(), "date literal not terminated before end of line")
		return tok
	}
	l.advance() // closing #
	return tok
}

// next produces the next token. The second result is false when the lexer
// recovered from an illegal character and produced nothing.
func (l *Lexer) next() (Token, bool) {
	l.skipBlanks()
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Line: l.line, Column: l.col}, true
	}

	r := l.peek()
	line, col := l.line, l.col

	switch {
	case r == '\n':
		l.advance()
		return Token{Kind: EOL, Lexeme: "\n", Line: line, Column: col}, true
	case r == '\'':
		l.advance()
		l.skipLineComment()
		return l.next()
	case unicode.IsLetter(r):
		tok := l.scanIdent()
		if tok.Kind == KwRem {
			l.skipLineComment()
			return l.next()
		}
		return tok, true
	case r == '_' && !l.isLineContinuation():
		return l.scanIdent(), true
	case unicode.IsDigit(r):
		return l.scanNumber(), true
	case r == '.' && unicode.IsDigit(l.peek2()):
		return l.scanNumber(), true
	case r == '&' && (l.peek2() == 'h' || l.peek2() == 'H' || l.peek2() == 'o' || l.peek2() == 'O'):
		return l.scanRadixNumber(), true
	case r == '"':
		return l.scanString(), true
	case r == '#':
		return l.scanDate(), true
	}

	l.advance()
	mk := func(kind TokenKind, lexeme string) (Token, bool) {
		return Token{Kind: kind, Lexeme: lexeme, Line: line, Column: col}, true
	}
	switch r {
	case '+':
		return mk(PLUS, "+")
	case '-':
		return mk(MINUS, "-")
	case '*':
		return mk(STAR, "*")
	case '/':
		return mk(SLASH, "/")
	case '\\':
		return mk(BACKSLASH, "\\")
	case '^':
		return mk(CARET, "^")
	case '&':
		return mk(AMP, "&")
	case '=':
		return mk(EQ, "=")
	case '<':
		if l.peek() == '>' {
			l.advance()
			return mk(NEQ, "<>")
		}
		if l.peek() == '=' {
			l.advance()
			return mk(LE, "<=")
		}
		return mk(LT, "<")
	case '>':
		if l.peek() == '=' {
			l.advance()
			return mk(GE, ">=")
		}
		return mk(GT, ">")
	case '(':
		return mk(LPAREN, "(")
	case ')':
		return mk(RPAREN, ")")
	case ',':
		return mk(COMMA, ",")
	case '.':
		return mk(DOT, ".")
	case ';':
		return mk(SEMI, ";")
	case ':':
		return mk(COLON, ":")
	}

	// Single-character resynchronization: report and move on.
	l.diag.errorf(CodeBadChar, Span{StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"unrecognized character %q", r)
	return Token{}, false
}

package compiler

import (
	"testing"
)

// kindsOf strips the token stream down to its kinds for shape assertions.
func kindsOf(tokens []Token) []TokenKind {
	kinds := make([]TokenKind, len(tokens))
	for i, t := range tokens {
		kinds[i] = t.Kind
	}
	return kinds
}

func sameKinds(a []TokenKind, b []TokenKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenKind
	}{
		{
			name:     "Empty",
			input:    "",
			expected: []TokenKind{EOF},
		},
		{
			name:  "Operators",
			input: `+ - * / \ ^ & = <> < > <= >= ( ) , . ; :`,
			expected: []TokenKind{
				PLUS, MINUS, STAR, SLASH, BACKSLASH, CARET, AMP,
				EQ, NEQ, LT, GT, LE, GE,
				LPAREN, RPAREN, COMMA, DOT, SEMI, COLON, EOF,
			},
		},
		{
			name:  "Keywords case-insensitive",
			input: "DIM dim DiM If THEN eLsE",
			expected: []TokenKind{
				KwDim, KwDim, KwDim, KwIf, KwThen, KwElse, EOF,
			},
		},
		{
			name:  "Identifiers",
			input: "counter total_1 _private",
			expected: []TokenKind{
				IDENT, IDENT, IDENT, EOF,
			},
		},
		{
			name:  "Statement boundary",
			input: "Dim a\nDim b",
			expected: []TokenKind{
				KwDim, IDENT, EOL, KwDim, IDENT, EOF,
			},
		},
		{
			name:  "Comment to end of line",
			input: "Dim a ' the counter\nDim b",
			expected: []TokenKind{
				KwDim, IDENT, EOL, KwDim, IDENT, EOF,
			},
		},
		{
			name:  "Rem comment",
			input: "Rem whole line\nDim a",
			expected: []TokenKind{
				EOL, KwDim, IDENT, EOF,
			},
		},
		{
			name:  "Line continuation",
			input: "a = 1 + _\n    2",
			expected: []TokenKind{
				IDENT, EQ, NUMBER, PLUS, NUMBER, EOF,
			},
		},
		{
			name:  "String and date literals",
			input: `s = "hi" : d = #1/2/2003#`,
			expected: []TokenKind{
				IDENT, EQ, STRING_LIT, COLON, IDENT, EQ, DATE_LIT, EOF,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, diags := Lex(tt.input)
			if len(diags) != 0 {
				t.Fatalf("unexpected diagnostics: %v", diags)
			}
			if got := kindsOf(tokens); !sameKinds(got, tt.expected) {
				t.Errorf("kinds mismatch\n got: %v\nwant: %v", got, tt.expected)
			}
		})
	}
}

func TestLexNumericSubtypes(t *testing.T) {
	tests := []struct {
		input string
		num   NumericSubtype
	}{
		{"42", NumInteger},
		{"32767", NumInteger},
		{"32768", NumLong},
		{"2147483647", NumLong},
		{"2147483648", NumDouble},
		{"3.14", NumDouble},
		{"1e6", NumDouble},
		{"2.5E-3", NumDouble},
		{"&HFF", NumInteger},
		{"&H7FFFFFFF", NumLong},
		{"&O17", NumInteger},
	}
	for _, tt := range tests {
		tokens, diags := Lex(tt.input)
		if len(diags) != 0 {
			t.Fatalf("%s: unexpected diagnostics: %v", tt.input, diags)
		}
		if tokens[0].Kind != NUMBER {
			t.Fatalf("%s: got %v, want NUMBER", tt.input, tokens[0].Kind)
		}
		if tokens[0].Num != tt.num {
			t.Errorf("%s: subtype %v, want %v", tt.input, tokens[0].Num, tt.num)
		}
	}
}

func TestLexStringEscape(t *testing.T) {
	tokens, diags := Lex(`"say ""hi"""`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if tokens[0].Kind != STRING_LIT || tokens[0].Lexeme != `say "hi"` {
		t.Errorf("got %v %q", tokens[0].Kind, tokens[0].Lexeme)
	}
}

func TestLexPositions(t *testing.T) {
	tokens, _ := Lex("Dim a\n  b = 2")
	// Token index 3 is the "b" on line 2 column 3.
	b := tokens[3]
	if b.Lexeme != "b" || b.Line != 2 || b.Column != 3 {
		t.Errorf("got %q at %d:%d, want b at 2:3", b.Lexeme, b.Line, b.Column)
	}
}

func TestLexDiagnostics(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
	}{
		{"Bad character", "a = 1 ? 2", CodeBadChar},
		{"Unterminated string", `s = "open`, CodeUnterminatedStr},
		{"Unterminated date", "d = #1/2/2003", CodeUnterminatedDate},
		{"Empty hex literal", "n = &H", CodeBadNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := Lex(tt.input)
			if len(diags) == 0 {
				t.Fatal("expected a diagnostic")
			}
			if diags[0].Code != tt.code {
				t.Errorf("code %s, want %s", diags[0].Code, tt.code)
			}
		})
	}
}

func TestLexNeverAborts(t *testing.T) {
	// A pile of junk still produces a terminated stream.
	tokens, diags := Lex("?? $$ @@ !!\n%%")
	if tokens[len(tokens)-1].Kind != EOF {
		t.Fatal("stream not terminated with EOF")
	}
	if len(diags) == 0 {
		t.Fatal("expected diagnostics for junk input")
	}
	for _, d := range diags {
		if d.Code != CodeBadChar {
			t.Errorf("unexpected code %s", d.Code)
		}
	}
}

package compiler

import (
	"fmt"
	"strings"
)

// TokenKind identifies the category of a lexed token.
type TokenKind int

const (
	EOF TokenKind = iota // sentinel: end of input
	EOL                  // end of logical line (statement boundary)

	// Literals
	IDENT      // variable / procedure name
	NUMBER     // numeric literal, decimal / &H hex / &O octal
	STRING_LIT // string literal "..."
	DATE_LIT   // date literal #...#

	// Declaration keywords
	KwDim
	KwConst
	KwType
	KwEnum
	KwDeclare
	KwClass
	KwSub
	KwFunction
	KwProperty
	KwGet
	KwLet
	KwSet
	KwEnd
	KwPublic
	KwPrivate
	KwStatic
	KwByVal
	KwByRef
	KwOptional
	KwAs
	KwLib
	KwAlias
	KwOption
	KwExplicit
	KwReDim
	KwPreserve
	KwErase

	// Type-name keywords
	KwBoolean
	KwByte
	KwInteger
	KwLong
	KwSingle
	KwDouble
	KwString
	KwDate
	KwCurrency
	KwVariant
	KwObject

	// Statement keywords
	KwIf
	KwThen
	KwElse
	KwElseIf
	KwFor
	KwTo
	KwStep
	KwNext
	KwEach
	KwIn
	KwDo
	KwLoop
	KwWhile
	KwWend
	KwUntil
	KwSelect
	KwCase
	KwWith
	KwExit
	KwOn
	KwError
	KwGoto
	KwGoSub
	KwResume
	KwReturn
	KwCall
	KwPrint
	KwStop
	KwRem

	// Operator / value keywords
	KwAnd
	KwOr
	KwXor
	KwNot
	KwMod
	KwIs
	KwLike
	KwNew
	KwMe
	KwTrue
	KwFalse
	KwNothing
	KwNull
	KwEmpty

	// Operators and punctuation
	PLUS      // +
	MINUS     // -
	STAR      // *
	SLASH     // /
	BACKSLASH // \  (integer division)
	CARET     // ^
	AMP       // &  (string concatenation)
	EQ        // =  (assignment and equality)
	NEQ       // <>
	LT        // <
	GT        // >
	LE        // <=
	GE        // >=
	LPAREN    // (
	RPAREN    // )
	COMMA     // ,
	DOT       // .
	SEMI      // ;  (Print separator)
	COLON     // :  (statement separator / label suffix)
	ILLEGAL   // unrecognized character (diagnosed, then skipped)
)

// keywords maps lowercased source text to its keyword TokenKind.
// The source language is case-insensitive, so the lexer lowercases
// before the lookup.
var keywords = map[string]TokenKind{
	"dim":      KwDim,
	"const":    KwConst,
	"type":     KwType,
	"enum":     KwEnum,
	"declare":  KwDeclare,
	"class":    KwClass,
	"sub":      KwSub,
	"function": KwFunction,
	"property": KwProperty,
	"get":      KwGet,
	"let":      KwLet,
	"set":      KwSet,
	"end":      KwEnd,
	"public":   KwPublic,
	"private":  KwPrivate,
	"static":   KwStatic,
	"byval":    KwByVal,
	"byref":    KwByRef,
	"optional": KwOptional,
	"as":       KwAs,
	"lib":      KwLib,
	"alias":    KwAlias,
	"option":   KwOption,
	"explicit": KwExplicit,
	"redim":    KwReDim,
	"preserve": KwPreserve,
	"erase":    KwErase,
	"boolean":  KwBoolean,
	"byte":     KwByte,
	"integer":  KwInteger,
	"long":     KwLong,
	"single":   KwSingle,
	"double":   KwDouble,
	"string":   KwString,
	"date":     KwDate,
	"currency": KwCurrency,
	"variant":  KwVariant,
	"object":   KwObject,
	"if":       KwIf,
	"then":     KwThen,
	"else":     KwElse,
	"elseif":   KwElseIf,
	"for":      KwFor,
	"to":       KwTo,
	"step":     KwStep,
	"next":     KwNext,
	"each":     KwEach,
	"in":       KwIn,
	"do":       KwDo,
	"loop":     KwLoop,
	"while":    KwWhile,
	"wend":     KwWend,
	"until":    KwUntil,
	"select":   KwSelect,
	"case":     KwCase,
	"with":     KwWith,
	"exit":     KwExit,
	"on":       KwOn,
	"error":    KwError,
	"goto":     KwGoto,
	"gosub":    KwGoSub,
	"resume":   KwResume,
	"return":   KwReturn,
	"call":     KwCall,
	"print":    KwPrint,
	"stop":     KwStop,
	"rem":      KwRem,
	"and":      KwAnd,
	"or":       KwOr,
	"xor":      KwXor,
	"not":      KwNot,
	"mod":      KwMod,
	"is":       KwIs,
	"like":     KwLike,
	"new":      KwNew,
	"me":       KwMe,
	"true":     KwTrue,
	"false":    KwFalse,
	"nothing":  KwNothing,
	"null":     KwNull,
	"empty":    KwEmpty,
}

// LookupKeyword classifies an identifier lexeme, case-insensitively.
func LookupKeyword(lexeme string) (TokenKind, bool) {
	kind, ok := keywords[strings.ToLower(lexeme)]
	return kind, ok
}

var tokenNames = map[TokenKind]string{
	EOF:        "EOF",
	EOL:        "EOL",
	IDENT:      "IDENT",
	NUMBER:     "NUMBER",
	STRING_LIT: "STRING",
	DATE_LIT:   "DATE",
	PLUS:       "PLUS",
	MINUS:      "MINUS",
	STAR:       "STAR",
	SLASH:      "SLASH",
	BACKSLASH:  "BACKSLASH",
	CARET:      "CARET",
	AMP:        "AMP",
	EQ:         "EQ",
	NEQ:        "NEQ",
	LT:         "LT",
	GT:         "GT",
	LE:         "LE",
	GE:         "GE",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	COMMA:      "COMMA",
	DOT:        "DOT",
	SEMI:       "SEMI",
	COLON:      "COLON",
	ILLEGAL:    "ILLEGAL",
}

func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	for lexeme, kind := range keywords {
		if kind == k {
			return "Kw" + strings.ToUpper(lexeme[:1]) + lexeme[1:]
		}
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// IsKeyword reports whether k is one of the reserved-word kinds.
func (k TokenKind) IsKeyword() bool {
	return k >= KwDim && k <= KwEmpty
}

// NumericSubtype tags a NUMBER token with the narrowest type that fits it.
type NumericSubtype int

const (
	NumInteger NumericSubtype = iota // fits int16
	NumLong                          // fits int32
	NumDouble                        // real literal or out of Long range
)

// Token is a single lexical unit produced by the Lexer.
// Tokens are immutable once produced.
type Token struct {
	Kind   TokenKind
	Lexeme string // exact source text that was matched
	Line   int    // 1-based source line of the first character
	Column int    // 1-based source column of the first character

	// Num is meaningful only when Kind == NUMBER.
	Num NumericSubtype
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  %d:%d", t.Kind, t.Lexeme, t.Line, t.Column)
}

// Pos returns the token's position as a Span covering its lexeme.
func (t Token) Pos() Span {
	return Span{StartLine: t.Line, StartCol: t.Column, EndLine: t.Line, EndCol: t.Column + len(t.Lexeme)}
}

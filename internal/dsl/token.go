package dsl

import "github.com/hashicorp/hcl/v2"

// TokenKind enumerates the lexical categories of the .firm grammar (§4.2).
// Reserved words (schema, field, true, false, enum, path, at, UTC) are not
// distinct kinds: they lex as Ident and are recognized by their text where
// the grammar expects a keyword.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokString
	TokTripleString
	TokInteger
	TokFloat
	TokDate
	TokTime
	TokLBrace
	TokRBrace
	TokLBracket
	TokRBracket
	TokEquals
	TokDot
	TokComma
)

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "EOF"
	case TokIdent:
		return "identifier"
	case TokString:
		return "string"
	case TokTripleString:
		return "triple-quoted string"
	case TokInteger:
		return "integer"
	case TokFloat:
		return "float"
	case TokDate:
		return "date"
	case TokTime:
		return "time"
	case TokLBrace:
		return "'{'"
	case TokRBrace:
		return "'}'"
	case TokLBracket:
		return "'['"
	case TokRBracket:
		return "']'"
	case TokEquals:
		return "'='"
	case TokDot:
		return "'.'"
	case TokComma:
		return "','"
	default:
		return "token"
	}
}

// Token is one lexical unit with its source span.
type Token struct {
	Kind  TokenKind
	Text  string // raw text, or the unescaped value for strings
	Range hcl.Range
}

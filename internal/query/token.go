package query

import "github.com/hashicorp/hcl/v2"

// TokenKind enumerates the lexical categories of the query grammar (§4.6).
// Keywords (from, where, related, order, limit, select, count, sum,
// average, median, and, or, asc, desc, in, contains, startswith, endswith)
// lex as Ident and are recognized by text, the same convention dsl uses.
// `@id` and `@type` lex as a single Ident token including the leading '@'.
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
	TokPipe
	TokLParen
	TokRParen
	TokLBracket
	TokRBracket
	TokComma
	TokDot
	TokEq
	TokNeq
	TokGt
	TokLt
	TokGte
	TokLte
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
	case TokPipe:
		return "'|'"
	case TokLParen:
		return "'('"
	case TokRParen:
		return "')'"
	case TokLBracket:
		return "'['"
	case TokRBracket:
		return "']'"
	case TokComma:
		return "','"
	case TokDot:
		return "'.'"
	case TokEq:
		return "'=='"
	case TokNeq:
		return "'!='"
	case TokGt:
		return "'>'"
	case TokLt:
		return "'<'"
	case TokGte:
		return "'>='"
	case TokLte:
		return "'<='"
	default:
		return "token"
	}
}

// Token is one lexical unit with its source span.
type Token struct {
	Kind  TokenKind
	Text  string
	Range hcl.Range
}

package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	l := NewLexer("test.firm", PrepareSource(src))
	var toks []Token
	for {
		tok, err := l.Next()
		require.Nil(t, err)
		toks = append(toks, tok)
		if tok.Kind == TokEOF {
			break
		}
	}
	return toks
}

func TestLexer_Punctuation(t *testing.T) {
	toks := lexAll(t, "{ } [ ] = . ,")
	kinds := make([]TokenKind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []TokenKind{
		TokLBrace, TokRBrace, TokLBracket, TokRBracket, TokEquals, TokDot, TokComma, TokEOF,
	}, kinds)
}

func TestLexer_IdentAndKeywords(t *testing.T) {
	toks := lexAll(t, "person john_doe schema field true false")
	require.Len(t, toks, 7)
	for i := 0; i < 6; i++ {
		assert.Equal(t, TokIdent, toks[i].Kind)
	}
}

func TestLexer_StringEscapes(t *testing.T) {
	toks := lexAll(t, `"hello\nworld"`)
	require.Len(t, toks, 2)
	assert.Equal(t, "hello\nworld", toks[0].Text)
}

func TestLexer_TripleStringStripsIndent(t *testing.T) {
	src := "\"\"\"\n    line one\n    line two\n    \"\"\""
	toks := lexAll(t, src)
	require.Len(t, toks, 2)
	assert.Equal(t, "line one\nline two", toks[0].Text)
}

func TestLexer_IntegerFloatNegative(t *testing.T) {
	toks := lexAll(t, "42 3.14 -7 -2.5")
	require.Len(t, toks, 5)
	assert.Equal(t, TokInteger, toks[0].Kind)
	assert.Equal(t, "42", toks[0].Text)
	assert.Equal(t, TokFloat, toks[1].Kind)
	assert.Equal(t, TokInteger, toks[2].Kind)
	assert.Equal(t, "-7", toks[2].Text)
	assert.Equal(t, TokFloat, toks[3].Kind)
	assert.Equal(t, "-2.5", toks[3].Text)
}

func TestLexer_DateAndTime(t *testing.T) {
	toks := lexAll(t, "2024-01-15 14:30")
	require.Len(t, toks, 3)
	assert.Equal(t, TokDate, toks[0].Kind)
	assert.Equal(t, "2024-01-15", toks[0].Text)
	assert.Equal(t, TokTime, toks[1].Kind)
	assert.Equal(t, "14:30", toks[1].Text)
}

func TestLexer_UTCOffsetBindsAsSingleIdent(t *testing.T) {
	toks := lexAll(t, "UTC+5 UTC-8 UTC")
	require.Len(t, toks, 4)
	assert.Equal(t, "UTC+5", toks[0].Text)
	assert.Equal(t, "UTC-8", toks[1].Text)
	assert.Equal(t, "UTC", toks[2].Text)
}

func TestLexer_PathAndEnumBindTight(t *testing.T) {
	toks := lexAll(t, `path"./a/b" enum"open"`)
	require.Len(t, toks, 5)
	assert.Equal(t, "path", toks[0].Text)
	assert.Equal(t, TokString, toks[1].Kind)
	assert.Equal(t, "./a/b", toks[1].Text)
	assert.Equal(t, "enum", toks[2].Text)
	assert.Equal(t, "open", toks[3].Text)
}

func TestLexer_LineAndBlockComments(t *testing.T) {
	toks := lexAll(t, "foo // a comment\n/* block */ bar")
	require.Len(t, toks, 3)
	assert.Equal(t, "foo", toks[0].Text)
	assert.Equal(t, "bar", toks[1].Text)
}

func TestLexer_UnterminatedBlockCommentErrors(t *testing.T) {
	l := NewLexer("test.firm", PrepareSource("/* never closed"))
	_, err := l.Next()
	require.NotNil(t, err)
}

func TestLexer_UnterminatedStringErrors(t *testing.T) {
	l := NewLexer("test.firm", PrepareSource(`"never closed`))
	_, err := l.Next()
	require.NotNil(t, err)
}

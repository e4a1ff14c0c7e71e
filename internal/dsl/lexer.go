package dsl

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Lexer scans .firm source text into a Token stream. CRLF is normalized and
// a leading BOM stripped before scanning begins (§6).
type Lexer struct {
	filename string
	src      []rune
	pos      int  // rune offset
	line     int
	col      int // 1-based column, counted in runes of the current line
	byteOff  int
}

// NewLexer prepares src for scanning. src should already have had CRLF
// normalized to LF and a BOM stripped, which PrepareSource does.
func NewLexer(filename, src string) *Lexer {
	return &Lexer{
		filename: filename,
		src:      []rune(src),
		pos:      0,
		line:     1,
		col:      1,
		byteOff:  0,
	}
}

// PrepareSource normalizes CRLF to LF and strips a leading UTF-8 BOM.
func PrepareSource(src string) string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.TrimPrefix(src, "\ufeff")
	return src
}

func (l *Lexer) pos0() hcl.Pos {
	return hcl.Pos{Line: l.line, Column: l.col, Byte: l.byteOff}
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(offset int) rune {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.byteOff += len(string(r))
	return r
}

func (l *Lexer) atEOF() bool { return l.pos >= len(l.src) }

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentCont(r rune) bool { return isIdentStart(r) || isDigit(r) }

// skipWhitespaceAndComments consumes spaces, tabs, newlines, `//` line
// comments and `/* */` block comments (nesting disallowed, per §4.2).
func (l *Lexer) skipWhitespaceAndComments() *ParseError {
	for !l.atEOF() {
		r := l.peek()
		switch {
		case r == ' ' || r == '\t' || r == '\n':
			l.advance()
		case r == '/' && l.peekAt(1) == '/':
			for !l.atEOF() && l.peek() != '\n' {
				l.advance()
			}
		case r == '/' && l.peekAt(1) == '*':
			start := l.pos0()
			l.advance()
			l.advance()
			closed := false
			for !l.atEOF() {
				if l.peek() == '*' && l.peekAt(1) == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return &ParseError{
					Range:   hcl.Range{Filename: l.filename, Start: start, End: l.pos0()},
					Message: "unterminated block comment",
				}
			}
		default:
			return nil
		}
	}
	return nil
}

// Next scans and returns the next token.
func (l *Lexer) Next() (Token, *ParseError) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return Token{}, err
	}
	start := l.pos0()
	if l.atEOF() {
		return Token{Kind: TokEOF, Range: hcl.Range{Filename: l.filename, Start: start, End: start}}, nil
	}

	r := l.peek()
	switch {
	case r == '{':
		l.advance()
		return l.tok(TokLBrace, "{", start), nil
	case r == '}':
		l.advance()
		return l.tok(TokRBrace, "}", start), nil
	case r == '[':
		l.advance()
		return l.tok(TokLBracket, "[", start), nil
	case r == ']':
		l.advance()
		return l.tok(TokRBracket, "]", start), nil
	case r == '=':
		l.advance()
		return l.tok(TokEquals, "=", start), nil
	case r == '.':
		l.advance()
		return l.tok(TokDot, ".", start), nil
	case r == ',':
		l.advance()
		return l.tok(TokComma, ",", start), nil
	case r == '"' || r == '\'':
		return l.scanString(r, start)
	case r == '-' && isDigit(l.peekAt(1)):
		return l.scanNumber(start)
	case isDigit(r):
		return l.scanNumberOrDateOrTime(start)
	case isIdentStart(r):
		return l.scanIdent(start)
	default:
		l.advance()
		return Token{}, &ParseError{
			Range:   hcl.Range{Filename: l.filename, Start: start, End: l.pos0()},
			Message: "unexpected character " + string(r),
		}
	}
}

func (l *Lexer) tok(kind TokenKind, text string, start hcl.Pos) Token {
	return Token{Kind: kind, Text: text, Range: hcl.Range{Filename: l.filename, Start: start, End: l.pos0()}}
}

func (l *Lexer) scanIdent(start hcl.Pos) (Token, *ParseError) {
	var sb strings.Builder
	for !l.atEOF() && isIdentCont(l.peek()) {
		sb.WriteRune(l.advance())
	}
	text := sb.String()

	// `path"..."` and `enum"..."` bind tightly with no required space.
	if (text == "path" || text == "enum") && !l.atEOF() && (l.peek() == '"' || l.peek() == '\'') {
		return l.tok(TokIdent, text, start), nil
	}

	// UTC[+-]<int> lexes as a single identifier token so the parser can
	// treat it atomically.
	if text == "UTC" && !l.atEOF() && (l.peek() == '+' || l.peek() == '-') {
		sign := l.advance()
		if !isDigit(l.peek()) {
			return Token{}, &ParseError{
				Range:   hcl.Range{Filename: l.filename, Start: start, End: l.pos0()},
				Message: "expected digits after UTC" + string(sign),
			}
		}
		var digits strings.Builder
		for !l.atEOF() && isDigit(l.peek()) {
			digits.WriteRune(l.advance())
		}
		text = text + string(sign) + digits.String()
	}

	return l.tok(TokIdent, text, start), nil
}

// scanString scans a single-line "…"/'…' string or a triple-quoted """…"""
// string, applying backslash escapes and (for triple strings) stripping the
// common leading whitespace of the inner lines.
func (l *Lexer) scanString(quote rune, start hcl.Pos) (Token, *ParseError) {
	if quote == '"' && l.peekAt(1) == '"' && l.peekAt(2) == '"' {
		return l.scanTripleString(start)
	}
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.atEOF() {
			return Token{}, &ParseError{
				Range:   hcl.Range{Filename: l.filename, Start: start, End: l.pos0()},
				Message: "unterminated string literal",
			}
		}
		r := l.advance()
		if r == quote {
			break
		}
		if r == '\\' {
			if l.atEOF() {
				return Token{}, &ParseError{
					Range:   hcl.Range{Filename: l.filename, Start: start, End: l.pos0()},
					Message: "unterminated escape sequence",
				}
			}
			esc := l.advance()
			sb.WriteRune(unescape(esc))
			continue
		}
		sb.WriteRune(r)
	}
	return l.tok(TokString, sb.String(), start), nil
}

func unescape(esc rune) rune {
	switch esc {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return esc
	}
}

func (l *Lexer) scanTripleString(start hcl.Pos) (Token, *ParseError) {
	l.advance()
	l.advance()
	l.advance()
	var raw strings.Builder
	for {
		if l.atEOF() {
			return Token{}, &ParseError{
				Range:   hcl.Range{Filename: l.filename, Start: start, End: l.pos0()},
				Message: "unterminated triple-quoted string",
			}
		}
		if l.peek() == '"' && l.peekAt(1) == '"' && l.peekAt(2) == '"' {
			l.advance()
			l.advance()
			l.advance()
			break
		}
		raw.WriteRune(l.advance())
	}
	return l.tok(TokTripleString, stripCommonIndent(raw.String()), start), nil
}

// stripCommonIndent removes the common leading whitespace shared by every
// non-blank line of a triple-quoted string body, and trims one leading
// newline and a final line holding only whitespace, if present (the
// conventional """ layout, with the closing quotes on their own line).
func stripCommonIndent(s string) string {
	s = strings.TrimPrefix(s, "\n")
	if i := strings.LastIndex(s, "\n"); i >= 0 && strings.TrimSpace(s[i+1:]) == "" {
		s = s[:i]
	}
	lines := strings.Split(s, "\n")
	minIndent := -1
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		indent := len(ln) - len(strings.TrimLeft(ln, " \t"))
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent <= 0 {
		return strings.Join(lines, "\n")
	}
	for i, ln := range lines {
		if len(ln) >= minIndent {
			lines[i] = ln[minIndent:]
		}
	}
	return strings.Join(lines, "\n")
}

// scanNumber scans -?[0-9]+ optionally followed by .[0-9]+, used for the
// leading '-' case where a date is never valid.
func (l *Lexer) scanNumber(start hcl.Pos) (Token, *ParseError) {
	var sb strings.Builder
	sb.WriteRune(l.advance()) // '-'
	for !l.atEOF() && isDigit(l.peek()) {
		sb.WriteRune(l.advance())
	}
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		sb.WriteRune(l.advance())
		for !l.atEOF() && isDigit(l.peek()) {
			sb.WriteRune(l.advance())
		}
		return l.tok(TokFloat, sb.String(), start), nil
	}
	return l.tok(TokInteger, sb.String(), start), nil
}

// scanNumberOrDateOrTime disambiguates integer/float/date/time literals
// that all begin with a run of digits (§4.2).
func (l *Lexer) scanNumberOrDateOrTime(start hcl.Pos) (Token, *ParseError) {
	var first strings.Builder
	for !l.atEOF() && isDigit(l.peek()) {
		first.WriteRune(l.advance())
	}
	digits1 := first.String()

	switch {
	case len(digits1) == 4 && l.peek() == '-' && isDigit(l.peekAt(1)):
		return l.scanDate(digits1, start)
	case l.peek() == ':' && isDigit(l.peekAt(1)):
		return l.scanTime(digits1, start)
	case l.peek() == '.' && isDigit(l.peekAt(1)):
		l.advance()
		var frac strings.Builder
		for !l.atEOF() && isDigit(l.peek()) {
			frac.WriteRune(l.advance())
		}
		return l.tok(TokFloat, digits1+"."+frac.String(), start), nil
	default:
		return l.tok(TokInteger, digits1, start), nil
	}
}

func (l *Lexer) scanDate(year string, start hcl.Pos) (Token, *ParseError) {
	l.advance() // '-'
	month, err := l.scanDigits(2, start)
	if err != nil {
		return Token{}, err
	}
	if l.peek() != '-' {
		return Token{}, &ParseError{Range: hcl.Range{Filename: l.filename, Start: start, End: l.pos0()}, Message: "malformed date literal, expected YYYY-MM-DD"}
	}
	l.advance()
	day, err := l.scanDigits(2, start)
	if err != nil {
		return Token{}, err
	}
	return l.tok(TokDate, year+"-"+month+"-"+day, start), nil
}

func (l *Lexer) scanTime(hour string, start hcl.Pos) (Token, *ParseError) {
	l.advance() // ':'
	minute, err := l.scanDigits(2, start)
	if err != nil {
		return Token{}, err
	}
	return l.tok(TokTime, hour+":"+minute, start), nil
}

func (l *Lexer) scanDigits(n int, start hcl.Pos) (string, *ParseError) {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if !isDigit(l.peek()) {
			return "", &ParseError{Range: hcl.Range{Filename: l.filename, Start: start, End: l.pos0()}, Message: "expected digit"}
		}
		sb.WriteRune(l.advance())
	}
	return sb.String(), nil
}

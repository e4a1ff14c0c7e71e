// Package dsl implements the grammar-driven front-end of §4.2: a hand
// written scanner and recursive-descent parser that turns one .firm source
// string into typed entity and schema declarations, or a ParseErrors list
// with source spans.
package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/go-firm/firmgraph/internal/fullid"
	"github.com/go-firm/firmgraph/internal/value"
)

type parser struct {
	lex      *Lexer
	filename string
	cur      Token
	errs     ParseErrors
}

// Parse tokenizes and parses one .firm source file. Multiple ParseErrors
// are collected when recovery at a statement boundary is possible (§7); a
// non-empty ParseErrors means File may be partial or nil.
func Parse(filename, src string) (*File, ParseErrors) {
	src = PrepareSource(src)
	p := &parser{lex: NewLexer(filename, src), filename: filename}
	p.advance()
	file := p.parseFile()
	return file, p.errs
}

func (p *parser) advance() {
	tok, err := p.lex.Next()
	if err != nil {
		p.errs = append(p.errs, err)
		p.cur = Token{Kind: TokEOF, Range: err.Range}
		return
	}
	p.cur = tok
}

func (p *parser) errorf(rng hcl.Range, format string, args ...any) {
	p.errs = append(p.errs, &ParseError{Range: rng, Message: fmt.Sprintf(format, args...)})
}

// expect consumes the current token if it matches kind, else records an
// error and returns the zero Token without advancing.
func (p *parser) expect(kind TokenKind) (Token, bool) {
	if p.cur.Kind != kind {
		p.errorf(p.cur.Range, "expected %s, found %s %q", kind, p.cur.Kind, p.cur.Text)
		return Token{}, false
	}
	tok := p.cur
	p.advance()
	return tok, true
}

func (p *parser) expectKeyword(word string) (Token, bool) {
	if p.cur.Kind != TokIdent || p.cur.Text != word {
		p.errorf(p.cur.Range, "expected keyword %q, found %s %q", word, p.cur.Kind, p.cur.Text)
		return Token{}, false
	}
	tok := p.cur
	p.advance()
	return tok, true
}

// recoverToTopLevel skips tokens until the next plausible top-level start
// (immediately after a '}' at brace depth zero, or EOF) so a single error
// doesn't abort parsing of the rest of the file.
func (p *parser) recoverToTopLevel() {
	depth := 0
	for p.cur.Kind != TokEOF {
		switch p.cur.Kind {
		case TokLBrace:
			depth++
			p.advance()
		case TokRBrace:
			depth--
			p.advance()
			if depth <= 0 {
				return
			}
		default:
			p.advance()
		}
	}
}

func (p *parser) validateIdentUse(name string, rng hcl.Range, role string) {
	if !fullid.ValidIdent(name) {
		p.errorf(rng, "invalid %s %q: must be a snake_case identifier and not a reserved word", role, name)
	}
}

func (p *parser) parseFile() *File {
	file := &File{}
	for p.cur.Kind != TokEOF {
		switch {
		case p.cur.Kind == TokIdent && p.cur.Text == "schema":
			if s := p.parseSchemaBlock(); s != nil {
				file.Schemas = append(file.Schemas, s)
			}
		case p.cur.Kind == TokIdent:
			if e := p.parseEntityBlock(); e != nil {
				file.Entities = append(file.Entities, e)
			}
		default:
			p.errorf(p.cur.Range, "expected an entity or schema declaration, found %s %q", p.cur.Kind, p.cur.Text)
			p.recoverToTopLevel()
		}
	}
	return file
}

func (p *parser) parseEntityBlock() *EntityDecl {
	start := p.cur.Range
	typeTok, ok := p.expect(TokIdent)
	if !ok {
		p.recoverToTopLevel()
		return nil
	}
	p.validateIdentUse(typeTok.Text, typeTok.Range, "entity type")

	idTok, ok := p.expect(TokIdent)
	if !ok {
		p.recoverToTopLevel()
		return nil
	}
	p.validateIdentUse(idTok.Text, idTok.Range, "entity id")

	if _, ok := p.expect(TokLBrace); !ok {
		p.recoverToTopLevel()
		return nil
	}

	decl := &EntityDecl{Type: typeTok.Text, ID: idTok.Text}
	for p.cur.Kind != TokRBrace && p.cur.Kind != TokEOF {
		if f := p.parseFieldAssignment(); f != nil {
			decl.Fields = append(decl.Fields, f)
		} else {
			p.recoverToTopLevel()
			return decl
		}
	}
	end := p.cur.Range
	p.expect(TokRBrace)
	decl.Range = hcl.RangeBetween(start, end)
	return decl
}

func (p *parser) parseFieldAssignment() *FieldDecl {
	nameTok, ok := p.expect(TokIdent)
	if !ok {
		return nil
	}
	p.validateIdentUse(nameTok.Text, nameTok.Range, "field name")
	if _, ok := p.expect(TokEquals); !ok {
		return nil
	}
	val, valRange, ok := p.parseValue()
	if !ok {
		return nil
	}
	return &FieldDecl{Name: nameTok.Text, Value: val, Range: hcl.RangeBetween(nameTok.Range, valRange)}
}

func (p *parser) parseSchemaBlock() *SchemaDecl {
	start := p.cur.Range
	if _, ok := p.expectKeyword("schema"); !ok {
		p.recoverToTopLevel()
		return nil
	}
	typeTok, ok := p.expect(TokIdent)
	if !ok {
		p.recoverToTopLevel()
		return nil
	}
	p.validateIdentUse(typeTok.Text, typeTok.Range, "schema entity type")

	if _, ok := p.expect(TokLBrace); !ok {
		p.recoverToTopLevel()
		return nil
	}

	decl := &SchemaDecl{EntityType: typeTok.Text}
	order := 0
	for p.cur.Kind != TokRBrace && p.cur.Kind != TokEOF {
		spec := p.parseFieldSpecBlock(order)
		if spec == nil {
			p.recoverToTopLevel()
			return decl
		}
		decl.Fields = append(decl.Fields, spec)
		order++
	}
	end := p.cur.Range
	p.expect(TokRBrace)
	decl.Range = hcl.RangeBetween(start, end)
	return decl
}

// parseFieldSpecBlock parses `field { key = value ... }` as a nested
// key/value bag (§4.2) and maps the recognized keys (id, type, required,
// allowed_values) onto a FieldSpecDecl.
func (p *parser) parseFieldSpecBlock(order int) *FieldSpecDecl {
	start := p.cur.Range
	if _, ok := p.expectKeyword("field"); !ok {
		return nil
	}
	if _, ok := p.expect(TokLBrace); !ok {
		return nil
	}

	spec := &FieldSpecDecl{Order: order}
	haveType := false
	for p.cur.Kind != TokRBrace && p.cur.Kind != TokEOF {
		fd := p.parseFieldAssignment()
		if fd == nil {
			return nil
		}
		switch fd.Name {
		case "id":
			s, ok := fd.Value.AsString()
			if !ok {
				p.errorf(fd.Range, "field spec 'id' must be a string")
				return nil
			}
			spec.FieldID = s
			p.validateIdentUse(s, fd.Range, "field spec id")
		case "type":
			s, ok := fd.Value.AsString()
			if !ok {
				p.errorf(fd.Range, "field spec 'type' must be a bare type name")
				return nil
			}
			kind, ok := parseKindName(s)
			if !ok {
				p.errorf(fd.Range, "unknown declared type %q", s)
				return nil
			}
			spec.DeclaredType = kind
			haveType = true
		case "required":
			b, ok := fd.Value.AsBoolean()
			if !ok {
				p.errorf(fd.Range, "field spec 'required' must be a boolean")
				return nil
			}
			spec.Required = b
		case "allowed_values":
			items, _, ok := fd.Value.AsList()
			if !ok {
				p.errorf(fd.Range, "field spec 'allowed_values' must be a list of strings")
				return nil
			}
			for _, it := range items {
				s, ok := it.AsString()
				if !ok {
					p.errorf(fd.Range, "field spec 'allowed_values' entries must be strings")
					return nil
				}
				spec.AllowedValues = append(spec.AllowedValues, s)
			}
		default:
			p.errorf(fd.Range, "unknown field spec key %q", fd.Name)
			return nil
		}
	}
	end := p.cur.Range
	p.expect(TokRBrace)
	spec.Range = hcl.RangeBetween(start, end)

	if !haveType {
		p.errorf(spec.Range, "field spec for %q is missing 'type'", spec.FieldID)
		return nil
	}
	if spec.DeclaredType == value.EnumKind && len(spec.AllowedValues) == 0 {
		p.errorf(spec.Range, "field spec for %q declares type enum but has no allowed_values", spec.FieldID)
		return nil
	}
	return spec
}

func parseKindName(s string) (value.Kind, bool) {
	switch s {
	case "string":
		return value.String, true
	case "integer":
		return value.Integer, true
	case "float":
		return value.Float, true
	case "boolean":
		return value.Boolean, true
	case "currency":
		return value.CurrencyKind, true
	case "datetime":
		return value.DateTimeKind, true
	case "reference":
		return value.EntityRef, true
	case "path":
		return value.PathKind, true
	case "enum":
		return value.EnumKind, true
	case "list":
		return value.ListKind, true
	default:
		return 0, false
	}
}

// parseValue parses one literal in value position (§4.2). The returned
// range spans exactly the literal's tokens.
func (p *parser) parseValue() (value.Value, hcl.Range, bool) {
	tok := p.cur
	switch tok.Kind {
	case TokString, TokTripleString:
		p.advance()
		return value.NewString(tok.Text), tok.Range, true

	case TokInteger:
		p.advance()
		return p.maybeCurrency(tok, false)

	case TokFloat:
		p.advance()
		return p.maybeCurrency(tok, true)

	case TokDate:
		p.advance()
		return p.parseDateOrDateTime(tok)

	case TokLBracket:
		return p.parseList(tok)

	case TokIdent:
		switch tok.Text {
		case "true":
			p.advance()
			return value.NewBoolean(true), tok.Range, true
		case "false":
			p.advance()
			return value.NewBoolean(false), tok.Range, true
		case "enum":
			p.advance()
			strTok, ok := p.expect(TokString)
			if !ok {
				return value.Value{}, tok.Range, false
			}
			return value.NewEnum(strTok.Text), hcl.RangeBetween(tok.Range, strTok.Range), true
		case "path":
			p.advance()
			strTok, ok := p.expect(TokString)
			if !ok {
				return value.Value{}, tok.Range, false
			}
			return value.NewPath(strTok.Text), hcl.RangeBetween(tok.Range, strTok.Range), true
		default:
			return p.parseReference(tok)
		}

	default:
		p.errorf(tok.Range, "expected a value, found %s %q", tok.Kind, tok.Text)
		return value.Value{}, tok.Range, false
	}
}

// maybeCurrency looks one token ahead after a number literal for a
// 3-letter uppercase ISO-4217 code, producing a Currency value; otherwise
// the plain Integer/Float value is returned.
func (p *parser) maybeCurrency(numTok Token, isFloat bool) (value.Value, hcl.Range, bool) {
	if p.cur.Kind == TokIdent && isCurrencyCodeShape(p.cur.Text) {
		codeTok := p.cur
		if value.ValidCurrencyCode(codeTok.Text) {
			p.advance()
			dec, err := value.ParseDecimal(numTok.Text)
			if err != nil {
				p.errorf(numTok.Range, "invalid currency amount: %s", err)
				return value.Value{}, numTok.Range, false
			}
			return value.NewCurrency(value.Currency{Amount: dec, Code: codeTok.Text}), hcl.RangeBetween(numTok.Range, codeTok.Range), true
		}
		p.errorf(codeTok.Range, "unknown ISO-4217 currency code %q", codeTok.Text)
		return value.Value{}, numTok.Range, false
	}
	if isFloat {
		f, err := strconv.ParseFloat(numTok.Text, 64)
		if err != nil {
			p.errorf(numTok.Range, "invalid float literal %q", numTok.Text)
			return value.Value{}, numTok.Range, false
		}
		return value.NewFloat(f), numTok.Range, true
	}
	i, err := strconv.ParseInt(numTok.Text, 10, 64)
	if err != nil {
		p.errorf(numTok.Range, "invalid integer literal %q", numTok.Text)
		return value.Value{}, numTok.Range, false
	}
	return value.NewInteger(i), numTok.Range, true
}

func isCurrencyCodeShape(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func (p *parser) parseDateOrDateTime(dateTok Token) (value.Value, hcl.Range, bool) {
	y, m, d, ok := splitDate(dateTok.Text)
	if !ok {
		p.errorf(dateTok.Range, "malformed date literal %q", dateTok.Text)
		return value.Value{}, dateTok.Range, false
	}

	if !(p.cur.Kind == TokIdent && p.cur.Text == "at") {
		dt := value.DateTime{Year: y, Month: m, Day: d, Precision: value.PrecisionDate, Offset: value.Offset{Local: true}}
		return value.NewDateTime(dt), dateTok.Range, true
	}
	p.advance() // "at"

	timeTok, ok := p.expect(TokTime)
	if !ok {
		return value.Value{}, dateTok.Range, false
	}
	hh, mm, ok := splitTime(timeTok.Text)
	if !ok {
		p.errorf(timeTok.Range, "malformed time literal %q", timeTok.Text)
		return value.Value{}, timeTok.Range, false
	}

	offset := value.Offset{Local: true}
	end := timeTok.Range
	if p.cur.Kind == TokIdent && strings.HasPrefix(p.cur.Text, "UTC") {
		offTok := p.cur
		p.advance()
		hours := 0
		if rest := offTok.Text[len("UTC"):]; rest != "" {
			n, err := strconv.Atoi(rest)
			if err != nil {
				p.errorf(offTok.Range, "malformed UTC offset %q", offTok.Text)
				return value.Value{}, offTok.Range, false
			}
			hours = n
		}
		offset = value.Offset{Local: false, FixedUTCHours: hours}
		end = offTok.Range
	}

	dt := value.DateTime{Year: y, Month: m, Day: d, Hour: hh, Minute: mm, Precision: value.PrecisionDateMinute, Offset: offset}
	return value.NewDateTime(dt), hcl.RangeBetween(dateTok.Range, end), true
}

func splitDate(s string) (int, int, int, bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	y, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	d, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	return y, m, d, true
}

func splitTime(s string) (int, int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return h, m, true
}

// parseReference parses `IDENT "." IDENT ("." IDENT)?`: two components are
// an EntityRef, three are a FieldRef (§4.2).
func (p *parser) parseReference(typeTok Token) (value.Value, hcl.Range, bool) {
	p.advance() // consumed typeTok already as p.cur; now advance past it
	if _, ok := p.expect(TokDot); !ok {
		return value.Value{}, typeTok.Range, false
	}
	idTok, ok := p.expect(TokIdent)
	if !ok {
		return value.Value{}, typeTok.Range, false
	}

	ref := value.Reference{Type: typeTok.Text, ID: idTok.Text}
	end := idTok.Range

	if p.cur.Kind == TokDot {
		p.advance()
		fieldTok, ok := p.expect(TokIdent)
		if !ok {
			return value.Value{}, typeTok.Range, false
		}
		ref.Field = fieldTok.Text
		end = fieldTok.Range
		return value.NewFieldRef(ref), hcl.RangeBetween(typeTok.Range, end), true
	}
	return value.NewEntityRef(ref), hcl.RangeBetween(typeTok.Range, end), true
}

// parseList parses `"[" value ("," value)* ","? "]"` (§4.2), enforcing
// element homogeneity via value.NewList.
func (p *parser) parseList(lbrack Token) (value.Value, hcl.Range, bool) {
	p.advance() // '['
	var items []value.Value
	for p.cur.Kind != TokRBracket {
		if p.cur.Kind == TokEOF {
			p.errorf(lbrack.Range, "unterminated list literal")
			return value.Value{}, lbrack.Range, false
		}
		v, _, ok := p.parseValue()
		if !ok {
			return value.Value{}, lbrack.Range, false
		}
		items = append(items, v)
		if p.cur.Kind == TokComma {
			p.advance()
			continue
		}
		break
	}
	end := p.cur.Range
	if _, ok := p.expect(TokRBracket); !ok {
		return value.Value{}, lbrack.Range, false
	}
	rng := hcl.RangeBetween(lbrack.Range, end)
	if len(items) == 0 {
		v, _ := value.NewList(value.String, nil)
		return v, rng, true
	}
	v, err := value.NewList(items[0].Kind(), items)
	if err != nil {
		p.errorf(rng, "%s", err)
		return value.Value{}, rng, false
	}
	return v, rng, true
}

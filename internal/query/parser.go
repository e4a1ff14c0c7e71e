package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/go-firm/firmgraph/internal/value"
)

type parser struct {
	lex      *Lexer
	filename string
	cur      Token
	errs     ParseErrors
}

// Parse tokenizes and parses one query string (§4.6). A non-empty
// ParseErrors means Query may be partial or nil; the parser recovers at
// the next '|' so one malformed stage doesn't hide errors in the rest of
// the pipeline.
func Parse(filename, src string) (*Query, ParseErrors) {
	p := &parser{lex: NewLexer(filename, src), filename: filename}
	p.advance()
	q := p.parseQuery()
	return q, p.errs
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

// recoverToNextPipe skips tokens until the next '|' or EOF, so a single
// malformed stage doesn't abort parsing of the rest of the query.
func (p *parser) recoverToNextPipe() {
	for p.cur.Kind != TokEOF && p.cur.Kind != TokPipe {
		p.advance()
	}
}

func (p *parser) parseQuery() *Query {
	if _, ok := p.expectKeyword("from"); !ok {
		p.recoverToNextPipe()
		return nil
	}
	selTok, ok := p.expect(TokIdent)
	if !ok {
		return nil
	}
	q := &Query{Selector: selTok.Text}

	for p.cur.Kind == TokPipe {
		p.advance() // '|'
		if p.cur.Kind != TokIdent {
			p.errorf(p.cur.Range, "expected an operator or aggregation after '|', found %s %q", p.cur.Kind, p.cur.Text)
			p.recoverToNextPipe()
			continue
		}
		switch p.cur.Text {
		case "where", "related", "order", "limit":
			if op := p.parseOp(); op != nil {
				q.Ops = append(q.Ops, op)
			}
		case "select", "count", "sum", "average", "median":
			if agg := p.parseAggregation(); agg != nil {
				q.Aggregation = agg
			}
		default:
			p.errorf(p.cur.Range, "unknown pipeline stage %q", p.cur.Text)
			p.recoverToNextPipe()
		}
	}
	if p.cur.Kind != TokEOF {
		p.errorf(p.cur.Range, "unexpected trailing input %q", p.cur.Text)
	}
	return q
}

func (p *parser) parseOp() Op {
	switch p.cur.Text {
	case "where":
		p.advance()
		cond, ok := p.parseCondition()
		if !ok {
			p.recoverToNextPipe()
			return nil
		}
		return WhereOp{Condition: cond}

	case "related":
		p.advance()
		k := 1
		if p.cur.Kind == TokLParen {
			p.advance()
			numTok, ok := p.expect(TokInteger)
			if !ok {
				p.recoverToNextPipe()
				return nil
			}
			n, err := strconv.Atoi(numTok.Text)
			if err != nil {
				p.errorf(numTok.Range, "invalid hop count %q", numTok.Text)
				p.recoverToNextPipe()
				return nil
			}
			k = n
			if _, ok := p.expect(TokRParen); !ok {
				p.recoverToNextPipe()
				return nil
			}
		}
		typeFilter := ""
		if p.cur.Kind == TokIdent && !isReservedKeyword(p.cur.Text) {
			typeFilter = p.cur.Text
			p.advance()
		}
		return RelatedOp{K: k, TypeFilter: typeFilter}

	case "order":
		p.advance()
		fieldTok, ok := p.expect(TokIdent)
		if !ok {
			p.recoverToNextPipe()
			return nil
		}
		desc := false
		if p.cur.Kind == TokIdent && (p.cur.Text == "asc" || p.cur.Text == "desc") {
			desc = p.cur.Text == "desc"
			p.advance()
		}
		return OrderOp{Field: fieldTok.Text, Desc: desc}

	case "limit":
		p.advance()
		numTok, ok := p.expect(TokInteger)
		if !ok {
			p.recoverToNextPipe()
			return nil
		}
		n, err := strconv.Atoi(numTok.Text)
		if err != nil || n < 0 {
			p.errorf(numTok.Range, "limit must be a non-negative integer, found %q", numTok.Text)
			p.recoverToNextPipe()
			return nil
		}
		return LimitOp{N: n}

	default:
		return nil
	}
}

// isReservedKeyword reports whether text is a pipeline-stage or combinator
// keyword rather than a type name, used to decide whether `related` was
// followed by an optional type filter.
func isReservedKeyword(text string) bool {
	switch text {
	case "where", "related", "order", "limit", "select", "count", "sum", "average", "median":
		return true
	default:
		return false
	}
}

func (p *parser) parseAggregation() Aggregation {
	switch p.cur.Text {
	case "select":
		p.advance()
		fields := []string{}
		for {
			fieldTok, ok := p.expect(TokIdent)
			if !ok {
				p.recoverToNextPipe()
				return nil
			}
			fields = append(fields, fieldTok.Text)
			if p.cur.Kind == TokComma {
				p.advance()
				continue
			}
			break
		}
		return SelectAgg{Fields: fields}

	case "count":
		p.advance()
		field := ""
		if p.cur.Kind == TokIdent {
			field = p.cur.Text
			p.advance()
		}
		return CountAgg{Field: field}

	case "sum":
		p.advance()
		fieldTok, ok := p.expect(TokIdent)
		if !ok {
			p.recoverToNextPipe()
			return nil
		}
		return SumAgg{Field: fieldTok.Text}

	case "average":
		p.advance()
		fieldTok, ok := p.expect(TokIdent)
		if !ok {
			p.recoverToNextPipe()
			return nil
		}
		return AverageAgg{Field: fieldTok.Text}

	case "median":
		p.advance()
		fieldTok, ok := p.expect(TokIdent)
		if !ok {
			p.recoverToNextPipe()
			return nil
		}
		return MedianAgg{Field: fieldTok.Text}

	default:
		return nil
	}
}

// parseCondition parses `atom ((and atom)* | (or atom)*)` (§4.6): and and
// or may not be mixed within one where clause.
func (p *parser) parseCondition() (Condition, bool) {
	first, ok := p.parseAtom()
	if !ok {
		return Condition{}, false
	}
	cond := Condition{Atoms: []Atom{first}, Combo: LogicNone}

	for p.cur.Kind == TokIdent && (p.cur.Text == "and" || p.cur.Text == "or") {
		combo := LogicAnd
		if p.cur.Text == "or" {
			combo = LogicOr
		}
		if cond.Combo != LogicNone && cond.Combo != combo {
			p.errorf(p.cur.Range, "cannot mix 'and' and 'or' within one where clause")
			return Condition{}, false
		}
		cond.Combo = combo
		p.advance()
		atom, ok := p.parseAtom()
		if !ok {
			return Condition{}, false
		}
		cond.Atoms = append(cond.Atoms, atom)
	}
	return cond, true
}

func (p *parser) parseAtom() (Atom, bool) {
	fieldTok, ok := p.expect(TokIdent)
	if !ok {
		return Atom{}, false
	}
	cmp, ok := p.parseCmpOp()
	if !ok {
		return Atom{}, false
	}
	val, _, ok := p.parseValue()
	if !ok {
		return Atom{}, false
	}
	if cmp == CmpIn && val.Kind() != value.ListKind {
		p.errorf(fieldTok.Range, "'in' requires a list literal on the right-hand side")
		return Atom{}, false
	}
	return Atom{Field: fieldTok.Text, Cmp: cmp, Value: val}, true
}

func (p *parser) parseCmpOp() (CmpOp, bool) {
	switch p.cur.Kind {
	case TokEq:
		p.advance()
		return CmpEq, true
	case TokNeq:
		p.advance()
		return CmpNeq, true
	case TokGt:
		p.advance()
		return CmpGt, true
	case TokLt:
		p.advance()
		return CmpLt, true
	case TokGte:
		p.advance()
		return CmpGte, true
	case TokLte:
		p.advance()
		return CmpLte, true
	case TokIdent:
		switch p.cur.Text {
		case "contains":
			p.advance()
			return CmpContains, true
		case "startswith":
			p.advance()
			return CmpStartsWith, true
		case "endswith":
			p.advance()
			return CmpEndsWith, true
		case "in":
			p.advance()
			return CmpIn, true
		}
	}
	p.errorf(p.cur.Range, "expected a comparison operator, found %s %q", p.cur.Kind, p.cur.Text)
	return 0, false
}

// parseValue parses one literal in value position, reusing the DSL's
// literal forms (§4.6: value literals).
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
// an EntityRef, three are a FieldRef.
func (p *parser) parseReference(typeTok Token) (value.Value, hcl.Range, bool) {
	p.advance() // past typeTok
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

// parseList parses `"[" value ("," value)* ","? "]"`, enforcing element
// homogeneity via value.NewList.
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

// Package value implements the FieldValue tagged union: the set of typed
// values a field on an entity can hold, along with equality, ordering, and
// comparison across kinds.
//
// # Why a tagged union, not an interface hierarchy
//
// A FieldValue is closed: String, Integer, Float, Boolean, Currency,
// DateTime, Reference, Path, Enum, List. Every consumer (the DSL parser,
// the schema validator, the query executor, the graph cache) dispatches on
// Kind rather than on concrete Go types, so adding a new kind is a change to
// this package's switch statements and nowhere else.
package value

import (
	"fmt"
)

// Kind identifies which variant of FieldValue is populated.
type Kind int

const (
	String Kind = iota
	Integer
	Float
	Boolean
	CurrencyKind
	DateTimeKind
	EntityRef
	FieldRef
	PathKind
	EnumKind
	ListKind
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Boolean:
		return "boolean"
	case CurrencyKind:
		return "currency"
	case DateTimeKind:
		return "datetime"
	case EntityRef:
		return "entity_ref"
	case FieldRef:
		return "field_ref"
	case PathKind:
		return "path"
	case EnumKind:
		return "enum"
	case ListKind:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a single FieldValue. Exactly one payload field is meaningful,
// selected by Kind. Construction always goes through the New* functions so
// invariants (e.g. list homogeneity) are checked in one place.
type Value struct {
	kind Kind

	str     string  // String, PathKind, EnumKind
	i       int64   // Integer
	f       float64 // Float
	b       bool    // Boolean
	cur     Currency
	dt      DateTime
	ref     Reference
	listOf  Kind
	list    []Value
}

// Kind reports which variant this Value holds.
func (v Value) Kind() Kind { return v.kind }

func NewString(s string) Value { return Value{kind: String, str: s} }
func NewInteger(i int64) Value { return Value{kind: Integer, i: i} }
func NewFloat(f float64) Value { return Value{kind: Float, f: f} }
func NewBoolean(b bool) Value  { return Value{kind: Boolean, b: b} }
func NewPath(p string) Value   { return Value{kind: PathKind, str: p} }
func NewEnum(s string) Value   { return Value{kind: EnumKind, str: s} }

func NewCurrency(c Currency) Value   { return Value{kind: CurrencyKind, cur: c} }
func NewDateTime(dt DateTime) Value  { return Value{kind: DateTimeKind, dt: dt} }

// NewEntityRef constructs a Reference value naming another entity.
func NewEntityRef(r Reference) Value {
	r.Field = ""
	return Value{kind: EntityRef, ref: r}
}

// NewFieldRef constructs a Reference value naming a field on another entity.
func NewFieldRef(r Reference) Value {
	return Value{kind: FieldRef, ref: r}
}

// NewList validates that every element has kind elemKind and returns a
// HomogeneityError otherwise. An empty list is permitted and carries the
// requested element kind.
func NewList(elemKind Kind, items []Value) (Value, error) {
	for idx, it := range items {
		if it.Kind() != elemKind {
			return Value{}, &HomogeneityError{Index: idx, Expected: elemKind, Actual: it.Kind()}
		}
	}
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: ListKind, listOf: elemKind, list: cp}, nil
}

// AsString returns the raw string payload for String, PathKind and EnumKind.
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case String, PathKind, EnumKind:
		return v.str, true
	default:
		return "", false
	}
}

func (v Value) AsInteger() (int64, bool) {
	if v.kind != Integer {
		return 0, false
	}
	return v.i, true
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind != Float {
		return 0, false
	}
	return v.f, true
}

func (v Value) AsBoolean() (bool, bool) {
	if v.kind != Boolean {
		return false, false
	}
	return v.b, true
}

func (v Value) AsCurrency() (Currency, bool) {
	if v.kind != CurrencyKind {
		return Currency{}, false
	}
	return v.cur, true
}

func (v Value) AsDateTime() (DateTime, bool) {
	if v.kind != DateTimeKind {
		return DateTime{}, false
	}
	return v.dt, true
}

func (v Value) AsReference() (Reference, bool) {
	if v.kind != EntityRef && v.kind != FieldRef {
		return Reference{}, false
	}
	return v.ref, true
}

func (v Value) AsList() ([]Value, Kind, bool) {
	if v.kind != ListKind {
		return nil, 0, false
	}
	return v.list, v.listOf, true
}

// HomogeneityError reports a List literal or value whose elements are not
// all the same Kind.
type HomogeneityError struct {
	Index    int
	Expected Kind
	Actual   Kind
}

func (e *HomogeneityError) Error() string {
	return fmt.Sprintf("list item %d has kind %s, expected %s", e.Index, e.Actual, e.Expected)
}

// Equal reports structural equality. Cross-kind comparisons are always
// unequal except Integer/Float, compared numerically as reals the same
// way Less does, and enum match, which is case-insensitive.
func (v Value) Equal(other Value) bool {
	if v.kind == Integer && other.kind == Float {
		return float64(v.i) == other.f
	}
	if v.kind == Float && other.kind == Integer {
		return v.f == float64(other.i)
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case String, PathKind:
		return v.str == other.str
	case EnumKind:
		return equalFold(v.str, other.str)
	case Integer:
		return v.i == other.i
	case Float:
		return v.f == other.f
	case Boolean:
		return v.b == other.b
	case CurrencyKind:
		return v.cur.Code == other.cur.Code && v.cur.Amount.Equal(other.cur.Amount)
	case DateTimeKind:
		return v.dt.Instant().Equal(other.dt.Instant())
	case EntityRef, FieldRef:
		return v.ref.FullID() == other.ref.FullID() && v.ref.Field == other.ref.Field
	case ListKind:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ComparisonTypeError is returned by ordered comparisons (Less) between
// values whose kinds cannot be ordered against each other.
type ComparisonTypeError struct {
	A, B Kind
}

func (e *ComparisonTypeError) Error() string {
	return fmt.Sprintf("cannot order-compare %s and %s", e.A, e.B)
}

// Less implements the total ordering of §4.1: strings lexicographic,
// numbers numeric (Integer/Float as reals), Currency only within a shared
// code, DateTime by UTC instant, Booleans false < true, References by
// FullId string form, Lists lexicographically. NaN never compares less or
// equal to anything, including itself (query callers treat that as false,
// not as an error).
func (v Value) Less(other Value) (bool, error) {
	if v.kind == Integer && other.kind == Float {
		return numLess(float64(v.i), other.f), nil
	}
	if v.kind == Float && other.kind == Integer {
		return numLess(v.f, float64(other.i)), nil
	}
	if v.kind != other.kind {
		return false, &ComparisonTypeError{A: v.kind, B: other.kind}
	}
	switch v.kind {
	case String, PathKind, EnumKind:
		return v.str < other.str, nil
	case Integer:
		return v.i < other.i, nil
	case Float:
		return numLess(v.f, other.f), nil
	case Boolean:
		return !v.b && other.b, nil
	case CurrencyKind:
		if v.cur.Code != other.cur.Code {
			return false, fmt.Errorf("cannot order-compare currencies of different codes %q and %q", v.cur.Code, other.cur.Code)
		}
		return v.cur.Amount.Less(other.cur.Amount), nil
	case DateTimeKind:
		return v.dt.Instant().Before(other.dt.Instant()), nil
	case EntityRef, FieldRef:
		return v.ref.FullID() < other.ref.FullID(), nil
	case ListKind:
		n := len(v.list)
		if len(other.list) < n {
			n = len(other.list)
		}
		for i := 0; i < n; i++ {
			if v.list[i].Equal(other.list[i]) {
				continue
			}
			return v.list[i].Less(other.list[i])
		}
		return len(v.list) < len(other.list), nil
	default:
		return false, &ComparisonTypeError{A: v.kind, B: other.kind}
	}
}

func numLess(a, b float64) bool {
	if a != a || b != b { // NaN on either side
		return false
	}
	return a < b
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

package query

import "github.com/go-firm/firmgraph/internal/value"

// Query is the parsed form of a pipe-composed query string (§4.6):
//
//	query = from selector (| op)* (| aggregation)?
type Query struct {
	Selector    string // "*" or an entity type
	Ops         []Op
	Aggregation Aggregation // nil if the query has no terminal clause
}

// Op is one pipeline stage that transforms the bag (§4.7).
type Op interface{ isOp() }

// WhereOp keeps entities for which Condition evaluates to true.
type WhereOp struct{ Condition Condition }

// RelatedOp expands the bag to entities reachable within K undirected
// hops, optionally restricted to TypeFilter. K defaults to 1 when not
// written in the query text.
type RelatedOp struct {
	K          int
	TypeFilter string
}

// OrderOp stably sorts the bag by Field.
type OrderOp struct {
	Field string
	Desc  bool
}

// LimitOp keeps the first N entities.
type LimitOp struct{ N int }

func (WhereOp) isOp()   {}
func (RelatedOp) isOp() {}
func (OrderOp) isOp()   {}
func (LimitOp) isOp()   {}

// LogicOp names the boolean combinator joining a condition's atoms. `and`
// and `or` may not be mixed within one where clause (§4.6).
type LogicOp int

const (
	LogicNone LogicOp = iota
	LogicAnd
	LogicOr
)

// Condition is a where clause: one or more atoms joined uniformly by and
// or uniformly by or.
type Condition struct {
	Atoms []Atom
	Combo LogicOp
}

// CmpOp is a comparison or membership operator (§4.6: op_cmp).
type CmpOp int

const (
	CmpEq CmpOp = iota
	CmpNeq
	CmpGt
	CmpLt
	CmpGte
	CmpLte
	CmpContains
	CmpStartsWith
	CmpEndsWith
	CmpIn
)

func (c CmpOp) String() string {
	switch c {
	case CmpEq:
		return "=="
	case CmpNeq:
		return "!="
	case CmpGt:
		return ">"
	case CmpLt:
		return "<"
	case CmpGte:
		return ">="
	case CmpLte:
		return "<="
	case CmpContains:
		return "contains"
	case CmpStartsWith:
		return "startswith"
	case CmpEndsWith:
		return "endswith"
	case CmpIn:
		return "in"
	default:
		return "op"
	}
}

// Atom is a single predicate: field op_cmp value. Field is either a plain
// field name, or "@id"/"@type" for the FullId components.
type Atom struct {
	Field string
	Cmp   CmpOp
	Value value.Value
}

// Aggregation is the optional terminal clause of a query (§4.6, §4.7).
type Aggregation interface{ isAggregation() }

// SelectAgg produces a sequence of row-records preserving bag order.
type SelectAgg struct{ Fields []string }

// CountAgg counts entities in the bag, or entities carrying Field if set.
type CountAgg struct{ Field string }

// SumAgg sums Field across the bag (Integer, Float, or Currency).
type SumAgg struct{ Field string }

// AverageAgg averages Field across the bag.
type AverageAgg struct{ Field string }

// MedianAgg computes the median of Field across the bag.
type MedianAgg struct{ Field string }

func (SelectAgg) isAggregation()  {}
func (CountAgg) isAggregation()   {}
func (SumAgg) isAggregation()     {}
func (AverageAgg) isAggregation() {}
func (MedianAgg) isAggregation()  {}

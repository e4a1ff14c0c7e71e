// Package queryexec implements §4.7: the staged pipeline that consumes a
// parsed query.Query and a graph.Graph, threading a bag of entities
// through the requested transforms and terminal aggregation.
//
// Grounded on the teacher's internal/dag package: a bag is walked the same
// way the teacher walks a DAG's node set, one pass per stage, deferring to
// the graph package for actual adjacency lookups rather than re-deriving
// them here.
package queryexec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-firm/firmgraph/internal/entity"
	"github.com/go-firm/firmgraph/internal/graph"
	"github.com/go-firm/firmgraph/internal/query"
	"github.com/go-firm/firmgraph/internal/value"
)

// RowValue is one (field, value) slot of a select row; Present is false
// when the entity carried no such field, per §4.7's "missing fields
// appear as empty".
type RowValue struct {
	Field   string
	Value   value.Value
	Present bool
}

// Row is one row-record produced by a `select` aggregation.
type Row struct {
	Entity *entity.Entity
	Values []RowValue
}

// Result is the outcome of running a query: either the final bag (no
// terminal aggregation), a sequence of Rows (select), or a scalar Value
// (count/sum/average/median).
type Result struct {
	Bag      []*entity.Entity
	Rows     []Row
	Scalar   value.Value
	IsScalar bool
	IsRows   bool
}

// Run executes q against g and returns its result (§4.7).
func Run(g *graph.Graph, q *query.Query) (*Result, error) {
	bag := initialBag(g, q.Selector)

	for _, op := range q.Ops {
		var err error
		bag, err = applyOp(g, bag, op)
		if err != nil {
			return nil, err
		}
	}

	if q.Aggregation == nil {
		return &Result{Bag: bag}, nil
	}
	return applyAggregation(bag, q.Aggregation)
}

func initialBag(g *graph.Graph, selector string) []*entity.Entity {
	if selector == "*" {
		return g.All()
	}
	return g.ListByType(selector)
}

func applyOp(g *graph.Graph, bag []*entity.Entity, op query.Op) ([]*entity.Entity, error) {
	switch o := op.(type) {
	case query.WhereOp:
		return applyWhere(bag, o.Condition)
	case query.RelatedOp:
		return applyRelated(g, bag, o), nil
	case query.OrderOp:
		return applyOrder(bag, o), nil
	case query.LimitOp:
		return applyLimit(bag, o.N), nil
	default:
		return bag, nil
	}
}

func applyWhere(bag []*entity.Entity, cond query.Condition) ([]*entity.Entity, error) {
	out := make([]*entity.Entity, 0, len(bag))
	for _, e := range bag {
		ok, err := evalCondition(e, cond)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func evalCondition(e *entity.Entity, cond query.Condition) (bool, error) {
	if len(cond.Atoms) == 0 {
		return true, nil
	}
	results := make([]bool, len(cond.Atoms))
	for i, atom := range cond.Atoms {
		ok, err := evalAtom(e, atom)
		if err != nil {
			return false, err
		}
		results[i] = ok
	}
	switch cond.Combo {
	case query.LogicOr:
		for _, r := range results {
			if r {
				return true, nil
			}
		}
		return false, nil
	default: // LogicNone (single atom) and LogicAnd both require all true
		for _, r := range results {
			if !r {
				return false, nil
			}
		}
		return true, nil
	}
}

func fieldValue(e *entity.Entity, field string) (value.Value, bool) {
	switch field {
	case "@id":
		return value.NewString(e.FullID.ID), true
	case "@type":
		return value.NewString(e.FullID.Type), true
	default:
		return e.Get(field)
	}
}

func evalAtom(e *entity.Entity, atom query.Atom) (bool, error) {
	v, present := fieldValue(e, atom.Field)
	if !present {
		return atom.Cmp == query.CmpNeq, nil
	}

	switch atom.Cmp {
	case query.CmpEq:
		return v.Equal(atom.Value), nil
	case query.CmpNeq:
		return !v.Equal(atom.Value), nil
	case query.CmpGt, query.CmpLt, query.CmpGte, query.CmpLte:
		return evalOrdered(atom.Field, v, atom.Value, atom.Cmp)
	case query.CmpContains:
		return evalContains(v, atom.Value), nil
	case query.CmpStartsWith:
		s, ok1 := v.AsString()
		other, ok2 := atom.Value.AsString()
		return ok1 && ok2 && strings.HasPrefix(s, other), nil
	case query.CmpEndsWith:
		s, ok1 := v.AsString()
		other, ok2 := atom.Value.AsString()
		return ok1 && ok2 && strings.HasSuffix(s, other), nil
	case query.CmpIn:
		items, _, ok := atom.Value.AsList()
		if !ok {
			return false, nil
		}
		for _, it := range items {
			if it.Equal(v) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

func evalOrdered(field string, a, b value.Value, cmp query.CmpOp) (bool, error) {
	lt, err := a.Less(b)
	if err != nil {
		return false, &ComparisonTypeError{Field: field, Cause: err}
	}
	eq := a.Equal(b)
	switch cmp {
	case query.CmpLt:
		return lt, nil
	case query.CmpLte:
		return lt || eq, nil
	case query.CmpGt:
		return !lt && !eq, nil
	case query.CmpGte:
		return !lt, nil
	default:
		return false, nil
	}
}

func evalContains(haystack, needle value.Value) bool {
	if s, ok := haystack.AsString(); ok {
		other, ok := needle.AsString()
		return ok && strings.Contains(s, other)
	}
	if items, _, ok := haystack.AsList(); ok {
		for _, it := range items {
			if it.Equal(needle) {
				return true
			}
		}
	}
	return false
}

// applyRelated expands the bag to every entity reachable within K
// undirected hops of any seed, filtered by TypeFilter, seeds excluded and
// duplicates collapsed, in BFS discovery order per seed (§4.7).
func applyRelated(g *graph.Graph, bag []*entity.Entity, op query.RelatedOp) []*entity.Entity {
	k := op.K
	if k < 1 {
		k = 1
	}
	seeds := make(map[string]struct{}, len(bag))
	for _, e := range bag {
		seeds[e.FullID.String()] = struct{}{}
	}

	seen := make(map[string]struct{})
	var out []*entity.Entity
	for _, e := range bag {
		for _, reached := range g.KHop(e.FullID.String(), k, op.TypeFilter) {
			key := reached.FullID.String()
			if _, isSeed := seeds[key]; isSeed {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, reached)
		}
	}
	return out
}

// applyOrder stably sorts the bag by Field; entities missing Field sort
// last regardless of direction, ties preserve prior order (§4.7).
func applyOrder(bag []*entity.Entity, op query.OrderOp) []*entity.Entity {
	out := make([]*entity.Entity, len(bag))
	copy(out, bag)

	sort.SliceStable(out, func(i, j int) bool {
		vi, pi := fieldValue(out[i], op.Field)
		vj, pj := fieldValue(out[j], op.Field)
		if !pi && !pj {
			return false
		}
		if !pi {
			return false // i missing: i sorts after j
		}
		if !pj {
			return true // j missing: i sorts before j
		}
		lt, err := vi.Less(vj)
		if err != nil {
			return false
		}
		if op.Desc {
			gt, _ := vj.Less(vi)
			return gt
		}
		return lt
	})
	return out
}

func applyLimit(bag []*entity.Entity, n int) []*entity.Entity {
	if n >= len(bag) {
		return bag
	}
	return bag[:n]
}

func applyAggregation(bag []*entity.Entity, agg query.Aggregation) (*Result, error) {
	switch a := agg.(type) {
	case query.SelectAgg:
		return applySelect(bag, a), nil
	case query.CountAgg:
		return applyCount(bag, a), nil
	case query.SumAgg:
		return applySum(bag, a)
	case query.AverageAgg:
		return applyAverage(bag, a)
	case query.MedianAgg:
		return applyMedian(bag, a)
	default:
		return nil, fmt.Errorf("queryexec: unknown aggregation %T", agg)
	}
}

func applySelect(bag []*entity.Entity, agg query.SelectAgg) *Result {
	rows := make([]Row, 0, len(bag))
	for _, e := range bag {
		row := Row{Entity: e}
		for _, f := range agg.Fields {
			v, present := fieldValue(e, f)
			row.Values = append(row.Values, RowValue{Field: f, Value: v, Present: present})
		}
		rows = append(rows, row)
	}
	return &Result{Rows: rows, IsRows: true}
}

func applyCount(bag []*entity.Entity, agg query.CountAgg) *Result {
	if agg.Field == "" {
		return &Result{Scalar: value.NewInteger(int64(len(bag))), IsScalar: true}
	}
	n := int64(0)
	for _, e := range bag {
		if _, present := fieldValue(e, agg.Field); present {
			n++
		}
	}
	return &Result{Scalar: value.NewInteger(n), IsScalar: true}
}

// numericValues collects the present values of field across the bag,
// requiring each to be Integer, Float, or Currency, and that any Currency
// values share one code (§4.7).
func numericValues(bag []*entity.Entity, field string) ([]value.Value, error) {
	var out []value.Value
	code := ""
	for _, e := range bag {
		v, present := e.Get(field)
		if !present {
			continue
		}
		switch v.Kind() {
		case value.Integer, value.Float:
			out = append(out, v)
		case value.CurrencyKind:
			cur, _ := v.AsCurrency()
			if code == "" {
				code = cur.Code
			} else if cur.Code != code {
				return nil, &MixedCurrencies{Field: field, FirstCode: code, SecondCode: cur.Code}
			}
			out = append(out, v)
		default:
			return nil, &AggregationTypeError{Field: field, Kind: v.Kind().String()}
		}
	}
	return out, nil
}

func applySum(bag []*entity.Entity, agg query.SumAgg) (*Result, error) {
	vals, err := numericValues(bag, agg.Field)
	if err != nil {
		return nil, err
	}
	return &Result{Scalar: sumValues(vals), IsScalar: true}, nil
}

func applyAverage(bag []*entity.Entity, agg query.AverageAgg) (*Result, error) {
	vals, err := numericValues(bag, agg.Field)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, &EmptyAggregation{Field: agg.Field, Op: "average"}
	}
	sum := sumValues(vals)
	if cur, ok := sum.AsCurrency(); ok {
		avg := cur.Amount.DivInt64(int64(len(vals)))
		return &Result{Scalar: value.NewCurrency(value.Currency{Amount: avg, Code: cur.Code}), IsScalar: true}, nil
	}
	total := 0.0
	for _, v := range vals {
		total += asFloat(v)
	}
	return &Result{Scalar: value.NewFloat(total / float64(len(vals))), IsScalar: true}, nil
}

func applyMedian(bag []*entity.Entity, agg query.MedianAgg) (*Result, error) {
	vals, err := numericValues(bag, agg.Field)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, &EmptyAggregation{Field: agg.Field, Op: "median"}
	}
	sorted := make([]value.Value, len(vals))
	copy(sorted, vals)
	sort.SliceStable(sorted, func(i, j int) bool {
		lt, _ := sorted[i].Less(sorted[j])
		return lt
	})

	n := len(sorted)
	if n%2 == 1 {
		return &Result{Scalar: sorted[n/2], IsScalar: true}, nil
	}
	a, b := sorted[n/2-1], sorted[n/2]
	if curA, ok := a.AsCurrency(); ok {
		curB, _ := b.AsCurrency()
		avg := curA.Amount.Add(curB.Amount).DivInt64(2)
		return &Result{Scalar: value.NewCurrency(value.Currency{Amount: avg, Code: curA.Code}), IsScalar: true}, nil
	}
	mean := (asFloat(a) + asFloat(b)) / 2
	return &Result{Scalar: value.NewFloat(mean), IsScalar: true}, nil
}

// sumValues adds a homogeneous, currency-consistent slice produced by
// numericValues. Currency uses exact Decimal arithmetic; Integer/Float
// mixes upgrade to Float.
func sumValues(vals []value.Value) value.Value {
	if cur, ok := vals[0].AsCurrency(); ok {
		total := cur.Amount
		for _, v := range vals[1:] {
			c, _ := v.AsCurrency()
			total = total.Add(c.Amount)
		}
		return value.NewCurrency(value.Currency{Amount: total, Code: cur.Code})
	}

	allInt := true
	var sumI int64
	var sumF float64
	for _, v := range vals {
		if i, ok := v.AsInteger(); ok {
			sumI += i
			sumF += float64(i)
			continue
		}
		allInt = false
		sumF += asFloat(v)
	}
	if allInt {
		return value.NewInteger(sumI)
	}
	return value.NewFloat(sumF)
}

func asFloat(v value.Value) float64 {
	if i, ok := v.AsInteger(); ok {
		return float64(i)
	}
	if f, ok := v.AsFloat(); ok {
		return f
	}
	if cur, ok := v.AsCurrency(); ok {
		return cur.Amount.Float64()
	}
	return 0
}

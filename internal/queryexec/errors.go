package queryexec

import "fmt"

// ComparisonTypeError reports an ordered comparison (<, >, <=, >=) between
// two field values whose kinds cannot be ordered against each other,
// surfaced as a query failure rather than silently false (§7).
type ComparisonTypeError struct {
	Field string
	Cause error
}

func (e *ComparisonTypeError) Error() string {
	return fmt.Sprintf("cannot order-compare field %q: %s", e.Field, e.Cause)
}

func (e *ComparisonTypeError) Unwrap() error { return e.Cause }

// MixedCurrencies reports a sum/average/median over a field whose Currency
// values do not share one ISO-4217 code (§7).
type MixedCurrencies struct {
	Field      string
	FirstCode  string
	SecondCode string
}

func (e *MixedCurrencies) Error() string {
	return fmt.Sprintf("field %q mixes currency codes %q and %q", e.Field, e.FirstCode, e.SecondCode)
}

// EmptyAggregation reports an average/median with no qualifying entities
// in the bag (§7).
type EmptyAggregation struct {
	Field string
	Op    string
}

func (e *EmptyAggregation) Error() string {
	return fmt.Sprintf("%s %s: no entity in the bag carries this field", e.Op, e.Field)
}

// AggregationTypeError reports a sum/average/median field whose value is
// not Integer, Float, or Currency.
type AggregationTypeError struct {
	Field string
	Kind  string
}

func (e *AggregationTypeError) Error() string {
	return fmt.Sprintf("field %q has non-numeric kind %s, cannot aggregate", e.Field, e.Kind)
}

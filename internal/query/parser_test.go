package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-firm/firmgraph/internal/value"
)

func TestParse_SimpleFromAllEntities(t *testing.T) {
	q, errs := Parse("q", `from *`)
	require.False(t, errs.HasErrors())
	assert.Equal(t, "*", q.Selector)
	assert.Empty(t, q.Ops)
	assert.Nil(t, q.Aggregation)
}

func TestParse_WhereWithSingleAtom(t *testing.T) {
	q, errs := Parse("q", `from task | where priority == 5`)
	require.False(t, errs.HasErrors())
	require.Len(t, q.Ops, 1)
	where, ok := q.Ops[0].(WhereOp)
	require.True(t, ok)
	require.Len(t, where.Condition.Atoms, 1)
	atom := where.Condition.Atoms[0]
	assert.Equal(t, "priority", atom.Field)
	assert.Equal(t, CmpEq, atom.Cmp)
	i, ok := atom.Value.AsInteger()
	require.True(t, ok)
	assert.EqualValues(t, 5, i)
}

func TestParse_WhereWithAndCombinator(t *testing.T) {
	q, errs := Parse("q", `from task | where priority == 5 and status == "open"`)
	require.False(t, errs.HasErrors())
	where := q.Ops[0].(WhereOp)
	assert.Equal(t, LogicAnd, where.Condition.Combo)
	require.Len(t, where.Condition.Atoms, 2)
}

func TestParse_MixingAndOrErrors(t *testing.T) {
	_, errs := Parse("q", `from task | where a == 1 and b == 2 or c == 3`)
	require.True(t, errs.HasErrors())
}

func TestParse_AtFieldsOnAtoms(t *testing.T) {
	q, errs := Parse("q", `from task | where @id == "t1"`)
	require.False(t, errs.HasErrors())
	where := q.Ops[0].(WhereOp)
	assert.Equal(t, "@id", where.Condition.Atoms[0].Field)
}

func TestParse_CmpOperatorKeywords(t *testing.T) {
	q, errs := Parse("q", `from task | where name contains "urgent"`)
	require.False(t, errs.HasErrors())
	where := q.Ops[0].(WhereOp)
	assert.Equal(t, CmpContains, where.Condition.Atoms[0].Cmp)
}

func TestParse_InRequiresListLiteral(t *testing.T) {
	_, errs := Parse("q", `from task | where status in "open"`)
	require.True(t, errs.HasErrors())
}

func TestParse_InWithListLiteral(t *testing.T) {
	q, errs := Parse("q", `from task | where status in ["open", "blocked"]`)
	require.False(t, errs.HasErrors())
	where := q.Ops[0].(WhereOp)
	items, _, ok := where.Condition.Atoms[0].Value.AsList()
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestParse_RelatedDefaultsToOneHopNoFilter(t *testing.T) {
	q, errs := Parse("q", `from organization | related`)
	require.False(t, errs.HasErrors())
	related := q.Ops[0].(RelatedOp)
	assert.Equal(t, 1, related.K)
	assert.Empty(t, related.TypeFilter)
}

func TestParse_RelatedWithHopCountAndTypeFilter(t *testing.T) {
	q, errs := Parse("q", `from organization | related(2) person`)
	require.False(t, errs.HasErrors())
	related := q.Ops[0].(RelatedOp)
	assert.Equal(t, 2, related.K)
	assert.Equal(t, "person", related.TypeFilter)
}

func TestParse_OrderWithDirection(t *testing.T) {
	q, errs := Parse("q", `from task | order priority desc`)
	require.False(t, errs.HasErrors())
	order := q.Ops[0].(OrderOp)
	assert.Equal(t, "priority", order.Field)
	assert.True(t, order.Desc)
}

func TestParse_OrderDefaultsAscending(t *testing.T) {
	q, errs := Parse("q", `from task | order priority`)
	require.False(t, errs.HasErrors())
	order := q.Ops[0].(OrderOp)
	assert.False(t, order.Desc)
}

func TestParse_Limit(t *testing.T) {
	q, errs := Parse("q", `from task | limit 2`)
	require.False(t, errs.HasErrors())
	limit := q.Ops[0].(LimitOp)
	assert.Equal(t, 2, limit.N)
}

func TestParse_ChainedOpsAndTerminalAggregation(t *testing.T) {
	q, errs := Parse("q", `from task | where priority == 5 | order priority desc | limit 2 | select id, priority`)
	require.False(t, errs.HasErrors())
	require.Len(t, q.Ops, 3)
	agg, ok := q.Aggregation.(SelectAgg)
	require.True(t, ok)
	assert.Equal(t, []string{"id", "priority"}, agg.Fields)
}

func TestParse_CountAggregationNoField(t *testing.T) {
	q, errs := Parse("q", `from task | count`)
	require.False(t, errs.HasErrors())
	agg := q.Aggregation.(CountAgg)
	assert.Empty(t, agg.Field)
}

func TestParse_SumAverageMedianAggregations(t *testing.T) {
	q1, errs1 := Parse("q", `from invoice | sum amount`)
	require.False(t, errs1.HasErrors())
	assert.Equal(t, SumAgg{Field: "amount"}, q1.Aggregation)

	q2, errs2 := Parse("q", `from invoice | average amount`)
	require.False(t, errs2.HasErrors())
	assert.Equal(t, AverageAgg{Field: "amount"}, q2.Aggregation)

	q3, errs3 := Parse("q", `from invoice | median amount`)
	require.False(t, errs3.HasErrors())
	assert.Equal(t, MedianAgg{Field: "amount"}, q3.Aggregation)
}

func TestParse_CurrencyLiteralInWhere(t *testing.T) {
	q, errs := Parse("q", `from invoice | where amount == 100.00 USD`)
	require.False(t, errs.HasErrors())
	where := q.Ops[0].(WhereOp)
	cur, ok := where.Condition.Atoms[0].Value.AsCurrency()
	require.True(t, ok)
	assert.Equal(t, "USD", cur.Code)
}

func TestParse_ReferenceLiteralInWhere(t *testing.T) {
	q, errs := Parse("q", `from contact | where org_ref == organization.o1`)
	require.False(t, errs.HasErrors())
	where := q.Ops[0].(WhereOp)
	ref, ok := where.Condition.Atoms[0].Value.AsReference()
	require.True(t, ok)
	assert.Equal(t, "organization.o1", ref.FullID())
}

func TestParse_UnknownPipelineStageErrors(t *testing.T) {
	_, errs := Parse("q", `from task | bogus foo`)
	require.True(t, errs.HasErrors())
}

func TestParse_UnknownStageRecoversAtNextPipe(t *testing.T) {
	q, errs := Parse("q", `from task | bogus foo | limit 1`)
	require.True(t, errs.HasErrors())
	require.Len(t, q.Ops, 1)
	assert.Equal(t, LimitOp{N: 1}, q.Ops[0])
}

func TestParse_DateLiteralAtom(t *testing.T) {
	q, errs := Parse("q", `from task | where due == 2020-01-15`)
	require.False(t, errs.HasErrors())
	where := q.Ops[0].(WhereOp)
	dt, ok := where.Condition.Atoms[0].Value.AsDateTime()
	require.True(t, ok)
	assert.Equal(t, value.PrecisionDate, dt.Precision)
}

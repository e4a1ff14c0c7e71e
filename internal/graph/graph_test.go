package graph

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-firm/firmgraph/internal/ctxlog"
	"github.com/go-firm/firmgraph/internal/workspace"
)

func testCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func buildGraph(t *testing.T, src string) *Graph {
	t.Helper()
	result, errs := workspace.LoadSource(testCtx(), "mem.firm", src)
	require.False(t, errs.HasErrors(), errs.Error())

	g := New()
	require.NoError(t, g.AddEntities(result))
	require.NoError(t, g.Build())
	return g
}

func TestGraph_ReferenceResolution(t *testing.T) {
	g := buildGraph(t, `
person john {
  name = "John"
}

contact c1 {
  person_ref = person.john
}
`)

	both := g.Neighbors("contact.c1", DirBoth)
	require.Len(t, both, 1)
	assert.Equal(t, "person.john", both[0].FullID.String())

	to := g.Neighbors("person.john", DirTo)
	require.Len(t, to, 1)
	assert.Equal(t, "contact.c1", to[0].FullID.String())
}

func TestGraph_SchemaViolationBlocksBuild(t *testing.T) {
	_, errs := workspace.LoadSource(testCtx(), "mem.firm", `
schema task {
  field {
    id = "name"
    type = "string"
    required = true
  }
}

task t1 {
  completed = false
}
`)
	require.True(t, errs.HasErrors())
	require.Len(t, errs, 1)
}

func TestGraph_DanglingReference(t *testing.T) {
	result, errs := workspace.LoadSource(testCtx(), "mem.firm", `
task t1 {
  assignee_ref = person.ghost
}
`)
	require.False(t, errs.HasErrors(), errs.Error())

	g := New()
	require.NoError(t, g.AddEntities(result))
	err := g.Build()
	require.Error(t, err)

	var dangling *DanglingReference
	require.ErrorAs(t, err, &dangling)
	assert.Equal(t, "task.t1", dangling.Src)
	assert.Equal(t, "assignee_ref", dangling.Via)
	assert.Equal(t, "person.ghost", dangling.Dst)
}

func TestGraph_MultiHopTraversal(t *testing.T) {
	g := buildGraph(t, `
organization o1 {
  name = "Acme"
}

contact c1 {
  org_ref = organization.o1
  person_ref = person.p1
}

person p1 {
  name = "Jane"
}
`)

	hop2 := g.KHop("organization.o1", 2, "person")
	require.Len(t, hop2, 1)
	assert.Equal(t, "person.p1", hop2[0].FullID.String())

	hop1 := g.KHop("organization.o1", 1, "person")
	assert.Len(t, hop1, 0)
}

func TestGraph_KHopMonotoneInK(t *testing.T) {
	g := buildGraph(t, `
a n1 {
  ref = b.n2
}
b n2 {
  ref = c.n3
}
c n3 {
  name = "leaf"
}
`)

	hop1 := g.KHop("a.n1", 1, "")
	hop2 := g.KHop("a.n1", 2, "")
	require.LessOrEqual(t, len(hop1), len(hop2))

	seen1 := make(map[string]bool)
	for _, e := range hop1 {
		seen1[e.FullID.String()] = true
	}
	for _, e := range hop1 {
		found := false
		for _, e2 := range hop2 {
			if e2.FullID.String() == e.FullID.String() {
				found = true
			}
		}
		assert.True(t, found, "hop1 result %s must be subset of hop2", e.FullID.String())
	}
}

func TestGraph_KHopExcludesSeed(t *testing.T) {
	g := buildGraph(t, `
a n1 {
  ref = a.n1
}
`)
	hop := g.KHop("a.n1", 1, "")
	for _, e := range hop {
		assert.NotEqual(t, "a.n1", e.FullID.String())
	}
}

func TestGraph_ListByTypeInsertionOrder(t *testing.T) {
	g := buildGraph(t, `
task t1 { name = "first" }
task t2 { name = "second" }
person p1 { name = "irrelevant" }
`)
	tasks := g.ListByType("task")
	require.Len(t, tasks, 2)
	assert.Equal(t, "task.t1", tasks[0].FullID.String())
	assert.Equal(t, "task.t2", tasks[1].FullID.String())
}

func TestGraph_DuplicateEntityAcrossAddEntitiesCalls(t *testing.T) {
	r1, errs1 := workspace.LoadSource(testCtx(), "a.firm", `person john { name = "John" }`)
	require.False(t, errs1.HasErrors())
	r2, errs2 := workspace.LoadSource(testCtx(), "b.firm", `person john { name = "Jonathan" }`)
	require.False(t, errs2.HasErrors())

	g := New()
	require.NoError(t, g.AddEntities(r1))
	err := g.AddEntities(r2)
	require.Error(t, err)
	var dup *DuplicateEntity
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "person.john", dup.FullID)
}

func TestGraph_SelfEdgePermitted(t *testing.T) {
	g := buildGraph(t, `
a n1 {
  ref = a.n1
}
`)
	both := g.Neighbors("a.n1", DirBoth)
	require.Len(t, both, 1)
	assert.Equal(t, "a.n1", both[0].FullID.String())
}

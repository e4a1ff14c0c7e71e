package graphcache

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-firm/firmgraph/internal/ctxlog"
	"github.com/go-firm/firmgraph/internal/graph"
	"github.com/go-firm/firmgraph/internal/workspace"
)

func testCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func buildGraph(t *testing.T, src string) *graph.Graph {
	t.Helper()
	result, errs := workspace.LoadSource(testCtx(), "mem.firm", src)
	require.False(t, errs.HasErrors(), errs.Error())

	g := graph.New()
	require.NoError(t, g.AddEntities(result))
	require.NoError(t, g.Build())
	return g
}

const roundTripSource = `
schema person {
  field {
    id = "name"
    type = "string"
    required = true
  }
  field {
    id = "status"
    type = "enum"
    allowed_values = ["Active", "Inactive"]
  }
}

person john {
  name = "John Doe"
  status = enum"active"
  age = 42
  score = 3.5
  balance = 100.00 USD
  tags = ["alpha", "beta"]
  hired = 2020-01-15 at 09:00 UTC+2
}

contact c1 {
  person_ref = person.john
  note_ref = person.john.name
}
`

func TestEncodeDecode_RoundTripIsBitEqual(t *testing.T) {
	g := buildGraph(t, roundTripSource)

	data1, err := Encode(g)
	require.NoError(t, err)

	g2, err := Decode(data1)
	require.NoError(t, err)

	data2, err := Encode(g2)
	require.NoError(t, err)

	assert.Equal(t, string(data1), string(data2))
}

func TestEncodeDecode_PreservesEnumCanonicalization(t *testing.T) {
	g := buildGraph(t, roundTripSource)
	data, err := Encode(g)
	require.NoError(t, err)

	g2, err := Decode(data)
	require.NoError(t, err)

	e, ok := g2.Get("person.john")
	require.True(t, ok)
	status, ok := e.Get("status")
	require.True(t, ok)
	s, ok := status.AsString()
	require.True(t, ok)
	assert.Equal(t, "Active", s)
}

func TestEncodeDecode_PreservesCurrencyExactly(t *testing.T) {
	g := buildGraph(t, roundTripSource)
	data, err := Encode(g)
	require.NoError(t, err)

	g2, err := Decode(data)
	require.NoError(t, err)

	e, ok := g2.Get("person.john")
	require.True(t, ok)
	balance, ok := e.Get("balance")
	require.True(t, ok)
	cur, ok := balance.AsCurrency()
	require.True(t, ok)
	assert.Equal(t, "USD", cur.Code)
	assert.Equal(t, "100.0000", cur.Amount.String())
}

func TestEncodeDecode_ReconstructsAdjacencyWithoutReresolving(t *testing.T) {
	g := buildGraph(t, roundTripSource)
	data, err := Encode(g)
	require.NoError(t, err)

	g2, err := Decode(data)
	require.NoError(t, err)
	require.True(t, g2.Frozen())

	both := g2.Neighbors("contact.c1", graph.DirBoth)
	require.Len(t, both, 1)
	assert.Equal(t, "person.john", both[0].FullID.String())
}

func TestDecode_RejectsUnknownFormatVersion(t *testing.T) {
	_, err := Decode([]byte(`{"format_version": 999, "schemas": [], "entities": [], "edges": []}`))
	require.Error(t, err)
	var cerr *CacheFormatError
	require.ErrorAs(t, err, &cerr)
}

func TestDecode_RejectsMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	require.Error(t, err)
	var cerr *CacheFormatError
	require.ErrorAs(t, err, &cerr)
}

func TestSaveLoad_RotatesCurrentToBackup(t *testing.T) {
	root := t.TempDir()

	g1 := buildGraph(t, `person john { name = "John" }`)
	require.NoError(t, Save(root, g1))

	g2 := buildGraph(t, `person john { name = "John" } person jane { name = "Jane" }`)
	require.NoError(t, Save(root, g2))

	current, err := Load(root)
	require.NoError(t, err)
	assert.Len(t, current.All(), 2)

	backup, err := LoadBackup(root)
	require.NoError(t, err)
	assert.Len(t, backup.All(), 1)
}

func TestSaveLoad_FirstSaveHasNoBackup(t *testing.T) {
	root := t.TempDir()
	g := buildGraph(t, `person john { name = "John" }`)
	require.NoError(t, Save(root, g))

	_, err := os.Stat(filepath.Join(root, BackupFilename))
	assert.True(t, os.IsNotExist(err))
}

func TestSaveLoad_CorruptedCurrentNeverOverwritesBackup(t *testing.T) {
	root := t.TempDir()

	g1 := buildGraph(t, `person john { name = "John" }`)
	require.NoError(t, Save(root, g1))
	// A second save rotates the first snapshot to backup.
	require.NoError(t, Save(root, g1))

	// Simulate a later corrupted write landing directly on current,
	// bypassing Save's atomic rename (e.g. disk corruption after the
	// rotate-to-backup step but before or during the temp-file write).
	require.NoError(t, os.WriteFile(filepath.Join(root, CurrentFilename), []byte("not valid json"), 0o644))

	backup, err := LoadBackup(root)
	require.NoError(t, err)
	assert.Len(t, backup.All(), 1)

	_, err = Load(root)
	require.Error(t, err)

	// Saving over the corrupted current must not rotate it onto backup.
	g2 := buildGraph(t, `person john { name = "John" } person jane { name = "Jane" }`)
	require.NoError(t, Save(root, g2))

	backup, err = LoadBackup(root)
	require.NoError(t, err)
	assert.Len(t, backup.All(), 1)

	current, err := Load(root)
	require.NoError(t, err)
	assert.Len(t, current.All(), 2)
}

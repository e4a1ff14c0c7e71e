package workspace

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-firm/firmgraph/internal/ctxlog"
)

func testCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func TestLoadSource_SingleEntity(t *testing.T) {
	src := `
person john {
  name = "John Doe"
}
`
	result, errs := LoadSource(testCtx(), "mem.firm", src)
	require.False(t, errs.HasErrors(), errs.Error())
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "person.john", result.Entities[0].FullID.String())
}

func TestBuild_DuplicateFullIdAcrossFiles(t *testing.T) {
	sources := []fileSource{
		{relDir: ".", filename: "a.firm", src: `person john { name = "John" }`},
		{relDir: ".", filename: "b.firm", src: `person john { name = "Jonathan" }`},
	}
	_, errs := build(testCtx(), sources)
	require.True(t, errs.HasErrors())

	var found bool
	for _, e := range errs {
		if dup, ok := e.(*DuplicateEntity); ok {
			found = true
			assert.Equal(t, "person.john", dup.FullID)
		}
	}
	assert.True(t, found)
}

func TestBuild_DuplicateSchemaAcrossFiles(t *testing.T) {
	sources := []fileSource{
		{relDir: ".", filename: "a.firm", src: `
schema task {
  field {
    id = "name"
    type = "string"
    required = true
  }
}`},
		{relDir: ".", filename: "b.firm", src: `
schema task {
  field {
    id = "name"
    type = "string"
    required = true
  }
}`},
	}
	_, errs := build(testCtx(), sources)
	require.True(t, errs.HasErrors())
}

func TestBuild_SchemaViolationAcrossFiles(t *testing.T) {
	sources := []fileSource{
		{relDir: ".", filename: "a.firm", src: `
schema task {
  field {
    id = "name"
    type = "string"
    required = true
  }
}`},
		{relDir: ".", filename: "b.firm", src: `task t1 { completed = false }`},
	}
	result, errs := build(testCtx(), sources)
	require.True(t, errs.HasErrors())
	require.Len(t, result.Entities, 0)
}

func TestLoadDir_RebasesRelativePaths(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "b.firm"), []byte(`
doc d1 {
  location = path"./x"
}
`), 0o644))

	result, errs, err := LoadDir(testCtx(), root)
	require.NoError(t, err)
	require.False(t, errs.HasErrors(), errs.Error())
	require.Len(t, result.Entities, 1)

	loc, ok := result.Entities[0].Get("location")
	require.True(t, ok)
	s, ok := loc.AsString()
	require.True(t, ok)
	assert.Equal(t, "a/x", s)
}

func TestLoadDir_AbsolutePathPassesThrough(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.firm"), []byte(`
doc d1 {
  location = path"/etc/hosts"
}
`), 0o644))

	result, errs, err := LoadDir(testCtx(), root)
	require.NoError(t, err)
	require.False(t, errs.HasErrors(), errs.Error())

	loc, ok := result.Entities[0].Get("location")
	require.True(t, ok)
	s, ok := loc.AsString()
	require.True(t, ok)
	assert.Equal(t, "/etc/hosts", s)
}

func TestLoadDir_EmptyWorkspaceIsNotAnError(t *testing.T) {
	root := t.TempDir()
	result, errs, err := LoadDir(testCtx(), root)
	require.NoError(t, err)
	require.False(t, errs.HasErrors())
	assert.Len(t, result.Entities, 0)
}

func TestLoadDir_UnreadableFileIsIoError(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.firm")
	require.NoError(t, os.WriteFile(path, []byte(`person john { }`), 0o644))
	require.NoError(t, os.Chmod(path, 0o000))
	defer os.Chmod(path, 0o644)

	_, _, err := LoadDir(testCtx(), root)
	var ioErr *IoError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, path, ioErr.Path)
}

func TestLoadFile_MissingFileIsIoError(t *testing.T) {
	_, _, err := LoadFile(testCtx(), filepath.Join(t.TempDir(), "missing.firm"))
	var ioErr *IoError
	require.ErrorAs(t, err, &ioErr)
}

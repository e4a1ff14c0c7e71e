package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestRun_MissingOperationShowsUsage(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), []string{"-workspace", "."}, &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRun_UnknownOperationErrors(t *testing.T) {
	root := writeWorkspace(t, map[string]string{"main.firm": `person john { }`})
	var out bytes.Buffer
	err := Run(context.Background(), []string{"-workspace", root, "frobnicate"}, &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRun_Build(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"main.firm": `
person john { name = "John" }
person jane { name = "Jane" }
`,
	})
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), []string{"-workspace", root, "build"}, &out))
	assert.Contains(t, out.String(), "built graph with 2 entities")

	assert.FileExists(t, filepath.Join(root, "current.firm.graph"))
}

func TestRun_GetWithoutPriorBuildFallsBackToFreshBuild(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"main.firm": `person john { name = "John Doe" }`,
	})
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), []string{"-workspace", root, "get", "person.john"}, &out))
	assert.Contains(t, out.String(), "person.john")
	assert.Contains(t, out.String(), `name = John Doe`)
}

func TestRun_GetMissingEntityIsExitCodeOne(t *testing.T) {
	root := writeWorkspace(t, map[string]string{"main.firm": `person john { }`})
	var out bytes.Buffer
	err := Run(context.Background(), []string{"-workspace", root, "get", "person.nobody"}, &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
}

func TestRun_ListWithTypeFilter(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"main.firm": `
person john { }
person jane { }
task t1 { }
`,
	})
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), []string{"-workspace", root, "list", "person"}, &out))
	assert.Equal(t, "person.jane\nperson.john\n", sortedLines(out.String()))
}

func TestRun_ListSchemas(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"main.firm": `
schema person {
  field {
    id = "name"
    type = "string"
    required = true
  }
}

person john { name = "John" }
`,
	})
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), []string{"-workspace", root, "list_schemas"}, &out))
	assert.Contains(t, out.String(), "person")
	assert.Contains(t, out.String(), "name: string (required)")
}

func TestRun_Related(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"main.firm": `
organization o1 { }
contact c1 {
  org_ref = organization.o1
}
`,
	})
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), []string{"-workspace", root, "related", "contact.c1", "from"}, &out))
	assert.Equal(t, "organization.o1\n", out.String())
}

func TestRun_RelatedInvalidDirectionErrors(t *testing.T) {
	root := writeWorkspace(t, map[string]string{"main.firm": `person john { }`})
	var out bytes.Buffer
	err := Run(context.Background(), []string{"-workspace", root, "related", "person.john", "sideways"}, &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRun_Query(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"main.firm": `
task t1 { priority = 5 }
task t2 { priority = 1 }
`,
	})
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), []string{
		"-workspace", root, "query", "from task | order priority desc | limit 1",
	}, &out))
	assert.Equal(t, "task.t1\n", out.String())
}

func TestRun_QueryScalarAggregation(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"main.firm": `
task t1 { priority = 5 }
task t2 { priority = 1 }
`,
	})
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), []string{
		"-workspace", root, "query", "from task | count",
	}, &out))
	assert.Equal(t, "2\n", out.String())
}

func TestRun_QueryParseErrorIsExitCodeOne(t *testing.T) {
	root := writeWorkspace(t, map[string]string{"main.firm": `person john { }`})
	var out bytes.Buffer
	err := Run(context.Background(), []string{"-workspace", root, "query", "not a query"}, &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
}

func TestRun_Source(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"main.firm": "person john {\n  name = \"John\"\n}\n",
	})
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), []string{"-workspace", root, "source", "person.john"}, &out))
	assert.Contains(t, out.String(), "main.firm:")
}

func TestRun_InvalidLogLevelErrors(t *testing.T) {
	root := writeWorkspace(t, map[string]string{"main.firm": `person john { }`})
	var out bytes.Buffer
	err := Run(context.Background(), []string{"-workspace", root, "-log-level", "verbose", "build"}, &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

// sortedLines is a small test helper: list output order is not otherwise
// asserted here since Graph.ListByType's ordering is its own concern.
func sortedLines(s string) string {
	lines := []string{}
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	// simple insertion sort, good enough for the tiny fixtures used here.
	for i := 1; i < len(lines); i++ {
		for j := i; j > 0 && lines[j-1] > lines[j]; j-- {
			lines[j-1], lines[j] = lines[j], lines[j-1]
		}
	}
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}

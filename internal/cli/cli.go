// Package cli parses command-line arguments into the seven named
// operations an Engine exposes (§5: build, get, list, list_schemas,
// related, query, source) and renders their results as text.
//
// Grounded on the teacher's internal/cli.Parse: a flag.FlagSet built with
// flag.ContinueOnError, a custom Usage function, and an ExitError type
// that carries the process exit code a caller should use. The teacher
// parses one flat flag set for a single executor run; firmgraph instead
// dispatches on a verb (args[0]) into one flag set per operation, since
// each operation takes a different shape of argument.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-firm/firmgraph/internal/engine"
	"github.com/go-firm/firmgraph/internal/queryexec"
)

// ExitError is returned by Run when the process should exit with a
// specific, non-zero code without printing a Go error wrapper.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

const usage = `firmcli is a text-based business-graph engine.

Usage:
  firmcli -workspace <dir> build
  firmcli -workspace <dir> get <full-id>
  firmcli -workspace <dir> list [type]
  firmcli -workspace <dir> list_schemas
  firmcli -workspace <dir> related <full-id> <from|to|both>
  firmcli -workspace <dir> query "<query string>"
  firmcli -workspace <dir> source <full-id>

Flags:
  -workspace string   workspace root directory (default ".")
  -log-format string  "text" or "json" (default "text")
  -log-level string   "debug", "info", "warn", or "error" (default "info")
`

// Run parses args and executes the named operation, writing its output to
// output; the engine's log lines go to standard error. It returns *ExitError when the caller should translate the
// failure into a specific process exit code, and a plain error otherwise.
func Run(ctx context.Context, args []string, output io.Writer) error {
	fs := flag.NewFlagSet("firmcli", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() { fmt.Fprint(output, usage) }

	workspaceRoot := fs.String("workspace", ".", "workspace root directory")
	logFormat := fs.String("log-format", "text", `log output format: "text" or "json"`)
	logLevel := fs.String("log-level", "info", `log level: "debug", "info", "warn", or "error"`)

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return &ExitError{Code: 2, Message: err.Error()}
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return &ExitError{Code: 2, Message: "firmcli: missing operation"}
	}

	switch *logFormat {
	case "text", "json":
	default:
		return &ExitError{Code: 2, Message: fmt.Sprintf("firmcli: unknown -log-format %q", *logFormat)}
	}
	switch *logLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ExitError{Code: 2, Message: fmt.Sprintf("firmcli: unknown -log-level %q", *logLevel)}
	}

	cfg, err := engine.NewConfig(engine.Config{
		WorkspaceRoot: *workspaceRoot,
		LogFormat:     *logFormat,
		LogLevel:      *logLevel,
	})
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}

	op, opArgs := rest[0], rest[1:]
	e := engine.New(os.Stderr, cfg)

	switch op {
	case "build":
		return runBuild(ctx, e, output, opArgs)
	case "get":
		return runGet(ctx, e, output, opArgs)
	case "list":
		return runList(ctx, e, output, opArgs)
	case "list_schemas":
		return runListSchemas(ctx, e, output, opArgs)
	case "related":
		return runRelated(ctx, e, output, opArgs)
	case "query":
		return runQuery(ctx, e, output, opArgs)
	case "source":
		return runSource(ctx, e, output, opArgs)
	default:
		fs.Usage()
		return &ExitError{Code: 2, Message: fmt.Sprintf("firmcli: unknown operation %q", op)}
	}
}

// loadGraph brings up the engine's graph for "get", "list",
// "list_schemas", "related", and "query": it tries the cache first and
// falls back to a full build, so they work against a freshly cloned
// workspace with no cache files yet (§4.5, §6). "source" always builds
// from the .firm files instead, since the cache files do not record
// source spans.
func loadGraph(ctx context.Context, e *engine.Engine) error {
	if err := e.Deserialize(ctx); err == nil {
		return nil
	}
	return e.Build(ctx)
}

func runBuild(ctx context.Context, e *engine.Engine, output io.Writer, args []string) error {
	if len(args) != 0 {
		return &ExitError{Code: 2, Message: "firmcli build: takes no arguments"}
	}
	if err := e.Build(ctx); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	if err := e.Serialize(ctx); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	fmt.Fprintf(output, "built graph with %d entities\n", len(e.List("")))
	return nil
}

func runGet(ctx context.Context, e *engine.Engine, output io.Writer, args []string) error {
	if len(args) != 1 {
		return &ExitError{Code: 2, Message: "firmcli get: want exactly one full id"}
	}
	if err := loadGraph(ctx, e); err != nil {
		return fmt.Errorf("get: %w", err)
	}
	ent, ok := e.Get(args[0])
	if !ok {
		return &ExitError{Code: 1, Message: fmt.Sprintf("get: %q not found", args[0])}
	}
	fmt.Fprint(output, formatEntity(ent))
	return nil
}

func runList(ctx context.Context, e *engine.Engine, output io.Writer, args []string) error {
	if len(args) > 1 {
		return &ExitError{Code: 2, Message: "firmcli list: want at most one type filter"}
	}
	if err := loadGraph(ctx, e); err != nil {
		return fmt.Errorf("list: %w", err)
	}
	var typeFilter string
	if len(args) == 1 {
		typeFilter = args[0]
	}
	for _, ent := range e.List(typeFilter) {
		fmt.Fprintln(output, ent.FullID.String())
	}
	return nil
}

func runListSchemas(ctx context.Context, e *engine.Engine, output io.Writer, args []string) error {
	if len(args) != 0 {
		return &ExitError{Code: 2, Message: "firmcli list_schemas: takes no arguments"}
	}
	if err := loadGraph(ctx, e); err != nil {
		return fmt.Errorf("list_schemas: %w", err)
	}
	for _, sc := range e.ListSchemas() {
		fmt.Fprintf(output, "%s\n", sc.EntityType)
		for _, f := range sc.Fields {
			req := ""
			if f.Required {
				req = " (required)"
			}
			fmt.Fprintf(output, "  %s: %s%s\n", f.FieldID, f.DeclaredType, req)
		}
	}
	return nil
}

func runRelated(ctx context.Context, e *engine.Engine, output io.Writer, args []string) error {
	if len(args) != 2 {
		return &ExitError{Code: 2, Message: "firmcli related: want <full-id> <from|to|both>"}
	}
	if err := loadGraph(ctx, e); err != nil {
		return fmt.Errorf("related: %w", err)
	}
	neighbors, err := e.Related(args[0], args[1])
	if err != nil {
		return &ExitError{Code: 2, Message: fmt.Sprintf("related: %s", err)}
	}
	for _, n := range neighbors {
		fmt.Fprintln(output, n.FullID.String())
	}
	return nil
}

func runQuery(ctx context.Context, e *engine.Engine, output io.Writer, args []string) error {
	if len(args) != 1 {
		return &ExitError{Code: 2, Message: "firmcli query: want exactly one query string"}
	}
	if err := loadGraph(ctx, e); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	res, err := e.Query(args[0])
	if err != nil {
		return &ExitError{Code: 1, Message: fmt.Sprintf("query: %s", err)}
	}
	writeResult(output, res)
	return nil
}

func runSource(ctx context.Context, e *engine.Engine, output io.Writer, args []string) error {
	if len(args) != 1 {
		return &ExitError{Code: 2, Message: "firmcli source: want exactly one full id"}
	}
	if err := e.Build(ctx); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	rng, ok := e.Source(args[0])
	if !ok {
		return &ExitError{Code: 1, Message: fmt.Sprintf("source: %q not found", args[0])}
	}
	fmt.Fprintf(output, "%s:%d,%d-%d,%d\n", rng.Filename,
		rng.Start.Line, rng.Start.Column, rng.End.Line, rng.End.Column)
	return nil
}

// writeResult renders a queryexec.Result the way its shape dictates: a bare
// scalar, a table of rows for a select, or one full id per line for a
// bag with no terminal aggregation (§4.7).
func writeResult(output io.Writer, res *queryexec.Result) {
	switch {
	case res.IsScalar:
		fmt.Fprintln(output, formatValue(res.Scalar))
	case res.IsRows:
		for _, row := range res.Rows {
			cells := make([]string, len(row.Values))
			for i, rv := range row.Values {
				if !rv.Present {
					cells[i] = ""
					continue
				}
				cells[i] = formatValue(rv.Value)
			}
			fmt.Fprintln(output, strings.Join(cells, "\t"))
		}
	default:
		for _, ent := range res.Bag {
			fmt.Fprintln(output, ent.FullID.String())
		}
	}
}

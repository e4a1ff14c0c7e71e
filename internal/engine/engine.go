// Package engine wires the front-end (internal/workspace, internal/dsl),
// the graph core (internal/graph, internal/schema), the cache
// (internal/graphcache) and the query pipeline (internal/query,
// internal/queryexec) behind the operations named in §5's collaborator
// contract: build, get, list, list_schemas, related, query, source.
//
// Grounded on the teacher's internal/app.App: a small struct holding an
// isolated logger and its dependencies, constructed once and then driven
// through named methods rather than a single monolithic Run.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hashicorp/hcl/v2"

	"github.com/go-firm/firmgraph/internal/ctxlog"
	"github.com/go-firm/firmgraph/internal/entity"
	"github.com/go-firm/firmgraph/internal/graph"
	"github.com/go-firm/firmgraph/internal/graphcache"
	"github.com/go-firm/firmgraph/internal/query"
	"github.com/go-firm/firmgraph/internal/queryexec"
	"github.com/go-firm/firmgraph/internal/schema"
	"github.com/go-firm/firmgraph/internal/workspace"
)

// Engine is the top-level handle a host (CLI or otherwise) drives. It
// holds at most one graph at a time; Build replaces it, and every other
// operation reads the current one.
type Engine struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	graph  *graph.Graph
}

// New constructs an Engine. No I/O happens until Build, Deserialize, or a
// read operation is called.
func New(outW io.Writer, cfg *Config) *Engine {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	return &Engine{outW: outW, logger: logger, config: cfg}
}

func (e *Engine) ctx(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, e.logger)
}

// Graph returns the currently loaded graph, or nil if none has been built
// or deserialized yet.
func (e *Engine) Graph() *graph.Graph { return e.graph }

// Build discovers and parses every .firm file under the engine's
// WorkspaceRoot, validates schemas, resolves references into edges, and
// replaces the engine's current graph (§4.3, §4.5). A failed Build leaves
// the previously loaded graph, if any, untouched.
func (e *Engine) Build(ctx context.Context) error {
	ctx = e.ctx(ctx)
	e.logger.Debug("building graph from workspace", "root", e.config.WorkspaceRoot)

	result, buildErrs, err := workspace.LoadDir(ctx, e.config.WorkspaceRoot)
	if err != nil {
		return fmt.Errorf("engine: build failed: %w", err)
	}
	if buildErrs.HasErrors() {
		return fmt.Errorf("engine: build failed: %w", buildErrs)
	}

	g := graph.New()
	if err := g.AddEntities(result); err != nil {
		return fmt.Errorf("engine: build failed: %w", err)
	}
	if err := g.Build(); err != nil {
		return fmt.Errorf("engine: build failed: %w", err)
	}

	e.logger.Info("graph built", "entity_count", len(g.All()))
	e.graph = g
	return nil
}

// Serialize writes the current graph to the workspace's cache files,
// rotating any existing current snapshot to backup (§4.5, §6).
func (e *Engine) Serialize(ctx context.Context) error {
	if e.graph == nil {
		return fmt.Errorf("engine: no graph loaded to serialize")
	}
	e.logger.Debug("serializing graph to cache")
	return graphcache.Save(e.config.WorkspaceRoot, e.graph)
}

// Deserialize loads the graph from the workspace's current cache file,
// falling back to the backup file if current is unreadable (§6, §7).
func (e *Engine) Deserialize(ctx context.Context) error {
	g, err := graphcache.Load(e.config.WorkspaceRoot)
	if err == nil {
		e.graph = g
		return nil
	}
	e.logger.Warn("current cache unreadable, falling back to backup", "error", err)
	g, backupErr := graphcache.LoadBackup(e.config.WorkspaceRoot)
	if backupErr != nil {
		return fmt.Errorf("engine: deserialize failed: current: %w; backup: %s", err, backupErr)
	}
	e.graph = g
	return nil
}

// Get returns the entity with the given FullId string, e.g. "person.john"
// (§5: get).
func (e *Engine) Get(fullID string) (*entity.Entity, bool) {
	if e.graph == nil {
		return nil, false
	}
	return e.graph.Get(fullID)
}

// List returns every entity of entityType, or every entity if entityType
// is empty (§5: list, §4.5 ListByType).
func (e *Engine) List(entityType string) []*entity.Entity {
	if e.graph == nil {
		return nil
	}
	if entityType == "" {
		return e.graph.All()
	}
	return e.graph.ListByType(entityType)
}

// ListSchemas returns every registered schema (§5: list_schemas).
func (e *Engine) ListSchemas() []*schema.Schema {
	if e.graph == nil || e.graph.Schemas() == nil {
		return nil
	}
	return e.graph.Schemas().All()
}

// Related returns the one-hop neighbors of fullID in the requested
// direction: "from", "to", or "both" (§5: related(direction)).
func (e *Engine) Related(fullID string, direction string) ([]*entity.Entity, error) {
	if e.graph == nil {
		return nil, fmt.Errorf("engine: no graph loaded")
	}
	dir, err := parseDirection(direction)
	if err != nil {
		return nil, err
	}
	return e.graph.Neighbors(fullID, dir), nil
}

func parseDirection(s string) (graph.Direction, error) {
	switch s {
	case "from":
		return graph.DirFrom, nil
	case "to":
		return graph.DirTo, nil
	case "both":
		return graph.DirBoth, nil
	default:
		return 0, fmt.Errorf("engine: unknown direction %q, want from, to, or both", s)
	}
}

// Query parses and executes a pipe-composed query string against the
// current graph (§4.6, §4.7).
func (e *Engine) Query(queryStr string) (*queryexec.Result, error) {
	if e.graph == nil {
		return nil, fmt.Errorf("engine: no graph loaded")
	}
	q, errs := query.Parse("<query>", queryStr)
	if errs.HasErrors() {
		return nil, fmt.Errorf("engine: query parse failed: %w", errs)
	}
	return queryexec.Run(e.graph, q)
}

// Source returns the source span an entity was declared at, for a host
// that wants to show the declaration site (§5: source). The cache files
// do not record spans, so for a graph loaded by Deserialize the returned
// range is the zero hcl.Range.
func (e *Engine) Source(fullID string) (hcl.Range, bool) {
	ent, ok := e.Get(fullID)
	if !ok {
		return hcl.Range{}, false
	}
	return ent.Span, true
}

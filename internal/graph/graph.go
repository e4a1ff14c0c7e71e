// Package graph implements §4.5: a flat, FullId-keyed entity store with
// forward/backward adjacency, reference-to-edge materialization, and BFS
// traversal. There is no parent/child ownership between nodes — cycles are
// expected and handled the same way as any other shape, the way the
// teacher's internal/dag.Graph tracks nodes in one flat table and walks
// edges through a visited set rather than structural recursion.
package graph

import (
	"github.com/go-firm/firmgraph/internal/entity"
	"github.com/go-firm/firmgraph/internal/schema"
	"github.com/go-firm/firmgraph/internal/value"
	"github.com/go-firm/firmgraph/internal/workspace"
)

// EdgeKind distinguishes the two ways a Reference field materializes an
// edge (§3: Edge).
type EdgeKind int

const (
	EntityRefEdge EdgeKind = iota
	FieldRefEdge
)

func (k EdgeKind) String() string {
	switch k {
	case EntityRefEdge:
		return "entity-ref"
	case FieldRefEdge:
		return "field-ref"
	default:
		return "edge"
	}
}

// Edge is a derived directed relation; edges are never authored directly,
// only materialized from Reference field values during Build (§3).
type Edge struct {
	Src  string
	Dst  string
	Via  string
	Kind EdgeKind
}

// Direction selects which adjacency a Neighbors query walks.
type Direction int

const (
	DirFrom Direction = iota
	DirTo
	DirBoth
)

// Graph is the entity store of §4.5. It is built in two phases: entities
// are added via AddEntities, then Build resolves every Reference value
// into an edge and freezes the graph. No mutation is possible afterward.
type Graph struct {
	entities map[string]*entity.Entity
	order    []string // insertion order, used by ListByType and cache serialization
	schemas  *schema.Registry

	forward  map[string][]Edge
	backward map[string][]Edge
	frozen   bool
}

// New returns an empty, unfrozen Graph.
func New() *Graph {
	return &Graph{
		entities: make(map[string]*entity.Entity),
		forward:  make(map[string][]Edge),
		backward: make(map[string][]Edge),
	}
}

// AddEntities merges one workspace build result into the graph. It raises
// a DuplicateEntity if any FullId already present in the graph reappears,
// and merges the incoming schema registry, raising schema.DuplicateSchema
// on a type collision. AddEntities may be called more than once (to merge
// multiple workspaces) as long as Build has not yet run.
func (g *Graph) AddEntities(result *workspace.BuildResult) error {
	if g.frozen {
		panic("graph: AddEntities called after Build")
	}
	for _, e := range result.Entities {
		if _, exists := g.entities[e.FullID.String()]; exists {
			return &DuplicateEntity{FullID: e.FullID.String()}
		}
	}
	if result.Schemas != nil {
		if g.schemas == nil {
			g.schemas = result.Schemas
		} else if err := g.schemas.Merge(result.Schemas); err != nil {
			return err
		}
	}
	for _, e := range result.Entities {
		key := e.FullID.String()
		g.entities[key] = e
		g.order = append(g.order, key)
	}
	return nil
}

// Build resolves every Reference field value into an edge and freezes the
// graph. It raises DanglingReference on the first reference target absent
// from the graph; construction is all-or-nothing — a failed Build leaves
// the graph exactly as it was before the call (§4.5, §7).
func (g *Graph) Build() error {
	if g.frozen {
		panic("graph: Build called twice")
	}

	forward := make(map[string][]Edge)
	backward := make(map[string][]Edge)

	for _, key := range g.order {
		e := g.entities[key]
		for _, f := range e.Fields {
			ref, ok := f.Value.AsReference()
			if !ok {
				continue
			}
			dstKey := ref.FullID()
			if _, exists := g.entities[dstKey]; !exists {
				return &DanglingReference{Src: key, Via: f.ID, Dst: dstKey}
			}
			kind := EntityRefEdge
			if f.Value.Kind() == value.FieldRef {
				kind = FieldRefEdge
			}
			edge := Edge{Src: key, Dst: dstKey, Via: f.ID, Kind: kind}
			forward[key] = append(forward[key], edge)
			backward[dstKey] = append(backward[dstKey], edge)
		}
	}

	g.forward = forward
	g.backward = backward
	g.frozen = true
	return nil
}

// Frozen reports whether Build has completed successfully.
func (g *Graph) Frozen() bool { return g.frozen }

// Schemas returns the schema registry the graph was validated against.
func (g *Graph) Schemas() *schema.Registry { return g.schemas }

// Get returns the entity with the given FullId string, if present.
func (g *Graph) Get(fullID string) (*entity.Entity, bool) {
	e, ok := g.entities[fullID]
	return e, ok
}

// ListByType returns every entity of the given type in insertion order:
// files in sorted path order, then in-file declaration order (§4.5).
func (g *Graph) ListByType(entityType string) []*entity.Entity {
	var out []*entity.Entity
	for _, key := range g.order {
		e := g.entities[key]
		if e.FullID.Type == entityType {
			out = append(out, e)
		}
	}
	return out
}

// All returns every entity in insertion order.
func (g *Graph) All() []*entity.Entity {
	out := make([]*entity.Entity, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, g.entities[key])
	}
	return out
}

// Neighbors returns the unique entities reachable from fullID in exactly
// one hop along the requested direction (§4.5).
func (g *Graph) Neighbors(fullID string, dir Direction) []*entity.Entity {
	seen := make(map[string]struct{})
	var out []*entity.Entity
	add := func(key string) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, g.entities[key])
	}
	if dir == DirFrom || dir == DirBoth {
		for _, e := range g.forward[fullID] {
			add(e.Dst)
		}
	}
	if dir == DirTo || dir == DirBoth {
		for _, e := range g.backward[fullID] {
			add(e.Src)
		}
	}
	return out
}

// KHop returns every entity reachable from fullID within k undirected
// hops, deduplicated, excluding the seed itself, optionally restricted to
// typeFilter (empty string means no restriction). Traversal is BFS, so
// the result is monotone in k and its order is BFS discovery order
// (§4.5, §8).
func (g *Graph) KHop(fullID string, k int, typeFilter string) []*entity.Entity {
	if k < 1 {
		panic("graph: KHop requires k >= 1")
	}

	visited := map[string]struct{}{fullID: {}}
	frontier := []string{fullID}
	var out []*entity.Entity

	for depth := 0; depth < k && len(frontier) > 0; depth++ {
		var next []string
		for _, cur := range frontier {
			for _, key := range g.adjacentKeys(cur) {
				if _, ok := visited[key]; ok {
					continue
				}
				visited[key] = struct{}{}
				next = append(next, key)
				if typeFilter == "" || g.entities[key].FullID.Type == typeFilter {
					out = append(out, g.entities[key])
				}
			}
		}
		frontier = next
	}
	return out
}

// AllEdges returns every materialized edge in deterministic order: entity
// insertion order, then per-entity field declaration order. Used by
// internal/graphcache to serialize the graph.
func (g *Graph) AllEdges() []Edge {
	var out []Edge
	for _, key := range g.order {
		out = append(out, g.forward[key]...)
	}
	return out
}

// LoadFrozen reconstructs an already-frozen graph directly from a set of
// entities, a schema registry, and a pre-resolved edge list, without
// re-running reference resolution. Used by internal/graphcache: "load path
// reconstructs adjacency without re-resolving references" (§4.5).
func LoadFrozen(entities []*entity.Entity, schemas *schema.Registry, edges []Edge) *Graph {
	g := New()
	for _, e := range entities {
		key := e.FullID.String()
		g.entities[key] = e
		g.order = append(g.order, key)
	}
	g.schemas = schemas
	for _, e := range edges {
		g.forward[e.Src] = append(g.forward[e.Src], e)
		g.backward[e.Dst] = append(g.backward[e.Dst], e)
	}
	g.frozen = true
	return g
}

func (g *Graph) adjacentKeys(key string) []string {
	var keys []string
	for _, e := range g.forward[key] {
		keys = append(keys, e.Dst)
	}
	for _, e := range g.backward[key] {
		keys = append(keys, e.Src)
	}
	return keys
}

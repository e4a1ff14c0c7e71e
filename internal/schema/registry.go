package schema

import (
	"sort"

	"github.com/hashicorp/hcl/v2"

	"github.com/go-firm/firmgraph/internal/dsl"
	"github.com/go-firm/firmgraph/internal/entity"
)

type schemaEntry struct {
	schema     *Schema
	declaredAt hcl.Range
}

// Registry holds the EntityType -> Schema mapping for one workspace build
// (§4.4). It is populated once during loading and read-only afterward,
// the same single-writer-then-many-readers shape as the teacher's
// registry.Registry.
type Registry struct {
	schemas map[string]*schemaEntry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*schemaEntry)}
}

// Compile converts one parsed schema declaration into a Schema.
func Compile(decl *dsl.SchemaDecl) *Schema {
	s := &Schema{EntityType: decl.EntityType}
	for _, f := range decl.Fields {
		s.Fields = append(s.Fields, FieldSpec{
			FieldID:       f.FieldID,
			DeclaredType:  f.DeclaredType,
			Required:      f.Required,
			AllowedValues: f.AllowedValues,
			Order:         f.Order,
		})
	}
	return s
}

// Register adds one compiled schema. A second schema for the same
// EntityType is a DuplicateSchema error naming both source spans.
func (r *Registry) Register(s *Schema, declRange hcl.Range) error {
	if existing, ok := r.schemas[s.EntityType]; ok {
		return &DuplicateSchema{EntityType: s.EntityType, First: existing.declaredAt, Second: declRange}
	}
	r.schemas[s.EntityType] = &schemaEntry{schema: s, declaredAt: declRange}
	return nil
}

// Merge copies every schema from other into r, raising DuplicateSchema on
// the first type collision. Used when a graph is assembled from more than
// one workspace build.
func (r *Registry) Merge(other *Registry) error {
	for _, e := range other.schemas {
		if err := r.Register(e.schema, e.declaredAt); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the schema registered for entityType, if any.
func (r *Registry) Lookup(entityType string) (*Schema, bool) {
	e, ok := r.schemas[entityType]
	if !ok {
		return nil, false
	}
	return e.schema, true
}

// All returns every registered schema, ordered by entity type name for
// deterministic serialization.
func (r *Registry) All() []*Schema {
	types := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		types = append(types, t)
	}
	sort.Strings(types)
	out := make([]*Schema, len(types))
	for i, t := range types {
		out[i] = r.schemas[t].schema
	}
	return out
}

// Apply validates and canonicalizes e against its registered schema.
// Entity types with no registered schema are accepted as-is: the system
// is schema-optional at the per-type level (§4.4).
func (r *Registry) Apply(e *entity.Entity) (*entity.Entity, SchemaViolations) {
	s, ok := r.Lookup(e.FullID.Type)
	if !ok {
		return e, nil
	}
	return s.Apply(e)
}

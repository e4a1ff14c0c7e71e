package graphcache

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/go-firm/firmgraph/internal/entity"
	"github.com/go-firm/firmgraph/internal/fullid"
	"github.com/go-firm/firmgraph/internal/graph"
	"github.com/go-firm/firmgraph/internal/schema"
)

func edgeKindToString(k graph.EdgeKind) string { return k.String() }

func edgeKindFromString(s string) (graph.EdgeKind, error) {
	switch s {
	case "entity-ref":
		return graph.EntityRefEdge, nil
	case "field-ref":
		return graph.FieldRefEdge, nil
	default:
		return 0, fmt.Errorf("graphcache: unknown edge kind %q", s)
	}
}

// Encode serializes a frozen graph to its canonical JSON form (§6).
func Encode(g *graph.Graph) ([]byte, error) {
	doc := documentJSON{FormatVersion: FormatVersion}

	if schemas := g.Schemas(); schemas != nil {
		for _, s := range schemas.All() {
			sj := schemaJSON{EntityType: s.EntityType}
			for _, f := range s.Fields {
				sj.Fields = append(sj.Fields, fieldSpecJSON{
					FieldID:       f.FieldID,
					DeclaredType:  f.DeclaredType.String(),
					Required:      f.Required,
					AllowedValues: f.AllowedValues,
					Order:         f.Order,
				})
			}
			doc.Schemas = append(doc.Schemas, sj)
		}
	}

	for _, e := range g.All() {
		ej := entityJSON{Type: e.FullID.Type, ID: e.FullID.ID}
		for _, f := range e.Fields {
			raw, err := encodeValue(f.Value)
			if err != nil {
				return nil, fmt.Errorf("graphcache: encoding %s.%s: %w", e.FullID.String(), f.ID, err)
			}
			ej.Fields = append(ej.Fields, fieldJSON{Name: f.ID, ValueKind: f.Value.Kind().String(), Value: raw})
		}
		doc.Entities = append(doc.Entities, ej)
	}

	for _, e := range g.AllEdges() {
		doc.Edges = append(doc.Edges, edgeJSON{Src: e.Src, Dst: e.Dst, Via: e.Via, Kind: edgeKindToString(e.Kind)})
	}

	return json.MarshalIndent(doc, "", "  ")
}

// Decode parses a cache document and reconstructs a frozen graph without
// re-resolving references (§4.5).
func Decode(data []byte) (*graph.Graph, error) {
	var doc documentJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &CacheFormatError{Message: fmt.Sprintf("invalid JSON: %s", err)}
	}
	if doc.FormatVersion != FormatVersion {
		return nil, &CacheFormatError{Message: fmt.Sprintf("unsupported format_version %d, want %d", doc.FormatVersion, FormatVersion)}
	}

	registry := schema.NewRegistry()
	for _, sj := range doc.Schemas {
		s := &schema.Schema{EntityType: sj.EntityType}
		for _, fj := range sj.Fields {
			kind, ok := kindFromString(fj.DeclaredType)
			if !ok {
				return nil, &CacheFormatError{Message: fmt.Sprintf("unknown declared_type %q for schema %q", fj.DeclaredType, sj.EntityType)}
			}
			s.Fields = append(s.Fields, schema.FieldSpec{
				FieldID:       fj.FieldID,
				DeclaredType:  kind,
				Required:      fj.Required,
				AllowedValues: fj.AllowedValues,
				Order:         fj.Order,
			})
		}
		if err := registry.Register(s, hcl.Range{}); err != nil {
			return nil, &CacheFormatError{Message: err.Error()}
		}
	}

	entities := make([]*entity.Entity, 0, len(doc.Entities))
	for _, ej := range doc.Entities {
		fid := fullid.FullId{Type: ej.Type, ID: ej.ID}
		fields := make([]entity.Field, 0, len(ej.Fields))
		for _, fj := range ej.Fields {
			v, err := decodeValue(fj.ValueKind, fj.Value)
			if err != nil {
				return nil, &CacheFormatError{Message: fmt.Sprintf("entity %s field %q: %s", fid.String(), fj.Name, err)}
			}
			fields = append(fields, entity.Field{ID: fj.Name, Value: v})
		}
		entities = append(entities, &entity.Entity{FullID: fid, Fields: fields})
	}

	edges := make([]graph.Edge, 0, len(doc.Edges))
	for _, ej := range doc.Edges {
		kind, err := edgeKindFromString(ej.Kind)
		if err != nil {
			return nil, &CacheFormatError{Message: err.Error()}
		}
		edges = append(edges, graph.Edge{Src: ej.Src, Dst: ej.Dst, Via: ej.Via, Kind: kind})
	}

	return graph.LoadFrozen(entities, registry, edges), nil
}

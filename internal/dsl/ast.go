package dsl

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/go-firm/firmgraph/internal/value"
)

// File is the parsed content of one .firm source file (§4.2 top-level =
// (entity_block | schema_block | comment)*): its entities and its schemas,
// each list in source order.
type File struct {
	Entities []*EntityDecl
	Schemas  []*SchemaDecl
}

// EntityDecl is a parsed `type id { field* }` block.
type EntityDecl struct {
	Type   string
	ID     string
	Fields []*FieldDecl
	Range  hcl.Range
}

// FieldDecl is one `name = value` assignment inside an entity or field-spec
// block.
type FieldDecl struct {
	Name  string
	Value value.Value
	Range hcl.Range
}

// SchemaDecl is a parsed `schema type { field { ... }* }` block.
type SchemaDecl struct {
	EntityType string
	Fields     []*FieldSpecDecl
	Range      hcl.Range
}

// FieldSpecDecl is one `field { id = ...; type = ...; ... }` block inside a
// schema. Order is the zero-based declaration position within the schema.
type FieldSpecDecl struct {
	FieldID       string
	DeclaredType  value.Kind
	Required      bool
	AllowedValues []string
	Order         int
	Range         hcl.Range
}

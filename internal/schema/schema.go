// Package schema implements §4.4: a registry of per-entity-type field
// specifications, and validation/canonicalization of entities against
// them. A schema is declarative data, the way the teacher's HCL manifest
// structs (internal/schema.RunnerDefinition et al.) describe shape without
// any validation logic of their own; ours adds the validation pass the
// spec requires.
package schema

import (
	"fmt"

	"github.com/go-firm/firmgraph/internal/entity"
	"github.com/go-firm/firmgraph/internal/value"
)

// FieldSpec is one declared field of a Schema (§3: FieldSpec).
// AllowedValues is populated iff DeclaredType is value.EnumKind.
type FieldSpec struct {
	FieldID       string
	DeclaredType  value.Kind
	Required      bool
	AllowedValues []string
	Order         int
}

// Schema is the declared shape of one entity type: an ordered list of
// field specs (§3: Schema).
type Schema struct {
	EntityType string
	Fields     []FieldSpec
}

func (s *Schema) field(id string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.FieldID == id {
			return f, true
		}
	}
	return FieldSpec{}, false
}

func findField(fields []entity.Field, id string) (int, value.Value, bool) {
	for i, f := range fields {
		if f.ID == id {
			return i, f.Value, true
		}
	}
	return -1, value.Value{}, false
}

// matchAllowedValue compares raw against allowed case-insensitively and
// returns the canonical (as-declared) casing on a match (§4.4: "allowed
// iff... case-insensitive on input, canonical on store").
func matchAllowedValue(raw string, allowed []string) (string, bool) {
	for _, a := range allowed {
		if equalFold(raw, a) {
			return a, true
		}
	}
	return "", false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Apply validates e against s and returns a copy of e with enum field
// values rewritten to their canonical (as-declared) casing. A non-empty
// SchemaViolations means e is rejected and the returned entity pointer is
// e itself, unmodified.
func (s *Schema) Apply(e *entity.Entity) (*entity.Entity, SchemaViolations) {
	var viol SchemaViolations
	fields := make([]entity.Field, len(e.Fields))
	copy(fields, e.Fields)

	for _, spec := range s.Fields {
		idx, fv, ok := findField(fields, spec.FieldID)
		if !ok {
			if spec.Required {
				viol = append(viol, &SchemaViolation{
					FullID:  e.FullID.String(),
					Field:   spec.FieldID,
					Message: "required field is missing",
					Range:   e.Span,
				})
			}
			continue
		}
		if fv.Kind() != spec.DeclaredType {
			viol = append(viol, &SchemaViolation{
				FullID:  e.FullID.String(),
				Field:   spec.FieldID,
				Message: fmt.Sprintf("declared type %s but found %s", spec.DeclaredType, fv.Kind()),
				Range:   e.Span,
			})
			continue
		}
		if spec.DeclaredType == value.EnumKind {
			raw, _ := fv.AsString()
			canon, ok := matchAllowedValue(raw, spec.AllowedValues)
			if !ok {
				viol = append(viol, &SchemaViolation{
					FullID:  e.FullID.String(),
					Field:   spec.FieldID,
					Message: fmt.Sprintf("value %q is not in allowed_values", raw),
					Range:   e.Span,
				})
				continue
			}
			fields[idx] = entity.Field{ID: spec.FieldID, Value: value.NewEnum(canon)}
		}
	}

	if len(viol) > 0 {
		return e, viol
	}
	out := *e
	out.Fields = fields
	return &out, nil
}

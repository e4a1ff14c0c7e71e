package schema

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// DuplicateSchema is raised when a second schema block declares the same
// entity type (§4.3, §7).
type DuplicateSchema struct {
	EntityType string
	First      hcl.Range
	Second     hcl.Range
}

func (e *DuplicateSchema) Error() string {
	return fmt.Sprintf("duplicate schema for type %q: first declared at %s, redeclared at %s", e.EntityType, e.First, e.Second)
}

// SchemaViolation is one instance of an entity failing validation against
// its registered schema: a missing required field, a type mismatch, or an
// enum value outside allowed_values (§7).
type SchemaViolation struct {
	FullID  string
	Field   string
	Message string
	Range   hcl.Range
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("%s: %s.%s: %s", e.Range, e.FullID, e.Field, e.Message)
}

// SchemaViolations collects every violation found for one entity, or
// across an entire build (§7 propagation policy: the loader collects
// multiple violations rather than stopping at the first).
type SchemaViolations []*SchemaViolation

func (es SchemaViolations) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

func (es SchemaViolations) HasErrors() bool { return len(es) > 0 }

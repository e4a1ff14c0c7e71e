// Package entity defines the Entity record of §3: a FullId, an ordered list
// of fields, and the source span the entity was parsed from.
//
// Grounded on the teacher's internal/node.Node (a graph vertex carrying a
// structured id plus config), stripped of everything execution-specific
// (state machine, dependency counters, destroy/skip once-guards) since an
// Entity is immutable once built — there is no lifecycle to track.
package entity

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/go-firm/firmgraph/internal/fullid"
	"github.com/go-firm/firmgraph/internal/value"
)

// Field is one (FieldId, FieldValue) pair, keeping the source order it was
// declared in.
type Field struct {
	ID    string
	Value value.Value
}

// Entity is an immutable record as defined in §3: a unique FullId and an
// ordered list of fields. Field order is preserved from the source and used
// by consumers that print; every operation this package and its callers
// perform is order-independent with respect to the Fields slice except
// iteration order itself.
type Entity struct {
	FullID fullid.FullId
	Fields []Field
	Span   hcl.Range
}

// Get returns the value of the named field and whether it was present.
func (e *Entity) Get(fieldID string) (value.Value, bool) {
	for _, f := range e.Fields {
		if f.ID == fieldID {
			return f.Value, true
		}
	}
	return value.Value{}, false
}

// Type returns the entity's type component, e.g. "person" for "person.john".
func (e *Entity) Type() string { return e.FullID.Type }

// ID returns the entity's id component, e.g. "john" for "person.john".
func (e *Entity) ID() string { return e.FullID.ID }

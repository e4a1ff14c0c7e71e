package schema

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-firm/firmgraph/internal/entity"
	"github.com/go-firm/firmgraph/internal/fullid"
	"github.com/go-firm/firmgraph/internal/value"
)

func mustFullID(t *testing.T, s string) fullid.FullId {
	t.Helper()
	id, err := fullid.Parse(s)
	require.NoError(t, err)
	return id
}

func TestRegistry_DuplicateSchema(t *testing.T) {
	r := NewRegistry()
	s := &Schema{EntityType: "person"}
	require.NoError(t, r.Register(s, hcl.Range{}))
	err := r.Register(s, hcl.Range{})
	require.Error(t, err)
	var dup *DuplicateSchema
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "person", dup.EntityType)
}

func TestRegistry_LookupMissingIsSchemaOptional(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Lookup("task")
	assert.False(t, ok)
}

func TestSchema_Apply_MissingRequiredField(t *testing.T) {
	s := &Schema{
		EntityType: "task",
		Fields: []FieldSpec{
			{FieldID: "name", DeclaredType: value.String, Required: true},
		},
	}
	e := &entity.Entity{
		FullID: mustFullID(t, "task.t1"),
		Fields: []entity.Field{
			{ID: "completed", Value: value.NewBoolean(false)},
		},
	}

	_, viol := s.Apply(e)
	require.True(t, viol.HasErrors())
	require.Len(t, viol, 1)
	assert.Equal(t, "task.t1", viol[0].FullID)
	assert.Equal(t, "name", viol[0].Field)
}

func TestSchema_Apply_TypeMismatch(t *testing.T) {
	s := &Schema{
		EntityType: "task",
		Fields: []FieldSpec{
			{FieldID: "name", DeclaredType: value.String, Required: true},
		},
	}
	e := &entity.Entity{
		FullID: mustFullID(t, "task.t1"),
		Fields: []entity.Field{
			{ID: "name", Value: value.NewInteger(5)},
		},
	}

	_, viol := s.Apply(e)
	require.True(t, viol.HasErrors())
	assert.Contains(t, viol[0].Message, "type")
}

func TestSchema_Apply_EnumCanonicalizesCasing(t *testing.T) {
	s := &Schema{
		EntityType: "task",
		Fields: []FieldSpec{
			{FieldID: "status", DeclaredType: value.EnumKind, AllowedValues: []string{"Open", "Closed"}},
		},
	}
	e := &entity.Entity{
		FullID: mustFullID(t, "task.t1"),
		Fields: []entity.Field{
			{ID: "status", Value: value.NewEnum("OPEN")},
		},
	}

	out, viol := s.Apply(e)
	require.False(t, viol.HasErrors())
	got, ok := out.Get("status")
	require.True(t, ok)
	canon, ok := got.AsString()
	require.True(t, ok)
	assert.Equal(t, "Open", canon)
}

func TestSchema_Apply_EnumValueNotAllowed(t *testing.T) {
	s := &Schema{
		EntityType: "task",
		Fields: []FieldSpec{
			{FieldID: "status", DeclaredType: value.EnumKind, AllowedValues: []string{"Open", "Closed"}},
		},
	}
	e := &entity.Entity{
		FullID: mustFullID(t, "task.t1"),
		Fields: []entity.Field{
			{ID: "status", Value: value.NewEnum("Archived")},
		},
	}

	_, viol := s.Apply(e)
	require.True(t, viol.HasErrors())
	assert.Contains(t, viol[0].Message, "allowed_values")
}

func TestSchema_Apply_UnregisteredFieldIsIgnored(t *testing.T) {
	s := &Schema{
		EntityType: "task",
		Fields: []FieldSpec{
			{FieldID: "name", DeclaredType: value.String, Required: true},
		},
	}
	e := &entity.Entity{
		FullID: mustFullID(t, "task.t1"),
		Fields: []entity.Field{
			{ID: "name", Value: value.NewString("write report")},
			{ID: "extra_unrecognized", Value: value.NewInteger(1)},
		},
	}

	out, viol := s.Apply(e)
	require.False(t, viol.HasErrors())
	_, ok := out.Get("extra_unrecognized")
	assert.True(t, ok)
}

func TestRegistry_Apply_SchemaOptionalTypesPassThrough(t *testing.T) {
	r := NewRegistry()
	e := &entity.Entity{
		FullID: mustFullID(t, "untyped.thing"),
		Fields: []entity.Field{{ID: "x", Value: value.NewInteger(1)}},
	}
	out, viol := r.Apply(e)
	require.False(t, viol.HasErrors())
	assert.Same(t, e, out)
}

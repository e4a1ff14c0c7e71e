package fullid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	id, err := Parse("person.john")
	require.NoError(t, err)
	assert.Equal(t, FullId{Type: "person", ID: "john"}, id)
	assert.Equal(t, "person.john", id.String())
}

func TestParse_RejectsMultipleDots(t *testing.T) {
	_, err := Parse("person.john.extra")
	require.Error(t, err)
}

func TestParse_RejectsMissingParts(t *testing.T) {
	_, err := Parse("person.")
	require.Error(t, err)
	_, err = Parse(".john")
	require.Error(t, err)
}

func TestValidIdent_RejectsReservedWords(t *testing.T) {
	assert.False(t, ValidIdent("schema"))
	assert.False(t, ValidIdent("field"))
	assert.True(t, ValidIdent("task"))
}

func TestValidIdent_RejectsNonSnakeCase(t *testing.T) {
	assert.False(t, ValidIdent("Person"))
	assert.False(t, ValidIdent("1person"))
	assert.True(t, ValidIdent("person_1"))
}

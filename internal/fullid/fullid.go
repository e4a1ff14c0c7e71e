// Package fullid implements the identifier types of §3: EntityType,
// EntityId, FieldId, and the FullId pair that serves as the entity graph's
// node key.
//
// Grounded on internal/nodeid's Address/PathSegment parser in the teacher
// repo: a canonical string form, a Parse function, and a regex-validated
// segment grammar. Our identifiers are simpler (a single snake_case token,
// no bracket indices), so Parse is one split at the '.' plus a regex
// check of each half instead of a per-segment loop.
package fullid

import (
	"fmt"
	"regexp"
)

var identRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// reserved words of the DSL grammar (§4.2); none may be used as an entity
// type, entity id, or field name.
var reserved = buildSet([]string{
	"schema", "field", "true", "false", "enum", "path", "at", "UTC",
})

func buildSet(words []string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// ValidIdent reports whether s is a well-formed snake_case identifier that
// is not a reserved word.
func ValidIdent(s string) bool {
	if !identRe.MatchString(s) {
		return false
	}
	_, isReserved := reserved[s]
	return !isReserved
}

// FullId is the pair (type, id) that keys a node in the entity graph.
type FullId struct {
	Type string
	ID   string
}

// String renders the canonical "type.id" form.
func (f FullId) String() string {
	return f.Type + "." + f.ID
}

// Parse splits a canonical "type.id" string into its components. Exactly
// one "." is expected; both halves must be valid identifiers.
func Parse(s string) (FullId, error) {
	dot := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			if dot != -1 {
				return FullId{}, fmt.Errorf("invalid full id %q: more than one '.'", s)
			}
			dot = i
		}
	}
	if dot <= 0 || dot == len(s)-1 {
		return FullId{}, fmt.Errorf("invalid full id %q: expected \"type.id\"", s)
	}
	typ, id := s[:dot], s[dot+1:]
	if !ValidIdent(typ) {
		return FullId{}, fmt.Errorf("invalid full id %q: bad entity type %q", s, typ)
	}
	if !ValidIdent(id) {
		return FullId{}, fmt.Errorf("invalid full id %q: bad entity id %q", s, id)
	}
	return FullId{Type: typ, ID: id}, nil
}

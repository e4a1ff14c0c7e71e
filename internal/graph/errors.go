package graph

import "fmt"

// DuplicateEntity is raised by AddEntities when a FullId already present
// in the graph is added again (§4.5, §7).
type DuplicateEntity struct {
	FullID string
}

func (e *DuplicateEntity) Error() string {
	return fmt.Sprintf("duplicate entity %q", e.FullID)
}

// DanglingReference is raised by Build when a Reference field names a
// FullId absent from the graph (§3, §7).
type DanglingReference struct {
	Src string
	Via string
	Dst string
}

func (e *DanglingReference) Error() string {
	return fmt.Sprintf("dangling reference: %s.%s -> %s", e.Src, e.Via, e.Dst)
}

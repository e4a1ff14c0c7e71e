package workspace

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// IoError wraps a filesystem failure encountered while discovering or
// reading .firm files: directory walk failures and unreadable files
// alike (§7).
type IoError struct {
	Path  string
	Cause error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io error at %s: %s", e.Path, e.Cause)
}

func (e *IoError) Unwrap() error { return e.Cause }

// DuplicateEntity is raised when the same FullId is declared in more than
// one file (§4.3, §7).
type DuplicateEntity struct {
	FullID string
	First  hcl.Range
	Second hcl.Range
}

func (e *DuplicateEntity) Error() string {
	return fmt.Sprintf("duplicate entity %q: first declared at %s, redeclared at %s", e.FullID, e.First, e.Second)
}

// BuildErrors aggregates every parse error, duplicate, and schema
// violation found across a workspace build (§7 propagation policy: the
// loader collects as many as it can rather than stopping at the first).
type BuildErrors []error

func (es BuildErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

func (es BuildErrors) HasErrors() bool { return len(es) > 0 }

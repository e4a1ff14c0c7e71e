package dsl

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// ParseError is a single lexical or grammatical fault, carrying the byte
// span it occurred at (§7). Positions reuse hcl.Pos/hcl.Range the way the
// teacher's HCL-backed packages already do, giving .firm diagnostics the
// same shape as the corpus's HCL diagnostics without adopting HCL's grammar.
type ParseError struct {
	Range   hcl.Range
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Range.String(), e.Message)
}

// ParseErrors collects every recoverable error found in one file; the
// parser resumes at the next statement boundary after each one (§4.2,
// §7 propagation policy).
type ParseErrors []*ParseError

func (es ParseErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

func (es ParseErrors) HasErrors() bool { return len(es) > 0 }

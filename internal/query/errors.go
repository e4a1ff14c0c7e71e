package query

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// ParseError is a single lexical or grammatical fault in a query string,
// carrying a span into that string (§7: ParseError).
type ParseError struct {
	Range   hcl.Range
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Range, e.Message)
}

// ParseErrors aggregates every error found while parsing one query. The
// parser does not stop at the first op-level error; it recovers to the
// next '|' and keeps going, the same recovery policy internal/dsl uses for
// top-level blocks.
type ParseErrors []*ParseError

func (errs ParseErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

func (errs ParseErrors) HasErrors() bool { return len(errs) > 0 }

package cli

import (
	"fmt"
	"strings"

	"github.com/go-firm/firmgraph/internal/entity"
	"github.com/go-firm/firmgraph/internal/value"
)

// formatValue renders a value.Value as a single line of human-readable
// text. It dispatches on Kind through the public accessor API the same
// way internal/graphcache's codec does, since Value's payload fields are
// unexported.
func formatValue(v value.Value) string {
	switch v.Kind() {
	case value.String, value.PathKind, value.EnumKind:
		s, _ := v.AsString()
		return s
	case value.Integer:
		i, _ := v.AsInteger()
		return fmt.Sprintf("%d", i)
	case value.Float:
		f, _ := v.AsFloat()
		return fmt.Sprintf("%g", f)
	case value.Boolean:
		b, _ := v.AsBoolean()
		return fmt.Sprintf("%t", b)
	case value.CurrencyKind:
		cur, _ := v.AsCurrency()
		return fmt.Sprintf("%s %s", cur.Amount.String(), cur.Code)
	case value.DateTimeKind:
		dt, _ := v.AsDateTime()
		return dt.Instant().Format("2006-01-02 15:04 MST")
	case value.EntityRef, value.FieldRef:
		ref, _ := v.AsReference()
		if ref.Field != "" {
			return fmt.Sprintf("%s.%s.%s", ref.Type, ref.ID, ref.Field)
		}
		return fmt.Sprintf("%s.%s", ref.Type, ref.ID)
	case value.ListKind:
		items, _, _ := v.AsList()
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = formatValue(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<unknown>"
	}
}

// formatEntity renders an entity's full id and fields as a multi-line
// listing, one field per line, in declaration order.
func formatEntity(e *entity.Entity) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", e.FullID.String())
	for _, f := range e.Fields {
		fmt.Fprintf(&sb, "  %s = %s\n", f.ID, formatValue(f.Value))
	}
	return sb.String()
}

// Package graphcache implements §4.5's cache I/O and §6's cache file
// format: a JSON document with top-level schemas/entities/edges/
// format_version keys, and atomic current/backup rotation on write.
//
// value.Value's payload fields are unexported by design (§4.1's "closed
// tagged union" note), so this package encodes and decodes it entirely
// through the public Kind()/As*/New* API rather than relying on
// encoding/json's struct-tag reflection the way the teacher's HCL structs
// do — there is no exported struct shape to reflect over.
package graphcache

import (
	"encoding/json"
	"fmt"

	"github.com/go-firm/firmgraph/internal/value"
)

// FormatVersion is the current major version stamped into every cache
// file. Readers reject any other value (§6).
const FormatVersion = 1

type documentJSON struct {
	FormatVersion int          `json:"format_version"`
	Schemas       []schemaJSON `json:"schemas"`
	Entities      []entityJSON `json:"entities"`
	Edges         []edgeJSON   `json:"edges"`
}

type schemaJSON struct {
	EntityType string          `json:"entity_type"`
	Fields     []fieldSpecJSON `json:"fields"`
}

type fieldSpecJSON struct {
	FieldID       string   `json:"field_id"`
	DeclaredType  string   `json:"declared_type"`
	Required      bool     `json:"required"`
	AllowedValues []string `json:"allowed_values,omitempty"`
	Order         int      `json:"order"`
}

type entityJSON struct {
	Type   string      `json:"type"`
	ID     string      `json:"id"`
	Fields []fieldJSON `json:"fields"`
}

type fieldJSON struct {
	Name      string          `json:"name"`
	ValueKind string          `json:"value_kind"`
	Value     json.RawMessage `json:"value"`
}

type edgeJSON struct {
	Src  string `json:"src"`
	Dst  string `json:"dst"`
	Via  string `json:"via"`
	Kind string `json:"kind"`
}

type currencyJSON struct {
	Amount string `json:"amount"`
	Code   string `json:"code"`
}

type dateTimeJSON struct {
	Year      int        `json:"year"`
	Month     int        `json:"month"`
	Day       int        `json:"day"`
	Hour      int        `json:"hour"`
	Minute    int        `json:"minute"`
	Precision string     `json:"precision"`
	Offset    offsetJSON `json:"offset"`
}

type offsetJSON struct {
	Local         bool `json:"local"`
	FixedUTCHours int  `json:"fixed_utc_hours,omitempty"`
}

type referenceJSON struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Field string `json:"field,omitempty"`
}

type listJSON struct {
	ElemKind string            `json:"elem_kind"`
	Items    []json.RawMessage `json:"items"`
}

func kindFromString(s string) (value.Kind, bool) {
	switch s {
	case "string":
		return value.String, true
	case "integer":
		return value.Integer, true
	case "float":
		return value.Float, true
	case "boolean":
		return value.Boolean, true
	case "currency":
		return value.CurrencyKind, true
	case "datetime":
		return value.DateTimeKind, true
	case "entity_ref":
		return value.EntityRef, true
	case "field_ref":
		return value.FieldRef, true
	case "path":
		return value.PathKind, true
	case "enum":
		return value.EnumKind, true
	case "list":
		return value.ListKind, true
	default:
		return 0, false
	}
}

func precisionToString(p value.Precision) string {
	if p == value.PrecisionDateMinute {
		return "date_minute"
	}
	return "date"
}

func precisionFromString(s string) (value.Precision, error) {
	switch s {
	case "date":
		return value.PrecisionDate, nil
	case "date_minute":
		return value.PrecisionDateMinute, nil
	default:
		return 0, fmt.Errorf("graphcache: unknown datetime precision %q", s)
	}
}

func encodeValue(v value.Value) (json.RawMessage, error) {
	switch v.Kind() {
	case value.String, value.PathKind, value.EnumKind:
		s, _ := v.AsString()
		return json.Marshal(s)
	case value.Integer:
		i, _ := v.AsInteger()
		return json.Marshal(i)
	case value.Float:
		f, _ := v.AsFloat()
		return json.Marshal(f)
	case value.Boolean:
		b, _ := v.AsBoolean()
		return json.Marshal(b)
	case value.CurrencyKind:
		c, _ := v.AsCurrency()
		return json.Marshal(currencyJSON{Amount: c.Amount.String(), Code: c.Code})
	case value.DateTimeKind:
		dt, _ := v.AsDateTime()
		return json.Marshal(dateTimeJSON{
			Year: dt.Year, Month: dt.Month, Day: dt.Day, Hour: dt.Hour, Minute: dt.Minute,
			Precision: precisionToString(dt.Precision),
			Offset:    offsetJSON{Local: dt.Offset.Local, FixedUTCHours: dt.Offset.FixedUTCHours},
		})
	case value.EntityRef, value.FieldRef:
		r, _ := v.AsReference()
		return json.Marshal(referenceJSON{Type: r.Type, ID: r.ID, Field: r.Field})
	case value.ListKind:
		items, elemKind, _ := v.AsList()
		encoded := make([]json.RawMessage, len(items))
		for i, it := range items {
			raw, err := encodeValue(it)
			if err != nil {
				return nil, err
			}
			encoded[i] = raw
		}
		return json.Marshal(listJSON{ElemKind: elemKind.String(), Items: encoded})
	default:
		return nil, fmt.Errorf("graphcache: unsupported value kind %s", v.Kind())
	}
}

func decodeValue(kindStr string, raw json.RawMessage) (value.Value, error) {
	kind, ok := kindFromString(kindStr)
	if !ok {
		return value.Value{}, fmt.Errorf("graphcache: unknown value kind %q", kindStr)
	}
	switch kind {
	case value.String:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return value.Value{}, err
		}
		return value.NewString(s), nil
	case value.PathKind:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return value.Value{}, err
		}
		return value.NewPath(s), nil
	case value.EnumKind:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return value.Value{}, err
		}
		return value.NewEnum(s), nil
	case value.Integer:
		var i int64
		if err := json.Unmarshal(raw, &i); err != nil {
			return value.Value{}, err
		}
		return value.NewInteger(i), nil
	case value.Float:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return value.Value{}, err
		}
		return value.NewFloat(f), nil
	case value.Boolean:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return value.Value{}, err
		}
		return value.NewBoolean(b), nil
	case value.CurrencyKind:
		var c currencyJSON
		if err := json.Unmarshal(raw, &c); err != nil {
			return value.Value{}, err
		}
		dec, err := value.ParseDecimal(c.Amount)
		if err != nil {
			return value.Value{}, fmt.Errorf("graphcache: invalid currency amount %q: %w", c.Amount, err)
		}
		return value.NewCurrency(value.Currency{Amount: dec, Code: c.Code}), nil
	case value.DateTimeKind:
		var d dateTimeJSON
		if err := json.Unmarshal(raw, &d); err != nil {
			return value.Value{}, err
		}
		prec, err := precisionFromString(d.Precision)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewDateTime(value.DateTime{
			Year: d.Year, Month: d.Month, Day: d.Day, Hour: d.Hour, Minute: d.Minute,
			Precision: prec,
			Offset:    value.Offset{Local: d.Offset.Local, FixedUTCHours: d.Offset.FixedUTCHours},
		}), nil
	case value.EntityRef:
		var r referenceJSON
		if err := json.Unmarshal(raw, &r); err != nil {
			return value.Value{}, err
		}
		return value.NewEntityRef(value.Reference{Type: r.Type, ID: r.ID}), nil
	case value.FieldRef:
		var r referenceJSON
		if err := json.Unmarshal(raw, &r); err != nil {
			return value.Value{}, err
		}
		return value.NewFieldRef(value.Reference{Type: r.Type, ID: r.ID, Field: r.Field}), nil
	case value.ListKind:
		var l listJSON
		if err := json.Unmarshal(raw, &l); err != nil {
			return value.Value{}, err
		}
		elemKind, ok := kindFromString(l.ElemKind)
		if !ok {
			return value.Value{}, fmt.Errorf("graphcache: unknown list element kind %q", l.ElemKind)
		}
		items := make([]value.Value, len(l.Items))
		for i, itemRaw := range l.Items {
			v, err := decodeValue(l.ElemKind, itemRaw)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = v
		}
		return value.NewList(elemKind, items)
	default:
		return value.Value{}, fmt.Errorf("graphcache: unsupported value kind %s", kind)
	}
}

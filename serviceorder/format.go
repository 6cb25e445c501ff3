package serviceorder

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldserve/adminsdk/api"
)

const (
	dateTimeLayout = "2006-01-02 15:04:05"
	dateLayout     = "2006-01-02"
)

// ApplyFieldFormatting rewrites an outbound payload into wire form:
// datetime fields to "YYYY-MM-DD HH:mm:ss", date fields to "YYYY-MM-DD",
// decimal quantities to fixed-point strings with 2 digits. The walk is
// shallow: top-level scalars are classified by key, elements of top-level
// arrays and keys of top-level objects get one level of the same
// treatment, nothing deeper. A field that cannot be formatted is left
// as-is; formatting never aborts the save. Re-applying to its own output
// is a no-op for date and decimal fields.
func ApplyFieldFormatting(p api.Record) api.Record {
	if p == nil {
		return nil
	}

	out := make(api.Record, len(p))
	for key, val := range p {
		switch vv := val.(type) {
		case []any:
			formatted := make([]any, len(vv))
			for i, el := range vv {
				if m, ok := el.(map[string]any); ok {
					formatted[i] = formatKeys(m)
				} else {
					formatted[i] = el
				}
			}
			out[key] = formatted
		case []map[string]any:
			// Hand-built payloads; rewrap so the rest of the pipeline
			// sees one list shape.
			formatted := make([]any, len(vv))
			for i, m := range vv {
				formatted[i] = formatKeys(m)
			}
			out[key] = formatted
		case map[string]any:
			out[key] = formatKeys(vv)
		default:
			out[key] = formatValue(key, val)
		}
	}
	return out
}

// formatKeys classifies the immediate keys of one object; it does not
// recurse further.
func formatKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, val := range m {
		switch val.(type) {
		case []any, map[string]any:
			out[key] = val
		default:
			out[key] = formatValue(key, val)
		}
	}
	return out
}

func formatValue(name string, v any) any {
	if v == nil {
		return nil
	}
	switch KindOf(name) {
	case KindDateTime:
		return formatDate(v, dateTimeLayout)
	case KindDate:
		return formatDate(v, dateLayout)
	case KindDecimal:
		return formatDecimal(v)
	default:
		return v
	}
}

// formatDate renders a time-like value in the given layout. Values that
// cannot be interpreted as a date pass through unchanged.
func formatDate(v any, layout string) any {
	switch vv := v.(type) {
	case time.Time:
		return vv.Format(layout)
	case *time.Time:
		if vv == nil {
			return nil
		}
		return vv.Format(layout)
	case string:
		for _, parse := range dateLayouts {
			if t, err := time.Parse(parse, vv); err == nil {
				return t.Format(layout)
			}
		}
		return v
	default:
		return v
	}
}

// formatDecimal renders a quantity as a fixed-point string with exactly
// two decimal digits. Accepted inputs: a locale-formatted string with
// "." thousands and "," decimal separators, a plain numeric string, or a
// number. nil stays nil and never becomes "0.00"; anything unparsable
// passes through unchanged.
func formatDecimal(v any) any {
	switch vv := v.(type) {
	case string:
		s := vv
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return v
		}
		return d.StringFixed(2)
	case float64:
		return decimal.NewFromFloat(vv).StringFixed(2)
	case float32:
		return decimal.NewFromFloat32(vv).StringFixed(2)
	case int:
		return decimal.NewFromInt(int64(vv)).StringFixed(2)
	case int64:
		return decimal.NewFromInt(vv).StringFixed(2)
	default:
		return v
	}
}

// =============================================================================
// Outbound Sanitation
// =============================================================================

// stripEmbedded removes embedded object references from list elements
// that also carry the corresponding foreign key, so payloads carry
// identifiers rather than denormalized objects.
func stripEmbedded(p api.Record) api.Record {
	out := make(api.Record, len(p))
	for key, val := range p {
		list, ok := val.([]any)
		if !ok {
			out[key] = val
			continue
		}
		stripped := make([]any, len(list))
		for i, el := range list {
			m, ok := el.(map[string]any)
			if !ok {
				stripped[i] = el
				continue
			}
			clean := make(map[string]any, len(m))
			for k, v := range m {
				if _, isObject := v.(map[string]any); isObject {
					if _, hasFK := m[k+"_id"]; hasFK {
						continue
					}
				}
				clean[k] = v
			}
			stripped[i] = clean
		}
		out[key] = stripped
	}
	return out
}

// ensureAttachments guarantees the attachments field is present as a
// list, possibly empty, so the server can distinguish "no attachments"
// from "don't touch attachments".
func ensureAttachments(p api.Record) {
	if _, ok := p["attachments"].([]any); !ok {
		p["attachments"] = []any{}
	}
}

// filterNewAttachments drops entries that already carry a created_at:
// persisted attachments are not re-sent, only new ones proceed to
// upload.
func filterNewAttachments(list []any) []any {
	filtered := make([]any, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			if persisted, present := m["created_at"]; present && persisted != nil {
				continue
			}
		}
		filtered = append(filtered, el)
	}
	return filtered
}

// attachmentMaps extracts the map-shaped entries of an attachments list
// for upload; non-map entries are ignored.
func attachmentMaps(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	maps := make([]map[string]any, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			maps = append(maps, m)
		}
	}
	return maps
}

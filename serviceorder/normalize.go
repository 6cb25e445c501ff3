package serviceorder

import (
	"time"

	"github.com/fieldserve/adminsdk/api"
)

// dateLayouts are the wire formats accepted when coercing response
// values into time.Time.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeResponse converts the wire shape of a service order into the
// shape the presentation layer consumes: nested collections are reshaped
// with their identifiers surfaced, date-like fields become time.Time.
// Unknown fields survive unchanged; the envelope is not whitelisted.
// A nil record stays nil.
func NormalizeResponse(rec api.Record) api.Record {
	if rec == nil {
		return nil
	}

	out := make(api.Record, len(rec))
	for key, val := range rec {
		out[key] = val
	}

	for _, name := range nestedCollections {
		list, ok := out[name].([]any)
		if !ok {
			continue
		}
		normalized := make([]any, len(list))
		for i, el := range list {
			if m, ok := el.(map[string]any); ok {
				normalized[i] = normalizeElement(m)
			} else {
				normalized[i] = el
			}
		}
		out[name] = normalized
	}

	for name, kind := range fieldKinds {
		if kind != KindDate && kind != KindDateTime {
			continue
		}
		if val, ok := out[name]; ok {
			out[name] = coerceDate(val)
		}
	}

	return out
}

// normalizeElement maps one nested sub-record into its narrower shape:
// for every embedded object carrying an id, the matching foreign key is
// surfaced when absent, and timestamp fields are coerced.
func normalizeElement(el map[string]any) map[string]any {
	out := make(map[string]any, len(el))
	for key, val := range el {
		out[key] = val
	}

	for key, val := range el {
		embedded, ok := val.(map[string]any)
		if !ok {
			continue
		}
		id, ok := embedded["id"]
		if !ok {
			continue
		}
		fk := key + "_id"
		if _, present := out[fk]; !present {
			out[fk] = id
		}
	}

	for _, name := range []string{"created_at", "updated_at"} {
		if val, ok := out[name]; ok {
			out[name] = coerceDate(val)
		}
	}

	return out
}

// coerceDate turns a string or epoch-number value into time.Time.
// Unparsable values pass through unchanged; coercion never fails the
// normalization.
func coerceDate(v any) any {
	switch vv := v.(type) {
	case time.Time:
		return vv
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, vv); err == nil {
				return t
			}
		}
		return v
	case float64:
		// JSON numbers arrive as float64; treat as unix seconds.
		return time.Unix(int64(vv), 0).UTC()
	case int64:
		return time.Unix(vv, 0).UTC()
	default:
		return v
	}
}

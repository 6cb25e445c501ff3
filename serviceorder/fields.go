// Package serviceorder implements the wire<->view normalization pipeline
// for service-order records: nested-collection reshaping and date
// coercion on read, table-driven field formatting and payload sanitation
// on write, with attachment uploads completing before the parent record
// is sent.
package serviceorder

// FieldKind classifies how a field value is formatted in outbound
// payloads and coerced in responses.
type FieldKind int

const (
	// KindPassthrough leaves the value untouched.
	KindPassthrough FieldKind = iota
	// KindDate formats as YYYY-MM-DD.
	KindDate
	// KindDateTime formats as YYYY-MM-DD HH:mm:ss.
	KindDateTime
	// KindDecimal formats as a fixed-point string with 2 decimal digits.
	KindDecimal
)

// fieldKinds is the per-field classification table. Classification is
// declared as data rather than derived from name patterns, so the set is
// exhaustive and the table itself is testable.
var fieldKinds = map[string]FieldKind{
	// datetime fields
	"started_at":    KindDateTime,
	"finished_at":   KindDateTime,
	"scheduled_for": KindDateTime,

	// date fields
	"issue_date":   KindDate,
	"due_date":     KindDate,
	"service_date": KindDate,
	"expires_at":   KindDate,
	"created_at":   KindDate,
	"updated_at":   KindDate,
	"deleted_at":   KindDate,
	"paid_at":      KindDate,
	"approved_at":  KindDate,

	// decimal quantity fields
	"gross_volume": KindDecimal,
	"net_volume":   KindDecimal,
	"tare_volume":  KindDecimal,
}

// nestedCollections are the service-order list fields reshaped on read.
var nestedCollections = []string{"services", "payments", "schedules", "attachments"}

// KindOf returns the classification for a field name; unknown names are
// passthrough.
func KindOf(name string) FieldKind {
	if kind, ok := fieldKinds[name]; ok {
		return kind
	}
	return KindPassthrough
}

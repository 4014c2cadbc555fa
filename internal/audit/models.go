package audit

import "time"

// Entry is an immutable, append-only audit log record.
//
// Invariants:
// - Entries are never updated or deleted.
// - Audit writes are best-effort; do not block booking flows on audit failures.
//
// Storage recommendation (Postgres):
// - Table audit_log with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.
// - Optional: partition by time for retention.

type Entry struct {
	ID string `json:"id" db:"id"`

	// Action is the business operation, e.g. "create_booking",
	// "incoming_call", "sms_notification".
	Action string `json:"action" db:"action"`

	// EntityType and EntityID identify the affected record ("booking",
	// "call", "restaurant"). EntityID is empty for events with no persisted
	// subject, such as an incoming call before any booking exists.
	EntityType string `json:"entity_type" db:"entity_type"`
	EntityID   string `json:"entity_id,omitempty" db:"entity_id"`

	// Description is a short human-readable summary for internal ops.
	Description string `json:"description" db:"description"`

	// Data is optional JSON with the full structured payload.
	Data string `json:"data,omitempty" db:"data"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

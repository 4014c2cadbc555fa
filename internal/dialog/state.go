package dialog

import (
	"time"

	"voiceline/internal/booking"
)

// Stage is the dialogue position for an in-progress call: the field the
// system is currently waiting to hear.
type Stage string

const (
	// StageGreeting is the entry point; it exists only as the implicit
	// origin of a call and is never stored (the welcome prompt immediately
	// advances the call to StageName).
	StageGreeting Stage = "greeting"

	StageName         Stage = "name"
	StagePartySize    Stage = "party_size"
	StageDate         Stage = "date"
	StageTime         Stage = "time"
	StageAltTime      Stage = "alt_time"
	StageConfirmation Stage = "confirmation"
)

func ValidStage(s Stage) bool {
	switch s {
	case StageGreeting, StageName, StagePartySize, StageDate, StageTime, StageAltTime, StageConfirmation:
		return true
	default:
		return false
	}
}

// CallState is the ephemeral conversation record for one phone call.
//
// Owned exclusively by the Manager: created on the first inbound event,
// mutated every turn, deleted on terminal success, terminal abort, or the
// store's inactivity TTL.
type CallState struct {
	CallID string        `json:"call_id"`
	Stage  Stage         `json:"stage"`
	Draft  booking.Draft `json:"draft"`

	// Alternatives is the slot list most recently offered in StageAltTime,
	// kept so a re-prompt presents the same options.
	Alternatives []string `json:"alternatives,omitempty"`

	// Version guards read-modify-write cycles; see StateStore.Put.
	Version int64 `json:"version"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Outcome is the terminal result of a finished dialogue.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeAborted   Outcome = "aborted"
)

package slots

import (
	"context"
	"time"
)

// Slot is one bookable interval, normalized to the restaurant's granularity.
type Slot struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`

	// Display is the HH:MM wall-clock label spoken back to callers and
	// compared against extracted booking times.
	Display string `json:"time"`
}

// Provider lists bookable slots for a given calendar date.
//
// Contract for implementations:
// - Results are ordered by start time.
// - Never block past the configured timeout; the dialogue layer must not
//   stall waiting for availability.
// - Any upstream failure degrades to a deterministic fallback set rather
//   than surfacing an error to the conversation.
type Provider interface {
	ListSlots(ctx context.Context, date time.Time) ([]Slot, error)
}

// Granularity is the slot step used across the system.
const Granularity = 30 * time.Minute

package notify

import (
	"context"

	"voiceline/internal/booking"
)

// Sender delivers customer-facing messages about a reservation.
//
// Delivery is best-effort everywhere it is used: a failed confirmation SMS
// is logged and never rolls back the reservation it describes.
type Sender interface {
	SendConfirmation(ctx context.Context, res booking.Reservation) error
	SendCancellation(ctx context.Context, res booking.Reservation) error
}

// Noop discards all notifications; used in tests and local runs without
// Twilio credentials.
type Noop struct{}

func (Noop) SendConfirmation(ctx context.Context, res booking.Reservation) error { return nil }
func (Noop) SendCancellation(ctx context.Context, res booking.Reservation) error { return nil }

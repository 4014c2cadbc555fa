package booking

import (
	"strings"
	"time"
)

// Restaurant is the configuration record for the single tenant this
// deployment serves. Opening and closing are HH:MM wall-clock strings;
// lexicographic comparison on them matches numeric comparison.
type Restaurant struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`
	Address     string `json:"address" db:"address"`
	OpeningTime string `json:"opening_time" db:"opening_time"`
	ClosingTime string `json:"closing_time" db:"closing_time"`
	Capacity    int    `json:"capacity" db:"capacity"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCanceled  ReservationStatus = "canceled"
	StatusCompleted ReservationStatus = "completed"
)

func ValidStatus(s ReservationStatus) bool {
	switch s {
	case StatusConfirmed, StatusCanceled, StatusCompleted:
		return true
	default:
		return false
	}
}

// Reservation is a persisted booking. Created only through Service.Commit;
// the dialogue layer never writes reservations directly.
type Reservation struct {
	ID           string `json:"id" db:"id"`
	RestaurantID int64  `json:"restaurant_id" db:"restaurant_id"`

	CustomerName  string `json:"customer_name" db:"customer_name"`
	CustomerPhone string `json:"customer_phone" db:"customer_phone"`
	CustomerEmail string `json:"customer_email,omitempty" db:"customer_email"`

	PartySize int `json:"party_size" db:"party_size"`

	// Date is the calendar day; Time is the HH:MM wall-clock slot.
	Date time.Time `json:"booking_date" db:"booking_date"`
	Time string    `json:"booking_time" db:"booking_time"`

	SpecialRequests string            `json:"special_requests,omitempty" db:"special_requests"`
	Status          ReservationStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// VoiceTurn is one dialogue exchange: transcript in, response out.
// Append-only; the conversation never reads these back.
type VoiceTurn struct {
	ID     string `json:"id" db:"id"`
	CallID string `json:"call_id" db:"call_id"`

	Transcript   string `json:"transcript" db:"transcript"`
	ResponseText string `json:"response_text" db:"response_text"`

	// ReservationID links the terminal turn to the booking it produced.
	ReservationID string `json:"reservation_id,omitempty" db:"reservation_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Draft is the reservation under construction during a call. Fields populate
// monotonically as the dialogue progresses, except that returning to date
// selection clears Date and Time while preserving name and party size.
type Draft struct {
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`

	PartySize int `json:"party_size,omitempty"`

	Date time.Time `json:"booking_date,omitempty"`
	Time string    `json:"booking_time,omitempty"`

	SpecialRequests string `json:"special_requests,omitempty"`

	RestaurantID int64 `json:"restaurant_id"`
}

// Missing names the required fields not yet set, in speaking order.
func (d Draft) Missing() []string {
	var out []string
	if strings.TrimSpace(d.CustomerName) == "" {
		out = append(out, "customer name")
	}
	if strings.TrimSpace(d.CustomerPhone) == "" {
		out = append(out, "customer phone")
	}
	if d.PartySize <= 0 {
		out = append(out, "party size")
	}
	if d.Date.IsZero() {
		out = append(out, "booking date")
	}
	if d.Time == "" {
		out = append(out, "booking time")
	}
	return out
}

// Complete gates the confirmation stage and the commit call.
func (d Draft) Complete() bool {
	return len(d.Missing()) == 0
}

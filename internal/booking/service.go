package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"voiceline/internal/audit"
	"voiceline/internal/config"

	"github.com/google/uuid"
)

// Store is the persistence contract for reservations.
//
// Atomicity: CreateReservation and UpdateReservationStatus must write the
// row and its audit entry together or not at all. There is no partial
// commit; the dialogue layer treats any failure as a terminal abort.
type Store interface {
	Restaurant(ctx context.Context, id int64) (Restaurant, error)
	SaveRestaurant(ctx context.Context, r Restaurant) error

	CreateReservation(ctx context.Context, res Reservation, entry audit.Entry) error
	Reservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, f ListFilter) ([]Reservation, error)
	UpdateReservationStatus(ctx context.Context, id string, status ReservationStatus, updatedAt time.Time, entry audit.Entry) error

	AppendVoiceTurn(ctx context.Context, turn VoiceTurn) error
}

// ListFilter narrows ListReservations. Zero values mean "no constraint".
type ListFilter struct {
	Status   ReservationStatus
	DateFrom time.Time
	DateTo   time.Time
	Limit    int
}

var (
	ErrNotFound      = errors.New("booking not found")
	ErrInvalidStatus = errors.New("invalid booking status")

	// ErrMissingFields indicates an incomplete draft reached commit. The
	// confirmation stage's precondition makes this unreachable in a correct
	// dialogue; seeing it means a dialogue logic defect.
	ErrMissingFields = errors.New("missing required booking information")
)

// Service is the booking commit gateway plus the administrative reservation
// operations built on the same store.
type Service struct {
	store    Store
	defaults config.RestaurantConfig
	clock    func() time.Time
	log      *slog.Logger
}

func NewService(store Store, defaults config.RestaurantConfig, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, defaults: defaults, clock: time.Now, log: log}
}

// Commit validates a completed draft and persists it as a confirmed
// reservation with its audit entry in one atomic write.
//
// Returned errors carry text suitable for speaking back to the caller.
func (s *Service) Commit(ctx context.Context, d Draft) (Reservation, error) {
	if missing := d.Missing(); len(missing) > 0 {
		// Should be unreachable given the confirmation precondition; log
		// loudly because it indicates a dialogue logic defect.
		s.log.Error("commit received incomplete draft", "missing", missing)
		return Reservation{}, fmt.Errorf("%w: %v", ErrMissingFields, missing)
	}

	if err := s.ensureRestaurant(ctx, d.RestaurantID); err != nil {
		return Reservation{}, fmt.Errorf("the booking system is unavailable right now: %w", err)
	}

	now := s.clock().UTC()
	res := Reservation{
		ID:              uuid.NewString(),
		RestaurantID:    d.RestaurantID,
		CustomerName:    d.CustomerName,
		CustomerPhone:   d.CustomerPhone,
		PartySize:       d.PartySize,
		Date:            d.Date,
		Time:            d.Time,
		SpecialRequests: d.SpecialRequests,
		Status:          StatusConfirmed,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	payload, _ := json.Marshal(res)
	entry := audit.Entry{
		ID:          uuid.NewString(),
		Action:      "create_booking",
		EntityType:  "booking",
		EntityID:    res.ID,
		Description: fmt.Sprintf("Booking created for %s on %s at %s", res.CustomerName, res.Date.Format("2006-01-02"), res.Time),
		Data:        string(payload),
		CreatedAt:   now,
	}

	if err := s.store.CreateReservation(ctx, res, entry); err != nil {
		return Reservation{}, fmt.Errorf("we could not save your reservation: %w", err)
	}
	return res, nil
}

// ensureRestaurant creates the default configuration record when the system
// runs without prior setup.
func (s *Service) ensureRestaurant(ctx context.Context, id int64) error {
	_, err := s.store.Restaurant(ctx, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	r := Restaurant{
		ID:          id,
		Name:        s.defaults.Name,
		PhoneNumber: s.defaults.PhoneNumber,
		Address:     s.defaults.Address,
		OpeningTime: s.defaults.OpeningTime,
		ClosingTime: s.defaults.ClosingTime,
		Capacity:    s.defaults.Capacity,
		CreatedAt:   s.clock().UTC(),
	}
	return s.store.SaveRestaurant(ctx, r)
}

// RecordTurn appends one dialogue exchange. Best-effort from the caller's
// perspective; the dialogue never fails a turn on a logging error.
func (s *Service) RecordTurn(ctx context.Context, callID, transcript, responseText, reservationID string) error {
	return s.store.AppendVoiceTurn(ctx, VoiceTurn{
		ID:            uuid.NewString(),
		CallID:        callID,
		Transcript:    transcript,
		ResponseText:  responseText,
		ReservationID: reservationID,
		CreatedAt:     s.clock().UTC(),
	})
}

func (s *Service) Get(ctx context.Context, id string) (Reservation, error) {
	if id == "" {
		return Reservation{}, ErrNotFound
	}
	return s.store.Reservation(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Reservation, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	return s.store.ListReservations(ctx, f)
}

// UpdateStatus transitions a reservation between confirmed, canceled and
// completed, recording the transition in the audit log atomically.
func (s *Service) UpdateStatus(ctx context.Context, id string, status ReservationStatus) (Reservation, error) {
	if !ValidStatus(status) {
		return Reservation{}, ErrInvalidStatus
	}

	res, err := s.store.Reservation(ctx, id)
	if err != nil {
		return Reservation{}, err
	}

	now := s.clock().UTC()
	payload, _ := json.Marshal(map[string]any{
		"booking_id": id,
		"old_status": res.Status,
		"new_status": status,
	})
	entry := audit.Entry{
		ID:          uuid.NewString(),
		Action:      "update_booking_status_" + string(status),
		EntityType:  "booking",
		EntityID:    id,
		Description: fmt.Sprintf("Booking status updated from %s to %s", res.Status, status),
		Data:        string(payload),
		CreatedAt:   now,
	}

	if err := s.store.UpdateReservationStatus(ctx, id, status, now, entry); err != nil {
		return Reservation{}, err
	}

	res.Status = status
	res.UpdatedAt = now
	return res, nil
}

// Summary aggregates reservation counts for the dashboard.
type Summary struct {
	Total     int `json:"total"`
	Confirmed int `json:"confirmed"`
	Canceled  int `json:"canceled"`
	Completed int `json:"completed"`

	// Upcoming counts confirmed reservations dated today or later.
	Upcoming int `json:"upcoming"`
}

func (s *Service) Summarize(ctx context.Context, f ListFilter) (Summary, error) {
	if f.Limit <= 0 {
		f.Limit = 500
	}
	rows, err := s.store.ListReservations(ctx, f)
	if err != nil {
		return Summary{}, err
	}

	today := s.clock().UTC().Truncate(24 * time.Hour)
	var out Summary
	for _, r := range rows {
		out.Total++
		switch r.Status {
		case StatusConfirmed:
			out.Confirmed++
			if !r.Date.Before(today) {
				out.Upcoming++
			}
		case StatusCanceled:
			out.Canceled++
		case StatusCompleted:
			out.Completed++
		}
	}
	return out, nil
}

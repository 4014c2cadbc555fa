package booking

import (
	"context"
	"sync"
	"time"

	"voiceline/internal/audit"
)

// MemoryStore is an in-memory Store for tests and early development.
// Writes that must be atomic in Postgres are serialized under one mutex here.
type MemoryStore struct {
	mu sync.Mutex

	restaurants  map[int64]Restaurant
	reservations map[string]Reservation
	order        []string
	turns        []VoiceTurn
	auditEntries []audit.Entry

	// FailCreates makes CreateReservation fail; used to exercise the
	// aborted-commit path.
	FailCreates error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		restaurants:  map[int64]Restaurant{},
		reservations: map[string]Reservation{},
	}
}

func (s *MemoryStore) Restaurant(ctx context.Context, id int64) (Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.restaurants[id]
	if !ok {
		return Restaurant{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) SaveRestaurant(ctx context.Context, r Restaurant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restaurants[r.ID] = r
	return nil
}

func (s *MemoryStore) CreateReservation(ctx context.Context, res Reservation, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreates != nil {
		return s.FailCreates
	}
	s.reservations[res.ID] = res
	s.order = append(s.order, res.ID)
	s.auditEntries = append(s.auditEntries, entry)
	return nil
}

func (s *MemoryStore) Reservation(ctx context.Context, id string) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return Reservation{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) ListReservations(ctx context.Context, f ListFilter) ([]Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Reservation, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		r := s.reservations[s.order[i]]
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if !f.DateFrom.IsZero() && r.Date.Before(f.DateFrom) {
			continue
		}
		if !f.DateTo.IsZero() && !r.Date.Before(f.DateTo) {
			continue
		}
		out = append(out, r)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateReservationStatus(ctx context.Context, id string, status ReservationStatus, updatedAt time.Time, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = updatedAt
	s.reservations[id] = r
	s.auditEntries = append(s.auditEntries, entry)
	return nil
}

func (s *MemoryStore) AppendVoiceTurn(ctx context.Context, turn VoiceTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	return nil
}

// Reservations returns every stored reservation, insertion order.
func (s *MemoryStore) Reservations() []Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Reservation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.reservations[id])
	}
	return out
}

// Turns returns every recorded voice turn, insertion order.
func (s *MemoryStore) Turns() []VoiceTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]VoiceTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// AuditEntries returns audit entries written alongside reservation writes.
func (s *MemoryStore) AuditEntries() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Entry, len(s.auditEntries))
	copy(out, s.auditEntries)
	return out
}

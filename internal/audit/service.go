package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit entries.
//
// It MUST be append-only for writes. List exists for the internal admin
// viewer; there are no Update or Delete methods.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context, f Filter) ([]Entry, error)
}

// Filter narrows a List query. Zero values mean "no constraint".
type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	From       time.Time
	To         time.Time
	Limit      int
}

// Service records internal audit information.
//
// Callers should treat audit logging as best-effort: log append failures and
// move on, never fail the calling operation.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEntry = errors.New("audit: invalid entry")

func (s *Service) Append(ctx context.Context, e Entry) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Action == "" || e.EntityType == "" {
		return ErrInvalidEntry
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogAction is the convenience form used throughout the booking flow.
func (s *Service) LogAction(ctx context.Context, action, entityType, entityID, description, data string) error {
	return s.Append(ctx, Entry{
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		Data:        data,
	})
}

func (s *Service) List(ctx context.Context, f Filter) ([]Entry, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	return s.repo.List(ctx, f)
}

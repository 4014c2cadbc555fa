package dialog

import (
	"context"
	"errors"
	"sync"
	"time"
)

// StateStore keeps CallState across stateless webhook exchanges.
//
// Concurrency contract: two events for the same call id must never
// interleave a bare read-then-write. Put is a compare-and-swap on
// CallState.Version: it stores the state only when the stored version still
// matches, returning ErrVersionConflict otherwise so the caller can reload
// and retry. Concurrency across different call ids is unconstrained.
type StateStore interface {
	// Get returns the state and whether it exists.
	Get(ctx context.Context, callID string) (CallState, bool, error)

	// Put stores st if the persisted version equals st.Version (0 for a new
	// entry), then increments the stored version.
	Put(ctx context.Context, st CallState) error

	Delete(ctx context.Context, callID string) error
}

var ErrVersionConflict = errors.New("dialog: call state modified concurrently")

// MemoryStore is a single-process StateStore with an inactivity TTL so
// abandoned calls (hang-ups send no terminal event) cannot leak entries.
// For multi-instance deployments use RedisStore instead; two webhooks for
// the same call must see the same state regardless of which instance they
// land on.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	ttl   time.Duration
	clock func() time.Time
}

type memoryEntry struct {
	state   CallState
	version int64
	touched time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryStore{
		entries: map[string]memoryEntry{},
		ttl:     ttl,
		clock:   time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, callID string) (CallState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[callID]
	if !ok {
		return CallState{}, false, nil
	}
	if s.clock().Sub(e.touched) > s.ttl {
		delete(s.entries, callID)
		return CallState{}, false, nil
	}
	st := e.state
	st.Version = e.version
	return st, true, nil
}

func (s *MemoryStore) Put(ctx context.Context, st CallState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	e, ok := s.entries[st.CallID]
	if ok && now.Sub(e.touched) > s.ttl {
		ok = false
		delete(s.entries, st.CallID)
	}

	var current int64
	if ok {
		current = e.version
	}
	if st.Version != current {
		return ErrVersionConflict
	}

	st.UpdatedAt = now
	s.entries[st.CallID] = memoryEntry{
		state:   st,
		version: current + 1,
		touched: now,
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, callID)
	return nil
}

// Reap removes entries idle past the TTL and returns how many were removed.
// Deployments backed by this store should run it periodically; Get and Put
// also expire lazily.
func (s *MemoryStore) Reap() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	n := 0
	for id, e := range s.entries {
		if now.Sub(e.touched) > s.ttl {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Len reports live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

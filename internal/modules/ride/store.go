// README: Ride persistence contract plus an in-memory implementation.
package ride

import (
	"context"
	"sort"
	"sync"

	"flashtaxi/internal/types"
)

// HistoryLimit bounds a rider's history listing.
const HistoryLimit = 20

type Store interface {
	Create(ctx context.Context, r *Ride) error
	Get(ctx context.Context, id types.ID) (*Ride, error)
	// UpdateStatus applies t atomically and reports false when the stored
	// status or version no longer matches.
	UpdateStatus(ctx context.Context, t Transition) (bool, error)
	ListByRider(ctx context.Context, riderID types.ID, limit int) ([]*Ride, error)
}

// EventLog records status transitions for auditing.
type EventLog interface {
	AppendEvent(ctx context.Context, e *Event) error
}

type NopEventLog struct{}

func (NopEventLog) AppendEvent(context.Context, *Event) error { return nil }

type MemoryStore struct {
	mu    sync.RWMutex
	rides map[types.ID]*Ride
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rides: make(map[types.ID]*Ride)}
}

func (s *MemoryStore) Create(_ context.Context, r *Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.rides[r.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (*Ride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, t Transition) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[t.RideID]
	if !ok || r.Status != t.From || r.StatusVersion != t.Version {
		return false, nil
	}
	r.apply(t)
	return true, nil
}

func (s *MemoryStore) ListByRider(_ context.Context, riderID types.ID, limit int) ([]*Ride, error) {
	s.mu.RLock()
	var out []*Ride
	for _, r := range s.rides {
		if r.RiderID == riderID {
			cp := *r
			out = append(out, &cp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestedAt.After(out[j].RequestedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

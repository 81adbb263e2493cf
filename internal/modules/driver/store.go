// README: Driver persistence contract plus an in-memory implementation.
package driver

import (
	"context"
	"sync"
	"time"

	"flashtaxi/internal/types"
)

type Store interface {
	Get(ctx context.Context, id types.ID) (*Driver, error)
	Count(ctx context.Context) (int64, error)
	Insert(ctx context.Context, drivers ...*Driver) error
	UpdateLocation(ctx context.Context, id types.ID, p types.Point, at time.Time) error
	SetAvailability(ctx context.Context, id types.ID, available bool) error
	IncrementRides(ctx context.Context, id types.ID) error
}

type MemoryStore struct {
	mu      sync.RWMutex
	drivers map[types.ID]Driver
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drivers: make(map[types.ID]Driver)}
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (*Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.drivers)), nil
}

func (s *MemoryStore) Insert(_ context.Context, drivers ...*Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range drivers {
		s.drivers[d.ID] = *d
	}
	return nil
}

func (s *MemoryStore) UpdateLocation(_ context.Context, id types.ID, p types.Point, at time.Time) error {
	return s.mutate(id, func(d *Driver) {
		d.Location = &p
		d.LocationUpdatedAt = &at
	})
}

func (s *MemoryStore) SetAvailability(_ context.Context, id types.ID, available bool) error {
	return s.mutate(id, func(d *Driver) { d.Available = available })
}

func (s *MemoryStore) IncrementRides(_ context.Context, id types.ID) error {
	return s.mutate(id, func(d *Driver) { d.TotalRides++ })
}

func (s *MemoryStore) mutate(id types.ID, fn func(*Driver)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok {
		return ErrNotFound
	}
	fn(&d)
	s.drivers[id] = d
	return nil
}

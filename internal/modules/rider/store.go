// README: Rider persistence contract plus an in-memory implementation.
package rider

import (
	"context"
	"sync"
	"time"

	"flashtaxi/internal/types"
)

type Store interface {
	Get(ctx context.Context, id types.ID) (*Rider, error)
	FindByEmail(ctx context.Context, email string) (*Rider, error)
	Create(ctx context.Context, r *Rider) error
	SetChallenge(ctx context.Context, id types.ID, c Challenge) error
	ClearChallenge(ctx context.Context, id types.ID) error
	MarkVerified(ctx context.Context, id types.ID, at time.Time) error
	UpdateProfile(ctx context.Context, id types.ID, u ProfileUpdate) error
}

type MemoryStore struct {
	mu      sync.RWMutex
	riders  map[types.ID]Rider
	byEmail map[string]types.ID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{riders: make(map[types.ID]Rider), byEmail: make(map[string]types.ID)}
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (*Rider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.riders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(r), nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*Rider, error) {
	s.mu.RLock()
	id, ok := s.byEmail[email]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *MemoryStore) Create(_ context.Context, r *Rider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[r.Email]; ok {
		return ErrDuplicate
	}
	s.riders[r.ID] = *clone(*r)
	s.byEmail[r.Email] = r.ID
	return nil
}

func (s *MemoryStore) SetChallenge(_ context.Context, id types.ID, c Challenge) error {
	return s.mutate(id, func(r *Rider) { r.OTP = &c })
}

func (s *MemoryStore) ClearChallenge(_ context.Context, id types.ID) error {
	return s.mutate(id, func(r *Rider) { r.OTP = nil })
}

func (s *MemoryStore) MarkVerified(_ context.Context, id types.ID, at time.Time) error {
	return s.mutate(id, func(r *Rider) {
		r.Verified = true
		r.OTP = nil
		r.LastLogin = &at
	})
}

func (s *MemoryStore) UpdateProfile(_ context.Context, id types.ID, u ProfileUpdate) error {
	return s.mutate(id, func(r *Rider) {
		if u.Name != nil {
			r.Name = *u.Name
		}
		if u.Phone != nil {
			r.Phone = *u.Phone
		}
		if u.DefaultPaymentMethod != nil {
			r.Preferences.DefaultPaymentMethod = *u.DefaultPaymentMethod
		}
		if u.FavoriteLocations != nil {
			r.Preferences.FavoriteLocations = append([]FavoriteLocation(nil), u.FavoriteLocations...)
		}
	})
}

func (s *MemoryStore) mutate(id types.ID, fn func(*Rider)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.riders[id]
	if !ok {
		return ErrNotFound
	}
	fn(&r)
	s.riders[id] = r
	return nil
}

func clone(r Rider) *Rider {
	if r.OTP != nil {
		c := *r.OTP
		r.OTP = &c
	}
	r.Preferences.FavoriteLocations = append([]FavoriteLocation(nil), r.Preferences.FavoriteLocations...)
	return &r
}

// README: Driver service: profile lookup, location and availability updates.
package driver

import (
	"context"
	"time"

	"flashtaxi/internal/types"
)

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Driver, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	return s.store.Get(ctx, id)
}

// UpdateLocation records the driver's last-known position.
func (s *Service) UpdateLocation(ctx context.Context, id types.ID, p types.Point) error {
	if id == "" || !p.Valid() {
		return ErrBadRequest
	}
	return s.store.UpdateLocation(ctx, id, p, s.now().UTC())
}

func (s *Service) SetAvailability(ctx context.Context, id types.ID, available bool) error {
	return s.store.SetAvailability(ctx, id, available)
}

func (s *Service) RecordCompletedRide(ctx context.Context, id types.ID) error {
	return s.store.IncrementRides(ctx, id)
}

// DeviceToken returns the driver's push token, empty when none is registered.
func (s *Service) DeviceToken(ctx context.Context, id types.ID) (string, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return d.DeviceToken, nil
}

// SeedIfEmpty inserts drivers only when the store has none and reports how many were written.
func (s *Service) SeedIfEmpty(ctx context.Context, drivers []Driver) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	now := s.now().UTC()
	batch := make([]*Driver, 0, len(drivers))
	for i := range drivers {
		d := drivers[i]
		if d.ID == "" {
			d.ID = types.NewID()
		}
		if d.Rating == 0 {
			d.Rating = DefaultRating
		}
		d.Available = true
		d.CreatedAt = now
		batch = append(batch, &d)
	}
	if err := s.store.Insert(ctx, batch...); err != nil {
		return 0, err
	}
	return len(batch), nil
}

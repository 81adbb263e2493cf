// README: Concurrency tests for ride state transitions (run with -race).
package ride

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestConcurrentAcceptVsCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.request(t, "rider1")

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.svc.Accept(ctx, DriverCommand{RideID: r.ID, DriverID: testDriver})
		errs <- err
	}()
	go func() {
		defer wg.Done()
		errs <- f.svc.Cancel(ctx, CancelCommand{RiderID: "rider1", RideID: r.ID})
	}()
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success < 1 {
		t.Fatal("at least one operation must succeed")
	}

	got, _ := f.store.Get(ctx, r.ID)
	if got.Status != StatusCancelled && got.Status != StatusAccepted {
		t.Fatalf("unexpected final status: %s", got.Status)
	}
	if got.CompletedAt != nil {
		t.Fatal("completedAt must stay unset")
	}
}

func TestConcurrentCancelSameRide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.request(t, "rider1")

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.svc.Cancel(ctx, CancelCommand{RiderID: "rider1", RideID: r.ID})
		}()
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly one successful cancel, got %d", success)
	}
	got, _ := f.store.Get(ctx, r.ID)
	if got.StatusVersion != 1 {
		t.Fatalf("status written %d times, want 1", got.StatusVersion)
	}
}

// README: Concurrency tests for check-in/check-out against Postgres (run with -race).
package location

import (
	"context"
	"errors"
	"sync"
	"testing"

	"crewtrack/internal/testdb"
	"crewtrack/internal/types"
)

func setupRaceService(t *testing.T) *Service {
	t.Helper()
	db := testdb.Open(t, "location_events", "worker_locations")
	return NewService(NewStore(db, nil), nil)
}

func TestConcurrentCheckInSameEmployee(t *testing.T) {
	ctx := context.Background()
	svc := setupRaceService(t)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CheckIn(ctx, CheckInCommand{
				EmployeeID: "e_race",
				JobID:      "j1",
				Position:   types.Point{Lat: 53.48, Lng: -2.24},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrAlreadyCheckedIn) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 success, got %d", success)
	}

	active, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].EmployeeID != "e_race" {
		t.Fatalf("expected one open record for e_race, got %+v", active)
	}
}

func TestConcurrentCheckOutSameRecord(t *testing.T) {
	ctx := context.Background()
	svc := setupRaceService(t)

	rec, err := svc.CheckIn(ctx, CheckInCommand{EmployeeID: "e_out", JobID: "j1"})
	if err != nil {
		t.Fatalf("check in: %v", err)
	}

	const attempts = 4
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CheckOut(ctx, CheckOutCommand{LocationID: rec.ID})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrNotCheckedIn) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 success, got %d", success)
	}

	got, err := svc.store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CheckedOutAt == nil {
		t.Fatalf("expected checked_out_at to be set")
	}
}

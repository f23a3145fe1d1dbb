package location

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"crewtrack/internal/types"
)

// memStore is an in-memory RecordStore + LivePositions for service tests.
type memStore struct {
	mu      sync.Mutex
	records map[types.ID]*Record
	events  []Event
	live    map[types.ID]types.Point
	failGet error
}

func newMemStore() *memStore {
	return &memStore{records: map[types.ID]*Record{}, live: map[types.ID]types.Point{}}
}

func (m *memStore) ListActive(_ context.Context) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, r := range m.records {
		if r.CheckedOutAt == nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	r, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) OpenByEmployee(_ context.Context, employeeID types.ID) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.EmployeeID == employeeID && r.CheckedOutAt == nil {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) Insert(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.records {
		if existing.EmployeeID == r.EmployeeID && existing.CheckedOutAt == nil {
			return ErrAlreadyCheckedIn
		}
	}
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *memStore) Close(_ context.Context, id types.ID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.CheckedOutAt != nil {
		return false, nil
	}
	r.CheckedOutAt = &at
	return true, nil
}

func (m *memStore) AppendEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

func (m *memStore) SetLive(_ context.Context, employeeID types.ID, pos types.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[employeeID] = pos
	return nil
}

func (m *memStore) RemoveLive(_ context.Context, employeeID types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, employeeID)
	return nil
}

func TestCheckInOpensRecord(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, store)
	ctx := context.Background()

	pos := types.Point{Lat: 53.40, Lng: -2.30}
	rec, err := svc.CheckIn(ctx, CheckInCommand{EmployeeID: "e1", JobID: "j1", Position: pos})
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if rec.ID == "" || rec.Status != StatusOnSite || rec.State() != StateOpen {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.JobID == nil || *rec.JobID != "j1" {
		t.Fatalf("job id not recorded: %+v", rec.JobID)
	}
	if store.live["e1"] != pos {
		t.Errorf("live position = %+v, want %+v", store.live["e1"], pos)
	}
	if len(store.events) != 1 || store.events[0].ToState != StateOpen {
		t.Errorf("expected one open event, got %+v", store.events)
	}
}

func TestCheckInRejectsSecondOpenRecord(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, CheckInCommand{EmployeeID: "e1", JobID: "j1"}); err != nil {
		t.Fatalf("first check in: %v", err)
	}
	_, err := svc.CheckIn(ctx, CheckInCommand{EmployeeID: "e1", JobID: "j2"})
	if !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn, got %v", err)
	}
	active, _ := svc.ListActive(ctx)
	if len(active) != 1 {
		t.Fatalf("expected 1 active record, got %d", len(active))
	}
}

func TestCheckInValidation(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	for _, cmd := range []CheckInCommand{{JobID: "j1"}, {EmployeeID: "e1"}, {}} {
		if _, err := svc.CheckIn(context.Background(), cmd); !errors.Is(err, ErrBadRequest) {
			t.Errorf("CheckIn(%+v) err = %v, want ErrBadRequest", cmd, err)
		}
	}
}

func TestCheckOutClosesRecord(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, store)
	ctx := context.Background()

	rec, err := svc.CheckIn(ctx, CheckInCommand{EmployeeID: "e1", JobID: "j1"})
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	closed, err := svc.CheckOut(ctx, CheckOutCommand{LocationID: rec.ID})
	if err != nil {
		t.Fatalf("check out: %v", err)
	}
	if closed.State() != StateClosed {
		t.Fatalf("expected closed record, got %+v", closed)
	}
	if _, ok := store.live["e1"]; ok {
		t.Error("live position should be removed after check out")
	}
	if _, err := svc.CheckOut(ctx, CheckOutCommand{LocationID: rec.ID}); !errors.Is(err, ErrNotCheckedIn) {
		t.Errorf("second check out err = %v, want ErrNotCheckedIn", err)
	}

	// A closed record frees the employee for a new check-in.
	if _, err := svc.CheckIn(ctx, CheckInCommand{EmployeeID: "e1", JobID: "j2"}); err != nil {
		t.Errorf("check in after check out: %v", err)
	}
}

func TestCheckOutUnknownRecord(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	if _, err := svc.CheckOut(context.Background(), CheckOutCommand{LocationID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.CheckOut(context.Background(), CheckOutCommand{}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestCheckOutConcurrentOnlyOneWins(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil)
	ctx := context.Background()
	rec, err := svc.CheckIn(ctx, CheckInCommand{EmployeeID: "e1", JobID: "j1"})
	if err != nil {
		t.Fatal(err)
	}

	const n = 5
	errs := make(chan error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.CheckOut(ctx, CheckOutCommand{LocationID: rec.ID})
			errs <- err
		}()
	}
	close(start)
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
}

package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"crewtrack/internal/modules/pricing"
	"crewtrack/internal/notify"
	"crewtrack/internal/types"
)

type memBookings struct {
	mu        sync.Mutex
	available map[string][]Slot
	saved     []Booking
	failSave  error
}

func key(id types.ID, date string) string { return string(id) + "/" + date }

func (m *memBookings) Availability(_ context.Context, id types.ID, date string) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Slot(nil), m.available[key(id, date)]...), nil
}

func (m *memBookings) Submit(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	m.saved = append(m.saved, *b)
	return nil
}

func (m *memBookings) ListByElectrician(_ context.Context, id types.ID, from time.Time) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, b := range m.saved {
		if b.ElectricianID == id && b.Date >= from.Format(DateLayout) {
			out = append(out, b)
		}
	}
	return out, nil
}

type stubRates map[types.ID]int64

func (s stubRates) GetRate(_ context.Context, id types.ID) (pricing.Rate, error) {
	amt, ok := s[id]
	if !ok {
		return pricing.Rate{}, pricing.ErrNotFound
	}
	return pricing.Rate{ElectricianID: id, DayRate: types.Money{Amount: amt, Currency: "GBP"}}, nil
}

type notes struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (n *notes) Notify(_ context.Context, x notify.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, x)
}

func newTestService() (*Service, *memBookings, *notes) {
	store := &memBookings{available: map[string][]Slot{
		key("el1", "2026-03-02"): {SlotMorning, SlotEvening},
		key("el2", "2026-03-02"): Slots,
	}}
	n := &notes{}
	svc := NewService(store, pricing.NewService(stubRates{"el1": 160}), n)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc, store, n
}

func TestBookConfirmsAvailableSlots(t *testing.T) {
	svc, store, n := newTestService()

	b, err := svc.Book(context.Background(), BookCommand{ElectricianID: "el1", Date: "2026-03-02", Slots: []string{"evening", "morning", "evening"}})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if b.Estimate.Amount != 180 {
		t.Errorf("estimate = %d, want 180", b.Estimate.Amount)
	}
	if len(b.Slots) != 2 || b.Slots[0] != SlotMorning || b.Slots[1] != SlotEvening {
		t.Errorf("slots = %v", b.Slots)
	}
	if len(store.saved) != 1 || store.saved[0].ID != b.ID {
		t.Fatalf("saved = %+v", store.saved)
	}
	if len(n.got) != 1 || n.got[0].Level != notify.LevelSuccess {
		t.Fatalf("notifications = %+v", n.got)
	}
}

func TestBookRejectsUnavailableSlot(t *testing.T) {
	svc, store, _ := newTestService()
	_, err := svc.Book(context.Background(), BookCommand{ElectricianID: "el1", Date: "2026-03-02", Slots: []string{"morning", "afternoon"}})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatal("unavailable slot was booked")
	}
}

func TestBookValidation(t *testing.T) {
	svc, store, n := newTestService()
	cases := []struct {
		name string
		cmd  BookCommand
		want error
	}{
		{"empty selection", BookCommand{ElectricianID: "el1", Date: "2026-03-02"}, ErrEmptySelection},
		{"bad date", BookCommand{ElectricianID: "el1", Date: "02/03/2026", Slots: []string{"morning"}}, ErrBadRequest},
		{"unknown slot", BookCommand{ElectricianID: "el1", Date: "2026-03-02", Slots: []string{"night"}}, ErrInvalidSlot},
		{"no electrician", BookCommand{Date: "2026-03-02", Slots: []string{"morning"}}, ErrBadRequest},
		{"no day rate", BookCommand{ElectricianID: "el2", Date: "2026-03-02", Slots: []string{"morning"}}, pricing.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Book(context.Background(), tc.cmd); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if len(store.saved) != 0 || len(n.got) != 0 {
		t.Fatal("validation failures must not submit or notify")
	}
}

func TestBookStoreFailureNotifies(t *testing.T) {
	svc, store, n := newTestService()
	store.failSave = ErrSlotUnavailable

	_, err := svc.Book(context.Background(), BookCommand{ElectricianID: "el1", Date: "2026-03-02", Slots: []string{"morning"}})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
	if len(n.got) != 1 || n.got[0].Level != notify.LevelFailure {
		t.Fatalf("notifications = %+v", n.got)
	}
}

func TestQuoteAndAvailability(t *testing.T) {
	svc, store, _ := newTestService()

	q, err := svc.Quote(context.Background(), BookCommand{ElectricianID: "el1", Date: "2026-03-02", Slots: []string{"morning", "evening"}})
	if err != nil {
		t.Fatal(err)
	}
	if q.Hours != 9 || q.Estimate.Amount != 180 {
		t.Fatalf("quote = %+v", q)
	}
	if len(store.saved) != 0 {
		t.Fatal("quote must not book")
	}

	a, err := svc.Availability(context.Background(), "el1", "2026-03-02")
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Slots) != 2 || a.DayRate.Amount != 160 {
		t.Fatalf("availability = %+v", a)
	}
	if _, err := svc.Availability(context.Background(), "el1", "tomorrow"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestUpcoming(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Book(context.Background(), BookCommand{ElectricianID: "el1", Date: "2026-03-02", Slots: []string{"morning"}}); err != nil {
		t.Fatal(err)
	}
	list, err := svc.Upcoming(context.Background(), "el1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("upcoming = %d bookings", len(list))
	}
}

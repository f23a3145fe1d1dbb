// README: Booking service: availability lookup, quotes and confirmed bookings.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"crewtrack/internal/metrics"
	"crewtrack/internal/notify"
	"crewtrack/internal/types"
)

var (
	ErrBadRequest      = errors.New("bad request")
	ErrInvalidSlot     = fmt.Errorf("%w: unknown slot", ErrBadRequest)
	ErrEmptySelection  = errors.New("select at least one slot")
	ErrSlotUnavailable = errors.New("slot not available")
	ErrPickerClosed    = errors.New("booking picker is not open")
)

type BookingStore interface {
	Availability(ctx context.Context, electricianID types.ID, date string) ([]Slot, error)
	Submit(ctx context.Context, b *Booking) error
	ListByElectrician(ctx context.Context, electricianID types.ID, from time.Time) ([]Booking, error)
}

// Pricer is satisfied by pricing.Service.
type Pricer interface {
	Estimator
	DayRate(ctx context.Context, electricianID types.ID) (types.Money, error)
}

type Service struct {
	store    BookingStore
	pricer   Pricer
	notifier notify.Notifier
	now      func() time.Time
}

func NewService(store BookingStore, pricer Pricer, notifier notify.Notifier) *Service {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Service{store: store, pricer: pricer, notifier: notifier, now: time.Now}
}

type BookCommand struct {
	ElectricianID types.ID
	Date          string
	Slots         []string
	ActorID       *types.ID
}

func (s *Service) Availability(ctx context.Context, electricianID types.ID, date string) (*Availability, error) {
	if electricianID == "" {
		return nil, ErrBadRequest
	}
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	slots, err := s.store.Availability(ctx, electricianID, date)
	if err != nil {
		return nil, err
	}
	rate, err := s.pricer.DayRate(ctx, electricianID)
	if err != nil {
		return nil, err
	}
	p := Picker{}
	p.Open(electricianID, date, slots)
	return &Availability{ElectricianID: electricianID, Date: date, Slots: p.Available(), DayRate: rate}, nil
}

// Quote prices a selection without booking it.
func (s *Service) Quote(ctx context.Context, cmd BookCommand) (*Quote, error) {
	p, rate, err := s.pick(ctx, cmd)
	if err != nil {
		return nil, err
	}
	sel := p.Selection()
	return &Quote{Slots: sel, Hours: TotalHours(sel), Estimate: p.Estimate(s.pricer, rate)}, nil
}

// Book validates the requested slots against stored availability and
// confirms them as one booking.
func (s *Service) Book(ctx context.Context, cmd BookCommand) (*Booking, error) {
	p, rate, err := s.pick(ctx, cmd)
	if err != nil {
		metrics.BookingsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	b := &Booking{
		ID:       types.ID(uuid.NewString()),
		Estimate: p.Estimate(s.pricer, rate),
		BookedBy: cmd.ActorID,
	}
	_, req, err := p.Confirm(ctx, submitFunc(func(ctx context.Context, req Request) (types.ID, error) {
		b.ElectricianID = req.ElectricianID
		b.Date = req.Date
		b.Slots = req.Slots
		b.CreatedAt = s.now()
		return b.ID, s.store.Submit(ctx, b)
	}))
	if err != nil {
		metrics.BookingsTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("electrician_id", string(cmd.ElectricianID)).Msg("booking failed")
		s.notifier.Notify(ctx, notify.Failure("Booking failed", bookingFailure(err)))
		return nil, err
	}

	metrics.BookingsTotal.WithLabelValues("ok").Inc()
	log.Info().
		Str("booking_id", string(b.ID)).
		Str("electrician_id", string(req.ElectricianID)).
		Str("date", req.Date).
		Int64("estimate", b.Estimate.Amount).
		Msg("booking confirmed")
	s.notifier.Notify(ctx, notify.Success("Booking confirmed", fmt.Sprintf("%d slot(s) booked for %s.", len(req.Slots), req.Date)))
	return b, nil
}

func (s *Service) Upcoming(ctx context.Context, electricianID types.ID) ([]Booking, error) {
	if electricianID == "" {
		return nil, ErrBadRequest
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	return s.store.ListByElectrician(ctx, electricianID, today)
}

// pick opens a picker on stored availability and applies the requested slots.
func (s *Service) pick(ctx context.Context, cmd BookCommand) (*Picker, types.Money, error) {
	if cmd.ElectricianID == "" {
		return nil, types.Money{}, ErrBadRequest
	}
	if _, err := ParseDate(cmd.Date); err != nil {
		return nil, types.Money{}, err
	}
	if len(cmd.Slots) == 0 {
		return nil, types.Money{}, ErrEmptySelection
	}
	want := make(map[Slot]bool, len(cmd.Slots))
	for _, raw := range cmd.Slots {
		sl, err := ParseSlot(raw)
		if err != nil {
			return nil, types.Money{}, err
		}
		want[sl] = true
	}

	avail, err := s.store.Availability(ctx, cmd.ElectricianID, cmd.Date)
	if err != nil {
		return nil, types.Money{}, err
	}
	p := &Picker{}
	p.Open(cmd.ElectricianID, cmd.Date, avail)
	for _, sl := range Slots {
		if want[sl] && !p.Toggle(sl) {
			return nil, types.Money{}, fmt.Errorf("%w: %s", ErrSlotUnavailable, sl)
		}
	}

	rate, err := s.pricer.DayRate(ctx, cmd.ElectricianID)
	if err != nil {
		return nil, types.Money{}, err
	}
	return p, rate, nil
}

type submitFunc func(ctx context.Context, req Request) (types.ID, error)

func (f submitFunc) Submit(ctx context.Context, req Request) (types.ID, error) { return f(ctx, req) }

func bookingFailure(err error) string {
	if errors.Is(err, ErrSlotUnavailable) {
		return "One of the selected slots was just taken. Pick again."
	}
	return "Could not save the booking. Please try again."
}

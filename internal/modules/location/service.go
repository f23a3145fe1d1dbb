// README: Location service opens and closes check-in records and mirrors live positions.
package location

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"crewtrack/internal/types"
)

var (
	ErrNotFound         = errors.New("location record not found")
	ErrAlreadyCheckedIn = errors.New("employee already has an open check-in")
	ErrNotCheckedIn     = errors.New("location record is not open")
	ErrBadRequest       = errors.New("bad request")
	ErrUnknownStatus    = errors.New("unknown worker status")
)

// RecordStore is the durable side of the location store.
type RecordStore interface {
	ListActive(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id types.ID) (*Record, error)
	OpenByEmployee(ctx context.Context, employeeID types.ID) (*Record, error)
	Insert(ctx context.Context, r *Record) error
	Close(ctx context.Context, id types.ID, at time.Time) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
}

// LivePositions mirrors open check-ins into a GEO index for map queries.
type LivePositions interface {
	SetLive(ctx context.Context, employeeID types.ID, pos types.Point) error
	RemoveLive(ctx context.Context, employeeID types.ID) error
}

type Service struct {
	store RecordStore
	live  LivePositions
	now   func() time.Time
}

// NewService builds the service. live may be nil.
func NewService(store RecordStore, live LivePositions) *Service {
	return &Service{store: store, live: live, now: time.Now}
}

type CheckInCommand struct {
	EmployeeID types.ID
	JobID      types.ID
	Position   types.Point
	ActorID    *types.ID
}

type CheckOutCommand struct {
	LocationID types.ID
	ActorID    *types.ID
}

func (s *Service) ListActive(ctx context.Context) ([]Record, error) {
	return s.store.ListActive(ctx)
}

// CheckIn opens a new record. A second check-in while one is open is rejected
// with ErrAlreadyCheckedIn; the caller must check out first.
func (s *Service) CheckIn(ctx context.Context, cmd CheckInCommand) (*Record, error) {
	if cmd.EmployeeID == "" || cmd.JobID == "" {
		return nil, ErrBadRequest
	}
	if _, err := s.store.OpenByEmployee(ctx, cmd.EmployeeID); err == nil {
		return nil, ErrAlreadyCheckedIn
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	jobID := cmd.JobID
	rec := &Record{
		ID:          types.ID(uuid.NewString()),
		EmployeeID:  cmd.EmployeeID,
		JobID:       &jobID,
		Status:      StatusOnSite,
		Position:    cmd.Position,
		CheckedInAt: s.now(),
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, rec, StateNone, StateOpen, cmd.ActorID)

	if s.live != nil {
		if err := s.live.SetLive(ctx, rec.EmployeeID, rec.Position); err != nil {
			log.Warn().Err(err).Str("employee_id", string(rec.EmployeeID)).Msg("live position update failed")
		}
	}
	return rec, nil
}

// CheckOut closes an open record and returns it with CheckedOutAt set.
func (s *Service) CheckOut(ctx context.Context, cmd CheckOutCommand) (*Record, error) {
	if cmd.LocationID == "" {
		return nil, ErrBadRequest
	}
	rec, err := s.store.Get(ctx, cmd.LocationID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(rec.State(), StateClosed) {
		return nil, ErrNotCheckedIn
	}
	at := s.now()
	ok, err := s.store.Close(ctx, rec.ID, at)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotCheckedIn
	}
	rec.CheckedOutAt = &at
	s.appendEvent(ctx, rec, StateOpen, StateClosed, cmd.ActorID)

	if s.live != nil {
		if err := s.live.RemoveLive(ctx, rec.EmployeeID); err != nil {
			log.Warn().Err(err).Str("employee_id", string(rec.EmployeeID)).Msg("live position removal failed")
		}
	}
	return rec, nil
}

func (s *Service) appendEvent(ctx context.Context, rec *Record, from, to State, actor *types.ID) {
	err := s.store.AppendEvent(ctx, &Event{
		ID:         types.ID(uuid.NewString()),
		LocationID: rec.ID,
		EmployeeID: rec.EmployeeID,
		FromState:  from,
		ToState:    to,
		ActorID:    actor,
		CreatedAt:  s.now(),
	})
	if err != nil {
		log.Warn().Err(err).Str("location_id", string(rec.ID)).Msg("append location event failed")
	}
}

// README: Check-in/check-out orchestration: validation, in-flight guard, geolocation and notifications.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"crewtrack/internal/metrics"
	"crewtrack/internal/modules/jobs"
	"crewtrack/internal/modules/location"
	"crewtrack/internal/notify"
	"crewtrack/internal/types"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrInFlight     = errors.New("a check-in or check-out for this worker is already in progress")
	ErrUnknownJob   = fmt.Errorf("%w: unknown job", ErrValidation)
	ErrNoGeolocator = errors.New("no geolocation provider")
)

// Locations is the mutating side of the location store.
type Locations interface {
	CheckIn(ctx context.Context, cmd location.CheckInCommand) (*location.Record, error)
	CheckOut(ctx context.Context, cmd location.CheckOutCommand) (*location.Record, error)
}

type JobGetter interface {
	Get(ctx context.Context, id types.ID) (*jobs.Job, error)
}

// Geolocator reports the current device position of a worker. It should
// honour ctx; the service bounds the wait either way.
type Geolocator interface {
	CurrentPosition(ctx context.Context, employeeID types.ID) (types.Point, error)
}

type Options struct {
	GeoTimeout time.Duration
	Fallback   types.Point
}

type Service struct {
	locations Locations
	jobs      JobGetter
	geo       Geolocator
	notifier  notify.Notifier
	opts      Options

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService builds the service. geo and notifier may be nil.
func NewService(locations Locations, jobGetter JobGetter, geo Geolocator, notifier notify.Notifier, opts Options) *Service {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	if opts.GeoTimeout <= 0 {
		opts.GeoTimeout = 3 * time.Second
	}
	return &Service{
		locations: locations,
		jobs:      jobGetter,
		geo:       geo,
		notifier:  notifier,
		opts:      opts,
		inFlight:  make(map[string]struct{}),
	}
}

type Request struct {
	EmployeeID   types.ID
	EmployeeName string
	JobID        types.ID
	ActorID      *types.ID
}

type CheckOutRequest struct {
	LocationID   types.ID
	EmployeeID   types.ID
	EmployeeName string
	ActorID      *types.ID
}

type Result struct {
	Record *location.Record
	Source Source
}

func (s *Service) CheckIn(ctx context.Context, req Request) (*Result, error) {
	if req.EmployeeID == "" || req.JobID == "" {
		metrics.CheckInTotal.WithLabelValues("check_in", "rejected").Inc()
		return nil, fmt.Errorf("%w: employee and job are required", ErrValidation)
	}
	key := string(req.EmployeeID)
	if !s.acquire(key) {
		metrics.CheckInTotal.WithLabelValues("check_in", "rejected").Inc()
		return nil, ErrInFlight
	}
	defer s.release(key)

	job, err := s.jobs.Get(ctx, req.JobID)
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		metrics.CheckInTotal.WithLabelValues("check_in", "rejected").Inc()
		s.notifier.Notify(ctx, notify.Failure("Check-in failed", "The selected job no longer exists."))
		return nil, ErrUnknownJob
	case err != nil:
		log.Warn().Err(err).Str("job_id", string(req.JobID)).Msg("job lookup failed; continuing without site coordinates")
		job = nil
	}

	pos, src := ResolveCoordinates(job, s.locate(ctx, req.EmployeeID), s.opts.Fallback)
	metrics.GeolocationSourceTotal.WithLabelValues(string(src)).Inc()

	rec, err := s.locations.CheckIn(ctx, location.CheckInCommand{
		EmployeeID: req.EmployeeID,
		JobID:      req.JobID,
		Position:   pos,
		ActorID:    req.ActorID,
	})
	if err != nil {
		metrics.CheckInTotal.WithLabelValues("check_in", "error").Inc()
		log.Error().Err(err).Str("employee_id", string(req.EmployeeID)).Msg("check-in failed")
		s.notifier.Notify(ctx, notify.Failure("Check-in failed", checkInFailure(err)))
		return nil, err
	}

	metrics.CheckInTotal.WithLabelValues("check_in", "ok").Inc()
	log.Info().
		Str("employee_id", string(req.EmployeeID)).
		Str("location_id", string(rec.ID)).
		Str("source", string(src)).
		Msg("checked in")
	s.notifier.Notify(ctx, notify.Success("Checked in", fmt.Sprintf("%s checked in.", displayName(req.EmployeeName, req.EmployeeID))))
	return &Result{Record: rec, Source: src}, nil
}

func (s *Service) CheckOut(ctx context.Context, req CheckOutRequest) (*location.Record, error) {
	if req.LocationID == "" {
		metrics.CheckInTotal.WithLabelValues("check_out", "rejected").Inc()
		return nil, fmt.Errorf("%w: no open check-in", ErrValidation)
	}
	// The record key is always held so duplicate check-outs collide whatever
	// the caller sent; the employee key also excludes a concurrent check-in.
	keys := []string{"location:" + string(req.LocationID)}
	if req.EmployeeID != "" {
		keys = append(keys, string(req.EmployeeID))
	}
	if !s.acquire(keys...) {
		metrics.CheckInTotal.WithLabelValues("check_out", "rejected").Inc()
		return nil, ErrInFlight
	}
	defer s.release(keys...)

	rec, err := s.locations.CheckOut(ctx, location.CheckOutCommand{LocationID: req.LocationID, ActorID: req.ActorID})
	if err != nil {
		metrics.CheckInTotal.WithLabelValues("check_out", "error").Inc()
		log.Error().Err(err).Str("location_id", string(req.LocationID)).Msg("check-out failed")
		s.notifier.Notify(ctx, notify.Failure("Check-out failed", fmt.Sprintf("Could not check out %s.", displayName(req.EmployeeName, req.EmployeeID))))
		return nil, err
	}

	metrics.CheckInTotal.WithLabelValues("check_out", "ok").Inc()
	log.Info().Str("location_id", string(rec.ID)).Str("employee_id", string(rec.EmployeeID)).Msg("checked out")
	name := displayName(req.EmployeeName, rec.EmployeeID)
	s.notifier.Notify(ctx, notify.Success("Checked out", fmt.Sprintf("%s checked out.", name)))
	return rec, nil
}

// InFlight reports whether a mutation for key (an employee id) is running.
func (s *Service) InFlight(employeeID types.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[string(employeeID)]
	return ok
}

// locate asks the device for a position, giving up after GeoTimeout even if
// the provider ignores cancellation.
func (s *Service) locate(ctx context.Context, employeeID types.ID) GeoResult {
	if s.geo == nil {
		return GeoResult{Err: ErrNoGeolocator}
	}
	geoCtx, cancel := context.WithTimeout(ctx, s.opts.GeoTimeout)
	defer cancel()

	ch := make(chan GeoResult, 1)
	go func() {
		p, err := s.geo.CurrentPosition(geoCtx, employeeID)
		ch <- GeoResult{Point: p, Err: err}
	}()

	select {
	case res := <-ch:
		if res.Err != nil {
			log.Debug().Err(res.Err).Str("employee_id", string(employeeID)).Msg("device position unavailable")
		}
		return res
	case <-geoCtx.Done():
		log.Debug().Err(geoCtx.Err()).Str("employee_id", string(employeeID)).Msg("device position timed out")
		return GeoResult{Err: geoCtx.Err()}
	}
}

// acquire takes every key or none.
func (s *Service) acquire(keys ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		if _, busy := s.inFlight[k]; busy {
			return false
		}
	}
	for _, k := range keys {
		s.inFlight[k] = struct{}{}
	}
	return true
}

func (s *Service) release(keys ...string) {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.inFlight, k)
	}
	s.mu.Unlock()
}

func checkInFailure(err error) string {
	if errors.Is(err, location.ErrAlreadyCheckedIn) {
		return "This worker is already checked in. Check them out first."
	}
	return "Could not save the check-in. Please try again."
}

func displayName(name string, id types.ID) string {
	if name != "" {
		return name
	}
	return string(id)
}

// README: Job registry service; fills missing site coordinates from the geocoder.
package jobs

import (
	"context"

	"github.com/rs/zerolog/log"

	"crewtrack/internal/types"
)

type JobStore interface {
	List(ctx context.Context) ([]Job, error)
	Get(ctx context.Context, id types.ID) (*Job, error)
	SetPosition(ctx context.Context, id types.ID, pos types.Point) error
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

type Service struct {
	store    JobStore
	geocoder Geocoder
}

// NewService builds the service. geocoder may be nil, in which case jobs
// without stored coordinates stay without them.
func NewService(store JobStore, geocoder Geocoder) *Service {
	return &Service{store: store, geocoder: geocoder}
}

func (s *Service) List(ctx context.Context) ([]Job, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		s.locate(ctx, &list[i])
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Job, error) {
	j, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.locate(ctx, j)
	return j, nil
}

func (s *Service) locate(ctx context.Context, j *Job) {
	if j.Position != nil || j.Address == "" || s.geocoder == nil {
		return
	}
	pos, err := s.geocoder.Geocode(ctx, j.Address)
	if err != nil {
		log.Warn().Err(err).Str("job_id", string(j.ID)).Msg("geocoding job address failed")
		return
	}
	j.Position = &pos
	if err := s.store.SetPosition(ctx, j.ID, pos); err != nil {
		log.Warn().Err(err).Str("job_id", string(j.ID)).Msg("persisting geocoded position failed")
	}
}

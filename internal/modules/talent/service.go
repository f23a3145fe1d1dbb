// README: Talent search service: GEO prefilter, exact haversine radius filter, map view.
package talent

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"crewtrack/internal/config"
	"crewtrack/internal/modules/jobs"
	"crewtrack/internal/modules/presence"
	"crewtrack/internal/types"
)

var ErrBadRequest = errors.New("bad request")

// prefilterSlack widens the Redis radius so boundary candidates survive
// until the exact filter.
const (
	prefilterSlackRatio = 1.01
	prefilterSlackMiles = 0.1
)

type ElectricianStore interface {
	List(ctx context.Context) ([]Electrician, error)
	GetMany(ctx context.Context, ids []types.ID) ([]Electrician, error)
	Version(ctx context.Context) (IndexVersion, error)
}

type GeoIndex interface {
	Index(ctx context.Context, e Electrician) error
	Nearby(ctx context.Context, ref types.Point, radiusMiles float64) ([]types.ID, error)
	Size(ctx context.Context) (int64, error)
}

type Service struct {
	store    ElectricianStore
	index    GeoIndex
	defaults config.TalentConfig

	reindexMu sync.Mutex

	mu      sync.Mutex
	indexed IndexVersion
	ready   bool
}

// NewService builds the service. index may be nil, in which case every
// search scans the full list.
func NewService(store ElectricianStore, index GeoIndex, defaults config.TalentConfig) *Service {
	return &Service{store: store, index: index, defaults: defaults}
}

// Defaults returns the configured reference point and radius.
func (s *Service) Defaults() SearchQuery {
	return SearchQuery{Reference: s.defaults.Reference, RadiusMiles: s.defaults.RadiusMiles}
}

func (s *Service) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	if q.RadiusMiles < 0 {
		return nil, ErrBadRequest
	}
	candidates, err := s.candidates(ctx, q)
	if err != nil {
		return nil, err
	}
	matches := WithinRadius(q.Reference, q.RadiusMiles, candidates)
	return &SearchResult{
		Reference:   q.Reference,
		RadiusMiles: q.RadiusMiles,
		Count:       len(matches),
		Matches:     matches,
	}, nil
}

func (s *Service) candidates(ctx context.Context, q SearchQuery) ([]Electrician, error) {
	if s.index != nil {
		err := s.ensureIndexed(ctx)
		if err == nil {
			var ids []types.ID
			ids, err = s.index.Nearby(ctx, q.Reference, q.RadiusMiles*prefilterSlackRatio+prefilterSlackMiles)
			if err == nil {
				return s.store.GetMany(ctx, ids)
			}
		}
		log.Warn().Err(err).Msg("geo prefilter unavailable; scanning all electricians")
	}
	return s.store.List(ctx)
}

// Reindex loads every electrician into the GEO index and returns how many
// were indexed.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	s.reindexMu.Lock()
	defer s.reindexMu.Unlock()
	return s.reindexLocked(ctx)
}

// ensureIndexed rebuilds the GEO index when the located electricians in the
// store no longer match what was last indexed, or the index lost entries.
func (s *Service) ensureIndexed(ctx context.Context) error {
	if fresh, err := s.indexFresh(ctx); err != nil || fresh {
		return err
	}
	s.reindexMu.Lock()
	defer s.reindexMu.Unlock()
	if fresh, err := s.indexFresh(ctx); err != nil || fresh {
		return err
	}
	n, err := s.reindexLocked(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("electricians", n).Msg("electrician geo index rebuilt")
	return nil
}

func (s *Service) indexFresh(ctx context.Context) (bool, error) {
	v, err := s.store.Version(ctx)
	if err != nil {
		return false, err
	}
	size, err := s.index.Size(ctx)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready && s.indexed == v && size >= v.Located, nil
}

func (s *Service) reindexLocked(ctx context.Context) (int, error) {
	// Read the version first so a change made while listing shows up as
	// stale on the next search.
	v, err := s.store.Version(ctx)
	if err != nil {
		return 0, err
	}
	list, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range list {
		if err := s.index.Index(ctx, e); err != nil {
			return n, err
		}
		if e.Position != nil {
			n++
		}
	}
	s.mu.Lock()
	s.indexed = v
	s.ready = true
	s.mu.Unlock()
	return n, nil
}

// BuildMap assembles the operator map from reconciled presence, jobs and a
// talent search, optionally preselecting one marker.
func BuildMap(records []presence.Record, jobList []jobs.Job, matches []Match, selected string) *Map {
	m := NewMap(WorkerMarkers(records), JobMarkers(jobList), ElectricianMarkers(matches))
	if selected != "" {
		m.Select(selected)
	}
	return m
}

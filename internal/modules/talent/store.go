// README: Electrician store backed by Postgres rows and a Redis GEO index.
package talent

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"crewtrack/internal/types"
)

const electricianGeoKey = "geo:electricians"

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

const electricianSelect = `
	SELECT e.id, e.name, e.trade, e.lat, e.lng, COALESCE(r.day_rate, 0), COALESCE(r.currency, 'GBP')
	FROM electricians e
	LEFT JOIN electrician_rates r ON r.electrician_id = e.id`

func (s *Store) List(ctx context.Context) ([]Electrician, error) {
	rows, err := s.db.Query(ctx, electricianSelect+` ORDER BY e.name, e.id`)
	if err != nil {
		return nil, err
	}
	return collectElectricians(rows)
}

func (s *Store) GetMany(ctx context.Context, ids []types.ID) ([]Electrician, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	rows, err := s.db.Query(ctx, electricianSelect+` WHERE e.id = ANY($1) ORDER BY e.name, e.id`, raw)
	if err != nil {
		return nil, err
	}
	return collectElectricians(rows)
}

func collectElectricians(rows pgx.Rows) ([]Electrician, error) {
	defer rows.Close()
	var out []Electrician
	for rows.Next() {
		var (
			e        Electrician
			lat, lng *float64
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Trade, &lat, &lng, &e.DayRate.Amount, &e.DayRate.Currency); err != nil {
			return nil, err
		}
		if lat != nil && lng != nil {
			e.Position = &types.Point{Lat: *lat, Lng: *lng}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Version fingerprints located electricians by id and position.
func (s *Store) Version(ctx context.Context) (IndexVersion, error) {
	var v IndexVersion
	err := s.db.QueryRow(ctx, `
		SELECT count(*), COALESCE(md5(string_agg(id || ':' || lat::text || ':' || lng::text, ',' ORDER BY id)), '')
		FROM electricians
		WHERE lat IS NOT NULL AND lng IS NOT NULL
	`).Scan(&v.Located, &v.Digest)
	return v, err
}

// Size returns the number of members in the GEO index.
func (s *Store) Size(ctx context.Context) (int64, error) {
	return s.redis.ZCard(ctx, electricianGeoKey).Result()
}

// Index adds or moves e in the GEO index. Electricians without a position
// are removed from it.
func (s *Store) Index(ctx context.Context, e Electrician) error {
	if e.Position == nil {
		return s.redis.ZRem(ctx, electricianGeoKey, string(e.ID)).Err()
	}
	return s.redis.GeoAdd(ctx, electricianGeoKey, &redis.GeoLocation{
		Name:      string(e.ID),
		Longitude: e.Position.Lng,
		Latitude:  e.Position.Lat,
	}).Err()
}

// Nearby returns ids within radiusMiles of ref according to Redis. Redis uses
// a slightly different Earth radius, so callers must treat this as a coarse
// prefilter.
func (s *Store) Nearby(ctx context.Context, ref types.Point, radiusMiles float64) ([]types.ID, error) {
	results, err := s.redis.GeoSearch(ctx, electricianGeoKey, &redis.GeoSearchQuery{
		Longitude:  ref.Lng,
		Latitude:   ref.Lat,
		Radius:     radiusMiles,
		RadiusUnit: "mi",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}

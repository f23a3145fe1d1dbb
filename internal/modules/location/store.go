// README: Location store backed by Postgres records and Redis GEO live positions.
package location

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"crewtrack/internal/types"
)

const liveWorkersKey = "geo:workers"

// uniqueViolation is the Postgres error code raised by the one-open-check-in
// partial index (worker_locations_one_open_idx).
const uniqueViolation = "23505"

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

const recordColumns = `id, employee_id, job_id, status, lat, lng, checked_in_at, checked_out_at`

func (s *Store) ListActive(ctx context.Context) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+recordColumns+`
        FROM worker_locations
        WHERE checked_out_at IS NULL
        ORDER BY checked_in_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if errors.Is(err, ErrUnknownStatus) {
			log.Error().Err(err).Msg("skipping location record with unknown status")
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Record, error) {
	row := s.db.QueryRow(ctx, `
        SELECT `+recordColumns+`
        FROM worker_locations
        WHERE id = $1`, string(id))
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (s *Store) OpenByEmployee(ctx context.Context, employeeID types.ID) (*Record, error) {
	row := s.db.QueryRow(ctx, `
        SELECT `+recordColumns+`
        FROM worker_locations
        WHERE employee_id = $1 AND checked_out_at IS NULL
        ORDER BY checked_in_at DESC
        LIMIT 1`, string(employeeID))
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (s *Store) Insert(ctx context.Context, r *Record) error {
	var jobID *string
	if r.JobID != nil {
		v := string(*r.JobID)
		jobID = &v
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO worker_locations (
            id, employee_id, job_id, status, lat, lng, checked_in_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(r.ID),
		string(r.EmployeeID),
		jobID,
		string(r.Status),
		r.Position.Lat, r.Position.Lng,
		r.CheckedInAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrAlreadyCheckedIn
	}
	return err
}

// Close stamps checked_out_at on an open record. It reports false when the
// record was already closed by someone else.
func (s *Store) Close(ctx context.Context, id types.ID, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE worker_locations
        SET checked_out_at = $1
        WHERE id = $2 AND checked_out_at IS NULL`,
		at, string(id),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	var actor *string
	if e.ActorID != nil {
		v := string(*e.ActorID)
		actor = &v
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO location_events (
            id, location_id, employee_id, from_state, to_state, actor_id, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(e.ID),
		string(e.LocationID),
		string(e.EmployeeID),
		string(e.FromState),
		string(e.ToState),
		actor,
		e.CreatedAt,
	)
	return err
}

func (s *Store) SetLive(ctx context.Context, employeeID types.ID, pos types.Point) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.GeoAdd(ctx, liveWorkersKey, &redis.GeoLocation{
		Name:      string(employeeID),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	}).Err()
}

func (s *Store) RemoveLive(ctx context.Context, employeeID types.ID) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.ZRem(ctx, liveWorkersKey, string(employeeID)).Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		r          Record
		id, emp    string
		jobID      *string
		status     string
		checkedOut *time.Time
	)
	if err := row.Scan(&id, &emp, &jobID, &status, &r.Position.Lat, &r.Position.Lng, &r.CheckedInAt, &checkedOut); err != nil {
		return nil, err
	}
	r.ID = types.ID(id)
	r.EmployeeID = types.ID(emp)
	if jobID != nil {
		j := types.ID(*jobID)
		r.JobID = &j
	}
	r.CheckedOutAt = checkedOut
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	r.Status = st
	return &r, nil
}

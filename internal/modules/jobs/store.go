// README: Job registry store backed by PostgreSQL.
package jobs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crewtrack/internal/types"
)

var ErrNotFound = errors.New("job not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const jobColumns = `id, title, COALESCE(client, ''), COALESCE(location, ''), lat, lng, status`

func (s *Store) List(ctx context.Context) ([]Job, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+jobColumns+`
        FROM employer_jobs
        ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Job, error) {
	row := s.db.QueryRow(ctx, `
        SELECT `+jobColumns+`
        FROM employer_jobs
        WHERE id = $1`, string(id))
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return j, err
}

func (s *Store) SetPosition(ctx context.Context, id types.ID, pos types.Point) error {
	_, err := s.db.Exec(ctx, `
        UPDATE employer_jobs SET lat = $1, lng = $2
        WHERE id = $3 AND lat IS NULL`,
		pos.Lat, pos.Lng, string(id),
	)
	return err
}

func scanJob(row pgx.Row) (*Job, error) {
	var (
		j        Job
		id       string
		lat, lng *float64
	)
	if err := row.Scan(&id, &j.Title, &j.Client, &j.Address, &lat, &lng, &j.Status); err != nil {
		return nil, err
	}
	j.ID = types.ID(id)
	if lat != nil && lng != nil {
		j.Position = &types.Point{Lat: *lat, Lng: *lng}
	}
	return &j, nil
}

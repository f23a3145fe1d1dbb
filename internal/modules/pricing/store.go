// README: Day-rate store backed by PostgreSQL.
package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crewtrack/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetRate(ctx context.Context, electricianID types.ID) (Rate, error) {
	row := s.db.QueryRow(ctx, `
		SELECT electrician_id, day_rate, currency, updated_at
		FROM electrician_rates
		WHERE electrician_id = $1
	`, electricianID)

	var r Rate
	if err := row.Scan(&r.ElectricianID, &r.DayRate.Amount, &r.DayRate.Currency, &r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rate{}, ErrNotFound
		}
		return Rate{}, err
	}
	return r, nil
}

// README: Booking store backed by PostgreSQL (availability and confirmed bookings).
package booking

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"crewtrack/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Availability returns the unbooked slots for electricianID on date.
func (s *Store) Availability(ctx context.Context, electricianID types.ID, date string) ([]Slot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT slot
		FROM electrician_availability
		WHERE electrician_id = $1 AND day = $2::date AND booking_id IS NULL
	`, electricianID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Slot
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		slot, err := ParseSlot(raw)
		if err != nil {
			log.Warn().Str("electrician_id", string(electricianID)).Str("slot", raw).Msg("skipping unknown availability slot")
			continue
		}
		out = append(out, slot)
	}
	return out, rows.Err()
}

// Submit stores b and claims its slots in one transaction. If any slot was
// taken in the meantime nothing is written and ErrSlotUnavailable is returned.
func (s *Store) Submit(ctx context.Context, b *Booking) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	slots := make([]string, len(b.Slots))
	for i, sl := range b.Slots {
		slots[i] = string(sl)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (id, electrician_id, day, slots, estimate_amount, currency, booked_by, created_at)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8)
	`, b.ID, b.ElectricianID, b.Date, slots, b.Estimate.Amount, b.Estimate.Currency, b.BookedBy, b.CreatedAt)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE electrician_availability
		SET booking_id = $1
		WHERE electrician_id = $2 AND day = $3::date AND slot = ANY($4) AND booking_id IS NULL
	`, b.ID, b.ElectricianID, b.Date, slots)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != int64(len(slots)) {
		return ErrSlotUnavailable
	}
	return tx.Commit(ctx)
}

// ListByElectrician returns bookings for electricianID from the given day on.
func (s *Store) ListByElectrician(ctx context.Context, electricianID types.ID, from time.Time) ([]Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, electrician_id, to_char(day, 'YYYY-MM-DD'), slots, estimate_amount, currency, booked_by, created_at
		FROM bookings
		WHERE electrician_id = $1 AND day >= $2::date
		ORDER BY day, created_at
	`, electricianID, from.Format(DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var (
			b     Booking
			slots []string
		)
		if err := rows.Scan(&b.ID, &b.ElectricianID, &b.Date, &slots, &b.Estimate.Amount, &b.Estimate.Currency, &b.BookedBy, &b.CreatedAt); err != nil {
			return nil, err
		}
		for _, raw := range slots {
			if sl, err := ParseSlot(raw); err == nil {
				b.Slots = append(b.Slots, sl)
			}
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

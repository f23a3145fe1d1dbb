// README: Employee directory store backed by PostgreSQL.
package directory

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"crewtrack/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context) ([]Employee, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, name, status, COALESCE(team_role, ''), COALESCE(phone, ''), COALESCE(avatar_initials, '')
        FROM employer_employees
        ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var (
			e      Employee
			id     string
			status string
		)
		if err := rows.Scan(&id, &e.Name, &status, &e.TeamRole, &e.Phone, &e.AvatarInitials); err != nil {
			return nil, err
		}
		e.ID = types.ID(id)
		e.Status = EmploymentStatus(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

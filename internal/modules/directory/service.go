// README: Employee directory service.
package directory

import (
	"context"

	"crewtrack/internal/types"
)

type Lister interface {
	List(ctx context.Context) ([]Employee, error)
}

type Service struct {
	store Lister
}

func NewService(store Lister) *Service {
	return &Service{store: store}
}

// List returns every employee, deriving avatar initials where the directory
// has none on file.
func (s *Service) List(ctx context.Context) ([]Employee, error) {
	employees, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range employees {
		if employees[i].AvatarInitials == "" {
			employees[i].AvatarInitials = types.Initials(employees[i].Name)
		}
	}
	return employees, nil
}

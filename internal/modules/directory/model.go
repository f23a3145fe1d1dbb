// README: Employee directory records.
package directory

import "crewtrack/internal/types"

// EmploymentStatus is free-form HR data; only StatusOnLeave carries meaning here.
type EmploymentStatus string

const (
	StatusActive  EmploymentStatus = "Active"
	StatusOnLeave EmploymentStatus = "On Leave"
)

type Employee struct {
	ID             types.ID
	Name           string
	Status         EmploymentStatus
	TeamRole       string
	Phone          string
	AvatarInitials string
}

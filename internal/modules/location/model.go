// README: Location records (open/closed check-ins), worker status enum and lifecycle.
package location

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"crewtrack/internal/types"
)

// Status is the closed set of worker statuses shown on the dashboard.
type Status string

const (
	StatusOnSite  Status = "on_site"
	StatusEnRoute Status = "en_route"
	StatusOffice  Status = "office"
	StatusOnLeave Status = "on_leave"
)

// Statuses lists every valid Status in display order.
var Statuses = []Status{StatusOnSite, StatusEnRoute, StatusOffice, StatusOnLeave}

// Display is the badge styling for a status.
type Display struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (s Status) Valid() bool {
	_, ok := s.display()
	return ok
}

// Display returns the badge for s. It panics on an invalid status; values that
// came through ParseStatus are always valid.
func (s Status) Display() Display {
	d, ok := s.display()
	if !ok {
		panic(fmt.Sprintf("location: no display for status %q", string(s)))
	}
	return d
}

func (s Status) display() (Display, bool) {
	switch s {
	case StatusOnSite:
		return Display{Label: "On Site", Color: "green", Icon: "map-pin"}, true
	case StatusEnRoute:
		return Display{Label: "En Route", Color: "blue", Icon: "navigation"}, true
	case StatusOffice:
		return Display{Label: "Office", Color: "yellow", Icon: "building"}, true
	case StatusOnLeave:
		return Display{Label: "On Leave", Color: "gray", Icon: "calendar-off"}, true
	}
	return Display{}, false
}

func (s Status) Label() string {
	if d, ok := s.display(); ok {
		return d.Label
	}
	return string(s)
}

// ParseStatus accepts either the stored code ("on_site") or the display label
// ("On Site"), case-insensitively.
func ParseStatus(v string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(v))
	norm = strings.ReplaceAll(norm, " ", "_")
	norm = strings.ReplaceAll(norm, "-", "_")
	s := Status(norm)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, v)
	}
	return s, nil
}

func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, string(s))
	}
	return json.Marshal(s.Label())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// State is the lifecycle of a single location record.
type State string

const (
	StateNone   State = "none"
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// AllowedTransitions represents the check-in lifecycle as code.
var AllowedTransitions = map[State][]State{
	StateNone: {StateOpen},
	StateOpen: {StateClosed},
}

func CanTransition(from, to State) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

type Record struct {
	ID           types.ID
	EmployeeID   types.ID
	JobID        *types.ID
	Status       Status
	Position     types.Point
	CheckedInAt  time.Time
	CheckedOutAt *time.Time
}

func (r *Record) State() State {
	if r.CheckedOutAt != nil {
		return StateClosed
	}
	return StateOpen
}

// Event is one row of the check-in audit trail.
type Event struct {
	ID         types.ID
	LocationID types.ID
	EmployeeID types.ID
	FromState  State
	ToState    State
	ActorID    *types.ID
	CreatedAt  time.Time
}

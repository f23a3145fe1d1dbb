// README: Worker presence records joined from directory, location and job data.
package presence

import (
	"encoding/json"
	"errors"
	"time"

	"crewtrack/internal/modules/location"
	"crewtrack/internal/types"
)

var ErrOnSiteWithoutCheckIn = errors.New("on-site record requires an open check-in")

// Presence is either NotCheckedIn or CheckedIn.
type Presence interface {
	isPresence()
}

type NotCheckedIn struct{}

type CheckedIn struct {
	LocationID types.ID
	Since      time.Time
	Position   types.Point
}

func (NotCheckedIn) isPresence() {}
func (CheckedIn) isPresence()    {}

// Record is the reconciled view of one worker. Build it with NewRecord.
type Record struct {
	EmployeeID     types.ID
	Name           string
	Role           string
	Phone          string
	AvatarInitials string
	Status         location.Status
	JobTitle       *string
	Presence       Presence
}

// NewRecord validates the status/presence pairing.
func NewRecord(base Record) (Record, error) {
	if base.Presence == nil {
		base.Presence = NotCheckedIn{}
	}
	if !base.Status.Valid() {
		return Record{}, location.ErrUnknownStatus
	}
	if _, open := base.Presence.(CheckedIn); base.Status == location.StatusOnSite && !open {
		return Record{}, ErrOnSiteWithoutCheckIn
	}
	return base, nil
}

// LocationID returns the open check-in id, if any.
func (r Record) LocationID() (types.ID, bool) {
	if c, ok := r.Presence.(CheckedIn); ok {
		return c.LocationID, true
	}
	return "", false
}

// CanCheckOut reports whether a check-out action may be offered.
func (r Record) CanCheckOut() bool {
	_, ok := r.LocationID()
	return ok
}

// In returns r with its check-in time expressed in loc.
func (r Record) In(loc *time.Location) Record {
	if c, ok := r.Presence.(CheckedIn); ok {
		c.Since = c.Since.In(loc)
		r.Presence = c
	}
	return r
}

// CheckInTime is the display time of the open check-in, or "". It is
// rendered in the location carried by Since; see In.
func (r Record) CheckInTime() string {
	if c, ok := r.Presence.(CheckedIn); ok {
		return c.Since.Format("15:04")
	}
	return ""
}

type recordJSON struct {
	EmployeeID     types.ID         `json:"employeeId"`
	Name           string           `json:"name"`
	Role           string           `json:"role"`
	Phone          string           `json:"phone"`
	AvatarInitials string           `json:"avatarInitials"`
	Status         location.Status  `json:"status"`
	Display        location.Display `json:"display"`
	JobTitle       *string          `json:"jobTitle"`
	CheckInTime    *string          `json:"checkInTime"`
	Lat            *float64         `json:"lat"`
	Lng            *float64         `json:"lng"`
	LocationID     *types.ID        `json:"locationId"`
	CanCheckOut    bool             `json:"canCheckOut"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		EmployeeID:     r.EmployeeID,
		Name:           r.Name,
		Role:           r.Role,
		Phone:          r.Phone,
		AvatarInitials: r.AvatarInitials,
		Status:         r.Status,
		JobTitle:       r.JobTitle,
		CanCheckOut:    r.CanCheckOut(),
	}
	if r.Status.Valid() {
		out.Display = r.Status.Display()
	}
	if c, ok := r.Presence.(CheckedIn); ok {
		id, lat, lng, at := c.LocationID, c.Position.Lat, c.Position.Lng, r.CheckInTime()
		out.LocationID = &id
		out.Lat = &lat
		out.Lng = &lng
		out.CheckInTime = &at
	}
	return json.Marshal(out)
}

// Counts partitions records over the four canonical statuses.
type Counts struct {
	OnSite  int `json:"onSite"`
	EnRoute int `json:"enRoute"`
	Office  int `json:"office"`
	OnLeave int `json:"onLeave"`
}

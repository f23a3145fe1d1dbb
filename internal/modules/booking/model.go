// README: Booking slots, requests and stored bookings.
package booking

import (
	"fmt"
	"time"

	"crewtrack/internal/types"
)

const DateLayout = "2006-01-02"

// Slot is one of the three fixed daily windows.
type Slot string

const (
	SlotMorning   Slot = "morning"
	SlotAfternoon Slot = "afternoon"
	SlotEvening   Slot = "evening"
)

// Slots lists every slot in day order.
var Slots = []Slot{SlotMorning, SlotAfternoon, SlotEvening}

func (s Slot) Valid() bool {
	return s.Hours() > 0
}

// Hours is the billable length of the slot.
func (s Slot) Hours() int {
	switch s {
	case SlotMorning, SlotAfternoon:
		return 5
	case SlotEvening:
		return 4
	}
	return 0
}

func ParseSlot(v string) (Slot, error) {
	s := Slot(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlot, v)
	}
	return s, nil
}

// TotalHours sums the hours of slots.
func TotalHours(slots []Slot) int {
	n := 0
	for _, s := range slots {
		n += s.Hours()
	}
	return n
}

// ParseDate validates a YYYY-MM-DD booking date.
func ParseDate(v string) (time.Time, error) {
	d, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrBadRequest)
	}
	return d, nil
}

// Request is what a confirmed picker emits.
type Request struct {
	ElectricianID types.ID `json:"electricianId"`
	Date          string   `json:"date"`
	Slots         []Slot   `json:"slots"`
}

type Booking struct {
	ID            types.ID    `json:"id"`
	ElectricianID types.ID    `json:"electricianId"`
	Date          string      `json:"date"`
	Slots         []Slot      `json:"slots"`
	Estimate      types.Money `json:"estimate"`
	BookedBy      *types.ID   `json:"bookedBy,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Availability is the set of open slots for one electrician and day.
type Availability struct {
	ElectricianID types.ID    `json:"electricianId"`
	Date          string      `json:"date"`
	Slots         []Slot      `json:"slots"`
	DayRate       types.Money `json:"dayRate"`
}

type Quote struct {
	Slots    []Slot      `json:"slots"`
	Hours    int         `json:"hours"`
	Estimate types.Money `json:"estimate"`
}

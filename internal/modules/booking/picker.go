// README: Slot picker for one electrician and day; selection never outlives the session.
package booking

import (
	"context"

	"crewtrack/internal/types"
)

type Estimator interface {
	Estimate(hours int, dayRate types.Money) types.Money
}

type Submitter interface {
	Submit(ctx context.Context, req Request) (types.ID, error)
}

// Picker holds the selection for one open booking session. It is not safe
// for concurrent use.
type Picker struct {
	open          bool
	electricianID types.ID
	date          string
	available     map[Slot]bool
	selected      map[Slot]bool
}

// Open starts a session. Any previous selection is discarded.
func (p *Picker) Open(electricianID types.ID, date string, available []Slot) {
	p.open = true
	p.electricianID = electricianID
	p.date = date
	p.available = make(map[Slot]bool, len(available))
	for _, s := range available {
		if s.Valid() {
			p.available[s] = true
		}
	}
	p.selected = map[Slot]bool{}
}

// Close ends the session and clears the selection.
func (p *Picker) Close() {
	*p = Picker{}
}

func (p *Picker) IsOpen() bool { return p.open }

// Available returns the offered slots in day order.
func (p *Picker) Available() []Slot {
	return p.ordered(p.available)
}

// Toggle flips s in the selection. Slots that are not available are ignored;
// the return value reports whether anything changed.
func (p *Picker) Toggle(s Slot) bool {
	if !p.open || !p.available[s] {
		return false
	}
	if p.selected[s] {
		delete(p.selected, s)
	} else {
		p.selected[s] = true
	}
	return true
}

func (p *Picker) SelectAll() {
	if !p.open {
		return
	}
	for s := range p.available {
		p.selected[s] = true
	}
}

func (p *Picker) Clear() {
	if p.open {
		p.selected = map[Slot]bool{}
	}
}

// Selection returns the selected slots in day order.
func (p *Picker) Selection() []Slot {
	return p.ordered(p.selected)
}

func (p *Picker) CanConfirm() bool {
	return p.open && len(p.selected) > 0
}

func (p *Picker) Estimate(e Estimator, dayRate types.Money) types.Money {
	return e.Estimate(TotalHours(p.Selection()), dayRate)
}

// Confirm submits the selection. An empty selection returns ErrEmptySelection
// without calling sub. On success the picker is closed; on failure it keeps
// its selection so the caller can retry.
func (p *Picker) Confirm(ctx context.Context, sub Submitter) (types.ID, Request, error) {
	if !p.open {
		return "", Request{}, ErrPickerClosed
	}
	if len(p.selected) == 0 {
		return "", Request{}, ErrEmptySelection
	}
	req := Request{ElectricianID: p.electricianID, Date: p.date, Slots: p.Selection()}
	id, err := sub.Submit(ctx, req)
	if err != nil {
		return "", Request{}, err
	}
	p.Close()
	return id, req, nil
}

func (p *Picker) ordered(set map[Slot]bool) []Slot {
	out := make([]Slot, 0, len(set))
	for _, s := range Slots {
		if set[s] {
			out = append(out, s)
		}
	}
	return out
}

// README: Map markers for workers, jobs and electricians plus click-to-select state.
package talent

import (
	"fmt"

	"crewtrack/internal/modules/jobs"
	"crewtrack/internal/modules/presence"
	"crewtrack/internal/types"
)

type MarkerKind string

const (
	KindWorker      MarkerKind = "worker"
	KindJob         MarkerKind = "job"
	KindElectrician MarkerKind = "electrician"
)

// Marker ids are prefixed with their kind so ids from different sources
// never collide.
type Marker struct {
	ID       string      `json:"id"`
	Kind     MarkerKind  `json:"kind"`
	Position types.Point `json:"position"`
	Label    string      `json:"label"`
	Detail   string      `json:"detail,omitempty"`
}

func markerID(kind MarkerKind, id types.ID) string {
	return string(kind) + ":" + string(id)
}

// WorkerMarkers plots workers with an open check-in.
func WorkerMarkers(records []presence.Record) []Marker {
	var out []Marker
	for _, r := range records {
		c, ok := r.Presence.(presence.CheckedIn)
		if !ok {
			continue
		}
		detail := r.Status.Label()
		if r.JobTitle != nil {
			detail += " · " + *r.JobTitle
		}
		out = append(out, Marker{
			ID:       markerID(KindWorker, r.EmployeeID),
			Kind:     KindWorker,
			Position: c.Position,
			Label:    r.Name,
			Detail:   detail,
		})
	}
	return out
}

func JobMarkers(list []jobs.Job) []Marker {
	var out []Marker
	for _, j := range list {
		if j.Position == nil {
			continue
		}
		out = append(out, Marker{
			ID:       markerID(KindJob, j.ID),
			Kind:     KindJob,
			Position: *j.Position,
			Label:    j.Title,
			Detail:   j.Address,
		})
	}
	return out
}

func ElectricianMarkers(matches []Match) []Marker {
	out := make([]Marker, 0, len(matches))
	for _, m := range matches {
		e := m.Electrician
		out = append(out, Marker{
			ID:       markerID(KindElectrician, e.ID),
			Kind:     KindElectrician,
			Position: *e.Position,
			Label:    e.Name,
			Detail:   fmt.Sprintf("%s · %.1f mi", e.Trade, m.DistanceMiles),
		})
	}
	return out
}

// Map is the marker set shown to the operator and the currently selected marker.
type Map struct {
	markers  []Marker
	index    map[string]int
	selected string
}

func NewMap(sets ...[]Marker) *Map {
	m := &Map{index: map[string]int{}}
	for _, set := range sets {
		for _, mk := range set {
			if _, dup := m.index[mk.ID]; dup {
				continue
			}
			m.index[mk.ID] = len(m.markers)
			m.markers = append(m.markers, mk)
		}
	}
	return m
}

func (m *Map) Markers() []Marker {
	return m.markers
}

// Select marks id as selected. Unknown ids leave the selection unchanged.
func (m *Map) Select(id string) bool {
	if _, ok := m.index[id]; !ok {
		return false
	}
	m.selected = id
	return true
}

func (m *Map) Deselect() {
	m.selected = ""
}

// Overlay returns the info card for the selected marker.
func (m *Map) Overlay() (Marker, bool) {
	i, ok := m.index[m.selected]
	if !ok {
		return Marker{}, false
	}
	return m.markers[i], true
}

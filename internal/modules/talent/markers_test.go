package talent

import (
	"testing"
	"time"

	"crewtrack/internal/modules/jobs"
	"crewtrack/internal/modules/location"
	"crewtrack/internal/modules/presence"
	"crewtrack/internal/types"
)

func mustRecord(t *testing.T, r presence.Record) presence.Record {
	t.Helper()
	out, err := presence.NewRecord(r)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestMarkersOmitItemsWithoutCoordinates(t *testing.T) {
	title := "Consumer Unit Upgrade"
	records := []presence.Record{
		mustRecord(t, presence.Record{EmployeeID: "e1", Name: "Dana Scully", Status: location.StatusOnSite, JobTitle: &title,
			Presence: presence.CheckedIn{LocationID: "l1", Since: time.Now(), Position: types.Point{Lat: 53.40, Lng: -2.30}}}),
		mustRecord(t, presence.Record{EmployeeID: "e2", Name: "Fox Mulder", Status: location.StatusOffice}),
	}
	jobList := []jobs.Job{
		{ID: "j1", Title: "Consumer Unit Upgrade", Position: pt(53.40, -2.30)},
		{ID: "j2", Title: "Loft Rewire"},
	}
	matches := WithinRadius(reference, 25, []Electrician{{ID: "el1", Name: "Ada", Trade: "Domestic", Position: pt(53.41, -2.16)}})

	m := BuildMap(records, jobList, matches, "")
	ids := map[string]MarkerKind{}
	for _, mk := range m.Markers() {
		ids[mk.ID] = mk.Kind
	}
	want := map[string]MarkerKind{"worker:e1": KindWorker, "job:j1": KindJob, "electrician:el1": KindElectrician}
	if len(ids) != len(want) {
		t.Fatalf("markers = %v", ids)
	}
	for id, kind := range want {
		if ids[id] != kind {
			t.Errorf("marker %s: kind %q, want %q", id, ids[id], kind)
		}
	}
}

func TestMapSelectAndOverlay(t *testing.T) {
	m := NewMap(
		[]Marker{{ID: "job:1", Kind: KindJob, Label: "Loft Rewire"}},
		[]Marker{{ID: "electrician:1", Kind: KindElectrician, Label: "Ada"}},
	)
	if _, ok := m.Overlay(); ok {
		t.Fatal("overlay shown with nothing selected")
	}
	if !m.Select("electrician:1") {
		t.Fatal("select failed")
	}
	ov, ok := m.Overlay()
	if !ok || ov.Label != "Ada" {
		t.Fatalf("overlay = %+v", ov)
	}
	if m.Select("worker:404") {
		t.Fatal("unknown id selected")
	}
	if ov, _ := m.Overlay(); ov.ID != "electrician:1" {
		t.Fatal("unknown select changed the selection")
	}
	m.Deselect()
	if _, ok := m.Overlay(); ok {
		t.Fatal("overlay after deselect")
	}
}

func TestNewMapDropsDuplicateIDs(t *testing.T) {
	m := NewMap([]Marker{{ID: "job:1", Label: "first"}, {ID: "job:1", Label: "second"}})
	if len(m.Markers()) != 1 || m.Markers()[0].Label != "first" {
		t.Fatalf("markers = %+v", m.Markers())
	}
}

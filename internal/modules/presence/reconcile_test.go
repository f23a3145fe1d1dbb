package presence

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"crewtrack/internal/modules/directory"
	"crewtrack/internal/modules/jobs"
	"crewtrack/internal/modules/location"
	"crewtrack/internal/types"
)

var checkInAt = time.Date(2026, 3, 2, 8, 15, 0, 0, time.UTC)

func jobRef(id types.ID) *types.ID { return &id }

func fixture() ([]directory.Employee, []location.Record, []jobs.Job) {
	employees := []directory.Employee{
		{ID: "e1", Name: "Dana Scully", Status: directory.StatusActive, TeamRole: "Electrician", AvatarInitials: "DS"},
		{ID: "e2", Name: "Fox Mulder", Status: directory.StatusOnLeave, TeamRole: "Apprentice", AvatarInitials: "FM"},
		{ID: "e3", Name: "Walter Skinner", Status: "Suspended", TeamRole: "Supervisor", AvatarInitials: "WS"},
		{ID: "e4", Name: "Monica Reyes", Status: directory.StatusActive, TeamRole: "Electrician", AvatarInitials: "MR"},
	}
	locations := []location.Record{
		{ID: "l1", EmployeeID: "e1", JobID: jobRef("j1"), Status: location.StatusOnSite, Position: types.Point{Lat: 53.40, Lng: -2.30}, CheckedInAt: checkInAt},
		{ID: "l2", EmployeeID: "e4", JobID: jobRef("j2"), Status: location.StatusEnRoute, Position: types.Point{Lat: 53.1, Lng: -2.1}, CheckedInAt: checkInAt},
	}
	jobList := []jobs.Job{
		{ID: "j1", Title: "Consumer Unit Upgrade"},
		{ID: "j2", Title: "EV Charger Install"},
	}
	return employees, locations, jobList
}

func TestReconcileDeterministic(t *testing.T) {
	e, l, j := fixture()
	first := Reconcile(e, l, j)
	for i := 0; i < 5; i++ {
		if got := Reconcile(e, l, j); !reflect.DeepEqual(first, got) {
			t.Fatalf("reconcile not deterministic on run %d", i)
		}
	}
	for i, r := range first {
		if r.EmployeeID != e[i].ID {
			t.Errorf("position %d = %s, want %s (employee input order)", i, r.EmployeeID, e[i].ID)
		}
	}
}

func TestReconcileStatusDerivation(t *testing.T) {
	e, l, j := fixture()
	got := Reconcile(e, l, j)

	want := map[types.ID]location.Status{
		"e1": location.StatusOnSite,
		"e2": location.StatusOnLeave,
		"e3": location.StatusOffice,
		"e4": location.StatusEnRoute,
	}
	for _, r := range got {
		if r.Status != want[r.EmployeeID] {
			t.Errorf("%s status = %s, want %s", r.EmployeeID, r.Status, want[r.EmployeeID])
		}
	}

	// No open record: no location fields at all.
	for _, r := range got[1:3] {
		if _, ok := r.LocationID(); ok || r.JobTitle != nil || r.CheckInTime() != "" || r.CanCheckOut() {
			t.Errorf("%s should have no location-dependent fields: %+v", r.EmployeeID, r)
		}
	}
}

func TestReconcileJoinsJobTitleAndCoordinates(t *testing.T) {
	e, l, j := fixture()
	r := Reconcile(e, l, j)[0]
	if r.JobTitle == nil || *r.JobTitle != "Consumer Unit Upgrade" {
		t.Fatalf("job title = %v", r.JobTitle)
	}
	c, ok := r.Presence.(CheckedIn)
	if !ok {
		t.Fatalf("expected CheckedIn presence, got %T", r.Presence)
	}
	if c.LocationID != "l1" || c.Position != (types.Point{Lat: 53.40, Lng: -2.30}) {
		t.Errorf("unexpected presence %+v", c)
	}
	if r.CheckInTime() != "08:15" {
		t.Errorf("check-in time = %q", r.CheckInTime())
	}
}

func TestReconcileOnSiteAlwaysHasLocationID(t *testing.T) {
	e, l, j := fixture()
	for _, r := range Reconcile(e, l, j) {
		if r.Status == location.StatusOnSite {
			if _, ok := r.LocationID(); !ok {
				t.Errorf("%s is On Site without a location id", r.EmployeeID)
			}
		}
	}
}

func TestReconcileIgnoresClosedAndUnknownJob(t *testing.T) {
	e, _, j := fixture()
	out := checkInAt.Add(time.Hour)
	l := []location.Record{
		{ID: "old", EmployeeID: "e1", Status: location.StatusOnSite, CheckedInAt: checkInAt, CheckedOutAt: &out},
		{ID: "l9", EmployeeID: "e3", JobID: jobRef("missing"), Status: location.StatusOnSite, CheckedInAt: checkInAt},
	}
	got := Reconcile(e, l, j)
	if got[0].Status != location.StatusOffice || got[0].CanCheckOut() {
		t.Errorf("closed record must not count as checked in: %+v", got[0])
	}
	if got[2].Status != location.StatusOnSite || got[2].JobTitle != nil {
		t.Errorf("unknown job should leave title empty: %+v", got[2])
	}
}

func TestReconcileDuplicateOpenRecordsPicksLatest(t *testing.T) {
	e, _, j := fixture()
	a := location.Record{ID: "la", EmployeeID: "e1", Status: location.StatusOnSite, CheckedInAt: checkInAt}
	b := location.Record{ID: "lb", EmployeeID: "e1", Status: location.StatusEnRoute, CheckedInAt: checkInAt.Add(time.Minute)}

	for _, order := range [][]location.Record{{a, b}, {b, a}} {
		got := Reconcile(e, order, j)
		if id, _ := got[0].LocationID(); id != "lb" {
			t.Errorf("picked %s, want lb", id)
		}
	}
}

func TestReconcileEmptyInputs(t *testing.T) {
	if got := Reconcile(nil, nil, nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	e, _, _ := fixture()
	got := Reconcile(e, nil, nil)
	if len(got) != len(e) {
		t.Fatalf("expected %d records, got %d", len(e), len(got))
	}
}

func TestNewRecordRejectsOnSiteWithoutCheckIn(t *testing.T) {
	_, err := NewRecord(Record{EmployeeID: "e1", Status: location.StatusOnSite})
	if !errors.Is(err, ErrOnSiteWithoutCheckIn) {
		t.Fatalf("expected ErrOnSiteWithoutCheckIn, got %v", err)
	}
	_, err = NewRecord(Record{EmployeeID: "e1", Status: "Lunch"})
	if !errors.Is(err, location.ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
}

func TestCountByStatus(t *testing.T) {
	e, l, j := fixture()
	records := Reconcile(e, l, j)
	records = append(records, Record{EmployeeID: "bad", Status: "Lunch"})
	got := CountByStatus(records)
	want := Counts{OnSite: 1, EnRoute: 1, Office: 1, OnLeave: 1}
	if got != want {
		t.Fatalf("counts = %+v, want %+v", got, want)
	}
}

func TestFilter(t *testing.T) {
	e, l, j := fixture()
	records := Reconcile(e, l, j)

	if got := Filter(records, "", nil); !reflect.DeepEqual(got, records) {
		t.Fatalf("empty filter should return all records in order")
	}

	tests := []struct {
		name     string
		search   string
		statuses []location.Status
		want     []types.ID
	}{
		{"name substring case-insensitive", "MULD", nil, []types.ID{"e2"}},
		{"job title substring", "charger", nil, []types.ID{"e4"}},
		{"matches name or title", "in", nil, []types.ID{"e3", "e4"}},
		{"title match needs a title", "upgrade", nil, []types.ID{"e1"}},
		{"status only", "", []location.Status{location.StatusOffice, location.StatusOnLeave}, []types.ID{"e2", "e3"}},
		{"search and status", "e", []location.Status{location.StatusOnSite}, []types.ID{"e1"}},
		{"no match", "zzz", nil, []types.ID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(records, tt.search, tt.statuses)
			ids := make([]types.ID, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.EmployeeID)
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("Filter(%q, %v) = %v, want %v", tt.search, tt.statuses, ids, tt.want)
			}
		})
	}
}

func TestFilterSubsetProperty(t *testing.T) {
	e, l, j := fixture()
	records := Reconcile(e, l, j)
	for _, s := range []string{"a", "DA", "install", "x", " "} {
		got := Filter(records, s, nil)
		var want []types.ID
		for _, r := range records {
			title := ""
			if r.JobTitle != nil {
				title = *r.JobTitle
			}
			if strings.Contains(strings.ToLower(r.Name), strings.ToLower(s)) || strings.Contains(strings.ToLower(title), strings.ToLower(s)) {
				want = append(want, r.EmployeeID)
			}
		}
		var ids []types.ID
		for _, r := range got {
			ids = append(ids, r.EmployeeID)
		}
		if !reflect.DeepEqual(ids, want) {
			t.Errorf("Filter(%q) = %v, want %v", s, ids, want)
		}
	}
}

func TestLastUpdated(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		now  time.Time
		want string
	}{
		{at, "now"},
		{at.Add(59 * time.Second), "now"},
		{at.Add(time.Minute), "1m ago"},
		{at.Add(42*time.Minute + 10*time.Second), "42m ago"},
		{at.Add(time.Hour), "09:00"},
	}
	for _, tc := range cases {
		if got := LastUpdated(tc.now, at); got != tc.want {
			t.Errorf("LastUpdated(+%s) = %q, want %q", tc.now.Sub(at), got, tc.want)
		}
	}
}

func TestRecordJSON(t *testing.T) {
	e, l, j := fixture()
	records := Reconcile(e, l, j)

	b, err := json.Marshal(records[0])
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if m["status"] != "On Site" || m["locationId"] != "l1" || m["canCheckOut"] != true || m["checkInTime"] != "08:15" {
		t.Errorf("unexpected checked-in JSON: %s", b)
	}

	b, err = json.Marshal(records[2])
	if err != nil {
		t.Fatal(err)
	}
	m = nil
	_ = json.Unmarshal(b, &m)
	if m["status"] != "Office" || m["locationId"] != nil || m["canCheckOut"] != false || m["lat"] != nil {
		t.Errorf("unexpected office JSON: %s", b)
	}
}

// README: Reconciliation, status counts, filtering and the last-updated label.
package presence

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"crewtrack/internal/modules/directory"
	"crewtrack/internal/modules/jobs"
	"crewtrack/internal/modules/location"
	"crewtrack/internal/types"
)

// Reconcile joins employees with their open location record and its job. The
// result follows employee input order. Closed records are ignored; if an
// employee has several open records the latest check-in is used and the
// duplicate is logged.
func Reconcile(employees []directory.Employee, locations []location.Record, jobList []jobs.Job) []Record {
	open := latestOpen(locations)

	titles := make(map[types.ID]string, len(jobList))
	for _, j := range jobList {
		titles[j.ID] = j.Title
	}

	out := make([]Record, 0, len(employees))
	for _, e := range employees {
		base := Record{
			EmployeeID:     e.ID,
			Name:           e.Name,
			Role:           e.TeamRole,
			Phone:          e.Phone,
			AvatarInitials: e.AvatarInitials,
			Status:         statusFromEmployment(e.Status),
			Presence:       NotCheckedIn{},
		}
		if loc, ok := open[e.ID]; ok {
			base.Status = loc.Status
			base.Presence = CheckedIn{LocationID: loc.ID, Since: loc.CheckedInAt, Position: loc.Position}
			if loc.JobID != nil {
				if title, ok := titles[*loc.JobID]; ok {
					t := title
					base.JobTitle = &t
				}
			}
		}
		rec, err := NewRecord(base)
		if err != nil {
			log.Error().Err(err).Str("employee_id", string(e.ID)).Msg("dropping unreconcilable presence record")
			continue
		}
		out = append(out, rec)
	}
	return out
}

func latestOpen(locations []location.Record) map[types.ID]location.Record {
	open := make(map[types.ID]location.Record, len(locations))
	for _, l := range locations {
		if l.CheckedOutAt != nil {
			continue
		}
		prev, dup := open[l.EmployeeID]
		if !dup {
			open[l.EmployeeID] = l
			continue
		}
		log.Warn().
			Str("employee_id", string(l.EmployeeID)).
			Str("location_id", string(l.ID)).
			Str("other_location_id", string(prev.ID)).
			Msg("employee has more than one open check-in")
		if newer(l, prev) {
			open[l.EmployeeID] = l
		}
	}
	return open
}

// newer orders by check-in time, then id, so the choice does not depend on input order.
func newer(a, b location.Record) bool {
	if !a.CheckedInAt.Equal(b.CheckedInAt) {
		return a.CheckedInAt.After(b.CheckedInAt)
	}
	return a.ID > b.ID
}

func statusFromEmployment(s directory.EmploymentStatus) location.Status {
	if strings.EqualFold(strings.TrimSpace(string(s)), string(directory.StatusOnLeave)) {
		return location.StatusOnLeave
	}
	return location.StatusOffice
}

// CountByStatus counts records per canonical status. Records with any other
// status are logged and left out of every bucket.
func CountByStatus(records []Record) Counts {
	var c Counts
	for _, r := range records {
		switch r.Status {
		case location.StatusOnSite:
			c.OnSite++
		case location.StatusEnRoute:
			c.EnRoute++
		case location.StatusOffice:
			c.Office++
		case location.StatusOnLeave:
			c.OnLeave++
		default:
			log.Error().Str("employee_id", string(r.EmployeeID)).Str("status", string(r.Status)).Msg("uncounted presence status")
		}
	}
	return c
}

// Filter keeps records whose name or job title contains search
// (case-insensitive) and whose status is in statuses. An empty search or an
// empty status set does not filter.
func Filter(records []Record, search string, statuses []location.Status) []Record {
	needle := strings.ToLower(search)
	allowed := make(map[location.Status]bool, len(statuses))
	for _, s := range statuses {
		allowed[s] = true
	}

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if len(allowed) > 0 && !allowed[r.Status] {
			continue
		}
		if needle != "" && !matches(r, needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matches(r Record, needle string) bool {
	if strings.Contains(strings.ToLower(r.Name), needle) {
		return true
	}
	return r.JobTitle != nil && strings.Contains(strings.ToLower(*r.JobTitle), needle)
}

// LastUpdated renders how long ago at was relative to now. Older times are
// shown as a clock time in at's own location.
func LastUpdated(now, at time.Time) string {
	d := now.Sub(at)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	default:
		return at.Format("15:04")
	}
}

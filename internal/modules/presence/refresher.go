// README: Refresher keeps the reconciled presence list fresh on a timer and on demand.
package presence

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"crewtrack/internal/metrics"
	"crewtrack/internal/modules/directory"
	"crewtrack/internal/modules/jobs"
	"crewtrack/internal/modules/location"
	"crewtrack/internal/notify"
)

const cycleTimeout = 15 * time.Second

type EmployeeSource interface {
	List(ctx context.Context) ([]directory.Employee, error)
}

type LocationSource interface {
	ListActive(ctx context.Context) ([]location.Record, error)
}

type JobSource interface {
	List(ctx context.Context) ([]jobs.Job, error)
}

type Sources struct {
	Employees EmployeeSource
	Locations LocationSource
	Jobs      JobSource
}

// Snapshot is the outcome of one refresh cycle. Failures names the
// collections that could not be fetched and were treated as empty.
type Snapshot struct {
	Records   []Record
	Counts    Counts
	UpdatedAt time.Time
	Failures  []string
}

type Refresher struct {
	src      Sources
	notifier notify.Notifier
	interval time.Duration
	zone     *time.Location
	now      func() time.Time

	// group coalesces requests that wait for the same cycle number;
	// cycleMu keeps at most one cycle in flight.
	group   singleflight.Group
	cycleMu sync.Mutex

	mu      sync.RWMutex
	started uint64
	gen     uint64
	snap    Snapshot
	have    bool
}

// NewRefresher builds a refresher. Check-in and update times in snapshots are
// expressed in zone (UTC when nil).
func NewRefresher(src Sources, notifier notify.Notifier, interval time.Duration, zone *time.Location) *Refresher {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	if zone == nil {
		zone = time.UTC
	}
	return &Refresher{src: src, notifier: notifier, interval: interval, zone: zone, now: time.Now}
}

// Snapshot returns the latest reconciled list, if any cycle has completed.
func (r *Refresher) Snapshot() (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap, r.have
}

// Current returns the latest snapshot, refreshing first when none exists yet.
func (r *Refresher) Current(ctx context.Context) Snapshot {
	if s, ok := r.Snapshot(); ok {
		return s
	}
	return r.Refresh(ctx)
}

// Refresh returns a snapshot from a cycle that started after the call. A
// request made while a cycle is in flight waits for the one follow-up cycle
// shared by every request made during it.
func (r *Refresher) Refresh(ctx context.Context) Snapshot {
	r.mu.RLock()
	target := r.started + 1
	r.mu.RUnlock()

	v, _, _ := r.group.Do(strconv.FormatUint(target, 10), func() (interface{}, error) {
		r.cycleMu.Lock()
		defer r.cycleMu.Unlock()

		r.mu.Lock()
		if r.gen >= target {
			snap := r.snap
			r.mu.Unlock()
			return snap, nil
		}
		r.started++
		gen := r.started
		r.mu.Unlock()

		cycleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cycleTimeout)
		defer cancel()
		return r.cycle(cycleCtx, gen), nil
	})
	return v.(Snapshot)
}

// Run refreshes immediately and then every interval until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	r.Refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

func (r *Refresher) cycle(ctx context.Context, gen uint64) Snapshot {
	var (
		employees []directory.Employee
		locations []location.Record
		jobList   []jobs.Job

		mu       sync.Mutex
		failures []string
	)
	fail := func(collection string, err error) {
		mu.Lock()
		failures = append(failures, collection)
		mu.Unlock()
		metrics.FetchFailuresTotal.WithLabelValues(collection).Inc()
		log.Warn().Err(err).Str("collection", collection).Msg("presence source fetch failed")
		r.notifier.Notify(ctx, notify.Warning("Refresh incomplete", fmt.Sprintf("Could not load %s; showing partial data.", collection)))
	}

	// Each fetch handles its own error so one failing collection never
	// cancels the others.
	var g errgroup.Group
	g.Go(func() error {
		v, err := r.src.Employees.List(ctx)
		if err != nil {
			fail("employees", err)
			return nil
		}
		employees = v
		return nil
	})
	g.Go(func() error {
		v, err := r.src.Locations.ListActive(ctx)
		if err != nil {
			fail("locations", err)
			return nil
		}
		locations = v
		return nil
	})
	g.Go(func() error {
		v, err := r.src.Jobs.List(ctx)
		if err != nil {
			fail("jobs", err)
			return nil
		}
		jobList = v
		return nil
	})
	_ = g.Wait()

	records := Reconcile(employees, locations, jobList)
	for i := range records {
		records[i] = records[i].In(r.zone)
	}
	snap := Snapshot{
		Records:   records,
		Counts:    CountByStatus(records),
		UpdatedAt: r.now().In(r.zone),
		Failures:  sortedFailures(failures),
	}

	result := "complete"
	if len(failures) > 0 {
		result = "partial"
	}
	metrics.PresenceRefreshTotal.WithLabelValues(result).Inc()

	r.mu.Lock()
	r.snap = snap
	r.gen = gen
	r.have = true
	r.mu.Unlock()
	return snap
}

var collectionOrder = []string{"employees", "locations", "jobs"}

func sortedFailures(failures []string) []string {
	if len(failures) == 0 {
		return nil
	}
	set := make(map[string]bool, len(failures))
	for _, f := range failures {
		set[f] = true
	}
	out := make([]string, 0, len(failures))
	for _, c := range collectionOrder {
		if set[c] {
			out = append(out, c)
		}
	}
	return out
}

/*
scheduler.go - Daily planning digest

PURPOSE:
  Once a day (cron spec, default 06:00) warms the holiday calendar for the
  current and the next year and logs what the dashboard would show: the
  month's visits still to do and next month's upcoming ones.

DESIGN:
  - robfig/cron drives the schedule; the job itself is RunNow
  - Runs are serialized; a run that overlaps the previous one is skipped
  - The last digest is kept for inspection

USAGE:
  scheduler := NewDigestScheduler(svc, "0 6 * * *")
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - planning/dashboard.go: The projections logged here
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/josoavj/Planificator/planning"
	"github.com/robfig/cron/v3"
)

// Digest summarizes one run.
type Digest struct {
	RanAt      time.Time
	Year       int
	Month      time.Month
	InProgress int
	Remaining  int // in progress and still upcoming
	Upcoming   int
	Holidays   int // this year's holidays, computed and custom
}

// DigestScheduler runs the daily digest.
type DigestScheduler struct {
	Service *planning.Service
	Spec    string
	Timeout time.Duration

	cron    *cron.Cron
	entry   cron.EntryID
	running sync.Mutex
	mu      sync.Mutex
	last    Digest
}

// NewDigestScheduler creates a scheduler. An empty spec disables it.
func NewDigestScheduler(svc *planning.Service, spec string) *DigestScheduler {
	return &DigestScheduler{
		Service: svc,
		Spec:    spec,
		Timeout: time.Minute,
	}
}

// Start begins the scheduler.
func (ds *DigestScheduler) Start() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.Spec == "" {
		log.Println("[Scheduler] Disabled, not starting")
		return nil
	}

	c := cron.New()
	entry, err := c.AddFunc(ds.Spec, ds.run)
	if err != nil {
		return err
	}
	ds.cron = c
	ds.entry = entry
	c.Start()

	log.Printf("[Scheduler] Started with spec %q, next run at %v", ds.Spec, c.Entry(entry).Next)
	return nil
}

// Stop stops the scheduler and waits for a running digest to finish.
func (ds *DigestScheduler) Stop() {
	ds.mu.Lock()
	c := ds.cron
	ds.cron = nil
	ds.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
		log.Println("[Scheduler] Stopped")
	}
}

func (ds *DigestScheduler) run() {
	if !ds.running.TryLock() {
		log.Println("[Scheduler] Previous digest still running, skipping")
		return
	}
	defer ds.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), ds.Timeout)
	defer cancel()
	if _, err := ds.digest(ctx); err != nil {
		log.Printf("[Scheduler] Digest failed: %v", err)
	}
}

// RunNow computes a digest immediately (for testing/admin).
func (ds *DigestScheduler) RunNow(ctx context.Context) (Digest, error) {
	ds.running.Lock()
	defer ds.running.Unlock()
	return ds.digest(ctx)
}

func (ds *DigestScheduler) digest(ctx context.Context) (Digest, error) {
	now := ds.Service.Now()
	today := planning.DateOf(now)

	holidays := ds.Service.Calendar.Holidays(today.Year())
	ds.Service.Calendar.Holidays(today.Year() + 1)

	d, err := ds.Service.Dashboard(ctx, today.Year(), today.Month())
	if err != nil {
		return Digest{}, err
	}

	out := Digest{
		RanAt:      now,
		Year:       d.Year,
		Month:      d.Month,
		InProgress: len(d.InProgress),
		Upcoming:   len(d.Upcoming),
		Holidays:   len(holidays),
	}
	for _, v := range d.InProgress {
		if v.State == planning.StateUpcoming {
			out.Remaining++
		}
	}

	ds.mu.Lock()
	ds.last = out
	ds.mu.Unlock()

	log.Printf("[Scheduler] %d-%02d: %d visits (%d remaining), %d upcoming next month, %d holidays this year",
		out.Year, int(out.Month), out.InProgress, out.Remaining, out.Upcoming, out.Holidays)
	return out, nil
}

// LastDigest returns the most recent digest, zero before the first run.
func (ds *DigestScheduler) LastDigest() Digest {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.last
}

// NextRunTime returns when the next digest will run, zero when stopped.
func (ds *DigestScheduler) NextRunTime() time.Time {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.cron == nil {
		return time.Time{}
	}
	return ds.cron.Entry(ds.entry).Next
}

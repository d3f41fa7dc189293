// Package report aggregates the outcome of one processing run.
package report

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"quill/internal/services"
	"quill/internal/state"
)

// Failure records one unit that could not be processed.
type Failure struct {
	Contact string
	UnitKey string
	Cause   string
}

// Report is the process-scoped aggregate returned by a run. It is safe for
// concurrent use by the worker pool.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool

	mu             sync.Mutex
	contactsSeen   int
	unitsProcessed int
	unitsSkipped   int
	unitsDropped   int
	totals         state.StageTotals
	failures       []Failure
}

// New starts a report for a fresh run.
func New(dryRun bool) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		DryRun:    dryRun,
	}
}

// Finish stamps the end time.
func (r *Report) Finish() {
	r.FinishedAt = time.Now()
}

// AddContact counts a contact examined during the run.
func (r *Report) AddContact() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contactsSeen++
}

// AddProcessed counts a fully enriched and committed unit.
func (r *Report) AddProcessed(totals state.StageTotals) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unitsProcessed++
	r.totals.Transcriptions += totals.Transcriptions
	r.totals.Summaries += totals.Summaries
	r.totals.OCRRuns += totals.OCRRuns
	r.totals.Tags += totals.Tags
	r.totals.Links += totals.Links
}

// AddSkipped counts a unit short-circuited by digest match.
func (r *Report) AddSkipped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unitsSkipped++
}

// AddDropped counts a pending unit whose staged file disappeared.
func (r *Report) AddDropped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unitsDropped++
}

// AddFailure records a unit error with its cause.
func (r *Report) AddFailure(contact, unitKey string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, Failure{
		Contact: contact,
		UnitKey: unitKey,
		Cause:   services.Details(err),
	})
}

// Snapshot is an immutable copy of the counters for rendering.
type Snapshot struct {
	RunID          string
	DryRun         bool
	Elapsed        time.Duration
	ContactsSeen   int
	UnitsProcessed int
	UnitsSkipped   int
	UnitsDropped   int
	UnitsFailed    int
	Totals         state.StageTotals
	Failures       []Failure
}

// Snapshot returns the current counters.
func (r *Report) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	finished := r.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	return Snapshot{
		RunID:          r.RunID,
		DryRun:         r.DryRun,
		Elapsed:        finished.Sub(r.StartedAt),
		ContactsSeen:   r.contactsSeen,
		UnitsProcessed: r.unitsProcessed,
		UnitsSkipped:   r.unitsSkipped,
		UnitsDropped:   r.unitsDropped,
		UnitsFailed:    len(r.failures),
		Totals:         r.totals,
		Failures:       append([]Failure(nil), r.failures...),
	}
}

// HasFailures reports whether any unit error occurred. This drives the
// process exit status, distinct from "nothing to do".
func (r *Report) HasFailures() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures) > 0
}

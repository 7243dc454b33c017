package ingest

import (
	"fmt"
	"strings"
	"time"

	"news-ingest/pkg/domain"
)

// State is the lifecycle state of a Runner.
type State int

const (
	Idle State = iota
	Running
	// Completed means every pair of the last run succeeded.
	Completed
	// PartiallyFailed means at least one pair of the last run recorded an
	// error. All other pairs were still processed.
	PartiallyFailed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case PartiallyFailed:
		return "partially_failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PairReport is the outcome of one (source, category) pair
type PairReport struct {
	Source   domain.Source
	Category string
	Endpoint string

	Fetched    int // candidates produced by the extractor
	Inserted   int
	Duplicates int
	Skipped    int // entries dropped by the extractor or failing validation
	Err        error
	Duration   time.Duration
}

// Failed reports whether the pair recorded an error.
func (p PairReport) Failed() bool {
	return p.Err != nil
}

func (p PairReport) String() string {
	s := fmt.Sprintf("%s/%s fetched=%d inserted=%d duplicates=%d skipped=%d",
		p.Source, p.Category, p.Fetched, p.Inserted, p.Duplicates, p.Skipped)
	if p.Err != nil {
		s += " error=" + p.Err.Error()
	}
	return s
}

// Totals aggregates the counters of all pairs of a run
type Totals struct {
	Pairs      int
	Failed     int
	Fetched    int
	Inserted   int
	Duplicates int
	Skipped    int
}

// RunReport summarizes one ingestion run. Pairs are listed in configuration
// order.
type RunReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Status     State
	Pairs      []PairReport
}

// Totals sums the per-pair counters.
func (r *RunReport) Totals() Totals {
	t := Totals{Pairs: len(r.Pairs)}
	for _, p := range r.Pairs {
		t.Fetched += p.Fetched
		t.Inserted += p.Inserted
		t.Duplicates += p.Duplicates
		t.Skipped += p.Skipped
		if p.Failed() {
			t.Failed++
		}
	}
	return t
}

// Pair returns the report of the given pair, if it was part of the run.
func (r *RunReport) Pair(source domain.Source, category string) (PairReport, bool) {
	for _, p := range r.Pairs {
		if p.Source == source && p.Category == category {
			return p, true
		}
	}
	return PairReport{}, false
}

// Errors returns the pair errors in configuration order.
func (r *RunReport) Errors() []error {
	var errs []error
	for _, p := range r.Pairs {
		if p.Err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", p.Source, p.Category, p.Err))
		}
	}
	return errs
}

// String renders a multi-line summary suitable for logging.
func (r *RunReport) String() string {
	t := r.Totals()
	var b strings.Builder
	fmt.Fprintf(&b, "run %s in %s: %d pairs (%d failed), fetched=%d inserted=%d duplicates=%d skipped=%d",
		r.Status, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
		t.Pairs, t.Failed, t.Fetched, t.Inserted, t.Duplicates, t.Skipped)
	for _, p := range r.Pairs {
		b.WriteString("\n  ")
		b.WriteString(p.String())
	}
	return b.String()
}

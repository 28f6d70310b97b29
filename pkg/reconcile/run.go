package reconcile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/usageflow/screensync/internal/utils"
	"github.com/usageflow/screensync/pkg/category"
	"github.com/usageflow/screensync/pkg/usage"
)

// DateRange is the half-open event window [From, To) of one run.
type DateRange struct {
	From time.Time
	To   time.Time
}

// LastDays returns the range covering the last n days up to now.
func LastDays(n int, now time.Time) DateRange {
	return DateRange{From: now.AddDate(0, 0, -n), To: now}
}

// Options control one reconcile run.
type Options struct {
	// DryRun computes decisions without issuing any store write.
	DryRun bool
	// MacOnly drops events from synced devices before session building.
	MacOnly bool
	// SetupSchema ensures the store schema before querying it.
	SetupSchema bool
}

// RowError records one row whose write failed after retries.
type RowError struct {
	Op  string
	Key string
	Err error
}

// RunReport summarizes a run: decision counts, pipeline tallies and the rows
// that could not be written. Partial is set when the store denied a write
// and the remaining operations were skipped.
type RunReport struct {
	Events          int
	MalformedEvents int
	Sessions        int
	SleepSessions   int
	Rows            int
	Uncategorized   []string

	Created          int
	Updated          int
	SkippedManual    int
	SkippedUnchanged int

	RowErrors []RowError
	Partial   bool
	DryRun    bool
}

// Deps are the collaborators a run needs. Now defaults to time.Now.
type Deps struct {
	Source EventSource
	Store  Store
	Mapper *category.Mapper
	Config usage.Config
	Now    func() time.Time
}

// Run executes the whole pipeline for one date range: read events, build
// sessions, detect sleep, classify, categorize, aggregate by week, then
// diff against the store and apply. An unreadable event source or a failed
// remote fetch is fatal and aborts before any write; store write failures
// are per-row and land in the report.
func Run(ctx context.Context, deps Deps, rng DateRange, opts Options) (*RunReport, error) {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	report := &RunReport{DryRun: opts.DryRun}

	if opts.SetupSchema {
		ensurer, ok := deps.Store.(SchemaEnsurer)
		if !ok {
			return nil, errors.New("store does not support schema setup")
		}
		if err := ensurer.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}

	events, err := deps.Source.ReadEvents(ctx, rng.From, rng.To)
	if err != nil {
		return nil, err
	}
	if opts.MacOnly {
		events = macEvents(events)
	}

	kept, malformed := usage.Clip(events, rng.From, rng.To)
	report.Events = len(kept)
	report.MalformedEvents = malformed
	if malformed > 0 {
		utils.Log.Warnf("skipped %d malformed events", malformed)
	}

	sessions := usage.BuildSessions(kept, deps.Config)
	sleep := usage.DetectSleep(sessions, deps.Config)
	report.Sessions = len(sessions)
	report.SleepSessions = len(sleep)
	sessions = append(sessions, sleep...)
	sessions = usage.Classify(sessions, deps.Config)

	sessions, uncategorized := deps.Mapper.Apply(sessions)
	report.Uncategorized = uncategorized

	rows := usage.Aggregate(sessions, now(), deps.Config.Location)
	report.Rows = len(rows)
	utils.Log.Infof("computed %d weekly rows from %d sessions", len(rows), report.Sessions)

	qFrom, qTo := weekWindow(rng, rows, deps.Config.Location)
	remote, err := deps.Store.QueryRows(ctx, qFrom, qTo)
	if err != nil {
		return nil, err
	}

	plan := BuildPlan(rows, remote)
	report.SkippedManual = plan.SkippedManual
	report.SkippedUnchanged = plan.SkippedUnchanged

	if opts.DryRun {
		report.Created = len(plan.Creates)
		report.Updated = len(plan.Updates)
		utils.Log.Infof("dry run: would create %d and update %d rows", report.Created, report.Updated)
		return report, nil
	}

	applyPlan(ctx, deps.Store, plan, report)
	return report, nil
}

// applyPlan issues creates before updates so a rerun after partial failure
// converges. A denied write stops the remaining operations; other failures
// are recorded and the run continues.
func applyPlan(ctx context.Context, store Store, plan Plan, report *RunReport) {
	for _, row := range plan.Creates {
		if _, err := store.CreateRow(ctx, row); err != nil {
			if recordRowError(report, "create", row.WeekKey(), err) {
				report.Partial = true
				return
			}
			continue
		}
		report.Created++
	}
	for _, u := range plan.Updates {
		if _, err := store.UpdateRow(ctx, u.RemoteID, u.Row); err != nil {
			if recordRowError(report, "update", u.Row.WeekKey(), err) {
				report.Partial = true
				return
			}
			continue
		}
		report.Updated++
	}
}

// recordRowError reports whether the failure should halt the run.
func recordRowError(report *RunReport, op, key string, err error) bool {
	report.RowErrors = append(report.RowErrors, RowError{Op: op, Key: key, Err: err})
	utils.Log.Errorf("%s %s: %v", op, key, err)
	var swe *StoreWriteError
	if errors.As(err, &swe) {
		return swe.Denied
	}
	return false
}

func macEvents(events []usage.RawEvent) []usage.RawEvent {
	kept := events[:0:0]
	for _, ev := range events {
		if strings.Contains(ev.DeviceLabel, "Mac") {
			kept = append(kept, ev)
		}
	}
	return kept
}

// weekWindow widens the run range to whole weeks so every remote row whose
// week the range touches is fetched for the diff. Events carry their own
// zone offsets, so a computed row's week can start before the configured
// zone's first week; the window must cover every computed week start or the
// diff would miss the row a previous run created and create it again.
func weekWindow(rng DateRange, rows []usage.SummaryRow, loc *time.Location) (time.Time, time.Time) {
	from := usage.WeekStart(rng.From, 0, loc)
	to := usage.WeekStart(rng.To, 0, loc).AddDate(0, 0, 7)
	for _, r := range rows {
		if r.WeekStart.Before(from) {
			from = r.WeekStart
		}
		if end := r.WeekStart.AddDate(0, 0, 7); end.After(to) {
			to = end
		}
	}
	return from, to
}

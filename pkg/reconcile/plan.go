package reconcile

import (
	"github.com/usageflow/screensync/internal/utils"
	"github.com/usageflow/screensync/pkg/usage"
)

// MinutesPrecision is the number of decimal places minutes are compared at
// when deciding whether a remote row is stale.
const MinutesPrecision = 1

// Update pairs a local row with the remote row it replaces.
type Update struct {
	RemoteID string
	Row      usage.SummaryRow
}

// Plan is the full set of decisions for one run, computed before any write.
type Plan struct {
	Creates          []usage.SummaryRow
	Updates          []Update
	SkippedManual    int
	SkippedUnchanged int
}

// BuildPlan diffs local rows against remote state. Manual rows are counted
// and otherwise ignored: they never match a local key and are never updated.
// A managed remote row is stale when its minutes (at MinutesPrecision),
// category or session count differ from the local computation.
func BuildPlan(local []usage.SummaryRow, remote []RemoteRow) Plan {
	var plan Plan
	managed := make(map[string]RemoteRow, len(remote))
	for _, r := range remote {
		if r.Manual {
			plan.SkippedManual++
			continue
		}
		if _, dup := managed[r.Key()]; dup {
			// A previous partial failure may have left a duplicate; the
			// first row wins and the duplicate is left alone.
			continue
		}
		managed[r.Key()] = r
	}

	for _, row := range local {
		r, ok := managed[row.WeekKey()]
		if !ok {
			plan.Creates = append(plan.Creates, row)
			continue
		}
		if rowChanged(row, r) {
			plan.Updates = append(plan.Updates, Update{RemoteID: r.ID, Row: row})
		} else {
			plan.SkippedUnchanged++
		}
	}
	return plan
}

func rowChanged(local usage.SummaryRow, remote RemoteRow) bool {
	if utils.Round(local.Minutes, MinutesPrecision) != utils.Round(remote.Minutes, MinutesPrecision) {
		return true
	}
	if local.Category != remote.Category {
		return true
	}
	if local.Sessions != remote.Sessions {
		return true
	}
	return false
}

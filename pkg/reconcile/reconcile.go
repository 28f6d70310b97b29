// Package reconcile diffs locally computed weekly summary rows against the
// rows already present in the external store and applies the minimal set of
// create and update operations. Rows created by hand in the store are never
// written to.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/usageflow/screensync/pkg/usage"
)

// RemoteRow is the store's view of one weekly summary row. Manual is derived
// exactly once, when the row is fetched: a row with no app id was created by
// a human and the engine must never write to it.
type RemoteRow struct {
	ID          string
	AppName     string
	AppID       string
	WeekStart   time.Time
	Category    string
	Type        string
	Domain      string
	DeviceLabel string
	Minutes     float64
	Sessions    int
	Manual      bool
}

// Key matches usage.SummaryRow.WeekKey for managed rows.
func (r RemoteRow) Key() string {
	return r.AppID + "|" + r.DeviceLabel + "|" + r.WeekStart.Format("2006-01-02")
}

// Store is the external tabular store the engine syncs into.
type Store interface {
	QueryRows(ctx context.Context, from, to time.Time) ([]RemoteRow, error)
	CreateRow(ctx context.Context, row usage.SummaryRow) (RemoteRow, error)
	UpdateRow(ctx context.Context, remoteID string, row usage.SummaryRow) (RemoteRow, error)
}

// SchemaEnsurer is implemented by stores that can create their own missing
// columns before first use.
type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// EventSource supplies the raw usage events the pipeline is computed from.
type EventSource interface {
	ReadEvents(ctx context.Context, from, to time.Time) ([]usage.RawEvent, error)
}

// StoreWriteError is a failed create or update against the store. Transient
// failures were already retried by the transport before surfacing here.
// Denied marks failures that will also sink every later write in the run
// (auth rejection, exhausted rate limit), so the apply phase stops early.
type StoreWriteError struct {
	Op         string
	Key        string
	StatusCode int
	Transient  bool
	Denied     bool
	Err        error
}

func (e *StoreWriteError) Error() string {
	class := "permanent"
	if e.Transient {
		class = "transient"
	}
	return fmt.Sprintf("%s %s failed (%s, status %d): %v", e.Op, e.Key, class, e.StatusCode, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

package reconcile

import (
	"testing"
	"time"

	"github.com/usageflow/screensync/pkg/usage"
)

var week = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func localRow(appID, device string, minutes float64, sessions int) usage.SummaryRow {
	return usage.SummaryRow{
		AppName:     appID,
		AppID:       appID,
		WeekStart:   week,
		Category:    "Other",
		Type:        usage.KindApp,
		DeviceLabel: device,
		Minutes:     minutes,
		Hours:       minutes / 60,
		Sessions:    sessions,
	}
}

func remoteRow(id, appID, device string, minutes float64, sessions int) RemoteRow {
	return RemoteRow{
		ID:          id,
		AppName:     appID,
		AppID:       appID,
		WeekStart:   week,
		Category:    "Other",
		Type:        "App",
		DeviceLabel: device,
		Minutes:     minutes,
		Sessions:    sessions,
		Manual:      appID == "",
	}
}

func TestBuildPlanDecisions(t *testing.T) {
	local := []usage.SummaryRow{
		localRow("com.instagram.ios", "📱 iPhone 16 Pro", 125, 30),
		localRow("com.apple.Safari", "💻 Mac", 60, 4),
		localRow("notion.id", "💻 Mac", 45, 3),
	}
	remote := []RemoteRow{
		remoteRow("r1", "com.instagram.ios", "📱 iPhone 16 Pro", 120, 30),
		remoteRow("r2", "com.apple.Safari", "💻 Mac", 60, 4),
		remoteRow("r3", "", "💻 Mac", 999, 1),
	}

	plan := BuildPlan(local, remote)

	if len(plan.Creates) != 1 || plan.Creates[0].AppID != "notion.id" {
		t.Fatalf("creates = %+v, want only notion.id", plan.Creates)
	}
	if len(plan.Updates) != 1 || plan.Updates[0].RemoteID != "r1" {
		t.Fatalf("updates = %+v, want only r1", plan.Updates)
	}
	if plan.Updates[0].Row.Minutes != 125 {
		t.Fatalf("update carries minutes %v, want 125", plan.Updates[0].Row.Minutes)
	}
	if plan.SkippedUnchanged != 1 {
		t.Fatalf("SkippedUnchanged = %d, want 1", plan.SkippedUnchanged)
	}
	if plan.SkippedManual != 1 {
		t.Fatalf("SkippedManual = %d, want 1", plan.SkippedManual)
	}
}

func TestBuildPlanManualNeverMatched(t *testing.T) {
	// The manual row shows the same app name, device and week as the local
	// row. It still must not absorb the local row: the engine creates its
	// own managed row alongside it.
	local := []usage.SummaryRow{localRow("com.apple.Safari", "💻 Mac", 60, 4)}
	manual := RemoteRow{
		ID:          "m1",
		AppName:     "com.apple.Safari",
		WeekStart:   week,
		DeviceLabel: "💻 Mac",
		Minutes:     60,
		Sessions:    4,
		Manual:      true,
	}

	plan := BuildPlan(local, []RemoteRow{manual})

	if len(plan.Creates) != 1 {
		t.Fatalf("expected create despite matching manual row, got %+v", plan)
	}
	if len(plan.Updates) != 0 {
		t.Fatalf("manual row must never be updated, got %+v", plan.Updates)
	}
	if plan.SkippedManual != 1 {
		t.Fatalf("SkippedManual = %d, want 1", plan.SkippedManual)
	}
}

func TestBuildPlanMinutesComparedAtPrecision(t *testing.T) {
	// 60.04 and 60.01 both round to 60.0 at one decimal place.
	local := []usage.SummaryRow{localRow("com.apple.Safari", "💻 Mac", 60.04, 4)}
	remote := []RemoteRow{remoteRow("r1", "com.apple.Safari", "💻 Mac", 60.01, 4)}

	plan := BuildPlan(local, remote)
	if len(plan.Updates) != 0 || plan.SkippedUnchanged != 1 {
		t.Fatalf("sub-precision drift should not trigger an update: %+v", plan)
	}
}

func TestBuildPlanCategoryChangeTriggersUpdate(t *testing.T) {
	local := []usage.SummaryRow{localRow("com.apple.Safari", "💻 Mac", 60, 4)}
	local[0].Category = "Work"
	remote := []RemoteRow{remoteRow("r1", "com.apple.Safari", "💻 Mac", 60, 4)}

	plan := BuildPlan(local, remote)
	if len(plan.Updates) != 1 {
		t.Fatalf("category change should trigger an update: %+v", plan)
	}
}

func TestBuildPlanDuplicateManagedRows(t *testing.T) {
	local := []usage.SummaryRow{localRow("com.apple.Safari", "💻 Mac", 70, 4)}
	remote := []RemoteRow{
		remoteRow("r1", "com.apple.Safari", "💻 Mac", 60, 4),
		remoteRow("r2", "com.apple.Safari", "💻 Mac", 65, 4),
	}

	plan := BuildPlan(local, remote)
	if len(plan.Updates) != 1 || plan.Updates[0].RemoteID != "r1" {
		t.Fatalf("first managed row should win on duplicate keys: %+v", plan.Updates)
	}
}

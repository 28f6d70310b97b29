package export

import (
	"strings"
	"testing"
	"time"

	"github.com/usageflow/screensync/pkg/category"
	"github.com/usageflow/screensync/pkg/usage"
)

func TestWriteSummary(t *testing.T) {
	rows := []usage.SummaryRow{
		{
			AppName:     "Safari",
			AppID:       "com.apple.Safari",
			WeekStart:   time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
			Category:    "Work",
			Type:        usage.KindApp,
			DeviceLabel: "💻 Mac",
			Minutes:     125.5,
			Hours:       2.09,
			Sessions:    12,
		},
	}
	var b strings.Builder
	if err := WriteSummary(&b, rows); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus 1 row, got %q", b.String())
	}
	if lines[0] != strings.Join(summaryHeader, ",") {
		t.Fatalf("header = %q", lines[0])
	}
	want := "2025-01-06,Safari,com.apple.Safari,Work,App,,💻 Mac,125.5,2.09,12"
	if lines[1] != want {
		t.Fatalf("row = %q, want %q", lines[1], want)
	}
}

func TestWriteCategories(t *testing.T) {
	summaries := []category.Summary{
		{Category: "Work", Minutes: 300, Hours: 5, Apps: 3, Percent: 75},
		{Category: "Other", Minutes: 100, Hours: 1.67, Apps: 2, Percent: 25},
	}
	var b strings.Builder
	if err := WriteCategories(&b, summaries); err != nil {
		t.Fatalf("WriteCategories: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %q", b.String())
	}
	if lines[1] != "Work,300,5,3,75" {
		t.Fatalf("row = %q", lines[1])
	}
}

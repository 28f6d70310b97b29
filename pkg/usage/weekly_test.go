package usage

import (
	"math"
	"testing"
	"time"
)

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{monday, monday},
		{at(3, 15, 30, 0), monday},                     // Thursday
		{at(6, 23, 59, 59), monday},                    // Sunday night
		{at(7, 0, 0, 0), monday.AddDate(0, 0, 7)},      // next Monday
		{monday.AddDate(0, 0, -1), monday.AddDate(0, 0, -7)}, // prior Sunday
	}
	for _, tt := range tests {
		if got := WeekStart(tt.in, 0, time.UTC); !got.Equal(tt.want) {
			t.Fatalf("WeekStart(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAggregateSingleWeek(t *testing.T) {
	now := at(7, 12, 0, 0)
	s1 := ses("com.apple.Safari", KindApp, at(0, 10, 0, 0), at(0, 10, 30, 0))
	s1.Category = "Work"
	s2 := ses("com.apple.Safari", KindApp, at(1, 9, 0, 0), at(1, 9, 15, 0))
	s2.Category = "Work"

	rows := Aggregate([]Session{s1, s2}, now, time.UTC)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r.Minutes != 45 || r.Sessions != 2 {
		t.Fatalf("got %.1f minutes over %d sessions, want 45.0 over 2", r.Minutes, r.Sessions)
	}
	if r.Hours != 0.75 {
		t.Fatalf("hours = %v, want 0.75", r.Hours)
	}
	if !r.WeekStart.Equal(monday) || r.Category != "Work" {
		t.Fatalf("unexpected row: %+v", r)
	}
}

func TestAggregateSplitsAtWeekBoundary(t *testing.T) {
	// Sunday 23:55 to Monday 00:05: 5 minutes in each week.
	s := ses("com.apple.Safari", KindApp, at(6, 23, 55, 0), at(7, 0, 5, 0))

	rows := Aggregate([]Session{s}, at(7, 12, 0, 0), time.UTC)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
	for _, r := range rows {
		if r.Minutes != 5 {
			t.Fatalf("week %v got %.1f minutes, want 5.0", r.WeekStart, r.Minutes)
		}
		if r.Sessions != 1 {
			t.Fatalf("week %v got %d sessions, want 1", r.WeekStart, r.Sessions)
		}
	}
}

func TestAggregateConservesMinutes(t *testing.T) {
	// Total minutes across all weeks must equal total session duration.
	sessions := []Session{
		ses("com.apple.Safari", KindApp, at(5, 10, 0, 0), at(5, 11, 30, 0)),
		ses("com.apple.Safari", KindApp, at(6, 23, 40, 0), at(7, 1, 10, 0)),
		ses("com.apple.Safari", KindApp, at(8, 9, 0, 0), at(8, 9, 20, 0)),
	}
	var want float64
	for _, s := range sessions {
		want += s.Duration().Minutes()
	}

	rows := Aggregate(sessions, at(9, 0, 0, 0), time.UTC)
	var got float64
	for _, r := range rows {
		got += r.Minutes
	}
	if math.Abs(got-want) > 0.1 {
		t.Fatalf("minutes not conserved across week split: got %.2f, want %.2f", got, want)
	}
}

func TestAggregateKeysByAppDeviceWeek(t *testing.T) {
	a := ses("com.apple.Safari", KindApp, at(0, 10, 0, 0), at(0, 11, 0, 0))
	b := ses("notion.id", KindApp, at(0, 10, 0, 0), at(0, 11, 0, 0))
	c := ses("com.apple.Safari", KindApp, at(0, 12, 0, 0), at(0, 13, 0, 0))
	c.DeviceID = "iphone-1"
	c.DeviceLabel = "📱 iPhone 16 Pro"

	rows := Aggregate([]Session{a, b, c}, at(7, 0, 0, 0), time.UTC)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
}

func TestAggregateUsesEventTimeZone(t *testing.T) {
	// 01:00 UTC Monday is still Sunday in UTC-5: the minutes belong to the
	// prior week in the device's local zone.
	s := ses("com.apple.Safari", KindApp, at(0, 1, 0, 0), at(0, 1, 30, 0))
	s.TZOffset = -5 * 3600

	rows := Aggregate([]Session{s}, at(7, 0, 0, 0), time.UTC)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	want := time.Date(2024, 12, 30, 0, 0, 0, 0, time.FixedZone("", -5*3600))
	if !rows[0].WeekStart.Equal(want) {
		t.Fatalf("week start = %v, want %v", rows[0].WeekStart, want)
	}
}

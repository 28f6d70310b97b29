package usage

import (
	"sort"
	"time"

	"github.com/usageflow/screensync/internal/utils"
)

// SummaryRow is one aggregated row per (app, device, week). It is recomputed
// from sessions on every run and carries no identity of its own.
type SummaryRow struct {
	AppName     string
	AppID       string
	WeekStart   time.Time // Monday 00:00 in the session's local zone
	Category    string
	Type        Kind
	Domain      string
	DeviceLabel string
	Minutes     float64 // 1 decimal place
	Hours       float64 // Minutes/60, 2 decimal places, derived
	Sessions    int
	LastUpdated time.Time
}

// WeekKey identifies a summary row within a run.
func (r SummaryRow) WeekKey() string {
	return r.AppID + "|" + r.DeviceLabel + "|" + r.WeekStart.Format("2006-01-02")
}

// WeekStart returns the Monday 00:00 beginning the week containing t, in the
// zone given by offset (falling back to fb when the event carried none).
func WeekStart(t time.Time, offset int, fb *time.Location) time.Time {
	loc := zone(offset, fb)
	lt := t.In(loc)
	y, m, d := lt.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	back := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -back)
}

type aggKey struct {
	appID  string
	device string
	week   string
}

// Aggregate groups sessions into one SummaryRow per (app, device, week
// start). A session crossing the Sunday-to-Monday boundary is split there
// and its minutes apportioned to each week by wall-clock overlap, so no
// minute is lost or double counted at week edges; each fragment counts as
// one session in its week.
func Aggregate(sessions []Session, now time.Time, fb *time.Location) []SummaryRow {
	acc := make(map[aggKey]*SummaryRow)
	for _, s := range sessions {
		cur := s.Start
		for cur.Before(s.End) {
			ws := WeekStart(cur, s.TZOffset, fb)
			weekEnd := ws.AddDate(0, 0, 7)
			fragEnd := s.End
			if weekEnd.Before(fragEnd) {
				fragEnd = weekEnd
			}
			k := aggKey{s.Bundle, s.DeviceID, ws.Format("2006-01-02")}
			row, ok := acc[k]
			if !ok {
				row = &SummaryRow{
					AppName:     s.AppName,
					AppID:       s.Bundle,
					WeekStart:   ws,
					Category:    s.Category,
					Type:        s.Kind,
					Domain:      s.Domain,
					DeviceLabel: s.DeviceLabel,
					LastUpdated: now,
				}
				acc[k] = row
			}
			row.Minutes += fragEnd.Sub(cur).Minutes()
			row.Sessions++
			if row.Domain == "" {
				row.Domain = s.Domain
			}
			cur = fragEnd
		}
	}

	out := make([]SummaryRow, 0, len(acc))
	for _, row := range acc {
		row.Minutes = utils.Round(row.Minutes, 1)
		row.Hours = utils.Round(row.Minutes/60, 2)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].WeekStart.Equal(out[j].WeekStart) {
			return out[i].WeekStart.Before(out[j].WeekStart)
		}
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		return out[i].WeekKey() < out[j].WeekKey()
	})
	return out
}

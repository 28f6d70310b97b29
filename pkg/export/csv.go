// Package export writes computed weekly rows to local files, useful for
// checking what a sync would push without touching the store.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/usageflow/screensync/pkg/category"
	"github.com/usageflow/screensync/pkg/usage"
)

var summaryHeader = []string{
	"week_start", "app_name", "app_id", "category", "type",
	"domain", "device", "minutes", "hours", "sessions",
}

// WriteSummary writes one CSV line per weekly summary row, in the order the
// rows were aggregated.
func WriteSummary(w io.Writer, rows []usage.SummaryRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.WeekStart.Format("2006-01-02"),
			r.AppName,
			r.AppID,
			r.Category,
			string(r.Type),
			r.Domain,
			r.DeviceLabel,
			formatFloat(r.Minutes),
			formatFloat(r.Hours),
			strconv.Itoa(r.Sessions),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var categoryHeader = []string{"category", "minutes", "hours", "apps", "percent"}

// WriteCategories writes the per-category totals produced by
// category.Summarize.
func WriteCategories(w io.Writer, summaries []category.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(categoryHeader); err != nil {
		return err
	}
	for _, s := range summaries {
		record := []string{
			s.Category,
			formatFloat(s.Minutes),
			formatFloat(s.Hours),
			strconv.Itoa(s.Apps),
			formatFloat(s.Percent),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

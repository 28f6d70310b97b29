package category

import (
	"sort"

	"github.com/usageflow/screensync/internal/utils"
	"github.com/usageflow/screensync/pkg/usage"
)

// Summary is aggregated usage for one category across a set of sessions.
type Summary struct {
	Category string
	Minutes  float64
	Hours    float64
	Apps     int
	Percent  float64
}

// Summarize totals categorized sessions per category, largest first.
func Summarize(sessions []usage.Session) []Summary {
	type acc struct {
		minutes float64
		apps    map[string]bool
	}
	byCat := make(map[string]*acc)
	var total float64
	for _, s := range sessions {
		a, ok := byCat[s.Category]
		if !ok {
			a = &acc{apps: make(map[string]bool)}
			byCat[s.Category] = a
		}
		min := s.Duration().Minutes()
		a.minutes += min
		a.apps[s.Bundle] = true
		total += min
	}

	out := make([]Summary, 0, len(byCat))
	for cat, a := range byCat {
		s := Summary{
			Category: cat,
			Minutes:  utils.Round(a.minutes, 1),
			Hours:    utils.Round(a.minutes/60, 2),
			Apps:     len(a.apps),
		}
		if total > 0 {
			s.Percent = utils.Round(a.minutes/total*100, 1)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		return out[i].Category < out[j].Category
	})
	return out
}

package usage

import (
	"sort"
	"time"
)

type interval struct {
	start time.Time
	end   time.Time
}

// DetectSleep scans each device's foreground-activity timeline and emits
// synthetic Sleep sessions for inactivity gaps of at least MinSleep that
// fall in a plausible overnight window (starting in the evening or ending in
// the morning). Only gaps bounded by observed activity on both sides count;
// silence at the edge of the run's range is unknowable, not sleep. Activity
// blips shorter than WakeTolerance do not disqualify a window: the gap is
// measured across them. Real activity always wins, so the emitted intervals
// are trimmed around every session of the device, and a trimmed fragment
// shorter than MinSleep is dropped. The result never overlaps an App or
// Website session of the same device.
func DetectSleep(sessions []Session, cfg Config) []Session {
	byDevice := make(map[string][]Session)
	var order []string
	for _, s := range sessions {
		if s.Kind == KindSleep {
			continue
		}
		if _, ok := byDevice[s.DeviceID]; !ok {
			order = append(order, s.DeviceID)
		}
		byDevice[s.DeviceID] = append(byDevice[s.DeviceID], s)
	}
	sort.Strings(order)

	var out []Session
	for _, dev := range order {
		out = append(out, detectDeviceSleep(byDevice[dev], cfg)...)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].DeviceID < out[j].DeviceID
	})
	return out
}

func detectDeviceSleep(sessions []Session, cfg Config) []Session {
	if len(sessions) == 0 {
		return nil
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Start.Before(sessions[j].Start) })

	loc := zone(sessions[0].TZOffset, cfg.Location)

	// Busy timeline from sessions long enough to count as real wakefulness.
	var busy []interval
	for _, s := range sessions {
		if s.Duration() < cfg.WakeTolerance {
			continue
		}
		busy = append(busy, interval{s.Start, s.End})
	}
	busy = mergeIntervals(busy)

	// All activity, blips included, for the final trim.
	var all []interval
	for _, s := range sessions {
		all = append(all, interval{s.Start, s.End})
	}
	all = mergeIntervals(all)

	var out []Session
	gaps := make([]interval, 0, len(busy))
	for i := 1; i < len(busy); i++ {
		if busy[i].start.After(busy[i-1].end) {
			gaps = append(gaps, interval{busy[i-1].end, busy[i].start})
		}
	}

	for _, g := range gaps {
		if g.end.Sub(g.start) < cfg.MinSleep {
			continue
		}
		if !plausibleOvernight(g.start, g.end, loc) {
			continue
		}
		for _, frag := range subtract(g, all) {
			if frag.end.Sub(frag.start) < cfg.MinSleep {
				continue
			}
			out = append(out, Session{
				DeviceID:    sessions[0].DeviceID,
				DeviceLabel: sessions[0].DeviceLabel,
				Bundle:      SleepBundle,
				AppName:     "Sleep",
				Kind:        KindSleep,
				Start:       frag.start,
				End:         frag.end,
				TZOffset:    sessions[0].TZOffset,
			})
		}
	}
	return out
}

// plausibleOvernight reports whether a gap looks like a night of sleep:
// it starts in the evening (20:00..02:59) or ends in the morning (05:00..11:59).
func plausibleOvernight(start, end time.Time, loc *time.Location) bool {
	sh := start.In(loc).Hour()
	eh := end.In(loc).Hour()
	if sh >= 20 || sh <= 2 {
		return true
	}
	return eh >= 5 && eh <= 11
}

func mergeIntervals(in []interval) []interval {
	if len(in) == 0 {
		return nil
	}
	sort.Slice(in, func(i, j int) bool { return in[i].start.Before(in[j].start) })
	out := []interval{in[0]}
	for _, iv := range in[1:] {
		last := &out[len(out)-1]
		if !iv.start.After(last.end) {
			if iv.end.After(last.end) {
				last.end = iv.end
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// subtract removes every busy interval from g, returning the remaining
// sub-intervals in order.
func subtract(g interval, busy []interval) []interval {
	frags := []interval{g}
	for _, b := range busy {
		var next []interval
		for _, f := range frags {
			if !b.start.Before(f.end) || !b.end.After(f.start) {
				next = append(next, f)
				continue
			}
			if b.start.After(f.start) {
				next = append(next, interval{f.start, b.start})
			}
			if b.end.Before(f.end) {
				next = append(next, interval{b.end, f.end})
			}
		}
		frags = next
	}
	return frags
}

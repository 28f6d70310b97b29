package usage

import "time"

// Clip bounds events to the half-open range [from, to). Events wholly
// outside the range are dropped; events straddling a boundary are truncated
// at it. Events whose end precedes their start are malformed: they are
// skipped and tallied, never fatal. Zero-duration events are dropped
// silently.
func Clip(events []RawEvent, from, to time.Time) (kept []RawEvent, malformed int) {
	kept = make([]RawEvent, 0, len(events))
	for _, ev := range events {
		if ev.End.Before(ev.Start) {
			malformed++
			continue
		}
		if !ev.End.After(from) || !ev.Start.Before(to) {
			continue
		}
		if ev.Start.Before(from) {
			ev.Start = from
		}
		if ev.End.After(to) {
			ev.End = to
		}
		if !ev.End.After(ev.Start) {
			continue
		}
		kept = append(kept, ev)
	}
	return kept, malformed
}

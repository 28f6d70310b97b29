package usage

import "sort"

type sessionKey struct {
	device string
	bundle string
}

// BuildSessions merges normalized events into bounded sessions, one open
// session per (device, app) pair. Events are processed in start order, ties
// broken by end time ascending so shorter events merge deterministically
// into longer ones. An event merges into the open session when its start
// falls within GapTolerance of the session's end; otherwise the open session
// closes and a new one begins. Closed sessions shorter than NoiseThreshold
// are UI-flicker artifacts and are discarded silently. Single events longer
// than MaxSession are corrupt source rows (the OS never records half-day
// foreground stretches) and are dropped before merging.
func BuildSessions(events []RawEvent, cfg Config) []Session {
	evs := make([]RawEvent, len(events))
	copy(evs, events)
	sort.SliceStable(evs, func(i, j int) bool {
		if evs[i].Start.Equal(evs[j].Start) {
			return evs[i].End.Before(evs[j].End)
		}
		return evs[i].Start.Before(evs[j].Start)
	})

	open := make(map[sessionKey]*Session)
	var out []Session
	emit := func(s *Session) {
		if s.Duration() >= cfg.NoiseThreshold {
			out = append(out, *s)
		}
	}

	for _, ev := range evs {
		if !ev.End.After(ev.Start) {
			continue
		}
		if cfg.MaxSession > 0 && ev.End.Sub(ev.Start) > cfg.MaxSession {
			continue
		}
		k := sessionKey{ev.DeviceID, ev.Bundle}
		if s, ok := open[k]; ok {
			if !ev.Start.After(s.End.Add(cfg.GapTolerance)) {
				if ev.End.After(s.End) {
					s.End = ev.End
				}
				if s.Domain == "" {
					s.Domain = ev.Domain
				}
				continue
			}
			emit(s)
		}
		open[k] = &Session{
			DeviceID:    ev.DeviceID,
			DeviceLabel: ev.DeviceLabel,
			Bundle:      ev.Bundle,
			AppName:     ev.AppName,
			Kind:        KindApp,
			Domain:      ev.Domain,
			Start:       ev.Start,
			End:         ev.End,
			TZOffset:    ev.TZOffset,
		}
	}
	for _, s := range open {
		emit(s)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		if out[i].DeviceID != out[j].DeviceID {
			return out[i].DeviceID < out[j].DeviceID
		}
		return out[i].Bundle < out[j].Bundle
	})
	return out
}

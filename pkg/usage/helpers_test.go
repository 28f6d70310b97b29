package usage

import "time"

// Monday 2025-01-06, the base day for most tests.
var monday = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func at(day, h, m, s int) time.Time {
	return monday.AddDate(0, 0, day).Add(
		time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second)
}

func ev(bundle string, start, end time.Time) RawEvent {
	return RawEvent{
		DeviceID:    "mac-1",
		DeviceLabel: "💻 Mac",
		Bundle:      bundle,
		AppName:     bundle,
		Start:       start,
		End:         end,
	}
}

func ses(bundle string, kind Kind, start, end time.Time) Session {
	return Session{
		DeviceID:    "mac-1",
		DeviceLabel: "💻 Mac",
		Bundle:      bundle,
		AppName:     bundle,
		Kind:        kind,
		Start:       start,
		End:         end,
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Location = time.UTC
	return cfg
}

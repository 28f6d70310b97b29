package usage

import "time"

// Kind tags what a session represents in the external store's Type column.
type Kind string

const (
	KindApp     Kind = "App"
	KindWebsite Kind = "Website"
	KindSleep   Kind = "Sleep"
)

// SleepBundle is the synthetic app identity assigned to detected sleep sessions.
const SleepBundle = "sleep.session"

// RawEvent is a single normalized usage record pulled from the event source.
// Domain is only set for web-usage rows that carried a page URL.
type RawEvent struct {
	DeviceID    string
	DeviceLabel string
	Bundle      string
	AppName     string
	Domain      string
	Start       time.Time
	End         time.Time
	TZOffset    int // seconds east of UTC, recorded with the event
}

// Session is a contiguous, deduplicated interval of usage of one app or
// website on one device. Immutable once built.
type Session struct {
	DeviceID    string
	DeviceLabel string
	Bundle      string
	AppName     string
	Kind        Kind
	Domain      string
	Category    string
	Start       time.Time
	End         time.Time
	TZOffset    int
}

func (s Session) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Config carries the empirically tuned thresholds of the pipeline. They
// reduce fragmentation and noise in the source data; no stronger semantics
// should be read into the exact values.
type Config struct {
	// GapTolerance is the maximum gap between two events of the same app on
	// the same device for them to merge into one session.
	GapTolerance time.Duration
	// NoiseThreshold discards sessions shorter than this when closing them.
	NoiseThreshold time.Duration
	// MaxSession discards individual events longer than this as corrupt
	// source rows. Zero disables the cap.
	MaxSession time.Duration
	// MinSleep is the minimum device-inactivity gap considered for sleep.
	MinSleep time.Duration
	// WakeTolerance is how long an activity blip may be without splitting a
	// surrounding sleep window.
	WakeTolerance time.Duration
	// Browsers lists bundle identifiers treated as browser apps.
	Browsers []string
	// Location is the fallback time zone when an event carries no offset.
	Location *time.Location
}

func DefaultConfig() Config {
	return Config{
		GapTolerance:   0,
		NoiseThreshold: 5 * time.Second,
		MaxSession:     12 * time.Hour,
		MinSleep:       30 * time.Minute,
		WakeTolerance:  2 * time.Minute,
		Browsers: []string{
			"com.apple.Safari",
			"com.apple.SafariTechnologyPreview",
			"com.google.Chrome",
			"org.mozilla.firefox",
			"company.thebrowser.Browser",
			"com.microsoft.edgemac",
		},
		Location: time.Local,
	}
}

// zone returns the session's local time zone from its recorded offset.
func zone(offset int, fallback *time.Location) *time.Location {
	if offset == 0 && fallback != nil {
		return fallback
	}
	return time.FixedZone("", offset)
}

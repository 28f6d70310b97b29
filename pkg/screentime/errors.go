package screentime

import "fmt"

// DataSourceError means the Screen Time database could not be read at all.
// It is fatal for a run: no partial sync happens on top of missing source
// data, and there is no point retrying a local file.
type DataSourceError struct {
	Path string
	Err  error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("screen time database unreadable at %s: %v", e.Path, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

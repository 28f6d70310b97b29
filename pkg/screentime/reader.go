// Package screentime reads raw usage events from the macOS Screen Time
// database (knowledgeC.db). The database is opened strictly read-only; it is
// owned by the OS and this package never writes to it.
package screentime

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	_ "modernc.org/sqlite"

	"github.com/usageflow/screensync/pkg/usage"
)

// Mac absolute time counts seconds since 2001-01-01 00:00:00 UTC.
const macEpochOffset = 978307200

// LocalDeviceID is the device id assigned to rows recorded by this Mac
// itself (rows without a sync peer).
const LocalDeviceID = "local"

type Reader struct {
	dbPath string
}

// DefaultDBPath returns the standard knowledgeC.db location for the current
// user.
func DefaultDBPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "Application Support", "Knowledge", "knowledgeC.db"), nil
}

// NewReader validates that the database exists. An empty path means the
// default location. A missing or unreadable file is a DataSourceError.
func NewReader(dbPath string) (*Reader, error) {
	if dbPath == "" {
		var err error
		dbPath, err = DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, &DataSourceError{Path: dbPath, Err: err}
	}
	return &Reader{dbPath: dbPath}, nil
}

func (r *Reader) Path() string { return r.dbPath }

func (r *Reader) open() (*sql.DB, error) {
	dsn := "file:" + r.dbPath + "?mode=ro&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &DataSourceError{Path: r.dbPath, Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &DataSourceError{Path: r.dbPath, Err: err}
	}
	return db, nil
}

const appUsageQuery = `
SELECT
  ZOBJECT.ZVALUESTRING,
  ZOBJECT.ZSTARTDATE,
  ZOBJECT.ZENDDATE,
  COALESCE(ZOBJECT.ZSECONDSFROMGMT, 0),
  COALESCE(ZSYNCPEER.ZMODEL, 'Mac'),
  COALESCE(ZSYNCPEER.ZDEVICEID, 'local')
FROM ZOBJECT
LEFT JOIN ZSOURCE ON ZOBJECT.ZSOURCE = ZSOURCE.Z_PK
LEFT JOIN ZSYNCPEER ON ZSOURCE.ZDEVICEID = ZSYNCPEER.ZDEVICEID
WHERE ZOBJECT.ZSTREAMNAME = '/app/usage'
  AND ZOBJECT.ZVALUESTRING IS NOT NULL
  AND ZOBJECT.ZVALUESTRING != ''
  AND ZOBJECT.ZSTARTDATE < ?
  AND ZOBJECT.ZENDDATE > ?
ORDER BY ZOBJECT.ZSTARTDATE`

const webUsageQuery = `
SELECT
  ZOBJECT.ZVALUESTRING,
  ZOBJECT.ZSTARTDATE,
  ZOBJECT.ZENDDATE,
  COALESCE(ZOBJECT.ZSECONDSFROMGMT, 0),
  COALESCE(ZSYNCPEER.ZMODEL, 'Mac'),
  COALESCE(ZSYNCPEER.ZDEVICEID, 'local'),
  COALESCE(ZSTRUCTUREDMETADATA.Z_DKDIGITALHEALTHMETADATAKEY__WEBPAGEURL, '')
FROM ZOBJECT
LEFT JOIN ZSTRUCTUREDMETADATA ON ZOBJECT.ZSTRUCTUREDMETADATA = ZSTRUCTUREDMETADATA.Z_PK
LEFT JOIN ZSOURCE ON ZOBJECT.ZSOURCE = ZSOURCE.Z_PK
LEFT JOIN ZSYNCPEER ON ZSOURCE.ZDEVICEID = ZSYNCPEER.ZDEVICEID
WHERE ZOBJECT.ZSTREAMNAME = '/app/webUsage'
  AND ZOBJECT.ZVALUESTRING IS NOT NULL
  AND ZOBJECT.ZVALUESTRING != ''
  AND ZOBJECT.ZSTARTDATE < ?
  AND ZOBJECT.ZENDDATE > ?
ORDER BY ZOBJECT.ZSTARTDATE`

// ReadEvents returns all app and web usage events overlapping [from, to).
// Events are not clipped here; the pipeline's normalizer bounds them to the
// range. Any query failure is a DataSourceError and fatal for the run.
func (r *Reader) ReadEvents(ctx context.Context, from, to time.Time) ([]usage.RawEvent, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var events []usage.RawEvent
	for _, q := range []struct {
		query string
		web   bool
	}{
		{appUsageQuery, false},
		{webUsageQuery, true},
	} {
		batch, err := r.queryEvents(ctx, db, q.query, q.web, from, to)
		if err != nil {
			return nil, err
		}
		events = append(events, batch...)
	}
	return events, nil
}

func (r *Reader) queryEvents(ctx context.Context, db *sql.DB, query string, web bool, from, to time.Time) ([]usage.RawEvent, error) {
	rows, err := db.QueryContext(ctx, query, toMac(to), toMac(from))
	if err != nil {
		return nil, &DataSourceError{Path: r.dbPath, Err: err}
	}
	defer rows.Close()

	var events []usage.RawEvent
	for rows.Next() {
		var (
			bundle, model, deviceID string
			start, end              float64
			tzOffset                int
			domain                  string
		)
		dest := []interface{}{&bundle, &start, &end, &tzOffset, &model, &deviceID}
		if web {
			dest = append(dest, &domain)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, &DataSourceError{Path: r.dbPath, Err: err}
		}
		events = append(events, usage.RawEvent{
			DeviceID:    deviceID,
			DeviceLabel: DeviceLabel(model),
			Bundle:      bundle,
			AppName:     DisplayName(bundle),
			Domain:      domain,
			Start:       macTime(start),
			End:         macTime(end),
			TZOffset:    tzOffset,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &DataSourceError{Path: r.dbPath, Err: err}
	}
	return events, nil
}

// Device is one device with Screen Time data in the source database.
type Device struct {
	Model  string
	ID     string
	Label  string
	Events int
}

const devicesQuery = `
SELECT
  ZSYNCPEER.ZMODEL,
  ZSYNCPEER.ZDEVICEID,
  COUNT(*)
FROM ZOBJECT
LEFT JOIN ZSOURCE ON ZOBJECT.ZSOURCE = ZSOURCE.Z_PK
LEFT JOIN ZSYNCPEER ON ZSOURCE.ZDEVICEID = ZSYNCPEER.ZDEVICEID
WHERE ZOBJECT.ZSTREAMNAME = '/app/usage'
  AND ZOBJECT.ZVALUESTRING IS NOT NULL
  AND ZSYNCPEER.ZMODEL IS NOT NULL
GROUP BY ZSYNCPEER.ZMODEL, ZSYNCPEER.ZDEVICEID
ORDER BY COUNT(*) DESC`

// ListDevices enumerates every device that contributed usage rows, the local
// Mac included even when it has no synced peer entry.
func (r *Reader) ListDevices(ctx context.Context) ([]Device, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, devicesQuery)
	if err != nil {
		return nil, &DataSourceError{Path: r.dbPath, Err: err}
	}
	defer rows.Close()

	var devices []Device
	localSeen := false
	for rows.Next() {
		var d Device
		if err := rows.Scan(&d.Model, &d.ID, &d.Events); err != nil {
			return nil, &DataSourceError{Path: r.dbPath, Err: err}
		}
		d.Label = DeviceLabel(d.Model)
		if d.ID == LocalDeviceID || d.Model == "Mac" {
			localSeen = true
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &DataSourceError{Path: r.dbPath, Err: err}
	}
	if !localSeen {
		devices = append([]Device{{Model: "Mac", ID: LocalDeviceID, Label: DeviceLabel("Mac")}}, devices...)
	}
	return devices, nil
}

const appsQuery = `
SELECT DISTINCT ZOBJECT.ZVALUESTRING
FROM ZOBJECT
WHERE ZOBJECT.ZSTREAMNAME = '/app/usage'
  AND ZOBJECT.ZVALUESTRING IS NOT NULL
  AND ZOBJECT.ZVALUESTRING != ''
ORDER BY ZOBJECT.ZVALUESTRING`

// ListApps enumerates every bundle identifier present in the usage stream.
func (r *Reader) ListApps(ctx context.Context) ([]string, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, appsQuery)
	if err != nil {
		return nil, &DataSourceError{Path: r.dbPath, Err: err}
	}
	defer rows.Close()

	var apps []string
	for rows.Next() {
		var bundle string
		if err := rows.Scan(&bundle); err != nil {
			return nil, &DataSourceError{Path: r.dbPath, Err: err}
		}
		apps = append(apps, bundle)
	}
	if err := rows.Err(); err != nil {
		return nil, &DataSourceError{Path: r.dbPath, Err: err}
	}
	return apps, nil
}

func macTime(v float64) time.Time {
	return time.Unix(int64(v)+macEpochOffset, 0).UTC()
}

func toMac(t time.Time) float64 {
	return float64(t.Unix() - macEpochOffset)
}

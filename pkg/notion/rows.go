package notion

import (
	"context"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/usageflow/screensync/pkg/reconcile"
	"github.com/usageflow/screensync/pkg/usage"
)

const queryPageSize = 100

// QueryRows fetches every page whose Date falls in [from, to), following
// pagination. The manual flag is derived here, once, from the absence of an
// App ID value.
func (c *Client) QueryRows(ctx context.Context, from, to time.Time) ([]reconcile.RemoteRow, error) {
	var rows []reconcile.RemoteRow
	cursor := ""
	for {
		payload := map[string]interface{}{
			"page_size": queryPageSize,
			"filter": map[string]interface{}{
				"and": []interface{}{
					map[string]interface{}{
						"property": "Date",
						"date":     map[string]string{"on_or_after": from.Format("2006-01-02")},
					},
					map[string]interface{}{
						"property": "Date",
						"date":     map[string]string{"before": to.Format("2006-01-02")},
					},
				},
			},
		}
		if cursor != "" {
			payload["start_cursor"] = cursor
		}
		status, body, err := c.call(ctx, http.MethodPost, "/databases/"+c.databaseID+"/query", payload)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, apiMessage(status, body)
		}
		gjson.Get(body, "results").ForEach(func(_, page gjson.Result) bool {
			rows = append(rows, parsePage(page))
			return true
		})
		if !gjson.Get(body, "has_more").Bool() {
			return rows, nil
		}
		cursor = gjson.Get(body, "next_cursor").String()
	}
}

// CreateRow inserts one managed page into the database.
func (c *Client) CreateRow(ctx context.Context, row usage.SummaryRow) (reconcile.RemoteRow, error) {
	payload := map[string]interface{}{
		"parent":     map[string]string{"database_id": c.databaseID},
		"properties": buildProperties(row),
	}
	status, body, err := c.call(ctx, http.MethodPost, "/pages", payload)
	if err != nil || status != http.StatusOK {
		return reconcile.RemoteRow{}, writeError("create", row.WeekKey(), status, body, err)
	}
	return parsePage(gjson.Parse(body)), nil
}

// UpdateRow overwrites the managed properties of an existing page.
func (c *Client) UpdateRow(ctx context.Context, remoteID string, row usage.SummaryRow) (reconcile.RemoteRow, error) {
	payload := map[string]interface{}{
		"properties": buildProperties(row),
	}
	status, body, err := c.call(ctx, http.MethodPatch, "/pages/"+remoteID, payload)
	if err != nil || status != http.StatusOK {
		return reconcile.RemoteRow{}, writeError("update", row.WeekKey(), status, body, err)
	}
	return parsePage(gjson.Parse(body)), nil
}

// writeError classifies a failed write. 429 and 5xx are transient; they only
// surface here once the transport's retries are exhausted, and a stuck rate
// limit sinks the rest of the run the same way an auth rejection does.
func writeError(op, key string, status int, body string, err error) *reconcile.StoreWriteError {
	if err == nil {
		err = apiMessage(status, body)
	}
	transient := status == http.StatusTooManyRequests || status >= 500 || status == 0
	denied := status == http.StatusUnauthorized || status == http.StatusForbidden ||
		status == http.StatusTooManyRequests
	return &reconcile.StoreWriteError{
		Op:         op,
		Key:        key,
		StatusCode: status,
		Transient:  transient,
		Denied:     denied,
		Err:        err,
	}
}

func parsePage(page gjson.Result) reconcile.RemoteRow {
	appID := page.Get("properties.App ID.rich_text.0.plain_text").String()
	row := reconcile.RemoteRow{
		ID:          page.Get("id").String(),
		AppName:     page.Get("properties.App Name.title.0.plain_text").String(),
		AppID:       appID,
		Category:    page.Get("properties.Category.select.name").String(),
		Type:        page.Get("properties.Type.select.name").String(),
		Domain:      page.Get("properties.Domain.rich_text.0.plain_text").String(),
		DeviceLabel: page.Get("properties.Device.rich_text.0.plain_text").String(),
		Minutes:     page.Get("properties.Minutes.number").Float(),
		Sessions:    int(page.Get("properties.Sessions.number").Int()),
		Manual:      appID == "",
	}
	if start := page.Get("properties.Date.date.start").String(); len(start) >= 10 {
		if ws, err := time.ParseInLocation("2006-01-02", start[:10], time.UTC); err == nil {
			row.WeekStart = ws
		}
	}
	return row
}

func buildProperties(row usage.SummaryRow) map[string]interface{} {
	properties := map[string]interface{}{
		"App Name": map[string]interface{}{
			"title": []interface{}{textContent(row.AppName)},
		},
		"App ID": map[string]interface{}{
			"rich_text": []interface{}{textContent(row.AppID)},
		},
		"Date": map[string]interface{}{
			"date": map[string]string{"start": row.WeekStart.Format("2006-01-02")},
		},
		"Minutes": map[string]interface{}{
			"number": row.Minutes,
		},
		"Hours": map[string]interface{}{
			"number": row.Hours,
		},
		"Sessions": map[string]interface{}{
			"number": row.Sessions,
		},
		"Type": map[string]interface{}{
			"select": map[string]string{"name": string(row.Type)},
		},
		"Device": map[string]interface{}{
			"rich_text": []interface{}{textContent(row.DeviceLabel)},
		},
		"Last Updated": map[string]interface{}{
			"date": map[string]string{"start": row.LastUpdated.Format(time.RFC3339)},
		},
	}
	if row.Domain != "" {
		properties["Domain"] = map[string]interface{}{
			"rich_text": []interface{}{textContent(row.Domain)},
		}
	}
	if row.Category != "" {
		properties["Category"] = map[string]interface{}{
			"select": map[string]string{"name": row.Category},
		}
	}
	return properties
}

func textContent(s string) map[string]interface{} {
	return map[string]interface{}{
		"text": map[string]string{"content": s},
	}
}

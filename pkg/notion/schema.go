package notion

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/usageflow/screensync/internal/utils"
	"github.com/usageflow/screensync/pkg/category"
)

// Verify checks that the token can see the database at all. Called before a
// run so auth problems fail fast instead of mid-apply.
func (c *Client) Verify(ctx context.Context) error {
	status, body, err := c.call(ctx, http.MethodGet, "/databases/"+c.databaseID, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return apiMessage(status, body)
	}
	return nil
}

// EnsureSchema adds the columns the sync writes to, leaving any property the
// user already defined untouched. Select options for Category come from the
// configured category set.
func (c *Client) EnsureSchema(ctx context.Context) error {
	status, body, err := c.call(ctx, http.MethodGet, "/databases/"+c.databaseID, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return apiMessage(status, body)
	}

	missing := map[string]interface{}{}
	addIfMissing := func(name string, def interface{}) {
		if !gjson.Get(body, "properties."+name).Exists() {
			missing[name] = def
		}
	}

	var categoryOptions []interface{}
	for _, cat := range category.Defaults() {
		categoryOptions = append(categoryOptions, map[string]string{
			"name":  cat.Name,
			"color": cat.Color,
		})
	}
	addIfMissing("Category", map[string]interface{}{
		"select": map[string]interface{}{"options": categoryOptions},
	})
	addIfMissing("Type", map[string]interface{}{
		"select": map[string]interface{}{
			"options": []interface{}{
				map[string]string{"name": "App", "color": "blue"},
				map[string]string{"name": "Website", "color": "green"},
				map[string]string{"name": "Sleep", "color": "gray"},
			},
		},
	})
	addIfMissing("Domain", map[string]interface{}{"rich_text": map[string]interface{}{}})
	addIfMissing("Last Updated", map[string]interface{}{"date": map[string]interface{}{}})
	addIfMissing("Device", map[string]interface{}{"rich_text": map[string]interface{}{}})

	if len(missing) == 0 {
		utils.Log.Debug("store schema is up to date")
		return nil
	}

	payload := map[string]interface{}{"properties": missing}
	status, body, err = c.call(ctx, http.MethodPatch, "/databases/"+c.databaseID, payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return apiMessage(status, body)
	}
	names := make([]string, 0, len(missing))
	for name := range missing {
		names = append(names, name)
	}
	utils.Log.Infof("added store columns: %v", names)
	return nil
}

// DatabaseInfo is the metadata shown by the info command.
type DatabaseInfo struct {
	Title          string
	URL            string
	CreatedTime    string
	LastEditedTime string
	Properties     []string
}

func (c *Client) Info(ctx context.Context) (*DatabaseInfo, error) {
	status, body, err := c.call(ctx, http.MethodGet, "/databases/"+c.databaseID, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, apiMessage(status, body)
	}
	info := &DatabaseInfo{
		Title:          gjson.Get(body, "title.0.plain_text").String(),
		URL:            gjson.Get(body, "url").String(),
		CreatedTime:    gjson.Get(body, "created_time").String(),
		LastEditedTime: gjson.Get(body, "last_edited_time").String(),
	}
	if info.Title == "" {
		info.Title = "Untitled"
	}
	gjson.Get(body, "properties").ForEach(func(key, _ gjson.Result) bool {
		info.Properties = append(info.Properties, key.String())
		return true
	})
	return info, nil
}

// ArchiveAll archives every page in the database, manual pages included.
// Destructive; the CLI asks for confirmation before calling it.
func (c *Client) ArchiveAll(ctx context.Context) (int, error) {
	archived := 0
	cursor := ""
	for {
		payload := map[string]interface{}{"page_size": queryPageSize}
		if cursor != "" {
			payload["start_cursor"] = cursor
		}
		status, body, err := c.call(ctx, http.MethodPost, "/databases/"+c.databaseID+"/query", payload)
		if err != nil {
			return archived, err
		}
		if status != http.StatusOK {
			return archived, apiMessage(status, body)
		}

		var pageIDs []string
		gjson.Get(body, "results.#.id").ForEach(func(_, id gjson.Result) bool {
			pageIDs = append(pageIDs, id.String())
			return true
		})
		for _, id := range pageIDs {
			status, archiveBody, err := c.call(ctx, http.MethodPatch, "/pages/"+id, map[string]interface{}{"archived": true})
			if err != nil {
				return archived, err
			}
			if status != http.StatusOK {
				return archived, apiMessage(status, archiveBody)
			}
			archived++
		}

		if !gjson.Get(body, "has_more").Bool() {
			return archived, nil
		}
		cursor = gjson.Get(body, "next_cursor").String()
	}
}

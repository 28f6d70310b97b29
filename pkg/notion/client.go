// Package notion implements the external store on top of the Notion API. A
// database page is one weekly summary row; pages without an App ID value
// belong to the user and are reported as manual.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

const (
	apiBase       = "https://api.notion.com/v1"
	notionVersion = "2022-06-28"

	// Notion allows roughly three requests per second.
	rateLimitInterval = 350 * time.Millisecond
)

// Rate-limiting types and global channel
type apiResult struct {
	status int
	body   string
	err    error
}

type apiCall struct {
	req        *retryablehttp.Request
	client     *retryablehttp.Client
	resultChan chan apiResult
}

var apiCallChan chan apiCall

func init() {
	apiCallChan = make(chan apiCall)
	go apiCallWorker()
}

func apiCallWorker() {
	ticker := time.NewTicker(rateLimitInterval)
	defer ticker.Stop()
	for c := range apiCallChan {
		<-ticker.C
		resp, err := c.client.Do(c.req)
		if err != nil {
			c.resultChan <- apiResult{err: err}
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			c.resultChan <- apiResult{status: resp.StatusCode, err: err}
			continue
		}
		c.resultChan <- apiResult{status: resp.StatusCode, body: string(body)}
	}
}

// Client talks to one Notion database.
type Client struct {
	http       *retryablehttp.Client
	base       string
	token      string
	databaseID string
}

func NewClient(token, databaseID string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = log.New(io.Discard, "", 0)
	retryClient.RetryMax = 4
	return &Client{
		http:       retryClient,
		base:       apiBase,
		token:      token,
		databaseID: databaseID,
	}
}

// call sends one rate-limited API request and returns the raw status and
// body. Retryable failures (429, 5xx, network) have already been retried by
// the transport when this returns.
func (c *Client) call(ctx context.Context, method, path string, payload interface{}) (int, string, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, "", err
		}
		body = bytes.NewReader(data)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Content-Type", "application/json")

	resultChan := make(chan apiResult, 1)
	apiCallChan <- apiCall{req: req, client: c.http, resultChan: resultChan}
	result := <-resultChan
	return result.status, result.body, result.err
}

// apiMessage pulls the human readable error message out of an API error
// body, falling back to the status code alone.
func apiMessage(status int, body string) error {
	if msg := gjson.Get(body, "message").String(); msg != "" {
		return fmt.Errorf("notion api: %s", msg)
	}
	return fmt.Errorf("notion api: status %d", status)
}

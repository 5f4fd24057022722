// Package mirror replicates task records to a Notion database.
//
// The mirror is a best-effort, denormalized replica keyed by the task
// id. The primary document store is always the source of truth: every
// error from this package is reported by callers as a warning and never
// rolls back a committed write.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/statusdash/statusctl/internal/schema"
)

const (
	defaultBaseURL = "https://api.notion.com"
	notionVersion  = "2022-06-28"

	requestTimeout = 15 * time.Second

	// idProperty is the rich-text property that holds the task id.
	// It identifies the page for a task across upserts.
	idProperty = "Task ID"
)

// Client talks to the Notion API for a single database.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	databaseID string
}

// Options configures a Client.
type Options struct {
	Token      string
	DatabaseID string

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// New creates a mirror client. Token and database id are required.
func New(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("notion token is required")
	}
	if opts.DatabaseID == "" {
		return nil, fmt.Errorf("notion database id is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		httpClient: opts.HTTPClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		databaseID: opts.DatabaseID,
	}, nil
}

// Upsert creates or updates the mirror page for a task. The page is
// located by the task id property; calling Upsert twice with the same
// task converges to the same remote state instead of duplicating pages.
func (c *Client) Upsert(ctx context.Context, task schema.Task) error {
	pageID, err := c.findPage(ctx, task.ID)
	if err != nil {
		return err
	}

	props := taskProperties(task)

	if pageID == "" {
		body := map[string]any{
			"parent":     map[string]any{"database_id": c.databaseID},
			"properties": props,
		}
		return c.do(ctx, http.MethodPost, "/v1/pages", body, nil)
	}

	body := map[string]any{"properties": props}
	return c.do(ctx, http.MethodPatch, "/v1/pages/"+pageID, body, nil)
}

// Archive soft-deletes the mirror page for a task id. Archiving a task
// that has no page is a silent no-op.
func (c *Client) Archive(ctx context.Context, taskID string) error {
	pageID, err := c.findPage(ctx, taskID)
	if err != nil {
		return err
	}
	if pageID == "" {
		return nil
	}
	body := map[string]any{"archived": true}
	return c.do(ctx, http.MethodPatch, "/v1/pages/"+pageID, body, nil)
}

// findPage returns the page id mirroring the given task id, or "" when
// no page exists yet.
func (c *Client) findPage(ctx context.Context, taskID string) (string, error) {
	body := map[string]any{
		"filter": map[string]any{
			"property":  idProperty,
			"rich_text": map[string]any{"equals": taskID},
		},
		"page_size": 1,
	}

	var result struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/databases/"+c.databaseID+"/query", body, &result); err != nil {
		return "", err
	}
	if len(result.Results) == 0 {
		return "", nil
	}
	return result.Results[0].ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notion request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read notion response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &apiErr)
		if apiErr.Message != "" {
			return fmt.Errorf("notion %s %s: HTTP %d: %s", method, path, resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("notion %s %s: HTTP %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse notion response: %w", err)
		}
	}
	return nil
}

// taskProperties maps a task onto the database's property schema. The
// mapping is fixed; the target database must carry these properties.
func taskProperties(task schema.Task) map[string]any {
	props := map[string]any{
		"Name": map[string]any{
			"title": []any{textBlock(task.Title)},
		},
		idProperty: map[string]any{
			"rich_text": []any{textBlock(task.ID)},
		},
		"Status": map[string]any{
			"select": map[string]any{"name": task.Status},
		},
		"Category": map[string]any{
			"select": map[string]any{"name": task.Category},
		},
		"Progress": map[string]any{
			"number": task.Progress,
		},
		"Note": map[string]any{
			"rich_text": []any{textBlock(task.Note)},
		},
		"Updated": map[string]any{
			"date": map[string]any{"start": task.UpdatedAt.Format(time.RFC3339)},
		},
	}
	if task.StartedAt != nil {
		props["Started"] = map[string]any{
			"date": map[string]any{"start": task.StartedAt.Format(time.RFC3339)},
		}
	}
	return props
}

func textBlock(s string) map[string]any {
	return map[string]any{
		"text": map[string]any{"content": s},
	}
}

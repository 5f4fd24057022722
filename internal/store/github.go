package store

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/statusdash/statusctl/internal/schema"
)

const (
	defaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"

	// Every call shares one short timeout; a hung remote fails the
	// invocation rather than blocking it forever.
	requestTimeout = 15 * time.Second
)

// GitHubClient implements DocumentStore against the GitHub Contents API.
// The blob SHA reported by the API serves as the revision token.
type GitHubClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	owner      string
	repo       string
	branch     string
	path       string
}

// GitHubOptions configures a GitHubClient.
type GitHubOptions struct {
	Token  string
	Owner  string
	Repo   string
	Branch string // defaults to "main"
	Path   string // repository path of the status document

	// BaseURL overrides the API endpoint, e.g. for GitHub Enterprise
	// or a test server.
	BaseURL string

	// HTTPClient overrides the default client. Mainly for tests.
	HTTPClient *http.Client
}

// NewGitHub creates a contents-API client for a single document path.
func NewGitHub(opts GitHubOptions) (*GitHubClient, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("github token is required")
	}
	if opts.Owner == "" || opts.Repo == "" {
		return nil, fmt.Errorf("repository owner and name are required")
	}
	if opts.Path == "" {
		return nil, fmt.Errorf("document path is required")
	}
	if opts.Branch == "" {
		opts.Branch = "main"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: requestTimeout}
	}
	return &GitHubClient{
		httpClient: opts.HTTPClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		owner:      opts.Owner,
		repo:       opts.Repo,
		branch:     opts.Branch,
		path:       strings.TrimLeft(opts.Path, "/"),
	}, nil
}

func (c *GitHubClient) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, c.owner, c.repo, c.path)
}

// contentsResponse is the subset of the contents API response we use.
type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

type writeResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Fetch implements DocumentStore.Fetch.
func (c *GitHubClient) Fetch(ctx context.Context) (*schema.Document, string, error) {
	url := fmt.Sprintf("%s?ref=%s", c.contentsURL(), c.branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build fetch request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w: %v", c.path, ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w: %v", c.path, ErrTransient, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", c.apiError("fetch "+c.path, resp.StatusCode, body, "")
	}

	var contents contentsResponse
	if err := json.Unmarshal(body, &contents); err != nil {
		return nil, "", fmt.Errorf("failed to parse contents response: %w", err)
	}

	// The API wraps base64 content at 60 columns.
	raw, err := base64.StdEncoding.DecodeString(stripWhitespace(contents.Content))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode document content: %w", err)
	}

	doc, err := schema.Decode(raw)
	if err != nil {
		return nil, "", err
	}
	return doc, contents.SHA, nil
}

// Write implements DocumentStore.Write. The commit lands on the
// configured branch with the given message; the previous blob SHA is
// sent so the server rejects the write if the file moved underneath us.
func (c *GitHubClient) Write(ctx context.Context, doc *schema.Document, revision, message string) (string, error) {
	raw, err := doc.Encode()
	if err != nil {
		return "", err
	}

	payload := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(raw),
		"sha":     revision,
		"branch":  c.branch,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal write request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.contentsURL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build write request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("write %s: %w: %v", c.path, ErrTransient, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("write %s: %w: %v", c.path, ErrTransient, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var wr writeResponse
		if err := json.Unmarshal(respBody, &wr); err != nil {
			return "", fmt.Errorf("failed to parse write response: %w", err)
		}
		return wr.Content.SHA, nil
	case http.StatusConflict:
		return "", &ConflictError{ExpectedRevision: revision}
	default:
		return "", c.apiError("write "+c.path, resp.StatusCode, respBody, revision)
	}
}

func (c *GitHubClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
}

// apiError classifies a non-success status into the store error taxonomy.
func (c *GitHubClient) apiError(op string, status int, body []byte, revision string) error {
	var er errorResponse
	_ = json.Unmarshal(body, &er)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &APIError{Op: op, StatusCode: status, Message: er.Message, class: ErrAuth}
	case status == http.StatusNotFound:
		return &APIError{Op: op, StatusCode: status, Message: er.Message, class: ErrNotFound}
	case status == http.StatusUnprocessableEntity && strings.Contains(er.Message, "does not match"):
		// Some API versions report a stale sha as 422 rather than 409.
		return &ConflictError{ExpectedRevision: revision}
	case status >= 500:
		return &APIError{Op: op, StatusCode: status, Message: er.Message, class: ErrTransient}
	default:
		return &APIError{Op: op, StatusCode: status, Message: er.Message}
	}
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Fetcher is the surface the UI consumes. Implemented by *Client; tests
// substitute fakes.
type Fetcher interface {
	FetchJobs(ctx context.Context) (JobsResponse, error)
	SearchLog(ctx context.Context, query SearchQuery) (SearchResult, error)
	CancelJob(ctx context.Context, jobID string) error
	ResubmitJob(ctx context.Context, jobID string) (string, error)
	FetchSubmitInfo(ctx context.Context, jobID string) (SubmitInfo, error)
	FetchScriptContent(ctx context.Context, path string) (ScriptContent, error)
	BaseURL() string
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// Client talks to the sluiced HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIBind   = "127.0.0.1:7519"
	defaultUserAgent = "sluice/0.1"
	requestTimeout   = 10 * time.Second
)

// NewClient builds a Client using the provided apiBind host:port value.
func NewClient(apiBind string) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the daemon base URL, for opening push channels.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchJobs retrieves running and recently-seen jobs.
func (c *Client) FetchJobs(ctx context.Context) (JobsResponse, error) {
	if c == nil {
		return JobsResponse{}, fmt.Errorf("client is nil")
	}
	var payload JobsResponse
	if err := c.do(ctx, http.MethodGet, "/api/jobs", &payload); err != nil {
		return JobsResponse{}, err
	}
	return payload, nil
}

// SearchQuery configures /api/search_log requests.
type SearchQuery struct {
	LogKey  string
	Kind    string
	Q       string
	Context int // context lines per match, server clamps to 0..10
}

// SearchLog runs a pattern query against the daemon-held log content, which
// is authoritative and may exceed what the viewer has buffered. A server-side
// rejection (bad pattern, unreadable file) comes back in SearchResult.Error
// rather than as a transport error.
func (c *Client) SearchLog(ctx context.Context, query SearchQuery) (SearchResult, error) {
	if c == nil {
		return SearchResult{}, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("log_key", query.LogKey)
	values.Set("kind", query.Kind)
	values.Set("q", query.Q)
	if query.Context > 0 {
		values.Set("context", strconv.Itoa(query.Context))
	}
	rel := &url.URL{Path: "/api/search_log", RawQuery: values.Encode()}

	var payload SearchResult
	if err := c.doURL(ctx, http.MethodGet, rel, &payload); err != nil {
		return SearchResult{}, err
	}
	return payload, nil
}

// CancelJob asks the scheduler to cancel a running job.
func (c *Client) CancelJob(ctx context.Context, jobID string) error {
	if strings.TrimSpace(jobID) == "" {
		return fmt.Errorf("job id required")
	}
	var payload actionResponse
	if err := c.do(ctx, http.MethodPost, "/api/cancel/"+url.PathEscape(jobID), &payload); err != nil {
		return err
	}
	if payload.Error != "" {
		return fmt.Errorf("cancel job %s: %s", jobID, payload.Error)
	}
	return nil
}

// ResubmitJob resubmits a finished job and returns the new job id.
func (c *Client) ResubmitJob(ctx context.Context, jobID string) (string, error) {
	if strings.TrimSpace(jobID) == "" {
		return "", fmt.Errorf("job id required")
	}
	var payload actionResponse
	if err := c.do(ctx, http.MethodPost, "/api/resubmit/"+url.PathEscape(jobID), &payload); err != nil {
		return "", err
	}
	if payload.Error != "" {
		return "", fmt.Errorf("resubmit job %s: %s", jobID, payload.Error)
	}
	return payload.JobID, nil
}

// FetchSubmitInfo retrieves submission details for a job.
func (c *Client) FetchSubmitInfo(ctx context.Context, jobID string) (SubmitInfo, error) {
	var payload SubmitInfo
	if err := c.do(ctx, http.MethodGet, "/api/submit_info/"+url.PathEscape(jobID), &payload); err != nil {
		return SubmitInfo{}, err
	}
	return payload, nil
}

// FetchScriptContent retrieves a submission script's content.
func (c *Client) FetchScriptContent(ctx context.Context, path string) (ScriptContent, error) {
	values := url.Values{}
	values.Set("path", path)
	rel := &url.URL{Path: "/api/script_content", RawQuery: values.Encode()}
	var payload ScriptContent
	if err := c.doURL(ctx, http.MethodGet, rel, &payload); err != nil {
		return ScriptContent{}, err
	}
	return payload, nil
}

func (c *Client) do(ctx context.Context, method, path string, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if dest != nil {
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(dest); err != nil {
			if resp.StatusCode >= 400 {
				return fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
			}
			return fmt.Errorf("decode response: %w", err)
		}
	}
	// Error payloads ride on 4xx/5xx with a decodable body; surface the
	// status only when the body carried nothing usable.
	if resp.StatusCode >= 400 {
		if sr, ok := dest.(*SearchResult); ok && sr.Error != "" {
			return nil
		}
		if ar, ok := dest.(*actionResponse); ok && ar.Error != "" {
			return nil
		}
		return fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
	}
	return nil
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

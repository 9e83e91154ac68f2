package jira

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"jirascraper/pkg/config"
	errs "jirascraper/pkg/errors"
	"jirascraper/pkg/logger"
	"jirascraper/pkg/ratelimit"
	"jirascraper/pkg/retry"
)

// Client talks to a Jira-style tracker over its REST v2 API
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	email      string
	apiToken   string
	limiter    ratelimit.Limiter
	retryCfg   *retry.Config
	logger     logger.Logger
}

// NewClient creates a client against the default tracker with default retry
// behavior
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	// Use default logger if none provided
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent": "jirascraper/1.0",
			"Accept":     "application/json",
		},
		baseURL:  DefaultBaseURL,
		retryCfg: retry.NewHTTPConfig(5, log),
		logger:   log,
	}
}

// NewClientWithConfig creates a fully configured client: tracker address and
// credentials from the jira section, retry behavior from the retry section
func NewClientWithConfig(jiraCfg *config.JiraConfig, retryCfg *config.RetryConfig, log logger.Logger) *Client {
	c := NewClient(jiraCfg.RequestTimeout, log)
	if jiraCfg.BaseURL != "" {
		c.baseURL = jiraCfg.BaseURL
	}
	if jiraCfg.UserAgent != "" {
		c.headers["User-Agent"] = jiraCfg.UserAgent
	}
	if jiraCfg.Email != "" && jiraCfg.APIToken != "" {
		c.SetBasicAuth(jiraCfg.Email, jiraCfg.APIToken)
	}
	c.retryCfg = retryConfigFor(retryCfg, log)
	return c
}

// retryConfigFor maps the config retry section onto the HTTP retry setup.
// A configured backoff replaces the per-class schedules wholesale; the
// Retry-After override and per-class attempt budgets still apply.
func retryConfigFor(rc *config.RetryConfig, log logger.Logger) *retry.Config {
	if rc == nil {
		return retry.NewHTTPConfig(5, log)
	}
	cfg := retry.NewHTTPConfig(rc.MaxAttempts, log)
	if rc.InitialBackoff > 0 {
		cfg.Backoff = &retry.ExponentialBackoff{
			BaseDelay:    rc.InitialBackoff,
			MaxDelay:     rc.MaxBackoff,
			Multiplier:   rc.BackoffMultiplier,
			JitterFactor: rc.JitterFactor,
		}
		cfg.BackoffForError = nil
	}
	return cfg
}

// SetBasicAuth attaches tracker credentials; anonymous access is the default
func (c *Client) SetBasicAuth(email, apiToken string) {
	c.email = email
	c.apiToken = apiToken
}

// SetLimiter installs a courtesy throttle consulted before every request
func (c *Client) SetLimiter(limiter ratelimit.Limiter) {
	c.limiter = limiter
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHeaders sets multiple headers at once
func (c *Client) SetHeaders(headers map[string]string) {
	for key, value := range headers {
		c.headers[key] = value
	}
}

// BaseURL returns the tracker address this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	// Honor the courtesy throttle before touching the wire
	if c.limiter != nil {
		c.limiter.Wait()
	}

	// Set all headers
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if c.email != "" && c.apiToken != "" {
		req.SetBasicAuth(c.email, c.apiToken)
	}

	// Log the request
	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}

	// Log successful response
	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// Get performs a GET request to the specified URL
func (c *Client) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Code:    0,
		}
	}

	return c.doRequest(req)
}

// getJSON performs a single GET attempt and decodes the JSON response
func (c *Client) getJSON(url string, target interface{}) error {
	resp, err := c.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Check status code
	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	// Read response body
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	// Decode JSON
	if err := json.Unmarshal(body, target); err != nil {
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview(body),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// getRaw performs a single GET attempt and returns the body verbatim after
// confirming it is well-formed JSON
func (c *Client) getRaw(url string) (json.RawMessage, error) {
	resp, err := c.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if !json.Valid(body) {
		c.logger.ErrorWithFields("response body is not valid JSON", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"body_preview": bodyPreview(body),
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: "response body is not valid JSON",
			Code:    resp.StatusCode,
		}
	}

	return json.RawMessage(body), nil
}

// bodyPreview truncates a response body for log output
func bodyPreview(body []byte) string {
	preview := string(body)
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	return preview
}

// checkResponseStatus checks the HTTP response status and returns appropriate errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeAuth,
			Message: "authentication required",
			Code:    resp.StatusCode,
		}
	case http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp)
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status":      resp.StatusCode,
			"url":         resp.Request.URL.String(),
			"retry_after": retryAfter,
		})
		return &errs.Error{
			Type:       errs.ErrorTypeRateLimit,
			Message:    "rate limit exceeded",
			Code:       resp.StatusCode,
			RetryAfter: retryAfter,
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	default:
		if resp.StatusCode >= 500 {
			return &errs.Error{
				Type:    errs.ErrorTypeServerError,
				Message: fmt.Sprintf("server returned status %d", resp.StatusCode),
				Code:    resp.StatusCode,
			}
		}
		if resp.StatusCode >= 400 {
			c.logger.ErrorWithFields("client error from tracker", map[string]interface{}{
				"status": resp.StatusCode,
				"url":    resp.Request.URL.String(),
			})
			return &errs.Error{
				Type:    errs.ErrorTypeClientError,
				Message: fmt.Sprintf("client error: status %d", resp.StatusCode),
				Code:    resp.StatusCode,
			}
		}
		return nil
	}
}

// parseRetryAfter reads an integer-seconds Retry-After header, 0 when absent
// or unparseable
func parseRetryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// SearchIssues runs one page of the JQL search, retrying transient failures
func (c *Client) SearchIssues(jql string, startAt, maxResults int) (*SearchResult, error) {
	if maxResults > MaxPageSize {
		maxResults = MaxPageSize
	}
	url := SearchURL(c.baseURL, jql, startAt, maxResults, "id,key")

	c.logger.DebugWithFields("searching issues", map[string]interface{}{
		"jql":         jql,
		"start_at":    startAt,
		"max_results": maxResults,
	})

	return retry.DoWithResult(func() (*SearchResult, error) {
		var result SearchResult
		if err := c.getJSON(url, &result); err != nil {
			return nil, err
		}
		return &result, nil
	}, c.retryCfg)
}

// GetIssueRaw fetches the full issue body verbatim, retrying transient
// failures
func (c *Client) GetIssueRaw(key string) (json.RawMessage, error) {
	if !IsValidIssueKey(key) {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeMalformed,
			Message: fmt.Sprintf("invalid issue key: %q", key),
		}
	}
	url := IssueURL(c.baseURL, key, AllFields)

	return retry.DoWithResult(func() (json.RawMessage, error) {
		return c.getRaw(url)
	}, c.retryCfg)
}

// FetchPage fetches one offset window of a project's issues: a key-only
// search followed by a full fetch of each issue. Any hard failure fails the
// page as a unit so the caller's offset bookkeeping never sees a partial
// success. Records whose keys are unusable as file names are skipped but
// still counted in Received.
func (c *Client) FetchPage(project string, startAt, pageSize int) (*Page, error) {
	result, err := c.SearchIssues(ProjectJQL(project), startAt, pageSize)
	if err != nil {
		return nil, err
	}

	page := &Page{
		Records:  make([]Record, 0, len(result.Issues)),
		Received: len(result.Issues),
		Total:    result.Total,
	}

	for _, stub := range result.Issues {
		if !IsValidIssueKey(stub.Key) {
			c.logger.WarnWithFields("skipping issue without usable key", map[string]interface{}{
				"project": project,
				"id":      stub.ID,
				"key":     stub.Key,
			})
			continue
		}

		raw, err := c.GetIssueRaw(stub.Key)
		if err != nil {
			return nil, fmt.Errorf("fetching issue %s: %w", stub.Key, err)
		}
		page.Records = append(page.Records, Record{Key: stub.Key, Data: raw})
	}

	c.logger.DebugWithFields("fetched page", map[string]interface{}{
		"project":  project,
		"start_at": startAt,
		"received": page.Received,
		"stored":   len(page.Records),
		"total":    page.Total,
	})

	return page, nil
}

// Ping checks connectivity and credentials against the tracker
func (c *Client) Ping() error {
	var info struct {
		BaseURL string `json:"baseUrl"`
		Version string `json:"version"`
	}
	if err := c.getJSON(ServerInfoURL(c.baseURL), &info); err != nil {
		return err
	}
	c.logger.DebugWithFields("tracker reachable", map[string]interface{}{
		"base_url": info.BaseURL,
		"version":  info.Version,
	})
	return nil
}

// Package ads fetches BibTeX records from the NASA Astrophysics Data System
// and folds them into a collection.
package ads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the ADS API base URL.
	BaseURL = "https://api.adsabs.harvard.edu/v1"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit keeps bulk updates well under the ADS per-token quota.
	RateLimit = 2.0

	// MaxBodySize caps the response body read from the export endpoint.
	MaxBodySize = 32 << 20
)

// Export is the answer of the BibTeX export endpoint.
type Export struct {
	Found   int      // Number of bibcodes ADS resolved
	Records []string // Raw BibTeX records, in ADS order
}

// Fetcher retrieves the BibTeX records for a list of bibcodes.
type Fetcher interface {
	FetchBibTeX(ctx context.Context, bibcodes []string) (*Export, error)
}

// Client is a rate-limited HTTP client for the ADS API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the ADS API token.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithRateLimit sets the number of requests allowed per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient creates a new ADS client. The token is taken from ADS_TOKEN
// unless WithToken is given.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}

	if token := os.Getenv("ADS_TOKEN"); token != "" {
		c.token = token
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type exportRequest struct {
	Bibcode []string `json:"bibcode"`
}

type exportResponse struct {
	Msg    string          `json:"msg"`
	Export string          `json:"export"`
	Error  json.RawMessage `json:"error"`
}

// FetchBibTeX calls the BibTeX export endpoint for bibcodes.
func (c *Client) FetchBibTeX(ctx context.Context, bibcodes []string) (*Export, error) {
	if len(bibcodes) == 0 {
		return &Export{}, nil
	}
	if c.token == "" {
		return nil, fmt.Errorf("%w: no token configured", ErrUnauthorized)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(exportRequest{Bibcode: bibcodes})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/export/bibtex", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}

	var out exportResponse
	if jsonErr := json.Unmarshal(data, &out); jsonErr != nil {
		if err := checkHTTPErrors(resp, ""); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, jsonErr)
	}
	if err := checkHTTPErrors(resp, errorMessage(out.Error)); err != nil {
		return nil, err
	}

	return parseExport(out), nil
}

// errorMessage reads the "error" member, which ADS sends either as a string
// or as an object with a "msg" member.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Msg != "" {
		return obj.Msg
	}
	return string(raw)
}

// checkHTTPErrors maps the status code and the API error message to the
// package errors.
func checkHTTPErrors(resp *http.Response, msg string) error {
	switch {
	case msg == "Unauthorized" || resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case msg == "no result from solr":
		return ErrNoResults
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case msg != "":
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	case resp.StatusCode >= 400:
		return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	return nil
}

// parseExport splits the export text into records. The found count comes
// from a message like "Retrieved 2 abstracts, starting with number 1.".
func parseExport(out exportResponse) *Export {
	var records []string
	for _, r := range strings.Split(strings.TrimSpace(out.Export), "\n\n") {
		if r = strings.TrimSpace(r); r != "" {
			records = append(records, r)
		}
	}

	found := len(records)
	if fields := strings.Fields(out.Msg); len(fields) > 1 {
		if n, err := strconv.Atoi(fields[1]); err == nil {
			found = n
		}
	}
	return &Export{Found: found, Records: records}
}

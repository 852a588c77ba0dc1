package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kurihiro0119/devprofile-api/internal/collector"
	"github.com/kurihiro0119/devprofile-api/internal/domain"
)

// requestIDHeader matches the header set by the server middleware
const requestIDHeader = "X-Request-ID"

// Client is the API client for devprofile-api
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client. token, when set, is forwarded to
// GitHub by the server instead of its default credential.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			// ingestion and poll loops run for minutes
			Timeout: 5 * time.Minute,
		},
	}
}

// APIError is an error body returned by the server
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d %s: %s (request %s)", e.StatusCode, e.Code, e.Message, e.RequestID)
}

// Health is the /health payload
type Health struct {
	Status      string          `json:"status"`
	Service     string          `json:"service"`
	GitHubQuota collector.Quota `json:"github_quota"`
}

// ScrapeResult is the payload of the scraping endpoints
type ScrapeResult struct {
	Success bool            `json:"success"`
	RunID   string          `json:"run_id"`
	Profile json.RawMessage `json:"profile,omitempty"`
	Posts   json.RawMessage `json:"posts,omitempty"`
	Tweets  json.RawMessage `json:"tweets,omitempty"`

	// Set by the microblog endpoint when reshares were filtered
	Stats *ReshareStats `json:"stats,omitempty"`
}

// ReshareStats counts the posts kept and dropped by the reshare filter
type ReshareStats struct {
	TotalFetched     int `json:"total_fetched"`
	OriginalCount    int `json:"original_count"`
	RetweetsFiltered int `json:"retweets_filtered"`
}

// ListRepositories retrieves the repositories of a user. owner may be a
// username or a profile URL.
func (c *Client) ListRepositories(ctx context.Context, owner string, opts domain.ListOptions) ([]*domain.Repository, error) {
	params := url.Values{}
	if opts.Type != "" {
		params.Set("repo_type", opts.Type)
	}
	if opts.Sort != "" {
		params.Set("sort", opts.Sort)
	}
	if opts.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(opts.PerPage))
	}

	path := "/repos/" + url.PathEscape(owner)
	if strings.Contains(owner, "/") {
		path = "/repos"
		params.Set("profile_url", owner)
	}

	var response struct {
		Data []*domain.Repository `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, params, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// Ingest retrieves the digest of one repository given as "owner/repo" or a URL
func (c *Client) Ingest(ctx context.Context, repo string, includeContent bool) (*domain.IngestResult, error) {
	params := url.Values{}
	params.Set("include_content", strconv.FormatBool(includeContent))

	path := "/gitingest/" + repo
	if strings.Contains(repo, "://") || strings.Count(repo, "/") != 1 {
		path = "/gitingest"
		params.Set("url", repo)
	}

	var response struct {
		Data *domain.IngestResult `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, params, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// IngestBatch retrieves digests for several repositories
func (c *Client) IngestBatch(ctx context.Context, repos []string, includeContent bool) (*domain.BatchResult, error) {
	params := url.Values{}
	params.Set("include_content", strconv.FormatBool(includeContent))

	body := map[string][]string{"repositories": repos}
	var response struct {
		Data *domain.BatchResult `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/gitingest", params, body, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// LinkedInProfile fetches profile details
func (c *Client) LinkedInProfile(ctx context.Context, input string, maxWait time.Duration) (*ScrapeResult, error) {
	return c.scrape(ctx, "/linkedin-profile", input, maxWait, nil)
}

// LinkedInPosts fetches posts of a profile
func (c *Client) LinkedInPosts(ctx context.Context, input string, maxWait time.Duration) (*ScrapeResult, error) {
	return c.scrape(ctx, "/linkedin-posts", input, maxWait, nil)
}

// TwitterPosts fetches posts of a microblog account
func (c *Client) TwitterPosts(ctx context.Context, input string, maxWait time.Duration, includeRetweets bool) (*ScrapeResult, error) {
	params := url.Values{}
	params.Set("include_retweets", strconv.FormatBool(includeRetweets))
	return c.scrape(ctx, "/twitter-posts", input, maxWait, params)
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck(ctx context.Context) (*Health, error) {
	var response Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &response); err != nil {
		return nil, err
	}
	if response.Status != "healthy" {
		return &response, fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return &response, nil
}

func (c *Client) scrape(ctx context.Context, path, input string, maxWait time.Duration, params url.Values) (*ScrapeResult, error) {
	if params == nil {
		params = url.Values{}
	}
	if maxWait > 0 {
		params.Set("max_wait", strconv.Itoa(int(maxWait/time.Second)))
	}

	var response struct {
		Data *ScrapeResult `json:"data"`
	}
	body := map[string]string{"user_input": input}
	if err := c.do(ctx, http.MethodPost, path, params, body, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, result any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get(requestIDHeader),
	}
	raw, _ := io.ReadAll(resp.Body)

	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(raw))
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	return apiErr
}

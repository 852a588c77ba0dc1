package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v55/github"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/kurihiro0119/devprofile-api/internal/domain"
	apperrors "github.com/kurihiro0119/devprofile-api/internal/errors"
	"github.com/kurihiro0119/devprofile-api/internal/metrics"
)

const userAgent = "devprofile-api"

// ClientOptions configures how go-github clients are built
type ClientOptions struct {
	// BaseURL of the REST API, e.g. https://api.github.com/
	BaseURL string
	// DefaultToken is used when a call carries no token of its own
	DefaultToken string
	// Timeout bounds every HTTP request made by the client
	Timeout time.Duration
}

// NewClient creates a go-github client authenticated with token, falling back
// to the default token. With neither, requests are unauthenticated.
func NewClient(opts ClientOptions, token string) (*github.Client, error) {
	if token == "" {
		token = opts.DefaultToken
	}

	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	} else {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = opts.Timeout

	client := github.NewClient(httpClient)
	client.UserAgent = userAgent

	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", opts.BaseURL, err)
		}
		client.BaseURL = u
	}
	return client, nil
}

// githubCollector implements Collector using GitHub API
type githubCollector struct {
	opts   ClientOptions
	quota  *quotaTracker
	logger zerolog.Logger
}

// NewGitHubCollector creates a new GitHub collector
func NewGitHubCollector(opts ClientOptions, logger zerolog.Logger) Collector {
	return &githubCollector{
		opts:   opts,
		quota:  newQuotaTracker(),
		logger: logger.With().Str("component", "github_collector").Logger(),
	}
}

// ListRepositories retrieves all repositories for a user. Pages are requested
// until one comes back short or empty.
func (c *githubCollector) ListRepositories(ctx context.Context, owner string, opts domain.ListOptions, token string) ([]*domain.Repository, error) {
	client, err := NewClient(c.opts, token)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create GitHub client", err)
	}

	if opts.PerPage <= 0 || opts.PerPage > domain.MaxPerPage {
		opts.PerPage = domain.MaxPerPage
	}
	listOpts := &github.RepositoryListOptions{
		Type:        opts.Type,
		Sort:        opts.Sort,
		ListOptions: github.ListOptions{Page: 1, PerPage: opts.PerPage},
	}

	var allRepos []*domain.Repository
	for {
		start := time.Now()
		repos, resp, err := client.Repositories.List(ctx, owner, listOpts)
		metrics.ObserveNetworkRequest("github", "list_repositories", "users/repos", start, err)
		c.updateQuota(resp)
		if err != nil {
			return nil, UpstreamError(resp, "GitHub user "+owner, "failed to fetch repositories from GitHub", err)
		}

		if len(repos) == 0 {
			break
		}

		for _, repo := range repos {
			r, ok := toDomainRepository(repo)
			if !ok {
				metrics.RepositoriesDropped.Inc()
				c.logger.Warn().
					Str("owner", owner).
					Str("repo", repo.GetName()).
					Msg("dropping repository record with missing fields")
				continue
			}
			allRepos = append(allRepos, r)
		}

		if len(repos) < opts.PerPage {
			break
		}
		listOpts.Page++
	}

	return allRepos, nil
}

// Quota returns the last observed rate limit
func (c *githubCollector) Quota() Quota {
	return c.quota.Snapshot()
}

// updateQuota records the rate limit and warns when it is nearly spent
func (c *githubCollector) updateQuota(resp *github.Response) {
	c.quota.Update(resp)
	if q := c.quota.Snapshot(); q.Low() {
		c.logger.Warn().
			Int("remaining", q.Remaining).
			Time("reset", q.Reset).
			Msg("GitHub rate limit nearly exhausted")
	}
}

// toDomainRepository maps an API record, rejecting records without the
// fields the response model requires.
func toDomainRepository(repo *github.Repository) (*domain.Repository, bool) {
	if repo == nil || repo.Name == nil || repo.FullName == nil || repo.HTMLURL == nil || repo.UpdatedAt == nil {
		return nil, false
	}
	return &domain.Repository{
		Name:        repo.GetName(),
		FullName:    repo.GetFullName(),
		Description: repo.Description,
		HTMLURL:     repo.GetHTMLURL(),
		Private:     repo.GetPrivate(),
		Fork:        repo.GetFork(),
		Stars:       repo.GetStargazersCount(),
		Language:    repo.Language,
		UpdatedAt:   repo.GetUpdatedAt().UTC().Format(time.RFC3339),
	}, true
}

// Package social fetches profile and post data through the scraping agents.
package social

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kurihiro0119/devprofile-api/internal/domain"
	apperrors "github.com/kurihiro0119/devprofile-api/internal/errors"
)

// Wait budget bounds accepted from callers
const (
	DefaultMaxWait = 60 * time.Second
	MinMaxWait     = 10 * time.Second
	MaxMaxWait     = 120 * time.Second
)

// Integration names, also used as metric labels
const (
	LinkedInProfile = "linkedin_profile"
	LinkedInPosts   = "linkedin_posts"
	TwitterPosts    = "twitter_posts"
)

// Runner runs one start-then-poll exchange with a scraping agent
type Runner interface {
	Run(ctx context.Context, input string, maxWait time.Duration) *domain.PollResult
}

// Result is the data returned by an agent run
type Result struct {
	Data  json.RawMessage
	RunID string
	// Filter is set for microblog posts only
	Filter *domain.FilterResult
}

// Service defines the scraping operations
type Service interface {
	FetchProfile(ctx context.Context, input string, maxWait time.Duration) (*Result, error)
	FetchPosts(ctx context.Context, input string, maxWait time.Duration) (*Result, error)
	// FetchTweets removes reshares unless includeReshares is set
	FetchTweets(ctx context.Context, input string, maxWait time.Duration, includeReshares bool) (*Result, error)
}

// Runners groups the agent per integration. A nil runner disables its integration.
type Runners struct {
	Profile Runner
	Posts   Runner
	Tweets  Runner
}

type service struct {
	runners Runners
	logger  zerolog.Logger
}

// NewService creates a new social service
func NewService(runners Runners, logger zerolog.Logger) Service {
	return &service{
		runners: runners,
		logger:  logger.With().Str("component", "social").Logger(),
	}
}

func (s *service) FetchProfile(ctx context.Context, input string, maxWait time.Duration) (*Result, error) {
	return s.fetch(ctx, LinkedInProfile, s.runners.Profile, input, maxWait)
}

func (s *service) FetchPosts(ctx context.Context, input string, maxWait time.Duration) (*Result, error) {
	return s.fetch(ctx, LinkedInPosts, s.runners.Posts, input, maxWait)
}

func (s *service) FetchTweets(ctx context.Context, input string, maxWait time.Duration, includeReshares bool) (*Result, error) {
	res, err := s.fetch(ctx, TwitterPosts, s.runners.Tweets, input, maxWait)
	if err != nil {
		return nil, err
	}
	if includeReshares {
		return res, nil
	}

	filter := FilterReshares(res.Data)
	res.Filter = &filter
	res.Data = filter.Posts
	s.logger.Debug().
		Str("run_id", res.RunID).
		Int("total", filter.Total).
		Int("filtered", filter.FilteredCount).
		Msg("reshares filtered")
	return res, nil
}

func (s *service) fetch(ctx context.Context, name string, runner Runner, input string, maxWait time.Duration) (*Result, error) {
	if runner == nil {
		return nil, apperrors.NewUnavailableError(name + " integration is not configured")
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, apperrors.NewBadRequestError("user_input is required")
	}
	if maxWait < MinMaxWait || maxWait > MaxMaxWait {
		return nil, apperrors.NewBadRequestError("max_wait must be between 10 and 120 seconds")
	}

	res := runner.Run(ctx, input, maxWait)
	switch res.State {
	case domain.PollSucceeded:
		return &Result{Data: res.Data, RunID: res.RunID}, nil
	case domain.PollTimedOut:
		return nil, apperrors.NewTimeoutError(res.Error)
	default:
		return nil, apperrors.NewInternalError(res.Error, nil)
	}
}

// Package webhook drives asynchronous scraping agents: start a run, then poll
// its status until it produces data, fails or runs out of time.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kurihiro0119/devprofile-api/internal/domain"
	"github.com/kurihiro0119/devprofile-api/internal/metrics"
)

const (
	DefaultResponseField   = "response"
	DefaultInitialInterval = 2 * time.Second
	DefaultIntervalStep    = 500 * time.Millisecond
	DefaultMaxInterval     = 5 * time.Second

	// maxBodyBytes bounds how much of an agent response is read
	maxBodyBytes = 32 << 20
)

// Options configures a Poller
type Options struct {
	// Name identifies the integration in logs and metrics
	Name string
	// BaseURL is the webhook base; runs start at {BaseURL}/async and are
	// polled at {BaseURL}/status/{run_id}
	BaseURL string
	// ResponseField is the key of the result inside a ready payload
	ResponseField string

	InitialInterval time.Duration
	IntervalStep    time.Duration
	MaxInterval     time.Duration

	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Poller runs the start-then-poll protocol against one webhook
type Poller struct {
	opts   Options
	client *http.Client
	logger zerolog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Poller, filling unset options with defaults
func New(opts Options) *Poller {
	if opts.ResponseField == "" {
		opts.ResponseField = DefaultResponseField
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = DefaultInitialInterval
	}
	if opts.IntervalStep <= 0 {
		opts.IntervalStep = DefaultIntervalStep
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = DefaultMaxInterval
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Poller{
		opts:   opts,
		client: client,
		logger: opts.Logger.With().Str("component", "webhook").Str("integration", opts.Name).Logger(),
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Name returns the integration name
func (p *Poller) Name() string {
	return p.opts.Name
}

// Run starts a run for input and polls it until a terminal state. The wait
// budget covers the whole exchange; the last sleep may overrun it by at most
// one interval.
func (p *Poller) Run(ctx context.Context, input string, maxWait time.Duration) *domain.PollResult {
	res := p.run(ctx, input, maxWait)
	if !res.State.Terminal() {
		p.logger.Error().Str("state", string(res.State)).Msg("poll loop left a non-terminal state")
		res.State = domain.PollFailed
	}
	metrics.ObservePollOutcome(p.opts.Name, string(res.State))

	ev := p.logger.Info()
	if !res.Succeeded() {
		ev = p.logger.Warn().Str("error", res.Error)
		if res.StatusCode != 0 {
			ev = ev.Int("status_code", res.StatusCode)
		}
	}
	ev.Str("state", string(res.State)).
		Str("run_id", res.RunID).
		Int("attempts", res.Attempts).
		Msg("poll finished")
	return res
}

func (p *Poller) run(ctx context.Context, input string, maxWait time.Duration) *domain.PollResult {
	started := p.now()
	res := &domain.PollResult{State: domain.PollStarting}

	runID, err := p.start(ctx, input)
	if err != nil {
		res.State = domain.PollFailed
		res.Error = fmt.Sprintf("Failed to start agent: %v", err)
		return res
	}
	if runID == "" {
		res.State = domain.PollFailed
		res.Error = "Failed to start agent: no run id received"
		return res
	}
	p.logger.Info().Str("run_id", runID).Msg("run started")

	res.State = domain.PollPolling
	res.RunID = runID
	interval := p.opts.InitialInterval

	for p.now().Sub(started) < maxWait {
		res.Attempts++
		status, body, err := p.status(ctx, runID)
		if err != nil {
			if ctx.Err() != nil {
				return p.interrupted(res, ctx.Err())
			}
			p.logger.Warn().Err(err).Str("run_id", runID).Msg("transient poll error")
			if err := p.sleep(ctx, interval); err != nil {
				return p.interrupted(res, err)
			}
			continue
		}
		res.StatusCode = status

		c := Classify(status, body, p.opts.ResponseField)
		switch c.Action {
		case Succeed:
			res.State = domain.PollSucceeded
			res.Data = c.Data
			return res
		case Fail:
			res.State = domain.PollFailed
			res.Error = c.Reason
			return res
		}

		p.logger.Debug().
			Str("run_id", runID).
			Dur("elapsed", p.now().Sub(started)).
			Str("reason", c.Reason).
			Msg("still processing")
		if err := p.sleep(ctx, interval); err != nil {
			return p.interrupted(res, err)
		}
		interval = min(interval+p.opts.IntervalStep, p.opts.MaxInterval)
	}

	res.State = domain.PollTimedOut
	res.Error = fmt.Sprintf("Timeout after %s, the run may still be processing", maxWait)
	return res
}

// interrupted ends the loop when ctx is done. A passed deadline counts as a timeout.
func (p *Poller) interrupted(res *domain.PollResult, err error) *domain.PollResult {
	if errors.Is(err, context.DeadlineExceeded) {
		res.State = domain.PollTimedOut
	} else {
		res.State = domain.PollFailed
	}
	res.Error = err.Error()
	return res
}

type startRequest struct {
	UserInput string `json:"user_input"`
}

type startResponse struct {
	RunID string `json:"run_id"`
}

func (p *Poller) start(ctx context.Context, input string) (string, error) {
	payload, err := json.Marshal(startRequest{UserInput: input})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opts.BaseURL+"/async", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	metrics.ObserveNetworkRequest("webhook", "start", p.opts.Name, start, err)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out startResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding start response: %w", err)
	}
	return out.RunID, nil
}

func (p *Poller) status(ctx context.Context, runID string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.opts.BaseURL+"/status/"+url.PathEscape(runID), nil)
	if err != nil {
		return 0, nil, err
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	metrics.ObserveNetworkRequest("webhook", "status", p.opts.Name, start, err)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("reading status response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package collector

import (
	"sync"
	"time"

	"github.com/google/go-github/v55/github"
)

// lowQuotaThreshold is the remaining-call count below which a warning is logged
const lowQuotaThreshold = 10

// Quota is a snapshot of the GitHub rate limit
type Quota struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
	Known     bool      `json:"known"`
}

// Low reports whether the remaining budget is nearly exhausted
func (q Quota) Low() bool {
	return q.Known && q.Remaining <= lowQuotaThreshold
}

// quotaTracker records the rate limit reported by GitHub responses.
// It does not throttle; callers only read it for reporting.
type quotaTracker struct {
	mu    sync.Mutex
	quota Quota
}

func newQuotaTracker() *quotaTracker {
	return &quotaTracker{}
}

// Update stores the rate from a response, ignoring responses without rate headers
func (t *quotaTracker) Update(resp *github.Response) {
	if resp == nil || resp.Rate.Limit == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.quota = Quota{
		Limit:     resp.Rate.Limit,
		Remaining: resp.Rate.Remaining,
		Reset:     resp.Rate.Reset.Time,
		Known:     true,
	}
}

// Snapshot returns the last stored quota
func (t *quotaTracker) Snapshot() Quota {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.quota
}

package domain

import "encoding/json"

// PollState is a state of the webhook polling state machine
type PollState string

const (
	PollStarting  PollState = "starting"
	PollPolling   PollState = "polling"
	PollSucceeded PollState = "succeeded"
	PollFailed    PollState = "failed"
	PollTimedOut  PollState = "timed_out"
)

// Terminal reports whether no further transition is possible from s
func (s PollState) Terminal() bool {
	return s == PollSucceeded || s == PollFailed || s == PollTimedOut
}

// PollResult is the final outcome of one poll loop
type PollResult struct {
	State PollState
	RunID string
	// Data is the designated response field of the ready payload
	Data json.RawMessage
	// StatusCode is the last status returned by the status endpoint, if any
	StatusCode int
	Error      string
	Attempts   int
}

// Succeeded reports whether the run produced data
func (r *PollResult) Succeeded() bool {
	return r.State == PollSucceeded
}

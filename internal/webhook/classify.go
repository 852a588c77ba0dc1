package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Action is what the poll loop does after one status response
type Action int

const (
	// Retry sleeps for the current interval and polls again
	Retry Action = iota
	// Succeed ends the loop with the response data
	Succeed
	// Fail ends the loop without data
	Fail
)

func (a Action) String() string {
	switch a {
	case Retry:
		return "retry"
	case Succeed:
		return "succeed"
	case Fail:
		return "fail"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Classification is the decision taken for one status response
type Classification struct {
	Action Action
	// Data holds the response field when Action is Succeed
	Data json.RawMessage
	// Reason explains a Fail, or a Retry that was not a plain "still processing"
	Reason string
}

// Classify maps a status response to a loop action. 204 means the run is
// still processing; 200 carries the result under field; anything else is fatal.
// A 200 whose field is missing or empty is retried.
func Classify(status int, body []byte, field string) Classification {
	switch status {
	case http.StatusNoContent:
		return Classification{Action: Retry}
	case http.StatusOK:
		var payload map[string]json.RawMessage
		if err := json.Unmarshal(body, &payload); err != nil {
			return Classification{Action: Retry, Reason: fmt.Sprintf("unreadable result payload: %v", err)}
		}
		data, ok := payload[field]
		if !ok || isEmpty(data) {
			return Classification{Action: Retry, Reason: fmt.Sprintf("result has no %q field yet", field)}
		}
		return Classification{Action: Succeed, Data: data}
	default:
		return Classification{Action: Fail, Reason: fmt.Sprintf("Unexpected status code: %d", status)}
	}
}

// isEmpty reports whether a JSON value carries nothing usable
func isEmpty(v json.RawMessage) bool {
	switch string(bytes.TrimSpace(v)) {
	case "", "null", "false", "0", `""`, "[]", "{}":
		return true
	}
	return false
}

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMustRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	// Only the plain counter is exported before any label set is observed.
	if len(families) == 0 {
		t.Error("expected registered collectors to be gathered")
	}
}

func TestObserveNetworkRequest(t *testing.T) {

	ObserveNetworkRequest("github", "list_repos", "", time.Now(), errors.New("boom"))

	got := testutil.ToFloat64(NetworkRequestTotal.WithLabelValues("github", "list_repos", "unknown", "error"))
	if got < 1 {
		t.Errorf("network_request_total{target=unknown,status=error} = %v, want >= 1", got)
	}
}

func TestObservePollOutcome(t *testing.T) {
	counter := PollOutcomes.WithLabelValues("linkedin_profile", "timed_out")
	before := testutil.ToFloat64(counter)

	ObservePollOutcome("linkedin_profile", "timed_out")

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("poll_outcomes_total = %v, want %v", got, before+1)
	}
}

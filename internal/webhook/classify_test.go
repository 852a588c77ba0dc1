package webhook

import (
	"net/http"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     Action
		wantData string
	}{
		{"processing", http.StatusNoContent, "", Retry, ""},
		{"ready", http.StatusOK, `{"response":{"a":1}}`, Succeed, `{"a":1}`},
		{"ready list", http.StatusOK, `{"response":[{"text":"hi"}]}`, Succeed, `[{"text":"hi"}]`},
		{"ready string", http.StatusOK, `{"response":"done"}`, Succeed, `"done"`},
		{"missing field", http.StatusOK, `{"other":1}`, Retry, ""},
		{"null field", http.StatusOK, `{"response":null}`, Retry, ""},
		{"empty list", http.StatusOK, `{"response":[]}`, Retry, ""},
		{"garbage", http.StatusOK, `not json`, Retry, ""},
		{"server error", http.StatusInternalServerError, "", Fail, ""},
		{"accepted is unexpected", http.StatusAccepted, "", Fail, ""},
		{"not found", http.StatusNotFound, "", Fail, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.status, []byte(tt.body), "response")
			if got.Action != tt.want {
				t.Errorf("Action = %s, want %s", got.Action, tt.want)
			}
			if string(got.Data) != tt.wantData {
				t.Errorf("Data = %s, want %s", got.Data, tt.wantData)
			}
		})
	}
}

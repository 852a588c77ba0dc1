package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kurihiro0119/devprofile-api/internal/domain"
	apperrors "github.com/kurihiro0119/devprofile-api/internal/errors"
)

func repoJSON(name string) map[string]any {
	return map[string]any{
		"name":             name,
		"full_name":        "octo/" + name,
		"html_url":         "https://github.com/octo/" + name,
		"stargazers_count": 3,
		"language":         "Go",
		"updated_at":       "2024-05-01T10:00:00Z",
	}
}

func newTestCollector(t *testing.T, handler http.HandlerFunc, defaultToken string) Collector {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGitHubCollector(ClientOptions{
		BaseURL:      srv.URL,
		DefaultToken: defaultToken,
	}, zerolog.Nop())
}

func TestListRepositoriesPaginates(t *testing.T) {
	var mu sync.Mutex
	var pages []string

	c := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/octo/repos" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		page := r.URL.Query().Get("page")
		mu.Lock()
		pages = append(pages, page)
		mu.Unlock()

		var body []map[string]any
		switch page {
		case "1":
			body = []map[string]any{repoJSON("a"), repoJSON("b")}
		case "2":
			body = []map[string]any{repoJSON("c")}
		}
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "57")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		_ = json.NewEncoder(w).Encode(body)
	}, "")

	opts := domain.ListOptions{Type: "owner", Sort: "pushed", PerPage: 2}
	repos, err := c.ListRepositories(context.Background(), "octo", opts, "")
	if err != nil {
		t.Fatalf("ListRepositories() error = %v", err)
	}
	if len(repos) != 3 {
		t.Fatalf("got %d repos, want 3", len(repos))
	}
	if len(pages) != 2 || pages[0] != "1" || pages[1] != "2" {
		t.Errorf("pages requested = %v, want [1 2]", pages)
	}

	r := repos[0]
	if r.FullName != "octo/a" || r.Stars != 3 || r.Language == nil || *r.Language != "Go" {
		t.Errorf("unexpected mapping: %+v", r)
	}
	if r.UpdatedAt != "2024-05-01T10:00:00Z" {
		t.Errorf("UpdatedAt = %q", r.UpdatedAt)
	}
	if r.Description != nil {
		t.Errorf("Description = %v, want nil", *r.Description)
	}

	q := c.Quota()
	if !q.Known || q.Limit != 60 || q.Remaining != 57 {
		t.Errorf("Quota() = %+v", q)
	}
}

func TestListRepositoriesStopsOnEmptyPage(t *testing.T) {
	calls := 0
	c := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("page") == "1" {
			_ = json.NewEncoder(w).Encode([]map[string]any{repoJSON("a"), repoJSON("b")})
			return
		}
		_, _ = w.Write([]byte("[]"))
	}, "")

	repos, err := c.ListRepositories(context.Background(), "octo", domain.ListOptions{PerPage: 2}, "")
	if err != nil {
		t.Fatalf("ListRepositories() error = %v", err)
	}
	if len(repos) != 2 {
		t.Errorf("got %d repos, want 2", len(repos))
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestListRepositoriesDropsIncompleteRecords(t *testing.T) {
	c := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		broken := repoJSON("broken")
		delete(broken, "html_url")
		noDate := repoJSON("nodate")
		delete(noDate, "updated_at")
		_ = json.NewEncoder(w).Encode([]map[string]any{repoJSON("ok"), broken, noDate})
	}, "")

	repos, err := c.ListRepositories(context.Background(), "octo", domain.DefaultListOptions(), "")
	if err != nil {
		t.Fatalf("ListRepositories() error = %v", err)
	}
	if len(repos) != 1 || repos[0].Name != "ok" {
		t.Errorf("got %+v, want only ok", repos)
	}
}

func TestListRepositoriesUpstreamStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers map[string]string
		code    apperrors.ErrCode
	}{
		{"not found", http.StatusNotFound, nil, apperrors.ErrCodeNotFound},
		{"bad credentials", http.StatusUnauthorized, nil, apperrors.ErrCodeUnauthorized},
		{"forbidden", http.StatusForbidden, nil, apperrors.ErrCodeForbidden},
		{"primary rate limit", http.StatusForbidden, map[string]string{
			"X-RateLimit-Limit":     "60",
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     "1893456000",
		}, apperrors.ErrCodeRateLimited},
		{"too many requests", http.StatusTooManyRequests, nil, apperrors.ErrCodeRateLimited},
		{"server error", http.StatusBadGateway, nil, apperrors.ErrCodeUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}, "")

			_, err := c.ListRepositories(context.Background(), "octo", domain.DefaultListOptions(), "")
			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("error = %v, want *AppError", err)
			}
			if appErr.Code != tt.code || appErr.Status != tt.status {
				t.Errorf("got code %s status %d, want %s %d", appErr.Code, appErr.Status, tt.code, tt.status)
			}
			if appErr.Err == nil {
				t.Error("cause should be kept")
			}
		})
	}
}

func TestListRepositoriesNotFoundMessage(t *testing.T) {
	c := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}, "")

	_, err := c.ListRepositories(context.Background(), "ghost", domain.DefaultListOptions(), "")
	if !apperrors.IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
	var appErr *apperrors.AppError
	errors.As(err, &appErr)
	if appErr.Message != "GitHub user ghost not found" {
		t.Errorf("Message = %q", appErr.Message)
	}
}

func TestListRepositoriesRecordsQuotaOnRateLimit(t *testing.T) {
	c := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1893456000")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
	}, "")

	_, err := c.ListRepositories(context.Background(), "octo", domain.DefaultListOptions(), "")
	if !apperrors.IsRateLimited(err) {
		t.Fatalf("error = %v, want rate limited", err)
	}
	if q := c.Quota(); !q.Known || q.Remaining != 0 || !q.Low() {
		t.Errorf("quota = %+v, want exhausted", q)
	}
}

func TestListRepositoriesAbortsOnLaterPageError(t *testing.T) {
	c := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{repoJSON("a")})
	}, "")

	repos, err := c.ListRepositories(context.Background(), "octo", domain.ListOptions{PerPage: 1}, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if repos != nil {
		t.Errorf("repos = %v, want nil on failure", repos)
	}
}

func TestListRepositoriesTokenSelection(t *testing.T) {
	tests := []struct {
		name         string
		defaultToken string
		callToken    string
		want         string
	}{
		{"per-call token wins", "default", "mine", "Bearer mine"},
		{"falls back to default", "default", "", "Bearer default"},
		{"unauthenticated", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			c := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
				_, _ = w.Write([]byte("[]"))
			}, tt.defaultToken)

			if _, err := c.ListRepositories(context.Background(), "octo", domain.DefaultListOptions(), tt.callToken); err != nil {
				t.Fatalf("ListRepositories() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Authorization = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	_, err := NewClient(ClientOptions{BaseURL: "://bad"}, "")
	if err == nil {
		t.Fatal("expected error for malformed base URL")
	}
}

func TestQuotaLow(t *testing.T) {
	tests := []struct {
		q    Quota
		want bool
	}{
		{Quota{}, false},
		{Quota{Known: true, Remaining: 10}, true},
		{Quota{Known: true, Remaining: 11}, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%+v", tt.q), func(t *testing.T) {
			if got := tt.q.Low(); got != tt.want {
				t.Errorf("Low() = %v, want %v", got, tt.want)
			}
		})
	}
}

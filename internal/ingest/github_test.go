package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kurihiro0119/devprofile-api/internal/collector"
	"github.com/kurihiro0119/devprofile-api/internal/domain"
	apperrors "github.com/kurihiro0119/devprofile-api/internal/errors"
)

const treeJSON = `{
  "sha": "root",
  "truncated": false,
  "tree": [
    {"path": "README.md", "type": "blob", "sha": "s-readme", "size": 6},
    {"path": "src", "type": "tree", "sha": "s-src"},
    {"path": "src/app.py", "type": "blob", "sha": "s-app", "size": 20},
    {"path": "huge.csv", "type": "blob", "sha": "s-huge", "size": 5000},
    {"path": "logo.png", "type": "blob", "sha": "s-logo", "size": 4}
  ]
}`

var blobs = map[string]string{
	"s-readme": "Hello\n",
	"s-app":    "import os\nimport sys\n",
	"s-logo":   "\x89PNG\x00",
}

func newFakeGitHub(t *testing.T, blobCalls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"demo","full_name":"octo/demo","default_branch":"trunk"}`))
	})
	mux.HandleFunc("/repos/octo/demo/git/trees/trunk", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("recursive") != "1" {
			t.Errorf("tree requested without recursive=1")
		}
		_, _ = w.Write([]byte(treeJSON))
	})
	mux.HandleFunc("/repos/octo/demo/git/blobs/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(blobCalls, 1)
		sha := strings.TrimPrefix(r.URL.Path, "/repos/octo/demo/git/blobs/")
		body, ok := blobs[sha]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGitHubIngester(t *testing.T) {
	var blobCalls int32
	srv := newFakeGitHub(t, &blobCalls)

	ing := NewGitHubIngester(GitHubIngesterOptions{
		Client:       collector.ClientOptions{BaseURL: srv.URL},
		Concurrency:  2,
		MaxFileBytes: 1000,
	}, zerolog.Nop())

	d, err := ing.Ingest(context.Background(), domain.RepoRef{Owner: "octo", Repo: "demo"}, "")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if got := atomic.LoadInt32(&blobCalls); got != 3 {
		t.Errorf("blob requests = %d, want 3 (oversized file skipped)", got)
	}
	if !strings.Contains(d.Summary, "Branch: trunk") || !strings.Contains(d.Summary, "Files analyzed: 2") {
		t.Errorf("unexpected summary:\n%s", d.Summary)
	}
	for _, p := range []string{"README.md", "app.py", "huge.csv", "logo.png", "src/"} {
		if !strings.Contains(d.Tree, p) {
			t.Errorf("tree missing %s:\n%s", p, d.Tree)
		}
	}
	if !strings.Contains(d.Content, "FILE: src/app.py\n") || !strings.Contains(d.Content, "import sys") {
		t.Errorf("content missing app.py:\n%s", d.Content)
	}
	if strings.Contains(d.Content, "FILE: logo.png") || strings.Contains(d.Content, "FILE: huge.csv") {
		t.Errorf("binary or oversized file rendered:\n%s", d.Content)
	}
}

func TestGitHubIngesterMissingRepository(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	ing := NewGitHubIngester(GitHubIngesterOptions{
		Client: collector.ClientOptions{BaseURL: srv.URL},
	}, zerolog.Nop())

	_, err := ing.Ingest(context.Background(), domain.RepoRef{Owner: "octo", Repo: "gone"}, "")
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error = %v, want *AppError", err)
	}
	if appErr.Code != apperrors.ErrCodeNotFound || appErr.Status != http.StatusNotFound {
		t.Errorf("got code %s status %d, want NOT_FOUND 404", appErr.Code, appErr.Status)
	}
	if appErr.Message != "repository octo/gone not found" {
		t.Errorf("Message = %q", appErr.Message)
	}
}

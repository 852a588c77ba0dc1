package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kurihiro0119/devprofile-api/internal/domain"
	apperrors "github.com/kurihiro0119/devprofile-api/internal/errors"
)

const sampleContent = "================================================\n" +
	"FILE: README.md\n" +
	"================================================\n" +
	"Hello\n" +
	"================================================\n" +
	"FILE: app.py\n" +
	"================================================\n" +
	"import os\n" +
	"import sys\n"

type fakeIngester struct {
	mu     sync.Mutex
	calls  []string
	tokens []string
	fail   map[string]error
	block  chan struct{}
}

func (f *fakeIngester) Ingest(ctx context.Context, ref domain.RepoRef, token string) (*domain.Digest, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ref.FullName())
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	if err, ok := f.fail[ref.FullName()]; ok {
		return nil, err
	}
	return &domain.Digest{
		Summary: "Repository: " + ref.FullName(),
		Tree:    "Directory structure:\n└── demo/",
		Content: sampleContent,
	}, nil
}

func TestIngestRepoSummaryMode(t *testing.T) {
	fake := &fakeIngester{}
	svc := NewService(fake, zerolog.Nop())

	res := svc.IngestRepo(context.Background(), domain.RepoRef{Owner: "octo", Repo: "demo"}, "tok", false)
	if !res.Success || res.Error != nil {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if res.Repository != "octo/demo" {
		t.Errorf("Repository = %q", res.Repository)
	}
	if !strings.Contains(*res.Content, "Total Files: 2") {
		t.Errorf("content is not a summary report:\n%s", *res.Content)
	}
	if *res.Summary != "Repository: octo/demo" {
		t.Errorf("Summary = %q", *res.Summary)
	}
	if fake.tokens[0] != "tok" {
		t.Errorf("token = %q, want tok", fake.tokens[0])
	}
}

func TestIngestRepoFullContent(t *testing.T) {
	svc := NewService(&fakeIngester{}, zerolog.Nop())

	res := svc.IngestRepo(context.Background(), domain.RepoRef{Owner: "octo", Repo: "demo"}, "", true)
	if !res.Success {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if *res.Content != sampleContent {
		t.Errorf("full content was altered:\n%s", *res.Content)
	}
}

func TestIngestRepoWrapsFailure(t *testing.T) {
	fake := &fakeIngester{fail: map[string]error{"octo/demo": errors.New("boom")}}
	svc := NewService(fake, zerolog.Nop())

	res := svc.IngestRepo(context.Background(), domain.RepoRef{Owner: "octo", Repo: "demo"}, "", false)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Summary != nil || res.Tree != nil || res.Content != nil {
		t.Errorf("failure result carries data: %+v", res)
	}
	if res.Error == nil || *res.Error != "Failed to ingest repository: boom" {
		t.Errorf("Error = %v", res.Error)
	}
}

func TestIngestRepoHonoursContext(t *testing.T) {
	fake := &fakeIngester{block: make(chan struct{})}
	defer close(fake.block)
	svc := NewService(fake, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := svc.IngestRepo(ctx, domain.RepoRef{Owner: "octo", Repo: "slow"}, "", false)
	if res.Success {
		t.Fatal("expected failure after context deadline")
	}
	if !strings.Contains(*res.Error, context.DeadlineExceeded.Error()) {
		t.Errorf("Error = %q", *res.Error)
	}
}

func TestIngestBatch(t *testing.T) {
	fake := &fakeIngester{fail: map[string]error{"octo/broken": errors.New("nope")}}
	svc := NewService(fake, zerolog.Nop())

	inputs := []string{
		"octo/demo",
		"not-a-repo",
		"https://github.com/octo/other.git",
		"octo/broken",
	}
	batch, err := svc.IngestBatch(context.Background(), inputs, "", false)
	if err != nil {
		t.Fatalf("IngestBatch() error = %v", err)
	}

	if batch.TotalRequested != 4 || batch.Successful != 2 || batch.Failed != 2 {
		t.Errorf("counts = %d/%d/%d, want 4/2/2", batch.TotalRequested, batch.Successful, batch.Failed)
	}
	if batch.Successful+batch.Failed != len(batch.Results) {
		t.Errorf("successful+failed != len(results)")
	}

	wantCalls := []string{"octo/demo", "octo/other", "octo/broken"}
	if strings.Join(fake.calls, ",") != strings.Join(wantCalls, ",") {
		t.Errorf("ingest order = %v, want %v", fake.calls, wantCalls)
	}

	invalid := batch.Results[1]
	if invalid.Success || invalid.Repository != "not-a-repo" || *invalid.Error != "Invalid repository format. Use 'owner/repo'" {
		t.Errorf("unexpected invalid result: %+v", invalid)
	}
	if batch.Results[2].Repository != "octo/other" {
		t.Errorf("URL input not normalised: %q", batch.Results[2].Repository)
	}
}

func TestIngestBatchExample(t *testing.T) {
	svc := NewService(&fakeIngester{}, zerolog.Nop())

	batch, err := svc.IngestBatch(context.Background(), []string{"octo/demo", "nodelimiter"}, "", false)
	if err != nil {
		t.Fatalf("IngestBatch() error = %v", err)
	}
	if batch.TotalRequested != 2 || batch.Successful != 1 || batch.Failed != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", batch.TotalRequested, batch.Successful, batch.Failed)
	}
}

func TestIngestBatchEmpty(t *testing.T) {
	svc := NewService(&fakeIngester{}, zerolog.Nop())

	_, err := svc.IngestBatch(context.Background(), nil, "", false)
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrCodeBadRequest {
		t.Errorf("error = %v, want bad request", err)
	}
}

func TestIngestRepoFailureLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		level string
	}{
		{"rate limited", apperrors.NewRateLimitedError("GitHub rate limit exceeded"), "error"},
		{"missing repository", apperrors.NewNotFoundError("repository octo/demo"), "info"},
		{"other failure", errors.New("connection reset"), "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			fake := &fakeIngester{fail: map[string]error{"octo/demo": tt.err}}
			svc := NewService(fake, zerolog.New(&buf))

			res := svc.IngestRepo(context.Background(), domain.RepoRef{Owner: "octo", Repo: "demo"}, "", false)
			if res.Success {
				t.Fatal("expected failure")
			}

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("log line %q: %v", buf.String(), err)
			}
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
		})
	}
}

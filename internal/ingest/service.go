package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kurihiro0119/devprofile-api/internal/domain"
	apperrors "github.com/kurihiro0119/devprofile-api/internal/errors"
	"github.com/kurihiro0119/devprofile-api/internal/metrics"
	"github.com/kurihiro0119/devprofile-api/internal/repourl"
	"github.com/kurihiro0119/devprofile-api/internal/summary"
)

const (
	modeSummary = "summary"
	modeFull    = "full"
)

// Service adapts ingester output to the API result shape
type Service interface {
	// IngestRepo ingests one repository. Failures are reported inside the
	// result, never returned.
	IngestRepo(ctx context.Context, ref domain.RepoRef, token string, includeContent bool) *domain.IngestResult

	// IngestBatch ingests each input in order. Only an empty input list is an error.
	IngestBatch(ctx context.Context, inputs []string, token string, includeContent bool) (*domain.BatchResult, error)
}

type service struct {
	ingester Ingester
	logger   zerolog.Logger
}

// NewService creates a new ingestion service
func NewService(ingester Ingester, logger zerolog.Logger) Service {
	return &service{
		ingester: ingester,
		logger:   logger.With().Str("component", "ingest").Logger(),
	}
}

type ingestOutcome struct {
	digest *domain.Digest
	err    error
}

func (s *service) IngestRepo(ctx context.Context, ref domain.RepoRef, token string, includeContent bool) *domain.IngestResult {
	name := ref.FullName()
	mode := modeSummary
	if includeContent {
		mode = modeFull
	}
	start := time.Now()

	digest, err := s.run(ctx, ref, token)
	metrics.ObserveIngest(mode, start, err)
	if err != nil {
		s.logFailure(name, err)
		return domain.FailedIngest(name, fmt.Sprintf("Failed to ingest repository: %v", err))
	}

	content := digest.Content
	if !includeContent {
		content = summary.Generate(digest.Content, digest.Tree, digest.Summary)
	}

	s.logger.Info().
		Str("repo", name).
		Str("mode", mode).
		Dur("duration", time.Since(start)).
		Msg("repository ingested")

	return &domain.IngestResult{
		Repository: name,
		Success:    true,
		Summary:    &digest.Summary,
		Tree:       &digest.Tree,
		Content:    &content,
	}
}

// logFailure reports a failed ingestion. Missing repositories are expected
// input errors; an exhausted rate limit fails every following request too.
func (s *service) logFailure(name string, err error) {
	switch {
	case apperrors.IsRateLimited(err):
		s.logger.Error().Err(err).Str("repo", name).Msg("ingestion failed, GitHub rate limit exhausted")
	case apperrors.IsNotFound(err):
		s.logger.Info().Err(err).Str("repo", name).Msg("repository not found")
	default:
		s.logger.Warn().Err(err).Str("repo", name).Msg("ingestion failed")
	}
}

// run executes the ingester on its own goroutine so a slow repository only
// holds the caller until ctx is done.
func (s *service) run(ctx context.Context, ref domain.RepoRef, token string) (*domain.Digest, error) {
	done := make(chan ingestOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- ingestOutcome{err: fmt.Errorf("ingester panic: %v", r)}
			}
		}()
		d, err := s.ingester.Ingest(ctx, ref, token)
		done <- ingestOutcome{digest: d, err: err}
	}()

	select {
	case out := <-done:
		return out.digest, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *service) IngestBatch(ctx context.Context, inputs []string, token string, includeContent bool) (*domain.BatchResult, error) {
	if len(inputs) == 0 {
		return nil, apperrors.NewBadRequestError("At least one repository must be specified")
	}

	results := make([]*domain.IngestResult, 0, len(inputs))
	for _, input := range inputs {
		if !strings.Contains(input, "/") {
			results = append(results, domain.FailedIngest(input, "Invalid repository format. Use 'owner/repo'"))
			continue
		}
		ref, err := repourl.ParseRef(input)
		if err != nil {
			results = append(results, domain.FailedIngest(input, err.Error()))
			continue
		}
		results = append(results, s.IngestRepo(ctx, ref, token, includeContent))
	}

	batch := domain.NewBatchResult(len(inputs), results)
	s.logger.Info().
		Int("requested", batch.TotalRequested).
		Int("successful", batch.Successful).
		Int("failed", batch.Failed).
		Msg("batch ingestion finished")
	return batch, nil
}

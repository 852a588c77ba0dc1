package ingest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/go-github/v55/github"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kurihiro0119/devprofile-api/internal/collector"
	"github.com/kurihiro0119/devprofile-api/internal/domain"
	"github.com/kurihiro0119/devprofile-api/internal/metrics"
)

// GitHubIngesterOptions configures a GitHubIngester
type GitHubIngesterOptions struct {
	Client collector.ClientOptions
	// Concurrency bounds the number of blobs downloaded at once
	Concurrency int
	// MaxFileBytes is the largest file whose content is read
	MaxFileBytes int
}

// githubIngester reads a repository through the git data API: default
// branch, recursive tree, then one blob per file.
type githubIngester struct {
	opts   GitHubIngesterOptions
	logger zerolog.Logger
}

// NewGitHubIngester creates an Ingester backed by the GitHub API
func NewGitHubIngester(opts GitHubIngesterOptions, logger zerolog.Logger) Ingester {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &githubIngester{
		opts:   opts,
		logger: logger.With().Str("component", "github_ingester").Logger(),
	}
}

// Ingest downloads the default branch of ref and renders it as a digest
func (g *githubIngester) Ingest(ctx context.Context, ref domain.RepoRef, token string) (*domain.Digest, error) {
	client, err := collector.NewClient(g.opts.Client, token)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	repo, resp, err := client.Repositories.Get(ctx, ref.Owner, ref.Repo)
	metrics.ObserveNetworkRequest("github", "get_repository", "repos", start, err)
	if err != nil {
		return nil, collector.UpstreamError(resp, "repository "+ref.FullName(), fmt.Sprintf("failed to get repository %s", ref.FullName()), err)
	}
	branch := repo.GetDefaultBranch()
	if branch == "" {
		branch = "main"
	}

	start = time.Now()
	tree, resp, err := client.Git.GetTree(ctx, ref.Owner, ref.Repo, branch, true)
	metrics.ObserveNetworkRequest("github", "get_tree", "git/trees", start, err)
	if err != nil {
		return nil, collector.UpstreamError(resp, fmt.Sprintf("branch %s of %s", branch, ref.FullName()), fmt.Sprintf("failed to get tree of %s@%s", ref.FullName(), branch), err)
	}
	if tree.GetTruncated() {
		g.logger.Warn().
			Str("repo", ref.FullName()).
			Msg("tree listing truncated by GitHub, digest will be partial")
	}

	var files []*fileEntry
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		files = append(files, &fileEntry{
			path: entry.GetPath(),
			sha:  entry.GetSHA(),
			size: entry.GetSize(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })

	if err := g.fetchContents(ctx, client, ref, files); err != nil {
		return nil, err
	}

	g.logger.Debug().
		Str("repo", ref.FullName()).
		Str("branch", branch).
		Int("files", len(files)).
		Msg("repository ingested")

	return render(ref, branch, files), nil
}

// fetchContents downloads the blobs of readable files with bounded concurrency.
// Oversized and binary files keep a nil content and are left out of the digest body.
func (g *githubIngester) fetchContents(ctx context.Context, client *github.Client, ref domain.RepoRef, files []*fileEntry) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)

	for _, f := range files {
		if g.opts.MaxFileBytes > 0 && f.size > g.opts.MaxFileBytes {
			f.skipped = "file too large"
			continue
		}
		f := f
		eg.Go(func() error {
			start := time.Now()
			raw, resp, err := client.Git.GetBlobRaw(egCtx, ref.Owner, ref.Repo, f.sha)
			metrics.ObserveNetworkRequest("github", "get_blob", "git/blobs", start, err)
			if err != nil {
				return collector.UpstreamError(resp, "file "+f.path, fmt.Sprintf("failed to read %s", f.path), err)
			}
			if isBinary(raw) {
				f.skipped = "binary file"
				return nil
			}
			content := string(raw)
			f.content = &content
			return nil
		})
	}

	return eg.Wait()
}

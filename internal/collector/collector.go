package collector

import (
	"context"

	"github.com/kurihiro0119/devprofile-api/internal/domain"
)

// Collector defines the interface for reading repository data from GitHub
type Collector interface {
	// ListRepositories retrieves every repository of owner, following pagination.
	// token overrides the default credential when non-empty.
	ListRepositories(ctx context.Context, owner string, opts domain.ListOptions, token string) ([]*domain.Repository, error)

	// Quota returns the last rate limit observed on a GitHub response
	Quota() Quota
}

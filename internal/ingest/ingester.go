// Package ingest turns a repository into a text digest and adapts the digest
// for API responses.
package ingest

import (
	"context"

	"github.com/kurihiro0119/devprofile-api/internal/domain"
)

// Ingester produces the three-part digest of a repository
type Ingester interface {
	Ingest(ctx context.Context, ref domain.RepoRef, token string) (*domain.Digest, error)
}

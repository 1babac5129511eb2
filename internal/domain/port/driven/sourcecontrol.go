// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"

	"github.com/ericfisherdev/reviewbot/internal/domain/model"
)

// SourceControl defines the driven port for a source-control hosting service
// (GitHub, GitLab). Implementations resolve pagination internally: callers
// always receive the complete collection. Comments are returned oldest-first.
// Non-success HTTP statuses surface as a *RemoteError in the error chain.
type SourceControl interface {
	// Host returns a short identifier for the backing service ("github",
	// "gitlab"), used in logs and review records.
	Host() string

	ListOpenRequests(ctx context.Context, repo model.RepoRef) ([]model.ReviewRequest, error)
	ListComments(ctx context.Context, req model.ReviewRequest) ([]model.Comment, error)

	// GetDiff returns the request's unified diff as raw text.
	GetDiff(ctx context.Context, req model.ReviewRequest) (string, error)
	ListChangedFiles(ctx context.Context, req model.ReviewRequest) ([]model.ChangedFile, error)
	// GetFileContents returns the complete contents of path at the request's
	// head revision.
	GetFileContents(ctx context.Context, req model.ReviewRequest, path string) (string, error)

	PostComment(ctx context.Context, req model.ReviewRequest, body string) error
}

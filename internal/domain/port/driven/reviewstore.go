package driven

import (
	"context"

	"github.com/ericfisherdev/reviewbot/internal/domain/model"
)

// ReviewStore defines the driven port for the review audit log.
type ReviewStore interface {
	// Record appends an audit entry for a posted comment.
	Record(ctx context.Context, rec model.ReviewRecord) error
	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.ReviewRecord, error)
}

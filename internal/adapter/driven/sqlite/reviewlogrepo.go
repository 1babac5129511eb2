package sqlite

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/reviewbot/internal/domain/model"
	"github.com/ericfisherdev/reviewbot/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReviewStore = (*ReviewLogRepo)(nil)

// ReviewLogRepo is the SQLite implementation of the ReviewStore port.
type ReviewLogRepo struct {
	db *DB
}

// NewReviewLogRepo creates a new ReviewLogRepo backed by the given DB.
func NewReviewLogRepo(db *DB) *ReviewLogRepo {
	return &ReviewLogRepo{db: db}
}

// Record appends an audit entry for a posted comment.
func (r *ReviewLogRepo) Record(ctx context.Context, rec model.ReviewRecord) error {
	const query = `
		INSERT INTO review_log (host, repo, request_number, request_title, model, rejected, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	rejected := 0
	if rec.Rejected {
		rejected = 1
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		rec.Host, rec.Repo, rec.RequestNumber, rec.RequestTitle,
		rec.Model, rejected, rec.PostedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record review for %s %s#%d: %w", rec.Host, rec.Repo, rec.RequestNumber, err)
	}

	return nil
}

// ListRecent returns up to limit records, newest first.
func (r *ReviewLogRepo) ListRecent(ctx context.Context, limit int) ([]model.ReviewRecord, error) {
	const query = `
		SELECT id, host, repo, request_number, request_title, model, rejected, posted_at
		FROM review_log
		ORDER BY posted_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent reviews: %w", err)
	}
	defer rows.Close()

	var records []model.ReviewRecord
	for rows.Next() {
		var rec model.ReviewRecord
		var rejected int
		if err := rows.Scan(&rec.ID, &rec.Host, &rec.Repo, &rec.RequestNumber,
			&rec.RequestTitle, &rec.Model, &rejected, &rec.PostedAt); err != nil {
			return nil, fmt.Errorf("scan review record: %w", err)
		}
		rec.Rejected = rejected != 0
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review records: %w", err)
	}

	return records, nil
}

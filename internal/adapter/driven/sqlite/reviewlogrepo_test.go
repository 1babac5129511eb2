package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/reviewbot/internal/domain/model"
)

// newTestDB creates a migrated database in a per-test temp directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, RunMigrations(db.Writer))

	return db
}

func sampleRecord(number int, postedAt time.Time) model.ReviewRecord {
	return model.ReviewRecord{
		Host:          "github",
		Repo:          "org/repo",
		RequestNumber: number,
		RequestTitle:  "Some change",
		Model:         "codellama",
		PostedAt:      postedAt,
	}
}

func TestRecordAndListRecent(t *testing.T) {
	db := newTestDB(t)
	repo := NewReviewLogRepo(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Record(ctx, sampleRecord(1, base)))
	require.NoError(t, repo.Record(ctx, sampleRecord(2, base.Add(time.Hour))))
	require.NoError(t, repo.Record(ctx, sampleRecord(3, base.Add(2*time.Hour))))

	records, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, 3, records[0].RequestNumber, "newest first")
	assert.Equal(t, 2, records[1].RequestNumber)
	assert.Equal(t, 1, records[2].RequestNumber)

	first := records[0]
	assert.NotZero(t, first.ID)
	assert.Equal(t, "github", first.Host)
	assert.Equal(t, "org/repo", first.Repo)
	assert.Equal(t, "Some change", first.RequestTitle)
	assert.Equal(t, "codellama", first.Model)
	assert.False(t, first.Rejected)
	assert.True(t, first.PostedAt.Equal(base.Add(2*time.Hour)), "got %v", first.PostedAt)
}

func TestListRecent_Limit(t *testing.T) {
	db := newTestDB(t)
	repo := NewReviewLogRepo(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		require.NoError(t, repo.Record(ctx, sampleRecord(i, base.Add(time.Duration(i)*time.Minute))))
	}

	records, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, 5, records[0].RequestNumber)
	assert.Equal(t, 4, records[1].RequestNumber)
}

func TestListRecent_Empty(t *testing.T) {
	db := newTestDB(t)
	repo := NewReviewLogRepo(db)

	records, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecord_RejectedFlag(t *testing.T) {
	db := newTestDB(t)
	repo := NewReviewLogRepo(db)
	ctx := context.Background()

	rec := sampleRecord(1, time.Now().UTC())
	rec.Model = "mistral"
	rec.Rejected = true
	require.NoError(t, repo.Record(ctx, rec))

	records, err := repo.ListRecent(ctx, 1)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.True(t, records[0].Rejected)
	assert.Equal(t, "mistral", records[0].Model)
}

func TestRecord_SameTimestampOrderedByInsertion(t *testing.T) {
	db := newTestDB(t)
	repo := NewReviewLogRepo(db)
	ctx := context.Background()

	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Record(ctx, sampleRecord(1, at)))
	require.NoError(t, repo.Record(ctx, sampleRecord(2, at)))

	records, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].RequestNumber, "ties break on id, newest insert first")
	assert.Equal(t, 1, records[1].RequestNumber)
}

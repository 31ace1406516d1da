//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skylane-ai/aerocontext/internal/domain"
	"github.com/skylane-ai/aerocontext/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob(documentID string) *domain.IngestJob {
	return &domain.IngestJob{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Status:     domain.IngestJobStatusPending,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestIngestJobRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docs := NewDocumentRepository(pool)
	jobs := NewIngestJobRepository(pool)

	doc := newTestDocument("doc-job")
	require.NoError(t, docs.Create(ctx, doc))

	job := newTestJob(doc.ID)
	require.NoError(t, jobs.Create(ctx, job))

	retrieved, err := jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, retrieved.ID)
	assert.Equal(t, doc.ID, retrieved.DocumentID)
	assert.Equal(t, domain.IngestJobStatusPending, retrieved.Status)
	assert.Zero(t, retrieved.Retries)
	assert.Nil(t, retrieved.ProcessedAt)
}

func TestIngestJobRepository_ClaimPending(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docs := NewDocumentRepository(pool)
	jobs := NewIngestJobRepository(pool)

	doc := newTestDocument("doc-claim")
	require.NoError(t, docs.Create(ctx, doc))

	older := newTestJob(doc.ID)
	older.CreatedAt = time.Now().UTC().Add(-time.Minute).Truncate(time.Microsecond)
	newer := newTestJob(doc.ID)
	require.NoError(t, jobs.Create(ctx, older))
	require.NoError(t, jobs.Create(ctx, newer))

	claimed, err := jobs.ClaimPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	// Oldest job first
	assert.Equal(t, older.ID, claimed[0].ID)
	assert.Equal(t, domain.IngestJobStatusProcessing, claimed[0].Status)

	// Claimed job is no longer pending
	remaining, err := jobs.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, newer.ID, remaining[0].ID)
}

func TestIngestJobRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docs := NewDocumentRepository(pool)
	jobs := NewIngestJobRepository(pool)

	doc := newTestDocument("doc-job-status")
	require.NoError(t, docs.Create(ctx, doc))

	job := newTestJob(doc.ID)
	require.NoError(t, jobs.Create(ctx, job))

	require.NoError(t, jobs.UpdateStatus(ctx, job.ID, domain.IngestJobStatusFailed, "embedding provider unavailable"))

	retrieved, err := jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestJobStatusFailed, retrieved.Status)
	assert.Equal(t, "embedding provider unavailable", retrieved.Error)
	require.NotNil(t, retrieved.ProcessedAt)

	assert.ErrorIs(t, jobs.UpdateStatus(ctx, "missing", domain.IngestJobStatusCompleted, ""), ErrIngestJobNotFound)
}

func TestIngestJobRepository_Requeue(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docs := NewDocumentRepository(pool)
	jobs := NewIngestJobRepository(pool)

	doc := newTestDocument("doc-requeue")
	require.NoError(t, docs.Create(ctx, doc))

	job := newTestJob(doc.ID)
	require.NoError(t, jobs.Create(ctx, job))

	claimed, err := jobs.ClaimPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	require.NoError(t, jobs.Requeue(ctx, job.ID))

	retrieved, err := jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestJobStatusPending, retrieved.Status)
	assert.Equal(t, 1, retrieved.Retries)
}

//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/skylane-ai/aerocontext/internal/domain"
	"github.com/skylane-ai/aerocontext/internal/pagination"
	"github.com/skylane-ai/aerocontext/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocument(id string) *domain.KnowledgeDocument {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.KnowledgeDocument{
		ID:          id,
		DisplayName: "Wake Turbulence Separation",
		Content:     "WAKE TURBULENCE: Apply separation minima behind heavy aircraft.",
		Summary:     "Separation minima",
		Tags:        []string{"separation", "wake"},
		Metadata: domain.DocumentMetadata{
			Chapter: "3",
			Section: "3-9-6",
			Type:    "procedure",
		},
		Status:     domain.ProcessingStatusPending,
		IngestedAt: now,
		UpdatedAt:  now,
	}
}

func TestDocumentRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	doc := newTestDocument("doc-create")
	require.NoError(t, repo.Create(ctx, doc))

	retrieved, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, retrieved.ID)
	assert.Equal(t, doc.DisplayName, retrieved.DisplayName)
	assert.Equal(t, doc.Content, retrieved.Content)
	assert.Equal(t, doc.Tags, retrieved.Tags)
	assert.Equal(t, doc.Metadata.Chapter, retrieved.Metadata.Chapter)
	assert.Equal(t, doc.Metadata.Section, retrieved.Metadata.Section)
	assert.Equal(t, domain.ProcessingStatusPending, retrieved.Status)
}

func TestDocumentRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	doc := newTestDocument("doc-status")
	require.NoError(t, repo.Create(ctx, doc))

	require.NoError(t, repo.UpdateStatus(ctx, doc.ID, domain.ProcessingStatusIndexed))

	retrieved, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProcessingStatusIndexed, retrieved.Status)
	assert.True(t, retrieved.UpdatedAt.After(doc.UpdatedAt))

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "missing", domain.ProcessingStatusFailed), domain.ErrDocumentNotFound)
}

func TestDocumentRepository_Delete(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	doc := newTestDocument("doc-delete")
	require.NoError(t, repo.Create(ctx, doc))

	require.NoError(t, repo.Delete(ctx, doc.ID))

	_, err := repo.GetByID(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, doc.ID), domain.ErrDocumentNotFound)
}

func TestDocumentRepository_Exists(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	exists, err := repo.Exists(ctx, "doc-exists")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Create(ctx, newTestDocument("doc-exists")))

	exists, err = repo.Exists(ctx, "doc-exists")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDocumentRepository_ListWithCursor(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	base := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)
	ids := []string{"doc-a", "doc-b", "doc-c", "doc-d", "doc-e"}
	for i, id := range ids {
		doc := newTestDocument(id)
		doc.IngestedAt = base.Add(time.Duration(i) * time.Minute)
		doc.UpdatedAt = doc.IngestedAt
		require.NoError(t, repo.Create(ctx, doc))
	}

	// First page: newest first
	page, err := repo.ListWithCursor(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	assert.NotEmpty(t, page.Cursor)
	assert.Equal(t, "doc-e", page.Items[0].ID)
	assert.Equal(t, "doc-d", page.Items[1].ID)

	// Second page continues where the first left off
	cursor, err := pagination.DecodeCursor(page.Cursor)
	require.NoError(t, err)
	page2, err := repo.ListWithCursor(ctx, cursor, 2)
	require.NoError(t, err)
	require.Len(t, page2.Items, 2)
	assert.Equal(t, "doc-c", page2.Items[0].ID)
	assert.Equal(t, "doc-b", page2.Items[1].ID)
	assert.True(t, page2.HasMore)

	// Final page
	cursor2, err := pagination.DecodeCursor(page2.Cursor)
	require.NoError(t, err)
	page3, err := repo.ListWithCursor(ctx, cursor2, 2)
	require.NoError(t, err)
	require.Len(t, page3.Items, 1)
	assert.Equal(t, "doc-a", page3.Items[0].ID)
	assert.False(t, page3.HasMore)
	assert.Empty(t, page3.Cursor)
}

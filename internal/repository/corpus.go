package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/skylane-ai/aerocontext/internal/domain"
	"github.com/skylane-ai/aerocontext/internal/search"
)

// CorpusRepository persists chunk embeddings and serves both retrieval legs
// of the hybrid engine: cosine distance over the pgvector column and
// ts_rank_cd over the generated tsvector column.
type CorpusRepository struct {
	db dbtx
}

func NewCorpusRepository(pool *pgxpool.Pool) *CorpusRepository {
	return &CorpusRepository{db: pool}
}

func NewCorpusRepositoryWithTx(tx dbtx) *CorpusRepository {
	return &CorpusRepository{db: tx}
}

// ReplaceChunks deletes existing chunks for a document and inserts new ones.
func (r *CorpusRepository) ReplaceChunks(ctx context.Context, parentID string, chunks []domain.Chunk) error {
	_, err := r.db.Exec(ctx, `DELETE FROM chunks WHERE parent_id = $1`, parentID)
	if err != nil {
		return err
	}

	if len(chunks) == 0 {
		return nil
	}

	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO chunks
				(id, parent_id, parent_title, title, content, topic, procedure_type, keywords,
				 chunk_index, total_chunks, chunked, chapter, section, doc_type, source_url, embedding, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			c.ID,
			c.ParentID,
			c.ParentTitle,
			c.Title,
			c.Content,
			c.Topic,
			c.ProcedureType,
			c.Keywords,
			c.ChunkIndex,
			c.TotalChunks,
			c.Chunked,
			nullableString(c.Metadata.Chapter),
			nullableString(c.Metadata.Section),
			nullableString(c.Metadata.Type),
			nullableString(c.Metadata.SourceURL),
			pgvector.NewVector(c.Embedding),
			createdAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *CorpusRepository) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	var c domain.Chunk
	var chapter, section, docType, sourceURL *string
	err := r.db.QueryRow(ctx,
		`SELECT id, parent_id, parent_title, title, content, topic, procedure_type, keywords,
		        chunk_index, total_chunks, chunked, chapter, section, doc_type, source_url, created_at
		 FROM chunks WHERE id = $1`,
		id,
	).Scan(
		&c.ID, &c.ParentID, &c.ParentTitle, &c.Title, &c.Content, &c.Topic, &c.ProcedureType, &c.Keywords,
		&c.ChunkIndex, &c.TotalChunks, &c.Chunked, &chapter, &section, &docType, &sourceURL, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChunkNotFound
		}
		return nil, err
	}
	applyChunkMetadata(&c, chapter, section, docType, sourceURL)
	return &c, nil
}

func (r *CorpusRepository) ListByParent(ctx context.Context, parentID string) ([]domain.Chunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, parent_id, parent_title, title, content, topic, procedure_type, keywords,
		        chunk_index, total_chunks, chunked, chapter, section, doc_type, source_url, created_at
		 FROM chunks WHERE parent_id = $1 ORDER BY chunk_index ASC`,
		parentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var chapter, section, docType, sourceURL *string
		if err := rows.Scan(
			&c.ID, &c.ParentID, &c.ParentTitle, &c.Title, &c.Content, &c.Topic, &c.ProcedureType, &c.Keywords,
			&c.ChunkIndex, &c.TotalChunks, &c.Chunked, &chapter, &section, &docType, &sourceURL, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		applyChunkMetadata(&c, chapter, section, docType, sourceURL)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// ListIndexed returns every chunk belonging to an indexed document, ordered
// by parent then chunk index. Embeddings are not loaded.
func (r *CorpusRepository) ListIndexed(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.parent_id, c.parent_title, c.title, c.content, c.topic, c.procedure_type, c.keywords,
		        c.chunk_index, c.total_chunks, c.chunked, c.chapter, c.section, c.doc_type, c.source_url, c.created_at
		 FROM chunks c
		 JOIN documents d ON d.id = c.parent_id
		 WHERE d.status = $1
		 ORDER BY c.parent_id ASC, c.chunk_index ASC`,
		domain.ProcessingStatusIndexed,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var chapter, section, docType, sourceURL *string
		if err := rows.Scan(
			&c.ID, &c.ParentID, &c.ParentTitle, &c.Title, &c.Content, &c.Topic, &c.ProcedureType, &c.Keywords,
			&c.ChunkIndex, &c.TotalChunks, &c.Chunked, &chapter, &section, &docType, &sourceURL, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		applyChunkMetadata(&c, chapter, section, docType, sourceURL)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// SearchSemantic ranks chunks by cosine distance to the query embedding,
// mapped into (0,1] so downstream fusion can treat it as a similarity.
func (r *CorpusRepository) SearchSemantic(ctx context.Context, embedding []float32, limit int) ([]search.Hit, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, content, title, topic, chapter, section, source_url,
		        1.0 / (1.0 + (embedding <=> $1)) AS score
		 FROM chunks
		 WHERE embedding IS NOT NULL
		 ORDER BY score DESC
		 LIMIT $2`,
		pgvector.NewVector(embedding), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHits(rows)
}

// SearchLexical ranks chunks by full-text relevance of the raw query against
// the generated tsvector column. ts_rank_cd is unbounded above, so scores are
// squashed into [0,1) with x/(1+x).
func (r *CorpusRepository) SearchLexical(ctx context.Context, query string, limit int) ([]search.Hit, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, content, title, topic, chapter, section, source_url,
		        ts_rank_cd(content_tsv, q) / (1.0 + ts_rank_cd(content_tsv, q)) AS score
		 FROM chunks, plainto_tsquery('english', $1) q
		 WHERE content_tsv @@ q
		 ORDER BY score DESC
		 LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHits(rows)
}

// DocumentContentHashes returns the stored content hash for every indexed
// document, keyed by document ID. Used to build document-set cache keys.
func (r *CorpusRepository) DocumentContentHashes(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, encode(sha256(content::bytea), 'hex') FROM documents WHERE status = $1`,
		domain.ProcessingStatusIndexed,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var id, hash string
		if err := rows.Scan(&id, &hash); err != nil {
			return nil, err
		}
		hashes[id] = hash
	}
	return hashes, rows.Err()
}

func scanHits(rows pgx.Rows) ([]search.Hit, error) {
	var hits []search.Hit
	for rows.Next() {
		var h search.Hit
		var topic string
		var chapter, section, sourceURL *string
		if err := rows.Scan(&h.ID, &h.Text, &h.Metadata.Title, &topic, &chapter, &section, &sourceURL, &h.Score); err != nil {
			return nil, err
		}
		h.Metadata.ID = h.ID
		h.Metadata.Type = topic
		if chapter != nil {
			h.Metadata.ChapterNumber = *chapter
		}
		if section != nil {
			h.Metadata.SectionNumber = *section
		}
		if sourceURL != nil {
			h.Metadata.URL = *sourceURL
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func applyChunkMetadata(c *domain.Chunk, chapter, section, docType, sourceURL *string) {
	if chapter != nil {
		c.Metadata.Chapter = *chapter
	}
	if section != nil {
		c.Metadata.Section = *section
	}
	if docType != nil {
		c.Metadata.Type = *docType
	}
	if sourceURL != nil {
		c.Metadata.SourceURL = *sourceURL
	}
}

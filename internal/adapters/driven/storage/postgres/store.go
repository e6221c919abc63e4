// Package postgres provides a PostgreSQL implementation of the storage ports.
// Vectors are kept in pgvector columns; documents, chunks and vectors share
// one database so a document and its vectors change in one transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/postgres/migrations"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.Repository = (*Store)(nil)

// Store is a PostgreSQL-backed document and vector repository.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to dsn, verifies the connection and applies pending migrations.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is empty", domain.ErrValidation)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx, migrations.FS); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Documents returns a DocumentStore backed by this store.
func (s *Store) Documents() driven.DocumentStore {
	return &documentStore{store: s}
}

// Vectors returns a VectorStore backed by this store.
func (s *Store) Vectors() driven.VectorStore {
	return &vectorStore{store: s}
}

// SaveDocument writes a document, its chunks and its vector record in one transaction.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document, rec *domain.VectorRecord) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := rec.BelongsTo(doc); err != nil {
		return err
	}

	return s.withTx(ctx, "save document", func(tx pgx.Tx) error {
		if err := putDocument(ctx, tx, doc); err != nil {
			return err
		}
		return putVectors(ctx, tx, rec)
	})
}

// DeleteDocument removes a document and its vectors in one transaction.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	return s.withTx(ctx, "delete document", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM documents WHERE id = $1", id); err != nil {
			return fmt.Errorf("deleting document: %w", err)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM vector_records WHERE document_id = $1", id); err != nil {
			return fmt.Errorf("deleting vectors: %w", err)
		}
		return nil
	})
}

func (s *Store) withTx(ctx context.Context, op string, fn func(tx pgx.Tx) error) error {
	if err := pgx.BeginFunc(ctx, s.pool, fn); err != nil {
		return &domain.StorageError{Op: op, Err: err}
	}
	return nil
}

// migrate applies pending *.up.sql files in version order.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	if err := s.pool.QueryRow(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	files, err := upMigrations(fsys)
	if err != nil {
		return err
	}

	for _, m := range files {
		if m.version <= currentVersion {
			continue
		}
		content, err := fs.ReadFile(fsys, m.name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", m.name, err)
		}
		err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(content)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.version)
			return err
		})
		if err != nil {
			return fmt.Errorf("executing migration %s: %w", m.name, err)
		}
	}
	return nil
}

type migration struct {
	version int
	name    string
}

// upMigrations lists "NNN_name.up.sql" files sorted by version.
func upMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var out []migration
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		out = append(out, migration{version: version, name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// ==================== Document Store ====================

type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

func (d *documentStore) Put(ctx context.Context, doc *domain.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	return d.store.withTx(ctx, "put document", func(tx pgx.Tx) error {
		return putDocument(ctx, tx, doc)
	})
}

func (d *documentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	err := d.store.pool.QueryRow(ctx, `
		SELECT id, filename, upload_time, source_size, total_chunks
		FROM documents WHERE id = $1
	`, id).Scan(&doc.ID, &doc.Filename, &doc.UploadTime, &doc.Metadata.SourceSize, &doc.Metadata.TotalChunks)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "get document", Err: err}
	}

	rows, err := d.store.pool.Query(ctx, `
		SELECT id, chunk_index, content FROM chunks
		WHERE document_id = $1 ORDER BY chunk_index
	`, id)
	if err != nil {
		return nil, &domain.StorageError{Op: "get chunks", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.Index, &c.Content); err != nil {
			return nil, &domain.StorageError{Op: "scan chunk", Err: err}
		}
		doc.Chunks = append(doc.Chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "get chunks", Err: err}
	}

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: document %s: %w", domain.ErrCorruptRecord, id, err)
	}
	return &doc, nil
}

func (d *documentStore) List(ctx context.Context) ([]domain.DocumentSummary, error) {
	rows, err := d.store.pool.Query(ctx, `
		SELECT id, filename, upload_time, total_chunks
		FROM documents ORDER BY upload_time DESC, id
	`)
	if err != nil {
		return nil, &domain.StorageError{Op: "list documents", Err: err}
	}
	defer rows.Close()

	summaries := []domain.DocumentSummary{}
	for rows.Next() {
		var s domain.DocumentSummary
		if err := rows.Scan(&s.ID, &s.Filename, &s.UploadTime, &s.ChunksCount); err != nil {
			return nil, &domain.StorageError{Op: "scan document", Err: err}
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "list documents", Err: err}
	}
	return summaries, nil
}

func (d *documentStore) Delete(ctx context.Context, id string) error {
	if _, err := d.store.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id); err != nil {
		return &domain.StorageError{Op: "delete document", Err: err}
	}
	return nil
}

func putDocument(ctx context.Context, tx pgx.Tx, doc *domain.Document) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO documents (id, filename, upload_time, source_size, total_chunks)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			upload_time = EXCLUDED.upload_time,
			source_size = EXCLUDED.source_size,
			total_chunks = EXCLUDED.total_chunks
	`, doc.ID, doc.Filename, doc.UploadTime.UTC(), doc.Metadata.SourceSize, doc.Metadata.TotalChunks)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM chunks WHERE document_id = $1", doc.ID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range doc.Chunks {
		batch.Queue(`INSERT INTO chunks (document_id, id, chunk_index, content) VALUES ($1, $2, $3, $4)`,
			doc.ID, c.ID, c.Index, c.Content)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("saving chunks: %w", err)
	}
	return nil
}

// ==================== Vector Store ====================

type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

func (v *vectorStore) Upsert(ctx context.Context, documentID string, chunkIDs []string, vectors [][]float32, dimension int) error {
	rec, err := domain.NewVectorRecord(documentID, chunkIDs, vectors, dimension)
	if err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	return v.store.withTx(ctx, "upsert vectors", func(tx pgx.Tx) error {
		return putVectors(ctx, tx, rec)
	})
}

func (v *vectorStore) Get(ctx context.Context, documentID string) (*domain.VectorRecord, error) {
	rec := &domain.VectorRecord{DocumentID: documentID, ChunkVectors: make([]domain.ChunkVector, 0)}
	err := v.store.pool.QueryRow(ctx,
		"SELECT dimension FROM vector_records WHERE document_id = $1", documentID).Scan(&rec.Dimension)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "get vectors", Err: err}
	}

	rows, err := v.store.pool.Query(ctx, `
		SELECT chunk_id, embedding FROM chunk_vectors
		WHERE document_id = $1 ORDER BY position
	`, documentID)
	if err != nil {
		return nil, &domain.StorageError{Op: "get chunk vectors", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var chunkID string
		var embedding pgvector.Vector
		if err := rows.Scan(&chunkID, &embedding); err != nil {
			return nil, &domain.StorageError{Op: "scan chunk vector", Err: err}
		}
		rec.ChunkVectors = append(rec.ChunkVectors, domain.ChunkVector{
			ChunkID: chunkID,
			Vector:  embedding.Slice(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "get chunk vectors", Err: err}
	}

	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: vectors of %s: %w", domain.ErrCorruptRecord, documentID, err)
	}
	return rec, nil
}

func (v *vectorStore) Delete(ctx context.Context, documentID string) error {
	if _, err := v.store.pool.Exec(ctx,
		"DELETE FROM vector_records WHERE document_id = $1", documentID); err != nil {
		return &domain.StorageError{Op: "delete vectors", Err: err}
	}
	return nil
}

func putVectors(ctx context.Context, tx pgx.Tx, rec *domain.VectorRecord) error {
	if _, err := tx.Exec(ctx, "DELETE FROM vector_records WHERE document_id = $1", rec.DocumentID); err != nil {
		return fmt.Errorf("clearing vectors: %w", err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO vector_records (document_id, dimension) VALUES ($1, $2)",
		rec.DocumentID, rec.Dimension); err != nil {
		return fmt.Errorf("saving vector record: %w", err)
	}

	batch := &pgx.Batch{}
	for i, cv := range rec.ChunkVectors {
		batch.Queue(`INSERT INTO chunk_vectors (document_id, position, chunk_id, embedding) VALUES ($1, $2, $3, $4)`,
			rec.DocumentID, i, cv.ChunkID, pgvector.NewVector(cv.Vector))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("saving chunk vectors: %w", err)
	}
	return nil
}

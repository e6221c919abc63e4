package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// timeLayout is fixed-width so upload times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Ensure Store implements the interface.
var _ driven.Repository = (*Store)(nil)

// Store is a SQLite-backed document and vector repository.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.ragchat/data/ragchat.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragchat", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "ragchat.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
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

	return s.withTx(ctx, "save document", func(tx *sql.Tx) error {
		if err := putDocument(ctx, tx, doc); err != nil {
			return err
		}
		return putVectors(ctx, tx, rec)
	})
}

// DeleteDocument removes a document and its vectors in one transaction.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	return s.withTx(ctx, "delete document", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting document: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM vector_records WHERE document_id = ?", id); err != nil {
			return fmt.Errorf("deleting vectors: %w", err)
		}
		return nil
	})
}

// withTx runs fn in a transaction and wraps failures as storage errors.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StorageError{Op: op, Err: fmt.Errorf("beginning transaction: %w", err)}
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return &domain.StorageError{Op: op, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &domain.StorageError{Op: op, Err: fmt.Errorf("committing transaction: %w", err)}
	}
	return nil
}

// migrate runs all pending migrations and records each applied version.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("getting schema version: %w", err)
	}
	return version, nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// Put stores or replaces a document and its chunks.
func (d *documentStore) Put(ctx context.Context, doc *domain.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	return d.store.withTx(ctx, "put document", func(tx *sql.Tx) error {
		return putDocument(ctx, tx, doc)
	})
}

// Get retrieves a document with its chunks in index order.
func (d *documentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	var uploadTime string
	row := d.store.db.QueryRowContext(ctx, `
		SELECT id, filename, upload_time, source_size, total_chunks
		FROM documents WHERE id = ?
	`, id)
	err := row.Scan(&doc.ID, &doc.Filename, &uploadTime, &doc.Metadata.SourceSize, &doc.Metadata.TotalChunks)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "get document", Err: err}
	}

	doc.UploadTime, err = time.Parse(timeLayout, uploadTime)
	if err != nil {
		return nil, fmt.Errorf("%w: document %s upload time: %w", domain.ErrCorruptRecord, id, err)
	}

	rows, err := d.store.db.QueryContext(ctx, `
		SELECT id, chunk_index, content FROM chunks
		WHERE document_id = ? ORDER BY chunk_index
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

// List returns document summaries, newest first.
func (d *documentStore) List(ctx context.Context) ([]domain.DocumentSummary, error) {
	rows, err := d.store.db.QueryContext(ctx, `
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
		var uploadTime string
		if err := rows.Scan(&s.ID, &s.Filename, &uploadTime, &s.ChunksCount); err != nil {
			return nil, &domain.StorageError{Op: "scan document", Err: err}
		}
		s.UploadTime, err = time.Parse(timeLayout, uploadTime)
		if err != nil {
			return nil, fmt.Errorf("%w: document %s upload time: %w", domain.ErrCorruptRecord, s.ID, err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "list documents", Err: err}
	}
	return summaries, nil
}

// Delete removes a document and its chunks.
func (d *documentStore) Delete(ctx context.Context, id string) error {
	if _, err := d.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return &domain.StorageError{Op: "delete document", Err: err}
	}
	return nil
}

func putDocument(ctx context.Context, tx *sql.Tx, doc *domain.Document) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, filename, upload_time, source_size, total_chunks)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			upload_time = excluded.upload_time,
			source_size = excluded.source_size,
			total_chunks = excluded.total_chunks
	`, doc.ID, doc.Filename, doc.UploadTime.UTC().Format(timeLayout),
		doc.Metadata.SourceSize, doc.Metadata.TotalChunks)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (document_id, id, chunk_index, content) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range doc.Chunks {
		if _, err := stmt.ExecContext(ctx, doc.ID, c.ID, c.Index, c.Content); err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ID, err)
		}
	}
	return nil
}

// ==================== Vector Store ====================

// vectorStore implements driven.VectorStore.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Upsert replaces the vector record of a document.
func (v *vectorStore) Upsert(ctx context.Context, documentID string, chunkIDs []string, vectors [][]float32, dimension int) error {
	rec, err := domain.NewVectorRecord(documentID, chunkIDs, vectors, dimension)
	if err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	return v.store.withTx(ctx, "upsert vectors", func(tx *sql.Tx) error {
		return putVectors(ctx, tx, rec)
	})
}

// Get retrieves the vector record of a document in stored order.
func (v *vectorStore) Get(ctx context.Context, documentID string) (*domain.VectorRecord, error) {
	rec := &domain.VectorRecord{DocumentID: documentID, ChunkVectors: make([]domain.ChunkVector, 0)}
	row := v.store.db.QueryRowContext(ctx,
		"SELECT dimension FROM vector_records WHERE document_id = ?", documentID)
	err := row.Scan(&rec.Dimension)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "get vectors", Err: err}
	}

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT chunk_id, vector FROM chunk_vectors
		WHERE document_id = ? ORDER BY position
	`, documentID)
	if err != nil {
		return nil, &domain.StorageError{Op: "get chunk vectors", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var cv domain.ChunkVector
		var blob []byte
		if err := rows.Scan(&cv.ChunkID, &blob); err != nil {
			return nil, &domain.StorageError{Op: "scan chunk vector", Err: err}
		}
		if len(blob)%4 != 0 {
			return nil, fmt.Errorf("%w: chunk %s vector has %d bytes", domain.ErrCorruptRecord, cv.ChunkID, len(blob))
		}
		cv.Vector = bytesToFloat32Slice(blob)
		rec.ChunkVectors = append(rec.ChunkVectors, cv)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "get chunk vectors", Err: err}
	}

	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: vectors of %s: %w", domain.ErrCorruptRecord, documentID, err)
	}
	return rec, nil
}

// Delete removes the vector record of a document.
func (v *vectorStore) Delete(ctx context.Context, documentID string) error {
	if _, err := v.store.db.ExecContext(ctx,
		"DELETE FROM vector_records WHERE document_id = ?", documentID); err != nil {
		return &domain.StorageError{Op: "delete vectors", Err: err}
	}
	return nil
}

func putVectors(ctx context.Context, tx *sql.Tx, rec *domain.VectorRecord) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM vector_records WHERE document_id = ?", rec.DocumentID); err != nil {
		return fmt.Errorf("clearing vectors: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO vector_records (document_id, dimension) VALUES (?, ?)",
		rec.DocumentID, rec.Dimension); err != nil {
		return fmt.Errorf("saving vector record: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunk_vectors (document_id, position, chunk_id, vector) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing vector insert: %w", err)
	}
	defer stmt.Close()

	for i, cv := range rec.ChunkVectors {
		if _, err := stmt.ExecContext(ctx, rec.DocumentID, i, cv.ChunkID, float32SliceToBytes(cv.Vector)); err != nil {
			return fmt.Errorf("saving vector for chunk %s: %w", cv.ChunkID, err)
		}
	}
	return nil
}

// ==================== Helpers ====================

// float32SliceToBytes converts []float32 to little-endian bytes.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

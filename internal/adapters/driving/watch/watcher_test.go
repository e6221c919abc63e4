package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

type recordingDocuments struct {
	mu       sync.Mutex
	ingested map[string]*domain.RawDocument
	deleted  []string
}

func newRecordingDocuments() *recordingDocuments {
	return &recordingDocuments{ingested: make(map[string]*domain.RawDocument)}
}

func (r *recordingDocuments) Ingest(_ context.Context, raw *domain.RawDocument) (*domain.IngestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ingested[raw.ID] = raw
	return &domain.IngestResult{DocumentID: raw.ID, Filename: raw.Filename, Status: domain.IngestStatusProcessed}, nil
}

func (r *recordingDocuments) List(context.Context) ([]domain.DocumentSummary, error) {
	return nil, nil
}

func (r *recordingDocuments) Get(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (r *recordingDocuments) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ingested[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.ingested, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *recordingDocuments) has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ingested[id]
	return ok
}

func TestNew(t *testing.T) {
	t.Run("rejects empty dir", func(t *testing.T) {
		_, err := New("", newRecordingDocuments())
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("rejects missing dir", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "missing"), newRecordingDocuments())
		assert.Error(t, err)
	})

	t.Run("rejects file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "a.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		_, err := New(path, newRecordingDocuments())
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("resolves absolute path", func(t *testing.T) {
		dir := t.TempDir()
		w, err := New(dir, newRecordingDocuments())
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(w.Dir()))
	})
}

func TestDocumentID_Stable(t *testing.T) {
	a := DocumentID("/data/notes.txt")
	assert.Equal(t, a, DocumentID("/data/notes.txt"))
	assert.NotEqual(t, a, DocumentID("/data/other.txt"))
}

func TestEligible(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"notes.txt", true},
		{"NOTES.TXT", true},
		{".hidden.txt", false},
		{"report.pdf", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eligible(tt.name))
		})
	}
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("hello"), 0o644))
	sub := filepath.Join(dir, "sub.txt")
	require.NoError(t, os.Mkdir(sub, 0o755))

	tests := []struct {
		name  string
		event fsnotify.Event
		want  action
	}{
		{"create", fsnotify.Event{Name: file, Op: fsnotify.Create}, actionIngest},
		{"write", fsnotify.Event{Name: file, Op: fsnotify.Write}, actionIngest},
		{"write and chmod", fsnotify.Event{Name: file, Op: fsnotify.Write | fsnotify.Chmod}, actionIngest},
		{"chmod", fsnotify.Event{Name: file, Op: fsnotify.Chmod}, actionNone},
		{"remove", fsnotify.Event{Name: filepath.Join(dir, "gone.txt"), Op: fsnotify.Remove}, actionDelete},
		{"rename", fsnotify.Event{Name: filepath.Join(dir, "old.txt"), Op: fsnotify.Rename}, actionDelete},
		{"directory", fsnotify.Event{Name: sub, Op: fsnotify.Create}, actionNone},
		{"unsupported", fsnotify.Event{Name: filepath.Join(dir, "a.pdf"), Op: fsnotify.Create}, actionNone},
		{"vanished before stat", fsnotify.Event{Name: filepath.Join(dir, "tmp.txt"), Op: fsnotify.Create}, actionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.event))
		})
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("beta"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.md"), []byte("skip"), 0o644))

	docs := newRecordingDocuments()
	w, err := New(dir, docs)
	require.NoError(t, err)

	assert.Equal(t, 2, w.Scan(context.Background()))

	raw := docs.ingested[DocumentID(filepath.Join(w.Dir(), "a.txt"))]
	require.NotNil(t, raw)
	assert.Equal(t, "a.txt", raw.Filename)
	assert.Equal(t, []byte("alpha"), raw.Content)
}

func TestFlush_WaitsForSettle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha"), 0o644))

	docs := newRecordingDocuments()
	w, err := New(dir, docs, WithSettle(time.Second))
	require.NoError(t, err)

	start := time.Now()
	w.record(fsnotify.Event{Name: path, Op: fsnotify.Write}, start)

	w.flush(context.Background(), start.Add(500*time.Millisecond))
	assert.False(t, docs.has(DocumentID(path)))

	w.flush(context.Background(), start.Add(time.Second))
	assert.True(t, docs.has(DocumentID(path)))
}

func TestFlush_DeleteAfterRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha"), 0o644))

	docs := newRecordingDocuments()
	w, err := New(dir, docs, WithSettle(time.Millisecond))
	require.NoError(t, err)
	w.Scan(context.Background())

	require.NoError(t, os.Remove(path))
	now := time.Now()
	w.record(fsnotify.Event{Name: path, Op: fsnotify.Remove}, now)
	w.flush(context.Background(), now.Add(time.Second))

	assert.False(t, docs.has(DocumentID(path)))
	assert.Equal(t, []string{DocumentID(path)}, docs.deleted)
}

func TestRun_PicksUpNewFile(t *testing.T) {
	dir := t.TempDir()
	docs := newRecordingDocuments()
	w, err := New(dir, docs, WithSettle(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	path := filepath.Join(w.Dir(), "new.txt")
	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("fresh"), 0o644))

	assert.Eventually(t, func() bool { return docs.has(DocumentID(path)) }, 5*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

// Package watch ingests plain text files dropped into a folder.
//
// Each file maps to a stable document id derived from its absolute path, so
// editing a file replaces its document and removing it deletes the document.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// DefaultSettle is how long a file must stay quiet before it is ingested.
const DefaultSettle = 500 * time.Millisecond

// action is what the watcher does for a settled path.
type action int

const (
	actionNone action = iota
	actionIngest
	actionDelete
)

// Watcher mirrors a folder of .txt files into the document service.
type Watcher struct {
	dir       string
	documents driving.DocumentService
	settle    time.Duration

	mu      sync.Mutex
	pending map[string]pendingChange
}

type pendingChange struct {
	action action
	at     time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle overrides the quiet period before a change is applied.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// New creates a watcher for dir.
func New(dir string, documents driving.DocumentService, opts ...Option) (*Watcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: watch directory is empty", domain.ErrValidation)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrValidation, abs)
	}

	w := &Watcher{
		dir:       abs,
		documents: documents,
		settle:    DefaultSettle,
		pending:   make(map[string]pendingChange),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Dir returns the absolute path being watched.
func (w *Watcher) Dir() string {
	return w.dir
}

// DocumentID returns the stable document id for a file path.
func DocumentID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(path))).String()
}

// Run ingests existing files, then applies changes until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.Scan(ctx)
	logger.Info("watching %s for .txt files", w.dir)

	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.record(event, time.Now())
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch %s: %v", w.dir, err)
		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

// Scan ingests every eligible file currently in the folder.
func (w *Watcher) Scan(ctx context.Context) int {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		logger.Warn("scan %s: %v", w.dir, err)
		return 0
	}

	ingested := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if entry.IsDir() || !eligible(entry.Name()) {
			continue
		}
		if w.apply(ctx, filepath.Join(w.dir, entry.Name()), actionIngest) {
			ingested++
		}
	}
	return ingested
}

// classify maps a filesystem event onto an action.
func classify(event fsnotify.Event) action {
	if !eligible(filepath.Base(event.Name)) {
		return actionNone
	}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return actionDelete
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return actionNone
		}
		return actionIngest
	default:
		return actionNone
	}
}

// eligible reports whether a file name is a visible .txt file.
func eligible(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".txt")
}

func (w *Watcher) record(event fsnotify.Event, now time.Time) {
	act := classify(event)
	if act == actionNone {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = pendingChange{action: act, at: now}
	w.mu.Unlock()
}

// flush applies changes that have been quiet for the settle period.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	w.mu.Lock()
	ready := make(map[string]action)
	for path, change := range w.pending {
		if now.Sub(change.at) >= w.settle {
			ready[path] = change.action
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for path, act := range ready {
		w.apply(ctx, path, act)
	}
}

func (w *Watcher) apply(ctx context.Context, path string, act action) bool {
	id := DocumentID(path)

	switch act {
	case actionIngest:
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("read %s: %v", path, err)
			return false
		}
		result, err := w.documents.Ingest(ctx, &domain.RawDocument{
			ID:       id,
			Filename: filepath.Base(path),
			MIMEType: "text/plain",
			Content:  content,
		})
		if err != nil {
			logger.Warn("ingest %s: %v", path, err)
			return false
		}
		logger.Info("ingested %s as %s (%d chunks)", result.Filename, result.DocumentID, result.ChunksCount)
		return true

	case actionDelete:
		err := w.documents.Delete(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("delete %s: %v", path, err)
			return false
		}
		logger.Debug("removed document for %s", path)
		return true
	}
	return false
}

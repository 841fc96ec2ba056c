// Package mirror keeps locally watched files synchronized from their
// canonical source locations. Each distinct source file gets one polling task
// that copies the source over the local copy on every tick until the manager
// is stopped.
package mirror

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	lwerrors "github.com/conneroisu/linkwatch/internal/errors"
	"github.com/conneroisu/linkwatch/internal/logging"
)

// Manager owns the mirror task registry. Tasks are keyed by the canonical
// (symlink-resolved) source path, which makes registration idempotent no
// matter how many times classification reports the same local path.
type Manager struct {
	sources   map[string]string // root name -> canonical source directory
	interval  time.Duration
	collector *lwerrors.Collector
	logger    logging.Logger

	tasks   map[string]*task
	mutex   sync.Mutex
	wg      sync.WaitGroup
	stopped bool
}

type task struct {
	source string
	dest   string
	cancel context.CancelFunc
}

// NewManager creates a mirror manager. sources maps each watch-root name to
// the external directory its files are mirrored from. A nil logger disables
// logging; the collector is required and receives every copy failure.
func NewManager(sources map[string]string, interval time.Duration, collector *lwerrors.Collector, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Manager{
		sources:   sources,
		interval:  interval,
		collector: collector,
		logger:    logger.WithComponent("mirror"),
		tasks:     make(map[string]*task),
	}
}

// Evaluate inspects a path classified as relevant and lazily registers a
// mirror task for it. Only existing regular files are mirrored: directories
// and not-yet-created files are skipped without error. When the local path
// already resolves to the same file as the source (a symbolic link into the
// source tree), no task is needed.
func (m *Manager) Evaluate(localPath, rootName, suffix string) {
	srcDir, ok := m.sources[rootName]
	if !ok || suffix == "" {
		return
	}

	info, err := os.Stat(localPath)
	if err != nil || !info.Mode().IsRegular() {
		return
	}

	source := filepath.Join(srcDir, suffix)
	canonSource := canonicalize(source)
	canonLocal := canonicalize(localPath)
	if canonSource == canonLocal {
		// The local entry already is the source.
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.stopped {
		return
	}
	if _, exists := m.tasks[canonSource]; exists {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{source: source, dest: localPath, cancel: cancel}
	m.tasks[canonSource] = t

	m.logger.Debug(ctx, "mirror task registered",
		"source", source, "dest", localPath, "root", rootName)

	m.wg.Add(1)
	go m.poll(ctx, t)
}

// poll copies the source over the destination on a fixed schedule. A missing
// source skips the tick; a failed copy is reported and the next tick retries.
func (m *Manager) poll(ctx context.Context, t *task) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx, t)
		}
	}
}

func (m *Manager) tick(ctx context.Context, t *task) {
	if _, err := os.Stat(t.source); err != nil {
		// Source deleted or unreachable; destination keeps its last content.
		return
	}

	if err := copyFile(t.source, t.dest); err != nil {
		m.collector.AddSync(lwerrors.SyncError{
			SourcePath: t.source,
			DestPath:   t.dest,
			Message:    "mirror copy failed",
			Cause:      err,
		})
		m.logger.Warn(ctx, err, "mirror copy failed",
			"source", t.source, "dest", t.dest)
	}
}

// TaskCount returns the number of registered mirror tasks.
func (m *Manager) TaskCount() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.tasks)
}

// Stop cancels every mirror task and waits for their goroutines to exit.
// The manager accepts no new tasks afterwards.
func (m *Manager) Stop() {
	m.mutex.Lock()
	if m.stopped {
		m.mutex.Unlock()
		return
	}
	m.stopped = true
	for _, t := range m.tasks {
		t.cancel()
	}
	m.mutex.Unlock()

	m.wg.Wait()
}

// canonicalize resolves symlinks where possible, falling back to the cleaned
// absolute path for files that do not exist yet.
func canonicalize(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(path)
}

// copyFile overwrites dst with the full content of src, preserving nothing
// but the bytes.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

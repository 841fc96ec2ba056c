package proxy

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	lwerrors "github.com/conneroisu/linkwatch/internal/errors"
	"github.com/conneroisu/linkwatch/internal/logging"
)

const defaultDebounce = 250 * time.Millisecond

// PollWatcher is the production Watcher backend. It drives fsnotify for
// change notification and answers timestamp queries with fresh stat calls,
// so accessor results always reflect the current filesystem state.
type PollWatcher struct {
	logger logging.Logger
}

// NewPollWatcher creates an fsnotify-backed watcher.
func NewPollWatcher(logger logging.Logger) *PollWatcher {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &PollWatcher{logger: logger.WithComponent("watcher")}
}

// Watch starts a session over the requested sets. Paths that cannot be added
// to the OS watcher (typically because they do not exist yet) are skipped;
// missing paths are detected by watching their parent directories.
func (w *PollWatcher) Watch(req Request, onChange, onChangeUndelayed ChangeFunc) (Handle, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, lwerrors.NewWatchError("watcher_init", "creating fsnotify watcher", err)
	}

	s := &session{
		fsw:               fsw,
		req:               req,
		onChange:          onChange,
		onChangeUndelayed: onChangeUndelayed,
		debounce:          req.Options.DebounceInterval,
		logger:            w.logger,
		pending:           make(map[string]struct{}),
		fileSet:           make(map[string]bool, len(req.Files)),
		dirSet:            make(map[string]bool, len(req.Dirs)),
		closed:            make(chan struct{}),
	}
	if s.debounce <= 0 {
		s.debounce = defaultDebounce
	}

	ctx := context.Background()
	for _, file := range req.Files {
		s.fileSet[file] = true
		if err := fsw.Add(file); err != nil {
			w.logger.Debug(ctx, "skipping unwatchable file", "path", file, "error", err.Error())
		}
	}
	for _, dir := range req.Dirs {
		s.dirSet[dir] = true
		if err := fsw.Add(dir); err != nil {
			w.logger.Debug(ctx, "skipping unwatchable dir", "path", dir, "error", err.Error())
		}
	}

	// A missing path cannot be watched directly; its parent reports the
	// creation.
	parents := make(map[string]bool)
	for _, missing := range req.Missing {
		parent := filepath.Dir(missing)
		if parents[parent] || s.dirSet[parent] {
			continue
		}
		parents[parent] = true
		if err := fsw.Add(parent); err != nil {
			w.logger.Debug(ctx, "skipping parent of missing path", "path", parent, "error", err.Error())
		}
	}

	go s.loop()

	return s, nil
}

type session struct {
	fsw               *fsnotify.Watcher
	req               Request
	onChange          ChangeFunc
	onChangeUndelayed ChangeFunc
	debounce          time.Duration
	logger            logging.Logger

	pending map[string]struct{}
	timer   *time.Timer
	mutex   sync.Mutex

	fileSet map[string]bool
	dirSet  map[string]bool

	paused    atomic.Bool
	closed    chan struct{}
	closeOnce sync.Once
}

func (s *session) loop() {
	for {
		select {
		case <-s.closed:
			return
		case event, ok := <-s.fsw.Events:
			if !ok {
				return
			}
			s.handleEvent(event)
		case err, ok := <-s.fsw.Errors:
			if !ok {
				return
			}
			if !s.paused.Load() {
				s.onChange(Snapshot{Err: err})
			}
		}
	}
}

func (s *session) handleEvent(event fsnotify.Event) {
	if s.paused.Load() {
		return
	}

	if s.onChangeUndelayed != nil {
		snap := Snapshot{}
		if s.dirSet[event.Name] {
			snap.DirsModified = []string{event.Name}
		} else {
			snap.FilesModified = []string{event.Name}
		}
		s.onChangeUndelayed(snap)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.pending[event.Name] = struct{}{}

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.flush)
}

// flush turns the pending event paths into one snapshot with freshly
// observed timestamps and delivers it.
func (s *session) flush() {
	s.mutex.Lock()
	paths := make([]string, 0, len(s.pending))
	for path := range s.pending {
		paths = append(paths, path)
	}
	s.pending = make(map[string]struct{})
	s.mutex.Unlock()

	if len(paths) == 0 || s.paused.Load() {
		return
	}

	snap := Snapshot{
		FileTimestamps: statTimestamps(s.req.Files),
		DirTimestamps:  statTimestamps(s.req.Dirs),
	}

	for _, path := range paths {
		switch {
		case s.fileSet[path]:
			if _, err := os.Stat(path); err != nil {
				snap.RemovedFiles = append(snap.RemovedFiles, path)
			} else {
				snap.FilesModified = append(snap.FilesModified, path)
			}
		case s.dirSet[path]:
			snap.DirsModified = append(snap.DirsModified, path)
		case s.dirSet[filepath.Dir(path)]:
			snap.DirsModified = append(snap.DirsModified, filepath.Dir(path))
		}
	}

	for _, missing := range s.req.Missing {
		if _, err := os.Stat(missing); err == nil {
			snap.MissingModified = append(snap.MissingModified, missing)
		}
	}

	s.onChange(snap)
}

func (s *session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		s.mutex.Lock()
		if s.timer != nil {
			s.timer.Stop()
		}
		s.mutex.Unlock()
		err = s.fsw.Close()
	})
	return err
}

func (s *session) Pause() {
	s.paused.Store(true)
}

func (s *session) FileTimestamps() map[string]Timestamp {
	return statTimestamps(s.req.Files)
}

func (s *session) ContextTimestamps() map[string]Timestamp {
	return statTimestamps(s.req.Dirs)
}

// statTimestamps observes the current mod times of paths. Paths that fail to
// stat are left out of the map, which consumers read as "missing".
func statTimestamps(paths []string) map[string]Timestamp {
	out := make(map[string]Timestamp, len(paths))
	for _, path := range paths {
		if info, err := os.Stat(path); err == nil {
			out[path] = info.ModTime().Unix()
		}
	}
	return out
}

package proxy

import (
	"context"

	"github.com/conneroisu/linkwatch/internal/classify"
	"github.com/conneroisu/linkwatch/internal/logging"
)

// SentinelTimestamp is reported for every ignored path, signaling "present
// and unchanged" without real observation. Consumers that treat an absent
// timestamp entry as a missing file therefore never see ignored paths as
// missing.
const SentinelTimestamp Timestamp = 1

// Proxy is a Watcher that forwards only classification-relevant paths to the
// wrapped watch primitive and synthesizes sentinel results for the rest.
// Classifying the candidate sets also triggers mirror registration as a side
// effect, so running a watch session through the proxy is what arms the
// mirror layer.
type Proxy struct {
	backend    Watcher
	classifier *classify.Classifier
	logger     logging.Logger
}

// NewProxy wraps backend behind the given classifier.
func NewProxy(backend Watcher, classifier *classify.Classifier, logger logging.Logger) *Proxy {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Proxy{
		backend:    backend,
		classifier: classifier,
		logger:     logger.WithComponent("proxy"),
	}
}

// Watch partitions the requested files and dirs into ignored and watched
// sets, delegates the watched sets to the backend, and overlays the sentinel
// timestamp for ignored paths onto every snapshot before it reaches onChange.
// Backend errors are forwarded verbatim with no overlay applied.
func (p *Proxy) Watch(req Request, onChange, onChangeUndelayed ChangeFunc) (Handle, error) {
	watchedFiles, ignoredFiles := p.partition(req.Files)
	watchedDirs, ignoredDirs := p.partition(req.Dirs)

	p.logger.Debug(context.Background(), "watch sets partitioned",
		"watched_files", len(watchedFiles), "ignored_files", len(ignoredFiles),
		"watched_dirs", len(watchedDirs), "ignored_dirs", len(ignoredDirs))

	delegated := Request{
		Files:     watchedFiles,
		Dirs:      watchedDirs,
		Missing:   req.Missing,
		StartTime: req.StartTime,
		Options:   req.Options,
	}

	wrapped := func(snap Snapshot) {
		if snap.Err != nil {
			onChange(snap)
			return
		}
		snap.FileTimestamps = overlay(snap.FileTimestamps, ignoredFiles)
		snap.DirTimestamps = overlay(snap.DirTimestamps, ignoredDirs)
		onChange(snap)
	}

	inner, err := p.backend.Watch(delegated, wrapped, onChangeUndelayed)
	if err != nil {
		return nil, err
	}

	return &proxyHandle{
		inner:        inner,
		ignoredFiles: ignoredFiles,
		ignoredDirs:  ignoredDirs,
	}, nil
}

func (p *Proxy) partition(paths []string) (watched, ignored []string) {
	for _, path := range paths {
		if p.classifier.Classify(path) {
			ignored = append(ignored, path)
		} else {
			watched = append(watched, path)
		}
	}
	return watched, ignored
}

// overlay writes the sentinel entry for every ignored path into a copy of
// the timestamp map. The backend's map is never mutated: it may be shared
// with the backend's own state.
func overlay(timestamps map[string]Timestamp, ignored []string) map[string]Timestamp {
	out := make(map[string]Timestamp, len(timestamps)+len(ignored))
	for path, ts := range timestamps {
		out[path] = ts
	}
	for _, path := range ignored {
		out[path] = SentinelTimestamp
	}
	return out
}

// proxyHandle overlays accessor results on every call. The ignored sets are
// fixed for the session, but the underlying real timestamps change, so
// nothing is cached across calls.
type proxyHandle struct {
	inner        Handle
	ignoredFiles []string
	ignoredDirs  []string
}

func (h *proxyHandle) Close() error {
	return h.inner.Close()
}

func (h *proxyHandle) Pause() {
	h.inner.Pause()
}

func (h *proxyHandle) FileTimestamps() map[string]Timestamp {
	return overlay(h.inner.FileTimestamps(), h.ignoredFiles)
}

func (h *proxyHandle) ContextTimestamps() map[string]Timestamp {
	return overlay(h.inner.ContextTimestamps(), h.ignoredDirs)
}

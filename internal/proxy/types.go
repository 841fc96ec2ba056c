// Package proxy wraps an OS file-watch primitive behind a classification
// layer. Paths outside the registered watch roots are never handed to the
// real watcher; instead they are reported with a fixed sentinel timestamp so
// that downstream consumers see them as present and unchanged.
package proxy

import "time"

// Timestamp is a watch-protocol timestamp in unix seconds. The sentinel value
// 1 marks entries that are synthesized rather than observed.
type Timestamp = int64

// Snapshot is the result of one change batch from the watch primitive. When
// Err is set the remaining fields are undefined and must not be interpreted.
type Snapshot struct {
	Err             error
	FilesModified   []string
	DirsModified    []string
	MissingModified []string
	FileTimestamps  map[string]Timestamp
	DirTimestamps   map[string]Timestamp
	RemovedFiles    []string
}

// ChangeFunc consumes change batches.
type ChangeFunc func(Snapshot)

// Options tunes a watch session.
type Options struct {
	// DebounceInterval groups rapid changes into one batch.
	DebounceInterval time.Duration
}

// Request describes the full candidate watch sets for one session.
type Request struct {
	Files     []string
	Dirs      []string
	Missing   []string
	StartTime time.Time
	Options   Options
}

// Watcher abstracts the underlying OS file-change mechanism. onChange
// receives debounced batches; onChangeUndelayed, when non-nil, receives a
// notification per raw event without debouncing.
type Watcher interface {
	Watch(req Request, onChange, onChangeUndelayed ChangeFunc) (Handle, error)
}

// Handle controls a running watch session.
type Handle interface {
	// Close stops the session and releases watch resources.
	Close() error
	// Pause suspends callback delivery without releasing resources.
	Pause()
	// FileTimestamps returns the current file timestamp map.
	FileTimestamps() map[string]Timestamp
	// ContextTimestamps returns the current directory timestamp map.
	ContextTimestamps() map[string]Timestamp
}

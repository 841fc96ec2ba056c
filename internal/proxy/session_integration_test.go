package proxy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/linkwatch/internal/classify"
	lwerrors "github.com/conneroisu/linkwatch/internal/errors"
	"github.com/conneroisu/linkwatch/internal/mirror"
)

// TestSessionMirrorsFromSource runs the full stack on disk: classification
// through the proxy arms a mirror task, and the task propagates source
// content into the watched tree while ignored paths report the sentinel.
func TestSessionMirrorsFromSource(t *testing.T) {
	sourceDir := t.TempDir()
	rootDir := t.TempDir()
	outsideDir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(sourceDir, "lib"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(rootDir, "lib"), 0755))

	sourceFile := filepath.Join(sourceDir, "lib", "x.js")
	localFile := filepath.Join(rootDir, "lib", "x.js")
	outsideFile := filepath.Join(outsideDir, "y.js")
	require.NoError(t, os.WriteFile(sourceFile, []byte("from source"), 0644))
	require.NoError(t, os.WriteFile(localFile, []byte("stale local"), 0644))
	require.NoError(t, os.WriteFile(outsideFile, []byte("elsewhere"), 0644))

	collector := lwerrors.NewCollector()
	mirrors := mirror.NewManager(map[string]string{"pkg-a": sourceDir},
		20*time.Millisecond, collector, nil)
	defer mirrors.Stop()

	classifier := classify.New(
		[]classify.Root{{Name: "pkg-a", Path: rootDir}}, "node_modules", mirrors)

	watcher := NewProxy(NewPollWatcher(nil), classifier, nil)

	req := Request{
		Files:   []string{localFile, outsideFile},
		Dirs:    []string{filepath.Join(rootDir, "lib")},
		Options: Options{DebounceInterval: 30 * time.Millisecond},
	}

	handle, err := watcher.Watch(req, func(Snapshot) {}, nil)
	require.NoError(t, err)
	defer handle.Close()

	// Classifying the candidate files armed exactly one mirror task.
	require.Equal(t, 1, mirrors.TaskCount())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(localFile)
		if err == nil && string(data) == "from source" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	data, err := os.ReadFile(localFile)
	require.NoError(t, err)
	require.Equal(t, "from source", string(data))
	assert.False(t, collector.HasErrors())

	// Ignored paths look present and unchanged; watched paths are observed.
	ts := handle.FileTimestamps()
	assert.Equal(t, SentinelTimestamp, ts[outsideFile])

	info, err := os.Stat(localFile)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime().Unix(), ts[localFile])
}

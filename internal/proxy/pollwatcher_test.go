package proxy

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollWatcherDeliversChangeBatch(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "x.js")
	require.NoError(t, os.WriteFile(file, []byte("v1"), 0644))

	w := NewPollWatcher(nil)

	var mutex sync.Mutex
	var snaps []Snapshot
	onChange := func(snap Snapshot) {
		mutex.Lock()
		snaps = append(snaps, snap)
		mutex.Unlock()
	}

	req := Request{
		Files:   []string{file},
		Dirs:    []string{dir},
		Options: Options{DebounceInterval: 50 * time.Millisecond},
	}

	handle, err := w.Watch(req, onChange, nil)
	require.NoError(t, err)
	defer handle.Close()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(file, []byte("v2"), 0644))

	deadline := time.Now().Add(3 * time.Second)
	for {
		mutex.Lock()
		n := len(snaps)
		mutex.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no change batch delivered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	mutex.Lock()
	snap := snaps[0]
	mutex.Unlock()

	require.NoError(t, snap.Err)
	assert.Contains(t, snap.FilesModified, file)
	assert.Contains(t, snap.FileTimestamps, file)
	assert.Contains(t, snap.DirTimestamps, dir)
}

func TestPollWatcherTimestampAccessors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "x.js")
	require.NoError(t, os.WriteFile(file, []byte("v1"), 0644))

	w := NewPollWatcher(nil)
	handle, err := w.Watch(Request{Files: []string{file}, Dirs: []string{dir}}, func(Snapshot) {}, nil)
	require.NoError(t, err)
	defer handle.Close()

	ts := handle.FileTimestamps()
	require.Contains(t, ts, file)

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime().Unix(), ts[file])

	ctx := handle.ContextTimestamps()
	assert.Contains(t, ctx, dir)

	// Missing paths are left out of the map, read as "file is missing".
	require.NoError(t, os.Remove(file))
	ts = handle.FileTimestamps()
	_, ok := ts[file]
	assert.False(t, ok)
}

func TestPollWatcherPauseSuppressesDelivery(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "x.js")
	require.NoError(t, os.WriteFile(file, []byte("v1"), 0644))

	w := NewPollWatcher(nil)

	var mutex sync.Mutex
	delivered := 0
	onChange := func(Snapshot) {
		mutex.Lock()
		delivered++
		mutex.Unlock()
	}

	req := Request{
		Files:   []string{file},
		Options: Options{DebounceInterval: 30 * time.Millisecond},
	}
	handle, err := w.Watch(req, onChange, nil)
	require.NoError(t, err)
	defer handle.Close()

	handle.Pause()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(file, []byte("v2"), 0644))
	time.Sleep(300 * time.Millisecond)

	mutex.Lock()
	defer mutex.Unlock()
	assert.Zero(t, delivered)
}

func TestPollWatcherCloseIsIdempotent(t *testing.T) {
	w := NewPollWatcher(nil)
	handle, err := w.Watch(Request{Dirs: []string{t.TempDir()}}, func(Snapshot) {}, nil)
	require.NoError(t, err)

	require.NoError(t, handle.Close())
	require.NoError(t, handle.Close())
}

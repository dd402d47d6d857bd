package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/glint/internal/watcher"
)

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(docPath, []byte("test"), 0644))

	w, err := watcher.New(watcher.Config{
		Paths:       []string{docPath},
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")

	// Rapid writes should coalesce into single notification
	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(docPath, []byte(fmt.Sprintf("test%d", i)), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case got := <-onChange:
		assert.Equal(t, docPath, got)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_IgnoresIrrelevantFiles(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "notes.txt")
	otherPath := filepath.Join(dir, "other.txt")
	require.NoError(t, os.WriteFile(docPath, []byte("doc"), 0644))
	require.NoError(t, os.WriteFile(otherPath, []byte("initial"), 0644))

	w, err := watcher.New(watcher.Config{
		Paths:       []string{docPath},
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(otherPath, []byte("other content"), 0644))

	select {
	case <-onChange:
		t.Fatal("should not notify for unrelated files")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_RenameOverTarget(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(docPath, []byte("v1"), 0644))

	w, err := watcher.New(watcher.Config{
		Paths:       []string{docPath},
		DebounceDur: 30 * time.Millisecond,
	})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err)

	tmp := filepath.Join(dir, ".notes.txt.swp")
	require.NoError(t, os.WriteFile(tmp, []byte("v2"), 0644))
	require.NoError(t, os.Rename(tmp, docPath))

	select {
	case got := <-onChange:
		assert.Equal(t, docPath, got)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for atomic save")
	}
}

func TestWatcher_AddAfterStart(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	a := filepath.Join(dirA, "a.txt")
	b := filepath.Join(dirB, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0644))

	w, err := watcher.New(watcher.Config{
		Paths:       []string{a},
		DebounceDur: 30 * time.Millisecond,
	})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err)
	require.NoError(t, w.Add(b))

	require.NoError(t, os.WriteFile(b, []byte("b2"), 0644))

	select {
	case got := <-onChange:
		assert.Equal(t, b, got)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for added file")
	}
}

func TestWatcher_Stop(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(docPath, []byte("test"), 0644))

	w, err := watcher.New(watcher.DefaultConfig(docPath))
	require.NoError(t, err)

	_, err = w.Start()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop(), "Stop returned error")
		assert.NoError(t, w.Stop(), "second Stop should be a no-op")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("/tmp/a.txt", "/tmp/b.txt")

	assert.Equal(t, []string{"/tmp/a.txt", "/tmp/b.txt"}, cfg.Paths)
	assert.Equal(t, 100*time.Millisecond, cfg.DebounceDur)
}

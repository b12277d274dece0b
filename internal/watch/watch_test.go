package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirs(t *testing.T) {
	dirs := Dirs([]string{
		"koans",
		"koans/about_classes.yaml",
		"extra/about_hashes.cue",
		"extra/path_to_enlightenment.yaml",
		"koans/",
	})
	assert.Equal(t, []string{"koans", "extra"}, dirs)
}

func TestIsWatched(t *testing.T) {
	assert.True(t, IsWatched("koans/about_classes.yaml"))
	assert.True(t, IsWatched("koans/about_array_assignment.cue"))
	assert.True(t, IsWatched("koans/path_to_enlightenment.yaml"))
	assert.False(t, IsWatched("koans/.about_classes.yaml.swp"))
	assert.False(t, IsWatched("koans/README.md"))
}

func TestRun_DebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	lessonPath := filepath.Join(dir, "about_classes.yaml")
	require.NoError(t, os.WriteFile(lessonPath, []byte("lesson: about_classes\n"), 0o644))

	changes := make(chan []string, 4)
	w := New([]string{dir}, func(changed []string) { changes <- changed })
	w.Debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(lessonPath, []byte("lesson: about_classes\n# edit\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	select {
	case changed := <-changes:
		assert.Equal(t, []string{lessonPath}, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case changed := <-changes:
		t.Fatalf("unexpected second batch: %v", changed)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRun_MissingDirectory(t *testing.T) {
	w := New([]string{filepath.Join(t.TempDir(), "nope")}, func([]string) {})

	err := w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to watch")
}

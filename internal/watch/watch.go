// Package watch reruns lessons when lesson files change.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/koans/internal/lesson"
)

// DefaultDebounce is how long the watcher waits after the last change
// before firing.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches lesson directories and calls OnChange with the changed
// files once events settle. OnChange runs on the watcher's goroutine, so
// changes that arrive while it runs are batched into the next call.
type Watcher struct {
	Dirs     []string
	OnChange func(changed []string)
	Debounce time.Duration
	Logger   *slog.Logger
}

// New creates a watcher for dirs.
func New(dirs []string, onChange func(changed []string)) *Watcher {
	return &Watcher{
		Dirs:     dirs,
		OnChange: onChange,
		Debounce: DefaultDebounce,
	}
}

// Dirs returns the directories to watch for the given lesson paths:
// directories as given, and the parent directory of each file.
func Dirs(paths []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range paths {
		dir := p
		if IsWatched(p) {
			dir = filepath.Dir(p)
		}
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			out = append(out, dir)
		}
	}
	return out
}

// IsWatched reports whether a change to path should trigger a rerun.
func IsWatched(path string) bool {
	return lesson.IsLessonFile(path) || filepath.Base(path) == lesson.ManifestName
}

// Run blocks until ctx is cancelled or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range w.Dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		logger.Debug("watching", "dir", dir)
	}

	pending := make(map[string]bool)

	// Single debounce timer, stopped until the first event arrives.
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)

			logger.Debug("lessons changed", "files", changed)
			w.OnChange(changed)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if !IsWatched(event.Name) {
				continue
			}
			pending[event.Name] = true

			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

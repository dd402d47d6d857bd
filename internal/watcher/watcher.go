// Package watcher watches a set of files for changes with debouncing.
//
// Directories are watched rather than the files themselves so that editors
// which save by writing a temp file and renaming it over the original keep
// being noticed.
package watcher

import (
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/glint/internal/log"
)

// Watcher monitors files and sends the path of each file that changed.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	onChange  chan string
	done      chan struct{}
	stopOnce  sync.Once

	mu    sync.Mutex
	files map[string]struct{} // cleaned absolute paths
	dirs  map[string]struct{}
}

// Config holds watcher configuration options.
type Config struct {
	Paths       []string
	DebounceDur time.Duration
}

// DefaultConfig returns a config watching paths with a 100ms debounce.
func DefaultConfig(paths ...string) Config {
	return Config{
		Paths:       paths,
		DebounceDur: 100 * time.Millisecond,
	}
}

// New creates a watcher. Nothing is watched until Start.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsw,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan string, max(len(cfg.Paths), 1)*2),
		done:      make(chan struct{}),
		files:     make(map[string]struct{}),
		dirs:      make(map[string]struct{}),
	}
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		w.files[abs] = struct{}{}
	}
	return w, nil
}

// Start begins watching the directories of the configured files.
// Returns a channel that receives the path of each changed file.
func (w *Watcher) Start() (<-chan string, error) {
	w.mu.Lock()
	files := make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	w.mu.Unlock()

	for _, f := range files {
		if err := w.watchDir(filepath.Dir(f)); err != nil {
			return nil, err
		}
	}

	go w.loop()

	return w.onChange, nil
}

// Add starts watching one more file. Safe to call after Start.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	w.mu.Lock()
	w.files[abs] = struct{}{}
	w.mu.Unlock()
	return w.watchDir(filepath.Dir(abs))
}

func (w *Watcher) watchDir(dir string) error {
	w.mu.Lock()
	_, seen := w.dirs[dir]
	w.dirs[dir] = struct{}{}
	w.mu.Unlock()
	if seen {
		return nil
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}
	log.Debug(log.CatWatcher, "watching directory", "dir", dir)
	return nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})
	return err
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending = make(map[string]struct{})
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			path, relevant := w.relevantPath(event)
			if !relevant {
				continue
			}
			pending[path] = struct{}{}

			// Reset or start debounce timer
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			clear(pending)

			for _, p := range paths {
				select {
				case w.onChange <- p:
				default:
					log.Warn(log.CatWatcher, "change dropped; receiver is behind", "path", p)
				}
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "fsnotify error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// relevantPath reports whether event touches a watched file.
func (w *Watcher) relevantPath(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return "", false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return "", false
	}
	w.mu.Lock()
	_, ok := w.files[abs]
	w.mu.Unlock()
	return abs, ok
}

// Package watcher triggers rescans when classfiles or archives on a
// classpath change.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before a
// rescan fires. Builds write many classfiles in bursts.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches classpath elements for changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher

	// dirs are classpath directories, watched recursively. archives are
	// watched through their parent directory.
	dirs     []string
	archives map[string]bool

	debounceDelay time.Duration
	pendingFiles  map[string]struct{}
	pendingMu     sync.Mutex
	debounceTimer *time.Timer
	fire          chan struct{}

	onChange func(ctx context.Context, files []string)
	onError  func(error)
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounceDelay = d
	}
}

// WithOnChange sets the callback run after a burst of changes. It receives
// the changed paths sorted; calls never overlap.
func WithOnChange(fn func(ctx context.Context, files []string)) Option {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback for watch errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// New watches the given classpath elements. Directories are watched
// recursively; archives are watched through their parent directory.
func New(paths []string, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher:     fsWatcher,
		archives:      make(map[string]bool),
		debounceDelay: DefaultDebounce,
		pendingFiles:  make(map[string]struct{}),
		fire:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, p := range paths {
		if err := w.add(p); err != nil {
			fsWatcher.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	if info.IsDir() {
		w.dirs = append(w.dirs, abs)
		return w.addDirs(abs)
	}
	w.archives[abs] = true
	return w.fsWatcher.Add(filepath.Dir(abs))
}

// addDirs recursively adds all directories under root.
func (w *Watcher) addDirs(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// Run delivers change notifications until ctx is done. It returns nil on
// cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			if w.onError != nil {
				w.onError(err)
			}

		case <-w.fire:
			files := w.drain()
			if len(files) > 0 && w.onChange != nil {
				w.onChange(ctx, files)
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.stopTimer()
	return w.fsWatcher.Close()
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// Directories created next to a watched archive are not on the classpath.
	if event.Op&fsnotify.Create != 0 && w.underDir(event.Name) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addDirs(event.Name); err != nil && w.onError != nil {
				w.onError(err)
			}
			// Classfiles written before the watch was added are missed.
			w.queue(event.Name)
			return
		}
	}

	if !w.relevant(event.Name) {
		return
	}
	w.queue(event.Name)
}

// relevant reports whether a changed path can affect a scan.
func (w *Watcher) relevant(path string) bool {
	if w.archives[path] {
		return true
	}
	return strings.HasSuffix(path, ".class") && w.underDir(path)
}

// underDir reports whether path lies inside a watched classpath directory.
func (w *Watcher) underDir(path string) bool {
	for _, dir := range w.dirs {
		if strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) queue(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pendingFiles[path] = struct{}{}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.fire <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) drain() []string {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	files := make([]string, 0, len(w.pendingFiles))
	for f := range w.pendingFiles {
		files = append(files, f)
	}
	w.pendingFiles = make(map[string]struct{})
	slices.Sort(files)
	return files
}

func (w *Watcher) stopTimer() {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
}

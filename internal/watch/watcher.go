// Package watch reports changes to the files an analysis reads, so the
// matrix can be rebuilt while tests are being written.
package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/harrison/tracematrix/internal/fileutil"
)

// Op is the kind of change seen for a file.
type Op int

const (
	// FileCreated indicates a new file was created
	FileCreated Op = iota
	// FileWritten indicates a file was written to
	FileWritten
	// FileRemoved indicates a file was removed or renamed away
	FileRemoved
)

// String returns a human-readable representation of the operation
func (op Op) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileWritten:
		return "written"
	case FileRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is one changed file. Path is absolute.
type Event struct {
	Path string
	Op   Op
}

// DefaultQuietPeriod is how long the watcher waits after the last change
// before it reports a batch.
const DefaultQuietPeriod = 200 * time.Millisecond

// Watcher watches search filter roots and individual files. Changes are
// coalesced into batches that are delivered once no further change has
// arrived for the quiet period.
type Watcher struct {
	watcher *fsnotify.Watcher
	filters []fileutil.FileSearchFilter
	files   map[string]bool

	changes chan []Event
	errors  chan error
	done    chan struct{}

	mu          sync.Mutex
	quietPeriod time.Duration
	pending     map[string]Op
	timer       *time.Timer
	closed      bool
}

// New starts watching every directory the filters would search, plus the
// directories holding files. Filter roots must exist.
func New(filters []fileutil.FileSearchFilter, files ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		watcher:     fw,
		files:       make(map[string]bool, len(files)),
		changes:     make(chan []Event, 1),
		errors:      make(chan error, 10),
		done:        make(chan struct{}),
		quietPeriod: DefaultQuietPeriod,
		pending:     make(map[string]Op),
	}

	for _, f := range filters {
		root, err := filepath.Abs(f.Root)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("resolve %s: %w", f.Root, err)
		}
		f.Root = root
		w.filters = append(w.filters, f)
		if err := w.addTree(f, root); err != nil {
			fw.Close()
			return nil, err
		}
	}

	dirs := make(map[string]bool)
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("resolve %s: %w", file, err)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	go w.processEvents()
	return w, nil
}

// addTree adds dir and the sub-directories f would descend into.
func (w *Watcher) addTree(f fileutil.FileSearchFilter, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			w.reportError(err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != f.Root && !w.descends(f, path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// descends reports whether a search with f enters the directory dir.
func (w *Watcher) descends(f fileutil.FileSearchFilter, dir string) bool {
	rel, err := filepath.Rel(f.Root, dir)
	if err != nil || rel == "." {
		return err == nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	if !f.Recursive {
		return false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if f.MaxDepth > 0 && len(parts) >= f.MaxDepth {
		return false
	}
	for _, name := range parts {
		if !f.IncludeHidden && strings.HasPrefix(name, ".") {
			return false
		}
		for _, ex := range f.ExcludeDirs {
			if name == ex {
				return false
			}
		}
	}
	return true
}

// Matches reports whether a change to path affects the analysis.
func (w *Watcher) Matches(path string) bool {
	if w.files[path] {
		return true
	}
	dir, name := filepath.Split(path)
	dir = filepath.Clean(dir)
	for _, f := range w.filters {
		if !w.descends(f, dir) {
			continue
		}
		if f.Pattern == nil || f.Pattern.Match(name) {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			for _, f := range w.filters {
				if w.descends(f, path) {
					if err := w.addTree(f, path); err != nil {
						w.reportError(err)
					}
				}
			}
			return
		}
	}

	if !w.Matches(path) {
		return
	}

	var op Op
	switch {
	case event.Has(fsnotify.Create):
		op = FileCreated
	case event.Has(fsnotify.Write):
		op = FileWritten
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = FileRemoved
	default:
		return
	}
	w.record(path, op)
}

// record adds a change to the pending batch and restarts the quiet timer.
// A file created and then written within one batch stays "created".
func (w *Watcher) record(path string, op Op) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	if prev, ok := w.pending[path]; !ok || !(prev == FileCreated && op == FileWritten) {
		w.pending[path] = op
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.quietPeriod, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.closed || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := make([]Event, 0, len(w.pending))
	for path, op := range w.pending {
		batch = append(batch, Event{Path: path, Op: op})
	}
	w.pending = make(map[string]Op)
	w.timer = nil
	w.mu.Unlock()

	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	select {
	case w.changes <- batch:
	case <-w.done:
	}
}

func (w *Watcher) reportError(err error) {
	select {
	case w.errors <- err:
	default:
		// Error channel full, drop the error
	}
}

// Changes delivers batches of changed files, sorted by path.
func (w *Watcher) Changes() <-chan []Event {
	return w.changes
}

// Errors delivers non-fatal watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// SetQuietPeriod sets how long changes are coalesced. Call it before
// changes are expected.
func (w *Watcher) SetQuietPeriod(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.quietPeriod = d
}

// Close stops the watcher. Pending changes are discarded.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	return w.watcher.Close()
}

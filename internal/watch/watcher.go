// Package watch reports changes to a set of script files.
package watch

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDelay is how long a burst of events is collected before onChange runs.
const DefaultDelay = 100 * time.Millisecond

// Watcher monitors individual files and invokes a callback after they change.
// The parent directories are watched so editors that replace a file on save
// are still noticed.
type Watcher struct {
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	targets   map[string]bool
	onChange  func([]string) error
	log       *zap.Logger
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// New creates a watcher for files. A non-positive delay selects DefaultDelay.
func New(files []string, delay time.Duration, onChange func([]string) error, log *zap.Logger) (*Watcher, error) {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if log == nil {
		log = zap.NewNop()
	}

	targets := make(map[string]bool, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		targets[abs] = true
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		fsw:       fsw,
		debouncer: NewDebouncer(delay),
		targets:   targets,
		onChange:  onChange,
		log:       log,
		stopChan:  make(chan struct{}),
	}
	w.debouncer.SetCallback(func(changed []string) {
		if err := w.onChange(changed); err != nil {
			w.log.Warn("change handler failed", zap.Error(err))
		}
	})
	return w, nil
}

// Start begins watching in the background.
func (w *Watcher) Start() error {
	for _, dir := range w.directories() {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		w.log.Debug("watching directory", zap.String("dir", dir))
	}

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop ends the watch. It is safe to call more than once.
func (w *Watcher) Stop() error {
	select {
	case <-w.stopChan:
		return nil
	default:
		close(w.stopChan)
	}

	w.wg.Wait()
	w.debouncer.Stop()
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if w.isTarget(event.Name) {
				w.log.Debug("file changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))
				w.debouncer.Add(event.Name)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) isTarget(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return w.targets[abs]
}

func (w *Watcher) directories() []string {
	seen := make(map[string]bool)
	var dirs []string
	for target := range w.targets {
		dir := filepath.Dir(target)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}

// Debouncer collects names and hands them to a callback once no new name
// has arrived for the configured duration.
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	files    map[string]struct{}
	mutex    sync.Mutex
	callback func([]string)
	stopped  bool
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		files:    make(map[string]struct{}),
	}
}

// Add records a change and restarts the quiet period.
func (d *Debouncer) Add(file string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}
	d.files[file] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

// flush passes the accumulated names, sorted, to the callback.
func (d *Debouncer) flush() {
	d.mutex.Lock()
	if len(d.files) == 0 || d.stopped {
		d.mutex.Unlock()
		return
	}
	files := make([]string, 0, len(d.files))
	for file := range d.files {
		files = append(files, file)
	}
	d.files = make(map[string]struct{})
	callback := d.callback
	d.mutex.Unlock()

	sort.Strings(files)
	if callback != nil {
		callback(files)
	}
}

// SetCallback sets the function that receives flushed names.
func (d *Debouncer) SetCallback(callback func([]string)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = callback
}

// Stop discards pending names and disables further flushes.
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.stopped = true
	d.files = make(map[string]struct{})
}

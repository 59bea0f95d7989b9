package datasource

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a burst of writes is reported.
const DefaultDebounce = 100 * time.Millisecond

// Watcher monitors the weekgrid database directory for changes made by this
// or any other process.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dbPath   string
	debounce time.Duration
	onChange chan struct{}
	errs     chan error
	done     chan struct{}
	stop     sync.Once
}

// NewWatcher creates a watcher for the given database path.
// It watches the parent directory to catch WAL checkpoint writes.
func NewWatcher(dbPath string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	watcher := &Watcher{
		watcher:  w,
		dbPath:   dbPath,
		debounce: DefaultDebounce,
		onChange: make(chan struct{}, 1),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}

	go watcher.loop()
	return watcher, nil
}

// Changes returns a channel that receives a signal when the DB changes.
func (w *Watcher) Changes() <-chan struct{} {
	return w.onChange
}

// Errors returns watcher errors. Only the most recent unread error is kept.
// The channel is closed once the watcher stops.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops the watcher. Further calls do nothing.
func (w *Watcher) Close() error {
	var err error
	w.stop.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) relevant(name string) bool {
	base := filepath.Base(name)
	db := filepath.Base(w.dbPath)
	return base == db || base == db+"-wal" || base == db+"-shm"
}

func (w *Watcher) loop() {
	defer close(w.errs)
	var timer *time.Timer
	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case w.onChange <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

package memorial

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DatasetWatcher re-validates a dataset whenever its file changes and
// reports the outcome to a callback. Rapid successive saves are coalesced.
type DatasetWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(*Report, error)
	debounce time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewDatasetWatcher watches the directory holding path, since editors often
// replace files instead of writing them in place.
func NewDatasetWatcher(path string, onChange func(*Report, error)) (*DatasetWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	return &DatasetWatcher{
		path:     abs,
		watcher:  w,
		onChange: onChange,
		debounce: 250 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching in a goroutine.
func (dw *DatasetWatcher) Start() {
	go dw.run()
}

// Stop ends the watch and waits for the goroutine to exit.
func (dw *DatasetWatcher) Stop() {
	dw.stopOnce.Do(func() {
		close(dw.stopCh)
		dw.watcher.Close()
	})
	<-dw.doneCh
}

func (dw *DatasetWatcher) run() {
	defer close(dw.doneCh)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case ev, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != dw.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(dw.debounce)
			} else {
				timer.Reset(dw.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			dw.onChange(ValidateFile(dw.path))
		case _, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
		case <-dw.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

package store

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports external modifications of the settings file so the caller
// can reload scenes without restarting. Editors and atomic saves replace the
// file rather than writing in place, so the parent directory is watched and
// events are filtered by name.
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	changed  chan struct{}
	stopChan chan struct{}
}

// NewWatcher starts watching the settings file at path.
func NewWatcher(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}
	w := &Watcher{
		path:     filepath.Clean(path),
		fsw:      fsw,
		changed:  make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Changed delivers one (coalesced) signal per burst of file modifications.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.stopChan)
	return w.fsw.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case w.changed <- struct{}{}:
			default:
				// A reload is already pending.
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("Settings file watcher error", "error", err)
		}
	}
}

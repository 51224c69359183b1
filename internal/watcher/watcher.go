package watcher

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/jarredhawkins/cblocks/internal/types"
)

// DefaultDebounceMs is used when New is given a non-positive interval
const DefaultDebounceMs = 100

// ChangeHandler is called with batches of changed and removed source paths
type ChangeHandler func(changed, removed []string)

// Watcher monitors C sources under a root directory using fsnotify
type Watcher struct {
	watcher   *fsnotify.Watcher
	rootPath  string
	handler   ChangeHandler
	debouncer *Debouncer
	done      chan struct{}
}

// New creates a new file watcher for the root path
func New(rootPath string, debounceMs int, handler ChangeHandler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounceMs <= 0 {
		debounceMs = DefaultDebounceMs
	}

	w := &Watcher{
		watcher:   fsw,
		rootPath:  rootPath,
		handler:   handler,
		debouncer: NewDebouncer(debounceMs),
		done:      make(chan struct{}),
	}

	return w, nil
}

// Start begins watching for file changes
func (w *Watcher) Start() error {
	err := filepath.WalkDir(w.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}

		if d.IsDir() {
			if path != w.rootPath && types.SkipDir(d.Name()) {
				return filepath.SkipDir
			}

			if err := w.watcher.Add(path); err != nil {
				log.Printf("failed to watch %s: %v", path, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	go w.eventLoop()

	log.Printf("file watcher started for %s", w.rootPath)
	return nil
}

func (w *Watcher) eventLoop() {
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
			log.Printf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	// New directories are watched but never dispatched
	if event.Has(fsnotify.Create) {
		if info, err := os.Lstat(path); err == nil && info.IsDir() {
			if !types.SkipDir(filepath.Base(path)) {
				if err := w.watcher.Add(path); err != nil {
					log.Printf("failed to watch new directory %s: %v", path, err)
				}
			}
			return
		}
	}

	if !types.IsSourceFile(path) {
		return
	}

	w.debouncer.Add(path, event.Op)
	w.debouncer.Flush(func(changed, removed []string) {
		log.Printf("file changes: %d changed, %d removed", len(changed), len(removed))
		w.handler(changed, removed)
	})
}

// Close stops the watcher
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

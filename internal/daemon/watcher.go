// Package daemon applies spooled command files to the remote status
// document.
//
// Local processes that cannot (or should not) talk to the remote store
// directly drop single-command JSON files into a spool directory. The
// daemon watches the directory, applies each file through the update
// engine, deletes it on success, and renames it to *.failed on a fatal
// error so nothing is silently lost.
package daemon

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// SpoolWatcher emits the paths of spool files as they appear. It uses
// fsnotify for cross-platform file system event monitoring.
type SpoolWatcher struct {
	watcher *fsnotify.Watcher
	events  chan string
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	dir     string
}

// NewSpoolWatcher creates a watcher for the given spool directory.
// The watcher must be started with Start() before it emits events.
func NewSpoolWatcher(dir string) (*SpoolWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &SpoolWatcher{
		watcher: watcher,
		events:  make(chan string, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
		dir:     dir,
	}, nil
}

// Start begins watching the spool directory for new command files.
func (sw *SpoolWatcher) Start() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.running {
		return fmt.Errorf("watcher already running")
	}
	if err := sw.watcher.Add(sw.dir); err != nil {
		return fmt.Errorf("failed to watch spool directory %s: %w", sw.dir, err)
	}

	sw.running = true
	sw.wg.Add(1)
	go sw.processEvents()
	return nil
}

// Stop stops watching and cleans up. It blocks until the event loop
// has exited.
func (sw *SpoolWatcher) Stop() error {
	sw.mu.Lock()
	if !sw.running {
		sw.mu.Unlock()
		return nil
	}
	sw.running = false
	sw.mu.Unlock()

	close(sw.done)

	if err := sw.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	sw.wg.Wait()
	close(sw.events)
	close(sw.errors)
	return nil
}

// Events returns the channel of spool file paths. Closed on Stop.
func (sw *SpoolWatcher) Events() <-chan string {
	return sw.events
}

// Errors returns the channel of watcher errors. Closed on Stop.
func (sw *SpoolWatcher) Errors() <-chan error {
	return sw.errors
}

// IsRunning reports whether the watcher is active.
func (sw *SpoolWatcher) IsRunning() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.running
}

func (sw *SpoolWatcher) processEvents() {
	defer sw.wg.Done()

	for {
		select {
		case <-sw.done:
			return

		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if !sw.isSpoolFile(event) {
				continue
			}
			select {
			case sw.events <- event.Name:
			case <-sw.done:
				return
			}

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			select {
			case sw.errors <- err:
			case <-sw.done:
				return
			}
		}
	}
}

// isSpoolFile filters for completed *.json drops. Writers are expected
// to create files atomically (write elsewhere, rename in), so both
// create and write events count; *.failed leftovers are ignored.
func (sw *SpoolWatcher) isSpoolFile(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, ".json") {
		return false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	absDir, _ := filepath.Abs(sw.dir)
	return filepath.Dir(abs) == absDir
}

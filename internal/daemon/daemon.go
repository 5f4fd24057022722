package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/statusdash/statusctl/internal/mutate"
)

// Runner applies a parsed command against the remote document. The CLI
// supplies an implementation wired to the update engine and mirror.
type Runner interface {
	Run(ctx context.Context, cmd mutate.Command) error
}

// Daemon drains a spool directory: existing files on startup, then new
// ones as the watcher reports them. Files are processed one at a time;
// the remote store's optimistic concurrency handles races with other
// writers, so there is nothing to gain from parallelism here.
type Daemon struct {
	spoolDir string
	watcher  *SpoolWatcher
	runner   Runner
	logger   *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	seen   map[string]bool
}

// New creates a daemon for the given spool directory. If logger is nil,
// a default logger writing to stderr is used.
func New(spoolDir string, runner Runner, logger *log.Logger) (*Daemon, error) {
	if spoolDir == "" {
		return nil, fmt.Errorf("spool directory is required")
	}
	if err := os.MkdirAll(spoolDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}

	watcher, err := NewSpoolWatcher(spoolDir)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		spoolDir: spoolDir,
		watcher:  watcher,
		runner:   runner,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		seen:     make(map[string]bool),
	}, nil
}

// Start sweeps files already in the spool, then begins watching.
func (d *Daemon) Start() error {
	if err := d.watcher.Start(); err != nil {
		return err
	}

	// Watch first, sweep second: a file dropped between sweep and
	// watch start would otherwise be missed.
	if err := d.sweep(); err != nil {
		d.logger.Printf("initial sweep failed: %v", err)
	}

	d.wg.Add(1)
	go d.loop()
	return nil
}

// Stop shuts the daemon down and waits for in-flight work.
func (d *Daemon) Stop() error {
	d.cancel()
	err := d.watcher.Stop()
	d.wg.Wait()
	return err
}

// sweep processes any command files already sitting in the spool.
func (d *Daemon) sweep() error {
	entries, err := os.ReadDir(d.spoolDir)
	if err != nil {
		return fmt.Errorf("failed to read spool directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		d.processFile(filepath.Join(d.spoolDir, entry.Name()))
	}
	return nil
}

func (d *Daemon) loop() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case path, ok := <-d.watcher.Events():
			if !ok {
				return
			}
			d.processFile(path)
		case err, ok := <-d.watcher.Errors():
			if !ok {
				return
			}
			d.logger.Printf("watcher error: %v", err)
		}
	}
}

// processFile parses and applies one spool file. Success deletes it;
// any failure renames it to *.failed so the drop is preserved for
// inspection and never reprocessed.
func (d *Daemon) processFile(path string) {
	// A create followed by a write for the same drop emits two
	// events; process each file once.
	d.mu.Lock()
	if d.seen[path] {
		d.mu.Unlock()
		return
	}
	d.seen[path] = true
	d.mu.Unlock()

	if _, err := os.Stat(path); err != nil {
		// Already consumed or never fully written.
		d.forget(path)
		return
	}

	cmd, err := ParseSpoolFile(path)
	if err != nil {
		d.logger.Printf("rejecting %s: %v", filepath.Base(path), err)
		d.markFailed(path)
		return
	}

	if err := d.runner.Run(d.ctx, cmd); err != nil {
		d.logger.Printf("failed to apply %s: %v", filepath.Base(path), err)
		d.markFailed(path)
		return
	}

	if err := os.Remove(path); err != nil {
		d.logger.Printf("failed to remove %s: %v", filepath.Base(path), err)
		return
	}
	d.forget(path)
	d.logger.Printf("applied %s", filepath.Base(path))
}

func (d *Daemon) markFailed(path string) {
	if err := os.Rename(path, path+".failed"); err != nil {
		d.logger.Printf("failed to quarantine %s: %v", filepath.Base(path), err)
	}
	d.forget(path)
}

func (d *Daemon) forget(path string) {
	d.mu.Lock()
	delete(d.seen, path)
	d.mu.Unlock()
}

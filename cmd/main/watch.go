package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// siteWatcher watches a site directory and calls onChange once per burst of
// file events.
type siteWatcher struct {
	fw       *fsnotify.Watcher
	logger   *slog.Logger
	root     string
	ignore   []string
	debounce time.Duration
	onChange func()

	mu    sync.Mutex
	timer *time.Timer
}

// newSiteWatcher watches root recursively. Events inside any of the ignored
// paths (the output directory, the manifest database) are dropped.
func newSiteWatcher(logger *slog.Logger, root string, ignore []string, debounce time.Duration, onChange func()) (*siteWatcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	sw := &siteWatcher{
		logger:   logger,
		root:     absRoot,
		debounce: debounce,
		onChange: onChange,
	}
	for _, p := range ignore {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			sw.ignore = append(sw.ignore, abs)
		}
	}

	sw.fw, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err = sw.addDirsRecursive(absRoot); err != nil {
		_ = sw.fw.Close()
		return nil, err
	}
	return sw, nil
}

// Run handles events until ctx is done, then closes the watcher.
func (sw *siteWatcher) Run(ctx context.Context) {
	defer func() {
		sw.mu.Lock()
		if sw.timer != nil {
			sw.timer.Stop()
		}
		sw.mu.Unlock()
		_ = sw.fw.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sw.fw.Events:
			if !ok {
				return
			}
			sw.handleEvent(ev)
		case err, ok := <-sw.fw.Errors:
			if !ok {
				return
			}
			sw.logger.Warn("Watcher error", "error", err)
		}
	}
}

func (sw *siteWatcher) handleEvent(ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) || sw.ignored(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = sw.addDirsRecursive(ev.Name)
		}
	}
	sw.logger.Debug("File change detected", "path", ev.Name, "op", ev.Op.String())
	sw.trigger()
}

// trigger restarts the debounce timer.
func (sw *siteWatcher) trigger() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.timer != nil {
		sw.timer.Stop()
	}
	sw.timer = time.AfterFunc(sw.debounce, sw.onChange)
}

func (sw *siteWatcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != sw.root && (strings.HasPrefix(d.Name(), ".") || sw.ignored(path)) {
			return filepath.SkipDir
		}
		if err := sw.fw.Add(path); err != nil {
			sw.logger.Warn("Watch add failed", "dir", path, "error", err)
		}
		return nil
	})
}

// ignored reports whether path is one of the ignored paths or inside one.
// SQLite side files of an ignored database are ignored too.
func (sw *siteWatcher) ignored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, p := range sw.ignore {
		if isWithin(abs, p) {
			return true
		}
		for _, suffix := range []string{"-wal", "-shm", "-journal"} {
			if abs == p+suffix {
				return true
			}
		}
	}
	return false
}

// isWithin reports whether path equals dir or lies below it.
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && filepath.IsLocal(rel)
}

// shouldIgnoreEvent returns true for filesystem events that should not trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	// Hidden files, which covers .#lock files and .DS_Store.
	if strings.HasPrefix(base, ".") {
		return true
	}

	// Editor temp/swap files
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchAndRun re-analyzes the tree whenever an analyzable file changes.
// The first pass runs immediately; subsequent passes are debounced.
func watchAndRun(path string, opts *Options, logger *zap.Logger) int {
	runOnce(context.Background(), path, opts, logger)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		printError(fmt.Errorf("failed to start watcher: %w", err), opts.NoColor)
		return 2
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, path); err != nil {
		printError(err, opts.NoColor)
		return 2
	}

	if !opts.Quiet {
		fmt.Printf("\nWatching %s for changes...\n", path)
	}

	// Editors fire bursts of events per save; coalesce them
	var pending <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return 0
			}
			if !isAnalyzableEvent(event) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addWatchDirs(watcher, event.Name)
					continue
				}
			}
			pending = time.After(200 * time.Millisecond)

		case err, ok := <-watcher.Errors:
			if !ok {
				return 0
			}
			logger.Warn("watch error", zap.Error(err))

		case <-pending:
			pending = nil
			if !opts.Quiet {
				fmt.Println()
			}
			runOnce(context.Background(), path, opts, logger)
		}
	}
}

// addWatchDirs registers path and every non-ignored directory below it
func addWatchDirs(watcher *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return watcher.Add(filepath.Dir(path))
	}

	return filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			return nil
		}
		name := fi.Name()
		if p != path && (strings.HasPrefix(name, ".") || name == "node_modules" || name == "dist" || name == "build") {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}

// isAnalyzableEvent filters events down to source-file writes
func isAnalyzableEvent(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	for _, validExt := range validExtensions {
		if ext == validExt {
			return true
		}
	}
	// Directory creations pass through so new trees get watched
	info, err := os.Stat(event.Name)
	return err == nil && info.IsDir()
}

package prism

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jward/prism/internal/syntax"
)

// DefaultDebounce is how long Watch waits after the last change to a file
// before reindexing it.
const DefaultDebounce = 200 * time.Millisecond

// WatchOptions tunes Watch.
type WatchOptions struct {
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// OnReady, if set, is called once every directory is being watched.
	OnReady func()
	// OnIndexed, if set, is called after every reindex with the paths that
	// were reindexed or removed, and the indexing error if any.
	OnIndexed func(paths []string, err error)
}

// Watch keeps the index of root up to date until ctx is done. Rust files
// that are written or created are reindexed; removed or renamed files are
// dropped from the store. Directories skipped by IndexDirectory are not
// watched.
func (e *Engine) Watch(ctx context.Context, root string, opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("prism: watcher: %w", err)
	}
	defer w.Close()

	if err := e.watchTree(w, root); err != nil {
		return err
	}
	e.logger.Info("watching", zap.String("root", root))
	if opts.OnReady != nil {
		opts.OnReady()
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(opts.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if !skipWatchDir(root, ev.Name) {
						if err := e.watchTree(w, ev.Name); err != nil {
							e.logger.Warn("watch new directory", zap.String("dir", ev.Name), zap.Error(err))
						}
					}
					continue
				}
			}
			if _, ok := syntax.LanguageForFile(ev.Name); !ok {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				pending[ev.Name] = time.Now()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn("watcher error", zap.Error(err))

		case now := <-ticker.C:
			var ready []string
			for path, at := range pending {
				if now.Sub(at) >= opts.Debounce {
					ready = append(ready, path)
					delete(pending, path)
				}
			}
			if len(ready) == 0 {
				continue
			}
			sort.Strings(ready)
			err := e.reindexPaths(ctx, ready)
			if err != nil {
				e.logger.Warn("reindex failed", zap.Strings("paths", ready), zap.Error(err))
			}
			if opts.OnIndexed != nil {
				opts.OnIndexed(ready, err)
			}
		}
	}
}

// reindexPaths indexes the paths that still exist and forgets the rest.
func (e *Engine) reindexPaths(ctx context.Context, paths []string) error {
	var present []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			present = append(present, p)
			continue
		}
		f, err := e.store.FileByPath(p)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", p, err)
		}
		if f == nil {
			continue
		}
		if err := e.store.DeleteFile(f.ID); err != nil {
			return fmt.Errorf("remove %s: %w", p, err)
		}
		e.index.Purge()
	}
	if len(present) == 0 {
		return nil
	}
	return e.IndexFiles(ctx, present)
}

func (e *Engine) watchTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && skipWatchDir(dir, path) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("prism: watch %s: %w", path, err)
		}
		return nil
	})
}

func skipWatchDir(root, path string) bool {
	if path == root {
		return false
	}
	name := filepath.Base(path)
	return strings.HasPrefix(name, ".") || skipDirs[name]
}

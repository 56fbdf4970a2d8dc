package app

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"go.trai.ch/kiln/internal/adapters/watcher"
	"go.trai.ch/kiln/internal/core/domain"
)

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	ConfigPath string
	Trace      bool
}

// Watch builds once, then rebuilds whenever a tracked source or the manifest
// changes. Every pass starts from a fresh registry. Watch returns when ctx is done.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	m, err := a.loadManifest(opts.ConfigPath)
	if err != nil {
		return err
	}
	if _, err := a.build(ctx, m, opts.Trace); err != nil {
		return err
	}

	tracked := &trackedPaths{}
	tracked.set(m)

	changes := make(chan []string, 1)
	debouncer := watcher.NewDebouncer(a.debounce, func(paths []string) {
		select {
		case changes <- paths:
		default:
			// A rebuild is already pending and will observe these changes.
		}
	})
	defer debouncer.Stop()

	dirs := watchDirs(m)
	if err := a.startWatcher(ctx, dirs, tracked, debouncer); err != nil {
		return err
	}
	defer func() {
		_ = a.watcher.Stop()
	}()
	a.logger.Info(fmt.Sprintf("watching %d source(s) for changes", len(m.SourcePaths())))

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			a.logger.Info(fmt.Sprintf("%d change(s) detected", len(paths)))

			if slices.Contains(paths, filepath.Clean(m.Path)) {
				next, err := a.configLoader.Load(m.Path)
				if err != nil {
					a.logger.Error(err)
					continue
				}
				m = next
				tracked.set(m)

				if nextDirs := watchDirs(m); !slices.Equal(nextDirs, dirs) {
					dirs = nextDirs
					_ = a.watcher.Stop()
					if err := a.startWatcher(ctx, dirs, tracked, debouncer); err != nil {
						return err
					}
				}
			}

			if _, err := a.build(ctx, m, opts.Trace); err != nil {
				a.logger.Error(err)
			}
		}
	}
}

// startWatcher starts the watcher on dirs and forwards tracked changes to the debouncer.
func (a *App) startWatcher(ctx context.Context, dirs []string, tracked *trackedPaths, d *watcher.Debouncer) error {
	if err := a.watcher.Start(ctx, dirs); err != nil {
		return err
	}

	events := a.watcher.Events()
	go func() {
		for event := range events {
			if tracked.has(event.Path) {
				d.Add(filepath.Clean(event.Path))
			}
		}
	}()
	return nil
}

// watchDirs returns the sorted directories holding the manifest and every source.
func watchDirs(m *domain.Manifest) []string {
	dirs := []string{filepath.Dir(m.Path)}
	for _, p := range m.SourcePaths() {
		dirs = append(dirs, filepath.Dir(p))
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}

// trackedPaths is the set of files whose changes trigger a rebuild.
type trackedPaths struct {
	mu    sync.RWMutex
	paths map[string]struct{}
}

func (t *trackedPaths) set(m *domain.Manifest) {
	paths := make(map[string]struct{}, len(m.Units)+1)
	paths[filepath.Clean(m.Path)] = struct{}{}
	for _, p := range m.SourcePaths() {
		paths[filepath.Clean(p)] = struct{}{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.paths = paths
}

func (t *trackedPaths) has(path string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.paths[filepath.Clean(path)]
	return ok
}

package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/watcher"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestWatcher_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Error(gomock.Any()).AnyTimes()

	w := watcher.NewWatcher(log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.Start(ctx, []string{dir, dir + "/"}))
	defer func() { _ = w.Stop() }()

	got := make(chan ports.WatchEvent, 1)
	go func() {
		for ev := range w.Events() {
			if ev.Path == path {
				got <- ev
				return
			}
		}
	}()

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o600))

	select {
	case ev := <-got:
		assert.Contains(t, []ports.WatchOp{ports.OpWrite, ports.OpCreate}, ev.Operation)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}
}

func TestWatcher_StartMissingDir(t *testing.T) {
	w := watcher.NewWatcher(nil)

	err := w.Start(context.Background(), []string{filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to start file watcher")
}

func TestWatcher_StopBeforeStart(t *testing.T) {
	w := watcher.NewWatcher(nil)
	require.NoError(t, w.Stop())

	for range w.Events() {
		t.Fatal("no events expected")
	}
}

func TestWatcher_StopEndsEvents(t *testing.T) {
	w := watcher.NewWatcher(nil)
	require.NoError(t, w.Start(context.Background(), []string{t.TempDir()}))

	done := make(chan struct{})
	go func() {
		for range w.Events() {
		}
		close(done)
	}()

	require.NoError(t, w.Stop())
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("event stream did not end after Stop")
	}
}

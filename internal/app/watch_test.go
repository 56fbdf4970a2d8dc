package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/cas"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/adapters/mustache"
	"go.trai.ch/kiln/internal/adapters/markdown"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestWatchDirs(t *testing.T) {
	m := &domain.Manifest{
		Path: "/site/kiln.yaml",
		Units: []domain.UnitSpec{
			{Target: "/site/public/a.html", Primary: "/site/src/a.html", Auxiliaries: []domain.NamedPath{{Name: "nav", Path: "/site/src/partials/nav.html"}}},
			{Target: "/site/public/b.html", Primary: "/site/src/b.html"},
		},
	}
	assert.Equal(t, []string{"/site", "/site/src", "/site/src/partials"}, app.WatchDirs(m))
}

func TestApp_Watch(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := newSite(t)

	loader := mocks.NewMockConfigLoader(ctrl)
	loader.EXPECT().Load(s.manifest.Path).Return(s.manifest, nil)

	events := make(chan ports.WatchEvent)
	t.Cleanup(func() { close(events) })

	w := mocks.NewMockWatcher(ctrl)
	w.EXPECT().Start(gomock.Any(), []string{s.root, filepath.Join(s.root, "src")}).Return(nil)
	w.EXPECT().Events().Return(func(yield func(ports.WatchEvent) bool) {
		for e := range events {
			if !yield(e) {
				return
			}
		}
	})
	w.EXPECT().Stop().Return(nil)

	renderers := map[domain.RendererKind]ports.Renderer{
		domain.RendererTemplate: mustache.New(),
		domain.RendererMarkdown: markdown.New(),
	}
	a := app.New(loader, fs.NewFileSystem(), quietLogger(ctrl), cas.NewStore(), fs.NewHasher(), w, renderers).
		WithDebounceWindow(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, app.WatchOptions{ConfigPath: s.manifest.Path})
	}()

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(s.page)
		return err == nil && string(data) == "<title>Home</title><nav>home</nav>"
	}, 5*time.Second, 5*time.Millisecond)

	nav := s.manifest.Units[0].Auxiliaries[0].Path
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.WriteFile(nav, []byte("<nav>blog</nav>"), 0o600))
	require.NoError(t, os.Chtimes(nav, future, future))

	// Untracked files are ignored; the tracked change triggers one rebuild.
	events <- ports.WatchEvent{Path: filepath.Join(s.root, "src", "notes.txt"), Operation: ports.OpWrite}
	events <- ports.WatchEvent{Path: nav, Operation: ports.OpWrite}

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(s.page)
		return err == nil && string(data) == "<title>Home</title><nav>blog</nav>"
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}

func TestApp_Watch_StartFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := newSite(t)

	loader := mocks.NewMockConfigLoader(ctrl)
	loader.EXPECT().Load(s.manifest.Path).Return(s.manifest, nil)

	w := mocks.NewMockWatcher(ctrl)
	w.EXPECT().Start(gomock.Any(), gomock.Any()).Return(domain.ErrWatchFailed)

	a := app.New(loader, fs.NewFileSystem(), quietLogger(ctrl), cas.NewStore(), fs.NewHasher(), w,
		map[domain.RendererKind]ports.Renderer{
			domain.RendererTemplate: mustache.New(),
			domain.RendererMarkdown: markdown.New(),
		})

	err := a.Watch(context.Background(), app.WatchOptions{ConfigPath: s.manifest.Path})
	require.ErrorIs(t, err, domain.ErrWatchFailed)
	assert.FileExists(t, s.page)
}

package scheduler_test

import (
	"context"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/graph"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type schedulerTestMocks struct {
	fs       *mocks.MockFileSystem
	store    *mocks.MockBuildRecordStore
	hasher   *mocks.MockHasher
	tracer   *mocks.MockTracer
	logger   *mocks.MockLogger
	renderer *mocks.MockRenderer
	registry *graph.Registry
}

// setupSchedulerTest creates a scheduler and common mocks.
func setupSchedulerTest(t *testing.T) (*scheduler.Scheduler, schedulerTestMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := schedulerTestMocks{
		fs:       mocks.NewMockFileSystem(ctrl),
		store:    mocks.NewMockBuildRecordStore(ctrl),
		hasher:   mocks.NewMockHasher(ctrl),
		tracer:   mocks.NewMockTracer(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		renderer: mocks.NewMockRenderer(ctrl),
	}
	m.registry = graph.NewRegistry(m.fs, m.logger)

	// Default optimistic mocks to reduce noise in specific tests.
	mockSpan := mocks.NewMockSpan(ctrl)
	mockSpan.EXPECT().End().AnyTimes()
	mockSpan.EXPECT().RecordError(gomock.Any()).AnyTimes()
	mockSpan.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()

	// Start has variadic signature: Start(ctx, name, ...opts).
	m.tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, mockSpan
		},
	).AnyTimes()
	m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any()).AnyTimes()
	m.hasher.EXPECT().Digest(gomock.Any()).Return("digest").AnyTimes()
	m.logger.EXPECT().Info(gomock.Any()).AnyTimes()

	s := scheduler.NewScheduler(m.store, m.hasher, m.tracer, m.logger)
	return s, m
}

func at(sec int64) time.Time {
	return time.Unix(sec, 0)
}

// file expects exactly one stat and, when content is non-nil, at most one read.
func (m schedulerTestMocks) file(path string, mtime time.Time, content string) {
	m.fs.EXPECT().ModTime(gomock.Any(), path).Return(mtime, nil).Times(1)
	if content != "" {
		m.fs.EXPECT().ReadFile(gomock.Any(), path).Return([]byte(content), nil).MaxTimes(1)
	}
}

func (m schedulerTestMocks) missing(path string) {
	m.fs.EXPECT().ModTime(gomock.Any(), path).Return(time.Time{}, fs.ErrNotExist).Times(1)
}

func (m schedulerTestMocks) unit(t *testing.T, target, primary string, aux ...domain.NamedPath) *graph.Unit {
	t.Helper()
	u, err := m.registry.Unit(domain.UnitSpec{
		Target:      target,
		Renderer:    domain.RendererTemplate,
		Primary:     primary,
		Auxiliaries: aux,
	}, m.renderer)
	require.NoError(t, err)
	return u
}

// concat renders the primary followed by every auxiliary, sorted by name.
func concat(_ context.Context, _ string, primary ports.Source, aux map[string]ports.Source, _ domain.RenderOptions) ([]byte, error) {
	out, err := primary.Content()
	if err != nil {
		return nil, err
	}
	if p, ok := aux["partial"]; ok {
		c, err := p.Content()
		if err != nil {
			return nil, err
		}
		out += "+" + c
	}
	return []byte(out), nil
}

func TestScheduler_MissingArtifactBuilds(t *testing.T) {
	s, m := setupSchedulerTest(t)
	m.missing("/out/index.html")
	m.file("/src/page.html", at(10), "page")
	m.file("/src/_partial.html", at(5), "partial")

	m.renderer.EXPECT().Render(gomock.Any(), "/out/index.html", gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(concat).Times(1)
	m.fs.EXPECT().WriteFile(gomock.Any(), "/out/index.html", []byte("page+partial")).Return(nil).Times(1)
	m.store.EXPECT().Put("/root", gomock.Any()).DoAndReturn(func(_ string, rec domain.BuildRecord) error {
		assert.Equal(t, "/out/index.html", rec.Target)
		assert.Equal(t, domain.RendererTemplate, rec.Renderer)
		assert.Equal(t, []string{"/src/page.html", "/src/_partial.html"}, rec.Sources)
		assert.Equal(t, "digest", rec.OutputDigest)
		assert.Equal(t, len("page+partial"), rec.Bytes)
		return nil
	})

	u := m.unit(t, "/out/index.html", "/src/page.html", domain.NamedPath{Name: "partial", Path: "/src/_partial.html"})

	report, err := s.Run(context.Background(), []*graph.Unit{u}, scheduler.WithRecordRoot("/root"))
	require.NoError(t, err)
	require.Len(t, report.Units, 1)
	assert.Equal(t, domain.StateDone, report.Units[0].State)
	assert.Equal(t, "artifact missing", report.Units[0].Reason)
	require.NoError(t, report.Err())
}

func TestScheduler_FreshArtifactIsNotRebuilt(t *testing.T) {
	s, m := setupSchedulerTest(t)
	m.file("/out/index.html", at(20), "")
	m.file("/src/page.html", at(10), "")
	m.file("/src/_partial.html", at(5), "")

	// No Render, ReadFile or WriteFile expectations: any call fails the test.
	u := m.unit(t, "/out/index.html", "/src/page.html", domain.NamedPath{Name: "partial", Path: "/src/_partial.html"})

	report, err := s.Run(context.Background(), []*graph.Unit{u})
	require.NoError(t, err)
	assert.Equal(t, domain.StateCurrent, report.Units[0].State)
	assert.Equal(t, 1, report.Count(domain.StateCurrent))
	assert.Empty(t, report.Outdated())
}

func TestScheduler_NewerAuxiliaryAloneTriggersBuild(t *testing.T) {
	s, m := setupSchedulerTest(t)
	m.file("/out/index.html", at(20), "")
	m.file("/src/page.html", at(10), "page")
	m.file("/src/_partial.html", at(25), "partial v2")

	m.renderer.EXPECT().Render(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(concat).Times(1)
	m.fs.EXPECT().WriteFile(gomock.Any(), "/out/index.html", []byte("page+partial v2")).Return(nil)

	u := m.unit(t, "/out/index.html", "/src/page.html", domain.NamedPath{Name: "partial", Path: "/src/_partial.html"})

	report, err := s.Run(context.Background(), []*graph.Unit{u})
	require.NoError(t, err)
	assert.Equal(t, domain.StateDone, report.Units[0].State)
	assert.Equal(t, "newer source /src/_partial.html", report.Units[0].Reason)
}

func TestScheduler_UnreadableSourceIsIsolated(t *testing.T) {
	s, m := setupSchedulerTest(t)
	m.missing("/out/broken.html")
	m.fs.EXPECT().ModTime(gomock.Any(), "/src/deleted.html").Return(time.Time{}, fs.ErrNotExist).Times(1)
	m.missing("/out/healthy.html")
	m.file("/src/healthy.html", at(10), "healthy")

	m.logger.EXPECT().Error(gomock.Any()).Times(1)
	m.renderer.EXPECT().Render(gomock.Any(), "/out/healthy.html", gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(concat).Times(1)
	m.fs.EXPECT().WriteFile(gomock.Any(), "/out/healthy.html", []byte("healthy")).Return(nil)

	broken := m.unit(t, "/out/broken.html", "/src/deleted.html")
	healthy := m.unit(t, "/out/healthy.html", "/src/healthy.html")

	report, err := s.Run(context.Background(), []*graph.Unit{broken, healthy})
	require.NoError(t, err)

	assert.Equal(t, domain.StateSkipped, report.Units[0].State)
	require.ErrorContains(t, report.Units[0].Err, domain.ErrSourceUnreadable.Error())
	assert.Equal(t, domain.StateDone, report.Units[1].State)
	require.NoError(t, report.Units[1].Err)

	err = report.Err()
	require.ErrorContains(t, err, domain.ErrBuildFailed.Error())
}

func TestScheduler_LoadFailureDoesNotBlockOtherUnits(t *testing.T) {
	s, m := setupSchedulerTest(t)
	m.missing("/out/a.html")
	m.file("/src/a.html", at(10), "")
	release := make(chan struct{})
	m.fs.EXPECT().ReadFile(gomock.Any(), "/src/a.html").DoAndReturn(func(context.Context, string) ([]byte, error) {
		<-release
		return nil, fs.ErrPermission
	})
	m.missing("/out/b.html")
	m.file("/src/b.html", at(10), "b")

	m.logger.EXPECT().Error(gomock.Any()).Times(1)
	m.renderer.EXPECT().Render(gomock.Any(), "/out/b.html", gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(concat)
	// B completes while A's read is still blocked.
	m.fs.EXPECT().WriteFile(gomock.Any(), "/out/b.html", []byte("b")).DoAndReturn(func(context.Context, string, []byte) error {
		close(release)
		return nil
	})

	a := m.unit(t, "/out/a.html", "/src/a.html")
	b := m.unit(t, "/out/b.html", "/src/b.html")

	report, err := s.Run(context.Background(), []*graph.Unit{a, b})
	require.NoError(t, err)
	assert.Equal(t, domain.StateSkipped, report.Units[0].State)
	assert.Equal(t, domain.StateDone, report.Units[1].State)
}

func TestScheduler_SharedPartialLoadedOnce(t *testing.T) {
	s, m := setupSchedulerTest(t)
	m.missing("/out/a.html")
	m.missing("/out/b.html")
	m.file("/src/a.html", at(10), "a")
	m.file("/src/b.html", at(10), "b")
	m.file("/src/_partial.html", at(5), "shared")

	var mu sync.Mutex
	seen := map[string]string{}
	m.renderer.EXPECT().Render(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, out string, _ ports.Source, aux map[string]ports.Source, _ domain.RenderOptions) ([]byte, error) {
			c, err := aux["partial"].Content()
			require.NoError(t, err)
			mu.Lock()
			seen[out] = c
			mu.Unlock()
			return []byte(c), nil
		}).Times(2)
	m.fs.EXPECT().WriteFile(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)

	partial := domain.NamedPath{Name: "partial", Path: "/src/_partial.html"}
	a := m.unit(t, "/out/a.html", "/src/a.html", partial)
	b := m.unit(t, "/out/b.html", "/src/b.html", partial)

	report, err := s.Run(context.Background(), []*graph.Unit{a, b})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count(domain.StateDone))
	assert.Equal(t, map[string]string{"/out/a.html": "shared", "/out/b.html": "shared"}, seen)
}

func TestScheduler_SecondRunPerformsNoWrites(t *testing.T) {
	s, m := setupSchedulerTest(t)
	// One stat per asset per run; no reads, renders or writes at all.
	m.fs.EXPECT().ModTime(gomock.Any(), "/out/site.css").Return(at(30), nil).Times(2)
	m.fs.EXPECT().ModTime(gomock.Any(), "/src/site.scss").Return(at(10), nil).Times(2)
	m.fs.EXPECT().ModTime(gomock.Any(), "/src/_vars.scss").Return(at(20), nil).Times(2)

	for range 2 {
		// A fresh registry per run, as the application does.
		reg := graph.NewRegistry(m.fs, m.logger)
		u, err := reg.Unit(domain.UnitSpec{
			Target:      "/out/site.css",
			Primary:     "/src/site.scss",
			Auxiliaries: []domain.NamedPath{{Name: "vars", Path: "/src/_vars.scss"}},
		}, m.renderer)
		require.NoError(t, err)

		report, err := s.Run(context.Background(), []*graph.Unit{u})
		require.NoError(t, err)
		assert.Equal(t, domain.StateCurrent, report.Units[0].State)
	}
}

func TestScheduler_Plan(t *testing.T) {
	s, m := setupSchedulerTest(t)
	m.missing("/out/a.html")
	m.file("/src/a.html", at(10), "")
	m.file("/out/b.html", at(20), "")
	m.file("/src/b.html", at(10), "")

	a := m.unit(t, "/out/a.html", "/src/a.html")
	b := m.unit(t, "/out/b.html", "/src/b.html")

	report, err := s.Plan(context.Background(), []*graph.Unit{a, b})
	require.NoError(t, err)
	assert.Equal(t, domain.StateOutdated, report.Units[0].State)
	assert.Equal(t, "artifact missing", report.Units[0].Reason)
	assert.Equal(t, domain.StateCurrent, report.Units[1].State)
	require.Len(t, report.Outdated(), 1)
}

func TestScheduler_StoreFailureIsNotFatal(t *testing.T) {
	s, m := setupSchedulerTest(t)
	m.missing("/out/a.html")
	m.file("/src/a.html", at(10), "a")
	m.renderer.EXPECT().Render(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(concat)
	m.fs.EXPECT().WriteFile(gomock.Any(), "/out/a.html", gomock.Any()).Return(nil)
	m.store.EXPECT().Put("/root", gomock.Any()).Return(domain.ErrStoreWriteFailed)
	m.logger.EXPECT().Warn(gomock.Any()).Times(1)

	u := m.unit(t, "/out/a.html", "/src/a.html")

	report, err := s.Run(context.Background(), []*graph.Unit{u}, scheduler.WithRecordRoot("/root"))
	require.NoError(t, err)
	assert.Equal(t, domain.StateDone, report.Units[0].State)
	require.NoError(t, report.Err())
}

func TestScheduler_ValidationFailsBeforeIO(t *testing.T) {
	s, m := setupSchedulerTest(t)

	dupA := m.unit(t, "/out/a.html", "/src/a.html")
	otherReg := graph.NewRegistry(m.fs, m.logger)
	dupB, err := otherReg.Unit(domain.UnitSpec{Target: "/out/a.html", Primary: "/src/b.html"}, m.renderer)
	require.NoError(t, err)

	chained, err := otherReg.Unit(domain.UnitSpec{Target: "/out/c.html", Primary: "/src/c.html"}, m.renderer)
	require.NoError(t, err)
	consumer, err := graph.NewUnit(
		mustGenerated(t, otherReg, "/out/d.html"),
		mustSource(t, graph.NewRegistry(m.fs, m.logger), "/out/c.html"),
		nil, m.renderer, domain.RenderOptions{},
	)
	require.NoError(t, err)

	shadow := m.unit(t, "/out/e.html", "/src/c.html")

	tests := []struct {
		name    string
		units   []*graph.Unit
		wantErr error
	}{
		{name: "nil unit", units: []*graph.Unit{nil}, wantErr: domain.ErrInvalidUnit},
		{name: "zero unit", units: []*graph.Unit{dupA, {}}, wantErr: domain.ErrInvalidUnit},
		{name: "duplicate target", units: []*graph.Unit{dupA, dupB}, wantErr: domain.ErrDuplicateTarget},
		{name: "generated used as source", units: []*graph.Unit{chained, consumer}, wantErr: domain.ErrGeneratedAsSource},
		{name: "two assets for one path", units: []*graph.Unit{chained, shadow}, wantErr: domain.ErrDuplicateAsset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No filesystem expectations: validation must fail before any stat.
			report, err := s.Run(context.Background(), tt.units)
			require.ErrorContains(t, err, tt.wantErr.Error())
			assert.Nil(t, report)
		})
	}
}

func TestScheduler_CancelledContext(t *testing.T) {
	s, m := setupSchedulerTest(t)
	u := m.unit(t, "/out/a.html", "/src/a.html")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx, []*graph.Unit{u})
	require.ErrorIs(t, err, context.Canceled)
}

func mustGenerated(t *testing.T, r *graph.Registry, path string) *graph.Asset {
	t.Helper()
	a, err := r.Generated(path)
	require.NoError(t, err)
	return a
}

func mustSource(t *testing.T, r *graph.Registry, path string) *graph.Asset {
	t.Helper()
	a, err := r.Source(path)
	require.NoError(t, err)
	return a
}

package linear_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/linear"
)

func newTestProgress(t *testing.T) (*linear.Progress, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	return linear.NewProgress(buf), buf
}

func TestProgress_Lifecycle(t *testing.T) {
	p, buf := newTestProgress(t)
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	p.OnPlanEmit([]string{"public/index.html", "public/site.css"})
	p.OnUnitStart("span1", "public/index.html", start)
	p.OnUnitStart("span2", "public/site.css", start)
	p.OnUnitComplete("span1", start.Add(12*time.Millisecond), nil)
	p.OnUnitComplete("span2", start.Add(3*time.Millisecond), errors.New("stylesheet import not found"))
	require.NoError(t, p.Flush())

	want := "Planning to evaluate 2 unit(s)\n" +
		"[public/index.html] evaluating\n" +
		"[public/site.css] evaluating\n" +
		"[public/index.html] ✓ finished in 12ms\n" +
		"[public/site.css] ✗ failed after 3ms: stylesheet import not found\n"
	assert.Equal(t, want, buf.String())
}

func TestProgress_UnknownSpanIgnored(t *testing.T) {
	p, buf := newTestProgress(t)

	p.OnUnitComplete("nope", time.Now(), nil)
	assert.Empty(t, buf.String())
}

func TestProgress_FlushReportsInFlight(t *testing.T) {
	p, buf := newTestProgress(t)
	now := time.Now()

	p.OnUnitStart("s2", "b.html", now)
	p.OnUnitStart("s1", "a.html", now)
	buf.Reset()

	require.NoError(t, p.Flush())
	assert.Equal(t, "[a.html] interrupted\n[b.html] interrupted\n", buf.String())

	buf.Reset()
	require.NoError(t, p.Flush())
	assert.Empty(t, buf.String())
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/kiln/internal/ui/style"
	"go.trai.ch/zerr"
)

// PlanOptions configuration for the Plan method.
type PlanOptions struct {
	ConfigPath string
}

// Plan reports which artifacts a build would regenerate, and why, without
// loading or rendering anything.
func (a *App) Plan(ctx context.Context, opts PlanOptions) (*scheduler.Report, error) {
	m, err := a.loadManifest(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	report, err := a.plan(ctx, m)
	if err != nil {
		return nil, err
	}

	t := newTable("TARGET", "RENDERER", "STATE", "REASON")
	for _, res := range report.Units {
		reason := res.Reason
		if res.Err != nil {
			reason = res.Err.Error()
		}
		t.Row(relPath(m.Root, res.Target), string(res.Kind), res.State.String(), reason)
	}

	_, _ = fmt.Fprintln(a.out, t.Render())
	_, _ = fmt.Fprintf(a.out, "%d of %d unit(s) outdated\n", len(report.Outdated()), len(report.Units))
	return report, nil
}

func (a *App) plan(ctx context.Context, m *domain.Manifest) (*scheduler.Report, error) {
	units, err := a.units(m)
	if err != nil {
		return nil, err
	}
	tracer, shutdown := a.tracer(false)
	defer func() {
		_ = shutdown(context.WithoutCancel(ctx))
	}()
	return scheduler.NewScheduler(a.store, a.hasher, tracer, a.logger).Plan(ctx, units)
}

// ArtifactState compares a generated file on disk with its last build record.
type ArtifactState uint8

const (
	// ArtifactMissing means the generated file does not exist.
	ArtifactMissing ArtifactState = iota
	// ArtifactUnrecorded means the file exists but kiln has no build record for it.
	ArtifactUnrecorded
	// ArtifactMatches means the file content matches the recorded digest.
	ArtifactMatches
	// ArtifactModified means the file changed after kiln generated it.
	ArtifactModified
)

// String returns a short description of the state.
func (s ArtifactState) String() string {
	switch s {
	case ArtifactMissing:
		return "missing"
	case ArtifactUnrecorded:
		return "no record"
	case ArtifactMatches:
		return "matches record"
	case ArtifactModified:
		return "modified since build"
	default:
		return "unknown"
	}
}

// StatusEntry describes one unit in a status report.
type StatusEntry struct {
	Target   string
	State    domain.UnitState
	Reason   string
	Record   *domain.BuildRecord
	Artifact ArtifactState
}

// StatusOptions configuration for the Status method.
type StatusOptions struct {
	ConfigPath string
}

// Status reports, per unit, whether it is current, when it was last built and
// whether the file on disk still matches what kiln wrote.
func (a *App) Status(ctx context.Context, opts StatusOptions) ([]StatusEntry, error) {
	m, err := a.loadManifest(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	report, err := a.plan(ctx, m)
	if err != nil {
		return nil, err
	}

	entries := make([]StatusEntry, 0, len(report.Units))
	for _, res := range report.Units {
		entry, err := a.status(m.Root, res)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	t := newTable("TARGET", "STATE", "LAST BUILT", "ARTIFACT")
	for _, e := range entries {
		built := "never"
		if e.Record != nil {
			built = e.Record.BuiltAt.Local().Format(time.DateTime)
		}
		t.Row(relPath(m.Root, e.Target), e.State.String(), built, e.Artifact.String())
	}
	_, _ = fmt.Fprintln(a.out, t.Render())

	return entries, nil
}

func (a *App) status(root string, res scheduler.UnitResult) (StatusEntry, error) {
	entry := StatusEntry{
		Target: res.Target,
		State:  res.State,
		Reason: res.Reason,
	}

	rec, err := a.store.Get(root, res.Target)
	if err != nil {
		return StatusEntry{}, err
	}
	entry.Record = rec

	digest, err := a.hasher.ComputeFileDigest(res.Target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		entry.Artifact = ArtifactMissing
	case err != nil:
		return StatusEntry{}, zerr.With(err, "target", res.Target)
	case rec == nil:
		entry.Artifact = ArtifactUnrecorded
	case rec.OutputDigest == digest:
		entry.Artifact = ArtifactMatches
	default:
		entry.Artifact = ArtifactModified
	}
	return entry, nil
}

func newTable(headers ...string) *table.Table {
	header := lipgloss.NewStyle().Bold(true).Foreground(style.Ember).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(style.Ash)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}

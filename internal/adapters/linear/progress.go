// Package linear provides a line-oriented progress printer for kiln build --trace.
package linear

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

var _ ports.Progress = (*Progress)(nil)

// Progress prints one line when a unit starts and one when it completes.
type Progress struct {
	output *termenv.Output

	mu    sync.Mutex
	units map[string]unitState // spanID -> unit
}

type unitState struct {
	name      string
	startTime time.Time
}

// NewProgress creates a Progress writing to w. A nil w writes to os.Stderr.
func NewProgress(w io.Writer) *Progress {
	return &Progress{
		output: output.NewWithProfile(w, output.ColorProfileANSI),
		units:  make(map[string]unitState),
	}
}

// OnPlanEmit prints how many units are about to be evaluated.
func (p *Progress) OnPlanEmit(targets []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.printf("Planning to evaluate %d unit(s)\n", len(targets))
}

// OnUnitStart prints a start line for the unit.
func (p *Progress) OnUnitStart(spanID, name string, startTime time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.units[spanID] = unitState{name: name, startTime: startTime}
	p.printf("%s evaluating\n", p.prefix(name))
}

// OnUnitComplete prints the outcome and duration of the unit.
func (p *Progress) OnUnitComplete(spanID string, endTime time.Time, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	unit, ok := p.units[spanID]
	if !ok {
		return
	}
	delete(p.units, spanID)

	duration := endTime.Sub(unit.startTime).Round(time.Millisecond)
	if err != nil {
		symbol := p.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		p.printf("%s %s failed after %v: %v\n", p.prefix(unit.name), symbol, duration, err)
		return
	}

	symbol := p.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
	p.printf("%s %s finished in %v\n", p.prefix(unit.name), symbol, duration)
}

// Flush reports units that started but never completed, in name order.
func (p *Progress) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, 0, len(p.units))
	for _, unit := range p.units {
		names = append(names, unit.name)
	}
	clear(p.units)
	slices.Sort(names)

	for _, name := range names {
		p.printf("%s interrupted\n", p.prefix(name))
	}
	return nil
}

func (p *Progress) prefix(name string) string {
	return p.output.String("[" + name + "]").Faint().String()
}

// printf must be called with p.mu held.
func (p *Progress) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.output, format, args...)
}

// Package report implements a hierarchical reporter: it consumes an
// ordered event stream from the Runner and renders indented, per-node
// timings with aggregate pass/fail counts, written as one plain text
// line per event, indented by depth.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/saltyorg/sam/internal/registry"
)

// EventKind distinguishes the four event shapes the Runner emits.
type EventKind int

const (
	GroupStart EventKind = iota
	GroupEnd
	CaseEnd
	LogEvent
)

// Event is one entry of the Runner's event stream.
type Event struct {
	Kind     EventKind
	Name     string
	Depth    int
	Outcome  registry.Outcome
	Message  string
	Location string
	Elapsed  time.Duration
	Counts   registry.Counts
}

// Reporter renders an Event stream to w, indenting by depth and
// tracking the run's total aggregate.
type Reporter struct {
	w      io.Writer
	totals registry.Counts
	start  time.Time
}

// New creates a Reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w, start: timeNow()}
}

// timeNow is a seam so tests can freeze the reporter's start time;
// production code always calls the real clock.
var timeNow = time.Now

// Handle renders one event and folds CaseEnd outcomes into the running
// total.
func (r *Reporter) Handle(ev Event) {
	indent := strings.Repeat("  ", ev.Depth)

	switch ev.Kind {
	case GroupStart:
		fmt.Fprintf(r.w, "%sdescribe %s\n", indent, ev.Name)

	case GroupEnd:
		// ev.Counts is this group's own aggregate, already folded up
		// from its children by the Runner; the Reporter's running
		// r.totals is accumulated independently from individual
		// CaseEnd events below, so it is not merged again here.
		fmt.Fprintf(r.w, "%s%s (%d passed, %d failed, %d errored, %d skipped) [%s]\n",
			indent, ev.Name, ev.Counts.Passed, ev.Counts.Failed, ev.Counts.Errored, ev.Counts.Skipped,
			FormatDuration(ev.Elapsed))

	case CaseEnd:
		fmt.Fprintf(r.w, "%s%s %s [%s]\n", indent, symbolFor(ev.Outcome), ev.Name, FormatDuration(ev.Elapsed))
		if ev.Outcome == registry.Fail || ev.Outcome == registry.Errored {
			fmt.Fprintf(r.w, "%s  %s (%s)\n", indent, ev.Message, ev.Location)
		}
		r.totals.Add(ev.Outcome)

	case LogEvent:
		fmt.Fprintf(r.w, "%s# %s (%s)\n", indent, ev.Message, ev.Location)
	}
}

func symbolFor(o registry.Outcome) string {
	switch o {
	case registry.Pass:
		return "PASS"
	case registry.Fail:
		return "FAIL"
	case registry.Skipped:
		return "SKIP"
	case registry.Errored:
		return "ERROR"
	default:
		return "?"
	}
}

// Finish writes the final summary line and returns the process exit
// code: 0 iff aggregate failed+errored is 0.
func (r *Reporter) Finish() int {
	fmt.Fprintf(r.w, "Run completed in %s\n", FormatDuration(time.Since(r.start)))
	fmt.Fprintf(r.w, "%d passed, %d failed, %d errored, %d skipped\n",
		r.totals.Passed, r.totals.Failed, r.totals.Errored, r.totals.Skipped)

	if r.totals.FailedOrErrored() > 0 {
		return 1
	}
	return 0
}

// Totals returns a snapshot of the aggregate counts seen so far.
func (r *Reporter) Totals() registry.Counts { return r.totals }

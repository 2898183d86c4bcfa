package runner

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/saltyorg/sam/internal/environment"
	"github.com/saltyorg/sam/internal/registry"
	"github.com/saltyorg/sam/internal/report"
	"github.com/saltyorg/sam/pkg/logger"
)

// Options controls one Run: repetition, inter-repeat delay, and reset
// semantics.
type Options struct {
	Repeat    int
	Delay     time.Duration
	ResetOnce bool
	Force     bool
}

// Runner walks a selected test node tree, applying repeat/delay/reset
// semantics and emitting events to a Reporter. It also
// owns the worker pool backing spawn_task, shared by every script
// evaluated in the run.
type Runner struct {
	manager  *environment.Manager
	reporter *report.Reporter
	logger   *logger.Logger
	pool     *Pool

	cancelled atomic.Bool
}

// New creates a Runner. Reporter must already be constructed (one per
// run); Pool is shared across every Bridge loaded for the run.
func New(manager *environment.Manager, rep *report.Reporter, log *logger.Logger) *Runner {
	return &Runner{
		manager:  manager,
		reporter: rep,
		logger:   log,
		pool:     NewPool(),
	}
}

// Pool returns the worker pool, to be injected into each Bridge as its
// script.TaskPool.
func (r *Runner) Pool() *Pool { return r.pool }

// Cancel sets the cancellation flag; the Runner checks it at Group
// boundaries.
func (r *Runner) Cancel() { r.cancelled.Store(true) }

// Shutdown drains the worker pool; call once after the last Run.
func (r *Runner) Shutdown(timeout time.Duration) bool {
	return r.pool.Shutdown(timeout)
}

// Run executes root repeat times, applying the reset/delay semantics
// between iterations.
func (r *Runner) Run(ctx context.Context, root *registry.Group, opts Options) error {
	for iter := 0; iter < opts.Repeat; iter++ {
		if r.shouldReset(iter, opts) {
			if err := r.manager.ResetEnvironment(ctx, opts.Force); err != nil {
				return err
			}
		}
		if iter > 0 && opts.Delay > 0 {
			time.Sleep(opts.Delay)
		}

		r.runChildren(ctx, root.Children, 0)
		r.emitPruned(root.PrunedNames, 0)

		if r.cancelled.Load() {
			break
		}
	}
	return nil
}

// shouldReset implements the between-iterations reset rule:
// reset_once resets only before the first iteration; otherwise force
// resets before every iteration.
func (r *Runner) shouldReset(iter int, opts Options) bool {
	if opts.ResetOnce {
		return iter == 0
	}
	return opts.Force
}

func (r *Runner) runChildren(ctx context.Context, children []*registry.Node, depth int) registry.Counts {
	var counts registry.Counts
	for _, child := range children {
		if r.cancelled.Load() {
			counts.Merge(r.skipNode(child, depth))
			continue
		}
		counts.Merge(r.runNode(ctx, child, depth))
	}
	return counts
}

func (r *Runner) runNode(ctx context.Context, n *registry.Node, depth int) registry.Counts {
	switch {
	case n.Group != nil:
		return r.runGroup(ctx, n.Group, depth)
	case n.Case != nil:
		return r.runCase(ctx, n.Case, depth)
	default:
		return registry.Counts{}
	}
}

// skipNode marks a node (and, recursively, a Group's children) as
// Skipped without executing it, for the cancellation path.
func (r *Runner) skipNode(n *registry.Node, depth int) registry.Counts {
	var counts registry.Counts
	switch {
	case n.Case != nil:
		counts.Add(registry.Skipped)
		r.reporter.Handle(report.Event{Kind: report.CaseEnd, Name: n.Case.Name, Depth: depth, Outcome: registry.Skipped})
	case n.Group != nil:
		r.reporter.Handle(report.Event{Kind: report.GroupStart, Name: n.Group.Name, Depth: depth})
		for _, child := range n.Group.Children {
			counts.Merge(r.skipNode(child, depth+1))
		}
		r.reporter.Handle(report.Event{Kind: report.GroupEnd, Name: n.Group.Name, Depth: depth, Counts: counts})
	}
	return counts
}

func (r *Runner) runGroup(ctx context.Context, g *registry.Group, depth int) registry.Counts {
	r.reporter.Handle(report.Event{Kind: report.GroupStart, Name: g.Name, Depth: depth})
	start := time.Now()

	counts := r.runChildren(ctx, g.Children, depth+1)
	counts.Merge(r.emitPruned(g.PrunedNames, depth+1))

	g.Counts = counts
	g.Elapsed = time.Since(start)
	r.reporter.Handle(report.Event{Kind: report.GroupEnd, Name: g.Name, Depth: depth, Counts: counts, Elapsed: g.Elapsed})
	return counts
}

// emitPruned emits one Skipped marker per subtree eliminated by
// filter/skip selection; the Group is pruned but still emits a
// skipped marker.
func (r *Runner) emitPruned(names []string, depth int) registry.Counts {
	var counts registry.Counts
	for _, name := range names {
		counts.Add(registry.Skipped)
		r.reporter.Handle(report.Event{Kind: report.CaseEnd, Name: name, Depth: depth, Outcome: registry.Skipped})
	}
	return counts
}

// runCase implements per-Case execution: start timer, invoke
// the callback, classify the outcome, record, emit CaseEnd.
func (r *Runner) runCase(ctx context.Context, c *registry.Case, depth int) registry.Counts {
	rec := c.Asserts()
	start := time.Now()

	err := c.Callback(rec)
	elapsed := time.Since(start)

	if outstanding := rec.Outstanding(); outstanding > 0 {
		r.logger.Warn("case ended with spawned tasks still outstanding", "case", c.Name, "outstanding", outstanding)
	}

	outcome, message, location := classify(err, rec)

	c.Result = registry.Result{Outcome: outcome, Message: message, Location: location, Elapsed: elapsed}

	var counts registry.Counts
	counts.Add(outcome)

	r.reporter.Handle(report.Event{
		Kind: report.CaseEnd, Name: c.Name, Depth: depth,
		Outcome: outcome, Message: message, Location: location, Elapsed: elapsed,
	})
	return counts
}

// classify maps a Case's callback error and accumulated assert
// failures to an outcome: require → Fail, any other script error →
// Errored, accumulated assert failures (if the
// callback otherwise returned normally) → Fail with the first
// message.
func classify(err error, rec *registry.AssertRecorder) (registry.Outcome, string, string) {
	if err != nil {
		// A require() failure reaches here wrapped in a *goja.Exception
		// (goja's runtime.NewGoError preserves the original error via
		// Unwrap, so errors.As sees straight through the JS exception).
		var reqErr *registry.RequireError
		if errors.As(err, &reqErr) {
			return registry.Fail, reqErr.Message, reqErr.Location
		}
		return registry.Errored, err.Error(), ""
	}
	if !rec.Empty() {
		first, _ := rec.First()
		return registry.Fail, first.Message, first.Location
	}
	return registry.Pass, "", ""
}

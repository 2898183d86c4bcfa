// Package pod implements driver.Driver over an ordered set of container
// drivers sharing a namespace: start iterates children in declared
// order, stop iterates in reverse, and a start failure aborts by
// reverse-stopping whatever already started.
package pod

import (
	"context"
	"fmt"
	"time"

	"github.com/saltyorg/sam/internal/driver"
	"github.com/saltyorg/sam/pkg/logger"
)

// Driver runs a sequence of child drivers (typically containers) as a
// single logical pod.
type Driver struct {
	name     string
	children []driver.Driver
	logger   *logger.Logger

	started []driver.Driver // children started so far, in start order
}

// New creates a pod driver over children, started/stopped in the given
// order.
func New(name string, children []driver.Driver, log *logger.Logger) *Driver {
	return &Driver{name: name, children: children, logger: log}
}

// Start starts children in declared order. If any child fails, already
// started children are stopped in reverse order before the error is
// returned.
func (d *Driver) Start(ctx context.Context) error {
	d.started = d.started[:0]

	for _, child := range d.children {
		if err := child.Start(ctx); err != nil {
			d.logger.Warn("pod child start failed, unwinding", "pod", d.name, "error", err)
			d.unwind(ctx)
			return fmt.Errorf("pod %q: %w", d.name, err)
		}
		d.started = append(d.started, child)
	}

	return nil
}

// unwind stops every started child in reverse order, best-effort.
func (d *Driver) unwind(ctx context.Context) {
	for i := len(d.started) - 1; i >= 0; i-- {
		if err := d.started[i].Stop(ctx, 10*time.Second); err != nil {
			d.logger.Warn("pod unwind stop failed", "pod", d.name, "error", err)
		}
	}
	d.started = d.started[:0]
}

// Stop stops children in reverse declared order, accumulating the first
// error but always attempting the rest.
func (d *Driver) Stop(ctx context.Context, maxKill time.Duration) error {
	var firstErr error
	for i := len(d.children) - 1; i >= 0; i-- {
		if err := d.children[i].Stop(ctx, maxKill); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	d.started = d.started[:0]
	return firstErr
}

// IsRunning reports true only if every child is running.
func (d *Driver) IsRunning(ctx context.Context) (bool, error) {
	for _, child := range d.children {
		running, err := child.IsRunning(ctx)
		if err != nil {
			return false, err
		}
		if !running {
			return false, nil
		}
	}
	return true, nil
}

// Reset resets every child in declared order, accumulating the first
// error but always attempting the rest.
func (d *Driver) Reset(ctx context.Context) error {
	var firstErr error
	for _, child := range d.children {
		if err := child.Reset(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

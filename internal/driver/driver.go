// Package driver defines the uniform interface SAM's environment manager
// uses to start, stop, probe, and reset heterogeneous backends: container,
// pod, and raw process. Concrete backends live in the container, pod, and
// raw subpackages.
package driver

import (
	"context"
	"time"
)

// Driver is implemented by every component backend. All methods are
// blocking at this boundary; a driver that talks to something async
// internally (a container runtime, a child process) must wait for the
// operation to settle before returning.
type Driver interface {
	// Start brings the component up. Calling Start on an already-running
	// component is the caller's (environment.Manager's) responsibility to
	// avoid; drivers may return AlreadyRunning if asked anyway.
	Start(ctx context.Context) error

	// Stop brings the component down, escalating from a graceful signal
	// to a forceful kill after maxKill elapses.
	Stop(ctx context.Context, maxKill time.Duration) error

	// IsRunning reports the current liveness of the backend, queried
	// fresh (no caching) from the underlying runtime.
	IsRunning(ctx context.Context) (bool, error)

	// Reset runs the component's configured reset commands, if any.
	// A driver with no reset commands configured treats this as a no-op.
	Reset(ctx context.Context) error
}

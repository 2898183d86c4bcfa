// Package raw implements driver.Driver by spawning a plain child
// process, grounded on the pack's process-supervision idiom (the
// stigmer CLI daemon package: exec.Command, a detached process group,
// SIGTERM-then-SIGKILL escalation, PID tracking).
package raw

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/saltyorg/sam/internal/driver"
	"github.com/saltyorg/sam/pkg/logger"
)

// Spec describes a raw process component: argv, env, and working
// directory, plus an optional per-component reset command list.
type Spec struct {
	Name    string
	Argv    []string
	Env     map[string]string
	Dir     string
	Reset   []string
}

// Driver spawns and supervises one child process.
type Driver struct {
	spec   Spec
	logger *logger.Logger

	cmd  *exec.Cmd
	done chan struct{} // closed once cmd.Wait() returns
}

// New creates a raw process driver.
func New(spec Spec, log *logger.Logger) *Driver {
	return &Driver{spec: spec, logger: log}
}

// Start spawns the child process and detaches it into its own process
// group so SAM can signal the whole group on Stop.
func (d *Driver) Start(ctx context.Context) error {
	if d.cmd != nil {
		running, _ := d.IsRunning(ctx)
		if running {
			return &driver.AlreadyRunning{Name: d.spec.Name}
		}
	}

	if len(d.spec.Argv) == 0 {
		return &driver.StartFailed{Stderr: "empty argv"}
	}

	cmd := exec.CommandContext(context.Background(), d.spec.Argv[0], d.spec.Argv[1:]...)
	cmd.Dir = d.spec.Dir
	cmd.Env = os.Environ()
	for k, v := range d.spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return &driver.StartFailed{Stderr: err.Error()}
	}

	d.cmd = cmd
	d.done = make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(d.done)
	}()

	d.logger.Debug("raw process started", "component", d.spec.Name, "pid", cmd.Process.Pid)
	return nil
}

// Stop signals SIGTERM to the process group, waits up to maxKill, then
// escalates to SIGKILL.
func (d *Driver) Stop(ctx context.Context, maxKill time.Duration) error {
	if d.cmd == nil || d.cmd.Process == nil {
		return &driver.NotRunning{Name: d.spec.Name}
	}

	pgid := -d.cmd.Process.Pid
	_ = syscall.Kill(pgid, syscall.SIGTERM)

	select {
	case <-d.done:
		return nil
	case <-time.After(maxKill):
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := syscall.Kill(pgid, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
		return &driver.StopTimedOut{Name: d.spec.Name}
	}

	select {
	case <-d.done:
		return nil
	case <-time.After(5 * time.Second):
		return &driver.StopTimedOut{Name: d.spec.Name}
	}
}

// IsRunning checks whether the recorded pid is still alive.
func (d *Driver) IsRunning(ctx context.Context) (bool, error) {
	if d.cmd == nil || d.cmd.Process == nil {
		return false, nil
	}

	select {
	case <-d.done:
		return false, nil
	default:
	}

	if err := d.cmd.Process.Signal(syscall.Signal(0)); err != nil {
		return false, nil
	}
	return true, nil
}

// Reset runs the component's configured reset commands sequentially via
// the host shell, matching the environment-level reset mechanism but
// scoped to this component.
func (d *Driver) Reset(ctx context.Context) error {
	for _, cmdline := range d.spec.Reset {
		cmd := exec.CommandContext(ctx, "sh", "-c", cmdline)
		cmd.Dir = d.spec.Dir
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("reset command %q: %w: %s", cmdline, err, out)
		}
	}
	return nil
}

// PID returns the child's process id, or 0 if it has not been started.
func (d *Driver) PID() int {
	if d.cmd == nil || d.cmd.Process == nil {
		return 0
	}
	return d.cmd.Process.Pid
}

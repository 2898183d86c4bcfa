// Package environment owns the Manager: the dependency-aware component
// lifecycle state machine. Whole-environment operations start and stop
// components one at a time in topological order, generalizing an
// orchestrator that previously only ever started/stopped a whole
// container list; the per-component state
// machine and Busy/Dependents rejection rules are new, since that
// never had to reason about a single named component mid-transition.
package environment

import (
	"context"
	"fmt"
	"time"

	"github.com/saltyorg/sam/pkg/logger"
)

// Busy is returned by Start/Stop when the target component is already
// mid-transition (Starting or Stopping).
type Busy struct{ Name string }

func (e *Busy) Error() string { return fmt.Sprintf("%q is busy", e.Name) }

// Dependents is returned by Stop when other running components still
// depend on the target.
type Dependents struct {
	Name string
	List []string
}

func (e *Dependents) Error() string {
	return fmt.Sprintf("cannot stop %q: running dependents %v", e.Name, e.List)
}

// Manager owns one environment's component graph, KV store, and global
// reset commands, and serializes lifecycle requests.
type Manager struct {
	graph       *Graph
	globalReset []string
	logger      *logger.Logger

	KV *KVStore

	tearingDown bool // relaxes the Dependents check during stop_environment
}

// New creates a Manager over an already-built component graph.
func New(g *Graph, globalReset []string, log *logger.Logger) *Manager {
	return &Manager{
		graph:       g,
		globalReset: globalReset,
		logger:      log,
		KV:          NewKVStore(),
	}
}

// Start brings name, and transitively its dependencies, to Running.
// Idempotent when already Running; rejects with Busy when mid
// transition.
func (m *Manager) Start(ctx context.Context, name string) error {
	node, ok := m.graph.GetNode(name)
	if !ok {
		return fmt.Errorf("unknown component %q", name)
	}
	return m.startNode(ctx, node)
}

// startNode starts node's parents (in topological order, fully
// completed before node's own lock is acquired — this is what keeps
// lock acquisition order topological and deadlock-free) and then node
// itself.
func (m *Manager) startNode(ctx context.Context, node *Node) error {
	for _, parent := range node.Parents {
		if err := m.startNode(ctx, parent); err != nil {
			return fmt.Errorf("dependency %q: %w", parent.Name(), err)
		}
	}

	node.Lock()
	defer node.Unlock()

	switch node.state {
	case StateRunning:
		return nil // idempotent, no driver call
	case StateStarting, StateStopping:
		return &Busy{Name: node.Name()}
	}

	node.state = StateStarting
	node.reason = ""

	if err := node.Driver.Start(ctx); err != nil {
		node.state = StateFailed
		node.reason = err.Error()
		return err
	}

	node.state = StateRunning
	return nil
}

// Stop brings name to Stopped. Idempotent when already Stopped; refuses
// with Dependents when another running component depends on name,
// unless the Manager is mid stop_environment.
func (m *Manager) Stop(ctx context.Context, name string) error {
	node, ok := m.graph.GetNode(name)
	if !ok {
		return fmt.Errorf("unknown component %q", name)
	}
	return m.stopNode(ctx, node, 10*time.Second)
}

func (m *Manager) stopNode(ctx context.Context, node *Node, maxKill time.Duration) error {
	if !m.tearingDown {
		var running []string
		for _, child := range node.Children {
			if s, _ := child.State(); s == StateRunning {
				running = append(running, child.Name())
			}
		}
		if len(running) > 0 {
			return &Dependents{Name: node.Name(), List: running}
		}
	}

	node.Lock()
	defer node.Unlock()

	switch node.state {
	case StateStopped:
		return nil // idempotent
	case StateStarting, StateStopping:
		return &Busy{Name: node.Name()}
	}

	node.state = StateStopping

	if err := node.Driver.Stop(ctx, maxKill); err != nil {
		node.state = StateFailed
		node.reason = err.Error()
		return err
	}

	node.state = StateStopped
	node.reason = ""
	return nil
}

// StartEnvironment starts every component with StartByDefault set, in
// topological order. The first StartFailed aborts the run and tears
// down whatever already started, in reverse order.
func (m *Manager) StartEnvironment(ctx context.Context) error {
	sorted, err := m.graph.TopologicalSort()
	if err != nil {
		return err
	}

	var started []*Node
	for _, node := range sorted.StartupOrder {
		if !node.Spec.StartByDefault {
			continue
		}
		if err := m.startNode(ctx, node); err != nil {
			m.logger.Error("start_environment failed, unwinding", "component", node.Name(), "error", err)
			m.unwind(ctx, started)
			return fmt.Errorf("start %q: %w", node.Name(), err)
		}
		started = append(started, node)
	}
	return nil
}

func (m *Manager) unwind(ctx context.Context, started []*Node) {
	m.tearingDown = true
	defer func() { m.tearingDown = false }()

	for i := len(started) - 1; i >= 0; i-- {
		if err := m.stopNode(ctx, started[i], 10*time.Second); err != nil {
			m.logger.Warn("unwind stop failed", "component", started[i].Name(), "error", err)
		}
	}
}

// StopEnvironment stops every Running component in reverse topological
// order, accumulating errors but always attempting all of them.
func (m *Manager) StopEnvironment(ctx context.Context, maxKill time.Duration) error {
	sorted, err := m.graph.TopologicalSort()
	if err != nil {
		return err
	}

	m.tearingDown = true
	defer func() { m.tearingDown = false }()

	var firstErr error
	for _, node := range sorted.ShutdownOrder {
		if s, _ := node.State(); s != StateRunning {
			continue
		}
		if err := m.stopNode(ctx, node, maxKill); err != nil {
			m.logger.Error("stop_environment: component failed to stop", "component", node.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// ResetEnvironment runs the global reset command list. With force, it
// first stops then restarts the whole environment; per-component reset
// commands (run by each component's driver) only apply to components
// that were actually started during this call.
func (m *Manager) ResetEnvironment(ctx context.Context, force bool) error {
	var startedDuringReset []*Node

	if force {
		if err := m.StopEnvironment(ctx, 10*time.Second); err != nil {
			return fmt.Errorf("reset: stop phase: %w", err)
		}
		sorted, err := m.graph.TopologicalSort()
		if err != nil {
			return err
		}
		for _, node := range sorted.StartupOrder {
			if !node.Spec.StartByDefault {
				continue
			}
			if err := m.startNode(ctx, node); err != nil {
				return fmt.Errorf("reset: start phase: %w", err)
			}
			startedDuringReset = append(startedDuringReset, node)
		}
	}

	for _, cmd := range m.globalReset {
		if err := runShell(ctx, cmd); err != nil {
			return fmt.Errorf("global reset command %q: %w", cmd, err)
		}
	}

	for _, node := range startedDuringReset {
		if err := node.Driver.Reset(ctx); err != nil {
			m.logger.Warn("component reset failed", "component", node.Name(), "error", err)
		}
	}

	return nil
}

// Status returns the current state of one named component.
func (m *Manager) Status(name string) (Status, error) {
	node, ok := m.graph.GetNode(name)
	if !ok {
		return Status{}, fmt.Errorf("unknown component %q", name)
	}
	s, reason := node.State()
	return Status{Name: name, State: s, Reason: reason}, nil
}

// AllStatus returns a point-in-time snapshot of every component's
// state, read-only and safe to call concurrently with lifecycle
// transitions.
func (m *Manager) AllStatus() map[string]Status {
	out := make(map[string]Status, len(m.graph.Nodes))
	for name, node := range m.graph.Nodes {
		s, reason := node.State()
		out[name] = Status{Name: name, State: s, Reason: reason}
	}
	return out
}

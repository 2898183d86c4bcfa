// Package script embeds the goja ECMAScript runtime and exposes the
// host function surface to user-authored test scripts. One Bridge is
// created per script file, isolating its globals; the KV Store and
// Environment Manager handles are shared across all Bridges in a run
// by passing the same *environment.Manager pointer to each.
package script

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/dop251/goja"

	"github.com/saltyorg/sam/internal/environment"
	"github.com/saltyorg/sam/internal/registry"
	"github.com/saltyorg/sam/pkg/logger"
)

// TaskPool is the worker pool spawn_task/wait_for_task(s) delegate to.
// Defined here (rather than importing internal/runner) so runner can
// depend on script without a cycle: runner's Pool satisfies this
// interface and is injected via New.
type TaskPool interface {
	Spawn(fn func() (interface{}, error)) int
	Wait(id int) (interface{}, error)
	WaitAll(ids []int) ([]interface{}, error)
}

// Bridge is one embedded runtime instance bound to a single script
// file. Host functions close over it; it is not safe for concurrent
// use by more than one goroutine at a time except through the
// synchronization spawn_task provides internally.
type Bridge struct {
	rt         *goja.Runtime
	cursor     *registry.Cursor
	manager    *environment.Manager
	pool       TaskPool
	moduleDirs []string
	logger     *logger.Logger
	path       string

	// mu serializes every entry into rt: goja.Runtime values are not
	// safe for concurrent access, so spawn_task callbacks invoked on
	// pool goroutines must take mu before calling back into the
	// script, exactly as the main collection/execution path does.
	mu sync.Mutex

	// currentRecorder is the AssertRecorder of the Case whose callback
	// is presently executing (or, for a spawn_task callback, the
	// recorder captured at spawn time) so assert can attribute
	// failures correctly.
	currentRecorder *registry.AssertRecorder

	// logSink receives log() calls once the Runner has entered the
	// execution phase; nil during collection, when log() only writes
	// to the logger.
	logSink func(message, location string)
}

// New creates a Bridge over path, to be loaded with Load. moduleDirs
// is searched, in order, for `import "name" as alias` targets.
func New(path string, manager *environment.Manager, pool TaskPool, moduleDirs []string, log *logger.Logger) *Bridge {
	b := &Bridge{
		rt:         goja.New(),
		cursor:     registry.NewCursor(),
		manager:    manager,
		pool:       pool,
		moduleDirs: moduleDirs,
		logger:     log,
		path:       path,
	}
	b.registerHostFuncs()
	return b
}

// SetLogSink installs the callback log() forwards to once execution
// begins; the caller installs it after Load and before running the
// collected tree.
func (b *Bridge) SetLogSink(sink func(message, location string)) {
	b.logSink = sink
}

// Root returns the Test Node tree assembled by Load's collection
// phase.
func (b *Bridge) Root() *registry.Group { return b.cursor.Root() }

var importRe = regexp.MustCompile(`(?m)^[ \t]*import\s+"([^"]+)"\s+as\s+(\w+)\s*;?[ \t]*$`)

// Load reads the script source, resolves imports, and evaluates it in
// the collection phase: describe runs immediately (to discover nested
// content) but it callbacks are only stored, never invoked, satisfying
// the collect-then-run invariant.
func (b *Bridge) Load() error {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return fmt.Errorf("read script %q: %w", b.path, err)
	}

	src, err := b.resolveImports(string(data))
	if err != nil {
		return fmt.Errorf("script %q: %w", b.path, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.rt.RunScript(b.path, src); err != nil {
		return fmt.Errorf("script %q: %w", b.path, err)
	}
	return nil
}

// resolveImports rewrites every `import "name" as alias;` line into an
// IIFE that evaluates the module source (found by searching
// moduleDirs for name+".js") and binds its `module.exports` object to
// alias — a minimal CommonJS-ish pattern, since goja ships no bundled
// module loader of its own.
func (b *Bridge) resolveImports(src string) (string, error) {
	var firstErr error
	out := importRe.ReplaceAllStringFunc(src, func(line string) string {
		m := importRe.FindStringSubmatch(line)
		name, alias := m[1], m[2]
		modSrc, err := b.loadModuleSource(name)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return line
		}
		return fmt.Sprintf(
			"var %s = (function(){ var module = {exports: {}}; var exports = module.exports;\n%s\nreturn module.exports; })();",
			alias, modSrc,
		)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func (b *Bridge) loadModuleSource(name string) (string, error) {
	for _, dir := range b.moduleDirs {
		p := filepath.Join(dir, name+".js")
		data, err := os.ReadFile(p)
		if err == nil {
			return string(data), nil
		}
	}
	return "", fmt.Errorf("module %q not found in module_dirs %v", name, b.moduleDirs)
}

// location returns "file:line" for the script frame that called the
// currently-executing host function, for failure/log reporting.
func (b *Bridge) location() string {
	frames := b.rt.CaptureCallStack(2, nil)
	if len(frames) == 0 {
		return b.path
	}
	pos := frames[len(frames)-1].Position()
	if pos.Filename == "" {
		return b.path
	}
	return fmt.Sprintf("%s:%d", pos.Filename, pos.Line)
}

// throw raises err as a catchable script exception from within a host
// function; call sites must `panic(b.throw(err))`.
func (b *Bridge) throw(err error) *goja.Object {
	return b.rt.NewGoError(err)
}

// argError builds a script-visible error for a host function's
// arity/type-validation failure.
func argError(fn, reason string) error {
	return fmt.Errorf("%s: %s", fn, reason)
}

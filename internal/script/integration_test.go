package script

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltyorg/sam/internal/config"
	"github.com/saltyorg/sam/internal/environment"
	"github.com/saltyorg/sam/internal/registry"
	"github.com/saltyorg/sam/internal/report"
	"github.com/saltyorg/sam/internal/runner"
	"github.com/saltyorg/sam/pkg/logger"
)

// End-to-end scenarios exercised against an in-memory `raw` component
// instead of real Docker/curl, since those dependencies can't be
// exercised here without a daemon (see DESIGN.md).

func newIntegrationEnv(t *testing.T, marker string) *environment.Manager {
	t.Helper()
	log, err := logger.New(false)
	require.NoError(t, err)

	specs, err := environment.SpecsFromConfig([]config.ComponentSpec{
		{
			Name:    "svc",
			Type:    "raw",
			Argv:    []string{"sh", "-c", "echo up >> " + marker + "; sleep 5"},
		},
	})
	require.NoError(t, err)

	b := environment.NewBuilder("", log)
	g, err := b.Build(specs)
	require.NoError(t, err)

	return environment.New(g, nil, log)
}

func runOneScript(t *testing.T, env *environment.Manager, src string, opts runner.Options) (*report.Reporter, error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.js")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	log, err := logger.New(false)
	require.NoError(t, err)

	var buf bytes.Buffer
	rep := report.New(&buf)
	run := runner.New(env, rep, log)
	t.Cleanup(func() { run.Shutdown(time.Second) })

	bridge := New(path, env, run.Pool(), nil, log)
	require.NoError(t, bridge.Load())

	selected, err := registry.Select(bridge.Root(), "", "")
	require.NoError(t, err)

	err = run.Run(context.Background(), selected, opts)
	return rep, err
}

// S1 analog: start a component and assert on output observed through
// exec, standing in for curl against a real container endpoint.
func TestIntegration_S1_StartComponentAndAssertOnOutput(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")
	env := newIntegrationEnv(t, marker)

	rep, err := runOneScript(t, env, `
		describe("web", function() {
			it("serves", function() {
				start_component("svc");
				sleep("50ms");
				var out = exec("cat `+marker+`");
				require(out == "up\n", "bad output: " + out);
			});
		});
	`, runner.Options{Repeat: 1})
	require.NoError(t, err)

	totals := rep.Totals()
	assert.Equal(t, 1, totals.Passed)
	assert.Equal(t, 0, totals.Failed)
	assert.Equal(t, 0, err2code(err))
}

// S3: require(false) fails the Case with the given message.
func TestIntegration_S3_RequireFailureProducesFailOutcome(t *testing.T) {
	env := newIntegrationEnv(t, filepath.Join(t.TempDir(), "marker"))

	rep, err := runOneScript(t, env, `
		describe("g", function() {
			it("x", function() { require(1 == 2, "nope"); });
		});
	`, runner.Options{Repeat: 1})
	require.NoError(t, err)

	totals := rep.Totals()
	assert.Equal(t, 1, totals.Failed)
	assert.Equal(t, 0, totals.Passed)
}

// S4: filter selects only the matching Case; the other is reported Skipped.
func TestIntegration_S4_FilterPrunesNonMatchingCases(t *testing.T) {
	env := newIntegrationEnv(t, filepath.Join(t.TempDir(), "marker"))

	dir := t.TempDir()
	path := filepath.Join(dir, "main.js")
	src := `
		describe("g", function() {
			it("a", function() {});
			it("b", function() {});
		});
	`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	log, err := logger.New(false)
	require.NoError(t, err)
	var buf bytes.Buffer
	rep := report.New(&buf)
	run := runner.New(env, rep, log)
	t.Cleanup(func() { run.Shutdown(time.Second) })

	bridge := New(path, env, run.Pool(), nil, log)
	require.NoError(t, bridge.Load())

	selected, err := registry.Select(bridge.Root(), "/a$", "")
	require.NoError(t, err)

	require.NoError(t, run.Run(context.Background(), selected, runner.Options{Repeat: 1}))

	totals := rep.Totals()
	assert.Equal(t, 1, totals.Passed)
	assert.Equal(t, 1, totals.Skipped)
}

// S5: spawn_task/wait_for_tasks preserves input order of results.
func TestIntegration_S5_ConcurrentTasksPreserveOrder(t *testing.T) {
	env := newIntegrationEnv(t, filepath.Join(t.TempDir(), "marker"))

	rep, err := runOneScript(t, env, `
		describe("g", function() {
			it("x", function() {
				var ids = [spawn_task(function() { return 42; }), spawn_task(function() { return 43; })];
				var r = wait_for_tasks(ids);
				require(r[0] == 42 && r[1] == 43, "order");
			});
		});
	`, runner.Options{Repeat: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Totals().Passed)
}

// S6: repeat=2, force=true runs the global reset command before every
// iteration, so the marker file accumulates one line per iteration.
func TestIntegration_S6_ForceResetRunsBeforeEveryIteration(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "reset-marker")

	log, err := logger.New(false)
	require.NoError(t, err)
	env := environment.New(environment.NewGraph(), []string{"echo reset >> " + marker}, log)

	rep, err := runOneScript(t, env, `
		describe("g", function() {
			it("noop", function() {});
		});
	`, runner.Options{Repeat: 2, Force: true})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Totals().Passed)

	data, rerr := os.ReadFile(marker)
	require.NoError(t, rerr)
	assert.Equal(t, "reset\nreset\n", string(data))
}

func err2code(err error) int {
	if err != nil {
		return 1
	}
	return 0
}

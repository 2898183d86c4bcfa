package script

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltyorg/sam/internal/environment"
	"github.com/saltyorg/sam/internal/registry"
	"github.com/saltyorg/sam/pkg/logger"
)

// fakePool runs each spawned task on its own goroutine (the task body
// needs the Bridge's lock, which the spawning Case callback holds until
// it waits), so tests don't need the real runner.Pool.
type fakePool struct {
	mu      sync.Mutex
	done    map[int]chan struct{}
	results map[int]interface{}
	errs    map[int]error
	next    int
}

func newFakePool() *fakePool {
	return &fakePool{done: map[int]chan struct{}{}, results: map[int]interface{}{}, errs: map[int]error{}}
}

func (p *fakePool) Spawn(fn func() (interface{}, error)) int {
	p.mu.Lock()
	p.next++
	id := p.next
	ch := make(chan struct{})
	p.done[id] = ch
	p.mu.Unlock()

	go func() {
		v, err := fn()
		p.mu.Lock()
		p.results[id] = v
		p.errs[id] = err
		p.mu.Unlock()
		close(ch)
	}()
	return id
}

func (p *fakePool) Wait(id int) (interface{}, error) {
	p.mu.Lock()
	ch := p.done[id]
	p.mu.Unlock()
	<-ch

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.results[id], p.errs[id]
}

func (p *fakePool) WaitAll(ids []int) ([]interface{}, error) {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		v, err := p.Wait(id)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func newTestBridge(t *testing.T, src string) *Bridge {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.js")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	log, err := logger.New(false)
	require.NoError(t, err)
	manager := environment.New(environment.NewGraph(), nil, log)

	b := New(path, manager, newFakePool(), nil, log)
	require.NoError(t, b.Load())
	return b
}

func TestCollectThenRun_DoesNotExecuteItBodies(t *testing.T) {
	b := newTestBridge(t, `
		describe("g", function() {
			it("a", function() { throw new Error("should not run yet"); });
		});
	`)

	root := b.Root()
	require.Len(t, root.Children, 1)
	group := root.Children[0].Group
	assert.Equal(t, "g", group.Name)
	require.Len(t, group.Children, 1)
	assert.Equal(t, "a", group.Children[0].Case.Name)
}

func TestRequire_RaisesAndIsDistinguishable(t *testing.T) {
	b := newTestBridge(t, `
		describe("g", function() {
			it("a", function() { require(1 == 2, "nope"); });
		});
	`)

	c := b.Root().Children[0].Group.Children[0].Case
	err := c.Callback(c.Asserts())
	require.Error(t, err)

	var reqErr *registry.RequireError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "nope", reqErr.Message)
}

func TestAssert_RecordsAndContinues(t *testing.T) {
	b := newTestBridge(t, `
		describe("g", function() {
			it("a", function() {
				assert(false, "first");
				assert(1 == 1, "second");
				assert(false, "third");
			});
		});
	`)

	c := b.Root().Children[0].Group.Children[0].Case
	err := c.Callback(c.Asserts())
	require.NoError(t, err)
	require.False(t, c.Asserts().Empty())
	first, ok := c.Asserts().First()
	require.True(t, ok)
	assert.Equal(t, "first", first.Message)
}

func TestSpawnTaskAndWaitForTasks_PreservesOrder(t *testing.T) {
	b := newTestBridge(t, `
		describe("g", function() {
			it("a", function() {
				var ids = [spawn_task(function() { return 42; }), spawn_task(function() { return 43; })];
				var r = wait_for_tasks(ids);
				require(r[0] == 42 && r[1] == 43, "order");
			});
		});
	`)

	c := b.Root().Children[0].Group.Children[0].Case
	err := c.Callback(c.Asserts())
	assert.NoError(t, err)
}

func TestKVStore_GetSetRoundTrip(t *testing.T) {
	b := newTestBridge(t, `
		describe("g", function() {
			it("a", function() {
				set("k", "v");
				require(get("k") == "v", "kv mismatch");
			});
		});
	`)

	c := b.Root().Children[0].Group.Children[0].Case
	err := c.Callback(c.Asserts())
	assert.NoError(t, err)
}

func TestToJSONParseJSON_RoundTrip(t *testing.T) {
	b := newTestBridge(t, `
		describe("g", function() {
			it("a", function() {
				var v = {x: 1, y: "two"};
				var roundtripped = parse_json(to_json(v));
				require(roundtripped.x == 1 && roundtripped.y == "two", "roundtrip");
			});
		});
	`)

	c := b.Root().Children[0].Group.Children[0].Case
	err := c.Callback(c.Asserts())
	assert.NoError(t, err)
}

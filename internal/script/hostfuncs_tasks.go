package script

import "github.com/dop251/goja"

// registerTaskFuncs installs spawn_task/wait_for_task/wait_for_tasks,
// delegating to the TaskPool injected at construction (internal/runner's
// worker pool in production, a fake in tests).
func (b *Bridge) registerTaskFuncs() {
	b.set("spawn_task", b.hostSpawnTask)
	b.set("wait_for_task", b.hostWaitForTask)
	b.set("wait_for_tasks", b.hostWaitForTasks)
}

// hostSpawnTask schedules cb on the worker pool and returns its task
// id immediately; cb itself only runs once the worker acquires the
// runtime (goja.Runtime is not safe for concurrent use, so every
// entry into it — main thread or pool worker — serializes on b.mu).
// The recorder active when spawn_task was called is captured now, so
// assert calls inside cb attribute back to the spawning Case even
// though by the time cb runs the main thread may have moved on to a
// different Case.
func (b *Bridge) hostSpawnTask(call goja.FunctionCall) goja.Value {
	cb, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(b.throw(argError("spawn_task", "argument must be a function")))
	}
	capturedRecorder := b.currentRecorder
	if capturedRecorder != nil {
		capturedRecorder.TaskSpawned()
	}

	id := b.pool.Spawn(func() (interface{}, error) {
		b.mu.Lock()
		defer b.mu.Unlock()

		if capturedRecorder != nil {
			defer capturedRecorder.TaskCompleted()
		}

		prev := b.currentRecorder
		b.currentRecorder = capturedRecorder
		defer func() { b.currentRecorder = prev }()

		v, err := cb(goja.Undefined())
		if err != nil {
			return nil, err
		}
		return v.Export(), nil
	})
	return b.rt.ToValue(id)
}

// hostWaitForTask blocks the calling frame until id resolves. mu is
// released for the duration of the wait (a plain sync.Mutex has no
// notion of "owning goroutine", so unlocking here and relocking
// afterward is safe) so a pool worker can take its turn on the
// runtime while the main thread is parked.
func (b *Bridge) hostWaitForTask(call goja.FunctionCall) goja.Value {
	id := int(call.Argument(0).ToInteger())

	b.mu.Unlock()
	v, err := b.pool.Wait(id)
	b.mu.Lock()

	if err != nil {
		panic(b.throw(err))
	}
	return b.rt.ToValue(v)
}

// hostWaitForTasks returns results in input order.
func (b *Bridge) hostWaitForTasks(call goja.FunctionCall) goja.Value {
	raw := call.Argument(0).Export()
	items, ok := raw.([]interface{})
	if !ok {
		panic(b.throw(argError("wait_for_tasks", "argument must be an array of task ids")))
	}
	ids := make([]int, len(items))
	for i, item := range items {
		switch n := item.(type) {
		case int64:
			ids[i] = int(n)
		case float64:
			ids[i] = int(n)
		default:
			panic(b.throw(argError("wait_for_tasks", "ids must be integers")))
		}
	}

	b.mu.Unlock()
	results, err := b.pool.WaitAll(ids)
	b.mu.Lock()

	if err != nil {
		panic(b.throw(err))
	}
	return b.rt.ToValue(results)
}

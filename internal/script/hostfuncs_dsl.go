package script

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/saltyorg/sam/internal/registry"
)

// registerDSLFuncs installs describe/task, it/step, require, assert,
// diff — the collection and assertion primitives of the scripting DSL.
func (b *Bridge) registerDSLFuncs() {
	b.set("describe", b.hostDescribe)
	b.set("task", b.hostDescribe)
	b.set("it", b.hostIt)
	b.set("step", b.hostIt)
	b.set("require", b.hostRequire)
	b.set("assert", b.hostAssert)
	b.set("diff", b.hostDiff)
}

// hostDescribe runs its body immediately (collection phase discovers
// nested describe/it this way) but the Group itself has no deferred
// "run" step of its own — only its children do.
func (b *Bridge) hostDescribe(call goja.FunctionCall) goja.Value {
	name := call.Argument(0).String()
	fn, ok := goja.AssertFunction(call.Argument(1))
	if !ok {
		panic(b.throw(argError("describe", "second argument must be a function")))
	}

	b.cursor.PushDescribe(name)
	defer b.cursor.Pop()

	if _, err := fn(goja.Undefined()); err != nil {
		panic(err)
	}
	return goja.Undefined()
}

// hostIt stores the callback without invoking it, per the
// collect-then-run invariant; the Runner invokes it later through the
// Case's Callback.
func (b *Bridge) hostIt(call goja.FunctionCall) goja.Value {
	name := call.Argument(0).String()
	fn, ok := goja.AssertFunction(call.Argument(1))
	if !ok {
		panic(b.throw(argError("it", "second argument must be a function")))
	}

	b.cursor.AddIt(name, func(rec *registry.AssertRecorder) error {
		b.mu.Lock()
		defer b.mu.Unlock()

		prev := b.currentRecorder
		b.currentRecorder = rec
		defer func() { b.currentRecorder = prev }()

		_, err := fn(goja.Undefined())
		return err
	})
	return goja.Undefined()
}

// hostRequire raises a RequireError (mapped by the Runner to outcome
// Fail) when cond is falsy; any other uncaught script error maps to
// Errored instead.
func (b *Bridge) hostRequire(call goja.FunctionCall) goja.Value {
	cond := call.Argument(0).ToBoolean()
	if cond {
		return goja.Undefined()
	}
	message := argOrDefault(call, 1, "require failed")
	panic(b.throw(&registry.RequireError{Message: message, Location: b.location()}))
}

// hostAssert records a failure and continues, attributing it to
// whichever recorder is currently active (the owning Case's, or — for
// a spawn_task callback — the recorder captured at spawn time).
func (b *Bridge) hostAssert(call goja.FunctionCall) goja.Value {
	cond := call.Argument(0).ToBoolean()
	if cond {
		return goja.Undefined()
	}
	message := argOrDefault(call, 1, "assertion failed")
	if b.currentRecorder != nil {
		b.currentRecorder.Record(message, b.location())
	}
	return goja.Undefined()
}

// hostDiff renders a line-oriented diff of two JSON-marshalled values,
// for use in assertion messages. Hand-rolled (no diff library is
// grounded anywhere in the retrieval pack) using a straightforward
// longest-common-subsequence line diff.
func (b *Bridge) hostDiff(call goja.FunctionCall) goja.Value {
	a := toJSONLines(call.Argument(0).Export())
	c := toJSONLines(call.Argument(1).Export())
	return b.rt.ToValue(lineDiff(a, c))
}

func argOrDefault(call goja.FunctionCall, i int, def string) string {
	v := call.Argument(i)
	if goja.IsUndefined(v) {
		return def
	}
	return v.String()
}

func toJSONLines(v interface{}) []string {
	pretty, err := toJSONPretty(v)
	if err != nil {
		return []string{fmt.Sprintf("<unmarshalable: %v>", err)}
	}
	return strings.Split(pretty, "\n")
}

// lineDiff is a minimal LCS-based line diff, prefixing unchanged lines
// with two spaces, removed lines with "- ", added lines with "+ ".
func lineDiff(a, c []string) string {
	n, m := len(a), len(c)
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == c[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var out []string
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == c[j]:
			out = append(out, "  "+a[i])
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			out = append(out, "- "+a[i])
			i++
		default:
			out = append(out, "+ "+c[j])
			j++
		}
	}
	for ; i < n; i++ {
		out = append(out, "- "+a[i])
	}
	for ; j < m; j++ {
		out = append(out, "+ "+c[j])
	}
	return strings.Join(out, "\n")
}

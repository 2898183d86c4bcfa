package script

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// registerEnvFuncs installs exec/start_component/stop_component/
// set_env/get_env/sleep/wait_until/log.
func (b *Bridge) registerEnvFuncs() {
	b.set("exec", b.hostExec)
	b.set("start_component", b.hostStartComponent)
	b.set("stop_component", b.hostStopComponent)
	b.set("set_env", b.hostSetEnv)
	b.set("get_env", b.hostGetEnv)
	b.set("sleep", b.hostSleep)
	b.set("wait_until", b.hostWaitUntil)
	b.set("log", b.hostLog)
}

// hostExec runs cmdline through the shell and returns its stdout;
// a non-zero exit raises a script-visible error with captured stderr.
func (b *Bridge) hostExec(call goja.FunctionCall) goja.Value {
	cmdline := call.Argument(0).String()

	cmd := exec.CommandContext(context.Background(), "sh", "-c", cmdline)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		panic(b.throw(argError("exec", cmdline+": "+err.Error()+": "+stderr.String())))
	}
	return b.rt.ToValue(stdout.String())
}

func (b *Bridge) hostStartComponent(call goja.FunctionCall) goja.Value {
	name := call.Argument(0).String()
	if err := b.manager.Start(context.Background(), name); err != nil {
		panic(b.throw(err))
	}
	return goja.Undefined()
}

func (b *Bridge) hostStopComponent(call goja.FunctionCall) goja.Value {
	name := call.Argument(0).String()
	if err := b.manager.Stop(context.Background(), name); err != nil {
		panic(b.throw(err))
	}
	return goja.Undefined()
}

func (b *Bridge) hostSetEnv(call goja.FunctionCall) goja.Value {
	key := call.Argument(0).String()
	val := call.Argument(1).String()
	if err := os.Setenv(key, val); err != nil {
		panic(b.throw(err))
	}
	return goja.Undefined()
}

func (b *Bridge) hostGetEnv(call goja.FunctionCall) goja.Value {
	key := call.Argument(0).String()
	return b.rt.ToValue(os.Getenv(key))
}

func (b *Bridge) hostSleep(call goja.FunctionCall) goja.Value {
	d, err := parseDurationArg(call.Argument(0))
	if err != nil {
		panic(b.throw(argError("sleep", err.Error())))
	}
	time.Sleep(d)
	return goja.Undefined()
}

// hostWaitUntil polls cond every ~100ms until truthy or timeout
// elapses, then raises on timeout.
func (b *Bridge) hostWaitUntil(call goja.FunctionCall) goja.Value {
	cond, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(b.throw(argError("wait_until", "first argument must be a function")))
	}
	timeout, err := parseDurationArg(call.Argument(1))
	if err != nil {
		panic(b.throw(argError("wait_until", err.Error())))
	}

	deadline := time.Now().Add(timeout)
	for {
		v, err := cond(goja.Undefined())
		if err != nil {
			panic(err)
		}
		if v.ToBoolean() {
			return goja.Undefined()
		}
		if time.Now().After(deadline) {
			panic(b.throw(argError("wait_until", "timed out after "+timeout.String())))
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// hostLog forwards to the Runner's log sink once execution has begun,
// falling back to the structured logger during collection.
func (b *Bridge) hostLog(call goja.FunctionCall) goja.Value {
	msg := call.Argument(0).String()
	loc := b.location()
	if b.logSink != nil {
		b.logSink(msg, loc)
	} else {
		b.logger.Info(strings.TrimSpace(msg), "source", loc)
	}
	return goja.Undefined()
}

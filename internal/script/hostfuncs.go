package script

import "github.com/dop251/goja"

// registerHostFuncs installs the full host function surface onto the
// runtime. Split across hostfuncs_*.go by concern: DSL, environment
// control, encoding, filesystem, HTTP, tasks, and randomness.
func (b *Bridge) registerHostFuncs() {
	b.registerDSLFuncs()
	b.registerEnvFuncs()
	b.registerKVFuncs()
	b.registerEncodingFuncs()
	b.registerFSFuncs()
	b.registerHTTPFuncs()
	b.registerRandomFuncs()
	b.registerTaskFuncs()
}

// set registers a native Go function under name, panicking only on
// the kind of setup error that indicates a programmer mistake (a
// reserved/invalid identifier), never on script input.
func (b *Bridge) set(name string, fn func(call goja.FunctionCall) goja.Value) {
	if err := b.rt.Set(name, fn); err != nil {
		panic(err)
	}
}

package script

import "github.com/dop251/goja"

// registerKVFuncs installs get/set over the run-scoped KV Store.
func (b *Bridge) registerKVFuncs() {
	b.set("get", b.hostGet)
	b.set("set", b.hostSet)
}

func (b *Bridge) hostGet(call goja.FunctionCall) goja.Value {
	key := call.Argument(0).String()
	v, ok := b.manager.KV.Get(key)
	if !ok {
		return goja.Undefined()
	}
	return b.rt.ToValue(v)
}

func (b *Bridge) hostSet(call goja.FunctionCall) goja.Value {
	key := call.Argument(0).String()
	b.manager.KV.Set(key, call.Argument(1).Export())
	return goja.Undefined()
}

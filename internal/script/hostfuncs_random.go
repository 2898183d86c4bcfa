package script

import (
	"math/rand/v2"

	"github.com/dop251/goja"
)

const randomStringAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// registerRandomFuncs installs random_string/random_int.
func (b *Bridge) registerRandomFuncs() {
	b.set("random_string", b.hostRandomString)
	b.set("random_int", b.hostRandomInt)
}

func (b *Bridge) hostRandomString(call goja.FunctionCall) goja.Value {
	n := int(call.Argument(0).ToInteger())
	if n < 0 {
		panic(b.throw(argError("random_string", "length must be non-negative")))
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = randomStringAlphabet[rand.IntN(len(randomStringAlphabet))]
	}
	return b.rt.ToValue(string(out))
}

func (b *Bridge) hostRandomInt(call goja.FunctionCall) goja.Value {
	min := call.Argument(0).ToInteger()
	max := call.Argument(1).ToInteger()
	if max < min {
		panic(b.throw(argError("random_int", "max must be >= min")))
	}
	return b.rt.ToValue(min + rand.Int64N(max-min+1))
}

package script

import (
	"bytes"
	"encoding/json"

	"github.com/BurntSushi/toml"
	"github.com/dop251/goja"
	"gopkg.in/yaml.v3"
)

// registerEncodingFuncs installs parse_{json,yaml,toml} and
// to_{json,json_pretty,yaml,toml}. JSON uses the standard library;
// YAML uses the already-wired yaml.v3; TOML uses BurntSushi/toml, a
// real ecosystem library named because the retrieval pack carries no
// TOML example of its own.
func (b *Bridge) registerEncodingFuncs() {
	b.set("parse_json", b.hostParseJSON)
	b.set("parse_yaml", b.hostParseYAML)
	b.set("parse_toml", b.hostParseTOML)
	b.set("to_json", b.hostToJSON)
	b.set("to_json_pretty", b.hostToJSONPretty)
	b.set("to_yaml", b.hostToYAML)
	b.set("to_toml", b.hostToTOML)
}

func (b *Bridge) hostParseJSON(call goja.FunctionCall) goja.Value {
	var v interface{}
	if err := json.Unmarshal([]byte(call.Argument(0).String()), &v); err != nil {
		panic(b.throw(argError("parse_json", err.Error())))
	}
	return b.rt.ToValue(v)
}

func (b *Bridge) hostParseYAML(call goja.FunctionCall) goja.Value {
	var v interface{}
	if err := yaml.Unmarshal([]byte(call.Argument(0).String()), &v); err != nil {
		panic(b.throw(argError("parse_yaml", err.Error())))
	}
	return b.rt.ToValue(v)
}

func (b *Bridge) hostParseTOML(call goja.FunctionCall) goja.Value {
	var v interface{}
	if _, err := toml.Decode(call.Argument(0).String(), &v); err != nil {
		panic(b.throw(argError("parse_toml", err.Error())))
	}
	return b.rt.ToValue(v)
}

func (b *Bridge) hostToJSON(call goja.FunctionCall) goja.Value {
	out, err := toJSON(call.Argument(0).Export())
	if err != nil {
		panic(b.throw(argError("to_json", err.Error())))
	}
	return b.rt.ToValue(out)
}

func (b *Bridge) hostToJSONPretty(call goja.FunctionCall) goja.Value {
	out, err := toJSONPretty(call.Argument(0).Export())
	if err != nil {
		panic(b.throw(argError("to_json_pretty", err.Error())))
	}
	return b.rt.ToValue(out)
}

func (b *Bridge) hostToYAML(call goja.FunctionCall) goja.Value {
	out, err := yaml.Marshal(call.Argument(0).Export())
	if err != nil {
		panic(b.throw(argError("to_yaml", err.Error())))
	}
	return b.rt.ToValue(string(out))
}

func (b *Bridge) hostToTOML(call goja.FunctionCall) goja.Value {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(call.Argument(0).Export()); err != nil {
		panic(b.throw(argError("to_toml", err.Error())))
	}
	return b.rt.ToValue(buf.String())
}

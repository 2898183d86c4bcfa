package script

import (
	"os"
	"path/filepath"

	"github.com/dop251/goja"
)

// registerFSFuncs installs the filesystem convenience helpers. No
// third-party filesystem library fits these operations, so this
// group is implemented directly on os/io/path/filepath.
func (b *Bridge) registerFSFuncs() {
	b.set("temp_dir", b.hostTempDir)
	b.set("write_file", b.hostWriteFile)
	b.set("read_file", b.hostReadFile)
	b.set("mkdir", b.hostMkdir)
	b.set("remove", b.hostRemove)
	b.set("ls", b.hostLs)
	b.set("file_exists", b.hostFileExists)
	b.set("stat", b.hostStat)
	b.set("copy", b.hostCopy)
	b.set("rename", b.hostRename)
	b.set("is_dir", b.hostIsDir)
	b.set("is_file", b.hostIsFile)
	b.set("absolute_path", b.hostAbsolutePath)
}

func (b *Bridge) hostTempDir(call goja.FunctionCall) goja.Value {
	pattern := argOrDefault(call, 0, "sam-*")
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		panic(b.throw(argError("temp_dir", err.Error())))
	}
	return b.rt.ToValue(dir)
}

func (b *Bridge) hostWriteFile(call goja.FunctionCall) goja.Value {
	path := call.Argument(0).String()
	content := call.Argument(1).String()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		panic(b.throw(argError("write_file", err.Error())))
	}
	return goja.Undefined()
}

func (b *Bridge) hostReadFile(call goja.FunctionCall) goja.Value {
	path := call.Argument(0).String()
	data, err := os.ReadFile(path)
	if err != nil {
		panic(b.throw(argError("read_file", err.Error())))
	}
	return b.rt.ToValue(string(data))
}

func (b *Bridge) hostMkdir(call goja.FunctionCall) goja.Value {
	path := call.Argument(0).String()
	if err := os.MkdirAll(path, 0o755); err != nil {
		panic(b.throw(argError("mkdir", err.Error())))
	}
	return goja.Undefined()
}

func (b *Bridge) hostRemove(call goja.FunctionCall) goja.Value {
	path := call.Argument(0).String()
	if err := os.RemoveAll(path); err != nil {
		panic(b.throw(argError("remove", err.Error())))
	}
	return goja.Undefined()
}

func (b *Bridge) hostLs(call goja.FunctionCall) goja.Value {
	path := call.Argument(0).String()
	entries, err := os.ReadDir(path)
	if err != nil {
		panic(b.throw(argError("ls", err.Error())))
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return b.rt.ToValue(names)
}

func (b *Bridge) hostFileExists(call goja.FunctionCall) goja.Value {
	path := call.Argument(0).String()
	_, err := os.Stat(path)
	return b.rt.ToValue(err == nil)
}

func (b *Bridge) hostStat(call goja.FunctionCall) goja.Value {
	path := call.Argument(0).String()
	info, err := os.Stat(path)
	if err != nil {
		panic(b.throw(argError("stat", err.Error())))
	}
	return b.rt.ToValue(map[string]interface{}{
		"name":   info.Name(),
		"size":   info.Size(),
		"is_dir": info.IsDir(),
		"mode":   info.Mode().String(),
	})
}

func (b *Bridge) hostCopy(call goja.FunctionCall) goja.Value {
	src := call.Argument(0).String()
	dst := call.Argument(1).String()
	data, err := os.ReadFile(src)
	if err != nil {
		panic(b.throw(argError("copy", err.Error())))
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		panic(b.throw(argError("copy", err.Error())))
	}
	return goja.Undefined()
}

func (b *Bridge) hostRename(call goja.FunctionCall) goja.Value {
	src := call.Argument(0).String()
	dst := call.Argument(1).String()
	if err := os.Rename(src, dst); err != nil {
		panic(b.throw(argError("rename", err.Error())))
	}
	return goja.Undefined()
}

func (b *Bridge) hostIsDir(call goja.FunctionCall) goja.Value {
	path := call.Argument(0).String()
	info, err := os.Stat(path)
	return b.rt.ToValue(err == nil && info.IsDir())
}

func (b *Bridge) hostIsFile(call goja.FunctionCall) goja.Value {
	path := call.Argument(0).String()
	info, err := os.Stat(path)
	return b.rt.ToValue(err == nil && !info.IsDir())
}

func (b *Bridge) hostAbsolutePath(call goja.FunctionCall) goja.Value {
	path := call.Argument(0).String()
	abs, err := filepath.Abs(path)
	if err != nil {
		panic(b.throw(argError("absolute_path", err.Error())))
	}
	return b.rt.ToValue(abs)
}

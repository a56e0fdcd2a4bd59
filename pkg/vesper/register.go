package vesper

import (
	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

// RegisterFunction installs fn as moduleName's global name, creating
// moduleName's globals object on first use. name must be a non-empty
// valid identifier; an empty name is a programmer error.
func (c *Context) RegisterFunction(moduleName, name string, fn heap.Native) {
	if name == "" {
		reportProgrammerError("RegisterFunction", "name must not be empty")
		return
	}
	c.SetGlobal(moduleName, name, c.vm.NewNativeFunc(name, fn))
}

// RegisterClass builds a native class with bound methods and installs it
// as moduleName's global name. methods are looked up as unbound natives;
// `self` arrives as methods[i]'s first positional argument the same way
// a script-defined method receives it, since NewUserClass's constructor
// binds `self` through the ordinary attribute-access path.
func (c *Context) RegisterClass(moduleName, name string, methods map[string]heap.Native) *heap.Object {
	if name == "" {
		reportProgrammerError("RegisterClass", "name must not be empty")
		return nil
	}
	body := heap.NewAttrTable()
	for methodName, fn := range methods {
		body.Set(methodName, c.vm.NewNativeFunc(methodName, fn))
	}
	classObj := c.vm.NewUserClass(name, moduleName, nil, body)
	c.SetGlobal(moduleName, name, classObj)
	return classObj
}

// Loader loads a module by name for `import`, in terms of the host-facing
// Context rather than the internal vm.Context. Returning an error that
// isn't already a raised exception is itself a programmer error.
type Loader interface {
	Load(ctx *Context, name string) (*heap.Object, error)
}

type loaderAdapter struct {
	host Loader
	self *Context
}

func (a *loaderAdapter) Load(_ *vm.Context, name string) (*heap.Object, error) {
	return a.host.Load(a.self, name)
}

// SetLoader replaces the module loader entirely. Hosts that still want
// the native stdlib (math/random/time/os/sys/dis/json) and file-backed
// `.vsp` resolution should delegate unrecognized names to a fresh
// internal loader of their own composition rather than reimplementing it.
func (c *Context) SetLoader(l Loader) {
	c.vm.SetLoader(&loaderAdapter{host: l, self: c})
}

// RegisterModule installs an already-built module object directly into
// the import cache under name, bypassing the Loader entirely — the
// lightest-weight way for a host to inject one extra module without
// writing a full Loader.
func (c *Context) RegisterModule(name string, build func(ctx *Context) *heap.Object) *heap.Object {
	mod := build(c)
	c.vm.RegisterModule(name, mod)
	return mod
}

package vesper

import "github.com/ochom/vesper/internal/heap"

// GetGlobal reads moduleName's global name. Returns (nil, false) if the
// module or the name doesn't exist.
func (c *Context) GetGlobal(moduleName, name string) (*heap.Object, bool) {
	mod := c.vm.ModuleGlobals(moduleName)
	if mod == nil {
		return nil, false
	}
	return mod.Attrs.Get(name)
}

// SetGlobal writes moduleName's global name, creating the module's
// globals object if this is the first write to it.
func (c *Context) SetGlobal(moduleName, name string, value *heap.Object) {
	mod := c.vm.ModuleGlobals(moduleName)
	if mod == nil {
		modObj := c.vm.NewModule(moduleName)
		c.vm.RegisterModule(moduleName, modObj)
		mod = modObj.Payload.(*heap.Module)
	}
	mod.Attrs.Set(name, value)
}

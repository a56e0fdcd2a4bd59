package vesper

import (
	"strconv"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

// Call invokes callable with positional args and optional keyword
// arguments.
func (c *Context) Call(callable *heap.Object, args []*heap.Object, kwargs *heap.Map) (*heap.Object, error) {
	return c.vm.Call(callable, args, kwargs)
}

// GetAttr/SetAttr access and mutate an object's attribute by name.
func (c *Context) GetAttr(obj *heap.Object, name string) (*heap.Object, error) {
	return c.vm.GetAttr(obj, name)
}

func (c *Context) SetAttr(obj *heap.Object, name string, value *heap.Object) {
	c.vm.SetAttr(obj, name, value)
}

// Iterate drains obj's iteration protocol fully.
func (c *Context) Iterate(obj *heap.Object) ([]*heap.Object, error) {
	return c.vm.IterateAll(obj)
}

// Unpack iterates obj and requires it to yield exactly n values, raising
// ValueError otherwise.
func (c *Context) Unpack(obj *heap.Object, n int) ([]*heap.Object, error) {
	elems, err := c.vm.IterateAll(obj)
	if err != nil {
		return nil, err
	}
	if len(elems) != n {
		c.vm.Raise(c.vm.BuiltinClass("ValueError"), "unpack: expected "+strconv.Itoa(n)+" values")
		return nil, vm.ErrRaised
	}
	return elems, nil
}

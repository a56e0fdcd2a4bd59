package vesper

import "github.com/ochom/vesper/internal/heap"

// None, Bool, Int, Float, Str, Tuple, List, Dict, Set construct primitive
// values for a host to pass into a script call.
func (c *Context) None() *heap.Object                       { return c.vm.NewNone() }
func (c *Context) Bool(v bool) *heap.Object                  { return c.vm.NewBool(v) }
func (c *Context) Int(v int64) *heap.Object                  { return c.vm.NewInt(v) }
func (c *Context) Float(v float64) *heap.Object              { return c.vm.NewFloat(v) }
func (c *Context) Str(v string) *heap.Object                 { return c.vm.NewStr(v) }
func (c *Context) Tuple(elems []*heap.Object) *heap.Object    { return c.vm.NewTuple(elems) }
func (c *Context) List(elems []*heap.Object) *heap.Object    { return c.vm.NewList(elems) }
func (c *Context) Dict(m *heap.Map) *heap.Object              { return c.vm.NewDict(m) }
func (c *Context) SetValue(s *heap.Set) *heap.Object          { return c.vm.NewSet(s) }

// Inspect reports the Go value an Object's payload carries, for the
// primitive kinds a host typically needs back. ok is false for
// non-primitive or unrecognized tags.
func Inspect(o *heap.Object) (value any, ok bool) {
	switch o.Tag {
	case heap.TagNone:
		return nil, true
	case heap.TagBool:
		return o.Payload.(bool), true
	case heap.TagInt:
		return o.Payload.(int64), true
	case heap.TagFloat:
		return o.Payload.(float64), true
	case heap.TagStr:
		return o.Payload.(string), true
	default:
		return nil, false
	}
}

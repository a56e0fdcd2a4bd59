package vm

import (
	"github.com/ochom/vesper/internal/compiler"
	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/token"
)

// RunModule executes code as the top-level body of moduleName, creating
// (or reusing) that module's globals object, and returns what code
// returns: None for a statement body (compile mode "exec"), the
// expression's value for mode "eval". Used by internal/modules for
// file-backed `.vsp` imports, by the `exec`/`compile`+`eval` built-ins,
// and by pkg/vesper's Run, so none of the three re-implements
// frame setup/trace bracketing/execStack bookkeeping callDef already does
// for function calls.
func (ctx *Context) RunModule(code *compiler.Code, moduleName string) (*heap.Object, error) {
	if _, ok := ctx.modules[moduleName]; !ok {
		ctx.modules[moduleName] = ctx.alloc(heap.TagModule, &heap.Module{Name: moduleName, Attrs: heap.NewAttrTable()})
	}
	frame := newFrame(code, moduleName)
	for _, name := range code.Locals {
		frame.cells[name] = &heap.Cell{Value: ctx.NewNone()}
	}
	ctx.execStack = append(ctx.execStack, frame)
	ctx.PushTrace(heap.TraceFrame{ModuleName: moduleName, DisplayName: "<module>"})
	result, err := ctx.run(frame)
	ctx.PopTrace()
	ctx.execStack = ctx.execStack[:len(ctx.execStack)-1]
	return result, err
}

// Module returns the registered module Object for name, or nil.
func (ctx *Context) Module(name string) *heap.Object {
	return ctx.modules[name]
}

// This file exposes the attribute/item/iteration primitives exec.go's
// opcode handlers already implement, under exported names, so
// internal/builtins and internal/modules can build native functions
// against them without reaching into vm's unexported internals (the same
// reason primitives.go grew New*/exported constructors instead of letting
// other packages call alloc directly).

// GetAttr implements GET_ATTR's algorithm against obj, usable by native
// functions like getattr()/hasattr()/repr().
func (ctx *Context) GetAttr(obj *heap.Object, name string) (*heap.Object, error) {
	return ctx.getAttr(obj, name)
}

// SetAttr implements SET_ATTR's algorithm, usable by setattr().
func (ctx *Context) SetAttr(obj *heap.Object, name string, value *heap.Object) {
	ctx.setAttr(obj, name, value)
}

// HasAttr reports whether obj resolves name without raising, clearing any
// exception GetAttr's failed lookup left set.
func (ctx *Context) HasAttr(obj *heap.Object, name string) bool {
	_, err := ctx.getAttr(obj, name)
	if err != nil {
		ctx.ClearException()
		return false
	}
	return true
}

// GetItem/SetItem implement GET_ITEM/SET_ITEM, usable by native functions
// that accept an arbitrary subscriptable argument.
func (ctx *Context) GetItem(obj, key *heap.Object) (*heap.Object, error) {
	return ctx.getItem(obj, key)
}

func (ctx *Context) SetItem(obj, key, value *heap.Object) error {
	return ctx.setItem(obj, key, value)
}

// LookupMethod resolves name on obj's attribute table without binding or
// calling it, returning (nil, false) rather than raising on a miss.
func (ctx *Context) LookupMethod(obj *heap.Object, name string) (*heap.Object, bool) {
	return lookupMethod(obj, name)
}

// IterateAll drains obj's __iter__/__next__ protocol fully into a slice,
// the same helper UNPACK_STAR uses, exposed for native functions that
// need every element up front (list()/tuple()/sorted()/sum()/...).
func (ctx *Context) IterateAll(obj *heap.Object) ([]*heap.Object, error) {
	return ctx.iterateAll(obj)
}

// NewIteratorOver is a convenience for native functions that want to
// return a lazy iterator backed by an already-materialized slice (range,
// enumerate, zip, map, filter, reversed all build one of these).
func (ctx *Context) NewIteratorOver(elems []*heap.Object) *heap.Object {
	i := 0
	return ctx.NewIterator(func() (*heap.Object, bool) {
		if i >= len(elems) {
			return nil, false
		}
		v := elems[i]
		i++
		return v, true
	})
}

// Str calls obj's __str__ (falling back to its raw String() if the tag
// has none), matching the str() built-in / print()'s formatting.
func (ctx *Context) Str(obj *heap.Object) (string, error) {
	if fn, ok := lookupMethod(obj, "__str__"); ok {
		result, err := ctx.Call(fn, []*heap.Object{obj}, nil)
		if err != nil {
			return "", err
		}
		return result.String(), nil
	}
	return obj.String(), nil
}

// Repr calls obj's __repr__, falling back to Str.
func (ctx *Context) Repr(obj *heap.Object) (string, error) {
	if fn, ok := lookupMethod(obj, "__repr__"); ok {
		result, err := ctx.Call(fn, []*heap.Object{obj}, nil)
		if err != nil {
			return "", err
		}
		return result.String(), nil
	}
	return ctx.Str(obj)
}

// Less reports whether left < right by calling left's __lt__ (falling back to the reflected
// method on right), the same dispatch compareOp uses for OpCompareOp —
// exposed so sorted()/min()/max() can order arbitrary objects.
func (ctx *Context) Less(left, right *heap.Object) (bool, error) {
	result, err := ctx.compareOp(token.LT, left, right)
	if err != nil {
		return false, err
	}
	return ctx.IsTruthy(result), nil
}

// Equal calls left's __eq__ (falling back to the reflected side), the
// same dispatch OpCompareOp uses for ==.
func (ctx *Context) Equal(left, right *heap.Object) (bool, error) {
	result, err := ctx.compareOp(token.EQ, left, right)
	if err != nil {
		return false, err
	}
	return ctx.IsTruthy(result), nil
}

// HashOf calls obj's __hash__ if it defines one, returning its int64
// result; used by dict/set built-in constructors to pre-hash keys the
// same way OpBuildDict/OpBuildSet's compiled literals do implicitly via
// heap.Map/Set's own structural hashing.
func (ctx *Context) HashOf(obj *heap.Object) (int64, bool) {
	fn, ok := lookupMethod(obj, "__hash__")
	if !ok {
		return 0, false
	}
	result, err := ctx.Call(fn, []*heap.Object{obj}, nil)
	if err != nil {
		ctx.ClearException()
		return 0, false
	}
	v, ok := asInt(result)
	return v, ok
}

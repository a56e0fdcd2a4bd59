package builtins

import (
	"os"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

// newOSModule builds the `os` stdlib module, gated behind
// ctx.Config().EnableOSAccess: every function raises OSError immediately
// when the gate is closed, so an embedding host can run untrusted scripts
// without granting filesystem access.
func newOSModule(ctx *vm.Context) *heap.Object {
	modObj := ctx.NewModule("os")
	mod := modObj.Payload.(*heap.Module)

	reg := func(name string, fn heap.Native) {
		mod.Attrs.Set(name, ctx.NewNativeFunc(name, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
			cx := c.(*vm.Context)
			if !cx.Config().EnableOSAccess {
				cx.Raise(cx.BuiltinClass("OSError"), "os."+name+"() requires EnableOSAccess")
				return nil, vm.ErrRaised
			}
			return fn(c, args, kw)
		}))
	}

	reg("getenv", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) < 1 {
			return arity(cx, "os.getenv", len(args), 1)
		}
		name, ok := args[0].Payload.(string)
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "os.getenv() requires a string")
			return nil, vm.ErrRaised
		}
		v, found := os.LookupEnv(name)
		if !found {
			if len(args) == 2 {
				return args[1], nil
			}
			return cx.NewNone(), nil
		}
		return cx.NewStr(v), nil
	})

	reg("listdir", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		path := "."
		if len(args) == 1 {
			p, ok := args[0].Payload.(string)
			if !ok {
				cx.Raise(cx.BuiltinClass("TypeError"), "os.listdir() requires a string")
				return nil, vm.ErrRaised
			}
			path = p
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			cx.Raise(cx.BuiltinClass("OSError"), err.Error())
			return nil, vm.ErrRaised
		}
		names := make([]*heap.Object, len(entries))
		for i, e := range entries {
			names[i] = cx.NewStr(e.Name())
		}
		return cx.NewList(names), nil
	})

	reg("getcwd", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		wd, err := os.Getwd()
		if err != nil {
			cx.Raise(cx.BuiltinClass("OSError"), err.Error())
			return nil, vm.ErrRaised
		}
		return cx.NewStr(wd), nil
	})

	reg("remove", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 1 {
			return arity(cx, "os.remove", len(args), 1)
		}
		path, ok := args[0].Payload.(string)
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "os.remove() requires a string")
			return nil, vm.ErrRaised
		}
		if err := os.Remove(path); err != nil {
			cx.Raise(cx.BuiltinClass("OSError"), err.Error())
			return nil, vm.ErrRaised
		}
		return cx.NewNone(), nil
	})

	reg("mkdir", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 1 {
			return arity(cx, "os.mkdir", len(args), 1)
		}
		path, ok := args[0].Payload.(string)
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "os.mkdir() requires a string")
			return nil, vm.ErrRaised
		}
		if err := os.Mkdir(path, 0o755); err != nil {
			cx.Raise(cx.BuiltinClass("OSError"), err.Error())
			return nil, vm.ErrRaised
		}
		return cx.NewNone(), nil
	})

	return modObj
}

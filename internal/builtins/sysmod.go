package builtins

import (
	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

// newSysModule builds the `sys` stdlib module: argv and exit.
func newSysModule(ctx *vm.Context) *heap.Object {
	modObj := ctx.NewModule("sys")
	mod := modObj.Payload.(*heap.Module)

	argv := make([]*heap.Object, len(ctx.Config().Argv))
	for i, a := range ctx.Config().Argv {
		argv[i] = ctx.NewStr(a)
	}
	mod.Attrs.Set("argv", ctx.NewList(argv))

	mod.Attrs.Set("exit", ctx.NewNativeFunc("exit", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		msg := ""
		if len(args) == 1 {
			msg, _ = cx.Str(args[0])
		}
		cx.Raise(cx.BuiltinClass("SystemExit"), msg)
		return nil, vm.ErrRaised
	}))

	return modObj
}

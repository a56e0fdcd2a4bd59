// Package builtins populates __builtins__: the free-function surface,
// the exception class names, and the native stdlib modules
// (math/random/time/os/sys/dis/json), one file per concern.
package builtins

import (
	"strconv"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

// reg is the shared "register a native function under name" closure every
// install* helper in this package receives.
type reg func(name string, fn heap.Native)

// Install builds the __builtins__ module, registers it on ctx, and
// returns it. Must run once per Context, after vm.NewContext (which
// already set up the exception hierarchy and primitive type templates)
// and before any script code runs: __builtins__ is never imported the
// normal way, so it must already exist.
func Install(ctx *vm.Context) *heap.Object {
	modObj := ctx.NewModule("__builtins__")
	mod := modObj.Payload.(*heap.Module)
	ctx.RegisterModule("__builtins__", modObj)

	r := reg(func(name string, fn heap.Native) {
		mod.Attrs.Set(name, ctx.NewNativeFunc(name, fn))
	})

	installExceptionNames(ctx, mod)
	installConvert(ctx, r)
	installIter(ctx, r)
	installNumeric(ctx, r)
	installMeta(ctx, r)

	return modObj
}

// installExceptionNames exposes every registered exception class under
// its own name in __builtins__'s attribute table, in addition to the
// ctx.BuiltinClass registry vm itself consults: script code resolves
// `except ValueError` through an ordinary LOAD_GLOBAL/LOAD_BUILTIN, which
// falls back to __builtins__.Attrs, not to ctx.BuiltinClass directly.
func installExceptionNames(ctx *vm.Context, mod *heap.Module) {
	for _, entry := range heap.ExceptionHierarchy {
		mod.Attrs.Set(entry.Name, ctx.BuiltinClass(entry.Name))
	}
}

// arity raises TypeError for a native function called with the wrong
// number of positional arguments, mirroring arityError's message shape
// for user functions.
func arity(ctx *vm.Context, name string, got, want int) (*heap.Object, error) {
	_ = got
	ctx.Raise(ctx.BuiltinClass("TypeError"), name+"() takes exactly "+strconv.Itoa(want)+" argument(s)")
	return nil, vm.ErrRaised
}

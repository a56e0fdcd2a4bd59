package builtins

import (
	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

// newRandomModule builds the `random` stdlib module. Every function draws
// from ctx.Rand() so each Context owns an independent stream rather than
// sharing process-global random state.
func newRandomModule(ctx *vm.Context) *heap.Object {
	modObj := ctx.NewModule("random")
	mod := modObj.Payload.(*heap.Module)
	reg := func(name string, fn heap.Native) { mod.Attrs.Set(name, ctx.NewNativeFunc(name, fn)) }

	reg("random", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		return cx.NewFloat(cx.Rand().Float64()), nil
	})

	reg("seed", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 1 {
			return arity(cx, "random.seed", len(args), 1)
		}
		n, ok := args[0].Payload.(int64)
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "random.seed() requires an int")
			return nil, vm.ErrRaised
		}
		cx.SeedRand(n)
		return cx.NewNone(), nil
	})

	reg("randint", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 2 {
			return arity(cx, "random.randint", len(args), 2)
		}
		lo, ok1 := args[0].Payload.(int64)
		hi, ok2 := args[1].Payload.(int64)
		if !ok1 || !ok2 || hi < lo {
			cx.Raise(cx.BuiltinClass("ValueError"), "random.randint() requires lo <= hi")
			return nil, vm.ErrRaised
		}
		return cx.NewInt(lo + cx.Rand().Int63n(hi-lo+1)), nil
	})

	reg("uniform", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 2 {
			return arity(cx, "random.uniform", len(args), 2)
		}
		lo, ok1 := asFloatArg(args[0])
		hi, ok2 := asFloatArg(args[1])
		if !ok1 || !ok2 {
			cx.Raise(cx.BuiltinClass("TypeError"), "random.uniform() requires numbers")
			return nil, vm.ErrRaised
		}
		return cx.NewFloat(lo + cx.Rand().Float64()*(hi-lo)), nil
	})

	reg("choice", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 1 {
			return arity(cx, "random.choice", len(args), 1)
		}
		elems, err := cx.IterateAll(args[0])
		if err != nil {
			return nil, err
		}
		if len(elems) == 0 {
			cx.Raise(cx.BuiltinClass("IndexError"), "random.choice() from an empty sequence")
			return nil, vm.ErrRaised
		}
		return elems[cx.Rand().Intn(len(elems))], nil
	})

	reg("shuffle", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 1 {
			return arity(cx, "random.shuffle", len(args), 1)
		}
		list, ok := args[0].Payload.(*heap.List)
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "random.shuffle() requires a list")
			return nil, vm.ErrRaised
		}
		cx.Rand().Shuffle(len(list.Elems), func(i, j int) {
			list.Elems[i], list.Elems[j] = list.Elems[j], list.Elems[i]
		})
		return cx.NewNone(), nil
	})

	return modObj
}

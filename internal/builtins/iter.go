package builtins

import (
	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

// installIter registers the iteration-protocol free functions: range,
// enumerate, zip, map, filter, reversed, sorted, iter, next, sum, min,
// max, all, any, len. Every function that "returns an iterator" in Python
// here materializes its source eagerly via IterateAll and wraps the
// result with NewIteratorOver; Vesper has no lazy generator objects, only
// the built-in sequence protocol itself needs to be lazy-shaped for
// `for`'s desugared __next__ calls to work.
func installIter(ctx *vm.Context, r reg) {
	r("len", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 1 {
			return arity(cx, "len", len(args), 1)
		}
		fn, ok := cx.LookupMethod(args[0], "__len__")
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "object of type '"+string(args[0].Tag)+"' has no len()")
			return nil, vm.ErrRaised
		}
		return cx.Call(fn, []*heap.Object{args[0]}, nil)
	})

	r("range", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		var start, stop, step int64 = 0, 0, 1
		switch len(args) {
		case 1:
			stop = mustInt(args[0])
		case 2:
			start, stop = mustInt(args[0]), mustInt(args[1])
		case 3:
			start, stop, step = mustInt(args[0]), mustInt(args[1]), mustInt(args[2])
		default:
			return arity(cx, "range", len(args), 1)
		}
		if step == 0 {
			cx.Raise(cx.BuiltinClass("ValueError"), "range() arg 3 must not be zero")
			return nil, vm.ErrRaised
		}
		var elems []*heap.Object
		if step > 0 {
			for i := start; i < stop; i += step {
				elems = append(elems, cx.NewInt(i))
			}
		} else {
			for i := start; i > stop; i += step {
				elems = append(elems, cx.NewInt(i))
			}
		}
		return cx.NewIteratorOver(elems), nil
	})

	r("enumerate", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) < 1 {
			return arity(cx, "enumerate", len(args), 1)
		}
		start := int64(0)
		if len(args) > 1 {
			start = mustInt(args[1])
		}
		elems, err := cx.IterateAll(args[0])
		if err != nil {
			return nil, err
		}
		out := make([]*heap.Object, len(elems))
		for i, e := range elems {
			out[i] = cx.NewTuple([]*heap.Object{cx.NewInt(start + int64(i)), e})
		}
		return cx.NewIteratorOver(out), nil
	})

	r("zip", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		seqs := make([][]*heap.Object, len(args))
		minLen := -1
		for i, a := range args {
			elems, err := cx.IterateAll(a)
			if err != nil {
				return nil, err
			}
			seqs[i] = elems
			if minLen < 0 || len(elems) < minLen {
				minLen = len(elems)
			}
		}
		if minLen < 0 {
			minLen = 0
		}
		out := make([]*heap.Object, minLen)
		for i := 0; i < minLen; i++ {
			tup := make([]*heap.Object, len(seqs))
			for j, s := range seqs {
				tup[j] = s[i]
			}
			out[i] = cx.NewTuple(tup)
		}
		return cx.NewIteratorOver(out), nil
	})

	r("map", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) < 2 {
			return arity(cx, "map", len(args), 2)
		}
		fn := args[0]
		seqs := make([][]*heap.Object, len(args)-1)
		minLen := -1
		for i, a := range args[1:] {
			elems, err := cx.IterateAll(a)
			if err != nil {
				return nil, err
			}
			seqs[i] = elems
			if minLen < 0 || len(elems) < minLen {
				minLen = len(elems)
			}
		}
		if minLen < 0 {
			minLen = 0
		}
		out := make([]*heap.Object, minLen)
		for i := 0; i < minLen; i++ {
			callArgs := make([]*heap.Object, len(seqs))
			for j, s := range seqs {
				callArgs[j] = s[i]
			}
			v, err := cx.Call(fn, callArgs, nil)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return cx.NewIteratorOver(out), nil
	})

	r("filter", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 2 {
			return arity(cx, "filter", len(args), 2)
		}
		elems, err := cx.IterateAll(args[1])
		if err != nil {
			return nil, err
		}
		var out []*heap.Object
		for _, e := range elems {
			keep := false
			if args[0].Tag == heap.TagNone {
				keep = cx.IsTruthy(e)
			} else {
				v, err := cx.Call(args[0], []*heap.Object{e}, nil)
				if err != nil {
					return nil, err
				}
				keep = cx.IsTruthy(v)
			}
			if keep {
				out = append(out, e)
			}
		}
		return cx.NewIteratorOver(out), nil
	})

	r("reversed", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 1 {
			return arity(cx, "reversed", len(args), 1)
		}
		elems, err := cx.IterateAll(args[0])
		if err != nil {
			return nil, err
		}
		out := make([]*heap.Object, len(elems))
		for i, e := range elems {
			out[len(elems)-1-i] = e
		}
		return cx.NewIteratorOver(out), nil
	})

	r("sorted", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) < 1 {
			return arity(cx, "sorted", len(args), 1)
		}
		elems, err := cx.IterateAll(args[0])
		if err != nil {
			return nil, err
		}
		var key *heap.Object
		reverse := false
		if kw != nil {
			if v, ok := kw.Get(strKey("key")); ok && v.Tag != heap.TagNone {
				key = v
			}
			if v, ok := kw.Get(strKey("reverse")); ok {
				reverse = cx.IsTruthy(v)
			}
		}
		sorted, err := sortBy(cx, elems, key)
		if err != nil {
			return nil, err
		}
		if reverse {
			for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
		return cx.NewList(sorted), nil
	})

	r("iter", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 1 {
			return arity(cx, "iter", len(args), 1)
		}
		fn, ok := cx.LookupMethod(args[0], "__iter__")
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "'"+string(args[0].Tag)+"' object is not iterable")
			return nil, vm.ErrRaised
		}
		return cx.Call(fn, []*heap.Object{args[0]}, nil)
	})

	r("next", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) < 1 {
			return arity(cx, "next", len(args), 1)
		}
		fn, ok := cx.LookupMethod(args[0], "__next__")
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "'"+string(args[0].Tag)+"' object is not an iterator")
			return nil, vm.ErrRaised
		}
		v, err := cx.Call(fn, []*heap.Object{args[0]}, nil)
		if err != nil {
			if len(args) > 1 && cx.CurrentException() != nil && vm.IsInstanceOf(cx.CurrentException(), cx.BuiltinClass("StopIteration")) {
				cx.ClearException()
				return args[1], nil
			}
			return nil, err
		}
		return v, nil
	})

	r("sum", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) < 1 {
			return arity(cx, "sum", len(args), 1)
		}
		elems, err := cx.IterateAll(args[0])
		if err != nil {
			return nil, err
		}
		var total *heap.Object
		if len(args) > 1 {
			total = args[1]
		} else {
			total = cx.NewInt(0)
		}
		for _, e := range elems {
			fn, ok := cx.LookupMethod(total, "__add__")
			if !ok {
				cx.Raise(cx.BuiltinClass("TypeError"), "unsupported operand type for +")
				return nil, vm.ErrRaised
			}
			total, err = cx.Call(fn, []*heap.Object{total, e}, nil)
			if err != nil {
				return nil, err
			}
		}
		return total, nil
	})

	installExtremum(ctx, r, "min", func(less bool) bool { return less })
	installExtremum(ctx, r, "max", func(less bool) bool { return !less })

	r("all", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		elems, err := cx.IterateAll(args[0])
		if err != nil {
			return nil, err
		}
		for _, e := range elems {
			if !cx.IsTruthy(e) {
				return cx.NewBool(false), nil
			}
		}
		return cx.NewBool(true), nil
	})
	r("any", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		elems, err := cx.IterateAll(args[0])
		if err != nil {
			return nil, err
		}
		for _, e := range elems {
			if cx.IsTruthy(e) {
				return cx.NewBool(true), nil
			}
		}
		return cx.NewBool(false), nil
	})
}

// installExtremum shares min()/max()'s identical shape: both take either
// a single iterable or several positional arguments, optionally compared
// by a `key=` callback, differing only in which side of Less wins.
func installExtremum(ctx *vm.Context, r reg, name string, wantsLess func(less bool) bool) {
	r(name, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		var elems []*heap.Object
		if len(args) == 1 {
			es, err := cx.IterateAll(args[0])
			if err != nil {
				return nil, err
			}
			elems = es
		} else {
			elems = args
		}
		if len(elems) == 0 {
			cx.Raise(cx.BuiltinClass("ValueError"), name+"() arg is an empty sequence")
			return nil, vm.ErrRaised
		}
		var key *heap.Object
		if kw != nil {
			if v, ok := kw.Get(strKey("key")); ok && v.Tag != heap.TagNone {
				key = v
			}
		}
		best := elems[0]
		bestKey := best
		if key != nil {
			v, err := cx.Call(key, []*heap.Object{best}, nil)
			if err != nil {
				return nil, err
			}
			bestKey = v
		}
		for _, e := range elems[1:] {
			k := e
			if key != nil {
				v, err := cx.Call(key, []*heap.Object{e}, nil)
				if err != nil {
					return nil, err
				}
				k = v
			}
			less, err := cx.Less(k, bestKey)
			if err != nil {
				return nil, err
			}
			if wantsLess(less) {
				best, bestKey = e, k
			}
		}
		return best, nil
	})
}

func mustInt(o *heap.Object) int64 {
	if v, ok := o.Payload.(int64); ok {
		return v
	}
	if v, ok := o.Payload.(bool); ok {
		if v {
			return 1
		}
		return 0
	}
	return 0
}

func strKey(s string) *heap.Object { return &heap.Object{Tag: heap.TagStr, Payload: s} }

// sortBy implements a stable insertion sort driven by
// cx.Less, used instead of Go's sort.Slice so a panic from a
// user-supplied comparison can't escape as a Go panic (any error from
// ctx.Less/key propagates as a proper script exception).
func sortBy(cx *vm.Context, elems []*heap.Object, key *heap.Object) ([]*heap.Object, error) {
	keyed := make([]*heap.Object, len(elems))
	if key != nil {
		for i, e := range elems {
			v, err := cx.Call(key, []*heap.Object{e}, nil)
			if err != nil {
				return nil, err
			}
			keyed[i] = v
		}
	} else {
		copy(keyed, elems)
	}
	out := append([]*heap.Object(nil), elems...)
	outKeys := append([]*heap.Object(nil), keyed...)
	var sortErr error
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 {
			less, err := cx.Less(outKeys[j], outKeys[j-1])
			if err != nil {
				sortErr = err
				break
			}
			if !less {
				break
			}
			out[j], out[j-1] = out[j-1], out[j]
			outKeys[j], outKeys[j-1] = outKeys[j-1], outKeys[j]
			j--
		}
		if sortErr != nil {
			return nil, sortErr
		}
	}
	return out, nil
}

package builtins

import (
	"testing"

	"github.com/ochom/vesper/internal/heap"
)

func iterateAllInts(t *testing.T, ctx interface {
	IterateAll(*heap.Object) ([]*heap.Object, error)
}, o *heap.Object) []int64 {
	t.Helper()
	elems, err := ctx.IterateAll(o)
	if err != nil {
		t.Fatalf("IterateAll: %v", err)
	}
	out := make([]int64, len(elems))
	for i, e := range elems {
		out[i] = e.Payload.(int64)
	}
	return out
}

func TestLenAndRange(t *testing.T) {
	ctx, mod := newTestContext(t)

	rangeFn := get(t, mod, "range")
	r, err := ctx.Call(rangeFn, []*heap.Object{ctx.NewInt(0), ctx.NewInt(5), ctx.NewInt(2)}, nil)
	if err != nil {
		t.Fatalf("range(0, 5, 2): %v", err)
	}
	got := iterateAllInts(t, ctx, r)
	want := []int64{0, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("range result = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("range result = %v, want %v", got, want)
		}
	}

	lenFn := get(t, mod, "len")
	lst := ctx.NewList([]*heap.Object{ctx.NewInt(1), ctx.NewInt(2), ctx.NewInt(3)})
	n, err := ctx.Call(lenFn, []*heap.Object{lst}, nil)
	if err != nil || n.Payload.(int64) != 3 {
		t.Fatalf("len([1,2,3]) = %v, %v", n, err)
	}
}

func TestEnumerateZipMapFilter(t *testing.T) {
	ctx, mod := newTestContext(t)

	seq := ctx.NewList([]*heap.Object{ctx.NewInt(10), ctx.NewInt(20)})

	enumFn := get(t, mod, "enumerate")
	r, err := ctx.Call(enumFn, []*heap.Object{seq}, nil)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	pairs, _ := ctx.IterateAll(r)
	if len(pairs) != 2 {
		t.Fatalf("enumerate length = %d", len(pairs))
	}
	first := pairs[0].Payload.(*heap.Tuple).Elems
	if first[0].Payload.(int64) != 0 || first[1].Payload.(int64) != 10 {
		t.Fatalf("enumerate first pair = %v", first)
	}

	zipFn := get(t, mod, "zip")
	other := ctx.NewList([]*heap.Object{ctx.NewInt(1), ctx.NewInt(2), ctx.NewInt(3)})
	r, err = ctx.Call(zipFn, []*heap.Object{seq, other}, nil)
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	zipped, _ := ctx.IterateAll(r)
	if len(zipped) != 2 {
		t.Fatalf("zip truncates to shortest: got %d want 2", len(zipped))
	}

	filterFn := get(t, mod, "filter")
	nums := ctx.NewList([]*heap.Object{ctx.NewInt(0), ctx.NewInt(1), ctx.NewInt(2)})
	r, err = ctx.Call(filterFn, []*heap.Object{ctx.NewNone(), nums}, nil)
	if err != nil {
		t.Fatalf("filter(None, ...): %v", err)
	}
	kept := iterateAllInts(t, ctx, r)
	if len(kept) != 2 || kept[0] != 1 || kept[1] != 2 {
		t.Fatalf("filter(None, [0,1,2]) = %v, want [1 2]", kept)
	}
}

func TestSortedReversedMinMax(t *testing.T) {
	ctx, mod := newTestContext(t)

	nums := ctx.NewList([]*heap.Object{ctx.NewInt(3), ctx.NewInt(1), ctx.NewInt(2)})

	sortedFn := get(t, mod, "sorted")
	r, err := ctx.Call(sortedFn, []*heap.Object{nums}, nil)
	if err != nil {
		t.Fatalf("sorted: %v", err)
	}
	elems, _ := ctx.IterateAll(r)
	if elems[0].Payload.(int64) != 1 || elems[1].Payload.(int64) != 2 || elems[2].Payload.(int64) != 3 {
		t.Fatalf("sorted([3,1,2]) wrong order")
	}

	reversedFn := get(t, mod, "reversed")
	r, err = ctx.Call(reversedFn, []*heap.Object{nums}, nil)
	if err != nil {
		t.Fatalf("reversed: %v", err)
	}
	rev := iterateAllInts(t, ctx, r)
	if rev[0] != 2 || rev[2] != 3 {
		t.Fatalf("reversed([3,1,2]) = %v", rev)
	}

	minFn, maxFn := get(t, mod, "min"), get(t, mod, "max")
	if r, err := ctx.Call(minFn, []*heap.Object{nums}, nil); err != nil || r.Payload.(int64) != 1 {
		t.Fatalf("min([3,1,2]) = %v, %v", r, err)
	}
	if r, err := ctx.Call(maxFn, []*heap.Object{nums}, nil); err != nil || r.Payload.(int64) != 3 {
		t.Fatalf("max([3,1,2]) = %v, %v", r, err)
	}
}

func TestSumAllAny(t *testing.T) {
	ctx, mod := newTestContext(t)

	nums := ctx.NewList([]*heap.Object{ctx.NewInt(1), ctx.NewInt(2), ctx.NewInt(3)})
	sumFn := get(t, mod, "sum")
	r, err := ctx.Call(sumFn, []*heap.Object{nums}, nil)
	if err != nil || r.Payload.(int64) != 6 {
		t.Fatalf("sum([1,2,3]) = %v, %v", r, err)
	}

	truthy := ctx.NewList([]*heap.Object{ctx.NewBool(true), ctx.NewBool(true)})
	mixed := ctx.NewList([]*heap.Object{ctx.NewBool(true), ctx.NewBool(false)})

	allFn, anyFn := get(t, mod, "all"), get(t, mod, "any")
	if r, err := ctx.Call(allFn, []*heap.Object{truthy}, nil); err != nil || r.Payload.(bool) != true {
		t.Fatalf("all([True, True]) = %v, %v", r, err)
	}
	if r, err := ctx.Call(allFn, []*heap.Object{mixed}, nil); err != nil || r.Payload.(bool) != false {
		t.Fatalf("all([True, False]) = %v, %v", r, err)
	}
	if r, err := ctx.Call(anyFn, []*heap.Object{mixed}, nil); err != nil || r.Payload.(bool) != true {
		t.Fatalf("any([True, False]) = %v, %v", r, err)
	}
}

func TestIterNextWithDefault(t *testing.T) {
	ctx, mod := newTestContext(t)

	iterFn, nextFn := get(t, mod, "iter"), get(t, mod, "next")
	lst := ctx.NewList([]*heap.Object{ctx.NewInt(1)})

	it, err := ctx.Call(iterFn, []*heap.Object{lst}, nil)
	if err != nil {
		t.Fatalf("iter: %v", err)
	}
	v, err := ctx.Call(nextFn, []*heap.Object{it}, nil)
	if err != nil || v.Payload.(int64) != 1 {
		t.Fatalf("next(it) = %v, %v", v, err)
	}

	fallback, err := ctx.Call(nextFn, []*heap.Object{it, ctx.NewStr("done")}, nil)
	if err != nil {
		t.Fatalf("next(it, default) after exhaustion should not error: %v", err)
	}
	if fallback.Payload.(string) != "done" {
		t.Fatalf("next(it, default) = %v", fallback.Payload)
	}
}

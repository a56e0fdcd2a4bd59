package builtins

import (
	"testing"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

func newRandomTestModule(t *testing.T) (*vm.Context, *heap.Module) {
	t.Helper()
	ctx := vm.NewContext(vm.DefaultConfig())
	modObj := newRandomModule(ctx)
	return ctx, modObj.Payload.(*heap.Module)
}

func TestRandomSeedIsDeterministic(t *testing.T) {
	ctx, mod := newRandomTestModule(t)
	seedFn, randintFn := get(t, mod, "seed"), get(t, mod, "randint")

	if _, err := ctx.Call(seedFn, []*heap.Object{ctx.NewInt(42)}, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}
	a, err := ctx.Call(randintFn, []*heap.Object{ctx.NewInt(1), ctx.NewInt(1000000)}, nil)
	if err != nil {
		t.Fatalf("randint: %v", err)
	}

	if _, err := ctx.Call(seedFn, []*heap.Object{ctx.NewInt(42)}, nil); err != nil {
		t.Fatalf("seed again: %v", err)
	}
	b, err := ctx.Call(randintFn, []*heap.Object{ctx.NewInt(1), ctx.NewInt(1000000)}, nil)
	if err != nil {
		t.Fatalf("randint again: %v", err)
	}

	if a.Payload.(int64) != b.Payload.(int64) {
		t.Fatalf("same seed produced different values: %v != %v", a.Payload, b.Payload)
	}
}

func TestRandomChoiceFromEmptyRaisesIndexError(t *testing.T) {
	ctx, mod := newRandomTestModule(t)
	choiceFn := get(t, mod, "choice")

	_, err := ctx.Call(choiceFn, []*heap.Object{ctx.NewList(nil)}, nil)
	if err == nil {
		t.Fatal("expected an error for choice() from empty sequence")
	}
	exc := ctx.CurrentException()
	if exc == nil || string(exc.Tag) != "IndexError" {
		t.Fatalf("exception = %v, want IndexError", exc)
	}
}

func TestRandomShuffleIsInPlace(t *testing.T) {
	ctx, mod := newRandomTestModule(t)
	shuffleFn := get(t, mod, "shuffle")

	lst := ctx.NewList([]*heap.Object{ctx.NewInt(1), ctx.NewInt(2), ctx.NewInt(3), ctx.NewInt(4), ctx.NewInt(5)})
	if _, err := ctx.Call(shuffleFn, []*heap.Object{lst}, nil); err != nil {
		t.Fatalf("shuffle: %v", err)
	}
	elems, err := ctx.IterateAll(lst)
	if err != nil || len(elems) != 5 {
		t.Fatalf("shuffle changed length: %v, %v", elems, err)
	}
}

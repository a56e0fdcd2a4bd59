package builtins

import (
	"testing"

	"github.com/ochom/vesper/internal/heap"
)

func TestAbsDivmodPowRound(t *testing.T) {
	ctx, mod := newTestContext(t)

	absFn := get(t, mod, "abs")
	if r, err := ctx.Call(absFn, []*heap.Object{ctx.NewInt(-5)}, nil); err != nil || r.Payload.(int64) != 5 {
		t.Fatalf("abs(-5) = %v, %v", r, err)
	}

	divmodFn := get(t, mod, "divmod")
	r, err := ctx.Call(divmodFn, []*heap.Object{ctx.NewInt(7), ctx.NewInt(2)}, nil)
	if err != nil {
		t.Fatalf("divmod(7, 2): %v", err)
	}
	elems := r.Payload.(*heap.Tuple).Elems
	if len(elems) != 2 || elems[0].Payload.(int64) != 3 || elems[1].Payload.(int64) != 1 {
		t.Fatalf("divmod(7, 2) = %v", elems)
	}

	powFn := get(t, mod, "pow")
	if r, err := ctx.Call(powFn, []*heap.Object{ctx.NewInt(2), ctx.NewInt(10)}, nil); err != nil || r.Payload.(int64) != 1024 {
		t.Fatalf("pow(2, 10) = %v, %v", r, err)
	}

	roundFn := get(t, mod, "round")
	if r, err := ctx.Call(roundFn, []*heap.Object{ctx.NewFloat(2.5)}, nil); err != nil || r.Payload.(int64) != 2 {
		t.Fatalf("round(2.5) = %v, %v (want banker's rounding to 2)", r, err)
	}
}

func TestBinHexOctOrdChr(t *testing.T) {
	ctx, mod := newTestContext(t)

	if r, err := ctx.Call(get(t, mod, "bin"), []*heap.Object{ctx.NewInt(5)}, nil); err != nil || r.Payload.(string) != "0b101" {
		t.Fatalf("bin(5) = %v, %v", r, err)
	}
	if r, err := ctx.Call(get(t, mod, "hex"), []*heap.Object{ctx.NewInt(255)}, nil); err != nil || r.Payload.(string) != "0xff" {
		t.Fatalf("hex(255) = %v, %v", r, err)
	}
	if r, err := ctx.Call(get(t, mod, "oct"), []*heap.Object{ctx.NewInt(8)}, nil); err != nil || r.Payload.(string) != "0o10" {
		t.Fatalf("oct(8) = %v, %v", r, err)
	}
	if r, err := ctx.Call(get(t, mod, "ord"), []*heap.Object{ctx.NewStr("A")}, nil); err != nil || r.Payload.(int64) != 65 {
		t.Fatalf("ord('A') = %v, %v", r, err)
	}
	if r, err := ctx.Call(get(t, mod, "chr"), []*heap.Object{ctx.NewInt(65)}, nil); err != nil || r.Payload.(string) != "A" {
		t.Fatalf("chr(65) = %v, %v", r, err)
	}
}

func TestHashStableForEqualInts(t *testing.T) {
	ctx, mod := newTestContext(t)
	hashFn := get(t, mod, "hash")

	a, err := ctx.Call(hashFn, []*heap.Object{ctx.NewInt(7)}, nil)
	if err != nil {
		t.Fatalf("hash(7): %v", err)
	}
	b, err := ctx.Call(hashFn, []*heap.Object{ctx.NewInt(7)}, nil)
	if err != nil {
		t.Fatalf("hash(7) again: %v", err)
	}
	if a.Payload.(int64) != b.Payload.(int64) {
		t.Fatalf("hash(7) not stable: %v != %v", a.Payload, b.Payload)
	}
}

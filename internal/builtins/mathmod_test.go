package builtins

import (
	"math"
	"testing"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

func newMathTestModule(t *testing.T) (*vm.Context, *heap.Module) {
	t.Helper()
	ctx := vm.NewContext(vm.DefaultConfig())
	Install(ctx)
	modObj := newMathModule(ctx)
	return ctx, modObj.Payload.(*heap.Module)
}

func TestMathConstants(t *testing.T) {
	ctx, mod := newMathTestModule(t)
	pi, ok := mod.Attrs.Get("pi")
	if !ok || pi.Payload.(float64) != math.Pi {
		t.Fatalf("math.pi = %v", pi)
	}
	_ = ctx
}

func TestMathUnaryAndBinary(t *testing.T) {
	ctx, mod := newMathTestModule(t)

	sqrtFn := get(t, mod, "sqrt")
	r, err := ctx.Call(sqrtFn, []*heap.Object{ctx.NewFloat(9)}, nil)
	if err != nil || r.Payload.(float64) != 3 {
		t.Fatalf("math.sqrt(9) = %v, %v", r, err)
	}

	hypotFn := get(t, mod, "hypot")
	r, err = ctx.Call(hypotFn, []*heap.Object{ctx.NewFloat(3), ctx.NewFloat(4)}, nil)
	if err != nil || r.Payload.(float64) != 5 {
		t.Fatalf("math.hypot(3, 4) = %v, %v", r, err)
	}

	gcdFn := get(t, mod, "gcd")
	r, err = ctx.Call(gcdFn, []*heap.Object{ctx.NewInt(12), ctx.NewInt(18)}, nil)
	if err != nil || r.Payload.(int64) != 6 {
		t.Fatalf("math.gcd(12, 18) = %v, %v", r, err)
	}

	isnanFn := get(t, mod, "isnan")
	r, err = ctx.Call(isnanFn, []*heap.Object{ctx.NewFloat(math.NaN())}, nil)
	if err != nil || r.Payload.(bool) != true {
		t.Fatalf("math.isnan(nan) = %v, %v", r, err)
	}
}

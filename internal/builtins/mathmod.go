package builtins

import (
	"math"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

// newMathModule builds the `math` stdlib module: the trig/log/rounding
// free functions plus the constants math.pi/math.e/math.inf/math.nan.
func newMathModule(ctx *vm.Context) *heap.Object {
	modObj := ctx.NewModule("math")
	mod := modObj.Payload.(*heap.Module)
	set := func(name string, v *heap.Object) { mod.Attrs.Set(name, v) }
	reg := func(name string, fn heap.Native) { mod.Attrs.Set(name, ctx.NewNativeFunc(name, fn)) }

	set("pi", ctx.NewFloat(math.Pi))
	set("e", ctx.NewFloat(math.E))
	set("inf", ctx.NewFloat(math.Inf(1)))
	set("nan", ctx.NewFloat(math.NaN()))
	set("tau", ctx.NewFloat(2*math.Pi))

	unary := func(name string, fn func(float64) float64) {
		reg(name, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
			cx := c.(*vm.Context)
			if len(args) != 1 {
				return arity(cx, "math."+name, len(args), 1)
			}
			f, ok := asFloatArg(args[0])
			if !ok {
				cx.Raise(cx.BuiltinClass("TypeError"), "math."+name+"() requires a number")
				return nil, vm.ErrRaised
			}
			return cx.NewFloat(fn(f)), nil
		})
	}

	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("asin", math.Asin)
	unary("acos", math.Acos)
	unary("atan", math.Atan)
	unary("sinh", math.Sinh)
	unary("cosh", math.Cosh)
	unary("tanh", math.Tanh)
	unary("exp", math.Exp)
	unary("log10", math.Log10)
	unary("log2", math.Log2)
	unary("sqrt", math.Sqrt)
	unary("ceil", math.Ceil)
	unary("floor", math.Floor)
	unary("trunc", math.Trunc)
	unary("degrees", func(r float64) float64 { return r * 180 / math.Pi })
	unary("radians", func(d float64) float64 { return d * math.Pi / 180 })

	reg("log", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) < 1 {
			return arity(cx, "math.log", len(args), 1)
		}
		x, ok := asFloatArg(args[0])
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "math.log() requires a number")
			return nil, vm.ErrRaised
		}
		if len(args) == 2 {
			base, ok := asFloatArg(args[1])
			if !ok {
				cx.Raise(cx.BuiltinClass("TypeError"), "math.log() requires a number")
				return nil, vm.ErrRaised
			}
			return cx.NewFloat(math.Log(x) / math.Log(base)), nil
		}
		return cx.NewFloat(math.Log(x)), nil
	})

	reg("atan2", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 2 {
			return arity(cx, "math.atan2", len(args), 2)
		}
		y, ok1 := asFloatArg(args[0])
		x, ok2 := asFloatArg(args[1])
		if !ok1 || !ok2 {
			cx.Raise(cx.BuiltinClass("TypeError"), "math.atan2() requires numbers")
			return nil, vm.ErrRaised
		}
		return cx.NewFloat(math.Atan2(y, x)), nil
	})

	reg("pow", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 2 {
			return arity(cx, "math.pow", len(args), 2)
		}
		x, ok1 := asFloatArg(args[0])
		y, ok2 := asFloatArg(args[1])
		if !ok1 || !ok2 {
			cx.Raise(cx.BuiltinClass("TypeError"), "math.pow() requires numbers")
			return nil, vm.ErrRaised
		}
		return cx.NewFloat(math.Pow(x, y)), nil
	})

	reg("hypot", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 2 {
			return arity(cx, "math.hypot", len(args), 2)
		}
		x, ok1 := asFloatArg(args[0])
		y, ok2 := asFloatArg(args[1])
		if !ok1 || !ok2 {
			cx.Raise(cx.BuiltinClass("TypeError"), "math.hypot() requires numbers")
			return nil, vm.ErrRaised
		}
		return cx.NewFloat(math.Hypot(x, y)), nil
	})

	reg("isnan", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		f, _ := asFloatArg(args[0])
		return cx.NewBool(math.IsNaN(f)), nil
	})
	reg("isinf", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		f, _ := asFloatArg(args[0])
		return cx.NewBool(math.IsInf(f, 0)), nil
	})

	reg("gcd", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 2 {
			return arity(cx, "math.gcd", len(args), 2)
		}
		a, ok1 := args[0].Payload.(int64)
		b, ok2 := args[1].Payload.(int64)
		if !ok1 || !ok2 {
			cx.Raise(cx.BuiltinClass("TypeError"), "math.gcd() requires ints")
			return nil, vm.ErrRaised
		}
		if a < 0 {
			a = -a
		}
		if b < 0 {
			b = -b
		}
		for b != 0 {
			a, b = b, a%b
		}
		return cx.NewInt(a), nil
	})

	return modObj
}

package builtins

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

// installNumeric registers the numeric/textual free functions: abs,
// divmod, pow, round, bin, hex, oct, ord, chr, hash, id.
func installNumeric(ctx *vm.Context, r reg) {
	r("abs", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 1 {
			return arity(cx, "abs", len(args), 1)
		}
		switch args[0].Tag {
		case heap.TagInt:
			v := args[0].Payload.(int64)
			if v < 0 {
				v = -v
			}
			return cx.NewInt(v), nil
		case heap.TagFloat:
			return cx.NewFloat(math.Abs(args[0].Payload.(float64))), nil
		case heap.TagBool:
			if args[0].Payload.(bool) {
				return cx.NewInt(1), nil
			}
			return cx.NewInt(0), nil
		}
		cx.Raise(cx.BuiltinClass("TypeError"), "bad operand type for abs()")
		return nil, vm.ErrRaised
	})

	r("divmod", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 2 {
			return arity(cx, "divmod", len(args), 2)
		}
		floordiv, ok := cx.LookupMethod(args[0], "__floordiv__")
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "unsupported operand type for divmod()")
			return nil, vm.ErrRaised
		}
		mod, ok := cx.LookupMethod(args[0], "__mod__")
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "unsupported operand type for divmod()")
			return nil, vm.ErrRaised
		}
		q, err := cx.Call(floordiv, args, nil)
		if err != nil {
			return nil, err
		}
		m, err := cx.Call(mod, args, nil)
		if err != nil {
			return nil, err
		}
		return cx.NewTuple([]*heap.Object{q, m}), nil
	})

	r("pow", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) < 2 {
			return arity(cx, "pow", len(args), 2)
		}
		powFn, ok := cx.LookupMethod(args[0], "__pow__")
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "unsupported operand type for pow()")
			return nil, vm.ErrRaised
		}
		result, err := cx.Call(powFn, args[:2], nil)
		if err != nil {
			return nil, err
		}
		if len(args) == 3 {
			n, _ := result.Payload.(int64)
			m, _ := args[2].Payload.(int64)
			if m != 0 {
				n %= m
				if n < 0 {
					n += m
				}
				return cx.NewInt(n), nil
			}
		}
		return result, nil
	})

	r("round", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) < 1 {
			return arity(cx, "round", len(args), 1)
		}
		f, ok := asFloatArg(args[0])
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "type not supported for round()")
			return nil, vm.ErrRaised
		}
		if len(args) < 2 || args[1].Tag == heap.TagNone {
			return cx.NewInt(int64(math.RoundToEven(f))), nil
		}
		ndigits, _ := args[1].Payload.(int64)
		scale := math.Pow(10, float64(ndigits))
		return cx.NewFloat(math.RoundToEven(f*scale) / scale), nil
	})

	r("bin", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		n, ok := args[0].Payload.(int64)
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "bin() requires an int")
			return nil, vm.ErrRaised
		}
		sign := ""
		if n < 0 {
			sign, n = "-", -n
		}
		return cx.NewStr(sign + "0b" + strconv.FormatInt(n, 2)), nil
	})
	r("hex", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		n, ok := args[0].Payload.(int64)
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "hex() requires an int")
			return nil, vm.ErrRaised
		}
		sign := ""
		if n < 0 {
			sign, n = "-", -n
		}
		return cx.NewStr(sign + "0x" + strconv.FormatInt(n, 16)), nil
	})
	r("oct", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		n, ok := args[0].Payload.(int64)
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "oct() requires an int")
			return nil, vm.ErrRaised
		}
		sign := ""
		if n < 0 {
			sign, n = "-", -n
		}
		return cx.NewStr(sign + "0o" + strconv.FormatInt(n, 8)), nil
	})

	r("ord", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		s, ok := args[0].Payload.(string)
		runes := []rune(s)
		if !ok || len(runes) != 1 {
			cx.Raise(cx.BuiltinClass("TypeError"), "ord() expected a character")
			return nil, vm.ErrRaised
		}
		return cx.NewInt(int64(runes[0])), nil
	})
	r("chr", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		n, ok := args[0].Payload.(int64)
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "chr() requires an int")
			return nil, vm.ErrRaised
		}
		return cx.NewStr(string(rune(n))), nil
	})

	r("hash", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if v, ok := cx.HashOf(args[0]); ok {
			return cx.NewInt(v), nil
		}
		cx.Raise(cx.BuiltinClass("TypeError"), "unhashable type: '"+string(args[0].Tag)+"'")
		return nil, vm.ErrRaised
	})
	r("id", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		var addr uint64
		fmt.Sscanf(fmt.Sprintf("%p", args[0]), "0x%x", &addr)
		return cx.NewInt(int64(addr)), nil
	})
}

func asFloatArg(o *heap.Object) (float64, bool) {
	switch v := o.Payload.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

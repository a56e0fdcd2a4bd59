package vm

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ochom/vesper/internal/compiler"
	"github.com/ochom/vesper/internal/heap"
)

// ErrRaised signals that a Native already called ctx.Raise (or
// ctx.RaiseObject) itself; the caller should propagate a null result
// without wrapping it in a fresh RuntimeError.
var ErrRaised = errors.New("vm: exception already raised")

func (ctx *Context) alloc(tag heap.Tag, payload any) *heap.Object {
	o, err := ctx.heap.Alloc(tag, payload)
	if err != nil {
		ctx.currentException = ctx.memoryError
		return nil
	}
	if tmpl, ok := ctx.templates[tag]; ok {
		o.Attrs = tmpl.Derive()
	} else {
		o.Attrs = heap.NewAttrTable()
	}
	return o
}

func (ctx *Context) NewNone() *heap.Object {
	if ctx.noneSingleton == nil {
		ctx.noneSingleton = ctx.alloc(heap.TagNone, nil)
	}
	return ctx.noneSingleton
}

func (ctx *Context) NewBool(v bool) *heap.Object {
	if v {
		if ctx.trueSingleton == nil {
			ctx.trueSingleton = ctx.alloc(heap.TagBool, true)
		}
		return ctx.trueSingleton
	}
	if ctx.falseSingleton == nil {
		ctx.falseSingleton = ctx.alloc(heap.TagBool, false)
	}
	return ctx.falseSingleton
}

func (ctx *Context) NewInt(v int64) *heap.Object      { return ctx.alloc(heap.TagInt, v) }
func (ctx *Context) NewFloat(v float64) *heap.Object  { return ctx.alloc(heap.TagFloat, v) }
func (ctx *Context) NewStr(v string) *heap.Object     { return ctx.alloc(heap.TagStr, v) }
func (ctx *Context) NewTuple(elems []*heap.Object) *heap.Object {
	return ctx.alloc(heap.TagTuple, &heap.Tuple{Elems: elems})
}
func (ctx *Context) NewList(elems []*heap.Object) *heap.Object {
	return ctx.alloc(heap.TagList, &heap.List{Elems: elems})
}
func (ctx *Context) NewDict(m *heap.Map) *heap.Object {
	if m == nil {
		m = heap.NewMap()
	}
	return ctx.alloc(heap.TagMap, m)
}
func (ctx *Context) NewSet(s *heap.Set) *heap.Object {
	if s == nil {
		s = heap.NewSet()
	}
	return ctx.alloc(heap.TagSet, s)
}
func (ctx *Context) NewIterator(next func() (*heap.Object, bool)) *heap.Object {
	return ctx.alloc(heap.TagIterator, &heap.Iterator{Next: next})
}

// NewModule allocates an empty module Object named name, without
// registering it under any import name; callers that want it reachable by
// `import name` also call RegisterModule.
func (ctx *Context) NewModule(name string) *heap.Object {
	return ctx.alloc(heap.TagModule, &heap.Module{Name: name, Attrs: heap.NewAttrTable()})
}

// NewNativeFunc wraps a host Go function as a callable Object, used by
// internal/builtins and internal/modules to populate __builtins__ and the
// native stdlib modules.
func (ctx *Context) NewNativeFunc(name string, fn heap.Native) *heap.Object {
	f := native(fn)
	f.DisplayName = name
	return ctx.alloc(heap.TagFunc, f)
}

// NewClassObject wraps an already-built heap.Class as an Object, for
// callers outside vm that construct a Class directly (internal/builtins'
// primitive-type registration, which has no class body to run through
// NewUserClass). Does not set class.Self; callers do that themselves so
// type() returns this exact Object.
func (ctx *Context) NewClassObject(class *heap.Class) *heap.Object {
	return ctx.alloc(heap.TagClass, class)
}

// NewCodeObject wraps a compiler.Code as an Object, the value compile()
// returns and eval()/exec() accept in place of a source string.
func (ctx *Context) NewCodeObject(code *compiler.Code) *heap.Object {
	return ctx.alloc(heap.TagCode, code)
}

// NewSuper builds the proxy the `super` built-in returns: attribute
// access on it resumes the search at class's bases rather than class's
// own template, then binds the result to self.
func (ctx *Context) NewSuper(self *heap.Object, class *heap.Class) *heap.Object {
	return ctx.alloc(heap.TagSuper, &heap.Super{Self: self, Class: class})
}

// IsTruthy implements the full truthiness protocol: __bool__ wins if the
// type defines one, else __len__ (nonzero length is truthy), else every
// object is truthy except the primitive falsy values heap.Object.IsTruthy
// already knows about.
func (ctx *Context) IsTruthy(o *heap.Object) bool {
	if fn, ok := lookupMethod(o, "__bool__"); ok {
		result, err := ctx.Call(fn, []*heap.Object{o}, nil)
		if err == nil {
			return result.IsTruthy()
		}
	} else if fn, ok := lookupMethod(o, "__len__"); ok {
		result, err := ctx.Call(fn, []*heap.Object{o}, nil)
		if err == nil {
			n, _ := asInt(result)
			return n != 0
		}
	}
	return o.IsTruthy()
}

// registerPrimitiveTemplates builds the shared attribute table every
// built-in tag's objects derive from. Operator dispatch never
// special-cases a tag; it only looks the method name up through the
// normal attribute mechanism.
func (ctx *Context) registerPrimitiveTemplates() {
	ctx.templates[heap.TagInt] = ctx.numericTemplate(true)
	ctx.templates[heap.TagFloat] = ctx.numericTemplate(false)
	ctx.templates[heap.TagBool] = ctx.numericTemplate(true)
	ctx.templates[heap.TagStr] = ctx.strTemplate()
	ctx.templates[heap.TagTuple] = ctx.seqTemplate(heap.TagTuple)
	ctx.templates[heap.TagList] = ctx.seqTemplate(heap.TagList)
	ctx.templates[heap.TagMap] = ctx.mapTemplate()
	ctx.templates[heap.TagSet] = ctx.setTemplate()
	ctx.templates[heap.TagNone] = ctx.noneTemplate()
	ctx.templates[heap.TagIterator] = ctx.iteratorTemplate()
}

func native(fn heap.Native) *heap.Function { return &heap.Function{Native: fn} }

func wrapFunc(ctx *Context, fn heap.Native) *heap.Object {
	o := ctx.alloc(heap.TagFunc, native(fn))
	return o
}

func asFloat(o *heap.Object) (float64, bool) {
	switch o.Tag {
	case heap.TagInt:
		return float64(o.Payload.(int64)), true
	case heap.TagFloat:
		return o.Payload.(float64), true
	case heap.TagBool:
		if o.Payload.(bool) {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func asInt(o *heap.Object) (int64, bool) {
	switch o.Tag {
	case heap.TagInt:
		return o.Payload.(int64), true
	case heap.TagBool:
		if o.Payload.(bool) {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func isFloatOperand(args []*heap.Object) bool {
	for _, a := range args {
		if a.Tag == heap.TagFloat {
			return true
		}
	}
	return false
}

func typeErr(ctx *Context, format string, args ...any) (*heap.Object, error) {
	ctx.Raise(ctx.BuiltinClass("TypeError"), fmt.Sprintf(format, args...))
	return nil, ErrRaised
}

// numericTemplate implements the arithmetic/comparison dunders shared by
// int, float, and bool (bool behaves as a 0/1 int per Python convention).
func (ctx *Context) numericTemplate(isInt bool) *heap.AttrTable {
	t := heap.NewAttrTable()
	bin := func(name string, intOp func(a, b int64) int64, floatOp func(a, b float64) float64) {
		t.Set(name, wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
			cx := c.(*Context)
			a, b := args[0], args[1]
			af, aok := asFloat(a)
			bf, bok := asFloat(b)
			if !aok || !bok {
				return typeErr(cx, "unsupported operand type for %s", name)
			}
			if isFloatOperand([]*heap.Object{a, b}) {
				return cx.NewFloat(floatOp(af, bf)), nil
			}
			ai, _ := asInt(a)
			bi, _ := asInt(b)
			return cx.NewInt(intOp(ai, bi)), nil
		}))
	}
	bin("__add__", func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
	bin("__sub__", func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
	bin("__mul__", func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })

	t.Set("__truediv__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		af, _ := asFloat(args[0])
		bf, _ := asFloat(args[1])
		if bf == 0 {
			cx.Raise(cx.BuiltinClass("ZeroDivisionError"), "division by zero")
			return nil, ErrRaised
		}
		return cx.NewFloat(af / bf), nil
	}))
	t.Set("__floordiv__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		if isFloatOperand(args) {
			af, _ := asFloat(args[0])
			bf, _ := asFloat(args[1])
			if bf == 0 {
				cx.Raise(cx.BuiltinClass("ZeroDivisionError"), "division by zero")
				return nil, ErrRaised
			}
			return cx.NewFloat(floorDiv(af, bf)), nil
		}
		ai, _ := asInt(args[0])
		bi, _ := asInt(args[1])
		if bi == 0 {
			cx.Raise(cx.BuiltinClass("ZeroDivisionError"), "division by zero")
			return nil, ErrRaised
		}
		q := ai / bi
		if (ai%bi != 0) && ((ai < 0) != (bi < 0)) {
			q--
		}
		return cx.NewInt(q), nil
	}))
	t.Set("__mod__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		if isFloatOperand(args) {
			af, _ := asFloat(args[0])
			bf, _ := asFloat(args[1])
			if bf == 0 {
				cx.Raise(cx.BuiltinClass("ZeroDivisionError"), "division by zero")
				return nil, ErrRaised
			}
			m := mathMod(af, bf)
			return cx.NewFloat(m), nil
		}
		ai, _ := asInt(args[0])
		bi, _ := asInt(args[1])
		if bi == 0 {
			cx.Raise(cx.BuiltinClass("ZeroDivisionError"), "division by zero")
			return nil, ErrRaised
		}
		m := ai % bi
		if m != 0 && (m < 0) != (bi < 0) {
			m += bi
		}
		return cx.NewInt(m), nil
	}))
	t.Set("__pow__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		af, _ := asFloat(args[0])
		bf, _ := asFloat(args[1])
		r := intPow(af, bf)
		if isFloatOperand(args) || bf < 0 {
			return cx.NewFloat(r), nil
		}
		return cx.NewInt(int64(r)), nil
	}))

	if isInt {
		bitBin := func(name string, op func(a, b int64) int64) {
			t.Set(name, wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
				cx := c.(*Context)
				ai, aok := asInt(args[0])
				bi, bok := asInt(args[1])
				if !aok || !bok {
					return typeErr(cx, "unsupported operand type for %s", name)
				}
				return cx.NewInt(op(ai, bi)), nil
			}))
		}
		bitBin("__and__", func(a, b int64) int64 { return a & b })
		bitBin("__or__", func(a, b int64) int64 { return a | b })
		bitBin("__xor__", func(a, b int64) int64 { return a ^ b })
		bitBin("__lshift__", func(a, b int64) int64 { return a << uint(b) })
		bitBin("__rshift__", func(a, b int64) int64 { return a >> uint(b) })
		t.Set("__invert__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
			cx := c.(*Context)
			v, _ := asInt(args[0])
			return cx.NewInt(^v), nil
		}))
	}

	cmp := func(name string, intCmp func(a, b int64) bool, floatCmp func(a, b float64) bool) {
		t.Set(name, wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
			cx := c.(*Context)
			af, aok := asFloat(args[0])
			bf, bok := asFloat(args[1])
			if !aok || !bok {
				if name == "__eq__" {
					return cx.NewBool(false), nil
				}
				return typeErr(cx, "unsupported operand type for %s", name)
			}
			if isFloatOperand(args) {
				return cx.NewBool(floatCmp(af, bf)), nil
			}
			ai, _ := asInt(args[0])
			bi, _ := asInt(args[1])
			return cx.NewBool(intCmp(ai, bi)), nil
		}))
	}
	cmp("__lt__", func(a, b int64) bool { return a < b }, func(a, b float64) bool { return a < b })
	cmp("__le__", func(a, b int64) bool { return a <= b }, func(a, b float64) bool { return a <= b })
	cmp("__gt__", func(a, b int64) bool { return a > b }, func(a, b float64) bool { return a > b })
	cmp("__ge__", func(a, b int64) bool { return a >= b }, func(a, b float64) bool { return a >= b })
	cmp("__eq__", func(a, b int64) bool { return a == b }, func(a, b float64) bool { return a == b })
	cmp("__ne__", func(a, b int64) bool { return a != b }, func(a, b float64) bool { return a != b })

	t.Set("__neg__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		if args[0].Tag == heap.TagFloat {
			return cx.NewFloat(-args[0].Payload.(float64)), nil
		}
		v, _ := asInt(args[0])
		return cx.NewInt(-v), nil
	}))
	t.Set("__pos__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return args[0], nil
	}))
	t.Set("__bool__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewBool(args[0].IsTruthy()), nil
	}))
	t.Set("__hash__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		v, _ := asInt(args[0])
		return c.(*Context).NewInt(v), nil
	}))
	t.Set("__int__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		f, _ := asFloat(args[0])
		return c.(*Context).NewInt(int64(f)), nil
	}))
	t.Set("__float__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		f, _ := asFloat(args[0])
		return c.(*Context).NewFloat(f), nil
	}))
	t.Set("__str__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewStr(args[0].String()), nil
	}))
	t.Set("__repr__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewStr(args[0].String()), nil
	}))
	return t
}

func floorDiv(a, b float64) float64 {
	q := a / b
	if q < 0 {
		return float64(int64(q)) - 1
	}
	return float64(int64(q))
}

func mathMod(a, b float64) float64 {
	m := a - b*float64(int64(a/b))
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func intPow(a, b float64) float64 {
	r := 1.0
	neg := b < 0
	n := b
	if neg {
		n = -n
	}
	for i := 0; i < int(n); i++ {
		r *= a
	}
	if neg {
		return 1 / r
	}
	return r
}

func (ctx *Context) strTemplate() *heap.AttrTable {
	t := heap.NewAttrTable()
	t.Set("__add__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		if args[1].Tag != heap.TagStr {
			return typeErr(cx, "can only concatenate str (not %q) to str", args[1].Tag)
		}
		return cx.NewStr(args[0].Payload.(string) + args[1].Payload.(string)), nil
	}))
	t.Set("__mul__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		n, ok := asInt(args[1])
		if !ok {
			return typeErr(cx, "can't multiply str by non-int")
		}
		if n < 0 {
			n = 0
		}
		return cx.NewStr(strings.Repeat(args[0].Payload.(string), int(n))), nil
	}))
	strCmp := func(name string, op func(a, b string) bool) {
		t.Set(name, wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
			cx := c.(*Context)
			if args[1].Tag != heap.TagStr {
				if name == "__eq__" {
					return cx.NewBool(false), nil
				}
				return typeErr(cx, "unsupported operand type for %s", name)
			}
			return cx.NewBool(op(args[0].Payload.(string), args[1].Payload.(string))), nil
		}))
	}
	strCmp("__lt__", func(a, b string) bool { return a < b })
	strCmp("__le__", func(a, b string) bool { return a <= b })
	strCmp("__gt__", func(a, b string) bool { return a > b })
	strCmp("__ge__", func(a, b string) bool { return a >= b })
	strCmp("__eq__", func(a, b string) bool { return a == b })
	strCmp("__ne__", func(a, b string) bool { return a != b })
	t.Set("__len__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewInt(int64(len([]rune(args[0].Payload.(string))))), nil
	}))
	t.Set("__bool__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewBool(len(args[0].Payload.(string)) != 0), nil
	}))
	t.Set("__contains__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		if args[1].Tag != heap.TagStr {
			return typeErr(cx, "'in <string>' requires string as left operand")
		}
		return cx.NewBool(strings.Contains(args[0].Payload.(string), args[1].Payload.(string))), nil
	}))
	t.Set("__str__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return args[0], nil
	}))
	t.Set("__repr__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewStr(strconv.Quote(args[0].Payload.(string))), nil
	}))
	t.Set("__hash__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		s := args[0].Payload.(string)
		var h int64 = 14695981039346656037 % (1 << 62)
		for _, b := range []byte(s) {
			h = (h*1099511628211 + int64(b)) & 0x7fffffffffffffff
		}
		return c.(*Context).NewInt(h), nil
	}))
	t.Set("__getitem__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		s := []rune(args[0].Payload.(string))
		if args[1].Tag == heap.TagSlice {
			sl := args[1].Payload.(*heap.Slice)
			lo, hi, step := resolveSlice(sl, len(s))
			return cx.NewStr(sliceRunes(s, lo, hi, step)), nil
		}
		i, ok := asInt(args[1])
		if !ok {
			return typeErr(cx, "string indices must be integers")
		}
		if i < 0 {
			i += int64(len(s))
		}
		if i < 0 || i >= int64(len(s)) {
			cx.Raise(cx.BuiltinClass("IndexError"), "string index out of range")
			return nil, ErrRaised
		}
		return cx.NewStr(string(s[i])), nil
	}))
	t.Set("__iter__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		runes := []rune(args[0].Payload.(string))
		i := 0
		return cx.NewIterator(func() (*heap.Object, bool) {
			if i >= len(runes) {
				return nil, false
			}
			r := runes[i]
			i++
			return cx.NewStr(string(r)), true
		}), nil
	}))
	return t
}

func resolveSlice(sl *heap.Slice, n int) (lo, hi, step int) {
	step = 1
	if sl.Step != nil && sl.Step.Tag != heap.TagNone {
		if v, ok := asInt(sl.Step); ok && v != 0 {
			step = int(v)
		}
	}
	if step > 0 {
		lo, hi = 0, n
	} else {
		lo, hi = n-1, -1
	}
	if sl.Low != nil && sl.Low.Tag != heap.TagNone {
		if v, ok := asInt(sl.Low); ok {
			lo = normalizeIndex(int(v), n)
		}
	}
	if sl.High != nil && sl.High.Tag != heap.TagNone {
		if v, ok := asInt(sl.High); ok {
			hi = normalizeIndex(int(v), n)
		}
	}
	return lo, hi, step
}

func normalizeIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		i = 0
	}
	if i > n {
		i = n
	}
	return i
}

func sliceRunes(s []rune, lo, hi, step int) string {
	var out []rune
	if step > 0 {
		for i := lo; i < hi; i += step {
			out = append(out, s[i])
		}
	} else {
		for i := lo; i > hi; i += step {
			out = append(out, s[i])
		}
	}
	return string(out)
}

func sliceObjects(s []*heap.Object, lo, hi, step int) []*heap.Object {
	var out []*heap.Object
	if step > 0 {
		for i := lo; i < hi; i += step {
			out = append(out, s[i])
		}
	} else {
		for i := lo; i > hi; i += step {
			out = append(out, s[i])
		}
	}
	return out
}

// seqTemplate implements tuple/list dunders. Lists additionally get
// append/extend/pop as ordinary attribute-table methods (not part of the
// operator table) since the for-loop/comprehension desugaring calls
// `__tmp.append(...)` directly.
func (ctx *Context) seqTemplate(tag heap.Tag) *heap.AttrTable {
	t := heap.NewAttrTable()
	elemsOf := func(o *heap.Object) []*heap.Object {
		if tag == heap.TagTuple {
			return o.Payload.(*heap.Tuple).Elems
		}
		return o.Payload.(*heap.List).Elems
	}
	t.Set("__len__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewInt(int64(len(elemsOf(args[0])))), nil
	}))
	t.Set("__bool__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewBool(len(elemsOf(args[0])) != 0), nil
	}))
	t.Set("__getitem__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		elems := elemsOf(args[0])
		if args[1].Tag == heap.TagSlice {
			sl := args[1].Payload.(*heap.Slice)
			lo, hi, step := resolveSlice(sl, len(elems))
			result := sliceObjects(elems, lo, hi, step)
			if tag == heap.TagTuple {
				return cx.NewTuple(result), nil
			}
			return cx.NewList(result), nil
		}
		i, ok := asInt(args[1])
		if !ok {
			return typeErr(cx, "indices must be integers")
		}
		if i < 0 {
			i += int64(len(elems))
		}
		if i < 0 || i >= int64(len(elems)) {
			cx.Raise(cx.BuiltinClass("IndexError"), "index out of range")
			return nil, ErrRaised
		}
		return elems[i], nil
	}))
	if tag == heap.TagList {
		t.Set("__setitem__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
			cx := c.(*Context)
			l := args[0].Payload.(*heap.List)
			i, ok := asInt(args[1])
			if !ok {
				return typeErr(cx, "indices must be integers")
			}
			if i < 0 {
				i += int64(len(l.Elems))
			}
			if i < 0 || i >= int64(len(l.Elems)) {
				cx.Raise(cx.BuiltinClass("IndexError"), "index out of range")
				return nil, ErrRaised
			}
			l.Elems[i] = args[2]
			return cx.NewNone(), nil
		}))
		t.Set("append", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
			cx := c.(*Context)
			l := args[0].Payload.(*heap.List)
			l.Elems = append(l.Elems, args[1])
			return cx.NewNone(), nil
		}))
		t.Set("extend", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
			cx := c.(*Context)
			l := args[0].Payload.(*heap.List)
			l.Elems = append(l.Elems, elemsOf(args[1])...)
			return cx.NewNone(), nil
		}))
		t.Set("pop", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
			cx := c.(*Context)
			l := args[0].Payload.(*heap.List)
			if len(l.Elems) == 0 {
				cx.Raise(cx.BuiltinClass("IndexError"), "pop from empty list")
				return nil, ErrRaised
			}
			v := l.Elems[len(l.Elems)-1]
			l.Elems = l.Elems[:len(l.Elems)-1]
			return v, nil
		}))
	}
	t.Set("__contains__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		for _, e := range elemsOf(args[0]) {
			if structurallyEqual(e, args[1]) {
				return cx.NewBool(true), nil
			}
		}
		return cx.NewBool(false), nil
	}))
	t.Set("__iter__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		elems := elemsOf(args[0])
		i := 0
		return cx.NewIterator(func() (*heap.Object, bool) {
			if i >= len(elems) {
				return nil, false
			}
			v := elems[i]
			i++
			return v, true
		}), nil
	}))
	t.Set("__eq__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		if args[0].Tag != args[1].Tag {
			return cx.NewBool(false), nil
		}
		a, b := elemsOf(args[0]), elemsOf(args[1])
		if len(a) != len(b) {
			return cx.NewBool(false), nil
		}
		for i := range a {
			if !structurallyEqual(a[i], b[i]) {
				return cx.NewBool(false), nil
			}
		}
		return cx.NewBool(true), nil
	}))
	t.Set("__str__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewStr(formatSeq(tag, elemsOf(args[0]))), nil
	}))
	t.Set("__repr__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewStr(formatSeq(tag, elemsOf(args[0]))), nil
	}))
	return t
}

// structurallyEqual compares primitive payloads directly, falling back to
// pointer identity for everything else — a pragmatic default for
// __contains__/__eq__ over built-in collections ahead of full operator
// dispatch (which would need a *Context to call a possibly user-defined
// __eq__).
func structurallyEqual(a, b *heap.Object) bool {
	if a == b {
		return true
	}
	if a.Tag != b.Tag {
		af, aok := asFloat(a)
		bf, bok := asFloat(b)
		if aok && bok {
			return af == bf
		}
		return false
	}
	switch a.Tag {
	case heap.TagInt, heap.TagFloat, heap.TagBool, heap.TagStr, heap.TagNone:
		return a.Payload == b.Payload
	}
	return false
}

func formatSeq(tag heap.Tag, elems []*heap.Object) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		if e.Tag == heap.TagStr {
			parts[i] = strconv.Quote(e.Payload.(string))
		} else {
			parts[i] = e.String()
		}
	}
	switch tag {
	case heap.TagTuple:
		if len(elems) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return "[" + strings.Join(parts, ", ") + "]"
	}
}

func (ctx *Context) mapTemplate() *heap.AttrTable {
	t := heap.NewAttrTable()
	t.Set("__len__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewInt(int64(args[0].Payload.(*heap.Map).Len())), nil
	}))
	t.Set("__bool__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewBool(args[0].Payload.(*heap.Map).Len() != 0), nil
	}))
	t.Set("__getitem__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		v, ok := args[0].Payload.(*heap.Map).Get(args[1])
		if !ok {
			cx.Raise(cx.BuiltinClass("KeyError"), args[1].String())
			return nil, ErrRaised
		}
		return v, nil
	}))
	t.Set("__setitem__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		args[0].Payload.(*heap.Map).Set(args[1], args[2])
		return cx.NewNone(), nil
	}))
	t.Set("__contains__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		_, ok := args[0].Payload.(*heap.Map).Get(args[1])
		return c.(*Context).NewBool(ok), nil
	}))
	t.Set("__iter__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		keys := args[0].Payload.(*heap.Map).Keys()
		i := 0
		return cx.NewIterator(func() (*heap.Object, bool) {
			if i >= len(keys) {
				return nil, false
			}
			v := keys[i]
			i++
			return v, true
		}), nil
	}))
	t.Set("keys", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		keys := append([]*heap.Object(nil), args[0].Payload.(*heap.Map).Keys()...)
		return c.(*Context).NewList(keys), nil
	}))
	t.Set("values", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewList(args[0].Payload.(*heap.Map).Values()), nil
	}))
	t.Set("get", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		v, ok := args[0].Payload.(*heap.Map).Get(args[1])
		if ok {
			return v, nil
		}
		if len(args) > 2 {
			return args[2], nil
		}
		return cx.NewNone(), nil
	}))
	t.Set("__str__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewStr(formatMap(args[0].Payload.(*heap.Map))), nil
	}))
	t.Set("__repr__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewStr(formatMap(args[0].Payload.(*heap.Map))), nil
	}))
	return t
}

// sortObjects orders objs ascending by string/number payload; dict
// methods such as keys() keep insertion order and do not call it.
func sortObjects(objs []*heap.Object) {
	sort.Slice(objs, func(i, j int) bool {
		a, b := objs[i], objs[j]
		if a.Tag == heap.TagStr && b.Tag == heap.TagStr {
			return a.Payload.(string) < b.Payload.(string)
		}
		af, aok := asFloat(a)
		bf, bok := asFloat(b)
		if aok && bok {
			return af < bf
		}
		return false
	})
}

func formatMap(m *heap.Map) string {
	var parts []string
	m.Each(func(k, v *heap.Object) {
		ks := k.String()
		if k.Tag == heap.TagStr {
			ks = strconv.Quote(k.Payload.(string))
		}
		vs := v.String()
		if v.Tag == heap.TagStr {
			vs = strconv.Quote(v.Payload.(string))
		}
		parts = append(parts, ks+": "+vs)
	})
	return "{" + strings.Join(parts, ", ") + "}"
}

func (ctx *Context) setTemplate() *heap.AttrTable {
	t := heap.NewAttrTable()
	t.Set("__len__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewInt(int64(args[0].Payload.(*heap.Set).Len())), nil
	}))
	t.Set("__bool__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewBool(args[0].Payload.(*heap.Set).Len() != 0), nil
	}))
	t.Set("__contains__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewBool(args[0].Payload.(*heap.Set).Contains(args[1])), nil
	}))
	t.Set("add", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		args[0].Payload.(*heap.Set).Add(args[1])
		return cx.NewNone(), nil
	}))
	t.Set("remove", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		if !args[0].Payload.(*heap.Set).Remove(args[1]) {
			cx.Raise(cx.BuiltinClass("KeyError"), args[1].String())
			return nil, ErrRaised
		}
		return cx.NewNone(), nil
	}))
	t.Set("__iter__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		elems := args[0].Payload.(*heap.Set).Elems()
		i := 0
		return cx.NewIterator(func() (*heap.Object, bool) {
			if i >= len(elems) {
				return nil, false
			}
			v := elems[i]
			i++
			return v, true
		}), nil
	}))
	t.Set("__str__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		elems := args[0].Payload.(*heap.Set).Elems()
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = e.String()
		}
		return c.(*Context).NewStr("{" + strings.Join(parts, ", ") + "}"), nil
	}))
	return t
}

func (ctx *Context) noneTemplate() *heap.AttrTable {
	t := heap.NewAttrTable()
	t.Set("__bool__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewBool(false), nil
	}))
	t.Set("__eq__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewBool(args[1].Tag == heap.TagNone), nil
	}))
	t.Set("__str__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewStr("None"), nil
	}))
	t.Set("__repr__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return c.(*Context).NewStr("None"), nil
	}))
	return t
}

func (ctx *Context) iteratorTemplate() *heap.AttrTable {
	t := heap.NewAttrTable()
	t.Set("__iter__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		return args[0], nil
	}))
	t.Set("__next__", wrapFunc(ctx, func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		it := args[0].Payload.(*heap.Iterator)
		v, ok := it.Next()
		if !ok {
			cx.Raise(cx.BuiltinClass("StopIteration"), "")
			return nil, ErrRaised
		}
		return v, nil
	}))
	return t
}

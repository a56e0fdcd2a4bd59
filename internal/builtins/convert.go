package builtins

import (
	"strconv"
	"strings"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

// tagTypeName names the built-in class every primitive tag reports from
// type(), independent of vm's internal per-tag operator templates
// (ctx.templates is purely a dispatch concern; these are separate,
// attribute-less heap.Class objects that exist only to give
// type()/isinstance() a stable identity to return and compare against).
var tagTypeName = map[heap.Tag]string{
	heap.TagNone:     "NoneType",
	heap.TagBool:     "bool",
	heap.TagInt:      "int",
	heap.TagFloat:    "float",
	heap.TagStr:      "str",
	heap.TagTuple:    "tuple",
	heap.TagList:     "list",
	heap.TagMap:      "dict",
	heap.TagSet:      "set",
	heap.TagFunc:     "function",
	heap.TagClass:    "type",
	heap.TagModule:   "module",
	heap.TagSlice:    "slice",
	heap.TagIterator: "iterator",
	heap.TagSuper:    "super",
}

// installConvert registers the type-conversion and type-introspection
// free functions, and builds one heap.Class per primitive tag so
// isinstance()/issubclass() have something concrete to check against.
func installConvert(ctx *vm.Context, r reg) {
	for _, name := range tagTypeName {
		class := heap.NewClass(name, "__builtins__", nil)
		obj := ctx.NewClassObject(class)
		class.Self = obj
		ctx.RegisterBuiltinClass(name, obj)
	}

	r("bool", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) == 0 {
			return cx.NewBool(false), nil
		}
		return cx.NewBool(cx.IsTruthy(args[0])), nil
	})
	r("int", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) == 0 {
			return cx.NewInt(0), nil
		}
		switch args[0].Tag {
		case heap.TagInt:
			return args[0], nil
		case heap.TagBool:
			if args[0].Payload.(bool) {
				return cx.NewInt(1), nil
			}
			return cx.NewInt(0), nil
		case heap.TagFloat:
			return cx.NewInt(int64(args[0].Payload.(float64))), nil
		case heap.TagStr:
			base := 10
			if len(args) > 1 {
				if n, ok := args[1].Payload.(int64); ok {
					base = int(n)
				}
			}
			v, err := strconv.ParseInt(strings.TrimSpace(args[0].Payload.(string)), base, 64)
			if err != nil {
				cx.Raise(cx.BuiltinClass("ValueError"), "invalid literal for int() with base "+strconv.Itoa(base)+": "+strconv.Quote(args[0].Payload.(string)))
				return nil, vm.ErrRaised
			}
			return cx.NewInt(v), nil
		}
		cx.Raise(cx.BuiltinClass("TypeError"), "int() argument must be a string or a number")
		return nil, vm.ErrRaised
	})
	r("float", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) == 0 {
			return cx.NewFloat(0), nil
		}
		switch args[0].Tag {
		case heap.TagFloat:
			return args[0], nil
		case heap.TagInt:
			return cx.NewFloat(float64(args[0].Payload.(int64))), nil
		case heap.TagBool:
			if args[0].Payload.(bool) {
				return cx.NewFloat(1), nil
			}
			return cx.NewFloat(0), nil
		case heap.TagStr:
			v, err := strconv.ParseFloat(strings.TrimSpace(args[0].Payload.(string)), 64)
			if err != nil {
				cx.Raise(cx.BuiltinClass("ValueError"), "could not convert string to float: "+strconv.Quote(args[0].Payload.(string)))
				return nil, vm.ErrRaised
			}
			return cx.NewFloat(v), nil
		}
		cx.Raise(cx.BuiltinClass("TypeError"), "float() argument must be a string or a number")
		return nil, vm.ErrRaised
	})
	r("str", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) == 0 {
			return cx.NewStr(""), nil
		}
		s, err := cx.Str(args[0])
		if err != nil {
			return nil, err
		}
		return cx.NewStr(s), nil
	})
	r("repr", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		s, err := cx.Repr(args[0])
		if err != nil {
			return nil, err
		}
		return cx.NewStr(s), nil
	})
	r("list", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) == 0 {
			return cx.NewList(nil), nil
		}
		elems, err := cx.IterateAll(args[0])
		if err != nil {
			return nil, err
		}
		return cx.NewList(elems), nil
	})
	r("tuple", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) == 0 {
			return cx.NewTuple(nil), nil
		}
		elems, err := cx.IterateAll(args[0])
		if err != nil {
			return nil, err
		}
		return cx.NewTuple(elems), nil
	})
	r("dict", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		m := heap.NewMap()
		if len(args) > 0 {
			pairs, err := cx.IterateAll(args[0])
			if err != nil {
				return nil, err
			}
			for _, p := range pairs {
				kv, err := cx.IterateAll(p)
				if err != nil || len(kv) != 2 {
					cx.Raise(cx.BuiltinClass("ValueError"), "dictionary update sequence element has wrong length")
					return nil, vm.ErrRaised
				}
				m.Set(kv[0], kv[1])
			}
		}
		if kw != nil {
			kw.Each(func(k, v *heap.Object) { m.Set(k, v) })
		}
		return cx.NewDict(m), nil
	})
	r("set", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		s := heap.NewSet()
		if len(args) > 0 {
			elems, err := cx.IterateAll(args[0])
			if err != nil {
				return nil, err
			}
			for _, e := range elems {
				s.Add(e)
			}
		}
		return cx.NewSet(s), nil
	})

	r("type", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 1 {
			return arity(cx, "type", len(args), 1)
		}
		return typeOf(cx, args[0]), nil
	})
	r("isinstance", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 2 {
			return arity(cx, "isinstance", len(args), 2)
		}
		return cx.NewBool(isInstance(cx, args[0], args[1])), nil
	})
	r("issubclass", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 2 {
			return arity(cx, "issubclass", len(args), 2)
		}
		sub, ok1 := args[0].Payload.(*heap.Class)
		base, ok2 := args[1].Payload.(*heap.Class)
		if !ok1 || !ok2 {
			cx.Raise(cx.BuiltinClass("TypeError"), "issubclass() arg 1 and 2 must be classes")
			return nil, vm.ErrRaised
		}
		return cx.NewBool(sub.IsSubclassOf(base)), nil
	})
}

// typeOf returns o's type object: the class for a user instance, or the
// shared primitive-tag class object otherwise.
func typeOf(ctx *vm.Context, o *heap.Object) *heap.Object {
	if inst, ok := o.Payload.(*heap.Instance); ok {
		if inst.Class.Self != nil {
			return inst.Class.Self
		}
	}
	if class, ok := o.Payload.(*heap.Class); ok {
		_ = class
		return ctx.BuiltinClass("type")
	}
	if name, ok := tagTypeName[o.Tag]; ok {
		if cls := ctx.BuiltinClass(name); cls != nil {
			return cls
		}
	}
	return ctx.BuiltinClass("type")
}

// isInstance reports whether o's runtime type is classObj or a subclass:
// a user instance checks its class hierarchy via IsSubclassOf; a
// primitive checks tag equality against classObj's name.
func isInstance(ctx *vm.Context, o, classObj *heap.Object) bool {
	class, ok := classObj.Payload.(*heap.Class)
	if !ok {
		return false
	}
	if inst, ok := o.Payload.(*heap.Instance); ok {
		return inst.Class.IsSubclassOf(class)
	}
	name, ok := tagTypeName[o.Tag]
	return ok && name == class.Name
}

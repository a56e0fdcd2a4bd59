package vm

import (
	"github.com/ochom/vesper/internal/compiler"
	"github.com/ochom/vesper/internal/heap"
)

// kstr wraps a Go string as a throwaway key Object for heap.Map lookups
// that don't need a live heap allocation (mirrors frame.go's nameKey).
func kstr(s string) *heap.Object { return &heap.Object{Tag: heap.TagStr, Payload: s} }

// Instantiate calls class's constructor, producing a fresh instance.
func (ctx *Context) Instantiate(classObj *heap.Object, args []*heap.Object, kwargs *heap.Map) (*heap.Object, error) {
	class, ok := classObj.Payload.(*heap.Class)
	if !ok {
		return typeErr(ctx, "not a class")
	}
	if kwargs == nil {
		kwargs = heap.NewMap()
	}
	if class.Constructor != nil {
		return class.Constructor(ctx, args, kwargs)
	}
	return ctx.allocInstance(class), nil
}

// NewUserClass builds a script-defined class from its evaluated base
// objects and the globals-like namespace its body executed into, copying
// the body's AttrTable entries onto the new class's template.
func (ctx *Context) NewUserClass(name, moduleName string, bases []*heap.Object, body *heap.AttrTable) *heap.Object {
	baseClasses := make([]*heap.Class, len(bases))
	for i, b := range bases {
		baseClasses[i] = b.Payload.(*heap.Class)
	}
	class := heap.NewClass(name, moduleName, baseClasses)
	for _, k := range body.Keys() {
		if v, ok := body.GetOwn(k); ok {
			class.Template.Set(k, v)
		}
	}
	class.Constructor = ctx.userClassConstructor(class)
	classObj := ctx.alloc(heap.TagClass, class)
	class.Self = classObj
	return classObj
}

func (ctx *Context) userClassConstructor(class *heap.Class) heap.Native {
	return func(c heap.Context, args []*heap.Object, kwargs *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		inst := cx.allocInstance(class)
		if initFn, ok := inst.Attrs.Get("__init__"); ok && initFn.Tag == heap.TagFunc {
			bound := initFn.Payload.(*heap.Function).Bind(inst)
			boundObj := cx.alloc(heap.TagFunc, bound)
			if _, err := cx.Call(boundObj, args, kwargs); err != nil {
				return nil, err
			}
		}
		return inst, nil
	}
}

// BoundMethod returns fn's bound-self counterpart wrapped as a fresh
// Object, used by GET_ATTR when an instance attribute resolves to an
// unbound method on its class template.
func (ctx *Context) BoundMethod(fn *heap.Object, self *heap.Object) *heap.Object {
	f := fn.Payload.(*heap.Function)
	bound := f.Bind(self)
	bound.IsMethod = true
	return ctx.alloc(heap.TagFunc, bound)
}

// Call invokes callable with args/kwargs. A class is instantiated; a
// bound method gets its receiver prepended; a Native function's Go error
// return is auto-wrapped as RuntimeError unless it is ErrRaised (meaning
// the native already called ctx.Raise itself).
func (ctx *Context) Call(callable *heap.Object, args []*heap.Object, kwargs *heap.Map) (*heap.Object, error) {
	if kwargs == nil {
		kwargs = heap.NewMap()
	}
	switch callable.Tag {
	case heap.TagClass:
		return ctx.Instantiate(callable, args, kwargs)
	case heap.TagFunc:
		fn := callable.Payload.(*heap.Function)
		if fn.IsMethod && fn.Self != nil {
			full := make([]*heap.Object, 0, len(args)+1)
			full = append(full, fn.Self)
			full = append(full, args...)
			args = full
		}
		if ctx.callDepth >= ctx.cfg.MaxRecursion {
			ctx.RaiseObject(ctx.recursionError)
			return nil, ErrRaised
		}
		ctx.callDepth++
		defer func() { ctx.callDepth-- }()

		if fn.Native != nil {
			result, err := fn.Native(ctx, args, kwargs)
			if err != nil {
				if err == ErrRaised {
					return nil, ErrRaised
				}
				ctx.Raise(ctx.BuiltinClass("RuntimeError"), err.Error())
				return nil, ErrRaised
			}
			return result, nil
		}
		return ctx.callDef(fn, args, kwargs)
	default:
		return typeErr(ctx, "%q object is not callable", callable.Tag)
	}
}

func (ctx *Context) callDef(fn *heap.Function, args []*heap.Object, kwargs *heap.Map) (*heap.Object, error) {
	code := fn.Def.Code.(*compiler.Code)
	frame := newFrame(code, fn.Def.ModuleName)
	frame.displayName = fn.Def.DisplayName

	for _, name := range code.Locals {
		frame.cells[name] = &heap.Cell{Value: ctx.NewNone()}
	}
	for name, cell := range fn.Captures {
		frame.cells[name] = cell
	}

	if err := ctx.bindArgs(frame, fn.Def, args, kwargs); err != nil {
		return nil, err
	}

	ctx.execStack = append(ctx.execStack, frame)
	ctx.PushTrace(heap.TraceFrame{ModuleName: fn.Def.ModuleName, DisplayName: fn.Def.DisplayName})
	result, err := ctx.run(frame)
	ctx.PopTrace()
	ctx.execStack = ctx.execStack[:len(ctx.execStack)-1]
	return result, err
}

// bindArgs binds arguments to parameters: regular parameters fill
// positionally then by keyword, a trailing *args/**kwargs pair collects
// the remainder, and defaults (the trailing N regular parameters that
// declared one) fill whatever neither supplied.
func (ctx *Context) bindArgs(frame *Frame, def *heap.Def, args []*heap.Object, kwargs *heap.Map) error {
	var regulars []heap.Param
	var star, dstar *heap.Param
	for i := range def.Params {
		p := def.Params[i]
		switch p.Kind {
		case heap.ParamVarPositional:
			star = &def.Params[i]
		case heap.ParamVarKeyword:
			dstar = &def.Params[i]
		default:
			regulars = append(regulars, p)
		}
	}
	defaultsStart := len(regulars) - len(def.Defaults)

	used := make(map[string]bool, kwargs.Len())
	posIdx := 0
	for i, p := range regulars {
		var v *heap.Object
		switch {
		case posIdx < len(args):
			v = args[posIdx]
			posIdx++
		default:
			if kv, ok := kwargs.Get(kstr(p.Name)); ok {
				v = kv
				used[p.Name] = true
			} else if i >= defaultsStart {
				v = def.Defaults[i-defaultsStart]
			} else {
				return ctx.arityError(def, "missing required argument: '"+p.Name+"'")
			}
		}
		frame.cell(p.Name).Value = v
	}

	if star != nil {
		rest := append([]*heap.Object(nil), args[posIdx:]...)
		frame.cell(star.Name).Value = ctx.NewTuple(rest)
		posIdx = len(args)
	} else if posIdx < len(args) {
		return ctx.arityError(def, "too many positional arguments")
	}

	if dstar != nil {
		extra := heap.NewMap()
		kwargs.Each(func(k, v *heap.Object) {
			if k.Tag == heap.TagStr && !used[k.Payload.(string)] {
				extra.Set(k, v)
			}
		})
		frame.cell(dstar.Name).Value = ctx.NewDict(extra)
	} else {
		var bad string
		kwargs.Each(func(k, v *heap.Object) {
			if bad == "" && k.Tag == heap.TagStr && !used[k.Payload.(string)] {
				bad = k.Payload.(string)
			}
		})
		if bad != "" {
			return ctx.arityError(def, "unexpected keyword argument: '"+bad+"'")
		}
	}
	return nil
}

func (ctx *Context) arityError(def *heap.Def, message string) error {
	ctx.Raise(ctx.BuiltinClass("TypeError"), def.DisplayName+"(): "+message)
	return ErrRaised
}

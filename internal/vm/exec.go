package vm

import (
	"fmt"

	"github.com/ochom/vesper/internal/compiler"
	"github.com/ochom/vesper/internal/heap"
)

// run drives frame's instructions to completion, returning its result (or
// the live exception as ErrRaised once it has propagated past every try
// frame this function owns).
func (ctx *Context) run(frame *Frame) (*heap.Object, error) {
	for {
		// A try frame's finally has been reached on the non-exceptional
		// path (body completed normally and jumped past its handlers, or
		// a handler matched and cleared the exception): it is popped here
		// rather than by any single instruction, since both paths land on
		// the same finallyTarget PC.
		for len(frame.tryStack) > 0 && frame.pc == frame.tryStack[len(frame.tryStack)-1].finallyTarget {
			frame.tryStack = frame.tryStack[:len(frame.tryStack)-1]
		}

		if frame.pc >= len(frame.code.Instrs) {
			return ctx.NewNone(), nil
		}
		instr := frame.code.Instrs[frame.pc]
		frame.pc++

		if frame.hasExit {
			return frame.exitValue, nil
		}

		if err := ctx.exec1(frame, instr); err != nil {
			return nil, err
		}

		if frame.hasExit {
			return frame.exitValue, nil
		}

		if ctx.currentException != nil {
			if len(frame.tryStack) == 0 {
				return nil, ErrRaised
			}
			top := &frame.tryStack[len(frame.tryStack)-1]
			if !top.inHandler {
				frame.stack = frame.stack[:top.stackDepth]
				top.inHandler = true
				frame.pc = top.exceptTarget
				continue
			}
			frame.tryStack = frame.tryStack[:len(frame.tryStack)-1]
			frame.stack = frame.stack[:top.stackDepth]
			frame.pc = top.finallyTarget
			continue
		}
	}
}

// exec1 executes one instruction against frame, mutating its stack/pc/etc.
// A returned error is either ErrRaised (ctx.currentException is already
// set; the caller's loop drives the try-frame unwind) or a genuine host
// error from something that should never happen in valid bytecode.
func (ctx *Context) exec1(frame *Frame, instr compiler.Instr) error {
	code := frame.code
	switch instr.Op {
	case compiler.OpLoadConst:
		frame.push(ctx.constObject(code.Consts[instr.A]))
	case compiler.OpLoadNone:
		frame.push(ctx.NewNone())
	case compiler.OpLoadTrue:
		frame.push(ctx.NewBool(true))
	case compiler.OpLoadFalse:
		frame.push(ctx.NewBool(false))

	case compiler.OpLoadLocal:
		frame.push(frame.cell(code.Names[instr.A]).Value)
	case compiler.OpStoreLocal:
		frame.cell(code.Names[instr.A]).Value = frame.pop()
	case compiler.OpLoadCell:
		frame.push(frame.cell(code.Names[instr.A]).Value)
	case compiler.OpStoreCell:
		frame.cell(code.Names[instr.A]).Value = frame.pop()

	case compiler.OpLoadGlobal:
		name := code.Names[instr.A]
		if v, ok := ctx.globalLookup(frame.moduleName, name); ok {
			frame.push(v)
			break
		}
		return ctx.raiseAndMark(ctx.BuiltinClass("NameError"), "name '"+name+"' is not defined")
	case compiler.OpStoreGlobal:
		name := code.Names[instr.A]
		ctx.globalStore(frame.moduleName, name, frame.pop())
	case compiler.OpLoadBuiltin:
		name := code.Names[instr.A]
		if mod := ctx.ModuleGlobals("__builtins__"); mod != nil {
			if v, ok := mod.Attrs.Get(name); ok {
				frame.push(v)
				break
			}
		}
		return ctx.raiseAndMark(ctx.BuiltinClass("NameError"), "name '"+name+"' is not defined")

	case compiler.OpMarkFrame:
		frame.markFrame()
	case compiler.OpPushKwarg:
		frame.pushKwarg(code.Names[instr.A], frame.pop())
	case compiler.OpUnpackStar:
		iterable := frame.pop()
		elems, err := ctx.iterateAll(iterable)
		if err != nil {
			return err
		}
		frame.stack = append(frame.stack, elems...)
	case compiler.OpUnpackMapStar:
		mapping := frame.pop()
		m, ok := mapping.Payload.(*heap.Map)
		if !ok {
			return ctx.raiseAndMark(ctx.BuiltinClass("TypeError"), "argument after ** must be a mapping")
		}
		var bad error
		m.Each(func(k, v *heap.Object) {
			if bad != nil {
				return
			}
			if k.Tag != heap.TagStr {
				bad = ctx.raiseAndMark(ctx.BuiltinClass("TypeError"), "keywords must be strings")
				return
			}
			frame.pushKwarg(k.Payload.(string), v)
		})
		if bad != nil {
			return bad
		}

	case compiler.OpBuildTuple:
		args, _ := frame.popArgFrame()
		frame.push(ctx.NewTuple(args))
	case compiler.OpBuildList:
		args, _ := frame.popArgFrame()
		frame.push(ctx.NewList(args))
	case compiler.OpBuildSet:
		args, _ := frame.popArgFrame()
		s := heap.NewSet()
		for _, a := range args {
			s.Add(a)
		}
		frame.push(ctx.NewSet(s))
	case compiler.OpBuildDict:
		args, _ := frame.popArgFrame()
		m := heap.NewMap()
		for i := 0; i+1 < len(args); i += 2 {
			m.Set(args[i], args[i+1])
		}
		frame.push(ctx.NewDict(m))
	case compiler.OpBuildSlice:
		step := frame.pop()
		high := frame.pop()
		low := frame.pop()
		frame.push(ctx.alloc(heap.TagSlice, &heap.Slice{Low: low, High: high, Step: step}))

	case compiler.OpCall:
		args, kwargs := frame.popArgFrame()
		callee := frame.pop()
		result, err := ctx.Call(callee, args, kwargs)
		if err != nil {
			return err
		}
		frame.push(result)
	case compiler.OpGetAttr:
		obj := frame.pop()
		v, err := ctx.getAttr(obj, code.Names[instr.A])
		if err != nil {
			return err
		}
		frame.push(v)
	case compiler.OpSetAttr:
		value := frame.pop()
		obj := frame.pop()
		ctx.setAttr(obj, code.Names[instr.A], value)
	case compiler.OpGetItem:
		key := frame.pop()
		obj := frame.pop()
		v, err := ctx.getItem(obj, key)
		if err != nil {
			return err
		}
		frame.push(v)
	case compiler.OpSetItem:
		value := frame.pop()
		key := frame.pop()
		obj := frame.pop()
		if err := ctx.setItem(obj, key, value); err != nil {
			return err
		}
	case compiler.OpDelete:
		frame.pop()
		frame.push(ctx.NewNone())

	case compiler.OpBinaryOp:
		right := frame.pop()
		left := frame.pop()
		var (
			result *heap.Object
			err    error
		)
		if _, isAug := augDunder[instr.Op2]; isAug {
			result, err = ctx.augOp(instr.Op2, left, right)
		} else {
			result, err = ctx.binaryOp(instr.Op2, left, right)
		}
		if err != nil {
			return err
		}
		frame.push(result)
	case compiler.OpUnaryOp:
		operand := frame.pop()
		result, err := ctx.unaryOp(instr.Op2, operand)
		if err != nil {
			return err
		}
		frame.push(result)
	case compiler.OpCompareOp:
		right := frame.pop()
		left := frame.pop()
		result, err := ctx.compareOp(instr.Op2, left, right)
		if err != nil {
			return err
		}
		frame.push(result)
	case compiler.OpNot:
		operand := frame.pop()
		frame.push(ctx.NewBool(!ctx.IsTruthy(operand)))
	case compiler.OpIn, compiler.OpNotIn:
		right := frame.pop()
		left := frame.pop()
		result, err := ctx.containsOp(left, right, instr.Op == compiler.OpNotIn)
		if err != nil {
			return err
		}
		frame.push(result)
	case compiler.OpIs:
		right := frame.pop()
		left := frame.pop()
		frame.push(ctx.identityOp(left, right, false))
	case compiler.OpIsNot:
		right := frame.pop()
		left := frame.pop()
		frame.push(ctx.identityOp(left, right, true))

	case compiler.OpJump:
		frame.pc = instr.A
	case compiler.OpJumpIfFalse:
		if !ctx.IsTruthy(frame.pop()) {
			frame.pc = instr.A
		}
	case compiler.OpJumpIfFalseKeep:
		if !ctx.IsTruthy(frame.peek()) {
			frame.pc = instr.A
		}
	case compiler.OpJumpIfTrueKeep:
		if ctx.IsTruthy(frame.peek()) {
			frame.pc = instr.A
		}
	case compiler.OpPop:
		frame.pop()
	case compiler.OpDup:
		frame.push(frame.peek())
	case compiler.OpSwap:
		n := len(frame.stack)
		frame.stack[n-1], frame.stack[n-2] = frame.stack[n-2], frame.stack[n-1]

	case compiler.OpMakeFunction:
		args, _ := frame.popArgFrame()
		proto := code.FuncProtos[instr.A]
		def := &heap.Def{
			ModuleName:  proto.ModuleName,
			DisplayName: proto.Name,
			Code:        proto,
			Defaults:    args,
			Locals:      proto.Locals,
		}
		for _, p := range proto.Params {
			def.Params = append(def.Params, heap.Param{Name: p.Name, Kind: heap.ParamKind(p.Kind)})
		}
		captures := make(map[string]*heap.Cell, len(proto.LocalCaptures))
		for _, name := range proto.LocalCaptures {
			captures[name] = frame.cell(name)
		}
		fn := &heap.Function{Def: def, ModuleName: proto.ModuleName, DisplayName: proto.Name, Captures: captures}
		frame.push(ctx.alloc(heap.TagFunc, fn))

	case compiler.OpMakeClass:
		// A class body has no Locals/LocalCaptures of its own (see
		// compileClassDef): every name it assigns compiles to
		// STORE_GLOBAL, so it is executed against a throwaway module
		// namespace whose resulting attributes become the class template.
		bases, _ := frame.popArgFrame()
		proto := code.ClassProtos[instr.A]
		ctx.classBodySeq++
		classModName := fmt.Sprintf("<class %s>#%d", proto.Name, ctx.classBodySeq)
		bodyAttrs := heap.NewAttrTable()
		ctx.modules[classModName] = ctx.alloc(heap.TagModule, &heap.Module{Name: classModName, Attrs: bodyAttrs})
		bodyFrame := newFrame(proto.Body, classModName)
		ctx.execStack = append(ctx.execStack, bodyFrame)
		_, err := ctx.run(bodyFrame)
		ctx.execStack = ctx.execStack[:len(ctx.execStack)-1]
		delete(ctx.modules, classModName)
		if err != nil {
			return err
		}
		frame.push(ctx.NewUserClass(proto.Name, code.ModuleName, bases, bodyAttrs))

	case compiler.OpImport:
		name := code.Names[instr.A]
		mod, err := ctx.importModule(name)
		if err != nil {
			return err
		}
		frame.push(mod)
	case compiler.OpImportFrom:
		modName := code.Names[instr.A]
		itemName := code.Names[instr.B]
		modObj, err := ctx.importModule(modName)
		if err != nil {
			return err
		}
		v, ok := modObj.Payload.(*heap.Module).Attrs.Get(itemName)
		if !ok {
			return ctx.raiseAndMark(ctx.BuiltinClass("ImportError"), "cannot import name '"+itemName+"' from '"+modName+"'")
		}
		frame.push(v)
	case compiler.OpImportFromStar:
		modName := code.Names[instr.A]
		modObj, err := ctx.importModule(modName)
		if err != nil {
			return err
		}
		mod := modObj.Payload.(*heap.Module)
		dst := ctx.ModuleGlobals(frame.moduleName)
		for _, name := range mod.Attrs.Keys() {
			if len(name) > 0 && name[0] == '_' {
				continue
			}
			if v, ok := mod.Attrs.Get(name); ok && dst != nil {
				dst.Attrs.Set(name, v)
			}
		}

	case compiler.OpReturn:
		frame.exitValue = frame.pop()
		frame.hasExit = true
	case compiler.OpReturnNone:
		frame.exitValue = ctx.NewNone()
		frame.hasExit = true

	case compiler.OpRaise:
		v := frame.pop()
		switch v.Tag {
		case heap.TagClass:
			ctx.Raise(v, "")
		default:
			ctx.RaiseObject(v)
		}
		return ErrRaised
	case compiler.OpReraise:
		// No-op: ctx.currentException is still set from the exception that
		// fell through every except clause without matching; the run loop's
		// post-instruction check drives the unwind.
		if ctx.currentException == nil {
			return ctx.raiseAndMark(ctx.BuiltinClass("RuntimeError"), "no active exception to re-raise")
		}
		return ErrRaised

	case compiler.OpPushTry:
		frame.tryStack = append(frame.tryStack, tryFrame{
			exceptTarget:  instr.A,
			finallyTarget: instr.B,
			stackDepth:    len(frame.stack),
		})
	case compiler.OpPopTry:
		if len(frame.tryStack) > 0 {
			frame.tryStack = frame.tryStack[:len(frame.tryStack)-1]
		}
	case compiler.OpMatchExcept:
		class := frame.pop()
		frame.push(ctx.NewBool(IsInstanceOf(ctx.currentException, class)))
	case compiler.OpBindExcept:
		frame.cell(code.Names[instr.A]).Value = ctx.currentException
	case compiler.OpClearException:
		ctx.ClearException()

	case compiler.OpGetIter:
		obj := frame.pop()
		fn, ok := lookupMethod(obj, "__iter__")
		if !ok {
			return ctx.raiseAndMark(ctx.BuiltinClass("TypeError"), fmt.Sprintf("%q object is not iterable", obj.Tag))
		}
		it, err := ctx.Call(fn, []*heap.Object{obj}, nil)
		if err != nil {
			return err
		}
		frame.push(it)
	case compiler.OpForIter:
		it := frame.peek()
		fn, ok := lookupMethod(it, "__next__")
		if !ok {
			return ctx.raiseAndMark(ctx.BuiltinClass("TypeError"), "iterator has no __next__")
		}
		v, err := ctx.Call(fn, []*heap.Object{it}, nil)
		if err != nil {
			if ctx.currentException != nil && IsInstanceOf(ctx.currentException, ctx.BuiltinClass("StopIteration")) {
				ctx.ClearException()
				frame.pop()
				frame.pc = instr.A
				return nil
			}
			return err
		}
		frame.push(v)

	default:
		return ctx.raiseAndMark(ctx.BuiltinClass("RuntimeError"), "unimplemented opcode")
	}
	return nil
}

// raiseAndMark is a convenience wrapper around ctx.Raise that always
// returns ErrRaised, for opcode handlers with a single exit point.
func (ctx *Context) raiseAndMark(class *heap.Object, message string) error {
	ctx.Raise(class, message)
	return ErrRaised
}

// constObject materializes a Consts[i] literal (stored as a plain Go
// value at compile time) into a fresh heap Object on each load, matching
// Python's "each literal evaluation is its own object" value semantics
// for mutable-looking but here-immutable constants.
func (ctx *Context) constObject(v any) *heap.Object {
	switch t := v.(type) {
	case int64:
		return ctx.NewInt(t)
	case float64:
		return ctx.NewFloat(t)
	case string:
		return ctx.NewStr(t)
	default:
		return ctx.NewNone()
	}
}

// globalLookup resolves a name against moduleName's globals, falling back
// to __builtins__ when absent; needed for lambda bodies, which route
// every non-parameter name through LOAD_GLOBAL.
func (ctx *Context) globalLookup(moduleName, name string) (*heap.Object, bool) {
	if mod := ctx.ModuleGlobals(moduleName); mod != nil {
		if v, ok := mod.Attrs.Get(name); ok {
			return v, true
		}
	}
	if moduleName != "__builtins__" {
		if mod := ctx.ModuleGlobals("__builtins__"); mod != nil {
			if v, ok := mod.Attrs.Get(name); ok {
				return v, true
			}
		}
	}
	return nil, false
}

func (ctx *Context) globalStore(moduleName, name string, value *heap.Object) {
	mod := ctx.ModuleGlobals(moduleName)
	if mod == nil {
		obj := ctx.alloc(heap.TagModule, &heap.Module{Name: moduleName, Attrs: heap.NewAttrTable()})
		ctx.modules[moduleName] = obj
		mod = obj.Payload.(*heap.Module)
	}
	mod.Attrs.Set(name, value)
}

// importModule loads (or returns the cached) module object for name via
// the host-installed Loader (internal/modules), tracking the import stack
// for cycle detection.
func (ctx *Context) importModule(name string) (*heap.Object, error) {
	if mod, ok := ctx.modules[name]; ok {
		return mod, nil
	}
	for _, n := range ctx.importStack {
		if n == name {
			return nil, ctx.raiseAndMark(ctx.BuiltinClass("ImportError"), "circular import: "+name)
		}
	}
	if ctx.loader == nil {
		return nil, ctx.raiseAndMark(ctx.BuiltinClass("ImportError"), "no module loader configured")
	}
	ctx.importStack = append(ctx.importStack, name)
	mod, err := ctx.loader.Load(ctx, name)
	ctx.importStack = ctx.importStack[:len(ctx.importStack)-1]
	if err != nil {
		return nil, err
	}
	ctx.modules[name] = mod
	return mod, nil
}

// getAttr implements GET_ATTR: modules and classes expose their own
// attribute table directly; an instance additionally auto-binds an
// unbound method found on its class template to itself (duplication, not
// mutation).
func (ctx *Context) getAttr(obj *heap.Object, name string) (*heap.Object, error) {
	switch obj.Tag {
	case heap.TagModule:
		if v, ok := obj.Payload.(*heap.Module).Attrs.Get(name); ok {
			return v, nil
		}
		return typeErr(ctx, "module has no attribute '%s'", name)
	case heap.TagClass:
		if v, ok := obj.Payload.(*heap.Class).Template.Get(name); ok {
			return v, nil
		}
		return typeErr(ctx, "type object has no attribute '%s'", name)
	case heap.TagSuper:
		sup := obj.Payload.(*heap.Super)
		v, ok := sup.Class.Template.GetFromBase(name)
		if !ok {
			return typeErr(ctx, "'super' object has no attribute '%s'", name)
		}
		if fn, ok := v.Payload.(*heap.Function); ok && fn.Self == nil {
			return ctx.BoundMethod(v, sup.Self), nil
		}
		return v, nil
	default:
		if obj.Attrs == nil {
			return typeErr(ctx, "'%s' object has no attribute '%s'", obj.Tag, name)
		}
		v, ok := obj.Attrs.Get(name)
		if !ok {
			return typeErr(ctx, "'%s' object has no attribute '%s'", obj.Tag, name)
		}
		if _, isInstance := obj.Payload.(*heap.Instance); isInstance {
			if fn, ok := v.Payload.(*heap.Function); ok && fn.Self == nil {
				return ctx.BoundMethod(v, obj), nil
			}
		}
		return v, nil
	}
}

// setAttr implements SET_ATTR, writing through to a module's or class's
// own attribute table for those tags, or an ordinary instance's Attrs
// otherwise.
func (ctx *Context) setAttr(obj *heap.Object, name string, value *heap.Object) {
	switch obj.Tag {
	case heap.TagModule:
		obj.Payload.(*heap.Module).Attrs.Set(name, value)
	case heap.TagClass:
		obj.Payload.(*heap.Class).Template.Set(name, value)
	default:
		if obj.Attrs == nil {
			obj.Attrs = heap.NewAttrTable()
		}
		obj.Attrs.Set(name, value)
	}
}

// getItem/setItem implement GET_ITEM/SET_ITEM by dispatching through
// __getitem__/__setitem__, mirroring binaryOp's dunder-table dispatch.
func (ctx *Context) getItem(obj, key *heap.Object) (*heap.Object, error) {
	fn, ok := lookupMethod(obj, "__getitem__")
	if !ok {
		return typeErr(ctx, "'%s' object is not subscriptable", obj.Tag)
	}
	return ctx.Call(fn, []*heap.Object{obj, key}, nil)
}

func (ctx *Context) setItem(obj, key, value *heap.Object) error {
	fn, ok := lookupMethod(obj, "__setitem__")
	if !ok {
		_, err := typeErr(ctx, "'%s' object does not support item assignment", obj.Tag)
		return err
	}
	_, err := ctx.Call(fn, []*heap.Object{obj, key, value}, nil)
	return err
}

// iterateAll drains obj's iterator fully, used by UNPACK_STAR (*args at a
// call site).
func (ctx *Context) iterateAll(obj *heap.Object) ([]*heap.Object, error) {
	iterFn, ok := lookupMethod(obj, "__iter__")
	if !ok {
		return nil, ctx.raiseAndMark(ctx.BuiltinClass("TypeError"), "argument after * must be iterable")
	}
	it, err := ctx.Call(iterFn, []*heap.Object{obj}, nil)
	if err != nil {
		return nil, err
	}
	nextFn, ok := lookupMethod(it, "__next__")
	if !ok {
		return nil, ctx.raiseAndMark(ctx.BuiltinClass("TypeError"), "iterator has no __next__")
	}
	var out []*heap.Object
	for {
		v, err := ctx.Call(nextFn, []*heap.Object{it}, nil)
		if err != nil {
			if ctx.currentException != nil && IsInstanceOf(ctx.currentException, ctx.BuiltinClass("StopIteration")) {
				ctx.ClearException()
				return out, nil
			}
			return nil, err
		}
		out = append(out, v)
	}
}

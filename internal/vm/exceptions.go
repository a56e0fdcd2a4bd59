package vm

import "github.com/ochom/vesper/internal/heap"

// registerExceptionHierarchy builds a Class object for every entry in
// heap.ExceptionHierarchy, parent first, and registers each under its
// name.
func (ctx *Context) registerExceptionHierarchy() {
	for _, entry := range heap.ExceptionHierarchy {
		var bases []*heap.Class
		if entry.Parent != "" {
			parent := ctx.BuiltinClass(entry.Parent)
			bases = []*heap.Class{parent.Payload.(*heap.Class)}
		}
		class := heap.NewClass(entry.Name, "__builtins__", bases)
		class.Constructor = ctx.exceptionConstructor(class)
		classObj := ctx.alloc(heap.TagClass, class)
		class.Self = classObj
		ctx.RegisterBuiltinClass(entry.Name, classObj)
	}
}

// exceptionConstructor builds the default __init__ every exception class
// gets: the first positional argument (if any) becomes the exception's
// _message attribute, retrievable by the str() built-in and by the host
// embedding surface.
func (ctx *Context) exceptionConstructor(class *heap.Class) heap.Native {
	return func(c heap.Context, args []*heap.Object, kwargs *heap.Map) (*heap.Object, error) {
		cx := c.(*Context)
		inst := cx.allocInstance(class)
		message := ""
		if len(args) > 0 {
			message = args[0].String()
		}
		inst.Attrs.Set("_message", cx.NewStr(message))
		inst.Attrs.Set("args", cx.NewTuple(append([]*heap.Object(nil), args...)))
		return inst, nil
	}
}

// allocInstance allocates a bare instance of class, deriving its attribute
// table from the class template.
func (ctx *Context) allocInstance(class *heap.Class) *heap.Object {
	o, err := ctx.heap.Alloc(heap.Tag(class.Name), &heap.Instance{Class: class})
	if err != nil {
		return ctx.memoryError
	}
	o.Attrs = class.Template.Derive()
	return o
}

// newExceptionSingleton builds one pre-allocated, never-garbage-collected
// exception instance (pinned), used for MemoryError/RecursionError so that
// raising them never itself needs to allocate.
func (ctx *Context) newExceptionSingleton(className, message string) *heap.Object {
	class := ctx.BuiltinClass(className)
	inst := ctx.allocInstance(class.Payload.(*heap.Class))
	inst.Attrs.Set("_message", ctx.NewStr(message))
	inst.Attrs.Set("args", ctx.NewTuple([]*heap.Object{ctx.NewStr(message)}))
	inst.Pin()
	return inst
}

// ExceptionMessage returns an exception instance's _message attribute, or
// "" if absent.
func ExceptionMessage(exc *heap.Object) string {
	if exc == nil {
		return ""
	}
	v, ok := exc.Attrs.Get("_message")
	if !ok {
		return ""
	}
	return v.String()
}

// IsInstanceOf reports whether obj's class is class or a subclass of it,
// used to match "except" clauses against the raised exception.
func IsInstanceOf(obj, classObj *heap.Object) bool {
	inst, ok := obj.Payload.(*heap.Instance)
	if !ok {
		return false
	}
	cls, ok := classObj.Payload.(*heap.Class)
	if !ok {
		return false
	}
	return inst.Class.IsSubclassOf(cls)
}

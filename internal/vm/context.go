// Package vm is the stack-machine executor: per-call frames, the
// instruction dispatch loop, the operator->dunder-method table, and the
// per-interpreter Context.
package vm

import (
	"math/rand"

	"github.com/ochom/vesper/internal/heap"
)

// PrintFunc receives a byte buffer and userdata; the default writes to
// host stdout.
type PrintFunc func(data []byte, userdata any)

// Config is the frozen-at-creation configuration for a Context.
type Config struct {
	EnableOSAccess bool
	MaxAlloc       int
	MaxRecursion   int
	GCRunFactor    float64
	Print          PrintFunc
	PrintUserdata  any
	ImportPath     string
	Argv           []string
}

// DefaultConfig returns the interpreter's documented default settings.
func DefaultConfig() Config {
	return Config{
		EnableOSAccess: false,
		MaxAlloc:       1_000_000,
		MaxRecursion:   50,
		GCRunFactor:    2.0,
		ImportPath:     ".",
		Argv:           []string{""},
	}
}

// Loader loads a native or file-backed module by name, installing its
// globals into ctx and returning the resulting module object. Implemented
// by internal/modules; vm only depends on the interface to avoid an
// import cycle (modules necessarily imports vm).
type Loader interface {
	Load(ctx *Context, name string) (*heap.Object, error)
}

// Context is the per-interpreter root. One Context owns one heap and
// must be driven by a single logical thread.
type Context struct {
	cfg Config

	heap *heap.Heap

	modules     map[string]*heap.Object // module name -> Object{Tag: TagModule}
	importStack []string

	loader Loader

	// builtinClasses holds every registered exception/type class handle by
	// name.
	builtinClasses map[string]*heap.Object

	currentException *heap.Object
	currentTrace      []heap.TraceFrame
	traceStack        []heap.TraceFrame

	execStack []*Frame // currently-executing frames, walked for GC roots

	rng *rand.Rand

	memoryError    *heap.Object // pre-allocated singleton
	recursionError *heap.Object

	callDepth int

	// classBodySeq disambiguates the throwaway module namespaces MAKE_CLASS
	// runs each class body against.
	classBodySeq int

	// primitive "type templates": shared attribute tables holding the
	// dunder methods every value of a built-in tag inherits from, so
	// operator dispatch never special-cases a tag at the call site.
	templates map[heap.Tag]*heap.AttrTable

	// Cached primitive singletons: None/True/False are each one object
	// shared by every reference, matching Python identity semantics ("is"
	// compares identity, not value).
	noneSingleton  *heap.Object
	trueSingleton  *heap.Object
	falseSingleton *heap.Object

	// notImplementedSingleton is the private sentinel a dunder method
	// returns to ask the operator table to try the reflected side; it is
	// never exposed to script code under its own name.
	notImplementedSingleton *heap.Object
}

// NewContext creates a context with cfg and registers the built-in
// exception hierarchy, primitive type templates, and pre-allocated
// singletons.
func NewContext(cfg Config) *Context {
	ctx := &Context{
		cfg:            cfg,
		heap:           heap.NewHeap(cfg.MaxAlloc, cfg.GCRunFactor),
		modules:        make(map[string]*heap.Object),
		builtinClasses: make(map[string]*heap.Object),
		rng:            rand.New(rand.NewSource(1)),
		templates:      make(map[heap.Tag]*heap.AttrTable),
	}
	ctx.heap.SetRoots(ctx.gcRoots)
	ctx.registerPrimitiveTemplates()
	ctx.registerExceptionHierarchy()
	ctx.memoryError = ctx.newExceptionSingleton("MemoryError", "out of memory")
	ctx.recursionError = ctx.newExceptionSingleton("RecursionError", "maximum recursion depth exceeded")
	ctx.notImplementedSingleton = ctx.alloc(heap.TagNone, nil)
	ctx.notImplementedSingleton.Pin()
	return ctx
}

func (ctx *Context) Config() Config    { return ctx.cfg }
func (ctx *Context) Heap() *heap.Heap  { return ctx.heap }
func (ctx *Context) SetLoader(l Loader) { ctx.loader = l }

// Rand returns the context's private random source, backing the `random`
// native module. The generator state is per-Context, not process-global,
// so two Contexts never share a stream.
func (ctx *Context) Rand() *rand.Rand { return ctx.rng }

// SeedRand reseeds the context's private random source (random.seed()).
func (ctx *Context) SeedRand(seed int64) { ctx.rng = rand.New(rand.NewSource(seed)) }

// RegisterModule installs mod directly under name, bypassing the Loader.
// Used once at startup to install __builtins__, and by internal/modules to
// cache a native module the first time it's imported.
func (ctx *Context) RegisterModule(name string, mod *heap.Object) {
	ctx.modules[name] = mod
}

// ModuleGlobals returns the named module's globals table, or nil if it is
// not loaded.
func (ctx *Context) ModuleGlobals(name string) *heap.Module {
	m, ok := ctx.modules[name]
	if !ok {
		return nil
	}
	return m.Payload.(*heap.Module)
}

// BuiltinClass returns a registered built-in class handle (an exception
// class, or a future-registered native type) by name.
func (ctx *Context) BuiltinClass(name string) *heap.Object {
	return ctx.builtinClasses[name]
}

// RegisterBuiltinClass installs a class handle under name, used by
// internal/builtins when registering native classes into __builtins__.
func (ctx *Context) RegisterBuiltinClass(name string, class *heap.Object) {
	ctx.builtinClasses[name] = class
}

// CurrentException returns the context's current-exception slot, or nil.
func (ctx *Context) CurrentException() *heap.Object { return ctx.currentException }

// ClearException clears the current-exception slot.
func (ctx *Context) ClearException() {
	ctx.currentException = nil
	ctx.currentTrace = nil
}

// Raise sets the current-exception slot to a fresh instance of class with
// _message set to message, capturing the live trace stack. Implements
// heap.Context.
func (ctx *Context) Raise(class *heap.Object, message string) {
	exc, err := ctx.Instantiate(class, []*heap.Object{ctx.NewStr(message)}, nil)
	if err != nil {
		// Allocation failed while trying to raise: fall back to the
		// pre-allocated singleton rather than recursing.
		ctx.currentException = ctx.memoryError
		return
	}
	ctx.currentException = exc
	ctx.currentTrace = append([]heap.TraceFrame(nil), ctx.traceStack...)
}

// RaiseObject sets the current-exception slot directly to an
// already-constructed exception object (used by `raise e` where e is an
// instance, not a class).
func (ctx *Context) RaiseObject(exc *heap.Object) {
	ctx.currentException = exc
	ctx.currentTrace = append([]heap.TraceFrame(nil), ctx.traceStack...)
}

// PushTrace/PopTrace bracket every call.
func (ctx *Context) PushTrace(f heap.TraceFrame) { ctx.traceStack = append(ctx.traceStack, f) }
func (ctx *Context) PopTrace() {
	if len(ctx.traceStack) > 0 {
		ctx.traceStack = ctx.traceStack[:len(ctx.traceStack)-1]
	}
}

// Trace returns the trace captured at the point of the last raise.
func (ctx *Context) Trace() []heap.TraceFrame { return ctx.currentTrace }

// gcRoots enumerates every Object directly reachable outside the heap
// itself: the current exception, every module's globals, built-in class
// handles, and every live frame's operand stack, cells, and kwargs
// accumulators.
func (ctx *Context) gcRoots() []*heap.Object {
	var roots []*heap.Object
	if ctx.currentException != nil {
		roots = append(roots, ctx.currentException)
	}
	for _, m := range ctx.modules {
		roots = append(roots, m)
	}
	for _, c := range ctx.builtinClasses {
		roots = append(roots, c)
	}
	if ctx.memoryError != nil {
		roots = append(roots, ctx.memoryError)
	}
	if ctx.recursionError != nil {
		roots = append(roots, ctx.recursionError)
	}
	for _, f := range ctx.execStack {
		roots = append(roots, f.roots()...)
	}
	return roots
}

// Destroy forces a final GC with all roots cleared and every finalizer run.
func (ctx *Context) Destroy() {
	ctx.heap.Destroy()
}

// Package vesper is the host embedding surface: create/destroy a Context,
// compile and run source, get/set globals, construct and inspect
// primitive values, register native functions/classes/modules,
// call/attribute/iterate/unpack, and inspect or clear the current
// exception. Registration uses Vesper's own heap.Native convention rather
// than reflecting over arbitrary Go function values, since every other
// package in this module already speaks that convention.
package vesper

import (
	"fmt"
	"sync/atomic"

	"github.com/ochom/vesper/internal/builtins"
	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/modules"
	"github.com/ochom/vesper/internal/vm"
)

// Context is one embedded interpreter instance. Not safe for concurrent
// use by multiple goroutines.
type Context struct {
	vm *vm.Context
}

// Option configures a Context at construction via the functional-options
// pattern.
type Option func(*vm.Config)

// WithOSAccess enables the `os` module and gated filesystem access.
func WithOSAccess(enabled bool) Option {
	return func(c *vm.Config) { c.EnableOSAccess = enabled }
}

// WithMaxAlloc caps the live object count.
func WithMaxAlloc(n int) Option {
	return func(c *vm.Config) { c.MaxAlloc = n }
}

// WithMaxRecursion caps nested call depth.
func WithMaxRecursion(n int) Option {
	return func(c *vm.Config) { c.MaxRecursion = n }
}

// WithGCRunFactor sets the live-count growth factor that triggers a GC run.
func WithGCRunFactor(f float64) Option {
	return func(c *vm.Config) { c.GCRunFactor = f }
}

// WithPrint installs the callback print() and input()'s echo write to.
func WithPrint(fn vm.PrintFunc, userdata any) Option {
	return func(c *vm.Config) { c.Print = fn; c.PrintUserdata = userdata }
}

// WithImportPath sets the directory file-backed modules resolve against.
func WithImportPath(path string) Option {
	return func(c *vm.Config) { c.ImportPath = path }
}

// WithArgv sets sys.argv.
func WithArgv(argv []string) Option {
	return func(c *vm.Config) { c.Argv = argv }
}

// New creates a Context: allocates its heap, installs the exception
// hierarchy and primitive-type templates (vm.NewContext), installs
// __builtins__ (internal/builtins.Install), and wires the module loader
// (internal/modules.New).
func New(opts ...Option) *Context {
	cfg := vm.DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx := vm.NewContext(cfg)
	ctx.SetLoader(modules.New())
	builtins.Install(ctx)
	return &Context{vm: ctx}
}

// Close force-runs a final GC pass with the root set cleared, running
// every live finalizer.
func (c *Context) Close() {
	c.vm.Heap().Destroy()
}

// ForceGC runs a collection cycle immediately, bypassing the
// GCRunFactor-triggered heuristic.
func (c *Context) ForceGC() {
	c.vm.Heap().RunGC()
}

// errorCallback is the process-wide programmer-error sink: a sync/atomic
// pointer so hosts can swap it without a mutex.
var errorCallback atomic.Pointer[func(error)]

// SetErrorCallback installs the process-wide programmer-error handler.
// Passing nil restores the default, which panics.
func SetErrorCallback(fn func(error)) {
	if fn == nil {
		errorCallback.Store(nil)
		return
	}
	errorCallback.Store(&fn)
}

// ProgrammerError is a bad-embedding-call failure: a null pointer, a
// wrongly-typed argument to a typed API, or an invalid identifier string
// passed to a registration function. Never raised as a script-level
// exception.
type ProgrammerError struct {
	Op      string
	Message string
}

func (e *ProgrammerError) Error() string {
	return fmt.Sprintf("vesper: %s: %s", e.Op, e.Message)
}

// reportProgrammerError invokes the installed callback, or panics if none
// is installed.
func reportProgrammerError(op, message string) {
	err := &ProgrammerError{Op: op, Message: message}
	if cb := errorCallback.Load(); cb != nil {
		(*cb)(err)
		return
	}
	panic(err)
}

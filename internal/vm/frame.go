package vm

import (
	"github.com/ochom/vesper/internal/compiler"
	"github.com/ochom/vesper/internal/heap"
)

// tryFrame is one entry on the executor's try stack.
type tryFrame struct {
	exceptTarget  int
	finallyTarget int
	inHandler     bool
	stackDepth    int
}

// argFrame is one open arg-frame marker: the operand-stack depth it was
// opened at, plus its accumulated kwargs.
type argFrame struct {
	base   int
	kwargs *heap.Map
}

// Frame is one call's executor state: a pointer to its compiled
// definition, a program counter, an operand stack, a stack of arg-frame
// markers (each with its own kwargs accumulator), a name->cell map
// filled during argument binding, an optional exit value, and a stack of
// try frames. Locals are name-keyed cells rather than a flat slice since
// every Vesper local is a shared mutable cell (closures capture the cell,
// not a snapshot).
type Frame struct {
	code *compiler.Code
	pc   int

	stack     []*heap.Object
	argFrames []argFrame

	cells map[string]*heap.Cell

	tryStack []tryFrame

	exitValue *heap.Object
	hasExit   bool

	moduleName  string
	displayName string
}

func newFrame(code *compiler.Code, moduleName string) *Frame {
	return &Frame{
		code:        code,
		cells:       make(map[string]*heap.Cell),
		moduleName:  moduleName,
		displayName: code.Name,
	}
}

func (f *Frame) push(o *heap.Object) { f.stack = append(f.stack, o) }

func (f *Frame) pop() *heap.Object {
	n := len(f.stack)
	v := f.stack[n-1]
	f.stack = f.stack[:n-1]
	return v
}

func (f *Frame) peek() *heap.Object { return f.stack[len(f.stack)-1] }

func (f *Frame) markFrame() {
	f.argFrames = append(f.argFrames, argFrame{base: len(f.stack)})
}

// popArgFrame pops every value pushed since the most recent markFrame,
// along with that frame's accumulated kwargs.
func (f *Frame) popArgFrame() ([]*heap.Object, *heap.Map) {
	n := len(f.argFrames)
	af := f.argFrames[n-1]
	f.argFrames = f.argFrames[:n-1]
	args := append([]*heap.Object(nil), f.stack[af.base:]...)
	f.stack = f.stack[:af.base]
	kwargs := af.kwargs
	if kwargs == nil {
		kwargs = heap.NewMap()
	}
	return args, kwargs
}

func (f *Frame) pushKwarg(name string, value *heap.Object) {
	n := len(f.argFrames)
	af := &f.argFrames[n-1]
	if af.kwargs == nil {
		af.kwargs = heap.NewMap()
	}
	af.kwargs.Set(nameKey(name), value)
}

// nameKey wraps a kwarg name as a *heap.Object string key so it can share
// heap.Map's hashing scheme without a live heap allocation per push.
func nameKey(name string) *heap.Object {
	return &heap.Object{Tag: heap.TagStr, Payload: name}
}

func (f *Frame) cell(name string) *heap.Cell {
	c, ok := f.cells[name]
	if !ok {
		c = &heap.Cell{}
		f.cells[name] = c
	}
	return c
}

// roots returns every Object directly reachable from this frame: its
// operand stack, every cell's value, and every open arg frame's
// in-progress kwargs — used by Context.gcRoots.
func (f *Frame) roots() []*heap.Object {
	var out []*heap.Object
	out = append(out, f.stack...)
	for _, c := range f.cells {
		if c.Value != nil {
			out = append(out, c.Value)
		}
	}
	for _, af := range f.argFrames {
		if af.kwargs != nil {
			out = append(out, af.kwargs.Values()...)
		}
	}
	if f.exitValue != nil {
		out = append(out, f.exitValue)
	}
	return out
}

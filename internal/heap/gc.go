package heap

import "errors"

// ErrOutOfMemory is the error wrapped by the pre-allocated memory-error
// singleton built by internal/vm at context startup; Heap.Alloc returns
// it directly so the vm can swap in that singleton without the heap
// package knowing about exception classes.
var ErrOutOfMemory = errors.New("heap: allocation cap exceeded")

// RootFunc returns every Object directly reachable as a GC root: the
// current-exception slot, every module's globals, every live kwargs map,
// built-in handles, argv, and every operand-stack/cell value in every live
// executor. It is supplied by internal/vm, which alone knows the executor
// stack; heap stays ignorant of vm to avoid an import cycle.
type RootFunc func() []*Object

// Heap owns every live Object for one context and runs a tracing
// mark-sweep collector, exposed as one public verb (RunGC) plus
// unexported mark/sweep helpers.
type Heap struct {
	objects       []*Object
	maxAlloc      int
	runFactor     float64
	lastLiveCount int
	roots         RootFunc
	collecting    bool
}

// NewHeap creates an empty heap with the given allocation cap and GC
// growth factor.
func NewHeap(maxAlloc int, runFactor float64) *Heap {
	return &Heap{maxAlloc: maxAlloc, runFactor: runFactor}
}

// SetRoots installs the root-enumeration callback; must be called once by
// the owning context before any allocation.
func (h *Heap) SetRoots(roots RootFunc) { h.roots = roots }

// Alloc creates a new Object, running a collection first if the heap has
// grown past runFactor * lastLiveCount, and as a last resort if the
// allocation cap would otherwise be exceeded. Returns ErrOutOfMemory if
// the cap is still exceeded after collecting.
func (h *Heap) Alloc(tag Tag, payload any) (*Object, error) {
	if !h.collecting {
		if h.lastLiveCount > 0 && float64(len(h.objects)+1) > h.runFactor*float64(h.lastLiveCount) {
			h.RunGC()
		}
		if len(h.objects) >= h.maxAlloc {
			h.RunGC()
			if len(h.objects) >= h.maxAlloc {
				return nil, ErrOutOfMemory
			}
		}
	}
	o := &Object{Tag: tag, Payload: payload}
	h.objects = append(h.objects, o)
	return o, nil
}

// RunGC performs one mark-sweep collection: build the root set, walk
// transitively, finalize and drop everything unmarked.
func (h *Heap) RunGC() {
	if h.collecting {
		return
	}
	h.collecting = true
	defer func() { h.collecting = false }()

	for _, o := range h.objects {
		o.marked = false
	}

	var roots []*Object
	if h.roots != nil {
		roots = h.roots()
	}
	for _, o := range h.objects {
		if o.Pinned() {
			roots = append(roots, o)
		}
	}
	for _, r := range roots {
		h.mark(r)
	}

	live := h.objects[:0]
	for _, o := range h.objects {
		if o.marked {
			live = append(live, o)
		} else {
			o.runFinalizers()
		}
	}
	h.objects = live
	h.lastLiveCount = len(h.objects)
}

// Destroy forces a final collection with the root set cleared entirely, so
// every remaining object is reaped and every finalizer runs.
func (h *Heap) Destroy() {
	h.roots = nil
	h.RunGC()
}

func (h *Heap) mark(o *Object) {
	if o == nil || o.marked {
		return
	}
	o.marked = true

	switch p := o.Payload.(type) {
	case *Tuple:
		for _, e := range p.Elems {
			h.mark(e)
		}
	case *List:
		for _, e := range p.Elems {
			h.mark(e)
		}
	case *Map:
		p.Each(func(k, v *Object) { h.mark(k); h.mark(v) })
	case *Set:
		for _, e := range p.Elems() {
			h.mark(e)
		}
	case *Slice:
		h.mark(p.Low)
		h.mark(p.High)
		h.mark(p.Step)
	case *Function:
		h.mark(p.Self)
		for _, cell := range p.Captures {
			h.mark(cell.Value)
		}
		for _, d := range p.Def.defaultsOrNil() {
			h.mark(d)
		}
	case *Class:
		for _, b := range p.Bases {
			h.markAttrs(b.Template)
		}
		h.markAttrs(p.Template)
	case *Module:
		h.markAttrs(p.Attrs)
	}

	h.markAttrs(o.Attrs)
}

func (h *Heap) markAttrs(t *AttrTable) {
	if t == nil {
		return
	}
	for _, k := range t.Keys() {
		if v, ok := t.GetOwn(k); ok {
			h.mark(v)
		}
	}
	for _, p := range t.parents {
		h.markAttrs(p)
	}
}

// defaultsOrNil guards against a nil Def (native functions have none).
func (d *Def) defaultsOrNil() []*Object {
	if d == nil {
		return nil
	}
	return d.Defaults
}

// Live returns the current live object count, used by tests and by the
// host's diagnostics surface.
func (h *Heap) Live() int { return len(h.objects) }

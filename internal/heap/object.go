// Package heap implements Vesper's runtime object model: a single tagged
// heap record per value, attribute tables with copy-on-write parent
// chains, and the tracing collector that owns them.
package heap

import "fmt"

// Tag names the kind of value an Object carries.
type Tag string

const (
	TagNone   Tag = "__null"
	TagBool   Tag = "__bool"
	TagInt    Tag = "__int"
	TagFloat  Tag = "__float"
	TagStr    Tag = "__str"
	TagTuple  Tag = "__tuple"
	TagList   Tag = "__list"
	TagMap    Tag = "__map"
	TagSet    Tag = "__set"
	TagFunc   Tag = "__func"
	TagClass  Tag = "__class"
	TagModule   Tag = "__module"
	TagSlice    Tag = "__slice"
	TagIterator Tag = "__iterator" // internal: the object __iter__ returns
	TagSuper    Tag = "__super"    // internal: the object the `super` builtin returns
	TagCode     Tag = "__code"     // the object compile() returns
)

// Finalizer is a callback invoked when an Object becomes unreachable.
// Finalizers must not allocate.
type Finalizer struct {
	Fn       func(o *Object)
	Userdata any
}

// Object is the single heap record every Vesper value is represented by.
// The Payload field holds one of: bool, int64, float64, string, *Tuple,
// *List, *Map, *Set, *Function, *Class, *Module, *Slice, or a user
// class's instance payload (an *Instance, itself stored as Payload).
type Object struct {
	Tag     Tag
	Payload any
	Attrs   *AttrTable

	finalizers []Finalizer
	refcount   int // strong refcount; pins against GC while > 0
	marked     bool
}

// Context is implemented by internal/vm's execution context. Native
// functions receive it so a host-registered builtin can allocate, raise,
// and look up module globals without heap importing vm (which would
// create an import cycle, since vm necessarily imports heap).
type Context interface {
	Heap() *Heap
	Raise(class *Object, message string)
	ModuleGlobals(name string) *Module
}

// Pin increments the strong refcount, preventing GC reclamation while
// positive. Unpin decrements it.
func (o *Object) Pin() { o.refcount++ }

func (o *Object) Unpin() {
	if o.refcount > 0 {
		o.refcount--
	}
}

func (o *Object) Pinned() bool { return o.refcount > 0 }

// AddFinalizer registers a callback run when o is collected.
func (o *Object) AddFinalizer(fn func(o *Object), userdata any) {
	o.finalizers = append(o.finalizers, Finalizer{Fn: fn, Userdata: userdata})
}

func (o *Object) runFinalizers() {
	for _, f := range o.finalizers {
		f.Fn(o)
	}
}

// IsTruthy implements Python-style truthiness without dispatching through
// __bool__/__len__ (callers needing the full protocol go through the vm's
// operator table; this is the primitive fallback used by collection
// payloads themselves).
func (o *Object) IsTruthy() bool {
	switch o.Tag {
	case TagNone:
		return false
	case TagBool:
		return o.Payload.(bool)
	case TagInt:
		return o.Payload.(int64) != 0
	case TagFloat:
		return o.Payload.(float64) != 0
	case TagStr:
		return len(o.Payload.(string)) != 0
	case TagTuple:
		return len(o.Payload.(*Tuple).Elems) != 0
	case TagList:
		return len(o.Payload.(*List).Elems) != 0
	case TagMap:
		return o.Payload.(*Map).Len() != 0
	case TagSet:
		return o.Payload.(*Set).Len() != 0
	default:
		return true
	}
}

func (o *Object) String() string {
	switch o.Tag {
	case TagNone:
		return "None"
	case TagBool:
		if o.Payload.(bool) {
			return "True"
		}
		return "False"
	case TagInt:
		return fmt.Sprintf("%d", o.Payload.(int64))
	case TagFloat:
		return fmt.Sprintf("%g", o.Payload.(float64))
	case TagStr:
		return o.Payload.(string)
	default:
		return fmt.Sprintf("<%s object>", o.Tag)
	}
}

// Tuple, List are ordered sequences of heap refs.
type Tuple struct{ Elems []*Object }
type List struct{ Elems []*Object }

// Slice is the payload of the slice(...) builtin: low/high/step may each
// be nil, meaning "unspecified".
type Slice struct{ Low, High, Step *Object }

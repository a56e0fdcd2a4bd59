package heap

// Iterator is the payload of Tag __iterator: the stateful cursor
// returned by a collection's __iter__. Next reports (value, false) when
// exhausted; the vm's FOR_ITER/__next__ path turns a false ok into a
// StopIteration raise rather than exposing this bool to script code.
type Iterator struct {
	Next func() (value *Object, ok bool)
}

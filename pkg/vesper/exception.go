package vesper

import (
	"strings"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

// CurrentException returns the context's current-exception slot, or nil.
// Inspect it by class with IsExceptionInstanceOf, or by message with
// ExceptionMessage.
func (c *Context) CurrentException() *heap.Object {
	return c.vm.CurrentException()
}

// ClearException clears the current-exception slot.
func (c *Context) ClearException() {
	c.vm.ClearException()
}

// Raise sets the current-exception slot to a fresh instance of the named
// built-in exception class.
func (c *Context) Raise(className, message string) {
	class := c.vm.BuiltinClass(className)
	if class == nil {
		reportProgrammerError("Raise", "unknown exception class "+className)
		return
	}
	c.vm.Raise(class, message)
}

// RaiseObject sets the current-exception slot directly to an
// already-constructed exception object.
func (c *Context) RaiseObject(exc *heap.Object) {
	c.vm.RaiseObject(exc)
}

// ExceptionMessage returns exc's `_message` attribute.
func ExceptionMessage(exc *heap.Object) string {
	return vm.ExceptionMessage(exc)
}

// IsExceptionInstanceOf reports whether exc's class is classObj or a
// descendant of it.
func IsExceptionInstanceOf(exc, classObj *heap.Object) bool {
	return vm.IsInstanceOf(exc, classObj)
}

// FormatTrace renders the context's captured trace stack as a
// human-readable multi-line string, most-recent frame last, the same
// order a Python traceback prints in.
func (c *Context) FormatTrace() string {
	frames := c.vm.Trace()
	var b strings.Builder
	b.WriteString("Traceback (most recent call last):\n")
	for _, f := range frames {
		b.WriteString("  ")
		b.WriteString(f.String())
		if f.SourceLine != "" {
			b.WriteString("\n    ")
			b.WriteString(strings.TrimSpace(f.SourceLine))
		}
		b.WriteString("\n")
	}
	return b.String()
}

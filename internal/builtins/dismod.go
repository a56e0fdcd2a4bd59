package builtins

import (
	"strings"

	"github.com/ochom/vesper/internal/compiler"
	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

// newDisModule builds the `dis` stdlib module, letting script code
// inspect its own compiled functions the way Python's dis.dis does. Wraps
// compiler.Disassembler (internal/compiler/disasm.go) directly.
func newDisModule(ctx *vm.Context) *heap.Object {
	modObj := ctx.NewModule("dis")
	mod := modObj.Payload.(*heap.Module)
	reg := func(name string, fn heap.Native) { mod.Attrs.Set(name, ctx.NewNativeFunc(name, fn)) }

	reg("dis", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 1 {
			return arity(cx, "dis.dis", len(args), 1)
		}
		code, err := codeOf(cx, args[0])
		if err != nil {
			return nil, err
		}
		var buf strings.Builder
		compiler.NewDisassembler(&buf).Disassemble(code)
		out := buf.String()
		cfg := cx.Config()
		if cfg.Print != nil {
			cfg.Print([]byte(out), cfg.PrintUserdata)
		}
		return cx.NewNone(), nil
	})

	reg("dis_str", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 1 {
			return arity(cx, "dis.dis_str", len(args), 1)
		}
		code, err := codeOf(cx, args[0])
		if err != nil {
			return nil, err
		}
		var buf strings.Builder
		compiler.NewDisassembler(&buf).Disassemble(code)
		return cx.NewStr(buf.String()), nil
	})

	return modObj
}

// codeOf extracts a *compiler.Code from a code object or a function object
// (dis.dis() accepts either, matching Python's dis which also disassembles
// live functions, not just compile()'d code objects).
func codeOf(cx *vm.Context, o *heap.Object) (*compiler.Code, error) {
	switch p := o.Payload.(type) {
	case *compiler.Code:
		return p, nil
	case *heap.Function:
		if code, ok := p.Def.Code.(*compiler.Code); ok {
			return code, nil
		}
	}
	cx.Raise(cx.BuiltinClass("TypeError"), "dis() requires a code object or function")
	return nil, vm.ErrRaised
}

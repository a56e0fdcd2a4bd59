package builtins

import (
	"bufio"
	"fmt"
	"os"

	"github.com/ochom/vesper/internal/compiler"
	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

// installMeta registers the reflective and host-interaction free
// functions: callable, getattr, hasattr, setattr, delattr, compile, eval,
// exec, print, input, exit/quit, super.
func installMeta(ctx *vm.Context, r reg) {
	r("callable", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 1 {
			return arity(cx, "callable", len(args), 1)
		}
		switch args[0].Tag {
		case heap.TagFunc, heap.TagClass:
			return cx.NewBool(true), nil
		}
		_, ok := cx.LookupMethod(args[0], "__call__")
		return cx.NewBool(ok), nil
	})

	r("getattr", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) < 2 || len(args) > 3 {
			return arity(cx, "getattr", len(args), 2)
		}
		name, ok := args[1].Payload.(string)
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "getattr(): attribute name must be a string")
			return nil, vm.ErrRaised
		}
		result, err := cx.GetAttr(args[0], name)
		if err != nil {
			if len(args) == 3 {
				cx.ClearException()
				return args[2], nil
			}
			return nil, err
		}
		return result, nil
	})

	r("hasattr", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 2 {
			return arity(cx, "hasattr", len(args), 2)
		}
		name, ok := args[1].Payload.(string)
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "hasattr(): attribute name must be a string")
			return nil, vm.ErrRaised
		}
		return cx.NewBool(cx.HasAttr(args[0], name)), nil
	})

	r("setattr", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 3 {
			return arity(cx, "setattr", len(args), 3)
		}
		name, ok := args[1].Payload.(string)
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "setattr(): attribute name must be a string")
			return nil, vm.ErrRaised
		}
		cx.SetAttr(args[0], name, args[2])
		return cx.NewNone(), nil
	})

	r("delattr", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 2 {
			return arity(cx, "delattr", len(args), 2)
		}
		name, ok := args[1].Payload.(string)
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "delattr(): attribute name must be a string")
			return nil, vm.ErrRaised
		}
		cx.SetAttr(args[0], name, nil)
		return cx.NewNone(), nil
	})

	r("compile", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 3 {
			return arity(cx, "compile", len(args), 3)
		}
		src, ok1 := args[0].Payload.(string)
		name, ok2 := args[1].Payload.(string)
		mode, ok3 := args[2].Payload.(string)
		if !ok1 || !ok2 || !ok3 {
			cx.Raise(cx.BuiltinClass("TypeError"), "compile() expected (str, str, str)")
			return nil, vm.ErrRaised
		}
		code, err := compiler.Compile(src, name, mode)
		if err != nil {
			cx.Raise(cx.BuiltinClass("SyntaxError"), err.Error())
			return nil, vm.ErrRaised
		}
		return cx.NewCodeObject(code), nil
	})

	r("eval", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) < 1 {
			return arity(cx, "eval", len(args), 1)
		}
		code, err := codeFromArg(cx, args[0], "eval")
		if err != nil {
			return nil, err
		}
		moduleName := code.Name
		if len(args) > 1 {
			if name, ok := args[1].Payload.(string); ok {
				moduleName = name
			}
		}
		return cx.RunModule(code, moduleName)
	})

	r("exec", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) < 1 {
			return arity(cx, "exec", len(args), 1)
		}
		code, err := codeFromArg(cx, args[0], "exec")
		if err != nil {
			return nil, err
		}
		moduleName := code.Name
		if len(args) > 1 {
			if name, ok := args[1].Payload.(string); ok {
				moduleName = name
			}
		}
		if _, err := cx.RunModule(code, moduleName); err != nil {
			return nil, err
		}
		return cx.NewNone(), nil
	})

	r("print", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		sep, end := " ", "\n"
		if kw != nil {
			if v, ok := kw.Get(strKey("sep")); ok {
				if s, ok := v.Payload.(string); ok {
					sep = s
				}
			}
			if v, ok := kw.Get(strKey("end")); ok {
				if s, ok := v.Payload.(string); ok {
					end = s
				}
			}
		}
		var out string
		for i, a := range args {
			if i > 0 {
				out += sep
			}
			s, err := cx.Str(a)
			if err != nil {
				return nil, err
			}
			out += s
		}
		out += end
		cfg := cx.Config()
		if cfg.Print != nil {
			cfg.Print([]byte(out), cfg.PrintUserdata)
		} else {
			fmt.Print(out)
		}
		return cx.NewNone(), nil
	})

	r("input", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) == 1 {
			s, err := cx.Str(args[0])
			if err != nil {
				return nil, err
			}
			cfg := cx.Config()
			if cfg.Print != nil {
				cfg.Print([]byte(s), cfg.PrintUserdata)
			} else {
				fmt.Print(s)
			}
		}
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			cx.Raise(cx.BuiltinClass("EOFError"), "EOF when reading a line")
			return nil, vm.ErrRaised
		}
		for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
			line = line[:len(line)-1]
		}
		return cx.NewStr(line), nil
	})

	exitFn := func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		msg := ""
		if len(args) == 1 {
			msg, _ = cx.Str(args[0])
		}
		cx.Raise(cx.BuiltinClass("SystemExit"), msg)
		return nil, vm.ErrRaised
	}
	r("exit", exitFn)
	r("quit", exitFn)

	r("super", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 2 {
			return arity(cx, "super", len(args), 2)
		}
		class, ok := args[0].Payload.(*heap.Class)
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "super() argument 1 must be a class")
			return nil, vm.ErrRaised
		}
		return cx.NewSuper(args[1], class), nil
	})
}

// codeFromArg accepts either a code object (from compile()) or a source
// string compiled on the fly under the given default mode, matching
// eval()/exec()'s "src may be a string or a code object" overload.
func codeFromArg(cx *vm.Context, arg *heap.Object, mode string) (*compiler.Code, error) {
	if code, ok := arg.Payload.(*compiler.Code); ok {
		return code, nil
	}
	src, ok := arg.Payload.(string)
	if !ok {
		cx.Raise(cx.BuiltinClass("TypeError"), mode+"() arg 1 must be a string or code object")
		return nil, vm.ErrRaised
	}
	code, err := compiler.Compile(src, "<"+mode+">", mode)
	if err != nil {
		cx.Raise(cx.BuiltinClass("SyntaxError"), err.Error())
		return nil, vm.ErrRaised
	}
	return code, nil
}

package builtins

import (
	"testing"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

func newTestContext(t *testing.T) (*vm.Context, *heap.Module) {
	t.Helper()
	ctx := vm.NewContext(vm.DefaultConfig())
	modObj := Install(ctx)
	return ctx, modObj.Payload.(*heap.Module)
}

func get(t *testing.T, mod *heap.Module, name string) *heap.Object {
	t.Helper()
	fn, ok := mod.Attrs.Get(name)
	if !ok {
		t.Fatalf("__builtins__ missing %q", name)
	}
	return fn
}

func TestCallableDistinguishesFunctionsFromValues(t *testing.T) {
	ctx, mod := newTestContext(t)
	callable := get(t, mod, "callable")

	r, err := ctx.Call(callable, []*heap.Object{get(t, mod, "print")}, nil)
	if err != nil || r.Payload.(bool) != true {
		t.Fatalf("callable(print) = %v, %v", r, err)
	}

	r, err = ctx.Call(callable, []*heap.Object{ctx.NewInt(1)}, nil)
	if err != nil || r.Payload.(bool) != false {
		t.Fatalf("callable(1) = %v, %v", r, err)
	}
}

func TestGetattrSetattrHasattr(t *testing.T) {
	ctx, mod := newTestContext(t)
	getattr, setattr, hasattr := get(t, mod, "getattr"), get(t, mod, "setattr"), get(t, mod, "hasattr")

	obj := ctx.NewModule("scratch")

	if _, err := ctx.Call(setattr, []*heap.Object{obj, ctx.NewStr("x"), ctx.NewInt(5)}, nil); err != nil {
		t.Fatalf("setattr: %v", err)
	}

	has, err := ctx.Call(hasattr, []*heap.Object{obj, ctx.NewStr("x")}, nil)
	if err != nil || has.Payload.(bool) != true {
		t.Fatalf("hasattr: %v, %v", has, err)
	}

	val, err := ctx.Call(getattr, []*heap.Object{obj, ctx.NewStr("x")}, nil)
	if err != nil {
		t.Fatalf("getattr: %v", err)
	}
	if val.Payload.(int64) != 5 {
		t.Fatalf("getattr value = %v", val.Payload)
	}

	fallback, err := ctx.Call(getattr, []*heap.Object{obj, ctx.NewStr("missing"), ctx.NewInt(99)}, nil)
	if err != nil {
		t.Fatalf("getattr with default should not error: %v", err)
	}
	if fallback.Payload.(int64) != 99 {
		t.Fatalf("getattr default = %v", fallback.Payload)
	}
}

func TestCompileEvalExecRoundTrip(t *testing.T) {
	ctx, mod := newTestContext(t)
	compileFn, evalFn, execFn := get(t, mod, "compile"), get(t, mod, "eval"), get(t, mod, "exec")

	code, err := ctx.Call(compileFn, []*heap.Object{ctx.NewStr("2 + 2"), ctx.NewStr("<test>"), ctx.NewStr("eval")}, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	result, err := ctx.Call(evalFn, []*heap.Object{code}, nil)
	if err != nil {
		t.Fatalf("eval(code): %v", err)
	}
	if result.Payload.(int64) != 4 {
		t.Fatalf("eval result = %v", result.Payload)
	}

	result, err = ctx.Call(evalFn, []*heap.Object{ctx.NewStr("3 * 3")}, nil)
	if err != nil {
		t.Fatalf("eval(str): %v", err)
	}
	if result.Payload.(int64) != 9 {
		t.Fatalf("eval(str) result = %v", result.Payload)
	}

	if _, err := ctx.Call(execFn, []*heap.Object{ctx.NewStr("z = 10")}, nil); err != nil {
		t.Fatalf("exec: %v", err)
	}
}

func TestPrintUsesConfiguredCallback(t *testing.T) {
	cfg := vm.DefaultConfig()
	var out []byte
	cfg.Print = func(data []byte, _ any) { out = append(out, data...) }
	ctx := vm.NewContext(cfg)
	modObj := Install(ctx)
	mod := modObj.Payload.(*heap.Module)

	printFn := get(t, mod, "print")
	if _, err := ctx.Call(printFn, []*heap.Object{ctx.NewStr("a"), ctx.NewStr("b")}, nil); err != nil {
		t.Fatalf("print: %v", err)
	}
	if string(out) != "a b\n" {
		t.Fatalf("print output = %q", out)
	}
}

func TestExitRaisesSystemExit(t *testing.T) {
	ctx, mod := newTestContext(t)
	exitFn := get(t, mod, "exit")

	_, err := ctx.Call(exitFn, []*heap.Object{ctx.NewStr("done")}, nil)
	if err == nil {
		t.Fatal("expected exit() to raise")
	}
	exc := ctx.CurrentException()
	if exc == nil || string(exc.Tag) != "SystemExit" {
		t.Fatalf("exception = %v, want SystemExit", exc)
	}
}

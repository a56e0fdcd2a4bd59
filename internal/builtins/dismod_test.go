package builtins

import (
	"strings"
	"testing"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

func TestDisStrDisassemblesCompiledCode(t *testing.T) {
	ctx, builtinsMod := newTestContext(t)
	disModObj := newDisModule(ctx)
	disMod := disModObj.Payload.(*heap.Module)

	compileFn := get(t, builtinsMod, "compile")
	code, err := ctx.Call(compileFn, []*heap.Object{ctx.NewStr("1 + 2"), ctx.NewStr("<test>"), ctx.NewStr("eval")}, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	disStrFn := get(t, disMod, "dis_str")
	out, err := ctx.Call(disStrFn, []*heap.Object{code}, nil)
	if err != nil {
		t.Fatalf("dis.dis_str: %v", err)
	}
	listing := out.Payload.(string)
	if !strings.Contains(listing, "<test>") {
		t.Fatalf("disassembly missing module name: %q", listing)
	}
}

func TestDisRequiresCodeOrFunction(t *testing.T) {
	ctx := vm.NewContext(vm.DefaultConfig())
	modObj := newDisModule(ctx)
	mod := modObj.Payload.(*heap.Module)
	disStrFn := get(t, mod, "dis_str")

	_, err := ctx.Call(disStrFn, []*heap.Object{ctx.NewInt(1)}, nil)
	if err == nil {
		t.Fatal("expected dis_str(1) to raise TypeError")
	}
	exc := ctx.CurrentException()
	if exc == nil || string(exc.Tag) != "TypeError" {
		t.Fatalf("exception = %v, want TypeError", exc)
	}
}

package builtins

import (
	"testing"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

func TestSysArgvReflectsConfig(t *testing.T) {
	cfg := vm.DefaultConfig()
	cfg.Argv = []string{"script.vsp", "a", "b"}
	ctx := vm.NewContext(cfg)
	modObj := newSysModule(ctx)
	mod := modObj.Payload.(*heap.Module)

	argv, ok := mod.Attrs.Get("argv")
	if !ok {
		t.Fatal("sys module missing argv")
	}
	elems, err := ctx.IterateAll(argv)
	if err != nil || len(elems) != 3 {
		t.Fatalf("sys.argv = %v, %v", elems, err)
	}
	if elems[0].Payload.(string) != "script.vsp" {
		t.Fatalf("sys.argv[0] = %v", elems[0].Payload)
	}
}

func TestSysExitRaisesSystemExit(t *testing.T) {
	ctx := vm.NewContext(vm.DefaultConfig())
	modObj := newSysModule(ctx)
	mod := modObj.Payload.(*heap.Module)
	exitFn := get(t, mod, "exit")

	_, err := ctx.Call(exitFn, []*heap.Object{ctx.NewStr("bye")}, nil)
	if err == nil {
		t.Fatal("expected sys.exit() to raise")
	}
	exc := ctx.CurrentException()
	if exc == nil || string(exc.Tag) != "SystemExit" {
		t.Fatalf("exception = %v, want SystemExit", exc)
	}
}

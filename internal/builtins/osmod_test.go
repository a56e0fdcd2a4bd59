package builtins

import (
	"testing"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

func TestOSModuleRequiresEnableOSAccess(t *testing.T) {
	ctx := vm.NewContext(vm.DefaultConfig())
	modObj := newOSModule(ctx)
	mod := modObj.Payload.(*heap.Module)
	getcwdFn := get(t, mod, "getcwd")

	_, err := ctx.Call(getcwdFn, nil, nil)
	if err == nil {
		t.Fatal("expected os.getcwd() to fail without EnableOSAccess")
	}
	exc := ctx.CurrentException()
	if exc == nil || string(exc.Tag) != "OSError" {
		t.Fatalf("exception = %v, want OSError", exc)
	}
}

func TestOSGetenvWithEnableOSAccess(t *testing.T) {
	cfg := vm.DefaultConfig()
	cfg.EnableOSAccess = true
	ctx := vm.NewContext(cfg)
	modObj := newOSModule(ctx)
	mod := modObj.Payload.(*heap.Module)
	getenvFn := get(t, mod, "getenv")

	r, err := ctx.Call(getenvFn, []*heap.Object{ctx.NewStr("VESPER_DOES_NOT_EXIST"), ctx.NewStr("fallback")}, nil)
	if err != nil {
		t.Fatalf("os.getenv: %v", err)
	}
	if r.Payload.(string) != "fallback" {
		t.Fatalf("os.getenv default = %v", r.Payload)
	}
}

func TestOSListdirWithEnableOSAccess(t *testing.T) {
	cfg := vm.DefaultConfig()
	cfg.EnableOSAccess = true
	ctx := vm.NewContext(cfg)
	modObj := newOSModule(ctx)
	mod := modObj.Payload.(*heap.Module)
	listdirFn := get(t, mod, "listdir")

	dir := t.TempDir()
	r, err := ctx.Call(listdirFn, []*heap.Object{ctx.NewStr(dir)}, nil)
	if err != nil {
		t.Fatalf("os.listdir: %v", err)
	}
	if r.Tag != heap.TagList {
		t.Fatalf("os.listdir result tag = %v", r.Tag)
	}
}

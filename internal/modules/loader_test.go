package modules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ochom/vesper/internal/vm"
)

func newTestContext(t *testing.T, importPath string) *vm.Context {
	t.Helper()
	cfg := vm.DefaultConfig()
	cfg.ImportPath = importPath
	ctx := vm.NewContext(cfg)
	ctx.SetLoader(New())
	return ctx
}

func TestLoadNativeModule(t *testing.T) {
	ctx := newTestContext(t, t.TempDir())

	mod, err := New().Load(ctx, "math")
	if err != nil {
		t.Fatalf("Load(math): %v", err)
	}
	if mod == nil {
		t.Fatal("Load(math) returned nil module")
	}
	if _, ok := mod.Attrs.Get("pi"); !ok {
		t.Fatal("math module missing pi")
	}
}

func TestLoadFileBackedModule(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "greet.vsp"), []byte("name = \"world\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := newTestContext(t, dir)

	mod, err := New().Load(ctx, "greet")
	if err != nil {
		t.Fatalf("Load(greet): %v", err)
	}
	name, ok := mod.Attrs.Get("name")
	if !ok {
		t.Fatal("greet module missing name")
	}
	if name.Payload.(string) != "world" {
		t.Fatalf("name = %v", name.Payload)
	}
}

func TestLoadUnknownModuleRaisesImportError(t *testing.T) {
	ctx := newTestContext(t, t.TempDir())

	_, err := New().Load(ctx, "does_not_exist")
	if err == nil {
		t.Fatal("expected an error for an unknown module")
	}
	exc := ctx.CurrentException()
	if exc == nil {
		t.Fatal("expected ImportError to be raised")
	}
	if string(exc.Tag) != "ImportError" {
		t.Fatalf("exception class = %q, want ImportError", exc.Tag)
	}
}

func TestLoadModuleWithSyntaxErrorRaisesSyntaxError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.vsp"), []byte("def f(:\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := newTestContext(t, dir)

	_, err := New().Load(ctx, "broken")
	if err == nil {
		t.Fatal("expected an error for invalid syntax")
	}
	exc := ctx.CurrentException()
	if exc == nil || string(exc.Tag) != "SyntaxError" {
		t.Fatalf("exception = %v, want SyntaxError", exc)
	}
}

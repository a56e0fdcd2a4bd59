package vesper

import (
	"strings"
	"testing"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

func captureOutput() (*Context, *strings.Builder) {
	var buf strings.Builder
	ctx := New(WithPrint(func(data []byte, _ any) {
		buf.Write(data)
	}, nil))
	return ctx, &buf
}

func TestExecPrintsToConfiguredWriter(t *testing.T) {
	ctx, out := captureOutput()
	defer ctx.Close()

	if _, err := ctx.Exec(`print("hello", "world")`, "__main__"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if got := out.String(); got != "hello world\n" {
		t.Fatalf("print output = %q", got)
	}
}

func TestEvalReturnsExpressionValue(t *testing.T) {
	ctx := New()
	defer ctx.Close()

	result, err := ctx.Eval("1 + 2 * 3", "__main__")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	v, ok := Inspect(result)
	if !ok || v.(int64) != 7 {
		t.Fatalf("Eval result = %#v, want 7", v)
	}
}

func TestGetSetGlobal(t *testing.T) {
	ctx := New()
	defer ctx.Close()

	ctx.SetGlobal("__main__", "x", ctx.Int(42))
	if _, err := ctx.Exec("y = x + 1", "__main__"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	y, ok := ctx.GetGlobal("__main__", "y")
	if !ok {
		t.Fatal("y not found in globals")
	}
	v, _ := Inspect(y)
	if v.(int64) != 43 {
		t.Fatalf("y = %#v, want 43", v)
	}
}

func TestRaiseAndCatchInScript(t *testing.T) {
	ctx, out := captureOutput()
	defer ctx.Close()

	src := `
try:
    raise ValueError("bad input")
except ValueError as e:
    print("caught:", e)
`
	if _, err := ctx.Exec(src, "__main__"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if !strings.Contains(out.String(), "caught:") {
		t.Fatalf("output = %q, want caught message", out.String())
	}
}

func TestUncaughtExceptionSurfacesOnContext(t *testing.T) {
	ctx := New()
	defer ctx.Close()

	_, err := ctx.Exec(`raise RuntimeError("boom")`, "__main__")
	if err == nil {
		t.Fatal("expected an error")
	}
	exc := ctx.CurrentException()
	if exc == nil {
		t.Fatal("expected CurrentException to be set")
	}
	if ExceptionMessage(exc) != "boom" {
		t.Fatalf("message = %q", ExceptionMessage(exc))
	}
	if string(exc.Tag) != "RuntimeError" {
		t.Fatalf("exception class = %q", exc.Tag)
	}
	ctx.ClearException()
	if ctx.CurrentException() != nil {
		t.Fatal("ClearException did not clear")
	}
}

func TestRegisterFunction(t *testing.T) {
	ctx, out := captureOutput()
	defer ctx.Close()

	ctx.RegisterFunction("__main__", "double", func(c heap.Context, args []*heap.Object, _ *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		n := args[0].Payload.(int64)
		return cx.NewInt(n * 2), nil
	})

	if _, err := ctx.Exec(`print(double(21))`, "__main__"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if got := out.String(); got != "42\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestCompileAndRunSeparately(t *testing.T) {
	ctx := New()
	defer ctx.Close()

	prog, err := ctx.Compile("result = 10 * 10", "mod")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := ctx.Run(prog, "mod"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	result, ok := ctx.GetGlobal("mod", "result")
	if !ok {
		t.Fatal("result not found")
	}
	v, _ := Inspect(result)
	if v.(int64) != 100 {
		t.Fatalf("result = %#v", v)
	}
}

func TestUnpack(t *testing.T) {
	ctx := New()
	defer ctx.Close()

	pair := ctx.Tuple([]*heap.Object{ctx.Int(1), ctx.Int(2)})
	elems, err := ctx.Unpack(pair, 2)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if len(elems) != 2 {
		t.Fatalf("len(elems) = %d, want 2", len(elems))
	}

	if _, err := ctx.Unpack(pair, 3); err == nil {
		t.Fatal("expected Unpack count mismatch to fail")
	}
}

func TestCompileErrorIsPlainError(t *testing.T) {
	ctx := New()
	defer ctx.Close()

	_, err := ctx.Exec("def f(:\n    pass", "__main__")
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	if ctx.CurrentException() != nil {
		t.Fatal("a syntax error must not set the exception slot")
	}
}

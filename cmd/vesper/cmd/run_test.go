package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ochom/vesper/pkg/vesper"
)

func TestReadScriptInputEval(t *testing.T) {
	input, name, argv, err := readScriptInput("print(1)", nil)
	if err != nil {
		t.Fatalf("readScriptInput: %v", err)
	}
	if input != "print(1)" || name != "<eval>" {
		t.Fatalf("input=%q name=%q", input, name)
	}
	if len(argv) != 1 || argv[0] != "<eval>" {
		t.Fatalf("argv = %v", argv)
	}
}

func TestReadScriptInputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.vsp")
	if err := os.WriteFile(path, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	input, name, argv, err := readScriptInput("", []string{path, "extra"})
	if err != nil {
		t.Fatalf("readScriptInput: %v", err)
	}
	if input != "x = 1\n" || name != path {
		t.Fatalf("input=%q name=%q", input, name)
	}
	if len(argv) != 2 || argv[0] != path || argv[1] != "extra" {
		t.Fatalf("argv = %v", argv)
	}
}

func TestReadScriptInputRequiresFileOrEval(t *testing.T) {
	if _, _, _, err := readScriptInput("", nil); err == nil {
		t.Fatal("expected an error when neither -e nor a file is given")
	}
}

func TestReadScriptInputMissingFile(t *testing.T) {
	if _, _, _, err := readScriptInput("", []string{"/nonexistent/path.vsp"}); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestReportRuntimeErrorPassesThroughPlainError(t *testing.T) {
	ctx := vesper.New()
	defer ctx.Close()

	plain := os.ErrNotExist
	if got := reportRuntimeError(ctx, plain); got != plain {
		t.Fatalf("reportRuntimeError with no exception = %v, want original error", got)
	}
}

func TestReportRuntimeErrorReportsRaisedException(t *testing.T) {
	ctx := vesper.New()
	defer ctx.Close()

	_, execErr := ctx.Exec(`raise ValueError("boom")`, "__main__")
	if execErr == nil {
		t.Fatal("expected Exec to return an error")
	}
	if err := reportRuntimeError(ctx, execErr); err == nil {
		t.Fatal("expected reportRuntimeError to return a non-nil error")
	}
	if ctx.CurrentException() != nil {
		t.Fatal("reportRuntimeError should clear the exception")
	}
}

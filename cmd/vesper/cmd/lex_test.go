package cmd

import (
	"testing"

	"github.com/ochom/vesper/internal/lexer"
)

func TestLexDiagnosticsWrapsLexerErrors(t *testing.T) {
	errs := []lexer.Error{{Msg: "bad token"}}
	diags := lexDiagnostics("f.vsp", "x", errs)
	if len(diags) != 1 {
		t.Fatalf("len(diags) = %d, want 1", len(diags))
	}
}

func TestLexScriptSucceedsOnValidInput(t *testing.T) {
	lexEval = "x = 1 + 2"
	defer func() { lexEval = "" }()

	if err := lexScript(nil, nil); err != nil {
		t.Fatalf("lexScript: %v", err)
	}
}

func TestLexScriptFailsWithoutInput(t *testing.T) {
	lexEval = ""
	if err := lexScript(nil, nil); err == nil {
		t.Fatal("expected an error when no input is provided")
	}
}

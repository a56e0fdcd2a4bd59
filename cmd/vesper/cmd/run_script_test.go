package cmd

import "testing"

func TestRunScriptExecutesInlineCode(t *testing.T) {
	evalExpr = "print('ok')"
	enableOS = false
	importDir = "."
	defer func() { evalExpr = "" }()

	if err := runScript(nil, nil); err != nil {
		t.Fatalf("runScript: %v", err)
	}
}

func TestRunScriptReportsUncaughtException(t *testing.T) {
	evalExpr = "raise RuntimeError('boom')"
	defer func() { evalExpr = "" }()

	if err := runScript(nil, nil); err == nil {
		t.Fatal("expected an error for an uncaught exception")
	}
}

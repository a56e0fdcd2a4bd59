package cmd

import "testing"

func TestRunDisSucceedsOnValidExpr(t *testing.T) {
	disEval = "1 + 2"
	disMode = "eval"
	defer func() { disEval, disMode = "", "exec" }()

	if err := runDis(nil, nil); err != nil {
		t.Fatalf("runDis: %v", err)
	}
}

func TestRunDisFailsOnSyntaxError(t *testing.T) {
	disEval = "def f(:"
	disMode = "exec"
	defer func() { disEval, disMode = "", "exec" }()

	if err := runDis(nil, nil); err == nil {
		t.Fatal("expected a compile error for invalid syntax")
	}
}

func TestRunDisRequiresInput(t *testing.T) {
	disEval = ""
	defer func() { disEval = "" }()

	if err := runDis(nil, nil); err == nil {
		t.Fatal("expected an error when no input is given")
	}
}

package cmd

import "testing"

func TestRunParseSucceedsOnValidInput(t *testing.T) {
	parseEval = "1 + 2"
	defer func() { parseEval = "" }()

	if err := runParse(nil, nil); err != nil {
		t.Fatalf("runParse: %v", err)
	}
}

func TestRunParseReportsSyntaxErrors(t *testing.T) {
	parseEval = "def f(:"
	defer func() { parseEval = "" }()

	if err := runParse(nil, nil); err == nil {
		t.Fatal("expected a parse error for invalid syntax")
	}
}

package cmd

import (
	"fmt"
	"os"

	"github.com/ochom/vesper/internal/diag"
	"github.com/ochom/vesper/internal/lexer"
	"github.com/ochom/vesper/internal/source"
	"github.com/spf13/cobra"
)

var lexEval string

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a Vesper file or expression and dump its logical-line tree",
	Long: `Tokenize a Vesper program and print the resulting logical-line tree
(one line per statement, indented to show nesting), the same tree the
parser consumes.

Examples:
  # Tokenize a script file
  vesper lex script.vsp

  # Tokenize an inline expression
  vesper lex -e "x = 1 + 2"`,
	Args: cobra.MaximumNArgs(1),
	RunE: lexScript,
}

func init() {
	rootCmd.AddCommand(lexCmd)
	lexCmd.Flags().StringVarP(&lexEval, "eval", "e", "", "tokenize inline code instead of reading from file")
}

func lexScript(_ *cobra.Command, args []string) error {
	input, name, _, err := readScriptInput(lexEval, args)
	if err != nil {
		return err
	}

	buf := source.NewFromString(name, input)
	toks, lexErrs := lexer.Tokenize(buf.Text)
	if len(lexErrs) > 0 {
		fmt.Fprint(os.Stderr, diag.FormatAll(lexDiagnostics(name, input, lexErrs)))
		return fmt.Errorf("lexing failed with %d error(s)", len(lexErrs))
	}

	root, treeErrs := lexer.BuildTree(toks, buf)
	if len(treeErrs) > 0 {
		fmt.Fprint(os.Stderr, diag.FormatAll(lexDiagnostics(name, input, treeErrs)))
		return fmt.Errorf("lexing failed with %d error(s)", len(treeErrs))
	}

	fmt.Print(lexer.Dump(root))
	return nil
}

func lexDiagnostics(file, source string, errs []lexer.Error) []diag.Diagnostic {
	out := make([]diag.Diagnostic, len(errs))
	for i, e := range errs {
		out[i] = diag.New(file, source, e.Msg, e.Pos)
	}
	return out
}
